package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Clark-Hu/flicks-picks/internal/api"
	"github.com/Clark-Hu/flicks-picks/internal/domain"
	"github.com/Clark-Hu/flicks-picks/internal/router"
)

// StatusInvalidForm is reported for submissions rejected before reaching the API.
const StatusInvalidForm = http.StatusUnprocessableEntity

// statusTransport is reported when the API could not be reached at all.
const statusTransport = http.StatusBadGateway

func (h *Handlers) login(req *router.Request) (router.Outcome, error) {
	res, err := h.api.Login(req.Context(), domain.Credentials{
		Username: req.Form.Get("username"),
		Password: req.Form.Get("password"),
	})
	if err != nil {
		return h.transportFailure(req, "login", err), nil
	}
	if !res.OK() {
		return router.Fail(res.StatusCode), nil
	}
	token, _, found := res.SessionCookie()
	if !found || token == "" {
		h.logger.Warn("web: login accepted without a session cookie")
		return router.Fail(statusTransport), nil
	}
	if err := h.sessions.SignIn(req.Writer, req.HTTP, token); err != nil {
		return router.Outcome{}, err
	}
	return router.Redirect("/"), nil
}

func (h *Handlers) register(req *router.Request) (router.Outcome, error) {
	password := req.Form.Get("password")
	if confirm, ok := req.Form["password2"]; ok && (len(confirm) != 1 || confirm[0] != password) {
		return router.Fail(StatusInvalidForm), nil
	}
	res, err := h.api.Register(req.Context(), domain.Registration{
		Username: strings.TrimSpace(req.Form.Get("username")),
		Email:    strings.TrimSpace(req.Form.Get("email")),
		Password: password,
	})
	if err != nil {
		return h.transportFailure(req, "register", err), nil
	}
	if !res.OK() {
		return router.Fail(res.StatusCode), nil
	}
	return router.Redirect("/login?registered"), nil
}

// saveReview upserts the viewer's review when text or rating was submitted and
// deletes it when both are blank.
func (h *Handlers) saveReview(req *router.Request) (router.Outcome, error) {
	filmID, err := strconv.ParseInt(strings.TrimSpace(req.Form.Get("film_id")), 10, 64)
	if err != nil || filmID <= 0 {
		filmID, err = strconv.ParseInt(req.Param("filmId"), 10, 64)
	}
	if err != nil || filmID <= 0 {
		return router.Fail(StatusInvalidForm), nil
	}

	content := strings.TrimSpace(req.Form.Get("content"))
	ratingText := strings.TrimSpace(req.Form.Get("rating"))

	var res *api.Response
	if content != "" || ratingText != "" {
		upsert := domain.ReviewUpsert{FilmID: filmID, Content: content}
		if ratingText != "" {
			rating, err := strconv.Atoi(ratingText)
			if err != nil || rating < 1 || rating > 10 {
				return router.Fail(StatusInvalidForm), nil
			}
			upsert.Rating = &rating
		}
		res, err = h.api.AddReview(req.Context(), upsert)
	} else {
		res, err = h.api.DeleteReview(req.Context(), domain.ReviewDelete{FilmID: filmID})
	}
	if err != nil {
		return h.transportFailure(req, "save review", err), nil
	}
	if !res.OK() {
		h.checkAuth(req, res)
		return router.Fail(res.StatusCode), nil
	}
	return router.Redirect("/"), nil
}

func (h *Handlers) updateProfile(req *router.Request) (router.Outcome, error) {
	res, err := h.api.UpdateProfile(req.Context(), domain.ProfileUpdate{
		Username:        strings.TrimSpace(req.Form.Get("username")),
		Email:           strings.TrimSpace(req.Form.Get("email")),
		CurrentPassword: req.Form.Get("current_password"),
		NewPassword:     req.Form.Get("new_password"),
	})
	if err != nil {
		return h.transportFailure(req, "update profile", err), nil
	}
	if !res.OK() {
		h.checkAuth(req, res)
		return router.Fail(res.StatusCode), nil
	}
	return router.Redirect("/profile-app/profile"), nil
}

func (h *Handlers) unsubscribe(req *router.Request) (router.Outcome, error) {
	res, err := h.api.Unsubscribe(req.Context(), domain.Unsubscribe{Password: req.Form.Get("password")})
	if err != nil {
		return h.transportFailure(req, "unsubscribe", err), nil
	}
	if !res.OK() {
		h.checkAuth(req, res)
		return router.Fail(res.StatusCode), nil
	}
	if err := h.sessions.SignOut(req.Writer, req.HTTP); err != nil {
		return router.Outcome{}, err
	}
	return router.Redirect("/"), nil
}

func (h *Handlers) logout(req *router.Request) (router.Outcome, error) {
	res, err := h.api.Logout(req.Context())
	if err != nil {
		return h.transportFailure(req, "logout", err), nil
	}
	if !res.OK() {
		h.checkAuth(req, res)
		return router.Fail(res.StatusCode), nil
	}
	if err := h.sessions.SignOut(req.Writer, req.HTTP); err != nil {
		return router.Outcome{}, err
	}
	return router.Redirect("/"), nil
}

func (h *Handlers) transportFailure(req *router.Request, op string, err error) router.Outcome {
	h.logger.WithError(err).WithFields(logrus.Fields{
		"op":   op,
		"path": req.HTTP.URL.Path,
	}).Warn("web: upstream unreachable")
	return router.Fail(statusTransport)
}
