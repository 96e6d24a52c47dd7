// Package web holds the route table of the film client together with its loaders
// and actions, and the HTTP server that mounts them.
package web

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/Clark-Hu/flicks-picks/internal/api"
	"github.com/Clark-Hu/flicks-picks/internal/domain"
	"github.com/Clark-Hu/flicks-picks/internal/router"
	"github.com/Clark-Hu/flicks-picks/internal/session"
)

// HomeData feeds the film list.
type HomeData struct {
	Query       string
	Films       []domain.FilmSummary
	Unavailable bool
}

// FilmData feeds the film page. UserReview is nil when the viewer has not reviewed
// the film.
type FilmData struct {
	Details    domain.FilmDetail
	Reviews    []domain.Review
	UserReview *domain.Review
}

// Handlers implements the loaders and actions of the route table.
type Handlers struct {
	api      api.Service
	sessions *session.Manager
	logger   *logrus.Logger
}

// NewHandlers wires loaders and actions to the remote API.
func NewHandlers(svc api.Service, sessions *session.Manager, logger *logrus.Logger) *Handlers {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handlers{api: svc, sessions: sessions, logger: logger}
}

// Routes returns the route table.
func (h *Handlers) Routes() []router.Route {
	return []router.Route{
		{
			Path: "/",
			View: "app",
			Children: []router.Route{
				{Path: "", View: "list", Loader: h.loadHome},
				{Path: "film/{filmId}", View: "film", Loader: h.loadFilm, Action: h.saveReview, ErrorView: "error"},
			},
		},
		{Path: "/login", View: "login", Action: h.login},
		{Path: "/register", View: "register", Action: h.register},
		{
			Path:   "/profile-app",
			View:   "profile-app",
			Action: h.logout,
			Children: []router.Route{
				{Path: "", Loader: redirectTo("/profile-app/profile")},
				{Path: "profile", View: "profile", Loader: h.loadProfile, Action: h.unsubscribe},
				{Path: "profile-update", View: "profile-update", Loader: h.loadProfile, Action: h.updateProfile},
			},
		},
	}
}

func redirectTo(location string) router.Loader {
	return func(*router.Request) (router.Outcome, error) {
		return router.Redirect(location), nil
	}
}

// checkAuth drops the local session when the upstream no longer recognises it.
func (h *Handlers) checkAuth(req *router.Request, res *api.Response) {
	if res == nil || res.StatusCode != http.StatusUnauthorized {
		return
	}
	if !session.ViewerFrom(req.Context()).LoggedIn {
		return
	}
	h.logger.WithField("path", req.HTTP.URL.Path).Info("web: upstream session rejected, signing out")
	if err := h.sessions.SignOut(req.Writer, req.HTTP); err != nil {
		h.logger.WithError(err).Warn("web: clear session")
	}
}
