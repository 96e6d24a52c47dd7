package web

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/Clark-Hu/flicks-picks/internal/api"
	"github.com/Clark-Hu/flicks-picks/internal/domain"
	"github.com/Clark-Hu/flicks-picks/internal/router"
	"github.com/Clark-Hu/flicks-picks/internal/search"
)

// upstreamError is a non-2xx answer inside a fan-out.
type upstreamError struct {
	op     string
	status int
	res    *api.Response
}

func (e *upstreamError) Error() string {
	return fmt.Sprintf("%s: upstream status %d", e.op, e.status)
}

func (h *Handlers) loadHome(req *router.Request) (router.Outcome, error) {
	q := req.Query().Get("q")
	filter := domain.SearchFilter{}
	if strings.TrimSpace(q) != "" {
		filter = search.Classify(q)
	}
	data := HomeData{Query: q}

	res, err := h.api.SearchFilms(req.Context(), filter)
	if err != nil {
		h.logger.WithError(err).Warn("web: search films")
		data.Unavailable = true
		return router.Render(data), nil
	}
	if !res.OK() {
		h.checkAuth(req, res)
		h.logger.WithField("status", res.StatusCode).Warn("web: search films rejected")
		data.Unavailable = true
		return router.Render(data), nil
	}
	var list domain.FilmList
	if err := res.Decode(&list); err != nil {
		return router.Outcome{}, err
	}
	data.Films = list.Films
	return router.Render(data), nil
}

// loadFilm fetches the film, its reviews and the viewer's review history at once.
// Any failure abandons the other two and sends the browser home.
func (h *Handlers) loadFilm(req *router.Request) (router.Outcome, error) {
	filmID, err := strconv.ParseInt(req.Param("filmId"), 10, 64)
	if err != nil || filmID <= 0 {
		h.logger.WithField("film_id", req.Param("filmId")).Warn("web: invalid film id")
		return router.Redirect("/"), nil
	}

	var details, reviews, history *api.Response
	g, ctx := errgroup.WithContext(req.Context())
	g.Go(fetch(ctx, "film details", &details, func(ctx context.Context) (*api.Response, error) {
		return h.api.FilmDetails(ctx, filmID)
	}))
	g.Go(fetch(ctx, "film reviews", &reviews, func(ctx context.Context) (*api.Response, error) {
		return h.api.FilmReviews(ctx, filmID)
	}))
	g.Go(fetch(ctx, "user reviews", &history, h.api.UserReviews))
	if err := g.Wait(); err != nil {
		if req.Context().Err() != nil {
			return router.Outcome{}, req.Context().Err()
		}
		var ue *upstreamError
		if errors.As(err, &ue) {
			h.checkAuth(req, ue.res)
		}
		h.logger.WithError(err).WithFields(logrus.Fields{"film_id": filmID}).Error("web: load film")
		return router.Redirect("/"), nil
	}

	var data FilmData
	if err := details.Decode(&data.Details); err != nil {
		return router.Outcome{}, err
	}
	var filmReviews, userReviews domain.ReviewList
	if err := reviews.Decode(&filmReviews); err != nil {
		return router.Outcome{}, err
	}
	if err := history.Decode(&userReviews); err != nil {
		return router.Outcome{}, err
	}
	data.Reviews = filmReviews.Reviews
	data.UserReview = userReviews.FindByFilm(filmID)
	return router.Render(data), nil
}

func fetch(ctx context.Context, op string, dst **api.Response, call func(context.Context) (*api.Response, error)) func() error {
	return func() error {
		res, err := call(ctx)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if !res.OK() {
			return &upstreamError{op: op, status: res.StatusCode, res: res}
		}
		*dst = res
		return nil
	}
}

func (h *Handlers) loadProfile(req *router.Request) (router.Outcome, error) {
	res, err := h.api.Profile(req.Context())
	if err != nil {
		h.logger.WithError(err).Warn("web: load profile")
		return router.Redirect("/"), nil
	}
	if !res.OK() {
		h.checkAuth(req, res)
		return router.Redirect("/"), nil
	}
	var profile domain.UserProfile
	if err := res.Decode(&profile); err != nil {
		return router.Outcome{}, err
	}
	return router.Render(profile), nil
}
