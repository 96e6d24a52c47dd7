// Package api wraps every call the web client makes to the remote film API.
//
// Each operation issues exactly one request and hands back the upstream status and
// body. A non-2xx status is not an error: callers inspect Response.OK and branch.
// Only transport failures (dial, TLS, timeout, cancellation) surface as errors, and
// they always wrap ErrTransport. Nothing is retried or cached.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/Clark-Hu/flicks-picks/internal/domain"
)

// SessionCookieName is the cookie the remote API uses for its session token.
const SessionCookieName = "session"

const maxResponseBody = 4 << 20 // 4 MiB

// ErrTransport marks failures where no upstream response was obtained.
var ErrTransport = errors.New("api: transport failure")

// Service is the set of remote operations loaders and actions depend on.
type Service interface {
	SearchFilms(ctx context.Context, filter domain.SearchFilter) (*Response, error)
	FilmDetails(ctx context.Context, filmID int64) (*Response, error)
	FilmReviews(ctx context.Context, filmID int64) (*Response, error)
	Login(ctx context.Context, creds domain.Credentials) (*Response, error)
	Logout(ctx context.Context) (*Response, error)
	Register(ctx context.Context, reg domain.Registration) (*Response, error)
	Profile(ctx context.Context) (*Response, error)
	UpdateProfile(ctx context.Context, upd domain.ProfileUpdate) (*Response, error)
	Unsubscribe(ctx context.Context, req domain.Unsubscribe) (*Response, error)
	UserReviews(ctx context.Context) (*Response, error)
	AddReview(ctx context.Context, review domain.ReviewUpsert) (*Response, error)
	DeleteReview(ctx context.Context, req domain.ReviewDelete) (*Response, error)
}

// Options tunes the HTTP client.
type Options struct {
	Timeout    time.Duration
	RatePerSec float64
	Burst      int
	Logger     *logrus.Logger
}

// Client implements Service over HTTP.
type Client struct {
	baseURL *url.URL
	client  *http.Client
	limiter *rate.Limiter
	logger  *logrus.Logger
}

var _ Service = (*Client)(nil)

// NewClient constructs an HTTP-backed client for the API rooted at baseURL.
func NewClient(baseURL string, opts Options) (*Client, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("api url %q must be absolute", baseURL)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	limit := rate.Inf
	if opts.RatePerSec > 0 {
		limit = rate.Limit(opts.RatePerSec)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		baseURL: parsed,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   timeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:          100,
				MaxIdleConnsPerHost:   20,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   timeout,
				ResponseHeaderTimeout: timeout,
				ExpectContinueTimeout: 1 * time.Second,
			},
			// Upstream redirects are reported, not followed.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger,
	}, nil
}

// SearchFilms posts the filter to the film search endpoint.
func (c *Client) SearchFilms(ctx context.Context, filter domain.SearchFilter) (*Response, error) {
	return c.do(ctx, http.MethodPost, "/films/", filter)
}

// FilmDetails fetches a single film.
func (c *Client) FilmDetails(ctx context.Context, filmID int64) (*Response, error) {
	return c.do(ctx, http.MethodGet, fmt.Sprintf("/films/%d/", filmID), nil)
}

// FilmReviews lists every review of a film.
func (c *Client) FilmReviews(ctx context.Context, filmID int64) (*Response, error) {
	return c.do(ctx, http.MethodGet, fmt.Sprintf("/films/%d/reviews/", filmID), nil)
}

// Login posts credentials; on success the response sets the session cookie.
func (c *Client) Login(ctx context.Context, creds domain.Credentials) (*Response, error) {
	return c.do(ctx, http.MethodPost, "/users/login/", creds)
}

// Logout ends the upstream session.
func (c *Client) Logout(ctx context.Context) (*Response, error) {
	return c.do(ctx, http.MethodDelete, "/users/logout/", nil)
}

// Register creates an account. A 409 means the user already exists.
func (c *Client) Register(ctx context.Context, reg domain.Registration) (*Response, error) {
	return c.do(ctx, http.MethodPost, "/users/register/", reg)
}

// Profile fetches the logged-in user's profile.
func (c *Client) Profile(ctx context.Context) (*Response, error) {
	return c.do(ctx, http.MethodGet, "/users/profile-info/", nil)
}

// UpdateProfile changes profile fields.
func (c *Client) UpdateProfile(ctx context.Context, upd domain.ProfileUpdate) (*Response, error) {
	return c.do(ctx, http.MethodPut, "/users/profile-update/", upd)
}

// Unsubscribe deletes the account.
func (c *Client) Unsubscribe(ctx context.Context, req domain.Unsubscribe) (*Response, error) {
	return c.do(ctx, http.MethodPut, "/users/delete/", req)
}

// UserReviews lists the logged-in user's review history.
func (c *Client) UserReviews(ctx context.Context) (*Response, error) {
	return c.do(ctx, http.MethodGet, "/users/history/", nil)
}

// AddReview creates or replaces the user's review of a film.
func (c *Client) AddReview(ctx context.Context, review domain.ReviewUpsert) (*Response, error) {
	return c.do(ctx, http.MethodPost, "/users/add-review/", review)
}

// DeleteReview removes the user's review of a film.
func (c *Client) DeleteReview(ctx context.Context, req domain.ReviewDelete) (*Response, error) {
	return c.do(ctx, http.MethodPut, "/users/delete-review/", req)
}

func (c *Client) do(ctx context.Context, method, path string, payload interface{}) (*Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrTransport, method, path, err)
	}

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s payload: %w", method, path, err)
		}
		body = bytes.NewReader(encoded)
	}

	endpoint := c.baseURL.ResolveReference(&url.URL{Path: c.baseURL.Path + path})
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token, ok := SessionFrom(ctx); ok {
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.WithError(err).WithFields(logrus.Fields{
			"method": method,
			"path":   path,
		}).Warn("api: request failed")
		return nil, fmt.Errorf("%w: %s %s: %w", ErrTransport, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s %s: %w", ErrTransport, method, path, err)
	}

	c.logger.WithFields(logrus.Fields{
		"method":  method,
		"path":    path,
		"status":  resp.StatusCode,
		"latency": time.Since(start).String(),
	}).Debug("api: request completed")

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       raw,
		cookies:    resp.Cookies(),
	}, nil
}
