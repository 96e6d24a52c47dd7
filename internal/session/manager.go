// Package session keeps the remote API's session token in the browser session and
// exposes the logged-in state to the rest of the request.
package session

import (
	"context"
	"crypto/sha256"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/sirupsen/logrus"

	"github.com/Clark-Hu/flicks-picks/internal/api"
)

// CookieName names the browser cookie holding the session.
const CookieName = "flicks_session"

const (
	keyToken    = "api_session"
	keyLoggedIn = "logged_in"
)

// Viewer is the read-only authentication state of the current request.
type Viewer struct {
	LoggedIn bool
}

type viewerKey struct{}

// ViewerFrom returns the viewer placed on ctx by Manager.Middleware.
func ViewerFrom(ctx context.Context) Viewer {
	if v, ok := ctx.Value(viewerKey{}).(*Viewer); ok {
		return *v
	}
	return Viewer{}
}

// Keys derives the securecookie hash and block keys from the configured secret.
func Keys(secret string) (hashKey, blockKey []byte) {
	sum := sha256.Sum256([]byte(secret))
	return []byte(secret), sum[:]
}

// Options configures a Manager.
type Options struct {
	MaxAge int
	Secure bool
	Logger *logrus.Logger
}

// Manager reads and writes the browser session.
type Manager struct {
	store  sessions.Store
	logger *logrus.Logger
}

// NewCookieStore returns a store that keeps the values in the cookie itself.
func NewCookieStore(secret string) *sessions.CookieStore {
	return sessions.NewCookieStore(Keys(secret))
}

// NewBackendStore returns a store that keeps the values in backend and only a signed
// id in the cookie.
func NewBackendStore(backend Backend, secret string) *ServerStore {
	hashKey, blockKey := Keys(secret)
	return NewServerStore(backend, hashKey, blockKey)
}

// NewManager wraps store, applying cookie options to it when it is one of ours.
func NewManager(store sessions.Store, opts Options) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	cookieOpts := &sessions.Options{
		Path:     "/",
		MaxAge:   opts.MaxAge,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	switch s := store.(type) {
	case *sessions.CookieStore:
		s.Options = cookieOpts
		s.MaxAge(opts.MaxAge)
	case *ServerStore:
		s.Options = cookieOpts
		s.MaxAge(opts.MaxAge)
	}
	return &Manager{store: store, logger: logger}
}

// Middleware loads the session once per request. The upstream token goes on the
// context for the API client and the viewer for loaders and views.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := m.store.Get(r, CookieName)
		if err != nil {
			m.logger.WithError(err).WithField("path", r.URL.Path).Warn("session: discarding unreadable session")
		}
		viewer := &Viewer{}
		ctx := r.Context()
		if sess != nil {
			token, _ := sess.Values[keyToken].(string)
			loggedIn, _ := sess.Values[keyLoggedIn].(bool)
			viewer.LoggedIn = loggedIn && token != ""
			ctx = api.WithSession(ctx, token)
		}
		ctx = context.WithValue(ctx, viewerKey{}, viewer)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SignIn stores the upstream token and marks the viewer logged in. Server-side
// sessions get a fresh id.
func (m *Manager) SignIn(w http.ResponseWriter, r *http.Request, token string) error {
	sess, err := m.store.Get(r, CookieName)
	if sess == nil {
		return err
	}
	if ss, ok := m.store.(*ServerStore); ok {
		if err := ss.Renew(r, sess); err != nil {
			return err
		}
	}
	sess.Values[keyToken] = token
	sess.Values[keyLoggedIn] = true
	if err := sess.Save(r, w); err != nil {
		return err
	}
	m.setViewer(r, true)
	return nil
}

// SignOut drops the session, locally and in its backend.
func (m *Manager) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess, err := m.store.Get(r, CookieName)
	if sess == nil {
		return err
	}
	for k := range sess.Values {
		delete(sess.Values, k)
	}
	sess.Options.MaxAge = -1
	if err := sess.Save(r, w); err != nil {
		return err
	}
	m.setViewer(r, false)
	return nil
}

func (m *Manager) setViewer(r *http.Request, loggedIn bool) {
	if v, ok := r.Context().Value(viewerKey{}).(*Viewer); ok {
		v.LoggedIn = loggedIn
	}
}
