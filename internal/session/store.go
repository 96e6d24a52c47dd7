package session

import (
	"context"
	"encoding/base32"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
)

// ErrNotFound is returned by backends when no live session exists under an id.
var ErrNotFound = errors.New("session: not found")

// Backend persists encoded session values under an opaque id.
type Backend interface {
	Load(ctx context.Context, id string) (string, error)
	Save(ctx context.Context, id, data string, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

// ServerStore is a sessions.Store that keeps only a signed, encrypted session id in
// the browser cookie. Values live in the Backend.
type ServerStore struct {
	Codecs  []securecookie.Codec
	Options *sessions.Options
	backend Backend
}

var _ sessions.Store = (*ServerStore)(nil)

// NewServerStore returns a store over backend. keyPairs follow securecookie's
// hash key / block key convention.
func NewServerStore(backend Backend, keyPairs ...[]byte) *ServerStore {
	s := &ServerStore{
		Codecs: securecookie.CodecsFromPairs(keyPairs...),
		Options: &sessions.Options{
			Path:   "/",
			MaxAge: 86400 * 30,
		},
		backend: backend,
	}
	s.MaxAge(s.Options.MaxAge)
	return s
}

// MaxAge sets the lifetime of new sessions and of the codecs that sign their ids.
func (s *ServerStore) MaxAge(age int) {
	s.Options.MaxAge = age
	for _, c := range s.Codecs {
		if sc, ok := c.(*securecookie.SecureCookie); ok {
			sc.MaxAge(age)
		}
	}
}

// Get returns the session for name, cached per request.
func (s *ServerStore) Get(r *http.Request, name string) (*sessions.Session, error) {
	return sessions.GetRegistry(r).Get(s, name)
}

// New loads the session named by the request cookie. A missing, expired or
// undecodable session yields a fresh one; decode failures are also returned.
func (s *ServerStore) New(r *http.Request, name string) (*sessions.Session, error) {
	sess := sessions.NewSession(s, name)
	opts := *s.Options
	sess.Options = &opts
	sess.IsNew = true

	c, err := r.Cookie(name)
	if err != nil {
		return sess, nil
	}
	var id string
	if err := securecookie.DecodeMulti(name, c.Value, &id, s.Codecs...); err != nil {
		return sess, fmt.Errorf("decode session id: %w", err)
	}

	data, err := s.backend.Load(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		return sess, nil
	}
	if err != nil {
		return sess, fmt.Errorf("load session: %w", err)
	}
	if err := securecookie.DecodeMulti(name, data, &sess.Values, s.Codecs...); err != nil {
		return sess, fmt.Errorf("decode session values: %w", err)
	}
	sess.ID = id
	sess.IsNew = false
	return sess, nil
}

// Save writes the session to the backend and refreshes the cookie. A negative
// MaxAge deletes both.
func (s *ServerStore) Save(r *http.Request, w http.ResponseWriter, sess *sessions.Session) error {
	if sess.Options.MaxAge < 0 {
		if sess.ID != "" {
			if err := s.backend.Delete(r.Context(), sess.ID); err != nil {
				return fmt.Errorf("delete session: %w", err)
			}
		}
		http.SetCookie(w, sessions.NewCookie(sess.Name(), "", sess.Options))
		return nil
	}

	if sess.ID == "" {
		sess.ID = newID()
	}
	data, err := securecookie.EncodeMulti(sess.Name(), sess.Values, s.Codecs...)
	if err != nil {
		return fmt.Errorf("encode session values: %w", err)
	}
	ttl := time.Duration(sess.Options.MaxAge) * time.Second
	if err := s.backend.Save(r.Context(), sess.ID, data, ttl); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	cookie, err := securecookie.EncodeMulti(sess.Name(), sess.ID, s.Codecs...)
	if err != nil {
		return fmt.Errorf("encode session id: %w", err)
	}
	http.SetCookie(w, sessions.NewCookie(sess.Name(), cookie, sess.Options))
	return nil
}

// Renew drops the backend entry behind sess and clears its id, so the next Save
// mints a new one. Cookies carrying the old id stop resolving.
func (s *ServerStore) Renew(r *http.Request, sess *sessions.Session) error {
	if sess.ID == "" {
		return nil
	}
	if err := s.backend.Delete(r.Context(), sess.ID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	sess.ID = ""
	sess.IsNew = true
	return nil
}

func newID() string {
	return strings.TrimRight(base32.StdEncoding.EncodeToString(securecookie.GenerateRandomKey(32)), "=")
}
