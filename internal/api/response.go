package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Response is an upstream reply with its body already drained.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	cookies    []*http.Cookie
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Decode unmarshals the JSON body into dst.
func (r *Response) Decode(dst interface{}) error {
	if r == nil {
		return fmt.Errorf("decode: nil response")
	}
	if err := json.Unmarshal(r.Body, dst); err != nil {
		return fmt.Errorf("decode response (status %d): %w", r.StatusCode, err)
	}
	return nil
}

// SessionCookie returns the session token the upstream set on this response. cleared
// is true when the upstream deleted the cookie instead.
func (r *Response) SessionCookie() (token string, cleared bool, found bool) {
	if r == nil {
		return "", false, false
	}
	for _, c := range r.cookies {
		if c.Name != SessionCookieName {
			continue
		}
		if c.Value == "" || c.MaxAge < 0 {
			return "", true, true
		}
		return c.Value, false, true
	}
	return "", false, false
}

// NewResponse builds a Response by hand; used by fakes in tests.
func NewResponse(status int, body []byte, cookies ...*http.Cookie) *Response {
	return &Response{StatusCode: status, Header: http.Header{}, Body: body, cookies: cookies}
}

type sessionKey struct{}

// WithSession attaches the upstream session token to ctx. Every request built from
// the returned context carries it as the session cookie.
func WithSession(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, sessionKey{}, token)
}

// SessionFrom returns the token attached by WithSession.
func SessionFrom(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(sessionKey{}).(string)
	return token, ok && token != ""
}
