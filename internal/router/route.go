// Package router maps URL paths to views, the loaders that feed them and the actions
// that handle their form submissions.
//
// A GET runs every loader on the matched branch of the route tree, parent first, and
// renders the view chain with their data. A POST runs the action of the deepest
// matched route that declares one; the action either redirects (303, and the browser's
// follow-up GET re-enters the loaders of the new location) or returns data that is
// rendered next to fresh loader data.
package router

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
)

// Route is one node of the route table.
type Route struct {
	// Path is relative to the parent. "" marks the parent's index route.
	Path string
	// View names the template rendered for this node.
	View string
	// Loader runs before the view renders.
	Loader Loader
	// Action handles form submissions to this node.
	Action Action
	// ErrorView replaces View when a loader, action or render on this branch fails.
	ErrorView string
	Children  []Route
}

// Loader fetches what a view needs.
type Loader func(req *Request) (Outcome, error)

// Action handles a form submission.
type Action func(req *Request) (Outcome, error)

// Request is what loaders and actions receive. Its context is the HTTP request's: it
// is cancelled when the client goes away.
type Request struct {
	HTTP   *http.Request
	Writer http.ResponseWriter
	Form   url.Values
}

// Context returns the navigation's context.
func (r *Request) Context() context.Context {
	return r.HTTP.Context()
}

// Param returns a path parameter such as {filmId}.
func (r *Request) Param(name string) string {
	return chi.URLParam(r.HTTP, name)
}

// Query returns the URL query values.
func (r *Request) Query() url.Values {
	return r.HTTP.URL.Query()
}

// Outcome is the result of a loader or action: data to render, or a redirect.
type Outcome struct {
	Data     interface{}
	Location string
}

// Render wraps data for the view.
func Render(data interface{}) Outcome {
	return Outcome{Data: data}
}

// Redirect sends the navigation to location instead of rendering.
func Redirect(location string) Outcome {
	return Outcome{Location: location}
}

// IsRedirect reports whether the outcome is a redirect.
func (o Outcome) IsRedirect() bool {
	return o.Location != ""
}

// ActionError is what a failed action hands back to its form: the upstream status.
type ActionError struct {
	Status int
}

// Fail returns an outcome carrying an ActionError.
func Fail(status int) Outcome {
	return Outcome{Data: ActionError{Status: status}}
}
