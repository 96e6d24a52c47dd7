package router

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// Page is the data a view chain renders with.
type Page struct {
	Path  string
	Query url.Values
	// Viewer is whatever Options.Viewer reports for the request.
	Viewer interface{}
	// Data is the deepest loader's data.
	Data interface{}
	// Layouts holds loader data of ancestor views, keyed by view name.
	Layouts map[string]interface{}
	// ActionData is set when the page is re-rendered after an action that did not
	// redirect.
	ActionData interface{}
	// Err is set on error views.
	Err error
}

// ActionError returns the action's error descriptor, if the action failed.
func (p Page) ActionError() *ActionError {
	if ae, ok := p.ActionData.(ActionError); ok {
		return &ae
	}
	return nil
}

// Renderer executes a view chain. chain lists view names from the outermost layout
// to the innermost view.
type Renderer interface {
	Render(w io.Writer, chain []string, page Page) error
}

// Options configures Mount.
type Options struct {
	Renderer Renderer
	Logger   *logrus.Logger
	Viewer   func(r *http.Request) interface{}
}

// Branch is one routable path: the pattern and the nodes from the root down.
type Branch struct {
	Pattern string
	Nodes   []Route
}

// Views lists the view names along the branch.
func (b Branch) Views() []string {
	views := make([]string, 0, len(b.Nodes))
	for _, n := range b.Nodes {
		if n.View != "" {
			views = append(views, n.View)
		}
	}
	return views
}

// Action returns the deepest action on the branch.
func (b Branch) Action() Action {
	for i := len(b.Nodes) - 1; i >= 0; i-- {
		if b.Nodes[i].Action != nil {
			return b.Nodes[i].Action
		}
	}
	return nil
}

// errorChain returns the views to render when the branch fails: the ancestors of the
// deepest node declaring an ErrorView, then that error view.
func (b Branch) errorChain() ([]string, bool) {
	for i := len(b.Nodes) - 1; i >= 0; i-- {
		if b.Nodes[i].ErrorView == "" {
			continue
		}
		chain := Branch{Nodes: b.Nodes[:i]}.Views()
		return append(chain, b.Nodes[i].ErrorView), true
	}
	return nil, false
}

// Flatten expands a route tree into branches. A node with an index child ("" path)
// is reachable only through that child.
func Flatten(routes []Route) []Branch {
	var out []Branch
	var walk func(prefix string, ancestors []Route, node Route)
	walk = func(prefix string, ancestors []Route, node Route) {
		pattern := joinPath(prefix, node.Path)
		nodes := append(append([]Route(nil), ancestors...), node)
		hasIndex := false
		for _, child := range node.Children {
			if child.Path == "" {
				hasIndex = true
			}
			walk(pattern, nodes, child)
		}
		if !hasIndex {
			out = append(out, Branch{Pattern: pattern, Nodes: nodes})
		}
	}
	for _, r := range routes {
		walk("", nil, r)
	}
	return out
}

// Mount registers every branch of the table on r.
func Mount(r chi.Router, routes []Route, opts Options) error {
	if opts.Renderer == nil {
		return fmt.Errorf("router: renderer is required")
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	m := &mounter{opts: opts}
	for _, b := range Flatten(routes) {
		b := b
		r.Get(b.Pattern, m.serveLoad(b))
		if action := b.Action(); action != nil {
			r.Post(b.Pattern, m.serveAction(b, action))
		}
	}
	return nil
}

type mounter struct {
	opts Options
}

func (m *mounter) serveLoad(b Branch) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m.navigate(w, &Request{HTTP: r, Writer: w}, b, nil)
	}
}

func (m *mounter) serveAction(b Branch, action Action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		req := &Request{HTTP: r, Writer: w, Form: r.PostForm}
		out, err := action(req)
		if r.Context().Err() != nil {
			return
		}
		if err != nil {
			m.fail(w, req, b, err)
			return
		}
		if out.IsRedirect() {
			http.Redirect(w, r, out.Location, http.StatusSeeOther)
			return
		}
		m.navigate(w, &Request{HTTP: r, Writer: w}, b, out.Data)
	}
}

// navigate runs the branch's loaders top-down and renders the view chain. The first
// redirect short-circuits the rest.
func (m *mounter) navigate(w http.ResponseWriter, req *Request, b Branch, actionData interface{}) {
	page := m.newPage(req.HTTP)
	page.ActionData = actionData

	last := len(b.Nodes) - 1
	for i, node := range b.Nodes {
		if node.Loader == nil {
			continue
		}
		out, err := node.Loader(req)
		if req.Context().Err() != nil {
			// Navigation abandoned; nobody is waiting for the result.
			return
		}
		if err != nil {
			m.fail(w, req, b, err)
			return
		}
		if out.IsRedirect() {
			http.Redirect(w, req.HTTP, out.Location, http.StatusSeeOther)
			return
		}
		if i == last {
			page.Data = out.Data
		} else if node.View != "" {
			page.Layouts[node.View] = out.Data
		}
	}

	var buf bytes.Buffer
	if err := m.opts.Renderer.Render(&buf, b.Views(), page); err != nil {
		m.fail(w, req, b, fmt.Errorf("render %s: %w", b.Pattern, err))
		return
	}
	writeHTML(w, http.StatusOK, buf.Bytes())
}

func (m *mounter) fail(w http.ResponseWriter, req *Request, b Branch, err error) {
	m.opts.Logger.WithError(err).WithFields(logrus.Fields{
		"method": req.HTTP.Method,
		"path":   req.HTTP.URL.Path,
		"route":  b.Pattern,
	}).Error("router: navigation failed")

	chain, ok := b.errorChain()
	if !ok {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	page := m.newPage(req.HTTP)
	page.Err = err
	var buf bytes.Buffer
	if rerr := m.opts.Renderer.Render(&buf, chain, page); rerr != nil {
		m.opts.Logger.WithError(rerr).Error("router: render error view")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	writeHTML(w, http.StatusInternalServerError, buf.Bytes())
}

func (m *mounter) newPage(r *http.Request) Page {
	page := Page{
		Path:    r.URL.Path,
		Query:   r.URL.Query(),
		Layouts: make(map[string]interface{}),
	}
	if m.opts.Viewer != nil {
		page.Viewer = m.opts.Viewer(r)
	}
	return page
}

func writeHTML(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func joinPath(prefix, path string) string {
	if path == "" {
		if prefix == "" {
			return "/"
		}
		return prefix
	}
	if strings.HasPrefix(path, "/") {
		return path
	}
	return strings.TrimRight(prefix, "/") + "/" + path
}
