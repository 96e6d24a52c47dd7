// Package views renders the HTML pages of the web client.
//
// Every view is one template file. A view chain is rendered inside out: the
// innermost view first, its output then handed to the enclosing layout as Outlet,
// and finally to the document shell.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/Clark-Hu/flicks-picks/internal/router"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	documentFile = "document.html"
	partialsFile = "partials.html"
)

// Data is what each template in a chain executes with.
type Data struct {
	router.Page
	Outlet template.HTML
}

// Renderer implements router.Renderer over the embedded templates.
type Renderer struct {
	document *template.Template
	views    map[string]*template.Template
}

var _ router.Renderer = (*Renderer)(nil)

// New parses every view up front so a broken template fails at startup.
func New() (*Renderer, error) {
	return NewFromFS(templateFS, "templates")
}

// NewFromFS parses views from dir inside fsys.
func NewFromFS(fsys fs.FS, dir string) (*Renderer, error) {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("views: %w", err)
	}
	document, err := template.New(documentFile).Funcs(Funcs()).ParseFS(sub, documentFile)
	if err != nil {
		return nil, fmt.Errorf("views: parse document: %w", err)
	}

	names, err := fs.Glob(sub, "*.html")
	if err != nil {
		return nil, fmt.Errorf("views: list templates: %w", err)
	}
	r := &Renderer{document: document, views: make(map[string]*template.Template)}
	for _, name := range names {
		if name == documentFile || name == partialsFile {
			continue
		}
		t, err := template.New(name).Funcs(Funcs()).ParseFS(sub, partialsFile, name)
		if err != nil {
			return nil, fmt.Errorf("views: parse %s: %w", name, err)
		}
		r.views[strings.TrimSuffix(name, ".html")] = t
	}
	return r, nil
}

// Has reports whether a view exists.
func (r *Renderer) Has(view string) bool {
	_, ok := r.views[view]
	return ok
}

// Render executes chain (outermost first) and wraps the result in the document.
func (r *Renderer) Render(w io.Writer, chain []string, page router.Page) error {
	data := Data{Page: page}
	for i := len(chain) - 1; i >= 0; i-- {
		t, ok := r.views[chain[i]]
		if !ok {
			return fmt.Errorf("views: unknown view %q", chain[i])
		}
		var buf bytes.Buffer
		if err := t.ExecuteTemplate(&buf, chain[i]+".html", data); err != nil {
			return fmt.Errorf("views: execute %s: %w", chain[i], err)
		}
		data.Outlet = template.HTML(buf.String())
	}
	return r.document.ExecuteTemplate(w, "document", data)
}

// Funcs are the helpers available to every template.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"castList":     CastList,
		"formatRating": FormatRating,
		"ratingClass":  RatingClass,
		"year":         func() int { return time.Now().Year() },
	}
}

// CastList joins names as "a, b and c.".
func CastList(cast []string) string {
	switch len(cast) {
	case 0:
		return ""
	case 1:
		return cast[0] + "."
	}
	return strings.Join(cast[:len(cast)-1], ", ") + " and " + cast[len(cast)-1] + "."
}

// FormatRating prints an average with at most one decimal, or a dash when unrated.
func FormatRating(avg *float64) string {
	if avg == nil {
		return "-"
	}
	return strconv.FormatFloat(math.Round(*avg*10)/10, 'f', -1, 64)
}

// RatingClass buckets an average for colouring: 8.5 and up is good, 5 and up is mid.
func RatingClass(avg *float64) string {
	switch {
	case avg == nil:
		return "rating-bad"
	case *avg >= 8.5:
		return "rating-good"
	case *avg >= 5:
		return "rating-mid"
	default:
		return "rating-bad"
	}
}
