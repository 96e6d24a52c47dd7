package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/Clark-Hu/flicks-picks/internal/api"
	"github.com/Clark-Hu/flicks-picks/internal/config"
	"github.com/Clark-Hu/flicks-picks/internal/domain"
	"github.com/Clark-Hu/flicks-picks/internal/logger"
	"github.com/Clark-Hu/flicks-picks/internal/session"
	"github.com/Clark-Hu/flicks-picks/internal/views"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type responder func(ctx context.Context, payload interface{}) (*api.Response, error)

type call struct {
	op      string
	payload interface{}
	token   string
}

// fakeAPI records every call and answers from per-operation responders. Operations
// without a responder succeed with an empty JSON object.
type fakeAPI struct {
	mu         sync.Mutex
	calls      []call
	responders map[string]responder
}

var _ api.Service = (*fakeAPI)(nil)

func newFakeAPI() *fakeAPI {
	return &fakeAPI{responders: make(map[string]responder)}
}

func (f *fakeAPI) on(op string, r responder) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responders[op] = r
}

func (f *fakeAPI) reply(op string, status int, body string, cookies ...*http.Cookie) {
	f.on(op, func(context.Context, interface{}) (*api.Response, error) {
		return api.NewResponse(status, []byte(body), cookies...), nil
	})
}

func (f *fakeAPI) callsTo(op string) []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []call
	for _, c := range f.calls {
		if c.op == op {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeAPI) handle(ctx context.Context, op string, payload interface{}) (*api.Response, error) {
	token, _ := api.SessionFrom(ctx)
	f.mu.Lock()
	f.calls = append(f.calls, call{op: op, payload: payload, token: token})
	r := f.responders[op]
	f.mu.Unlock()
	if r == nil {
		return api.NewResponse(http.StatusOK, []byte(`{}`)), nil
	}
	return r(ctx, payload)
}

func (f *fakeAPI) SearchFilms(ctx context.Context, filter domain.SearchFilter) (*api.Response, error) {
	return f.handle(ctx, "SearchFilms", filter)
}

func (f *fakeAPI) FilmDetails(ctx context.Context, filmID int64) (*api.Response, error) {
	return f.handle(ctx, "FilmDetails", filmID)
}

func (f *fakeAPI) FilmReviews(ctx context.Context, filmID int64) (*api.Response, error) {
	return f.handle(ctx, "FilmReviews", filmID)
}

func (f *fakeAPI) Login(ctx context.Context, creds domain.Credentials) (*api.Response, error) {
	return f.handle(ctx, "Login", creds)
}

func (f *fakeAPI) Logout(ctx context.Context) (*api.Response, error) {
	return f.handle(ctx, "Logout", nil)
}

func (f *fakeAPI) Register(ctx context.Context, reg domain.Registration) (*api.Response, error) {
	return f.handle(ctx, "Register", reg)
}

func (f *fakeAPI) Profile(ctx context.Context) (*api.Response, error) {
	return f.handle(ctx, "Profile", nil)
}

func (f *fakeAPI) UpdateProfile(ctx context.Context, upd domain.ProfileUpdate) (*api.Response, error) {
	return f.handle(ctx, "UpdateProfile", upd)
}

func (f *fakeAPI) Unsubscribe(ctx context.Context, req domain.Unsubscribe) (*api.Response, error) {
	return f.handle(ctx, "Unsubscribe", req)
}

func (f *fakeAPI) UserReviews(ctx context.Context) (*api.Response, error) {
	return f.handle(ctx, "UserReviews", nil)
}

func (f *fakeAPI) AddReview(ctx context.Context, review domain.ReviewUpsert) (*api.Response, error) {
	return f.handle(ctx, "AddReview", review)
}

func (f *fakeAPI) DeleteReview(ctx context.Context, req domain.ReviewDelete) (*api.Response, error) {
	return f.handle(ctx, "DeleteReview", req)
}

// testApp is the web client served over httptest with a browser-like client that
// keeps cookies and does not follow redirects.
type testApp struct {
	t      *testing.T
	server *httptest.Server
	client *http.Client
}

func newTestApp(t *testing.T, svc api.Service, health HealthCheck) *testApp {
	t.Helper()
	log := logger.Discard()
	renderer, err := views.New()
	if err != nil {
		t.Fatalf("views: %v", err)
	}
	sessions := session.NewManager(session.NewCookieStore(testSecret), session.Options{MaxAge: 3600, Logger: log})
	srv, err := NewServer(config.Config{Port: "0"}, NewHandlers(svc, sessions, log), sessions, renderer, health, log)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	return &testApp{
		t:      t,
		server: ts,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

type page struct {
	status   int
	location string
	body     string
}

func (a *testApp) get(path string) page {
	a.t.Helper()
	res, err := a.client.Get(a.server.URL + path)
	if err != nil {
		a.t.Fatalf("GET %s: %v", path, err)
	}
	return readPage(a.t, res)
}

func (a *testApp) post(path string, form url.Values) page {
	a.t.Helper()
	res, err := a.client.PostForm(a.server.URL+path, form)
	if err != nil {
		a.t.Fatalf("POST %s: %v", path, err)
	}
	return readPage(a.t, res)
}

func readPage(t *testing.T, res *http.Response) page {
	t.Helper()
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return page{status: res.StatusCode, location: res.Header.Get("Location"), body: string(body)}
}

// signIn logs the test browser in against a fake that hands out token.
func (a *testApp) signIn(fake *fakeAPI, token string) {
	a.t.Helper()
	fake.reply("Login", http.StatusOK, `{"detail":"Login successful"}`, &http.Cookie{Name: api.SessionCookieName, Value: token})
	p := a.post("/login", url.Values{"username": {"ana"}, "password": {"pw"}})
	expectRedirect(a.t, p, "/")
}

func expectRedirect(t *testing.T, p page, location string) {
	t.Helper()
	if p.status != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d\n%s", p.status, p.body)
	}
	if p.location != location {
		t.Fatalf("expected redirect to %q, got %q", location, p.location)
	}
}

func expectPage(t *testing.T, p page, wants ...string) {
	t.Helper()
	if p.status != http.StatusOK {
		t.Fatalf("expected 200, got %d (location %q)\n%s", p.status, p.location, p.body)
	}
	for _, want := range wants {
		if !strings.Contains(p.body, want) {
			t.Fatalf("expected page to contain %q\n%s", want, p.body)
		}
	}
}

func filmJSON(id int64, title string) string {
	return fmt.Sprintf(`{"id":%d,"title":%q,"genre":"Drama","description":"d","avg_rating":8,"image_url":"/x.png","director":"Barry Jenkins","cast":["A","B","C"],"duration":111,"release":"2016-10-21"}`, id, title)
}
