package apimock

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/Clark-Hu/flicks-picks/internal/domain"
	"github.com/Clark-Hu/flicks-picks/internal/logger"
)

func buildTestServer(tb testing.TB) *Server {
	tb.Helper()
	return New(DefaultFilms(), logger.Discard())
}

func doJSON(tb testing.TB, srv http.Handler, method, path, token string, payload interface{}) *httptest.ResponseRecorder {
	tb.Helper()
	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			tb.Fatalf("encode payload: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &body)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookie, Value: token})
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func registerAndLogin(tb testing.TB, srv http.Handler, username, password string) string {
	tb.Helper()
	rec := doJSON(tb, srv, http.MethodPost, "/users/register/", "", domain.Registration{
		Username: username, Email: username + "@example.com", Password: password,
	})
	if rec.Code != http.StatusCreated {
		tb.Fatalf("register status = %d, want 201", rec.Code)
	}
	rec = doJSON(tb, srv, http.MethodPost, "/users/login/", "", domain.Credentials{Username: username, Password: password})
	if rec.Code != http.StatusOK {
		tb.Fatalf("login status = %d, want 200", rec.Code)
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookie && c.Value != "" {
			return c.Value
		}
	}
	tb.Fatalf("login did not set a session cookie")
	return ""
}

func TestRegisterConflict(t *testing.T) {
	srv := buildTestServer(t)
	registerAndLogin(t, srv, "ana", "pw")

	rec := doJSON(t, srv, http.MethodPost, "/users/register/", "", domain.Registration{
		Username: "ANA", Email: "other@example.com", Password: "pw",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	srv := buildTestServer(t)
	registerAndLogin(t, srv, "ana", "pw")

	rec := doJSON(t, srv, http.MethodPost, "/users/login/", "", domain.Credentials{Username: "ana", Password: "nope"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Fatalf("failed login must not set cookies")
	}
}

func TestProtectedEndpointsRequireSession(t *testing.T) {
	srv := buildTestServer(t)
	cases := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/users/profile-info/"},
		{http.MethodGet, "/users/history/"},
		{http.MethodDelete, "/users/logout/"},
	}
	for _, c := range cases {
		rec := doJSON(t, srv, c.method, c.path, "bogus", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s status = %d, want 401", c.method, c.path, rec.Code)
		}
	}
}

func TestReviewUpsertAndDelete(t *testing.T) {
	srv := buildTestServer(t)
	token := registerAndLogin(t, srv, "ana", "pw")

	rating := 8
	rec := doJSON(t, srv, http.MethodPost, "/users/add-review/", token, domain.ReviewUpsert{FilmID: 7, Content: "Good", Rating: &rating})
	if rec.Code != http.StatusCreated {
		t.Fatalf("first upsert status = %d, want 201", rec.Code)
	}
	rating = 10
	rec = doJSON(t, srv, http.MethodPost, "/users/add-review/", token, domain.ReviewUpsert{FilmID: 7, Content: "Better", Rating: &rating})
	if rec.Code != http.StatusOK {
		t.Fatalf("second upsert status = %d, want 200", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodGet, "/films/7/reviews/", "", nil)
	var list domain.ReviewList
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatalf("decode reviews: %v", err)
	}
	if len(list.Reviews) != 1 || list.Reviews[0].Content != "Better" || list.Reviews[0].Rating != 10 {
		t.Fatalf("expected a single replaced review, got %+v", list.Reviews)
	}

	rec = doJSON(t, srv, http.MethodGet, "/films/7/", "", nil)
	var film domain.FilmDetail
	if err := json.NewDecoder(rec.Body).Decode(&film); err != nil {
		t.Fatalf("decode film: %v", err)
	}
	if film.AvgRating == nil || *film.AvgRating != 10 {
		t.Fatalf("average not recomputed: %+v", film.AvgRating)
	}

	rec = doJSON(t, srv, http.MethodPut, "/users/delete-review/", token, domain.ReviewDelete{FilmID: 7})
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d, want 200", rec.Code)
	}
	rec = doJSON(t, srv, http.MethodPut, "/users/delete-review/", token, domain.ReviewDelete{FilmID: 7})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", rec.Code)
	}
}

func TestReviewValidation(t *testing.T) {
	srv := buildTestServer(t)
	token := registerAndLogin(t, srv, "ana", "pw")

	zero := 0
	if rec := doJSON(t, srv, http.MethodPost, "/users/add-review/", token, domain.ReviewUpsert{FilmID: 7, Rating: &zero}); rec.Code != http.StatusBadRequest {
		t.Fatalf("rating 0 status = %d, want 400", rec.Code)
	}
	five := 5
	if rec := doJSON(t, srv, http.MethodPost, "/users/add-review/", token, domain.ReviewUpsert{FilmID: 99, Rating: &five}); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown film status = %d, want 404", rec.Code)
	}
}

func TestUnsubscribeRemovesUser(t *testing.T) {
	srv := buildTestServer(t)
	token := registerAndLogin(t, srv, "ana", "pw")

	if rec := doJSON(t, srv, http.MethodPut, "/users/delete/", token, domain.Unsubscribe{Password: "wrong"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("wrong password status = %d, want 400", rec.Code)
	}
	if rec := doJSON(t, srv, http.MethodPut, "/users/delete/", token, domain.Unsubscribe{Password: "pw"}); rec.Code != http.StatusOK {
		t.Fatalf("unsubscribe status = %d, want 200", rec.Code)
	}
	if rec := doJSON(t, srv, http.MethodGet, "/users/profile-info/", token, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("session survived unsubscribe: %d", rec.Code)
	}
	rec := doJSON(t, srv, http.MethodPost, "/users/login/", "", domain.Credentials{Username: "ana", Password: "pw"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("deleted user could log in: %d", rec.Code)
	}
}

func TestFilmNotFound(t *testing.T) {
	srv := buildTestServer(t)
	for _, path := range []string{"/films/99/", "/films/abc/", "/films/99/reviews/"} {
		if rec := doJSON(t, srv, http.MethodGet, path, "", nil); rec.Code != http.StatusNotFound {
			t.Fatalf("%s status = %d, want 404", path, rec.Code)
		}
	}
}

func TestSearchFilter(t *testing.T) {
	srv := buildTestServer(t)
	str := func(s string) *string { return &s }
	num := func(n int) *int { return &n }

	cases := []struct {
		name   string
		filter domain.SearchFilter
		want   []int64
	}{
		{"empty", domain.SearchFilter{}, []int64{1, 2, 3, 4, 7}},
		{"genre", domain.SearchFilter{Genre: str("drama")}, []int64{7}},
		{"text any field", domain.SearchFilter{FilmName: str("woody"), DirectorName: str("woody"), ActorName: str("woody"), Description: str("woody")}, []int64{3}},
		{"actor", domain.SearchFilter{ActorName: str("freeman")}, []int64{4}},
		{"year", domain.SearchFilter{MinRelease: num(1979), MaxRelease: num(1979)}, []int64{2}},
		{"score without reviews", domain.SearchFilter{MinScore: num(5), MaxScore: num(5)}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, srv, http.MethodPost, "/films/", "", tc.filter)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			var list domain.FilmList
			if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(list.Films) != len(tc.want) {
				t.Fatalf("got %d films, want %v", len(list.Films), tc.want)
			}
			for i, f := range list.Films {
				if f.ID != tc.want[i] {
					t.Fatalf("film[%d] = %d, want %d", i, f.ID, tc.want[i])
				}
			}
		})
	}
}

func TestScoreMatchesBucket(t *testing.T) {
	avg := 7.5
	film := domain.FilmDetail{FilmSummary: domain.FilmSummary{AvgRating: &avg}}
	seven, eight := 7, 8
	if !matches(film, domain.SearchFilter{MinScore: &seven, MaxScore: &seven}) {
		t.Fatalf("7.5 should match score 7")
	}
	if matches(film, domain.SearchFilter{MinScore: &eight, MaxScore: &eight}) {
		t.Fatalf("7.5 should not match score 8")
	}
}

func TestLoadFilms(t *testing.T) {
	path := filepath.Join(t.TempDir(), "films.json")
	seed := `[{"id":10,"name":"Heat","genre":"Crime","cast":["Al Pacino"],"release":"1995-12-15"}]`
	if err := os.WriteFile(path, []byte(seed), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	films, err := LoadFilms(path)
	if err != nil {
		t.Fatalf("LoadFilms: %v", err)
	}
	if len(films) != 1 || films[0].Title != "Heat" || films[0].Cast[0] != "Al Pacino" {
		t.Fatalf("unexpected films %+v", films)
	}

	if _, err := LoadFilms(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
