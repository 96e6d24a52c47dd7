// Package apimock is an in-memory stand-in for the remote film API. It speaks the
// same paths, payloads and session cookie as the real service and is used for local
// development (cmd/api-mock) and end-to-end tests.
package apimock

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/Clark-Hu/flicks-picks/internal/domain"
)

const (
	sessionCookie  = "session"
	maxRequestBody = 1 << 20 // 1 MiB
)

type user struct {
	ID       int64
	Username string
	Email    string
	Password string
}

type reviewKey struct {
	UserID int64
	FilmID int64
}

// Server is the mock API. The zero value is not usable; call New.
type Server struct {
	mu       sync.Mutex
	films    map[int64]domain.FilmDetail
	users    map[int64]*user
	sessions map[string]int64
	reviews  map[reviewKey]domain.Review
	nextUser int64
	nextRev  int64

	logger *logrus.Logger
	router chi.Router
}

// New builds a mock seeded with films. Film average ratings are recomputed from the
// reviews the mock stores, so seeded AvgRating values are ignored.
func New(films []domain.FilmDetail, logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	s := &Server{
		films:    make(map[int64]domain.FilmDetail, len(films)),
		users:    make(map[int64]*user),
		sessions: make(map[string]int64),
		reviews:  make(map[reviewKey]domain.Review),
		logger:   logger,
		router:   chi.NewRouter(),
	}
	for _, f := range films {
		f.AvgRating = nil
		s.films[f.ID] = f
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.Route("/films", func(r chi.Router) {
		r.Post("/", s.handleSearch)
		r.Get("/{id}/", s.handleFilm)
		r.Get("/{id}/reviews/", s.handleFilmReviews)
	})
	s.router.Route("/users", func(r chi.Router) {
		r.Post("/register/", s.handleRegister)
		r.Post("/login/", s.handleLogin)
		r.Delete("/logout/", s.handleLogout)
		r.Get("/profile-info/", s.handleProfile)
		r.Put("/profile-update/", s.handleProfileUpdate)
		r.Put("/delete/", s.handleDeleteUser)
		r.Get("/history/", s.handleHistory)
		r.Post("/add-review/", s.handleAddReview)
		r.Put("/delete-review/", s.handleDeleteReview)
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var filter domain.SearchFilter
	if err := decodeJSONBody(w, r, &filter); err != nil {
		respondDetail(w, http.StatusBadRequest, "Malformed filter payload")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	films := make([]domain.FilmSummary, 0, len(s.films))
	for _, id := range s.sortedFilmIDs() {
		film := s.withAverage(s.films[id])
		if matches(film, filter) {
			films = append(films, film.FilmSummary)
		}
	}
	respondJSON(w, http.StatusOK, domain.FilmList{Films: films})
}

func (s *Server) handleFilm(w http.ResponseWriter, r *http.Request) {
	id, ok := filmIDParam(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	film, found := s.films[id]
	if !ok || !found {
		respondDetail(w, http.StatusNotFound, "Film not found.")
		return
	}
	respondJSON(w, http.StatusOK, s.withAverage(film))
}

func (s *Server) handleFilmReviews(w http.ResponseWriter, r *http.Request) {
	id, ok := filmIDParam(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.films[id]; !ok || !found {
		respondDetail(w, http.StatusNotFound, "Film not found.")
		return
	}
	respondJSON(w, http.StatusOK, domain.ReviewList{Reviews: s.reviewsWhere(func(k reviewKey) bool {
		return k.FilmID == id
	})})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req domain.Registration
	if err := decodeJSONBody(w, r, &req); err != nil {
		respondDetail(w, http.StatusBadRequest, "Malformed registration payload")
		return
	}
	if strings.TrimSpace(req.Username) == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		respondDetail(w, http.StatusBadRequest, "username, email and password are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Username, req.Username) || strings.EqualFold(u.Email, req.Email) {
			respondDetail(w, http.StatusConflict, "User already exists")
			return
		}
	}
	s.nextUser++
	s.users[s.nextUser] = &user{ID: s.nextUser, Username: req.Username, Email: req.Email, Password: req.Password}
	respondDetail(w, http.StatusCreated, "Singin successful")
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req domain.Credentials
	if err := decodeJSONBody(w, r, &req); err != nil {
		respondDetail(w, http.StatusUnauthorized, "Unable to log in with provided credentials.")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.currentUser(r); ok {
		respondDetail(w, http.StatusUnauthorized, "Already logged in.")
		return
	}
	for _, u := range s.users {
		if (u.Username == req.Username || u.Email == req.Username) && u.Password == req.Password {
			token := newToken()
			s.sessions[token] = u.ID
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookie,
				Value:    token,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
			respondDetail(w, http.StatusOK, "Login successful")
			return
		}
	}
	respondDetail(w, http.StatusUnauthorized, "Unable to log in with provided credentials.")
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		respondDetail(w, http.StatusUnauthorized, "session cookie missing or not valid")
		return
	}
	if _, ok := s.sessions[c.Value]; !ok {
		respondDetail(w, http.StatusUnauthorized, "session cookie missing or not valid")
		return
	}
	delete(s.sessions, c.Value)
	clearSessionCookie(w)
	respondDetail(w, http.StatusOK, "Logout successful")
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.currentUser(r)
	if !ok {
		respondDetail(w, http.StatusUnauthorized, "session cookie missing or not valid")
		return
	}
	respondJSON(w, http.StatusOK, domain.UserProfile{ID: u.ID, Username: u.Username, Email: u.Email})
}

func (s *Server) handleProfileUpdate(w http.ResponseWriter, r *http.Request) {
	var req domain.ProfileUpdate
	if err := decodeJSONBody(w, r, &req); err != nil {
		respondDetail(w, http.StatusBadRequest, "Malformed update payload")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.currentUser(r)
	if !ok {
		respondDetail(w, http.StatusUnauthorized, "session cookie missing or not valid")
		return
	}
	if req.CurrentPassword != u.Password || req.NewPassword == "" {
		respondDetail(w, http.StatusBadRequest, "Incorrect credentials.")
		return
	}
	if req.Username != "" {
		u.Username = req.Username
	}
	if req.Email != "" {
		u.Email = req.Email
	}
	u.Password = req.NewPassword
	respondDetail(w, http.StatusOK, "Update successful")
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	var req domain.Unsubscribe
	if err := decodeJSONBody(w, r, &req); err != nil {
		respondDetail(w, http.StatusBadRequest, "Malformed payload")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.currentUser(r)
	if !ok {
		respondDetail(w, http.StatusUnauthorized, "session cookie missing or not valid")
		return
	}
	if req.Password != u.Password {
		respondDetail(w, http.StatusBadRequest, "Incorrect password.")
		return
	}
	for token, id := range s.sessions {
		if id == u.ID {
			delete(s.sessions, token)
		}
	}
	for k := range s.reviews {
		if k.UserID == u.ID {
			delete(s.reviews, k)
		}
	}
	delete(s.users, u.ID)
	clearSessionCookie(w)
	respondDetail(w, http.StatusOK, "User deleted")
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.currentUser(r)
	if !ok {
		respondDetail(w, http.StatusUnauthorized, "session cookie missing or not valid")
		return
	}
	respondJSON(w, http.StatusOK, domain.ReviewList{Reviews: s.reviewsWhere(func(k reviewKey) bool {
		return k.UserID == u.ID
	})})
}

func (s *Server) handleAddReview(w http.ResponseWriter, r *http.Request) {
	var req domain.ReviewUpsert
	if err := decodeJSONBody(w, r, &req); err != nil {
		respondDetail(w, http.StatusBadRequest, "Malformed review payload")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.currentUser(r)
	if !ok {
		respondDetail(w, http.StatusUnauthorized, "session cookie missing or not valid")
		return
	}
	if _, found := s.films[req.FilmID]; !found {
		respondDetail(w, http.StatusNotFound, "Film not found.")
		return
	}
	if req.Rating == nil || *req.Rating < 1 || *req.Rating > 10 {
		respondDetail(w, http.StatusBadRequest, "Rating must be between 1 and 10.")
		return
	}

	key := reviewKey{UserID: u.ID, FilmID: req.FilmID}
	review, exists := s.reviews[key]
	if !exists {
		s.nextRev++
		review = domain.Review{ID: s.nextRev, FilmID: req.FilmID, UserID: u.ID}
	}
	review.Content = req.Content
	review.Rating = *req.Rating
	s.reviews[key] = review

	status := http.StatusCreated
	if exists {
		status = http.StatusOK
	}
	respondJSON(w, status, review)
}

func (s *Server) handleDeleteReview(w http.ResponseWriter, r *http.Request) {
	var req domain.ReviewDelete
	if err := decodeJSONBody(w, r, &req); err != nil {
		respondDetail(w, http.StatusBadRequest, "Malformed payload")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.currentUser(r)
	if !ok {
		respondDetail(w, http.StatusUnauthorized, "session cookie missing or not valid")
		return
	}
	key := reviewKey{UserID: u.ID, FilmID: req.FilmID}
	if _, found := s.reviews[key]; !found {
		respondDetail(w, http.StatusNotFound, "Review not found.")
		return
	}
	delete(s.reviews, key)
	respondDetail(w, http.StatusOK, "Review deleted")
}

// currentUser resolves the session cookie. Callers hold s.mu.
func (s *Server) currentUser(r *http.Request) (*user, bool) {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return nil, false
	}
	id, ok := s.sessions[c.Value]
	if !ok {
		return nil, false
	}
	u, ok := s.users[id]
	return u, ok
}

// withAverage fills AvgRating from stored reviews. Callers hold s.mu.
func (s *Server) withAverage(film domain.FilmDetail) domain.FilmDetail {
	var sum, n int
	for k, r := range s.reviews {
		if k.FilmID == film.ID {
			sum += r.Rating
			n++
		}
	}
	if n > 0 {
		avg := float64(sum) / float64(n)
		film.AvgRating = &avg
	}
	return film
}

// reviewsWhere returns matching reviews ordered by id. Callers hold s.mu.
func (s *Server) reviewsWhere(keep func(reviewKey) bool) []domain.Review {
	out := make([]domain.Review, 0)
	for k, r := range s.reviews {
		if keep(k) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Server) sortedFilmIDs() []int64 {
	ids := make([]int64, 0, len(s.films))
	for id := range s.films {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func filmIDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "", Path: "/", MaxAge: -1})
}

func newToken() string {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf)
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondDetail(w http.ResponseWriter, status int, detail string) {
	respondJSON(w, status, map[string]string{"detail": detail})
}
