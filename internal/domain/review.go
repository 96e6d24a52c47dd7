package domain

import "encoding/json"

// Review is a single user's review of a film. At most one exists per (user, film).
type Review struct {
	ID      int64  `json:"id,omitempty"`
	FilmID  int64  `json:"film_id"`
	UserID  int64  `json:"user_id,omitempty"`
	Content string `json:"content"`
	Rating  int    `json:"rating"`
}

// UnmarshalJSON accepts the review text under "content" or "review".
func (r *Review) UnmarshalJSON(data []byte) error {
	type plain Review
	aux := struct {
		*plain
		Review string `json:"review"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if r.Content == "" {
		r.Content = aux.Review
	}
	return nil
}

// ReviewList is the body of both the film-reviews and the user-history endpoints.
type ReviewList struct {
	Reviews []Review `json:"reviews"`
}

// FindByFilm returns the review for filmID, if the list holds one.
func (l ReviewList) FindByFilm(filmID int64) *Review {
	for i := range l.Reviews {
		if l.Reviews[i].FilmID == filmID {
			review := l.Reviews[i]
			return &review
		}
	}
	return nil
}
