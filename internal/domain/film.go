package domain

import "encoding/json"

// FilmSummary is the list-view projection of a film.
type FilmSummary struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Genre       string   `json:"genre"`
	Description string   `json:"description"`
	AvgRating   *float64 `json:"avg_rating"`
	ImageURL    string   `json:"image_url"`
}

// UnmarshalJSON accepts the film name under either "title" or "name"; the remote API
// uses the latter on some endpoints.
func (f *FilmSummary) UnmarshalJSON(data []byte) error {
	type plain FilmSummary
	aux := struct {
		*plain
		Name string `json:"name"`
	}{plain: (*plain)(f)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if f.Title == "" {
		f.Title = aux.Name
	}
	return nil
}

// FilmDetail carries everything the film page renders.
type FilmDetail struct {
	FilmSummary
	Director string   `json:"director"`
	Cast     []string `json:"cast"`
	Duration int      `json:"duration"`
	Release  string   `json:"release"`
}

// UnmarshalJSON decodes the embedded summary (with its title/name handling) and the
// detail-only fields.
func (f *FilmDetail) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &f.FilmSummary); err != nil {
		return err
	}
	var extra struct {
		Director string   `json:"director"`
		Cast     []string `json:"cast"`
		Duration int      `json:"duration"`
		Release  string   `json:"release"`
	}
	if err := json.Unmarshal(data, &extra); err != nil {
		return err
	}
	f.Director = extra.Director
	f.Cast = extra.Cast
	f.Duration = extra.Duration
	f.Release = extra.Release
	return nil
}

// FilmList is the body returned by the film search endpoint.
type FilmList struct {
	Films []FilmSummary `json:"films"`
}
