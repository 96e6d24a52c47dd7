package apimock

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Clark-Hu/flicks-picks/internal/domain"
)

// LoadFilms reads a JSON array of films from path.
func LoadFilms(path string) ([]domain.FilmDetail, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var films []domain.FilmDetail
	if err := json.Unmarshal(raw, &films); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return films, nil
}

// DefaultFilms is a small built-in catalogue.
func DefaultFilms() []domain.FilmDetail {
	return []domain.FilmDetail{
		{
			FilmSummary: domain.FilmSummary{
				ID:          1,
				Title:       "The Godfather",
				Genre:       "Crime",
				Description: "The aging patriarch of an organized crime dynasty transfers control to his reluctant son.",
				ImageURL:    "https://images.example.com/godfather.jpg",
			},
			Director: "Francis Ford Coppola",
			Cast:     []string{"Marlon Brando", "Al Pacino", "James Caan"},
			Duration: 175,
			Release:  "1972-03-24",
		},
		{
			FilmSummary: domain.FilmSummary{
				ID:          2,
				Title:       "Alien",
				Genre:       "Sci-Fi",
				Description: "The crew of a commercial spacecraft encounter a deadly lifeform.",
				ImageURL:    "https://images.example.com/alien.jpg",
			},
			Director: "Ridley Scott",
			Cast:     []string{"Sigourney Weaver", "Tom Skerritt", "John Hurt"},
			Duration: 117,
			Release:  "1979-05-25",
		},
		{
			FilmSummary: domain.FilmSummary{
				ID:          3,
				Title:       "Annie Hall",
				Genre:       "Comedy",
				Description: "A neurotic comedian looks back on a relationship that fell apart.",
				ImageURL:    "https://images.example.com/annie-hall.jpg",
			},
			Director: "Woody Allen",
			Cast:     []string{"Woody Allen", "Diane Keaton"},
			Duration: 93,
			Release:  "1977-04-20",
		},
		{
			FilmSummary: domain.FilmSummary{
				ID:          4,
				Title:       "Unforgiven",
				Genre:       "Western",
				Description: "A retired gunslinger takes on one last job.",
				ImageURL:    "https://images.example.com/unforgiven.jpg",
			},
			Director: "Clint Eastwood",
			Cast:     []string{"Clint Eastwood", "Gene Hackman", "Morgan Freeman"},
			Duration: 130,
			Release:  "1992-08-07",
		},
		{
			FilmSummary: domain.FilmSummary{
				ID:          7,
				Title:       "Moonlight",
				Genre:       "Drama",
				Description: "Three chapters in the life of a young man growing up in Miami.",
				ImageURL:    "https://images.example.com/moonlight.jpg",
			},
			Director: "Barry Jenkins",
			Cast:     []string{"Trevante Rhodes", "Mahershala Ali", "Naomie Harris"},
			Duration: 111,
			Release:  "2016-10-21",
		},
	}
}
