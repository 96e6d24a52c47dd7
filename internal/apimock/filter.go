package apimock

import (
	"strconv"
	"strings"

	"github.com/Clark-Hu/flicks-picks/internal/domain"
)

// matches applies a search filter the way the remote API does: the text fields are
// OR-ed together, everything else narrows the result.
func matches(film domain.FilmDetail, f domain.SearchFilter) bool {
	if anyText(f) {
		if !textHit(film, f) && !genreIs(film, f.Genre) {
			return false
		}
	} else if f.Genre != nil && !genreIs(film, f.Genre) {
		return false
	}

	year := releaseYear(film.Release)
	if f.MinRelease != nil && year < *f.MinRelease {
		return false
	}
	if f.MaxRelease != nil && year > *f.MaxRelease {
		return false
	}

	for _, bound := range []struct {
		min, max *int
	}{{f.MinRating, f.MaxRating}, {f.MinScore, f.MaxScore}} {
		if bound.min == nil && bound.max == nil {
			continue
		}
		if film.AvgRating == nil {
			return false
		}
		avg := *film.AvgRating
		if bound.min != nil && avg < float64(*bound.min) {
			return false
		}
		// An exact score n matches averages in [n, n+1).
		if bound.max != nil && avg >= float64(*bound.max)+1 {
			return false
		}
	}
	return true
}

func anyText(f domain.SearchFilter) bool {
	return f.FilmName != nil || f.DirectorName != nil || f.ActorName != nil || f.Description != nil
}

func textHit(film domain.FilmDetail, f domain.SearchFilter) bool {
	return containsFold(film.Title, f.FilmName) ||
		containsFold(film.Director, f.DirectorName) ||
		containsFold(film.Description, f.Description) ||
		castContains(film.Cast, f.ActorName)
}

func genreIs(film domain.FilmDetail, genre *string) bool {
	return genre != nil && strings.EqualFold(film.Genre, *genre)
}

func containsFold(haystack string, needle *string) bool {
	if needle == nil || *needle == "" {
		return false
	}
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(*needle))
}

func castContains(cast []string, needle *string) bool {
	for _, actor := range cast {
		if containsFold(actor, needle) {
			return true
		}
	}
	return false
}

func releaseYear(release string) int {
	if len(release) < 4 {
		return 0
	}
	year, err := strconv.Atoi(release[:4])
	if err != nil {
		return 0
	}
	return year
}
