// Package search turns the free-text box of the film list into a search payload.
package search

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/Clark-Hu/flicks-picks/internal/domain"
)

// yearThreshold separates scores (0..10) from release years.
const yearThreshold = 10

// Classify decides whether text denotes a year, a score or free text and builds the
// matching filter. Fields that do not apply stay nil.
func Classify(text string) domain.SearchFilter {
	var filter domain.SearchFilter

	if !hasLetter(text) {
		n, ok := leadingNumber(text)
		if !ok {
			return filter
		}
		switch {
		case n > yearThreshold:
			filter.MinRelease = intPtr(n)
			filter.MaxRelease = intPtr(n)
		case n >= 0:
			filter.MinScore = intPtr(n)
			filter.MaxScore = intPtr(n)
		}
		return filter
	}

	filter.FilmName = strPtr(text)
	filter.DirectorName = strPtr(text)
	filter.ActorName = strPtr(text)
	filter.Description = strPtr(text)
	if genre, ok := MatchGenre(text); ok {
		filter.Genre = strPtr(genre)
	}
	return filter
}

// MatchGenre returns the first genre whose name contains text, ignoring case.
func MatchGenre(text string) (string, bool) {
	needle := strings.ToLower(text)
	for _, genre := range domain.Genres {
		if strings.Contains(strings.ToLower(genre), needle) {
			return genre, true
		}
	}
	return "", false
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// leadingNumber extracts the first run of ASCII digits. A run directly preceded by a
// minus sign is negative; negative and unparsable runs report ok=false.
func leadingNumber(s string) (int, bool) {
	start := strings.IndexFunc(s, isDigit)
	if start < 0 {
		return 0, false
	}
	end := start
	for end < len(s) && isDigit(rune(s[end])) {
		end++
	}
	if start > 0 && s[start-1] == '-' {
		return 0, false
	}
	n, err := strconv.Atoi(s[start:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func intPtr(v int) *int {
	return &v
}

func strPtr(v string) *string {
	return &v
}
