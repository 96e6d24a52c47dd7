package search

import (
	"encoding/json"
	"reflect"
	"sort"
	"testing"
)

var filterKeys = []string{
	"actor_name",
	"description",
	"director_name",
	"film_name",
	"genre",
	"max_rating",
	"max_release",
	"max_score",
	"min_rating",
	"min_release",
	"min_score",
}

func encode(t *testing.T, text string) map[string]interface{} {
	t.Helper()
	payload, err := json.Marshal(Classify(text))
	if err != nil {
		t.Fatalf("marshal filter: %v", err)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(payload, &out); err != nil {
		t.Fatalf("unmarshal filter: %v", err)
	}
	return out
}

func assertOnly(t *testing.T, got map[string]interface{}, want map[string]interface{}) {
	t.Helper()
	keys := make([]string, 0, len(got))
	for k := range got {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if !reflect.DeepEqual(keys, filterKeys) {
		t.Fatalf("keys = %v, want %v", keys, filterKeys)
	}
	for _, k := range filterKeys {
		wantVal, set := want[k]
		if !set {
			if got[k] != nil {
				t.Fatalf("%s = %v, want null", k, got[k])
			}
			continue
		}
		if !reflect.DeepEqual(got[k], wantVal) {
			t.Fatalf("%s = %v, want %v", k, got[k], wantVal)
		}
	}
}

func TestClassifyScore(t *testing.T) {
	got := encode(t, "8")
	assertOnly(t, got, map[string]interface{}{
		"min_score": float64(8),
		"max_score": float64(8),
	})
}

func TestClassifyYear(t *testing.T) {
	for _, text := range []string{"1994", " 1994 ", "1994!", "#1994"} {
		t.Run(text, func(t *testing.T) {
			assertOnly(t, encode(t, text), map[string]interface{}{
				"min_release": float64(1994),
				"max_release": float64(1994),
			})
		})
	}
}

func TestClassifyBoundaries(t *testing.T) {
	assertOnly(t, encode(t, "10"), map[string]interface{}{
		"min_score": float64(10),
		"max_score": float64(10),
	})
	assertOnly(t, encode(t, "11"), map[string]interface{}{
		"min_release": float64(11),
		"max_release": float64(11),
	})
	assertOnly(t, encode(t, "0"), map[string]interface{}{
		"min_score": float64(0),
		"max_score": float64(0),
	})
}

func TestClassifyEmptyCases(t *testing.T) {
	for _, text := range []string{"", "   ", "-5", "!?", "99999999999999999999999"} {
		t.Run(text, func(t *testing.T) {
			assertOnly(t, encode(t, text), map[string]interface{}{})
		})
	}
}

func TestClassifyText(t *testing.T) {
	assertOnly(t, encode(t, "drama"), map[string]interface{}{
		"film_name":     "drama",
		"director_name": "drama",
		"actor_name":    "drama",
		"description":   "drama",
		"genre":         "Drama",
	})
}

func TestClassifyTextWithoutGenre(t *testing.T) {
	assertOnly(t, encode(t, "Kubrick 1968"), map[string]interface{}{
		"film_name":     "Kubrick 1968",
		"director_name": "Kubrick 1968",
		"actor_name":    "Kubrick 1968",
		"description":   "Kubrick 1968",
	})
}

func TestMatchGenre(t *testing.T) {
	tests := []struct {
		text  string
		want  string
		found bool
	}{
		{"action", "Action", true},
		{"SCI", "Sci-Fi", true},
		{"i-f", "Sci-Fi", true},
		{"r", "Crime", true},
		{"o", "Action", true},
		{"med", "Comedy", true},
		{"thrill", "Thriller", true},
		{"drama film", "", false},
		{"c.m", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := MatchGenre(tt.text)
			if ok != tt.found || got != tt.want {
				t.Fatalf("MatchGenre(%q) = %q,%v want %q,%v", tt.text, got, ok, tt.want, tt.found)
			}
		})
	}
}

func FuzzClassify(f *testing.F) {
	for _, seed := range []string{"8", "1999", "drama", "-3", "", "sci-fi 2020", "ñ"} {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, text string) {
		filter := Classify(text)
		if hasLetter(text) {
			if filter.FilmName == nil || *filter.FilmName != text {
				t.Fatalf("free text %q must fill film_name", text)
			}
			if filter.MinRelease != nil || filter.MinScore != nil {
				t.Fatalf("free text %q must not set numeric fields", text)
			}
			return
		}
		if filter.FilmName != nil || filter.Genre != nil {
			t.Fatalf("numeric text %q must not set text fields", text)
		}
		if filter.MinRelease != nil && *filter.MinRelease <= yearThreshold {
			t.Fatalf("year %d must exceed %d", *filter.MinRelease, yearThreshold)
		}
		if filter.MinScore != nil && (*filter.MinScore < 0 || *filter.MinScore > yearThreshold) {
			t.Fatalf("score %d out of range", *filter.MinScore)
		}
		if filter.MinRating != nil || filter.MaxRating != nil {
			t.Fatalf("rating fields are never set")
		}
	})
}
