package domain

// SearchFilter is the film search payload. Every field is always serialised; unset
// fields go out as JSON null because the remote API expects the full key set.
//
// MinScore/MaxScore are what the numeric classifier fills for scores in [0,10]. They
// sit alongside MinRating/MaxRating, which nothing on this side ever sets.
type SearchFilter struct {
	FilmName     *string `json:"film_name"`
	DirectorName *string `json:"director_name"`
	ActorName    *string `json:"actor_name"`
	Genre        *string `json:"genre"`
	Description  *string `json:"description"`
	MinRelease   *int    `json:"min_release"`
	MaxRelease   *int    `json:"max_release"`
	MinRating    *int    `json:"min_rating"`
	MaxRating    *int    `json:"max_rating"`
	MinScore     *int    `json:"min_score"`
	MaxScore     *int    `json:"max_score"`
}

// Genres is the fixed genre enumeration of the catalogue, in match order.
var Genres = []string{
	"Action",
	"Comedy",
	"Crime",
	"Documentary",
	"Drama",
	"Horror",
	"Romance",
	"Sci-Fi",
	"Thriller",
	"Western",
}
