package domain

// UserProfile is what the profile endpoint returns for the logged-in user.
type UserProfile struct {
	ID       int64  `json:"id,omitempty"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Credentials is the login payload.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Registration is the sign-up payload.
type Registration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ProfileUpdate changes username/email and rotates the password. Blank optional fields
// are left out of the payload.
type ProfileUpdate struct {
	Username        string `json:"username,omitempty"`
	Email           string `json:"email,omitempty"`
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// Unsubscribe confirms account deletion with the user's password.
type Unsubscribe struct {
	Password string `json:"password"`
}

// ReviewUpsert adds or replaces the caller's review for a film.
type ReviewUpsert struct {
	FilmID  int64  `json:"film_id"`
	Content string `json:"content"`
	Rating  *int   `json:"rating"`
}

// ReviewDelete removes the caller's review for a film.
type ReviewDelete struct {
	FilmID int64 `json:"film_id"`
}
