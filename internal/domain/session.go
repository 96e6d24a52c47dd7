package domain

import "time"

// WebSession is a server-side browser session row. Data is the encoded session
// values; it is opaque to storage.
type WebSession struct {
	ID        string
	Data      string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}
