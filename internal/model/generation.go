package model

import "time"

// Generation is a single generated piece of content.
// Records are immutable once created.
type Generation struct {
	ID          string    `json:"id"`
	UserID      string    `json:"-"`
	Niche       string    `json:"niche"`
	Categories  []string  `json:"categories"`
	ContentType string    `json:"content_type"`
	Engine      string    `json:"engine"`
	Language    string    `json:"language"`
	Response    string    `json:"response"`
	CreatedAt   time.Time `json:"created_at"`
}
