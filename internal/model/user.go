// Package model defines domain entities for the application.
package model

import "time"

// User represents a registered account.
// RequestCount and LastRequestTime are the rate-limit counters: the count is
// valid only for the rolling hour starting at LastRequestTime and is lazily
// reset on the next quota check once that hour has passed.
type User struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	PasswordHash    string     `json:"-"`
	IsPaid          bool       `json:"is_paid"`
	RequestCount    int        `json:"-"`
	LastRequestTime *time.Time `json:"-"`
	CreatedAt       time.Time  `json:"created_at"`
}
