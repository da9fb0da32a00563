package model

import "time"

// UsageEvent is one recorded generation attempt, consumed from the
// usage stream and persisted for aggregation.
type UsageEvent struct {
	ID          string    `json:"id"`
	EventID     string    `json:"event_id"` // stream message ID, idempotency key
	UserID      string    `json:"user_id"`
	Engine      string    `json:"engine"`
	ContentType string    `json:"content_type"`
	Language    string    `json:"language"`
	Succeeded   bool      `json:"succeeded"`
	GeneratedAt time.Time `json:"generated_at"`
}

// DailyUsage is one aggregated row of generations per day and engine.
type DailyUsage struct {
	Day         time.Time `json:"day"`
	Engine      string    `json:"engine"`
	Generations int64     `json:"generations"`
	Failures    int64     `json:"failures"`
}
