package entities

import "time"

// UsageEntry is one answered prompt. Entries are never updated or deleted.
type UsageEntry struct {
	ID        int64     `json:"id"`
	RequestID string    `json:"request_id"`
	UserID    int64     `json:"user_id"`
	Prompt    string    `json:"prompt"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"created_at"`
}
