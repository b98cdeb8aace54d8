package entities

import "time"

// DefaultDailyLimit is the quota given to a user created without an explicit limit.
const DefaultDailyLimit = 150

// DateLayout is the calendar date format stored in last_reset_date.
const DateLayout = "2006-01-02"

// User is the per-chat quota record.
type User struct {
	UserID        int64     `json:"user_id"`
	DailyLimit    int       `json:"daily_limit"`
	RequestsLeft  int       `json:"requests_left"`
	LastResetDate string    `json:"last_reset_date"` // YYYY-MM-DD in the ledger time zone
	CreatedAt     time.Time `json:"created_at"`
}
