package http

import (
	"regexp"
	"strconv"
)

// Input validation constants
const (
	MaxUsernameLength = 64
	MaxUsageLimit     = 100
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidUsername checks if a login name is safe (alphanumeric + underscore + hyphen)
func ValidUsername(s string) bool {
	if s == "" || len(s) > MaxUsernameLength {
		return false
	}
	return usernamePattern.MatchString(s)
}

// ParseChatID parses a Telegram chat id. Group chats are negative, zero is never valid.
func ParseChatID(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// ParseLimit reads a page size, falling back to def and clamping to MaxUsageLimit.
func ParseLimit(s string, def int) (int, bool) {
	if s == "" {
		return def, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, false
	}
	if n > MaxUsageLimit {
		n = MaxUsageLimit
	}
	return n, true
}
