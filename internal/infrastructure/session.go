package infrastructure

import (
	"sync"
	"time"
)

// UserSession tracks menu activity per chat
type UserSession struct {
	ChatID       int64
	IsProcessing bool
	LastClick    time.Time
	mu           sync.Mutex
}

// SessionManager manages chat sessions globally
type SessionManager struct {
	sessions map[int64]*UserSession
	debounce time.Duration
	now      func() time.Time
	mu       sync.Mutex
}

func NewSessionManager(debounce time.Duration) *SessionManager {
	return &SessionManager{
		sessions: make(map[int64]*UserSession),
		debounce: debounce,
		now:      time.Now,
	}
}

// GetOrCreateSession returns or creates a chat session
func (sm *SessionManager) GetOrCreateSession(chatID int64) *UserSession {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	session, exists := sm.sessions[chatID]
	if !exists {
		session = &UserSession{ChatID: chatID}
		sm.sessions[chatID] = session
	}
	return session
}

// AllowClick applies the debounce to a button press and, when allowed, marks the
// session as processing. Callers must pair it with FinishProcessing.
func (sm *SessionManager) AllowClick(chatID int64) bool {
	us := sm.GetOrCreateSession(chatID)
	now := sm.now()

	us.mu.Lock()
	defer us.mu.Unlock()

	if us.IsProcessing {
		return false
	}
	if !us.LastClick.IsZero() && now.Sub(us.LastClick) < sm.debounce {
		return false
	}
	us.LastClick = now
	us.IsProcessing = true
	return true
}

func (sm *SessionManager) FinishProcessing(chatID int64) {
	us := sm.GetOrCreateSession(chatID)
	us.mu.Lock()
	defer us.mu.Unlock()
	us.IsProcessing = false
}

// Prune drops sessions idle for longer than maxIdle.
func (sm *SessionManager) Prune(maxIdle time.Duration) int {
	now := sm.now()
	sm.mu.Lock()
	defer sm.mu.Unlock()

	removed := 0
	for chatID, us := range sm.sessions {
		us.mu.Lock()
		idle := !us.IsProcessing && now.Sub(us.LastClick) > maxIdle
		us.mu.Unlock()
		if idle {
			delete(sm.sessions, chatID)
			removed++
		}
	}
	return removed
}
