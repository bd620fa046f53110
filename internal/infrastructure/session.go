package infrastructure

import (
	"sync"
	"time"
)

// UserSession tracks a chat that has a file in flight.
type UserSession struct {
	ChatID    string
	StartedAt time.Time
}

// SessionManager allows one file per chat at a time.
type SessionManager struct {
	sessions map[string]*UserSession
	mu       sync.Mutex
}

func NewSessionManager() *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*UserSession),
	}
}

// TryStart marks the chat busy. It returns false if a file is already being
// processed for it.
func (sm *SessionManager) TryStart(chatID string) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if _, busy := sm.sessions[chatID]; busy {
		return false
	}
	sm.sessions[chatID] = &UserSession{ChatID: chatID, StartedAt: time.Now()}
	return true
}

// Finish marks the chat idle.
func (sm *SessionManager) Finish(chatID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.sessions, chatID)
}

// Active returns the number of chats with a file in flight.
func (sm *SessionManager) Active() int {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return len(sm.sessions)
}
