package services

import (
	"sync"

	"github.com/userhub/backend/internal/models"
)

// Session holds the single signed-in account for the running process.
type Session struct {
	mu      sync.RWMutex
	current *models.Account
}

func NewSession() *Session {
	return &Session{}
}

// Set replaces the current account with a copy of a.
func (s *Session) Set(a *models.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = a.Clone()
}

// Current returns a copy of the signed-in account, or nil.
func (s *Session) Current() *models.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
}

// IsCurrent reports whether accountID is the signed-in account.
func (s *Session) IsCurrent(accountID int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current != nil && s.current.ID == accountID
}

// Refresh swaps in a if it is the signed-in account. Other accounts are ignored.
func (s *Session) Refresh(a *models.Account) {
	if a == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil && s.current.ID == a.ID {
		s.current = a.Clone()
	}
}
