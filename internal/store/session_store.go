package store

import (
	"context"
	"sync"

	"careerpilot/internal/models"
)

//go:generate mockgen -destination=../../mocks/mock_session_store.go -package=mocks careerpilot/internal/store SessionStore

// SessionStore persists session progress so it survives coordinator restarts.
type SessionStore interface {
	GetState(ctx context.Context, sessionID string) (models.SessionState, bool, error)
	SetState(ctx context.Context, state models.SessionState) error
	SetProcessingFlag(ctx context.Context, sessionID string, processing bool) error
}

// MemorySessionStore is an in-process SessionStore.
type MemorySessionStore struct {
	mu     sync.RWMutex
	states map[string]models.SessionState
}

// NewMemorySessionStore creates an empty store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{states: make(map[string]models.SessionState)}
}

func (s *MemorySessionStore) GetState(_ context.Context, sessionID string) (models.SessionState, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[sessionID]
	return state, ok, nil
}

func (s *MemorySessionStore) SetState(_ context.Context, state models.SessionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state.SessionID] = state
	return nil
}

func (s *MemorySessionStore) SetProcessingFlag(_ context.Context, sessionID string, processing bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.states[sessionID]
	if !ok {
		return nil
	}
	state.IsProcessing = processing
	s.states[sessionID] = state
	return nil
}
