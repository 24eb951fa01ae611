package store

import (
	"context"
	"sync"

	"github.com/layer-3/turfbook/core"
	"github.com/layer-3/turfbook/ports"
)

// MemoryStore is an in-memory TokenStore. Credentials do not survive a restart.
type MemoryStore struct {
	creds core.Credentials
	mu    sync.RWMutex
}

var _ ports.TokenStore = (*MemoryStore)(nil)

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(ctx context.Context) (core.Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.creds, nil
}

func (s *MemoryStore) Save(ctx context.Context, creds core.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creds = creds
	return nil
}

func (s *MemoryStore) SetAccess(ctx context.Context, access string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creds.Access = access
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creds = core.Credentials{}
	return nil
}
