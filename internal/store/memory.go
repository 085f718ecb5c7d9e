// internal/store/memory.go
package store

import (
	"context"
	"fmt"
	"sync"

	"loan-origination/internal/models"
)

// MemoryStore keeps applications in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	apps  map[string]*models.Application
	byKey map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		apps:  make(map[string]*models.Application),
		byKey: make(map[string]string),
	}
}

func (s *MemoryStore) Create(_ context.Context, app *models.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.apps[app.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateApplication, app.ID)
	}
	if app.IdempotencyKey != "" {
		if _, ok := s.byKey[app.IdempotencyKey]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateIdempotencyKey, app.IdempotencyKey)
		}
		s.byKey[app.IdempotencyKey] = app.ID
	}

	app.Version = 1
	s.apps[app.ID] = app.Clone()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	app, ok := s.apps[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrApplicationNotFound, id)
	}
	return app.Clone(), nil
}

func (s *MemoryStore) FindByIdempotencyKey(ctx context.Context, key string) (*models.Application, error) {
	s.mu.RLock()
	id, ok := s.byKey[key]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: idempotency key %s", ErrApplicationNotFound, key)
	}
	return s.Get(ctx, id)
}

func (s *MemoryStore) Update(_ context.Context, app *models.Application, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.apps[app.ID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrApplicationNotFound, app.ID)
	}
	if current.Version != expectedVersion {
		return fmt.Errorf("%w: %s at version %d, expected %d", ErrConcurrentModification, app.ID, current.Version, expectedVersion)
	}

	app.Version = expectedVersion + 1
	s.apps[app.ID] = app.Clone()
	return nil
}

func (s *MemoryStore) Ping(context.Context) error {
	return nil
}
