// internal/store/cache.go
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"loan-origination/internal/common/logger"
	"loan-origination/internal/models"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "los:application:"

// CachedStore puts a Redis snapshot cache in front of another Store.
// Writers overwrite the cached snapshot after a successful write; readers
// only fill an empty slot, so a slow reader never replaces a newer snapshot.
// Cache errors are logged and never fail the call.
type CachedStore struct {
	inner  Store
	rdb    *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedStore(inner Store, rdb *redis.Client, ttl time.Duration, log logger.Logger) *CachedStore {
	return &CachedStore{
		inner:  inner,
		rdb:    rdb,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "application-cache"}),
	}
}

func cacheKey(id string) string {
	return cacheKeyPrefix + id
}

func (s *CachedStore) Create(ctx context.Context, app *models.Application) error {
	if err := s.inner.Create(ctx, app); err != nil {
		return err
	}
	s.put(ctx, app)
	return nil
}

func (s *CachedStore) Get(ctx context.Context, id string) (*models.Application, error) {
	raw, err := s.rdb.Get(ctx, cacheKey(id)).Bytes()
	switch {
	case err == nil:
		var app models.Application
		if jerr := json.Unmarshal(raw, &app); jerr == nil {
			return &app, nil
		}
		s.evict(ctx, id)
	case !errors.Is(err, redis.Nil):
		s.logger.WithError(err).Warn("cache read failed", map[string]interface{}{"applicationId": id})
	}

	app, err := s.inner.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc, jerr := json.Marshal(app); jerr == nil {
		if serr := s.rdb.SetNX(ctx, cacheKey(id), doc, s.ttl).Err(); serr != nil {
			s.logger.WithError(serr).Warn("cache fill failed", map[string]interface{}{"applicationId": id})
		}
	}
	return app, nil
}

func (s *CachedStore) FindByIdempotencyKey(ctx context.Context, key string) (*models.Application, error) {
	return s.inner.FindByIdempotencyKey(ctx, key)
}

func (s *CachedStore) Update(ctx context.Context, app *models.Application, expectedVersion int64) error {
	if err := s.inner.Update(ctx, app, expectedVersion); err != nil {
		if errors.Is(err, ErrConcurrentModification) {
			s.evict(ctx, app.ID)
		}
		return err
	}
	s.put(ctx, app)
	return nil
}

func (s *CachedStore) Ping(ctx context.Context) error {
	if err := s.inner.Ping(ctx); err != nil {
		return err
	}
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (s *CachedStore) put(ctx context.Context, app *models.Application) {
	doc, err := json.Marshal(app)
	if err == nil {
		err = s.rdb.Set(ctx, cacheKey(app.ID), doc, s.ttl).Err()
	}
	if err != nil {
		s.logger.WithError(err).Warn("cache write failed", map[string]interface{}{"applicationId": app.ID})
		s.evict(ctx, app.ID)
	}
}

func (s *CachedStore) evict(ctx context.Context, id string) {
	if err := s.rdb.Del(ctx, cacheKey(id)).Err(); err != nil {
		s.logger.WithError(err).Warn("cache evict failed", map[string]interface{}{"applicationId": id})
	}
}
