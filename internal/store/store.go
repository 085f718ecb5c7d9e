// internal/store/store.go
package store

import (
	"context"
	"errors"

	"loan-origination/internal/models"
)

var (
	ErrApplicationNotFound     = errors.New("APPLICATION_NOT_FOUND")
	ErrConcurrentModification  = errors.New("CONCURRENT_MODIFICATION")
	ErrDuplicateIdempotencyKey = errors.New("DUPLICATE_IDEMPOTENCY_KEY")
	ErrDuplicateApplication    = errors.New("DUPLICATE_APPLICATION")
)

// Store is the durable keyed record of applications.
//
// Every returned application is a private snapshot. Update is a
// compare-and-swap on Version: it succeeds only when the stored version
// equals expectedVersion and then stores expectedVersion+1.
type Store interface {
	Create(ctx context.Context, app *models.Application) error
	Get(ctx context.Context, id string) (*models.Application, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*models.Application, error)
	Update(ctx context.Context, app *models.Application, expectedVersion int64) error
	Ping(ctx context.Context) error
}
