package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/vedran77/concorde/internal/domain"
)

const maxMutateAttempts = 5

// Mutate loads the record, applies fn and writes it back with a
// compare-and-swap. When another writer moved the version on, the record is
// reloaded and fn re-applied, up to maxMutateAttempts times.
//
// fn reports whether it changed the record. Unchanged records are returned
// without a write.
func Mutate[T any](ctx context.Context, c Collection[T], id uuid.UUID, fn func(*T) (bool, error)) (*T, error) {
	var lastErr error
	for attempt := 0; attempt < maxMutateAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rec, err := c.Get(ctx, id)
		if err != nil {
			return nil, err
		}

		changed, err := fn(rec)
		if err != nil {
			return nil, err
		}
		if !changed {
			return rec, nil
		}

		err = c.Update(ctx, rec)
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}
