package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/vedran77/concorde/internal/domain"
	"github.com/vedran77/concorde/internal/repository"
	"github.com/vedran77/concorde/pkg/validator"
	"golang.org/x/sync/errgroup"
)

const (
	defaultPerPage = 20

	// expandConcurrency bounds parallel user lookups in list operations.
	expandConcurrency = 8
)

// PageInput selects a page of a paginated listing. Zero values fall back to
// the first page of defaultPerPage items.
type PageInput struct {
	Page  int `json:"page" validate:"gte=1"`
	Limit int `json:"limit" validate:"gte=1,lte=100"`
}

func (p PageInput) withDefaults() PageInput {
	if p.Page == 0 {
		p.Page = 1
	}
	if p.Limit == 0 {
		p.Limit = defaultPerPage
	}
	return p
}

func validateInput(input any) error {
	if errs := validator.Struct(input); errs.HasErrors() {
		return &domain.ValidationError{Fields: errs}
	}
	return nil
}

// mapNotFound replaces a store-level not-found with a resource specific one.
func mapNotFound(err, notFound error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return notFound
	}
	return err
}

// profilesByID resolves ids to profiles concurrently. Ids that no longer
// resolve to a user are left out of the result.
func profilesByID(ctx context.Context, users repository.Collection[domain.User], ids []uuid.UUID) (map[uuid.UUID]domain.Profile, error) {
	found := make([]*domain.Profile, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(expandConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			u, err := users.Get(gctx, id)
			if errors.Is(err, domain.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			p := u.Profile()
			found[i] = &p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[uuid.UUID]domain.Profile, len(ids))
	for _, p := range found {
		if p != nil {
			out[p.ID] = *p
		}
	}
	return out, nil
}

// loadProfiles is profilesByID preserving the order of ids.
func loadProfiles(ctx context.Context, users repository.Collection[domain.User], ids []uuid.UUID) ([]domain.Profile, error) {
	byID, err := profilesByID(ctx, users, ids)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Profile, 0, len(byID))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
			delete(byID, id)
		}
	}
	return out, nil
}

func totalPages(total, perPage int) int {
	if perPage <= 0 || total == 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}
