package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/vedran77/concorde/internal/domain"
	"github.com/vedran77/concorde/internal/repository"
)

// AvatarStore keeps avatar images and returns the URL they are served at.
type AvatarStore interface {
	Put(ctx context.Context, contentType string, data []byte) (string, error)
}

type UserService struct {
	store   *repository.Store
	avatars AvatarStore
}

func NewUserService(store *repository.Store, avatars AvatarStore) *UserService {
	return &UserService{store: store, avatars: avatars}
}

func (s *UserService) Me(ctx context.Context, actor domain.Actor) (*domain.Account, error) {
	u, err := s.store.Users.Get(ctx, actor.ID)
	if err != nil {
		return nil, mapNotFound(err, ErrUserNotFound)
	}
	account := u.Account()
	return &account, nil
}

// Exists reports whether a user account is still present.
func (s *UserService) Exists(ctx context.Context, userID uuid.UUID) (bool, error) {
	_, err := s.store.Users.Get(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// SetAvatar stores the image and records its URL on the actor's account.
func (s *UserService) SetAvatar(ctx context.Context, actor domain.Actor, contentType string, data []byte) (*domain.Account, error) {
	url, err := s.avatars.Put(ctx, contentType, data)
	if err != nil {
		return nil, err
	}

	u, err := repository.Mutate(ctx, s.store.Users, actor.ID, func(u *domain.User) (bool, error) {
		if u.AvatarURL != nil && *u.AvatarURL == url {
			return false, nil
		}
		u.AvatarURL = &url
		return true, nil
	})
	if err != nil {
		return nil, mapNotFound(err, ErrUserNotFound)
	}
	account := u.Account()
	return &account, nil
}
