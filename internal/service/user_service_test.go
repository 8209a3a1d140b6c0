package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vedran77/concorde/internal/domain"
)

type stubAvatars struct {
	url string
	err error
}

func (s stubAvatars) Put(context.Context, string, []byte) (string, error) {
	return s.url, s.err
}

func TestMe(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.user(t, "alice")
	svc := NewUserService(f.store, stubAvatars{})

	me, err := svc.Me(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, "alice", me.Username)
	assert.Equal(t, "alice@example.com", me.Email)
	assert.Equal(t, []uuid.UUID{}, me.Friends)

	_, err = svc.Me(ctx, domain.NewActor(uuid.New()))
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestExists(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.user(t, "alice")
	svc := NewUserService(f.store, stubAvatars{})

	ok, err := svc.Exists(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Exists(ctx, uuid.New())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSetAvatar(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.user(t, "alice")

	svc := NewUserService(f.store, stubAvatars{url: "/cdn/avatars/abc.png"})
	me, err := svc.SetAvatar(ctx, u, "image/png", []byte{1})
	require.NoError(t, err)
	require.NotNil(t, me.AvatarURL)
	assert.Equal(t, "/cdn/avatars/abc.png", *me.AvatarURL)
	assert.Equal(t, "/cdn/avatars/abc.png", *f.getUser(t, u.ID).AvatarURL)

	failing := NewUserService(f.store, stubAvatars{err: errors.New("bucket gone")})
	_, err = failing.SetAvatar(ctx, u, "image/png", []byte{1})
	assert.EqualError(t, err, "bucket gone")
}
