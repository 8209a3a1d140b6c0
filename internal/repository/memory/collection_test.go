package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vedran77/concorde/internal/domain"
	"github.com/vedran77/concorde/internal/repository"
)

func TestCollectionCreateGet(t *testing.T) {
	ctx := context.Background()
	c := NewCollection[domain.User]("users")

	u := &domain.User{Username: "alice", Email: "alice@example.com"}
	require.NoError(t, c.Create(ctx, u))
	assert.NotEqual(t, uuid.Nil, u.ID)
	assert.Equal(t, int64(1), u.Version)
	assert.False(t, u.CreatedAt.IsZero())

	got, err := c.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	// callers hold copies
	got.Username = "mallory"
	again, err := c.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", again.Username)

	_, err = c.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCollectionCreateKeepsGivenID(t *testing.T) {
	ctx := context.Background()
	c := NewCollection[domain.Channel]("channels")

	id := uuid.New()
	require.NoError(t, c.Create(ctx, &domain.Channel{Record: domain.Record{ID: id}, Name: "general"}))
	err := c.Create(ctx, &domain.Channel{Record: domain.Record{ID: id}, Name: "dup"})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestCollectionUpdateCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	c := NewCollection[domain.Server]("servers")

	s := &domain.Server{Name: "one"}
	require.NoError(t, c.Create(ctx, s))

	first, err := c.Get(ctx, s.ID)
	require.NoError(t, err)
	second, err := c.Get(ctx, s.ID)
	require.NoError(t, err)

	first.Name = "two"
	require.NoError(t, c.Update(ctx, first))
	assert.Equal(t, int64(2), first.Version)

	second.Name = "three"
	err = c.Update(ctx, second)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, int64(1), second.Version)

	got, err := c.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "two", got.Name)

	err = c.Update(ctx, &domain.Server{Record: domain.Record{ID: uuid.New(), Version: 1}})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCollectionUniqueFields(t *testing.T) {
	ctx := context.Background()
	c := NewCollection[domain.User]("users", "username", "email")

	alice := &domain.User{Username: "alice", Email: "alice@example.com"}
	require.NoError(t, c.Create(ctx, alice))

	tests := []struct {
		name    string
		user    domain.User
		wantErr error
	}{
		{name: "same username", user: domain.User{Username: "alice", Email: "a2@example.com"}, wantErr: domain.ErrConflict},
		{name: "same email", user: domain.User{Username: "alice2", Email: "alice@example.com"}, wantErr: domain.ErrConflict},
		{name: "distinct", user: domain.User{Username: "bob", Email: "bob@example.com"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := tt.user
			err := c.Create(ctx, &u)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
	assert.Equal(t, 2, c.Len())

	// updating a document keeps its own values
	alice.DisplayName = "Alice"
	require.NoError(t, c.Update(ctx, alice))

	bob, err := c.Query(ctx, repository.Eq("username", "bob"), repository.ListOptions{})
	require.NoError(t, err)
	require.Len(t, bob, 1)
	bob[0].Username = "alice"
	err = c.Update(ctx, &bob[0])
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, int64(1), bob[0].Version)
}

func TestCollectionQuery(t *testing.T) {
	ctx := context.Background()
	c := NewCollection[domain.Server]("servers")

	alice, bob := uuid.New(), uuid.New()
	for i, members := range [][]uuid.UUID{{alice}, {alice, bob}, {bob}, {alice}} {
		s := &domain.Server{Name: string(rune('a' + i)), Members: members}
		require.NoError(t, c.Create(ctx, s))
	}

	all, err := c.Query(ctx, repository.Has("members", alice), repository.ListOptions{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"a", "b", "d"}, []string{all[0].Name, all[1].Name, all[2].Name})

	page, err := c.Query(ctx, repository.Has("members", alice), repository.ListOptions{Page: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "d", page[0].Name)

	past, err := c.Query(ctx, nil, repository.ListOptions{Page: 5, Limit: 2})
	require.NoError(t, err)
	assert.Empty(t, past)

	n, err := c.Count(ctx, repository.Has("members", bob))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = c.Query(ctx, repository.Eq("bad field", "x"), repository.ListOptions{})
	assert.Error(t, err)
}

func TestCollectionDelete(t *testing.T) {
	ctx := context.Background()
	c := NewCollection[domain.FriendRequest]("friend_requests")

	r := &domain.FriendRequest{From: uuid.New(), To: uuid.New()}
	require.NoError(t, c.Create(ctx, r))

	deleted, err := c.Delete(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.From, deleted.From)
	assert.Equal(t, 0, c.Len())

	_, err = c.Delete(ctx, r.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCollectionHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewCollection[domain.User]("users")
	assert.ErrorIs(t, c.Create(ctx, &domain.User{}), context.Canceled)
	_, err := c.Query(ctx, nil, repository.ListOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}
