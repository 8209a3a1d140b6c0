package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vedran77/concorde/internal/domain"
	"github.com/vedran77/concorde/internal/repository"
	"github.com/vedran77/concorde/internal/repository/memory"
)

func TestCreateChannel(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner, u1 := f.user(t, "owner"), f.user(t, "u1")
	s := f.server(t, owner, "guild")
	f.join(t, owner, u1, s.ID)

	c1, err := f.channels.Create(ctx, owner, s.ID, CreateChannelInput{Name: "general"})
	require.NoError(t, err)
	assert.Equal(t, owner.ID, c1.OwnerID)
	assert.Equal(t, s.ID, c1.ServerID)
	assert.Equal(t, []uuid.UUID{c1.ID}, f.getServer(t, s.ID).Channels)

	last := f.notifier.last()
	assert.Equal(t, EventChannelCreated, last.event)
	assert.ElementsMatch(t, []uuid.UUID{owner.ID, u1.ID}, last.recipients)

	c2, err := f.channels.Create(ctx, owner, s.ID, CreateChannelInput{Name: "random"})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{c1.ID, c2.ID}, f.getServer(t, s.ID).Channels)
}

func TestCreateChannelGates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner, u1 := f.user(t, "owner"), f.user(t, "u1")
	s := f.server(t, owner, "guild")
	f.join(t, owner, u1, s.ID)

	_, err := f.channels.Create(ctx, u1, s.ID, CreateChannelInput{Name: "mine"})
	assert.ErrorIs(t, err, ErrNotServerOwner)

	_, err = f.channels.Create(ctx, owner, uuid.New(), CreateChannelInput{Name: "ghost"})
	assert.ErrorIs(t, err, ErrServerNotFound)

	_, err = f.channels.Create(ctx, owner, s.ID, CreateChannelInput{Name: "g"})
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)

	assert.Empty(t, f.getServer(t, s.ID).Channels)
	n, err := f.store.Channels.Count(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUpdateChannelOwnerGate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner, u1 := f.user(t, "owner"), f.user(t, "u1")
	s := f.server(t, owner, "guild")
	f.join(t, owner, u1, s.ID)

	c1, err := f.channels.Create(ctx, owner, s.ID, CreateChannelInput{Name: "general"})
	require.NoError(t, err)

	_, err = f.channels.Update(ctx, u1, c1.ID, UpdateChannelInput{Name: strPtr("pwned")})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.ErrorIs(t, f.channels.Delete(ctx, u1, c1.ID), domain.ErrForbidden)

	got, err := f.store.Channels.Get(ctx, c1.ID)
	require.NoError(t, err)
	assert.Equal(t, "general", got.Name)
	assert.Equal(t, c1.Version, got.Version)

	updated, err := f.channels.Update(ctx, owner, c1.ID, UpdateChannelInput{Name: strPtr("lobby")})
	require.NoError(t, err)
	assert.Equal(t, "lobby", updated.Name)
	assert.Equal(t, EventChannelUpdated, f.notifier.last().event)

	_, err = f.channels.Update(ctx, owner, uuid.New(), UpdateChannelInput{Name: strPtr("ghost")})
	assert.ErrorIs(t, err, ErrChannelNotFound)
}

func TestServerOwnerCannotTouchForeignChannel(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner, u1 := f.user(t, "owner"), f.user(t, "u1")
	s := f.server(t, owner, "guild")

	// channel created while u1 owned the server
	ch := &domain.Channel{Name: "legacy", OwnerID: u1.ID, ServerID: s.ID}
	require.NoError(t, f.store.Channels.Create(ctx, ch))

	_, err := f.channels.Update(ctx, owner, ch.ID, UpdateChannelInput{Name: strPtr("mine")})
	assert.ErrorIs(t, err, ErrNotChannelOwner)
	assert.ErrorIs(t, f.channels.Delete(ctx, owner, ch.ID), ErrNotChannelOwner)
}

func TestDeleteChannel(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.user(t, "owner")
	s := f.server(t, owner, "guild")

	c1, err := f.channels.Create(ctx, owner, s.ID, CreateChannelInput{Name: "general"})
	require.NoError(t, err)
	c2, err := f.channels.Create(ctx, owner, s.ID, CreateChannelInput{Name: "random"})
	require.NoError(t, err)

	require.NoError(t, f.channels.Delete(ctx, owner, c1.ID))
	assert.Equal(t, []uuid.UUID{c2.ID}, f.getServer(t, s.ID).Channels)
	assert.Equal(t, EventChannelDeleted, f.notifier.last().event)

	assert.ErrorIs(t, f.channels.Delete(ctx, owner, c1.ID), ErrChannelNotFound)
}

func TestListChannels(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.user(t, "owner")
	s, other := f.server(t, owner, "guild"), f.server(t, owner, "other")

	for _, name := range []string{"general", "random"} {
		_, err := f.channels.Create(ctx, owner, s.ID, CreateChannelInput{Name: name})
		require.NoError(t, err)
	}
	_, err := f.channels.Create(ctx, owner, other.ID, CreateChannelInput{Name: "elsewhere"})
	require.NoError(t, err)

	channels, err := f.channels.List(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, channels, 2)
	assert.Equal(t, "general", channels[0].Name)
	assert.Equal(t, "random", channels[1].Name)

	none, err := f.channels.List(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, none)
}

// failingChannels rejects every create.
type failingChannels struct {
	repository.Collection[domain.Channel]
}

func (failingChannels) Create(context.Context, *domain.Channel) error {
	return &domain.StoreError{Op: "create", Collection: "channels", Err: errors.New("disk full")}
}

func TestCreateChannelRollsBackReservation(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	store.Channels = failingChannels{Collection: store.Channels}
	f := newFixtureWithStore(t, store)

	owner := f.user(t, "owner")
	s := f.server(t, owner, "guild")

	_, err := f.channels.Create(ctx, owner, s.ID, CreateChannelInput{Name: "general"})
	var serr *domain.StoreError
	require.ErrorAs(t, err, &serr)

	assert.Empty(t, f.getServer(t, s.ID).Channels)
	assert.Zero(t, f.notifier.count())
}
