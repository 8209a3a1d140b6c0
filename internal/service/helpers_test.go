package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/vedran77/concorde/internal/domain"
	"github.com/vedran77/concorde/internal/repository"
	"github.com/vedran77/concorde/internal/repository/memory"
	"go.uber.org/zap"
)

type notification struct {
	recipients []uuid.UUID
	event      string
	payload    any
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notification
}

func (n *recordingNotifier) Notify(recipients []uuid.UUID, event string, payload any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, notification{recipients: recipients, event: event, payload: payload})
}

func (n *recordingNotifier) last() notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.events) == 0 {
		return notification{}
	}
	return n.events[len(n.events)-1]
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.events)
}

type fixture struct {
	store    *repository.Store
	notifier *recordingNotifier

	friends  *FriendService
	servers  *ServerService
	joins    *JoinRequestService
	channels *ChannelService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithStore(t, memory.NewStore())
}

func newFixtureWithStore(t *testing.T, store *repository.Store) *fixture {
	t.Helper()
	log := zap.NewNop()
	n := &recordingNotifier{}

	f := &fixture{
		store:    store,
		notifier: n,
		friends:  NewFriendService(store, log),
		servers:  NewServerService(store, log),
		joins:    NewJoinRequestService(store, log),
		channels: NewChannelService(store, log),
	}
	f.friends.SetNotifier(n)
	f.servers.SetNotifier(n)
	f.joins.SetNotifier(n)
	f.channels.SetNotifier(n)
	return f
}

func (f *fixture) user(t *testing.T, username string) domain.Actor {
	t.Helper()
	u := &domain.User{
		Username:    username,
		Email:       username + "@example.com",
		DisplayName: username,
	}
	require.NoError(t, f.store.Users.Create(context.Background(), u))
	return domain.NewActor(u.ID)
}

func (f *fixture) getUser(t *testing.T, id uuid.UUID) *domain.User {
	t.Helper()
	u, err := f.store.Users.Get(context.Background(), id)
	require.NoError(t, err)
	return u
}

func (f *fixture) getServer(t *testing.T, id uuid.UUID) *domain.Server {
	t.Helper()
	s, err := f.store.Servers.Get(context.Background(), id)
	require.NoError(t, err)
	return s
}

func (f *fixture) server(t *testing.T, owner domain.Actor, name string) *domain.Server {
	t.Helper()
	s, err := f.servers.Create(context.Background(), owner, CreateServerInput{Name: name})
	require.NoError(t, err)
	return s
}

// join makes actor a member of server through the join request flow.
func (f *fixture) join(t *testing.T, owner, actor domain.Actor, serverID uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	req, err := f.joins.RequestToJoin(ctx, actor, serverID)
	require.NoError(t, err)
	require.NoError(t, f.joins.Accept(ctx, owner, req.ID))
}

func countIDs(ids []uuid.UUID, id uuid.UUID) int {
	n := 0
	for _, v := range ids {
		if v == id {
			n++
		}
	}
	return n
}

// slowCount widens the window between a uniqueness check and the write that
// follows it.
type slowCount[T any] struct {
	repository.Collection[T]
	delay time.Duration
}

func (c slowCount[T]) Count(ctx context.Context, filter repository.Filter) (int, error) {
	n, err := c.Collection.Count(ctx, filter)
	time.Sleep(c.delay)
	return n, err
}

// concurrently runs fn n times at once and returns each call's error.
func concurrently(n int, fn func() error) []error {
	errs := make([]error, n)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			errs[i] = fn()
		}(i)
	}
	close(start)
	wg.Wait()
	return errs
}
