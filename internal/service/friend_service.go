package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/vedran77/concorde/internal/domain"
	"github.com/vedran77/concorde/internal/guard"
	"github.com/vedran77/concorde/internal/repository"
	"go.uber.org/zap"
)

var (
	ErrUserNotFound          = fmt.Errorf("user %w", domain.ErrNotFound)
	ErrFriendRequestNotFound = fmt.Errorf("friend request %w", domain.ErrNotFound)
	ErrNotRequestReceiver    = fmt.Errorf("%w: only the request receiver can perform this action", domain.ErrForbidden)
	ErrNotRequestSender      = fmt.Errorf("%w: only the request sender can cancel", domain.ErrForbidden)
)

// friendRequestNamespace seeds the name-based ids of friend requests.
var friendRequestNamespace = uuid.MustParse("6f1c2a9e-3b47-4d5e-9a0c-8e2f71b5d4c3")

// friendRequestID is the same for every request from one user to another,
// so the store rejects a second pending request in that direction.
func friendRequestID(from, to uuid.UUID) uuid.UUID {
	name := make([]byte, 0, 32)
	name = append(name, from[:]...)
	name = append(name, to[:]...)
	return uuid.NewSHA1(friendRequestNamespace, name)
}

// FriendService runs the friend request lifecycle and keeps the friends
// lists of both users symmetric.
type FriendService struct {
	store    *repository.Store
	notifier Notifier
	log      *zap.Logger
}

func NewFriendService(store *repository.Store, log *zap.Logger) *FriendService {
	return &FriendService{
		store:    store,
		notifier: nopNotifier{},
		log:      log.Named("friends"),
	}
}

// SetNotifier sets the real-time notifier (optional dependency).
func (s *FriendService) SetNotifier(n Notifier) {
	s.notifier = n
}

// Invite sends a friend request from the actor to targetID.
//
// Only a pending request in the same direction counts as a duplicate; a
// request the target already sent to the actor does not block this one.
func (s *FriendService) Invite(ctx context.Context, actor domain.Actor, targetID uuid.UUID) (*domain.FriendRequest, error) {
	if guard.IsSelf(targetID, actor) {
		return nil, domain.ErrSelfTarget
	}

	target, err := s.store.Users.Get(ctx, targetID)
	if err != nil {
		return nil, mapNotFound(err, ErrUserNotFound)
	}
	if domain.HasID(target.Friends, actor.ID) {
		return nil, domain.ErrAlreadyFriends
	}

	pending, err := s.store.FriendRequests.Count(ctx,
		repository.Eq("from", actor.ID).And(repository.Eq("to", targetID)))
	if err != nil {
		return nil, err
	}
	if pending > 0 {
		return nil, domain.ErrDuplicateRequest
	}

	req := &domain.FriendRequest{
		Record: domain.Record{ID: friendRequestID(actor.ID, targetID)},
		From:   actor.ID,
		To:     targetID,
	}
	if err := s.store.FriendRequests.Create(ctx, req); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, domain.ErrDuplicateRequest
		}
		return nil, fmt.Errorf("creating friend request: %w", err)
	}

	s.notifier.Notify([]uuid.UUID{targetID}, EventFriendRequest, FriendPayload{RequestID: &req.ID, UserID: actor.ID})
	return req, nil
}

// InviteByUsername resolves username and invites that user.
func (s *FriendService) InviteByUsername(ctx context.Context, actor domain.Actor, username string) (*domain.FriendRequest, error) {
	users, err := s.store.Users.Query(ctx, repository.Eq("username", username), repository.ListOptions{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, ErrUserNotFound
	}
	return s.Invite(ctx, actor, users[0].ID)
}

// Accept makes the sender and receiver of a request friends.
//
// Writes happen in a fixed order: the sender's friends, the receiver's
// friends, then the request delete. The delete is the commit point; both
// friend updates are unions, so a sequence cut short can be retried.
func (s *FriendService) Accept(ctx context.Context, actor domain.Actor, requestID uuid.UUID) error {
	req, err := s.receivedRequest(ctx, actor, requestID)
	if err != nil {
		return err
	}

	if err := s.addFriend(ctx, req.From, req.To); err != nil {
		return err
	}
	if err := s.addFriend(ctx, req.To, req.From); err != nil {
		return err
	}

	if _, err := s.store.FriendRequests.Delete(ctx, req.ID); err != nil {
		return mapNotFound(err, ErrFriendRequestNotFound)
	}

	s.notifier.Notify([]uuid.UUID{req.From}, EventFriendAccepted, FriendPayload{RequestID: &req.ID, UserID: actor.ID})
	return nil
}

// Decline deletes a request addressed to the actor.
func (s *FriendService) Decline(ctx context.Context, actor domain.Actor, requestID uuid.UUID) error {
	req, err := s.receivedRequest(ctx, actor, requestID)
	if err != nil {
		return err
	}

	if _, err := s.store.FriendRequests.Delete(ctx, req.ID); err != nil {
		return mapNotFound(err, ErrFriendRequestNotFound)
	}
	return nil
}

// Cancel deletes a request the actor sent.
func (s *FriendService) Cancel(ctx context.Context, actor domain.Actor, requestID uuid.UUID) error {
	req, err := s.store.FriendRequests.Get(ctx, requestID)
	if err != nil {
		return mapNotFound(err, ErrFriendRequestNotFound)
	}
	if req.From != actor.ID {
		return ErrNotRequestSender
	}

	if _, err := s.store.FriendRequests.Delete(ctx, req.ID); err != nil {
		return mapNotFound(err, ErrFriendRequestNotFound)
	}
	return nil
}

// Remove ends a friendship on both sides. Removing someone who is not a
// friend succeeds without writing anything.
func (s *FriendService) Remove(ctx context.Context, actor domain.Actor, friendID uuid.UUID) error {
	if guard.IsSelf(friendID, actor) {
		return domain.ErrSelfTarget
	}

	if err := s.removeFriend(ctx, actor.ID, friendID); err != nil {
		return err
	}
	if err := s.removeFriend(ctx, friendID, actor.ID); err != nil {
		return err
	}

	s.notifier.Notify([]uuid.UUID{friendID}, EventFriendRemoved, FriendPayload{UserID: actor.ID})
	return nil
}

// List returns the actor's friends. Friends whose account is gone are skipped.
func (s *FriendService) List(ctx context.Context, actor domain.Actor) ([]domain.Profile, error) {
	me, err := s.store.Users.Get(ctx, actor.ID)
	if err != nil {
		return nil, mapNotFound(err, ErrUserNotFound)
	}
	return loadProfiles(ctx, s.store.Users, me.Friends)
}

// ListPendingIncoming returns requests addressed to the actor, each with the
// sender's profile.
func (s *FriendService) ListPendingIncoming(ctx context.Context, actor domain.Actor) ([]domain.FriendRequestView, error) {
	reqs, err := s.store.FriendRequests.Query(ctx, repository.Eq("to", actor.ID), repository.ListOptions{})
	if err != nil {
		return nil, err
	}
	return s.views(ctx, reqs, func(r domain.FriendRequest) uuid.UUID { return r.From })
}

// ListPendingOutgoing returns requests the actor sent, each with the
// receiver's profile.
func (s *FriendService) ListPendingOutgoing(ctx context.Context, actor domain.Actor) ([]domain.FriendRequestView, error) {
	reqs, err := s.store.FriendRequests.Query(ctx, repository.Eq("from", actor.ID), repository.ListOptions{})
	if err != nil {
		return nil, err
	}
	return s.views(ctx, reqs, func(r domain.FriendRequest) uuid.UUID { return r.To })
}

func (s *FriendService) views(ctx context.Context, reqs []domain.FriendRequest, other func(domain.FriendRequest) uuid.UUID) ([]domain.FriendRequestView, error) {
	ids := make([]uuid.UUID, 0, len(reqs))
	for _, r := range reqs {
		ids = append(ids, other(r))
	}

	profiles, err := profilesByID(ctx, s.store.Users, ids)
	if err != nil {
		return nil, err
	}

	views := make([]domain.FriendRequestView, 0, len(reqs))
	for _, r := range reqs {
		p, ok := profiles[other(r)]
		if !ok {
			continue
		}
		views = append(views, domain.FriendRequestView{RequestID: r.ID, Profile: p})
	}
	return views, nil
}

func (s *FriendService) receivedRequest(ctx context.Context, actor domain.Actor, requestID uuid.UUID) (*domain.FriendRequest, error) {
	req, err := s.store.FriendRequests.Get(ctx, requestID)
	if err != nil {
		return nil, mapNotFound(err, ErrFriendRequestNotFound)
	}
	if req.To != actor.ID {
		return nil, ErrNotRequestReceiver
	}
	return req, nil
}

func (s *FriendService) addFriend(ctx context.Context, userID, friendID uuid.UUID) error {
	_, err := repository.Mutate(ctx, s.store.Users, userID, func(u *domain.User) (bool, error) {
		var changed bool
		u.Friends, changed = domain.AddID(u.Friends, friendID)
		return changed, nil
	})
	if err != nil {
		return fmt.Errorf("adding friend: %w", mapNotFound(err, ErrUserNotFound))
	}
	return nil
}

func (s *FriendService) removeFriend(ctx context.Context, userID, friendID uuid.UUID) error {
	_, err := repository.Mutate(ctx, s.store.Users, userID, func(u *domain.User) (bool, error) {
		var changed bool
		u.Friends, changed = domain.RemoveID(u.Friends, friendID)
		return changed, nil
	})
	if errors.Is(err, domain.ErrNotFound) {
		s.log.Debug("skipping friend removal for missing user", zap.Stringer("user_id", userID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("removing friend: %w", err)
	}
	return nil
}
