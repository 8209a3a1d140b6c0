package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/vedran77/concorde/internal/domain"
	"github.com/vedran77/concorde/internal/guard"
	"github.com/vedran77/concorde/internal/repository"
	"go.uber.org/zap"
)

var (
	ErrChannelNotFound = fmt.Errorf("channel %w", domain.ErrNotFound)
	ErrNotChannelOwner = fmt.Errorf("%w: only the channel owner can perform this action", domain.ErrForbidden)
)

// ChannelService creates, renames and deletes channels and keeps each
// server's channel index in step with the channels collection.
//
// Creating a channel needs server ownership. Updating or deleting one needs
// ownership of the channel itself, so a server owner cannot touch a channel
// somebody else owns.
type ChannelService struct {
	store    *repository.Store
	notifier Notifier
	log      *zap.Logger
}

func NewChannelService(store *repository.Store, log *zap.Logger) *ChannelService {
	return &ChannelService{
		store:    store,
		notifier: nopNotifier{},
		log:      log.Named("channels"),
	}
}

// SetNotifier sets the real-time notifier (optional dependency).
func (s *ChannelService) SetNotifier(n Notifier) {
	s.notifier = n
}

type CreateChannelInput struct {
	Name string `json:"name" validate:"required,min=2,max=50"`
}

type UpdateChannelInput struct {
	Name *string `json:"name" validate:"omitnil,min=2,max=50"`
}

// Create reserves the new id in the server's channel index, then creates
// the channel. Creating the channel is the commit point; if it fails the
// reservation is rolled back.
func (s *ChannelService) Create(ctx context.Context, actor domain.Actor, serverID uuid.UUID, input CreateChannelInput) (*domain.Channel, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := validateInput(input); err != nil {
		return nil, err
	}

	id := uuid.New()
	server, err := repository.Mutate(ctx, s.store.Servers, serverID, func(srv *domain.Server) (bool, error) {
		if !guard.IsServerOwner(srv, actor) {
			return false, ErrNotServerOwner
		}
		var changed bool
		srv.Channels, changed = domain.AddID(srv.Channels, id)
		return changed, nil
	})
	if err != nil {
		return nil, mapNotFound(err, ErrServerNotFound)
	}

	ch := &domain.Channel{
		Record:   domain.Record{ID: id},
		Name:     input.Name,
		OwnerID:  actor.ID,
		ServerID: serverID,
	}
	if err := s.store.Channels.Create(ctx, ch); err != nil {
		s.unlink(ctx, serverID, id)
		return nil, fmt.Errorf("creating channel: %w", err)
	}

	s.notifier.Notify(server.Members, EventChannelCreated, ch)
	return ch, nil
}

func (s *ChannelService) Update(ctx context.Context, actor domain.Actor, channelID uuid.UUID, input UpdateChannelInput) (*domain.Channel, error) {
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		input.Name = &name
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	ch, err := repository.Mutate(ctx, s.store.Channels, channelID, func(c *domain.Channel) (bool, error) {
		if !guard.IsChannelOwner(c, actor) {
			return false, ErrNotChannelOwner
		}
		if input.Name == nil || *input.Name == c.Name {
			return false, nil
		}
		c.Name = *input.Name
		return true, nil
	})
	if err != nil {
		return nil, mapNotFound(err, ErrChannelNotFound)
	}

	s.notifyMembers(ctx, ch.ServerID, EventChannelUpdated, ch)
	return ch, nil
}

// Delete removes the channel, which is the commit point, then drops its id
// from the server's channel index.
func (s *ChannelService) Delete(ctx context.Context, actor domain.Actor, channelID uuid.UUID) error {
	ch, err := s.store.Channels.Get(ctx, channelID)
	if err != nil {
		return mapNotFound(err, ErrChannelNotFound)
	}
	if !guard.IsChannelOwner(ch, actor) {
		return ErrNotChannelOwner
	}

	if _, err := s.store.Channels.Delete(ctx, channelID); err != nil {
		return mapNotFound(err, ErrChannelNotFound)
	}
	s.unlink(ctx, ch.ServerID, channelID)

	s.notifyMembers(ctx, ch.ServerID, EventChannelDeleted, ChannelDeletedPayload{ChannelID: channelID, ServerID: ch.ServerID})
	return nil
}

// List returns every channel of a server in creation order.
func (s *ChannelService) List(ctx context.Context, serverID uuid.UUID) ([]domain.Channel, error) {
	return s.store.Channels.Query(ctx, repository.Eq("server", serverID), repository.ListOptions{})
}

// unlink drops channelID from the server's channel index. It runs after
// the commit point or as a rollback, so failures are logged, not returned.
func (s *ChannelService) unlink(ctx context.Context, serverID, channelID uuid.UUID) {
	_, err := repository.Mutate(ctx, s.store.Servers, serverID, func(srv *domain.Server) (bool, error) {
		var changed bool
		srv.Channels, changed = domain.RemoveID(srv.Channels, channelID)
		return changed, nil
	})
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		s.log.Error("removing channel from server index",
			zap.Stringer("server_id", serverID),
			zap.Stringer("channel_id", channelID),
			zap.Error(err),
		)
	}
}

func (s *ChannelService) notifyMembers(ctx context.Context, serverID uuid.UUID, event string, payload any) {
	server, err := s.store.Servers.Get(ctx, serverID)
	if err != nil {
		s.log.Warn("loading server for notification", zap.Stringer("server_id", serverID), zap.Error(err))
		return
	}
	s.notifier.Notify(server.Members, event, payload)
}
