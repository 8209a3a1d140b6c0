package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/vedran77/concorde/internal/domain"
	"github.com/vedran77/concorde/internal/guard"
	"github.com/vedran77/concorde/internal/repository"
	"go.uber.org/zap"
)

var (
	ErrServerNotFound   = fmt.Errorf("server %w", domain.ErrNotFound)
	ErrNotServerOwner   = fmt.Errorf("%w: only the server owner can perform this action", domain.ErrForbidden)
	ErrNotServerMember  = fmt.Errorf("%w: you are not a member of this server", domain.ErrForbidden)
	ErrOwnerCannotLeave = fmt.Errorf("%w: the owner cannot leave their own server", domain.ErrForbidden)
)

type ServerService struct {
	store    *repository.Store
	notifier Notifier
	log      *zap.Logger
}

func NewServerService(store *repository.Store, log *zap.Logger) *ServerService {
	return &ServerService{
		store:    store,
		notifier: nopNotifier{},
		log:      log.Named("servers"),
	}
}

// SetNotifier sets the real-time notifier (optional dependency).
func (s *ServerService) SetNotifier(n Notifier) {
	s.notifier = n
}

type CreateServerInput struct {
	Name string `json:"name" validate:"required,min=2,max=50"`
}

type UpdateServerInput struct {
	Name *string `json:"name" validate:"omitnil,min=2,max=50"`
}

func (s *ServerService) Create(ctx context.Context, actor domain.Actor, input CreateServerInput) (*domain.Server, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := validateInput(input); err != nil {
		return nil, err
	}

	server := &domain.Server{
		Name:     input.Name,
		OwnerID:  actor.ID,
		Members:  []uuid.UUID{actor.ID},
		Channels: []uuid.UUID{},
	}
	if err := s.store.Servers.Create(ctx, server); err != nil {
		return nil, fmt.Errorf("creating server: %w", err)
	}
	return server, nil
}

// Get returns a server the actor is a member of.
func (s *ServerService) Get(ctx context.Context, actor domain.Actor, serverID uuid.UUID) (*domain.Server, error) {
	server, err := s.store.Servers.Get(ctx, serverID)
	if err != nil {
		return nil, mapNotFound(err, ErrServerNotFound)
	}
	if !server.HasMember(actor.ID) {
		return nil, ErrNotServerMember
	}
	return server, nil
}

func (s *ServerService) Update(ctx context.Context, actor domain.Actor, serverID uuid.UUID, input UpdateServerInput) (*domain.Server, error) {
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		input.Name = &name
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	server, err := repository.Mutate(ctx, s.store.Servers, serverID, func(srv *domain.Server) (bool, error) {
		if !guard.IsServerOwner(srv, actor) {
			return false, ErrNotServerOwner
		}
		if input.Name == nil || *input.Name == srv.Name {
			return false, nil
		}
		srv.Name = *input.Name
		return true, nil
	})
	if err != nil {
		return nil, mapNotFound(err, ErrServerNotFound)
	}

	s.notifier.Notify(server.Members, EventServerUpdated, server)
	return server, nil
}

// Remove deletes a server. The delete is the commit point; the server's
// channels and pending join requests are cleaned up afterwards on a best
// effort basis.
func (s *ServerService) Remove(ctx context.Context, actor domain.Actor, serverID uuid.UUID) error {
	server, err := s.store.Servers.Get(ctx, serverID)
	if err != nil {
		return mapNotFound(err, ErrServerNotFound)
	}
	if !guard.IsServerOwner(server, actor) {
		return ErrNotServerOwner
	}

	if _, err := s.store.Servers.Delete(ctx, serverID); err != nil {
		return mapNotFound(err, ErrServerNotFound)
	}

	s.cascade(ctx, server)
	s.notifier.Notify(server.Members, EventServerDeleted, ServerDeletedPayload{ServerID: serverID})
	return nil
}

func (s *ServerService) cascade(ctx context.Context, server *domain.Server) {
	log := s.log.With(zap.Stringer("server_id", server.ID))

	channels, err := s.store.Channels.Query(ctx, repository.Eq("server", server.ID), repository.ListOptions{})
	if err != nil {
		log.Warn("listing channels of deleted server", zap.Error(err))
	}
	for _, ch := range channels {
		if _, err := s.store.Channels.Delete(ctx, ch.ID); err != nil {
			log.Warn("deleting channel of deleted server", zap.Stringer("channel_id", ch.ID), zap.Error(err))
		}
	}

	reqs, err := s.store.JoinRequests.Query(ctx, repository.Eq("to", server.ID), repository.ListOptions{})
	if err != nil {
		log.Warn("listing join requests of deleted server", zap.Error(err))
	}
	for _, r := range reqs {
		if _, err := s.store.JoinRequests.Delete(ctx, r.ID); err != nil {
			log.Warn("deleting join request of deleted server", zap.Stringer("request_id", r.ID), zap.Error(err))
		}
	}
}

// ListMine returns the servers the actor is a member of.
func (s *ServerService) ListMine(ctx context.Context, actor domain.Actor) ([]domain.Server, error) {
	return s.store.Servers.Query(ctx, repository.Has("members", actor.ID), repository.ListOptions{})
}

// discoverFields are the server fields a discovery filter may name.
var discoverFields = map[string]bool{"name": true, "owner": true, "members": true}

const maxDiscoverQuery = 100

// Discover returns a page of all servers, members or not. A non-empty query
// keeps servers whose name contains it, case-insensitively. filter is the
// textual filter syntax restricted to discoverFields; it is combined with
// the query.
func (s *ServerService) Discover(ctx context.Context, actor domain.Actor, query, filter string, page PageInput) (*domain.Page[domain.Server], error) {
	page = page.withDefaults()
	if err := validateInput(page); err != nil {
		return nil, err
	}

	query = strings.TrimSpace(query)
	if len(query) > maxDiscoverQuery {
		return nil, domain.NewValidationError("q", fmt.Sprintf("must be at most %d characters", maxDiscoverQuery))
	}

	where, err := repository.ParseFilter(filter)
	if err != nil {
		return nil, err
	}
	for _, c := range where {
		if !discoverFields[c.Field] {
			return nil, domain.NewValidationError("filter", fmt.Sprintf("unknown field %q", c.Field))
		}
	}
	if query != "" {
		where = where.And(repository.Like("name", query))
	}

	total, err := s.store.Servers.Count(ctx, where)
	if err != nil {
		return nil, err
	}
	servers, err := s.store.Servers.Query(ctx, where, repository.ListOptions{Page: page.Page, Limit: page.Limit})
	if err != nil {
		return nil, err
	}
	if servers == nil {
		servers = []domain.Server{}
	}

	s.log.Debug("discover servers",
		zap.Stringer("actor", actor.ID),
		zap.Stringer("filter", where),
		zap.Int("total", total))

	return &domain.Page[domain.Server]{
		Page:       page.Page,
		PerPage:    page.Limit,
		TotalItems: total,
		TotalPages: totalPages(total, page.Limit),
		Items:      servers,
	}, nil
}

// ListMembers returns member profiles of a server the actor belongs to.
func (s *ServerService) ListMembers(ctx context.Context, actor domain.Actor, serverID uuid.UUID) ([]domain.Profile, error) {
	server, err := s.Get(ctx, actor, serverID)
	if err != nil {
		return nil, err
	}
	return loadProfiles(ctx, s.store.Users, server.Members)
}

// Leave removes the actor from a server they do not own.
func (s *ServerService) Leave(ctx context.Context, actor domain.Actor, serverID uuid.UUID) error {
	_, err := repository.Mutate(ctx, s.store.Servers, serverID, func(srv *domain.Server) (bool, error) {
		if guard.IsServerOwner(srv, actor) {
			return false, ErrOwnerCannotLeave
		}
		var removed bool
		srv.Members, removed = domain.RemoveID(srv.Members, actor.ID)
		if !removed {
			return false, domain.ErrNotMember
		}
		return true, nil
	})
	return mapNotFound(err, ErrServerNotFound)
}

// Ban removes targetID from the server's members. It does not stop the user
// from asking to join again.
func (s *ServerService) Ban(ctx context.Context, actor domain.Actor, serverID, targetID uuid.UUID) error {
	if guard.IsSelf(targetID, actor) {
		return domain.ErrSelfBan
	}

	server, err := repository.Mutate(ctx, s.store.Servers, serverID, func(srv *domain.Server) (bool, error) {
		if !guard.IsServerOwner(srv, actor) {
			return false, ErrNotServerOwner
		}
		var removed bool
		srv.Members, removed = domain.RemoveID(srv.Members, targetID)
		if !removed {
			return false, domain.ErrNotMember
		}
		return true, nil
	})
	if err != nil {
		return mapNotFound(err, ErrServerNotFound)
	}

	recipients := append([]uuid.UUID{targetID}, server.Members...)
	s.notifier.Notify(recipients, EventServerMemberBanned, MemberPayload{ServerID: serverID, UserID: targetID})
	return nil
}
