package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/vedran77/concorde/internal/domain"
	"github.com/vedran77/concorde/internal/guard"
	"github.com/vedran77/concorde/internal/repository"
	"go.uber.org/zap"
)

var ErrJoinRequestNotFound = fmt.Errorf("join request %w", domain.ErrNotFound)

// JoinRequestService handles requests to join a server.
//
// Requests are not deduplicated: asking twice, or asking while already a
// member, stores another request. Accepting any of them is a union on the
// member list, so the outcome is the same.
type JoinRequestService struct {
	store    *repository.Store
	notifier Notifier
	log      *zap.Logger
}

func NewJoinRequestService(store *repository.Store, log *zap.Logger) *JoinRequestService {
	return &JoinRequestService{
		store:    store,
		notifier: nopNotifier{},
		log:      log.Named("join_requests"),
	}
}

// SetNotifier sets the real-time notifier (optional dependency).
func (s *JoinRequestService) SetNotifier(n Notifier) {
	s.notifier = n
}

func (s *JoinRequestService) RequestToJoin(ctx context.Context, actor domain.Actor, serverID uuid.UUID) (*domain.ServerJoinRequest, error) {
	server, err := s.store.Servers.Get(ctx, serverID)
	if err != nil {
		return nil, mapNotFound(err, ErrServerNotFound)
	}

	req := &domain.ServerJoinRequest{From: actor.ID, To: serverID}
	if err := s.store.JoinRequests.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("creating join request: %w", err)
	}

	s.notifier.Notify([]uuid.UUID{server.OwnerID}, EventServerJoinRequest, req)
	return req, nil
}

// Accept adds the requester to the server and deletes the request, which
// is the commit point.
func (s *JoinRequestService) Accept(ctx context.Context, actor domain.Actor, requestID uuid.UUID) error {
	req, err := s.ownedRequest(ctx, actor, requestID)
	if err != nil {
		return err
	}

	server, err := repository.Mutate(ctx, s.store.Servers, req.To, func(srv *domain.Server) (bool, error) {
		if !guard.IsServerOwner(srv, actor) {
			return false, ErrNotServerOwner
		}
		var changed bool
		srv.Members, changed = domain.AddID(srv.Members, req.From)
		return changed, nil
	})
	if err != nil {
		return mapNotFound(err, ErrServerNotFound)
	}

	if _, err := s.store.JoinRequests.Delete(ctx, req.ID); err != nil {
		return mapNotFound(err, ErrJoinRequestNotFound)
	}

	s.notifier.Notify(server.Members, EventServerMemberJoined, MemberPayload{ServerID: server.ID, UserID: req.From})
	return nil
}

// Decline deletes a request. Only the owner of the target server may do so.
func (s *JoinRequestService) Decline(ctx context.Context, actor domain.Actor, requestID uuid.UUID) error {
	req, err := s.ownedRequest(ctx, actor, requestID)
	if err != nil {
		return err
	}

	if _, err := s.store.JoinRequests.Delete(ctx, req.ID); err != nil {
		return mapNotFound(err, ErrJoinRequestNotFound)
	}
	return nil
}

// List returns a page of pending requests for a server the actor owns,
// each with the requester's profile. Requests from deleted users are left
// out of the page items but still counted.
func (s *JoinRequestService) List(ctx context.Context, actor domain.Actor, serverID uuid.UUID, page PageInput) (*domain.Page[domain.JoinRequestView], error) {
	page = page.withDefaults()
	if err := validateInput(page); err != nil {
		return nil, err
	}

	server, err := s.store.Servers.Get(ctx, serverID)
	if err != nil {
		return nil, mapNotFound(err, ErrServerNotFound)
	}
	if !guard.IsServerOwner(server, actor) {
		return nil, ErrNotServerOwner
	}

	filter := repository.Eq("to", serverID)
	total, err := s.store.JoinRequests.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	reqs, err := s.store.JoinRequests.Query(ctx, filter, repository.ListOptions{Page: page.Page, Limit: page.Limit})
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(reqs))
	for _, r := range reqs {
		ids = append(ids, r.From)
	}
	profiles, err := profilesByID(ctx, s.store.Users, ids)
	if err != nil {
		return nil, err
	}

	items := make([]domain.JoinRequestView, 0, len(reqs))
	for _, r := range reqs {
		p, ok := profiles[r.From]
		if !ok {
			continue
		}
		items = append(items, domain.JoinRequestView{ID: r.ID, ServerID: r.To, Requester: p})
	}

	return &domain.Page[domain.JoinRequestView]{
		Page:       page.Page,
		PerPage:    page.Limit,
		TotalItems: total,
		TotalPages: totalPages(total, page.Limit),
		Items:      items,
	}, nil
}

// ListMine returns the requests the actor has sent.
func (s *JoinRequestService) ListMine(ctx context.Context, actor domain.Actor) ([]domain.ServerJoinRequest, error) {
	return s.store.JoinRequests.Query(ctx, repository.Eq("from", actor.ID), repository.ListOptions{})
}

func (s *JoinRequestService) ownedRequest(ctx context.Context, actor domain.Actor, requestID uuid.UUID) (*domain.ServerJoinRequest, error) {
	req, err := s.store.JoinRequests.Get(ctx, requestID)
	if err != nil {
		return nil, mapNotFound(err, ErrJoinRequestNotFound)
	}

	server, err := s.store.Servers.Get(ctx, req.To)
	if err != nil {
		return nil, mapNotFound(err, ErrServerNotFound)
	}
	if !guard.IsServerOwner(server, actor) {
		return nil, ErrNotServerOwner
	}
	return req, nil
}
