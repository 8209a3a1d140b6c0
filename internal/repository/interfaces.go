package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/vedran77/concorde/internal/domain"
)

// Collection names as they exist in the document store.
const (
	CollectionUsers          = "users"
	CollectionServers        = "servers"
	CollectionChannels       = "channels"
	CollectionFriendRequests = "friend_requests"
	CollectionServerRequests = "server_requests"
)

// ListOptions selects a page of a query. A zero Limit returns every match.
// Page is 1-based.
type ListOptions struct {
	Page  int
	Limit int
}

// Offset returns the number of records to skip for the options.
func (o ListOptions) Offset() int {
	if o.Limit <= 0 || o.Page <= 1 {
		return 0
	}
	return (o.Page - 1) * o.Limit
}

// Collection is the per-collection contract every store adapter implements.
//
// Get and Delete wrap domain.ErrNotFound when the id does not resolve.
// Update is a compare-and-swap on rec.Version and wraps domain.ErrConflict
// when the stored version moved on. On success Create and Update refresh the
// record header of rec in place. Backend failures are *domain.StoreError.
type Collection[T any] interface {
	Get(ctx context.Context, id uuid.UUID) (*T, error)
	Query(ctx context.Context, filter Filter, opts ListOptions) ([]T, error)
	Count(ctx context.Context, filter Filter) (int, error)
	Create(ctx context.Context, rec *T) error
	Update(ctx context.Context, rec *T) error
	Delete(ctx context.Context, id uuid.UUID) (*T, error)
}

// Document is satisfied by pointers to the domain record types.
type Document[T any] interface {
	*T
	Meta() *domain.Record
}

// Store groups the five collections the engines work with.
type Store struct {
	Users          Collection[domain.User]
	Servers        Collection[domain.Server]
	Channels       Collection[domain.Channel]
	FriendRequests Collection[domain.FriendRequest]
	JoinRequests   Collection[domain.ServerJoinRequest]
}
