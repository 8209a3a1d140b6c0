package memory

import (
	"github.com/vedran77/concorde/internal/domain"
	"github.com/vedran77/concorde/internal/repository"
)

var (
	_ repository.Collection[domain.User]              = (*Collection[domain.User, *domain.User])(nil)
	_ repository.Collection[domain.Server]            = (*Collection[domain.Server, *domain.Server])(nil)
	_ repository.Collection[domain.Channel]           = (*Collection[domain.Channel, *domain.Channel])(nil)
	_ repository.Collection[domain.FriendRequest]     = (*Collection[domain.FriendRequest, *domain.FriendRequest])(nil)
	_ repository.Collection[domain.ServerJoinRequest] = (*Collection[domain.ServerJoinRequest, *domain.ServerJoinRequest])(nil)
)

// NewStore returns an empty in-process store.
func NewStore() *repository.Store {
	return &repository.Store{
		Users:          NewCollection[domain.User](repository.CollectionUsers, "username", "email"),
		Servers:        NewCollection[domain.Server](repository.CollectionServers),
		Channels:       NewCollection[domain.Channel](repository.CollectionChannels),
		FriendRequests: NewCollection[domain.FriendRequest](repository.CollectionFriendRequests),
		JoinRequests:   NewCollection[domain.ServerJoinRequest](repository.CollectionServerRequests),
	}
}
