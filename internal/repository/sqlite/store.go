package sqlite

import (
	"database/sql"

	"github.com/vedran77/concorde/internal/domain"
	"github.com/vedran77/concorde/internal/repository"
)

// NewStore binds every collection to the documents table of db. The schema
// is created by database.MigrateSQLite.
func NewStore(db *sql.DB) *repository.Store {
	return &repository.Store{
		Users:          NewCollection[domain.User](db, repository.CollectionUsers),
		Servers:        NewCollection[domain.Server](db, repository.CollectionServers),
		Channels:       NewCollection[domain.Channel](db, repository.CollectionChannels),
		FriendRequests: NewCollection[domain.FriendRequest](db, repository.CollectionFriendRequests),
		JoinRequests:   NewCollection[domain.ServerJoinRequest](db, repository.CollectionServerRequests),
	}
}
