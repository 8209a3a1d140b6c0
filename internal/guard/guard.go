// Package guard answers ownership questions about records that are already
// loaded. It never touches the store.
package guard

import (
	"github.com/google/uuid"
	"github.com/vedran77/concorde/internal/domain"
)

func IsServerOwner(server *domain.Server, actor domain.Actor) bool {
	return server != nil && server.OwnerID == actor.ID
}

func IsChannelOwner(channel *domain.Channel, actor domain.Actor) bool {
	return channel != nil && channel.OwnerID == actor.ID
}

// IsSelf reports whether the target user is the actor.
func IsSelf(targetID uuid.UUID, actor domain.Actor) bool {
	return targetID == actor.ID
}
