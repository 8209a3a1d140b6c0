package service

import (
	"github.com/google/uuid"
)

// Event names pushed to clients after a mutation commits.
const (
	EventFriendRequest      = "friend.request"
	EventFriendAccepted     = "friend.accepted"
	EventFriendRemoved      = "friend.removed"
	EventServerJoinRequest  = "server.join_request"
	EventServerMemberJoined = "server.member_joined"
	EventServerMemberBanned = "server.member_banned"
	EventServerUpdated      = "server.updated"
	EventServerDeleted      = "server.deleted"
	EventChannelCreated     = "channel.created"
	EventChannelUpdated     = "channel.updated"
	EventChannelDeleted     = "channel.deleted"
)

// Notifier broadcasts real-time events to connected clients.
type Notifier interface {
	Notify(recipients []uuid.UUID, event string, payload any)
}

type nopNotifier struct{}

func (nopNotifier) Notify([]uuid.UUID, string, any) {}

// FriendPayload identifies the other side of a friendship change.
type FriendPayload struct {
	RequestID *uuid.UUID `json:"request_id,omitempty"`
	UserID    uuid.UUID  `json:"user_id"`
}

// MemberPayload identifies a membership change on a server.
type MemberPayload struct {
	ServerID uuid.UUID `json:"server_id"`
	UserID   uuid.UUID `json:"user_id"`
}

type ServerDeletedPayload struct {
	ServerID uuid.UUID `json:"server_id"`
}

type ChannelDeletedPayload struct {
	ChannelID uuid.UUID `json:"channel_id"`
	ServerID  uuid.UUID `json:"server_id"`
}
