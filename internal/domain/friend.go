package domain

import (
	"github.com/google/uuid"
)

// FriendRequest is a pending invitation from one user to another. Requests
// are deleted once accepted or declined; no terminal state is kept.
type FriendRequest struct {
	Record
	From uuid.UUID `json:"from"`
	To   uuid.UUID `json:"to"`
}

// FriendRequestView is a pending request with the other party expanded.
type FriendRequestView struct {
	RequestID uuid.UUID `json:"request_id"`
	Profile
}
