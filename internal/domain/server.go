package domain

import (
	"github.com/google/uuid"
)

// Server is a guild administered by a single owner. The owner is always one
// of the members, and Channels lists the ids of the server's channels in
// creation order.
type Server struct {
	Record
	Name     string      `json:"name"`
	OwnerID  uuid.UUID   `json:"owner"`
	Members  []uuid.UUID `json:"members"`
	Channels []uuid.UUID `json:"channels"`
}

// ServerJoinRequest asks the owner of server To to admit user From.
type ServerJoinRequest struct {
	Record
	From uuid.UUID `json:"from"`
	To   uuid.UUID `json:"to"`
}

// JoinRequestView is a join request with the requester expanded.
type JoinRequestView struct {
	ID        uuid.UUID `json:"id"`
	ServerID  uuid.UUID `json:"server_id"`
	Requester Profile   `json:"requester"`
}

// Page is one page of a paginated listing.
type Page[T any] struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
	Items      []T `json:"items"`
}

func (s *Server) HasMember(userID uuid.UUID) bool {
	return HasID(s.Members, userID)
}
