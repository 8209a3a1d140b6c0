package domain

import "github.com/google/uuid"

// Actor is the authenticated user an operation is performed on behalf of.
// It is resolved once at the boundary and passed by value from there on.
type Actor struct {
	ID uuid.UUID
}

func NewActor(id uuid.UUID) Actor {
	return Actor{ID: id}
}
