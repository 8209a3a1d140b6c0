package domain

import (
	"github.com/google/uuid"
)

type Channel struct {
	Record
	Name     string    `json:"name"`
	OwnerID  uuid.UUID `json:"owner"`
	ServerID uuid.UUID `json:"server"`
}
