package domain

import (
	"time"

	"github.com/google/uuid"
)

// Record is the bookkeeping every stored document carries. Version is bumped
// by the store on each successful write and is used for compare-and-swap.
type Record struct {
	ID        uuid.UUID `json:"id"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created"`
	UpdatedAt time.Time `json:"updated"`
}

// Meta exposes the record header of any type embedding Record.
func (r *Record) Meta() *Record {
	return r
}
