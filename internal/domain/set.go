package domain

import (
	"slices"

	"github.com/google/uuid"
)

func HasID(ids []uuid.UUID, id uuid.UUID) bool {
	return slices.Contains(ids, id)
}

// AddID appends id unless it is already present. The second result reports
// whether the slice changed.
func AddID(ids []uuid.UUID, id uuid.UUID) ([]uuid.UUID, bool) {
	if HasID(ids, id) {
		return ids, false
	}
	return append(ids, id), true
}

// RemoveID drops every occurrence of id.
func RemoveID(ids []uuid.UUID, id uuid.UUID) ([]uuid.UUID, bool) {
	if !HasID(ids, id) {
		return ids, false
	}
	out := make([]uuid.UUID, 0, len(ids)-1)
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out, true
}
