package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/concorde/internal/domain"
	"github.com/vedran77/concorde/internal/repository"
)

type entry struct {
	seq     uint64
	version int64
	data    []byte
}

// Collection keeps documents as encoded JSON so callers never share memory
// with the stored copy.
type Collection[T any, PT repository.Document[T]] struct {
	name   string
	unique []string

	mu   sync.RWMutex
	docs map[uuid.UUID]entry
	seq  uint64
	now  func() time.Time
}

// NewCollection returns an empty collection. Writes that would give two
// documents the same value for one of the unique fields fail with
// domain.ErrConflict.
func NewCollection[T any, PT repository.Document[T]](name string, unique ...string) *Collection[T, PT] {
	return &Collection[T, PT]{
		name:   name,
		unique: unique,
		docs:   make(map[uuid.UUID]entry),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (c *Collection[T, PT]) Get(ctx context.Context, id uuid.UUID) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	e, ok := c.docs[id]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", c.name, id, domain.ErrNotFound)
	}
	return c.decode("get", e)
}

func (c *Collection[T, PT]) Query(ctx context.Context, filter repository.Filter, opts repository.ListOptions) ([]T, error) {
	matched, err := c.match(ctx, filter)
	if err != nil {
		return nil, err
	}

	offset := opts.Offset()
	if offset >= len(matched) {
		return []T{}, nil
	}
	matched = matched[offset:]
	if opts.Limit > 0 && len(matched) > opts.Limit {
		matched = matched[:opts.Limit]
	}

	out := make([]T, 0, len(matched))
	for _, e := range matched {
		rec, err := c.decode("query", e)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, nil
}

func (c *Collection[T, PT]) Count(ctx context.Context, filter repository.Filter) (int, error) {
	matched, err := c.match(ctx, filter)
	if err != nil {
		return 0, err
	}
	return len(matched), nil
}

func (c *Collection[T, PT]) Create(ctx context.Context, rec *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	meta := PT(rec).Meta()
	if meta.ID == uuid.Nil {
		meta.ID = uuid.New()
	}
	if _, exists := c.docs[meta.ID]; exists {
		return fmt.Errorf("%s %s already exists: %w", c.name, meta.ID, domain.ErrConflict)
	}

	now := c.now()
	meta.Version = 1
	meta.CreatedAt = now
	meta.UpdatedAt = now

	data, err := json.Marshal(rec)
	if err != nil {
		return &domain.StoreError{Op: "create", Collection: c.name, Err: err}
	}
	if err := c.checkUnique("create", meta.ID, rec); err != nil {
		return err
	}
	c.seq++
	c.docs[meta.ID] = entry{seq: c.seq, version: meta.Version, data: data}
	return nil
}

func (c *Collection[T, PT]) Update(ctx context.Context, rec *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	meta := PT(rec).Meta()
	e, ok := c.docs[meta.ID]
	if !ok {
		return fmt.Errorf("%s %s: %w", c.name, meta.ID, domain.ErrNotFound)
	}
	if e.version != meta.Version {
		return fmt.Errorf("%s %s at version %d: %w", c.name, meta.ID, meta.Version, domain.ErrConflict)
	}

	prev := *meta
	meta.Version++
	meta.UpdatedAt = c.now()

	data, err := json.Marshal(rec)
	if err != nil {
		*meta = prev
		return &domain.StoreError{Op: "update", Collection: c.name, Err: err}
	}
	if err := c.checkUnique("update", meta.ID, rec); err != nil {
		*meta = prev
		return err
	}
	c.docs[meta.ID] = entry{seq: e.seq, version: meta.Version, data: data}
	return nil
}

func (c *Collection[T, PT]) Delete(ctx context.Context, id uuid.UUID) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	e, ok := c.docs[id]
	if ok {
		delete(c.docs, id)
	}
	c.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%s %s: %w", c.name, id, domain.ErrNotFound)
	}
	return c.decode("delete", e)
}

// Len reports how many documents are stored.
func (c *Collection[T, PT]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.docs)
}

// match returns matching entries in insertion order.
func (c *Collection[T, PT]) match(ctx context.Context, filter repository.Filter) ([]entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	snapshot := make([]entry, 0, len(c.docs))
	for _, e := range c.docs {
		snapshot = append(snapshot, e)
	}
	c.mu.RUnlock()

	sort.Slice(snapshot, func(i, j int) bool { return snapshot[i].seq < snapshot[j].seq })

	matched := snapshot[:0]
	for _, e := range snapshot {
		var doc map[string]any
		if err := json.Unmarshal(e.data, &doc); err != nil {
			return nil, &domain.StoreError{Op: "query", Collection: c.name, Err: err}
		}
		if filter.Match(doc) {
			matched = append(matched, e)
		}
	}
	return matched, nil
}

// checkUnique reports a conflict when another document already holds one of
// the unique field values of rec. Callers hold c.mu.
func (c *Collection[T, PT]) checkUnique(op string, id uuid.UUID, rec *T) error {
	if len(c.unique) == 0 {
		return nil
	}

	doc, err := repository.DocumentFields(rec)
	if err != nil {
		return &domain.StoreError{Op: op, Collection: c.name, Err: err}
	}

	for otherID, e := range c.docs {
		if otherID == id {
			continue
		}
		var other map[string]any
		if err := json.Unmarshal(e.data, &other); err != nil {
			return &domain.StoreError{Op: op, Collection: c.name, Err: err}
		}
		for _, field := range c.unique {
			v, ok := doc[field].(string)
			if !ok {
				continue
			}
			if taken, ok := other[field].(string); ok && taken == v {
				return fmt.Errorf("%s %s: %s %q taken: %w", c.name, id, field, v, domain.ErrConflict)
			}
		}
	}
	return nil
}

func (c *Collection[T, PT]) decode(op string, e entry) (*T, error) {
	rec := new(T)
	if err := json.Unmarshal(e.data, rec); err != nil {
		return nil, &domain.StoreError{Op: op, Collection: c.name, Err: err}
	}
	return rec, nil
}
