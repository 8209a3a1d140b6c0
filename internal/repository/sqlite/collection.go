package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/concorde/internal/domain"
	"github.com/vedran77/concorde/internal/repository"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Collection stores one collection's documents as JSON text rows of the
// shared documents table.
type Collection[T any, PT repository.Document[T]] struct {
	db   *sql.DB
	name string
	now  func() time.Time
}

func NewCollection[T any, PT repository.Document[T]](db *sql.DB, name string) *Collection[T, PT] {
	return &Collection[T, PT]{
		db:   db,
		name: name,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (c *Collection[T, PT]) Get(ctx context.Context, id uuid.UUID) (*T, error) {
	var data string
	err := c.db.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = ? AND id = ?`, c.name, id.String(),
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s %s: %w", c.name, id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, c.storeErr("get", err)
	}
	return c.decode("get", data)
}

func (c *Collection[T, PT]) Query(ctx context.Context, filter repository.Filter, opts repository.ListOptions) ([]T, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	where, args := compileFilter(filter)

	query := `SELECT data FROM documents WHERE collection = ?` + where + ` ORDER BY seq`
	args = append([]any{c.name}, args...)
	if opts.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, opts.Limit, opts.Offset())
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, c.storeErr("query", err)
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, c.storeErr("query", err)
		}
		rec, err := c.decode("query", data)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, c.storeErr("query", err)
	}
	return out, nil
}

func (c *Collection[T, PT]) Count(ctx context.Context, filter repository.Filter) (int, error) {
	if err := filter.Validate(); err != nil {
		return 0, err
	}
	where, args := compileFilter(filter)

	var n int
	err := c.db.QueryRowContext(ctx,
		`SELECT count(*) FROM documents WHERE collection = ?`+where,
		append([]any{c.name}, args...)...,
	).Scan(&n)
	if err != nil {
		return 0, c.storeErr("count", err)
	}
	return n, nil
}

func (c *Collection[T, PT]) Create(ctx context.Context, rec *T) error {
	meta := PT(rec).Meta()
	prev := *meta
	if meta.ID == uuid.Nil {
		meta.ID = uuid.New()
	}
	now := c.now()
	meta.Version = 1
	meta.CreatedAt = now
	meta.UpdatedAt = now

	data, err := json.Marshal(rec)
	if err != nil {
		*meta = prev
		return c.storeErr("create", err)
	}

	_, err = c.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, version, data, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		c.name, meta.ID.String(), meta.Version, string(data),
		now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano),
	)
	if err != nil {
		*meta = prev
		if isUniqueViolation(err) {
			return fmt.Errorf("%s: %w", c.name, domain.ErrConflict)
		}
		return c.storeErr("create", err)
	}
	return nil
}

func (c *Collection[T, PT]) Update(ctx context.Context, rec *T) error {
	meta := PT(rec).Meta()
	prev := *meta
	meta.Version++
	meta.UpdatedAt = c.now()

	data, err := json.Marshal(rec)
	if err != nil {
		*meta = prev
		return c.storeErr("update", err)
	}

	res, err := c.db.ExecContext(ctx,
		`UPDATE documents SET version = ?, data = ?, updated_at = ?
		 WHERE collection = ? AND id = ? AND version = ?`,
		meta.Version, string(data), meta.UpdatedAt.Format(time.RFC3339Nano),
		c.name, meta.ID.String(), prev.Version,
	)
	if err != nil {
		*meta = prev
		if isUniqueViolation(err) {
			return fmt.Errorf("%s %s: %w", c.name, meta.ID, domain.ErrConflict)
		}
		return c.storeErr("update", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		*meta = prev
		return c.storeErr("update", err)
	}
	if n == 0 {
		*meta = prev
		return c.missOrConflict(ctx, meta.ID)
	}
	return nil
}

func (c *Collection[T, PT]) Delete(ctx context.Context, id uuid.UUID) (*T, error) {
	var data string
	err := c.db.QueryRowContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ? RETURNING data`, c.name, id.String(),
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s %s: %w", c.name, id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, c.storeErr("delete", err)
	}
	return c.decode("delete", data)
}

func (c *Collection[T, PT]) missOrConflict(ctx context.Context, id uuid.UUID) error {
	var exists int
	err := c.db.QueryRowContext(ctx,
		`SELECT 1 FROM documents WHERE collection = ? AND id = ?`, c.name, id.String(),
	).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", c.name, id, domain.ErrNotFound)
	}
	if err != nil {
		return c.storeErr("update", err)
	}
	return fmt.Errorf("%s %s: %w", c.name, id, domain.ErrConflict)
}

func (c *Collection[T, PT]) decode(op, data string) (*T, error) {
	rec := new(T)
	if err := json.Unmarshal([]byte(data), rec); err != nil {
		return nil, c.storeErr(op, err)
	}
	return rec, nil
}

func (c *Collection[T, PT]) storeErr(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &domain.StoreError{Op: op, Collection: c.name, Err: err}
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return false
}
