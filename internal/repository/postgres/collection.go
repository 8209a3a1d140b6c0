package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vedran77/concorde/internal/domain"
	"github.com/vedran77/concorde/internal/repository"
)

const uniqueViolation = "23505"

// DB is the subset of *pgxpool.Pool the collections use.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Collection stores one collection's documents as jsonb rows of the shared
// documents table.
type Collection[T any, PT repository.Document[T]] struct {
	db   DB
	name string
	now  func() time.Time
}

func NewCollection[T any, PT repository.Document[T]](db DB, name string) *Collection[T, PT] {
	return &Collection[T, PT]{
		db:   db,
		name: name,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (c *Collection[T, PT]) Get(ctx context.Context, id uuid.UUID) (*T, error) {
	var data []byte
	err := c.db.QueryRow(ctx,
		`SELECT data FROM documents WHERE collection = $1 AND id = $2`, c.name, id,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
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
	where, args := compileFilter(filter, 2)

	query := `SELECT data FROM documents WHERE collection = $1` + where + ` ORDER BY seq`
	args = append([]any{c.name}, args...)
	if opts.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
		args = append(args, opts.Limit, opts.Offset())
	}

	rows, err := c.db.Query(ctx, query, args...)
	if err != nil {
		return nil, c.storeErr("query", err)
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		var data []byte
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
	where, args := compileFilter(filter, 2)

	var n int
	err := c.db.QueryRow(ctx,
		`SELECT count(*) FROM documents WHERE collection = $1`+where,
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

	query := `
		INSERT INTO documents (collection, id, version, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err = c.db.Exec(ctx, query, c.name, meta.ID, meta.Version, data, now, now)
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

	query := `
		UPDATE documents SET version = $1, data = $2, updated_at = $3
		WHERE collection = $4 AND id = $5 AND version = $6`
	tag, err := c.db.Exec(ctx, query, meta.Version, data, meta.UpdatedAt, c.name, meta.ID, prev.Version)
	if err != nil {
		*meta = prev
		if isUniqueViolation(err) {
			return fmt.Errorf("%s %s: %w", c.name, meta.ID, domain.ErrConflict)
		}
		return c.storeErr("update", err)
	}
	if tag.RowsAffected() == 0 {
		*meta = prev
		return c.missOrConflict(ctx, meta.ID)
	}
	return nil
}

func (c *Collection[T, PT]) Delete(ctx context.Context, id uuid.UUID) (*T, error) {
	var data []byte
	err := c.db.QueryRow(ctx,
		`DELETE FROM documents WHERE collection = $1 AND id = $2 RETURNING data`, c.name, id,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s %s: %w", c.name, id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, c.storeErr("delete", err)
	}
	return c.decode("delete", data)
}

func (c *Collection[T, PT]) missOrConflict(ctx context.Context, id uuid.UUID) error {
	var exists bool
	err := c.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM documents WHERE collection = $1 AND id = $2)`, c.name, id,
	).Scan(&exists)
	if err != nil {
		return c.storeErr("update", err)
	}
	if !exists {
		return fmt.Errorf("%s %s: %w", c.name, id, domain.ErrNotFound)
	}
	return fmt.Errorf("%s %s: %w", c.name, id, domain.ErrConflict)
}

func (c *Collection[T, PT]) decode(op string, data []byte) (*T, error) {
	rec := new(T)
	if err := json.Unmarshal(data, rec); err != nil {
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
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
