package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vedran77/concorde/internal/repository"
)

func TestCompileFilter(t *testing.T) {
	tests := []struct {
		name     string
		filter   repository.Filter
		next     int
		wantSQL  string
		wantArgs []any
	}{
		{
			name:   "empty",
			filter: nil,
			next:   2,
		},
		{
			name:     "eq and not eq",
			filter:   repository.Eq("from", "a").And(repository.NotEq("to", "b")),
			next:     2,
			wantSQL:  ` AND coalesce(data->>'from', '') = $2 AND coalesce(data->>'to', '') <> $3`,
			wantArgs: []any{"a", "b"},
		},
		{
			name:   "has",
			filter: repository.Has("members", "u1"),
			next:   2,
			wantSQL: ` AND CASE WHEN jsonb_typeof(data->'members') = 'array' ` +
				`THEN data->'members' ? $2 ELSE data->>'members' = $2 END`,
			wantArgs: []any{"u1"},
		},
		{
			name:   "like escapes wildcards",
			filter: repository.Like("name", "50%"),
			next:   4,
			wantSQL: ` AND CASE WHEN jsonb_typeof(data->'name') = 'array' ` +
				`THEN EXISTS (SELECT 1 FROM jsonb_array_elements_text(data->'name') AS e(v) WHERE e.v ILIKE $4) ` +
				`ELSE data->>'name' ILIKE $4 END`,
			wantArgs: []any{`%50\%%`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := compileFilter(tt.filter, tt.next)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}
