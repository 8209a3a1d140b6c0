package postgres

import (
	"fmt"
	"strings"

	"github.com/vedran77/concorde/internal/repository"
)

// compileFilter renders f as a WHERE fragment over the jsonb data column,
// numbering placeholders from next. Field names are spliced into the
// query, so f must have been validated.
func compileFilter(f repository.Filter, next int) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	for _, c := range f {
		n := next + len(args)
		switch c.Op {
		case repository.OpEq:
			clauses = append(clauses, fmt.Sprintf("coalesce(data->>'%s', '') = $%d", c.Field, n))
			args = append(args, c.Value)
		case repository.OpNotEq:
			clauses = append(clauses, fmt.Sprintf("coalesce(data->>'%s', '') <> $%d", c.Field, n))
			args = append(args, c.Value)
		case repository.OpLike:
			clauses = append(clauses, fmt.Sprintf(
				"CASE WHEN jsonb_typeof(data->'%[1]s') = 'array' "+
					"THEN EXISTS (SELECT 1 FROM jsonb_array_elements_text(data->'%[1]s') AS e(v) WHERE e.v ILIKE $%[2]d) "+
					"ELSE data->>'%[1]s' ILIKE $%[2]d END", c.Field, n))
			args = append(args, repository.LikePattern(c.Value))
		case repository.OpAnyEq:
			clauses = append(clauses, fmt.Sprintf(
				"CASE WHEN jsonb_typeof(data->'%[1]s') = 'array' "+
					"THEN data->'%[1]s' ? $%[2]d "+
					"ELSE data->>'%[1]s' = $%[2]d END", c.Field, n))
			args = append(args, c.Value)
		}
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " AND " + strings.Join(clauses, " AND "), args
}
