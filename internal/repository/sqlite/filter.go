package sqlite

import (
	"fmt"
	"strings"

	"github.com/vedran77/concorde/internal/repository"
)

// compileFilter renders f as a WHERE fragment over the data column. Field
// names are spliced into JSON paths, so f must have been validated.
func compileFilter(f repository.Filter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	for _, c := range f {
		path := fmt.Sprintf("'$.%s'", c.Field)
		switch c.Op {
		case repository.OpEq:
			clauses = append(clauses, fmt.Sprintf("coalesce(json_extract(data, %s), '') = ?", path))
			args = append(args, c.Value)
		case repository.OpNotEq:
			clauses = append(clauses, fmt.Sprintf("coalesce(json_extract(data, %s), '') <> ?", path))
			args = append(args, c.Value)
		case repository.OpLike:
			clauses = append(clauses, fmt.Sprintf(
				`CASE WHEN json_type(data, %[1]s) = 'array' `+
					`THEN EXISTS (SELECT 1 FROM json_each(data, %[1]s) WHERE value LIKE ? ESCAPE '\') `+
					`ELSE json_extract(data, %[1]s) LIKE ? ESCAPE '\' END`, path))
			pattern := repository.LikePattern(c.Value)
			args = append(args, pattern, pattern)
		case repository.OpAnyEq:
			clauses = append(clauses, fmt.Sprintf(
				`CASE WHEN json_type(data, %[1]s) = 'array' `+
					`THEN EXISTS (SELECT 1 FROM json_each(data, %[1]s) WHERE value = ?) `+
					`ELSE json_extract(data, %[1]s) = ? END`, path))
			args = append(args, c.Value, c.Value)
		}
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " AND " + strings.Join(clauses, " AND "), args
}
