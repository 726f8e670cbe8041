package dataset

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
)

var tableNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Querier is the subset of *pgxpool.Pool used by PostgresSource.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresSource reads every row of a table. Column names become the header and
// values are rendered as text, NULL as an empty cell.
type PostgresSource struct {
	DB    Querier
	Table string
}

func (s *PostgresSource) Load(ctx context.Context) (*Table, error) {
	if !tableNameRe.MatchString(s.Table) {
		return nil, fmt.Errorf("invalid table name %q", s.Table)
	}
	ident := pgx.Identifier(strings.Split(s.Table, ".")).Sanitize()

	rows, err := s.DB.Query(ctx, "SELECT * FROM "+ident)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s.Table, err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	t := &Table{Header: make([]string, len(fields))}
	for i, f := range fields {
		t.Header[i] = f.Name
	}

	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		rec := make([]string, len(vals))
		for i, v := range vals {
			rec[i] = cellText(v)
		}
		t.Rows = append(t.Rows, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query %s: %w", s.Table, err)
	}
	if len(t.Header) == 0 {
		return nil, ErrEmptyDataset
	}
	return t, nil
}

func cellText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}
