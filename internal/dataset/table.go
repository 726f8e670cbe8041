package dataset

import (
	"context"
	"strings"
)

// Table is a header plus raw string rows, independent of where it was read from.
type Table struct {
	Header []string
	Rows   [][]string
}

// Source loads a Table.
type Source interface {
	Load(ctx context.Context) (*Table, error)
}

// Column returns the index of the header cell equal to name, ignoring case and
// surrounding whitespace, or -1.
func (t *Table) Column(name string) int {
	for i, h := range t.Header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

// Cell returns row[i], or "" and false when the row is shorter than i.
func Cell(row []string, i int) (string, bool) {
	if i < 0 || i >= len(row) {
		return "", false
	}
	return row[i], true
}
