package table

import (
	"fmt"
	"time"
)

// RowIssue describes why a source row was dropped.
type RowIssue struct {
	Line   int    `json:"line"`
	Column string `json:"column,omitempty"`
	Reason string `json:"reason"`
}

func (i RowIssue) String() string {
	if i.Column == "" {
		return fmt.Sprintf("line %d: %s", i.Line, i.Reason)
	}
	return fmt.Sprintf("line %d, column %q: %s", i.Line, i.Column, i.Reason)
}

// Meta carries provenance of a table. Aggregation results inherit the name
// and source of their input but not its load statistics.
type Meta struct {
	Name     string     `json:"name"`
	Source   string     `json:"source,omitempty"`
	Columns  []string   `json:"columns"`
	Skipped  int        `json:"skipped"`
	Issues   []RowIssue `json:"issues,omitempty"`
	LoadedAt time.Time  `json:"loaded_at"`
	ModTime  time.Time  `json:"mod_time"`
	Size     int64      `json:"size"`
}

// Table is an ordered sequence of records sharing one static schema.
// Tables handed out by the loader are shared snapshots: callers must treat
// Rows as read-only and use the helpers in this package, which always
// return new tables.
type Table[T any] struct {
	Meta
	Rows []T `json:"rows"`
}

// New builds a table from rows
func New[T any](name string, columns []string, rows []T) *Table[T] {
	return &Table[T]{
		Meta: Meta{Name: name, Columns: columns},
		Rows: rows,
	}
}

// Len returns the number of rows; a nil table has none.
func (t *Table[T]) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// derive returns a table with t's identity, the given columns and rows.
func derive[T, R any](t *Table[T], columns []string, rows []R) *Table[R] {
	out := &Table[R]{Rows: rows}
	if t != nil {
		out.Name = t.Name
		out.Source = t.Source
	}
	out.Columns = columns
	return out
}

// Clone returns a copy of t whose row slice can be modified freely.
func Clone[T any](t *Table[T]) *Table[T] {
	if t == nil {
		return nil
	}
	out := &Table[T]{Meta: t.Meta}
	out.Columns = append([]string(nil), t.Columns...)
	out.Issues = append([]RowIssue(nil), t.Issues...)
	out.Rows = append(make([]T, 0, len(t.Rows)), t.Rows...)
	return out
}
