package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"mktpulse/internal/table"
)

// DateLayout is the only accepted date format in source files.
const DateLayout = "2006-01-02"

// Kind is the semantic type of a column.
type Kind string

const (
	KindString Kind = "string"
	KindInt    Kind = "integer"
	KindFloat  Kind = "float"
	KindDate   Kind = "date"
	KindBool   Kind = "boolean"
)

// Numeric reports whether values of the kind can be summed.
func (k Kind) Numeric() bool {
	return k == KindInt || k == KindFloat || k == KindBool
}

// Column declares one source column.
type Column struct {
	Name     string
	Kind     Kind
	Optional bool
}

// Field exposes one column of a typed record by name.
type Field[T any] struct {
	Name    string
	Kind    Kind
	Derived bool
	Get     func(T) any
}

// Spec binds a logical dataset to its file and its record type.
type Spec[T any] struct {
	Name    string
	File    string
	Columns []Column
	// Key returns the unique key of a record; nil when the dataset has none.
	Key    func(T) string
	Decode func(*Row) T
	// Derive fills computed fields once after decoding; may be nil.
	Derive func(T) T
	Fields []Field[T]
}

// required returns the names of the mandatory columns
func (s Spec[T]) required() []string {
	var names []string
	for _, c := range s.Columns {
		if !c.Optional {
			names = append(names, c.Name)
		}
	}
	return names
}

// Row is the decoding cursor handed to Spec.Decode. Accessors for a
// required column record the first coercion failure; optional columns that
// are absent or unparseable decode to the zero value.
type Row struct {
	line     int
	record   []string
	index    map[string]int
	optional map[string]bool
	issue    *table.RowIssue
}

func (r *Row) raw(col string) (string, bool) {
	i, ok := r.index[col]
	if !ok || i >= len(r.record) {
		return "", false
	}
	return strings.TrimSpace(r.record[i]), true
}

func (r *Row) fail(col, reason string) {
	if r.issue == nil {
		r.issue = &table.RowIssue{Line: r.line, Column: col, Reason: reason}
	}
}

// parse runs conv on the cell of col and applies the optional-column rules.
func parse[V any](r *Row, col string, conv func(string) (V, error), what string) V {
	var zero V
	s, ok := r.raw(col)
	if !ok {
		if !r.optional[col] {
			r.fail(col, "missing value")
		}
		return zero
	}
	if s == "" && r.optional[col] {
		return zero
	}
	v, err := conv(s)
	if err != nil {
		if !r.optional[col] {
			r.fail(col, fmt.Sprintf("not %s: %q", what, s))
		}
		return zero
	}
	return v
}

// String returns the trimmed cell.
func (r *Row) String(col string) string {
	s, ok := r.raw(col)
	if !ok && !r.optional[col] {
		r.fail(col, "missing value")
	}
	return s
}

// Int parses an integer. Values written as floats with no fraction such as
// "12.0" are accepted.
func (r *Row) Int(col string) int64 {
	return parse(r, col, parseInt, "an integer")
}

// Float parses a finite float.
func (r *Row) Float(col string) float64 {
	return parse(r, col, ParseFinite, "a number")
}

// Date parses a YYYY-MM-DD date in UTC.
func (r *Row) Date(col string) time.Time {
	return parse(r, col, func(s string) (time.Time, error) {
		return time.Parse(DateLayout, s)
	}, "a date")
}

// Bool parses true/false, 1/0 and yes/no.
func (r *Row) Bool(col string) bool {
	return parse(r, col, parseBool, "a boolean")
}

// Cells returns a copy of the raw cells.
func (r *Row) Cells() []string {
	out := make([]string, len(r.record))
	for i, c := range r.record {
		out[i] = strings.TrimSpace(c)
	}
	return out
}

// ParseFinite parses a float and rejects NaN and the infinities, which
// strconv accepts but JSON cannot carry.
func ParseFinite(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite number %q", s)
	}
	return v, nil
}

func parseInt(s string) (int64, error) {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := ParseFinite(s)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0, fmt.Errorf("invalid integer %q", s)
	}
	return int64(f), nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "y":
		return true, nil
	case "no", "n":
		return false, nil
	}
	if v, err := strconv.ParseBool(s); err == nil {
		return v, nil
	}
	// "1.0" and "0.0" come out of float-typed exports
	switch s {
	case "1.0":
		return true, nil
	case "0.0":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}
