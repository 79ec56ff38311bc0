package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"mktpulse/internal/table"
)

const utf8BOM = "\ufeff"

// decoder turns CSV input into a typed table for one spec.
type decoder[T any] struct {
	spec      Spec[T]
	validate  *validator.Validate
	maxIssues int
}

// decode reads every record from r. Header problems are fatal; row problems
// drop the row and are counted.
func (d decoder[T]) decode(r io.Reader, path string) (*table.Table[T], error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = false

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &SchemaMismatchError{Dataset: d.spec.Name, Path: path, Missing: d.missingOr([]string{"<header>"})}
	}
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", d.spec.Name, err)
	}

	columns := normalizeHeader(header)
	index := make(map[string]int, len(columns))
	for i, name := range columns {
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}

	var missing []string
	for _, name := range d.spec.required() {
		if _, ok := index[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaMismatchError{Dataset: d.spec.Name, Path: path, Missing: missing}
	}

	optional := make(map[string]bool)
	for _, c := range d.spec.Columns {
		if c.Optional {
			optional[c.Name] = true
		}
	}

	t := &table.Table[T]{}
	t.Name = d.spec.Name
	t.Source = path
	t.Columns = columns

	seen := make(map[string]bool)
	skip := func(issue table.RowIssue) {
		t.Skipped++
		if len(t.Issues) < d.maxIssues {
			t.Issues = append(t.Issues, issue)
		}
	}

	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				skip(table.RowIssue{Line: pe.Line, Reason: pe.Err.Error()})
				continue
			}
			return nil, fmt.Errorf("read %s: %w", d.spec.Name, err)
		}

		line, _ := cr.FieldPos(0)
		if isBlank(record) {
			skip(table.RowIssue{Line: line, Reason: "blank row"})
			continue
		}
		if len(record) != len(columns) {
			skip(table.RowIssue{Line: line, Reason: fmt.Sprintf("expected %d fields, got %d", len(columns), len(record))})
			continue
		}

		row := &Row{line: line, record: record, index: index, optional: optional}
		rec := d.spec.Decode(row)
		if row.issue != nil {
			skip(*row.issue)
			continue
		}

		if d.validate != nil {
			if err := d.validate.Struct(rec); err != nil {
				skip(validationIssue(line, err))
				continue
			}
		}

		if d.spec.Key != nil {
			k := d.spec.Key(rec)
			if seen[k] {
				skip(table.RowIssue{Line: line, Reason: fmt.Sprintf("duplicate key %q", k)})
				continue
			}
			seen[k] = true
		}

		if d.spec.Derive != nil {
			rec = d.spec.Derive(rec)
		}
		t.Rows = append(t.Rows, rec)
	}

	return t, nil
}

func (d decoder[T]) missingOr(fallback []string) []string {
	if req := d.spec.required(); len(req) > 0 {
		return req
	}
	return fallback
}

func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		out[i] = strings.TrimSpace(h)
	}
	return out
}

func isBlank(record []string) bool {
	for _, c := range record {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// validationIssue reports the first failed constraint.
func validationIssue(line int, err error) table.RowIssue {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		reason := fmt.Sprintf("failed %s", fe.Tag())
		if fe.Param() != "" {
			reason = fmt.Sprintf("failed %s=%s", fe.Tag(), fe.Param())
		}
		return table.RowIssue{Line: line, Column: fe.Field(), Reason: reason}
	}
	return table.RowIssue{Line: line, Reason: err.Error()}
}

// newValidator reports record fields by their csv column names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("csv"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}
