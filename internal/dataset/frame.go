package dataset

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"mktpulse/internal/table"
	"mktpulse/pkg/contracts/domain"
)

// FieldInfo describes a column of a Frame.
type FieldInfo struct {
	Name    string `json:"name"`
	Kind    Kind   `json:"kind"`
	Derived bool   `json:"derived,omitempty"`
}

// Frame is a read-only, name-addressed view over a loaded table. It exists
// for callers that receive column names at runtime (HTTP queries, the CLI,
// exports); in-process code uses the typed tables directly.
type Frame interface {
	Name() string
	Meta() table.Meta
	Fields() []FieldInfo
	Len() int
	// Value returns the typed cell of a column.
	Value(row int, field string) (any, error)
	// Strings renders one row in Fields order.
	Strings(row int) []string
}

// Load returns the named dataset as a Frame
func (l *Loader) Load(ctx context.Context, name string) (Frame, error) {
	switch name {
	case CampaignPerformance:
		return loadFrame(ctx, l, CampaignSpec)
	case CustomerData:
		return loadFrame(ctx, l, CustomerSpec)
	case ProductSales:
		return loadFrame(ctx, l, ProductSpec)
	case LeadScoringResults:
		return loadFrame(ctx, l, LeadSpec)
	case GeographicData:
		return loadFrame(ctx, l, GeographicSpec)
	}
	if IsAuxiliary(name) {
		t, err := l.Auxiliary(ctx, name)
		if err != nil {
			return nil, err
		}
		return NewAuxFrame(t), nil
	}
	return nil, unknownDataset(name)
}

func loadFrame[T any](ctx context.Context, l *Loader, spec Spec[T]) (Frame, error) {
	t, err := Load(ctx, l, spec)
	if err != nil {
		return nil, err
	}
	return NewFrame(t, spec.Fields), nil
}

// NewFrame wraps a typed table
func NewFrame[T any](t *table.Table[T], fields []Field[T]) Frame {
	index := make(map[string]int, len(fields))
	for i, f := range fields {
		index[f.Name] = i
	}
	return &typedFrame[T]{t: t, fields: fields, index: index}
}

type typedFrame[T any] struct {
	t      *table.Table[T]
	fields []Field[T]
	index  map[string]int
}

func (f *typedFrame[T]) Name() string     { return f.t.Name }
func (f *typedFrame[T]) Meta() table.Meta { return f.t.Meta }
func (f *typedFrame[T]) Len() int         { return f.t.Len() }

func (f *typedFrame[T]) Fields() []FieldInfo {
	out := make([]FieldInfo, len(f.fields))
	for i, fd := range f.fields {
		out[i] = FieldInfo{Name: fd.Name, Kind: fd.Kind, Derived: fd.Derived}
	}
	return out
}

func (f *typedFrame[T]) Value(row int, field string) (any, error) {
	i, ok := f.index[field]
	if !ok {
		return nil, unknownColumn(f.t.Name, field)
	}
	return f.fields[i].Get(f.t.Rows[row]), nil
}

func (f *typedFrame[T]) Strings(row int) []string {
	out := make([]string, len(f.fields))
	for i, fd := range f.fields {
		out[i] = formatValue(fd.Get(f.t.Rows[row]))
	}
	return out
}

// auxFrame exposes a pass-through table. Column kinds are inferred: a
// column whose non-empty cells all parse as numbers is a float column.
type auxFrame struct {
	t     *table.Table[domain.AuxRecord]
	infos []FieldInfo
	index map[string]int
}

// NewAuxFrame wraps a pass-through table
func NewAuxFrame(t *table.Table[domain.AuxRecord]) Frame {
	f := &auxFrame{t: t, index: make(map[string]int, len(t.Columns))}
	for i, name := range t.Columns {
		if name == "" {
			name = fmt.Sprintf("column_%d", i)
		}
		if _, dup := f.index[name]; !dup {
			f.index[name] = i
		}
		f.infos = append(f.infos, FieldInfo{Name: name, Kind: inferKind(t.Rows, i)})
	}
	return f
}

func inferKind(rows []domain.AuxRecord, col int) Kind {
	seen := false
	for _, r := range rows {
		if col >= len(r.Cells) || r.Cells[col] == "" {
			continue
		}
		if _, err := ParseFinite(r.Cells[col]); err != nil {
			return KindString
		}
		seen = true
	}
	if !seen {
		return KindString
	}
	return KindFloat
}

func (f *auxFrame) Name() string        { return f.t.Name }
func (f *auxFrame) Meta() table.Meta    { return f.t.Meta }
func (f *auxFrame) Len() int            { return f.t.Len() }
func (f *auxFrame) Fields() []FieldInfo { return append([]FieldInfo(nil), f.infos...) }
func (f *auxFrame) Strings(row int) []string {
	return append([]string(nil), f.t.Rows[row].Cells...)
}

func (f *auxFrame) Value(row int, field string) (any, error) {
	i, ok := f.index[field]
	if !ok {
		return nil, unknownColumn(f.t.Name, field)
	}
	cell := ""
	if cells := f.t.Rows[row].Cells; i < len(cells) {
		cell = cells[i]
	}
	if f.infos[i].Kind == KindFloat {
		if cell == "" {
			return 0.0, nil
		}
		v, _ := ParseFinite(cell)
		return v, nil
	}
	return cell, nil
}

// Records renders rows [offset, offset+limit) as JSON-ready maps. A limit
// <= 0 means all remaining rows.
func Records(f Frame, offset, limit int) []map[string]any {
	n := f.Len()
	if offset < 0 {
		offset = 0
	}
	if offset > n {
		offset = n
	}
	end := n
	if limit > 0 && offset+limit < n {
		end = offset + limit
	}

	fields := f.Fields()
	out := make([]map[string]any, 0, end-offset)
	for row := offset; row < end; row++ {
		rec := make(map[string]any, len(fields))
		for _, fd := range fields {
			v, _ := f.Value(row, fd.Name)
			if t, ok := v.(time.Time); ok {
				v = t.Format(DateLayout)
			}
			rec[fd.Name] = v
		}
		out = append(out, rec)
	}
	return out
}

// Header returns the field names of f in order
func Header(f Frame) []string {
	fields := f.Fields()
	out := make([]string, len(fields))
	for i, fd := range fields {
		out[i] = fd.Name
	}
	return out
}

func formatValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case time.Time:
		if x.IsZero() {
			return ""
		}
		return x.Format(DateLayout)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}

func toNumber(v any) float64 {
	switch x := v.(type) {
	case int64:
		return float64(x)
	case float64:
		return x
	case bool:
		if x {
			return 1
		}
	}
	return 0
}

func fieldInfo(f Frame, name string) (FieldInfo, error) {
	for _, fd := range f.Fields() {
		if fd.Name == name {
			return fd, nil
		}
	}
	return FieldInfo{}, unknownColumn(f.Name(), name)
}

// rowIndex is the frame as a table of row numbers so the generic helpers in
// package table can run over name-addressed columns.
func rowIndex(f Frame) *table.Table[int] {
	rows := make([]int, f.Len())
	for i := range rows {
		rows[i] = i
	}
	t := table.New(f.Name(), Header(f), rows)
	t.Source = f.Meta().Source
	return t
}

func textColumn(f Frame, name string) (func(int) string, error) {
	if _, err := fieldInfo(f, name); err != nil {
		return nil, err
	}
	return func(row int) string {
		v, _ := f.Value(row, name)
		return formatValue(v)
	}, nil
}

func numberColumn(f Frame, name string) (func(int) float64, error) {
	fd, err := fieldInfo(f, name)
	if err != nil {
		return nil, err
	}
	if !fd.Kind.Numeric() {
		return nil, fmt.Errorf("%w: column %q of %s is %s, not numeric", ErrColumnType, name, f.Name(), fd.Kind)
	}
	return func(row int) float64 {
		v, _ := f.Value(row, name)
		return toNumber(v)
	}, nil
}

func dateColumn(f Frame, name string) (func(int) time.Time, error) {
	fd, err := fieldInfo(f, name)
	if err != nil {
		return nil, err
	}
	if fd.Kind != KindDate {
		return nil, fmt.Errorf("%w: column %q of %s is %s, not a date", ErrColumnType, name, f.Name(), fd.Kind)
	}
	return func(row int) time.Time {
		v, _ := f.Value(row, name)
		t, _ := v.(time.Time)
		return t
	}, nil
}

// Aggregate groups f by the named columns and sums, or averages when mean is
// set, the named value column.
func Aggregate(f Frame, groupBy []string, value string, mean bool) (*table.Table[table.GroupTotal], error) {
	keys := make([]func(int) string, 0, len(groupBy))
	for _, name := range groupBy {
		fn, err := textColumn(f, name)
		if err != nil {
			return nil, err
		}
		keys = append(keys, fn)
	}
	val, err := numberColumn(f, value)
	if err != nil {
		return nil, err
	}

	idx := rowIndex(f)
	var out *table.Table[table.GroupTotal]
	if mean {
		out = table.GroupAndMean(idx, keys, val)
	} else {
		out = table.GroupAndSum(idx, keys, val)
	}
	out.Columns = append(append([]string(nil), groupBy...), value)
	return out, nil
}

// Resample buckets the named value column of f by the named date column.
func Resample(f Frame, date, value string, g table.Granularity) (*table.Table[table.Point], error) {
	d, err := dateColumn(f, date)
	if err != nil {
		return nil, err
	}
	val, err := numberColumn(f, value)
	if err != nil {
		return nil, err
	}
	return table.Resample(rowIndex(f), d, val, g)
}

// Top returns the rows of f with the n highest values of rank, rendered as
// records.
func Top(f Frame, rank string, n int) ([]map[string]any, error) {
	val, err := numberColumn(f, rank)
	if err != nil {
		return nil, err
	}
	top := table.TopN(rowIndex(f), val, n)

	out := make([]map[string]any, 0, top.Len())
	for _, row := range top.Rows {
		out = append(out, Records(f, row, 1)...)
	}
	return out, nil
}
