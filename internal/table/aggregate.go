package table

import (
	"sort"
	"strings"
)

// GroupTotal is one group produced by GroupAndSum or GroupAndMean.
type GroupTotal struct {
	Keys  []string `json:"keys"`
	Value float64  `json:"value"`
	Count int      `json:"count"`
}

// Key joins the group keys with "|".
func (g GroupTotal) Key() string {
	return strings.Join(g.Keys, "|")
}

// GroupAndSum groups rows by the given key functions and sums value per
// group. Groups are ordered by their keys.
func GroupAndSum[T any](t *Table[T], groupBy []func(T) string, value func(T) float64) *Table[GroupTotal] {
	return group(t, groupBy, value, false)
}

// GroupAndMean is GroupAndSum with the arithmetic mean per group.
func GroupAndMean[T any](t *Table[T], groupBy []func(T) string, value func(T) float64) *Table[GroupTotal] {
	return group(t, groupBy, value, true)
}

func group[T any](t *Table[T], groupBy []func(T) string, value func(T) float64, mean bool) *Table[GroupTotal] {
	index := make(map[string]int)
	var out []GroupTotal

	for _, row := range rowsOf(t) {
		keys := make([]string, len(groupBy))
		for i, fn := range groupBy {
			keys[i] = fn(row)
		}
		k := strings.Join(keys, "\x00")

		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, GroupTotal{Keys: keys})
		}
		out[i].Value += value(row)
		out[i].Count++
	}

	if mean {
		for i := range out {
			out[i].Value /= float64(out[i].Count)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return lessKeys(out[i].Keys, out[j].Keys)
	})

	return derive(t, []string{"keys", "value", "count"}, out)
}

func lessKeys(a, b []string) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

// TopN returns the n rows with the highest rank in descending order. Ties
// keep their input order. n <= 0 yields an empty table.
func TopN[T any](t *Table[T], rank func(T) float64, n int) *Table[T] {
	rows := append([]T(nil), rowsOf(t)...)
	sort.SliceStable(rows, func(i, j int) bool {
		return rank(rows[i]) > rank(rows[j])
	})

	if n < 0 {
		n = 0
	}
	if n < len(rows) {
		rows = rows[:n]
	}

	return derive(t, columnsOf(t), rows)
}

// SortBy returns the rows ordered by less, stable for equal rows.
func SortBy[T any](t *Table[T], less func(a, b T) bool) *Table[T] {
	rows := append([]T(nil), rowsOf(t)...)
	sort.SliceStable(rows, func(i, j int) bool {
		return less(rows[i], rows[j])
	})
	return derive(t, columnsOf(t), rows)
}

// Filter keeps the rows for which keep returns true.
func Filter[T any](t *Table[T], keep func(T) bool) *Table[T] {
	var rows []T
	for _, row := range rowsOf(t) {
		if keep(row) {
			rows = append(rows, row)
		}
	}
	return derive(t, columnsOf(t), rows)
}

// Map converts every row.
func Map[T, R any](t *Table[T], columns []string, fn func(T) R) *Table[R] {
	rows := make([]R, 0, t.Len())
	for _, row := range rowsOf(t) {
		rows = append(rows, fn(row))
	}
	return derive(t, columns, rows)
}

// Sum adds up value over all rows.
func Sum[T any](t *Table[T], value func(T) float64) float64 {
	var total float64
	for _, row := range rowsOf(t) {
		total += value(row)
	}
	return total
}

// Mean is the arithmetic mean of value, 0 for an empty table.
func Mean[T any](t *Table[T], value func(T) float64) float64 {
	if t.Len() == 0 {
		return 0
	}
	return Sum(t, value) / float64(t.Len())
}

// Count returns how many rows match.
func Count[T any](t *Table[T], match func(T) bool) int {
	n := 0
	for _, row := range rowsOf(t) {
		if match(row) {
			n++
		}
	}
	return n
}

func rowsOf[T any](t *Table[T]) []T {
	if t == nil {
		return nil
	}
	return t.Rows
}

func columnsOf[T any](t *Table[T]) []string {
	if t == nil {
		return nil
	}
	return t.Columns
}
