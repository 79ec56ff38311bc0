package services

import (
	"context"
	"slices"
	"strings"

	"mktpulse/internal/dataset"
	"mktpulse/internal/table"
	"mktpulse/pkg/contracts/domain"
)

// PassThrough is an auxiliary table handed to the front-end as records.
type PassThrough struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

func passThrough(t *table.Table[domain.AuxRecord]) *PassThrough {
	f := dataset.NewAuxFrame(t)
	return &PassThrough{Columns: dataset.Header(f), Rows: dataset.Records(f, 0, 0)}
}

func (s *DashboardService) auxiliary(ctx context.Context, e *Envelope, name string) *table.Table[domain.AuxRecord] {
	t, err := s.loader.Auxiliary(ctx, name)
	return track(e, name, t, err)
}

// column returns the index of the named column, or fallback when the
// header does not carry it and has enough columns.
func column(t *table.Table[domain.AuxRecord], name string, fallback int) int {
	for i, c := range t.Columns {
		if strings.EqualFold(c, name) {
			return i
		}
	}
	if fallback < len(t.Columns) {
		return fallback
	}
	return -1
}

func cell(r domain.AuxRecord, i int) string {
	if i < 0 || i >= len(r.Cells) {
		return ""
	}
	return r.Cells[i]
}

// number parses a cell; blanks, text and non-finite values count as 0.
func number(r domain.AuxRecord, i int) float64 {
	v, err := dataset.ParseFinite(strings.TrimSpace(cell(r, i)))
	if err != nil {
		return 0
	}
	return v
}

// otherColumns lists every column index except skip.
func otherColumns(t *table.Table[domain.AuxRecord], skip int) []int {
	var out []int
	for i := range t.Columns {
		if i != skip {
			out = append(out, i)
		}
	}
	return slices.Clip(out)
}
