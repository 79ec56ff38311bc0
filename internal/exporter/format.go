package exporter

import (
	"fmt"
	"strings"
	"time"

	"mktpulse/internal/dataset"
)

// Format is an export file format
type Format string

const (
	CSV  Format = "csv"
	XLSX Format = "xlsx"
)

// ParseFormat accepts csv or xlsx in any case
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case CSV:
		return CSV, nil
	case XLSX:
		return XLSX, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// ContentType is the MIME type served for the format
func (f Format) ContentType() string {
	if f == XLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// FileName is the download name for a dataset export
func FileName(name string, f Format) string {
	return fmt.Sprintf("%s.%s", name, f)
}

// Options configures an export
type Options struct {
	// BOM prefixes CSV output with a UTF-8 byte order mark for Excel.
	BOM bool
	// SheetName overrides the worksheet name of XLSX output.
	SheetName string
}

// cellValue converts a frame value into what a spreadsheet cell should hold.
// Dates become ISO strings so they round-trip through CSV readers.
func cellValue(v any) any {
	switch x := v.(type) {
	case time.Time:
		if x.IsZero() {
			return ""
		}
		return x.Format(dataset.DateLayout)
	case nil:
		return ""
	default:
		return x
	}
}
