package exporter

import (
	"encoding/csv"
	"fmt"
	"io"

	"mktpulse/internal/dataset"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Write streams f in the given format and returns the number of data rows
func Write(w io.Writer, format Format, f dataset.Frame, opts Options) (int, error) {
	switch format {
	case CSV:
		return WriteCSV(w, f, opts)
	case XLSX:
		return WriteXLSX(w, f, opts)
	}
	return 0, fmt.Errorf("unsupported export format %q", format)
}

// WriteCSV writes a header row followed by every row of f
func WriteCSV(w io.Writer, f dataset.Frame, opts Options) (int, error) {
	if opts.BOM {
		if _, err := w.Write(utf8BOM); err != nil {
			return 0, fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)

	if err := writer.Write(dataset.Header(f)); err != nil {
		return 0, fmt.Errorf("failed to write headers: %w", err)
	}

	n := f.Len()
	for row := 0; row < n; row++ {
		if err := writer.Write(f.Strings(row)); err != nil {
			return row, fmt.Errorf("failed to write record %d: %w", row, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return n, fmt.Errorf("failed to flush csv: %w", err)
	}
	return n, nil
}
