package exporter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"mktpulse/internal/dataset"
)

// maxSheetName is the worksheet name limit imposed by Excel
const maxSheetName = 31

// WriteXLSX writes f as a single-sheet workbook using excelize's stream
// writer. Numeric columns are written as numbers.
func WriteXLSX(w io.Writer, f dataset.Frame, opts Options) (n int, err error) {
	book := excelize.NewFile()
	defer func() {
		if cerr := book.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	sheet := opts.SheetName
	if sheet == "" {
		sheet = f.Name()
	}
	if len(sheet) > maxSheetName {
		sheet = sheet[:maxSheetName]
	}
	if err := book.SetSheetName("Sheet1", sheet); err != nil {
		return 0, fmt.Errorf("failed to name sheet: %w", err)
	}

	sw, err := book.NewStreamWriter(sheet)
	if err != nil {
		return 0, fmt.Errorf("failed to create stream writer: %w", err)
	}

	fields := f.Fields()
	header := make([]interface{}, len(fields))
	for i, fd := range fields {
		header[i] = fd.Name
	}
	if err := sw.SetRow("A1", header); err != nil {
		return 0, fmt.Errorf("failed to write headers: %w", err)
	}

	rows := f.Len()
	for row := 0; row < rows; row++ {
		values := make([]interface{}, len(fields))
		for i, fd := range fields {
			v, verr := f.Value(row, fd.Name)
			if verr != nil {
				return row, verr
			}
			values[i] = cellValue(v)
		}

		cell, err := excelize.CoordinatesToCellName(1, row+2)
		if err != nil {
			return row, err
		}
		if err := sw.SetRow(cell, values); err != nil {
			return row, fmt.Errorf("failed to write record %d: %w", row, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return rows, fmt.Errorf("failed to flush sheet: %w", err)
	}
	if _, err := book.WriteTo(w); err != nil {
		return rows, fmt.Errorf("failed to write workbook: %w", err)
	}
	return rows, nil
}
