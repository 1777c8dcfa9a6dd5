// Package export serializes a result table to a single-sheet xlsx
// workbook.
package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"pricing-health/internal/table"
)

const sheetName = "Sheet1"

// Encode writes the full table, header row included, no index column.
// Deterministic for identical tables.
func Encode(t *table.Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	for col, name := range t.Columns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to build header cell: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, name); err != nil {
			return nil, fmt.Errorf("failed to set header: %w", err)
		}
	}

	for row, cells := range t.Rows {
		for col, value := range cells {
			if value == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return nil, fmt.Errorf("failed to build cell name: %w", err)
			}
			// Dates export as date-only strings, not timestamps
			if ts, ok := value.(time.Time); ok {
				value = ts.Format("2006-01-02")
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return nil, fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// Filename is the download name convention for an exported result
func Filename(item, cutoff string) string {
	return fmt.Sprintf("Item %s - Expiring after %s.xlsx", item, cutoff)
}
