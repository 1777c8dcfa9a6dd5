package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"pricing-health/internal/table"
)

func testTable() *table.Table {
	return &table.Table{
		Columns: []string{"contractnumber", "contractend", "gp", "review"},
		Rows: [][]any{
			{"C1", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), 53.0, false},
			{"C2", time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), nil, nil},
		},
	}
}

func TestEncode(t *testing.T) {
	data, err := Encode(testTable())
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Encoded workbook does not open: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 1 || sheets[0] != "Sheet1" {
		t.Fatalf("Expected single sheet Sheet1, got %v", sheets)
	}

	rows, err := f.GetRows("Sheet1")
	if err != nil {
		t.Fatalf("GetRows failed: %v", err)
	}
	if len(rows) != 3 { // header + 2 data rows
		t.Fatalf("Expected 3 rows, got %d", len(rows))
	}

	wantHeader := []string{"contractnumber", "contractend", "gp", "review"}
	for i, h := range wantHeader {
		if rows[0][i] != h {
			t.Errorf("Header %d: got %q, want %q", i, rows[0][i], h)
		}
	}

	if rows[1][0] != "C1" || rows[1][1] != "2024-06-01" {
		t.Errorf("Unexpected first data row: %v", rows[1])
	}
	// Null cells stay empty rather than rendering a zero
	if len(rows[2]) > 2 && rows[2][2] != "" {
		t.Errorf("Expected empty cell for null gp, got %q", rows[2][2])
	}
}

func TestEncodeDeterministic(t *testing.T) {
	first, err := Encode(testTable())
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	second, err := Encode(testTable())
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	// Compare decoded content; the zip container itself is not part of
	// the contract.
	a, err := excelize.OpenReader(bytes.NewReader(first))
	if err != nil {
		t.Fatalf("OpenReader failed: %v", err)
	}
	defer a.Close()
	b, err := excelize.OpenReader(bytes.NewReader(second))
	if err != nil {
		t.Fatalf("OpenReader failed: %v", err)
	}
	defer b.Close()

	rowsA, _ := a.GetRows("Sheet1")
	rowsB, _ := b.GetRows("Sheet1")
	if len(rowsA) != len(rowsB) {
		t.Fatalf("Row counts differ: %d vs %d", len(rowsA), len(rowsB))
	}
	for i := range rowsA {
		for j := range rowsA[i] {
			if rowsA[i][j] != rowsB[i][j] {
				t.Errorf("Cell %d/%d differs: %q vs %q", i, j, rowsA[i][j], rowsB[i][j])
			}
		}
	}
}

func TestFilename(t *testing.T) {
	got := Filename("WIDGET-1", "2024-01-01")
	want := "Item WIDGET-1 - Expiring after 2024-01-01.xlsx"
	if got != want {
		t.Errorf("Filename: got %q, want %q", got, want)
	}
}
