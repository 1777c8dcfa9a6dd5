// Package table holds a schema-agnostic result table and a generic
// column filter over it. Nothing in here knows about pricing.
package table

import (
	"fmt"
	"strconv"
	"time"
)

// Table is an ordered set of named columns over heterogeneous rows.
// Supported cell types: string, float64, bool, time.Time and nil for
// missing values.
type Table struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// ColumnIndex returns the position of a named column, or -1
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Render is the canonical string form of a cell, used by categorical
// and text predicates
func Render(cell any) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return v.Format("2006-01-02")
	default:
		return fmt.Sprint(v)
	}
}
