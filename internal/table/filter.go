package table

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Kind classifies a column for filtering
type Kind int

const (
	KindCategorical Kind = iota
	KindNumeric
	KindTemporal
	KindText
)

// Columns with fewer distinct values than this are treated as
// categorical regardless of cell type.
const categoricalLimit = 10

func (k Kind) String() string {
	switch k {
	case KindCategorical:
		return "categorical"
	case KindNumeric:
		return "numeric"
	case KindTemporal:
		return "temporal"
	default:
		return "text"
	}
}

// Selection narrows one column. Which fields apply depends on the
// column's inferred kind; zero-valued fields leave the column
// unfiltered.
type Selection struct {
	Column string `json:"column"`

	// Categorical: subset of rendered values to keep
	Values []string `json:"values,omitempty"`

	// Numeric: closed interval endpoints
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`

	// Temporal: closed date interval, both endpoints required
	From *time.Time `json:"from,omitempty"`
	To   *time.Time `json:"to,omitempty"`

	// Text: substring or regular expression to match
	Pattern string `json:"pattern,omitempty"`
}

// Classify infers the filter kind of a column: categorical when the
// distinct value count is below the limit, then numeric, then temporal
// by cell type, text otherwise. The categorical check runs first so a
// low-cardinality numeric column filters by value subset.
func Classify(t *Table, col int) Kind {
	distinct := make(map[string]struct{})
	for _, row := range t.Rows {
		distinct[Render(row[col])] = struct{}{}
	}
	if len(distinct) < categoricalLimit {
		return KindCategorical
	}

	numeric, temporal := true, true
	seen := false
	for _, row := range t.Rows {
		switch row[col].(type) {
		case nil:
		case float64:
			seen = true
			temporal = false
		case time.Time:
			seen = true
			numeric = false
		default:
			seen = true
			numeric = false
			temporal = false
		}
	}
	if seen && numeric {
		return KindNumeric
	}
	if seen && temporal {
		return KindTemporal
	}
	return KindText
}

// Filter applies one selection per column, combined by logical AND. An
// empty selection list is the identity and returns the input unchanged.
func Filter(t *Table, selections []Selection) (*Table, error) {
	if len(selections) == 0 {
		return t, nil
	}

	preds := make([]func(row []any) bool, 0, len(selections))
	for _, sel := range selections {
		col := t.ColumnIndex(sel.Column)
		if col < 0 {
			return nil, fmt.Errorf("unknown column %q", sel.Column)
		}

		pred, err := buildPredicate(t, col, sel)
		if err != nil {
			return nil, err
		}
		if pred != nil {
			preds = append(preds, pred)
		}
	}

	out := &Table{Columns: t.Columns}
	for _, row := range t.Rows {
		keep := true
		for _, pred := range preds {
			if !pred(row) {
				keep = false
				break
			}
		}
		if keep {
			out.Rows = append(out.Rows, row)
		}
	}
	return out, nil
}

// buildPredicate returns nil when the selection leaves the column
// unfiltered (default subset, open interval, single date, empty pattern)
func buildPredicate(t *Table, col int, sel Selection) (func(row []any) bool, error) {
	switch Classify(t, col) {
	case KindCategorical:
		if sel.Values == nil {
			return nil, nil
		}
		keep := make(map[string]struct{}, len(sel.Values))
		for _, v := range sel.Values {
			keep[v] = struct{}{}
		}
		return func(row []any) bool {
			_, ok := keep[Render(row[col])]
			return ok
		}, nil

	case KindNumeric:
		if sel.Min == nil && sel.Max == nil {
			return nil, nil
		}
		lo, hi := observedRange(t, col)
		if sel.Min != nil {
			lo = *sel.Min
		}
		if sel.Max != nil {
			hi = *sel.Max
		}
		return func(row []any) bool {
			v, ok := row[col].(float64)
			return ok && v >= lo && v <= hi
		}, nil

	case KindTemporal:
		// Both endpoints are required; a single date leaves the column
		// unfiltered.
		if sel.From == nil || sel.To == nil {
			return nil, nil
		}
		from, to := *sel.From, *sel.To
		return func(row []any) bool {
			v, ok := row[col].(time.Time)
			return ok && !v.Before(from) && !v.After(to)
		}, nil

	default:
		if sel.Pattern == "" {
			return nil, nil
		}
		if re, err := regexp.Compile(sel.Pattern); err == nil {
			return func(row []any) bool {
				return re.MatchString(Render(row[col]))
			}, nil
		}
		// Not a valid regex: fall back to plain substring containment
		return func(row []any) bool {
			return strings.Contains(Render(row[col]), sel.Pattern)
		}, nil
	}
}

func observedRange(t *Table, col int) (lo, hi float64) {
	first := true
	for _, row := range t.Rows {
		v, ok := row[col].(float64)
		if !ok {
			continue
		}
		if first || v < lo {
			lo = v
		}
		if first || v > hi {
			hi = v
		}
		first = false
	}
	return lo, hi
}
