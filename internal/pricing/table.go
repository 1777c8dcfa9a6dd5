package pricing

import (
	"github.com/shopspring/decimal"

	"pricing-health/internal/table"
)

// Column order of the exported table. Fixed so export and filtering are
// deterministic for identical results.
var tableColumns = []string{
	"contractnumber",
	"contractname",
	"contractstart",
	"contractend",
	"pricingagreement_price",
	"item",
	"cost",
	"customer_fee_rate",
	"safety",
	"customer_fee",
	"total_cost",
	"gp",
	"gp_pct",
	"review",
}

// Table converts the result into the generic column/row form consumed by
// the tabular filter and the spreadsheet encoder. Null-valued fields
// become nil cells.
func (r *Result) Table() *table.Table {
	t := &table.Table{Columns: tableColumns}
	for _, row := range r.Rows {
		cells := []any{
			row.ContractNumber,
			row.ContractName,
			row.ContractStart,
			row.ContractEnd,
			row.AgreementPrice.InexactFloat64(),
			row.Item,
			nullCell(row.Cost),
			row.CustomerFeeRate.InexactFloat64(),
			nullCell(row.Safety),
			row.CustomerFee.InexactFloat64(),
			nullCell(row.TotalCost),
			nullCell(row.GP),
			nullCell(row.GPPct),
			reviewCell(row.Review),
		}
		t.Rows = append(t.Rows, cells)
	}
	return t
}

func nullCell(d decimal.NullDecimal) any {
	if !d.Valid {
		return nil
	}
	return d.Decimal.InexactFloat64()
}

func reviewCell(review *bool) any {
	if review == nil {
		return nil
	}
	return *review
}
