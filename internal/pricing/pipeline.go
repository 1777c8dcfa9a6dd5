package pricing

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pricing-health/internal/storage"
)

const cutoffLayout = "2006-01-02"

var (
	safetyRate      = decimal.RequireFromString("0.05")
	reviewThreshold = decimal.RequireFromString("26.9999")
	hundred         = decimal.NewFromInt(100)
)

// ContractSource yields contracts with an agreement for the item ending
// on or after the cutoff
type ContractSource interface {
	FindExpiringContracts(ctx context.Context, item string, cutoff time.Time) ([]storage.ContractRecord, error)
}

// CostSource resolves the per-unit cost of an item
type CostSource interface {
	GetCost(ctx context.Context, item string) (float64, error)
}

// CustomerSource resolves the fee record of a customer by contract name
type CustomerSource interface {
	GetCustomer(ctx context.Context, contractName string) (storage.CustomerRecord, error)
}

// Computer is the pipeline contract the transport layer consumes; both
// Pipeline and CachedPipeline satisfy it.
type Computer interface {
	Compute(ctx context.Context, item, cutoff string) (*Result, error)
}

// Row is one derived pricing row. Null-valued fields mark the
// cost-dependent chain of a row whose item has no cost record.
type Row struct {
	ContractNumber  string              `json:"contractnumber"`
	ContractName    string              `json:"contractname"`
	ContractStart   time.Time           `json:"contractstart"`
	ContractEnd     time.Time           `json:"contractend"`
	AgreementPrice  decimal.Decimal     `json:"pricingagreement_price"`
	Item            string              `json:"item"`
	Cost            decimal.NullDecimal `json:"cost"`
	CustomerFeeRate decimal.Decimal     `json:"customer_fee_rate"`
	Safety          decimal.NullDecimal `json:"safety"`
	CustomerFee     decimal.Decimal     `json:"customer_fee"`
	TotalCost       decimal.NullDecimal `json:"total_cost"`
	GP              decimal.NullDecimal `json:"gp"`
	GPPct           decimal.NullDecimal `json:"gp_pct"`
	Review          *bool               `json:"review"`
}

// Warning is a structured anomaly reported alongside the result instead
// of aborting it. ContractNumber is empty for request-level conditions.
type Warning struct {
	ContractNumber string `json:"contractnumber,omitempty"`
	Reason         string `json:"reason"`
}

// Result is the full pricing table for one (item, cutoff) request
type Result struct {
	Item     string    `json:"item"`
	Cutoff   time.Time `json:"cutoff"`
	Rows     []Row     `json:"rows"`
	Warnings []Warning `json:"warnings,omitempty"`
}

type Pipeline struct {
	contracts ContractSource
	costs     CostSource
	customers CustomerSource
	logger    *zap.Logger
}

func New(contracts ContractSource, costs CostSource, customers CustomerSource, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		contracts: contracts,
		costs:     costs,
		customers: customers,
		logger:    logger,
	}
}

// Compute builds the pricing health table for an item and a contract-end
// cutoff given as YYYY-MM-DD. Rows are sorted ascending by contract end
// date, then by review flag (unflagged first). Pure with respect to the
// backing stores: identical inputs yield identical tables.
func (p *Pipeline) Compute(ctx context.Context, item, cutoff string) (*Result, error) {
	end, err := time.Parse(cutoffLayout, cutoff)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, cutoff)
	}

	records, err := p.contracts.FindExpiringContracts(ctx, item, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query contracts: %w", err)
	}

	res := &Result{Item: item, Cutoff: end}

	// Cost is keyed by item alone, so one lookup serves every row. A
	// missing cost record degrades the whole cost-dependent chain to
	// null instead of failing the request.
	var cost decimal.NullDecimal
	rawCost, err := p.costs.GetCost(ctx, item)
	switch {
	case err == nil:
		cost = decimal.NewNullDecimal(decimal.NewFromFloat(rawCost).Round(2))
	case errors.Is(err, storage.ErrItemNotFound):
		p.logger.Warn("Item has no cost record", zap.String("item", item))
		res.Warnings = append(res.Warnings, Warning{
			Reason: fmt.Sprintf("item %q has no cost record; cost-dependent fields are empty", item),
		})
	default:
		return nil, fmt.Errorf("failed to look up cost: %w", err)
	}

	for _, rec := range records {
		price, err := ExtractAgreementPrice(rec, item)
		if err != nil {
			// The query filtered on agreement presence, so this is a
			// data inconsistency. Policy: drop the row, report it.
			p.logger.Warn("Contract matched query but has no agreement for item",
				zap.String("contract", rec.ContractNumber),
				zap.String("item", item))
			res.Warnings = append(res.Warnings, Warning{
				ContractNumber: rec.ContractNumber,
				Reason:         err.Error(),
			})
			continue
		}

		customer, err := p.customers.GetCustomer(ctx, rec.ContractName)
		if err != nil {
			return nil, fmt.Errorf("failed to look up customer %q: %w", rec.ContractName, err)
		}

		res.Rows = append(res.Rows, deriveRow(rec, item, price, cost, CustomerFeeRate(customer).Round(2)))
	}

	sortRows(res.Rows)
	return res, nil
}

// deriveRow computes the financial cascade in dependency order. Each
// field is rounded to 2 decimals before feeding the next, so downstream
// fields see rounded upstream values, never the raw inputs.
func deriveRow(rec storage.ContractRecord, item string, price float64, cost decimal.NullDecimal, feeRate decimal.Decimal) Row {
	agreementPrice := decimal.NewFromFloat(price)

	row := Row{
		ContractNumber:  rec.ContractNumber,
		ContractName:    rec.ContractName,
		ContractStart:   rec.ContractStart,
		ContractEnd:     rec.ContractEnd,
		AgreementPrice:  agreementPrice,
		Item:            item,
		Cost:            cost,
		CustomerFeeRate: feeRate,
	}

	// customer_fee depends on the fee rate and the agreement price only,
	// so it survives a missing cost.
	row.CustomerFee = feeRate.Mul(agreementPrice).Round(2)

	if !cost.Valid {
		return row
	}

	safety := cost.Decimal.Mul(safetyRate).Round(2)
	totalCost := cost.Decimal.Add(row.CustomerFee).Add(safety).Round(2)
	gp := agreementPrice.Sub(totalCost).Round(2)

	row.Safety = decimal.NewNullDecimal(safety)
	row.TotalCost = decimal.NewNullDecimal(totalCost)
	row.GP = decimal.NewNullDecimal(gp)

	if agreementPrice.IsZero() {
		// Zero-priced agreement: gp_pct is undefined, review stays unset
		return row
	}

	gpPct := gp.Div(agreementPrice).Mul(hundred).Round(2)
	row.GPPct = decimal.NewNullDecimal(gpPct)

	review := gpPct.LessThan(reviewThreshold)
	row.Review = &review

	return row
}

func sortRows(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].ContractEnd.Equal(rows[j].ContractEnd) {
			return rows[i].ContractEnd.Before(rows[j].ContractEnd)
		}
		return reviewRank(rows[i].Review) < reviewRank(rows[j].Review)
	})
}

// reviewRank orders false before true; an unset flag sorts with false
func reviewRank(review *bool) int {
	if review != nil && *review {
		return 1
	}
	return 0
}

// ExpiryCount is the number of contracts ending on a given date
type ExpiryCount struct {
	ContractEnd time.Time `json:"contractend"`
	Contracts   int       `json:"contracts"`
}

// GroupByContractEnd counts rows per contract end date, in ascending
// date order. Feeds the expiry bar chart.
func (r *Result) GroupByContractEnd() []ExpiryCount {
	var groups []ExpiryCount
	for _, row := range r.Rows {
		if n := len(groups); n > 0 && groups[n-1].ContractEnd.Equal(row.ContractEnd) {
			groups[n-1].Contracts++
			continue
		}
		groups = append(groups, ExpiryCount{ContractEnd: row.ContractEnd, Contracts: 1})
	}
	return groups
}
