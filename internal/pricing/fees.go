package pricing

import (
	"github.com/shopspring/decimal"

	"pricing-health/internal/storage"
)

// Defaults applied when a customer record (or one of its fee fields) is
// missing from the customers collection.
const (
	DefaultDistributorFee  = 0.05
	DefaultCashDiscountFee = 0.00
	DefaultGPOFee          = 0.00
)

// CustomerFeeRate sums the three per-customer fee rates, defaulting each
// term independently when its field is absent. Never fails: an empty
// record yields the default 0.05.
func CustomerFeeRate(rec storage.CustomerRecord) decimal.Decimal {
	rate := feeOrDefault(rec.DistributorFee, DefaultDistributorFee)
	rate = rate.Add(feeOrDefault(rec.CashDiscountFee, DefaultCashDiscountFee))
	rate = rate.Add(feeOrDefault(rec.GPOFee, DefaultGPOFee))
	return rate
}

func feeOrDefault(fee *float64, def float64) decimal.Decimal {
	if fee == nil {
		return decimal.NewFromFloat(def)
	}
	return decimal.NewFromFloat(*fee)
}
