package pricing

import (
	"fmt"

	"pricing-health/internal/storage"
)

// ExtractAgreementPrice returns the price of the first embedded agreement
// matching item. Duplicates are not aggregated: first match wins. The
// contract query filters on agreement presence, so a miss here means the
// document changed between query and read, or the data is inconsistent.
func ExtractAgreementPrice(rec storage.ContractRecord, item string) (float64, error) {
	for _, pa := range rec.PricingAgreements {
		if pa.Item == item {
			return pa.Price, nil
		}
	}
	return 0, fmt.Errorf("%w: contract %s has no agreement for item %q", ErrAgreementNotFound, rec.ContractNumber, item)
}
