package pricing

import "errors"

var (
	// ErrInvalidDate rejects a cutoff that is not a YYYY-MM-DD date
	ErrInvalidDate = errors.New("invalid contract end date, format should be YYYY-MM-DD")

	// ErrAgreementNotFound flags a contract that matched the query but
	// carries no price agreement for the requested item
	ErrAgreementNotFound = errors.New("pricing agreement not found")
)
