package port

import (
	"context"
)

// DuplicateOracle answers whether an invoice with the same number, seller
// and date has already been recorded. Implementations may block on I/O and
// may fail; callers treat a failure as "unknown".
type DuplicateOracle interface {
	Exists(ctx context.Context, invoiceNumber, sellerName, invoiceDate string) (bool, error)
}

// NoDuplicates is a DuplicateOracle that never reports a match. It is used
// when validation runs without a database.
type NoDuplicates struct{}

// Exists always returns false.
func (NoDuplicates) Exists(context.Context, string, string, string) (bool, error) {
	return false, nil
}
