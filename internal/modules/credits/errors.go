package credits

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAmount is returned for non-positive top-up or refund amounts.
	ErrInvalidAmount = errors.New("credits: amount must be positive")

	// ErrAccountNotFound is returned when the referenced user has no store
	// record at all (not even one the ledger could lazily initialize).
	ErrAccountNotFound = errors.New("credits: account not found")

	// ErrLedgerUnavailable wraps storage-layer failures. Callers must treat
	// the billable action as not performed and must not proceed.
	ErrLedgerUnavailable = errors.New("credits: ledger unavailable")
)

// InsufficientCreditsError is the expected, recoverable rejection of a
// charge. Feature endpoints translate it into a 402 so the UI can prompt
// for an upgrade or purchase.
type InsufficientCreditsError struct {
	Available int
	Required  int
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("credits: insufficient balance (available %d, required %d)", e.Available, e.Required)
}

// AsInsufficient unwraps err into an InsufficientCreditsError, if it is one.
func AsInsufficient(err error) (*InsufficientCreditsError, bool) {
	var ice *InsufficientCreditsError
	if errors.As(err, &ice) {
		return ice, true
	}
	return nil, false
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
}
