package compta

import (
	"fmt"

	"github.com/siguialassane/fact-capture-ai-sub002/internal/errs"
)

// Validate enforces the structural invariants of a journal entry: at least
// two lines, exactly one nonzero side per line, positive amounts, and
// sum(debits) == sum(credits) at minor-unit precision. The engine validates,
// it never repairs.
func (e JournalEntry) Validate() error {
	if len(e.Lines) < 2 {
		return errs.ErrTooFewLines
	}
	var sumDebits, sumCredits int64
	for i, ln := range e.Lines {
		if ln.AccountNumber == "" {
			return fmt.Errorf("line[%d]: account number required: %w", i, errs.ErrBadAccount)
		}
		if ln.AccountNumber[0] < '1' || ln.AccountNumber[0] > '9' {
			return fmt.Errorf("line[%d]: %q: %w", i, ln.AccountNumber, errs.ErrBadAccount)
		}
		d, c := ln.DebitMinor(), ln.CreditMinor()
		if d < 0 || c < 0 {
			return fmt.Errorf("line[%d]: %w", i, errs.ErrInvalidAmount)
		}
		if (d == 0) == (c == 0) {
			return fmt.Errorf("line[%d]: %w", i, errs.ErrInvalidAmount)
		}
		sumDebits += d
		sumCredits += c
	}
	if sumDebits != sumCredits {
		return fmt.Errorf("debits %d != credits %d: %w", sumDebits, sumCredits, errs.ErrUnbalancedEntry)
	}
	return nil
}
