package errs

import "errors"

// Common sentinel errors for cross-layer signaling.
var (
	ErrNotFound = errors.New("not_found")
	ErrConflict = errors.New("conflict")
	ErrInvalid  = errors.New("invalid")

	// Entry validation failures (HTTP 422).
	ErrTooFewLines     = errors.New("entry requires at least 2 lines")
	ErrInvalidAmount   = errors.New("line amount must be > 0 on exactly one side")
	ErrUnbalancedEntry = errors.New("sum(debits) must equal sum(credits)")
	ErrUnknownJournal  = errors.New("unknown journal code")
	ErrBadAccount      = errors.New("account number must start with a class digit")

	// Lettrage failures.
	ErrUnbalancedGroup = errors.New("lettrage group must net to zero")
	ErrAlreadyLettered = errors.New("line already carries a lettrage code")
	ErrUnknownGroup    = errors.New("lettrage code not found on account")
)
