package compta

import (
	"strings"
	"time"
)

// EntryFilter narrows the ordered entry feed consumed from the ledger store.
// Zero values mean "no constraint".
type EntryFilter struct {
	// AccountMin/AccountMax bound account numbers. The upper bound is
	// prefix-inclusive: a range of "41".."41" matches "411".
	AccountMin string
	AccountMax string
	From       *time.Time
	To         *time.Time
	Journal    JournalCode
	Tiers      string
}

// AccountInRange reports whether number falls inside the filter's account
// bounds.
func (f EntryFilter) AccountInRange(number string) bool {
	if f.AccountMin != "" && number < f.AccountMin && !strings.HasPrefix(number, f.AccountMin) {
		return false
	}
	if f.AccountMax != "" && number > f.AccountMax && !strings.HasPrefix(number, f.AccountMax) {
		return false
	}
	return true
}

// MatchEntry reports whether the entry header passes the date and journal
// constraints.
func (f EntryFilter) MatchEntry(e JournalEntry) bool {
	if f.From != nil && e.Date.Before(*f.From) {
		return false
	}
	if f.To != nil && e.Date.After(*f.To) {
		return false
	}
	if f.Journal != "" && e.Journal != f.Journal {
		return false
	}
	return true
}

// MatchLine reports whether a line passes the account and counterparty
// constraints.
func (f EntryFilter) MatchLine(l EntryLine) bool {
	if !f.AccountInRange(l.AccountNumber) {
		return false
	}
	if f.Tiers != "" && l.TiersCode != f.Tiers {
		return false
	}
	return true
}
