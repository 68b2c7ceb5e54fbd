package compta

import (
	"time"

	"github.com/google/uuid"
	"github.com/govalues/money"
)

// Side represents the accounting position of a journal line.
type Side string

const (
	// SideDebit records a value on the debit side of an account.
	SideDebit Side = "debit"
	// SideCredit records a value on the credit side of an account.
	SideCredit Side = "credit"
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SideDebit {
		return SideCredit
	}
	return SideDebit
}

// JournalCode identifies the SYSCOHADA journal an entry is posted in.
type JournalCode string

const (
	JournalAchats JournalCode = "AC"
	JournalVentes JournalCode = "VE"
	JournalBanque JournalCode = "BQ"
	JournalCaisse JournalCode = "CA"
	JournalDivers JournalCode = "OD"
)

// Account is a SYSCOHADA chart-of-accounts entry. Immutable once referenced
// by posted lines.
type Account struct {
	// Number is the account code, e.g. "411". The leading digit is the class.
	Number string
	Label  string
	Class  int
	// NormalSide is the side the account's balance is conventionally
	// expressed on, resolved once by the plan registry.
	NormalSide Side
}

// JournalEntry is the append-only unit of posting: one balanced group of lines.
type JournalEntry struct {
	ID       uuid.UUID
	Date     time.Time
	Journal  JournalCode
	PieceRef string
	Lines    []EntryLine
}

// EntryLine is a single debit or credit movement on an account.
// Exactly one of Debit/Credit is nonzero.
type EntryLine struct {
	ID            uuid.UUID
	EntryID       uuid.UUID
	AccountNumber string
	Debit         money.Amount
	Credit        money.Amount
	// TiersCode identifies the counterparty (client or supplier), when known.
	TiersCode string
	Label     string
	// LettrageCode is set by the reconciliation engine; empty while open.
	LettrageCode string
	// Date is inherited from the owning entry.
	Date time.Time
}

// DebitMinor returns the debit amount in minor currency units.
func (l EntryLine) DebitMinor() int64 {
	units, _ := l.Debit.MinorUnits()
	return units
}

// CreditMinor returns the credit amount in minor currency units.
func (l EntryLine) CreditMinor() int64 {
	units, _ := l.Credit.MinorUnits()
	return units
}

// NetMinor returns debit - credit in minor units.
func (l EntryLine) NetMinor() int64 { return l.DebitMinor() - l.CreditMinor() }

// Side returns which side of the account the line moves.
func (l EntryLine) Side() Side {
	if l.DebitMinor() != 0 {
		return SideDebit
	}
	return SideCredit
}

// Lettered reports whether the line carries a lettrage code.
func (l EntryLine) Lettered() bool { return l.LettrageCode != "" }

// LineRef identifies a line within an entry for lettrage writes.
type LineRef struct {
	EntryID uuid.UUID
	LineID  uuid.UUID
}

// LettrageGroup is a closed set of lines on one account netting to zero.
type LettrageGroup struct {
	Code          string
	AccountNumber string
	Lines         []LineRef
	// NetMinor is zero for a closed group; kept for reporting while a group
	// is under construction.
	NetMinor int64
}

// Closed reports whether the group satisfies the zero-net invariant.
func (g LettrageGroup) Closed() bool { return len(g.Lines) > 0 && g.NetMinor == 0 }

// Exercice is the fiscal year scope for balances and statements.
type Exercice struct {
	Year       int
	StartMonth time.Month
	EndMonth   time.Month
}

// NewExercice returns a calendar-year exercice.
func NewExercice(year int) Exercice {
	return Exercice{Year: year, StartMonth: time.January, EndMonth: time.December}
}

// Start returns the first instant of the exercice (UTC).
func (e Exercice) Start() time.Time {
	return time.Date(e.Year, e.StartMonth, 1, 0, 0, 0, 0, time.UTC)
}

// End returns the last instant of the exercice (UTC).
func (e Exercice) End() time.Time {
	firstOfNext := time.Date(e.Year, e.EndMonth, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	return firstOfNext.Add(-time.Nanosecond)
}

// Contains reports whether t falls within the exercice.
func (e Exercice) Contains(t time.Time) bool {
	return !t.Before(e.Start()) && !t.After(e.End())
}

// MustAmount builds a minor-unit amount, panicking on an unknown currency.
// Intended for wiring and tests where the currency is static.
func MustAmount(curr string, minor int64) money.Amount {
	a, err := money.NewAmountFromMinorUnits(curr, minor)
	if err != nil {
		panic(err)
	}
	return a
}
