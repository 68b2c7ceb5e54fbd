// Package ledger implements the general-ledger engine: replaying posted
// journal entries into per-account running-balance records, point-in-time
// balances, trial balances and the advanced line search.
//
// All computations are pure over the entry snapshot returned by the store;
// amounts are integral minor-currency units so replays are deterministic.
package ledger

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/siguialassane/fact-capture-ai-sub002/internal/compta"
	"github.com/siguialassane/fact-capture-ai-sub002/internal/config"
	"github.com/siguialassane/fact-capture-ai-sub002/internal/errs"
	"github.com/siguialassane/fact-capture-ai-sub002/internal/plan"
)

// Repo defines the read side of the external ledger store contract.
type Repo interface {
	// ListEntries returns entries matching the filter, ordered ascending by
	// (date, entry id).
	ListEntries(ctx context.Context, f compta.EntryFilter) ([]compta.JournalEntry, error)
	// GetAccount resolves an account by number.
	GetAccount(ctx context.Context, number string) (compta.Account, error)
	// ListAccounts returns accounts within the class range, optionally only
	// those with posted movements.
	ListAccounts(ctx context.Context, classMin, classMax int, onlyWithMovements bool) ([]compta.Account, error)
}

// Writer defines the write side used when the capture pipeline posts entries.
type Writer interface {
	CreateEntry(ctx context.Context, e compta.JournalEntry) (compta.JournalEntry, error)
}

// Line is one ledger movement annotated with the running balance after it.
type Line struct {
	compta.EntryLine
	Journal      compta.JournalCode
	PieceRef     string
	RunningMinor int64
}

// Record is the grand livre of one account over a window.
type Record struct {
	Account      compta.Account
	OpeningMinor int64
	ClosingMinor int64
	Lines        []Line
}

// Query scopes a ledger build.
type Query struct {
	Account string
	From    *time.Time
	To      *time.Time
	// IncludeReconciled keeps lines bearing a closed lettrage code in the
	// view. When false those lines are dropped from the window but every
	// line before the window still feeds the opening baseline.
	IncludeReconciled bool
	// OpeningMinor is an optional carried-forward balance for the exercice.
	OpeningMinor int64
}

// TrialBalanceQuery scopes a trial-balance computation.
type TrialBalanceQuery struct {
	ClasseDebut    string
	ClasseFin      string
	From           *time.Time
	AsOf           *time.Time
	AvecMouvements bool
}

// TrialBalanceRow is the (opening, movements, closing) tuple for one account.
type TrialBalanceRow struct {
	Account      compta.Account
	OpeningMinor int64
	DebitMinor   int64
	CreditMinor  int64
	ClosingMinor int64
}

// Integrity is a computed fact about the data, surfaced to the caller with
// the exact discrepancy, never auto-corrected.
type Integrity struct {
	Equilibre  bool
	EcartMinor int64
}

// TrialBalance aggregates rows over an account range.
type TrialBalance struct {
	Rows             []TrialBalanceRow
	TotalDebitMinor  int64
	TotalCreditMinor int64
	Integrity        Integrity
}

// Service exposes the ledger engine operations.
type Service interface {
	ValidateEntry(ctx context.Context, e compta.JournalEntry) error
	PostEntry(ctx context.Context, e compta.JournalEntry) (compta.JournalEntry, error)
	Ledger(ctx context.Context, q Query) (Record, error)
	BalanceAsOf(ctx context.Context, number string, asOf time.Time) (int64, error)
	TrialBalance(ctx context.Context, q TrialBalanceQuery) (TrialBalance, error)
	Search(ctx context.Context, f compta.EntryFilter, includeReconciled bool) ([]Line, error)
}

type service struct {
	repo   Repo
	writer Writer
	cfg    config.Config
	reg    *plan.Registry
}

// New constructs the ledger service.
func New(repo Repo, writer Writer, cfg config.Config) Service {
	return &service{repo: repo, writer: writer, cfg: cfg, reg: plan.New(cfg)}
}

// ValidateEntry checks structural invariants plus the configured journal set.
func (s *service) ValidateEntry(_ context.Context, e compta.JournalEntry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if !s.cfg.KnownJournal(string(e.Journal)) {
		return errs.ErrUnknownJournal
	}
	return nil
}

// PostEntry validates and persists an entry supplied by the upstream capture
// pipeline. Imbalance is rejected, never repaired. Identifiers are assigned
// here and line dates inherit the entry date.
func (s *service) PostEntry(ctx context.Context, e compta.JournalEntry) (compta.JournalEntry, error) {
	if err := s.ValidateEntry(ctx, e); err != nil {
		return compta.JournalEntry{}, err
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	lines := make([]compta.EntryLine, len(e.Lines))
	for i, ln := range e.Lines {
		if ln.ID == uuid.Nil {
			ln.ID = uuid.New()
		}
		ln.EntryID = e.ID
		ln.Date = e.Date
		lines[i] = ln
	}
	e.Lines = lines
	return s.writer.CreateEntry(ctx, e)
}

// collectLines flattens all lines of one account ordered by (date, entry id).
// No date filter is applied at the store so the pre-window baseline is intact.
func (s *service) collectLines(ctx context.Context, account string) ([]Line, error) {
	entries, err := s.repo.ListEntries(ctx, compta.EntryFilter{AccountMin: account, AccountMax: account})
	if err != nil {
		return nil, err
	}
	return flatten(entries, compta.EntryFilter{AccountMin: account, AccountMax: account}), nil
}

// flatten extracts matching lines from entries, ordered by (date, entry id).
func flatten(entries []compta.JournalEntry, f compta.EntryFilter) []Line {
	out := make([]Line, 0, len(entries))
	for _, e := range entries {
		for _, ln := range e.Lines {
			if !f.MatchLine(ln) {
				continue
			}
			out = append(out, Line{EntryLine: ln, Journal: e.Journal, PieceRef: e.PieceRef})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].EntryID.String() < out[j].EntryID.String()
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// signed expresses a line's movement under the account's normal side. The
// side always comes from the plan resolver so every balance computation
// agrees on it.
func signed(ln compta.EntryLine) int64 {
	if plan.NormalSide(ln.AccountNumber) == compta.SideDebit {
		return ln.DebitMinor() - ln.CreditMinor()
	}
	return ln.CreditMinor() - ln.DebitMinor()
}

// Ledger replays one account into its grand livre. Accounts without any
// posted movement signal errs.ErrNotFound so batch callers can skip them.
func (s *service) Ledger(ctx context.Context, q Query) (Record, error) {
	acc, err := s.repo.GetAccount(ctx, q.Account)
	if err != nil {
		return Record{}, err
	}
	all, err := s.collectLines(ctx, q.Account)
	if err != nil {
		return Record{}, err
	}
	if len(all) == 0 {
		return Record{}, errs.ErrNotFound
	}

	opening := q.OpeningMinor
	running := opening
	rec := Record{Account: acc, Lines: make([]Line, 0, len(all))}
	for _, ln := range all {
		if q.From != nil && ln.Date.Before(*q.From) {
			// Before the window: lettered or not, the line feeds the baseline.
			opening += signed(ln.EntryLine)
			running = opening
			continue
		}
		if q.To != nil && ln.Date.After(*q.To) {
			continue
		}
		if !q.IncludeReconciled && ln.Lettered() {
			continue
		}
		running += signed(ln.EntryLine)
		ln.RunningMinor = running
		rec.Lines = append(rec.Lines, ln)
	}
	rec.OpeningMinor = opening
	rec.ClosingMinor = running
	return rec, nil
}

// BalanceAsOf replays the account's lines dated <= asOf and returns the final
// balance under the account's normal side, in minor units.
func (s *service) BalanceAsOf(ctx context.Context, number string, asOf time.Time) (int64, error) {
	if _, err := s.repo.GetAccount(ctx, number); err != nil {
		return 0, err
	}
	all, err := s.collectLines(ctx, number)
	if err != nil {
		return 0, err
	}
	var bal int64
	for _, ln := range all {
		if ln.Date.After(asOf) {
			continue
		}
		bal += signed(ln.EntryLine)
	}
	return bal, nil
}

// TrialBalance computes per-account (opening, debit, credit, closing) tuples
// over an account range, plus the aggregate debit/credit equality check. A
// mismatch is reported in the result, not hidden and not repaired.
func (s *service) TrialBalance(ctx context.Context, q TrialBalanceQuery) (TrialBalance, error) {
	f := compta.EntryFilter{AccountMin: q.ClasseDebut, AccountMax: q.ClasseFin}
	entries, err := s.repo.ListEntries(ctx, f)
	if err != nil {
		return TrialBalance{}, err
	}
	lines := flatten(entries, f)

	type agg struct {
		opening int64
		debit   int64
		credit  int64
	}
	byAccount := make(map[string]*agg)
	order := make([]string, 0)
	for _, ln := range lines {
		if q.AsOf != nil && ln.Date.After(*q.AsOf) {
			continue
		}
		a, ok := byAccount[ln.AccountNumber]
		if !ok {
			a = &agg{}
			byAccount[ln.AccountNumber] = a
			order = append(order, ln.AccountNumber)
		}
		if q.From != nil && ln.Date.Before(*q.From) {
			a.opening += signed(ln.EntryLine)
			continue
		}
		a.debit += ln.DebitMinor()
		a.credit += ln.CreditMinor()
	}
	sort.Strings(order)

	tb := TrialBalance{Rows: make([]TrialBalanceRow, 0, len(order))}
	for _, number := range order {
		a := byAccount[number]
		if q.AvecMouvements && a.debit == 0 && a.credit == 0 {
			continue
		}
		acc, err := s.repo.GetAccount(ctx, number)
		if err != nil {
			// Account metadata missing from the store: still report the
			// movements under a side resolved from the number alone.
			acc = s.reg.Resolve(number, "")
		}
		row := TrialBalanceRow{
			Account:      acc,
			OpeningMinor: a.opening,
			DebitMinor:   a.debit,
			CreditMinor:  a.credit,
		}
		mov := a.debit - a.credit
		if acc.NormalSide == compta.SideCredit {
			mov = -mov
		}
		row.ClosingMinor = a.opening + mov
		tb.Rows = append(tb.Rows, row)
		tb.TotalDebitMinor += a.debit
		tb.TotalCreditMinor += a.credit
	}
	ecart := tb.TotalDebitMinor - tb.TotalCreditMinor
	tb.Integrity = Integrity{Equilibre: ecart == 0, EcartMinor: ecart}
	return tb, nil
}

// Search runs the advanced ledger search over the full filter surface.
func (s *service) Search(ctx context.Context, f compta.EntryFilter, includeReconciled bool) ([]Line, error) {
	entries, err := s.repo.ListEntries(ctx, f)
	if err != nil {
		return nil, err
	}
	lines := flatten(entries, f)
	if includeReconciled {
		return lines, nil
	}
	out := lines[:0]
	for _, ln := range lines {
		if ln.Lettered() {
			continue
		}
		out = append(out, ln)
	}
	return out, nil
}
