package postgres

// Package postgres provides a pgx-backed storage implementation that
// satisfies the ledger store contract consumed by the engine services.
//
// It is intentionally small and explicit, mapping between the domain
// entities and SQL rows and running the necessary statements/transactions.
// Lettrage code changes are the only mutations with real concurrency
// semantics: they run in a transaction guarded by a lettrage_code IS NULL
// predicate so the later of two overlapping attempts loses with a conflict.

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/siguialassane/fact-capture-ai-sub002/internal/compta"
	"github.com/siguialassane/fact-capture-ai-sub002/internal/errs"
	"github.com/siguialassane/fact-capture-ai-sub002/internal/plan"
)

// Store holds a pgx connection pool and implements the read/write
// interfaces used across the service layer. All methods are safe for
// concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// Open establishes a pgx pool using the provided connection string.
func Open(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Close releases the underlying pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ready pings the pool to verify connectivity.
func (s *Store) Ready(ctx context.Context) error { return s.pool.Ping(ctx) }

// --- Account reads ---

// GetAccount fetches a single account by number.
func (s *Store) GetAccount(ctx context.Context, number string) (compta.Account, error) {
	var a compta.Account
	var side string
	err := s.pool.QueryRow(ctx, `
        select number, label, class, normal_side
        from accounts
        where number = $1
    `, number).Scan(&a.Number, &a.Label, &a.Class, &side)
	if errors.Is(err, pgx.ErrNoRows) {
		return compta.Account{}, errs.ErrNotFound
	}
	if err != nil {
		return compta.Account{}, err
	}
	a.NormalSide = compta.Side(side)
	return a, nil
}

// ListAccounts returns accounts within the class range, optionally only
// those with posted movements.
func (s *Store) ListAccounts(ctx context.Context, classMin, classMax int, onlyWithMovements bool) ([]compta.Account, error) {
	if classMin == 0 {
		classMin = 1
	}
	if classMax == 0 {
		classMax = 9
	}
	q := `
        select a.number, a.label, a.class, a.normal_side
        from accounts a
        where a.class between $1 and $2
        order by a.number
    `
	if onlyWithMovements {
		q = `
        select a.number, a.label, a.class, a.normal_side
        from accounts a
        where a.class between $1 and $2
          and exists (select 1 from entry_lines l where l.account_number = a.number)
        order by a.number
    `
	}
	rows, err := s.pool.Query(ctx, q, classMin, classMax)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]compta.Account, 0)
	for rows.Next() {
		var a compta.Account
		var side string
		if err := rows.Scan(&a.Number, &a.Label, &a.Class, &side); err != nil {
			return nil, err
		}
		a.NormalSide = compta.Side(side)
		out = append(out, a)
	}
	return out, rows.Err()
}

// --- Entry reads ---

// ListEntries returns entries matching the filter with lines populated,
// ordered asc by (date, id). Account and tiers constraints are applied on
// the lines after loading, matching the in-memory semantics.
func (s *Store) ListEntries(ctx context.Context, f compta.EntryFilter) ([]compta.JournalEntry, error) {
	q := `
        select id, date, journal, piece_ref
        from entries
        where ($1::timestamptz is null or date >= $1)
          and ($2::timestamptz is null or date <= $2)
          and ($3::text = '' or journal = $3)
        order by date asc, id asc
    `
	rows, err := s.pool.Query(ctx, q, f.From, f.To, string(f.Journal))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	entries := make([]compta.JournalEntry, 0)
	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var e compta.JournalEntry
		if err := rows.Scan(&e.ID, &e.Date, &e.Journal, &e.PieceRef); err != nil {
			return nil, err
		}
		entries = append(entries, e)
		ids = append(ids, e.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return entries, nil
	}
	lineRows, err := s.pool.Query(ctx, `
        select id, entry_id, account_number, debit_minor, credit_minor,
               coalesce(tiers_code, ''), label, coalesce(lettrage_code, ''), date
        from entry_lines
        where entry_id = any($1)
        order by entry_id asc, id asc
    `, ids)
	if err != nil {
		return nil, err
	}
	defer lineRows.Close()
	idx := make(map[uuid.UUID]*compta.JournalEntry, len(entries))
	for i := range entries {
		idx[entries[i].ID] = &entries[i]
	}
	for lineRows.Next() {
		var ln compta.EntryLine
		var debit, credit int64
		if err := lineRows.Scan(&ln.ID, &ln.EntryID, &ln.AccountNumber, &debit, &credit,
			&ln.TiersCode, &ln.Label, &ln.LettrageCode, &ln.Date); err != nil {
			return nil, err
		}
		e := idx[ln.EntryID]
		if e == nil {
			continue
		}
		ln.Debit = compta.MustAmount(currency, debit)
		ln.Credit = compta.MustAmount(currency, credit)
		e.Lines = append(e.Lines, ln)
	}
	if err := lineRows.Err(); err != nil {
		return nil, err
	}
	// Drop entries with no line matching the account/tiers constraints.
	out := entries[:0]
	for _, e := range entries {
		for _, ln := range e.Lines {
			if f.MatchLine(ln) {
				out = append(out, e)
				break
			}
		}
	}
	return out, nil
}

// --- Entry writes ---

// CreateEntry inserts an entry and its lines in a transaction, registering
// any new accounts with their plan-resolved side.
func (s *Store) CreateEntry(ctx context.Context, e compta.JournalEntry) (compta.JournalEntry, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return compta.JournalEntry{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if _, err := tx.Exec(ctx, `
        insert into entries (id, date, journal, piece_ref)
        values ($1,$2,$3,$4)
    `, e.ID, e.Date, string(e.Journal), e.PieceRef); err != nil {
		return compta.JournalEntry{}, err
	}
	for _, ln := range e.Lines {
		if _, err := tx.Exec(ctx, `
            insert into accounts (number, label, class, normal_side)
            values ($1, '', $2, $3)
            on conflict (number) do nothing
        `, ln.AccountNumber, plan.ClassOf(ln.AccountNumber), string(plan.NormalSide(ln.AccountNumber))); err != nil {
			return compta.JournalEntry{}, err
		}
		if _, err := tx.Exec(ctx, `
            insert into entry_lines
              (id, entry_id, account_number, debit_minor, credit_minor, tiers_code, label, lettrage_code, date)
            values ($1,$2,$3,$4,$5,nullif($6,''),$7,null,$8)
        `, ln.ID, e.ID, ln.AccountNumber, ln.DebitMinor(), ln.CreditMinor(), ln.TiersCode, ln.Label, e.Date); err != nil {
			return compta.JournalEntry{}, fmt.Errorf("insert line: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return compta.JournalEntry{}, err
	}
	return e, nil
}

// --- Lettrage writes ---

// ApplyLettrage stamps code on the referenced lines. The update only touches
// open lines; when fewer rows than requested are updated another operation
// holds part of the set and the transaction rolls back with errs.ErrConflict.
func (s *Store) ApplyLettrage(ctx context.Context, account, code string, refs []compta.LineRef) error {
	if code == "" || len(refs) == 0 {
		return errs.ErrInvalid
	}
	ids := make([]uuid.UUID, 0, len(refs))
	for _, r := range refs {
		ids = append(ids, r.LineID)
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	ct, err := tx.Exec(ctx, `
        update entry_lines
        set lettrage_code = $1
        where id = any($2) and account_number = $3 and lettrage_code is null
    `, code, ids, account)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != int64(len(ids)) {
		return errs.ErrConflict
	}
	return tx.Commit(ctx)
}

// ClearLettrage removes code from every line of the group atomically.
func (s *Store) ClearLettrage(ctx context.Context, account, code string) error {
	if code == "" {
		return errs.ErrInvalid
	}
	ct, err := s.pool.Exec(ctx, `
        update entry_lines
        set lettrage_code = null
        where account_number = $1 and lettrage_code = $2
    `, account, code)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return errs.ErrUnknownGroup
	}
	return nil
}

// --- Dev seed ---

// SeedDev inserts the conventional capture-pipeline accounts for quick local
// testing.
func (s *Store) SeedDev(ctx context.Context) ([]compta.Account, error) {
	numbers := map[string]string{
		"411": "Clients",
		"401": "Fournisseurs",
		"701": "Ventes de marchandises",
		"601": "Achats de marchandises",
		"521": "Banques locales",
		"571": "Caisse",
		"101": "Capital social",
		"12":  "Résultat de l'exercice",
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	accs := make([]compta.Account, 0, len(numbers))
	for number, label := range numbers {
		a := compta.Account{Number: number, Label: label, Class: plan.ClassOf(number), NormalSide: plan.NormalSide(number)}
		if _, err := tx.Exec(ctx, `
            insert into accounts (number, label, class, normal_side)
            values ($1,$2,$3,$4)
            on conflict (number) do update set label = excluded.label
        `, a.Number, a.Label, a.Class, string(a.NormalSide)); err != nil {
			return nil, err
		}
		accs = append(accs, a)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return accs, nil
}

// currency is the minor-unit currency the schema stores amounts in.
const currency = "XOF"
