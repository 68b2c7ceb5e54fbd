// Package memory provides a simple in-memory implementation of the ledger
// store contract used for development and tests. It keeps code paths easy to
// follow while allowing us to plug in a real DB later.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/siguialassane/fact-capture-ai-sub002/internal/compta"
	"github.com/siguialassane/fact-capture-ai-sub002/internal/errs"
	"github.com/siguialassane/fact-capture-ai-sub002/internal/plan"
)

// entryKey tracks ordering for entries: sorted asc by (Date, ID).
type entryKey struct {
	Date time.Time
	ID   uuid.UUID
}

// Store is an in-memory implementation of the repository and writer
// contracts. It is guarded by an RWMutex; lettrage writes are atomic per
// group under the write lock, which gives the later of two overlapping
// attempts a clean conflict.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]compta.Account
	entries  map[uuid.UUID]*compta.JournalEntry
	// Sorted index of entries for ordered scans.
	entryKeys []entryKey
}

// New constructs an empty in-memory store.
func New() *Store {
	return &Store{
		accounts: make(map[string]compta.Account),
		entries:  make(map[uuid.UUID]*compta.JournalEntry),
	}
}

// SeedAccount registers an account for local dev/tests.
func (s *Store) SeedAccount(a compta.Account) {
	s.mu.Lock()
	s.accounts[a.Number] = a
	s.mu.Unlock()
}

// Reset drops all data.
func (s *Store) Reset() {
	s.mu.Lock()
	s.accounts = map[string]compta.Account{}
	s.entries = map[uuid.UUID]*compta.JournalEntry{}
	s.entryKeys = nil
	s.mu.Unlock()
}

// CreateEntry persists a posted entry. Accounts referenced for the first
// time are registered with their side resolved from the plan.
func (s *Store) CreateEntry(_ context.Context, entry compta.JournalEntry) (compta.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := entry
	e.Lines = append([]compta.EntryLine(nil), entry.Lines...)
	for i := range e.Lines {
		if _, ok := s.accounts[e.Lines[i].AccountNumber]; !ok {
			n := e.Lines[i].AccountNumber
			s.accounts[n] = compta.Account{Number: n, Class: plan.ClassOf(n), NormalSide: plan.NormalSide(n)}
		}
	}
	s.entries[e.ID] = &e
	s.insertEntryIndexLocked(entryKey{Date: e.Date, ID: e.ID})
	return e, nil
}

// ListEntries returns entries matching the filter, ordered asc by (date, id).
// An entry is included when its header matches and at least one line passes
// the account/tiers constraints.
func (s *Store) ListEntries(_ context.Context, f compta.EntryFilter) ([]compta.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]compta.JournalEntry, 0, len(s.entryKeys))
	for _, k := range s.entryKeys {
		e, ok := s.entries[k.ID]
		if !ok || !f.MatchEntry(*e) {
			continue
		}
		match := false
		for _, ln := range e.Lines {
			if f.MatchLine(ln) {
				match = true
				break
			}
		}
		if !match {
			continue
		}
		cp := *e
		cp.Lines = append([]compta.EntryLine(nil), e.Lines...)
		out = append(out, cp)
	}
	return out, nil
}

// GetAccount resolves an account by number.
func (s *Store) GetAccount(_ context.Context, number string) (compta.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[number]
	if !ok {
		return compta.Account{}, errs.ErrNotFound
	}
	return a, nil
}

// ListAccounts returns accounts within the class range, optionally only
// those with posted movements.
func (s *Store) ListAccounts(_ context.Context, classMin, classMax int, onlyWithMovements bool) ([]compta.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	moved := map[string]bool{}
	if onlyWithMovements {
		for _, e := range s.entries {
			for _, ln := range e.Lines {
				moved[ln.AccountNumber] = true
			}
		}
	}
	out := make([]compta.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		if classMin != 0 && a.Class < classMin {
			continue
		}
		if classMax != 0 && a.Class > classMax {
			continue
		}
		if onlyWithMovements && !moved[a.Number] {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

// ApplyLettrage stamps code on the referenced lines of one account. The
// whole set is verified before any line is touched: an unknown line or one
// already carrying a code fails the operation with errs.ErrConflict and
// leaves everything unchanged.
func (s *Store) ApplyLettrage(_ context.Context, account, code string, refs []compta.LineRef) error {
	if code == "" || len(refs) == 0 {
		return errs.ErrInvalid
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	targets := make([]*compta.EntryLine, 0, len(refs))
	for _, ref := range refs {
		e, ok := s.entries[ref.EntryID]
		if !ok {
			return errs.ErrConflict
		}
		var ln *compta.EntryLine
		for i := range e.Lines {
			if e.Lines[i].ID == ref.LineID {
				ln = &e.Lines[i]
				break
			}
		}
		if ln == nil || ln.AccountNumber != account {
			return errs.ErrConflict
		}
		if ln.LettrageCode != "" {
			return errs.ErrConflict
		}
		targets = append(targets, ln)
	}
	for _, ln := range targets {
		ln.LettrageCode = code
	}
	return nil
}

// ClearLettrage removes code from every line of the group atomically.
func (s *Store) ClearLettrage(_ context.Context, account, code string) error {
	if code == "" {
		return errs.ErrInvalid
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	targets := make([]*compta.EntryLine, 0, 4)
	for _, e := range s.entries {
		for i := range e.Lines {
			if e.Lines[i].AccountNumber == account && e.Lines[i].LettrageCode == code {
				targets = append(targets, &e.Lines[i])
			}
		}
	}
	if len(targets) == 0 {
		return errs.ErrUnknownGroup
	}
	for _, ln := range targets {
		ln.LettrageCode = ""
	}
	return nil
}

// insertEntryIndexLocked inserts k into the sorted index, keeping order asc
// by (Date, ID). Caller must hold s.mu (write lock).
func (s *Store) insertEntryIndexLocked(k entryKey) {
	keys := s.entryKeys
	i := sort.Search(len(keys), func(i int) bool {
		if keys[i].Date.After(k.Date) {
			return true
		}
		if keys[i].Date.Equal(k.Date) {
			return keys[i].ID.String() > k.ID.String()
		}
		return false
	})
	if i == len(keys) {
		s.entryKeys = append(keys, k)
		return
	}
	keys = append(keys, entryKey{})
	copy(keys[i+1:], keys[i:])
	keys[i] = k
	s.entryKeys = keys
}
