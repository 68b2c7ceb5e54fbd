package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/siguialassane/fact-capture-ai-sub002/internal/compta"
	"github.com/siguialassane/fact-capture-ai-sub002/internal/errs"
)

const curr = "XOF"

func entry(d time.Time, journal compta.JournalCode, minor int64, tiers string) compta.JournalEntry {
	id := uuid.New()
	return compta.JournalEntry{
		ID:      id,
		Date:    d,
		Journal: journal,
		Lines: []compta.EntryLine{
			{ID: uuid.New(), EntryID: id, AccountNumber: "411", Debit: compta.MustAmount(curr, minor), Credit: compta.MustAmount(curr, 0), TiersCode: tiers, Date: d},
			{ID: uuid.New(), EntryID: id, AccountNumber: "701", Debit: compta.MustAmount(curr, 0), Credit: compta.MustAmount(curr, minor), Date: d},
		},
	}
}

func date(d int) time.Time { return time.Date(2025, 3, d, 0, 0, 0, 0, time.UTC) }

func TestCreateAndList_Ordered(t *testing.T) {
	s := New()
	ctx := context.Background()
	// Insert out of order; reads come back ordered by (date, id).
	for _, d := range []int{20, 5, 12} {
		if _, err := s.CreateEntry(ctx, entry(date(d), compta.JournalVentes, 1000, "")); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	entries, err := s.ListEntries(ctx, compta.EntryFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].Date.Before(entries[i-1].Date) {
			t.Fatalf("entries out of order")
		}
	}
}

func TestCreateEntry_RegistersAccounts(t *testing.T) {
	s := New()
	ctx := context.Background()
	if _, err := s.GetAccount(ctx, "411"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("want ErrNotFound before any entry, got %v", err)
	}
	if _, err := s.CreateEntry(ctx, entry(date(1), compta.JournalVentes, 1000, "")); err != nil {
		t.Fatalf("create: %v", err)
	}
	a, err := s.GetAccount(ctx, "411")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if a.Class != 4 || a.NormalSide != compta.SideDebit {
		t.Fatalf("unexpected account: %+v", a)
	}
}

func TestListEntries_Filters(t *testing.T) {
	s := New()
	ctx := context.Background()
	if _, err := s.CreateEntry(ctx, entry(date(1), compta.JournalVentes, 1000, "CLI-1")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.CreateEntry(ctx, entry(date(10), compta.JournalBanque, 2000, "CLI-2")); err != nil {
		t.Fatalf("create: %v", err)
	}

	byJournal, err := s.ListEntries(ctx, compta.EntryFilter{Journal: compta.JournalBanque})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(byJournal) != 1 {
		t.Fatalf("journal filter: got %d entries", len(byJournal))
	}

	from := date(5)
	byDate, err := s.ListEntries(ctx, compta.EntryFilter{From: &from})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(byDate) != 1 || !byDate[0].Date.Equal(date(10)) {
		t.Fatalf("date filter: %+v", byDate)
	}

	byTiers, err := s.ListEntries(ctx, compta.EntryFilter{Tiers: "CLI-1"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(byTiers) != 1 {
		t.Fatalf("tiers filter: got %d entries", len(byTiers))
	}
}

func TestListEntries_ReturnsCopies(t *testing.T) {
	s := New()
	ctx := context.Background()
	if _, err := s.CreateEntry(ctx, entry(date(1), compta.JournalVentes, 1000, "")); err != nil {
		t.Fatalf("create: %v", err)
	}
	first, _ := s.ListEntries(ctx, compta.EntryFilter{})
	first[0].Lines[0].LettrageCode = "ZZ"
	second, _ := s.ListEntries(ctx, compta.EntryFilter{})
	if second[0].Lines[0].LettrageCode != "" {
		t.Fatalf("store state mutated through a returned copy")
	}
}

func TestApplyLettrage_AtomicConflict(t *testing.T) {
	s := New()
	ctx := context.Background()
	e1, _ := s.CreateEntry(ctx, entry(date(1), compta.JournalVentes, 1000, ""))
	e2, _ := s.CreateEntry(ctx, entry(date(2), compta.JournalVentes, 2000, ""))

	ref1 := compta.LineRef{EntryID: e1.ID, LineID: e1.Lines[0].ID}
	ref2 := compta.LineRef{EntryID: e2.ID, LineID: e2.Lines[0].ID}

	if err := s.ApplyLettrage(ctx, "411", "AA", []compta.LineRef{ref1}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	// One already-lettered ref poisons the whole batch; the open ref must
	// stay untouched.
	err := s.ApplyLettrage(ctx, "411", "AB", []compta.LineRef{ref1, ref2})
	if !errors.Is(err, errs.ErrConflict) {
		t.Fatalf("want ErrConflict, got %v", err)
	}
	entries, _ := s.ListEntries(ctx, compta.EntryFilter{})
	for _, e := range entries {
		for _, ln := range e.Lines {
			if ln.ID == ref2.LineID && ln.LettrageCode != "" {
				t.Fatalf("batch partially applied")
			}
		}
	}
}

func TestApplyLettrage_WrongAccount(t *testing.T) {
	s := New()
	ctx := context.Background()
	e1, _ := s.CreateEntry(ctx, entry(date(1), compta.JournalVentes, 1000, ""))
	// Lines[1] belongs to 701, not 411.
	err := s.ApplyLettrage(ctx, "411", "AA", []compta.LineRef{{EntryID: e1.ID, LineID: e1.Lines[1].ID}})
	if !errors.Is(err, errs.ErrConflict) {
		t.Fatalf("want ErrConflict, got %v", err)
	}
}

func TestClearLettrage(t *testing.T) {
	s := New()
	ctx := context.Background()
	e1, _ := s.CreateEntry(ctx, entry(date(1), compta.JournalVentes, 1000, ""))
	ref := compta.LineRef{EntryID: e1.ID, LineID: e1.Lines[0].ID}
	if err := s.ApplyLettrage(ctx, "411", "AA", []compta.LineRef{ref}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := s.ClearLettrage(ctx, "411", "AA"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := s.ClearLettrage(ctx, "411", "AA"); !errors.Is(err, errs.ErrUnknownGroup) {
		t.Fatalf("want ErrUnknownGroup, got %v", err)
	}
}

func TestListAccounts(t *testing.T) {
	s := New()
	ctx := context.Background()
	s.SeedAccount(compta.Account{Number: "101", Class: 1, NormalSide: compta.SideCredit})
	if _, err := s.CreateEntry(ctx, entry(date(1), compta.JournalVentes, 1000, "")); err != nil {
		t.Fatalf("create: %v", err)
	}
	all, err := s.ListAccounts(ctx, 1, 9, false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 accounts, got %d", len(all))
	}
	moved, err := s.ListAccounts(ctx, 1, 9, true)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(moved) != 2 {
		t.Fatalf("expected 2 accounts with movements, got %d", len(moved))
	}
}
