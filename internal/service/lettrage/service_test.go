package lettrage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siguialassane/fact-capture-ai-sub002/internal/compta"
	"github.com/siguialassane/fact-capture-ai-sub002/internal/config"
	"github.com/siguialassane/fact-capture-ai-sub002/internal/errs"
	ledgersvc "github.com/siguialassane/fact-capture-ai-sub002/internal/service/ledger"
	"github.com/siguialassane/fact-capture-ai-sub002/internal/storage/memory"
)

const curr = "XOF"

type fixture struct {
	store  *memory.Store
	ledger ledgersvc.Service
	svc    Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	cfg := config.Default()
	return &fixture{
		store:  store,
		ledger: ledgersvc.New(store, store, cfg),
		svc:    New(store, store, cfg.Lettrage),
	}
}

func date(d int) time.Time {
	return time.Date(2025, 3, d, 0, 0, 0, 0, time.UTC)
}

// post writes a two-sided entry moving minor through account 411 against 701
// or 521 depending on the direction.
func (f *fixture) invoice(t *testing.T, day int, minor int64, tiers string) compta.JournalEntry {
	t.Helper()
	e, err := f.ledger.PostEntry(context.Background(), compta.JournalEntry{
		Date: date(day), Journal: compta.JournalVentes,
		Lines: []compta.EntryLine{
			{AccountNumber: "411", Debit: compta.MustAmount(curr, minor), Credit: compta.MustAmount(curr, 0), TiersCode: tiers},
			{AccountNumber: "701", Debit: compta.MustAmount(curr, 0), Credit: compta.MustAmount(curr, minor)},
		},
	})
	require.NoError(t, err)
	return e
}

func (f *fixture) payment(t *testing.T, day int, minor int64, tiers string) compta.JournalEntry {
	t.Helper()
	e, err := f.ledger.PostEntry(context.Background(), compta.JournalEntry{
		Date: date(day), Journal: compta.JournalBanque,
		Lines: []compta.EntryLine{
			{AccountNumber: "521", Debit: compta.MustAmount(curr, minor), Credit: compta.MustAmount(curr, 0)},
			{AccountNumber: "411", Debit: compta.MustAmount(curr, 0), Credit: compta.MustAmount(curr, minor), TiersCode: tiers},
		},
	})
	require.NoError(t, err)
	return e
}

func (f *fixture) openLines(t *testing.T) []ledgersvc.Line {
	t.Helper()
	rec, err := f.ledger.Ledger(context.Background(), ledgersvc.Query{Account: "411"})
	require.NoError(t, err)
	return rec.Lines
}

func TestAutoMatch_ExactPair(t *testing.T) {
	f := newFixture(t)
	f.invoice(t, 1, 100000, "CLI-1")
	f.payment(t, 10, 100000, "CLI-1")

	res, err := f.svc.AutoMatch(context.Background(), "411")
	require.NoError(t, err)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, "AA", res.Matches[0].Code)
	assert.Len(t, res.Matches[0].Lines, 2)
	assert.Zero(t, res.OpenLines)
	assert.Empty(t, f.openLines(t))
}

func TestAutoMatch_ManyToOne(t *testing.T) {
	f := newFixture(t)
	f.invoice(t, 1, 100000, "CLI-1")
	f.payment(t, 10, 60000, "CLI-1")
	f.payment(t, 20, 40000, "CLI-1")

	res, err := f.svc.AutoMatch(context.Background(), "411")
	require.NoError(t, err)
	require.Len(t, res.Matches, 1)
	assert.Len(t, res.Matches[0].Lines, 3)
	assert.Zero(t, res.OpenLines)
}

func TestAutoMatch_PrefersSmallestGroup(t *testing.T) {
	f := newFixture(t)
	f.invoice(t, 1, 100000, "CLI-1")
	// An exact settlement and a pair that also sums to the target.
	f.payment(t, 5, 60000, "CLI-1")
	f.payment(t, 6, 40000, "CLI-1")
	f.payment(t, 10, 100000, "CLI-1")

	res, err := f.svc.AutoMatch(context.Background(), "411")
	require.NoError(t, err)
	require.NotEmpty(t, res.Matches)
	// The pairwise phase wins: the invoice pairs with the exact payment.
	assert.Len(t, res.Matches[0].Lines, 2)
}

func TestAutoMatch_SameTiersFirst(t *testing.T) {
	f := newFixture(t)
	f.invoice(t, 1, 100000, "CLI-1")
	// Two candidate pairs summing to 100000; only one shares the tiers code.
	f.payment(t, 5, 60000, "CLI-2")
	f.payment(t, 6, 40000, "CLI-2")
	f.payment(t, 7, 60000, "CLI-1")
	f.payment(t, 8, 40000, "CLI-1")

	res, err := f.svc.AutoMatch(context.Background(), "411")
	require.NoError(t, err)
	require.NotEmpty(t, res.Matches)

	matched := map[string]bool{}
	for _, ref := range res.Matches[0].Lines {
		matched[ref.LineID.String()] = true
	}
	rec, err := f.ledger.Ledger(context.Background(), ledgersvc.Query{Account: "411", IncludeReconciled: true})
	require.NoError(t, err)
	for _, ln := range rec.Lines {
		if matched[ln.ID.String()] && ln.Side() == compta.SideCredit {
			assert.Equal(t, "CLI-1", ln.TiersCode, "same-tiers candidates must win")
		}
	}
}

func TestAutoMatch_RespectsSubsetBound(t *testing.T) {
	f := newFixture(t)
	f.invoice(t, 1, 100000, "CLI-1")
	// Five payments of 20000: a settlement exists but exceeds MaxSubsetSize.
	for d := 2; d <= 6; d++ {
		f.payment(t, d, 20000, "CLI-1")
	}

	res, err := f.svc.AutoMatch(context.Background(), "411")
	require.NoError(t, err)
	assert.Empty(t, res.Matches)
	assert.Equal(t, 6, res.OpenLines)
}

func TestAutoMatch_LeavesUnmatchedOpen(t *testing.T) {
	f := newFixture(t)
	f.invoice(t, 1, 100000, "CLI-1")
	f.payment(t, 10, 70000, "CLI-1")

	res, err := f.svc.AutoMatch(context.Background(), "411")
	require.NoError(t, err)
	assert.Empty(t, res.Matches)
	assert.Equal(t, 2, res.OpenLines)
}

func TestAutoMatch_UnknownAccount(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.AutoMatch(context.Background(), "999")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestLetter_ManualGroup(t *testing.T) {
	f := newFixture(t)
	inv := f.invoice(t, 1, 100000, "CLI-1")
	pay := f.payment(t, 10, 100000, "CLI-1")

	refs := []compta.LineRef{
		{EntryID: inv.ID, LineID: inv.Lines[0].ID},
		{EntryID: pay.ID, LineID: pay.Lines[1].ID},
	}
	group, err := f.svc.Letter(context.Background(), "411", refs)
	require.NoError(t, err)
	assert.Equal(t, "AA", group.Code)
	assert.True(t, group.Closed())

	// The same lines cannot join a second group.
	_, err = f.svc.Letter(context.Background(), "411", refs)
	assert.ErrorIs(t, err, errs.ErrAlreadyLettered)
}

func TestLetter_RejectsUnbalancedGroup(t *testing.T) {
	f := newFixture(t)
	inv := f.invoice(t, 1, 100000, "CLI-1")
	pay := f.payment(t, 10, 70000, "CLI-1")

	_, err := f.svc.Letter(context.Background(), "411", []compta.LineRef{
		{EntryID: inv.ID, LineID: inv.Lines[0].ID},
		{EntryID: pay.ID, LineID: pay.Lines[1].ID},
	})
	assert.ErrorIs(t, err, errs.ErrUnbalancedGroup)

	// Nothing was stamped.
	assert.Len(t, f.openLines(t), 2)
}

func TestUnletter_ReopensWholeGroup(t *testing.T) {
	f := newFixture(t)
	f.invoice(t, 1, 100000, "CLI-1")
	f.payment(t, 10, 60000, "CLI-1")
	f.payment(t, 20, 40000, "CLI-1")

	res, err := f.svc.AutoMatch(context.Background(), "411")
	require.NoError(t, err)
	require.Len(t, res.Matches, 1)

	require.NoError(t, f.svc.Unletter(context.Background(), "411", res.Matches[0].Code))
	assert.Len(t, f.openLines(t), 3)

	// A second clear reports the group as unknown.
	assert.ErrorIs(t, f.svc.Unletter(context.Background(), "411", res.Matches[0].Code), errs.ErrUnknownGroup)
}

func TestAutoMatch_FreshCodesSkipUsed(t *testing.T) {
	f := newFixture(t)
	inv := f.invoice(t, 1, 50000, "CLI-1")
	pay := f.payment(t, 2, 50000, "CLI-1")
	require.NoError(t, f.store.ApplyLettrage(context.Background(), "411", "AA", []compta.LineRef{
		{EntryID: inv.ID, LineID: inv.Lines[0].ID},
		{EntryID: pay.ID, LineID: pay.Lines[1].ID},
	}))
	f.invoice(t, 3, 70000, "CLI-2")
	f.payment(t, 4, 70000, "CLI-2")

	res, err := f.svc.AutoMatch(context.Background(), "411")
	require.NoError(t, err)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, "AB", res.Matches[0].Code)
}
