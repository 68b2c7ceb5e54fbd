// Package lettrage implements debit/credit reconciliation on counterpart
// accounts: grouping open lines into zero-net clusters and stamping them
// with a shared lettrage code.
//
// Matching is deterministic. Exact one-to-one pairs are taken first, then a
// bounded many-to-one subset search; lines that cannot cancel exactly stay
// open. Ties resolve to the smallest-cardinality, then earliest-date match.
package lettrage

import (
	"context"
	"sort"
	"strconv"

	"github.com/siguialassane/fact-capture-ai-sub002/internal/compta"
	"github.com/siguialassane/fact-capture-ai-sub002/internal/config"
	"github.com/siguialassane/fact-capture-ai-sub002/internal/errs"
)

// Repo defines the read side consumed from the ledger store.
type Repo interface {
	ListEntries(ctx context.Context, f compta.EntryFilter) ([]compta.JournalEntry, error)
	GetAccount(ctx context.Context, number string) (compta.Account, error)
}

// Writer persists lettrage code changes. Both operations are transactional
// per group: overlapping concurrent applies must fail with errs.ErrConflict
// rather than overwrite.
type Writer interface {
	ApplyLettrage(ctx context.Context, account, code string, refs []compta.LineRef) error
	ClearLettrage(ctx context.Context, account, code string) error
}

// Match is one reconciliation group produced by AutoMatch.
type Match struct {
	Code  string
	Lines []compta.LineRef
}

// Result summarizes an AutoMatch run over one account.
type Result struct {
	Account   string
	Matches   []Match
	OpenLines int
}

// Service exposes the reconciliation operations.
type Service interface {
	// AutoMatch groups open lines of the account into zero-net clusters and
	// applies a fresh code to each.
	AutoMatch(ctx context.Context, account string) (Result, error)
	// Letter applies a code to an explicit set of open lines; the set must
	// net to zero.
	Letter(ctx context.Context, account string, lines []compta.LineRef) (compta.LettrageGroup, error)
	// Unletter atomically clears a whole group.
	Unletter(ctx context.Context, account, code string) error
}

type service struct {
	repo   Repo
	writer Writer
	cfg    config.Lettrage
}

// New constructs the reconciliation service.
func New(repo Repo, writer Writer, cfg config.Lettrage) Service {
	return &service{repo: repo, writer: writer, cfg: cfg}
}

// openLine is the working view of an unreconciled line.
type openLine struct {
	ref   compta.LineRef
	line  compta.EntryLine
	minor int64 // always positive; side tracked separately
	side  compta.Side
}

// loadLines returns the account's lines ordered by (date, entry id), split
// into open and lettered. The existing codes are collected so fresh codes
// never collide.
func (s *service) loadLines(ctx context.Context, account string) (open []openLine, usedCodes map[string]bool, err error) {
	if _, err := s.repo.GetAccount(ctx, account); err != nil {
		return nil, nil, err
	}
	entries, err := s.repo.ListEntries(ctx, compta.EntryFilter{AccountMin: account, AccountMax: account})
	if err != nil {
		return nil, nil, err
	}
	usedCodes = make(map[string]bool)
	for _, e := range entries {
		for _, ln := range e.Lines {
			if ln.AccountNumber != account {
				continue
			}
			if ln.Lettered() {
				usedCodes[ln.LettrageCode] = true
				continue
			}
			ol := openLine{
				ref:  compta.LineRef{EntryID: ln.EntryID, LineID: ln.ID},
				line: ln,
				side: ln.Side(),
			}
			if ol.side == compta.SideDebit {
				ol.minor = ln.DebitMinor()
			} else {
				ol.minor = ln.CreditMinor()
			}
			open = append(open, ol)
		}
	}
	sort.SliceStable(open, func(i, j int) bool {
		if open[i].line.Date.Equal(open[j].line.Date) {
			return open[i].line.EntryID.String() < open[j].line.EntryID.String()
		}
		return open[i].line.Date.Before(open[j].line.Date)
	})
	return open, usedCodes, nil
}

// nextCode yields "AA", "AB", … skipping codes already on the account.
func nextCode(used map[string]bool) string {
	for hi := byte('A'); hi <= 'Z'; hi++ {
		for lo := byte('A'); lo <= 'Z'; lo++ {
			code := string([]byte{hi, lo})
			if !used[code] {
				used[code] = true
				return code
			}
		}
	}
	// 676 groups per account exhausted; extend with a numeric suffix.
	for n := 1; ; n++ {
		code := "Z" + strconv.Itoa(n)
		if !used[code] {
			used[code] = true
			return code
		}
	}
}

// AutoMatch runs the deterministic matching policy and persists each group
// as it closes. A store-level conflict aborts the run and is surfaced as-is.
func (s *service) AutoMatch(ctx context.Context, account string) (Result, error) {
	open, used, err := s.loadLines(ctx, account)
	if err != nil {
		return Result{}, err
	}

	res := Result{Account: account}
	taken := make([]bool, len(open))

	apply := func(idxs []int) error {
		code := nextCode(used)
		refs := make([]compta.LineRef, 0, len(idxs))
		for _, i := range idxs {
			refs = append(refs, open[i].ref)
		}
		if err := s.writer.ApplyLettrage(ctx, account, code, refs); err != nil {
			return err
		}
		for _, i := range idxs {
			taken[i] = true
		}
		res.Matches = append(res.Matches, Match{Code: code, Lines: refs})
		return nil
	}

	// Phase 1: exact one-to-one matches, earliest debit against the earliest
	// credit of the same amount.
	creditsByAmount := make(map[int64][]int)
	for i, ol := range open {
		if ol.side == compta.SideCredit {
			creditsByAmount[ol.minor] = append(creditsByAmount[ol.minor], i)
		}
	}
	for i, ol := range open {
		if taken[i] || ol.side != compta.SideDebit {
			continue
		}
		queue := creditsByAmount[ol.minor]
		for len(queue) > 0 && taken[queue[0]] {
			queue = queue[1:]
		}
		creditsByAmount[ol.minor] = queue
		if len(queue) == 0 {
			continue
		}
		j := queue[0]
		creditsByAmount[ol.minor] = queue[1:]
		if err := apply([]int{i, j}); err != nil {
			return res, err
		}
	}

	// Phase 2: many-to-one subset matches, bounded to stay tractable.
	for i := range open {
		if taken[i] {
			continue
		}
		subset := s.findSubset(open, taken, i)
		if subset == nil {
			continue
		}
		if err := apply(append([]int{i}, subset...)); err != nil {
			return res, err
		}
	}

	for _, t := range taken {
		if !t {
			res.OpenLines++
		}
	}
	return res, nil
}

// findSubset searches the opposite side for a subset of lines summing to
// open[target]. Candidates sharing the target's tiers code are tried before
// the rest, the pool is capped at cfg.MaxCandidates and subsets at
// cfg.MaxSubsetSize lines. Sizes are tried in increasing order and candidates
// scanned in ledger order, so the smallest-cardinality, earliest-date match
// wins deterministically.
func (s *service) findSubset(open []openLine, taken []bool, target int) []int {
	want := open[target].minor
	side := open[target].side.Opposite()
	tiers := open[target].line.TiersCode

	var sameTiers, others []int
	for i, ol := range open {
		if taken[i] || i == target || ol.side != side || ol.minor > want {
			continue
		}
		if tiers != "" && ol.line.TiersCode == tiers {
			sameTiers = append(sameTiers, i)
		} else {
			others = append(others, i)
		}
	}
	candidates := append(sameTiers, others...)
	if len(candidates) > s.cfg.MaxCandidates {
		candidates = candidates[:s.cfg.MaxCandidates]
	}
	// Singles are handled by the pairwise phase; start at two lines.
	for size := 2; size <= s.cfg.MaxSubsetSize; size++ {
		if subset := searchExact(candidates, open, size, want); subset != nil {
			return subset
		}
	}
	return nil
}

// searchExact finds the first subset of exactly size candidates summing to
// want. The scan order makes the result deterministic.
func searchExact(candidates []int, open []openLine, size int, want int64) []int {
	if len(candidates) < size {
		return nil
	}
	var found []int
	pick := make([]int, 0, size)
	var rec func(start int, remaining int64) bool
	rec = func(start int, remaining int64) bool {
		if len(pick) == size {
			return remaining == 0
		}
		need := size - len(pick)
		for i := start; i <= len(candidates)-need; i++ {
			c := candidates[i]
			if open[c].minor > remaining {
				continue
			}
			pick = append(pick, c)
			if rec(i+1, remaining-open[c].minor) {
				if found == nil {
					found = append([]int(nil), pick...)
				}
				return true
			}
			pick = pick[:len(pick)-1]
		}
		return false
	}
	if rec(0, want) {
		return found
	}
	return nil
}

// Letter validates and applies a caller-supplied group.
func (s *service) Letter(ctx context.Context, account string, refs []compta.LineRef) (compta.LettrageGroup, error) {
	if len(refs) == 0 {
		return compta.LettrageGroup{}, errs.ErrInvalid
	}
	open, used, err := s.loadLines(ctx, account)
	if err != nil {
		return compta.LettrageGroup{}, err
	}
	byRef := make(map[compta.LineRef]openLine, len(open))
	for _, ol := range open {
		byRef[ol.ref] = ol
	}
	var net int64
	for _, ref := range refs {
		ol, ok := byRef[ref]
		if !ok {
			// Either unknown or already lettered; both are conflicts with the
			// caller's view of the account.
			return compta.LettrageGroup{}, errs.ErrAlreadyLettered
		}
		net += ol.line.NetMinor()
	}
	if net != 0 {
		return compta.LettrageGroup{AccountNumber: account, Lines: refs, NetMinor: net}, errs.ErrUnbalancedGroup
	}
	code := nextCode(used)
	if err := s.writer.ApplyLettrage(ctx, account, code, refs); err != nil {
		return compta.LettrageGroup{}, err
	}
	return compta.LettrageGroup{Code: code, AccountNumber: account, Lines: refs}, nil
}

// Unletter clears every line of the group in one atomic store operation.
func (s *service) Unletter(ctx context.Context, account, code string) error {
	if code == "" {
		return errs.ErrInvalid
	}
	if _, err := s.repo.GetAccount(ctx, account); err != nil {
		return err
	}
	return s.writer.ClearLettrage(ctx, account, code)
}
