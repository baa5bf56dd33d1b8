// Package matcher pairs ledger-side transactions with external ones.
//
// Matching is pure and deterministic: the same two input sets always yield
// the same Result, whatever order the inputs arrive in. Nothing here blocks
// or returns an error; rows that cannot be paired are reported as unmatched.
package matcher

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// Kind is the pass that produced a pair.
type Kind string

const (
	KindExact Kind = "EXACT"
	KindNear  Kind = "NEAR"
)

// Candidate is one transaction offered for matching. Amount is signed:
// debits positive, credits negative.
type Candidate struct {
	ID        string
	Date      time.Time
	Amount    decimal.Decimal
	Reference string
}

// Pair is a matched ledger/external couple.
type Pair struct {
	LedgerID   string
	ExternalID string
	Kind       Kind
	DateDelta  int
}

// Suggestion is a reference-similarity hint for a row that stayed unmatched.
// Suggestions are never applied automatically.
type Suggestion struct {
	ExternalID string
	LedgerID   string
	Similarity float64
}

// Result is the outcome of a matching run.
type Result struct {
	Matches           []Pair
	UnmatchedLedger   []string
	UnmatchedExternal []string
	Suggestions       []Suggestion
}

// Options tunes the matching passes.
type Options struct {
	// AmountTolerance is the largest absolute amount difference still treated as equal.
	AmountTolerance decimal.Decimal
	// DateWindowDays bounds the date distance accepted by the near pass.
	DateWindowDays int
	// SuggestionThreshold is the minimum reference similarity (0..1) for a
	// suggestion. Zero disables suggestions.
	SuggestionThreshold float64
}

// DefaultOptions matches within one cent and three days, without suggestions.
func DefaultOptions() Options {
	return Options{
		AmountTolerance: decimal.New(1, -2),
		DateWindowDays:  3,
	}
}

// Match runs the exact pass, then the near pass, then collects leftovers.
func Match(ledger, external []Candidate, opts Options) Result {
	ledger = sortedCopy(ledger)
	external = sortedCopy(external)

	usedLedger := make(map[string]bool, len(ledger))
	usedExternal := make(map[string]bool, len(external))
	result := Result{Matches: []Pair{}}

	// Exact pass: same date, same sign, amount within tolerance.
	// externals are sorted by id, so the first hit is the lowest id.
	for _, l := range ledger {
		for _, e := range external {
			if usedExternal[e.ID] {
				continue
			}
			if dayDelta(l.Date, e.Date) == 0 && amountsAgree(l.Amount, e.Amount, opts.AmountTolerance) {
				result.Matches = append(result.Matches, Pair{LedgerID: l.ID, ExternalID: e.ID, Kind: KindExact})
				usedLedger[l.ID] = true
				usedExternal[e.ID] = true
				break
			}
		}
	}

	// Near pass: greedy assignment over candidates ordered by
	// (date delta, ledger id, external id).
	var candidates []Pair
	for _, l := range ledger {
		if usedLedger[l.ID] {
			continue
		}
		for _, e := range external {
			if usedExternal[e.ID] {
				continue
			}
			delta := dayDelta(l.Date, e.Date)
			if delta <= opts.DateWindowDays && amountsAgree(l.Amount, e.Amount, opts.AmountTolerance) {
				candidates = append(candidates, Pair{LedgerID: l.ID, ExternalID: e.ID, Kind: KindNear, DateDelta: delta})
			}
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.DateDelta != b.DateDelta {
			return a.DateDelta < b.DateDelta
		}
		if a.LedgerID != b.LedgerID {
			return a.LedgerID < b.LedgerID
		}
		return a.ExternalID < b.ExternalID
	})
	for _, c := range candidates {
		if usedLedger[c.LedgerID] || usedExternal[c.ExternalID] {
			continue
		}
		result.Matches = append(result.Matches, c)
		usedLedger[c.LedgerID] = true
		usedExternal[c.ExternalID] = true
	}

	result.UnmatchedLedger = unused(ledger, usedLedger)
	result.UnmatchedExternal = unused(external, usedExternal)

	if opts.SuggestionThreshold > 0 {
		result.Suggestions = suggest(ledger, external, usedLedger, usedExternal, opts.SuggestionThreshold)
	}
	return result
}

// suggest proposes, for each unmatched external row, the unmatched ledger
// row of the same sign whose reference is most similar.
func suggest(ledger, external []Candidate, usedLedger, usedExternal map[string]bool, threshold float64) []Suggestion {
	var out []Suggestion
	for _, e := range external {
		if usedExternal[e.ID] || e.Reference == "" {
			continue
		}
		best := Suggestion{}
		for _, l := range ledger {
			if usedLedger[l.ID] || l.Reference == "" || l.Amount.Sign() != e.Amount.Sign() {
				continue
			}
			score := Similarity(l.Reference, e.Reference)
			if score > best.Similarity {
				best = Suggestion{ExternalID: e.ID, LedgerID: l.ID, Similarity: score}
			}
		}
		if best.LedgerID != "" && best.Similarity >= threshold {
			out = append(out, best)
		}
	}
	return out
}

// Similarity scores two references between 0 (nothing in common) and 1
// (identical after case folding), as (len(a)+len(b)-distance)/(len(a)+len(b)).
func Similarity(a, b string) float64 {
	ra := []rune(strings.ToLower(strings.TrimSpace(a)))
	rb := []rune(strings.ToLower(strings.TrimSpace(b)))
	total := len(ra) + len(rb)
	if total == 0 {
		return 0
	}
	distance := levenshtein.DistanceForStrings(ra, rb, levenshtein.DefaultOptions)
	return float64(total-distance) / float64(total)
}

func amountsAgree(a, b, tolerance decimal.Decimal) bool {
	if a.Sign() != b.Sign() {
		return false
	}
	return a.Sub(b).Abs().LessThanOrEqual(tolerance)
}

func dayDelta(a, b time.Time) int {
	d := int(dayOf(a).Sub(dayOf(b)).Hours() / 24)
	if d < 0 {
		return -d
	}
	return d
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sortedCopy(in []Candidate) []Candidate {
	out := make([]Candidate, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func unused(in []Candidate, used map[string]bool) []string {
	out := []string{}
	for _, c := range in {
		if !used[c.ID] {
			out = append(out, c.ID)
		}
	}
	return out
}
