package accounting

import (
	"fmt"
	"sort"
	"time"

	"github.com/SscSPs/ledger_recon/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CalculateSignedAmount returns the line's effect on the account balance.
// Debit-normal accounts (ASSET, EXPENSE) grow with debits; credit-normal
// accounts (LIABILITY, EQUITY, REVENUE) grow with credits.
func CalculateSignedAmount(line domain.JournalLine, accountType domain.AccountType) (decimal.Decimal, error) {
	switch accountType {
	case domain.Asset, domain.Expense:
		return line.Debit.Sub(line.Credit), nil
	case domain.Liability, domain.Equity, domain.Revenue:
		return line.Credit.Sub(line.Debit), nil
	default:
		return decimal.Zero, fmt.Errorf("unknown account type '%s' encountered for account ID %s", accountType, line.AccountID)
	}
}

// BalanceEffects folds the lines of an entry dated entryDate into one net
// effect per account. The result is sorted by account id so that callers
// taking row locks in that order never deadlock against each other.
func BalanceEffects(entryDate time.Time, lines []domain.JournalLine, accountTypes map[string]domain.AccountType) ([]domain.BalanceEffect, error) {
	net := make(map[string]decimal.Decimal)
	for _, line := range lines {
		accountType, ok := accountTypes[line.AccountID]
		if !ok {
			return nil, fmt.Errorf("account type not found for account ID %s", line.AccountID)
		}
		signed, err := CalculateSignedAmount(line, accountType)
		if err != nil {
			return nil, err
		}
		net[line.AccountID] = net[line.AccountID].Add(signed)
	}

	day := domain.DateOf(entryDate)
	effects := make([]domain.BalanceEffect, 0, len(net))
	for accountID, amount := range net {
		effects = append(effects, domain.BalanceEffect{AccountID: accountID, EffectDate: day, Amount: amount})
	}
	sort.Slice(effects, func(i, j int) bool {
		return effects[i].AccountID < effects[j].AccountID
	})
	return effects, nil
}

// NegateEffects returns effects with every amount sign-flipped, used to
// remove a voided entry's contribution.
func NegateEffects(effects []domain.BalanceEffect) []domain.BalanceEffect {
	out := make([]domain.BalanceEffect, len(effects))
	for i, e := range effects {
		out[i] = domain.BalanceEffect{AccountID: e.AccountID, EffectDate: e.EffectDate, Amount: e.Amount.Neg()}
	}
	return out
}

// SumPostedLines recomputes an account balance from scratch over the given
// posted lines, counting only those dated on or before asOf.
func SumPostedLines(lines []domain.PostedLine, accountType domain.AccountType, asOf time.Time) (decimal.Decimal, error) {
	cutoff := domain.DateOf(asOf)
	total := decimal.Zero
	for _, line := range lines {
		if domain.DateOf(line.EntryDate).After(cutoff) {
			continue
		}
		signed, err := CalculateSignedAmount(line.JournalLine, accountType)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(signed)
	}
	return total, nil
}

// WithinTolerance reports whether |a - b| <= tolerance.
func WithinTolerance(a, b, tolerance decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(tolerance)
}
