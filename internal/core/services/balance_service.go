package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/SscSPs/ledger_recon/internal/apperrors"
	"github.com/SscSPs/ledger_recon/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_recon/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_recon/internal/core/ports/services"
	"github.com/SscSPs/ledger_recon/internal/utils/accounting"
)

// balanceService answers balance questions from the daily effect totals
// maintained by posting and voiding, and can recompute them from lines.
type balanceService struct {
	BaseService
	accountRepo portsrepo.AccountReader
	balanceRepo portsrepo.BalanceReader
	lineRepo    portsrepo.PostedLineReader
}

// BalanceServiceOption is a functional option for configuring the balance service
type BalanceServiceOption func(*balanceService)

// WithBalanceTimeout bounds every repository call.
func WithBalanceTimeout(timeout time.Duration) BalanceServiceOption {
	return func(s *balanceService) {
		s.OperationTimeout = timeout
	}
}

// NewBalanceService creates a new balance service.
func NewBalanceService(accountRepo portsrepo.AccountReader, balanceRepo portsrepo.BalanceReader, lineRepo portsrepo.PostedLineReader, options ...BalanceServiceOption) portssvc.BalanceSvc {
	svc := &balanceService{
		accountRepo: accountRepo,
		balanceRepo: balanceRepo,
		lineRepo:    lineRepo,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.BalanceSvc = (*balanceService)(nil)

func (s *balanceService) GetBalance(ctx context.Context, accountID string, asOf time.Time) (decimal.Decimal, error) {
	callCtx, cancel := s.WithTimeout(ctx)
	defer cancel()

	if _, err := s.account(callCtx, accountID); err != nil {
		return decimal.Zero, err
	}
	return s.sumEffects(callCtx, accountID, asOf)
}

func (s *balanceService) GetMovement(ctx context.Context, accountID string, start, end time.Time) (decimal.Decimal, error) {
	start, end = domain.DateOf(start), domain.DateOf(end)
	if end.Before(start) {
		return decimal.Zero, apperrors.NewValidationError("movement period ends %s before it starts %s", end.Format(time.DateOnly), start.Format(time.DateOnly))
	}

	callCtx, cancel := s.WithTimeout(ctx)
	defer cancel()

	if _, err := s.account(callCtx, accountID); err != nil {
		return decimal.Zero, err
	}
	closing, err := s.sumEffects(callCtx, accountID, end)
	if err != nil {
		return decimal.Zero, err
	}
	opening, err := s.sumEffects(callCtx, accountID, domain.DayBefore(start))
	if err != nil {
		return decimal.Zero, err
	}
	return closing.Sub(opening), nil
}

func (s *balanceService) RecomputeBalance(ctx context.Context, accountID string, asOf time.Time) (decimal.Decimal, error) {
	callCtx, cancel := s.WithTimeout(ctx)
	defer cancel()

	acc, err := s.account(callCtx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	return s.recompute(callCtx, acc, asOf)
}

func (s *balanceService) VerifyBalance(ctx context.Context, accountID string, asOf time.Time) (*domain.BalanceCheck, error) {
	callCtx, cancel := s.WithTimeout(ctx)
	defer cancel()

	acc, err := s.account(callCtx, accountID)
	if err != nil {
		return nil, err
	}
	incremental, err := s.sumEffects(callCtx, accountID, asOf)
	if err != nil {
		return nil, err
	}
	recomputed, err := s.recompute(callCtx, acc, asOf)
	if err != nil {
		return nil, err
	}

	check := &domain.BalanceCheck{
		AccountID:   accountID,
		AsOf:        domain.DateOf(asOf),
		Incremental: incremental,
		Recomputed:  recomputed,
		Consistent:  incremental.Equal(recomputed),
	}
	if !check.Consistent {
		s.LogWarn(ctx, "Balance drift detected",
			slog.String("account_id", accountID),
			slog.String("as_of", check.AsOf.Format(time.DateOnly)),
			slog.String("incremental", incremental.String()),
			slog.String("recomputed", recomputed.String()))
	}
	return check, nil
}

func (s *balanceService) account(ctx context.Context, accountID string) (*domain.Account, error) {
	acc, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, s.collaboratorError(ctx, err, "failed to load account", slog.String("account_id", accountID))
	}
	return acc, nil
}

func (s *balanceService) sumEffects(ctx context.Context, accountID string, asOf time.Time) (decimal.Decimal, error) {
	total, err := s.balanceRepo.SumEffects(ctx, accountID, domain.DateOf(asOf))
	if err != nil {
		return decimal.Zero, s.collaboratorError(ctx, err, "failed to read balance", slog.String("account_id", accountID))
	}
	return total, nil
}

func (s *balanceService) recompute(ctx context.Context, acc *domain.Account, asOf time.Time) (decimal.Decimal, error) {
	to := domain.DateOf(asOf)
	lines, err := s.lineRepo.FindPostedLines(ctx, acc.AccountID, portsrepo.DateRange{To: &to})
	if err != nil {
		return decimal.Zero, s.collaboratorError(ctx, err, "failed to read posted lines", slog.String("account_id", acc.AccountID))
	}
	total, err := accounting.SumPostedLines(lines, acc.AccountType, to)
	if err != nil {
		return decimal.Zero, apperrors.NewInternalError("failed to recompute balance", err)
	}
	return total, nil
}
