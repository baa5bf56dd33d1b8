package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/SscSPs/ledger_recon/internal/apperrors"
	"github.com/SscSPs/ledger_recon/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_recon/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_recon/internal/core/ports/services"
	"github.com/SscSPs/ledger_recon/internal/dto"
	"github.com/SscSPs/ledger_recon/internal/matcher"
	"github.com/SscSPs/ledger_recon/internal/platform/lock"
)

// DefaultMatchLockTTL caps how long an auto-match run may hold its account lock.
const DefaultMatchLockTTL = 30 * time.Second

// DefaultReconciliationTolerance is the largest difference accepted without a dispute.
var DefaultReconciliationTolerance = decimal.New(1, -2)

// reconciliationService runs the reconciliation workflow and the matching
// of ledger rows against external rows.
type reconciliationService struct {
	BaseService
	accountRepo portsrepo.AccountReader
	reconRepo   portsrepo.ReconciliationRepositoryFacade
	lineRepo    portsrepo.PostedLineReader
	balances    portssvc.BalanceSvc
	sequence    portssvc.SequenceGenerator
	locker      portssvc.Locker
	tolerance   decimal.Decimal
	matchOpts   matcher.Options
	lockTTL     time.Duration
	auditSink   portssvc.AuditSink
	auditTries  uint64
	audit       *auditRecorder
}

// ReconciliationServiceOption is a functional option for configuring the reconciliation service
type ReconciliationServiceOption func(*reconciliationService)

// WithTolerance sets the largest |difference| still treated as reconciled.
func WithTolerance(tolerance decimal.Decimal) ReconciliationServiceOption {
	return func(s *reconciliationService) {
		s.tolerance = tolerance.Abs()
	}
}

// WithMatchDateWindow sets the default near-pass window in days.
func WithMatchDateWindow(days int) ReconciliationServiceOption {
	return func(s *reconciliationService) {
		if days >= 0 {
			s.matchOpts.DateWindowDays = days
		}
	}
}

// WithMatchSuggestionThreshold enables reference suggestions at or above threshold.
func WithMatchSuggestionThreshold(threshold float64) ReconciliationServiceOption {
	return func(s *reconciliationService) {
		s.matchOpts.SuggestionThreshold = threshold
	}
}

// WithLocker replaces the in-process lock used to serialise auto-match runs.
func WithLocker(locker portssvc.Locker, ttl time.Duration) ReconciliationServiceOption {
	return func(s *reconciliationService) {
		if locker != nil {
			s.locker = locker
		}
		if ttl > 0 {
			s.lockTTL = ttl
		}
	}
}

// WithReconciliationAuditSink sends workflow transitions to sink.
func WithReconciliationAuditSink(sink portssvc.AuditSink, maxRetries uint64) ReconciliationServiceOption {
	return func(s *reconciliationService) {
		s.auditSink = sink
		s.auditTries = maxRetries
	}
}

// WithReconciliationTimeout bounds every collaborator call.
func WithReconciliationTimeout(timeout time.Duration) ReconciliationServiceOption {
	return func(s *reconciliationService) {
		s.OperationTimeout = timeout
	}
}

// WithReconciliationClock replaces time.Now, mostly for tests.
func WithReconciliationClock(now func() time.Time) ReconciliationServiceOption {
	return func(s *reconciliationService) {
		s.Now = now
	}
}

// NewReconciliationService creates a new reconciliation service with the provided options
func NewReconciliationService(
	accountRepo portsrepo.AccountReader,
	reconRepo portsrepo.ReconciliationRepositoryFacade,
	lineRepo portsrepo.PostedLineReader,
	balances portssvc.BalanceSvc,
	sequence portssvc.SequenceGenerator,
	options ...ReconciliationServiceOption,
) portssvc.ReconciliationSvcFacade {
	svc := &reconciliationService{
		accountRepo: accountRepo,
		reconRepo:   reconRepo,
		lineRepo:    lineRepo,
		balances:    balances,
		sequence:    sequence,
		locker:      lock.NewLocalLocker(),
		tolerance:   DefaultReconciliationTolerance,
		matchOpts:   matcher.DefaultOptions(),
		lockTTL:     DefaultMatchLockTTL,
		auditTries:  DefaultAuditMaxRetries,
	}
	for _, option := range options {
		option(svc)
	}
	svc.audit = newAuditRecorder(svc.auditSink, svc.auditTries, svc.BaseService)
	return svc
}

var _ portssvc.ReconciliationSvcFacade = (*reconciliationService)(nil)

// CreateReconciliation snapshots the opening balance of every account as of
// the day before the period starts.
func (s *reconciliationService) CreateReconciliation(ctx context.Context, req dto.CreateReconciliationRequest, actorID string) (*domain.Reconciliation, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}
	if err := dto.Validate(req); err != nil {
		return nil, apperrors.NewValidationError("invalid reconciliation: %v", err)
	}
	start, end := domain.DateOf(req.PeriodStart), domain.DateOf(req.PeriodEnd)
	if end.Before(start) {
		return nil, apperrors.NewValidationError("period ends %s before it starts %s", end.Format(time.DateOnly), start.Format(time.DateOnly))
	}
	accountIDs := distinct(req.AccountIDs)

	callCtx, cancel := s.WithTimeout(ctx)
	defer cancel()

	accounts, err := s.accountRepo.FindAccountsByIDs(callCtx, accountIDs)
	if err != nil {
		return nil, s.collaboratorError(ctx, err, "failed to load accounts")
	}
	for _, id := range accountIDs {
		if _, ok := accounts[id]; !ok {
			return nil, apperrors.NewNotFoundError("account %s not found", id)
		}
	}

	now := s.NowUTC()
	ref, err := s.sequence.Next(callCtx, domain.ReconciliationPrefix, now)
	if err != nil {
		return nil, s.collaboratorError(ctx, err, "failed to issue reconciliation reference number")
	}

	recID := uuid.NewString()
	subRecords := make([]domain.ReconciliationAccount, 0, len(accountIDs))
	for _, id := range accountIDs {
		opening, err := s.balances.GetBalance(callCtx, id, domain.DayBefore(start))
		if err != nil {
			return nil, err
		}
		subRecords = append(subRecords, domain.ReconciliationAccount{
			ID:               uuid.NewString(),
			ReconciliationID: recID,
			AccountID:        id,
			OpeningBalance:   opening,
			Movement:         decimal.Zero,
			Difference:       decimal.Zero,
			Status:           domain.AccountPending,
			Version:          1,
		})
	}

	rec := domain.Reconciliation{
		ReconciliationID: recID,
		ReferenceNumber:  ref,
		AccountIDs:       accountIDs,
		PeriodStart:      start,
		PeriodEnd:        end,
		Status:           domain.ReconciliationDraft,
		Accounts:         subRecords,
		Version:          1,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actorID,
			LastUpdatedAt: now,
			LastUpdatedBy: actorID,
		},
	}
	rec.Tally()

	if err := s.reconRepo.SaveReconciliation(callCtx, rec); err != nil {
		return nil, s.collaboratorError(ctx, err, "failed to save reconciliation", slog.String("reconciliation_id", recID))
	}

	s.audit.record(ctx, domain.EntityReconciliation, recID, "", string(domain.ReconciliationDraft), actorID, "")
	s.LogInfo(ctx, "Reconciliation created",
		slog.String("reconciliation_id", recID),
		slog.String("reference", ref),
		slog.Int("accounts", len(subRecords)))
	return &rec, nil
}

func (s *reconciliationService) StartWork(ctx context.Context, reconciliationID string, actorID string) (*domain.Reconciliation, error) {
	return s.transition(ctx, reconciliationID, actorID, domain.ReconciliationInProgress, "", nil)
}

// ReconcileAccount compares the reviewer's closing balance with the ledger:
// difference = reconciled - (opening + movement).
func (s *reconciliationService) ReconcileAccount(ctx context.Context, reconciliationID, accountID string, req dto.ReconcileAccountRequest, actorID string) (*domain.Reconciliation, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}
	if err := dto.Validate(req); err != nil {
		return nil, apperrors.NewValidationError("invalid account reconciliation: %v", err)
	}

	callCtx, cancel := s.WithTimeout(ctx)
	defer cancel()

	rec, err := s.load(callCtx, reconciliationID)
	if err != nil {
		return nil, err
	}
	if rec.Status != domain.ReconciliationInProgress {
		return nil, apperrors.NewStateError("reconciliation %s is %s - accounts can only be reconciled while IN_PROGRESS", rec.ReferenceNumber, rec.Status)
	}
	acct := rec.Account(accountID)
	if acct == nil {
		return nil, apperrors.NewNotFoundError("account %s is not part of reconciliation %s", accountID, rec.ReferenceNumber)
	}
	if req.Version != nil && *req.Version != acct.Version {
		return nil, apperrors.NewConflictError("account %s in reconciliation %s is at version %d, not %d", accountID, rec.ReferenceNumber, acct.Version, *req.Version)
	}

	movement, err := s.balances.GetMovement(callCtx, accountID, rec.PeriodStart, rec.PeriodEnd)
	if err != nil {
		return nil, err
	}

	updated := *acct
	outcome := updated.Evaluate(req.ReconciledBalance, movement, s.tolerance)
	notes := strings.TrimSpace(req.Notes)
	if outcome == domain.AccountDisputed && notes == "" {
		return nil, apperrors.NewValidationError("account %s differs by %s (tolerance %s) - notes are required to dispute it",
			accountID, updated.Difference.StringFixed(2), s.tolerance.StringFixed(2))
	}

	now := s.NowUTC()
	updated.Status = outcome
	updated.Notes = notes
	updated.ResolvedAt = &now
	updated.ResolvedBy = &actorID
	updated.Version = acct.Version + 1

	if err := s.reconRepo.UpdateReconciliationAccount(callCtx, updated, acct.Version); err != nil {
		return nil, s.collaboratorError(ctx, err, "failed to update reconciliation account",
			slog.String("reconciliation_id", reconciliationID),
			slog.String("account_id", accountID))
	}

	previous := acct.Status
	*acct = updated
	rec.Version++
	rec.Tally()

	s.audit.record(ctx, domain.EntityReconciliationAccount, updated.ID, string(previous), string(outcome), actorID, notes)
	s.LogInfo(ctx, "Account reconciled",
		slog.String("reconciliation_id", reconciliationID),
		slog.String("account_id", accountID),
		slog.String("status", string(outcome)),
		slog.String("difference", updated.Difference.String()))
	return rec, nil
}

// Finalize completes an IN_PROGRESS reconciliation once every account is
// RECONCILED or DISPUTED with notes.
func (s *reconciliationService) Finalize(ctx context.Context, reconciliationID string, actorID string) (*domain.Reconciliation, error) {
	return s.transition(ctx, reconciliationID, actorID, domain.ReconciliationCompleted, "", func(rec *domain.Reconciliation, now time.Time) error {
		if unresolved := rec.Unresolved(); len(unresolved) > 0 {
			parts := make([]string, len(unresolved))
			for i, a := range unresolved {
				parts[i] = fmt.Sprintf("account %s still %s", a.AccountID, a.Status)
			}
			return apperrors.NewStateError("%s - cannot finalize", strings.Join(parts, ", "))
		}
		for _, a := range rec.Accounts {
			if a.Status == domain.AccountDisputed && strings.TrimSpace(a.Notes) == "" {
				return apperrors.NewToleranceExceededError("account %s differs by %s without an explanation - cannot finalize",
					a.AccountID, a.Difference.StringFixed(2))
			}
		}
		rec.Tally()
		rec.CompletedAt = &now
		rec.CompletedBy = &actorID
		return nil
	})
}

func (s *reconciliationService) Approve(ctx context.Context, reconciliationID string, approverID string) (*domain.Reconciliation, error) {
	return s.transition(ctx, reconciliationID, approverID, domain.ReconciliationApproved, "", func(rec *domain.Reconciliation, now time.Time) error {
		rec.ApprovedAt = &now
		rec.ApprovedBy = &approverID
		return nil
	})
}

func (s *reconciliationService) Reject(ctx context.Context, reconciliationID string, req dto.RejectReconciliationRequest, approverID string) (*domain.Reconciliation, error) {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, apperrors.NewValidationError("rejection reason is required")
	}
	return s.transition(ctx, reconciliationID, approverID, domain.ReconciliationRejected, reason, func(rec *domain.Reconciliation, now time.Time) error {
		rec.RejectedAt = &now
		rec.RejectedBy = &approverID
		rec.RejectionReason = &reason
		return nil
	})
}

func (s *reconciliationService) Cancel(ctx context.Context, reconciliationID string, req dto.CancelReconciliationRequest, actorID string) (*domain.Reconciliation, error) {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, apperrors.NewValidationError("cancellation reason is required")
	}
	return s.transition(ctx, reconciliationID, actorID, domain.ReconciliationCancelled, reason, func(rec *domain.Reconciliation, now time.Time) error {
		rec.CancelledAt = &now
		rec.CancelledBy = &actorID
		rec.CancellationReason = &reason
		return nil
	})
}

func (s *reconciliationService) GetReconciliation(ctx context.Context, reconciliationID string) (*domain.Reconciliation, error) {
	callCtx, cancel := s.WithTimeout(ctx)
	defer cancel()
	return s.load(callCtx, reconciliationID)
}

func (s *reconciliationService) ListReconciliations(ctx context.Context, params dto.ListReconciliationsParams) (*dto.ListReconciliationsResponse, error) {
	if err := dto.Validate(params); err != nil {
		return nil, apperrors.NewValidationError("invalid list parameters: %v", err)
	}

	callCtx, cancel := s.WithTimeout(ctx)
	defer cancel()

	filter := portsrepo.ReconciliationFilter{Status: params.Status, AccountID: params.AccountID}
	page := portsrepo.PageRequest{Limit: params.Limit, NextToken: params.NextToken}
	recs, nextToken, err := s.reconRepo.ListReconciliations(callCtx, filter, page)
	if err != nil {
		return nil, s.collaboratorError(ctx, err, "failed to list reconciliations")
	}

	summaries := make([]dto.ReconciliationSummary, len(recs))
	for i := range recs {
		recs[i].Tally()
		summaries[i] = dto.ToReconciliationSummary(&recs[i])
	}
	return &dto.ListReconciliationsResponse{Reconciliations: summaries, NextToken: nextToken}, nil
}

func (s *reconciliationService) GetSummary(ctx context.Context, reconciliationID string) (*dto.ReconciliationSummary, error) {
	rec, err := s.GetReconciliation(ctx, reconciliationID)
	if err != nil {
		return nil, err
	}
	summary := dto.ToReconciliationSummary(rec)
	return &summary, nil
}

func (s *reconciliationService) GetAccountReport(ctx context.Context, reconciliationID string) ([]dto.AccountReportRow, error) {
	rec, err := s.GetReconciliation(ctx, reconciliationID)
	if err != nil {
		return nil, err
	}
	return dto.ToAccountReportRows(rec.Accounts), nil
}

// transition moves a reconciliation to next if the workflow allows it.
// mutate may veto the move by returning an error; nothing is written then.
func (s *reconciliationService) transition(
	ctx context.Context,
	reconciliationID, actorID string,
	next domain.ReconciliationStatus,
	reason string,
	mutate func(rec *domain.Reconciliation, now time.Time) error,
) (*domain.Reconciliation, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}

	callCtx, cancel := s.WithTimeout(ctx)
	defer cancel()

	rec, err := s.load(callCtx, reconciliationID)
	if err != nil {
		return nil, err
	}
	if !rec.Status.CanTransitionTo(next) {
		return nil, apperrors.NewStateError("reconciliation %s is %s - cannot move to %s", rec.ReferenceNumber, rec.Status, next)
	}

	previous := rec.Status
	now := s.NowUTC()
	if mutate != nil {
		if err := mutate(rec, now); err != nil {
			return nil, err
		}
	}

	expected := rec.Version
	rec.Status = next
	rec.Version++
	rec.LastUpdatedAt = now
	rec.LastUpdatedBy = actorID

	if err := s.reconRepo.UpdateReconciliation(callCtx, *rec, expected); err != nil {
		return nil, s.collaboratorError(ctx, err, "failed to update reconciliation",
			slog.String("reconciliation_id", reconciliationID),
			slog.String("status", string(next)))
	}

	s.audit.record(ctx, domain.EntityReconciliation, reconciliationID, string(previous), string(next), actorID, reason)
	s.LogInfo(ctx, "Reconciliation status changed",
		slog.String("reconciliation_id", reconciliationID),
		slog.String("from", string(previous)),
		slog.String("to", string(next)))
	return rec, nil
}

func (s *reconciliationService) load(ctx context.Context, reconciliationID string) (*domain.Reconciliation, error) {
	rec, err := s.reconRepo.FindReconciliationByID(ctx, reconciliationID)
	if err != nil {
		return nil, s.collaboratorError(ctx, err, "failed to load reconciliation", slog.String("reconciliation_id", reconciliationID))
	}
	rec.Tally()
	return rec, nil
}

// distinct drops blanks and repeated ids, keeping first occurrences in order.
func distinct(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
