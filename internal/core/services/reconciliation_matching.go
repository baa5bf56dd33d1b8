package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/SscSPs/ledger_recon/internal/apperrors"
	"github.com/SscSPs/ledger_recon/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_recon/internal/core/ports/repositories"
	"github.com/SscSPs/ledger_recon/internal/dto"
	"github.com/SscSPs/ledger_recon/internal/matcher"
)

// externalRefSpace namespaces the content-derived ids of external rows, so
// importing the same statement twice does not duplicate rows.
var externalRefSpace = uuid.MustParse("4c1d7f0e-9a52-4b6e-8d07-2f3a1c5e9b84")

// LoadLedgerTransactions snapshots the POSTED lines of the account dated
// inside the period as LEDGER rows. Unmatched rows from an earlier load are
// replaced, so voided entries drop out; matched rows are kept.
func (s *reconciliationService) LoadLedgerTransactions(ctx context.Context, reconciliationID, accountID string, actorID string) (*dto.LoadTransactionsResponse, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}

	callCtx, cancel := s.WithTimeout(ctx)
	defer cancel()

	rec, acct, err := s.matchableAccount(callCtx, reconciliationID, accountID)
	if err != nil {
		return nil, err
	}

	start, end := rec.PeriodStart, rec.PeriodEnd
	lines, err := s.lineRepo.FindPostedLines(callCtx, accountID, dateRange(start, end))
	if err != nil {
		return nil, s.collaboratorError(ctx, err, "failed to read posted lines", slog.String("account_id", accountID))
	}

	now := s.NowUTC()
	rows := make([]domain.ReconciliationTransaction, len(lines))
	for i, line := range lines {
		rows[i] = domain.ReconciliationTransaction{
			ID:                      uuid.NewString(),
			ReconciliationAccountID: acct.ID,
			Source:                  domain.SourceLedger,
			SourceRef:               line.LineID,
			TransactionDate:         domain.DateOf(line.EntryDate),
			Reference:               ledgerReference(line),
			Amount:                  line.Amount(),
			Type:                    line.Side(),
			CreatedAt:               now,
		}
	}

	started, err := s.reconRepo.ReplaceLedgerTransactions(callCtx, acct.ID, rows)
	if err != nil {
		return nil, s.collaboratorError(ctx, err, "failed to store ledger transactions", slog.String("account_id", accountID))
	}
	s.noteStarted(ctx, acct, started, actorID)

	s.LogInfo(ctx, "Ledger transactions loaded",
		slog.String("reconciliation_id", reconciliationID),
		slog.String("account_id", accountID),
		slog.Int("rows", len(rows)))
	return &dto.LoadTransactionsResponse{ReconciliationID: reconciliationID, AccountID: accountID, Loaded: len(rows)}, nil
}

// ImportExternalTransactions stores the external side of the account. Each
// row gets a content-derived source reference; rows already imported are skipped.
func (s *reconciliationService) ImportExternalTransactions(ctx context.Context, reconciliationID, accountID string, req dto.ImportExternalTransactionsRequest, actorID string) (*dto.LoadTransactionsResponse, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}
	if err := dto.Validate(req); err != nil {
		return nil, apperrors.NewValidationError("invalid external transactions: %v", err)
	}
	for i, t := range req.Transactions {
		if !t.Amount.IsPositive() {
			return nil, apperrors.NewValidationError("transactions[%d]: amount must be positive, the sign goes in type", i)
		}
	}

	callCtx, cancel := s.WithTimeout(ctx)
	defer cancel()

	_, acct, err := s.matchableAccount(callCtx, reconciliationID, accountID)
	if err != nil {
		return nil, err
	}

	now := s.NowUTC()
	occurrences := make(map[string]int, len(req.Transactions))
	rows := make([]domain.ReconciliationTransaction, len(req.Transactions))
	for i, t := range req.Transactions {
		date := domain.DateOf(t.Date)
		key := fmt.Sprintf("%s|%s|%s|%s|%s", acct.ID, date.Format(time.DateOnly), t.Amount.StringFixed(2), t.Type, strings.TrimSpace(t.Reference))
		occurrences[key]++
		rows[i] = domain.ReconciliationTransaction{
			ID:                      uuid.NewString(),
			ReconciliationAccountID: acct.ID,
			Source:                  domain.SourceExternal,
			SourceRef:               uuid.NewSHA1(externalRefSpace, []byte(fmt.Sprintf("%s|%d", key, occurrences[key]))).String(),
			TransactionDate:         date,
			Reference:               strings.TrimSpace(t.Reference),
			Amount:                  t.Amount,
			Type:                    t.Type,
			CreatedAt:               now,
		}
	}

	stored, started, err := s.reconRepo.SaveExternalTransactions(callCtx, acct.ID, rows)
	if err != nil {
		return nil, s.collaboratorError(ctx, err, "failed to store external transactions", slog.String("account_id", accountID))
	}
	s.noteStarted(ctx, acct, started, actorID)

	s.LogInfo(ctx, "External transactions imported",
		slog.String("reconciliation_id", reconciliationID),
		slog.String("account_id", accountID),
		slog.Int("received", len(rows)),
		slog.Int("stored", stored))
	return &dto.LoadTransactionsResponse{ReconciliationID: reconciliationID, AccountID: accountID, Loaded: stored}, nil
}

// AutoMatch pairs the unmatched rows of the account. The run holds the
// account's match lock from read to write; a cancelled or expired context
// discards the computed result without persisting any of it.
func (s *reconciliationService) AutoMatch(ctx context.Context, reconciliationID, accountID string, req dto.AutoMatchRequest, actorID string) (*dto.MatchResultResponse, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}
	if err := dto.Validate(req); err != nil {
		return nil, apperrors.NewValidationError("invalid auto-match request: %v", err)
	}

	callCtx, cancel := s.WithTimeout(ctx)
	defer cancel()

	_, acct, err := s.matchableAccount(callCtx, reconciliationID, accountID)
	if err != nil {
		return nil, err
	}

	opts := s.matchOpts
	if req.DateWindowDays != nil {
		opts.DateWindowDays = *req.DateWindowDays
	}

	if !req.DryRun {
		release, err := s.locker.Acquire(callCtx, matchLockKey(acct.ID), s.lockTTL)
		if err != nil {
			return nil, s.collaboratorError(ctx, err, "failed to acquire match lock", slog.String("account_id", accountID))
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				s.LogWarn(ctx, "Failed to release match lock", slog.String("account_id", accountID), slog.String("error", err.Error()))
			}
		}()
	}

	rows, err := s.reconRepo.FindReconciliationTransactions(callCtx, acct.ID)
	if err != nil {
		return nil, s.collaboratorError(ctx, err, "failed to read reconciliation transactions", slog.String("account_id", accountID))
	}
	ledger, external := candidates(rows)
	result := matcher.Match(ledger, external, opts)

	if req.DryRun || len(result.Matches) == 0 {
		return ptr(dto.ToMatchResultResponse(result, false)), nil
	}

	if err := callCtx.Err(); err != nil {
		s.LogWarn(ctx, "Auto-match cancelled before persisting", slog.String("account_id", accountID), slog.Int("pairs", len(result.Matches)))
		return nil, apperrors.NewInternalError("auto-match cancelled before persisting", err)
	}

	links := make([]domain.MatchLink, len(result.Matches))
	for i, p := range result.Matches {
		links[i] = domain.MatchLink{LedgerID: p.LedgerID, ExternalID: p.ExternalID, Kind: domain.MatchKind(p.Kind)}
	}
	started, err := s.reconRepo.ApplyMatches(callCtx, acct.ID, links, actorID, s.NowUTC())
	if err != nil {
		return nil, s.collaboratorError(ctx, err, "failed to persist matches", slog.String("account_id", accountID))
	}
	s.noteStarted(ctx, acct, started, actorID)

	s.LogInfo(ctx, "Auto-match applied",
		slog.String("reconciliation_id", reconciliationID),
		slog.String("account_id", accountID),
		slog.Int("pairs", len(result.Matches)),
		slog.Int("unmatched_ledger", len(result.UnmatchedLedger)),
		slog.Int("unmatched_external", len(result.UnmatchedExternal)))
	return ptr(dto.ToMatchResultResponse(result, true)), nil
}

// ManualMatch pairs one LEDGER row with one EXTERNAL row chosen by a
// reviewer. Amounts further apart than the tolerance need notes.
func (s *reconciliationService) ManualMatch(ctx context.Context, reconciliationID, accountID string, req dto.ManualMatchRequest, actorID string) (*dto.MatchingStateResponse, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}
	if err := dto.Validate(req); err != nil {
		return nil, apperrors.NewValidationError("invalid manual match: %v", err)
	}

	callCtx, cancel := s.WithTimeout(ctx)
	defer cancel()

	rec, acct, err := s.matchableAccount(callCtx, reconciliationID, accountID)
	if err != nil {
		return nil, err
	}
	rows, err := s.reconRepo.FindReconciliationTransactions(callCtx, acct.ID)
	if err != nil {
		return nil, s.collaboratorError(ctx, err, "failed to read reconciliation transactions", slog.String("account_id", accountID))
	}

	byID := indexRows(rows)
	ledgerRow, ok := byID[req.LedgerTransactionID]
	if !ok {
		return nil, apperrors.NewNotFoundError("transaction %s not found for account %s", req.LedgerTransactionID, accountID)
	}
	externalRow, ok := byID[req.ExternalTransactionID]
	if !ok {
		return nil, apperrors.NewNotFoundError("transaction %s not found for account %s", req.ExternalTransactionID, accountID)
	}
	if ledgerRow.Source != domain.SourceLedger || externalRow.Source != domain.SourceExternal {
		return nil, apperrors.NewValidationError("a manual match pairs one LEDGER row with one EXTERNAL row")
	}
	for _, r := range []domain.ReconciliationTransaction{ledgerRow, externalRow} {
		if r.Matched {
			return nil, apperrors.NewStateError("transaction %s is already matched", r.ID)
		}
	}
	notes := strings.TrimSpace(req.Notes)
	gap := ledgerRow.SignedAmount().Sub(externalRow.SignedAmount()).Abs()
	if gap.GreaterThan(s.tolerance) && notes == "" {
		return nil, apperrors.NewValidationError("amounts differ by %s - notes are required for a manual match", gap.StringFixed(2))
	}

	link := domain.MatchLink{LedgerID: ledgerRow.ID, ExternalID: externalRow.ID, Kind: domain.MatchManual, Notes: notes}
	started, err := s.reconRepo.ApplyMatches(callCtx, acct.ID, []domain.MatchLink{link}, actorID, s.NowUTC())
	if err != nil {
		return nil, s.collaboratorError(ctx, err, "failed to persist manual match", slog.String("account_id", accountID))
	}
	s.noteStarted(ctx, acct, started, actorID)

	s.LogInfo(ctx, "Manual match applied",
		slog.String("account_id", accountID),
		slog.String("ledger_transaction_id", ledgerRow.ID),
		slog.String("external_transaction_id", externalRow.ID))
	return s.matchingState(ctx, callCtx, rec, acct)
}

// Unmatch releases a matched row and its counterpart.
func (s *reconciliationService) Unmatch(ctx context.Context, reconciliationID, accountID, transactionID string, actorID string) (*dto.MatchingStateResponse, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}

	callCtx, cancel := s.WithTimeout(ctx)
	defer cancel()

	rec, acct, err := s.matchableAccount(callCtx, reconciliationID, accountID)
	if err != nil {
		return nil, err
	}
	rows, err := s.reconRepo.FindReconciliationTransactions(callCtx, acct.ID)
	if err != nil {
		return nil, s.collaboratorError(ctx, err, "failed to read reconciliation transactions", slog.String("account_id", accountID))
	}
	row, ok := indexRows(rows)[transactionID]
	if !ok {
		return nil, apperrors.NewNotFoundError("transaction %s not found for account %s", transactionID, accountID)
	}
	if !row.Matched {
		return nil, apperrors.NewStateError("transaction %s is not matched", transactionID)
	}

	if err := s.reconRepo.ClearMatch(callCtx, acct.ID, transactionID); err != nil {
		return nil, s.collaboratorError(ctx, err, "failed to clear match", slog.String("transaction_id", transactionID))
	}

	s.LogInfo(ctx, "Match cleared", slog.String("account_id", accountID), slog.String("transaction_id", transactionID))
	return s.matchingState(ctx, callCtx, rec, acct)
}

func (s *reconciliationService) GetMatchingState(ctx context.Context, reconciliationID, accountID string) (*dto.MatchingStateResponse, error) {
	callCtx, cancel := s.WithTimeout(ctx)
	defer cancel()

	rec, err := s.load(callCtx, reconciliationID)
	if err != nil {
		return nil, err
	}
	acct := rec.Account(accountID)
	if acct == nil {
		return nil, apperrors.NewNotFoundError("account %s is not part of reconciliation %s", accountID, rec.ReferenceNumber)
	}
	return s.matchingState(ctx, callCtx, rec, acct)
}

// matchableAccount loads the reconciliation and the sub-record of accountID,
// failing unless the reconciliation is IN_PROGRESS.
func (s *reconciliationService) matchableAccount(ctx context.Context, reconciliationID, accountID string) (*domain.Reconciliation, *domain.ReconciliationAccount, error) {
	rec, err := s.load(ctx, reconciliationID)
	if err != nil {
		return nil, nil, err
	}
	if rec.Status != domain.ReconciliationInProgress {
		return nil, nil, apperrors.NewStateError("reconciliation %s is %s - transactions can only be matched while IN_PROGRESS", rec.ReferenceNumber, rec.Status)
	}
	acct := rec.Account(accountID)
	if acct == nil {
		return nil, nil, apperrors.NewNotFoundError("account %s is not part of reconciliation %s", accountID, rec.ReferenceNumber)
	}
	return rec, acct, nil
}

// noteStarted records that the repository moved a PENDING account to
// IN_PROGRESS as part of the write that just committed.
func (s *reconciliationService) noteStarted(ctx context.Context, acct *domain.ReconciliationAccount, started bool, actorID string) {
	if !started {
		return
	}
	acct.Status = domain.AccountInProgress
	acct.Version++
	s.audit.record(ctx, domain.EntityReconciliationAccount, acct.ID, string(domain.AccountPending), string(domain.AccountInProgress), actorID, "")
}

func (s *reconciliationService) matchingState(ctx, callCtx context.Context, rec *domain.Reconciliation, acct *domain.ReconciliationAccount) (*dto.MatchingStateResponse, error) {
	rows, err := s.reconRepo.FindReconciliationTransactions(callCtx, acct.ID)
	if err != nil {
		return nil, s.collaboratorError(ctx, err, "failed to read reconciliation transactions", slog.String("account_id", acct.AccountID))
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return &dto.MatchingStateResponse{
		ReconciliationID: rec.ReconciliationID,
		AccountID:        acct.AccountID,
		Transactions:     dto.ToReconciliationTransactionResponses(rows),
		Result:           matchView(rows),
	}, nil
}

// matchView renders the persisted pairing of rows as a match result.
func matchView(rows []domain.ReconciliationTransaction) dto.MatchResultResponse {
	byID := indexRows(rows)
	view := dto.MatchResultResponse{
		Matches:           []dto.MatchPairResponse{},
		UnmatchedLedger:   []string{},
		UnmatchedExternal: []string{},
		Applied:           true,
	}
	for _, r := range rows {
		switch {
		case !r.Matched && r.Source == domain.SourceLedger:
			view.UnmatchedLedger = append(view.UnmatchedLedger, r.ID)
		case !r.Matched:
			view.UnmatchedExternal = append(view.UnmatchedExternal, r.ID)
		case r.Source == domain.SourceLedger && r.MatchedWithID != nil:
			pair := dto.MatchPairResponse{LedgerTransactionID: r.ID, ExternalTransactionID: *r.MatchedWithID}
			if r.MatchKind != nil {
				pair.Kind = *r.MatchKind
			}
			if other, ok := byID[*r.MatchedWithID]; ok {
				pair.DateDelta = dayDistance(r.TransactionDate, other.TransactionDate)
			}
			view.Matches = append(view.Matches, pair)
		}
	}
	return view
}

// candidates splits the unmatched rows into matcher inputs, debits positive.
func candidates(rows []domain.ReconciliationTransaction) (ledger, external []matcher.Candidate) {
	for _, r := range rows {
		if r.Matched {
			continue
		}
		c := matcher.Candidate{ID: r.ID, Date: r.TransactionDate, Amount: r.SignedAmount(), Reference: r.Reference}
		if r.Source == domain.SourceLedger {
			ledger = append(ledger, c)
		} else {
			external = append(external, c)
		}
	}
	return ledger, external
}

func indexRows(rows []domain.ReconciliationTransaction) map[string]domain.ReconciliationTransaction {
	byID := make(map[string]domain.ReconciliationTransaction, len(rows))
	for _, r := range rows {
		byID[r.ID] = r
	}
	return byID
}

// ledgerReference prefers the line memo, then the entry memo, then the reference number.
func ledgerReference(line domain.PostedLine) string {
	for _, ref := range []string{line.Memo, line.EntryMemo} {
		if strings.TrimSpace(ref) != "" {
			return strings.TrimSpace(ref)
		}
	}
	return line.ReferenceNumber
}

func dateRange(from, to time.Time) portsrepo.DateRange {
	return portsrepo.DateRange{From: &from, To: &to}
}

func dayDistance(a, b time.Time) int {
	d := int(domain.DateOf(a).Sub(domain.DateOf(b)).Hours() / 24)
	if d < 0 {
		return -d
	}
	return d
}

func matchLockKey(reconciliationAccountID string) string {
	return "reconciliation-match:" + reconciliationAccountID
}

func ptr[T any](v T) *T {
	return &v
}
