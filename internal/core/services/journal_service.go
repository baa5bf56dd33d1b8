package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/SscSPs/ledger_recon/internal/apperrors"
	"github.com/SscSPs/ledger_recon/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_recon/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_recon/internal/core/ports/services"
	"github.com/SscSPs/ledger_recon/internal/dto"
	"github.com/SscSPs/ledger_recon/internal/utils/accounting"
)

// journalService owns journal entries and their DRAFT -> POSTED -> VOID lifecycle.
type journalService struct {
	BaseService
	accountRepo portsrepo.AccountReader
	journalRepo portsrepo.JournalRepositoryFacade
	sequence    portssvc.SequenceGenerator
	auditSink   portssvc.AuditSink
	auditTries  uint64
	audit       *auditRecorder
}

// JournalServiceOption is a functional option for configuring the journal service
type JournalServiceOption func(*journalService)

// WithJournalAuditSink sends lifecycle transitions to sink.
func WithJournalAuditSink(sink portssvc.AuditSink, maxRetries uint64) JournalServiceOption {
	return func(s *journalService) {
		s.auditSink = sink
		s.auditTries = maxRetries
	}
}

// WithJournalTimeout bounds every repository call.
func WithJournalTimeout(timeout time.Duration) JournalServiceOption {
	return func(s *journalService) {
		s.OperationTimeout = timeout
	}
}

// WithJournalClock replaces time.Now, mostly for tests.
func WithJournalClock(now func() time.Time) JournalServiceOption {
	return func(s *journalService) {
		s.Now = now
	}
}

// NewJournalService creates a new journal service with the provided options
func NewJournalService(accountRepo portsrepo.AccountReader, journalRepo portsrepo.JournalRepositoryFacade, sequence portssvc.SequenceGenerator, options ...JournalServiceOption) portssvc.JournalSvcFacade {
	svc := &journalService{
		accountRepo: accountRepo,
		journalRepo: journalRepo,
		sequence:    sequence,
		auditTries:  DefaultAuditMaxRetries,
	}
	for _, option := range options {
		option(svc)
	}
	svc.audit = newAuditRecorder(svc.auditSink, svc.auditTries, svc.BaseService)
	return svc
}

// Ensure journalService implements the portssvc.JournalSvcFacade interface
var _ portssvc.JournalSvcFacade = (*journalService)(nil)

// CreateEntry validates the lines and persists a new DRAFT entry.
func (s *journalService) CreateEntry(ctx context.Context, req dto.CreateJournalEntryRequest, actorID string) (*domain.JournalEntry, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}
	if err := dto.Validate(req); err != nil {
		return nil, apperrors.NewValidationError("invalid journal entry: %v", err)
	}

	entryID := uuid.NewString()
	lines := newLines(entryID, req.Lines)
	if err := domain.ValidateLines(lines); err != nil {
		return nil, apperrors.NewValidationError("invalid journal entry: %v", err)
	}

	callCtx, cancel := s.WithTimeout(ctx)
	defer cancel()

	if _, err := s.accountTypes(callCtx, lines, true); err != nil {
		return nil, err
	}

	ref, err := s.sequence.Next(callCtx, domain.JournalEntryPrefix, req.EntryDate)
	if err != nil {
		return nil, s.collaboratorError(ctx, err, "failed to issue journal reference number")
	}

	now := s.NowUTC()
	entry := domain.JournalEntry{
		EntryID:         entryID,
		ReferenceNumber: ref,
		EntryDate:       domain.DateOf(req.EntryDate),
		Memo:            req.Memo,
		Status:          domain.Draft,
		Lines:           lines,
		Version:         1,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actorID,
			LastUpdatedAt: now,
			LastUpdatedBy: actorID,
		},
	}

	if err := s.journalRepo.SaveEntry(callCtx, entry); err != nil {
		return nil, s.collaboratorError(ctx, err, "failed to save journal entry", slog.String("entry_id", entryID))
	}

	s.audit.record(ctx, domain.EntityJournalEntry, entryID, "", string(domain.Draft), actorID, "")
	s.LogInfo(ctx, "Journal entry created",
		slog.String("entry_id", entryID),
		slog.String("reference", ref),
		slog.Int("lines", len(lines)))
	return &entry, nil
}

// UpdateEntry replaces the lines of a DRAFT entry under an optimistic version check.
func (s *journalService) UpdateEntry(ctx context.Context, entryID string, req dto.UpdateJournalEntryRequest, actorID string) (*domain.JournalEntry, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}
	if err := dto.Validate(req); err != nil {
		return nil, apperrors.NewValidationError("invalid journal entry: %v", err)
	}

	lines := newLines(entryID, req.Lines)
	if err := domain.ValidateLines(lines); err != nil {
		return nil, apperrors.NewValidationError("invalid journal entry: %v", err)
	}

	callCtx, cancel := s.WithTimeout(ctx)
	defer cancel()

	existing, err := s.journalRepo.FindEntryByID(callCtx, entryID)
	if err != nil {
		return nil, s.collaboratorError(ctx, err, "failed to load journal entry", slog.String("entry_id", entryID))
	}
	if existing.Status != domain.Draft {
		return nil, apperrors.NewStateError("entry %s is %s - only DRAFT entries can be updated", existing.ReferenceNumber, existing.Status)
	}
	if req.Version != nil && *req.Version != existing.Version {
		return nil, apperrors.NewConflictError("entry %s is at version %d, not %d", existing.ReferenceNumber, existing.Version, *req.Version)
	}
	if _, err := s.accountTypes(callCtx, lines, true); err != nil {
		return nil, err
	}

	updated := *existing
	if req.EntryDate != nil {
		updated.EntryDate = domain.DateOf(*req.EntryDate)
	}
	if req.Memo != nil {
		updated.Memo = *req.Memo
	}
	updated.Lines = lines
	updated.Version = existing.Version + 1
	updated.LastUpdatedAt = s.NowUTC()
	updated.LastUpdatedBy = actorID

	if err := s.journalRepo.UpdateDraftEntry(callCtx, updated, existing.Version); err != nil {
		return nil, s.collaboratorError(ctx, err, "failed to update journal entry", slog.String("entry_id", entryID))
	}

	s.LogInfo(ctx, "Journal entry updated", slog.String("entry_id", entryID), slog.Int("version", updated.Version))
	return &updated, nil
}

// PostEntry moves a DRAFT entry to POSTED. The status change and the balance
// effects of every line commit together.
func (s *journalService) PostEntry(ctx context.Context, entryID string, actorID string) (*domain.JournalEntry, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}

	callCtx, cancel := s.WithTimeout(ctx)
	defer cancel()

	entry, err := s.journalRepo.FindEntryByID(callCtx, entryID)
	if err != nil {
		return nil, s.collaboratorError(ctx, err, "failed to load journal entry", slog.String("entry_id", entryID))
	}
	if entry.Status != domain.Draft {
		return nil, apperrors.NewStateError("entry %s is %s - only DRAFT entries can be posted", entry.ReferenceNumber, entry.Status)
	}
	if err := entry.Validate(); err != nil {
		return nil, apperrors.NewValidationError("entry %s cannot be posted: %v", entry.ReferenceNumber, err)
	}

	types, err := s.accountTypes(callCtx, entry.Lines, false)
	if err != nil {
		return nil, err
	}
	effects, err := accounting.BalanceEffects(entry.EntryDate, entry.Lines, types)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to compute balance effects", err)
	}

	now := s.NowUTC()
	if err := s.journalRepo.PostEntry(callCtx, entryID, entry.Version, effects, actorID, now); err != nil {
		return nil, s.collaboratorError(ctx, err, "failed to post journal entry", slog.String("entry_id", entryID))
	}

	entry.Status = domain.Posted
	entry.PostedAt = &now
	entry.PostedBy = &actorID
	entry.Version++
	entry.LastUpdatedAt = now
	entry.LastUpdatedBy = actorID

	s.audit.record(ctx, domain.EntityJournalEntry, entryID, string(domain.Draft), string(domain.Posted), actorID, "")
	s.LogInfo(ctx, "Journal entry posted",
		slog.String("entry_id", entryID),
		slog.String("reference", entry.ReferenceNumber),
		slog.Int("accounts", len(effects)))
	return entry, nil
}

// VoidEntry moves a POSTED entry to VOID and removes its contribution from
// every balance, including balances as of dates before the void.
func (s *journalService) VoidEntry(ctx context.Context, entryID string, req dto.VoidJournalEntryRequest, actorID string) (*domain.JournalEntry, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, apperrors.NewValidationError("void reason is required")
	}

	callCtx, cancel := s.WithTimeout(ctx)
	defer cancel()

	entry, err := s.journalRepo.FindEntryByID(callCtx, entryID)
	if err != nil {
		return nil, s.collaboratorError(ctx, err, "failed to load journal entry", slog.String("entry_id", entryID))
	}
	switch entry.Status {
	case domain.Posted:
	case domain.Void:
		return nil, apperrors.NewStateError("entry %s is already VOID", entry.ReferenceNumber)
	default:
		return nil, apperrors.NewStateError("entry %s is %s - only POSTED entries can be voided", entry.ReferenceNumber, entry.Status)
	}

	types, err := s.accountTypes(callCtx, entry.Lines, false)
	if err != nil {
		return nil, err
	}
	effects, err := accounting.BalanceEffects(entry.EntryDate, entry.Lines, types)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to compute balance effects", err)
	}

	now := s.NowUTC()
	if err := s.journalRepo.VoidEntry(callCtx, entryID, accounting.NegateEffects(effects), reason, actorID, now); err != nil {
		return nil, s.collaboratorError(ctx, err, "failed to void journal entry", slog.String("entry_id", entryID))
	}

	entry.Status = domain.Void
	entry.VoidedAt = &now
	entry.VoidedBy = &actorID
	entry.VoidReason = &reason
	entry.Version++
	entry.LastUpdatedAt = now
	entry.LastUpdatedBy = actorID

	s.audit.record(ctx, domain.EntityJournalEntry, entryID, string(domain.Posted), string(domain.Void), actorID, reason)
	s.LogInfo(ctx, "Journal entry voided", slog.String("entry_id", entryID), slog.String("reference", entry.ReferenceNumber))
	return entry, nil
}

// DeleteEntry hard-deletes a DRAFT entry.
func (s *journalService) DeleteEntry(ctx context.Context, entryID string, actorID string) error {
	if err := requireActor(actorID); err != nil {
		return err
	}

	callCtx, cancel := s.WithTimeout(ctx)
	defer cancel()

	entry, err := s.journalRepo.FindEntryByID(callCtx, entryID)
	if err != nil {
		return s.collaboratorError(ctx, err, "failed to load journal entry", slog.String("entry_id", entryID))
	}
	if entry.Status != domain.Draft {
		return apperrors.NewStateError("entry %s is %s - only DRAFT entries can be deleted", entry.ReferenceNumber, entry.Status)
	}
	if err := s.journalRepo.DeleteDraftEntry(callCtx, entryID); err != nil {
		return s.collaboratorError(ctx, err, "failed to delete journal entry", slog.String("entry_id", entryID))
	}

	s.audit.record(ctx, domain.EntityJournalEntry, entryID, string(domain.Draft), domain.DeletedStatus, actorID, "")
	s.LogInfo(ctx, "Journal entry deleted", slog.String("entry_id", entryID))
	return nil
}

func (s *journalService) GetEntry(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	callCtx, cancel := s.WithTimeout(ctx)
	defer cancel()

	entry, err := s.journalRepo.FindEntryByID(callCtx, entryID)
	if err != nil {
		return nil, s.collaboratorError(ctx, err, "failed to load journal entry", slog.String("entry_id", entryID))
	}
	return entry, nil
}

func (s *journalService) ListEntries(ctx context.Context, params dto.ListJournalEntriesParams) (*dto.ListJournalEntriesResponse, error) {
	if err := dto.Validate(params); err != nil {
		return nil, apperrors.NewValidationError("invalid list parameters: %v", err)
	}
	if params.From != nil && params.To != nil && params.To.Before(*params.From) {
		return nil, apperrors.NewValidationError("to date %s is before from date %s", params.To.Format(time.DateOnly), params.From.Format(time.DateOnly))
	}

	callCtx, cancel := s.WithTimeout(ctx)
	defer cancel()

	filter := portsrepo.JournalEntryFilter{
		Status:    params.Status,
		DateRange: portsrepo.DateRange{From: params.From, To: params.To},
	}
	page := portsrepo.PageRequest{Limit: params.Limit, NextToken: params.NextToken}
	entries, nextToken, err := s.journalRepo.ListEntries(callCtx, filter, page)
	if err != nil {
		return nil, s.collaboratorError(ctx, err, "failed to list journal entries")
	}

	return &dto.ListJournalEntriesResponse{
		Entries:   dto.ToJournalEntryResponses(entries),
		NextToken: nextToken,
	}, nil
}

// accountTypes resolves the type of every account the lines touch. Missing
// accounts are reported as not found; inactive ones are rejected when
// requireActive is set.
func (s *journalService) accountTypes(ctx context.Context, lines []domain.JournalLine, requireActive bool) (map[string]domain.AccountType, error) {
	ids := domain.JournalEntry{Lines: lines}.AccountIDs()
	accounts, err := s.accountRepo.FindAccountsByIDs(ctx, ids)
	if err != nil {
		return nil, s.collaboratorError(ctx, err, "failed to load accounts")
	}

	types := make(map[string]domain.AccountType, len(ids))
	for _, id := range ids {
		acc, ok := accounts[id]
		if !ok {
			return nil, apperrors.NewNotFoundError("account %s not found", id)
		}
		if requireActive && !acc.IsActive {
			return nil, apperrors.NewValidationError("account %s is inactive", id)
		}
		types[id] = acc.AccountType
	}
	return types, nil
}

// newLines converts request lines and gives each one a fresh id.
func newLines(entryID string, reqLines []dto.JournalLineRequest) []domain.JournalLine {
	lines := dto.ToDomainLines(entryID, reqLines)
	for i := range lines {
		lines[i].LineID = uuid.NewString()
	}
	return lines
}

func requireActor(actorID string) error {
	if strings.TrimSpace(actorID) == "" {
		return apperrors.NewValidationError("actor is required")
	}
	return nil
}
