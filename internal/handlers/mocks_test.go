package handlers_test

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/SscSPs/ledger_recon/internal/core/domain"
	portssvc "github.com/SscSPs/ledger_recon/internal/core/ports/services"
	"github.com/SscSPs/ledger_recon/internal/dto"
)

// --- Mock JournalService ---
type MockJournalService struct {
	mock.Mock
}

func (m *MockJournalService) entry(args mock.Arguments) (*domain.JournalEntry, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockJournalService) GetEntry(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	return m.entry(m.Called(ctx, entryID))
}
func (m *MockJournalService) ListEntries(ctx context.Context, params dto.ListJournalEntriesParams) (*dto.ListJournalEntriesResponse, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListJournalEntriesResponse), args.Error(1)
}
func (m *MockJournalService) CreateEntry(ctx context.Context, req dto.CreateJournalEntryRequest, actorID string) (*domain.JournalEntry, error) {
	return m.entry(m.Called(ctx, req, actorID))
}
func (m *MockJournalService) UpdateEntry(ctx context.Context, entryID string, req dto.UpdateJournalEntryRequest, actorID string) (*domain.JournalEntry, error) {
	return m.entry(m.Called(ctx, entryID, req, actorID))
}
func (m *MockJournalService) DeleteEntry(ctx context.Context, entryID string, actorID string) error {
	return m.Called(ctx, entryID, actorID).Error(0)
}
func (m *MockJournalService) PostEntry(ctx context.Context, entryID string, actorID string) (*domain.JournalEntry, error) {
	return m.entry(m.Called(ctx, entryID, actorID))
}
func (m *MockJournalService) VoidEntry(ctx context.Context, entryID string, req dto.VoidJournalEntryRequest, actorID string) (*domain.JournalEntry, error) {
	return m.entry(m.Called(ctx, entryID, req, actorID))
}

// Ensure mock implements the interface
var _ portssvc.JournalSvcFacade = (*MockJournalService)(nil)

// --- Mock BalanceService ---
type MockBalanceService struct {
	mock.Mock
}

func (m *MockBalanceService) GetBalance(ctx context.Context, accountID string, asOf time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, accountID, asOf)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}
func (m *MockBalanceService) GetMovement(ctx context.Context, accountID string, start, end time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, accountID, start, end)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}
func (m *MockBalanceService) RecomputeBalance(ctx context.Context, accountID string, asOf time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, accountID, asOf)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}
func (m *MockBalanceService) VerifyBalance(ctx context.Context, accountID string, asOf time.Time) (*domain.BalanceCheck, error) {
	args := m.Called(ctx, accountID, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BalanceCheck), args.Error(1)
}

var _ portssvc.BalanceSvc = (*MockBalanceService)(nil)

// --- Mock ReconciliationService ---
type MockReconciliationService struct {
	mock.Mock
}

func (m *MockReconciliationService) rec(args mock.Arguments) (*domain.Reconciliation, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reconciliation), args.Error(1)
}

func (m *MockReconciliationService) state(args mock.Arguments) (*dto.MatchingStateResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.MatchingStateResponse), args.Error(1)
}

func (m *MockReconciliationService) loaded(args mock.Arguments) (*dto.LoadTransactionsResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.LoadTransactionsResponse), args.Error(1)
}

func (m *MockReconciliationService) GetReconciliation(ctx context.Context, reconciliationID string) (*domain.Reconciliation, error) {
	return m.rec(m.Called(ctx, reconciliationID))
}
func (m *MockReconciliationService) ListReconciliations(ctx context.Context, params dto.ListReconciliationsParams) (*dto.ListReconciliationsResponse, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListReconciliationsResponse), args.Error(1)
}
func (m *MockReconciliationService) GetSummary(ctx context.Context, reconciliationID string) (*dto.ReconciliationSummary, error) {
	args := m.Called(ctx, reconciliationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ReconciliationSummary), args.Error(1)
}
func (m *MockReconciliationService) GetAccountReport(ctx context.Context, reconciliationID string) ([]dto.AccountReportRow, error) {
	args := m.Called(ctx, reconciliationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dto.AccountReportRow), args.Error(1)
}
func (m *MockReconciliationService) CreateReconciliation(ctx context.Context, req dto.CreateReconciliationRequest, actorID string) (*domain.Reconciliation, error) {
	return m.rec(m.Called(ctx, req, actorID))
}
func (m *MockReconciliationService) StartWork(ctx context.Context, reconciliationID string, actorID string) (*domain.Reconciliation, error) {
	return m.rec(m.Called(ctx, reconciliationID, actorID))
}
func (m *MockReconciliationService) ReconcileAccount(ctx context.Context, reconciliationID, accountID string, req dto.ReconcileAccountRequest, actorID string) (*domain.Reconciliation, error) {
	return m.rec(m.Called(ctx, reconciliationID, accountID, req, actorID))
}
func (m *MockReconciliationService) Finalize(ctx context.Context, reconciliationID string, actorID string) (*domain.Reconciliation, error) {
	return m.rec(m.Called(ctx, reconciliationID, actorID))
}
func (m *MockReconciliationService) Approve(ctx context.Context, reconciliationID string, approverID string) (*domain.Reconciliation, error) {
	return m.rec(m.Called(ctx, reconciliationID, approverID))
}
func (m *MockReconciliationService) Reject(ctx context.Context, reconciliationID string, req dto.RejectReconciliationRequest, approverID string) (*domain.Reconciliation, error) {
	return m.rec(m.Called(ctx, reconciliationID, req, approverID))
}
func (m *MockReconciliationService) Cancel(ctx context.Context, reconciliationID string, req dto.CancelReconciliationRequest, actorID string) (*domain.Reconciliation, error) {
	return m.rec(m.Called(ctx, reconciliationID, req, actorID))
}
func (m *MockReconciliationService) LoadLedgerTransactions(ctx context.Context, reconciliationID, accountID string, actorID string) (*dto.LoadTransactionsResponse, error) {
	return m.loaded(m.Called(ctx, reconciliationID, accountID, actorID))
}
func (m *MockReconciliationService) ImportExternalTransactions(ctx context.Context, reconciliationID, accountID string, req dto.ImportExternalTransactionsRequest, actorID string) (*dto.LoadTransactionsResponse, error) {
	return m.loaded(m.Called(ctx, reconciliationID, accountID, req, actorID))
}
func (m *MockReconciliationService) AutoMatch(ctx context.Context, reconciliationID, accountID string, req dto.AutoMatchRequest, actorID string) (*dto.MatchResultResponse, error) {
	args := m.Called(ctx, reconciliationID, accountID, req, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.MatchResultResponse), args.Error(1)
}
func (m *MockReconciliationService) ManualMatch(ctx context.Context, reconciliationID, accountID string, req dto.ManualMatchRequest, actorID string) (*dto.MatchingStateResponse, error) {
	return m.state(m.Called(ctx, reconciliationID, accountID, req, actorID))
}
func (m *MockReconciliationService) Unmatch(ctx context.Context, reconciliationID, accountID, transactionID string, actorID string) (*dto.MatchingStateResponse, error) {
	return m.state(m.Called(ctx, reconciliationID, accountID, transactionID, actorID))
}
func (m *MockReconciliationService) GetMatchingState(ctx context.Context, reconciliationID, accountID string) (*dto.MatchingStateResponse, error) {
	return m.state(m.Called(ctx, reconciliationID, accountID))
}

var _ portssvc.ReconciliationSvcFacade = (*MockReconciliationService)(nil)
