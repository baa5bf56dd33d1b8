package services_test

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/SscSPs/ledger_recon/internal/core/domain"
	portssvc "github.com/SscSPs/ledger_recon/internal/core/ports/services"
	"github.com/SscSPs/ledger_recon/internal/core/services"
	"github.com/SscSPs/ledger_recon/internal/dto"
	"github.com/SscSPs/ledger_recon/internal/platform/config"
	"github.com/SscSPs/ledger_recon/internal/repositories/memory"
)

const (
	cashID    = "acc-cash"
	equityID  = "acc-owner-equity"
	revenueID = "acc-revenue"
	expenseID = "acc-expense"
	closedID  = "acc-closed"
	actor     = "user-alice"
	approver  = "user-bob"
)

func testConfig() *config.Config {
	return &config.Config{
		OperationTimeout:         time.Second,
		ReconciliationTolerance:  decimal.New(1, -2),
		MatchDateWindowDays:      3,
		MatchSuggestionThreshold: 0.8,
		AuditMaxRetries:          0,
	}
}

// seededStore returns a store holding a small chart of accounts.
func seededStore() *memory.Store {
	store := memory.NewStore()
	for _, acc := range []domain.Account{
		{AccountID: cashID, Name: "Cash", AccountType: domain.Asset, IsActive: true},
		{AccountID: equityID, Name: "Owner Equity", AccountType: domain.Equity, IsActive: true},
		{AccountID: revenueID, Name: "Sales", AccountType: domain.Revenue, IsActive: true},
		{AccountID: expenseID, Name: "Bank Fees", AccountType: domain.Expense, IsActive: true},
		{AccountID: closedID, Name: "Old Float", AccountType: domain.Asset, IsActive: false},
	} {
		store.AddAccount(acc)
	}
	return store
}

func newContainer(store *memory.Store) *portssvc.ServiceContainer {
	return services.NewServiceContainer(testConfig(), store.Provider(), nil)
}

func date(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func amt(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// transfer builds a two-line entry debiting one account and crediting another.
func transfer(on string, debitAcc, creditAcc, amount, memo string) dto.CreateJournalEntryRequest {
	return dto.CreateJournalEntryRequest{
		EntryDate: date(on),
		Memo:      memo,
		Lines: []dto.JournalLineRequest{
			{AccountID: debitAcc, Debit: amt(amount)},
			{AccountID: creditAcc, Credit: amt(amount)},
		},
	}
}

// postTransfer creates and posts an entry, panicking on failure.
func postTransfer(ctx context.Context, journal portssvc.JournalSvcFacade, on, debitAcc, creditAcc, amount, memo string) *domain.JournalEntry {
	entry, err := journal.CreateEntry(ctx, transfer(on, debitAcc, creditAcc, amount, memo), actor)
	if err != nil {
		panic(err)
	}
	posted, err := journal.PostEntry(ctx, entry.EntryID, actor)
	if err != nil {
		panic(err)
	}
	return posted
}

// --- Mock AuditSink ---
type MockAuditSink struct {
	mock.Mock
}

var _ portssvc.AuditSink = (*MockAuditSink)(nil)

func (m *MockAuditSink) Record(ctx context.Context, record domain.AuditRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

// --- Mock SequenceGenerator ---
type MockSequenceGenerator struct {
	mock.Mock
}

var _ portssvc.SequenceGenerator = (*MockSequenceGenerator)(nil)

func (m *MockSequenceGenerator) Next(ctx context.Context, prefix string, at time.Time) (string, error) {
	args := m.Called(ctx, prefix, at)
	return args.String(0), args.Error(1)
}
