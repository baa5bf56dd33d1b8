package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/SscSPs/ledger_recon/internal/apperrors"
	"github.com/SscSPs/ledger_recon/internal/core/domain"
	portssvc "github.com/SscSPs/ledger_recon/internal/core/ports/services"
	"github.com/SscSPs/ledger_recon/internal/core/services"
	"github.com/SscSPs/ledger_recon/internal/dto"
	"github.com/SscSPs/ledger_recon/internal/repositories/memory"
)

type JournalServiceTestSuite struct {
	suite.Suite
	ctx     context.Context
	store   *memory.Store
	journal portssvc.JournalSvcFacade
	balance portssvc.BalanceSvc
}

func (suite *JournalServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.store = seededStore()
	container := newContainer(suite.store)
	suite.journal = container.Journal
	suite.balance = container.Balance
}

func TestJournalServiceTestSuite(t *testing.T) {
	suite.Run(t, new(JournalServiceTestSuite))
}

func (suite *JournalServiceTestSuite) TestCreateEntry_Success() {
	entry, err := suite.journal.CreateEntry(suite.ctx, transfer("2024-03-05", cashID, equityID, "100.00", "capital"), actor)
	suite.Require().NoError(err)

	suite.Equal(domain.Draft, entry.Status)
	suite.Equal("JE-2024-0001", entry.ReferenceNumber)
	suite.Equal(1, entry.Version)
	suite.Equal(actor, entry.CreatedBy)
	suite.Len(entry.Lines, 2)
	for i, l := range entry.Lines {
		suite.Equal(i+1, l.LineNumber)
		suite.NotEmpty(l.LineID)
		suite.Equal(entry.EntryID, l.EntryID)
	}

	second, err := suite.journal.CreateEntry(suite.ctx, transfer("2024-03-06", cashID, equityID, "5", ""), actor)
	suite.Require().NoError(err)
	suite.Equal("JE-2024-0002", second.ReferenceNumber)

	records, err := suite.store.ListAuditRecords(suite.ctx, domain.EntityJournalEntry, entry.EntryID)
	suite.Require().NoError(err)
	suite.Require().Len(records, 1)
	suite.Equal("", records[0].PreviousStatus)
	suite.Equal(string(domain.Draft), records[0].NewStatus)
	suite.Equal(actor, records[0].ActorID)
}

func (suite *JournalServiceTestSuite) TestCreateEntry_Unbalanced() {
	req := dto.CreateJournalEntryRequest{
		EntryDate: date("2024-03-05"),
		Lines: []dto.JournalLineRequest{
			{AccountID: cashID, Debit: amt("100.00")},
			{AccountID: equityID, Credit: amt("99.97")},
		},
	}
	_, err := suite.journal.CreateEntry(suite.ctx, req, actor)
	suite.True(errors.Is(err, apperrors.ErrValidation))
	suite.Contains(err.Error(), "entry unbalanced by 0.03")
}

func (suite *JournalServiceTestSuite) TestCreateEntry_InvalidLines() {
	testCases := []struct {
		name  string
		lines []dto.JournalLineRequest
	}{
		{
			name:  "single line",
			lines: []dto.JournalLineRequest{{AccountID: cashID, Debit: amt("1")}},
		},
		{
			name: "both sides on one line",
			lines: []dto.JournalLineRequest{
				{AccountID: cashID, Debit: amt("10"), Credit: amt("10")},
				{AccountID: equityID, Credit: amt("0")},
			},
		},
		{
			name: "negative amount",
			lines: []dto.JournalLineRequest{
				{AccountID: cashID, Debit: amt("-10")},
				{AccountID: equityID, Credit: amt("-10")},
			},
		},
		{
			name: "zero line",
			lines: []dto.JournalLineRequest{
				{AccountID: cashID, Debit: amt("10")},
				{AccountID: equityID, Credit: amt("10")},
				{AccountID: revenueID},
			},
		},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			_, err := suite.journal.CreateEntry(suite.ctx, dto.CreateJournalEntryRequest{EntryDate: date("2024-03-05"), Lines: tc.lines}, actor)
			suite.True(errors.Is(err, apperrors.ErrValidation), "got %v", err)
		})
	}
}

func (suite *JournalServiceTestSuite) TestCreateEntry_AccountChecks() {
	_, err := suite.journal.CreateEntry(suite.ctx, transfer("2024-03-05", "acc-missing", equityID, "10", ""), actor)
	suite.True(errors.Is(err, apperrors.ErrNotFound))

	_, err = suite.journal.CreateEntry(suite.ctx, transfer("2024-03-05", closedID, equityID, "10", ""), actor)
	suite.True(errors.Is(err, apperrors.ErrValidation))
	suite.Contains(err.Error(), "inactive")

	_, err = suite.journal.CreateEntry(suite.ctx, transfer("2024-03-05", cashID, equityID, "10", ""), " ")
	suite.True(errors.Is(err, apperrors.ErrValidation))
}

// Scenario A: posting debit Cash / credit Owner Equity raises both balances.
func (suite *JournalServiceTestSuite) TestPostEntry_RaisesBothBalances() {
	today := time.Now().UTC()
	cashBefore, err := suite.balance.GetBalance(suite.ctx, cashID, today)
	suite.Require().NoError(err)
	equityBefore, err := suite.balance.GetBalance(suite.ctx, equityID, today)
	suite.Require().NoError(err)

	entry, err := suite.journal.CreateEntry(suite.ctx, dto.CreateJournalEntryRequest{
		EntryDate: today,
		Lines: []dto.JournalLineRequest{
			{AccountID: cashID, Debit: amt("100.00")},
			{AccountID: equityID, Credit: amt("100.00")},
		},
	}, actor)
	suite.Require().NoError(err)

	// drafts do not move balances
	cashDraft, err := suite.balance.GetBalance(suite.ctx, cashID, today)
	suite.Require().NoError(err)
	suite.True(cashDraft.Equal(cashBefore))

	posted, err := suite.journal.PostEntry(suite.ctx, entry.EntryID, approver)
	suite.Require().NoError(err)
	suite.Equal(domain.Posted, posted.Status)
	suite.Equal(2, posted.Version)
	suite.Require().NotNil(posted.PostedBy)
	suite.Equal(approver, *posted.PostedBy)

	cashAfter, err := suite.balance.GetBalance(suite.ctx, cashID, today)
	suite.Require().NoError(err)
	equityAfter, err := suite.balance.GetBalance(suite.ctx, equityID, today)
	suite.Require().NoError(err)
	suite.Equal("100", cashAfter.Sub(cashBefore).String())
	suite.Equal("100", equityAfter.Sub(equityBefore).String())

	_, err = suite.journal.PostEntry(suite.ctx, entry.EntryID, approver)
	suite.True(errors.Is(err, apperrors.ErrState))
}

func (suite *JournalServiceTestSuite) TestVoidEntry_RemovesContributionRetroactively() {
	postTransfer(suite.ctx, suite.journal, "2024-01-10", cashID, equityID, "500", "capital")
	sale := postTransfer(suite.ctx, suite.journal, "2024-01-20", cashID, revenueID, "75.50", "invoice 17")

	bal, err := suite.balance.GetBalance(suite.ctx, cashID, date("2024-01-31"))
	suite.Require().NoError(err)
	suite.Equal("575.5", bal.String())

	_, err = suite.journal.VoidEntry(suite.ctx, sale.EntryID, dto.VoidJournalEntryRequest{Reason: "  "}, actor)
	suite.True(errors.Is(err, apperrors.ErrValidation))

	voided, err := suite.journal.VoidEntry(suite.ctx, sale.EntryID, dto.VoidJournalEntryRequest{Reason: "duplicate invoice"}, actor)
	suite.Require().NoError(err)
	suite.Equal(domain.Void, voided.Status)
	suite.Require().NotNil(voided.VoidReason)
	suite.Equal("duplicate invoice", *voided.VoidReason)

	for _, asOf := range []string{"2024-01-20", "2024-01-31", "2025-01-01"} {
		bal, err := suite.balance.GetBalance(suite.ctx, cashID, date(asOf))
		suite.Require().NoError(err)
		suite.Equal("500", bal.String(), asOf)
	}
	rev, err := suite.balance.GetBalance(suite.ctx, revenueID, date("2024-01-31"))
	suite.Require().NoError(err)
	suite.True(rev.IsZero())

	_, err = suite.journal.VoidEntry(suite.ctx, sale.EntryID, dto.VoidJournalEntryRequest{Reason: "again"}, actor)
	suite.True(errors.Is(err, apperrors.ErrState))
	suite.Contains(err.Error(), "already VOID")

	records, err := suite.store.ListAuditRecords(suite.ctx, domain.EntityJournalEntry, sale.EntryID)
	suite.Require().NoError(err)
	suite.Require().Len(records, 3)
	suite.Equal(string(domain.Void), records[2].NewStatus)
	suite.Equal("duplicate invoice", records[2].Reason)
}

func (suite *JournalServiceTestSuite) TestVoidEntry_DraftRejected() {
	entry, err := suite.journal.CreateEntry(suite.ctx, transfer("2024-01-10", cashID, equityID, "1", ""), actor)
	suite.Require().NoError(err)

	_, err = suite.journal.VoidEntry(suite.ctx, entry.EntryID, dto.VoidJournalEntryRequest{Reason: "nope"}, actor)
	suite.True(errors.Is(err, apperrors.ErrState))
}

func (suite *JournalServiceTestSuite) TestPostedEntriesAreImmutable() {
	posted := postTransfer(suite.ctx, suite.journal, "2024-01-10", cashID, equityID, "10", "")

	_, err := suite.journal.UpdateEntry(suite.ctx, posted.EntryID, dto.UpdateJournalEntryRequest{
		Lines: transfer("2024-01-10", cashID, equityID, "20", "").Lines,
	}, actor)
	suite.True(errors.Is(err, apperrors.ErrState))

	err = suite.journal.DeleteEntry(suite.ctx, posted.EntryID, actor)
	suite.True(errors.Is(err, apperrors.ErrState))

	stored, err := suite.journal.GetEntry(suite.ctx, posted.EntryID)
	suite.Require().NoError(err)
	suite.Equal("10", stored.Lines[0].Debit.String())
}

func (suite *JournalServiceTestSuite) TestUpdateEntry() {
	entry, err := suite.journal.CreateEntry(suite.ctx, transfer("2024-01-10", cashID, equityID, "10", "first"), actor)
	suite.Require().NoError(err)

	memo := "second"
	version := 1
	updated, err := suite.journal.UpdateEntry(suite.ctx, entry.EntryID, dto.UpdateJournalEntryRequest{
		Memo:    &memo,
		Lines:   transfer("2024-01-10", cashID, revenueID, "25", "").Lines,
		Version: &version,
	}, approver)
	suite.Require().NoError(err)
	suite.Equal(2, updated.Version)
	suite.Equal("second", updated.Memo)
	suite.Equal(revenueID, updated.Lines[1].AccountID)
	suite.Equal(approver, updated.LastUpdatedBy)

	// stale version from a concurrent editor
	_, err = suite.journal.UpdateEntry(suite.ctx, entry.EntryID, dto.UpdateJournalEntryRequest{
		Lines:   transfer("2024-01-10", cashID, revenueID, "30", "").Lines,
		Version: &version,
	}, actor)
	suite.True(errors.Is(err, apperrors.ErrConflict))
	suite.True(apperrors.IsRetryable(err))

	stored, err := suite.journal.GetEntry(suite.ctx, entry.EntryID)
	suite.Require().NoError(err)
	suite.Equal("25", stored.Lines[0].Debit.String())
}

func (suite *JournalServiceTestSuite) TestDeleteEntry() {
	entry, err := suite.journal.CreateEntry(suite.ctx, transfer("2024-01-10", cashID, equityID, "10", ""), actor)
	suite.Require().NoError(err)

	suite.Require().NoError(suite.journal.DeleteEntry(suite.ctx, entry.EntryID, actor))

	_, err = suite.journal.GetEntry(suite.ctx, entry.EntryID)
	suite.True(errors.Is(err, apperrors.ErrNotFound))

	records, err := suite.store.ListAuditRecords(suite.ctx, domain.EntityJournalEntry, entry.EntryID)
	suite.Require().NoError(err)
	suite.Require().Len(records, 2)
	suite.Equal(domain.DeletedStatus, records[1].NewStatus)
}

func (suite *JournalServiceTestSuite) TestListEntries() {
	postTransfer(suite.ctx, suite.journal, "2024-01-10", cashID, equityID, "10", "")
	postTransfer(suite.ctx, suite.journal, "2024-01-11", cashID, equityID, "10", "")
	_, err := suite.journal.CreateEntry(suite.ctx, transfer("2024-01-12", cashID, equityID, "10", ""), actor)
	suite.Require().NoError(err)

	posted := domain.Posted
	page, err := suite.journal.ListEntries(suite.ctx, dto.ListJournalEntriesParams{Status: &posted, Limit: 1})
	suite.Require().NoError(err)
	suite.Require().Len(page.Entries, 1)
	suite.Require().NotNil(page.NextToken)
	suite.Equal(date("2024-01-11"), page.Entries[0].EntryDate)

	next, err := suite.journal.ListEntries(suite.ctx, dto.ListJournalEntriesParams{Status: &posted, Limit: 1, NextToken: page.NextToken})
	suite.Require().NoError(err)
	suite.Require().Len(next.Entries, 1)
	suite.Nil(next.NextToken)
	suite.Equal(date("2024-01-10"), next.Entries[0].EntryDate)

	from, to := date("2024-02-01"), date("2024-01-01")
	_, err = suite.journal.ListEntries(suite.ctx, dto.ListJournalEntriesParams{From: &from, To: &to})
	suite.True(errors.Is(err, apperrors.ErrValidation))
}

// failingJournalStore fails the write under test and delegates everything else.
type failingJournalStore struct {
	*memory.Store
	saveErr error
}

func (f *failingJournalStore) SaveEntry(ctx context.Context, entry domain.JournalEntry) error {
	return f.saveErr
}

func TestJournalService_CollaboratorFailures(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name     string
		saveErr  error
		wantKind apperrors.Kind
	}{
		{name: "opaque repository error", saveErr: errors.New("connection reset"), wantKind: apperrors.KindInternal},
		{name: "deadline exceeded", saveErr: context.DeadlineExceeded, wantKind: apperrors.KindTimeout},
		{name: "typed error passes through", saveErr: apperrors.NewConflictError("entry exists"), wantKind: apperrors.KindConflict},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			store := seededStore()
			repo := &failingJournalStore{Store: store, saveErr: tc.saveErr}
			svc := services.NewJournalService(store, repo, services.NewSequenceGenerator(store))

			_, err := svc.CreateEntry(ctx, transfer("2024-01-10", cashID, equityID, "10", ""), actor)
			require.Error(t, err)
			assert.Equal(t, tc.wantKind, apperrors.KindOf(err))
		})
	}
}

func TestJournalService_SequenceFailure(t *testing.T) {
	ctx := context.Background()
	store := seededStore()
	sequence := new(MockSequenceGenerator)
	sequence.On("Next", mock.Anything, domain.JournalEntryPrefix, mock.AnythingOfType("time.Time")).
		Return("", errors.New("sequence table locked")).Once()

	svc := services.NewJournalService(store, store, sequence)
	_, err := svc.CreateEntry(ctx, transfer("2024-01-10", cashID, equityID, "10", ""), actor)

	assert.Equal(t, apperrors.KindInternal, apperrors.KindOf(err))
	sequence.AssertExpectations(t)
}

func TestJournalService_AuditFailureDoesNotFailOperation(t *testing.T) {
	ctx := context.Background()
	store := seededStore()
	sink := new(MockAuditSink)
	sink.On("Record", mock.Anything, mock.MatchedBy(func(r domain.AuditRecord) bool {
		return r.EntityType == domain.EntityJournalEntry && r.NewStatus == string(domain.Draft)
	})).Return(errors.New("audit store down")).Once()

	svc := services.NewJournalService(store, store, services.NewSequenceGenerator(store),
		services.WithJournalAuditSink(sink, 0))

	entry, err := svc.CreateEntry(ctx, transfer("2024-01-10", cashID, equityID, "10", ""), actor)
	require.NoError(t, err)
	assert.Equal(t, domain.Draft, entry.Status)
	sink.AssertExpectations(t)
}

func TestJournalService_ClockOption(t *testing.T) {
	ctx := context.Background()
	store := seededStore()
	fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := services.NewJournalService(store, store, services.NewSequenceGenerator(store),
		services.WithJournalClock(func() time.Time { return fixed }),
		services.WithJournalTimeout(time.Second))

	entry, err := svc.CreateEntry(ctx, transfer("2024-01-10", cashID, equityID, "10", ""), actor)
	require.NoError(t, err)
	assert.Equal(t, fixed, entry.CreatedAt)

	posted, err := svc.PostEntry(ctx, entry.EntryID, actor)
	require.NoError(t, err)
	require.NotNil(t, posted.PostedAt)
	assert.Equal(t, fixed, *posted.PostedAt)
}
