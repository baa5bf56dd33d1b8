package services_test

import (
	"context"
	"errors"
	"testing"

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

// ReconciliationServiceTestSuite works on February 2024. Cash opens the
// month at 1,000.00 and moves +200.00 during it.
type ReconciliationServiceTestSuite struct {
	suite.Suite
	ctx   context.Context
	store *memory.Store
	svc   *portssvc.ServiceContainer
}

func (suite *ReconciliationServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.store = seededStore()
	suite.svc = newContainer(suite.store)

	postTransfer(suite.ctx, suite.svc.Journal, "2024-01-15", cashID, equityID, "1000.00", "capital")
	postTransfer(suite.ctx, suite.svc.Journal, "2024-02-10", cashID, revenueID, "200.00", "invoice 42")
	// outside the period, must not count
	postTransfer(suite.ctx, suite.svc.Journal, "2024-03-02", cashID, revenueID, "999.00", "march")
}

func TestReconciliationServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ReconciliationServiceTestSuite))
}

func (suite *ReconciliationServiceTestSuite) create(accountIDs ...string) *domain.Reconciliation {
	rec, err := suite.svc.Reconciliation.CreateReconciliation(suite.ctx, dto.CreateReconciliationRequest{
		AccountIDs:  accountIDs,
		PeriodStart: date("2024-02-01"),
		PeriodEnd:   date("2024-02-29"),
	}, actor)
	suite.Require().NoError(err)
	return rec
}

func (suite *ReconciliationServiceTestSuite) started(accountIDs ...string) *domain.Reconciliation {
	rec := suite.create(accountIDs...)
	rec, err := suite.svc.Reconciliation.StartWork(suite.ctx, rec.ReconciliationID, actor)
	suite.Require().NoError(err)
	return rec
}

func (suite *ReconciliationServiceTestSuite) reconcile(recID, accountID, balance, notes string) (*domain.Reconciliation, error) {
	return suite.svc.Reconciliation.ReconcileAccount(suite.ctx, recID, accountID, dto.ReconcileAccountRequest{
		ReconciledBalance: amt(balance),
		Notes:             notes,
	}, actor)
}

func (suite *ReconciliationServiceTestSuite) TestCreateReconciliation() {
	rec := suite.create(cashID, equityID, cashID)

	suite.Equal(domain.ReconciliationDraft, rec.Status)
	suite.Regexp(`^REC-\d{4}-0001$`, rec.ReferenceNumber)
	suite.Equal([]string{cashID, equityID}, rec.AccountIDs)
	suite.Equal(2, rec.TotalAccounts)
	suite.Equal(2, rec.PendingAccounts)

	cash := rec.Account(cashID)
	suite.Require().NotNil(cash)
	suite.Equal("1000.00", cash.OpeningBalance.StringFixed(2))
	suite.Equal(domain.AccountPending, cash.Status)
	suite.Nil(cash.ReconciledBalance)

	stored, err := suite.svc.Reconciliation.GetReconciliation(suite.ctx, rec.ReconciliationID)
	suite.Require().NoError(err)
	suite.Len(stored.Accounts, 2)
}

func (suite *ReconciliationServiceTestSuite) TestCreateReconciliation_Invalid() {
	_, err := suite.svc.Reconciliation.CreateReconciliation(suite.ctx, dto.CreateReconciliationRequest{
		AccountIDs:  []string{cashID},
		PeriodStart: date("2024-02-29"),
		PeriodEnd:   date("2024-02-01"),
	}, actor)
	suite.True(errors.Is(err, apperrors.ErrValidation))

	_, err = suite.svc.Reconciliation.CreateReconciliation(suite.ctx, dto.CreateReconciliationRequest{
		AccountIDs:  []string{cashID, "acc-missing"},
		PeriodStart: date("2024-02-01"),
		PeriodEnd:   date("2024-02-29"),
	}, actor)
	suite.True(errors.Is(err, apperrors.ErrNotFound))

	_, err = suite.svc.Reconciliation.CreateReconciliation(suite.ctx, dto.CreateReconciliationRequest{
		PeriodStart: date("2024-02-01"),
		PeriodEnd:   date("2024-02-29"),
	}, actor)
	suite.True(errors.Is(err, apperrors.ErrValidation))
}

// Scenario B: opening 1,000.00 + movement 200.00 against a statement of 1,200.00.
func (suite *ReconciliationServiceTestSuite) TestReconcileAccount_WithinTolerance() {
	rec := suite.started(cashID)

	rec, err := suite.reconcile(rec.ReconciliationID, cashID, "1200.00", "")
	suite.Require().NoError(err)

	cash := rec.Account(cashID)
	suite.Equal(domain.AccountReconciled, cash.Status)
	suite.Equal("200.00", cash.Movement.StringFixed(2))
	suite.True(cash.Difference.IsZero())
	suite.Require().NotNil(cash.ResolvedBy)
	suite.Equal(actor, *cash.ResolvedBy)
	suite.Equal(1, rec.ReconciledAccounts)
	suite.Equal(0, rec.PendingAccounts)

	// one cent either way is still within tolerance
	rec, err = suite.reconcile(rec.ReconciliationID, cashID, "1200.01", "")
	suite.Require().NoError(err)
	suite.Equal(domain.AccountReconciled, rec.Account(cashID).Status)
}

// Scenario C: a 50.00 gap needs notes and ends up DISPUTED.
func (suite *ReconciliationServiceTestSuite) TestReconcileAccount_Dispute() {
	rec := suite.started(cashID)

	_, err := suite.reconcile(rec.ReconciliationID, cashID, "1250.00", "")
	suite.True(errors.Is(err, apperrors.ErrValidation))
	suite.Contains(err.Error(), "notes are required")

	unchanged, err := suite.svc.Reconciliation.GetReconciliation(suite.ctx, rec.ReconciliationID)
	suite.Require().NoError(err)
	suite.Equal(domain.AccountPending, unchanged.Account(cashID).Status)

	rec, err = suite.reconcile(rec.ReconciliationID, cashID, "1250.00", "timing difference")
	suite.Require().NoError(err)
	cash := rec.Account(cashID)
	suite.Equal(domain.AccountDisputed, cash.Status)
	suite.Equal("50.00", cash.Difference.StringFixed(2))
	suite.Equal("timing difference", cash.Notes)

	summary, err := suite.svc.Reconciliation.GetSummary(suite.ctx, rec.ReconciliationID)
	suite.Require().NoError(err)
	suite.Equal(1, summary.DisputedAccounts)
	suite.Equal("50.00", summary.TotalDifference.StringFixed(2))

	report, err := suite.svc.Reconciliation.GetAccountReport(suite.ctx, rec.ReconciliationID)
	suite.Require().NoError(err)
	suite.Require().Len(report, 1)
	suite.Equal(domain.AccountDisputed, report[0].Status)
	suite.Require().NotNil(report[0].ReconciledBalance)
	suite.Equal("1250.00", report[0].ReconciledBalance.StringFixed(2))
}

func (suite *ReconciliationServiceTestSuite) TestReconcileAccount_RequiresInProgress() {
	rec := suite.create(cashID)

	_, err := suite.reconcile(rec.ReconciliationID, cashID, "1200.00", "")
	suite.True(errors.Is(err, apperrors.ErrState))

	rec = suite.started(equityID)
	_, err = suite.reconcile(rec.ReconciliationID, cashID, "1200.00", "")
	suite.True(errors.Is(err, apperrors.ErrNotFound))
}

func (suite *ReconciliationServiceTestSuite) TestReconcileAccount_StaleVersion() {
	rec := suite.started(cashID)
	stale := 1

	_, err := suite.reconcile(rec.ReconciliationID, cashID, "1200.00", "")
	suite.Require().NoError(err)

	_, err = suite.svc.Reconciliation.ReconcileAccount(suite.ctx, rec.ReconciliationID, cashID, dto.ReconcileAccountRequest{
		ReconciledBalance: amt("1200.00"),
		Version:           &stale,
	}, approver)
	suite.True(errors.Is(err, apperrors.ErrConflict))
}

// Scenario D: finalize refuses while an account is still pending.
func (suite *ReconciliationServiceTestSuite) TestFinalize_PendingAccount() {
	rec := suite.started(cashID, equityID)
	_, err := suite.reconcile(rec.ReconciliationID, cashID, "1200.00", "")
	suite.Require().NoError(err)

	before, err := suite.svc.Reconciliation.GetReconciliation(suite.ctx, rec.ReconciliationID)
	suite.Require().NoError(err)

	_, err = suite.svc.Reconciliation.Finalize(suite.ctx, rec.ReconciliationID, actor)
	suite.True(errors.Is(err, apperrors.ErrState))
	suite.Contains(err.Error(), equityID)
	suite.NotContains(err.Error(), cashID)

	after, err := suite.svc.Reconciliation.GetReconciliation(suite.ctx, rec.ReconciliationID)
	suite.Require().NoError(err)
	suite.Equal(domain.ReconciliationInProgress, after.Status)
	suite.Equal(before.Version, after.Version)
	suite.Nil(after.CompletedAt)
}

func (suite *ReconciliationServiceTestSuite) TestFinalize_DisputeWithoutNotes() {
	rec := suite.started(cashID)
	cash := rec.Account(cashID)

	// a dispute that reached storage without its explanation
	broken := *cash
	broken.Status = domain.AccountDisputed
	broken.Difference = amt("50")
	broken.Version = cash.Version + 1
	suite.Require().NoError(suite.store.UpdateReconciliationAccount(suite.ctx, broken, cash.Version))

	_, err := suite.svc.Reconciliation.Finalize(suite.ctx, rec.ReconciliationID, actor)
	suite.True(errors.Is(err, apperrors.ErrToleranceExceeded))
	suite.Equal(apperrors.KindToleranceExceeded, apperrors.KindOf(err))
}

// Scenario E plus the approval path.
func (suite *ReconciliationServiceTestSuite) TestWorkflow_RejectAndRework() {
	rec := suite.started(cashID)
	_, err := suite.reconcile(rec.ReconciliationID, cashID, "1250.00", "timing difference")
	suite.Require().NoError(err)

	rec, err = suite.svc.Reconciliation.Finalize(suite.ctx, rec.ReconciliationID, actor)
	suite.Require().NoError(err)
	suite.Equal(domain.ReconciliationCompleted, rec.Status)
	suite.Require().NotNil(rec.CompletedBy)
	suite.Equal(actor, *rec.CompletedBy)

	_, err = suite.svc.Reconciliation.Reject(suite.ctx, rec.ReconciliationID, dto.RejectReconciliationRequest{Reason: " "}, approver)
	suite.True(errors.Is(err, apperrors.ErrValidation))

	rec, err = suite.svc.Reconciliation.Reject(suite.ctx, rec.ReconciliationID, dto.RejectReconciliationRequest{Reason: "balance mismatch"}, approver)
	suite.Require().NoError(err)
	suite.Equal(domain.ReconciliationRejected, rec.Status)
	suite.Require().NotNil(rec.RejectionReason)
	suite.Equal("balance mismatch", *rec.RejectionReason)

	rec, err = suite.svc.Reconciliation.StartWork(suite.ctx, rec.ReconciliationID, actor)
	suite.Require().NoError(err)
	suite.Equal(domain.ReconciliationInProgress, rec.Status)

	rec, err = suite.reconcile(rec.ReconciliationID, cashID, "1200.00", "")
	suite.Require().NoError(err)
	rec, err = suite.svc.Reconciliation.Finalize(suite.ctx, rec.ReconciliationID, actor)
	suite.Require().NoError(err)
	rec, err = suite.svc.Reconciliation.Approve(suite.ctx, rec.ReconciliationID, approver)
	suite.Require().NoError(err)
	suite.Equal(domain.ReconciliationApproved, rec.Status)
	suite.True(rec.Status.IsTerminal())

	_, err = suite.svc.Reconciliation.Cancel(suite.ctx, rec.ReconciliationID, dto.CancelReconciliationRequest{Reason: "too late"}, actor)
	suite.True(errors.Is(err, apperrors.ErrState))

	records, err := suite.store.ListAuditRecords(suite.ctx, domain.EntityReconciliation, rec.ReconciliationID)
	suite.Require().NoError(err)
	var path []string
	for _, r := range records {
		path = append(path, r.NewStatus)
	}
	suite.Equal([]string{"DRAFT", "IN_PROGRESS", "COMPLETED", "REJECTED", "IN_PROGRESS", "COMPLETED", "APPROVED"}, path)
	suite.Equal("balance mismatch", records[3].Reason)
	suite.Equal(approver, records[3].ActorID)
}

func (suite *ReconciliationServiceTestSuite) TestIllegalTransitions() {
	rec := suite.create(cashID)

	_, err := suite.svc.Reconciliation.Finalize(suite.ctx, rec.ReconciliationID, actor)
	suite.True(errors.Is(err, apperrors.ErrState))
	_, err = suite.svc.Reconciliation.Approve(suite.ctx, rec.ReconciliationID, approver)
	suite.True(errors.Is(err, apperrors.ErrState))

	_, err = suite.svc.Reconciliation.Cancel(suite.ctx, rec.ReconciliationID, dto.CancelReconciliationRequest{}, actor)
	suite.True(errors.Is(err, apperrors.ErrValidation))

	cancelled, err := suite.svc.Reconciliation.Cancel(suite.ctx, rec.ReconciliationID, dto.CancelReconciliationRequest{Reason: "wrong period"}, actor)
	suite.Require().NoError(err)
	suite.Equal(domain.ReconciliationCancelled, cancelled.Status)

	_, err = suite.svc.Reconciliation.StartWork(suite.ctx, rec.ReconciliationID, actor)
	suite.True(errors.Is(err, apperrors.ErrState))

	_, err = suite.svc.Reconciliation.GetReconciliation(suite.ctx, "rec-missing")
	suite.True(errors.Is(err, apperrors.ErrNotFound))
}

func (suite *ReconciliationServiceTestSuite) TestListReconciliations() {
	first := suite.create(cashID)
	suite.started(equityID)
	suite.create(revenueID)

	inProgress := domain.ReconciliationInProgress
	page, err := suite.svc.Reconciliation.ListReconciliations(suite.ctx, dto.ListReconciliationsParams{Status: &inProgress})
	suite.Require().NoError(err)
	suite.Require().Len(page.Reconciliations, 1)
	suite.Equal(domain.ReconciliationInProgress, page.Reconciliations[0].Status)

	cash := cashID
	page, err = suite.svc.Reconciliation.ListReconciliations(suite.ctx, dto.ListReconciliationsParams{AccountID: &cash})
	suite.Require().NoError(err)
	suite.Require().Len(page.Reconciliations, 1)
	suite.Equal(first.ReconciliationID, page.Reconciliations[0].ReconciliationID)

	all, err := suite.svc.Reconciliation.ListReconciliations(suite.ctx, dto.ListReconciliationsParams{Limit: 2})
	suite.Require().NoError(err)
	suite.Len(all.Reconciliations, 2)
	suite.NotNil(all.NextToken)
}

func TestReconciliationService_AuditRetriedThenAbandoned(t *testing.T) {
	ctx := context.Background()
	store := seededStore()
	balances := services.NewBalanceService(store, store, store)
	sink := new(MockAuditSink)
	sink.On("Record", mock.Anything, mock.AnythingOfType("domain.AuditRecord")).
		Return(errors.New("audit store down")).Times(2)

	svc := services.NewReconciliationService(store, store, store, balances, services.NewSequenceGenerator(store),
		services.WithReconciliationAuditSink(sink, 1))

	rec, err := svc.CreateReconciliation(ctx, dto.CreateReconciliationRequest{
		AccountIDs:  []string{cashID},
		PeriodStart: date("2024-02-01"),
		PeriodEnd:   date("2024-02-29"),
	}, actor)
	require.NoError(t, err)
	assert.Equal(t, domain.ReconciliationDraft, rec.Status)
	sink.AssertExpectations(t)
}

func TestReconciliationService_CustomTolerance(t *testing.T) {
	ctx := context.Background()
	store := seededStore()
	container := newContainer(store)
	postTransfer(ctx, container.Journal, "2024-02-10", cashID, revenueID, "200.00", "")

	svc := services.NewReconciliationService(store, store, store, container.Balance, services.NewSequenceGenerator(store),
		services.WithTolerance(amt("5")))
	rec, err := svc.CreateReconciliation(ctx, dto.CreateReconciliationRequest{
		AccountIDs:  []string{cashID},
		PeriodStart: date("2024-02-01"),
		PeriodEnd:   date("2024-02-29"),
	}, actor)
	require.NoError(t, err)
	_, err = svc.StartWork(ctx, rec.ReconciliationID, actor)
	require.NoError(t, err)

	rec, err = svc.ReconcileAccount(ctx, rec.ReconciliationID, cashID, dto.ReconcileAccountRequest{ReconciledBalance: amt("195.00")}, actor)
	require.NoError(t, err)
	assert.Equal(t, domain.AccountReconciled, rec.Account(cashID).Status)
	assert.Equal(t, "-5.00", rec.Account(cashID).Difference.StringFixed(2))
}
