package handlers_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/SscSPs/ledger_recon/internal/apperrors"
	"github.com/SscSPs/ledger_recon/internal/core/domain"
	"github.com/SscSPs/ledger_recon/internal/dto"
)

const recBase = "/api/v1/reconciliations"

func sampleReconciliation(status domain.ReconciliationStatus) *domain.Reconciliation {
	return &domain.Reconciliation{
		ReconciliationID: "r1",
		ReferenceNumber:  "REC-2024-0001",
		AccountIDs:       []string{"cash"},
		PeriodStart:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:        time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		Status:           status,
		Accounts: []domain.ReconciliationAccount{{
			ID:             "ra1",
			AccountID:      "cash",
			OpeningBalance: decimal.NewFromInt(1000),
			Movement:       decimal.NewFromInt(250),
			Status:         domain.AccountPending,
		}},
		TotalAccounts:   1,
		PendingAccounts: 1,
		Version:         1,
	}
}

func (s *HandlerTestSuite) TestCreateReconciliation() {
	s.recon.On("CreateReconciliation", mock.Anything, mock.MatchedBy(func(r dto.CreateReconciliationRequest) bool {
		return len(r.AccountIDs) == 1 && r.AccountIDs[0] == "cash" && r.PeriodEnd.Day() == 31
	}), testUserID).Return(sampleReconciliation(domain.ReconciliationDraft), nil).Once()

	w := s.do(http.MethodPost, recBase, `{"accountIDs":["cash"],"periodStart":"2024-01-01T00:00:00Z","periodEnd":"2024-01-31T00:00:00Z"}`)

	s.Equal(http.StatusCreated, w.Code)
	var resp dto.ReconciliationResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal("REC-2024-0001", resp.ReferenceNumber)
	s.Equal(domain.ReconciliationDraft, resp.Status)
	s.Require().Len(resp.Accounts, 1)
	s.Equal(domain.AccountPending, resp.Accounts[0].Status)

	w = s.do(http.MethodPost, recBase, `{"accountIDs":[],"periodStart":"2024-01-01T00:00:00Z","periodEnd":"2024-01-31T00:00:00Z"}`)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlerTestSuite) TestWorkflowTransitions() {
	s.recon.On("StartWork", mock.Anything, "r1", testUserID).Return(sampleReconciliation(domain.ReconciliationInProgress), nil).Once()
	s.recon.On("Finalize", mock.Anything, "r1", testUserID).
		Return(nil, apperrors.NewStateError("1 account(s) still unresolved")).Once()
	s.recon.On("Approve", mock.Anything, "r1", testUserID).Return(sampleReconciliation(domain.ReconciliationApproved), nil).Once()

	w := s.do(http.MethodPost, recBase+"/r1/start", nil)
	s.Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodPost, recBase+"/r1/finalize", nil)
	s.Equal(http.StatusConflict, w.Code)
	s.Equal(string(apperrors.KindState), s.errorBody(w)["kind"])

	w = s.do(http.MethodPost, recBase+"/r1/approve", nil)
	s.Equal(http.StatusOK, w.Code)
}

func (s *HandlerTestSuite) TestRejectAndCancelNeedReason() {
	w := s.do(http.MethodPost, recBase+"/r1/reject", `{}`)
	s.Equal(http.StatusBadRequest, w.Code)
	w = s.do(http.MethodPost, recBase+"/r1/cancel", `{"reason":""}`)
	s.Equal(http.StatusBadRequest, w.Code)

	s.recon.On("Reject", mock.Anything, "r1", dto.RejectReconciliationRequest{Reason: "bank total off"}, testUserID).
		Return(sampleReconciliation(domain.ReconciliationRejected), nil).Once()
	w = s.do(http.MethodPost, recBase+"/r1/reject", dto.RejectReconciliationRequest{Reason: "bank total off"})
	s.Equal(http.StatusOK, w.Code)
}

func (s *HandlerTestSuite) TestReconcileAccount_ToleranceExceeded() {
	s.recon.On("ReconcileAccount", mock.Anything, "r1", "cash", mock.MatchedBy(func(r dto.ReconcileAccountRequest) bool {
		return r.ReconciledBalance.Equal(decimal.RequireFromString("1249.50"))
	}), testUserID).Return(nil, apperrors.NewToleranceExceededError("difference 0.50 exceeds tolerance 0.01")).Once()

	w := s.do(http.MethodPut, recBase+"/r1/accounts/cash", `{"reconciledBalance":"1249.50"}`)

	s.Equal(http.StatusUnprocessableEntity, w.Code)
	s.Equal(string(apperrors.KindToleranceExceeded), s.errorBody(w)["kind"])
}

func (s *HandlerTestSuite) TestSummaryAndReport() {
	s.recon.On("GetSummary", mock.Anything, "r1").Return(&dto.ReconciliationSummary{ReconciliationID: "r1", TotalAccounts: 1, PendingAccounts: 1}, nil).Once()
	s.recon.On("GetAccountReport", mock.Anything, "r1").Return(dto.ToAccountReportRows(sampleReconciliation(domain.ReconciliationDraft).Accounts), nil).Once()

	w := s.do(http.MethodGet, recBase+"/r1/summary", nil)
	s.Equal(http.StatusOK, w.Code)
	var summary dto.ReconciliationSummary
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &summary))
	s.Equal(1, summary.PendingAccounts)

	w = s.do(http.MethodGet, recBase+"/r1/report", nil)
	s.Equal(http.StatusOK, w.Code)
	var report struct {
		Accounts []dto.AccountReportRow `json:"accounts"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &report))
	s.Require().Len(report.Accounts, 1)
	s.Equal("1000", report.Accounts[0].OpeningBalance.String())
}

func (s *HandlerTestSuite) TestAutoMatch_EmptyBodyAndDryRun() {
	s.recon.On("AutoMatch", mock.Anything, "r1", "cash", dto.AutoMatchRequest{}, testUserID).
		Return(&dto.MatchResultResponse{Applied: true}, nil).Once()
	s.recon.On("AutoMatch", mock.Anything, "r1", "cash", mock.MatchedBy(func(r dto.AutoMatchRequest) bool {
		return r.DryRun && r.DateWindowDays != nil && *r.DateWindowDays == 5
	}), testUserID).Return(&dto.MatchResultResponse{Applied: false}, nil).Once()

	w := s.do(http.MethodPost, recBase+"/r1/accounts/cash/auto-match", nil)
	s.Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodPost, recBase+"/r1/accounts/cash/auto-match", `{"dryRun":true,"dateWindowDays":5}`)
	s.Equal(http.StatusOK, w.Code)
	var result dto.MatchResultResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &result))
	s.False(result.Applied)
}

func (s *HandlerTestSuite) TestAutoMatch_LockBusy() {
	s.recon.On("AutoMatch", mock.Anything, "r1", "cash", mock.Anything, testUserID).
		Return(nil, apperrors.NewConflictError("auto-match already running for account cash")).Once()

	w := s.do(http.MethodPost, recBase+"/r1/accounts/cash/auto-match", nil)

	s.Equal(http.StatusConflict, w.Code)
	s.Equal(true, s.errorBody(w)["retryable"])
}

func (s *HandlerTestSuite) TestManualMatchAndUnmatch() {
	req := dto.ManualMatchRequest{LedgerTransactionID: "t1", ExternalTransactionID: "t2", Notes: "bank fee"}
	state := &dto.MatchingStateResponse{ReconciliationID: "r1", AccountID: "cash"}
	s.recon.On("ManualMatch", mock.Anything, "r1", "cash", req, testUserID).Return(state, nil).Once()
	s.recon.On("Unmatch", mock.Anything, "r1", "cash", "t1", testUserID).Return(state, nil).Once()
	s.recon.On("GetMatchingState", mock.Anything, "r1", "cash").Return(state, nil).Once()

	s.Equal(http.StatusOK, s.do(http.MethodPost, recBase+"/r1/accounts/cash/matches", req).Code)
	s.Equal(http.StatusOK, s.do(http.MethodDelete, recBase+"/r1/accounts/cash/matches/t1", nil).Code)
	s.Equal(http.StatusOK, s.do(http.MethodGet, recBase+"/r1/accounts/cash/transactions", nil).Code)

	w := s.do(http.MethodPost, recBase+"/r1/accounts/cash/matches", `{"ledgerTransactionID":"t1"}`)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlerTestSuite) TestLoadLedgerAndImportJSON() {
	s.recon.On("LoadLedgerTransactions", mock.Anything, "r1", "cash", testUserID).
		Return(&dto.LoadTransactionsResponse{ReconciliationID: "r1", AccountID: "cash", Loaded: 4}, nil).Once()
	s.recon.On("ImportExternalTransactions", mock.Anything, "r1", "cash", mock.MatchedBy(func(r dto.ImportExternalTransactionsRequest) bool {
		return len(r.Transactions) == 1 && r.Transactions[0].Type == domain.Credit
	}), testUserID).Return(&dto.LoadTransactionsResponse{Loaded: 1}, nil).Once()

	w := s.do(http.MethodPost, recBase+"/r1/accounts/cash/ledger", nil)
	s.Equal(http.StatusOK, w.Code)
	var loaded dto.LoadTransactionsResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &loaded))
	s.Equal(4, loaded.Loaded)

	w = s.do(http.MethodPost, recBase+"/r1/accounts/cash/external",
		`{"transactions":[{"date":"2024-01-05T00:00:00Z","amount":"12.50","type":"CREDIT","reference":"INV-1"}]}`)
	s.Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodPost, recBase+"/r1/accounts/cash/external",
		`{"transactions":[{"date":"2024-01-05T00:00:00Z","amount":"12.50","type":"SIDEWAYS"}]}`)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlerTestSuite) upload(filename, content string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("file", filename)
	s.Require().NoError(err)
	_, err = part.Write([]byte(content))
	s.Require().NoError(err)
	s.Require().NoError(form.Close())

	req, err := http.NewRequest(http.MethodPost, recBase+"/r1/accounts/cash/external/upload", &buf)
	s.Require().NoError(err)
	req.Header.Set("Authorization", "Bearer "+s.generateTestToken(testUserID))
	req.Header.Set("Content-Type", form.FormDataContentType())
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *HandlerTestSuite) TestUploadStatement_CSV() {
	s.recon.On("ImportExternalTransactions", mock.Anything, "r1", "cash", mock.MatchedBy(func(r dto.ImportExternalTransactionsRequest) bool {
		return len(r.Transactions) == 2 &&
			r.Transactions[0].Type == domain.Debit && r.Transactions[0].Amount.Equal(decimal.NewFromInt(100)) &&
			r.Transactions[1].Type == domain.Credit && r.Transactions[1].Reference == "FEE"
	}), testUserID).Return(&dto.LoadTransactionsResponse{Loaded: 2}, nil).Once()

	w := s.upload("statement.csv", "date,amount,reference\n2024-01-03,100.00,DEP-1\n2024-01-04,-2.50,FEE\n")

	s.Equal(http.StatusOK, w.Code)
}

func (s *HandlerTestSuite) TestUploadStatement_Rejected() {
	w := s.upload("statement.xlsx", "whatever")
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.upload("statement.csv", "date,amount\nnot-a-date,1\n")
	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(s.errorBody(w)["error"], "line 2")
}
