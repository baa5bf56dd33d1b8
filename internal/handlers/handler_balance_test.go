package handlers_test

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/SscSPs/ledger_recon/internal/apperrors"
	"github.com/SscSPs/ledger_recon/internal/core/domain"
	"github.com/SscSPs/ledger_recon/internal/dto"
)

func (s *HandlerTestSuite) TestGetBalance_AsOf() {
	asOf := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	s.balance.On("GetBalance", mock.Anything, "cash", asOf).Return(decimal.RequireFromString("1297.66"), nil).Once()

	w := s.do(http.MethodGet, "/api/v1/accounts/cash/balance?asOf=2024-01-31", nil)

	s.Equal(http.StatusOK, w.Code)
	var resp dto.BalanceResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal("cash", resp.AccountID)
	s.True(resp.AsOf.Equal(asOf))
	s.Equal("1297.66", resp.Balance.StringFixed(2))
}

func (s *HandlerTestSuite) TestGetBalance_DefaultsToToday() {
	s.balance.On("GetBalance", mock.Anything, "cash", mock.MatchedBy(func(t time.Time) bool {
		return t.Equal(domain.DateOf(time.Now())) || t.Equal(domain.DateOf(time.Now().Add(-time.Minute)))
	})).Return(decimal.Zero, nil).Once()

	w := s.do(http.MethodGet, "/api/v1/accounts/cash/balance", nil)
	s.Equal(http.StatusOK, w.Code)
}

func (s *HandlerTestSuite) TestGetBalance_UnknownAccount() {
	s.balance.On("GetBalance", mock.Anything, "nope", mock.Anything).
		Return(decimal.Zero, apperrors.NewNotFoundError("account %s not found", "nope")).Once()

	w := s.do(http.MethodGet, "/api/v1/accounts/nope/balance", nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlerTestSuite) TestGetMovement() {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	s.balance.On("GetMovement", mock.Anything, "cash", start, end).Return(decimal.RequireFromString("-40"), nil).Once()

	w := s.do(http.MethodGet, "/api/v1/accounts/cash/movement?start=2024-01-01&end=2024-01-31", nil)

	s.Equal(http.StatusOK, w.Code)
	var resp dto.MovementResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal("-40.00", resp.Movement.StringFixed(2))

	w = s.do(http.MethodGet, "/api/v1/accounts/cash/movement?start=2024-01-01", nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlerTestSuite) TestVerifyBalance() {
	asOf := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	s.balance.On("VerifyBalance", mock.Anything, "cash", asOf).Return(&domain.BalanceCheck{
		AccountID:   "cash",
		AsOf:        asOf,
		Incremental: decimal.NewFromInt(10),
		Recomputed:  decimal.NewFromInt(10),
		Consistent:  true,
	}, nil).Once()

	w := s.do(http.MethodGet, "/api/v1/accounts/cash/balance/verify?asOf=2024-01-31", nil)

	s.Equal(http.StatusOK, w.Code)
	var check domain.BalanceCheck
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &check))
	s.True(check.Consistent)
}
