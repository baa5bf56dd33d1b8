package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/suite"

	portssvc "github.com/SscSPs/ledger_recon/internal/core/ports/services"
	"github.com/SscSPs/ledger_recon/internal/handlers"
	"github.com/SscSPs/ledger_recon/internal/platform/config"
)

const testUserID = "user-1"

// HandlerTestSuite wires the real router to mocked services.
type HandlerTestSuite struct {
	suite.Suite
	router    *gin.Engine
	journal   *MockJournalService
	balance   *MockBalanceService
	recon     *MockReconciliationService
	jwtSecret string
}

// generateTestToken creates a signed JWT for userID.
func (s *HandlerTestSuite) generateTestToken(userID string) string {
	claims := jwt.RegisteredClaims{
		Issuer:    "ledger-recon-test",
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtSecret))
	if err != nil {
		s.FailNow("Failed to sign test token", err.Error())
	}
	return signed
}

func (s *HandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.jwtSecret = "test-secret-key-that-is-long-enough"
	s.journal = new(MockJournalService)
	s.balance = new(MockBalanceService)
	s.recon = new(MockReconciliationService)

	s.router = gin.New()
	handlers.RegisterRoutes(s.router, &config.Config{JWTSecret: s.jwtSecret}, &portssvc.ServiceContainer{
		Journal:        s.journal,
		Balance:        s.balance,
		Reconciliation: s.recon,
	}, nil)
}

func (s *HandlerTestSuite) TearDownTest() {
	s.journal.AssertExpectations(s.T())
	s.balance.AssertExpectations(s.T())
	s.recon.AssertExpectations(s.T())
}

// do sends an authenticated request; body is JSON encoded unless it is already a reader.
func (s *HandlerTestSuite) do(method, url string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case io.Reader:
		reader = b
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, reader)
	s.Require().NoError(err)
	req.Header.Set("Authorization", "Bearer "+s.generateTestToken(testUserID))
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// errorBody decodes the error shape written by the handlers.
func (s *HandlerTestSuite) errorBody(w *httptest.ResponseRecorder) map[string]any {
	var body map[string]any
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	return body
}
