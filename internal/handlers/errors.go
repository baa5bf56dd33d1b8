package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SscSPs/ledger_recon/internal/apperrors"
	"github.com/SscSPs/ledger_recon/internal/middleware"
)

// statusFor maps an error kind to the HTTP status returned to clients.
func statusFor(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindValidation:
		return http.StatusBadRequest
	case apperrors.KindState, apperrors.KindConflict:
		return http.StatusConflict
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindToleranceExceeded:
		return http.StatusUnprocessableEntity
	case apperrors.KindTimeout:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as a JSON error body. Internal failures are logged
// and hidden behind fallback; every other kind carries its own message.
func respondError(c *gin.Context, logger *slog.Logger, err error, fallback string) {
	kind := apperrors.KindOf(err)
	status := statusFor(kind)

	body := gin.H{"error": err.Error(), "kind": kind}
	if apperrors.IsRetryable(err) {
		body["retryable"] = true
	}

	switch {
	case status >= http.StatusInternalServerError && kind != apperrors.KindTimeout:
		logger.Error(fallback, slog.String("error", err.Error()))
		body["error"] = fallback
	case kind == apperrors.KindTimeout:
		logger.Warn(fallback, slog.String("error", err.Error()))
		body["error"] = "operation timed out, please retry"
	default:
		logger.Warn("Request rejected", slog.String("kind", string(kind)), slog.String("error", err.Error()))
	}
	c.JSON(status, body)
}

// bindError answers a request whose body or query failed to bind.
func bindError(c *gin.Context, logger *slog.Logger, err error) {
	logger.Warn("Failed to bind request", slog.String("error", err.Error()))
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error(), "kind": apperrors.KindValidation})
}

// actorFrom returns the authenticated user id or answers 401.
func actorFrom(c *gin.Context, logger *slog.Logger) (string, bool) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", false
	}
	return userID, true
}
