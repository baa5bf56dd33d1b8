package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SscSPs/ledger_recon/internal/core/domain"
	portssvc "github.com/SscSPs/ledger_recon/internal/core/ports/services"
	"github.com/SscSPs/ledger_recon/internal/dto"
	"github.com/SscSPs/ledger_recon/internal/middleware"
)

type balanceHandler struct {
	balanceService portssvc.BalanceSvc
	now            func() time.Time
}

// RegisterBalanceRoutes registers the balance routes on group.
func RegisterBalanceRoutes(group *gin.RouterGroup, balanceService portssvc.BalanceSvc) {
	h := &balanceHandler{balanceService: balanceService, now: time.Now}

	accounts := group.Group("/accounts/:accountID")
	{
		accounts.GET("/balance", h.getBalance)
		accounts.GET("/balance/verify", h.verifyBalance)
		accounts.GET("/movement", h.getMovement)
	}
}

// asOf returns the requested date, today when none was given.
func (h *balanceHandler) asOf(params dto.BalanceQueryParams) time.Time {
	if params.AsOf != nil {
		return domain.DateOf(*params.AsOf)
	}
	return domain.DateOf(h.now())
}

func (h *balanceHandler) getBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var params dto.BalanceQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		bindError(c, logger, err)
		return
	}
	accountID, asOf := c.Param("accountID"), h.asOf(params)

	balance, err := h.balanceService.GetBalance(c.Request.Context(), accountID, asOf)
	if err != nil {
		respondError(c, logger, err, "Failed to get account balance")
		return
	}
	c.JSON(http.StatusOK, dto.BalanceResponse{AccountID: accountID, AsOf: asOf, Balance: balance})
}

func (h *balanceHandler) verifyBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var params dto.BalanceQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		bindError(c, logger, err)
		return
	}

	check, err := h.balanceService.VerifyBalance(c.Request.Context(), c.Param("accountID"), h.asOf(params))
	if err != nil {
		respondError(c, logger, err, "Failed to verify account balance")
		return
	}
	c.JSON(http.StatusOK, check)
}

func (h *balanceHandler) getMovement(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var params dto.MovementQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		bindError(c, logger, err)
		return
	}
	accountID := c.Param("accountID")

	movement, err := h.balanceService.GetMovement(c.Request.Context(), accountID, params.StartDate, params.EndDate)
	if err != nil {
		respondError(c, logger, err, "Failed to get account movement")
		return
	}
	c.JSON(http.StatusOK, dto.MovementResponse{
		AccountID: accountID,
		StartDate: domain.DateOf(params.StartDate),
		EndDate:   domain.DateOf(params.EndDate),
		Movement:  movement,
	})
}
