package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SscSPs/ledger_recon/internal/core/domain"
	portssvc "github.com/SscSPs/ledger_recon/internal/core/ports/services"
	"github.com/SscSPs/ledger_recon/internal/dto"
	"github.com/SscSPs/ledger_recon/internal/feed"
	"github.com/SscSPs/ledger_recon/internal/middleware"
)

// maxStatementBytes caps uploaded statement files.
const maxStatementBytes = 10 << 20

// reconciliationHandler handles HTTP requests related to reconciliations.
type reconciliationHandler struct {
	reconService portssvc.ReconciliationSvcFacade
}

// RegisterReconciliationRoutes registers the reconciliation routes on group.
func RegisterReconciliationRoutes(group *gin.RouterGroup, reconService portssvc.ReconciliationSvcFacade) {
	h := &reconciliationHandler{reconService: reconService}

	recs := group.Group("/reconciliations")
	{
		recs.POST("", h.createReconciliation)
		recs.GET("", h.listReconciliations)
		recs.GET("/:reconciliationID", h.getReconciliation)
		recs.GET("/:reconciliationID/summary", h.getSummary)
		recs.GET("/:reconciliationID/report", h.getAccountReport)

		recs.POST("/:reconciliationID/start", h.startWork)
		recs.POST("/:reconciliationID/finalize", h.finalize)
		recs.POST("/:reconciliationID/approve", h.approve)
		recs.POST("/:reconciliationID/reject", h.reject)
		recs.POST("/:reconciliationID/cancel", h.cancel)

		account := recs.Group("/:reconciliationID/accounts/:accountID")
		{
			account.PUT("", h.reconcileAccount)
			account.GET("/transactions", h.getMatchingState)
			account.POST("/ledger", h.loadLedger)
			account.POST("/external", h.importExternal)
			account.POST("/external/upload", h.uploadStatement)
			account.POST("/auto-match", h.autoMatch)
			account.POST("/matches", h.manualMatch)
			account.DELETE("/matches/:transactionID", h.unmatch)
		}
	}
}

func (h *reconciliationHandler) createReconciliation(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateReconciliationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, err)
		return
	}
	actorID, ok := actorFrom(c, logger)
	if !ok {
		return
	}

	rec, err := h.reconService.CreateReconciliation(c.Request.Context(), req, actorID)
	if err != nil {
		respondError(c, logger, err, "Failed to create reconciliation")
		return
	}
	logger.Info("Reconciliation created", slog.String("reconciliation_id", rec.ReconciliationID))
	c.JSON(http.StatusCreated, dto.ToReconciliationResponse(rec))
}

func (h *reconciliationHandler) listReconciliations(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var params dto.ListReconciliationsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		bindError(c, logger, err)
		return
	}
	resp, err := h.reconService.ListReconciliations(c.Request.Context(), params)
	if err != nil {
		respondError(c, logger, err, "Failed to list reconciliations")
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *reconciliationHandler) getReconciliation(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	rec, err := h.reconService.GetReconciliation(c.Request.Context(), c.Param("reconciliationID"))
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve reconciliation")
		return
	}
	c.JSON(http.StatusOK, dto.ToReconciliationResponse(rec))
}

func (h *reconciliationHandler) getSummary(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	summary, err := h.reconService.GetSummary(c.Request.Context(), c.Param("reconciliationID"))
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve reconciliation summary")
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *reconciliationHandler) getAccountReport(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	rows, err := h.reconService.GetAccountReport(c.Request.Context(), c.Param("reconciliationID"))
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve reconciliation report")
		return
	}
	c.JSON(http.StatusOK, gin.H{"accounts": rows})
}

// transition runs a body-less workflow step and answers with the updated reconciliation.
func (h *reconciliationHandler) transition(c *gin.Context, failure string, step func(reconciliationID, actorID string) (*domain.Reconciliation, error)) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actorID, ok := actorFrom(c, logger)
	if !ok {
		return
	}
	rec, err := step(c.Param("reconciliationID"), actorID)
	if err != nil {
		respondError(c, logger, err, failure)
		return
	}
	logger.Info("Reconciliation moved", slog.String("reconciliation_id", rec.ReconciliationID), slog.String("status", string(rec.Status)))
	c.JSON(http.StatusOK, dto.ToReconciliationResponse(rec))
}

func (h *reconciliationHandler) startWork(c *gin.Context) {
	h.transition(c, "Failed to start reconciliation", func(id, actor string) (*domain.Reconciliation, error) {
		return h.reconService.StartWork(c.Request.Context(), id, actor)
	})
}

func (h *reconciliationHandler) finalize(c *gin.Context) {
	h.transition(c, "Failed to finalize reconciliation", func(id, actor string) (*domain.Reconciliation, error) {
		return h.reconService.Finalize(c.Request.Context(), id, actor)
	})
}

func (h *reconciliationHandler) approve(c *gin.Context) {
	h.transition(c, "Failed to approve reconciliation", func(id, actor string) (*domain.Reconciliation, error) {
		return h.reconService.Approve(c.Request.Context(), id, actor)
	})
}

func (h *reconciliationHandler) reject(c *gin.Context) {
	var req dto.RejectReconciliationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, middleware.GetLoggerFromCtx(c.Request.Context()), err)
		return
	}
	h.transition(c, "Failed to reject reconciliation", func(id, actor string) (*domain.Reconciliation, error) {
		return h.reconService.Reject(c.Request.Context(), id, req, actor)
	})
}

func (h *reconciliationHandler) cancel(c *gin.Context) {
	var req dto.CancelReconciliationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, middleware.GetLoggerFromCtx(c.Request.Context()), err)
		return
	}
	h.transition(c, "Failed to cancel reconciliation", func(id, actor string) (*domain.Reconciliation, error) {
		return h.reconService.Cancel(c.Request.Context(), id, req, actor)
	})
}

func (h *reconciliationHandler) reconcileAccount(c *gin.Context) {
	var req dto.ReconcileAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, middleware.GetLoggerFromCtx(c.Request.Context()), err)
		return
	}
	h.transition(c, "Failed to reconcile account", func(id, actor string) (*domain.Reconciliation, error) {
		return h.reconService.ReconcileAccount(c.Request.Context(), id, c.Param("accountID"), req, actor)
	})
}

func (h *reconciliationHandler) getMatchingState(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	state, err := h.reconService.GetMatchingState(c.Request.Context(), c.Param("reconciliationID"), c.Param("accountID"))
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve matching state")
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *reconciliationHandler) loadLedger(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actorID, ok := actorFrom(c, logger)
	if !ok {
		return
	}

	resp, err := h.reconService.LoadLedgerTransactions(c.Request.Context(), c.Param("reconciliationID"), c.Param("accountID"), actorID)
	if err != nil {
		respondError(c, logger, err, "Failed to load ledger transactions")
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *reconciliationHandler) importExternal(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.ImportExternalTransactionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, err)
		return
	}
	h.importRows(c, logger, req)
}

// uploadStatement accepts a multipart "file" holding a CSV or JSON statement.
func (h *reconciliationHandler) uploadStatement(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxStatementBytes)
	header, err := c.FormFile("file")
	if err != nil {
		bindError(c, logger, err)
		return
	}

	format := c.PostForm("format")
	var parser feed.Parser
	if format != "" {
		parser, err = feed.ForFormat(format)
	} else {
		parser, err = feed.ForFile(header.Filename)
	}
	if err != nil {
		respondError(c, logger, err, "Failed to read statement")
		return
	}

	file, err := header.Open()
	if err != nil {
		bindError(c, logger, err)
		return
	}
	defer file.Close()

	rows, err := parser.Parse(file)
	if err != nil {
		respondError(c, logger, err, "Failed to read statement")
		return
	}
	logger.Info("Statement parsed", slog.String("file", header.Filename), slog.Int("rows", len(rows)))
	h.importRows(c, logger, dto.ImportExternalTransactionsRequest{Transactions: rows})
}

func (h *reconciliationHandler) importRows(c *gin.Context, logger *slog.Logger, req dto.ImportExternalTransactionsRequest) {
	actorID, ok := actorFrom(c, logger)
	if !ok {
		return
	}
	resp, err := h.reconService.ImportExternalTransactions(c.Request.Context(), c.Param("reconciliationID"), c.Param("accountID"), req, actorID)
	if err != nil {
		respondError(c, logger, err, "Failed to import external transactions")
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *reconciliationHandler) autoMatch(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.AutoMatchRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, logger, err)
			return
		}
	}
	actorID, ok := actorFrom(c, logger)
	if !ok {
		return
	}

	result, err := h.reconService.AutoMatch(c.Request.Context(), c.Param("reconciliationID"), c.Param("accountID"), req, actorID)
	if err != nil {
		respondError(c, logger, err, "Failed to match transactions")
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *reconciliationHandler) manualMatch(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.ManualMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, err)
		return
	}
	actorID, ok := actorFrom(c, logger)
	if !ok {
		return
	}

	state, err := h.reconService.ManualMatch(c.Request.Context(), c.Param("reconciliationID"), c.Param("accountID"), req, actorID)
	if err != nil {
		respondError(c, logger, err, "Failed to match transactions")
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *reconciliationHandler) unmatch(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actorID, ok := actorFrom(c, logger)
	if !ok {
		return
	}

	state, err := h.reconService.Unmatch(c.Request.Context(), c.Param("reconciliationID"), c.Param("accountID"), c.Param("transactionID"), actorID)
	if err != nil {
		respondError(c, logger, err, "Failed to unmatch transaction")
		return
	}
	c.JSON(http.StatusOK, state)
}
