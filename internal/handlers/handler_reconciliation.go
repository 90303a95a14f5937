package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	portssvc "github.com/prairielimo/lms_backend/internal/core/ports/services"
	"github.com/prairielimo/lms_backend/internal/dto"
	"github.com/prairielimo/lms_backend/internal/middleware"
)

const defaultUnmatchedLimit = 100

// reconciliationHandler exposes the matching engine over HTTP.
type reconciliationHandler struct {
	reconciliationService portssvc.ReconciliationSvcFacade
}

func newReconciliationHandler(reconciliationService portssvc.ReconciliationSvcFacade) *reconciliationHandler {
	return &reconciliationHandler{reconciliationService: reconciliationService}
}

// registerReconciliationRoutes wires the reconciliation routes onto the v1 group.
func registerReconciliationRoutes(rg *gin.RouterGroup, reconciliationService portssvc.ReconciliationSvcFacade) {
	h := newReconciliationHandler(reconciliationService)
	rg.POST("/reconciliation/run", h.run)
	rg.GET("/reconciliation/summary", h.summary)
	rg.GET("/payments/unmatched", h.unmatched)
}

// run executes the full pass sequence synchronously. Runs are idempotent, so
// a timed-out client can safely retry.
func (h *reconciliationHandler) run(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	summary, err := h.reconciliationService.Run(c.Request.Context())
	if err != nil {
		logger.Error("Reconciliation run failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Reconciliation run failed"})
		return
	}

	logger.Info("Reconciliation run finished",
		slog.Int("matched", summary.Matched),
		slog.Float64("handled_percent", summary.Percentage))
	c.JSON(http.StatusOK, dto.ToReconciliationSummaryResponse(summary))
}

func (h *reconciliationHandler) summary(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	summary, err := h.reconciliationService.Summary(c.Request.Context())
	if err != nil {
		logger.Error("Failed to compute reconciliation summary", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute summary"})
		return
	}

	c.JSON(http.StatusOK, dto.ToReconciliationSummaryResponse(summary))
}

func (h *reconciliationHandler) unmatched(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	limit := defaultUnmatchedLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = parsed
	}

	payments, err := h.reconciliationService.Unmatched(c.Request.Context(), limit)
	if err != nil {
		logger.Error("Failed to list unmatched payments", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list unmatched payments"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"payments": dto.ToUnmatchedPaymentResponses(payments)})
}
