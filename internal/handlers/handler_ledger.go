package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	portssvc "github.com/prairielimo/lms_backend/internal/core/ports/services"
	"github.com/prairielimo/lms_backend/internal/core/services"
	"github.com/prairielimo/lms_backend/internal/dto"
	"github.com/prairielimo/lms_backend/internal/middleware"
)

// ledgerHandler handles read-only ledger queries.
type ledgerHandler struct {
	ledgerService portssvc.LedgerSvcFacade
}

func newLedgerHandler(ledgerService portssvc.LedgerSvcFacade) *ledgerHandler {
	return &ledgerHandler{ledgerService: ledgerService}
}

// registerLedgerRoutes wires the ledger read routes onto the v1 group.
func registerLedgerRoutes(rg *gin.RouterGroup, ledgerService portssvc.LedgerSvcFacade) {
	h := newLedgerHandler(ledgerService)
	rg.GET("/ledger/batches/:batchID", h.getBatch)
	rg.GET("/ledger/trial-balance", h.getTrialBalance)
}

func (h *ledgerHandler) getBatch(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	batchID, err := strconv.ParseInt(c.Param("batchID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid batch ID"})
		return
	}

	batch, balanced, err := h.ledgerService.GetBatch(c.Request.Context(), batchID)
	if err != nil {
		if errors.Is(err, services.ErrBatchNotFound) {
			logger.Warn("Batch not found", slog.Int64("batch_id", batchID))
			c.JSON(http.StatusNotFound, gin.H{"error": "Batch not found"})
			return
		}
		logger.Error("Failed to get batch", slog.Int64("batch_id", batchID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve batch"})
		return
	}

	c.JSON(http.StatusOK, dto.ToJournalBatchResponse(batch, balanced))
}

// getTrialBalance aggregates per-account totals up to the asOf cutoff.
// asOf defaults to now and accepts either a date or RFC 3339 timestamp.
func (h *ledgerHandler) getTrialBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	asOf := time.Now().UTC()
	if raw := c.Query("asOf"); raw != "" {
		parsed, err := parseAsOf(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid asOf value, expected YYYY-MM-DD or RFC 3339"})
			return
		}
		asOf = parsed
	}

	report, err := h.ledgerService.TrialBalance(c.Request.Context(), asOf)
	if err != nil {
		logger.Error("Failed to compute trial balance", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute trial balance"})
		return
	}

	c.JSON(http.StatusOK, dto.ToTrialBalanceResponse(report, asOf))
}

func parseAsOf(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, err
	}
	// A bare date means end of that day.
	return t.Add(24*time.Hour - time.Nanosecond), nil
}
