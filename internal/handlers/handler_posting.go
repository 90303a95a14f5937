package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	portssvc "github.com/prairielimo/lms_backend/internal/core/ports/services"
	"github.com/prairielimo/lms_backend/internal/core/services"
	"github.com/prairielimo/lms_backend/internal/dto"
	"github.com/prairielimo/lms_backend/internal/middleware"
)

// postingHandler handles HTTP requests that write to the ledger.
type postingHandler struct {
	postingService portssvc.PostingSvcFacade
}

func newPostingHandler(postingService portssvc.PostingSvcFacade) *postingHandler {
	return &postingHandler{postingService: postingService}
}

// registerPostingRoutes wires the ledger write routes onto the v1 group.
func registerPostingRoutes(rg *gin.RouterGroup, postingService portssvc.PostingSvcFacade) {
	h := newPostingHandler(postingService)
	rg.POST("/ledger/events", h.postEvent)
	rg.POST("/ledger/batches/:batchID/reverse", h.reverseBatch)
}

// postEvent posts one business event as a balanced journal batch. The
// endpoint always responds 201 with the stored batch; a repost of a
// logically identical event gets the original batch and its lines back.
func (h *postingHandler) postEvent(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	req := dto.PostEventRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for postEvent", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	payload, err := req.ToDomainPayload()
	if err != nil {
		logger.Warn("Invalid event payload", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	batch, err := h.postingService.PostEvent(c.Request.Context(), payload, req.EventID, userID)
	if err != nil {
		if errors.Is(err, services.ErrPosting) {
			logger.Warn("Posting rejected", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logger.Error("Failed to post event", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to post event"})
		return
	}

	logger.Info("Event posted", slog.Int64("batch_id", batch.BatchID))
	c.JSON(http.StatusCreated, dto.ToJournalBatchResponse(batch, true))
}

// reverseBatch appends the mirror batch for an existing batch.
func (h *postingHandler) reverseBatch(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	batchID, err := strconv.ParseInt(c.Param("batchID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid batch ID"})
		return
	}

	req := dto.ReverseBatchRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for reverseBatch", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	reversal, err := h.postingService.ReverseBatch(c.Request.Context(), batchID, req.Reason, userID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBatchNotFound):
			logger.Warn("Batch not found for reversal", slog.Int64("batch_id", batchID))
			c.JSON(http.StatusNotFound, gin.H{"error": "Batch not found"})
		case errors.Is(err, services.ErrAlreadyReversed):
			logger.Warn("Batch already reversed", slog.Int64("batch_id", batchID))
			c.JSON(http.StatusConflict, gin.H{"error": "Batch already reversed"})
		case errors.Is(err, services.ErrPosting):
			logger.Warn("Reversal rejected", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to reverse batch", slog.Int64("batch_id", batchID), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reverse batch"})
		}
		return
	}

	logger.Info("Batch reversed", slog.Int64("batch_id", batchID), slog.Int64("reversal_batch_id", reversal.BatchID))
	c.JSON(http.StatusCreated, dto.ToJournalBatchResponse(reversal, true))
}
