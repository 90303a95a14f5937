package services

import (
	"context"

	"github.com/prairielimo/lms_backend/internal/core/domain"
)

// PostingSvcFacade converts business events into balanced, immutable ledger
// batches and supports reversal.
type PostingSvcFacade interface {
	// PostEvent expands payload into balanced lines and writes one batch
	// atomically. Reposting a logically identical event returns the existing
	// batch without writing anything.
	PostEvent(ctx context.Context, payload domain.EventPayload, eventID *string, userID string) (*domain.JournalBatch, error)

	// ReverseBatch appends an equal-and-opposite batch linked to the original.
	// Fails if the original does not exist or was already reversed.
	ReverseBatch(ctx context.Context, batchID int64, reason, userID string) (*domain.JournalBatch, error)
}
