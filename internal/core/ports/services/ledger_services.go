package services

import (
	"context"
	"time"

	"github.com/prairielimo/lms_backend/internal/core/domain"
)

// LedgerSvcFacade exposes the pure read queries over the ledger store.
type LedgerSvcFacade interface {
	// GetBatch returns a batch with its lines and a recomputed balanced flag.
	GetBatch(ctx context.Context, batchID int64) (*domain.JournalBatch, bool, error)

	// TrialBalance sums debits and credits per account as of the given date.
	TrialBalance(ctx context.Context, asOf time.Time) (*domain.TrialBalanceReport, error)
}
