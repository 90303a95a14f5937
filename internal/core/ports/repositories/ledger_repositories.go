package repositories

import (
	"context"
	"time"

	"github.com/prairielimo/lms_backend/internal/core/domain"
)

// AccountReader defines read operations over the chart of accounts.
type AccountReader interface {
	// FindAccountByCode retrieves a single account by its stable code.
	FindAccountByCode(ctx context.Context, accountCode string) (*domain.Account, error)

	// FindAccountsByCodes retrieves the given accounts keyed by code. Missing
	// codes are simply absent from the map.
	FindAccountsByCodes(ctx context.Context, accountCodes []string) (map[string]domain.Account, error)

	// ListAccounts returns the full chart of accounts.
	ListAccounts(ctx context.Context) ([]domain.Account, error)
}

// BatchReader defines read operations over journal batches and lines.
type BatchReader interface {
	// FindBatchByID retrieves a batch header without its lines.
	FindBatchByID(ctx context.Context, batchID int64) (*domain.JournalBatch, error)

	// FindBatchByEventHash retrieves a batch header by its idempotency hash.
	FindBatchByEventHash(ctx context.Context, eventHash string) (*domain.JournalBatch, error)

	// FindLinesByBatchID retrieves a batch's lines ordered by line number.
	FindLinesByBatchID(ctx context.Context, batchID int64) ([]domain.JournalLine, error)

	// GetTrialBalance sums debits and credits per account over all batches
	// created on or before asOf.
	GetTrialBalance(ctx context.Context, asOf time.Time) ([]domain.TrialBalanceRow, error)
}

// BatchWriter defines the append-only write operations of the ledger. Batches
// are never updated or deleted; a reversal is a new linked batch.
type BatchWriter interface {
	// SaveBatch persists a batch and its lines atomically. If a batch with the
	// same event hash already exists, the existing batch id is returned with
	// created == false and no rows are written.
	SaveBatch(ctx context.Context, batch domain.JournalBatch, lines []domain.JournalLine) (batchID int64, created bool, err error)

	// SaveReversal persists the mirror batch and stamps the original's
	// reversed_by link in the same transaction. Returns apperrors.ErrDuplicate
	// if the original was already reversed by a concurrent caller.
	SaveReversal(ctx context.Context, originalBatchID int64, reversal domain.JournalBatch, lines []domain.JournalLine) (int64, error)
}

// LedgerRepositoryFacade combines all ledger store interfaces.
type LedgerRepositoryFacade interface {
	AccountReader
	BatchReader
	BatchWriter
}
