package pgsql

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prairielimo/lms_backend/internal/apperrors"
	"github.com/prairielimo/lms_backend/internal/core/domain"
	portsrepo "github.com/prairielimo/lms_backend/internal/core/ports/repositories"
	"github.com/prairielimo/lms_backend/internal/models"
	"github.com/prairielimo/lms_backend/internal/utils/mapping"
)

const pgUniqueViolation = "23505"

// PgxLedgerRepository persists journal batches and lines. The ledger is
// append-only: batches are inserted once and only the reversed_by link is
// ever stamped afterwards.
type PgxLedgerRepository struct {
	*PgxAccountRepository
}

func newPgxLedgerRepository(pool *pgxpool.Pool) portsrepo.LedgerRepositoryFacade {
	return &PgxLedgerRepository{PgxAccountRepository: newPgxAccountRepository(pool)}
}

var _ portsrepo.LedgerRepositoryFacade = (*PgxLedgerRepository)(nil)

const batchColumns = `batch_id, event_code, event_id, event_hash, reversal_of, reversed_by, reason, source_payload, created_at, created_by`

func scanBatch(row pgx.Row) (*models.JournalBatch, error) {
	var m models.JournalBatch
	err := row.Scan(
		&m.BatchID,
		&m.EventCode,
		&m.EventID,
		&m.EventHash,
		&m.ReversalOf,
		&m.ReversedBy,
		&m.Reason,
		&m.SourcePayload,
		&m.CreatedAt,
		&m.CreatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// FindBatchByID retrieves a batch header without its lines.
func (r *PgxLedgerRepository) FindBatchByID(ctx context.Context, batchID int64) (*domain.JournalBatch, error) {
	query := `SELECT ` + batchColumns + ` FROM journal_batches WHERE batch_id = $1;`
	m, err := scanBatch(r.Pool.QueryRow(ctx, query, batchID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find batch by id", err)
	}
	batch := mapping.ToDomainJournalBatch(*m)
	return &batch, nil
}

// FindBatchByEventHash retrieves a batch header by its idempotency hash.
func (r *PgxLedgerRepository) FindBatchByEventHash(ctx context.Context, eventHash string) (*domain.JournalBatch, error) {
	query := `SELECT ` + batchColumns + ` FROM journal_batches WHERE event_hash = $1;`
	m, err := scanBatch(r.Pool.QueryRow(ctx, query, eventHash))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find batch by event hash", err)
	}
	batch := mapping.ToDomainJournalBatch(*m)
	return &batch, nil
}

// FindLinesByBatchID retrieves a batch's lines ordered by line number.
func (r *PgxLedgerRepository) FindLinesByBatchID(ctx context.Context, batchID int64) ([]domain.JournalLine, error) {
	query := `
		SELECT batch_id, line_number, account_code, description, debit, credit, currency
		FROM journal_lines
		WHERE batch_id = $1
		ORDER BY line_number;
	`
	rows, err := r.Pool.Query(ctx, query, batchID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query journal lines", err)
	}
	defer rows.Close()

	var lines []models.JournalLine
	for rows.Next() {
		var m models.JournalLine
		if err := rows.Scan(&m.BatchID, &m.LineNumber, &m.AccountCode, &m.Description, &m.Debit, &m.Credit, &m.Currency); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan journal line", err)
		}
		lines = append(lines, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "failed to iterate journal lines", err)
	}
	return mapping.ToDomainJournalLineSlice(lines), nil
}

// SaveBatch persists a batch and its lines atomically. The unique constraint
// on event_hash doubles as the concurrency guard: if two callers race to post
// the same logical event, the loser's insert is rejected and we fetch the
// winner's batch instead of surfacing an error.
func (r *PgxLedgerRepository) SaveBatch(ctx context.Context, batch domain.JournalBatch, lines []domain.JournalLine) (int64, bool, error) {
	// Cheap pre-check so idempotent retries skip the transaction entirely.
	if existing, err := r.FindBatchByEventHash(ctx, batch.EventHash); err == nil {
		return existing.BatchID, false, nil
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return 0, false, err
	}

	tx, err := r.Begin(ctx)
	if err != nil {
		return 0, false, err
	}
	defer r.Rollback(ctx, tx)

	m := mapping.ToModelJournalBatch(batch)
	insertBatch := `
		INSERT INTO journal_batches (event_code, event_id, event_hash, reversal_of, reason, source_payload, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING batch_id;
	`
	var batchID int64
	err = tx.QueryRow(ctx, insertBatch,
		m.EventCode,
		m.EventID,
		m.EventHash,
		m.ReversalOf,
		m.Reason,
		m.SourcePayload,
		m.CreatedAt,
		m.CreatedBy,
	).Scan(&batchID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			// Lost the race: treat as already posted.
			_ = r.Rollback(ctx, tx)
			existing, findErr := r.FindBatchByEventHash(ctx, batch.EventHash)
			if findErr != nil {
				return 0, false, apperrors.NewAppError(500, "failed to load batch after duplicate insert", findErr)
			}
			return existing.BatchID, false, nil
		}
		return 0, false, apperrors.NewAppError(500, "failed to insert journal batch", err)
	}

	if err := insertLines(ctx, tx, batchID, lines); err != nil {
		return 0, false, err
	}

	if err := r.Commit(ctx, tx); err != nil {
		return 0, false, err
	}
	return batchID, true, nil
}

// SaveReversal inserts the mirror batch and stamps the original's reversed_by
// link in one transaction. The WHERE reversed_by IS NULL guard rejects a
// concurrent double reversal at the database level.
func (r *PgxLedgerRepository) SaveReversal(ctx context.Context, originalBatchID int64, reversal domain.JournalBatch, lines []domain.JournalLine) (int64, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer r.Rollback(ctx, tx)

	m := mapping.ToModelJournalBatch(reversal)
	insertBatch := `
		INSERT INTO journal_batches (event_code, event_id, event_hash, reversal_of, reason, source_payload, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING batch_id;
	`
	var reversalID int64
	err = tx.QueryRow(ctx, insertBatch,
		m.EventCode,
		m.EventID,
		m.EventHash,
		originalBatchID,
		m.Reason,
		m.SourcePayload,
		m.CreatedAt,
		m.CreatedBy,
	).Scan(&reversalID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return 0, apperrors.ErrDuplicate
		}
		return 0, apperrors.NewAppError(500, "failed to insert reversal batch", err)
	}

	tag, err := tx.Exec(ctx,
		`UPDATE journal_batches SET reversed_by = $1 WHERE batch_id = $2 AND reversed_by IS NULL;`,
		reversalID, originalBatchID,
	)
	if err != nil {
		return 0, apperrors.NewAppError(500, "failed to link reversal to original batch", err)
	}
	if tag.RowsAffected() == 0 {
		// Already reversed by a concurrent caller.
		return 0, apperrors.ErrDuplicate
	}

	if err := insertLines(ctx, tx, reversalID, lines); err != nil {
		return 0, err
	}

	if err := r.Commit(ctx, tx); err != nil {
		return 0, err
	}
	return reversalID, nil
}

func insertLines(ctx context.Context, tx pgx.Tx, batchID int64, lines []domain.JournalLine) error {
	batch := &pgx.Batch{}
	lineQuery := `
		INSERT INTO journal_lines (batch_id, line_number, account_code, description, debit, credit, currency)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	for _, line := range lines {
		m := mapping.ToModelJournalLine(line)
		batch.Queue(lineQuery, batchID, m.LineNumber, m.AccountCode, m.Description, m.Debit, m.Credit, m.Currency)
	}

	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return apperrors.NewAppError(500, "failed to insert journal lines", err)
	}
	return nil
}

// GetTrialBalance sums debits and credits per account over all batches
// created on or before asOf.
func (r *PgxLedgerRepository) GetTrialBalance(ctx context.Context, asOf time.Time) ([]domain.TrialBalanceRow, error) {
	query := `
		SELECT
			a.account_code,
			a.account_name,
			a.account_type,
			COALESCE(SUM(l.debit), 0) AS total_debit,
			COALESCE(SUM(l.credit), 0) AS total_credit
		FROM journal_lines l
		JOIN chart_of_accounts a ON l.account_code = a.account_code
		JOIN journal_batches b ON l.batch_id = b.batch_id
		WHERE b.created_at <= $1
		GROUP BY a.account_code, a.account_name, a.account_type
		ORDER BY a.account_code;
	`
	rows, err := r.Pool.Query(ctx, query, asOf)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query trial balance", err)
	}
	defer rows.Close()

	result := []domain.TrialBalanceRow{}
	for rows.Next() {
		var row domain.TrialBalanceRow
		var accountType string
		if err := rows.Scan(&row.AccountCode, &row.AccountName, &accountType, &row.Debit, &row.Credit); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan trial balance row", err)
		}
		row.AccountType = domain.AccountType(accountType)
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "failed to iterate trial balance rows", err)
	}
	return result, nil
}
