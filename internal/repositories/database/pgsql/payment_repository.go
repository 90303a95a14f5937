package pgsql

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prairielimo/lms_backend/internal/apperrors"
	"github.com/prairielimo/lms_backend/internal/core/domain"
	portsrepo "github.com/prairielimo/lms_backend/internal/core/ports/repositories"
	"github.com/prairielimo/lms_backend/internal/models"
	"github.com/prairielimo/lms_backend/internal/utils/mapping"
)

// PgxPaymentRepository reads imported payments and applies the only mutations
// the reconciliation driver is permitted: charter_id, payment_method and
// appended note annotations.
type PgxPaymentRepository struct {
	BaseRepository
}

func newPgxPaymentRepository(pool *pgxpool.Pool) portsrepo.PaymentRepositoryWithTx {
	return &PgxPaymentRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.PaymentRepositoryWithTx = (*PgxPaymentRepository)(nil)

const paymentColumns = `payment_id, payment_date, amount, payment_method, account_number, client_id, reserve_number, charter_id, notes, payment_key`

func scanPayment(row pgx.Row) (*models.Payment, error) {
	var m models.Payment
	err := row.Scan(
		&m.PaymentID,
		&m.PaymentDate,
		&m.Amount,
		&m.PaymentMethod,
		&m.AccountNumber,
		&m.ClientID,
		&m.ReserveNumber,
		&m.CharterID,
		&m.Notes,
		&m.PaymentKey,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// FindPaymentByID retrieves a single payment.
func (r *PgxPaymentRepository) FindPaymentByID(ctx context.Context, paymentID int64) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE payment_id = $1;`
	m, err := scanPayment(r.Pool.QueryRow(ctx, query, paymentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find payment by id", err)
	}
	payment := mapping.ToDomainPayment(*m)
	return &payment, nil
}

const listUnmatchedQuery = `
	SELECT ` + paymentColumns + `
	FROM payments
	WHERE charter_id IS NULL
	  AND payment_method NOT IN ($2, $3)
	ORDER BY payment_id
	LIMIT $1;
`

// ListUnmatched returns payments still awaiting a charter link or terminal
// classification, ordered by payment id for deterministic passes.
func (r *PgxPaymentRepository) ListUnmatched(ctx context.Context, limit int) ([]domain.Payment, error) {
	rows, err := r.Pool.Query(ctx, listUnmatchedQuery, limit, domain.MethodCash, domain.MethodAdjustment)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list unmatched payments", err)
	}
	return collectPayments(rows)
}

// ListUnmatchedTx is ListUnmatched inside an open pass transaction.
func (r *PgxPaymentRepository) ListUnmatchedTx(ctx context.Context, tx pgx.Tx, limit int) ([]domain.Payment, error) {
	rows, err := tx.Query(ctx, listUnmatchedQuery, limit, domain.MethodCash, domain.MethodAdjustment)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list unmatched payments", err)
	}
	return collectPayments(rows)
}

func collectPayments(rows pgx.Rows) ([]domain.Payment, error) {
	defer rows.Close()
	var payments []models.Payment
	for rows.Next() {
		var m models.Payment
		if err := rows.Scan(
			&m.PaymentID,
			&m.PaymentDate,
			&m.Amount,
			&m.PaymentMethod,
			&m.AccountNumber,
			&m.ClientID,
			&m.ReserveNumber,
			&m.CharterID,
			&m.Notes,
			&m.PaymentKey,
		); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan payment row", err)
		}
		payments = append(payments, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "failed to iterate payment rows", err)
	}
	return mapping.ToDomainPaymentSlice(payments), nil
}

// CountStates tallies total/matched/cash/refund across all payments.
func (r *PgxPaymentRepository) CountStates(ctx context.Context) (portsrepo.PaymentStateCounts, error) {
	query := `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE charter_id IS NOT NULL) AS matched,
			COUNT(*) FILTER (WHERE charter_id IS NULL AND payment_method = $1) AS cash,
			COUNT(*) FILTER (WHERE charter_id IS NULL AND payment_method = $2) AS refund
		FROM payments;
	`
	var counts portsrepo.PaymentStateCounts
	err := r.Pool.QueryRow(ctx, query, domain.MethodCash, domain.MethodAdjustment).Scan(&counts.Total, &counts.Matched, &counts.Cash, &counts.Refund)
	if err != nil {
		return portsrepo.PaymentStateCounts{}, apperrors.NewAppError(500, "failed to count payment states", err)
	}
	return counts, nil
}

// MatchExactReserve links every unmatched payment whose reserve number equals
// a charter's reserve number in one set-based statement. Row-level locking in
// the database serializes concurrent writers; no application lock is needed.
func (r *PgxPaymentRepository) MatchExactReserve(ctx context.Context, tx pgx.Tx, annotation string) (int64, error) {
	query := `
		UPDATE payments p
		SET charter_id = c.charter_id,
		    notes = CASE WHEN p.notes = '' THEN $1 ELSE p.notes || ' | ' || $1 END
		FROM charters c
		WHERE p.charter_id IS NULL
		  AND p.reserve_number IS NOT NULL
		  AND p.reserve_number <> ''
		  AND p.reserve_number = c.reserve_number;
	`
	tag, err := tx.Exec(ctx, query, annotation)
	if err != nil {
		return 0, apperrors.NewAppError(500, "failed to match payments by exact reserve number", err)
	}
	return tag.RowsAffected(), nil
}

// AssignCharter links one payment to a charter. The charter_id IS NULL guard
// means an existing link is never silently overwritten; re-running a pass is
// a no-op for already-matched payments. Only charter_id and notes change;
// the charter's reserve number travels in the annotation, not the column.
func (r *PgxPaymentRepository) AssignCharter(ctx context.Context, tx pgx.Tx, paymentID, charterID int64, annotation string) (bool, error) {
	query := `
		UPDATE payments p
		SET charter_id = c.charter_id,
		    notes = CASE WHEN p.notes = '' THEN $3 ELSE p.notes || ' | ' || $3 END
		FROM charters c
		WHERE p.payment_id = $1
		  AND c.charter_id = $2
		  AND p.charter_id IS NULL;
	`
	tag, err := tx.Exec(ctx, query, paymentID, charterID, annotation)
	if err != nil {
		return false, apperrors.NewAppError(500, "failed to assign charter to payment", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ClassifyRefunds marks every negative, untagged payment with the adjustment
// method in one set-based statement. The annotation doubles as the
// idempotency signature: payments already carrying it are skipped.
func (r *PgxPaymentRepository) ClassifyRefunds(ctx context.Context, tx pgx.Tx, annotation string) (int64, error) {
	query := `
		UPDATE payments
		SET payment_method = $2,
		    notes = CASE WHEN notes = '' THEN $1 ELSE notes || ' | ' || $1 END
		WHERE amount < 0
		  AND charter_id IS NULL
		  AND payment_method <> $2
		  AND POSITION($1 IN notes) = 0;
	`
	tag, err := tx.Exec(ctx, query, annotation, domain.MethodAdjustment)
	if err != nil {
		return 0, apperrors.NewAppError(500, "failed to classify refunds", err)
	}
	return tag.RowsAffected(), nil
}

// MarkCash classifies one payment as cash with an audit annotation.
func (r *PgxPaymentRepository) MarkCash(ctx context.Context, tx pgx.Tx, paymentID int64, annotation string) (bool, error) {
	query := `
		UPDATE payments
		SET payment_method = $3,
		    notes = CASE WHEN notes = '' THEN $2 ELSE notes || ' | ' || $2 END
		WHERE payment_id = $1
		  AND charter_id IS NULL
		  AND payment_method <> $3;
	`
	tag, err := tx.Exec(ctx, query, paymentID, annotation, domain.MethodCash)
	if err != nil {
		return false, apperrors.NewAppError(500, "failed to mark payment as cash", err)
	}
	return tag.RowsAffected() == 1, nil
}
