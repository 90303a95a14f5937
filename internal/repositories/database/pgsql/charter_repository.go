package pgsql

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prairielimo/lms_backend/internal/apperrors"
	"github.com/prairielimo/lms_backend/internal/core/domain"
	portsrepo "github.com/prairielimo/lms_backend/internal/core/ports/repositories"
	"github.com/prairielimo/lms_backend/internal/models"
	"github.com/prairielimo/lms_backend/internal/utils/mapping"
	"github.com/shopspring/decimal"
)

// PgxCharterRepository serves the read-only charter queries the candidate
// generator needs. "Open" means no payment references the charter yet.
// Candidate rows come back ordered by date proximity then charter id, which
// is the tie-break order the driver relies on.
type PgxCharterRepository struct {
	BaseRepository
}

func newPgxCharterRepository(pool *pgxpool.Pool) portsrepo.CharterReader {
	return &PgxCharterRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.CharterReader = (*PgxCharterRepository)(nil)

const charterColumns = `c.charter_id, c.charter_date, c.reserve_number, c.client_id, c.account_number, c.rate, c.balance`

const notLinked = `NOT EXISTS (SELECT 1 FROM payments p WHERE p.charter_id = c.charter_id)`

// FindByReserveNumber retrieves a charter by its business key.
func (r *PgxCharterRepository) FindByReserveNumber(ctx context.Context, reserveNumber string) (*domain.Charter, error) {
	query := `
		SELECT ` + charterColumns + `
		FROM charters c
		WHERE c.reserve_number = $1
		ORDER BY c.charter_id
		LIMIT 1;
	`
	var m models.Charter
	err := r.Pool.QueryRow(ctx, query, reserveNumber).Scan(
		&m.CharterID, &m.CharterDate, &m.ReserveNumber, &m.ClientID, &m.AccountNumber, &m.Rate, &m.Balance,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find charter by reserve number", err)
	}
	charter := mapping.ToDomainCharter(m)
	return &charter, nil
}

// FindOpenByAccountWindow returns open charters with the given account number
// (prefix match when prefixLen > 0) dated within windowDays of around.
func (r *PgxCharterRepository) FindOpenByAccountWindow(ctx context.Context, accountNumber string, prefixLen int, around time.Time, windowDays int) ([]domain.Charter, error) {
	accountCond := `c.account_number = $1`
	arg := accountNumber
	if prefixLen > 0 && len(accountNumber) > prefixLen {
		accountCond = `LEFT(c.account_number, $4) = LEFT($1, $4)`
		arg = accountNumber
	}

	query := `
		SELECT ` + charterColumns + `
		FROM charters c
		WHERE ` + accountCond + `
		  AND ` + notLinked + `
		  AND c.charter_date BETWEEN $2::date - $3 AND $2::date + $3
		ORDER BY ABS(c.charter_date - $2::date), c.charter_id;
	`
	args := []any{arg, around, windowDays}
	if prefixLen > 0 && len(accountNumber) > prefixLen {
		args = append(args, prefixLen)
	}

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query charters by account window", err)
	}
	return collectCharters(rows)
}

// FindOpenByAmountWindow returns open charters whose rate is within tolerance
// of amount and whose date falls inside the window.
func (r *PgxCharterRepository) FindOpenByAmountWindow(ctx context.Context, amount, tolerance decimal.Decimal, around time.Time, windowDays int) ([]domain.Charter, error) {
	query := `
		SELECT ` + charterColumns + `
		FROM charters c
		WHERE ABS(c.rate - $1) <= $2
		  AND ` + notLinked + `
		  AND c.charter_date BETWEEN $3::date - $4 AND $3::date + $4
		ORDER BY ABS(c.charter_date - $3::date), c.charter_id;
	`
	rows, err := r.Pool.Query(ctx, query, amount, tolerance, around, windowDays)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query charters by amount window", err)
	}
	return collectCharters(rows)
}

// FindOpenByBalanceDue returns open charters with a positive balance equal to
// amount inside the window. Common for final payments on partly paid runs.
func (r *PgxCharterRepository) FindOpenByBalanceDue(ctx context.Context, amount decimal.Decimal, around time.Time, windowDays int) ([]domain.Charter, error) {
	query := `
		SELECT ` + charterColumns + `
		FROM charters c
		WHERE c.balance > 0
		  AND c.balance = $1
		  AND ` + notLinked + `
		  AND c.charter_date BETWEEN $2::date - $3 AND $2::date + $3
		ORDER BY ABS(c.charter_date - $2::date), c.charter_id;
	`
	rows, err := r.Pool.Query(ctx, query, amount, around, windowDays)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query charters by balance due", err)
	}
	return collectCharters(rows)
}

// FindOpenByClientWindow returns open charters for a client inside the
// window, ordered by charter date (earliest first) for bundle anchoring.
func (r *PgxCharterRepository) FindOpenByClientWindow(ctx context.Context, clientID int64, around time.Time, windowDays int) ([]domain.Charter, error) {
	query := `
		SELECT ` + charterColumns + `
		FROM charters c
		WHERE c.client_id = $1
		  AND ` + notLinked + `
		  AND c.charter_date BETWEEN $2::date - $3 AND $2::date + $3
		ORDER BY c.charter_date, c.charter_id;
	`
	rows, err := r.Pool.Query(ctx, query, clientID, around, windowDays)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query charters by client window", err)
	}
	return collectCharters(rows)
}

// CountMatchedByClient counts the client's charters already linked by a
// payment. The regular-customer strategy requires prior match history.
func (r *PgxCharterRepository) CountMatchedByClient(ctx context.Context, clientID int64) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM charters c
		WHERE c.client_id = $1
		  AND EXISTS (SELECT 1 FROM payments p WHERE p.charter_id = c.charter_id);
	`
	var count int
	if err := r.Pool.QueryRow(ctx, query, clientID).Scan(&count); err != nil {
		return 0, apperrors.NewAppError(500, "failed to count matched charters for client", err)
	}
	return count, nil
}

func collectCharters(rows pgx.Rows) ([]domain.Charter, error) {
	defer rows.Close()
	var charters []models.Charter
	for rows.Next() {
		var m models.Charter
		if err := rows.Scan(&m.CharterID, &m.CharterDate, &m.ReserveNumber, &m.ClientID, &m.AccountNumber, &m.Rate, &m.Balance); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan charter row", err)
		}
		charters = append(charters, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "failed to iterate charter rows", err)
	}
	return mapping.ToDomainCharterSlice(charters), nil
}
