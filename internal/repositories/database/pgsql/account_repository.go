package pgsql

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prairielimo/lms_backend/internal/apperrors"
	"github.com/prairielimo/lms_backend/internal/core/domain"
	"github.com/prairielimo/lms_backend/internal/models"
	"github.com/prairielimo/lms_backend/internal/utils/mapping"
)

// PgxAccountRepository reads the chart of accounts. Accounts are seeded by
// migration and never written through the application.
type PgxAccountRepository struct {
	BaseRepository
}

func newPgxAccountRepository(pool *pgxpool.Pool) *PgxAccountRepository {
	return &PgxAccountRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// FindAccountByCode retrieves a single account by its stable code.
func (r *PgxAccountRepository) FindAccountByCode(ctx context.Context, accountCode string) (*domain.Account, error) {
	query := `
		SELECT account_code, account_name, account_type, normal_balance
		FROM chart_of_accounts
		WHERE account_code = $1;
	`
	var m models.Account
	err := r.Pool.QueryRow(ctx, query, accountCode).Scan(
		&m.AccountCode,
		&m.AccountName,
		&m.AccountType,
		&m.NormalBalance,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find account "+accountCode, err)
	}

	account := mapping.ToDomainAccount(m)
	return &account, nil
}

// FindAccountsByCodes retrieves the given accounts keyed by code.
func (r *PgxAccountRepository) FindAccountsByCodes(ctx context.Context, accountCodes []string) (map[string]domain.Account, error) {
	query := `
		SELECT account_code, account_name, account_type, normal_balance
		FROM chart_of_accounts
		WHERE account_code = ANY($1);
	`
	rows, err := r.Pool.Query(ctx, query, accountCodes)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query accounts by codes", err)
	}
	defer rows.Close()

	result := make(map[string]domain.Account, len(accountCodes))
	for rows.Next() {
		var m models.Account
		if err := rows.Scan(&m.AccountCode, &m.AccountName, &m.AccountType, &m.NormalBalance); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan account row", err)
		}
		result[m.AccountCode] = mapping.ToDomainAccount(m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "failed to iterate account rows", err)
	}
	return result, nil
}

// ListAccounts returns the full chart of accounts ordered by code.
func (r *PgxAccountRepository) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	query := `
		SELECT account_code, account_name, account_type, normal_balance
		FROM chart_of_accounts
		ORDER BY account_code;
	`
	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list accounts", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		var m models.Account
		if err := rows.Scan(&m.AccountCode, &m.AccountName, &m.AccountType, &m.NormalBalance); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan account row", err)
		}
		accounts = append(accounts, mapping.ToDomainAccount(m))
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "failed to iterate account rows", err)
	}
	return accounts, nil
}
