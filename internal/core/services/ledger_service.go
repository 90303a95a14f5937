package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prairielimo/lms_backend/internal/apperrors"
	"github.com/prairielimo/lms_backend/internal/core/domain"
	portsrepo "github.com/prairielimo/lms_backend/internal/core/ports/repositories"
	portssvc "github.com/prairielimo/lms_backend/internal/core/ports/services"
	"github.com/shopspring/decimal"
)

// ledgerService serves read-side queries over the journal.
type ledgerService struct {
	ledgerRepo portsrepo.LedgerRepositoryFacade
}

// NewLedgerService creates a new ledger read service.
func NewLedgerService(ledgerRepo portsrepo.LedgerRepositoryFacade) portssvc.LedgerSvcFacade {
	return &ledgerService{ledgerRepo: ledgerRepo}
}

var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

// GetBatch returns a batch with its lines and whether the lines balance.
// The balanced flag is recomputed from the stored lines rather than trusted,
// so a corrupted batch is visible to the caller.
func (s *ledgerService) GetBatch(ctx context.Context, batchID int64) (*domain.JournalBatch, bool, error) {
	batch, err := s.ledgerRepo.FindBatchByID(ctx, batchID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, false, fmt.Errorf("%w: id %d", ErrBatchNotFound, batchID)
		}
		return nil, false, fmt.Errorf("failed to load batch %d: %w", batchID, err)
	}

	lines, err := s.ledgerRepo.FindLinesByBatchID(ctx, batchID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load lines for batch %d: %w", batchID, err)
	}
	batch.Lines = lines

	return batch, domain.Balanced(lines), nil
}

// TrialBalance aggregates per-account debit and credit totals over all
// batches created up to asOf. Because reversals are mirror batches, a
// reversed event contributes equal debits and credits and nets to zero.
func (s *ledgerService) TrialBalance(ctx context.Context, asOf time.Time) (*domain.TrialBalanceReport, error) {
	rows, err := s.ledgerRepo.GetTrialBalance(ctx, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to compute trial balance: %w", err)
	}

	report := &domain.TrialBalanceReport{
		Rows:        rows,
		TotalDebit:  decimal.Zero,
		TotalCredit: decimal.Zero,
	}
	for _, r := range rows {
		report.TotalDebit = report.TotalDebit.Add(r.Debit)
		report.TotalCredit = report.TotalCredit.Add(r.Credit)
	}
	return report, nil
}
