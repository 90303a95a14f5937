package services

import (
	"context"

	"github.com/prairielimo/lms_backend/internal/core/domain"
)

// MatchCandidateSvc proposes plausible charters for one unmatched payment.
// It never mutates payments or charters.
type MatchCandidateSvc interface {
	// Candidates runs every strategy in priority order and returns all hits.
	Candidates(ctx context.Context, payment domain.Payment, opts domain.StrategyOptions) ([]domain.MatchCandidate, error)

	// CandidatesFor runs a single named strategy.
	CandidatesFor(ctx context.Context, payment domain.Payment, strategy domain.MatchStrategy, opts domain.StrategyOptions) ([]domain.MatchCandidate, error)
}

// ReconciliationSvcFacade orchestrates matching passes over all unmatched
// payments and classifies the remainder.
type ReconciliationSvcFacade interface {
	// Run executes the configured pass sequence and returns the summary
	// external tooling depends on. Passes are monotonic: a payment once
	// matched or classified is never reverted.
	Run(ctx context.Context) (*domain.ReconciliationSummary, error)

	// Summary recomputes the current counts without running any pass.
	Summary(ctx context.Context) (*domain.ReconciliationSummary, error)

	// Unmatched lists payments still awaiting a charter link or terminal
	// classification, ordered by payment id.
	Unmatched(ctx context.Context, limit int) ([]domain.Payment, error)
}
