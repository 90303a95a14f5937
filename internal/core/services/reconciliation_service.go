package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/prairielimo/lms_backend/internal/core/domain"
	portsrepo "github.com/prairielimo/lms_backend/internal/core/ports/repositories"
	portssvc "github.com/prairielimo/lms_backend/internal/core/ports/services"
	"github.com/prairielimo/lms_backend/internal/middleware"
	"github.com/prairielimo/lms_backend/internal/platform/config"
)

// maxSweeps bounds the outer loop. Each sweep only shrinks the unmatched
// set, so in practice the run plateaus after two or three sweeps.
const maxSweeps = 5

// matchPass is one configured strategy pass in the fixed sequence.
type matchPass struct {
	name     string
	strategy domain.MatchStrategy
	opts     domain.StrategyOptions
}

// reconciliationService drives matching passes over all unmatched payments.
// Each pass runs in its own transaction; per-payment updates inside a pass
// are guarded so a pass can never overwrite an existing link.
type reconciliationService struct {
	paymentRepo portsrepo.PaymentRepositoryWithTx
	matcher     portssvc.MatchCandidateSvc
	cfg         config.MatchingConfig
}

// NewReconciliationService creates the reconciliation driver.
func NewReconciliationService(paymentRepo portsrepo.PaymentRepositoryWithTx, matcher portssvc.MatchCandidateSvc, cfg config.MatchingConfig) portssvc.ReconciliationSvcFacade {
	return &reconciliationService{paymentRepo: paymentRepo, matcher: matcher, cfg: cfg}
}

var _ portssvc.ReconciliationSvcFacade = (*reconciliationService)(nil)

// passes builds the strategy sequence, ordered strongest evidence first.
// Later passes rerun earlier strategies with widened windows and tolerances,
// then fall through to the weak client-history heuristics.
func (s *reconciliationService) passes() []matchPass {
	m := s.cfg
	return []matchPass{
		{"extracted reference", domain.StrategyExtractedReference, domain.StrategyOptions{}},
		{"account + date window", domain.StrategyAccountWindow, domain.StrategyOptions{DateWindowDays: m.DateWindowDays}},
		{"account + date window (wide)", domain.StrategyAccountWindow, domain.StrategyOptions{DateWindowDays: m.DateWindowWideDays}},
		{"amount + date fuzzy", domain.StrategyAmountFuzzy, domain.StrategyOptions{DateWindowDays: m.FuzzyWindowDays, AmountTolerance: m.AmountTolerance}},
		{"balance due", domain.StrategyBalanceDue, domain.StrategyOptions{DateWindowDays: m.BalanceWindowDays}},
		{"account prefix + date window", domain.StrategyAccountWindow, domain.StrategyOptions{DateWindowDays: m.DateWindowWideDays, AccountPrefixLen: m.AccountPrefixLen}},
		{"amount + date fuzzy (wide)", domain.StrategyAmountFuzzy, domain.StrategyOptions{DateWindowDays: m.FuzzyWindowWideDays, AmountTolerance: m.AmountToleranceWide}},
		{"multi charter bundle", domain.StrategyMultiCharter, domain.StrategyOptions{DateWindowDays: m.FuzzyWindowWideDays, AmountTolerance: m.AmountTolerance}},
		{"regular customer", domain.StrategyRegularCustomer, domain.StrategyOptions{DateWindowDays: m.DateWindowWideDays}},
	}
}

// Run executes the full pass sequence, then classifies refunds and likely
// cash, and repeats until a sweep applies nothing or the handled percentage
// reaches the configured target. A transaction failure stops the run; the
// summary returned alongside the error reflects the passes that committed.
func (s *reconciliationService) Run(ctx context.Context) (*domain.ReconciliationSummary, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	summary := &domain.ReconciliationSummary{PerStrategy: make(map[domain.MatchStrategy]int)}

	for sweep := 1; sweep <= maxSweeps; sweep++ {
		applied, err := s.runSweep(ctx, logger, summary)
		if err != nil {
			s.fillCounts(ctx, logger, summary)
			return summary, err
		}

		if err := s.refreshCounts(ctx, summary); err != nil {
			return summary, err
		}

		logger.Info("Reconciliation sweep finished",
			slog.Int("sweep", sweep),
			slog.Int("applied", applied),
			slog.Float64("handled_percent", summary.Percentage))

		if applied == 0 || summary.Percentage >= s.cfg.TargetPercent {
			break
		}
	}

	return summary, nil
}

// Summary recomputes the current counts without mutating anything.
func (s *reconciliationService) Summary(ctx context.Context) (*domain.ReconciliationSummary, error) {
	summary := &domain.ReconciliationSummary{PerStrategy: make(map[domain.MatchStrategy]int)}
	if err := s.refreshCounts(ctx, summary); err != nil {
		return nil, err
	}
	return summary, nil
}

// Unmatched lists payments still awaiting reconciliation. The limit is
// capped at the configured batch size.
func (s *reconciliationService) Unmatched(ctx context.Context, limit int) ([]domain.Payment, error) {
	if limit <= 0 || limit > s.cfg.UnmatchedBatchLimit {
		limit = s.cfg.UnmatchedBatchLimit
	}
	payments, err := s.paymentRepo.ListUnmatched(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list unmatched payments: %w", err)
	}
	return payments, nil
}

// runSweep executes every pass once and returns the total rows applied.
func (s *reconciliationService) runSweep(ctx context.Context, logger *slog.Logger, summary *domain.ReconciliationSummary) (int, error) {
	total := 0

	result, err := s.runExactReservePass(ctx)
	if err != nil {
		return total, err
	}
	s.record(logger, summary, result)
	total += result.Applied

	for _, pass := range s.passes() {
		result, err := s.runStrategyPass(ctx, logger, pass)
		if err != nil {
			return total, err
		}
		s.record(logger, summary, result)
		total += result.Applied
	}

	result, err = s.runRefundPass(ctx)
	if err != nil {
		return total, err
	}
	s.record(logger, summary, result)
	total += result.Applied

	result, err = s.runCashPass(ctx)
	if err != nil {
		return total, err
	}
	s.record(logger, summary, result)
	total += result.Applied

	return total, nil
}

func (s *reconciliationService) record(logger *slog.Logger, summary *domain.ReconciliationSummary, result domain.PassResult) {
	summary.Passes = append(summary.Passes, result)
	if result.Strategy != "" {
		summary.PerStrategy[result.Strategy] += result.Applied
	}
	if result.Applied > 0 || result.Errors > 0 {
		logger.Info("Reconciliation pass finished",
			slog.String("pass", result.Name),
			slog.Int("applied", result.Applied),
			slog.Int("errors", result.Errors))
	}
}

// runExactReservePass links payments on the reserve number business key with
// one set-based statement. This is the only strategy trusted enough to skip
// the per-row candidate loop.
func (s *reconciliationService) runExactReservePass(ctx context.Context) (domain.PassResult, error) {
	result := domain.PassResult{Name: "exact reserve key", Strategy: domain.StrategyExactReserve}

	tx, err := s.paymentRepo.Begin(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to begin exact reserve pass: %w", err)
	}
	defer s.paymentRepo.Rollback(ctx, tx)

	n, err := s.paymentRepo.MatchExactReserve(ctx, tx, s.annotation(domain.StrategyExactReserve, domain.ConfidenceExact, "reserve number on payment"))
	if err != nil {
		return result, fmt.Errorf("exact reserve pass failed: %w", err)
	}
	if err := s.paymentRepo.Commit(ctx, tx); err != nil {
		return result, fmt.Errorf("failed to commit exact reserve pass: %w", err)
	}

	result.Applied = int(n)
	return result, nil
}

// runStrategyPass loops the unmatched set, asks the candidate generator for
// this strategy's hits and applies the best one per payment. Candidate errors
// for a single payment are counted and skipped so one bad row cannot sink a
// pass; the pass transaction only fails on infrastructure errors.
func (s *reconciliationService) runStrategyPass(ctx context.Context, logger *slog.Logger, pass matchPass) (domain.PassResult, error) {
	result := domain.PassResult{Name: pass.name, Strategy: pass.strategy}

	tx, err := s.paymentRepo.Begin(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to begin pass %q: %w", pass.name, err)
	}
	defer s.paymentRepo.Rollback(ctx, tx)

	payments, err := s.paymentRepo.ListUnmatchedTx(ctx, tx, s.cfg.UnmatchedBatchLimit)
	if err != nil {
		return result, fmt.Errorf("failed to list unmatched payments for pass %q: %w", pass.name, err)
	}

	for _, p := range payments {
		if p.IsRefund() || p.Amount.IsZero() {
			continue
		}

		candidates, err := s.matcher.CandidatesFor(ctx, p, pass.strategy, pass.opts)
		if err != nil {
			result.Errors++
			logger.Warn("Candidate generation failed",
				slog.String("pass", pass.name),
				slog.Int64("payment_id", p.PaymentID),
				slog.String("error", err.Error()))
			continue
		}
		if len(candidates) == 0 {
			continue
		}

		best := candidates[0]
		applied, err := s.paymentRepo.AssignCharter(ctx, tx, p.PaymentID, best.CharterID, s.candidateAnnotation(best))
		if err != nil {
			return result, fmt.Errorf("failed to assign charter in pass %q: %w", pass.name, err)
		}
		if applied {
			result.Applied++
		}
	}

	if err := s.paymentRepo.Commit(ctx, tx); err != nil {
		return result, fmt.Errorf("failed to commit pass %q: %w", pass.name, err)
	}
	return result, nil
}

// runRefundPass tags negative payments with the adjustment method in one
// set-based statement.
func (s *reconciliationService) runRefundPass(ctx context.Context) (domain.PassResult, error) {
	result := domain.PassResult{Name: "refund classification"}

	tx, err := s.paymentRepo.Begin(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to begin refund pass: %w", err)
	}
	defer s.paymentRepo.Rollback(ctx, tx)

	n, err := s.paymentRepo.ClassifyRefunds(ctx, tx, "auto-classified refund/adjustment")
	if err != nil {
		return result, fmt.Errorf("refund pass failed: %w", err)
	}
	if err := s.paymentRepo.Commit(ctx, tx); err != nil {
		return result, fmt.Errorf("failed to commit refund pass: %w", err)
	}

	result.Applied = int(n)
	return result, nil
}

// runCashPass classifies leftover payments that look like till cash: keyword
// hits, payments past the age threshold, and small round amounts past half
// the threshold. Cash is terminal, so this runs after every matching pass.
func (s *reconciliationService) runCashPass(ctx context.Context) (domain.PassResult, error) {
	result := domain.PassResult{Name: "cash classification"}

	tx, err := s.paymentRepo.Begin(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to begin cash pass: %w", err)
	}
	defer s.paymentRepo.Rollback(ctx, tx)

	payments, err := s.paymentRepo.ListUnmatchedTx(ctx, tx, s.cfg.UnmatchedBatchLimit)
	if err != nil {
		return result, fmt.Errorf("failed to list unmatched payments for cash pass: %w", err)
	}

	now := time.Now().UTC()
	for _, p := range payments {
		reason, likely := s.likelyCash(p, now)
		if !likely {
			continue
		}
		applied, err := s.paymentRepo.MarkCash(ctx, tx, p.PaymentID, "auto-classified cash: "+reason)
		if err != nil {
			return result, fmt.Errorf("failed to mark payment %d cash: %w", p.PaymentID, err)
		}
		if applied {
			result.Applied++
		}
	}

	if err := s.paymentRepo.Commit(ctx, tx); err != nil {
		return result, fmt.Errorf("failed to commit cash pass: %w", err)
	}
	return result, nil
}

// likelyCash applies the cash heuristics to one still-unmatched payment.
func (s *reconciliationService) likelyCash(p domain.Payment, now time.Time) (string, bool) {
	if p.IsRefund() || p.Amount.IsZero() {
		return "", false
	}

	haystack := strings.ToLower(p.Notes + " " + p.PaymentMethod)
	if p.PaymentKey != nil {
		haystack += " " + strings.ToLower(*p.PaymentKey)
	}
	for _, kw := range s.cfg.CashKeywords {
		if kw != "" && strings.Contains(haystack, strings.ToLower(kw)) {
			return "keyword " + kw, true
		}
	}

	age := now.Sub(p.PaymentDate)
	if age > s.cfg.CashAgeThreshold {
		return "unmatched past age threshold", true
	}

	round := p.Amount.Equal(p.Amount.Truncate(0))
	if round && p.Amount.LessThanOrEqual(s.cfg.CashRoundAmountMax) && age > s.cfg.CashAgeThreshold/2 {
		return "old round amount", true
	}

	return "", false
}

// annotation builds the audit note a set-based pass appends to each payment.
func (s *reconciliationService) annotation(strategy domain.MatchStrategy, confidence domain.MatchConfidence, detail string) string {
	return fmt.Sprintf("auto-match %s (%s): %s", strategy, confidence, detail)
}

// candidateAnnotation builds the audit note for one applied candidate.
func (s *reconciliationService) candidateAnnotation(c domain.MatchCandidate) string {
	note := fmt.Sprintf("auto-match %s (%s): charter %s", c.Strategy, c.Confidence, c.ReserveNumber)
	if c.Note != "" {
		note += "; " + c.Note
	}
	return note
}

// refreshCounts re-derives the state counts and handled percentage.
func (s *reconciliationService) refreshCounts(ctx context.Context, summary *domain.ReconciliationSummary) error {
	counts, err := s.paymentRepo.CountStates(ctx)
	if err != nil {
		return fmt.Errorf("failed to count payment states: %w", err)
	}
	summary.Total = counts.Total
	summary.Matched = counts.Matched
	summary.Cash = counts.Cash
	summary.Refund = counts.Refund
	summary.Unresolved = counts.Total - counts.Matched - counts.Cash - counts.Refund
	summary.Percentage = domain.HandledPercent(counts.Total, counts.Matched, counts.Cash, counts.Refund)
	return nil
}

// fillCounts is refreshCounts for the error path, where the original error
// must survive and a count failure is only worth a log line.
func (s *reconciliationService) fillCounts(ctx context.Context, logger *slog.Logger, summary *domain.ReconciliationSummary) {
	if err := s.refreshCounts(ctx, summary); err != nil {
		logger.Warn("Failed to refresh counts after pass error", slog.String("error", err.Error()))
	}
}
