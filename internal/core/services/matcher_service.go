package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/prairielimo/lms_backend/internal/apperrors"
	"github.com/prairielimo/lms_backend/internal/core/domain"
	portsrepo "github.com/prairielimo/lms_backend/internal/core/ports/repositories"
	portssvc "github.com/prairielimo/lms_backend/internal/core/ports/services"
	"github.com/shopspring/decimal"
)

// Reserve numbers are six digits. Extraction only accepts a standalone token
// so an eight digit invoice number is not half-matched.
var reservePattern = regexp.MustCompile(`(^|\D)(\d{6})(\D|$)`)

// Multi-charter bundles combine up to this many charters. Larger bundles sum
// to a given amount too easily to trust.
const maxBundleSize = 3

// A client counts as a regular customer once this many of their charters have
// been linked by earlier matching.
const regularCustomerMinHistory = 3

// matcherService proposes charters for unmatched payments. It is strictly
// read-only; the reconciliation driver decides what to apply.
type matcherService struct {
	charterRepo portsrepo.CharterReader
}

// NewMatcherService creates a new match candidate generator.
func NewMatcherService(charterRepo portsrepo.CharterReader) portssvc.MatchCandidateSvc {
	return &matcherService{charterRepo: charterRepo}
}

var _ portssvc.MatchCandidateSvc = (*matcherService)(nil)

// candidateStrategies is the priority order Candidates evaluates.
var candidateStrategies = []domain.MatchStrategy{
	domain.StrategyExactReserve,
	domain.StrategyExtractedReference,
	domain.StrategyAccountWindow,
	domain.StrategyAmountFuzzy,
	domain.StrategyBalanceDue,
	domain.StrategyMultiCharter,
	domain.StrategyRegularCustomer,
}

// Candidates runs every strategy in priority order and concatenates the
// hits. Within one strategy candidates arrive ordered by date proximity to
// the payment, so the first element is always the generator's best guess.
func (s *matcherService) Candidates(ctx context.Context, payment domain.Payment, opts domain.StrategyOptions) ([]domain.MatchCandidate, error) {
	var out []domain.MatchCandidate
	for _, strategy := range candidateStrategies {
		hits, err := s.CandidatesFor(ctx, payment, strategy, opts)
		if err != nil {
			return nil, err
		}
		out = append(out, hits...)
	}
	return out, nil
}

// CandidatesFor runs a single strategy. An already-matched payment yields no
// candidates, and neither does a payment that lacks the field a strategy keys
// on (no reserve number, no account, no client). Negative amounts never
// produce amount based candidates; refunds are classified, not matched.
func (s *matcherService) CandidatesFor(ctx context.Context, payment domain.Payment, strategy domain.MatchStrategy, opts domain.StrategyOptions) ([]domain.MatchCandidate, error) {
	if payment.IsMatched() {
		return nil, nil
	}
	switch strategy {
	case domain.StrategyExactReserve:
		return s.exactReserve(ctx, payment)
	case domain.StrategyExtractedReference:
		return s.extractedReference(ctx, payment)
	case domain.StrategyAccountWindow:
		return s.accountWindow(ctx, payment, opts)
	case domain.StrategyAmountFuzzy:
		return s.amountFuzzy(ctx, payment, opts)
	case domain.StrategyBalanceDue:
		return s.balanceDue(ctx, payment, opts)
	case domain.StrategyMultiCharter:
		return s.multiCharter(ctx, payment, opts)
	case domain.StrategyRegularCustomer:
		return s.regularCustomer(ctx, payment, opts)
	}
	return nil, fmt.Errorf("unknown match strategy %q", strategy)
}

// exactReserve matches on the payment's own reserve number. The reserve
// number is the authoritative business key, so a hit is exact confidence.
func (s *matcherService) exactReserve(ctx context.Context, payment domain.Payment) ([]domain.MatchCandidate, error) {
	if payment.ReserveNumber == nil || *payment.ReserveNumber == "" {
		return nil, nil
	}
	charter, err := s.charterRepo.FindByReserveNumber(ctx, *payment.ReserveNumber)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("exact reserve lookup failed: %w", err)
	}
	return []domain.MatchCandidate{toCandidate(*charter, domain.StrategyExactReserve, domain.ConfidenceExact, "")}, nil
}

// extractedReference digs a reserve-number-shaped token out of the payment's
// free text fields and looks it up. High confidence but not exact: the token
// could coincidentally be some other six digit number.
func (s *matcherService) extractedReference(ctx context.Context, payment domain.Payment) ([]domain.MatchCandidate, error) {
	var out []domain.MatchCandidate
	seen := make(map[string]struct{})
	for _, token := range extractReserveTokens(payment) {
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}

		charter, err := s.charterRepo.FindByReserveNumber(ctx, token)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("extracted reference lookup failed: %w", err)
		}
		out = append(out, toCandidate(*charter, domain.StrategyExtractedReference, domain.ConfidenceHigh,
			fmt.Sprintf("reference %s extracted from payment text", token)))
	}
	return out, nil
}

// extractReserveTokens scans notes and the external payment key, in that
// order, for standalone six digit tokens.
func extractReserveTokens(payment domain.Payment) []string {
	sources := []string{payment.Notes}
	if payment.PaymentKey != nil {
		sources = append(sources, *payment.PaymentKey)
	}

	var tokens []string
	for _, src := range sources {
		for _, m := range reservePattern.FindAllStringSubmatch(src, -1) {
			tokens = append(tokens, m[2])
		}
	}
	return tokens
}

// accountWindow matches open charters on the payer's account number within a
// date window. Prefix matching (opts.AccountPrefixLen > 0) tolerates suffix
// drift in imported account numbers at the cost of one confidence grade.
func (s *matcherService) accountWindow(ctx context.Context, payment domain.Payment, opts domain.StrategyOptions) ([]domain.MatchCandidate, error) {
	if payment.AccountNumber == nil || *payment.AccountNumber == "" {
		return nil, nil
	}
	charters, err := s.charterRepo.FindOpenByAccountWindow(ctx, *payment.AccountNumber, opts.AccountPrefixLen, payment.PaymentDate, opts.DateWindowDays)
	if err != nil {
		return nil, fmt.Errorf("account window lookup failed: %w", err)
	}

	confidence := domain.ConfidenceMedium
	note := ""
	if opts.AccountPrefixLen > 0 {
		confidence = domain.ConfidenceLow
		note = fmt.Sprintf("account prefix match (%d chars)", opts.AccountPrefixLen)
	}
	return toCandidates(charters, domain.StrategyAccountWindow, confidence, note), nil
}

// amountFuzzy matches open charters whose rate is within tolerance of the
// payment amount inside the date window.
func (s *matcherService) amountFuzzy(ctx context.Context, payment domain.Payment, opts domain.StrategyOptions) ([]domain.MatchCandidate, error) {
	if !payment.Amount.IsPositive() {
		return nil, nil
	}
	charters, err := s.charterRepo.FindOpenByAmountWindow(ctx, payment.Amount, opts.AmountTolerance, payment.PaymentDate, opts.DateWindowDays)
	if err != nil {
		return nil, fmt.Errorf("amount window lookup failed: %w", err)
	}
	return toCandidates(charters, domain.StrategyAmountFuzzy, domain.ConfidenceLow,
		fmt.Sprintf("amount within %s of charter rate", opts.AmountTolerance.String())), nil
}

// balanceDue matches payments that settle a charter's outstanding balance
// exactly. An exact balance hit is stronger evidence than a fuzzy rate hit.
func (s *matcherService) balanceDue(ctx context.Context, payment domain.Payment, opts domain.StrategyOptions) ([]domain.MatchCandidate, error) {
	if !payment.Amount.IsPositive() {
		return nil, nil
	}
	charters, err := s.charterRepo.FindOpenByBalanceDue(ctx, payment.Amount, payment.PaymentDate, opts.DateWindowDays)
	if err != nil {
		return nil, fmt.Errorf("balance due lookup failed: %w", err)
	}
	return toCandidates(charters, domain.StrategyBalanceDue, domain.ConfidenceMedium, "payment equals outstanding balance"), nil
}

// multiCharter detects one payment settling several of a client's charters at
// once: it searches small combinations of the client's open charters whose
// rates sum to the payment amount within tolerance. The candidate points at
// the earliest charter of the bundle and names the rest in the note.
func (s *matcherService) multiCharter(ctx context.Context, payment domain.Payment, opts domain.StrategyOptions) ([]domain.MatchCandidate, error) {
	if payment.ClientID == nil || !payment.Amount.IsPositive() {
		return nil, nil
	}
	charters, err := s.charterRepo.FindOpenByClientWindow(ctx, *payment.ClientID, payment.PaymentDate, opts.DateWindowDays)
	if err != nil {
		return nil, fmt.Errorf("client window lookup failed: %w", err)
	}
	if len(charters) < 2 {
		return nil, nil
	}

	bundle := findBundle(charters, payment, opts)
	if len(bundle) == 0 {
		return nil, nil
	}

	reserves := make([]string, len(bundle))
	for i, c := range bundle {
		reserves[i] = c.ReserveNumber
	}
	note := fmt.Sprintf("bundle of %d charters: %s", len(bundle), strings.Join(reserves, ", "))
	return []domain.MatchCandidate{toCandidate(bundle[0], domain.StrategyMultiCharter, domain.ConfidenceMedium, note)}, nil
}

// findBundle returns the first pair or triple of charters whose rates sum to
// the payment amount within tolerance. Charters arrive ordered by date, so
// iteration order and therefore the chosen bundle is deterministic. Pairs are
// tried before any triple.
func findBundle(charters []domain.Charter, payment domain.Payment, opts domain.StrategyOptions) []domain.Charter {
	n := len(charters)
	for i := 0; i < n-1; i++ {
		for j := i + 1; j < n; j++ {
			if withinTolerance(charters[i].Rate.Add(charters[j].Rate), payment, opts) {
				return []domain.Charter{charters[i], charters[j]}
			}
		}
	}
	if maxBundleSize >= 3 {
		for i := 0; i < n-2; i++ {
			for j := i + 1; j < n-1; j++ {
				pair := charters[i].Rate.Add(charters[j].Rate)
				for k := j + 1; k < n; k++ {
					if withinTolerance(pair.Add(charters[k].Rate), payment, opts) {
						return []domain.Charter{charters[i], charters[j], charters[k]}
					}
				}
			}
		}
	}
	return nil
}

func withinTolerance(sum decimal.Decimal, payment domain.Payment, opts domain.StrategyOptions) bool {
	return sum.Sub(payment.Amount).Abs().LessThanOrEqual(opts.AmountTolerance)
}

// regularCustomer is the weakest heuristic: a client with an established
// matching history and exactly one open charter near the payment date very
// likely paid that charter. Ambiguity (more than one open charter) yields
// nothing rather than a guess.
func (s *matcherService) regularCustomer(ctx context.Context, payment domain.Payment, opts domain.StrategyOptions) ([]domain.MatchCandidate, error) {
	if payment.ClientID == nil || !payment.Amount.IsPositive() {
		return nil, nil
	}

	history, err := s.charterRepo.CountMatchedByClient(ctx, *payment.ClientID)
	if err != nil {
		return nil, fmt.Errorf("client history lookup failed: %w", err)
	}
	if history < regularCustomerMinHistory {
		return nil, nil
	}

	charters, err := s.charterRepo.FindOpenByClientWindow(ctx, *payment.ClientID, payment.PaymentDate, opts.DateWindowDays)
	if err != nil {
		return nil, fmt.Errorf("client window lookup failed: %w", err)
	}
	if len(charters) != 1 {
		return nil, nil
	}
	return []domain.MatchCandidate{toCandidate(charters[0], domain.StrategyRegularCustomer, domain.ConfidenceLow,
		fmt.Sprintf("regular customer, %d prior matches, single open charter", history))}, nil
}

func toCandidate(c domain.Charter, strategy domain.MatchStrategy, confidence domain.MatchConfidence, note string) domain.MatchCandidate {
	return domain.MatchCandidate{
		CharterID:     c.CharterID,
		ReserveNumber: c.ReserveNumber,
		CharterDate:   c.CharterDate,
		Strategy:      strategy,
		Confidence:    confidence,
		Note:          note,
	}
}

func toCandidates(charters []domain.Charter, strategy domain.MatchStrategy, confidence domain.MatchConfidence, note string) []domain.MatchCandidate {
	if len(charters) == 0 {
		return nil
	}
	out := make([]domain.MatchCandidate, len(charters))
	for i, c := range charters {
		out[i] = toCandidate(c, strategy, confidence, note)
	}
	return out
}
