package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prairielimo/lms_backend/internal/apperrors"
	"github.com/prairielimo/lms_backend/internal/core/domain"
	portsrepo "github.com/prairielimo/lms_backend/internal/core/ports/repositories"
	portssvc "github.com/prairielimo/lms_backend/internal/core/ports/services"
	"github.com/prairielimo/lms_backend/internal/middleware"
	"github.com/prairielimo/lms_backend/internal/utils/eventhash"
	"github.com/shopspring/decimal"
)

// ErrPosting is the root of the posting error taxonomy. Every posting
// failure wraps it, so callers can distinguish caller/data bugs (surfaced as
// 400-class responses) from infrastructure failures.
var (
	ErrPosting          = errors.New("posting error")
	ErrBatchUnbalanced  = fmt.Errorf("%w: lines do not balance", ErrPosting)
	ErrUnknownEventCode = fmt.Errorf("%w: unrecognized event code", ErrPosting)
	ErrAccountMissing   = fmt.Errorf("%w: referenced account does not exist", ErrPosting)
	ErrBatchNotFound    = fmt.Errorf("%w: batch does not exist", ErrPosting)
	ErrAlreadyReversed  = fmt.Errorf("%w: batch already reversed", ErrPosting)
	ErrInvalidPayload   = fmt.Errorf("%w: invalid payload", ErrPosting)
)

// Ledger account codes used by event expansion. The chart of accounts is
// seeded by migration; posting fails if a referenced code is missing.
const (
	AccountReceivable      = "1100"
	AccountRevenue         = "4000"
	AccountGSTPayable      = "2300"
	AccountGratuityPayable = "2400"
)

// postingService turns business events into balanced, immutable journal
// batches keyed by a content hash of the event.
type postingService struct {
	ledgerRepo portsrepo.LedgerRepositoryFacade
	currency   string
	gstRate    decimal.Decimal
}

// NewPostingService creates a new posting engine. currency is the fallback
// for payloads that do not name one; gstRate is used only to flag invoices
// whose tax looks off, caller amounts are never rewritten.
func NewPostingService(ledgerRepo portsrepo.LedgerRepositoryFacade, currency string, gstRate decimal.Decimal) portssvc.PostingSvcFacade {
	return &postingService{ledgerRepo: ledgerRepo, currency: currency, gstRate: gstRate}
}

var _ portssvc.PostingSvcFacade = (*postingService)(nil)

// PostEvent expands payload into balanced lines and writes one batch
// atomically. The event hash covers (event_code, canonical payload,
// event_id); reposting a logically identical event returns the stored batch
// with its lines without creating anything, so callers may resend after a
// timeout without double-posting and still see the same response.
func (s *postingService) PostEvent(ctx context.Context, payload domain.EventPayload, eventID *string, userID string) (*domain.JournalBatch, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if payload == nil {
		return nil, fmt.Errorf("%w: payload is required", ErrInvalidPayload)
	}
	code := payload.Code()
	if !domain.KnownEventCode(code) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventCode, code)
	}

	lines, err := s.expandLines(payload)
	if err != nil {
		return nil, err
	}

	s.warnOnTaxDrift(logger, payload)

	if err := s.validateAccounts(ctx, lines); err != nil {
		return nil, err
	}

	if !domain.Balanced(lines) {
		return nil, fmt.Errorf("%w: debits %s, credits %s",
			ErrBatchUnbalanced, domain.TotalDebit(lines).String(), domain.TotalCredit(lines).String())
	}

	hash, err := eventhash.Compute(string(code), payload, eventID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	sourcePayload, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	batch := domain.JournalBatch{
		EventCode:     code,
		EventID:       eventID,
		EventHash:     hash,
		SourcePayload: sourcePayload,
		CreatedAt:     time.Now().UTC(),
		CreatedBy:     userID,
	}

	batchID, created, err := s.ledgerRepo.SaveBatch(ctx, batch, lines)
	if err != nil {
		logger.Error("Failed to save journal batch", slog.String("event_code", string(code)), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save journal batch: %w", err)
	}

	if !created {
		logger.Info("Idempotent repost, returning existing batch",
			slog.String("event_code", string(code)), slog.Int64("batch_id", batchID))
		existing, err := s.ledgerRepo.FindBatchByID(ctx, batchID)
		if err != nil {
			return nil, fmt.Errorf("failed to load existing batch %d: %w", batchID, err)
		}
		existingLines, err := s.ledgerRepo.FindLinesByBatchID(ctx, batchID)
		if err != nil {
			return nil, fmt.Errorf("failed to load lines for batch %d: %w", batchID, err)
		}
		existing.Lines = existingLines
		return existing, nil
	}

	batch.BatchID = batchID
	for i := range lines {
		lines[i].BatchID = batchID
	}
	batch.Lines = lines

	logger.Info("Journal batch posted",
		slog.String("event_code", string(code)), slog.Int64("batch_id", batchID), slog.Int("lines", len(lines)))
	return &batch, nil
}

// ReverseBatch appends an equal-and-opposite batch linked to the original.
// The original is never edited; only its reversed_by link is stamped.
func (s *postingService) ReverseBatch(ctx context.Context, batchID int64, reason, userID string) (*domain.JournalBatch, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if reason == "" {
		return nil, fmt.Errorf("%w: reversal reason is required", ErrInvalidPayload)
	}

	original, err := s.ledgerRepo.FindBatchByID(ctx, batchID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrBatchNotFound, batchID)
		}
		return nil, fmt.Errorf("failed to load batch %d: %w", batchID, err)
	}
	if original.IsReversed() {
		return nil, fmt.Errorf("%w: id %d reversed by %d", ErrAlreadyReversed, batchID, *original.ReversedBy)
	}

	originalLines, err := s.ledgerRepo.FindLinesByBatchID(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load lines for batch %d: %w", batchID, err)
	}

	mirrored := domain.MirrorLines(originalLines)

	reversalSource := map[string]any{"originalBatchID": batchID, "reason": reason}
	hash, err := eventhash.Compute("REVERSAL", reversalSource, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	sourcePayload, _ := json.Marshal(reversalSource)

	reversal := domain.JournalBatch{
		EventCode:     original.EventCode,
		EventHash:     hash,
		ReversalOf:    &batchID,
		Reason:        &reason,
		SourcePayload: sourcePayload,
		CreatedAt:     time.Now().UTC(),
		CreatedBy:     userID,
	}

	reversalID, err := s.ledgerRepo.SaveReversal(ctx, batchID, reversal, mirrored)
	if err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, fmt.Errorf("%w: id %d", ErrAlreadyReversed, batchID)
		}
		logger.Error("Failed to save reversal batch", slog.Int64("original_batch_id", batchID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save reversal batch: %w", err)
	}

	reversal.BatchID = reversalID
	for i := range mirrored {
		mirrored[i].BatchID = reversalID
	}
	reversal.Lines = mirrored

	logger.Info("Journal batch reversed",
		slog.Int64("original_batch_id", batchID), slog.Int64("reversal_batch_id", reversalID), slog.String("reason", reason))
	return &reversal, nil
}

// expandLines converts the tagged payload union into journal lines. The
// switch is exhaustive over the concrete payload types; a new event code
// without an arm here fails as unknown rather than posting partially.
func (s *postingService) expandLines(payload domain.EventPayload) ([]domain.JournalLine, error) {
	switch p := payload.(type) {
	case domain.InvoiceIssuedPayload:
		return s.expandInvoice(p)
	case *domain.InvoiceIssuedPayload:
		return s.expandInvoice(*p)
	case domain.GenericPayload:
		return s.expandGeneric(p)
	case *domain.GenericPayload:
		return s.expandGeneric(*p)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEventCode, payload.Code())
}

// expandInvoice produces: debit AR for the gross total, credit revenue for
// the pre-tax subtotal, credit GST payable for the tax, credit gratuity
// payable for the tip. Zero components are omitted. Debits equal credits by
// construction.
func (s *postingService) expandInvoice(p domain.InvoiceIssuedPayload) ([]domain.JournalLine, error) {
	if p.Subtotal.IsNegative() || p.Tax.IsNegative() || p.Gratuity.IsNegative() {
		return nil, fmt.Errorf("%w: invoice components must be non-negative", ErrInvalidPayload)
	}
	gross := p.Gross()
	if !gross.IsPositive() {
		return nil, fmt.Errorf("%w: invoice total must be positive", ErrInvalidPayload)
	}

	currency := p.Currency
	if currency == "" {
		currency = s.currency
	}

	desc := "Charter invoice"
	if p.ReserveNumber != "" {
		desc = fmt.Sprintf("Charter invoice, reserve %s", p.ReserveNumber)
	}

	lines := []domain.JournalLine{
		{AccountCode: AccountReceivable, Description: desc, Debit: gross, Credit: decimal.Zero, Currency: currency},
	}
	if p.Subtotal.IsPositive() {
		lines = append(lines, domain.JournalLine{AccountCode: AccountRevenue, Description: desc, Debit: decimal.Zero, Credit: p.Subtotal, Currency: currency})
	}
	if p.Tax.IsPositive() {
		lines = append(lines, domain.JournalLine{AccountCode: AccountGSTPayable, Description: desc + " (GST)", Debit: decimal.Zero, Credit: p.Tax, Currency: currency})
	}
	if p.Gratuity.IsPositive() {
		lines = append(lines, domain.JournalLine{AccountCode: AccountGratuityPayable, Description: desc + " (gratuity)", Debit: decimal.Zero, Credit: p.Gratuity, Currency: currency})
	}

	numberLines(lines)
	return lines, nil
}

// expandGeneric posts caller-specified lines verbatim after validating that
// every line is one-sided and non-negative. Balance is checked by the caller.
func (s *postingService) expandGeneric(p domain.GenericPayload) ([]domain.JournalLine, error) {
	if len(p.Lines) < 2 {
		return nil, fmt.Errorf("%w: a batch needs at least two lines", ErrInvalidPayload)
	}

	currency := p.Currency
	if currency == "" {
		currency = s.currency
	}

	lines := make([]domain.JournalLine, len(p.Lines))
	for i, el := range p.Lines {
		if el.Debit.IsNegative() || el.Credit.IsNegative() {
			return nil, fmt.Errorf("%w: line %d has a negative amount", ErrInvalidPayload, i+1)
		}
		if el.Debit.IsPositive() == el.Credit.IsPositive() {
			return nil, fmt.Errorf("%w: line %d must have exactly one of debit or credit", ErrInvalidPayload, i+1)
		}
		desc := el.Description
		if desc == "" {
			desc = p.Description
		}
		lines[i] = domain.JournalLine{
			AccountCode: el.AccountCode,
			Description: desc,
			Debit:       el.Debit,
			Credit:      el.Credit,
			Currency:    currency,
		}
	}

	numberLines(lines)
	return lines, nil
}

// warnOnTaxDrift flags invoices whose tax does not match the configured GST
// rate applied to the subtotal. The invoice still posts as sent.
func (s *postingService) warnOnTaxDrift(logger *slog.Logger, payload domain.EventPayload) {
	var inv domain.InvoiceIssuedPayload
	switch p := payload.(type) {
	case domain.InvoiceIssuedPayload:
		inv = p
	case *domain.InvoiceIssuedPayload:
		inv = *p
	default:
		return
	}
	if !s.gstRate.IsPositive() || !inv.Subtotal.IsPositive() {
		return
	}
	expected := inv.Subtotal.Mul(s.gstRate).Round(2)
	if inv.Tax.Sub(expected).Abs().GreaterThan(domain.BalanceTolerance) {
		logger.Warn("Invoice tax deviates from configured GST rate",
			slog.String("subtotal", inv.Subtotal.String()),
			slog.String("tax", inv.Tax.String()),
			slog.String("expected_tax", expected.String()))
	}
}

func numberLines(lines []domain.JournalLine) {
	for i := range lines {
		lines[i].LineNumber = i + 1
	}
}

// validateAccounts checks that every referenced account code exists.
func (s *postingService) validateAccounts(ctx context.Context, lines []domain.JournalLine) error {
	codes := make([]string, 0, len(lines))
	seen := make(map[string]struct{}, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.AccountCode]; ok {
			continue
		}
		seen[l.AccountCode] = struct{}{}
		codes = append(codes, l.AccountCode)
	}

	accounts, err := s.ledgerRepo.FindAccountsByCodes(ctx, codes)
	if err != nil {
		return fmt.Errorf("failed to fetch accounts: %w", err)
	}
	for _, code := range codes {
		if _, ok := accounts[code]; !ok {
			return fmt.Errorf("%w: %s", ErrAccountMissing, code)
		}
	}
	return nil
}
