package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/prairielimo/lms_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// PaymentStateCounts summarizes where every payment sits in the
// reconciliation state machine.
type PaymentStateCounts struct {
	Total   int
	Matched int
	Cash    int
	Refund  int
}

// PaymentReader defines read operations over imported payments.
type PaymentReader interface {
	// FindPaymentByID retrieves a single payment.
	FindPaymentByID(ctx context.Context, paymentID int64) (*domain.Payment, error)

	// ListUnmatched returns payments with no charter link and no terminal
	// classification, ordered by payment id for deterministic passes.
	ListUnmatched(ctx context.Context, limit int) ([]domain.Payment, error)

	// ListUnmatchedTx is ListUnmatched inside an open pass transaction.
	ListUnmatchedTx(ctx context.Context, tx pgx.Tx, limit int) ([]domain.Payment, error)

	// CountStates tallies total/matched/cash/refund across all payments.
	CountStates(ctx context.Context) (PaymentStateCounts, error)
}

// PaymentMatcher defines the write operations the reconciliation driver is
// allowed: setting charter_id and payment_method and appending notes. Nothing
// here ever unmatches a payment or overwrites an existing link.
type PaymentMatcher interface {
	// MatchExactReserve links every unmatched payment whose reserve number
	// equals a charter's reserve number, in one set-based statement. Returns
	// the number of payments linked.
	MatchExactReserve(ctx context.Context, tx pgx.Tx, annotation string) (int64, error)

	// AssignCharter links one payment to a charter, guarded by
	// charter_id IS NULL so an existing link is never silently overwritten.
	// Returns false when the guard rejected the update.
	AssignCharter(ctx context.Context, tx pgx.Tx, paymentID, charterID int64, annotation string) (bool, error)

	// ClassifyRefunds marks every negative, untagged payment with the
	// adjustment method and annotates it, in one set-based statement.
	// Idempotent: already-annotated payments are skipped.
	ClassifyRefunds(ctx context.Context, tx pgx.Tx, annotation string) (int64, error)

	// MarkCash classifies one payment as cash with an audit annotation.
	MarkCash(ctx context.Context, tx pgx.Tx, paymentID int64, annotation string) (bool, error)
}

// PaymentRepositoryFacade combines payment read and matcher interfaces.
type PaymentRepositoryFacade interface {
	PaymentReader
	PaymentMatcher
}

// PaymentRepositoryWithTx adds transaction control for pass-scoped work.
type PaymentRepositoryWithTx interface {
	PaymentRepositoryFacade
	TransactionManager
}

// CharterReader defines the read-only queries the candidate generator needs.
// The matching engine never mutates charters.
type CharterReader interface {
	// FindByReserveNumber retrieves a charter by its business key.
	FindByReserveNumber(ctx context.Context, reserveNumber string) (*domain.Charter, error)

	// FindOpenByAccountWindow returns charters not yet linked by any payment,
	// with the given account number (prefix match when prefixLen > 0) and a
	// charter date within windowDays of around.
	FindOpenByAccountWindow(ctx context.Context, accountNumber string, prefixLen int, around time.Time, windowDays int) ([]domain.Charter, error)

	// FindOpenByAmountWindow returns unlinked charters whose rate is within
	// tolerance of amount and whose date falls inside the window.
	FindOpenByAmountWindow(ctx context.Context, amount, tolerance decimal.Decimal, around time.Time, windowDays int) ([]domain.Charter, error)

	// FindOpenByBalanceDue returns unlinked charters with a positive balance
	// equal to amount inside the window.
	FindOpenByBalanceDue(ctx context.Context, amount decimal.Decimal, around time.Time, windowDays int) ([]domain.Charter, error)

	// FindOpenByClientWindow returns unlinked charters for a client inside
	// the window, ordered by charter date.
	FindOpenByClientWindow(ctx context.Context, clientID int64, around time.Time, windowDays int) ([]domain.Charter, error)

	// CountMatchedByClient counts charters for the client already linked by a
	// payment; the regular-customer strategy requires prior history.
	CountMatchedByClient(ctx context.Context, clientID int64) (int, error)
}
