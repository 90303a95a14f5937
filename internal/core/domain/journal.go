package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// BalanceTolerance is the rounding slack allowed when checking that a batch
// balances. Amounts are stored with two decimal places.
var BalanceTolerance = decimal.New(1, -2) // 0.01

// JournalBatch is one atomic, immutable posting unit. A batch is created once
// by the posting engine and never edited; a correction is expressed as a later
// reversal batch linked through ReversalOf/ReversedBy.
type JournalBatch struct {
	BatchID       int64           `json:"batchID"`
	EventCode     EventCode       `json:"eventCode"`
	EventID       *string         `json:"eventID,omitempty"`    // Caller-supplied idempotency token
	EventHash     string          `json:"eventHash"`            // Deterministic fingerprint, unique
	ReversalOf    *int64          `json:"reversalOf,omitempty"` // Set on reversal batches
	ReversedBy    *int64          `json:"reversedBy,omitempty"` // Set on the original once reversed
	Reason        *string         `json:"reason,omitempty"`     // Human-readable reversal reason
	SourcePayload json.RawMessage `json:"sourcePayload"`        // Raw event payload kept for audit
	CreatedAt     time.Time       `json:"createdAt"`
	CreatedBy     string          `json:"createdBy"`
	Lines         []JournalLine   `json:"lines,omitempty"`
}

// IsReversed reports whether a later batch has offset this one.
func (b *JournalBatch) IsReversed() bool {
	return b.ReversedBy != nil
}

// IsReversal reports whether this batch offsets an earlier one.
func (b *JournalBatch) IsReversal() bool {
	return b.ReversalOf != nil
}

// JournalLine is one debit or credit entry within a batch. At most one of
// Debit/Credit is nonzero per line.
type JournalLine struct {
	BatchID     int64           `json:"batchID"`
	LineNumber  int             `json:"lineNumber"` // 1-based order within the batch
	AccountCode string          `json:"accountCode"`
	Description string          `json:"description"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Currency    string          `json:"currency"`
}

// TotalDebit sums the debit side of a set of lines.
func TotalDebit(lines []JournalLine) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Debit)
	}
	return sum
}

// TotalCredit sums the credit side of a set of lines.
func TotalCredit(lines []JournalLine) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Credit)
	}
	return sum
}

// Balanced reports whether debits equal credits within BalanceTolerance.
func Balanced(lines []JournalLine) bool {
	diff := TotalDebit(lines).Sub(TotalCredit(lines)).Abs()
	return diff.LessThanOrEqual(BalanceTolerance)
}

// MirrorLines produces the equal-and-opposite line set used for a reversal:
// every debit becomes a credit of the same amount and vice versa, preserving
// line order. Mirroring a balanced set is balanced by construction.
func MirrorLines(lines []JournalLine) []JournalLine {
	mirrored := make([]JournalLine, len(lines))
	for i, l := range lines {
		mirrored[i] = JournalLine{
			LineNumber:  l.LineNumber,
			AccountCode: l.AccountCode,
			Description: l.Description,
			Debit:       l.Credit,
			Credit:      l.Debit,
			Currency:    l.Currency,
		}
	}
	return mirrored
}
