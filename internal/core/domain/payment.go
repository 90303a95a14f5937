package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment method markers written by the reconciliation driver. PaymentMethod
// is otherwise free text from the bank feed ("cash", "bank_transfer", ...).
const (
	MethodCash       = "cash"
	MethodAdjustment = "adjustment"
)

// Payment is an incoming money record from a bank feed or receipt import.
// The reconciliation driver only ever mutates CharterID, PaymentMethod and
// Notes; payments are never deleted by the matching engine.
type Payment struct {
	PaymentID     int64           `json:"paymentID"`
	PaymentDate   time.Time       `json:"paymentDate"`
	Amount        decimal.Decimal `json:"amount"` // Negative for refunds
	PaymentMethod string          `json:"paymentMethod"`
	AccountNumber *string         `json:"accountNumber,omitempty"`
	ClientID      *int64          `json:"clientID,omitempty"`
	ReserveNumber *string         `json:"reserveNumber,omitempty"`
	CharterID     *int64          `json:"charterID,omitempty"` // Set once matched
	Notes         string          `json:"notes"`               // Audit annotations are appended, never overwritten
	PaymentKey    *string         `json:"paymentKey,omitempty"`
}

// IsMatched reports whether the payment has been linked to a charter.
func (p *Payment) IsMatched() bool {
	return p.CharterID != nil
}

// IsRefund reports whether the payment is an outgoing adjustment.
func (p *Payment) IsRefund() bool {
	return p.Amount.IsNegative()
}
