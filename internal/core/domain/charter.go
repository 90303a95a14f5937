package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Charter is a booked charter run. Charters are read-only from the matching
// engine's perspective.
type Charter struct {
	CharterID     int64           `json:"charterID"`
	CharterDate   time.Time       `json:"charterDate"`
	ReserveNumber string          `json:"reserveNumber"` // Business key, highest-priority match signal
	ClientID      *int64          `json:"clientID,omitempty"`
	AccountNumber *string         `json:"accountNumber,omitempty"`
	Rate          decimal.Decimal `json:"rate"`    // Contracted price
	Balance       decimal.Decimal `json:"balance"` // Amount still owed
}
