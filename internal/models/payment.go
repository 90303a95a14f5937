package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment maps a payments row.
type Payment struct {
	PaymentID     int64           `json:"paymentID"`
	PaymentDate   time.Time       `json:"paymentDate"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"paymentMethod"`
	AccountNumber *string         `json:"accountNumber"`
	ClientID      *int64          `json:"clientID"`
	ReserveNumber *string         `json:"reserveNumber"`
	CharterID     *int64          `json:"charterID"`
	Notes         string          `json:"notes"`
	PaymentKey    *string         `json:"paymentKey"`
}

// Charter maps a charters row.
type Charter struct {
	CharterID     int64           `json:"charterID"`
	CharterDate   time.Time       `json:"charterDate"`
	ReserveNumber string          `json:"reserveNumber"`
	ClientID      *int64          `json:"clientID"`
	AccountNumber *string         `json:"accountNumber"`
	Rate          decimal.Decimal `json:"rate"`
	Balance       decimal.Decimal `json:"balance"`
}
