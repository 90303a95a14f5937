package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// JournalBatch maps a journal_batches row.
type JournalBatch struct {
	BatchID       int64           `json:"batchID"`
	EventCode     string          `json:"eventCode"`
	EventID       *string         `json:"eventID"`
	EventHash     string          `json:"eventHash"`
	ReversalOf    *int64          `json:"reversalOf"`
	ReversedBy    *int64          `json:"reversedBy"`
	Reason        *string         `json:"reason"`
	SourcePayload json.RawMessage `json:"sourcePayload"`
	CreatedAt     time.Time       `json:"createdAt"`
	CreatedBy     string          `json:"createdBy"`
}

// JournalLine maps a journal_lines row.
type JournalLine struct {
	BatchID     int64           `json:"batchID"`
	LineNumber  int             `json:"lineNumber"`
	AccountCode string          `json:"accountCode"`
	Description string          `json:"description"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Currency    string          `json:"currency"`
}
