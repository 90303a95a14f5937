package dto

import (
	"fmt"
	"time"

	"github.com/prairielimo/lms_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// PostEventRequest is the body for posting a business event. Exactly one of
// the payload members must be set, matching the event code.
type PostEventRequest struct {
	EventCode string                 `json:"eventCode" binding:"required,eventcode"`
	EventID   *string                `json:"eventID,omitempty"`
	Invoice   *InvoicePayloadRequest `json:"invoice,omitempty"`
	Generic   *GenericPayloadRequest `json:"generic,omitempty"`
}

// InvoicePayloadRequest carries the INVOICE_ISSUED components.
type InvoicePayloadRequest struct {
	CharterID     *int64          `json:"charterID,omitempty"`
	ReserveNumber string          `json:"reserveNumber,omitempty"`
	Subtotal      decimal.Decimal `json:"subtotal" binding:"required"`
	Tax           decimal.Decimal `json:"tax"`
	Gratuity      decimal.Decimal `json:"gratuity"`
	Currency      string          `json:"currency,omitempty"`
}

// GenericPayloadRequest carries caller-specified lines for a GENERIC event.
type GenericPayloadRequest struct {
	Description string             `json:"description"`
	Currency    string             `json:"currency,omitempty"`
	Lines       []EventLineRequest `json:"lines" binding:"required,min=2,dive"`
}

// EventLineRequest is one caller-specified journal line.
type EventLineRequest struct {
	AccountCode string          `json:"accountCode" binding:"required"`
	Description string          `json:"description"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

// ToDomainPayload converts the request body into the payload union. The
// payload member must agree with the event code.
func (r PostEventRequest) ToDomainPayload() (domain.EventPayload, error) {
	switch domain.EventCode(r.EventCode) {
	case domain.EventInvoiceIssued:
		if r.Invoice == nil {
			return nil, fmt.Errorf("event %s requires the invoice payload", r.EventCode)
		}
		return domain.InvoiceIssuedPayload{
			CharterID:     r.Invoice.CharterID,
			ReserveNumber: r.Invoice.ReserveNumber,
			Subtotal:      r.Invoice.Subtotal,
			Tax:           r.Invoice.Tax,
			Gratuity:      r.Invoice.Gratuity,
			Currency:      r.Invoice.Currency,
		}, nil
	case domain.EventGeneric:
		if r.Generic == nil {
			return nil, fmt.Errorf("event %s requires the generic payload", r.EventCode)
		}
		lines := make([]domain.EventLine, len(r.Generic.Lines))
		for i, l := range r.Generic.Lines {
			lines[i] = domain.EventLine{
				AccountCode: l.AccountCode,
				Description: l.Description,
				Debit:       l.Debit,
				Credit:      l.Credit,
			}
		}
		return domain.GenericPayload{
			Description: r.Generic.Description,
			Currency:    r.Generic.Currency,
			Lines:       lines,
		}, nil
	}
	return nil, fmt.Errorf("unrecognized event code %q", r.EventCode)
}

// ReverseBatchRequest is the body for reversing a batch.
type ReverseBatchRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// JournalLineResponse is one line of a batch in API responses.
type JournalLineResponse struct {
	LineNumber  int             `json:"lineNumber"`
	AccountCode string          `json:"accountCode"`
	Description string          `json:"description"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Currency    string          `json:"currency"`
}

// JournalBatchResponse is a batch with its lines.
type JournalBatchResponse struct {
	BatchID    int64                 `json:"batchID"`
	EventCode  string                `json:"eventCode"`
	EventID    *string               `json:"eventID,omitempty"`
	EventHash  string                `json:"eventHash"`
	ReversalOf *int64                `json:"reversalOf,omitempty"`
	ReversedBy *int64                `json:"reversedBy,omitempty"`
	Reason     *string               `json:"reason,omitempty"`
	CreatedAt  time.Time             `json:"createdAt"`
	CreatedBy  string                `json:"createdBy"`
	Balanced   bool                  `json:"balanced"`
	Lines      []JournalLineResponse `json:"lines"`
}

// ToJournalBatchResponse maps a domain batch into the API shape.
func ToJournalBatchResponse(b *domain.JournalBatch, balanced bool) JournalBatchResponse {
	lines := make([]JournalLineResponse, len(b.Lines))
	for i, l := range b.Lines {
		lines[i] = JournalLineResponse{
			LineNumber:  l.LineNumber,
			AccountCode: l.AccountCode,
			Description: l.Description,
			Debit:       l.Debit,
			Credit:      l.Credit,
			Currency:    l.Currency,
		}
	}
	return JournalBatchResponse{
		BatchID:    b.BatchID,
		EventCode:  string(b.EventCode),
		EventID:    b.EventID,
		EventHash:  b.EventHash,
		ReversalOf: b.ReversalOf,
		ReversedBy: b.ReversedBy,
		Reason:     b.Reason,
		CreatedAt:  b.CreatedAt,
		CreatedBy:  b.CreatedBy,
		Balanced:   balanced,
		Lines:      lines,
	}
}
