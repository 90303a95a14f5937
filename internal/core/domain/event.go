package domain

import "github.com/shopspring/decimal"

// EventCode identifies the category of business event being posted.
type EventCode string

const (
	EventInvoiceIssued EventCode = "INVOICE_ISSUED"
	EventGeneric       EventCode = "GENERIC"
)

// KnownEventCode reports whether the posting engine understands code.
func KnownEventCode(code EventCode) bool {
	switch code {
	case EventInvoiceIssued, EventGeneric:
		return true
	}
	return false
}

// EventPayload is the tagged union of per-event-code payloads. Expansion into
// journal lines is exhaustive over the concrete types; an unhandled payload is
// a programming error surfaced as an unknown-event failure, never a silent
// partial posting.
type EventPayload interface {
	Code() EventCode
}

// InvoiceIssuedPayload describes a charter invoice. It expands to a debit of
// accounts receivable for the gross total and credits of revenue, tax payable
// and gratuity payable for the components.
type InvoiceIssuedPayload struct {
	CharterID     *int64          `json:"charterID,omitempty"`
	ReserveNumber string          `json:"reserveNumber,omitempty"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Tax           decimal.Decimal `json:"tax"`
	Gratuity      decimal.Decimal `json:"gratuity"`
	Currency      string          `json:"currency,omitempty"`
}

func (InvoiceIssuedPayload) Code() EventCode { return EventInvoiceIssued }

// Gross is the total the client owes: subtotal + tax + gratuity.
func (p InvoiceIssuedPayload) Gross() decimal.Decimal {
	return p.Subtotal.Add(p.Tax).Add(p.Gratuity)
}

// EventLine is one caller-specified debit or credit in a generic posting.
type EventLine struct {
	AccountCode string          `json:"accountCode"`
	Description string          `json:"description,omitempty"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

// GenericPayload posts caller-specified lines verbatim. The lines must still
// balance; the engine validates but never rewrites them.
type GenericPayload struct {
	Description string          `json:"description,omitempty"`
	Currency    string          `json:"currency,omitempty"`
	Lines       []EventLine     `json:"lines"`
}

func (GenericPayload) Code() EventCode { return EventGeneric }
