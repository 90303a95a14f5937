package mapping

import (
	"github.com/prairielimo/lms_backend/internal/core/domain"
	"github.com/prairielimo/lms_backend/internal/models"
)

// ToModelJournalBatch converts a domain JournalBatch to a model JournalBatch.
func ToModelJournalBatch(d domain.JournalBatch) models.JournalBatch {
	return models.JournalBatch{
		BatchID:       d.BatchID,
		EventCode:     string(d.EventCode),
		EventID:       d.EventID,
		EventHash:     d.EventHash,
		ReversalOf:    d.ReversalOf,
		ReversedBy:    d.ReversedBy,
		Reason:        d.Reason,
		SourcePayload: d.SourcePayload,
		CreatedAt:     d.CreatedAt,
		CreatedBy:     d.CreatedBy,
	}
}

// ToDomainJournalBatch converts a model JournalBatch to a domain JournalBatch.
func ToDomainJournalBatch(m models.JournalBatch) domain.JournalBatch {
	return domain.JournalBatch{
		BatchID:       m.BatchID,
		EventCode:     domain.EventCode(m.EventCode),
		EventID:       m.EventID,
		EventHash:     m.EventHash,
		ReversalOf:    m.ReversalOf,
		ReversedBy:    m.ReversedBy,
		Reason:        m.Reason,
		SourcePayload: m.SourcePayload,
		CreatedAt:     m.CreatedAt,
		CreatedBy:     m.CreatedBy,
	}
}

// ToModelJournalLine converts a domain JournalLine to a model JournalLine.
func ToModelJournalLine(d domain.JournalLine) models.JournalLine {
	return models.JournalLine{
		BatchID:     d.BatchID,
		LineNumber:  d.LineNumber,
		AccountCode: d.AccountCode,
		Description: d.Description,
		Debit:       d.Debit,
		Credit:      d.Credit,
		Currency:    d.Currency,
	}
}

// ToDomainJournalLine converts a model JournalLine to a domain JournalLine.
func ToDomainJournalLine(m models.JournalLine) domain.JournalLine {
	return domain.JournalLine{
		BatchID:     m.BatchID,
		LineNumber:  m.LineNumber,
		AccountCode: m.AccountCode,
		Description: m.Description,
		Debit:       m.Debit,
		Credit:      m.Credit,
		Currency:    m.Currency,
	}
}

// ToDomainJournalLineSlice converts model lines to domain lines.
func ToDomainJournalLineSlice(ms []models.JournalLine) []domain.JournalLine {
	ds := make([]domain.JournalLine, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainJournalLine(m)
	}
	return ds
}

// ToDomainAccount converts a model Account to a domain Account.
func ToDomainAccount(m models.Account) domain.Account {
	return domain.Account{
		AccountCode:   m.AccountCode,
		AccountName:   m.AccountName,
		AccountType:   domain.AccountType(m.AccountType),
		NormalBalance: domain.BalanceSide(m.NormalBalance),
	}
}
