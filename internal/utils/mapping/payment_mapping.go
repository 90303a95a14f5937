package mapping

import (
	"github.com/prairielimo/lms_backend/internal/core/domain"
	"github.com/prairielimo/lms_backend/internal/models"
)

// ToDomainPayment converts a model Payment to a domain Payment.
func ToDomainPayment(m models.Payment) domain.Payment {
	return domain.Payment{
		PaymentID:     m.PaymentID,
		PaymentDate:   m.PaymentDate,
		Amount:        m.Amount,
		PaymentMethod: m.PaymentMethod,
		AccountNumber: m.AccountNumber,
		ClientID:      m.ClientID,
		ReserveNumber: m.ReserveNumber,
		CharterID:     m.CharterID,
		Notes:         m.Notes,
		PaymentKey:    m.PaymentKey,
	}
}

// ToDomainPaymentSlice converts model payments to domain payments.
func ToDomainPaymentSlice(ms []models.Payment) []domain.Payment {
	ds := make([]domain.Payment, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainPayment(m)
	}
	return ds
}

// ToDomainCharter converts a model Charter to a domain Charter.
func ToDomainCharter(m models.Charter) domain.Charter {
	return domain.Charter{
		CharterID:     m.CharterID,
		CharterDate:   m.CharterDate,
		ReserveNumber: m.ReserveNumber,
		ClientID:      m.ClientID,
		AccountNumber: m.AccountNumber,
		Rate:          m.Rate,
		Balance:       m.Balance,
	}
}

// ToDomainCharterSlice converts model charters to domain charters.
func ToDomainCharterSlice(ms []models.Charter) []domain.Charter {
	ds := make([]domain.Charter, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainCharter(m)
	}
	return ds
}
