package domain_test

import (
	"testing"

	"github.com/prairielimo/lms_backend/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(account string, debit, credit string) domain.JournalLine {
	return domain.JournalLine{
		AccountCode: account,
		Debit:       decimal.RequireFromString(debit),
		Credit:      decimal.RequireFromString(credit),
		Currency:    "CAD",
	}
}

func TestBalanced(t *testing.T) {
	t.Run("equal sums balance", func(t *testing.T) {
		lines := []domain.JournalLine{
			line("1100", "480.00", "0"),
			line("4000", "0", "400.00"),
			line("2300", "0", "20.00"),
			line("2400", "0", "60.00"),
		}
		assert.True(t, domain.Balanced(lines))
	})

	t.Run("residue inside tolerance balances", func(t *testing.T) {
		lines := []domain.JournalLine{
			line("1100", "100.00", "0"),
			line("4000", "0", "99.995"),
		}
		assert.True(t, domain.Balanced(lines))
	})

	t.Run("residue beyond tolerance fails", func(t *testing.T) {
		lines := []domain.JournalLine{
			line("1100", "100.00", "0"),
			line("4000", "0", "99.98"),
		}
		assert.False(t, domain.Balanced(lines))
	})
}

func TestMirrorLines(t *testing.T) {
	original := []domain.JournalLine{
		line("1100", "480.00", "0"),
		line("4000", "0", "480.00"),
	}
	original[0].LineNumber = 1
	original[1].LineNumber = 2

	mirrored := domain.MirrorLines(original)

	require.Len(t, mirrored, 2)
	assert.True(t, mirrored[0].Credit.Equal(decimal.RequireFromString("480.00")))
	assert.True(t, mirrored[0].Debit.IsZero())
	assert.True(t, mirrored[1].Debit.Equal(decimal.RequireFromString("480.00")))
	assert.True(t, mirrored[1].Credit.IsZero())
	assert.Equal(t, 1, mirrored[0].LineNumber, "line order is preserved")
	assert.True(t, domain.Balanced(mirrored), "a mirror of a balanced batch balances")

	assert.True(t, original[0].Debit.Equal(decimal.RequireFromString("480.00")), "the source lines are untouched")
}

func TestTotals(t *testing.T) {
	lines := []domain.JournalLine{
		line("1100", "480.00", "0"),
		line("4000", "0", "400.00"),
		line("2300", "0", "80.00"),
	}

	assert.True(t, domain.TotalDebit(lines).Equal(decimal.RequireFromString("480.00")))
	assert.True(t, domain.TotalCredit(lines).Equal(decimal.RequireFromString("480.00")))
}

func TestHandledPercent(t *testing.T) {
	assert.InDelta(t, 95.0, domain.HandledPercent(200, 150, 30, 10), 0.001)
	assert.Equal(t, 100.0, domain.HandledPercent(0, 0, 0, 0), "an empty book is fully handled")
}
