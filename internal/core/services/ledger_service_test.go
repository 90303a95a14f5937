package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/prairielimo/lms_backend/internal/apperrors"
	"github.com/prairielimo/lms_backend/internal/core/domain"
	"github.com/prairielimo/lms_backend/internal/core/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type LedgerServiceTestSuite struct {
	suite.Suite
	mockRepo *MockLedgerRepository
	service  ledgerSvc
}

type ledgerSvc interface {
	GetBatch(ctx context.Context, batchID int64) (*domain.JournalBatch, bool, error)
	TrialBalance(ctx context.Context, asOf time.Time) (*domain.TrialBalanceReport, error)
}

func (suite *LedgerServiceTestSuite) SetupTest() {
	suite.mockRepo = new(MockLedgerRepository)
	suite.service = services.NewLedgerService(suite.mockRepo)
}

func (suite *LedgerServiceTestSuite) TestGetBatch_Balanced() {
	ctx := context.Background()
	batch := &domain.JournalBatch{BatchID: 3}
	lines := []domain.JournalLine{
		{LineNumber: 1, AccountCode: "1100", Debit: decimal.NewFromInt(50), Credit: decimal.Zero},
		{LineNumber: 2, AccountCode: "4000", Debit: decimal.Zero, Credit: decimal.NewFromInt(50)},
	}

	suite.mockRepo.On("FindBatchByID", ctx, int64(3)).Return(batch, nil).Once()
	suite.mockRepo.On("FindLinesByBatchID", ctx, int64(3)).Return(lines, nil).Once()

	got, balanced, err := suite.service.GetBatch(ctx, 3)

	suite.Require().NoError(err)
	suite.True(balanced)
	suite.Len(got.Lines, 2)
}

func (suite *LedgerServiceTestSuite) TestGetBatch_CorruptionVisible() {
	ctx := context.Background()
	batch := &domain.JournalBatch{BatchID: 3}
	lines := []domain.JournalLine{
		{LineNumber: 1, AccountCode: "1100", Debit: decimal.NewFromInt(50), Credit: decimal.Zero},
		{LineNumber: 2, AccountCode: "4000", Debit: decimal.Zero, Credit: decimal.NewFromInt(40)},
	}

	suite.mockRepo.On("FindBatchByID", ctx, int64(3)).Return(batch, nil).Once()
	suite.mockRepo.On("FindLinesByBatchID", ctx, int64(3)).Return(lines, nil).Once()

	_, balanced, err := suite.service.GetBatch(ctx, 3)

	suite.Require().NoError(err)
	suite.False(balanced, "stored imbalance must be reported, not hidden")
}

func (suite *LedgerServiceTestSuite) TestGetBatch_NotFound() {
	ctx := context.Background()
	suite.mockRepo.On("FindBatchByID", ctx, int64(404)).Return(nil, apperrors.ErrNotFound).Once()

	got, _, err := suite.service.GetBatch(ctx, 404)

	suite.Nil(got)
	suite.ErrorIs(err, services.ErrBatchNotFound)
}

func (suite *LedgerServiceTestSuite) TestTrialBalance_TotalsSummed() {
	ctx := context.Background()
	asOf := time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC)
	rows := []domain.TrialBalanceRow{
		{AccountCode: "1100", Debit: decimal.NewFromInt(480), Credit: decimal.Zero},
		{AccountCode: "2300", Debit: decimal.Zero, Credit: decimal.NewFromInt(20)},
		{AccountCode: "4000", Debit: decimal.Zero, Credit: decimal.NewFromInt(460)},
	}

	suite.mockRepo.On("GetTrialBalance", ctx, asOf).Return(rows, nil).Once()

	report, err := suite.service.TrialBalance(ctx, asOf)

	suite.Require().NoError(err)
	suite.True(report.TotalDebit.Equal(decimal.NewFromInt(480)))
	suite.True(report.TotalCredit.Equal(decimal.NewFromInt(480)))
}

func TestLedgerServiceTestSuite(t *testing.T) {
	suite.Run(t, new(LedgerServiceTestSuite))
}
