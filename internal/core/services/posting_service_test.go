package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/prairielimo/lms_backend/internal/apperrors"
	"github.com/prairielimo/lms_backend/internal/core/domain"
	"github.com/prairielimo/lms_backend/internal/core/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// MockLedgerRepository is a mock type for the LedgerRepositoryFacade interface
type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) FindAccountByCode(ctx context.Context, accountCode string) (*domain.Account, error) {
	args := m.Called(ctx, accountCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockLedgerRepository) FindAccountsByCodes(ctx context.Context, accountCodes []string) (map[string]domain.Account, error) {
	args := m.Called(ctx, accountCodes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Account), args.Error(1)
}

func (m *MockLedgerRepository) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockLedgerRepository) FindBatchByID(ctx context.Context, batchID int64) (*domain.JournalBatch, error) {
	args := m.Called(ctx, batchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalBatch), args.Error(1)
}

func (m *MockLedgerRepository) FindBatchByEventHash(ctx context.Context, eventHash string) (*domain.JournalBatch, error) {
	args := m.Called(ctx, eventHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalBatch), args.Error(1)
}

func (m *MockLedgerRepository) FindLinesByBatchID(ctx context.Context, batchID int64) ([]domain.JournalLine, error) {
	args := m.Called(ctx, batchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.JournalLine), args.Error(1)
}

func (m *MockLedgerRepository) GetTrialBalance(ctx context.Context, asOf time.Time) ([]domain.TrialBalanceRow, error) {
	args := m.Called(ctx, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TrialBalanceRow), args.Error(1)
}

func (m *MockLedgerRepository) SaveBatch(ctx context.Context, batch domain.JournalBatch, lines []domain.JournalLine) (int64, bool, error) {
	args := m.Called(ctx, batch, lines)
	return args.Get(0).(int64), args.Bool(1), args.Error(2)
}

func (m *MockLedgerRepository) SaveReversal(ctx context.Context, originalBatchID int64, reversal domain.JournalBatch, lines []domain.JournalLine) (int64, error) {
	args := m.Called(ctx, originalBatchID, reversal, lines)
	return args.Get(0).(int64), args.Error(1)
}

// bogusPayload exercises the unknown event code path.
type bogusPayload struct{}

func (bogusPayload) Code() domain.EventCode { return domain.EventCode("BOGUS") }

// --- Test Suite Setup ---

type PostingServiceTestSuite struct {
	suite.Suite
	mockRepo *MockLedgerRepository
	service  portsPostingSvc
}

type portsPostingSvc interface {
	PostEvent(ctx context.Context, payload domain.EventPayload, eventID *string, userID string) (*domain.JournalBatch, error)
	ReverseBatch(ctx context.Context, batchID int64, reason, userID string) (*domain.JournalBatch, error)
}

func (suite *PostingServiceTestSuite) SetupTest() {
	suite.mockRepo = new(MockLedgerRepository)
	suite.service = services.NewPostingService(suite.mockRepo, "CAD", decimal.RequireFromString("0.05"))
}

func invoiceAccounts() map[string]domain.Account {
	return map[string]domain.Account{
		services.AccountReceivable:      {AccountCode: services.AccountReceivable, AccountName: "Accounts receivable", AccountType: domain.Asset, NormalBalance: domain.DebitSide},
		services.AccountRevenue:         {AccountCode: services.AccountRevenue, AccountName: "Charter revenue", AccountType: domain.Income, NormalBalance: domain.CreditSide},
		services.AccountGSTPayable:      {AccountCode: services.AccountGSTPayable, AccountName: "GST payable", AccountType: domain.Liability, NormalBalance: domain.CreditSide},
		services.AccountGratuityPayable: {AccountCode: services.AccountGratuityPayable, AccountName: "Gratuity payable", AccountType: domain.Liability, NormalBalance: domain.CreditSide},
	}
}

// --- Test Cases ---

func (suite *PostingServiceTestSuite) TestPostEvent_InvoiceSuccess() {
	ctx := context.Background()
	payload := domain.InvoiceIssuedPayload{
		ReserveNumber: "123456",
		Subtotal:      decimal.NewFromInt(400),
		Tax:           decimal.NewFromInt(20),
		Gratuity:      decimal.NewFromInt(60),
	}

	suite.mockRepo.On("FindAccountsByCodes", ctx, mock.Anything).Return(invoiceAccounts(), nil).Once()
	suite.mockRepo.On("SaveBatch", ctx, mock.Anything, mock.MatchedBy(func(lines []domain.JournalLine) bool {
		return len(lines) == 4 && domain.Balanced(lines)
	})).Return(int64(42), true, nil).Once()

	batch, err := suite.service.PostEvent(ctx, payload, nil, "dispatch")

	suite.Require().NoError(err)
	suite.Equal(int64(42), batch.BatchID)
	suite.Equal(domain.EventInvoiceIssued, batch.EventCode)
	suite.NotEmpty(batch.EventHash)
	suite.Require().Len(batch.Lines, 4)
	suite.True(batch.Lines[0].Debit.Equal(decimal.NewFromInt(480)), "AR debit should be the gross total")
	suite.Equal(services.AccountReceivable, batch.Lines[0].AccountCode)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *PostingServiceTestSuite) TestPostEvent_ZeroComponentsOmitted() {
	ctx := context.Background()
	payload := domain.InvoiceIssuedPayload{
		Subtotal: decimal.NewFromInt(100),
	}

	suite.mockRepo.On("FindAccountsByCodes", ctx, mock.Anything).Return(invoiceAccounts(), nil).Once()
	suite.mockRepo.On("SaveBatch", ctx, mock.Anything, mock.MatchedBy(func(lines []domain.JournalLine) bool {
		return len(lines) == 2
	})).Return(int64(1), true, nil).Once()

	batch, err := suite.service.PostEvent(ctx, payload, nil, "dispatch")

	suite.Require().NoError(err)
	suite.Len(batch.Lines, 2, "zero tax and gratuity should not produce lines")
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *PostingServiceTestSuite) TestPostEvent_IdempotentRepost() {
	ctx := context.Background()
	payload := domain.InvoiceIssuedPayload{Subtotal: decimal.NewFromInt(250)}
	existing := &domain.JournalBatch{BatchID: 7, EventCode: domain.EventInvoiceIssued}
	existingLines := []domain.JournalLine{
		{BatchID: 7, LineNumber: 1, AccountCode: services.AccountReceivable, Debit: decimal.NewFromInt(250)},
		{BatchID: 7, LineNumber: 2, AccountCode: services.AccountRevenue, Credit: decimal.NewFromInt(250)},
	}

	suite.mockRepo.On("FindAccountsByCodes", ctx, mock.Anything).Return(invoiceAccounts(), nil).Once()
	suite.mockRepo.On("SaveBatch", ctx, mock.Anything, mock.Anything).Return(int64(7), false, nil).Once()
	suite.mockRepo.On("FindBatchByID", ctx, int64(7)).Return(existing, nil).Once()
	suite.mockRepo.On("FindLinesByBatchID", ctx, int64(7)).Return(existingLines, nil).Once()

	batch, err := suite.service.PostEvent(ctx, payload, nil, "dispatch")

	suite.Require().NoError(err)
	suite.Equal(int64(7), batch.BatchID)
	suite.Require().Len(batch.Lines, 2, "a repost must carry the stored lines, same as the first response")
	suite.Equal(services.AccountReceivable, batch.Lines[0].AccountCode)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *PostingServiceTestSuite) TestPostEvent_UnknownEventCode() {
	batch, err := suite.service.PostEvent(context.Background(), bogusPayload{}, nil, "dispatch")

	suite.Nil(batch)
	suite.ErrorIs(err, services.ErrUnknownEventCode)
	suite.mockRepo.AssertNotCalled(suite.T(), "SaveBatch", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *PostingServiceTestSuite) TestPostEvent_UnbalancedGenericRejected() {
	ctx := context.Background()
	payload := domain.GenericPayload{
		Description: "manual adjustment",
		Lines: []domain.EventLine{
			{AccountCode: "1000", Debit: decimal.NewFromInt(100)},
			{AccountCode: "4000", Credit: decimal.NewFromInt(50)},
		},
	}
	accounts := map[string]domain.Account{
		"1000": {AccountCode: "1000"},
		"4000": {AccountCode: "4000"},
	}

	suite.mockRepo.On("FindAccountsByCodes", ctx, mock.Anything).Return(accounts, nil).Once()

	batch, err := suite.service.PostEvent(ctx, payload, nil, "dispatch")

	suite.Nil(batch)
	suite.ErrorIs(err, services.ErrBatchUnbalanced)
	suite.mockRepo.AssertNotCalled(suite.T(), "SaveBatch", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *PostingServiceTestSuite) TestPostEvent_WithinToleranceAccepted() {
	ctx := context.Background()
	payload := domain.GenericPayload{
		Lines: []domain.EventLine{
			{AccountCode: "1000", Debit: decimal.RequireFromString("100.00")},
			{AccountCode: "4000", Credit: decimal.RequireFromString("99.995")},
		},
	}
	accounts := map[string]domain.Account{
		"1000": {AccountCode: "1000"},
		"4000": {AccountCode: "4000"},
	}

	suite.mockRepo.On("FindAccountsByCodes", ctx, mock.Anything).Return(accounts, nil).Once()
	suite.mockRepo.On("SaveBatch", ctx, mock.Anything, mock.Anything).Return(int64(3), true, nil).Once()

	_, err := suite.service.PostEvent(ctx, payload, nil, "dispatch")

	suite.NoError(err, "a half cent rounding residue is within tolerance")
}

func (suite *PostingServiceTestSuite) TestPostEvent_MissingAccountRejected() {
	ctx := context.Background()
	payload := domain.GenericPayload{
		Lines: []domain.EventLine{
			{AccountCode: "9999", Debit: decimal.NewFromInt(10)},
			{AccountCode: "4000", Credit: decimal.NewFromInt(10)},
		},
	}

	suite.mockRepo.On("FindAccountsByCodes", ctx, mock.Anything).
		Return(map[string]domain.Account{"4000": {AccountCode: "4000"}}, nil).Once()

	batch, err := suite.service.PostEvent(ctx, payload, nil, "dispatch")

	suite.Nil(batch)
	suite.ErrorIs(err, services.ErrAccountMissing)
}

func (suite *PostingServiceTestSuite) TestReverseBatch_Success() {
	ctx := context.Background()
	original := &domain.JournalBatch{BatchID: 5, EventCode: domain.EventInvoiceIssued}
	lines := []domain.JournalLine{
		{BatchID: 5, LineNumber: 1, AccountCode: "1100", Debit: decimal.NewFromInt(480), Credit: decimal.Zero, Currency: "CAD"},
		{BatchID: 5, LineNumber: 2, AccountCode: "4000", Debit: decimal.Zero, Credit: decimal.NewFromInt(480), Currency: "CAD"},
	}

	suite.mockRepo.On("FindBatchByID", ctx, int64(5)).Return(original, nil).Once()
	suite.mockRepo.On("FindLinesByBatchID", ctx, int64(5)).Return(lines, nil).Once()
	suite.mockRepo.On("SaveReversal", ctx, int64(5), mock.Anything, mock.MatchedBy(func(mirrored []domain.JournalLine) bool {
		return len(mirrored) == 2 &&
			mirrored[0].Credit.Equal(decimal.NewFromInt(480)) && mirrored[0].Debit.IsZero() &&
			mirrored[1].Debit.Equal(decimal.NewFromInt(480)) && mirrored[1].Credit.IsZero()
	})).Return(int64(12), nil).Once()

	reversal, err := suite.service.ReverseBatch(ctx, 5, "billing error", "dispatch")

	suite.Require().NoError(err)
	suite.Equal(int64(12), reversal.BatchID)
	suite.Require().NotNil(reversal.ReversalOf)
	suite.Equal(int64(5), *reversal.ReversalOf)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *PostingServiceTestSuite) TestReverseBatch_NotFound() {
	ctx := context.Background()
	suite.mockRepo.On("FindBatchByID", ctx, int64(404)).Return(nil, apperrors.ErrNotFound).Once()

	reversal, err := suite.service.ReverseBatch(ctx, 404, "oops", "dispatch")

	suite.Nil(reversal)
	suite.ErrorIs(err, services.ErrBatchNotFound)
}

func (suite *PostingServiceTestSuite) TestReverseBatch_AlreadyReversed() {
	ctx := context.Background()
	reversedBy := int64(9)
	original := &domain.JournalBatch{BatchID: 5, ReversedBy: &reversedBy}

	suite.mockRepo.On("FindBatchByID", ctx, int64(5)).Return(original, nil).Once()

	reversal, err := suite.service.ReverseBatch(ctx, 5, "again", "dispatch")

	suite.Nil(reversal)
	suite.ErrorIs(err, services.ErrAlreadyReversed)
	suite.mockRepo.AssertNotCalled(suite.T(), "SaveReversal", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *PostingServiceTestSuite) TestReverseBatch_ConcurrentLoser() {
	ctx := context.Background()
	original := &domain.JournalBatch{BatchID: 5}
	lines := []domain.JournalLine{
		{LineNumber: 1, AccountCode: "1100", Debit: decimal.NewFromInt(10), Credit: decimal.Zero},
		{LineNumber: 2, AccountCode: "4000", Debit: decimal.Zero, Credit: decimal.NewFromInt(10)},
	}

	suite.mockRepo.On("FindBatchByID", ctx, int64(5)).Return(original, nil).Once()
	suite.mockRepo.On("FindLinesByBatchID", ctx, int64(5)).Return(lines, nil).Once()
	suite.mockRepo.On("SaveReversal", ctx, int64(5), mock.Anything, mock.Anything).Return(int64(0), apperrors.ErrDuplicate).Once()

	reversal, err := suite.service.ReverseBatch(ctx, 5, "race", "dispatch")

	suite.Nil(reversal)
	suite.ErrorIs(err, services.ErrAlreadyReversed)
}

func (suite *PostingServiceTestSuite) TestReverseBatch_ReasonRequired() {
	reversal, err := suite.service.ReverseBatch(context.Background(), 5, "", "dispatch")

	suite.Nil(reversal)
	suite.ErrorIs(err, services.ErrInvalidPayload)
	suite.mockRepo.AssertNotCalled(suite.T(), "FindBatchByID", mock.Anything, mock.Anything)
}

func TestPostingServiceTestSuite(t *testing.T) {
	suite.Run(t, new(PostingServiceTestSuite))
}

func TestPostEvent_HashStableAcrossFieldOrder(t *testing.T) {
	// Two logically identical payloads must produce the same batch via the
	// idempotency hash regardless of construction order. Exercised end to end
	// through the service to pin the canonicalization behavior.
	ctx := context.Background()
	mockRepo := new(MockLedgerRepository)
	svc := services.NewPostingService(mockRepo, "CAD", decimal.RequireFromString("0.05"))

	payload := domain.InvoiceIssuedPayload{Subtotal: decimal.NewFromInt(100), Tax: decimal.NewFromInt(5)}

	var firstHash, secondHash string
	mockRepo.On("FindAccountsByCodes", ctx, mock.Anything).Return(invoiceAccounts(), nil).Twice()
	mockRepo.On("SaveBatch", ctx, mock.MatchedBy(func(b domain.JournalBatch) bool {
		if firstHash == "" {
			firstHash = b.EventHash
		} else {
			secondHash = b.EventHash
		}
		return true
	}), mock.Anything).Return(int64(1), true, nil).Twice()
	mockRepo.On("FindBatchByID", ctx, int64(1)).Return(&domain.JournalBatch{BatchID: 1}, nil).Maybe()

	_, err := svc.PostEvent(ctx, payload, nil, "dispatch")
	assert.NoError(t, err)
	_, err = svc.PostEvent(ctx, payload, nil, "dispatch")
	assert.NoError(t, err)

	assert.Equal(t, firstHash, secondHash)
}
