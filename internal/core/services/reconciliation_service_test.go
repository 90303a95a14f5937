package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/prairielimo/lms_backend/internal/core/domain"
	portsrepo "github.com/prairielimo/lms_backend/internal/core/ports/repositories"
	"github.com/prairielimo/lms_backend/internal/core/services"
	"github.com/prairielimo/lms_backend/internal/platform/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// MockPaymentRepository is a mock type for the PaymentRepositoryWithTx interface
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Tx), args.Error(1)
}

func (m *MockPaymentRepository) Commit(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockPaymentRepository) Rollback(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockPaymentRepository) FindPaymentByID(ctx context.Context, paymentID int64) (*domain.Payment, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) ListUnmatched(ctx context.Context, limit int) ([]domain.Payment, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) ListUnmatchedTx(ctx context.Context, tx pgx.Tx, limit int) ([]domain.Payment, error) {
	args := m.Called(ctx, tx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) CountStates(ctx context.Context) (portsrepo.PaymentStateCounts, error) {
	args := m.Called(ctx)
	return args.Get(0).(portsrepo.PaymentStateCounts), args.Error(1)
}

func (m *MockPaymentRepository) MatchExactReserve(ctx context.Context, tx pgx.Tx, annotation string) (int64, error) {
	args := m.Called(ctx, tx, annotation)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPaymentRepository) AssignCharter(ctx context.Context, tx pgx.Tx, paymentID, charterID int64, annotation string) (bool, error) {
	args := m.Called(ctx, tx, paymentID, charterID, annotation)
	return args.Bool(0), args.Error(1)
}

func (m *MockPaymentRepository) ClassifyRefunds(ctx context.Context, tx pgx.Tx, annotation string) (int64, error) {
	args := m.Called(ctx, tx, annotation)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPaymentRepository) MarkCash(ctx context.Context, tx pgx.Tx, paymentID int64, annotation string) (bool, error) {
	args := m.Called(ctx, tx, paymentID, annotation)
	return args.Bool(0), args.Error(1)
}

// MockMatcherService is a mock type for the MatchCandidateSvc interface
type MockMatcherService struct {
	mock.Mock
}

func (m *MockMatcherService) Candidates(ctx context.Context, payment domain.Payment, opts domain.StrategyOptions) ([]domain.MatchCandidate, error) {
	args := m.Called(ctx, payment, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.MatchCandidate), args.Error(1)
}

func (m *MockMatcherService) CandidatesFor(ctx context.Context, payment domain.Payment, strategy domain.MatchStrategy, opts domain.StrategyOptions) ([]domain.MatchCandidate, error) {
	args := m.Called(ctx, payment, strategy, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.MatchCandidate), args.Error(1)
}

// --- Test Suite Setup ---

type ReconciliationServiceTestSuite struct {
	suite.Suite
	mockRepo    *MockPaymentRepository
	mockMatcher *MockMatcherService
	service     reconciliationSvc
}

type reconciliationSvc interface {
	Run(ctx context.Context) (*domain.ReconciliationSummary, error)
	Summary(ctx context.Context) (*domain.ReconciliationSummary, error)
	Unmatched(ctx context.Context, limit int) ([]domain.Payment, error)
}

func testMatchingConfig() config.MatchingConfig {
	return config.MatchingConfig{
		TargetPercent:       98.0,
		AmountTolerance:     decimal.NewFromInt(5),
		AmountToleranceWide: decimal.NewFromInt(10),
		DateWindowDays:      90,
		DateWindowWideDays:  120,
		FuzzyWindowDays:     14,
		FuzzyWindowWideDays: 180,
		BalanceWindowDays:   60,
		AccountPrefixLen:    6,
		CashAgeThreshold:    30 * 30 * 24 * time.Hour,
		CashRoundAmountMax:  decimal.NewFromInt(200),
		CashKeywords:        []string{"cash", "till"},
		UnmatchedBatchLimit: 1000,
	}
}

func (suite *ReconciliationServiceTestSuite) SetupTest() {
	suite.mockRepo = new(MockPaymentRepository)
	suite.mockMatcher = new(MockMatcherService)
	suite.service = services.NewReconciliationService(suite.mockRepo, suite.mockMatcher, testMatchingConfig())
}

// expectPassTransactions wires Begin/Commit/Rollback to succeed any number
// of times. Rollback after commit is a no-op in the real repository.
func (suite *ReconciliationServiceTestSuite) expectPassTransactions() {
	suite.mockRepo.On("Begin", mock.Anything).Return(nil, nil)
	suite.mockRepo.On("Commit", mock.Anything, mock.Anything).Return(nil)
	suite.mockRepo.On("Rollback", mock.Anything, mock.Anything).Return(nil)
}

// --- Test Cases ---

func (suite *ReconciliationServiceTestSuite) TestRun_ExactReserveOnly() {
	ctx := context.Background()
	suite.expectPassTransactions()

	suite.mockRepo.On("MatchExactReserve", mock.Anything, mock.Anything, mock.Anything).Return(int64(2), nil)
	suite.mockRepo.On("ListUnmatchedTx", mock.Anything, mock.Anything, 1000).Return([]domain.Payment{}, nil)
	suite.mockRepo.On("ClassifyRefunds", mock.Anything, mock.Anything, mock.Anything).Return(int64(0), nil)
	suite.mockRepo.On("CountStates", mock.Anything).
		Return(portsrepo.PaymentStateCounts{Total: 10, Matched: 10}, nil)

	summary, err := suite.service.Run(ctx)

	suite.Require().NoError(err)
	suite.Equal(2, summary.PerStrategy[domain.StrategyExactReserve])
	suite.Equal(100.0, summary.Percentage)
	suite.Equal(0, summary.Unresolved)
	suite.mockMatcher.AssertNotCalled(suite.T(), "CandidatesFor", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ReconciliationServiceTestSuite) TestRun_AppliesBestCandidate() {
	ctx := context.Background()
	suite.expectPassTransactions()

	payment := domain.Payment{PaymentID: 1, Amount: decimal.NewFromInt(300), Notes: "booking 111222"}
	candidate := domain.MatchCandidate{CharterID: 42, ReserveNumber: "111222", Strategy: domain.StrategyExtractedReference, Confidence: domain.ConfidenceHigh}

	suite.mockRepo.On("MatchExactReserve", mock.Anything, mock.Anything, mock.Anything).Return(int64(0), nil)
	// Only the first strategy pass sees the payment; it is linked afterwards.
	suite.mockRepo.On("ListUnmatchedTx", mock.Anything, mock.Anything, 1000).Return([]domain.Payment{payment}, nil).Once()
	suite.mockRepo.On("ListUnmatchedTx", mock.Anything, mock.Anything, 1000).Return([]domain.Payment{}, nil)
	suite.mockMatcher.On("CandidatesFor", mock.Anything, payment, domain.StrategyExtractedReference, mock.Anything).
		Return([]domain.MatchCandidate{candidate}, nil).Once()
	// The charter's reserve number travels in the audit note; AssignCharter
	// touches nothing on the payment beyond charter_id and notes.
	suite.mockRepo.On("AssignCharter", mock.Anything, mock.Anything, int64(1), int64(42), mock.MatchedBy(func(annotation string) bool {
		return strings.Contains(annotation, "111222")
	})).Return(true, nil).Once()
	suite.mockRepo.On("ClassifyRefunds", mock.Anything, mock.Anything, mock.Anything).Return(int64(0), nil)
	suite.mockRepo.On("CountStates", mock.Anything).
		Return(portsrepo.PaymentStateCounts{Total: 10, Matched: 9, Cash: 1}, nil)

	summary, err := suite.service.Run(ctx)

	suite.Require().NoError(err)
	suite.Equal(1, summary.PerStrategy[domain.StrategyExtractedReference])
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *ReconciliationServiceTestSuite) TestRun_GuardRejectionIsNotAnError() {
	ctx := context.Background()
	suite.expectPassTransactions()

	payment := domain.Payment{PaymentID: 1, Amount: decimal.NewFromInt(300)}
	candidate := domain.MatchCandidate{CharterID: 42, Strategy: domain.StrategyExtractedReference}

	suite.mockRepo.On("MatchExactReserve", mock.Anything, mock.Anything, mock.Anything).Return(int64(0), nil)
	suite.mockRepo.On("ListUnmatchedTx", mock.Anything, mock.Anything, 1000).Return([]domain.Payment{payment}, nil).Once()
	suite.mockRepo.On("ListUnmatchedTx", mock.Anything, mock.Anything, 1000).Return([]domain.Payment{}, nil)
	suite.mockMatcher.On("CandidatesFor", mock.Anything, payment, domain.StrategyExtractedReference, mock.Anything).
		Return([]domain.MatchCandidate{candidate}, nil).Once()
	suite.mockRepo.On("AssignCharter", mock.Anything, mock.Anything, int64(1), int64(42), mock.Anything).Return(false, nil).Once()
	suite.mockRepo.On("ClassifyRefunds", mock.Anything, mock.Anything, mock.Anything).Return(int64(0), nil)
	suite.mockRepo.On("CountStates", mock.Anything).
		Return(portsrepo.PaymentStateCounts{Total: 10, Matched: 10}, nil)

	summary, err := suite.service.Run(ctx)

	suite.Require().NoError(err)
	suite.Equal(0, summary.PerStrategy[domain.StrategyExtractedReference])
}

func (suite *ReconciliationServiceTestSuite) TestRun_CandidateErrorSkipsRow() {
	ctx := context.Background()
	suite.expectPassTransactions()

	payment := domain.Payment{PaymentID: 1, Amount: decimal.NewFromInt(300)}

	suite.mockRepo.On("MatchExactReserve", mock.Anything, mock.Anything, mock.Anything).Return(int64(0), nil)
	suite.mockRepo.On("ListUnmatchedTx", mock.Anything, mock.Anything, 1000).Return([]domain.Payment{payment}, nil).Once()
	suite.mockRepo.On("ListUnmatchedTx", mock.Anything, mock.Anything, 1000).Return([]domain.Payment{}, nil)
	suite.mockMatcher.On("CandidatesFor", mock.Anything, payment, domain.StrategyExtractedReference, mock.Anything).
		Return(nil, errors.New("charter lookup failed")).Once()
	suite.mockRepo.On("ClassifyRefunds", mock.Anything, mock.Anything, mock.Anything).Return(int64(0), nil)
	suite.mockRepo.On("CountStates", mock.Anything).
		Return(portsrepo.PaymentStateCounts{Total: 10, Matched: 10}, nil)

	summary, err := suite.service.Run(ctx)

	suite.Require().NoError(err, "a per-row candidate failure must not abort the pass")
	var passErrors int
	for _, p := range summary.Passes {
		passErrors += p.Errors
	}
	suite.Equal(1, passErrors)
	suite.mockRepo.AssertNotCalled(suite.T(), "AssignCharter", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ReconciliationServiceTestSuite) TestRun_CashKeywordClassification() {
	ctx := context.Background()
	suite.expectPassTransactions()

	payment := domain.Payment{PaymentID: 9, Amount: decimal.NewFromInt(60), Notes: "till CASH drop", PaymentDate: time.Now()}

	suite.mockRepo.On("MatchExactReserve", mock.Anything, mock.Anything, mock.Anything).Return(int64(0), nil)
	suite.mockRepo.On("ListUnmatchedTx", mock.Anything, mock.Anything, 1000).Return([]domain.Payment{payment}, nil)
	suite.mockMatcher.On("CandidatesFor", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return([]domain.MatchCandidate{}, nil)
	suite.mockRepo.On("ClassifyRefunds", mock.Anything, mock.Anything, mock.Anything).Return(int64(0), nil)
	suite.mockRepo.On("MarkCash", mock.Anything, mock.Anything, int64(9), mock.MatchedBy(func(annotation string) bool {
		return annotation != ""
	})).Return(true, nil).Once()
	suite.mockRepo.On("CountStates", mock.Anything).
		Return(portsrepo.PaymentStateCounts{Total: 10, Matched: 9, Cash: 1}, nil)

	summary, err := suite.service.Run(ctx)

	suite.Require().NoError(err)
	suite.Equal(1, summary.Cash)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *ReconciliationServiceTestSuite) TestRun_RefundsAreSetBased() {
	ctx := context.Background()
	suite.expectPassTransactions()

	suite.mockRepo.On("MatchExactReserve", mock.Anything, mock.Anything, mock.Anything).Return(int64(0), nil)
	suite.mockRepo.On("ListUnmatchedTx", mock.Anything, mock.Anything, 1000).Return([]domain.Payment{}, nil)
	suite.mockRepo.On("ClassifyRefunds", mock.Anything, mock.Anything, mock.Anything).Return(int64(3), nil)
	suite.mockRepo.On("CountStates", mock.Anything).
		Return(portsrepo.PaymentStateCounts{Total: 10, Matched: 7, Refund: 3}, nil)

	summary, err := suite.service.Run(ctx)

	suite.Require().NoError(err)
	suite.Equal(3, summary.Refund)
	suite.Equal(100.0, summary.Percentage)
}

func (suite *ReconciliationServiceTestSuite) TestRun_StopsOnTransactionError() {
	ctx := context.Background()

	suite.mockRepo.On("Begin", mock.Anything).Return(nil, errors.New("connection lost"))
	suite.mockRepo.On("CountStates", mock.Anything).
		Return(portsrepo.PaymentStateCounts{Total: 10, Matched: 2}, nil)

	summary, err := suite.service.Run(ctx)

	suite.Error(err)
	suite.Require().NotNil(summary, "the committed standing must still be reported")
	suite.Equal(2, summary.Matched)
	suite.mockRepo.AssertNotCalled(suite.T(), "MatchExactReserve", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ReconciliationServiceTestSuite) TestSummary_DerivesPercentage() {
	ctx := context.Background()
	suite.mockRepo.On("CountStates", mock.Anything).
		Return(portsrepo.PaymentStateCounts{Total: 200, Matched: 150, Cash: 30, Refund: 10}, nil)

	summary, err := suite.service.Summary(ctx)

	suite.Require().NoError(err)
	suite.Equal(10, summary.Unresolved)
	suite.InDelta(95.0, summary.Percentage, 0.001)
}

func (suite *ReconciliationServiceTestSuite) TestUnmatched_ClampsLimit() {
	ctx := context.Background()
	suite.mockRepo.On("ListUnmatched", mock.Anything, 1000).Return([]domain.Payment{}, nil).Once()

	_, err := suite.service.Unmatched(ctx, 5000)

	suite.NoError(err)
	suite.mockRepo.AssertExpectations(suite.T())
}

func TestReconciliationServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ReconciliationServiceTestSuite))
}
