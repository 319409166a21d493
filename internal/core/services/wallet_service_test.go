package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/tripkoro/wallet_ledger_svc/internal/apperrors"
	"github.com/tripkoro/wallet_ledger_svc/internal/core/domain"
	portssvc "github.com/tripkoro/wallet_ledger_svc/internal/core/ports/services"
	"github.com/tripkoro/wallet_ledger_svc/internal/core/services"
	"github.com/tripkoro/wallet_ledger_svc/internal/dto"
)

// MockWalletRepository is a mock type for the WalletRepositoryWithTx interface
type MockWalletRepository struct {
	mock.Mock
}

func (m *MockWalletRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Tx), args.Error(1)
}

func (m *MockWalletRepository) Commit(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockWalletRepository) Rollback(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockWalletRepository) SaveWallet(ctx context.Context, wallet domain.Wallet) error {
	args := m.Called(ctx, wallet)
	return args.Error(0)
}

func (m *MockWalletRepository) FindWalletByID(ctx context.Context, walletID string) (*domain.Wallet, error) {
	args := m.Called(ctx, walletID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wallet), args.Error(1)
}

func (m *MockWalletRepository) FindWalletByUserID(ctx context.Context, userID string) (*domain.Wallet, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wallet), args.Error(1)
}

func (m *MockWalletRepository) UpdateWalletStatusInTx(ctx context.Context, tx pgx.Tx, walletID string, status domain.WalletStatus, updatedBy string, updatedAt time.Time) error {
	args := m.Called(ctx, tx, walletID, status, updatedBy, updatedAt)
	return args.Error(0)
}

func (m *MockWalletRepository) FindWalletByIDForUpdate(ctx context.Context, tx pgx.Tx, walletID string) (*domain.Wallet, error) {
	args := m.Called(ctx, tx, walletID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wallet), args.Error(1)
}

func (m *MockWalletRepository) UpdateWalletBalanceInTx(ctx context.Context, tx pgx.Tx, walletID string, newBalance decimal.Decimal, updatedBy string, updatedAt time.Time) error {
	args := m.Called(ctx, tx, walletID, newBalance, updatedBy, updatedAt)
	return args.Error(0)
}

func (m *MockWalletRepository) InsertTransactionInTx(ctx context.Context, tx pgx.Tx, txn domain.WalletTransaction) error {
	args := m.Called(ctx, tx, txn)
	return args.Error(0)
}

func (m *MockWalletRepository) MarkTransactionReversedInTx(ctx context.Context, tx pgx.Tx, transactionID string, updatedBy string, updatedAt time.Time) error {
	args := m.Called(ctx, tx, transactionID, updatedBy, updatedAt)
	return args.Error(0)
}

func (m *MockWalletRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.WalletTransaction, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WalletTransaction), args.Error(1)
}

func (m *MockWalletRepository) ListTransactionsByWalletID(ctx context.Context, walletID string, limit int, nextToken *string) ([]domain.WalletTransaction, *string, error) {
	args := m.Called(ctx, walletID, limit, nextToken)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var token *string
	if args.Get(1) != nil {
		token = args.Get(1).(*string)
	}
	return args.Get(0).([]domain.WalletTransaction), token, args.Error(2)
}

// --- Test Suite Setup ---

type WalletServiceTestSuite struct {
	suite.Suite
	mockRepo *MockWalletRepository
	service  portssvc.WalletSvcFacade
	actorID  string
}

// matchDecimal matches a decimal argument by value rather than representation.
func matchDecimal(want string) interface{} {
	expected := decimal.RequireFromString(want)
	return mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.Equal(expected)
	})
}

func (suite *WalletServiceTestSuite) SetupTest() {
	suite.mockRepo = new(MockWalletRepository)
	suite.service = services.NewWalletService(suite.mockRepo, "BDT")
	suite.actorID = uuid.NewString()
}

func (suite *WalletServiceTestSuite) newActiveWallet(balance string) *domain.Wallet {
	now := time.Now().UTC()
	return &domain.Wallet{
		WalletID:     uuid.NewString(),
		UserID:       uuid.NewString(),
		Balance:      decimal.RequireFromString(balance),
		CurrencyCode: "BDT",
		Status:       domain.WalletActive,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     suite.actorID,
			LastUpdatedAt: now,
			LastUpdatedBy: suite.actorID,
		},
	}
}

// expectLockedTx wires the Begin/FindForUpdate/Commit/Rollback sequence around
// one locked critical section returning the given wallet.
func (suite *WalletServiceTestSuite) expectLockedTx(wallet *domain.Wallet) {
	suite.mockRepo.On("Begin", mock.Anything).Return(nil, nil).Once()
	suite.mockRepo.On("FindWalletByIDForUpdate", mock.Anything, nil, wallet.WalletID).Return(wallet, nil).Once()
	suite.mockRepo.On("Commit", mock.Anything, nil).Return(nil).Once()
	suite.mockRepo.On("Rollback", mock.Anything, nil).Return(nil).Maybe()
}

// expectLockedTxNoCommit wires the same sequence for a critical section that
// is expected to fail before commit.
func (suite *WalletServiceTestSuite) expectLockedTxNoCommit(wallet *domain.Wallet) {
	suite.mockRepo.On("Begin", mock.Anything).Return(nil, nil).Once()
	suite.mockRepo.On("FindWalletByIDForUpdate", mock.Anything, nil, wallet.WalletID).Return(wallet, nil).Once()
	suite.mockRepo.On("Rollback", mock.Anything, nil).Return(nil).Once()
}

// --- CreateWallet ---

func (suite *WalletServiceTestSuite) TestCreateWallet_Success() {
	ctx := context.Background()
	userID := uuid.NewString()
	req := dto.CreateWalletRequest{UserID: userID}

	suite.mockRepo.On("SaveWallet", ctx, mock.AnythingOfType("domain.Wallet")).Return(nil).Once()

	wallet, err := suite.service.CreateWallet(ctx, req, suite.actorID)

	suite.Require().NoError(err)
	suite.Require().NotNil(wallet)
	suite.NotEmpty(wallet.WalletID)
	suite.Equal(userID, wallet.UserID)
	suite.True(wallet.Balance.IsZero())
	suite.Equal("BDT", wallet.CurrencyCode)
	suite.Equal(domain.WalletActive, wallet.Status)
	suite.Equal(suite.actorID, wallet.CreatedBy)
	suite.WithinDuration(time.Now(), wallet.CreatedAt, time.Second)

	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *WalletServiceTestSuite) TestCreateWallet_DuplicateUser() {
	ctx := context.Background()
	req := dto.CreateWalletRequest{UserID: uuid.NewString()}

	suite.mockRepo.On("SaveWallet", ctx, mock.AnythingOfType("domain.Wallet")).Return(apperrors.ErrDuplicate).Once()

	wallet, err := suite.service.CreateWallet(ctx, req, suite.actorID)

	suite.Require().Error(err)
	suite.Nil(wallet)
	suite.ErrorIs(err, apperrors.ErrDuplicate)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *WalletServiceTestSuite) TestCreateWallet_UnsupportedCurrency() {
	ctx := context.Background()
	req := dto.CreateWalletRequest{UserID: uuid.NewString(), CurrencyCode: "USD"}

	wallet, err := suite.service.CreateWallet(ctx, req, suite.actorID)

	suite.Require().Error(err)
	suite.Nil(wallet)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockRepo.AssertNotCalled(suite.T(), "SaveWallet")
}

// --- CreditWallet ---

func (suite *WalletServiceTestSuite) TestCreditWallet_Success() {
	ctx := context.Background()
	wallet := suite.newActiveWallet("100.00")
	amount := decimal.RequireFromString("25.50")

	suite.expectLockedTx(wallet)
	suite.mockRepo.On("InsertTransactionInTx", mock.Anything, nil, mock.AnythingOfType("domain.WalletTransaction")).Return(nil).Once()
	suite.mockRepo.On("UpdateWalletBalanceInTx", mock.Anything, nil, wallet.WalletID, matchDecimal("125.50"), suite.actorID, mock.AnythingOfType("time.Time")).Return(nil).Once()

	req := dto.CreditWalletRequest{Amount: amount, Description: "reward payout", ReasonCode: domain.ReasonReward}
	updated, txn, err := suite.service.CreditWallet(ctx, wallet.WalletID, req, suite.actorID)

	suite.Require().NoError(err)
	suite.Require().NotNil(updated)
	suite.Require().NotNil(txn)
	suite.True(updated.Balance.Equal(decimal.RequireFromString("125.50")))
	suite.Equal(domain.Credit, txn.Type)
	suite.Equal(domain.TransactionCompleted, txn.Status)
	suite.True(txn.Amount.Equal(amount))
	suite.True(txn.RunningBalance.Equal(updated.Balance))
	suite.Equal(domain.ReasonReward, txn.ReasonCode)
	suite.Require().NotNil(txn.ProcessedBy)
	suite.Equal(suite.actorID, *txn.ProcessedBy)

	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *WalletServiceTestSuite) TestCreditWallet_SuspendedStillAccepts() {
	ctx := context.Background()
	wallet := suite.newActiveWallet("10.00")
	wallet.Status = domain.WalletSuspended

	suite.expectLockedTx(wallet)
	suite.mockRepo.On("InsertTransactionInTx", mock.Anything, nil, mock.AnythingOfType("domain.WalletTransaction")).Return(nil).Once()
	suite.mockRepo.On("UpdateWalletBalanceInTx", mock.Anything, nil, wallet.WalletID, matchDecimal("15.00"), suite.actorID, mock.AnythingOfType("time.Time")).Return(nil).Once()

	req := dto.CreditWalletRequest{Amount: decimal.RequireFromString("5.00"), Description: "referral", ReasonCode: domain.ReasonReferralBonus}
	updated, txn, err := suite.service.CreditWallet(ctx, wallet.WalletID, req, suite.actorID)

	suite.Require().NoError(err)
	suite.NotNil(txn)
	suite.True(updated.Balance.Equal(decimal.RequireFromString("15.00")))
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *WalletServiceTestSuite) TestCreditWallet_ClosedRejected() {
	ctx := context.Background()
	wallet := suite.newActiveWallet("10.00")
	wallet.Status = domain.WalletClosed

	suite.expectLockedTxNoCommit(wallet)

	req := dto.CreditWalletRequest{Amount: decimal.RequireFromString("5.00"), Description: "x", ReasonCode: domain.ReasonReward}
	_, _, err := suite.service.CreditWallet(ctx, wallet.WalletID, req, suite.actorID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrWalletClosed)
	suite.mockRepo.AssertNotCalled(suite.T(), "InsertTransactionInTx")
	suite.mockRepo.AssertNotCalled(suite.T(), "Commit")
}

func (suite *WalletServiceTestSuite) TestCreditWallet_InvalidAmounts() {
	ctx := context.Background()
	walletID := uuid.NewString()

	for _, amountStr := range []string{"0", "-5.00", "1.999"} {
		req := dto.CreditWalletRequest{Amount: decimal.RequireFromString(amountStr), Description: "x", ReasonCode: domain.ReasonReward}
		_, _, err := suite.service.CreditWallet(ctx, walletID, req, suite.actorID)
		suite.Require().Error(err, "amount %s should be rejected", amountStr)
		suite.ErrorIs(err, services.ErrInvalidAmount)
	}
	suite.mockRepo.AssertNotCalled(suite.T(), "Begin")
}

// --- DebitWallet ---

func (suite *WalletServiceTestSuite) TestDebitWallet_Success() {
	ctx := context.Background()
	wallet := suite.newActiveWallet("100.00")
	amount := decimal.RequireFromString("40.00")

	suite.expectLockedTx(wallet)
	suite.mockRepo.On("InsertTransactionInTx", mock.Anything, nil, mock.AnythingOfType("domain.WalletTransaction")).Return(nil).Once()
	suite.mockRepo.On("UpdateWalletBalanceInTx", mock.Anything, nil, wallet.WalletID, matchDecimal("60.00"), suite.actorID, mock.AnythingOfType("time.Time")).Return(nil).Once()

	req := dto.DebitWalletRequest{Amount: amount, Description: "application fee", ReasonCode: domain.ReasonJobApplicationFee}
	updated, txn, err := suite.service.DebitWallet(ctx, wallet.WalletID, req, suite.actorID)

	suite.Require().NoError(err)
	suite.True(updated.Balance.Equal(decimal.RequireFromString("60.00")))
	suite.Equal(domain.Debit, txn.Type)
	suite.True(txn.RunningBalance.Equal(updated.Balance))
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *WalletServiceTestSuite) TestDebitWallet_InsufficientBalance() {
	ctx := context.Background()
	wallet := suite.newActiveWallet("10.00")

	suite.expectLockedTxNoCommit(wallet)

	req := dto.DebitWalletRequest{Amount: decimal.RequireFromString("10.01"), Description: "x", ReasonCode: domain.ReasonJobApplicationFee}
	_, _, err := suite.service.DebitWallet(ctx, wallet.WalletID, req, suite.actorID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrInsufficientBalance)
	suite.mockRepo.AssertNotCalled(suite.T(), "InsertTransactionInTx")
}

func (suite *WalletServiceTestSuite) TestDebitWallet_ExactBalanceAllowed() {
	ctx := context.Background()
	wallet := suite.newActiveWallet("10.00")

	suite.expectLockedTx(wallet)
	suite.mockRepo.On("InsertTransactionInTx", mock.Anything, nil, mock.AnythingOfType("domain.WalletTransaction")).Return(nil).Once()
	suite.mockRepo.On("UpdateWalletBalanceInTx", mock.Anything, nil, wallet.WalletID, matchDecimal("0.00"), suite.actorID, mock.AnythingOfType("time.Time")).Return(nil).Once()

	req := dto.DebitWalletRequest{Amount: decimal.RequireFromString("10.00"), Description: "drain", ReasonCode: domain.ReasonManualAdjustment}
	updated, _, err := suite.service.DebitWallet(ctx, wallet.WalletID, req, suite.actorID)

	suite.Require().NoError(err)
	suite.True(updated.Balance.IsZero())
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *WalletServiceTestSuite) TestDebitWallet_SuspendedRejected() {
	ctx := context.Background()
	wallet := suite.newActiveWallet("100.00")
	wallet.Status = domain.WalletSuspended

	suite.expectLockedTxNoCommit(wallet)

	req := dto.DebitWalletRequest{Amount: decimal.RequireFromString("1.00"), Description: "x", ReasonCode: domain.ReasonJobApplicationFee}
	_, _, err := suite.service.DebitWallet(ctx, wallet.WalletID, req, suite.actorID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrWalletSuspended)
}

func (suite *WalletServiceTestSuite) TestDebitWallet_ClosedRejected() {
	ctx := context.Background()
	wallet := suite.newActiveWallet("100.00")
	wallet.Status = domain.WalletClosed

	suite.expectLockedTxNoCommit(wallet)

	req := dto.DebitWalletRequest{Amount: decimal.RequireFromString("1.00"), Description: "x", ReasonCode: domain.ReasonJobApplicationFee}
	_, _, err := suite.service.DebitWallet(ctx, wallet.WalletID, req, suite.actorID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrWalletClosed)
}

// --- Storage failure rollback ---

func (suite *WalletServiceTestSuite) TestCreditWallet_RolledBackWhenEntryInsertFails() {
	ctx := context.Background()
	wallet := suite.newActiveWallet("100.00")
	writeErr := errors.New("connection reset during insert")

	suite.expectLockedTxNoCommit(wallet)
	suite.mockRepo.On("InsertTransactionInTx", mock.Anything, nil, mock.AnythingOfType("domain.WalletTransaction")).Return(writeErr).Once()

	req := dto.CreditWalletRequest{Amount: decimal.RequireFromString("25.50"), Description: "reward payout", ReasonCode: domain.ReasonReward}
	_, _, err := suite.service.CreditWallet(ctx, wallet.WalletID, req, suite.actorID)

	suite.Require().Error(err)
	suite.ErrorIs(err, writeErr)
	suite.mockRepo.AssertNotCalled(suite.T(), "UpdateWalletBalanceInTx")
	suite.mockRepo.AssertNotCalled(suite.T(), "Commit")
	suite.mockRepo.AssertExpectations(suite.T()) // Rollback ran exactly once
}

func (suite *WalletServiceTestSuite) TestDebitWallet_RolledBackWhenBalanceWriteFails() {
	ctx := context.Background()
	wallet := suite.newActiveWallet("100.00")
	writeErr := errors.New("connection reset during update")

	suite.expectLockedTxNoCommit(wallet)
	suite.mockRepo.On("InsertTransactionInTx", mock.Anything, nil, mock.AnythingOfType("domain.WalletTransaction")).Return(nil).Once()
	suite.mockRepo.On("UpdateWalletBalanceInTx", mock.Anything, nil, wallet.WalletID, matchDecimal("60.00"), suite.actorID, mock.AnythingOfType("time.Time")).Return(writeErr).Once()

	req := dto.DebitWalletRequest{Amount: decimal.RequireFromString("40.00"), Description: "application fee", ReasonCode: domain.ReasonJobApplicationFee}
	_, _, err := suite.service.DebitWallet(ctx, wallet.WalletID, req, suite.actorID)

	suite.Require().Error(err)
	suite.ErrorIs(err, writeErr)
	suite.mockRepo.AssertNotCalled(suite.T(), "Commit")
	suite.mockRepo.AssertExpectations(suite.T())
}

// --- ReverseTransaction ---

func (suite *WalletServiceTestSuite) completedTxn(wallet *domain.Wallet, txnType domain.TransactionType, amount string) *domain.WalletTransaction {
	return &domain.WalletTransaction{
		TransactionID: uuid.NewString(),
		WalletID:      wallet.WalletID,
		Type:          txnType,
		Amount:        decimal.RequireFromString(amount),
		Status:        domain.TransactionCompleted,
		ReasonCode:    domain.ReasonJobApplicationFee,
		Description:   "application fee",
	}
}

func (suite *WalletServiceTestSuite) TestReverseTransaction_DebitReversed() {
	ctx := context.Background()
	wallet := suite.newActiveWallet("60.00")
	original := suite.completedTxn(wallet, domain.Debit, "40.00")

	suite.mockRepo.On("FindTransactionByID", ctx, original.TransactionID).Return(original, nil).Once()
	suite.expectLockedTx(wallet)
	suite.mockRepo.On("MarkTransactionReversedInTx", mock.Anything, nil, original.TransactionID, suite.actorID, mock.AnythingOfType("time.Time")).Return(nil).Once()
	suite.mockRepo.On("InsertTransactionInTx", mock.Anything, nil, mock.AnythingOfType("domain.WalletTransaction")).Return(nil).Once()
	suite.mockRepo.On("UpdateWalletBalanceInTx", mock.Anything, nil, wallet.WalletID, matchDecimal("100.00"), suite.actorID, mock.AnythingOfType("time.Time")).Return(nil).Once()

	reversal, err := suite.service.ReverseTransaction(ctx, original.TransactionID, suite.actorID)

	suite.Require().NoError(err)
	suite.Require().NotNil(reversal)
	suite.Equal(domain.Credit, reversal.Type)
	suite.True(reversal.Amount.Equal(original.Amount))
	suite.Equal(domain.ReasonReversal, reversal.ReasonCode)
	suite.Require().NotNil(reversal.Reference)
	suite.Equal(domain.RefTransactionReversal, reversal.Reference.Kind)
	suite.Equal(original.TransactionID, reversal.Reference.ID)
	suite.True(reversal.RunningBalance.Equal(decimal.RequireFromString("100.00")))

	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *WalletServiceTestSuite) TestReverseTransaction_CreditReversalChecksBalance() {
	ctx := context.Background()
	// The credited money has already been spent, so the reversal cannot take it back.
	wallet := suite.newActiveWallet("5.00")
	original := suite.completedTxn(wallet, domain.Credit, "40.00")

	suite.mockRepo.On("FindTransactionByID", ctx, original.TransactionID).Return(original, nil).Once()
	suite.expectLockedTxNoCommit(wallet)

	reversal, err := suite.service.ReverseTransaction(ctx, original.TransactionID, suite.actorID)

	suite.Require().Error(err)
	suite.Nil(reversal)
	suite.ErrorIs(err, services.ErrInsufficientBalance)
	suite.mockRepo.AssertNotCalled(suite.T(), "MarkTransactionReversedInTx")
}

func (suite *WalletServiceTestSuite) TestReverseTransaction_ClosedWalletRejected() {
	ctx := context.Background()
	wallet := suite.newActiveWallet("100.00")
	wallet.Status = domain.WalletClosed
	original := suite.completedTxn(wallet, domain.Debit, "40.00")

	suite.mockRepo.On("FindTransactionByID", ctx, original.TransactionID).Return(original, nil).Once()
	suite.expectLockedTxNoCommit(wallet)

	reversal, err := suite.service.ReverseTransaction(ctx, original.TransactionID, suite.actorID)

	suite.Require().Error(err)
	suite.Nil(reversal)
	suite.ErrorIs(err, services.ErrWalletClosed)
	suite.mockRepo.AssertNotCalled(suite.T(), "MarkTransactionReversedInTx")
	suite.mockRepo.AssertNotCalled(suite.T(), "InsertTransactionInTx")
}

func (suite *WalletServiceTestSuite) TestReverseTransaction_SuspendedWalletAllowed() {
	ctx := context.Background()
	// Corrections still land while spending is frozen, same as credits.
	wallet := suite.newActiveWallet("60.00")
	wallet.Status = domain.WalletSuspended
	original := suite.completedTxn(wallet, domain.Debit, "40.00")

	suite.mockRepo.On("FindTransactionByID", ctx, original.TransactionID).Return(original, nil).Once()
	suite.expectLockedTx(wallet)
	suite.mockRepo.On("MarkTransactionReversedInTx", mock.Anything, nil, original.TransactionID, suite.actorID, mock.AnythingOfType("time.Time")).Return(nil).Once()
	suite.mockRepo.On("InsertTransactionInTx", mock.Anything, nil, mock.AnythingOfType("domain.WalletTransaction")).Return(nil).Once()
	suite.mockRepo.On("UpdateWalletBalanceInTx", mock.Anything, nil, wallet.WalletID, matchDecimal("100.00"), suite.actorID, mock.AnythingOfType("time.Time")).Return(nil).Once()

	reversal, err := suite.service.ReverseTransaction(ctx, original.TransactionID, suite.actorID)

	suite.Require().NoError(err)
	suite.Equal(domain.Credit, reversal.Type)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *WalletServiceTestSuite) TestReverseTransaction_AlreadyReversed() {
	ctx := context.Background()
	wallet := suite.newActiveWallet("100.00")
	original := suite.completedTxn(wallet, domain.Debit, "40.00")
	original.Status = domain.TransactionReversed

	suite.mockRepo.On("FindTransactionByID", ctx, original.TransactionID).Return(original, nil).Once()

	reversal, err := suite.service.ReverseTransaction(ctx, original.TransactionID, suite.actorID)

	suite.Require().Error(err)
	suite.Nil(reversal)
	suite.ErrorIs(err, services.ErrAlreadyReversed)
	suite.mockRepo.AssertNotCalled(suite.T(), "Begin")
}

func (suite *WalletServiceTestSuite) TestReverseTransaction_ReversalOfReversalRejected() {
	ctx := context.Background()
	wallet := suite.newActiveWallet("100.00")
	original := suite.completedTxn(wallet, domain.Credit, "40.00")
	original.ReasonCode = domain.ReasonReversal
	original.Reference = domain.ReversalOf(uuid.NewString())

	suite.mockRepo.On("FindTransactionByID", ctx, original.TransactionID).Return(original, nil).Once()

	reversal, err := suite.service.ReverseTransaction(ctx, original.TransactionID, suite.actorID)

	suite.Require().Error(err)
	suite.Nil(reversal)
	suite.ErrorIs(err, services.ErrNotReversible)
}

func (suite *WalletServiceTestSuite) TestReverseTransaction_GuardConflictMapsToAlreadyReversed() {
	ctx := context.Background()
	wallet := suite.newActiveWallet("60.00")
	original := suite.completedTxn(wallet, domain.Debit, "40.00")

	suite.mockRepo.On("FindTransactionByID", ctx, original.TransactionID).Return(original, nil).Once()
	suite.expectLockedTxNoCommit(wallet)
	// A concurrent reversal won the race between our read and our lock.
	suite.mockRepo.On("MarkTransactionReversedInTx", mock.Anything, nil, original.TransactionID, suite.actorID, mock.AnythingOfType("time.Time")).Return(apperrors.ErrConflict).Once()

	reversal, err := suite.service.ReverseTransaction(ctx, original.TransactionID, suite.actorID)

	suite.Require().Error(err)
	suite.Nil(reversal)
	suite.ErrorIs(err, services.ErrAlreadyReversed)
	suite.mockRepo.AssertNotCalled(suite.T(), "InsertTransactionInTx")
}

// --- Status transitions ---

func (suite *WalletServiceTestSuite) TestSuspendWallet_Success() {
	ctx := context.Background()
	wallet := suite.newActiveWallet("50.00")

	suite.expectLockedTx(wallet)
	suite.mockRepo.On("UpdateWalletStatusInTx", mock.Anything, nil, wallet.WalletID, domain.WalletSuspended, suite.actorID, mock.AnythingOfType("time.Time")).Return(nil).Once()

	updated, err := suite.service.SuspendWallet(ctx, wallet.WalletID, suite.actorID)

	suite.Require().NoError(err)
	suite.Equal(domain.WalletSuspended, updated.Status)
	suite.True(updated.Balance.Equal(decimal.RequireFromString("50.00")))
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *WalletServiceTestSuite) TestActivateWallet_FromSuspended() {
	ctx := context.Background()
	wallet := suite.newActiveWallet("50.00")
	wallet.Status = domain.WalletSuspended

	suite.expectLockedTx(wallet)
	suite.mockRepo.On("UpdateWalletStatusInTx", mock.Anything, nil, wallet.WalletID, domain.WalletActive, suite.actorID, mock.AnythingOfType("time.Time")).Return(nil).Once()

	updated, err := suite.service.ActivateWallet(ctx, wallet.WalletID, suite.actorID)

	suite.Require().NoError(err)
	suite.Equal(domain.WalletActive, updated.Status)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *WalletServiceTestSuite) TestTransitionOnClosedWalletRejected() {
	ctx := context.Background()
	wallet := suite.newActiveWallet("50.00")
	wallet.Status = domain.WalletClosed

	suite.expectLockedTxNoCommit(wallet)

	_, err := suite.service.SuspendWallet(ctx, wallet.WalletID, suite.actorID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrWalletClosed)
	suite.mockRepo.AssertNotCalled(suite.T(), "UpdateWalletStatusInTx")
}

func (suite *WalletServiceTestSuite) TestTransitionIdempotentWhenAlreadyInTarget() {
	ctx := context.Background()
	wallet := suite.newActiveWallet("50.00")
	wallet.Status = domain.WalletSuspended

	suite.expectLockedTx(wallet)

	updated, err := suite.service.SuspendWallet(ctx, wallet.WalletID, suite.actorID)

	suite.Require().NoError(err)
	suite.Equal(domain.WalletSuspended, updated.Status)
	suite.mockRepo.AssertNotCalled(suite.T(), "UpdateWalletStatusInTx")
}

// --- Reads ---

func (suite *WalletServiceTestSuite) TestGetWalletByID_NotFound() {
	ctx := context.Background()
	walletID := uuid.NewString()

	suite.mockRepo.On("FindWalletByID", ctx, walletID).Return(nil, apperrors.ErrNotFound).Once()

	wallet, err := suite.service.GetWalletByID(ctx, walletID)

	suite.Require().Error(err)
	suite.Nil(wallet)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *WalletServiceTestSuite) TestListTransactions_UnknownWalletIsNotFound() {
	ctx := context.Background()
	walletID := uuid.NewString()

	suite.mockRepo.On("FindWalletByID", ctx, walletID).Return(nil, apperrors.ErrNotFound).Once()

	resp, err := suite.service.ListTransactionsByWallet(ctx, walletID, dto.ListTransactionsParams{})

	suite.Require().Error(err)
	suite.Nil(resp)
	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.mockRepo.AssertNotCalled(suite.T(), "ListTransactionsByWalletID")
}

func (suite *WalletServiceTestSuite) TestListTransactions_DefaultsLimit() {
	ctx := context.Background()
	wallet := suite.newActiveWallet("10.00")

	suite.mockRepo.On("FindWalletByID", ctx, wallet.WalletID).Return(wallet, nil).Once()
	suite.mockRepo.On("ListTransactionsByWalletID", ctx, wallet.WalletID, 20, (*string)(nil)).Return([]domain.WalletTransaction{}, nil, nil).Once()

	resp, err := suite.service.ListTransactionsByWallet(ctx, wallet.WalletID, dto.ListTransactionsParams{})

	suite.Require().NoError(err)
	suite.Require().NotNil(resp)
	suite.Empty(resp.Transactions)
	suite.mockRepo.AssertExpectations(suite.T())
}

func TestWalletServiceTestSuite(t *testing.T) {
	suite.Run(t, new(WalletServiceTestSuite))
}

// --- Concurrency properties ---
//
// memLedgerRepo is an in-memory WalletRepositoryWithTx whose
// FindWalletByIDForUpdate takes a real mutex held until Commit/Rollback,
// mirroring the row-lock serialization the SQL implementation relies on.

type memTx struct {
	pgx.Tx // embedded for interface satisfaction only; never called

	repo      *memLedgerRepo
	locked    bool
	done      bool
	balance   decimal.Decimal
	staged    []domain.WalletTransaction
	reversals []string
}

type memLedgerRepo struct {
	mu     sync.Mutex
	wallet domain.Wallet
	txns   map[string]domain.WalletTransaction
	order  []string

	// balanceWriteErr is returned once by the next UpdateWalletBalanceInTx,
	// simulating a storage failure after the ledger entry is staged.
	balanceWriteErr error
}

func newMemLedgerRepo(wallet domain.Wallet) *memLedgerRepo {
	return &memLedgerRepo{
		wallet: wallet,
		txns:   make(map[string]domain.WalletTransaction),
	}
}

func (r *memLedgerRepo) Begin(ctx context.Context) (pgx.Tx, error) {
	return &memTx{repo: r}, nil
}

func (r *memLedgerRepo) Commit(ctx context.Context, tx pgx.Tx) error {
	t := tx.(*memTx)
	if t.done {
		return nil
	}
	r.wallet.Balance = t.balance
	for _, id := range t.reversals {
		txn := r.txns[id]
		txn.Status = domain.TransactionReversed
		r.txns[id] = txn
	}
	for _, txn := range t.staged {
		r.txns[txn.TransactionID] = txn
		r.order = append(r.order, txn.TransactionID)
	}
	t.done = true
	if t.locked {
		t.locked = false
		r.mu.Unlock()
	}
	return nil
}

func (r *memLedgerRepo) Rollback(ctx context.Context, tx pgx.Tx) error {
	t := tx.(*memTx)
	if t.done {
		return nil
	}
	t.done = true
	if t.locked {
		t.locked = false
		r.mu.Unlock()
	}
	return nil
}

func (r *memLedgerRepo) FindWalletByIDForUpdate(ctx context.Context, tx pgx.Tx, walletID string) (*domain.Wallet, error) {
	t := tx.(*memTx)
	r.mu.Lock()
	t.locked = true
	if r.wallet.WalletID != walletID {
		return nil, apperrors.ErrNotFound
	}
	w := r.wallet
	t.balance = w.Balance
	return &w, nil
}

func (r *memLedgerRepo) UpdateWalletBalanceInTx(ctx context.Context, tx pgx.Tx, walletID string, newBalance decimal.Decimal, updatedBy string, updatedAt time.Time) error {
	// Caller holds the row lock, so reading the injected error is safe.
	if r.balanceWriteErr != nil {
		err := r.balanceWriteErr
		r.balanceWriteErr = nil
		return err
	}
	tx.(*memTx).balance = newBalance
	return nil
}

func (r *memLedgerRepo) InsertTransactionInTx(ctx context.Context, tx pgx.Tx, txn domain.WalletTransaction) error {
	t := tx.(*memTx)
	t.staged = append(t.staged, txn)
	return nil
}

func (r *memLedgerRepo) MarkTransactionReversedInTx(ctx context.Context, tx pgx.Tx, transactionID string, updatedBy string, updatedAt time.Time) error {
	txn, ok := r.txns[transactionID]
	if !ok || txn.Status != domain.TransactionCompleted {
		return apperrors.ErrConflict
	}
	tx.(*memTx).reversals = append(tx.(*memTx).reversals, transactionID)
	return nil
}

func (r *memLedgerRepo) SaveWallet(ctx context.Context, wallet domain.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.wallet = wallet
	return nil
}

func (r *memLedgerRepo) FindWalletByID(ctx context.Context, walletID string) (*domain.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.wallet.WalletID != walletID {
		return nil, apperrors.ErrNotFound
	}
	w := r.wallet
	return &w, nil
}

func (r *memLedgerRepo) FindWalletByUserID(ctx context.Context, userID string) (*domain.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.wallet.UserID != userID {
		return nil, apperrors.ErrNotFound
	}
	w := r.wallet
	return &w, nil
}

func (r *memLedgerRepo) UpdateWalletStatusInTx(ctx context.Context, tx pgx.Tx, walletID string, status domain.WalletStatus, updatedBy string, updatedAt time.Time) error {
	// Caller holds the row lock via FindWalletByIDForUpdate.
	r.wallet.Status = status
	return nil
}

func (r *memLedgerRepo) FindTransactionByID(ctx context.Context, transactionID string) (*domain.WalletTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	txn, ok := r.txns[transactionID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &txn, nil
}

func (r *memLedgerRepo) ListTransactionsByWalletID(ctx context.Context, walletID string, limit int, nextToken *string) ([]domain.WalletTransaction, *string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.WalletTransaction
	for i := len(r.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.txns[r.order[i]])
	}
	return out, nil, nil
}

func newMemWallet(balance string) domain.Wallet {
	now := time.Now().UTC()
	return domain.Wallet{
		WalletID:     uuid.NewString(),
		UserID:       uuid.NewString(),
		Balance:      decimal.RequireFromString(balance),
		CurrencyCode: "BDT",
		Status:       domain.WalletActive,
		AuditFields:  domain.AuditFields{CreatedAt: now, LastUpdatedAt: now},
	}
}

// TestConcurrentDebits_AllSucceedWhenFunded: N concurrent debits of A against
// a balance of N*A must all succeed and land the balance exactly at zero.
func TestConcurrentDebits_AllSucceedWhenFunded(t *testing.T) {
	const n = 25
	amount := decimal.RequireFromString("10.00")
	wallet := newMemWallet("250.00")
	repo := newMemLedgerRepo(wallet)
	svc := services.NewWalletService(repo, "BDT")

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := dto.DebitWalletRequest{Amount: amount, Description: "fee", ReasonCode: domain.ReasonJobApplicationFee}
			_, _, errs[i] = svc.DebitWallet(context.Background(), wallet.WalletID, req, "svc-jobs")
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "debit %d failed", i)
	}
	final, err := svc.GetWalletByID(context.Background(), wallet.WalletID)
	require.NoError(t, err)
	require.True(t, final.Balance.IsZero(), "final balance %s, want 0", final.Balance)
	require.Len(t, repo.txns, n)
}

// TestConcurrentDebits_OneLosesWhenUnderfunded: with funds for only N-1 of N
// concurrent debits, exactly one must fail with an insufficient balance error,
// and the ledger must never go negative.
func TestConcurrentDebits_OneLosesWhenUnderfunded(t *testing.T) {
	const n = 10
	amount := decimal.RequireFromString("10.00")
	wallet := newMemWallet("90.00") // funds for 9 of 10
	repo := newMemLedgerRepo(wallet)
	svc := services.NewWalletService(repo, "BDT")

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := dto.DebitWalletRequest{Amount: amount, Description: "fee", ReasonCode: domain.ReasonJobApplicationFee}
			_, _, errs[i] = svc.DebitWallet(context.Background(), wallet.WalletID, req, "svc-jobs")
		}(i)
	}
	wg.Wait()

	var failures int
	for _, err := range errs {
		if err != nil {
			require.ErrorIs(t, err, services.ErrInsufficientBalance)
			failures++
		}
	}
	require.Equal(t, 1, failures, "exactly one debit should lose the race")

	final, err := svc.GetWalletByID(context.Background(), wallet.WalletID)
	require.NoError(t, err)
	require.True(t, final.Balance.IsZero())
	require.Len(t, repo.txns, n-1)
}

// TestConcurrentReversals_OnlyOneWins: two concurrent reversals of the same
// transaction must produce exactly one compensating entry.
func TestConcurrentReversals_OnlyOneWins(t *testing.T) {
	wallet := newMemWallet("100.00")
	repo := newMemLedgerRepo(wallet)
	svc := services.NewWalletService(repo, "BDT")

	req := dto.DebitWalletRequest{Amount: decimal.RequireFromString("30.00"), Description: "fee", ReasonCode: domain.ReasonJobApplicationFee}
	_, original, err := svc.DebitWallet(context.Background(), wallet.WalletID, req, "svc-jobs")
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.ReverseTransaction(context.Background(), original.TransactionID, "admin")
		}(i)
	}
	wg.Wait()

	var succeeded int
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			require.ErrorIs(t, err, services.ErrAlreadyReversed)
		}
	}
	require.Equal(t, 1, succeeded, "exactly one reversal should win")

	final, err := svc.GetWalletByID(context.Background(), wallet.WalletID)
	require.NoError(t, err)
	require.True(t, final.Balance.Equal(decimal.RequireFromString("100.00")), "reversal must restore the original balance, got %s", final.Balance)

	reversed, err := svc.GetTransactionByID(context.Background(), original.TransactionID)
	require.NoError(t, err)
	require.Equal(t, domain.TransactionReversed, reversed.Status)
	require.Len(t, repo.txns, 2) // original debit + single reversal credit
}

// TestStorageFailureLeavesNoPartialState: a write failure between the ledger
// entry insert and the balance update must roll everything back. Neither the
// staged entry nor a balance change may be observable afterwards, and the
// wallet lock must be released so a retry can go through.
func TestStorageFailureLeavesNoPartialState(t *testing.T) {
	wallet := newMemWallet("100.00")
	repo := newMemLedgerRepo(wallet)
	repo.balanceWriteErr = errors.New("disk full")
	svc := services.NewWalletService(repo, "BDT")

	req := dto.DebitWalletRequest{Amount: decimal.RequireFromString("40.00"), Description: "fee", ReasonCode: domain.ReasonJobApplicationFee}
	_, _, err := svc.DebitWallet(context.Background(), wallet.WalletID, req, "svc-jobs")
	require.Error(t, err)

	final, err := svc.GetWalletByID(context.Background(), wallet.WalletID)
	require.NoError(t, err)
	require.True(t, final.Balance.Equal(decimal.RequireFromString("100.00")), "failed debit must not move the balance, got %s", final.Balance)

	page, err := svc.ListTransactionsByWallet(context.Background(), wallet.WalletID, dto.ListTransactionsParams{})
	require.NoError(t, err)
	require.Empty(t, page.Transactions, "failed debit must not leave a ledger entry")

	updated, _, err := svc.DebitWallet(context.Background(), wallet.WalletID, req, "svc-jobs")
	require.NoError(t, err, "retry after rollback should succeed")
	require.True(t, updated.Balance.Equal(decimal.RequireFromString("60.00")))
	require.Len(t, repo.txns, 1)
}
