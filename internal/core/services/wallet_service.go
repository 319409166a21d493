package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/tripkoro/wallet_ledger_svc/internal/apperrors"
	"github.com/tripkoro/wallet_ledger_svc/internal/core/domain"
	portsrepo "github.com/tripkoro/wallet_ledger_svc/internal/core/ports/repositories"
	portssvc "github.com/tripkoro/wallet_ledger_svc/internal/core/ports/services"
	"github.com/tripkoro/wallet_ledger_svc/internal/dto"
	"github.com/tripkoro/wallet_ledger_svc/internal/middleware"
)

var (
	ErrInvalidAmount       = errors.New("amount must be positive and representable at two decimal places")
	ErrWalletClosed        = errors.New("wallet is closed")
	ErrWalletSuspended     = errors.New("wallet is suspended")
	ErrInsufficientBalance = errors.New("insufficient wallet balance")
	ErrAlreadyReversed     = errors.New("transaction has already been reversed")
	ErrNotReversible       = errors.New("transaction is not reversible")
)

// walletService is the ledger engine: the only component permitted to mutate
// wallet balances. Every mutation runs as lock -> validate -> write -> commit
// against the wallet row, so concurrent operations on one wallet serialize
// while operations on different wallets proceed independently.
type walletService struct {
	walletRepo      portsrepo.WalletRepositoryWithTx
	defaultCurrency string
}

// NewWalletService creates a new wallet ledger service.
func NewWalletService(walletRepo portsrepo.WalletRepositoryWithTx, defaultCurrency string) portssvc.WalletSvcFacade {
	if defaultCurrency == "" {
		defaultCurrency = domain.DefaultCurrencyCode
	}
	return &walletService{
		walletRepo:      walletRepo,
		defaultCurrency: defaultCurrency,
	}
}

// Ensure walletService implements the portssvc.WalletSvcFacade interface
var _ portssvc.WalletSvcFacade = (*walletService)(nil)

// validateAmount rejects non-positive amounts and amounts that cannot be
// represented in currency minor units.
func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: got %s", ErrInvalidAmount, amount.String())
	}
	if !amount.Equal(amount.Round(2)) {
		return fmt.Errorf("%w: got %s", ErrInvalidAmount, amount.String())
	}
	return nil
}

// CreateWallet creates the wallet for a user. Each user has at most one
// wallet; a second create returns apperrors.ErrDuplicate.
func (s *walletService) CreateWallet(ctx context.Context, req dto.CreateWalletRequest, actorID string) (*domain.Wallet, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	currency := req.CurrencyCode
	if currency == "" {
		currency = s.defaultCurrency
	}
	if currency != s.defaultCurrency {
		return nil, fmt.Errorf("%w: unsupported currency %s, ledger currency is %s", apperrors.ErrValidation, currency, s.defaultCurrency)
	}

	now := time.Now().UTC()
	wallet := domain.Wallet{
		WalletID:     uuid.NewString(),
		UserID:       req.UserID,
		Balance:      decimal.Zero,
		CurrencyCode: currency,
		Status:       domain.WalletActive,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actorID,
			LastUpdatedAt: now,
			LastUpdatedBy: actorID,
		},
	}

	if err := s.walletRepo.SaveWallet(ctx, wallet); err != nil {
		if !errors.Is(err, apperrors.ErrDuplicate) {
			logger.Error("Failed to save wallet", slog.String("error", err.Error()), slog.String("user_id", req.UserID))
		}
		return nil, fmt.Errorf("failed to create wallet for user %s: %w", req.UserID, err)
	}

	logger.Info("Wallet created", slog.String("wallet_id", wallet.WalletID), slog.String("user_id", req.UserID))
	return &wallet, nil
}

// GetWalletByID retrieves a wallet.
func (s *walletService) GetWalletByID(ctx context.Context, walletID string) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.FindWalletByID(ctx, walletID)
	if err != nil {
		return nil, fmt.Errorf("failed to find wallet %s: %w", walletID, err)
	}
	return wallet, nil
}

// GetWalletByUserID retrieves the wallet owned by a user.
func (s *walletService) GetWalletByUserID(ctx context.Context, userID string) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.FindWalletByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find wallet for user %s: %w", userID, err)
	}
	return wallet, nil
}

// CreditWallet adds funds to a wallet. Suspended wallets still accept credits;
// only closed wallets reject incoming funds. The ledger entry and the balance
// update commit atomically under the wallet row lock.
func (s *walletService) CreditWallet(ctx context.Context, walletID string, req dto.CreditWalletRequest, actorID string) (*domain.Wallet, *domain.WalletTransaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := validateAmount(req.Amount); err != nil {
		return nil, nil, err
	}
	reference, err := req.Reference.ToDomainReference()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	var (
		updated *domain.Wallet
		entry   *domain.WalletTransaction
	)
	err = s.withWalletLock(ctx, walletID, func(tx pgx.Tx, wallet *domain.Wallet) error {
		if !wallet.CanCredit() {
			return fmt.Errorf("cannot credit wallet %s: %w", walletID, ErrWalletClosed)
		}

		newBalance := wallet.Balance.Add(req.Amount)
		txn := s.newLedgerEntry(wallet.WalletID, domain.Credit, req.Amount, newBalance, req.Description, req.ReasonCode, reference, req.Metadata, actorID)

		if err := s.walletRepo.InsertTransactionInTx(ctx, tx, txn); err != nil {
			return fmt.Errorf("failed to insert credit entry for wallet %s: %w", walletID, err)
		}
		if err := s.walletRepo.UpdateWalletBalanceInTx(ctx, tx, wallet.WalletID, newBalance, actorID, txn.CreatedAt); err != nil {
			return fmt.Errorf("failed to update balance for wallet %s: %w", walletID, err)
		}

		wallet.Balance = newBalance
		wallet.LastUpdatedAt = txn.CreatedAt
		wallet.LastUpdatedBy = actorID
		updated = wallet
		entry = &txn
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	logger.Info("Wallet credited",
		slog.String("wallet_id", walletID),
		slog.String("transaction_id", entry.TransactionID),
		slog.String("amount", req.Amount.String()),
		slog.String("reason_code", req.ReasonCode),
	)
	return updated, entry, nil
}

// DebitWallet removes funds from a wallet. The wallet must be active, and the
// sufficient-balance check happens after the row lock is acquired so two
// concurrent debits can never both pass against a stale balance.
func (s *walletService) DebitWallet(ctx context.Context, walletID string, req dto.DebitWalletRequest, actorID string) (*domain.Wallet, *domain.WalletTransaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := validateAmount(req.Amount); err != nil {
		return nil, nil, err
	}
	reference, err := req.Reference.ToDomainReference()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	var (
		updated *domain.Wallet
		entry   *domain.WalletTransaction
	)
	err = s.withWalletLock(ctx, walletID, func(tx pgx.Tx, wallet *domain.Wallet) error {
		switch wallet.Status {
		case domain.WalletClosed:
			return fmt.Errorf("cannot debit wallet %s: %w", walletID, ErrWalletClosed)
		case domain.WalletSuspended:
			return fmt.Errorf("cannot debit wallet %s: %w", walletID, ErrWalletSuspended)
		}

		if wallet.Balance.LessThan(req.Amount) {
			return fmt.Errorf("%w: balance %s, requested %s", ErrInsufficientBalance, wallet.Balance.String(), req.Amount.String())
		}

		newBalance := wallet.Balance.Sub(req.Amount)
		txn := s.newLedgerEntry(wallet.WalletID, domain.Debit, req.Amount, newBalance, req.Description, req.ReasonCode, reference, req.Metadata, actorID)

		if err := s.walletRepo.InsertTransactionInTx(ctx, tx, txn); err != nil {
			return fmt.Errorf("failed to insert debit entry for wallet %s: %w", walletID, err)
		}
		if err := s.walletRepo.UpdateWalletBalanceInTx(ctx, tx, wallet.WalletID, newBalance, actorID, txn.CreatedAt); err != nil {
			return fmt.Errorf("failed to update balance for wallet %s: %w", walletID, err)
		}

		wallet.Balance = newBalance
		wallet.LastUpdatedAt = txn.CreatedAt
		wallet.LastUpdatedBy = actorID
		updated = wallet
		entry = &txn
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	logger.Info("Wallet debited",
		slog.String("wallet_id", walletID),
		slog.String("transaction_id", entry.TransactionID),
		slog.String("amount", req.Amount.String()),
		slog.String("reason_code", req.ReasonCode),
	)
	return updated, entry, nil
}

// ReverseTransaction creates a new ledger entry that inverts a completed one
// and flips the original to REVERSED. The original is never edited or deleted.
// Reversing a credit removes money and therefore re-checks sufficient balance;
// reversing a debit restores money and needs no balance check.
func (s *walletService) ReverseTransaction(ctx context.Context, transactionID string, actorID string) (*domain.WalletTransaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	original, err := s.walletRepo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find transaction %s: %w", transactionID, err)
	}
	if original.IsReversal() {
		return nil, fmt.Errorf("%w: transaction %s is itself a reversal", ErrNotReversible, transactionID)
	}
	switch original.Status {
	case domain.TransactionCompleted:
		// reversible
	case domain.TransactionReversed:
		return nil, fmt.Errorf("%w: transaction %s", ErrAlreadyReversed, transactionID)
	default:
		return nil, fmt.Errorf("%w: transaction %s has status %s", ErrNotReversible, transactionID, original.Status)
	}

	var entry *domain.WalletTransaction
	err = s.withWalletLock(ctx, original.WalletID, func(tx pgx.Tx, wallet *domain.Wallet) error {
		// Closed is terminal: no entries land on a closed wallet, corrections
		// included. Suspended wallets still take reversals.
		if wallet.Status == domain.WalletClosed {
			return fmt.Errorf("cannot reverse transaction %s: %w", original.TransactionID, ErrWalletClosed)
		}

		reversalType := domain.Credit
		newBalance := wallet.Balance.Add(original.Amount)
		if original.Type == domain.Credit {
			reversalType = domain.Debit
			if wallet.Balance.LessThan(original.Amount) {
				return fmt.Errorf("%w: cannot reverse credit of %s, balance is %s", ErrInsufficientBalance, original.Amount.String(), wallet.Balance.String())
			}
			newBalance = wallet.Balance.Sub(original.Amount)
		}

		// Flip the original first; the guarded update loses against a
		// concurrent reversal that committed between our read and our lock.
		now := time.Now().UTC()
		if err := s.walletRepo.MarkTransactionReversedInTx(ctx, tx, original.TransactionID, actorID, now); err != nil {
			if errors.Is(err, apperrors.ErrConflict) {
				return fmt.Errorf("%w: transaction %s", ErrAlreadyReversed, original.TransactionID)
			}
			return fmt.Errorf("failed to mark transaction %s reversed: %w", original.TransactionID, err)
		}

		description := fmt.Sprintf("Reversal of: %s", original.Description)
		txn := s.newLedgerEntry(wallet.WalletID, reversalType, original.Amount, newBalance, description, domain.ReasonReversal, domain.ReversalOf(original.TransactionID), nil, actorID)

		if err := s.walletRepo.InsertTransactionInTx(ctx, tx, txn); err != nil {
			return fmt.Errorf("failed to insert reversal entry for transaction %s: %w", original.TransactionID, err)
		}
		if err := s.walletRepo.UpdateWalletBalanceInTx(ctx, tx, wallet.WalletID, newBalance, actorID, txn.CreatedAt); err != nil {
			return fmt.Errorf("failed to update balance for wallet %s: %w", wallet.WalletID, err)
		}

		entry = &txn
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Transaction reversed",
		slog.String("original_transaction_id", transactionID),
		slog.String("reversal_transaction_id", entry.TransactionID),
		slog.String("amount", original.Amount.String()),
	)
	return entry, nil
}

// SuspendWallet blocks future debits. Credits still land.
func (s *walletService) SuspendWallet(ctx context.Context, walletID string, actorID string) (*domain.Wallet, error) {
	return s.transitionStatus(ctx, walletID, domain.WalletSuspended, actorID)
}

// ActivateWallet re-enables debits on a suspended wallet.
func (s *walletService) ActivateWallet(ctx context.Context, walletID string, actorID string) (*domain.Wallet, error) {
	return s.transitionStatus(ctx, walletID, domain.WalletActive, actorID)
}

// CloseWallet permanently retires a wallet. Closed is terminal: no further
// credits or debits, and no reopening.
func (s *walletService) CloseWallet(ctx context.Context, walletID string, actorID string) (*domain.Wallet, error) {
	return s.transitionStatus(ctx, walletID, domain.WalletClosed, actorID)
}

// transitionStatus applies an administrative status change under the wallet
// lock. Status changes never touch the balance or the transaction history.
func (s *walletService) transitionStatus(ctx context.Context, walletID string, target domain.WalletStatus, actorID string) (*domain.Wallet, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	var updated *domain.Wallet
	err := s.withWalletLock(ctx, walletID, func(tx pgx.Tx, wallet *domain.Wallet) error {
		if wallet.Status == domain.WalletClosed {
			return fmt.Errorf("cannot transition wallet %s: %w", walletID, ErrWalletClosed)
		}
		if wallet.Status == target {
			updated = wallet
			return nil
		}
		if target == domain.WalletActive && wallet.Status != domain.WalletSuspended {
			return fmt.Errorf("%w: wallet %s is %s", apperrors.ErrConflict, walletID, wallet.Status)
		}

		now := time.Now().UTC()
		if err := s.walletRepo.UpdateWalletStatusInTx(ctx, tx, walletID, target, actorID, now); err != nil {
			return fmt.Errorf("failed to update status of wallet %s: %w", walletID, err)
		}
		wallet.Status = target
		wallet.LastUpdatedAt = now
		wallet.LastUpdatedBy = actorID
		updated = wallet
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Wallet status changed", slog.String("wallet_id", walletID), slog.String("status", string(target)))
	return updated, nil
}

// GetTransactionByID retrieves a single ledger entry.
func (s *walletService) GetTransactionByID(ctx context.Context, transactionID string) (*domain.WalletTransaction, error) {
	txn, err := s.walletRepo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find transaction %s: %w", transactionID, err)
	}
	return txn, nil
}

// ListTransactionsByWallet retrieves a page of a wallet's history, newest first.
func (s *walletService) ListTransactionsByWallet(ctx context.Context, walletID string, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	// Ensure the wallet exists so an unknown id is NotFound, not an empty page.
	if _, err := s.walletRepo.FindWalletByID(ctx, walletID); err != nil {
		return nil, fmt.Errorf("failed to find wallet %s: %w", walletID, err)
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}

	transactions, nextToken, err := s.walletRepo.ListTransactionsByWalletID(ctx, walletID, limit, params.NextToken)
	if err != nil {
		logger.Error("Failed to list wallet transactions", slog.String("error", err.Error()), slog.String("wallet_id", walletID))
		return nil, fmt.Errorf("failed to retrieve transactions: %w", err)
	}

	return &dto.ListTransactionsResponse{
		Transactions: dto.ToTransactionResponses(transactions),
		NextToken:    nextToken,
	}, nil
}

// newLedgerEntry builds a COMPLETED ledger entry. Operations are synchronous;
// there is no pending-settlement window in this design.
func (s *walletService) newLedgerEntry(walletID string, txnType domain.TransactionType, amount, runningBalance decimal.Decimal, description, reasonCode string, reference *domain.Reference, metadata map[string]string, actorID string) domain.WalletTransaction {
	now := time.Now().UTC()
	var processedBy *string
	if actorID != "" {
		processedBy = &actorID
	}
	return domain.WalletTransaction{
		TransactionID:  uuid.NewString(),
		WalletID:       walletID,
		Type:           txnType,
		Amount:         amount,
		Status:         domain.TransactionCompleted,
		ReasonCode:     reasonCode,
		Description:    description,
		Reference:      reference,
		Metadata:       metadata,
		ProcessedBy:    processedBy,
		RunningBalance: runningBalance,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actorID,
			LastUpdatedAt: now,
			LastUpdatedBy: actorID,
		},
	}
}

// withWalletLock runs fn inside a storage transaction holding the exclusive
// row lock for the wallet. Any error from fn rolls the whole operation back,
// so a ledger entry without its balance update (or vice versa) can never be
// observed.
func (s *walletService) withWalletLock(ctx context.Context, walletID string, fn func(tx pgx.Tx, wallet *domain.Wallet) error) error {
	tx, err := s.walletRepo.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin ledger transaction: %w", err)
	}
	defer s.walletRepo.Rollback(ctx, tx) // no-op once committed

	wallet, err := s.walletRepo.FindWalletByIDForUpdate(ctx, tx, walletID)
	if err != nil {
		return fmt.Errorf("failed to lock wallet %s: %w", walletID, err)
	}

	if err := fn(tx, wallet); err != nil {
		return err
	}

	if err := s.walletRepo.Commit(ctx, tx); err != nil {
		return fmt.Errorf("failed to commit ledger transaction for wallet %s: %w", walletID, err)
	}
	return nil
}
