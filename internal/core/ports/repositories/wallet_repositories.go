package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/tripkoro/wallet_ledger_svc/internal/core/domain"
)

// WalletReader defines read operations for wallet data
type WalletReader interface {
	// FindWalletByID retrieves a specific wallet by its unique identifier.
	FindWalletByID(ctx context.Context, walletID string) (*domain.Wallet, error)

	// FindWalletByUserID retrieves the wallet owned by the given user.
	FindWalletByUserID(ctx context.Context, userID string) (*domain.Wallet, error)
}

// WalletWriter defines write operations for wallet data
type WalletWriter interface {
	// SaveWallet persists a new wallet.
	SaveWallet(ctx context.Context, wallet domain.Wallet) error
}

// WalletTransactionSupport defines the in-transaction primitives the ledger
// engine composes inside one locked critical section.
type WalletTransactionSupport interface {
	// FindWalletByIDForUpdate selects the wallet row and locks it for update.
	// Must be called within a transaction.
	FindWalletByIDForUpdate(ctx context.Context, tx pgx.Tx, walletID string) (*domain.Wallet, error)

	// UpdateWalletBalanceInTx writes the new cached balance within the given transaction.
	UpdateWalletBalanceInTx(ctx context.Context, tx pgx.Tx, walletID string, newBalance decimal.Decimal, updatedBy string, updatedAt time.Time) error

	// UpdateWalletStatusInTx transitions a wallet's status within the given
	// transaction. Never touches the balance.
	UpdateWalletStatusInTx(ctx context.Context, tx pgx.Tx, walletID string, status domain.WalletStatus, updatedBy string, updatedAt time.Time) error

	// InsertTransactionInTx appends one ledger entry within the given transaction.
	InsertTransactionInTx(ctx context.Context, tx pgx.Tx, txn domain.WalletTransaction) error

	// MarkTransactionReversedInTx flips a COMPLETED entry to REVERSED within the
	// given transaction. Returns apperrors.ErrConflict if the entry is no longer
	// COMPLETED, so a concurrent double reversal loses the race.
	MarkTransactionReversedInTx(ctx context.Context, tx pgx.Tx, transactionID string, updatedBy string, updatedAt time.Time) error
}

// LedgerEntryReader defines read operations for wallet transaction history
type LedgerEntryReader interface {
	// FindTransactionByID retrieves a specific ledger entry.
	FindTransactionByID(ctx context.Context, transactionID string) (*domain.WalletTransaction, error)

	// ListTransactionsByWalletID retrieves a paginated list of ledger entries for
	// a wallet, newest first, using token-based pagination.
	ListTransactionsByWalletID(ctx context.Context, walletID string, limit int, nextToken *string) ([]domain.WalletTransaction, *string, error)
}

// WalletRepositoryFacade combines all wallet-related repository interfaces.
type WalletRepositoryFacade interface {
	WalletReader
	WalletWriter
	WalletTransactionSupport
	LedgerEntryReader
}

// WalletRepositoryWithTx extends WalletRepositoryFacade with transaction capabilities
type WalletRepositoryWithTx interface {
	WalletRepositoryFacade
	TransactionManager
}
