package services

import (
	"context"

	"github.com/tripkoro/wallet_ledger_svc/internal/core/domain"
	"github.com/tripkoro/wallet_ledger_svc/internal/dto"
)

// WalletReaderSvc defines read-only wallet operations.
type WalletReaderSvc interface {
	GetWalletByID(ctx context.Context, walletID string) (*domain.Wallet, error)
	GetWalletByUserID(ctx context.Context, userID string) (*domain.Wallet, error)
	GetTransactionByID(ctx context.Context, transactionID string) (*domain.WalletTransaction, error)
	ListTransactionsByWallet(ctx context.Context, walletID string, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error)
}

// WalletLedgerSvc defines the balance-mutating operations. It is the sole
// authority over wallet balances: every mutation is backed by exactly one
// ledger entry written in the same storage transaction.
type WalletLedgerSvc interface {
	CreateWallet(ctx context.Context, req dto.CreateWalletRequest, actorID string) (*domain.Wallet, error)
	CreditWallet(ctx context.Context, walletID string, req dto.CreditWalletRequest, actorID string) (*domain.Wallet, *domain.WalletTransaction, error)
	DebitWallet(ctx context.Context, walletID string, req dto.DebitWalletRequest, actorID string) (*domain.Wallet, *domain.WalletTransaction, error)
	ReverseTransaction(ctx context.Context, transactionID string, actorID string) (*domain.WalletTransaction, error)
}

// WalletAdminSvc defines administrative status transitions. These never touch
// balances or transaction history.
type WalletAdminSvc interface {
	SuspendWallet(ctx context.Context, walletID string, actorID string) (*domain.Wallet, error)
	ActivateWallet(ctx context.Context, walletID string, actorID string) (*domain.Wallet, error)
	CloseWallet(ctx context.Context, walletID string, actorID string) (*domain.Wallet, error)
}

// WalletSvcFacade combines all wallet service interfaces.
type WalletSvcFacade interface {
	WalletReaderSvc
	WalletLedgerSvc
	WalletAdminSvc
}
