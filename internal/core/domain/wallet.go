package domain

import (
	"github.com/shopspring/decimal"
)

// WalletStatus indicates the lifecycle state of a wallet.
type WalletStatus string

const (
	WalletActive    WalletStatus = "ACTIVE"
	WalletSuspended WalletStatus = "SUSPENDED"
	WalletClosed    WalletStatus = "CLOSED"
)

// DefaultCurrencyCode is the single ledger currency. The ledger does not
// convert between currencies; every wallet carries this code.
const DefaultCurrencyCode = "BDT"

// Wallet is the single balance holder for one user. Balance is a cached
// projection of the completed transaction history and must stay rebuildable
// from that history alone.
type Wallet struct {
	WalletID     string          `json:"walletID"` // Primary Key (UUID)
	UserID       string          `json:"userID"`   // Owning user, unique per wallet
	Balance      decimal.Decimal `json:"balance"`
	CurrencyCode string          `json:"currencyCode"`
	Status       WalletStatus    `json:"status"`
	AuditFields
}

// CanCredit reports whether the wallet may receive funds. Suspended wallets
// still accept credits; suspension freezes spending, not incoming money.
func (w *Wallet) CanCredit() bool {
	return w.Status != WalletClosed
}

// CanDebit reports whether funds may leave the wallet.
func (w *Wallet) CanDebit() bool {
	return w.Status == WalletActive
}
