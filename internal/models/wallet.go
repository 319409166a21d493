package models

import (
	"github.com/shopspring/decimal"
)

// WalletStatus mirrors domain.WalletStatus for persistence.
type WalletStatus string

const (
	WalletActive    WalletStatus = "ACTIVE"
	WalletSuspended WalletStatus = "SUSPENDED"
	WalletClosed    WalletStatus = "CLOSED"
)

// Wallet is the persistence shape of a wallet row.
// Note: Balance must use a precise decimal type like github.com/shopspring/decimal
type Wallet struct {
	WalletID     string          `db:"wallet_id"`
	UserID       string          `db:"user_id"` // Unique FK -> users
	Balance      decimal.Decimal `db:"balance"`
	CurrencyCode string          `db:"currency_code"`
	Status       WalletStatus    `db:"status"`
	AuditFields
}
