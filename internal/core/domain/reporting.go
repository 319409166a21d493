package domain

import "github.com/shopspring/decimal"

// WalletStats aggregates ledger-wide figures for reporting. These are
// eventually-consistent reads; nothing here participates in balance
// correctness.
type WalletStats struct {
	TotalBalance      decimal.Decimal             `json:"totalBalance"`
	WalletCounts      map[WalletStatus]int64      `json:"walletCounts"`
	TransactionCounts map[TransactionStatus]int64 `json:"transactionCounts"`
	TotalCredited     decimal.Decimal             `json:"totalCredited"` // Sum of completed credits
	TotalDebited      decimal.Decimal             `json:"totalDebited"`  // Sum of completed debits
}

// ReasonCodeTotal is one row of the per-reason-code breakdown.
type ReasonCodeTotal struct {
	ReasonCode string          `json:"reasonCode"`
	Type       TransactionType `json:"type"`
	Count      int64           `json:"count"`
	Total      decimal.Decimal `json:"total"`
}
