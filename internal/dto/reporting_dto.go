package dto

import (
	"github.com/shopspring/decimal"

	"github.com/tripkoro/wallet_ledger_svc/internal/core/domain"
)

// WalletStatsResponse is the reporting payload for ledger-wide aggregates.
type WalletStatsResponse struct {
	TotalBalance      decimal.Decimal  `json:"totalBalance"`
	WalletCounts      map[string]int64 `json:"walletCounts"`
	TransactionCounts map[string]int64 `json:"transactionCounts"`
	TotalCredited     decimal.Decimal  `json:"totalCredited"`
	TotalDebited      decimal.Decimal  `json:"totalDebited"`
	ReasonCodeTotals  []ReasonCodeRow  `json:"reasonCodeTotals,omitempty"`
}

// ReasonCodeRow is one line of the per-reason-code breakdown.
type ReasonCodeRow struct {
	ReasonCode string          `json:"reasonCode"`
	Type       string          `json:"type"`
	Count      int64           `json:"count"`
	Total      decimal.Decimal `json:"total"`
}

// ToWalletStatsResponse converts domain stats plus the optional reason-code
// breakdown to the response DTO.
func ToWalletStatsResponse(s *domain.WalletStats, reasons []domain.ReasonCodeTotal) WalletStatsResponse {
	resp := WalletStatsResponse{
		TotalBalance:      s.TotalBalance,
		WalletCounts:      make(map[string]int64, len(s.WalletCounts)),
		TransactionCounts: make(map[string]int64, len(s.TransactionCounts)),
		TotalCredited:     s.TotalCredited,
		TotalDebited:      s.TotalDebited,
	}
	for status, count := range s.WalletCounts {
		resp.WalletCounts[string(status)] = count
	}
	for status, count := range s.TransactionCounts {
		resp.TransactionCounts[string(status)] = count
	}
	for _, r := range reasons {
		resp.ReasonCodeTotals = append(resp.ReasonCodeTotals, ReasonCodeRow{
			ReasonCode: r.ReasonCode,
			Type:       string(r.Type),
			Count:      r.Count,
			Total:      r.Total,
		})
	}
	return resp
}
