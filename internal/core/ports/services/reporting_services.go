package services

import (
	"context"

	"github.com/tripkoro/wallet_ledger_svc/internal/dto"
)

// ReportingSvcFacade exposes ledger-wide aggregates for admin dashboards.
type ReportingSvcFacade interface {
	GetWalletStats(ctx context.Context, includeReasonBreakdown bool) (*dto.WalletStatsResponse, error)
}
