package repositories

import (
	"context"

	"github.com/tripkoro/wallet_ledger_svc/internal/core/domain"
)

// ReportingRepository defines read-only aggregate queries over the ledger.
// These are reporting conveniences and may be eventually-consistent reads.
type ReportingRepository interface {
	// GetWalletStats aggregates total balance, wallet counts by status, and
	// transaction counts/sums by status and type.
	GetWalletStats(ctx context.Context) (*domain.WalletStats, error)

	// GetReasonCodeTotals breaks down completed transactions by reason code.
	GetReasonCodeTotals(ctx context.Context) ([]domain.ReasonCodeTotal, error)
}
