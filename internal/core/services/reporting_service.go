package services

import (
	"context"
	"fmt"
	"log/slog"

	portsrepo "github.com/tripkoro/wallet_ledger_svc/internal/core/ports/repositories"
	portssvc "github.com/tripkoro/wallet_ledger_svc/internal/core/ports/services"
	"github.com/tripkoro/wallet_ledger_svc/internal/dto"
	"github.com/tripkoro/wallet_ledger_svc/internal/middleware"
)

// reportingService serves ledger-wide aggregates. Reads are snapshot
// consistent at best; nothing here holds wallet locks.
type reportingService struct {
	reportingRepo portsrepo.ReportingRepository
}

// NewReportingService creates a new reporting service.
func NewReportingService(reportingRepo portsrepo.ReportingRepository) portssvc.ReportingSvcFacade {
	return &reportingService{reportingRepo: reportingRepo}
}

var _ portssvc.ReportingSvcFacade = (*reportingService)(nil)

// GetWalletStats returns total balance, wallet counts by status, and
// transaction counts/sums, optionally with a per-reason-code breakdown.
func (s *reportingService) GetWalletStats(ctx context.Context, includeReasonBreakdown bool) (*dto.WalletStatsResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	stats, err := s.reportingRepo.GetWalletStats(ctx)
	if err != nil {
		logger.Error("Failed to fetch wallet stats", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to retrieve wallet stats: %w", err)
	}

	if includeReasonBreakdown {
		reasonTotals, err := s.reportingRepo.GetReasonCodeTotals(ctx)
		if err != nil {
			logger.Error("Failed to fetch reason code totals", slog.String("error", err.Error()))
			return nil, fmt.Errorf("failed to retrieve reason code totals: %w", err)
		}
		resp := dto.ToWalletStatsResponse(stats, reasonTotals)
		return &resp, nil
	}

	resp := dto.ToWalletStatsResponse(stats, nil)
	return &resp, nil
}
