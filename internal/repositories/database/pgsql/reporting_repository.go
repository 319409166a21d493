package pgsql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/tripkoro/wallet_ledger_svc/internal/core/domain"
	portsrepo "github.com/tripkoro/wallet_ledger_svc/internal/core/ports/repositories"
)

// reportingRepository implements the ReportingRepository interface
type reportingRepository struct {
	BaseRepository
}

// newReportingRepository creates a new reporting repository
func newReportingRepository(db *pgxpool.Pool) portsrepo.ReportingRepository {
	return &reportingRepository{
		BaseRepository: BaseRepository{Pool: db},
	}
}

// GetWalletStats aggregates total balance, wallet counts by status, and
// completed transaction sums by type. These run over live tables without
// locks, so figures may trail in-flight transactions by a moment.
func (r *reportingRepository) GetWalletStats(ctx context.Context) (*domain.WalletStats, error) {
	stats := &domain.WalletStats{
		TotalBalance:      decimal.Zero,
		WalletCounts:      make(map[domain.WalletStatus]int64),
		TransactionCounts: make(map[domain.TransactionStatus]int64),
		TotalCredited:     decimal.Zero,
		TotalDebited:      decimal.Zero,
	}

	walletQuery := `
		SELECT status, COUNT(*), COALESCE(SUM(balance), 0)
		FROM wallets
		GROUP BY status
	`
	rows, err := r.Pool.Query(ctx, walletQuery)
	if err != nil {
		return nil, fmt.Errorf("error querying wallet stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int64
		var balanceSum decimal.Decimal
		if err := rows.Scan(&status, &count, &balanceSum); err != nil {
			return nil, fmt.Errorf("error scanning wallet stats row: %w", err)
		}
		stats.WalletCounts[domain.WalletStatus(status)] = count
		stats.TotalBalance = stats.TotalBalance.Add(balanceSum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wallet stats rows: %w", err)
	}

	txnQuery := `
		SELECT status, transaction_type, COUNT(*), COALESCE(SUM(amount), 0)
		FROM wallet_transactions
		GROUP BY status, transaction_type
	`
	txnRows, err := r.Pool.Query(ctx, txnQuery)
	if err != nil {
		return nil, fmt.Errorf("error querying transaction stats: %w", err)
	}
	defer txnRows.Close()

	for txnRows.Next() {
		var status, txnType string
		var count int64
		var amountSum decimal.Decimal
		if err := txnRows.Scan(&status, &txnType, &count, &amountSum); err != nil {
			return nil, fmt.Errorf("error scanning transaction stats row: %w", err)
		}
		stats.TransactionCounts[domain.TransactionStatus(status)] += count
		if status == string(domain.TransactionCompleted) {
			switch txnType {
			case string(domain.Credit):
				stats.TotalCredited = stats.TotalCredited.Add(amountSum)
			case string(domain.Debit):
				stats.TotalDebited = stats.TotalDebited.Add(amountSum)
			}
		}
	}
	if err := txnRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction stats rows: %w", err)
	}

	return stats, nil
}

// GetReasonCodeTotals breaks down completed transactions by reason code and type.
func (r *reportingRepository) GetReasonCodeTotals(ctx context.Context) ([]domain.ReasonCodeTotal, error) {
	query := `
		SELECT reason_code, transaction_type, COUNT(*), COALESCE(SUM(amount), 0)
		FROM wallet_transactions
		WHERE status = 'COMPLETED'
		GROUP BY reason_code, transaction_type
		ORDER BY reason_code, transaction_type
	`
	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying reason code totals: %w", err)
	}
	defer rows.Close()

	var result []domain.ReasonCodeTotal
	for rows.Next() {
		var row domain.ReasonCodeTotal
		var txnType string
		if err := rows.Scan(&row.ReasonCode, &txnType, &row.Count, &row.Total); err != nil {
			return nil, fmt.Errorf("error scanning reason code row: %w", err)
		}
		row.Type = domain.TransactionType(txnType)
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reason code rows: %w", err)
	}

	if len(result) == 0 {
		// Return empty slice instead of nil
		return []domain.ReasonCodeTotal{}, nil
	}
	return result, nil
}
