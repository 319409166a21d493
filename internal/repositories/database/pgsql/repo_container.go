package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/tripkoro/wallet_ledger_svc/internal/core/ports/repositories"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	walletRepo := newPgxWalletRepository(dbPool)
	reportingRepo := newReportingRepository(dbPool)
	serviceTokenRepo := newPgxServiceTokenRepository(dbPool)

	return portsrepo.RepositoryProvider{
		WalletRepo:       walletRepo,
		ReportingRepo:    reportingRepo,
		ServiceTokenRepo: serviceTokenRepo,
	}
}
