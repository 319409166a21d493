package services

import (
	portsrepo "github.com/tripkoro/wallet_ledger_svc/internal/core/ports/repositories"
	portssvc "github.com/tripkoro/wallet_ledger_svc/internal/core/ports/services"
)

// NewContainer creates the service container with properly initialized dependencies.
func NewContainer(repos *portsrepo.RepositoryProvider, defaultCurrency string) *portssvc.ServiceContainer {
	return &portssvc.ServiceContainer{
		Wallet:       NewWalletService(repos.WalletRepo, defaultCurrency),
		Reporting:    NewReportingService(repos.ReportingRepo),
		ServiceToken: NewServiceTokenService(repos.ServiceTokenRepo),
	}
}
