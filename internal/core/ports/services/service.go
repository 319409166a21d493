package services

// ServiceContainer holds all service facades handed to the HTTP layer.
type ServiceContainer struct {
	Wallet       WalletSvcFacade
	Reporting    ReportingSvcFacade
	ServiceToken ServiceTokenSvc
}
