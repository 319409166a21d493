package services

import (
	"context"
	"time"

	"github.com/tripkoro/wallet_ledger_svc/internal/core/domain"
)

// ServiceTokenSvc manages opaque tokens for internal caller services.
type ServiceTokenSvc interface {
	// CreateToken mints a token for a caller service; the plaintext secret is
	// returned once and never stored.
	CreateToken(ctx context.Context, serviceID, name string, expiresIn *time.Duration) (string, *domain.ServiceToken, error)

	// ListTokens returns all tokens for a caller service.
	ListTokens(ctx context.Context, serviceID string) ([]domain.ServiceToken, error)

	// RevokeToken deletes a specific token.
	RevokeToken(ctx context.Context, serviceID, tokenID string) error

	// ValidateToken checks a presented credential and returns the caller's
	// service id on success.
	ValidateToken(ctx context.Context, tokenString string) (string, error)
}
