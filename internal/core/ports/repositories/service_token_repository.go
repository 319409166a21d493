package repositories

import (
	"context"
	"time"

	"github.com/tripkoro/wallet_ledger_svc/internal/core/domain"
)

// ServiceTokenRepository defines the interface for service token data access operations
type ServiceTokenRepository interface {
	// Create persists a new service token
	Create(ctx context.Context, token *domain.ServiceToken) error

	// FindByID retrieves a service token by its ID
	FindByID(ctx context.Context, id string) (*domain.ServiceToken, error)

	// FindByServiceID retrieves all tokens for a specific caller service
	FindByServiceID(ctx context.Context, serviceID string) ([]domain.ServiceToken, error)

	// FindByTokenID looks a token up by the public id embedded in the presented credential
	FindByTokenID(ctx context.Context, tokenID string) (*domain.ServiceToken, error)

	// Update updates an existing token (e.g., to update last_used_at)
	Update(ctx context.Context, token *domain.ServiceToken) error

	// Delete removes a token by ID
	Delete(ctx context.Context, id string) error

	// DeleteExpired removes all tokens that expired before the given time
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
