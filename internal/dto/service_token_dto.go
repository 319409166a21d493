package dto

import (
	"time"

	"github.com/tripkoro/wallet_ledger_svc/internal/core/domain"
)

// CreateServiceTokenRequest defines the body for minting a caller token.
type CreateServiceTokenRequest struct {
	ServiceID string `json:"serviceID" binding:"required"`
	Name      string `json:"name" binding:"required"`
	ExpiresIn string `json:"expiresIn" binding:"omitempty"` // Go duration string, e.g. "720h"
}

// ServiceTokenResponse describes a token without its secret.
type ServiceTokenResponse struct {
	ID         string     `json:"id"`
	ServiceID  string     `json:"serviceID"`
	Name       string     `json:"name"`
	LastUsedAt *time.Time `json:"lastUsedAt,omitempty"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// CreatedServiceTokenResponse additionally carries the plaintext secret.
// The secret is only available at creation time.
type CreatedServiceTokenResponse struct {
	ServiceTokenResponse
	Token string `json:"token"`
}

// ToServiceTokenResponse converts a domain token to its response DTO.
func ToServiceTokenResponse(t *domain.ServiceToken) ServiceTokenResponse {
	return ServiceTokenResponse{
		ID:         t.ID,
		ServiceID:  t.ServiceID,
		Name:       t.Name,
		LastUsedAt: t.LastUsedAt,
		ExpiresAt:  t.ExpiresAt,
		CreatedAt:  t.CreatedAt,
	}
}
