package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/tripkoro/wallet_ledger_svc/internal/apperrors"
	"github.com/tripkoro/wallet_ledger_svc/internal/core/domain"
	portsrepo "github.com/tripkoro/wallet_ledger_svc/internal/core/ports/repositories"
	portssvc "github.com/tripkoro/wallet_ledger_svc/internal/core/ports/services"
	"github.com/tripkoro/wallet_ledger_svc/internal/utils"
)

const tokenPrefix = "wls_"

// serviceTokenService implements the ServiceTokenSvc interface
type serviceTokenService struct {
	tokenRepo portsrepo.ServiceTokenRepository
}

// NewServiceTokenService creates a new instance of serviceTokenService
func NewServiceTokenService(tokenRepo portsrepo.ServiceTokenRepository) portssvc.ServiceTokenSvc {
	return &serviceTokenService{tokenRepo: tokenRepo}
}

var _ portssvc.ServiceTokenSvc = (*serviceTokenService)(nil)

// CreateToken generates a new token for a caller service. The credential
// handed out is "<prefix><token id>.<secret>"; only a bcrypt hash of the
// secret is stored, so the plaintext is available exactly once.
func (s *serviceTokenService) CreateToken(ctx context.Context, serviceID, name string, expiresIn *time.Duration) (string, *domain.ServiceToken, error) {
	if serviceID == "" {
		return "", nil, fmt.Errorf("%w: service ID is required", apperrors.ErrValidation)
	}
	if name == "" {
		return "", nil, fmt.Errorf("%w: token name is required", apperrors.ErrValidation)
	}

	tokenID, err := utils.GenerateSecureRandomString(8)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token id: %w", err)
	}
	secret, err := utils.GenerateSecureRandomString(32) // 32 bytes = 256 bits
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token secret: %w", err)
	}

	secretHash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", nil, fmt.Errorf("failed to hash token secret: %w", err)
	}

	var expiresAt *time.Time
	if expiresIn != nil {
		expiry := time.Now().Add(*expiresIn)
		expiresAt = &expiry
	}

	now := time.Now().UTC()
	token := &domain.ServiceToken{
		ID:        tokenID,
		ServiceID: serviceID,
		Name:      name,
		TokenHash: string(secretHash),
		ExpiresAt: expiresAt,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.tokenRepo.Create(ctx, token); err != nil {
		return "", nil, fmt.Errorf("failed to save token: %w", err)
	}

	return tokenPrefix + tokenID + "." + secret, token, nil
}

// ListTokens returns all tokens for a caller service
func (s *serviceTokenService) ListTokens(ctx context.Context, serviceID string) ([]domain.ServiceToken, error) {
	if serviceID == "" {
		return nil, fmt.Errorf("%w: service ID is required", apperrors.ErrValidation)
	}

	tokens, err := s.tokenRepo.FindByServiceID(ctx, serviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tokens: %w", err)
	}
	return tokens, nil
}

// RevokeToken deletes a specific token belonging to the caller service
func (s *serviceTokenService) RevokeToken(ctx context.Context, serviceID, tokenID string) error {
	if serviceID == "" || tokenID == "" {
		return fmt.Errorf("%w: service ID and token ID are required", apperrors.ErrValidation)
	}

	token, err := s.tokenRepo.FindByID(ctx, tokenID)
	if err != nil {
		return fmt.Errorf("failed to find token: %w", err)
	}
	if token.ServiceID != serviceID {
		// Obscure existence of other services' tokens.
		return apperrors.ErrNotFound
	}

	if err := s.tokenRepo.Delete(ctx, tokenID); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// ValidateToken checks a presented credential and returns the caller's service id
func (s *serviceTokenService) ValidateToken(ctx context.Context, tokenString string) (string, error) {
	if !strings.HasPrefix(tokenString, tokenPrefix) {
		return "", errors.New("invalid token format")
	}
	tokenID, secret, found := strings.Cut(strings.TrimPrefix(tokenString, tokenPrefix), ".")
	if !found || tokenID == "" || secret == "" {
		return "", errors.New("invalid token format")
	}

	token, err := s.tokenRepo.FindByTokenID(ctx, tokenID)
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}

	if token.IsExpired() {
		// Auto-revoke expired tokens.
		_ = s.tokenRepo.Delete(ctx, token.ID)
		return "", errors.New("token has expired")
	}

	if bcrypt.CompareHashAndPassword([]byte(token.TokenHash), []byte(secret)) != nil {
		return "", errors.New("invalid token")
	}

	token.UpdateLastUsed()
	// Best effort; validation does not fail on a bookkeeping write.
	_ = s.tokenRepo.Update(ctx, token)

	return token.ServiceID, nil
}
