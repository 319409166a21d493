package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tripkoro/wallet_ledger_svc/internal/core/domain"
)

// CreateWalletRequest defines the expected JSON body for creating a wallet.
// CurrencyCode is optional; the ledger currency is used when omitted.
type CreateWalletRequest struct {
	UserID       string `json:"userID" binding:"required"`
	CurrencyCode string `json:"currencyCode" binding:"omitempty,len=3"`
}

// ReferenceDTO carries the optional causing-entity reference on credit/debit requests.
type ReferenceDTO struct {
	Kind string `json:"kind" binding:"required"`
	ID   string `json:"id" binding:"required"`
}

// CreditWalletRequest defines the expected JSON body for crediting a wallet.
type CreditWalletRequest struct {
	Amount      decimal.Decimal   `json:"amount" binding:"required,amountgtzero"`
	Description string            `json:"description" binding:"required"`
	ReasonCode  string            `json:"reasonCode" binding:"required"`
	Reference   *ReferenceDTO     `json:"reference,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// DebitWalletRequest defines the expected JSON body for debiting a wallet.
type DebitWalletRequest struct {
	Amount      decimal.Decimal   `json:"amount" binding:"required,amountgtzero"`
	Description string            `json:"description" binding:"required"`
	ReasonCode  string            `json:"reasonCode" binding:"required"`
	Reference   *ReferenceDTO     `json:"reference,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// WalletResponse defines the wallet data returned by the API.
type WalletResponse struct {
	WalletID     string              `json:"walletID"`
	UserID       string              `json:"userID"`
	Balance      decimal.Decimal     `json:"balance"`
	CurrencyCode string              `json:"currencyCode"`
	Status       domain.WalletStatus `json:"status"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
}

// ToWalletResponse converts a domain wallet to its response DTO.
func ToWalletResponse(w *domain.Wallet) WalletResponse {
	return WalletResponse{
		WalletID:     w.WalletID,
		UserID:       w.UserID,
		Balance:      w.Balance,
		CurrencyCode: w.CurrencyCode,
		Status:       w.Status,
		CreatedAt:    w.CreatedAt,
		UpdatedAt:    w.LastUpdatedAt,
	}
}

// ToDomainReference converts the request reference, if present.
func (r *ReferenceDTO) ToDomainReference() (*domain.Reference, error) {
	if r == nil {
		return nil, nil
	}
	kind, err := domain.ParseReferenceKind(r.Kind)
	if err != nil {
		return nil, err
	}
	return &domain.Reference{Kind: kind, ID: r.ID}, nil
}
