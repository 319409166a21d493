package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tripkoro/wallet_ledger_svc/internal/core/domain"
)

// TransactionResponse defines the ledger entry data returned by the API.
type TransactionResponse struct {
	TransactionID  string                   `json:"transactionID"`
	WalletID       string                   `json:"walletID"`
	Type           domain.TransactionType   `json:"type"`
	Amount         decimal.Decimal          `json:"amount"`
	Status         domain.TransactionStatus `json:"status"`
	ReasonCode     string                   `json:"reasonCode"`
	Description    string                   `json:"description"`
	Reference      *ReferenceDTO            `json:"reference,omitempty"`
	Metadata       map[string]string        `json:"metadata,omitempty"`
	ProcessedBy    *string                  `json:"processedBy,omitempty"`
	RunningBalance decimal.Decimal          `json:"runningBalance"`
	CreatedAt      time.Time                `json:"createdAt"`
}

// WalletOperationResponse is returned by credit/debit operations: the updated
// wallet together with the ledger entry that backs the balance change.
type WalletOperationResponse struct {
	Wallet      WalletResponse      `json:"wallet"`
	Transaction TransactionResponse `json:"transaction"`
}

// ListTransactionsParams holds parameters for listing a wallet's history.
type ListTransactionsParams struct {
	Limit     int     `form:"limit"`
	NextToken *string `form:"nextToken"`
}

// ListTransactionsResponse is a page of ledger entries plus the next-page token.
type ListTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	NextToken    *string               `json:"nextToken,omitempty"`
}

// ToTransactionResponse converts a domain ledger entry to its response DTO.
func ToTransactionResponse(t *domain.WalletTransaction) TransactionResponse {
	resp := TransactionResponse{
		TransactionID:  t.TransactionID,
		WalletID:       t.WalletID,
		Type:           t.Type,
		Amount:         t.Amount,
		Status:         t.Status,
		ReasonCode:     t.ReasonCode,
		Description:    t.Description,
		Metadata:       t.Metadata,
		ProcessedBy:    t.ProcessedBy,
		RunningBalance: t.RunningBalance,
		CreatedAt:      t.CreatedAt,
	}
	if t.Reference != nil {
		resp.Reference = &ReferenceDTO{Kind: string(t.Reference.Kind), ID: t.Reference.ID}
	}
	return resp
}

// ToTransactionResponses converts a slice of domain ledger entries.
func ToTransactionResponses(ts []domain.WalletTransaction) []TransactionResponse {
	out := make([]TransactionResponse, len(ts))
	for i := range ts {
		out[i] = ToTransactionResponse(&ts[i])
	}
	return out
}
