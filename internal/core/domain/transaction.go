package domain

import (
	"github.com/shopspring/decimal"
)

// TransactionType indicates whether a wallet transaction is a Credit or a Debit.
type TransactionType string

const (
	Credit TransactionType = "CREDIT"
	Debit  TransactionType = "DEBIT"
)

// TransactionStatus indicates the state of a wallet transaction record.
type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "PENDING"
	TransactionCompleted TransactionStatus = "COMPLETED"
	TransactionReversed  TransactionStatus = "REVERSED"
	TransactionFailed    TransactionStatus = "FAILED"
)

// Well-known reason codes. Reason codes are free-form categories; these
// constants cover the flows the platform ships with.
const (
	ReasonManualAdjustment  = "manual_adjustment"
	ReasonReferralBonus     = "referral_bonus"
	ReasonJobApplicationFee = "job_application_fee"
	ReasonReward            = "reward"
	ReasonInitialFunding    = "initial_funding"
	ReasonReversal          = "reversal"
)

// WalletTransaction is an immutable record of one balance-affecting event.
// Once completed, amount and type never change; the only permitted mutation
// is the COMPLETED -> REVERSED status flip performed by a reversal.
type WalletTransaction struct {
	TransactionID string            `json:"transactionID"` // Primary Key (UUID)
	WalletID      string            `json:"walletID"`      // FK -> Wallet.walletID (Not Null)
	Type          TransactionType   `json:"type"`          // CREDIT or DEBIT (Not Null)
	Amount        decimal.Decimal   `json:"amount"`        // Positive value; precise decimal type
	Status        TransactionStatus `json:"status"`
	ReasonCode    string            `json:"reasonCode"`
	Description   string            `json:"description"`
	Reference     *Reference        `json:"reference,omitempty"` // Causing entity, if any
	Metadata      map[string]string `json:"metadata,omitempty"`  // Admin note, processor id, etc.
	ProcessedBy   *string           `json:"processedBy,omitempty"`
	AuditFields
	RunningBalance decimal.Decimal `json:"runningBalance"` // Wallet balance after this transaction
}

// SignedAmount returns the amount with the sign it contributes to the wallet
// balance: positive for credits, negative for debits.
func (t *WalletTransaction) SignedAmount() decimal.Decimal {
	if t.Type == Debit {
		return t.Amount.Neg()
	}
	return t.Amount
}

// IsReversal reports whether this record was created to reverse another one.
func (t *WalletTransaction) IsReversal() bool {
	return t.Reference != nil && t.Reference.Kind == RefTransactionReversal
}
