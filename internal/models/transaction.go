package models

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

// WalletTransaction is the persistence shape of one ledger entry.
// Reference is flattened to kind+id columns; Metadata is stored as JSONB.
type WalletTransaction struct {
	TransactionID string            `db:"transaction_id"`
	WalletID      string            `db:"wallet_id"`
	Type          TransactionType   `db:"transaction_type"`
	Amount        decimal.Decimal   `db:"amount"` // Positive value
	Status        TransactionStatus `db:"status"`
	ReasonCode    string            `db:"reason_code"`
	Description   string            `db:"description"`
	ReferenceKind *string           `db:"reference_kind"` // Nullable
	ReferenceID   *string           `db:"reference_id"`   // Nullable
	Metadata      map[string]string `db:"metadata"`       // JSONB
	ProcessedBy   *string           `db:"processed_by"`   // Nullable
	AuditFields
	RunningBalance decimal.Decimal `db:"running_balance"` // Balance after this transaction
}
