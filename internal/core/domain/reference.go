package domain

import "fmt"

// ReferenceKind enumerates the entity kinds a wallet transaction may point at
// as its cause. A closed set (rather than a loose type+id string pair) keeps
// reference handling exhaustive at compile time.
type ReferenceKind string

const (
	RefReward              ReferenceKind = "REWARD"
	RefJobApplication      ReferenceKind = "JOB_APPLICATION"
	RefAdminAdjustment     ReferenceKind = "ADMIN_ADJUSTMENT"
	RefReferral            ReferenceKind = "REFERRAL"
	RefTransactionReversal ReferenceKind = "TRANSACTION_REVERSAL"
)

// Reference identifies the entity that caused a wallet transaction.
type Reference struct {
	Kind ReferenceKind `json:"kind"`
	ID   string        `json:"id"`
}

// ReversalOf builds the reference a reversal record carries back to the
// transaction it reverses.
func ReversalOf(transactionID string) *Reference {
	return &Reference{Kind: RefTransactionReversal, ID: transactionID}
}

// ParseReferenceKind validates a reference kind supplied by a caller.
func ParseReferenceKind(s string) (ReferenceKind, error) {
	switch ReferenceKind(s) {
	case RefReward, RefJobApplication, RefAdminAdjustment, RefReferral, RefTransactionReversal:
		return ReferenceKind(s), nil
	}
	return "", fmt.Errorf("unknown reference kind %q", s)
}
