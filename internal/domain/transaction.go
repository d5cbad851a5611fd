package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// TransactionID identifies a deposit or withdrawal. Dispute, resolve and
// chargeback records reference the id of the transaction they act on.
type TransactionID uint32

// TransactionType is the closed set of record types the engine accepts.
type TransactionType string

const (
	TypeDeposit    TransactionType = "deposit"
	TypeWithdrawal TransactionType = "withdrawal"
	TypeDispute    TransactionType = "dispute"
	TypeResolve    TransactionType = "resolve"
	TypeChargeback TransactionType = "chargeback"
)

// ParseTransactionType maps a wire name onto a TransactionType.
func ParseTransactionType(s string) (TransactionType, error) {
	switch TransactionType(s) {
	case TypeDeposit, TypeWithdrawal, TypeDispute, TypeResolve, TypeChargeback:
		return TransactionType(s), nil
	}
	return "", fmt.Errorf("unknown transaction type %q", s)
}

// HasAmount reports whether records of this type carry an amount column.
func (t TransactionType) HasAmount() bool {
	return t == TypeDeposit || t == TypeWithdrawal
}

// Transaction is one well-formed input record. Amount is meaningful only when
// Type.HasAmount() is true.
type Transaction struct {
	Type          TransactionType
	ClientID      ClientID
	TransactionID TransactionID
	Amount        decimal.Decimal
}

// DisputeState tracks where a recorded deposit or withdrawal sits in its
// dispute lifecycle. Legal transitions are Normal→Disputed and then
// Disputed→Resolved or Disputed→ChargedBack; both end states are terminal.
type DisputeState uint8

const (
	StateNormal DisputeState = iota
	StateDisputed
	StateResolved
	StateChargedBack
)

func (s DisputeState) String() string {
	switch s {
	case StateNormal:
		return "normal"
	case StateDisputed:
		return "disputed"
	case StateResolved:
		return "resolved"
	case StateChargedBack:
		return "charged_back"
	}
	return fmt.Sprintf("dispute_state(%d)", uint8(s))
}

// TransactionEntry is the retained history for one applied deposit or
// withdrawal. Entries are never removed, so duplicate ids and out-of-order
// dispute operations can always be rejected.
type TransactionEntry struct {
	TransactionID TransactionID
	ClientID      ClientID
	Type          TransactionType
	Amount        decimal.Decimal
	State         DisputeState
}
