package errors

import (
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	InvalidAmount        ErrorCode = "invalid_amount"
	DuplicateTransaction ErrorCode = "duplicate_transaction"
	InsufficientFunds    ErrorCode = "insufficient_funds"
	AccountLocked        ErrorCode = "account_locked"
	TransactionNotFound  ErrorCode = "transaction_not_found"
	InvalidDisputeState  ErrorCode = "invalid_dispute_state"
	AccountNotFound      ErrorCode = "account_not_found"
	InvalidInput         ErrorCode = "invalid_input"
	InternalError        ErrorCode = "internal_error"
)

// AppError is the typed failure every ledger operation and handler returns.
// Errors with the same code compare equal under errors.Is regardless of
// message, so callers can match against the predefined vars below.
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

func NewAppError(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func NewAppErrorf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

func (e *AppError) WithDetails(details string) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
	}
}

// HTTPStatus maps the error code onto a response status for the HTTP surface.
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case InvalidAmount, InvalidInput, InvalidDisputeState:
		return http.StatusUnprocessableEntity
	case DuplicateTransaction:
		return http.StatusConflict
	case InsufficientFunds, AccountLocked:
		return http.StatusForbidden
	case TransactionNotFound, AccountNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Predefined errors for the ledger's business rules
var (
	ErrInvalidAmount        = NewAppError(InvalidAmount, "amount must be positive")
	ErrDuplicateTransaction = NewAppError(DuplicateTransaction, "transaction id already used")
	ErrInsufficientFunds    = NewAppError(InsufficientFunds, "not enough available funds")
	ErrAccountLocked        = NewAppError(AccountLocked, "account is locked")
	ErrTransactionNotFound  = NewAppError(TransactionNotFound, "transaction not found for client")
	ErrInvalidDisputeState  = NewAppError(InvalidDisputeState, "transaction is not in a state that allows this operation")
	ErrAccountNotFound      = NewAppError(AccountNotFound, "account not found")
)
