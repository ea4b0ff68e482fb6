// internal/services/errors.go
package services

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes a create-product failure for callers.
type ErrorKind string

const (
	KindInvalidDraft        ErrorKind = "INVALID_DRAFT"
	KindInvalidAmount       ErrorKind = "INVALID_AMOUNT"
	KindStorageUnavailable  ErrorKind = "STORAGE_UNAVAILABLE"
	KindTransactionRejected ErrorKind = "TRANSACTION_REJECTED"
	KindSubmissionFailed    ErrorKind = "SUBMISSION_FAILED"
	KindTransactionReverted ErrorKind = "TRANSACTION_REVERTED"
	KindConfirmationTimeout ErrorKind = "CONFIRMATION_TIMEOUT"
	KindPersistenceFailed   ErrorKind = "PERSISTENCE_FAILED"
	KindDuplicateProduct    ErrorKind = "DUPLICATE_PRODUCT"
	KindInternal            ErrorKind = "INTERNAL"
)

// WorkflowError is returned by every failing create-product step. It
// matches the Err* sentinels below with errors.Is by kind.
type WorkflowError struct {
	Kind  ErrorKind
	State WorkflowState
	Err   error
}

func (e *WorkflowError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	if e.State == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s during %s: %v", e.Kind, e.State, e.Err)
}

func (e *WorkflowError) Unwrap() error {
	return e.Err
}

func (e *WorkflowError) Is(target error) bool {
	t, ok := target.(*WorkflowError)
	return ok && t.Kind == e.Kind && t.Err == nil
}

var (
	ErrInvalidDraft        = &WorkflowError{Kind: KindInvalidDraft}
	ErrInvalidAmount       = &WorkflowError{Kind: KindInvalidAmount}
	ErrStorageUnavailable  = &WorkflowError{Kind: KindStorageUnavailable}
	ErrTransactionRejected = &WorkflowError{Kind: KindTransactionRejected}
	ErrSubmissionFailed    = &WorkflowError{Kind: KindSubmissionFailed}
	ErrTransactionReverted = &WorkflowError{Kind: KindTransactionReverted}
	ErrConfirmationTimeout = &WorkflowError{Kind: KindConfirmationTimeout}
	ErrPersistenceFailed   = &WorkflowError{Kind: KindPersistenceFailed}
	ErrDuplicateProduct    = &WorkflowError{Kind: KindDuplicateProduct}
)

// Collaborator-level errors, wrapped inside WorkflowError.Err.
var (
	ErrWalletNotConnected = errors.New("wallet not connected")
	ErrSignerDeclined     = errors.New("signer declined the transaction")
	ErrTxReverted         = errors.New("transaction reverted")
	ErrUnsupportedChain   = errors.New("unsupported chain")
	ErrRecordExists       = errors.New("product record already exists")
	ErrProductNotFound    = errors.New("product not found")
)

// KindOf returns the workflow error kind carried by err, if any.
func KindOf(err error) (ErrorKind, bool) {
	var werr *WorkflowError
	if errors.As(err, &werr) {
		return werr.Kind, true
	}
	return "", false
}
