package loot

import (
	"errors"
	"fmt"
)

// Domain-level error values returned by the loot service.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUpstream           = errors.New("billing upstream error")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")

	ErrCaseNotFound      = errors.New("case not found")
	ErrItemNotFound      = errors.New("item not found")
	ErrAlreadyOpened     = errors.New("case already opened for period")
	ErrNotEnoughDeposit  = errors.New("not enough deposit")
	ErrCaseEmpty         = errors.New("case has no eligible items")
	ErrCaseMisconfigured = errors.New("case has zero total weight")
	ErrOpenFailed        = errors.New("case open failed")
	ErrOutOfStock        = errors.New("item out of stock")

	ErrInventoryNotFound = errors.New("inventory entry not found")
	ErrNotAvailable      = errors.New("inventory entry not available")
	ErrCannotSellMoney   = errors.New("money prizes cannot be sold")
	ErrTradeLinkMissing  = errors.New("trade link missing")
	ErrRequestNotFound   = errors.New("redemption request not found")
	ErrRequestClosed     = errors.New("redemption request closed")
	ErrDuplicateRequest  = errors.New("redemption request id already exists")

	ErrInvalidUserID          = errors.New("invalid user id")
	ErrInvalidItemType        = errors.New("invalid item type")
	ErrInvalidCaseType        = errors.New("invalid case type")
	ErrInvalidInventoryStatus = errors.New("invalid inventory status")
	ErrInvalidRequestStatus   = errors.New("invalid request status")
	ErrInvalidItem            = errors.New("invalid item")
	ErrInvalidCase            = errors.New("invalid case")
	ErrInvalidCaseItem        = errors.New("invalid case item")
	ErrInvalidTradeLink       = errors.New("invalid trade link")
	ErrInvalidServiceConfig   = errors.New("invalid service config")
)

// OperationError wraps a failure with a stable operation code.
type OperationError struct {
	operation string
	subject   string
	code      string
	err       error
}

// Error returns the formatted error message.
func (operationError OperationError) Error() string {
	return fmt.Sprintf("%s.%s.%s: %v", operationError.operation, operationError.subject, operationError.code, operationError.err)
}

// Unwrap returns the underlying error.
func (operationError OperationError) Unwrap() error {
	return operationError.err
}

// Operation returns the operation segment.
func (operationError OperationError) Operation() string {
	return operationError.operation
}

// Subject returns the subject segment.
func (operationError OperationError) Subject() string {
	return operationError.subject
}

// Code returns the stable error code segment.
func (operationError OperationError) Code() string {
	return operationError.code
}

// WrapError wraps an error with operation, subject, and code metadata.
func WrapError(operation string, subject string, code string, err error) error {
	if err == nil {
		return nil
	}
	return OperationError{
		operation: operation,
		subject:   subject,
		code:      code,
		err:       err,
	}
}
