package loot

import (
	"context"

	"github.com/shopspring/decimal"
)

// OperationLogger records domain-level events emitted by Service operations.
type OperationLogger interface {
	LogOperation(ctx context.Context, entry OperationLog)
}

// OperationLog describes a state-changing loot operation.
type OperationLog struct {
	Operation   string
	UserID      UserID
	CaseID      int64
	ItemID      int64
	InventoryID int64
	RequestID   string
	PeriodKey   string
	Amount      decimal.Decimal
	Status      string
	Error       error
}

// CreditRequester asks the billing side to credit a user's wallet.
// Crediting is an external effect; the service only records the request.
type CreditRequester interface {
	RequestCredit(ctx context.Context, userID UserID, amount decimal.Decimal, reason string) error
}

type noopCreditRequester struct{}

func (noopCreditRequester) RequestCredit(context.Context, UserID, decimal.Decimal, string) error {
	return nil
}
