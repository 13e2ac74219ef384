// Package oplog adapts loot service callbacks to zap.
package oplog

import (
	"context"

	"github.com/MarkoPoloResearchLab/lootcase/pkg/loot"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ZapOperationLogger writes one structured line per loot operation.
type ZapOperationLogger struct {
	logger *zap.Logger
}

// NewZapOperationLogger wraps logger; a nil logger discards output.
func NewZapOperationLogger(logger *zap.Logger) *ZapOperationLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapOperationLogger{logger: logger}
}

// LogOperation implements loot.OperationLogger.
func (operationLogger *ZapOperationLogger) LogOperation(_ context.Context, entry loot.OperationLog) {
	fields := []zap.Field{
		zap.String("operation", entry.Operation),
		zap.String("status", entry.Status),
	}
	if !entry.UserID.IsZero() {
		fields = append(fields, zap.String("user_uuid", entry.UserID.String()))
	}
	if entry.CaseID != 0 {
		fields = append(fields, zap.Int64("case_id", entry.CaseID))
	}
	if entry.ItemID != 0 {
		fields = append(fields, zap.Int64("item_id", entry.ItemID))
	}
	if entry.InventoryID != 0 {
		fields = append(fields, zap.Int64("inventory_id", entry.InventoryID))
	}
	if entry.RequestID != "" {
		fields = append(fields, zap.String("request_id", entry.RequestID))
	}
	if entry.PeriodKey != "" {
		fields = append(fields, zap.String("period_key", entry.PeriodKey))
	}
	if !entry.Amount.IsZero() {
		fields = append(fields, zap.String("amount", entry.Amount.StringFixed(2)))
	}
	if entry.Error != nil {
		fields = append(fields, zap.Error(entry.Error))
		operationLogger.logger.Warn("loot operation failed", fields...)
		return
	}
	operationLogger.logger.Info("loot operation", fields...)
}

// Degraded logs an upstream failure that was replaced by a safe default.
func (operationLogger *ZapOperationLogger) Degraded(_ context.Context, operation string, err error) {
	operationLogger.logger.Warn("billing degraded to safe default", zap.String("operation", operation), zap.Error(err))
}

// ZapCreditRequester records wallet credit requests in the log.
// Wallet crediting itself is performed by operators in the billing back office.
type ZapCreditRequester struct {
	logger *zap.Logger
}

// NewZapCreditRequester wraps logger; a nil logger discards output.
func NewZapCreditRequester(logger *zap.Logger) *ZapCreditRequester {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapCreditRequester{logger: logger}
}

// RequestCredit implements loot.CreditRequester.
func (requester *ZapCreditRequester) RequestCredit(_ context.Context, userID loot.UserID, amount decimal.Decimal, reason string) error {
	requester.logger.Info("wallet credit requested",
		zap.String("user_uuid", userID.String()),
		zap.String("amount", amount.StringFixed(2)),
		zap.String("reason", reason),
	)
	return nil
}
