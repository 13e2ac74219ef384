package oplog

import (
	"context"
	"errors"
	"testing"

	"github.com/MarkoPoloResearchLab/lootcase/pkg/loot"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapOperationLoggerLevels(test *testing.T) {
	test.Parallel()
	core, logs := observer.New(zapcore.DebugLevel)
	operationLogger := NewZapOperationLogger(zap.New(core))
	userID, err := loot.NewUserID("user-1")
	require.NoError(test, err)

	operationLogger.LogOperation(context.Background(), loot.OperationLog{
		Operation: "open_case",
		Status:    "ok",
		UserID:    userID,
		CaseID:    4,
		PeriodKey: "2026-03-10",
		Amount:    decimal.NewFromInt(5),
	})
	operationLogger.LogOperation(context.Background(), loot.OperationLog{
		Operation: "sell",
		Status:    "error",
		Error:     loot.ErrCannotSellMoney,
	})

	entries := logs.AllUntimed()
	require.Len(test, entries, 2)
	require.Equal(test, zapcore.InfoLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	require.Equal(test, "open_case", fields["operation"])
	require.Equal(test, "user-1", fields["user_uuid"])
	require.Equal(test, int64(4), fields["case_id"])
	require.Equal(test, "5.00", fields["amount"])
	require.NotContains(test, fields, "item_id")

	require.Equal(test, zapcore.WarnLevel, entries[1].Level)
	require.Equal(test, loot.ErrCannotSellMoney.Error(), entries[1].ContextMap()["error"])
}

func TestDegradedAndCreditRequests(test *testing.T) {
	test.Parallel()
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)
	userID, err := loot.NewUserID("user-2")
	require.NoError(test, err)

	NewZapOperationLogger(logger).Degraded(context.Background(), "progress", errors.New("timeout"))
	require.NoError(test, NewZapCreditRequester(logger).RequestCredit(context.Background(), userID, decimal.RequireFromString("7.5"), "inventory_sell"))

	require.Equal(test, 1, logs.FilterMessage("billing degraded to safe default").Len())
	credits := logs.FilterMessage("wallet credit requested").AllUntimed()
	require.Len(test, credits, 1)
	require.Equal(test, "7.50", credits[0].ContextMap()["amount"])
	require.Equal(test, "inventory_sell", credits[0].ContextMap()["reason"])
}
