package loot

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestPaymentIsDeposit(test *testing.T) {
	test.Parallel()
	cases := []struct {
		name    string
		payment Payment
		want    bool
	}{
		{name: "item type tag", payment: Payment{ItemType: "deposit", Title: "Card"}, want: true},
		{name: "english title", payment: Payment{Title: "Balance Top-Up"}, want: true},
		{name: "russian title", payment: Payment{Title: "Пополнение баланса"}, want: true},
		{name: "latvian title", payment: Payment{Title: "Konta papildināšana"}, want: true},
		{name: "purchase", payment: Payment{ItemType: "PRODUCT", Title: "Energy drink"}, want: false},
		{name: "session", payment: Payment{Title: "PC session 2h"}, want: false},
	}
	for _, testCase := range cases {
		testCase := testCase
		test.Run(testCase.name, func(test *testing.T) {
			test.Parallel()
			if got := testCase.payment.IsDeposit(); got != testCase.want {
				test.Fatalf("IsDeposit() = %v, want %v", got, testCase.want)
			}
		})
	}
}

func TestSumProgressExcludesReversedPayments(test *testing.T) {
	test.Parallel()
	payments := []Payment{
		{DateKey: "2026-03-10", ItemType: "DEPOSIT", Amount: decimal.RequireFromString("10.005")},
		{DateKey: "2026-03-10", ItemType: "DEPOSIT", Amount: decimal.NewFromInt(500), Reversed: true},
		{DateKey: "2026-03-10", Title: "Deposit", Amount: decimal.NewFromInt(-5)},
		{DateKey: "2026-03-10", Title: "Snacks", Amount: decimal.NewFromInt(40)},
		{DateKey: "2026-03-02", Title: "topup", Amount: decimal.RequireFromString("4.50")},
		{DateKey: "2026-02-28", Title: "topup", Amount: decimal.NewFromInt(99)},
	}
	progress := SumProgress(payments, "2026-03-10", "2026-03")
	if !progress.Daily.Equal(decimal.RequireFromString("10.01")) {
		test.Fatalf("expected daily 10.01, got %s", progress.Daily)
	}
	if !progress.Monthly.Equal(decimal.RequireFromString("14.51")) {
		test.Fatalf("expected monthly 14.51, got %s", progress.Monthly)
	}
}
