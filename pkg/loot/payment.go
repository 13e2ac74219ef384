package loot

import (
	"strings"

	"github.com/shopspring/decimal"
)

const depositItemType = "DEPOSIT"

// depositTitleMarkers are lower-case substrings that mark a free-text title as a top-up.
var depositTitleMarkers = []string{
	"deposit",
	"top-up",
	"topup",
	"top up",
	"пополнение",
	"papildin",
}

// IsDeposit reports whether the payment adds funds to the billing wallet.
func (payment Payment) IsDeposit() bool {
	if strings.EqualFold(strings.TrimSpace(payment.ItemType), depositItemType) {
		return true
	}
	title := strings.ToLower(payment.Title)
	for _, marker := range depositTitleMarkers {
		if strings.Contains(title, marker) {
			return true
		}
	}
	return false
}

// CountsTowardProgress reports whether the payment contributes to deposit progress.
func (payment Payment) CountsTowardProgress() bool {
	return !payment.Reversed && payment.IsDeposit() && payment.Amount.IsPositive()
}

// SumProgress buckets qualifying payments into the given day and month keys.
func SumProgress(payments []Payment, dayKey string, monthKey string) Progress {
	daily := decimal.Zero
	monthly := decimal.Zero
	monthPrefix := monthKey + "-"
	for _, payment := range payments {
		if !payment.CountsTowardProgress() {
			continue
		}
		if payment.DateKey == dayKey {
			daily = daily.Add(payment.Amount)
		}
		if strings.HasPrefix(payment.DateKey, monthPrefix) {
			monthly = monthly.Add(payment.Amount)
		}
	}
	return Progress{
		Daily:   daily.Round(currencyDP),
		Monthly: monthly.Round(currencyDP),
	}
}
