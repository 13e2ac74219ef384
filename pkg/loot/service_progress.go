package loot

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ComputeProgress sums today's and this month's qualifying deposits for the user.
// Upstream failures yield zero progress so that nothing unlocks on error.
func (service *Service) ComputeProgress(ctx context.Context, userID UserID) Progress {
	return service.computeProgressAt(ctx, userID, service.nowFn())
}

// computeProgressAt buckets deposits by the Riga day and month containing now.
func (service *Service) computeProgressAt(ctx context.Context, userID UserID, now time.Time) Progress {
	zero := Progress{Daily: decimal.Zero, Monthly: decimal.Zero}
	requestCtx, cancel := context.WithTimeout(ctx, service.progressTimeout)
	defer cancel()
	payments, err := service.billing.RecentPayments(requestCtx, userID)
	if err != nil {
		service.reportDegraded(ctx, "progress", err)
		return zero
	}
	return SumProgress(payments, DayKey(now, service.location), MonthKey(now, service.location))
}
