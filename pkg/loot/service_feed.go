package loot

import "context"

const maxRecentDrops = 100

// PublicStats aggregates drop history for the public landing page.
func (service *Service) PublicStats(ctx context.Context) (PublicStats, error) {
	return service.store.SpinStats(ctx, DayStart(service.nowFn(), service.location).UTC())
}

// RecentDrops returns the latest spins, newest first.
func (service *Service) RecentDrops(ctx context.Context, limit int) ([]Spin, error) {
	return service.store.ListRecentSpins(ctx, RecentDropsLimit(limit))
}

// RecentDropsLimit clamps a requested feed size to (0, 100]; non-positive means the maximum.
func RecentDropsLimit(limit int) int {
	if limit <= 0 || limit > maxRecentDrops {
		return maxRecentDrops
	}
	return limit
}
