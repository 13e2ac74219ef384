package gormstore

import (
	"context"
	"time"

	"github.com/MarkoPoloResearchLab/lootcase/pkg/loot"
	"github.com/shopspring/decimal"
)

func (store *Store) HasClaim(ctx context.Context, userID loot.UserID, caseID int64, periodKey string) (bool, error) {
	var count int64
	err := store.db.WithContext(ctx).
		Model(&CaseClaim{}).
		Where("user_uuid = ? AND case_id = ? AND period_key = ?", userID.String(), caseID, periodKey).
		Count(&count).Error
	if err != nil {
		return false, wrapStoreError(errorSubjectClaim, errorCodeExists, err)
	}
	return count > 0, nil
}

// InsertClaim records a claim; a second claim for the same user, case and period yields loot.ErrAlreadyOpened.
func (store *Store) InsertClaim(ctx context.Context, claim loot.CaseClaim) error {
	row := CaseClaim{
		UserUUID:  claim.UserID.String(),
		CaseID:    claim.CaseID,
		PeriodKey: claim.PeriodKey,
		ClaimedAt: claim.ClaimedAt.UTC(),
	}
	err := store.db.WithContext(ctx).Create(&row).Error
	if isUniqueViolation(err, constraintCaseClaimPeriod) {
		return wrapStoreError(errorSubjectClaim, errorCodeDuplicate, loot.ErrAlreadyOpened)
	}
	if err != nil {
		return wrapStoreError(errorSubjectClaim, errorCodeInsert, err)
	}
	return nil
}

func (store *Store) ListClaims(ctx context.Context, userID loot.UserID, periodKeys []string) ([]loot.CaseClaim, error) {
	if len(periodKeys) == 0 {
		return []loot.CaseClaim{}, nil
	}
	var rows []CaseClaim
	err := store.db.WithContext(ctx).
		Where("user_uuid = ? AND period_key IN ?", userID.String(), periodKeys).
		Order("claimed_at").
		Find(&rows).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectClaim, errorCodeList, err)
	}
	claims := make([]loot.CaseClaim, 0, len(rows))
	for _, row := range rows {
		claims = append(claims, loot.CaseClaim{
			UserID:    userID,
			CaseID:    row.CaseID,
			PeriodKey: row.PeriodKey,
			ClaimedAt: row.ClaimedAt.UTC(),
		})
	}
	return claims, nil
}

func (store *Store) InsertSpin(ctx context.Context, spin loot.Spin) (loot.Spin, error) {
	row := Spin{
		UserUUID:    spin.UserID.String(),
		Nickname:    spin.Nickname,
		CaseID:      spin.CaseID,
		PeriodKey:   spin.PeriodKey,
		PrizeTitle:  spin.PrizeTitle,
		PrizeAmount: spin.PrizeAmount,
		Rarity:      spin.Rarity,
		ImageURL:    spin.ImageURL,
		CreatedAt:   spin.CreatedAt.UTC(),
	}
	if err := store.db.WithContext(ctx).Create(&row).Error; err != nil {
		return loot.Spin{}, wrapStoreError(errorSubjectSpin, errorCodeInsert, err)
	}
	spin.ID = row.ID
	return spin, nil
}

func (store *Store) ListRecentSpins(ctx context.Context, limit int) ([]loot.Spin, error) {
	var rows []Spin
	err := store.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectSpin, errorCodeList, err)
	}
	spins := make([]loot.Spin, 0, len(rows))
	for _, row := range rows {
		userID, err := loot.NewUserID(row.UserUUID)
		if err != nil {
			return nil, wrapStoreError(errorSubjectSpin, errorCodeInvalid, err)
		}
		spins = append(spins, loot.Spin{
			ID:          row.ID,
			UserID:      userID,
			Nickname:    row.Nickname,
			CaseID:      row.CaseID,
			PeriodKey:   row.PeriodKey,
			PrizeTitle:  row.PrizeTitle,
			PrizeAmount: row.PrizeAmount,
			Rarity:      row.Rarity,
			ImageURL:    row.ImageURL,
			CreatedAt:   row.CreatedAt.UTC(),
		})
	}
	return spins, nil
}

// SpinStats aggregates the whole drop history plus the spins created at or after since.
func (store *Store) SpinStats(ctx context.Context, since time.Time) (loot.PublicStats, error) {
	var totals spinTotals
	err := store.db.WithContext(ctx).
		Model(&Spin{}).
		Select("count(*) as total_spins, count(distinct user_uuid) as total_players, coalesce(sum(prize_amount), 0) as total_prize_value").
		Scan(&totals).Error
	if err != nil {
		return loot.PublicStats{}, wrapStoreError(errorSubjectSpin, errorCodeStats, err)
	}
	var spinsToday int64
	err = store.db.WithContext(ctx).
		Model(&Spin{}).
		Where("created_at >= ?", since.UTC()).
		Count(&spinsToday).Error
	if err != nil {
		return loot.PublicStats{}, wrapStoreError(errorSubjectSpin, errorCodeStats, err)
	}
	return loot.PublicStats{
		TotalSpins:      totals.TotalSpins,
		TotalPlayers:    totals.TotalPlayers,
		SpinsToday:      spinsToday,
		TotalPrizeValue: totals.TotalPrizeValue.Round(2),
	}, nil
}

type spinTotals struct {
	TotalSpins      int64
	TotalPlayers    int64
	TotalPrizeValue decimal.Decimal
}
