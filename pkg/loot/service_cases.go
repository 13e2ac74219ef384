package loot

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ListActiveCases returns the cases players can see.
func (service *Service) ListActiveCases(ctx context.Context) ([]Case, error) {
	return service.store.ListCases(ctx, true)
}

// CaseDetails returns an active case with the contents a draw would choose from.
func (service *Service) CaseDetails(ctx context.Context, caseID int64) (Case, []CaseContent, error) {
	lootCase, err := service.activeCase(ctx, caseID)
	if err != nil {
		return Case{}, nil, err
	}
	contents, err := service.store.ListCaseContents(ctx, caseID)
	if err != nil {
		return Case{}, nil, err
	}
	return lootCase, service.drawCandidates(contents), nil
}

// CaseStatuses reports lock, claim and reset state of every active case for the user.
func (service *Service) CaseStatuses(ctx context.Context, userID UserID) ([]CaseStatus, Progress, error) {
	cases, err := service.store.ListCases(ctx, true)
	if err != nil {
		return nil, Progress{}, err
	}
	now := service.nowFn()
	progress := service.computeProgressAt(ctx, userID, now)
	dayKey := DayKey(now, service.location)
	monthKey := MonthKey(now, service.location)
	claims, err := service.store.ListClaims(ctx, userID, []string{dayKey, monthKey})
	if err != nil {
		return nil, Progress{}, err
	}
	claimed := make(map[claimKey]struct{}, len(claims))
	for _, claim := range claims {
		claimed[claimKey{caseID: claim.CaseID, periodKey: claim.PeriodKey}] = struct{}{}
	}
	statuses := make([]CaseStatus, 0, len(cases))
	for _, lootCase := range cases {
		periodKey := PeriodKey(lootCase.Type, now, service.location)
		_, isClaimed := claimed[claimKey{caseID: lootCase.ID, periodKey: periodKey}]
		caseProgress := progress.ForCase(lootCase.Type)
		statuses = append(statuses, CaseStatus{
			Case:      lootCase,
			Progress:  caseProgress,
			PeriodKey: periodKey,
			Unlocked:  caseProgress.GreaterThanOrEqual(lootCase.Threshold),
			Claimed:   isClaimed,
			ResetsAt:  PeriodResetsAt(lootCase.Type, now, service.location),
		})
	}
	return statuses, progress, nil
}

// OpenCase grants one weighted-random prize from the case if the user is eligible
// for the current period. Claim, drop history and inventory are written atomically.
func (service *Service) OpenCase(ctx context.Context, userID UserID, nickname string, caseID int64) (Prize, error) {
	prize, operationError := service.openCase(ctx, userID, nickname, caseID)
	service.logOperation(ctx, OperationLog{
		Operation:   operationOpenCase,
		UserID:      userID,
		CaseID:      caseID,
		ItemID:      prize.ItemID,
		InventoryID: prize.InventoryID,
		PeriodKey:   prize.PeriodKey,
		Amount:      prize.Amount,
		Error:       operationError,
	})
	if operationError != nil {
		return Prize{}, operationError
	}
	if prize.Status == InventoryStatusCredited {
		service.requestCredit(ctx, userID, prize.Amount, creditReasonOpen)
	}
	return prize, nil
}

func (service *Service) openCase(ctx context.Context, userID UserID, nickname string, caseID int64) (Prize, error) {
	lootCase, err := service.activeCase(ctx, caseID)
	if err != nil {
		return Prize{}, err
	}
	now := service.nowFn().UTC()
	periodKey := PeriodKey(lootCase.Type, now, service.location)
	alreadyClaimed, err := service.store.HasClaim(ctx, userID, caseID, periodKey)
	if err != nil {
		return Prize{}, err
	}
	if alreadyClaimed {
		return Prize{}, ErrAlreadyOpened
	}
	progress := service.computeProgressAt(ctx, userID, now).ForCase(lootCase.Type)
	if progress.LessThan(lootCase.Threshold) {
		return Prize{}, fmt.Errorf("%w: progress %s of %s", ErrNotEnoughDeposit, progress.StringFixed(currencyDP), lootCase.Threshold.StringFixed(currencyDP))
	}
	contents, err := service.store.ListCaseContents(ctx, caseID)
	if err != nil {
		return Prize{}, err
	}
	selected, err := Draw(service.drawCandidates(contents), service.random)
	if err != nil {
		return Prize{}, WrapError(errorOperationService, errorSubjectCase, errorCodeDraw, err)
	}

	item := selected.Item
	status := InventoryStatusAvailable
	if service.engine.AutoCreditMoney && item.Type == ItemTypeMoney {
		status = InventoryStatusCredited
	}
	prize := Prize{
		ItemID:    item.ID,
		CaseID:    caseID,
		PeriodKey: periodKey,
		ItemType:  item.Type,
		Title:     item.Title,
		ImageURL:  item.ImageURL,
		Rarity:    selected.Rarity,
		Amount:    item.DisplayPrice,
		SellPrice: item.SellPrice,
		Status:    status,
	}
	transactionError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		if err := transactionStore.InsertClaim(ctx, CaseClaim{UserID: userID, CaseID: caseID, PeriodKey: periodKey, ClaimedAt: now}); err != nil {
			return err
		}
		if _, err := transactionStore.InsertSpin(ctx, Spin{
			UserID:      userID,
			Nickname:    nickname,
			CaseID:      caseID,
			PeriodKey:   periodKey,
			PrizeTitle:  item.Title,
			PrizeAmount: item.DisplayPrice,
			Rarity:      selected.Rarity,
			ImageURL:    item.ImageURL,
			CreatedAt:   now,
		}); err != nil {
			return err
		}
		entry, err := transactionStore.InsertInventoryEntry(ctx, InventoryEntry{
			UserID:       userID,
			ItemID:       item.ID,
			CaseID:       caseID,
			ItemType:     item.Type,
			Title:        item.Title,
			ImageURL:     item.ImageURL,
			DisplayPrice: item.DisplayPrice,
			SellPrice:    item.SellPrice,
			Rarity:       selected.Rarity,
			Status:       status,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if err != nil {
			return err
		}
		prize.InventoryID = entry.ID
		if service.engine.DecrementStock && item.FiniteStock() {
			if err := transactionStore.DecrementStock(ctx, item.ID); err != nil {
				return err
			}
		}
		_, err = transactionStore.AddExperience(ctx, userID, xpPerOpen, xpPerLevel)
		return err
	})
	if transactionError != nil {
		if errors.Is(transactionError, ErrAlreadyOpened) {
			return Prize{}, ErrAlreadyOpened
		}
		return Prize{}, fmt.Errorf("%w: %w", ErrOpenFailed, transactionError)
	}
	return prize, nil
}

func (service *Service) activeCase(ctx context.Context, caseID int64) (Case, error) {
	lootCase, err := service.store.GetCase(ctx, caseID)
	if err != nil {
		return Case{}, err
	}
	if !lootCase.IsActive {
		return Case{}, ErrCaseNotFound
	}
	return lootCase, nil
}

// drawCandidates applies the activity and stock filters of the engine config.
func (service *Service) drawCandidates(contents []CaseContent) []CaseContent {
	candidates := make([]CaseContent, 0, len(contents))
	for _, content := range contents {
		if service.engine.RequireActiveItems && !content.Item.IsActive {
			continue
		}
		if service.engine.DecrementStock && content.Item.FiniteStock() && content.Item.Stock <= 0 {
			continue
		}
		candidates = append(candidates, content)
	}
	return candidates
}

func (service *Service) requestCredit(ctx context.Context, userID UserID, amount decimal.Decimal, reason string) {
	if err := service.creditor.RequestCredit(ctx, userID, amount, reason); err != nil {
		service.reportDegraded(ctx, reason, err)
	}
}

type claimKey struct {
	caseID    int64
	periodKey string
}
