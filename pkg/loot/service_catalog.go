package loot

import (
	"context"
	"fmt"
	"math"
)

// ListItems returns every item definition, active or not.
func (service *Service) ListItems(ctx context.Context) ([]Item, error) {
	return service.store.ListItems(ctx)
}

// ListCases returns every case definition, active or not.
func (service *Service) ListCases(ctx context.Context) ([]Case, error) {
	return service.store.ListCases(ctx, false)
}

// GetCase returns a case regardless of its active flag.
func (service *Service) GetCase(ctx context.Context, caseID int64) (Case, error) {
	return service.store.GetCase(ctx, caseID)
}

// ListCaseContents returns the resolved links of a case without engine filtering.
func (service *Service) ListCaseContents(ctx context.Context, caseID int64) ([]CaseContent, error) {
	return service.store.ListCaseContents(ctx, caseID)
}

// UpsertItem creates an item when its ID is zero and replaces it otherwise.
func (service *Service) UpsertItem(ctx context.Context, item Item) (Item, error) {
	saved, operationError := service.upsertItem(ctx, item)
	service.logOperation(ctx, OperationLog{
		Operation: operationUpsertItem,
		ItemID:    saved.ID,
		Error:     operationError,
	})
	return saved, operationError
}

func (service *Service) upsertItem(ctx context.Context, item Item) (Item, error) {
	if err := item.Validate(); err != nil {
		return Item{}, err
	}
	now := service.nowFn().UTC()
	if item.ID != 0 {
		existing, err := service.store.GetItem(ctx, item.ID)
		if err != nil {
			return Item{}, err
		}
		item.CreatedAt = existing.CreatedAt
	} else {
		item.CreatedAt = now
	}
	item.UpdatedAt = now
	return service.store.SaveItem(ctx, item)
}

// DeleteItem removes the item after detaching it from every case.
func (service *Service) DeleteItem(ctx context.Context, itemID int64) error {
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		if _, err := transactionStore.GetItem(ctx, itemID); err != nil {
			return err
		}
		if err := transactionStore.DeleteItemLinks(ctx, itemID); err != nil {
			return err
		}
		return transactionStore.DeleteItem(ctx, itemID)
	})
	service.logOperation(ctx, OperationLog{
		Operation: operationDeleteItem,
		ItemID:    itemID,
		Error:     operationError,
	})
	return operationError
}

// UpsertCase saves the case and replaces its full content set.
func (service *Service) UpsertCase(ctx context.Context, lootCase Case, links []CaseItem) (Case, error) {
	var saved Case
	operationError := lootCase.Validate()
	if operationError == nil {
		operationError = validateCaseLinks(links)
	}
	if operationError == nil {
		operationError = service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
			now := service.nowFn().UTC()
			if lootCase.ID != 0 {
				existing, err := transactionStore.GetCase(ctx, lootCase.ID)
				if err != nil {
					return err
				}
				lootCase.CreatedAt = existing.CreatedAt
			} else {
				lootCase.CreatedAt = now
			}
			lootCase.UpdatedAt = now
			var err error
			saved, err = transactionStore.SaveCase(ctx, lootCase)
			if err != nil {
				return err
			}
			if err := transactionStore.DeleteCaseLinks(ctx, saved.ID); err != nil {
				return err
			}
			normalized := make([]CaseItem, 0, len(links))
			for _, link := range links {
				if _, err := transactionStore.GetItem(ctx, link.ItemID); err != nil {
					return err
				}
				link.CaseID = saved.ID
				normalized = append(normalized, link)
			}
			if len(normalized) == 0 {
				return nil
			}
			return transactionStore.InsertCaseLinks(ctx, normalized)
		})
	}
	service.logOperation(ctx, OperationLog{
		Operation: operationUpsertCase,
		CaseID:    saved.ID,
		Error:     operationError,
	})
	if operationError != nil {
		return Case{}, operationError
	}
	return saved, nil
}

// DeleteCase removes the case and its links; claims and drop history stay.
func (service *Service) DeleteCase(ctx context.Context, caseID int64) error {
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		if _, err := transactionStore.GetCase(ctx, caseID); err != nil {
			return err
		}
		if err := transactionStore.DeleteCaseLinks(ctx, caseID); err != nil {
			return err
		}
		return transactionStore.DeleteCase(ctx, caseID)
	})
	service.logOperation(ctx, OperationLog{
		Operation: operationDeleteCase,
		CaseID:    caseID,
		Error:     operationError,
	})
	return operationError
}

func validateCaseLinks(links []CaseItem) error {
	seen := make(map[int64]struct{}, len(links))
	for _, link := range links {
		if link.ItemID <= 0 {
			return fmt.Errorf("%w: item id is required", ErrInvalidCaseItem)
		}
		if link.Weight < 0 || math.IsNaN(link.Weight) || math.IsInf(link.Weight, 0) {
			return fmt.Errorf("%w: weight for item %d must be a non-negative number", ErrInvalidCaseItem, link.ItemID)
		}
		if _, duplicate := seen[link.ItemID]; duplicate {
			return fmt.Errorf("%w: item %d listed twice", ErrInvalidCaseItem, link.ItemID)
		}
		seen[link.ItemID] = struct{}{}
	}
	return nil
}

// ChancePercent returns each content's share of the total weight as a percentage.
func ChancePercent(contents []CaseContent) []float64 {
	total := TotalWeight(contents)
	chances := make([]float64, len(contents))
	if total <= 0 {
		return chances
	}
	for index, content := range contents {
		if content.Weight <= 0 {
			continue
		}
		chances[index] = math.Round(content.Weight/total*10000) / 100
	}
	return chances
}
