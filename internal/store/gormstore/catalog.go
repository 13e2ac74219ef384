package gormstore

import (
	"context"

	"github.com/MarkoPoloResearchLab/lootcase/pkg/loot"
	"gorm.io/gorm"
)

func (store *Store) ListItems(ctx context.Context) ([]loot.Item, error) {
	var rows []Item
	if err := store.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, wrapStoreError(errorSubjectItem, errorCodeList, err)
	}
	items := make([]loot.Item, 0, len(rows))
	for _, row := range rows {
		item, err := mapItem(row)
		if err != nil {
			return nil, wrapStoreError(errorSubjectItem, errorCodeInvalid, err)
		}
		items = append(items, item)
	}
	return items, nil
}

func (store *Store) GetItem(ctx context.Context, itemID int64) (loot.Item, error) {
	var row Item
	err := store.db.WithContext(ctx).Where("id = ?", itemID).Take(&row).Error
	if isNotFound(err) {
		return loot.Item{}, wrapStoreError(errorSubjectItem, errorCodeGet, loot.ErrItemNotFound)
	}
	if err != nil {
		return loot.Item{}, wrapStoreError(errorSubjectItem, errorCodeGet, err)
	}
	item, err := mapItem(row)
	if err != nil {
		return loot.Item{}, wrapStoreError(errorSubjectItem, errorCodeInvalid, err)
	}
	return item, nil
}

func (store *Store) SaveItem(ctx context.Context, item loot.Item) (loot.Item, error) {
	row := Item{
		ID:           item.ID,
		Type:         item.Type.String(),
		Title:        item.Title,
		ImageURL:     item.ImageURL,
		DisplayPrice: item.DisplayPrice,
		SellPrice:    item.SellPrice,
		Rarity:       item.Rarity,
		Stock:        item.Stock,
		IsActive:     item.IsActive,
		CreatedAt:    item.CreatedAt.UTC(),
		UpdatedAt:    item.UpdatedAt.UTC(),
	}
	var err error
	if row.ID == 0 {
		err = store.db.WithContext(ctx).Create(&row).Error
	} else {
		err = store.db.WithContext(ctx).Save(&row).Error
	}
	if err != nil {
		return loot.Item{}, wrapStoreError(errorSubjectItem, errorCodeSave, err)
	}
	saved, err := mapItem(row)
	if err != nil {
		return loot.Item{}, wrapStoreError(errorSubjectItem, errorCodeInvalid, err)
	}
	return saved, nil
}

func (store *Store) DeleteItem(ctx context.Context, itemID int64) error {
	result := store.db.WithContext(ctx).Where("id = ?", itemID).Delete(&Item{})
	if result.Error != nil {
		return wrapStoreError(errorSubjectItem, errorCodeDelete, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectItem, errorCodeDelete, loot.ErrItemNotFound)
	}
	return nil
}

func (store *Store) DeleteItemLinks(ctx context.Context, itemID int64) error {
	if err := store.db.WithContext(ctx).Where("item_id = ?", itemID).Delete(&CaseItem{}).Error; err != nil {
		return wrapStoreError(errorSubjectCaseItem, errorCodeDelete, err)
	}
	return nil
}

// DecrementStock takes one unit from a finite stock; an exhausted item yields loot.ErrOutOfStock.
func (store *Store) DecrementStock(ctx context.Context, itemID int64) error {
	result := store.db.WithContext(ctx).
		Model(&Item{}).
		Where("id = ? AND stock > 0", itemID).
		UpdateColumn("stock", gorm.Expr("stock - 1"))
	if result.Error != nil {
		return wrapStoreError(errorSubjectItem, errorCodeDecrementStock, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectItem, errorCodeDecrementStock, loot.ErrOutOfStock)
	}
	return nil
}

func (store *Store) ListCases(ctx context.Context, activeOnly bool) ([]loot.Case, error) {
	query := store.db.WithContext(ctx).Order("id")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var rows []Case
	if err := query.Find(&rows).Error; err != nil {
		return nil, wrapStoreError(errorSubjectCase, errorCodeList, err)
	}
	cases := make([]loot.Case, 0, len(rows))
	for _, row := range rows {
		lootCase, err := mapCase(row)
		if err != nil {
			return nil, wrapStoreError(errorSubjectCase, errorCodeInvalid, err)
		}
		cases = append(cases, lootCase)
	}
	return cases, nil
}

func (store *Store) GetCase(ctx context.Context, caseID int64) (loot.Case, error) {
	var row Case
	err := store.db.WithContext(ctx).Where("id = ?", caseID).Take(&row).Error
	if isNotFound(err) {
		return loot.Case{}, wrapStoreError(errorSubjectCase, errorCodeGet, loot.ErrCaseNotFound)
	}
	if err != nil {
		return loot.Case{}, wrapStoreError(errorSubjectCase, errorCodeGet, err)
	}
	lootCase, err := mapCase(row)
	if err != nil {
		return loot.Case{}, wrapStoreError(errorSubjectCase, errorCodeInvalid, err)
	}
	return lootCase, nil
}

func (store *Store) SaveCase(ctx context.Context, lootCase loot.Case) (loot.Case, error) {
	row := Case{
		ID:        lootCase.ID,
		Title:     lootCase.Title,
		Type:      lootCase.Type.String(),
		Threshold: lootCase.Threshold,
		ImageURL:  lootCase.ImageURL,
		IsActive:  lootCase.IsActive,
		CreatedAt: lootCase.CreatedAt.UTC(),
		UpdatedAt: lootCase.UpdatedAt.UTC(),
	}
	var err error
	if row.ID == 0 {
		err = store.db.WithContext(ctx).Create(&row).Error
	} else {
		err = store.db.WithContext(ctx).Save(&row).Error
	}
	if err != nil {
		return loot.Case{}, wrapStoreError(errorSubjectCase, errorCodeSave, err)
	}
	saved, err := mapCase(row)
	if err != nil {
		return loot.Case{}, wrapStoreError(errorSubjectCase, errorCodeInvalid, err)
	}
	return saved, nil
}

func (store *Store) DeleteCase(ctx context.Context, caseID int64) error {
	result := store.db.WithContext(ctx).Where("id = ?", caseID).Delete(&Case{})
	if result.Error != nil {
		return wrapStoreError(errorSubjectCase, errorCodeDelete, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectCase, errorCodeDelete, loot.ErrCaseNotFound)
	}
	return nil
}

func (store *Store) DeleteCaseLinks(ctx context.Context, caseID int64) error {
	if err := store.db.WithContext(ctx).Where("case_id = ?", caseID).Delete(&CaseItem{}).Error; err != nil {
		return wrapStoreError(errorSubjectCaseItem, errorCodeDelete, err)
	}
	return nil
}

func (store *Store) InsertCaseLinks(ctx context.Context, links []loot.CaseItem) error {
	if len(links) == 0 {
		return nil
	}
	rows := make([]CaseItem, 0, len(links))
	for _, link := range links {
		rows = append(rows, CaseItem{
			CaseID: link.CaseID,
			ItemID: link.ItemID,
			Weight: link.Weight,
			Rarity: link.Rarity,
		})
	}
	if err := store.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return wrapStoreError(errorSubjectCaseItem, errorCodeInsert, err)
	}
	return nil
}

// ListCaseContents resolves the links of a case in item id order.
// The link rarity overrides the item rarity when set.
func (store *Store) ListCaseContents(ctx context.Context, caseID int64) ([]loot.CaseContent, error) {
	var links []CaseItem
	if err := store.db.WithContext(ctx).Where("case_id = ?", caseID).Order("item_id").Find(&links).Error; err != nil {
		return nil, wrapStoreError(errorSubjectCaseItem, errorCodeList, err)
	}
	if len(links) == 0 {
		return []loot.CaseContent{}, nil
	}
	itemIDs := make([]int64, 0, len(links))
	for _, link := range links {
		itemIDs = append(itemIDs, link.ItemID)
	}
	var itemRows []Item
	if err := store.db.WithContext(ctx).Where("id IN ?", itemIDs).Find(&itemRows).Error; err != nil {
		return nil, wrapStoreError(errorSubjectItem, errorCodeList, err)
	}
	itemsByID := make(map[int64]loot.Item, len(itemRows))
	for _, row := range itemRows {
		item, err := mapItem(row)
		if err != nil {
			return nil, wrapStoreError(errorSubjectItem, errorCodeInvalid, err)
		}
		itemsByID[item.ID] = item
	}
	contents := make([]loot.CaseContent, 0, len(links))
	for _, link := range links {
		item, ok := itemsByID[link.ItemID]
		if !ok {
			continue
		}
		rarity := link.Rarity
		if rarity == "" {
			rarity = item.Rarity
		}
		contents = append(contents, loot.CaseContent{Item: item, Weight: link.Weight, Rarity: rarity})
	}
	return contents, nil
}

func mapItem(row Item) (loot.Item, error) {
	itemType, err := loot.ParseItemType(row.Type)
	if err != nil {
		return loot.Item{}, err
	}
	return loot.Item{
		ID:           row.ID,
		Type:         itemType,
		Title:        row.Title,
		ImageURL:     row.ImageURL,
		DisplayPrice: row.DisplayPrice,
		SellPrice:    row.SellPrice,
		Rarity:       row.Rarity,
		Stock:        row.Stock,
		IsActive:     row.IsActive,
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}, nil
}

func mapCase(row Case) (loot.Case, error) {
	caseType, err := loot.ParseCaseType(row.Type)
	if err != nil {
		return loot.Case{}, err
	}
	return loot.Case{
		ID:        row.ID,
		Title:     row.Title,
		Type:      caseType,
		Threshold: row.Threshold,
		ImageURL:  row.ImageURL,
		IsActive:  row.IsActive,
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}, nil
}
