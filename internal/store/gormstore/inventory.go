package gormstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/MarkoPoloResearchLab/lootcase/pkg/loot"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (store *Store) InsertInventoryEntry(ctx context.Context, entry loot.InventoryEntry) (loot.InventoryEntry, error) {
	row := InventoryEntry{
		UserUUID:     entry.UserID.String(),
		ItemID:       entry.ItemID,
		CaseID:       entry.CaseID,
		ItemType:     entry.ItemType.String(),
		Title:        entry.Title,
		ImageURL:     entry.ImageURL,
		DisplayPrice: entry.DisplayPrice,
		SellPrice:    entry.SellPrice,
		Rarity:       entry.Rarity,
		Status:       entry.Status.String(),
		CreatedAt:    entry.CreatedAt.UTC(),
		UpdatedAt:    entry.UpdatedAt.UTC(),
	}
	if err := store.db.WithContext(ctx).Create(&row).Error; err != nil {
		return loot.InventoryEntry{}, wrapStoreError(errorSubjectInventory, errorCodeInsert, err)
	}
	entry.ID = row.ID
	return entry, nil
}

func (store *Store) GetInventoryEntry(ctx context.Context, userID loot.UserID, inventoryID int64) (loot.InventoryEntry, error) {
	return store.takeInventoryEntry(store.db.WithContext(ctx).Where("id = ? AND user_uuid = ?", inventoryID, userID.String()))
}

func (store *Store) GetInventoryEntryByID(ctx context.Context, inventoryID int64) (loot.InventoryEntry, error) {
	return store.takeInventoryEntry(store.db.WithContext(ctx).Where("id = ?", inventoryID))
}

func (store *Store) takeInventoryEntry(query *gorm.DB) (loot.InventoryEntry, error) {
	var row InventoryEntry
	err := query.Take(&row).Error
	if isNotFound(err) {
		return loot.InventoryEntry{}, wrapStoreError(errorSubjectInventory, errorCodeGet, loot.ErrInventoryNotFound)
	}
	if err != nil {
		return loot.InventoryEntry{}, wrapStoreError(errorSubjectInventory, errorCodeGet, err)
	}
	entry, err := mapInventoryEntry(row)
	if err != nil {
		return loot.InventoryEntry{}, wrapStoreError(errorSubjectInventory, errorCodeInvalid, err)
	}
	return entry, nil
}

func (store *Store) ListInventory(ctx context.Context, userID loot.UserID, statuses []loot.InventoryStatus) ([]loot.InventoryEntry, error) {
	query := store.db.WithContext(ctx).Where("user_uuid = ?", userID.String())
	if len(statuses) > 0 {
		query = query.Where("status IN ?", inventoryStatusStrings(statuses))
	}
	var rows []InventoryEntry
	if err := query.Order("created_at DESC").Order("id DESC").Find(&rows).Error; err != nil {
		return nil, wrapStoreError(errorSubjectInventory, errorCodeList, err)
	}
	entries := make([]loot.InventoryEntry, 0, len(rows))
	for _, row := range rows {
		entry, err := mapInventoryEntry(row)
		if err != nil {
			return nil, wrapStoreError(errorSubjectInventory, errorCodeInvalid, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// UpdateInventoryStatus moves an entry to a new status only from one of the expected statuses.
func (store *Store) UpdateInventoryStatus(ctx context.Context, inventoryID int64, from []loot.InventoryStatus, to loot.InventoryStatus) error {
	result := store.db.WithContext(ctx).
		Model(&InventoryEntry{}).
		Where("id = ? AND status IN ?", inventoryID, inventoryStatusStrings(from)).
		Updates(map[string]interface{}{
			"status":     to.String(),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return wrapStoreError(errorSubjectInventory, errorCodeUpdateStatus, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectInventory, errorCodeUpdateStatus, loot.ErrNotAvailable)
	}
	return nil
}

func (store *Store) CreateRedemptionRequest(ctx context.Context, request loot.RedemptionRequest) error {
	snapshot, err := json.Marshal(request.Snapshot)
	if err != nil {
		return wrapStoreError(errorSubjectRequest, errorCodeInvalid, err)
	}
	row := RedemptionRequest{
		ID:           request.ID,
		UserUUID:     request.UserID.String(),
		InventoryID:  request.InventoryID,
		ItemTitle:    request.ItemTitle,
		ItemType:     request.ItemType.String(),
		TradeLink:    request.TradeLink,
		Status:       request.Status.String(),
		AdminComment: request.AdminComment,
		Snapshot:     datatypes.JSON(snapshot),
		CreatedAt:    request.CreatedAt.UTC(),
		UpdatedAt:    request.UpdatedAt.UTC(),
	}
	err = store.db.WithContext(ctx).Create(&row).Error
	if isUniqueViolation(err, constraintRedemptionPrimary) {
		return wrapStoreError(errorSubjectRequest, errorCodeDuplicate, loot.ErrDuplicateRequest)
	}
	if err != nil {
		return wrapStoreError(errorSubjectRequest, errorCodeCreate, err)
	}
	return nil
}

func (store *Store) GetRedemptionRequest(ctx context.Context, requestID string) (loot.RedemptionRequest, error) {
	var row RedemptionRequest
	err := store.db.WithContext(ctx).
		Clauses(lockingForUpdate(store.db)...).
		Where("id = ?", requestID).
		Take(&row).Error
	if isNotFound(err) {
		return loot.RedemptionRequest{}, wrapStoreError(errorSubjectRequest, errorCodeGet, loot.ErrRequestNotFound)
	}
	if err != nil {
		return loot.RedemptionRequest{}, wrapStoreError(errorSubjectRequest, errorCodeGet, err)
	}
	request, err := mapRedemptionRequest(row)
	if err != nil {
		return loot.RedemptionRequest{}, wrapStoreError(errorSubjectRequest, errorCodeInvalid, err)
	}
	return request, nil
}

func (store *Store) ListRedemptionRequests(ctx context.Context, status loot.RequestStatus) ([]loot.RedemptionRequest, error) {
	query := store.db.WithContext(ctx)
	if status != "" {
		query = query.Where("status = ?", status.String())
	}
	var rows []RedemptionRequest
	if err := query.Order("created_at DESC").Order("id").Find(&rows).Error; err != nil {
		return nil, wrapStoreError(errorSubjectRequest, errorCodeList, err)
	}
	requests := make([]loot.RedemptionRequest, 0, len(rows))
	for _, row := range rows {
		request, err := mapRedemptionRequest(row)
		if err != nil {
			return nil, wrapStoreError(errorSubjectRequest, errorCodeInvalid, err)
		}
		requests = append(requests, request)
	}
	return requests, nil
}

// UpdateRedemptionRequest transitions a request from one of the expected statuses.
// A non-empty comment replaces the stored operator comment verbatim.
func (store *Store) UpdateRedemptionRequest(ctx context.Context, requestID string, from []loot.RequestStatus, to loot.RequestStatus, comment string) error {
	updates := map[string]interface{}{
		"status":     to.String(),
		"updated_at": time.Now().UTC(),
	}
	if comment != "" {
		updates["admin_comment"] = comment
	}
	fromValues := make([]string, 0, len(from))
	for _, status := range from {
		fromValues = append(fromValues, status.String())
	}
	result := store.db.WithContext(ctx).
		Model(&RedemptionRequest{}).
		Where("id = ? AND status IN ?", requestID, fromValues).
		Updates(updates)
	if result.Error != nil {
		return wrapStoreError(errorSubjectRequest, errorCodeUpdateStatus, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectRequest, errorCodeUpdateStatus, loot.ErrRequestClosed)
	}
	return nil
}

func (store *Store) GetUserSettings(ctx context.Context, userID loot.UserID) (loot.UserSettings, error) {
	var row UserSettings
	err := store.db.WithContext(ctx).Where("user_uuid = ?", userID.String()).Take(&row).Error
	if isNotFound(err) {
		return loot.UserSettings{UserID: userID, Level: 1}, nil
	}
	if err != nil {
		return loot.UserSettings{}, wrapStoreError(errorSubjectSettings, errorCodeGet, err)
	}
	return mapUserSettings(userID, row), nil
}

func (store *Store) SaveTradeLink(ctx context.Context, userID loot.UserID, tradeLink string) (loot.UserSettings, error) {
	now := time.Now().UTC()
	row := UserSettings{UserUUID: userID.String(), TradeLink: tradeLink, Level: 1, UpdatedAt: now}
	err := store.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_uuid"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"trade_link": tradeLink,
				"updated_at": now,
			}),
		}).
		Create(&row).Error
	if err != nil {
		return loot.UserSettings{}, wrapStoreError(errorSubjectSettings, errorCodeUpsert, err)
	}
	return store.GetUserSettings(ctx, userID)
}

// AddExperience adds xp and recomputes the level as 1 + xp / xpPerLevel.
func (store *Store) AddExperience(ctx context.Context, userID loot.UserID, xp int64, xpPerLevel int64) (loot.UserSettings, error) {
	if xpPerLevel <= 0 {
		xpPerLevel = 1
	}
	now := time.Now().UTC()
	row := UserSettings{UserUUID: userID.String(), XP: xp, Level: int(1 + xp/xpPerLevel), UpdatedAt: now}
	err := store.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_uuid"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"xp":         gorm.Expr("user_settings.xp + excluded.xp"),
				"level":      gorm.Expr("1 + (user_settings.xp + excluded.xp) / ?", xpPerLevel),
				"updated_at": now,
			}),
		}).
		Create(&row).Error
	if err != nil {
		return loot.UserSettings{}, wrapStoreError(errorSubjectSettings, errorCodeUpsert, err)
	}
	return store.GetUserSettings(ctx, userID)
}

func lockingForUpdate(db *gorm.DB) []clause.Expression {
	if db.Dialector.Name() == "sqlite" {
		return nil
	}
	return []clause.Expression{clause.Locking{Strength: "UPDATE"}}
}

func inventoryStatusStrings(statuses []loot.InventoryStatus) []string {
	values := make([]string, 0, len(statuses))
	for _, status := range statuses {
		values = append(values, status.String())
	}
	return values
}

func mapInventoryEntry(row InventoryEntry) (loot.InventoryEntry, error) {
	userID, err := loot.NewUserID(row.UserUUID)
	if err != nil {
		return loot.InventoryEntry{}, err
	}
	itemType, err := loot.ParseItemType(row.ItemType)
	if err != nil {
		return loot.InventoryEntry{}, err
	}
	status, err := loot.ParseInventoryStatus(row.Status)
	if err != nil {
		return loot.InventoryEntry{}, err
	}
	return loot.InventoryEntry{
		ID:           row.ID,
		UserID:       userID,
		ItemID:       row.ItemID,
		CaseID:       row.CaseID,
		ItemType:     itemType,
		Title:        row.Title,
		ImageURL:     row.ImageURL,
		DisplayPrice: row.DisplayPrice,
		SellPrice:    row.SellPrice,
		Rarity:       row.Rarity,
		Status:       status,
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}, nil
}

func mapRedemptionRequest(row RedemptionRequest) (loot.RedemptionRequest, error) {
	userID, err := loot.NewUserID(row.UserUUID)
	if err != nil {
		return loot.RedemptionRequest{}, err
	}
	itemType, err := loot.ParseItemType(row.ItemType)
	if err != nil {
		return loot.RedemptionRequest{}, err
	}
	status, err := loot.ParseRequestStatus(row.Status)
	if err != nil {
		return loot.RedemptionRequest{}, err
	}
	var snapshot loot.RequestSnapshot
	raw := []byte(row.Snapshot)
	if len(raw) == 0 {
		raw = []byte(defaultSnapshotJSON)
	}
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return loot.RedemptionRequest{}, err
	}
	return loot.RedemptionRequest{
		ID:           row.ID,
		UserID:       userID,
		InventoryID:  row.InventoryID,
		ItemTitle:    row.ItemTitle,
		ItemType:     itemType,
		TradeLink:    row.TradeLink,
		Status:       status,
		AdminComment: row.AdminComment,
		Snapshot:     snapshot,
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}, nil
}

func mapUserSettings(userID loot.UserID, row UserSettings) loot.UserSettings {
	return loot.UserSettings{
		UserID:    userID,
		TradeLink: row.TradeLink,
		Level:     row.Level,
		XP:        row.XP,
		UpdatedAt: row.UpdatedAt.UTC(),
	}
}
