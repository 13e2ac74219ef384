package httpapi

import (
	"time"

	"github.com/MarkoPoloResearchLab/lootcase/pkg/loot"
	"github.com/shopspring/decimal"
)

const moneyPlaces int32 = 2

func formatMoney(amount decimal.Decimal) string {
	return amount.StringFixed(moneyPlaces)
}

type loginRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type openCaseRequest struct {
	CaseID int64 `json:"case_id" binding:"required"`
}

type inventoryActionRequest struct {
	InventoryID int64 `json:"inventory_id" binding:"required"`
}

type tradeLinkRequest struct {
	TradeLink string `json:"trade_link" binding:"required"`
}

type denyRequest struct {
	Comment string `json:"comment"`
}

type itemRequest struct {
	ID           int64           `json:"id"`
	Type         string          `json:"type" binding:"required"`
	Title        string          `json:"title" binding:"required"`
	ImageURL     string          `json:"image_url"`
	DisplayPrice decimal.Decimal `json:"display_price"`
	SellPrice    decimal.Decimal `json:"sell_price"`
	Rarity       string          `json:"rarity"`
	Stock        *int64          `json:"stock"`
	IsActive     *bool           `json:"is_active"`
}

func (request itemRequest) toItem() (loot.Item, error) {
	itemType, err := loot.ParseItemType(request.Type)
	if err != nil {
		return loot.Item{}, err
	}
	stock := loot.UnlimitedStock
	if request.Stock != nil {
		stock = *request.Stock
	}
	isActive := true
	if request.IsActive != nil {
		isActive = *request.IsActive
	}
	return loot.Item{
		ID:           request.ID,
		Type:         itemType,
		Title:        request.Title,
		ImageURL:     request.ImageURL,
		DisplayPrice: request.DisplayPrice,
		SellPrice:    request.SellPrice,
		Rarity:       request.Rarity,
		Stock:        stock,
		IsActive:     isActive,
	}, nil
}

type caseItemRequest struct {
	ItemID int64   `json:"item_id"`
	Weight float64 `json:"weight"`
	Rarity string  `json:"rarity"`
}

type caseRequest struct {
	Title     string            `json:"title" binding:"required"`
	Type      string            `json:"type" binding:"required"`
	Threshold decimal.Decimal   `json:"threshold"`
	ImageURL  string            `json:"image_url"`
	IsActive  *bool             `json:"is_active"`
	Items     []caseItemRequest `json:"items"`
}

func (request caseRequest) toCase(caseID int64) (loot.Case, []loot.CaseItem, error) {
	caseType, err := loot.ParseCaseType(request.Type)
	if err != nil {
		return loot.Case{}, nil, err
	}
	isActive := true
	if request.IsActive != nil {
		isActive = *request.IsActive
	}
	links := make([]loot.CaseItem, 0, len(request.Items))
	for _, item := range request.Items {
		links = append(links, loot.CaseItem{CaseID: caseID, ItemID: item.ItemID, Weight: item.Weight, Rarity: item.Rarity})
	}
	return loot.Case{
		ID:        caseID,
		Title:     request.Title,
		Type:      caseType,
		Threshold: request.Threshold,
		ImageURL:  request.ImageURL,
		IsActive:  isActive,
	}, links, nil
}

type userPayload struct {
	UUID     string `json:"uuid"`
	Nickname string `json:"nickname"`
	Deposit  string `json:"deposit"`
}

func newUserPayload(profile loot.Profile) userPayload {
	return userPayload{UUID: profile.UserID.String(), Nickname: profile.Nickname, Deposit: formatMoney(profile.Deposit)}
}

type sessionResponse struct {
	SessionToken string      `json:"session_token"`
	ExpiresAt    time.Time   `json:"expires_at"`
	User         userPayload `json:"user"`
}

type progressPayload struct {
	Daily   string `json:"daily"`
	Monthly string `json:"monthly"`
}

type casePayload struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Type      string `json:"type"`
	Threshold string `json:"threshold"`
	ImageURL  string `json:"image_url,omitempty"`
	IsActive  bool   `json:"is_active"`
}

func newCasePayload(lootCase loot.Case) casePayload {
	return casePayload{
		ID:        lootCase.ID,
		Title:     lootCase.Title,
		Type:      lootCase.Type.String(),
		Threshold: formatMoney(lootCase.Threshold),
		ImageURL:  lootCase.ImageURL,
		IsActive:  lootCase.IsActive,
	}
}

type caseStatusPayload struct {
	casePayload
	Progress  string    `json:"progress"`
	PeriodKey string    `json:"period_key"`
	Unlocked  bool      `json:"unlocked"`
	Claimed   bool      `json:"claimed"`
	Available bool      `json:"available"`
	ResetsAt  time.Time `json:"resets_at"`
	ResetsIn  int64     `json:"resets_in_seconds"`
}

type meResponse struct {
	User      userPayload         `json:"user"`
	Level     int                 `json:"level"`
	XP        int64               `json:"xp"`
	TradeLink string              `json:"trade_link,omitempty"`
	Progress  progressPayload     `json:"progress"`
	Cases     []caseStatusPayload `json:"cases"`
}

type caseContentPayload struct {
	ItemID        int64   `json:"item_id"`
	Title         string  `json:"title"`
	Type          string  `json:"type"`
	ImageURL      string  `json:"image_url,omitempty"`
	DisplayPrice  string  `json:"display_price"`
	Rarity        string  `json:"rarity,omitempty"`
	Weight        float64 `json:"weight"`
	ChancePercent float64 `json:"chance_percent"`
}

func newCaseContentPayloads(contents []loot.CaseContent) []caseContentPayload {
	chances := loot.ChancePercent(contents)
	payloads := make([]caseContentPayload, 0, len(contents))
	for index, content := range contents {
		payloads = append(payloads, caseContentPayload{
			ItemID:        content.Item.ID,
			Title:         content.Item.Title,
			Type:          content.Item.Type.String(),
			ImageURL:      content.Item.ImageURL,
			DisplayPrice:  formatMoney(content.Item.DisplayPrice),
			Rarity:        content.Rarity,
			Weight:        content.Weight,
			ChancePercent: chances[index],
		})
	}
	return payloads
}

type caseDetailResponse struct {
	Case  casePayload          `json:"case"`
	Items []caseContentPayload `json:"items"`
}

type prizePayload struct {
	InventoryID int64  `json:"inventory_id"`
	ItemID      int64  `json:"item_id"`
	CaseID      int64  `json:"case_id"`
	PeriodKey   string `json:"period_key"`
	Type        string `json:"type"`
	Title       string `json:"title"`
	ImageURL    string `json:"image_url,omitempty"`
	Rarity      string `json:"rarity,omitempty"`
	Amount      string `json:"amount"`
	SellPrice   string `json:"sell_price"`
	Status      string `json:"status"`
}

type openCaseResponse struct {
	Prize prizePayload `json:"prize"`
}

func newPrizePayload(prize loot.Prize) prizePayload {
	return prizePayload{
		InventoryID: prize.InventoryID,
		ItemID:      prize.ItemID,
		CaseID:      prize.CaseID,
		PeriodKey:   prize.PeriodKey,
		Type:        prize.ItemType.String(),
		Title:       prize.Title,
		ImageURL:    prize.ImageURL,
		Rarity:      prize.Rarity,
		Amount:      formatMoney(prize.Amount),
		SellPrice:   formatMoney(prize.SellPrice),
		Status:      prize.Status.String(),
	}
}

type inventoryPayload struct {
	ID           int64     `json:"id"`
	ItemID       int64     `json:"item_id"`
	CaseID       int64     `json:"case_id"`
	Type         string    `json:"type"`
	Title        string    `json:"title"`
	ImageURL     string    `json:"image_url,omitempty"`
	DisplayPrice string    `json:"display_price"`
	SellPrice    string    `json:"sell_price"`
	Rarity       string    `json:"rarity,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

func newInventoryPayload(entry loot.InventoryEntry) inventoryPayload {
	return inventoryPayload{
		ID:           entry.ID,
		ItemID:       entry.ItemID,
		CaseID:       entry.CaseID,
		Type:         entry.ItemType.String(),
		Title:        entry.Title,
		ImageURL:     entry.ImageURL,
		DisplayPrice: formatMoney(entry.DisplayPrice),
		SellPrice:    formatMoney(entry.SellPrice),
		Rarity:       entry.Rarity,
		Status:       entry.Status.String(),
		CreatedAt:    entry.CreatedAt,
	}
}

type inventoryResponse struct {
	Items []inventoryPayload `json:"items"`
}

type sellResponse struct {
	InventoryID int64  `json:"inventory_id"`
	Status      string `json:"status"`
	Amount      string `json:"amount"`
}

type claimResponse struct {
	Entry   inventoryPayload `json:"entry"`
	Request *requestPayload  `json:"request,omitempty"`
}

type tradeLinkResponse struct {
	TradeLink string `json:"trade_link"`
}

type requestPayload struct {
	ID           string               `json:"id"`
	UserUUID     string               `json:"user_uuid"`
	InventoryID  int64                `json:"inventory_id"`
	ItemTitle    string               `json:"item_title"`
	Type         string               `json:"type"`
	TradeLink    string               `json:"trade_link,omitempty"`
	Status       string               `json:"status"`
	AdminComment string               `json:"admin_comment,omitempty"`
	Snapshot     loot.RequestSnapshot `json:"snapshot"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

func newRequestPayload(request loot.RedemptionRequest) requestPayload {
	return requestPayload{
		ID:           request.ID,
		UserUUID:     request.UserID.String(),
		InventoryID:  request.InventoryID,
		ItemTitle:    request.ItemTitle,
		Type:         request.ItemType.String(),
		TradeLink:    request.TradeLink,
		Status:       request.Status.String(),
		AdminComment: request.AdminComment,
		Snapshot:     request.Snapshot,
		CreatedAt:    request.CreatedAt,
		UpdatedAt:    request.UpdatedAt,
	}
}

type requestListResponse struct {
	Requests []requestPayload `json:"requests"`
}

type itemPayload struct {
	ID           int64  `json:"id"`
	Type         string `json:"type"`
	Title        string `json:"title"`
	ImageURL     string `json:"image_url,omitempty"`
	DisplayPrice string `json:"display_price"`
	SellPrice    string `json:"sell_price"`
	Rarity       string `json:"rarity,omitempty"`
	Stock        int64  `json:"stock"`
	IsActive     bool   `json:"is_active"`
}

func newItemPayload(item loot.Item) itemPayload {
	return itemPayload{
		ID:           item.ID,
		Type:         item.Type.String(),
		Title:        item.Title,
		ImageURL:     item.ImageURL,
		DisplayPrice: formatMoney(item.DisplayPrice),
		SellPrice:    formatMoney(item.SellPrice),
		Rarity:       item.Rarity,
		Stock:        item.Stock,
		IsActive:     item.IsActive,
	}
}

type itemListResponse struct {
	Items []itemPayload `json:"items"`
}

type caseListResponse struct {
	Cases []casePayload `json:"cases"`
}

type statsResponse struct {
	TotalSpins      int64  `json:"total_spins"`
	TotalPlayers    int64  `json:"total_players"`
	SpinsToday      int64  `json:"spins_today"`
	TotalPrizeValue string `json:"total_prize_value"`
}

type dropPayload struct {
	ID        int64     `json:"id"`
	Nickname  string    `json:"nickname"`
	CaseID    int64     `json:"case_id"`
	Title     string    `json:"title"`
	Amount    string    `json:"amount"`
	Rarity    string    `json:"rarity,omitempty"`
	ImageURL  string    `json:"image_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type dropsResponse struct {
	Drops []dropPayload `json:"drops"`
}
