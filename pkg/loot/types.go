package loot

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// UnlimitedStock marks an item that is never depleted.
const UnlimitedStock int64 = -1

// UserID identifies a billing client (the upstream uuid).
type UserID struct {
	value string
}

// NewUserID validates and normalizes a user id.
func NewUserID(raw string) (UserID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return UserID{}, fmt.Errorf("%w: empty value", ErrInvalidUserID)
	}
	return UserID{value: trimmed}, nil
}

// String returns the normalized identifier.
func (id UserID) String() string {
	return id.value
}

// IsZero reports whether the id was never set.
func (id UserID) IsZero() bool {
	return id.value == ""
}

// ItemType classifies a prize by how it is fulfilled.
type ItemType string

const (
	ItemTypeSkin     ItemType = "skin"
	ItemTypePhysical ItemType = "physical"
	ItemTypeMoney    ItemType = "money"
)

// ParseItemType validates a raw item type.
func ParseItemType(raw string) (ItemType, error) {
	switch ItemType(strings.ToLower(strings.TrimSpace(raw))) {
	case ItemTypeSkin:
		return ItemTypeSkin, nil
	case ItemTypePhysical:
		return ItemTypePhysical, nil
	case ItemTypeMoney:
		return ItemTypeMoney, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidItemType, raw)
	}
}

// String returns the string value.
func (itemType ItemType) String() string {
	return string(itemType)
}

// CaseType selects the eligibility period of a case.
type CaseType string

const (
	CaseTypeDaily   CaseType = "daily"
	CaseTypeMonthly CaseType = "monthly"
)

// ParseCaseType validates a raw case type.
func ParseCaseType(raw string) (CaseType, error) {
	switch CaseType(strings.ToLower(strings.TrimSpace(raw))) {
	case CaseTypeDaily:
		return CaseTypeDaily, nil
	case CaseTypeMonthly:
		return CaseTypeMonthly, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidCaseType, raw)
	}
}

// String returns the string value.
func (caseType CaseType) String() string {
	return string(caseType)
}

// InventoryStatus is the lifecycle state of a won prize.
type InventoryStatus string

const (
	InventoryStatusAvailable  InventoryStatus = "available"
	InventoryStatusProcessing InventoryStatus = "processing"
	InventoryStatusSold       InventoryStatus = "sold"
	InventoryStatusReceived   InventoryStatus = "received"
	InventoryStatusCredited   InventoryStatus = "credited"
)

// ParseInventoryStatus validates a raw inventory status.
func ParseInventoryStatus(raw string) (InventoryStatus, error) {
	switch status := InventoryStatus(strings.ToLower(strings.TrimSpace(raw))); status {
	case InventoryStatusAvailable, InventoryStatusProcessing, InventoryStatusSold, InventoryStatusReceived, InventoryStatusCredited:
		return status, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidInventoryStatus, raw)
	}
}

// String returns the string value.
func (status InventoryStatus) String() string {
	return string(status)
}

// RequestStatus is the lifecycle state of a redemption request.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusDenied   RequestStatus = "denied"
	RequestStatusReturned RequestStatus = "returned"
)

// ParseRequestStatus validates a raw request status.
func ParseRequestStatus(raw string) (RequestStatus, error) {
	switch status := RequestStatus(strings.ToLower(strings.TrimSpace(raw))); status {
	case RequestStatusPending, RequestStatusApproved, RequestStatusDenied, RequestStatusReturned:
		return status, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRequestStatus, raw)
	}
}

// String returns the string value.
func (status RequestStatus) String() string {
	return string(status)
}

// BillingCredential is a client token pair issued by the billing provider.
type BillingCredential struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Profile is the billing view of a client.
type Profile struct {
	UserID   UserID
	Nickname string
	Deposit  decimal.Decimal
}

// Session binds an opaque bearer token to a user.
type Session struct {
	Token      string
	UserID     UserID
	Nickname   string
	Credential BillingCredential
	CreatedAt  time.Time
	LastSeenAt time.Time
	ExpiresAt  time.Time
}

// Expired reports whether the session is past its expiry at the given instant.
func (session Session) Expired(at time.Time) bool {
	return !session.ExpiresAt.IsZero() && !at.Before(session.ExpiresAt)
}

// Item is a redeemable prize definition.
type Item struct {
	ID           int64
	Type         ItemType
	Title        string
	ImageURL     string
	DisplayPrice decimal.Decimal
	SellPrice    decimal.Decimal
	Rarity       string
	Stock        int64
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FiniteStock reports whether the item has a decrementing stock counter.
func (item Item) FiniteStock() bool {
	return item.Stock != UnlimitedStock
}

// Validate checks item invariants before persisting.
func (item Item) Validate() error {
	if _, err := ParseItemType(item.Type.String()); err != nil {
		return err
	}
	if strings.TrimSpace(item.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidItem)
	}
	if item.DisplayPrice.IsNegative() || item.SellPrice.IsNegative() {
		return fmt.Errorf("%w: prices must not be negative", ErrInvalidItem)
	}
	if item.Stock < UnlimitedStock {
		return fmt.Errorf("%w: stock must be -1 or greater", ErrInvalidItem)
	}
	return nil
}

// Case is a configured loot box.
type Case struct {
	ID        int64
	Title     string
	Type      CaseType
	Threshold decimal.Decimal
	ImageURL  string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks case invariants before persisting.
func (lootCase Case) Validate() error {
	if _, err := ParseCaseType(lootCase.Type.String()); err != nil {
		return err
	}
	if strings.TrimSpace(lootCase.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidCase)
	}
	if lootCase.Threshold.IsNegative() {
		return fmt.Errorf("%w: threshold must not be negative", ErrInvalidCase)
	}
	return nil
}

// CaseItem links an item into a case with a relative weight.
type CaseItem struct {
	CaseID int64
	ItemID int64
	Weight float64
	Rarity string
}

// CaseContent is a resolved case link: the item plus its weight and effective rarity.
type CaseContent struct {
	Item   Item
	Weight float64
	Rarity string
}

// CaseClaim records that a user opened a case within a period.
type CaseClaim struct {
	UserID    UserID
	CaseID    int64
	PeriodKey string
	ClaimedAt time.Time
}

// Spin is an append-only drop history record.
type Spin struct {
	ID          int64
	UserID      UserID
	Nickname    string
	CaseID      int64
	PeriodKey   string
	PrizeTitle  string
	PrizeAmount decimal.Decimal
	Rarity      string
	ImageURL    string
	CreatedAt   time.Time
}

// InventoryEntry is a won prize owned by a user, with a snapshot of the item at grant time.
type InventoryEntry struct {
	ID           int64
	UserID       UserID
	ItemID       int64
	CaseID       int64
	ItemType     ItemType
	Title        string
	ImageURL     string
	DisplayPrice decimal.Decimal
	SellPrice    decimal.Decimal
	Rarity       string
	Status       InventoryStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RedemptionRequest asks an operator to fulfil a skin or physical prize.
type RedemptionRequest struct {
	ID           string
	UserID       UserID
	InventoryID  int64
	ItemTitle    string
	ItemType     ItemType
	TradeLink    string
	Status       RequestStatus
	AdminComment string
	Snapshot     RequestSnapshot
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RequestSnapshot freezes the inventory details an operator needs to fulfil a request.
type RequestSnapshot struct {
	ImageURL     string `json:"image_url"`
	Rarity       string `json:"rarity"`
	DisplayPrice string `json:"display_price"`
	Nickname     string `json:"nickname,omitempty"`
}

// UserSettings holds per-user preferences and progression.
type UserSettings struct {
	UserID    UserID
	TradeLink string
	Level     int
	XP        int64
	UpdatedAt time.Time
}

// Payment is a normalized billing transaction.
type Payment struct {
	DateKey  string
	Title    string
	ItemType string
	Amount   decimal.Decimal
	Reversed bool
}

// Progress holds deposit totals for the current day and month.
type Progress struct {
	Daily   decimal.Decimal
	Monthly decimal.Decimal
}

// ForCase returns the total relevant to the case period type.
func (progress Progress) ForCase(caseType CaseType) decimal.Decimal {
	if caseType == CaseTypeMonthly {
		return progress.Monthly
	}
	return progress.Daily
}

// Prize describes the outcome of a case opening.
type Prize struct {
	InventoryID int64
	ItemID      int64
	CaseID      int64
	PeriodKey   string
	ItemType    ItemType
	Title       string
	ImageURL    string
	Rarity      string
	Amount      decimal.Decimal
	SellPrice   decimal.Decimal
	Status      InventoryStatus
}

// CaseStatus is the per-user eligibility view of a case for the current period.
type CaseStatus struct {
	Case      Case
	Progress  decimal.Decimal
	PeriodKey string
	Unlocked  bool
	Claimed   bool
	ResetsAt  time.Time
}

// Available reports whether the case can be opened right now.
func (status CaseStatus) Available() bool {
	return status.Unlocked && !status.Claimed
}

// PublicStats aggregates the drop history.
type PublicStats struct {
	TotalSpins      int64
	TotalPlayers    int64
	SpinsToday      int64
	TotalPrizeValue decimal.Decimal
}
