package gormstore

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Session mirrors the sessions table.
type Session struct {
	Token               string     `gorm:"primaryKey"`
	UserUUID            string     `gorm:"not null;index:idx_sessions_user_uuid"`
	Nickname            string     `gorm:"not null"`
	AccessToken         string     `gorm:"not null"`
	RefreshToken        string     `gorm:"not null"`
	CredentialExpiresAt *time.Time `gorm:""`
	CreatedAt           time.Time  `gorm:"not null"`
	LastSeenAt          time.Time  `gorm:"not null"`
	ExpiresAt           time.Time  `gorm:"not null;index:idx_sessions_expires_at"`
}

func (Session) TableName() string { return "sessions" }

// Item mirrors the items table.
type Item struct {
	ID           int64           `gorm:"primaryKey;autoIncrement"`
	Type         string          `gorm:"not null"`
	Title        string          `gorm:"not null"`
	ImageURL     string          `gorm:"not null"`
	DisplayPrice decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	SellPrice    decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Rarity       string          `gorm:"not null"`
	Stock        int64           `gorm:"not null"`
	IsActive     bool            `gorm:"not null"`
	CreatedAt    time.Time       `gorm:"not null"`
	UpdatedAt    time.Time       `gorm:"not null"`
}

func (Item) TableName() string { return "items" }

// Case mirrors the cases table.
type Case struct {
	ID        int64           `gorm:"primaryKey;autoIncrement"`
	Title     string          `gorm:"not null"`
	Type      string          `gorm:"not null"`
	Threshold decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	ImageURL  string          `gorm:"not null"`
	IsActive  bool            `gorm:"not null;index:idx_cases_active"`
	CreatedAt time.Time       `gorm:"not null"`
	UpdatedAt time.Time       `gorm:"not null"`
}

func (Case) TableName() string { return "cases" }

// CaseItem mirrors the case_items link table.
type CaseItem struct {
	CaseID int64   `gorm:"primaryKey;autoIncrement:false"`
	ItemID int64   `gorm:"primaryKey;autoIncrement:false;index:idx_case_items_item_id"`
	Weight float64 `gorm:"not null"`
	Rarity string  `gorm:"not null"`
}

func (CaseItem) TableName() string { return "case_items" }

// CaseClaim mirrors the case_claims table; one row per user, case and period.
type CaseClaim struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	UserUUID  string    `gorm:"not null;uniqueIndex:uniq_case_claims_user_case_period,priority:1"`
	CaseID    int64     `gorm:"not null;uniqueIndex:uniq_case_claims_user_case_period,priority:2"`
	PeriodKey string    `gorm:"not null;uniqueIndex:uniq_case_claims_user_case_period,priority:3"`
	ClaimedAt time.Time `gorm:"not null"`
}

func (CaseClaim) TableName() string { return "case_claims" }

// Spin mirrors the append-only spins table.
type Spin struct {
	ID          int64           `gorm:"primaryKey;autoIncrement"`
	UserUUID    string          `gorm:"not null;index:idx_spins_user_uuid"`
	Nickname    string          `gorm:"not null"`
	CaseID      int64           `gorm:"not null"`
	PeriodKey   string          `gorm:"not null"`
	PrizeTitle  string          `gorm:"not null"`
	PrizeAmount decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Rarity      string          `gorm:"not null"`
	ImageURL    string          `gorm:"not null"`
	CreatedAt   time.Time       `gorm:"not null;index:idx_spins_created_at"`
}

func (Spin) TableName() string { return "spins" }

// InventoryEntry mirrors the inventory table.
type InventoryEntry struct {
	ID           int64           `gorm:"primaryKey;autoIncrement"`
	UserUUID     string          `gorm:"not null;index:idx_inventory_user_status,priority:1"`
	ItemID       int64           `gorm:"not null"`
	CaseID       int64           `gorm:"not null"`
	ItemType     string          `gorm:"not null"`
	Title        string          `gorm:"not null"`
	ImageURL     string          `gorm:"not null"`
	DisplayPrice decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	SellPrice    decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Rarity       string          `gorm:"not null"`
	Status       string          `gorm:"not null;index:idx_inventory_user_status,priority:2"`
	CreatedAt    time.Time       `gorm:"not null"`
	UpdatedAt    time.Time       `gorm:"not null"`
}

func (InventoryEntry) TableName() string { return "inventory" }

// RedemptionRequest mirrors the redemption_requests table.
type RedemptionRequest struct {
	ID           string         `gorm:"primaryKey"`
	UserUUID     string         `gorm:"not null;index:idx_redemption_requests_user_uuid"`
	InventoryID  int64          `gorm:"not null;index:idx_redemption_requests_inventory_id"`
	ItemTitle    string         `gorm:"not null"`
	ItemType     string         `gorm:"not null"`
	TradeLink    string         `gorm:"not null"`
	Status       string         `gorm:"not null;index:idx_redemption_requests_status"`
	AdminComment string         `gorm:"not null"`
	Snapshot     datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt    time.Time      `gorm:"not null"`
	UpdatedAt    time.Time      `gorm:"not null"`
}

func (RedemptionRequest) TableName() string { return "redemption_requests" }

// UserSettings mirrors the user_settings table.
type UserSettings struct {
	UserUUID  string    `gorm:"primaryKey"`
	TradeLink string    `gorm:"not null"`
	Level     int       `gorm:"not null"`
	XP        int64     `gorm:"column:xp;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (UserSettings) TableName() string { return "user_settings" }

// Models lists every table for AutoMigrate.
func Models() []any {
	return []any{
		&Session{},
		&Item{},
		&Case{},
		&CaseItem{},
		&CaseClaim{},
		&Spin{},
		&InventoryEntry{},
		&RedemptionRequest{},
		&UserSettings{},
	}
}
