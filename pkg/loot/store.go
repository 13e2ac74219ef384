package loot

import (
	"context"
	"time"
)

// Store persists sessions, catalog, claims, drops, inventory and redemption requests.
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, txStore Store) error) error

	CreateSession(ctx context.Context, session Session) error
	GetSession(ctx context.Context, token string) (Session, error)
	TouchSession(ctx context.Context, token string, at time.Time) error
	DeleteSession(ctx context.Context, token string) error
	DeleteUserSessions(ctx context.Context, userID UserID) error

	ListItems(ctx context.Context) ([]Item, error)
	GetItem(ctx context.Context, itemID int64) (Item, error)
	SaveItem(ctx context.Context, item Item) (Item, error)
	DeleteItem(ctx context.Context, itemID int64) error
	DeleteItemLinks(ctx context.Context, itemID int64) error
	DecrementStock(ctx context.Context, itemID int64) error

	ListCases(ctx context.Context, activeOnly bool) ([]Case, error)
	GetCase(ctx context.Context, caseID int64) (Case, error)
	SaveCase(ctx context.Context, lootCase Case) (Case, error)
	DeleteCase(ctx context.Context, caseID int64) error
	DeleteCaseLinks(ctx context.Context, caseID int64) error
	InsertCaseLinks(ctx context.Context, links []CaseItem) error
	ListCaseContents(ctx context.Context, caseID int64) ([]CaseContent, error)

	HasClaim(ctx context.Context, userID UserID, caseID int64, periodKey string) (bool, error)
	InsertClaim(ctx context.Context, claim CaseClaim) error
	ListClaims(ctx context.Context, userID UserID, periodKeys []string) ([]CaseClaim, error)
	InsertSpin(ctx context.Context, spin Spin) (Spin, error)
	ListRecentSpins(ctx context.Context, limit int) ([]Spin, error)
	SpinStats(ctx context.Context, since time.Time) (PublicStats, error)

	InsertInventoryEntry(ctx context.Context, entry InventoryEntry) (InventoryEntry, error)
	GetInventoryEntry(ctx context.Context, userID UserID, inventoryID int64) (InventoryEntry, error)
	GetInventoryEntryByID(ctx context.Context, inventoryID int64) (InventoryEntry, error)
	ListInventory(ctx context.Context, userID UserID, statuses []InventoryStatus) ([]InventoryEntry, error)
	UpdateInventoryStatus(ctx context.Context, inventoryID int64, from []InventoryStatus, to InventoryStatus) error

	CreateRedemptionRequest(ctx context.Context, request RedemptionRequest) error
	GetRedemptionRequest(ctx context.Context, requestID string) (RedemptionRequest, error)
	ListRedemptionRequests(ctx context.Context, status RequestStatus) ([]RedemptionRequest, error)
	UpdateRedemptionRequest(ctx context.Context, requestID string, from []RequestStatus, to RequestStatus, comment string) error

	GetUserSettings(ctx context.Context, userID UserID) (UserSettings, error)
	SaveTradeLink(ctx context.Context, userID UserID, tradeLink string) (UserSettings, error)
	AddExperience(ctx context.Context, userID UserID, xp int64, xpPerLevel int64) (UserSettings, error)
}

// BillingGateway is the external billing provider as seen by the service.
type BillingGateway interface {
	Authenticate(ctx context.Context, login string, password string) (BillingCredential, error)
	FetchProfile(ctx context.Context, credential BillingCredential) (Profile, error)
	RecentPayments(ctx context.Context, userID UserID) ([]Payment, error)
}
