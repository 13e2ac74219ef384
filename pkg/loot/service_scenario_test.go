package loot_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MarkoPoloResearchLab/lootcase/internal/store/gormstore"
	"github.com/MarkoPoloResearchLab/lootcase/pkg/loot"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	scenarioUser     = "0f8fad5b-d9cb-469f-a165-70867728950e"
	scenarioNickname = "trinity"
)

// 09:00 UTC is 11:00 in Riga.
var scenarioNow = time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

type scenarioBilling struct {
	mu       sync.Mutex
	payments []loot.Payment
}

func (billing *scenarioBilling) Authenticate(context.Context, string, string) (loot.BillingCredential, error) {
	return loot.BillingCredential{AccessToken: "access"}, nil
}

func (billing *scenarioBilling) FetchProfile(context.Context, loot.BillingCredential) (loot.Profile, error) {
	userID, err := loot.NewUserID(scenarioUser)
	return loot.Profile{UserID: userID, Nickname: scenarioNickname}, err
}

func (billing *scenarioBilling) RecentPayments(context.Context, loot.UserID) ([]loot.Payment, error) {
	billing.mu.Lock()
	defer billing.mu.Unlock()
	return append([]loot.Payment(nil), billing.payments...), nil
}

func (billing *scenarioBilling) deposit(dateKey string, amount int64) {
	billing.mu.Lock()
	defer billing.mu.Unlock()
	billing.payments = append(billing.payments, loot.Payment{DateKey: dateKey, ItemType: "DEPOSIT", Amount: decimal.NewFromInt(amount)})
}

type scenario struct {
	store   *gormstore.Store
	billing *scenarioBilling
	service *loot.Service
	clock   *scenarioClock
	userID  loot.UserID
}

type scenarioClock struct {
	mu  sync.Mutex
	now time.Time
}

func (clock *scenarioClock) Now() time.Time {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	return clock.now
}

func (clock *scenarioClock) Advance(duration time.Duration) {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	clock.now = clock.now.Add(duration)
}

func newScenario(test *testing.T, options ...loot.ServiceOption) *scenario {
	test.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(test, err)
	sqlDB, err := db.DB()
	require.NoError(test, err)
	sqlDB.SetMaxOpenConns(1)
	test.Cleanup(func() { _ = sqlDB.Close() })

	store := gormstore.New(db)
	require.NoError(test, store.AutoMigrate())
	return newScenarioWithStore(test, store, store, options...)
}

func newScenarioWithStore(test *testing.T, store *gormstore.Store, serviceStore loot.Store, options ...loot.ServiceOption) *scenario {
	test.Helper()
	billing := &scenarioBilling{}
	clock := &scenarioClock{now: scenarioNow}
	service, err := loot.NewService(serviceStore, billing, clock.Now, options...)
	require.NoError(test, err)
	userID, err := loot.NewUserID(scenarioUser)
	require.NoError(test, err)
	return &scenario{store: store, billing: billing, service: service, clock: clock, userID: userID}
}

func (scenario *scenario) item(test *testing.T, itemType loot.ItemType, title string, stock int64) loot.Item {
	test.Helper()
	item, err := scenario.service.UpsertItem(context.Background(), loot.Item{
		Type:         itemType,
		Title:        title,
		DisplayPrice: decimal.NewFromInt(25),
		SellPrice:    decimal.NewFromInt(15),
		Rarity:       "rare",
		Stock:        stock,
		IsActive:     true,
	})
	require.NoError(test, err)
	return item
}

func (scenario *scenario) dailyCase(test *testing.T, threshold int64, links ...loot.CaseItem) loot.Case {
	test.Helper()
	lootCase, err := scenario.service.UpsertCase(context.Background(), loot.Case{
		Title:     "Daily drop",
		Type:      loot.CaseTypeDaily,
		Threshold: decimal.NewFromInt(threshold),
		IsActive:  true,
	}, links)
	require.NoError(test, err)
	return lootCase
}

func (scenario *scenario) counts(test *testing.T) (claims int, spins int, inventory int) {
	test.Helper()
	ctx := context.Background()
	claimRows, err := scenario.store.ListClaims(ctx, scenario.userID, []string{"2026-03-10", "2026-03"})
	require.NoError(test, err)
	spinRows, err := scenario.store.ListRecentSpins(ctx, 100)
	require.NoError(test, err)
	entries, err := scenario.store.ListInventory(ctx, scenario.userID, []loot.InventoryStatus{
		loot.InventoryStatusAvailable, loot.InventoryStatusProcessing, loot.InventoryStatusSold,
		loot.InventoryStatusReceived, loot.InventoryStatusCredited,
	})
	require.NoError(test, err)
	return len(claimRows), len(spinRows), len(entries)
}

func (scenario *scenario) openWonPrize(test *testing.T, itemType loot.ItemType) loot.Prize {
	test.Helper()
	item := scenario.item(test, itemType, "Prize", loot.UnlimitedStock)
	lootCase := scenario.dailyCase(test, 10, loot.CaseItem{ItemID: item.ID, Weight: 1})
	scenario.billing.deposit("2026-03-10", 15)
	prize, err := scenario.service.OpenCase(context.Background(), scenario.userID, scenarioNickname, lootCase.ID)
	require.NoError(test, err)
	return prize
}

func TestOpenCaseWithoutDepositWritesNothing(test *testing.T) {
	test.Parallel()
	scenario := newScenario(test)
	item := scenario.item(test, loot.ItemTypeSkin, "Glock | Fade", loot.UnlimitedStock)
	lootCase := scenario.dailyCase(test, 10, loot.CaseItem{ItemID: item.ID, Weight: 1})

	_, err := scenario.service.OpenCase(context.Background(), scenario.userID, scenarioNickname, lootCase.ID)
	require.ErrorIs(test, err, loot.ErrNotEnoughDeposit)

	claims, spins, inventory := scenario.counts(test)
	require.Zero(test, claims)
	require.Zero(test, spins)
	require.Zero(test, inventory)
}

func TestOpenCaseGrantsExactlyOnePrize(test *testing.T) {
	test.Parallel()
	scenario := newScenario(test)
	first := scenario.item(test, loot.ItemTypeSkin, "M4A1 | Howl", loot.UnlimitedStock)
	second := scenario.item(test, loot.ItemTypePhysical, "Keyboard", loot.UnlimitedStock)
	lootCase := scenario.dailyCase(test, 10,
		loot.CaseItem{ItemID: first.ID, Weight: 50},
		loot.CaseItem{ItemID: second.ID, Weight: 50},
	)
	scenario.billing.deposit("2026-03-10", 15)

	prize, err := scenario.service.OpenCase(context.Background(), scenario.userID, scenarioNickname, lootCase.ID)
	require.NoError(test, err)
	require.Contains(test, []int64{first.ID, second.ID}, prize.ItemID)
	require.Equal(test, "2026-03-10", prize.PeriodKey)
	require.Equal(test, loot.InventoryStatusAvailable, prize.Status)

	claims, spins, inventory := scenario.counts(test)
	require.Equal(test, 1, claims)
	require.Equal(test, 1, spins)
	require.Equal(test, 1, inventory)

	claimRows, err := scenario.store.ListClaims(context.Background(), scenario.userID, []string{"2026-03-10"})
	require.NoError(test, err)
	require.Len(test, claimRows, 1)
	require.Equal(test, lootCase.ID, claimRows[0].CaseID)

	settings, err := scenario.service.UserSettings(context.Background(), scenario.userID)
	require.NoError(test, err)
	require.Equal(test, int64(10), settings.XP)
	require.Equal(test, 1, settings.Level)

	_, err = scenario.service.OpenCase(context.Background(), scenario.userID, scenarioNickname, lootCase.ID)
	require.ErrorIs(test, err, loot.ErrAlreadyOpened)
	claims, spins, inventory = scenario.counts(test)
	require.Equal(test, 1, claims)
	require.Equal(test, 1, spins)
	require.Equal(test, 1, inventory)
}

func TestOpenCaseResetsNextRigaDay(test *testing.T) {
	test.Parallel()
	scenario := newScenario(test)
	item := scenario.item(test, loot.ItemTypePhysical, "Mug", loot.UnlimitedStock)
	lootCase := scenario.dailyCase(test, 10, loot.CaseItem{ItemID: item.ID, Weight: 1})
	scenario.billing.deposit("2026-03-10", 10)
	scenario.billing.deposit("2026-03-11", 10)

	_, err := scenario.service.OpenCase(context.Background(), scenario.userID, scenarioNickname, lootCase.ID)
	require.NoError(test, err)

	// 22:00 UTC on March 10 is already March 11 in Riga.
	scenario.clock.Advance(13 * time.Hour)
	prize, err := scenario.service.OpenCase(context.Background(), scenario.userID, scenarioNickname, lootCase.ID)
	require.NoError(test, err)
	require.Equal(test, "2026-03-11", prize.PeriodKey)
}

func TestConcurrentOpensYieldSingleSuccess(test *testing.T) {
	test.Parallel()
	scenario := newScenario(test)
	item := scenario.item(test, loot.ItemTypeSkin, "Karambit", loot.UnlimitedStock)
	lootCase := scenario.dailyCase(test, 10, loot.CaseItem{ItemID: item.ID, Weight: 1})
	scenario.billing.deposit("2026-03-10", 20)

	const attempts = 8
	results := make(chan error, attempts)
	start := make(chan struct{})
	var group sync.WaitGroup
	for index := 0; index < attempts; index++ {
		group.Add(1)
		go func() {
			defer group.Done()
			<-start
			_, err := scenario.service.OpenCase(context.Background(), scenario.userID, scenarioNickname, lootCase.ID)
			results <- err
		}()
	}
	close(start)
	group.Wait()
	close(results)

	successes, alreadyOpened := 0, 0
	for err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, loot.ErrAlreadyOpened):
			alreadyOpened++
		default:
			test.Fatalf("unexpected open error: %v", err)
		}
	}
	require.Equal(test, 1, successes)
	require.Equal(test, attempts-1, alreadyOpened)
	claims, spins, inventory := scenario.counts(test)
	require.Equal(test, 1, claims)
	require.Equal(test, 1, spins)
	require.Equal(test, 1, inventory)
}

func TestInsertClaimTwiceIsAlreadyOpened(test *testing.T) {
	test.Parallel()
	scenario := newScenario(test)
	claim := loot.CaseClaim{UserID: scenario.userID, CaseID: 1, PeriodKey: "2026-03-10", ClaimedAt: scenarioNow}
	require.NoError(test, scenario.store.InsertClaim(context.Background(), claim))
	require.ErrorIs(test, scenario.store.InsertClaim(context.Background(), claim), loot.ErrAlreadyOpened)
}

type failingInventoryStore struct {
	loot.Store
}

func (store failingInventoryStore) WithTx(ctx context.Context, fn func(ctx context.Context, txStore loot.Store) error) error {
	return store.Store.WithTx(ctx, func(ctx context.Context, txStore loot.Store) error {
		return fn(ctx, failingInventoryStore{Store: txStore})
	})
}

func (failingInventoryStore) InsertInventoryEntry(context.Context, loot.InventoryEntry) (loot.InventoryEntry, error) {
	return loot.InventoryEntry{}, errors.New("disk full")
}

func TestOpenCaseRollsBackPartialGrant(test *testing.T) {
	test.Parallel()
	base := newScenario(test)
	scenario := newScenarioWithStore(test, base.store, failingInventoryStore{Store: base.store})
	item := scenario.item(test, loot.ItemTypeSkin, "Deagle", loot.UnlimitedStock)
	lootCase := scenario.dailyCase(test, 10, loot.CaseItem{ItemID: item.ID, Weight: 1})
	scenario.billing.deposit("2026-03-10", 50)

	_, err := scenario.service.OpenCase(context.Background(), scenario.userID, scenarioNickname, lootCase.ID)
	require.ErrorIs(test, err, loot.ErrOpenFailed)

	claims, spins, inventory := scenario.counts(test)
	require.Zero(test, claims)
	require.Zero(test, spins)
	require.Zero(test, inventory)
}

func TestOpenCaseStockFiltering(test *testing.T) {
	test.Parallel()
	scenario := newScenario(test)
	limited := scenario.item(test, loot.ItemTypePhysical, "Signed jersey", 1)
	lootCase := scenario.dailyCase(test, 10, loot.CaseItem{ItemID: limited.ID, Weight: 1})
	scenario.billing.deposit("2026-03-10", 10)

	_, err := scenario.service.OpenCase(context.Background(), scenario.userID, scenarioNickname, lootCase.ID)
	require.NoError(test, err)
	stored, err := scenario.store.GetItem(context.Background(), limited.ID)
	require.NoError(test, err)
	require.Equal(test, int64(0), stored.Stock)

	_, contents, err := scenario.service.CaseDetails(context.Background(), lootCase.ID)
	require.NoError(test, err)
	require.Empty(test, contents)

	scenario.clock.Advance(24 * time.Hour)
	scenario.billing.deposit("2026-03-11", 10)
	_, err = scenario.service.OpenCase(context.Background(), scenario.userID, scenarioNickname, lootCase.ID)
	require.ErrorIs(test, err, loot.ErrCaseEmpty)
}

func TestOpenCaseZeroWeightIsMisconfigured(test *testing.T) {
	test.Parallel()
	scenario := newScenario(test)
	item := scenario.item(test, loot.ItemTypeSkin, "Sticker", loot.UnlimitedStock)
	lootCase := scenario.dailyCase(test, 0, loot.CaseItem{ItemID: item.ID, Weight: 0})

	_, err := scenario.service.OpenCase(context.Background(), scenario.userID, scenarioNickname, lootCase.ID)
	require.ErrorIs(test, err, loot.ErrCaseMisconfigured)
	claims, _, _ := scenario.counts(test)
	require.Zero(test, claims)
}

func TestAutoCreditMoneyPrize(test *testing.T) {
	test.Parallel()
	engine := loot.DefaultEngineConfig()
	engine.AutoCreditMoney = true
	credits := &recordingCreditor{}
	scenario := newScenario(test, loot.WithEngineConfig(engine), loot.WithCreditRequester(credits))
	prize := scenario.openWonPrize(test, loot.ItemTypeMoney)
	require.Equal(test, loot.InventoryStatusCredited, prize.Status)
	require.Len(test, credits.amounts, 1)
	require.True(test, credits.amounts[0].Equal(decimal.NewFromInt(25)))
}

type recordingCreditor struct {
	mu      sync.Mutex
	amounts []decimal.Decimal
}

func (creditor *recordingCreditor) RequestCredit(_ context.Context, _ loot.UserID, amount decimal.Decimal, _ string) error {
	creditor.mu.Lock()
	defer creditor.mu.Unlock()
	creditor.amounts = append(creditor.amounts, amount)
	return nil
}

func TestSellMoneyPrizeFails(test *testing.T) {
	test.Parallel()
	scenario := newScenario(test)
	prize := scenario.openWonPrize(test, loot.ItemTypeMoney)

	_, err := scenario.service.Sell(context.Background(), scenario.userID, prize.InventoryID)
	require.ErrorIs(test, err, loot.ErrCannotSellMoney)
	entry, err := scenario.store.GetInventoryEntry(context.Background(), scenario.userID, prize.InventoryID)
	require.NoError(test, err)
	require.Equal(test, loot.InventoryStatusAvailable, entry.Status)

	credits := &recordingCreditor{}
	scenario = newScenarioWithStore(test, scenario.store, scenario.store, loot.WithCreditRequester(credits))
	result, err := scenario.service.Claim(context.Background(), scenario.userID, scenarioNickname, prize.InventoryID)
	require.NoError(test, err)
	require.Nil(test, result.Request)
	require.Equal(test, loot.InventoryStatusCredited, result.Entry.Status)
	require.Len(test, credits.amounts, 1)
	require.True(test, credits.amounts[0].Equal(decimal.NewFromInt(25)))
}

func TestSellSkinPrize(test *testing.T) {
	test.Parallel()
	scenario := newScenario(test)
	prize := scenario.openWonPrize(test, loot.ItemTypeSkin)

	amount, err := scenario.service.Sell(context.Background(), scenario.userID, prize.InventoryID)
	require.NoError(test, err)
	require.True(test, amount.Equal(decimal.NewFromInt(15)))

	_, err = scenario.service.Sell(context.Background(), scenario.userID, prize.InventoryID)
	require.ErrorIs(test, err, loot.ErrNotAvailable)

	other, err := loot.NewUserID("someone-else")
	require.NoError(test, err)
	_, err = scenario.service.Sell(context.Background(), other, prize.InventoryID)
	require.ErrorIs(test, err, loot.ErrInventoryNotFound)
}

func TestClaimSkinWithoutTradeLinkLeavesEntryAvailable(test *testing.T) {
	test.Parallel()
	scenario := newScenario(test)
	prize := scenario.openWonPrize(test, loot.ItemTypeSkin)

	_, err := scenario.service.Claim(context.Background(), scenario.userID, scenarioNickname, prize.InventoryID)
	require.ErrorIs(test, err, loot.ErrTradeLinkMissing)
	entry, err := scenario.store.GetInventoryEntry(context.Background(), scenario.userID, prize.InventoryID)
	require.NoError(test, err)
	require.Equal(test, loot.InventoryStatusAvailable, entry.Status)
	requests, err := scenario.service.ListRequests(context.Background(), "")
	require.NoError(test, err)
	require.Empty(test, requests)
}

func TestClaimPhysicalWithoutTradeLinkLeavesEntryAvailable(test *testing.T) {
	test.Parallel()
	scenario := newScenario(test)
	prize := scenario.openWonPrize(test, loot.ItemTypePhysical)

	_, err := scenario.service.Claim(context.Background(), scenario.userID, scenarioNickname, prize.InventoryID)
	require.ErrorIs(test, err, loot.ErrTradeLinkMissing)
	entry, err := scenario.store.GetInventoryEntry(context.Background(), scenario.userID, prize.InventoryID)
	require.NoError(test, err)
	require.Equal(test, loot.InventoryStatusAvailable, entry.Status)
	requests, err := scenario.service.ListRequests(context.Background(), "")
	require.NoError(test, err)
	require.Empty(test, requests)
}

func TestDenyRequestRestoresInventory(test *testing.T) {
	test.Parallel()
	scenario := newScenario(test)
	prize := scenario.openWonPrize(test, loot.ItemTypeSkin)
	_, err := scenario.service.SetTradeLink(context.Background(), scenario.userID, "https://steamcommunity.com/tradeoffer/new/?partner=42")
	require.NoError(test, err)

	result, err := scenario.service.Claim(context.Background(), scenario.userID, scenarioNickname, prize.InventoryID)
	require.NoError(test, err)
	require.NotNil(test, result.Request)
	require.Equal(test, loot.RequestStatusPending, result.Request.Status)
	require.Equal(test, loot.InventoryStatusProcessing, result.Entry.Status)

	pending, err := scenario.service.ListRequests(context.Background(), loot.RequestStatusPending)
	require.NoError(test, err)
	require.Len(test, pending, 1)
	require.Equal(test, scenarioNickname, pending[0].Snapshot.Nickname)
	require.Equal(test, "25.00", pending[0].Snapshot.DisplayPrice)

	denied, err := scenario.service.DenyRequest(context.Background(), result.Request.ID, "not eligible")
	require.NoError(test, err)
	require.Equal(test, loot.RequestStatusDenied, denied.Status)
	require.Equal(test, "not eligible", denied.AdminComment)

	entry, err := scenario.store.GetInventoryEntry(context.Background(), scenario.userID, prize.InventoryID)
	require.NoError(test, err)
	require.Equal(test, loot.InventoryStatusAvailable, entry.Status)

	_, err = scenario.service.ApproveRequest(context.Background(), result.Request.ID)
	require.ErrorIs(test, err, loot.ErrRequestClosed)
}

func TestApproveThenReturnRequest(test *testing.T) {
	test.Parallel()
	scenario := newScenario(test)
	prize := scenario.openWonPrize(test, loot.ItemTypePhysical)
	_, err := scenario.service.SetTradeLink(context.Background(), scenario.userID, "https://steamcommunity.com/tradeoffer/new/?partner=42")
	require.NoError(test, err)

	result, err := scenario.service.Claim(context.Background(), scenario.userID, scenarioNickname, prize.InventoryID)
	require.NoError(test, err)
	require.NotNil(test, result.Request)

	approved, err := scenario.service.ApproveRequest(context.Background(), result.Request.ID)
	require.NoError(test, err)
	require.Equal(test, loot.RequestStatusApproved, approved.Status)
	entry, err := scenario.store.GetInventoryEntry(context.Background(), scenario.userID, prize.InventoryID)
	require.NoError(test, err)
	require.Equal(test, loot.InventoryStatusReceived, entry.Status)

	returned, err := scenario.service.ReturnRequest(context.Background(), result.Request.ID)
	require.NoError(test, err)
	require.Equal(test, loot.RequestStatusReturned, returned.Status)
	entry, err = scenario.store.GetInventoryEntry(context.Background(), scenario.userID, prize.InventoryID)
	require.NoError(test, err)
	require.Equal(test, loot.InventoryStatusAvailable, entry.Status)

	_, err = scenario.service.ReturnRequest(context.Background(), "REQ-000000")
	require.ErrorIs(test, err, loot.ErrRequestNotFound)
}

func TestSessionsExpireAndReplace(test *testing.T) {
	test.Parallel()
	scenario := newScenario(test, loot.WithSessionTTL(time.Hour))
	ctx := context.Background()

	first, _, err := scenario.service.Login(ctx, "trinity", "pw")
	require.NoError(test, err)
	second, _, err := scenario.service.Login(ctx, "trinity", "pw")
	require.NoError(test, err)
	require.NotEqual(test, first.Token, second.Token)

	_, err = scenario.service.LookupSession(ctx, first.Token)
	require.ErrorIs(test, err, loot.ErrSessionNotFound)

	found, err := scenario.service.LookupSession(ctx, second.Token)
	require.NoError(test, err)
	require.Equal(test, scenario.userID, found.UserID)

	scenario.clock.Advance(time.Hour)
	_, err = scenario.service.LookupSession(ctx, second.Token)
	require.ErrorIs(test, err, loot.ErrSessionExpired)
	_, err = scenario.service.LookupSession(ctx, second.Token)
	require.ErrorIs(test, err, loot.ErrSessionNotFound)
}

func TestUpsertCaseReplacesLinks(test *testing.T) {
	test.Parallel()
	scenario := newScenario(test)
	ctx := context.Background()
	first := scenario.item(test, loot.ItemTypeSkin, "First", loot.UnlimitedStock)
	second := scenario.item(test, loot.ItemTypeSkin, "Second", loot.UnlimitedStock)
	lootCase := scenario.dailyCase(test, 5, loot.CaseItem{ItemID: first.ID, Weight: 1}, loot.CaseItem{ItemID: second.ID, Weight: 1})

	lootCase.Title = "Renamed"
	updated, err := scenario.service.UpsertCase(ctx, lootCase, []loot.CaseItem{{ItemID: second.ID, Weight: 4, Rarity: "legendary"}})
	require.NoError(test, err)
	require.Equal(test, "Renamed", updated.Title)
	contents, err := scenario.service.ListCaseContents(ctx, lootCase.ID)
	require.NoError(test, err)
	require.Len(test, contents, 1)
	require.Equal(test, second.ID, contents[0].Item.ID)
	require.Equal(test, "legendary", contents[0].Rarity)

	_, err = scenario.service.UpsertCase(ctx, lootCase, []loot.CaseItem{{ItemID: 9999, Weight: 1}})
	require.ErrorIs(test, err, loot.ErrItemNotFound)
	contents, err = scenario.service.ListCaseContents(ctx, lootCase.ID)
	require.NoError(test, err)
	require.Len(test, contents, 1)

	require.NoError(test, scenario.service.DeleteItem(ctx, second.ID))
	contents, err = scenario.service.ListCaseContents(ctx, lootCase.ID)
	require.NoError(test, err)
	require.Empty(test, contents)

	require.NoError(test, scenario.service.DeleteCase(ctx, lootCase.ID))
	_, err = scenario.service.GetCase(ctx, lootCase.ID)
	require.ErrorIs(test, err, loot.ErrCaseNotFound)
}

func TestCaseStatusesAndFeed(test *testing.T) {
	test.Parallel()
	scenario := newScenario(test)
	ctx := context.Background()
	prize := scenario.openWonPrize(test, loot.ItemTypeSkin)

	statuses, progress, err := scenario.service.CaseStatuses(ctx, scenario.userID)
	require.NoError(test, err)
	require.True(test, progress.Daily.Equal(decimal.NewFromInt(15)))
	require.Len(test, statuses, 1)
	require.True(test, statuses[0].Unlocked)
	require.True(test, statuses[0].Claimed)
	require.False(test, statuses[0].Available())

	stats, err := scenario.service.PublicStats(ctx)
	require.NoError(test, err)
	require.Equal(test, int64(1), stats.TotalSpins)
	require.Equal(test, int64(1), stats.TotalPlayers)
	require.Equal(test, int64(1), stats.SpinsToday)
	require.True(test, stats.TotalPrizeValue.Equal(decimal.NewFromInt(25)))

	drops, err := scenario.service.RecentDrops(ctx, 0)
	require.NoError(test, err)
	require.Len(test, drops, 1)
	require.Equal(test, prize.CaseID, drops[0].CaseID)
	require.Equal(test, scenarioNickname, drops[0].Nickname)
}

// steppingClock returns first on the initial read and after on every later one.
type steppingClock struct {
	mu    sync.Mutex
	reads int
	first time.Time
	after time.Time
}

func (clock *steppingClock) Now() time.Time {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	clock.reads++
	if clock.reads == 1 {
		return clock.first
	}
	return clock.after
}

func TestOpenCaseAtMidnightUsesOneRigaDay(test *testing.T) {
	test.Parallel()
	scenario := newScenario(test)
	item := scenario.item(test, loot.ItemTypePhysical, "Mug", loot.UnlimitedStock)
	lootCase := scenario.dailyCase(test, 10, loot.CaseItem{ItemID: item.ID, Weight: 1})
	scenario.billing.deposit("2026-03-11", 15)

	// 21:59:59.9 UTC is the last instant of 2026-03-10 in Riga.
	clock := &steppingClock{
		first: time.Date(2026, time.March, 10, 21, 59, 59, 900_000_000, time.UTC),
		after: time.Date(2026, time.March, 10, 22, 0, 0, 100_000_000, time.UTC),
	}
	service, err := loot.NewService(scenario.store, scenario.billing, clock.Now)
	require.NoError(test, err)

	_, err = service.OpenCase(context.Background(), scenario.userID, scenarioNickname, lootCase.ID)
	require.ErrorIs(test, err, loot.ErrNotEnoughDeposit)
	claims, spins, inventory := scenario.counts(test)
	require.Zero(test, claims)
	require.Zero(test, spins)
	require.Zero(test, inventory)
}
