//go:build integration

package gormstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/MarkoPoloResearchLab/lootcase/internal/migrate"
	"github.com/MarkoPoloResearchLab/lootcase/pkg/loot"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newPostgresStore(test *testing.T) *Store {
	test.Helper()
	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("lootcase_test"),
		tcpostgres.WithUsername("lootcase"),
		tcpostgres.WithPassword("lootcase"),
		tcpostgres.BasicWaitStrategies(),
		testcontainers.WithLabels(map[string]string{"test": "lootcase-gormstore"}),
	)
	require.NoError(test, err)
	test.Cleanup(func() {
		terminateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := container.Terminate(terminateCtx); err != nil {
			test.Logf("terminate postgres container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(test, err)
	require.NoError(test, migrate.Up(ctx, dsn))

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(test, err)
	sqlDB, err := db.DB()
	require.NoError(test, err)
	test.Cleanup(func() { _ = sqlDB.Close() })
	return New(db)
}

func TestPostgresConcurrentClaimsAreExclusive(test *testing.T) {
	store := newPostgresStore(test)
	ctx := context.Background()
	userID := mustStoreUserID(test, "0f8fad5b-d9cb-469f-a165-70867728950e")

	const attempts = 10
	errs := make([]error, attempts)
	var group sync.WaitGroup
	for index := 0; index < attempts; index++ {
		group.Add(1)
		go func(index int) {
			defer group.Done()
			errs[index] = store.WithTx(ctx, func(ctx context.Context, txStore loot.Store) error {
				return txStore.InsertClaim(ctx, loot.CaseClaim{UserID: userID, CaseID: 1, PeriodKey: "2026-03-10", ClaimedAt: storeNow})
			})
		}(index)
	}
	group.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		require.ErrorIs(test, err, loot.ErrAlreadyOpened)
	}
	require.Equal(test, 1, successes)
}

func TestPostgresRequestAndSettingsUpserts(test *testing.T) {
	store := newPostgresStore(test)
	ctx := context.Background()
	userID := mustStoreUserID(test, "user-1")

	request := loot.RedemptionRequest{
		ID:          "REQ-000001",
		UserID:      userID,
		InventoryID: 1,
		ItemTitle:   "Mousepad",
		ItemType:    loot.ItemTypePhysical,
		Status:      loot.RequestStatusPending,
		Snapshot:    loot.RequestSnapshot{DisplayPrice: "5.00"},
		CreatedAt:   storeNow,
		UpdatedAt:   storeNow,
	}
	require.NoError(test, store.CreateRedemptionRequest(ctx, request))
	require.ErrorIs(test, store.CreateRedemptionRequest(ctx, request), loot.ErrDuplicateRequest)

	require.NoError(test, store.WithTx(ctx, func(ctx context.Context, txStore loot.Store) error {
		locked, err := txStore.GetRedemptionRequest(ctx, request.ID)
		if err != nil {
			return err
		}
		return txStore.UpdateRedemptionRequest(ctx, locked.ID, []loot.RequestStatus{loot.RequestStatusPending}, loot.RequestStatusApproved, "")
	}))

	settings, err := store.AddExperience(ctx, userID, 150, 100)
	require.NoError(test, err)
	require.Equal(test, 2, settings.Level)
	settings, err = store.AddExperience(ctx, userID, 50, 100)
	require.NoError(test, err)
	require.Equal(test, int64(200), settings.XP)
	require.Equal(test, 3, settings.Level)
}
