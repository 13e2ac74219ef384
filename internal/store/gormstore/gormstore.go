package gormstore

import (
	"context"
	"errors"

	"github.com/MarkoPoloResearchLab/lootcase/pkg/loot"
	gosqlite "github.com/glebarez/go-sqlite"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	constraintCaseClaimPeriod    = "uniq_case_claims_user_case_period"
	constraintRedemptionPrimary  = "redemption_requests_pkey"
	pgUniqueViolationCode        = "23505"
	sqliteConstraintPrimaryKey   = 1555
	sqliteConstraintUnique       = 2067
	defaultSnapshotJSON          = "{}"
	errorOperationStore          = "store"
	errorSubjectSession          = "session"
	errorSubjectItem             = "item"
	errorSubjectCase             = "case"
	errorSubjectCaseItem         = "case_item"
	errorSubjectClaim            = "claim"
	errorSubjectSpin             = "spin"
	errorSubjectInventory        = "inventory"
	errorSubjectRequest          = "request"
	errorSubjectSettings         = "settings"
	errorCodeCreate              = "create"
	errorCodeDelete              = "delete"
	errorCodeDuplicate           = "duplicate"
	errorCodeGet                 = "get"
	errorCodeInsert              = "insert"
	errorCodeInvalid             = "invalid"
	errorCodeList                = "list"
	errorCodeSave                = "save"
	errorCodeStats               = "stats"
	errorCodeTouch               = "touch"
	errorCodeUpdateStatus        = "update_status"
	errorCodeDecrementStock      = "decrement_stock"
	errorCodeExists              = "exists"
	errorCodeUpsert              = "upsert"
)

// Store implements loot.Store using GORM.
type Store struct {
	db *gorm.DB
}

// New returns a Store backed by gorm.DB.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// WithTx executes fn within a transaction.
func (store *Store) WithTx(ctx context.Context, fn func(ctx context.Context, txStore loot.Store) error) error {
	return store.db.WithContext(ctx).Transaction(func(transaction *gorm.DB) error {
		return fn(ctx, &Store{db: transaction})
	})
}

// Ping checks database connectivity.
func (store *Store) Ping(ctx context.Context) error {
	sqlDB, err := store.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// AutoMigrate creates or updates every table from the GORM models.
func (store *Store) AutoMigrate() error {
	return store.db.AutoMigrate(Models()...)
}

func wrapStoreError(subject string, code string, err error) error {
	return loot.WrapError(errorOperationStore, subject, code, err)
}

func isUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolationCode && pgErr.ConstraintName == constraintName
	}
	var sqliteErr *gosqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		return code == sqliteConstraintUnique || code == sqliteConstraintPrimaryKey
	}
	return false
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
