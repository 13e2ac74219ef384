package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/MarkoPoloResearchLab/lootcase/internal/billing"
	"github.com/MarkoPoloResearchLab/lootcase/internal/feedcache"
	"github.com/MarkoPoloResearchLab/lootcase/internal/grpcserver"
	"github.com/MarkoPoloResearchLab/lootcase/internal/httpapi"
	"github.com/MarkoPoloResearchLab/lootcase/internal/migrate"
	"github.com/MarkoPoloResearchLab/lootcase/internal/oplog"
	"github.com/MarkoPoloResearchLab/lootcase/internal/store/gormstore"
	"github.com/MarkoPoloResearchLab/lootcase/pkg/loot"
	"github.com/glebarez/sqlite"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const (
	envPrefix          = "LOOTD"
	driverPostgres     = "postgres"
	driverSQLite       = "sqlite"
	sessionSweepPeriod = 15 * time.Minute

	flagEnvFile              = "env-file"
	flagListenAddr           = "listen-addr"
	flagDatabaseURL          = "database-url"
	flagAutoMigrate          = "auto-migrate"
	flagAllowedOrigins       = "allowed-origins"
	flagBillingURL           = "billing-url"
	flagBillingTimeout       = "billing-timeout"
	flagBillingServiceLogin  = "billing-service-login"
	flagBillingServicePass   = "billing-service-password"
	flagBillingPaymentsLimit = "billing-payments-limit"
	flagSessionTTL           = "session-ttl"
	flagOperatorSigningKey   = "operator-signing-key"
	flagOperatorIssuer       = "operator-issuer"
	flagTimezone             = "timezone"
	flagDecrementStock       = "decrement-stock"
	flagRequireActiveItems   = "require-active-items"
	flagAutoCreditMoney      = "auto-credit-money"
	flagRecentDropsLimit     = "recent-drops-limit"
	flagRedisAddr            = "redis-addr"
	flagRedisPassword        = "redis-password"
	flagRedisDB              = "redis-db"
	flagFeedCacheTTL         = "feed-cache-ttl"
	flagGRPCHealthAddr       = "grpc-health-addr"
	flagSubject              = "subject"
	flagTTL                  = "ttl"

	defaultEnvFile     = ".env"
	defaultListenAddr  = ":8080"
	defaultDatabaseURL = "sqlite:///tmp/lootcase.db"
	defaultOperatorIss = "lootd"
	defaultTimezone    = "Europe/Riga"
)

type runtimeConfig struct {
	ListenAddr           string
	DatabaseURL          string
	AutoMigrate          bool
	AllowedOrigins       []string
	BillingURL           string
	BillingTimeout       time.Duration
	BillingServiceLogin  string
	BillingServicePass   string
	BillingPaymentsLimit int
	SessionTTL           time.Duration
	OperatorSigningKey   string
	OperatorIssuer       string
	Timezone             string
	Engine               loot.EngineConfig
	RecentDropsLimit     int
	Redis                feedcache.Options
	FeedCacheTTL         time.Duration
	GRPCHealthAddr       string
}

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "lootd: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cfg := &runtimeConfig{}
	cmd := &cobra.Command{
		Use:           "lootd",
		Short:         "Loyalty loot case server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(cmd, cfg)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, cfg)
		},
	}

	flags := cmd.PersistentFlags()
	flags.String(flagEnvFile, defaultEnvFile, "optional dotenv file loaded before the environment")
	flags.String(flagListenAddr, defaultListenAddr, "HTTP listen address")
	flags.String(flagDatabaseURL, defaultDatabaseURL, "PostgreSQL URL or SQLite path")
	flags.Bool(flagAutoMigrate, true, "apply schema migrations on start")
	flags.String(flagAllowedOrigins, "", "comma-separated CORS origins")
	flags.String(flagBillingURL, "", "billing GraphQL endpoint")
	flags.Duration(flagBillingTimeout, 4*time.Second, "billing request timeout")
	flags.String(flagBillingServiceLogin, "", "billing service account login")
	flags.String(flagBillingServicePass, "", "billing service account password")
	flags.Int(flagBillingPaymentsLimit, 100, "payments fetched per progress computation")
	flags.Duration(flagSessionTTL, 720*time.Hour, "session lifetime")
	flags.String(flagOperatorSigningKey, "", "HS256 key for operator tokens")
	flags.String(flagOperatorIssuer, defaultOperatorIss, "operator token issuer")
	flags.String(flagTimezone, defaultTimezone, "zone for day and month boundaries")
	flags.Bool(flagDecrementStock, true, "decrement finite stock and hide depleted items")
	flags.Bool(flagRequireActiveItems, true, "exclude inactive items from draws")
	flags.Bool(flagAutoCreditMoney, false, "credit money prizes at open time")
	flags.Int(flagRecentDropsLimit, 20, "default size of the recent drops feed")
	flags.String(flagRedisAddr, "", "Redis address for the feed cache (empty disables)")
	flags.String(flagRedisPassword, "", "Redis password")
	flags.Int(flagRedisDB, 0, "Redis database")
	flags.Duration(flagFeedCacheTTL, 10*time.Second, "feed cache TTL")
	flags.String(flagGRPCHealthAddr, "", "gRPC health listen address (empty disables)")

	cmd.AddCommand(newMigrateCommand(cfg), newOperatorTokenCommand(cfg))
	return cmd
}

func newMigrateCommand(cfg *runtimeConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			gormDB, cleanup, driver, err := openDatabase(ctx, cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("database open: %w", err)
			}
			defer func() { _ = cleanup() }()
			if err := prepareSchema(ctx, gormDB, driver); err != nil {
				return err
			}
			if driver == driverPostgres {
				version, err := migrate.Version(ctx, cfg.DatabaseURL)
				if err != nil {
					return fmt.Errorf("migration version: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", version)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema migrated")
			return nil
		},
	}
}

func newOperatorTokenCommand(cfg *runtimeConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "operator-token",
		Short: "Mint an operator bearer token for the admin API",
		RunE: func(cmd *cobra.Command, args []string) error {
			subject, _ := cmd.Flags().GetString(flagSubject)
			ttl, _ := cmd.Flags().GetDuration(flagTTL)
			if cfg.OperatorSigningKey == "" {
				return fmt.Errorf("operator signing key is required")
			}
			token, err := httpapi.IssueOperatorToken(cfg.OperatorSigningKey, cfg.OperatorIssuer, subject, ttl, time.Now().UTC())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().String(flagSubject, "", "operator identity recorded in the token")
	cmd.Flags().Duration(flagTTL, 12*time.Hour, "token lifetime")
	return cmd
}

func loadConfig(cmd *cobra.Command, cfg *runtimeConfig) error {
	flags := cmd.Flags()
	envFile, _ := flags.GetString(flagEnvFile)
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	var bindErr error
	flags.VisitAll(func(flag *pflag.Flag) {
		if bindErr == nil {
			bindErr = viper.BindPFlag(flag.Name, flag)
		}
	})
	if bindErr != nil {
		return bindErr
	}

	location, err := loot.LoadLocation(viper.GetString(flagTimezone))
	if err != nil {
		return err
	}
	cfg.ListenAddr = viper.GetString(flagListenAddr)
	cfg.DatabaseURL = viper.GetString(flagDatabaseURL)
	cfg.AutoMigrate = viper.GetBool(flagAutoMigrate)
	cfg.AllowedOrigins = httpapi.ParseAllowedOrigins(viper.GetString(flagAllowedOrigins))
	cfg.BillingURL = viper.GetString(flagBillingURL)
	cfg.BillingTimeout = viper.GetDuration(flagBillingTimeout)
	cfg.BillingServiceLogin = viper.GetString(flagBillingServiceLogin)
	cfg.BillingServicePass = viper.GetString(flagBillingServicePass)
	cfg.BillingPaymentsLimit = viper.GetInt(flagBillingPaymentsLimit)
	cfg.SessionTTL = viper.GetDuration(flagSessionTTL)
	cfg.OperatorSigningKey = viper.GetString(flagOperatorSigningKey)
	cfg.OperatorIssuer = viper.GetString(flagOperatorIssuer)
	cfg.Timezone = location.String()
	cfg.Engine = loot.EngineConfig{
		DecrementStock:     viper.GetBool(flagDecrementStock),
		RequireActiveItems: viper.GetBool(flagRequireActiveItems),
		AutoCreditMoney:    viper.GetBool(flagAutoCreditMoney),
	}
	cfg.RecentDropsLimit = viper.GetInt(flagRecentDropsLimit)
	cfg.Redis = feedcache.Options{
		Addr:     viper.GetString(flagRedisAddr),
		Password: viper.GetString(flagRedisPassword),
		DB:       viper.GetInt(flagRedisDB),
	}
	cfg.FeedCacheTTL = viper.GetDuration(flagFeedCacheTTL)
	cfg.GRPCHealthAddr = viper.GetString(flagGRPCHealthAddr)

	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return fmt.Errorf("database url is required")
	}
	return nil
}

func runServer(ctx context.Context, cfg *runtimeConfig) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("logger init: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	gormDB, cleanup, driver, err := openDatabase(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("database open: %w", err)
	}
	defer func() { _ = cleanup() }()

	if cfg.AutoMigrate {
		if err := prepareSchema(ctx, gormDB, driver); err != nil {
			return err
		}
	}

	location, err := loot.LoadLocation(cfg.Timezone)
	if err != nil {
		return err
	}
	clock := func() time.Time { return time.Now().UTC() }
	billingClient, err := billing.NewClient(billing.Config{
		Endpoint:        cfg.BillingURL,
		ServiceLogin:    cfg.BillingServiceLogin,
		ServicePassword: cfg.BillingServicePass,
		Timeout:         cfg.BillingTimeout,
		PaymentsLimit:   cfg.BillingPaymentsLimit,
		Location:        location,
		Now:             clock,
		Logger:          logger.Named("billing"),
	})
	if err != nil {
		return fmt.Errorf("billing client: %w", err)
	}

	store := gormstore.New(gormDB)
	operationLogger := oplog.NewZapOperationLogger(logger.Named("loot"))
	service, err := loot.NewService(store, billingClient, clock,
		loot.WithOperationLogger(operationLogger),
		loot.WithCreditRequester(oplog.NewZapCreditRequester(logger.Named("wallet"))),
		loot.WithDegradationHook(operationLogger.Degraded),
		loot.WithLocation(location),
		loot.WithEngineConfig(cfg.Engine),
		loot.WithSessionTTL(cfg.SessionTTL),
		loot.WithProgressTimeout(cfg.BillingTimeout),
	)
	if err != nil {
		return fmt.Errorf("loot service init: %w", err)
	}

	deps := httpapi.Dependencies{Service: service, Readiness: store, Logger: logger.Named("http")}
	if cfg.Redis.Addr != "" {
		redisClient, err := feedcache.Dial(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("feed cache: %w", err)
		}
		defer func() { _ = redisClient.Close() }()
		deps.FeedCache = feedcache.New(redisClient, cfg.FeedCacheTTL, logger.Named("feedcache"))
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return httpapi.Run(groupCtx, httpapi.Config{
			ListenAddr:         cfg.ListenAddr,
			AllowedOrigins:     cfg.AllowedOrigins,
			OperatorSigningKey: cfg.OperatorSigningKey,
			OperatorIssuer:     cfg.OperatorIssuer,
			RecentDropsLimit:   cfg.RecentDropsLimit,
		}, deps)
	})
	if cfg.GRPCHealthAddr != "" {
		health := grpcserver.NewHealthServer(store, logger.Named("grpc"), 0)
		group.Go(func() error {
			return health.Serve(groupCtx, cfg.GRPCHealthAddr)
		})
	}
	group.Go(func() error {
		sweepSessions(groupCtx, store, clock, logger.Named("sessions"))
		return nil
	})
	return group.Wait()
}

func sweepSessions(ctx context.Context, store *gormstore.Store, clock func() time.Time, logger *zap.Logger) {
	ticker := time.NewTicker(sessionSweepPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := store.DeleteExpiredSessions(ctx, clock())
			if err != nil {
				logger.Warn("session sweep failed", zap.Error(err))
				continue
			}
			if removed > 0 {
				logger.Info("expired sessions removed", zap.Int64("count", removed))
			}
		}
	}
}

func openDatabase(ctx context.Context, dsn string) (*gorm.DB, func() error, string, error) {
	driver, sqlitePath, err := resolveDriver(dsn)
	if err != nil {
		return nil, nil, "", err
	}

	cfg := &gorm.Config{}
	var db *gorm.DB
	switch driver {
	case driverPostgres:
		db, err = gorm.Open(postgres.Open(dsn), cfg)
	case driverSQLite:
		db, err = gorm.Open(sqlite.Open(sqlitePath), cfg)
	default:
		return nil, nil, "", fmt.Errorf("unsupported database scheme %q", driver)
	}
	if err != nil {
		return nil, nil, "", err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, "", err
	}
	if driver == driverSQLite {
		sqlDB.SetMaxOpenConns(1)
	}
	cleanup := func() error { return sqlDB.Close() }
	return db.WithContext(ctx), cleanup, driver, nil
}

func resolveDriver(dsn string) (string, string, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return driverPostgres, "", nil
	}
	if strings.HasPrefix(dsn, "sqlite://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", "", fmt.Errorf("parse sqlite url: %w", err)
		}
		path := u.Path
		if path == "" {
			path = u.Host
		}
		if path == "" || path == "/" {
			path = "lootcase.db"
		}
		sqlitePath, err := normalizeSQLitePath(path)
		return driverSQLite, sqlitePath, err
	}
	// Anything else is a direct sqlite path.
	sqlitePath, err := normalizeSQLitePath(dsn)
	return driverSQLite, sqlitePath, err
}

func normalizeSQLitePath(path string) (string, error) {
	if path == ":memory:" {
		return path, nil
	}
	if strings.HasPrefix(path, "/") {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return "", err
		}
		return path, nil
	}
	abs := filepath.Join(".", path)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", err
	}
	return abs, nil
}

// prepareSchema runs goose on PostgreSQL and AutoMigrate on SQLite.
func prepareSchema(ctx context.Context, db *gorm.DB, driver string) error {
	if driver == driverSQLite {
		if err := gormstore.New(db).AutoMigrate(); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	if err := migrate.UpDB(ctx, sqlDB); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}
