// Package httpapi serves the loot HTTP/JSON API with gin.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/MarkoPoloResearchLab/lootcase/pkg/loot"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const readinessTimeout = 2 * time.Second

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// FeedCache stores serialized public feed responses.
type FeedCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
}

// Dependencies are the collaborators the HTTP API serves.
type Dependencies struct {
	Service   *loot.Service
	Readiness Pinger
	FeedCache FeedCache
	Logger    *zap.Logger
}

// Run serves the API until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, cfg Config, deps Dependencies) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("http config: %w", err)
	}
	if deps.Service == nil {
		return fmt.Errorf("http api: service dependency is nil")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	router := setupRouter(cfg, deps)

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("lootd listening", zap.String("addr", cfg.ListenAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Warn("server shutdown error", zap.Error(shutdownErr))
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func setupRouter(cfg Config, deps Dependencies) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	handler := &httpHandler{
		service:   deps.Service,
		readiness: deps.Readiness,
		cache:     deps.FeedCache,
		logger:    logger,
		cfg:       cfg,
	}
	verifier := newOperatorVerifier(cfg.OperatorSigningKey, cfg.OperatorIssuer, deps.Service.Now)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(accessLog(logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "Origin", "Accept"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/readyz", handler.handleReady)

	router.POST("/auth/session", handler.handleLogin)
	router.GET("/cases", handler.handleListCases)
	router.GET("/cases/:id", handler.handleCaseDetails)
	router.GET("/stats/public", handler.handlePublicStats)
	router.GET("/drops/recent", handler.handleRecentDrops)

	authenticated := router.Group("/")
	authenticated.Use(handler.requireSession())
	authenticated.DELETE("/auth/session", handler.handleLogout)
	authenticated.GET("/me", handler.handleMe)
	authenticated.POST("/cases/open", handler.handleOpenCase)
	authenticated.GET("/inventory", handler.handleInventory)
	authenticated.POST("/inventory/sell", handler.handleSell)
	authenticated.POST("/inventory/claim", handler.handleClaim)
	authenticated.POST("/user/tradelink", handler.handleTradeLink)

	admin := router.Group("/admin")
	admin.Use(requireOperator(verifier))
	admin.GET("/items", handler.handleAdminListItems)
	admin.POST("/items", handler.handleAdminUpsertItem)
	admin.DELETE("/items/:id", handler.handleAdminDeleteItem)
	admin.GET("/cases", handler.handleAdminListCases)
	admin.POST("/cases", handler.handleAdminCreateCase)
	admin.PUT("/cases/:id", handler.handleAdminUpdateCase)
	admin.DELETE("/cases/:id", handler.handleAdminDeleteCase)
	admin.GET("/requests", handler.handleAdminListRequests)
	admin.POST("/requests/:id/approve", handler.handleAdminApprove)
	admin.POST("/requests/:id/deny", handler.handleAdminDeny)
	admin.POST("/requests/:id/return", handler.handleAdminReturn)

	return router
}

type httpHandler struct {
	service   *loot.Service
	readiness Pinger
	cache     FeedCache
	logger    *zap.Logger
	cfg       Config
}

func (handler *httpHandler) handleReady(ctx *gin.Context) {
	if handler.readiness == nil {
		ctx.JSON(http.StatusOK, gin.H{"status": "ready"})
		return
	}
	pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), readinessTimeout)
	defer cancel()
	if err := handler.readiness.Ping(pingCtx); err != nil {
		handler.logger.Warn("readiness check failed", zap.Error(err))
		ctx.JSON(http.StatusServiceUnavailable, errorResponse("NOT_READY", "database unavailable"))
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func accessLog(logger *zap.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		started := time.Now()
		ctx.Next()
		logger.Info("http request",
			zap.String("method", ctx.Request.Method),
			zap.String("path", ctx.FullPath()),
			zap.Int("status", ctx.Writer.Status()),
			zap.Duration("duration", time.Since(started)),
		)
	}
}
