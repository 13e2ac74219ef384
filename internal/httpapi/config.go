package httpapi

import (
	"fmt"
	"strings"
	"time"
)

const (
	defaultListenAddr       = ":8080"
	defaultAllowedOrigin    = "http://localhost:3000"
	defaultOperatorIssuer   = "lootd"
	defaultRecentDropsLimit = 20
	defaultShutdownTimeout  = 5 * time.Second
	minOperatorKeyBytes     = 32
)

// Config aggregates runtime settings for the HTTP API.
type Config struct {
	ListenAddr         string
	AllowedOrigins     []string
	OperatorSigningKey string
	OperatorIssuer     string
	RecentDropsLimit   int
	ShutdownTimeout    time.Duration
}

// Validate fills defaults and ensures the configuration contains sane values.
func (cfg *Config) Validate() error {
	cfg.ListenAddr = defaultIfEmpty(cfg.ListenAddr, defaultListenAddr)
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{defaultAllowedOrigin}
	}
	cfg.OperatorIssuer = defaultIfEmpty(cfg.OperatorIssuer, defaultOperatorIssuer)
	if cfg.RecentDropsLimit <= 0 {
		cfg.RecentDropsLimit = defaultRecentDropsLimit
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	if len(cfg.OperatorSigningKey) < minOperatorKeyBytes {
		return fmt.Errorf("operator signing key must be at least %d bytes", minOperatorKeyBytes)
	}
	return nil
}

func defaultIfEmpty(value string, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

// ParseAllowedOrigins splits comma-delimited origins into a slice.
func ParseAllowedOrigins(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	normalized := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			normalized = append(normalized, trimmed)
		}
	}
	return normalized
}
