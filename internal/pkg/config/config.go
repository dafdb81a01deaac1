// Package config loads the server configuration from environment variables,
// with development-friendly defaults for everything except the JWT secret.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds every tunable the server reads at startup.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string
	// DBPath is the SQLite database file.
	DBPath string
	// RedisAddr is the redis instance backing the search trend tracker.
	RedisAddr string
	// JWTSecret signs and verifies bearer tokens. Required.
	JWTSecret string
	// DefaultShippingFee is applied when an order request omits the fee.
	// The 30000 default is the business fallback pending confirmation.
	DefaultShippingFee decimal.Decimal
	// SearchHistoryLimit caps the per-user search history list.
	SearchHistoryLimit int
	// SearchHistoryTTL expires an inactive user's search history.
	SearchHistoryTTL time.Duration
}

// FromEnv reads the configuration from the environment.
func FromEnv() (Config, error) {
	cfg := Config{
		Addr:      getEnv("HTTP_ADDR", ":8080"),
		DBPath:    getEnv("DB_PATH", "./data/oribuyin.db"),
		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
		JWTSecret: os.Getenv("JWT_SECRET_KEY"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("config: JWT_SECRET_KEY is required")
	}

	fee, err := decimal.NewFromString(getEnv("DEFAULT_SHIPPING_FEE", "30000"))
	if err != nil {
		return Config{}, fmt.Errorf("config: invalid DEFAULT_SHIPPING_FEE: %w", err)
	}
	cfg.DefaultShippingFee = fee

	limit, err := strconv.Atoi(getEnv("USER_SEARCH_HISTORY_LIMIT", "50"))
	if err != nil || limit <= 0 {
		return Config{}, fmt.Errorf("config: invalid USER_SEARCH_HISTORY_LIMIT")
	}
	cfg.SearchHistoryLimit = limit

	ttlSeconds, err := strconv.Atoi(getEnv("USER_SEARCH_HISTORY_TTL", strconv.Itoa(60*60*24*30)))
	if err != nil || ttlSeconds < 0 {
		return Config{}, fmt.Errorf("config: invalid USER_SEARCH_HISTORY_TTL")
	}
	cfg.SearchHistoryTTL = time.Duration(ttlSeconds) * time.Second

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
