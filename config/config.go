package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL string

	// Realtime hub configuration
	ListenAddr string

	// Settlement configuration
	WinCommissionPercent  int // platform cut of the pot on a decisive lobby win
	DrawCommissionPercent int // platform cut withheld from each stake on a draw
	SettlementRetries     int // bounded retries before a match is flagged for reconciliation

	// Match session configuration
	DisconnectGrace time.Duration // grace period before a disconnect becomes a forfeit
	BotMoveDelay    time.Duration // artificial "bot is thinking" delay
	BotMoveCap      int           // safety cap on consecutive bot moves per turn

	// Environment
	Environment string // "development" or "production"
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		ListenAddr:  os.Getenv("LISTEN_ADDR"),

		// Settlement defaults mirror the lobby commission schedule
		WinCommissionPercent:  10,
		DrawCommissionPercent: 5,
		SettlementRetries:     3,

		DisconnectGrace: 60 * time.Second,
		BotMoveDelay:    1500 * time.Millisecond,
		BotMoveCap:      64,

		Environment: os.Getenv("ENVIRONMENT"),
	}

	// Override defaults if environment variables are set
	if grace := os.Getenv("DISCONNECT_GRACE_SECONDS"); grace != "" {
		if parsed, err := strconv.Atoi(grace); err == nil && parsed > 0 {
			config.DisconnectGrace = time.Duration(parsed) * time.Second
		}
	}
	if delay := os.Getenv("BOT_MOVE_DELAY_MS"); delay != "" {
		if parsed, err := strconv.Atoi(delay); err == nil && parsed >= 0 {
			config.BotMoveDelay = time.Duration(parsed) * time.Millisecond
		}
	}
	if retries := os.Getenv("SETTLEMENT_RETRIES"); retries != "" {
		if parsed, err := strconv.Atoi(retries); err == nil && parsed > 0 {
			config.SettlementRetries = parsed
		}
	}

	if config.ListenAddr == "" {
		config.ListenAddr = ":8080"
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	}

	return config, nil
}
