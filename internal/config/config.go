package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	Server struct {
		Addr string
	}
	Store struct {
		// Driver is "sqlite" or "memory".
		Driver string
		Path   string
	}
	Ledger struct {
		PageSize int
	}
	Log struct {
		Level string
	}
}

// Load reads configuration from environment variables and optional config files.
func Load() (Config, error) {
	// a missing .env is fine; variables already set take precedence
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("STOCKLEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", "0.0.0.0:8080")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "data/stockledger.db")
	v.SetDefault("ledger.pagesize", 10)
	v.SetDefault("log.level", "info")

	v.SetConfigName("config")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional file

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Store.Driver = strings.ToLower(strings.TrimSpace(cfg.Store.Driver))
	switch cfg.Store.Driver {
	case "sqlite", "memory":
	default:
		return Config{}, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	if cfg.Store.Driver == "sqlite" && strings.TrimSpace(cfg.Store.Path) == "" {
		return Config{}, fmt.Errorf("store path is required for the sqlite driver")
	}
	if cfg.Ledger.PageSize <= 0 {
		return Config{}, fmt.Errorf("ledger page size must be positive, got %d", cfg.Ledger.PageSize)
	}

	return cfg, nil
}
