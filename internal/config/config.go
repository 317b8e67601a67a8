package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application-wide configuration.
type Config struct {
	DataDir             string
	EnableSnapshots     bool
	SnapshotInterval    time.Duration
	DefaultRootPassword string
	HistoryFile         string
}

// NewDefaultConfig creates a Config struct with sensible default values.
func NewDefaultConfig() Config {
	return Config{
		DataDir:             "data",
		EnableSnapshots:     true,
		SnapshotInterval:    5 * time.Minute,
		DefaultRootPassword: "rootpass",
		HistoryFile:         ".querytools_history",
	}
}

// LoadConfig loads configuration with a clear precedence: Environment >
// .env file > Defaults.
func LoadConfig() Config {
	cfg := NewDefaultConfig()
	if err := godotenv.Load(); err == nil {
		slog.Info("Loaded environment overrides from .env file")
	}
	applyEnvConfig(&cfg)
	return cfg
}

// applyEnvConfig overrides config values from environment variables.
func applyEnvConfig(cfg *Config) {
	if dataDirEnv := os.Getenv("QUERYTOOLS_DATA_DIR"); dataDirEnv != "" {
		cfg.DataDir = dataDirEnv
		slog.Info("Overriding DataDir from environment", "value", dataDirEnv)
	}

	if enableSnapshotsEnv := os.Getenv("QUERYTOOLS_ENABLE_SNAPSHOTS"); enableSnapshotsEnv != "" {
		if b, err := strconv.ParseBool(enableSnapshotsEnv); err == nil {
			cfg.EnableSnapshots = b
			slog.Info("Overriding EnableSnapshots from environment", "value", b)
		} else {
			slog.Warn("Invalid QUERYTOOLS_ENABLE_SNAPSHOTS env var, using default", "value", enableSnapshotsEnv)
		}
	}

	if intervalEnv := os.Getenv("QUERYTOOLS_SNAPSHOT_INTERVAL"); intervalEnv != "" {
		if d, err := time.ParseDuration(intervalEnv); err == nil && d > 0 {
			cfg.SnapshotInterval = d
			slog.Info("Overriding SnapshotInterval from environment", "value", d)
		} else {
			slog.Warn("Invalid QUERYTOOLS_SNAPSHOT_INTERVAL env var, using default", "value", intervalEnv)
		}
	}

	if rootPassEnv := os.Getenv("QUERYTOOLS_ROOT_PASSWORD"); rootPassEnv != "" {
		cfg.DefaultRootPassword = rootPassEnv
	}

	if historyEnv := os.Getenv("QUERYTOOLS_HISTORY_FILE"); historyEnv != "" {
		cfg.HistoryFile = historyEnv
		slog.Info("Overriding HistoryFile from environment", "value", historyEnv)
	}
}
