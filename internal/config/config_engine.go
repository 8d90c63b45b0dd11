package config

import (
	"fmt"
	"time"
)

// EngineAdapter holds network settings used by the engine's transport layer.
type EngineAdapter struct {
	// HTTPAddress is the remote sync endpoint base URL.
	HTTPAddress string
	// RequestTimeout is the default timeout for outbound requests.
	RequestTimeout time.Duration
}

// EngineDB contains local database connection settings for the engine.
type EngineDB struct {
	// DSN is the SQLite file path of the local dataset.
	DSN string
}

// EngineStorage groups engine storage backend settings.
type EngineStorage struct {
	// DB holds local database settings.
	DB EngineDB
	// BackupDir is the directory holding backup snapshot artifacts.
	BackupDir string
}

// EngineSync contains the sync policy defaults seeded on first run.
type EngineSync struct {
	Enabled   bool
	Frequency string
	Interval  time.Duration
	WifiOnly  bool
}

// EngineCleanup contains the retention policy defaults seeded on first run.
type EngineCleanup struct {
	AutoCleanup   bool
	RetentionDays int
}

// EngineConfig is the top-level engine configuration assembled from
// [StructuredConfig].
type EngineConfig struct {
	// Adapter contains transport addresses and timeouts.
	Adapter EngineAdapter
	// Storage contains local persistence settings.
	Storage EngineStorage
	// Sync contains the default sync policy.
	Sync EngineSync
	// Cleanup contains the default retention policy.
	Cleanup EngineCleanup
}

// GetEngineConfig builds and validates an engine-specific config view from
// the merged structured configuration.
func GetEngineConfig() (*EngineConfig, error) {
	cfg, err := GetStructuredConfig()
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	engineCfg := &EngineConfig{
		Adapter: EngineAdapter{
			HTTPAddress:    cfg.Adapter.HTTPAddress,
			RequestTimeout: cfg.Adapter.RequestTimeout,
		},
		Storage: EngineStorage{
			DB:        EngineDB{DSN: cfg.Storage.DB.DSN},
			BackupDir: cfg.Storage.Backups.Dir,
		},
		Sync: EngineSync{
			Enabled:   cfg.Sync.Enabled,
			Frequency: cfg.Sync.Frequency,
			Interval:  cfg.Sync.Interval,
			WifiOnly:  cfg.Sync.WifiOnly,
		},
		Cleanup: EngineCleanup{
			AutoCleanup:   cfg.Cleanup.AutoCleanup,
			RetentionDays: cfg.Cleanup.RetentionDays,
		},
	}

	if err := engineCfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}

	return engineCfg, nil
}
