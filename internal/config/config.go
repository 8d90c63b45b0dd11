// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"time"
)

// StructuredConfig is the top-level configuration container shared by the
// engine and the server. It is populated by merging values from environment
// variables, command-line flags, and an optional JSON file.
//
// Struct tags:
//   - envPrefix — prefix applied to all nested env tag lookups (caarlos0/env).
//   - env       — direct environment variable name for scalar fields.
type StructuredConfig struct {
	// Auth holds JWT signing parameters used by the reference server and
	// validated by the adapter on 401 responses.
	Auth Auth `envPrefix:"AUTH_"`

	// Storage holds persistence settings: the local SQLite database on the
	// engine side, the Postgres DSN on the server side, and the backup
	// artifact directory.
	Storage Storage `envPrefix:"STORAGE_"`

	// Server holds inbound network settings for the reference server.
	Server Server `envPrefix:"SERVER_"`

	// Adapter holds outbound network settings for the engine's remote
	// endpoint adapter.
	Adapter Adapter `envPrefix:"ADAPTER_"`

	// Sync holds the initial sync policy applied when the settings store
	// has no persisted SyncSettings yet.
	Sync Sync `envPrefix:"SYNC_"`

	// Cleanup holds the initial retention policy applied when the settings
	// store has no persisted CleanupSettings yet.
	Cleanup Cleanup `envPrefix:"CLEANUP_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// Populated via the CONFIG environment variable or the -c/-config flag.
	JSONFilePath string `env:"CONFIG"`
}

// Auth holds token issuance and verification settings.
type Auth struct {
	// TokenSignKey is the secret used to sign and verify JWT tokens.
	// Env: AUTH_TOKEN_SIGN_KEY
	TokenSignKey string `env:"TOKEN_SIGN_KEY"`

	// TokenIssuer is the "iss" claim embedded in every issued token.
	// Env: AUTH_TOKEN_ISSUER
	TokenIssuer string `env:"TOKEN_ISSUER"`

	// TokenDuration is the token lifetime (e.g. "24h").
	// Env: AUTH_TOKEN_DURATION
	TokenDuration time.Duration `env:"TOKEN_DURATION"`

	// PasswordHashKey is the HMAC secret used to hash passwords before
	// storage and comparison.
	// Env: AUTH_PASSWORD_HASH_KEY
	PasswordHashKey string `env:"PASSWORD_HASH_KEY"`
}

// Storage groups persistence settings for both binaries.
type Storage struct {
	// DB holds the database connection settings. The engine expects an
	// SQLite file path, the server a Postgres DSN.
	DB DB `envPrefix:"DB_"`

	// Backups holds the file-system location of backup snapshot artifacts.
	Backups Backups `envPrefix:"BACKUPS_"`
}

// DB holds database connection settings.
type DB struct {
	// DSN is the connection string: an SQLite file path on the engine side
	// (e.g. "ledger.db") or a Postgres URI on the server side.
	// Env: STORAGE_DB_DATABASE_URI
	DSN string `env:"DATABASE_URI"`
}

// Backups holds file-system settings for the backup snapshot store.
type Backups struct {
	// Dir is the directory where snapshot artifacts and the backup index
	// are written.
	// Env: STORAGE_BACKUPS_DIR
	Dir string `env:"DIR"`
}

// Server holds inbound network settings for the reference server.
type Server struct {
	// HTTPAddress is the listen address in "host:port" format.
	// Env: SERVER_ADDRESS
	HTTPAddress string `env:"ADDRESS"`

	// RequestTimeout bounds a single inbound request.
	// Env: SERVER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
}

// Adapter holds outbound network settings for the engine's HTTP adapter.
type Adapter struct {
	// HTTPAddress is the base URL of the remote sync endpoint.
	// Env: ADAPTER_ADDRESS
	HTTPAddress string `env:"ADDRESS"`

	// RequestTimeout bounds a single outbound request. Each queue item
	// upload and delta pull carries this timeout.
	// Env: ADAPTER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
}

// Sync holds the default sync policy seeded into the settings store on
// first run.
type Sync struct {
	// Enabled toggles the whole engine.
	// Env: SYNC_ENABLED
	Enabled bool `env:"ENABLED"`

	// Frequency is one of "manual", "on_connect", "interval".
	// Env: SYNC_FREQUENCY
	Frequency string `env:"FREQUENCY"`

	// Interval applies when Frequency is "interval".
	// Env: SYNC_INTERVAL
	Interval time.Duration `env:"INTERVAL"`

	// WifiOnly suppresses syncing on metered connections.
	// Env: SYNC_WIFI_ONLY
	WifiOnly bool `env:"WIFI_ONLY"`
}

// Cleanup holds the default retention policy seeded into the settings store
// on first run.
type Cleanup struct {
	// AutoCleanup runs a purge automatically after each successful sync.
	// Env: CLEANUP_AUTO
	AutoCleanup bool `env:"AUTO"`

	// RetentionDays is the tombstone/history retention window.
	// Env: CLEANUP_RETENTION_DAYS
	RetentionDays int `env:"RETENTION_DAYS"`
}

// GetStructuredConfig assembles the merged configuration from environment
// variables, flags and the optional JSON file.
func GetStructuredConfig() (*StructuredConfig, error) {
	return newConfigBuilder().
		withEnv().
		withFlags().
		withJSON().
		build()
}
