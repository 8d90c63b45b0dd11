package config

import (
	"flag"
	"time"
)

// ParseFlags parses all configuration flags.
//
// Flags:
//
//	-a server/remote address in format [host]:[port] or URL
//	-d database DSN (SQLite path for the engine, Postgres URI for the server)
//	-backup-dir backup snapshot directory
//	-c/-config json file path with configs
//	-token-sign-key token signing key
//	-token-issuer token issuer name
//	-token-duration token duration (e.g., "24h")
//	-password-hash-key password hashing key
//	-request-timeout request timeout (e.g., "30s", "1m")
//	-sync-frequency sync frequency: manual, on_connect, interval
//	-sync-interval interval between periodic syncs
//	-wifi-only restrict syncing to non-metered connections
//	-auto-cleanup run cleanup automatically after successful sync
//	-retention-days tombstone/history retention window in days
func ParseFlags() *StructuredConfig {
	var address string
	var databaseDSN string
	var backupDir string
	var jsonConfigPath string
	var tokenSignKey string
	var tokenIssuer string
	var tokenDuration time.Duration
	var passwordHashKey string
	var requestTimeout time.Duration
	var syncEnabled bool
	var syncFrequency string
	var syncInterval time.Duration
	var wifiOnly bool
	var autoCleanup bool
	var retentionDays int

	flag.StringVar(&address, "a", "", "Net address host:port or base URL")
	flag.StringVar(&databaseDSN, "d", "", "Database DSN")
	flag.StringVar(&backupDir, "backup-dir", "", "Backup snapshot directory")
	flag.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	flag.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")
	flag.StringVar(&tokenSignKey, "token-sign-key", "", "Token signing key")
	flag.StringVar(&tokenIssuer, "token-issuer", "", "Token issuer")
	flag.DurationVar(&tokenDuration, "token-duration", 0, "Token duration (e.g., 24h)")
	flag.StringVar(&passwordHashKey, "password-hash-key", "", "Password hashing key")
	flag.DurationVar(&requestTimeout, "request-timeout", 0, "Request timeout (e.g., 30s, 1m)")
	flag.BoolVar(&syncEnabled, "sync-enabled", false, "Enable synchronization")
	flag.StringVar(&syncFrequency, "sync-frequency", "", "Sync frequency: manual, on_connect, interval")
	flag.DurationVar(&syncInterval, "sync-interval", 0, "Interval between periodic syncs")
	flag.BoolVar(&wifiOnly, "wifi-only", false, "Sync only on Wi-Fi")
	flag.BoolVar(&autoCleanup, "auto-cleanup", false, "Run cleanup after successful sync")
	flag.IntVar(&retentionDays, "retention-days", 0, "Retention window in days")

	flag.Parse()

	return &StructuredConfig{
		Auth: Auth{
			TokenSignKey:    tokenSignKey,
			TokenIssuer:     tokenIssuer,
			TokenDuration:   tokenDuration,
			PasswordHashKey: passwordHashKey,
		},
		Storage: Storage{
			DB:      DB{DSN: databaseDSN},
			Backups: Backups{Dir: backupDir},
		},
		Server: Server{
			HTTPAddress:    address,
			RequestTimeout: requestTimeout,
		},
		Adapter: Adapter{
			HTTPAddress:    address,
			RequestTimeout: requestTimeout,
		},
		Sync: Sync{
			Enabled:   syncEnabled,
			Frequency: syncFrequency,
			Interval:  syncInterval,
			WifiOnly:  wifiOnly,
		},
		Cleanup: Cleanup{
			AutoCleanup:   autoCleanup,
			RetentionDays: retentionDays,
		},
		JSONFilePath: jsonConfigPath,
	}
}
