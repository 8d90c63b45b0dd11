package config

import "errors"

// Validation errors returned by [EngineConfig.validate] and
// [StructuredConfig.validate] when required configuration groups are
// incomplete or invalid.
var (
	// ErrInvalidAdapterConfigs indicates invalid adapter settings
	// (for example, missing HTTP address or request timeout).
	ErrInvalidAdapterConfigs = errors.New("invalid adapter configuration")
	// ErrInvalidStorageConfigs indicates invalid storage settings
	// (for example, empty DSN).
	ErrInvalidStorageConfigs = errors.New("invalid storage configuration")
	// ErrInvalidSyncConfigs indicates invalid sync policy settings
	// (for example, an unknown frequency or a zero interval when the
	// frequency is "interval").
	ErrInvalidSyncConfigs = errors.New("invalid sync configuration")
	// ErrInvalidCleanupConfigs indicates invalid retention settings
	// (for example, a negative retention window).
	ErrInvalidCleanupConfigs = errors.New("invalid cleanup configuration")
)
