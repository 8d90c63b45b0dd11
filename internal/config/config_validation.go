// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import "github.com/MKhiriev/go-ledger-sync/models"

// validate checks that the final merged [StructuredConfig] satisfies all
// invariants shared by both binaries before it is used at startup.
//
// Binary-specific rules live in the view validators; here only the fields
// with no usable zero value are checked.
func (cfg *StructuredConfig) validate() error {
	if cfg.Cleanup.RetentionDays < 0 {
		return ErrInvalidCleanupConfigs
	}

	return nil
}

func (cfg *EngineConfig) validate() error {
	if cfg.Storage.DB.DSN == "" {
		return ErrInvalidStorageConfigs
	}

	if cfg.Adapter.HTTPAddress == "" || cfg.Adapter.RequestTimeout == 0 {
		return ErrInvalidAdapterConfigs
	}

	switch cfg.Sync.Frequency {
	case "", models.FrequencyManual, models.FrequencyOnConnect:
	case models.FrequencyInterval:
		if cfg.Sync.Interval <= 0 {
			return ErrInvalidSyncConfigs
		}
	default:
		return ErrInvalidSyncConfigs
	}

	if cfg.Cleanup.RetentionDays < 0 {
		return ErrInvalidCleanupConfigs
	}

	return nil
}
