// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// Sync frequency modes.
const (
	FrequencyManual    = "manual"
	FrequencyOnConnect = "on_connect"
	FrequencyInterval  = "interval"
)

// SyncSettings is the user-facing sync configuration. It is loaded from the
// settings store at engine init and saved back on every change; only the
// orchestrator mutates it.
type SyncSettings struct {
	Enabled   bool   `json:"enabled"`
	Frequency string `json:"frequency"`

	// Interval applies when Frequency == FrequencyInterval.
	Interval time.Duration `json:"interval"`

	// WifiOnly suppresses syncing on metered connections.
	WifiOnly bool `json:"wifi_only"`

	// LastSyncTime is the checkpoint watermark: the server promises no
	// unseen deltas below it. Nil until the first successful sync.
	LastSyncTime *time.Time `json:"last_sync_time,omitempty"`
}

// Sync directions recorded in history.
const (
	DirectionUpload        = "upload"
	DirectionDownload      = "download"
	DirectionBidirectional = "bidirectional"
)

// SyncRecord statuses.
const (
	RecordInProgress   = "in_progress"
	RecordSuccess      = "success"
	RecordFailed       = "failed"
	RecordHasConflicts = "has_conflicts"
)

// SyncRecord is one append-only history entry describing a sync pass.
// Records are never mutated after being closed.
type SyncRecord struct {
	ID          string     `json:"id"`
	Direction   string     `json:"direction"`
	Status      string     `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
	ItemsSynced int        `json:"items_synced"`
	Error       *string    `json:"error,omitempty"`
}

// Orchestrator statuses published through SyncState.
const (
	StatusIdle         = "idle"
	StatusSyncing      = "syncing"
	StatusSuccess      = "success"
	StatusFailed       = "failed"
	StatusHasConflicts = "has_conflicts"
	StatusOffline      = "offline"
)

// SyncStats aggregates queue and history counters for observers.
type SyncStats struct {
	Pending int `json:"pending"`
	Synced  int `json:"synced"`
	Failed  int `json:"failed"`
	Queued  int `json:"queued"`
}

// SyncState is the process-wide snapshot observed by the UI. It is reset to
// idle at engine init and transitions only through the orchestrator.
type SyncState struct {
	Status string `json:"status"`

	// Progress is in [0,1] while a pass is running, nil otherwise.
	Progress *float64 `json:"progress,omitempty"`

	ErrorMessage *string   `json:"error_message,omitempty"`
	Stats        SyncStats `json:"stats"`
}
