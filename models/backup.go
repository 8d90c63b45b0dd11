package models

import "time"

// Backup types.
const (
	BackupManual    = 0
	BackupAutomatic = 1
)

// BackupData is the metadata handle of one immutable dataset snapshot.
// The snapshot artifact itself lives in the backup store under a
// deterministic name derived from ID.
type BackupData struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	BackupType int    `json:"backup_type"`

	CreatedAt time.Time `json:"created_at"`
	SizeBytes int64     `json:"size_bytes"`

	// EntityCounts maps entity type to the number of live records captured.
	EntityCounts map[string]int `json:"entity_counts"`
}

// BackupArchive is the snapshot artifact content: every local entity row
// (tombstones included) at capture time.
type BackupArchive struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Entities  []Entity  `json:"entities"`
}
