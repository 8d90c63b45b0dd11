package models

// CleanupSettings is the user-tunable retention policy, persisted in the
// settings store next to SyncSettings.
type CleanupSettings struct {
	AutoCleanup   bool `json:"auto_cleanup"`
	RetentionDays int  `json:"retention_days"`
}

// CleanupPreview is the dry-run result: how many records would be removed
// by a purge with the current settings. Computed without mutating anything.
type CleanupPreview struct {
	// Tombstones maps entity type to the count of soft-deleted records
	// eligible for physical deletion.
	Tombstones map[string]int `json:"tombstones"`

	// ResolvedConflicts counts resolved conflict rows past retention.
	ResolvedConflicts int `json:"resolved_conflicts"`

	// SyncRecords counts history rows past retention.
	SyncRecords int `json:"sync_records"`
}

// Total returns the total number of rows the purge would remove.
func (p CleanupPreview) Total() int {
	n := p.ResolvedConflicts + p.SyncRecords
	for _, c := range p.Tombstones {
		n += c
	}
	return n
}

// CleanupResult summarizes an executed purge using the same shape as the
// preview.
type CleanupResult struct {
	Tombstones        map[string]int `json:"tombstones"`
	ResolvedConflicts int            `json:"resolved_conflicts"`
	SyncRecords       int            `json:"sync_records"`
}
