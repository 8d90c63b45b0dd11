package models

import (
	"encoding/json"
	"time"
)

// Resolution policies for a sync conflict.
const (
	ResolutionLocalWins  = "local_wins"
	ResolutionRemoteWins = "remote_wins"
	ResolutionMerged     = "merged"
	ResolutionManual     = "manual"
)

// Resolution is the chosen policy for one conflict. Payload must be set for
// merged/manual resolutions and is ignored otherwise.
type Resolution struct {
	Policy  string          `json:"policy"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// SyncConflict records a divergence observed during a sync pass: both the
// local copy and the remote copy of an entity changed since the last
// checkpoint and their payloads differ. A conflict is resolved exactly
// once; re-resolving is a no-op.
type SyncConflict struct {
	ID         string `json:"id"`
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`

	LocalVersion  json.RawMessage `json:"local_version"`
	RemoteVersion json.RawMessage `json:"remote_version"`

	// RemoteServerVersion is the server version number the remote payload
	// carries, used as the base version when re-uploading a localWins
	// resolution.
	RemoteServerVersion int64 `json:"remote_server_version"`

	DetectedAt time.Time   `json:"detected_at"`
	Resolution *Resolution `json:"resolution,omitempty"`
	IsResolved bool        `json:"is_resolved"`
}

// Key returns the entity key the conflict blocks.
func (c SyncConflict) Key() EntityKey {
	return EntityKey{EntityType: c.EntityType, EntityID: c.EntityID}
}
