// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"encoding/json"
	"time"
)

// ChangeUpload is one mutation inside a push request. MutationID is the
// originating queue item id; the server must apply each mutation id at most
// once so that re-sends after a crash are safe.
type ChangeUpload struct {
	MutationID     string          `json:"mutation_id"`
	EntityType     string          `json:"entity_type"`
	EntityID       string          `json:"entity_id"`
	Operation      string          `json:"operation"`
	Payload        json.RawMessage `json:"payload,omitempty"`
	BaseVersion    int64           `json:"base_version"`
	LocalUpdatedAt time.Time       `json:"local_updated_at"`
}

// PushRequest uploads queued local mutations.
type PushRequest struct {
	DeviceID  string         `json:"device_id"`
	Mutations []ChangeUpload `json:"mutations"`
}

// PushConflict reports a mutation the server refused because the remote
// copy moved past the client's base version.
type PushConflict struct {
	MutationID    string          `json:"mutation_id"`
	EntityType    string          `json:"entity_type"`
	EntityID      string          `json:"entity_id"`
	RemoteVersion int64           `json:"remote_version"`
	RemotePayload json.RawMessage `json:"remote_payload,omitempty"`
	RemoteDeleted bool            `json:"remote_deleted"`
}

// PushResponse lists accepted mutation ids and refused conflicts.
type PushResponse struct {
	Accepted   []string       `json:"accepted"`
	Conflicts  []PushConflict `json:"conflicts"`
	ServerTime time.Time      `json:"server_time"`
}

// PullRequest asks for all deltas after the given checkpoint.
type PullRequest struct {
	DeviceID string     `json:"device_id"`
	Since    *time.Time `json:"since,omitempty"`
}

// RemoteChange is one server-side delta inside a pull response.
type RemoteChange struct {
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Version    int64           `json:"version"`
	Deleted    bool            `json:"deleted"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// PullResponse carries deltas since the requested checkpoint and the new
// checkpoint to commit once the pass finishes without conflicts.
type PullResponse struct {
	Changes       []RemoteChange `json:"changes"`
	NewCheckpoint time.Time      `json:"new_checkpoint"`
	HasMore       bool           `json:"has_more"`
}

// StatusResponse is returned by the server status endpoint. The adapter
// also uses the endpoint as its connectivity probe target.
type StatusResponse struct {
	ServerTime       time.Time      `json:"server_time"`
	EntityCounts     map[string]int `json:"entity_counts"`
	PendingConflicts int            `json:"pending_conflicts"`
}

// ErrorResponse is the uniform error body returned by the server.
type ErrorResponse struct {
	Error string `json:"error"`
}
