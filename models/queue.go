// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"encoding/json"
	"time"
)

// Mutation operations carried by queue items.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Queue item lifecycle states.
const (
	QueuePending  = "pending"
	QueueInFlight = "in_flight"
	QueueFailed   = "failed"
)

// MaxQueueAttempts bounds automatic retries for a single queue item.
// After the cap is exceeded the item is parked as failed and waits for an
// explicit retry.
const MaxQueueAttempts = 5

// Mutation describes one local write as reported by a domain notifier.
// It is the enqueue input; the queue wraps it into a QueueItem.
type Mutation struct {
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	Operation  string          `json:"operation"`
	Payload    json.RawMessage `json:"payload"`
}

// QueueItem is one durable pending mutation awaiting upload. Items are
// owned exclusively by the offline queue and removed only after the server
// has acknowledged the mutation (at-least-once semantics).
type QueueItem struct {
	// ID is a client-generated UUID. It doubles as the idempotency key
	// the server uses to deduplicate re-sent mutations.
	ID string `json:"id"`

	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	Operation  string          `json:"operation"`
	Payload    json.RawMessage `json:"payload"`

	// Attempts counts delivery attempts. It is never reset, even by an
	// explicit retry, so the failure history stays visible.
	Attempts  int     `json:"attempts"`
	LastError *string `json:"last_error,omitempty"`

	// Status is one of QueuePending, QueueInFlight, QueueFailed.
	// An item found in_flight at startup is treated as pending again.
	Status string `json:"status"`

	EnqueuedAt time.Time `json:"enqueued_at"`
}

// Key returns the entity key the item mutates.
func (q QueueItem) Key() EntityKey {
	return EntityKey{EntityType: q.EntityType, EntityID: q.EntityID}
}
