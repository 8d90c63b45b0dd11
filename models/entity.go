package models

import (
	"encoding/json"
	"time"
)

// Entity types known to the engine. The payload of every entity is carried
// as opaque JSON; the engine never interprets domain fields beyond the
// envelope below.
const (
	EntityTransaction = "transaction"
	EntityAccount     = "account"
	EntityCategory    = "category"
	EntityBook        = "book"
	EntityBudget      = "budget"
)

// EntityTypes lists all known entity types in server-side dependency order:
// books before accounts and categories, budgets and transactions last.
// Pushing in this order guarantees referenced aggregates exist before their
// dependents.
var EntityTypes = []string{
	EntityBook,
	EntityAccount,
	EntityCategory,
	EntityBudget,
	EntityTransaction,
}

// EntityTypeRank returns the position of entityType in [EntityTypes].
// Unknown types sort after every known one.
func EntityTypeRank(entityType string) int {
	for i, t := range EntityTypes {
		if t == entityType {
			return i
		}
	}
	return len(EntityTypes)
}

// Entity is the local copy of a domain record together with its sync
// envelope. Payload is the serialized domain snapshot (transaction, account,
// etc.); the engine treats it as opaque bytes.
type Entity struct {
	// EntityType is one of the Entity* constants.
	EntityType string `json:"entity_type"`

	// EntityID identifies the record within its type. IDs are
	// client-generated UUIDs so that offline creates need no server
	// round-trip.
	EntityID string `json:"entity_id"`

	// Payload is the serialized domain snapshot.
	Payload json.RawMessage `json:"payload"`

	// Version is the last server version this copy was based on.
	// Zero means the entity has never been acknowledged by the server.
	Version int64 `json:"version"`

	// Dirty marks local tentative state: a mutation for this entity is
	// still waiting in the queue for server acknowledgment. Confirmed
	// state has Dirty=false.
	Dirty bool `json:"dirty"`

	// Deleted marks a tombstone. The row is retained until the delete has
	// propagated and the cleanup retention window has passed.
	Deleted   bool       `json:"deleted"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// Key returns the (type, id) pair that identifies the entity across the
// queue, the conflict table and the local dataset.
func (e Entity) Key() EntityKey {
	return EntityKey{EntityType: e.EntityType, EntityID: e.EntityID}
}

// EntityKey identifies one entity aggregate. Entities with different keys
// are independent failure and ordering domains.
type EntityKey struct {
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
}
