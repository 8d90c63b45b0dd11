package http

import (
	"fmt"
	"slices"

	"github.com/MKhiriev/go-ledger-sync/models"
)

// validatePush rejects structurally broken uploads before they reach the
// dataset. A refused request maps to 422, which the engine treats as
// non-retryable.
func validatePush(req models.PushRequest) error {
	if req.DeviceID == "" {
		return fmt.Errorf("device_id is required")
	}

	for _, m := range req.Mutations {
		if m.MutationID == "" {
			return fmt.Errorf("mutation without mutation_id")
		}
		if m.EntityID == "" {
			return fmt.Errorf("mutation %s: entity_id is required", m.MutationID)
		}
		if !slices.Contains(models.EntityTypes, m.EntityType) {
			return fmt.Errorf("mutation %s: unknown entity type %q", m.MutationID, m.EntityType)
		}
		switch m.Operation {
		case models.OpCreate, models.OpUpdate:
			if len(m.Payload) == 0 {
				return fmt.Errorf("mutation %s: payload is required for %s", m.MutationID, m.Operation)
			}
		case models.OpDelete:
		default:
			return fmt.Errorf("mutation %s: unknown operation %q", m.MutationID, m.Operation)
		}
	}
	return nil
}
