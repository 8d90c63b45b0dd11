package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MKhiriev/go-ledger-sync/internal/logger"
	"github.com/MKhiriev/go-ledger-sync/internal/mock"
	"github.com/MKhiriev/go-ledger-sync/models"
)

// TestMutationQueue_ProcessQueue_UploadsOneItemPerRequest pins the upload
// shape with a generated mock: every drained item goes out as its own push
// request carrying the device id and exactly one mutation.
func TestMutationQueue_ProcessQueue_UploadsOneItemPerRequest(t *testing.T) {
	ctrl := gomock.NewController(t)
	remote := mock.NewMockRemoteEndpoint(ctrl)

	queue := &memQueue{}
	entities := newMemEntities()
	conflicts := &memConflicts{}
	l := logger.Nop()
	resolver := NewConflictResolver(conflicts, entities, queue, l)
	svc := NewMutationQueue(queue, entities, &memSettings{}, &memHistory{}, remote, resolver, l)

	ctx := context.Background()
	require.NoError(t, svc.Enqueue(ctx, models.Mutation{
		EntityType: models.EntityTransaction,
		EntityID:   "tx-1",
		Operation:  models.OpCreate,
		Payload:    json.RawMessage(`{"amount":10}`),
	}))
	require.NoError(t, svc.Enqueue(ctx, models.Mutation{
		EntityType: models.EntityAccount,
		EntityID:   "acc-1",
		Operation:  models.OpCreate,
		Payload:    json.RawMessage(`{"name":"cash"}`),
	}))

	var uploadedEntities []string
	remote.EXPECT().
		Push(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req models.PushRequest) (models.PushResponse, error) {
			assert.Equal(t, "device-test", req.DeviceID)
			require.Len(t, req.Mutations, 1)
			uploadedEntities = append(uploadedEntities, req.Mutations[0].EntityID)
			return models.PushResponse{Accepted: []string{req.Mutations[0].MutationID}}, nil
		}).
		Times(2)

	result, err := svc.ProcessQueue(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Sent)
	assert.Equal(t, []string{"tx-1", "acc-1"}, uploadedEntities, "items must drain in enqueue order")
}
