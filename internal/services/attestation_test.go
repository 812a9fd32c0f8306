package services

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IntegraLedger/integra-eas-worker/internal/db/model"
	"github.com/IntegraLedger/integra-eas-worker/internal/queue/client"
	"github.com/IntegraLedger/integra-eas-worker/internal/types"
)

func seedWorkflows(dbClient *fakeDBClient) {
	for _, name := range []string{createAttestationWorkflow, revokeAttestationWorkflow, batchCreateWorkflow} {
		dbClient.workflows[name] = &model.WorkflowDocument{
			Id:      "wf-" + name,
			Name:    name,
			Version: attestationWorkflowVersion,
		}
	}
}

func createRequest() *CreateAttestationRequest {
	return &CreateAttestationRequest{
		IntegraHash: "0x9a4b6d9d4b8a4a5edb19cdb0f7e0e2355b0996c1bd8a9063afddb835dbb28e15",
		TokenId:     42,
		Recipient:   "0x1d53b966b54b8f3d6f9e3a1fbb29a1b3e7be49c7",
		Chain:       types.ChainEthereum,
		SchemaUID:   testSchemaUid,
		Revocable:   true,
		UserId:      "user-1",
		OrgDatabase: "org_acme",
	}
}

func TestCreateCapabilityAttestation(t *testing.T) {
	dbClient := newFakeDBClient()
	seedWorkflows(dbClient)
	publisher := &fakePublisher{}
	services := newTestServices(t, dbClient, publisher)
	ctx := context.Background()

	requestId, err := services.CreateCapabilityAttestation(ctx, createRequest())
	require.Nil(t, err)
	require.NotEmpty(t, requestId)

	// One execution envelope was published to the ethereum queue.
	require.Len(t, publisher.messages, 1)
	message := publisher.messages[0]
	assert.Equal(t, client.WorkflowExecutionType, message.Type)
	assert.Equal(t, requestId, message.RequestId)
	assert.Equal(t, createAttestationWorkflow, message.Workflow.Name)
	assert.Equal(t, workflowSource, message.Metadata.Source)
	assert.Equal(t, types.ChainEthereum, publisher.chains[0])

	// The request is tracked and pending.
	status, trackerErr := services.Tracker.GetStatus(ctx, requestId)
	require.NoError(t, trackerErr)
	assert.Equal(t, types.Pending, status.State)
	assert.Equal(t, "org_acme", status.OrgDatabase)
	assert.Equal(t, int64(300000), status.DeadlineMs)
}

func TestCreateCapabilityAttestationUnknownWorkflow(t *testing.T) {
	dbClient := newFakeDBClient() // registry left empty
	services := newTestServices(t, dbClient, &fakePublisher{})

	_, err := services.CreateCapabilityAttestation(context.Background(), createRequest())
	require.NotNil(t, err)
	assert.Equal(t, http.StatusNotFound, err.StatusCode)
}

func TestCreateCapabilityAttestationPublishFailure(t *testing.T) {
	dbClient := newFakeDBClient()
	seedWorkflows(dbClient)
	publisher := &fakePublisher{publishErr: errors.New("broker unreachable")}
	services := newTestServices(t, dbClient, publisher)

	_, err := services.CreateCapabilityAttestation(context.Background(), createRequest())
	require.NotNil(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, err.StatusCode)
	assert.Empty(t, services.Tracker.GetPending(context.Background()), "nothing should be tracked when publishing fails")
}

func TestCreateCapabilityAttestationSchemaAllowlist(t *testing.T) {
	dbClient := newFakeDBClient()
	seedWorkflows(dbClient)
	services := newTestServices(t, dbClient, &fakePublisher{})
	services.cfg.Chains.Ethereum.SchemaUIDs = []string{
		"0x0000000000000000000000000000000000000000000000000000000000000001",
	}

	_, err := services.CreateCapabilityAttestation(context.Background(), createRequest())
	require.NotNil(t, err)
	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
}

func TestRevokeCapabilityAttestation(t *testing.T) {
	dbClient := newFakeDBClient()
	seedWorkflows(dbClient)
	publisher := &fakePublisher{}
	services := newTestServices(t, dbClient, publisher)
	ctx := context.Background()

	requestId, err := services.RevokeCapabilityAttestation(ctx, testUid, types.ChainPolygon, "user-1", "org_acme")
	require.Nil(t, err)

	require.Len(t, publisher.messages, 1)
	assert.Equal(t, revokeAttestationWorkflow, publisher.messages[0].Workflow.Name)
	assert.Equal(t, types.ChainPolygon, publisher.chains[0])

	status, trackerErr := services.Tracker.GetStatus(ctx, requestId)
	require.NoError(t, trackerErr)
	assert.Equal(t, types.Pending, status.State)
	assert.Equal(t, uint64(137), status.ChainId)
}

func TestBatchCreateAttestations(t *testing.T) {
	dbClient := newFakeDBClient()
	seedWorkflows(dbClient)
	publisher := &fakePublisher{}
	services := newTestServices(t, dbClient, publisher)
	ctx := context.Background()

	attestations := []AttestationSpec{
		{IntegraHash: "0x9a4b6d9d4b8a4a5edb19cdb0f7e0e2355b0996c1bd8a9063afddb835dbb28e15", TokenId: 1, Recipient: "0x1d53b966b54b8f3d6f9e3a1fbb29a1b3e7be49c7"},
		{IntegraHash: "0x2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", TokenId: 2, Recipient: "0x1d53b966b54b8f3d6f9e3a1fbb29a1b3e7be49c7"},
	}

	requestId, count, err := services.BatchCreateAttestations(ctx, attestations, types.ChainEthereum, testSchemaUid, "user-1", "org_acme")
	require.Nil(t, err)
	assert.Equal(t, 2, count)

	require.Len(t, publisher.messages, 1, "the whole batch rides one envelope")
	assert.Equal(t, batchCreateWorkflow, publisher.messages[0].Workflow.Name)

	status, trackerErr := services.Tracker.GetStatus(ctx, requestId)
	require.NoError(t, trackerErr)
	assert.Equal(t, attestations[0].IntegraHash, status.IntegraHash, "tracked context carries the first spec")
}

func TestSetTransactionHashUnknownRequestId(t *testing.T) {
	services := newTestServices(t, newFakeDBClient(), &fakePublisher{})

	err := services.SetTransactionHash(context.Background(), "req-missing", testTxHash)
	require.NotNil(t, err)
	assert.Equal(t, http.StatusNotFound, err.StatusCode)
}

func TestGetAttestationStatusUnknownRequest(t *testing.T) {
	services := newTestServices(t, newFakeDBClient(), &fakePublisher{})

	status, err := services.GetAttestationStatus(context.Background(), "req-missing")
	require.Nil(t, err, "an unknown request id is not an error")
	assert.False(t, status.Found)
}

func TestGetAttestationStatusAfterConfirmation(t *testing.T) {
	services := newTestServices(t, newFakeDBClient(), &fakePublisher{})
	ctx := context.Background()

	registerTrackedRequest(t, services, "req-1")
	require.NoError(t, services.Tracker.MarkConfirmed(ctx, testTxHash, testUid))

	status, err := services.GetAttestationStatus(ctx, "req-1")
	require.Nil(t, err)
	assert.True(t, status.Found)
	assert.Equal(t, types.Confirmed.ToString(), status.State)
	assert.Equal(t, testUid, status.AttestationUID)
}
