package db

import (
	"context"

	"github.com/IntegraLedger/integra-eas-worker/internal/db/model"
)

type DBClient interface {
	Ping(ctx context.Context) error
	SaveAttestation(ctx context.Context, storeRef string, attestation *model.AttestationDocument) error
	RevokeAttestation(ctx context.Context, storeRef, attestationUid string, revocationTime int64) error
	GetAttestationByUID(ctx context.Context, storeRef, attestationUid string) (*model.AttestationDocument, error)
	GetAttestationsForDocument(ctx context.Context, storeRef, integraHash string) ([]model.AttestationDocument, error)
	GetSentAttestations(ctx context.Context, storeRef, attesterAddress string, limit int64) ([]model.AttestationDocument, error)
	GetReceivedAttestations(ctx context.Context, storeRef, recipientAddress string, limit int64) ([]model.AttestationDocument, error)
	GetWorkflow(ctx context.Context, name, version string) (*model.WorkflowDocument, error)
	SaveTrackerSnapshot(ctx context.Context, snapshot *model.TrackerSnapshotDocument) error
	GetTrackerSnapshot(ctx context.Context, instanceName string) (*model.TrackerSnapshotDocument, error)
}
