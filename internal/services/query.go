package services

import (
	"context"
	"net/http"

	"github.com/IntegraLedger/integra-eas-worker/internal/db"
	"github.com/IntegraLedger/integra-eas-worker/internal/db/model"
	"github.com/IntegraLedger/integra-eas-worker/internal/types"
)

// GetAttestation fetches one stored attestation record by its uid.
func (s *Services) GetAttestation(ctx context.Context, orgDatabase, attestationUID string) (*model.AttestationDocument, *types.Error) {
	attestation, err := s.DbClient.GetAttestationByUID(ctx, orgDatabase, attestationUID)
	if err != nil {
		if db.IsNotFoundError(err) {
			return nil, types.NewError(http.StatusNotFound, types.NotFound, err)
		}
		return nil, types.NewInternalServiceError(err)
	}
	return attestation, nil
}

// GetDocumentAttestations lists the attestations linked to a subject document.
func (s *Services) GetDocumentAttestations(ctx context.Context, orgDatabase, integraHash string) ([]model.AttestationDocument, *types.Error) {
	attestations, err := s.DbClient.GetAttestationsForDocument(ctx, orgDatabase, integraHash)
	if err != nil {
		return nil, types.NewInternalServiceError(err)
	}
	return attestations, nil
}

// GetSentAttestations lists attestations issued by the given address.
func (s *Services) GetSentAttestations(ctx context.Context, orgDatabase, attesterAddress string, limit int64) ([]model.AttestationDocument, *types.Error) {
	attestations, err := s.DbClient.GetSentAttestations(ctx, orgDatabase, attesterAddress, limit)
	if err != nil {
		return nil, types.NewInternalServiceError(err)
	}
	return attestations, nil
}

// GetReceivedAttestations lists attestations issued to the given address.
func (s *Services) GetReceivedAttestations(ctx context.Context, orgDatabase, recipientAddress string, limit int64) ([]model.AttestationDocument, *types.Error) {
	attestations, err := s.DbClient.GetReceivedAttestations(ctx, orgDatabase, recipientAddress, limit)
	if err != nil {
		return nil, types.NewInternalServiceError(err)
	}
	return attestations, nil
}
