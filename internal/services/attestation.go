package services

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/IntegraLedger/integra-eas-worker/internal/tracker"
	"github.com/IntegraLedger/integra-eas-worker/internal/types"
	"github.com/IntegraLedger/integra-eas-worker/internal/utils"
)

const (
	createAttestationWorkflow  = "create-capability-attestation"
	revokeAttestationWorkflow  = "revoke-capability-attestation"
	batchCreateWorkflow        = "batch-create-attestations"
	attestationWorkflowVersion = "2.0.0"
)

// AttestationSpec is one attestation in a batch. The json tags follow the
// camelCase convention of the workflow engine envelope.
type AttestationSpec struct {
	IntegraHash  string   `json:"integraHash"`
	TokenId      uint64   `json:"tokenId"`
	Recipient    string   `json:"recipient"`
	Capabilities []string `json:"capabilities"`
}

type CreateAttestationRequest struct {
	IntegraHash    string
	TokenId        uint64
	Recipient      string
	Chain          types.Chain
	SchemaUID      string
	Capabilities   []string
	ExpirationTime int64
	Revocable      bool
	UserId         string
	OrgDatabase    string
}

type AttestationStatusPublic struct {
	Found          bool   `json:"found"`
	State          string `json:"state,omitempty"`
	AttestationUID string `json:"attestation_uid,omitempty"`
	ConfirmedAt    int64  `json:"confirmed_at,omitempty"`
	Error          string `json:"error,omitempty"`
}

// CreateCapabilityAttestation publishes a create-attestation workflow and
// registers the resulting request with the tracker, pending the transaction
// hash report and the on-chain confirmation.
func (s *Services) CreateCapabilityAttestation(ctx context.Context, req *CreateAttestationRequest) (string, *types.Error) {
	if err := s.validateSchemaUID(req.Chain, req.SchemaUID); err != nil {
		return "", err
	}

	parameters := map[string]interface{}{
		"integraHash":    req.IntegraHash,
		"tokenId":        req.TokenId,
		"recipient":      req.Recipient,
		"chain":          req.Chain.ToString(),
		"chainId":        req.Chain.ChainId(),
		"schemaUID":      req.SchemaUID,
		"capabilities":   req.Capabilities,
		"expirationTime": req.ExpirationTime,
		"revocable":      req.Revocable,
		"userId":         req.UserId,
		"orgDatabase":    req.OrgDatabase,
	}

	requestId, pubErr := s.publishWorkflowExecution(
		ctx, createAttestationWorkflow, attestationWorkflowVersion, req.Chain, req.UserId, parameters,
	)
	if pubErr != nil {
		return "", pubErr
	}

	registerErr := s.registerPendingRequest(ctx, &types.PendingRequest{
		RequestId:   requestId,
		UserId:      req.UserId,
		OrgDatabase: req.OrgDatabase,
		IntegraHash: req.IntegraHash,
		TokenId:     req.TokenId,
		Recipient:   req.Recipient,
		Chain:       req.Chain,
		ChainId:     req.Chain.ChainId(),
	})
	if registerErr != nil {
		return "", registerErr
	}

	return requestId, nil
}

// RevokeCapabilityAttestation publishes a revoke-attestation workflow and
// registers the revocation request with the tracker.
func (s *Services) RevokeCapabilityAttestation(
	ctx context.Context, attestationUID string, chain types.Chain, userId, orgDatabase string,
) (string, *types.Error) {
	parameters := map[string]interface{}{
		"attestationUID": attestationUID,
		"chain":          chain.ToString(),
		"chainId":        chain.ChainId(),
		"userId":         userId,
		"orgDatabase":    orgDatabase,
	}

	requestId, pubErr := s.publishWorkflowExecution(
		ctx, revokeAttestationWorkflow, attestationWorkflowVersion, chain, userId, parameters,
	)
	if pubErr != nil {
		return "", pubErr
	}

	// Subject fields are not applicable for a revocation.
	registerErr := s.registerPendingRequest(ctx, &types.PendingRequest{
		RequestId:   requestId,
		UserId:      userId,
		OrgDatabase: orgDatabase,
		Chain:       chain,
		ChainId:     chain.ChainId(),
	})
	if registerErr != nil {
		return "", registerErr
	}

	return requestId, nil
}

// BatchCreateAttestations publishes one workflow carrying the whole batch.
// The batch shares a single request id; the tracked context carries the first
// spec's subject fields.
func (s *Services) BatchCreateAttestations(
	ctx context.Context, attestations []AttestationSpec,
	chain types.Chain, schemaUID, userId, orgDatabase string,
) (string, int, *types.Error) {
	if err := s.validateSchemaUID(chain, schemaUID); err != nil {
		return "", 0, err
	}

	parameters := map[string]interface{}{
		"attestations": attestations,
		"chain":        chain.ToString(),
		"chainId":      chain.ChainId(),
		"schemaUID":    schemaUID,
		"userId":       userId,
		"orgDatabase":  orgDatabase,
	}

	requestId, pubErr := s.publishWorkflowExecution(
		ctx, batchCreateWorkflow, attestationWorkflowVersion, chain, userId, parameters,
	)
	if pubErr != nil {
		return "", 0, pubErr
	}

	pending := &types.PendingRequest{
		RequestId:   requestId,
		UserId:      userId,
		OrgDatabase: orgDatabase,
		Chain:       chain,
		ChainId:     chain.ChainId(),
	}
	if len(attestations) > 0 {
		pending.IntegraHash = attestations[0].IntegraHash
		pending.TokenId = attestations[0].TokenId
		pending.Recipient = attestations[0].Recipient
	}
	if registerErr := s.registerPendingRequest(ctx, pending); registerErr != nil {
		return "", 0, registerErr
	}

	return requestId, len(attestations), nil
}

// SetTransactionHash records the transaction hash reported back by the
// workflow engine after submission.
func (s *Services) SetTransactionHash(ctx context.Context, requestId, txHash string) *types.Error {
	err := s.Tracker.SetTransactionHash(ctx, requestId, txHash)
	if err != nil {
		if tracker.IsNotFoundError(err) {
			return types.NewError(http.StatusNotFound, types.NotFound, err)
		}
		return types.NewInternalServiceError(err)
	}
	return nil
}

// GetAttestationStatus returns the lifecycle state of a request for polling
// clients. An unknown request id yields found=false, not an error.
func (s *Services) GetAttestationStatus(ctx context.Context, requestId string) (*AttestationStatusPublic, *types.Error) {
	request, err := s.Tracker.GetStatus(ctx, requestId)
	if err != nil {
		if tracker.IsNotFoundError(err) {
			return &AttestationStatusPublic{Found: false}, nil
		}
		return nil, types.NewInternalServiceError(err)
	}

	return &AttestationStatusPublic{
		Found:          true,
		State:          request.State.ToString(),
		AttestationUID: request.AttestationUID,
		ConfirmedAt:    request.ConfirmedAt,
		Error:          request.Error,
	}, nil
}

// GetPendingRequests lists the requests still awaiting confirmation.
func (s *Services) GetPendingRequests(ctx context.Context) []types.PendingRequest {
	return s.Tracker.GetPending(ctx)
}

func (s *Services) registerPendingRequest(ctx context.Context, request *types.PendingRequest) *types.Error {
	err := s.Tracker.RegisterPending(ctx, request)
	if err != nil {
		if tracker.IsDuplicateRequestError(err) {
			return types.NewError(http.StatusConflict, types.DuplicateRequest, err)
		}
		return types.NewInternalServiceError(err)
	}
	return nil
}

// validateSchemaUID enforces the per-chain schema allowlist when one is
// configured; an empty allowlist accepts any schema.
func (s *Services) validateSchemaUID(chain types.Chain, schemaUID string) *types.Error {
	var allowed []string
	if chain == types.ChainPolygon {
		allowed = s.cfg.Chains.Polygon.SchemaUIDs
	} else {
		allowed = s.cfg.Chains.Ethereum.SchemaUIDs
	}

	if len(allowed) == 0 {
		return nil
	}
	if !utils.Contains(allowed, schemaUID) {
		log.Debug().Str("schemaUID", schemaUID).Str("chain", chain.ToString()).Msg("schema UID not in allowlist")
		return types.NewErrorWithMsg(http.StatusBadRequest, types.BadRequest, "schema UID is not allowed for this chain")
	}
	return nil
}
