package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/IntegraLedger/integra-eas-worker/internal/services"
	"github.com/IntegraLedger/integra-eas-worker/internal/types"
	"github.com/IntegraLedger/integra-eas-worker/internal/utils"
)

type CreateAttestationRequestPayload struct {
	IntegraHash    string   `json:"integra_hash"`
	TokenId        uint64   `json:"token_id"`
	Recipient      string   `json:"recipient"`
	Chain          string   `json:"chain"`
	SchemaUID      string   `json:"schema_uid"`
	Capabilities   []string `json:"capabilities"`
	ExpirationTime int64    `json:"expiration_time,omitempty"`
	Revocable      *bool    `json:"revocable,omitempty"`
	UserId         string   `json:"user_id"`
	OrgDatabase    string   `json:"org_database"`
}

type RevokeAttestationRequestPayload struct {
	AttestationUID string `json:"attestation_uid"`
	Chain          string `json:"chain"`
	UserId         string `json:"user_id"`
	OrgDatabase    string `json:"org_database"`
}

type BatchCreateAttestationsRequestPayload struct {
	Attestations []services.AttestationSpec `json:"attestations"`
	Chain        string                     `json:"chain"`
	SchemaUID    string                     `json:"schema_uid"`
	UserId       string                     `json:"user_id"`
	OrgDatabase  string                     `json:"org_database"`
}

type SetTransactionHashRequestPayload struct {
	RequestId string `json:"request_id"`
	TxHash    string `json:"tx_hash"`
}

type CreateAttestationResponse struct {
	RequestId string `json:"request_id"`
	Message   string `json:"message"`
}

type BatchCreateAttestationsResponse struct {
	RequestId string `json:"request_id"`
	Count     int    `json:"count"`
	Message   string `json:"message"`
}

func parseChain(chain string) (types.Chain, *types.Error) {
	parsed := types.Chain(chain)
	if !parsed.IsValid() {
		return "", types.NewErrorWithMsg(http.StatusBadRequest, types.BadRequest, "chain must be ethereum or polygon")
	}
	return parsed, nil
}

func parseCreateAttestationPayload(request *http.Request) (*CreateAttestationRequestPayload, *types.Error) {
	payload := &CreateAttestationRequestPayload{}
	err := json.NewDecoder(request.Body).Decode(payload)
	if err != nil {
		return nil, types.NewErrorWithMsg(http.StatusBadRequest, types.BadRequest, "invalid request payload")
	}
	if payload.IntegraHash == "" {
		return nil, types.NewErrorWithMsg(http.StatusBadRequest, types.BadRequest, "integra_hash is required")
	}
	if !utils.IsValidAddress(payload.Recipient) {
		return nil, types.NewErrorWithMsg(http.StatusBadRequest, types.BadRequest, "invalid recipient address")
	}
	if !utils.IsValidAttestationUID(payload.SchemaUID) {
		return nil, types.NewErrorWithMsg(http.StatusBadRequest, types.BadRequest, "invalid schema UID")
	}
	if payload.UserId == "" {
		return nil, types.NewErrorWithMsg(http.StatusBadRequest, types.BadRequest, "user_id is required")
	}
	if payload.OrgDatabase == "" {
		return nil, types.NewErrorWithMsg(http.StatusBadRequest, types.BadRequest, "org_database is required")
	}
	return payload, nil
}

// CreateAttestation accepts a capability attestation request and submits it
// to the workflow engine. This is an async operation; callers poll the status
// endpoint with the returned request id.
func (h *Handler) CreateAttestation(request *http.Request) (*Result, *types.Error) {
	payload, err := parseCreateAttestationPayload(request)
	if err != nil {
		return nil, err
	}
	chain, err := parseChain(payload.Chain)
	if err != nil {
		return nil, err
	}

	revocable := true
	if payload.Revocable != nil {
		revocable = *payload.Revocable
	}

	requestId, svcErr := h.services.CreateCapabilityAttestation(request.Context(), &services.CreateAttestationRequest{
		IntegraHash:    payload.IntegraHash,
		TokenId:        payload.TokenId,
		Recipient:      payload.Recipient,
		Chain:          chain,
		SchemaUID:      payload.SchemaUID,
		Capabilities:   payload.Capabilities,
		ExpirationTime: payload.ExpirationTime,
		Revocable:      revocable,
		UserId:         payload.UserId,
		OrgDatabase:    payload.OrgDatabase,
	})
	if svcErr != nil {
		return nil, svcErr
	}

	return NewResult(CreateAttestationResponse{
		RequestId: requestId,
		Message:   "Attestation workflow submitted",
	}), nil
}

// RevokeAttestation accepts a revocation request for an existing attestation.
func (h *Handler) RevokeAttestation(request *http.Request) (*Result, *types.Error) {
	payload := &RevokeAttestationRequestPayload{}
	if err := json.NewDecoder(request.Body).Decode(payload); err != nil {
		return nil, types.NewErrorWithMsg(http.StatusBadRequest, types.BadRequest, "invalid request payload")
	}
	if !utils.IsValidAttestationUID(payload.AttestationUID) {
		return nil, types.NewErrorWithMsg(http.StatusBadRequest, types.BadRequest, "invalid attestation UID")
	}
	if payload.UserId == "" {
		return nil, types.NewErrorWithMsg(http.StatusBadRequest, types.BadRequest, "user_id is required")
	}
	if payload.OrgDatabase == "" {
		return nil, types.NewErrorWithMsg(http.StatusBadRequest, types.BadRequest, "org_database is required")
	}
	chain, err := parseChain(payload.Chain)
	if err != nil {
		return nil, err
	}

	requestId, svcErr := h.services.RevokeCapabilityAttestation(
		request.Context(), payload.AttestationUID, chain, payload.UserId, payload.OrgDatabase,
	)
	if svcErr != nil {
		return nil, svcErr
	}

	return NewResult(CreateAttestationResponse{
		RequestId: requestId,
		Message:   "Revocation workflow submitted",
	}), nil
}

// BatchCreateAttestations accepts multiple attestation specs as one workflow.
func (h *Handler) BatchCreateAttestations(request *http.Request) (*Result, *types.Error) {
	payload := &BatchCreateAttestationsRequestPayload{}
	if err := json.NewDecoder(request.Body).Decode(payload); err != nil {
		return nil, types.NewErrorWithMsg(http.StatusBadRequest, types.BadRequest, "invalid request payload")
	}
	if len(payload.Attestations) == 0 {
		return nil, types.NewErrorWithMsg(http.StatusBadRequest, types.BadRequest, "attestations must not be empty")
	}
	if int64(len(payload.Attestations)) > h.config.Db.DbBatchSizeLimit {
		return nil, types.NewErrorWithMsg(http.StatusBadRequest, types.BadRequest, "batch size exceeds the limit")
	}
	for _, spec := range payload.Attestations {
		if spec.IntegraHash == "" {
			return nil, types.NewErrorWithMsg(http.StatusBadRequest, types.BadRequest, "integra_hash is required for every attestation")
		}
		if !utils.IsValidAddress(spec.Recipient) {
			return nil, types.NewErrorWithMsg(http.StatusBadRequest, types.BadRequest, "invalid recipient address")
		}
	}
	if !utils.IsValidAttestationUID(payload.SchemaUID) {
		return nil, types.NewErrorWithMsg(http.StatusBadRequest, types.BadRequest, "invalid schema UID")
	}
	if payload.UserId == "" {
		return nil, types.NewErrorWithMsg(http.StatusBadRequest, types.BadRequest, "user_id is required")
	}
	if payload.OrgDatabase == "" {
		return nil, types.NewErrorWithMsg(http.StatusBadRequest, types.BadRequest, "org_database is required")
	}
	chain, err := parseChain(payload.Chain)
	if err != nil {
		return nil, err
	}

	requestId, count, svcErr := h.services.BatchCreateAttestations(
		request.Context(), payload.Attestations, chain,
		payload.SchemaUID, payload.UserId, payload.OrgDatabase,
	)
	if svcErr != nil {
		return nil, svcErr
	}

	return NewResult(BatchCreateAttestationsResponse{
		RequestId: requestId,
		Count:     count,
		Message:   "Batch attestation workflow submitted",
	}), nil
}

// SetTransactionHash records the transaction hash the workflow engine reports
// back once the on-chain transaction has been submitted.
func (h *Handler) SetTransactionHash(request *http.Request) (*Result, *types.Error) {
	payload := &SetTransactionHashRequestPayload{}
	if err := json.NewDecoder(request.Body).Decode(payload); err != nil {
		return nil, types.NewErrorWithMsg(http.StatusBadRequest, types.BadRequest, "invalid request payload")
	}
	if payload.RequestId == "" {
		return nil, types.NewErrorWithMsg(http.StatusBadRequest, types.BadRequest, "request_id is required")
	}
	if !utils.IsValidTxHash(payload.TxHash) {
		return nil, types.NewErrorWithMsg(http.StatusBadRequest, types.BadRequest, "invalid transaction hash")
	}

	if svcErr := h.services.SetTransactionHash(request.Context(), payload.RequestId, payload.TxHash); svcErr != nil {
		return nil, svcErr
	}

	return &Result{
		Data:   &PublicResponse[string]{Data: "Transaction hash recorded"},
		Status: http.StatusAccepted,
	}, nil
}

// GetAttestationStatus returns the lifecycle state of an attestation request.
func (h *Handler) GetAttestationStatus(request *http.Request) (*Result, *types.Error) {
	requestId := request.URL.Query().Get("request_id")
	if requestId == "" {
		return nil, types.NewErrorWithMsg(http.StatusBadRequest, types.BadRequest, "request_id is required")
	}

	status, svcErr := h.services.GetAttestationStatus(request.Context(), requestId)
	if svcErr != nil {
		return nil, svcErr
	}

	return NewResult(status), nil
}

// GetPendingAttestations lists requests still awaiting confirmation.
func (h *Handler) GetPendingAttestations(request *http.Request) (*Result, *types.Error) {
	pending := h.services.GetPendingRequests(request.Context())
	return NewResult(pending), nil
}
