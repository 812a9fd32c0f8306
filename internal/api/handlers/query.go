package handlers

import (
	"net/http"
	"strconv"

	"github.com/IntegraLedger/integra-eas-worker/internal/db/model"
	"github.com/IntegraLedger/integra-eas-worker/internal/types"
	"github.com/IntegraLedger/integra-eas-worker/internal/utils"
)

type AttestationPublic struct {
	AttestationUID  string `json:"attestation_uid"`
	SchemaUID       string `json:"schema_uid"`
	IntegraHash     string `json:"integra_hash,omitempty"`
	TokenId         uint64 `json:"token_id,omitempty"`
	Chain           string `json:"chain"`
	ChainId         uint64 `json:"chain_id"`
	Attester        string `json:"attester"`
	Recipient       string `json:"recipient"`
	IsRevoked       bool   `json:"is_revoked"`
	RevocationTime  int64  `json:"revocation_time,omitempty"`
	DateOfIssue     int64  `json:"date_of_issue"`
	TransactionHash string `json:"transaction_hash"`
	BlockNumber     uint64 `json:"block_number"`
	Direction       string `json:"direction"`
}

func toAttestationPublic(doc *model.AttestationDocument) AttestationPublic {
	return AttestationPublic{
		AttestationUID:  doc.AttestationUid,
		SchemaUID:       doc.SchemaUid,
		IntegraHash:     doc.IntegraHash,
		TokenId:         doc.TokenId,
		Chain:           doc.Chain,
		ChainId:         doc.ChainId,
		Attester:        doc.Attester,
		Recipient:       doc.Recipient,
		IsRevoked:       doc.IsRevoked,
		RevocationTime:  doc.RevocationTime,
		DateOfIssue:     doc.DateOfIssue,
		TransactionHash: doc.TransactionHash,
		BlockNumber:     doc.BlockNumber,
		Direction:       string(doc.Direction),
	}
}

func toAttestationPublicList(docs []model.AttestationDocument) []AttestationPublic {
	result := make([]AttestationPublic, 0, len(docs))
	for i := range docs {
		result = append(result, toAttestationPublic(&docs[i]))
	}
	return result
}

func parseQueryLimit(request *http.Request) int64 {
	raw := request.URL.Query().Get("limit")
	if raw == "" {
		return 0
	}
	limit, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}

// GetAttestation returns one stored attestation record by uid.
func (h *Handler) GetAttestation(request *http.Request) (*Result, *types.Error) {
	attestationUID := request.URL.Query().Get("attestation_uid")
	if !utils.IsValidAttestationUID(attestationUID) {
		return nil, types.NewErrorWithMsg(http.StatusBadRequest, types.BadRequest, "invalid attestation UID")
	}
	orgDatabase := request.URL.Query().Get("org_database")

	attestation, err := h.services.GetAttestation(request.Context(), orgDatabase, attestationUID)
	if err != nil {
		return nil, err
	}

	return NewResult(toAttestationPublic(attestation)), nil
}

// GetDocumentAttestations lists the attestations linked to a document hash.
func (h *Handler) GetDocumentAttestations(request *http.Request) (*Result, *types.Error) {
	integraHash := request.URL.Query().Get("integra_hash")
	if integraHash == "" {
		return nil, types.NewErrorWithMsg(http.StatusBadRequest, types.BadRequest, "integra_hash is required")
	}
	orgDatabase := request.URL.Query().Get("org_database")

	attestations, err := h.services.GetDocumentAttestations(request.Context(), orgDatabase, integraHash)
	if err != nil {
		return nil, err
	}

	return NewResult(toAttestationPublicList(attestations)), nil
}

// GetSentAttestations lists attestations issued by an address.
func (h *Handler) GetSentAttestations(request *http.Request) (*Result, *types.Error) {
	address := request.URL.Query().Get("address")
	if !utils.IsValidAddress(address) {
		return nil, types.NewErrorWithMsg(http.StatusBadRequest, types.BadRequest, "invalid address")
	}
	orgDatabase := request.URL.Query().Get("org_database")

	attestations, err := h.services.GetSentAttestations(request.Context(), orgDatabase, address, parseQueryLimit(request))
	if err != nil {
		return nil, err
	}

	return NewResult(toAttestationPublicList(attestations)), nil
}

// GetReceivedAttestations lists attestations issued to an address.
func (h *Handler) GetReceivedAttestations(request *http.Request) (*Result, *types.Error) {
	address := request.URL.Query().Get("address")
	if !utils.IsValidAddress(address) {
		return nil, types.NewErrorWithMsg(http.StatusBadRequest, types.BadRequest, "invalid address")
	}
	orgDatabase := request.URL.Query().Get("org_database")

	attestations, err := h.services.GetReceivedAttestations(request.Context(), orgDatabase, address, parseQueryLimit(request))
	if err != nil {
		return nil, err
	}

	return NewResult(toAttestationPublicList(attestations)), nil
}
