package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/IntegraLedger/integra-eas-worker/internal/types"
	"github.com/IntegraLedger/integra-eas-worker/internal/utils"
)

const SignatureHeader = "X-Integra-Signature"

type WebhookResponse struct {
	Success   bool `json:"success"`
	Processed int  `json:"processed"`
	Failed    int  `json:"failed"`
}

// RPCWebhook receives confirmation webhooks from the internal RPC service
// once EAS transactions land on chain. The signature is verified over the raw
// body before anything else runs; nothing downstream executes on a bad or
// missing signature.
func (h *Handler) RPCWebhook(request *http.Request) (*Result, *types.Error) {
	signature := request.Header.Get(SignatureHeader)
	if signature == "" {
		return nil, types.NewErrorWithMsg(http.StatusUnauthorized, types.Unauthorized, "missing signature")
	}

	body, err := io.ReadAll(request.Body)
	if err != nil {
		log.Ctx(request.Context()).Error().Err(err).Msg("failed to read webhook body")
		return nil, types.NewInternalServiceError(err)
	}

	if !utils.VerifySignature(body, signature, h.config.Webhook.SigningKey) {
		return nil, types.NewErrorWithMsg(http.StatusUnauthorized, types.Unauthorized, "invalid signature")
	}

	payload := &types.RPCWebhookPayload{}
	if err := json.Unmarshal(body, payload); err != nil {
		return nil, types.NewErrorWithMsg(http.StatusBadRequest, types.BadRequest, "invalid webhook payload")
	}

	result, svcErr := h.services.ProcessRPCWebhook(request.Context(), payload)
	if svcErr != nil {
		return nil, svcErr
	}

	// 200 on both partial and full success; per-activity failures are
	// reported in the counts.
	return &Result{
		Data: WebhookResponse{
			Success:   true,
			Processed: result.Processed,
			Failed:    result.Failed,
		},
		Status: http.StatusOK,
	}, nil
}
