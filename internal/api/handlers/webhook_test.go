package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IntegraLedger/integra-eas-worker/internal/config"
	"github.com/IntegraLedger/integra-eas-worker/internal/utils"
)

const testSigningKey = "test-signing-key"

func newWebhookHandler() *Handler {
	return &Handler{
		config: &config.Config{
			Webhook: config.WebhookConfig{SigningKey: testSigningKey, MaxConcurrency: 4},
		},
	}
}

func webhookRequest(body []byte, signature string) *http.Request {
	request := httptest.NewRequest(http.MethodPost, "/webhooks/rpc", bytes.NewReader(body))
	if signature != "" {
		request.Header.Set(SignatureHeader, signature)
	}
	return request
}

func TestRPCWebhookMissingSignature(t *testing.T) {
	handler := newWebhookHandler()

	_, err := handler.RPCWebhook(webhookRequest([]byte(`{}`), ""))
	require.NotNil(t, err)
	assert.Equal(t, http.StatusUnauthorized, err.StatusCode)
}

func TestRPCWebhookInvalidSignature(t *testing.T) {
	handler := newWebhookHandler()
	body := []byte(`{"network":"ETH_MAINNET","activity":[]}`)

	_, err := handler.RPCWebhook(webhookRequest(body, "deadbeef"))
	require.NotNil(t, err)
	assert.Equal(t, http.StatusUnauthorized, err.StatusCode)
}

func TestRPCWebhookSignatureOverDifferentBody(t *testing.T) {
	handler := newWebhookHandler()
	signature := utils.ComputeSignature([]byte(`{"network":"ETH_MAINNET"}`), testSigningKey)

	// Valid signature, but over a different body than the one delivered.
	_, err := handler.RPCWebhook(webhookRequest([]byte(`{"network":"MATIC_MAINNET"}`), signature))
	require.NotNil(t, err)
	assert.Equal(t, http.StatusUnauthorized, err.StatusCode)
}

func TestRPCWebhookMalformedPayload(t *testing.T) {
	handler := newWebhookHandler()
	body := []byte(`not-json`)
	signature := utils.ComputeSignature(body, testSigningKey)

	_, err := handler.RPCWebhook(webhookRequest(body, signature))
	require.NotNil(t, err)
	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
}
