package api

import (
	"github.com/go-chi/chi"
)

func (a *Server) SetupRoutes(r *chi.Mux) {
	handlers := a.handlers
	r.Get("/healthcheck", registerHandler(handlers.HealthCheck))

	r.Post("/webhooks/rpc", registerHandler(handlers.RPCWebhook))

	r.Post("/v1/attestations", registerHandler(handlers.CreateAttestation))
	r.Post("/v1/attestations/revoke", registerHandler(handlers.RevokeAttestation))
	r.Post("/v1/attestations/batch", registerHandler(handlers.BatchCreateAttestations))
	r.Post("/v1/attestations/transaction", registerHandler(handlers.SetTransactionHash))
	r.Get("/v1/attestations/status", registerHandler(handlers.GetAttestationStatus))
	r.Get("/v1/attestations/pending", registerHandler(handlers.GetPendingAttestations))

	r.Get("/v1/attestations/record", registerHandler(handlers.GetAttestation))
	r.Get("/v1/attestations/document", registerHandler(handlers.GetDocumentAttestations))
	r.Get("/v1/attestations/sent", registerHandler(handlers.GetSentAttestations))
	r.Get("/v1/attestations/received", registerHandler(handlers.GetReceivedAttestations))
}
