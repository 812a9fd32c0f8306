package services

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/IntegraLedger/integra-eas-worker/internal/db"
	"github.com/IntegraLedger/integra-eas-worker/internal/db/model"
	"github.com/IntegraLedger/integra-eas-worker/internal/eas"
	"github.com/IntegraLedger/integra-eas-worker/internal/observability/metrics"
	"github.com/IntegraLedger/integra-eas-worker/internal/types"
)

type activityOutcome string

const (
	outcomeProcessed activityOutcome = "processed"
	outcomeSkipped   activityOutcome = "skipped"
	outcomeFailed    activityOutcome = "failed"
)

func (o activityOutcome) String() string {
	return string(o)
}

type WebhookProcessResult struct {
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
}

// ProcessRPCWebhook routes every activity in an inbound confirmation batch.
// Activities are isolated from each other: a decode or persistence failure in
// one never aborts the rest. Activities that do not concern this deployment
// (foreign contract, unknown event shape, unregistered transaction hash) are
// skipped and count neither as processed nor as failed.
func (s *Services) ProcessRPCWebhook(ctx context.Context, payload *types.RPCWebhookPayload) (*WebhookProcessResult, *types.Error) {
	chain, err := types.ChainFromNetwork(payload.Network)
	if err != nil {
		return nil, types.NewError(http.StatusBadRequest, types.BadRequest, err)
	}

	log.Ctx(ctx).Info().
		Str("network", payload.Network).
		Uint64("chainId", chain.ChainId()).
		Int("activityCount", len(payload.Activity)).
		Msg("Received RPC webhook")

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		processed int
		failed    int
	)
	semaphore := make(chan struct{}, s.cfg.Webhook.MaxConcurrency)

	for i := range payload.Activity {
		activity := payload.Activity[i]
		wg.Add(1)
		semaphore <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-semaphore }()

			outcome := s.processActivity(ctx, &activity, chain)
			metrics.RecordWebhookActivity(outcome.String())

			mu.Lock()
			switch outcome {
			case outcomeProcessed:
				processed++
			case outcomeFailed:
				failed++
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	log.Ctx(ctx).Info().
		Int("total", len(payload.Activity)).
		Int("processed", processed).
		Int("failed", failed).
		Msg("Webhook processing complete")

	return &WebhookProcessResult{Processed: processed, Failed: failed}, nil
}

// processActivity verifies the activity concerns the EAS contract of the
// declared chain, decodes its log and routes the decoded event.
func (s *Services) processActivity(ctx context.Context, activity *types.Activity, chain types.Chain) activityOutcome {
	txHash := activity.Hash
	if txHash == "" {
		log.Ctx(ctx).Warn().Msg("Activity missing transaction hash")
		return outcomeSkipped
	}

	if !strings.EqualFold(activity.ToAddress, s.easAddressForChain(chain)) {
		log.Ctx(ctx).Debug().
			Str("txHash", txHash).
			Str("toAddress", activity.ToAddress).
			Msg("Not an EAS contract transaction, skipping")
		return outcomeSkipped
	}

	if activity.Log == nil {
		log.Ctx(ctx).Warn().Str("txHash", txHash).Msg("No log data in activity")
		return outcomeSkipped
	}

	event := eas.DecodeLog(activity.Log)
	if event == nil {
		log.Ctx(ctx).Warn().Str("txHash", txHash).Msg("Could not decode EAS event")
		return outcomeSkipped
	}

	if event.Attested != nil {
		return s.handleAttestedEvent(ctx, event.Attested, activity, chain, txHash)
	}
	return s.handleRevokedEvent(ctx, event.Revoked, activity, chain, txHash)
}

// handleAttestedEvent resolves the request context, persists the finalized
// record in the requester's store and confirms the request in the tracker.
func (s *Services) handleAttestedEvent(
	ctx context.Context, event *eas.AttestedEvent, activity *types.Activity, chain types.Chain, txHash string,
) activityOutcome {
	request, err := s.Tracker.ResolveByTxHash(ctx, txHash)
	if err != nil {
		// The attestation may not originate from this deployment, or the
		// webhook raced ahead of registration.
		log.Ctx(ctx).Warn().Str("txHash", txHash).Msg("No context found for transaction")
		return outcomeSkipped
	}

	attestation := &model.AttestationDocument{
		AttestationUid:  event.UID,
		SchemaUid:       event.SchemaUID,
		IntegraHash:     request.IntegraHash,
		TokenId:         request.TokenId,
		AttestationType: "document",
		RelatesTo:       request.Recipient,
		Chain:           chain.ToString(),
		ChainId:         chain.ChainId(),
		Attester:        event.Attester,
		Recipient:       event.Recipient,
		AttestationData: marshalEventData(event),
		DateOfIssue:     time.Now().Unix(),
		TransactionHash: txHash,
		BlockNumber:     parseBlockNumber(activity.BlockNum),
		Direction:       model.DirectionSent,
	}

	if err := s.DbClient.SaveAttestation(ctx, request.OrgDatabase, attestation); err != nil {
		if db.IsDuplicateKeyError(err) {
			// Webhook redelivery; the record is already stored.
			log.Ctx(ctx).Debug().Str("attestationUid", event.UID).Msg("Attestation already stored")
		} else {
			log.Ctx(ctx).Error().Err(err).
				Str("attestationUid", event.UID).
				Str("orgDatabase", request.OrgDatabase).
				Msg("Failed to store attestation")
			return outcomeFailed
		}
	}

	if err := s.Tracker.MarkConfirmed(ctx, txHash, event.UID); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("txHash", txHash).Msg("Failed to confirm attestation request")
		return outcomeFailed
	}

	log.Ctx(ctx).Info().
		Str("attestationUid", event.UID).
		Str("userId", request.UserId).
		Msg("Attestation stored successfully")
	return outcomeProcessed
}

// handleRevokedEvent resolves the request context and flags the existing
// record as revoked. A missing context or record is non-fatal; the revoked
// attestation may have been created outside this system.
func (s *Services) handleRevokedEvent(
	ctx context.Context, event *eas.RevokedEvent, activity *types.Activity, chain types.Chain, txHash string,
) activityOutcome {
	request, err := s.Tracker.ResolveByTxHash(ctx, txHash)
	if err != nil {
		log.Ctx(ctx).Warn().Str("txHash", txHash).Msg("No context found for revocation transaction")
		return outcomeSkipped
	}

	revocationTime := time.Now().Unix()
	if err := s.DbClient.RevokeAttestation(ctx, request.OrgDatabase, event.UID, revocationTime); err != nil {
		if db.IsNotFoundError(err) {
			log.Ctx(ctx).Warn().
				Str("attestationUid", event.UID).
				Msg("Revoked attestation not found in store, skipping")
			return outcomeSkipped
		}
		log.Ctx(ctx).Error().Err(err).
			Str("attestationUid", event.UID).
			Str("orgDatabase", request.OrgDatabase).
			Msg("Failed to revoke attestation")
		return outcomeFailed
	}

	if err := s.Tracker.MarkConfirmed(ctx, txHash, event.UID); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("txHash", txHash).Msg("Failed to confirm revocation request")
		return outcomeFailed
	}

	log.Ctx(ctx).Info().
		Str("attestationUid", event.UID).
		Str("userId", request.UserId).
		Msg("Attestation revoked successfully")
	return outcomeProcessed
}

func (s *Services) easAddressForChain(chain types.Chain) string {
	if chain == types.ChainPolygon {
		return s.cfg.Chains.Polygon.EASAddress
	}
	return s.cfg.Chains.Ethereum.EASAddress
}

func parseBlockNumber(blockNum string) uint64 {
	parsed, err := strconv.ParseUint(strings.TrimPrefix(blockNum, "0x"), 16, 64)
	if err != nil {
		return 0
	}
	return parsed
}

// marshalEventData keeps the raw decoded event alongside the normalized
// columns for later schema-data decoding.
func marshalEventData(event *eas.AttestedEvent) string {
	data, err := json.Marshal(event)
	if err != nil {
		return ""
	}
	return string(data)
}
