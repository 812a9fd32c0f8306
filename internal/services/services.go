package services

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/IntegraLedger/integra-eas-worker/internal/config"
	"github.com/IntegraLedger/integra-eas-worker/internal/db"
	"github.com/IntegraLedger/integra-eas-worker/internal/queue/client"
	"github.com/IntegraLedger/integra-eas-worker/internal/tracker"
	"github.com/IntegraLedger/integra-eas-worker/internal/types"
)

// WorkflowPublisher hands execution envelopes to the external workflow
// engine. Satisfied by queue.Queues.
type WorkflowPublisher interface {
	PublishWorkflowExecution(ctx context.Context, chain types.Chain, message *client.WorkflowExecutionMessage) error
}

// Service layer contains the business logic and is used to interact with
// the database, the attestation tracker and the workflow queue.
type Services struct {
	DbClient  db.DBClient
	Tracker   *tracker.Tracker
	Publisher WorkflowPublisher
	cfg       *config.Config
}

func New(ctx context.Context, cfg *config.Config, publisher WorkflowPublisher) (*Services, error) {
	dbClient, err := db.New(ctx, cfg.Db)
	if err != nil {
		log.Ctx(ctx).Fatal().Err(err).Msg("error while creating db client")
		return nil, err
	}

	attestationTracker := tracker.New(&cfg.Tracker, dbClient)
	if err := attestationTracker.Load(ctx); err != nil {
		log.Ctx(ctx).Fatal().Err(err).Msg("error while loading tracker snapshot")
		return nil, err
	}

	return &Services{
		DbClient:  dbClient,
		Tracker:   attestationTracker,
		Publisher: publisher,
		cfg:       cfg,
	}, nil
}

// DoHealthCheck checks the health of the services by ping the database.
func (s *Services) DoHealthCheck(ctx context.Context) error {
	return s.DbClient.Ping(ctx)
}
