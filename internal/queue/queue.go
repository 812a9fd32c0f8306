package queue

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/IntegraLedger/integra-eas-worker/internal/config"
	"github.com/IntegraLedger/integra-eas-worker/internal/observability/metrics"
	"github.com/IntegraLedger/integra-eas-worker/internal/queue/client"
	"github.com/IntegraLedger/integra-eas-worker/internal/types"
)

// Queues routes workflow execution messages to the chain-specific queues of
// the external workflow engine.
type Queues struct {
	QueueClient client.QueueClient
	cfg         *config.QueueConfig
}

func New(cfg *config.QueueConfig) *Queues {
	queueClient, err := client.NewQueueClient(cfg.Url, cfg.QueueUser, cfg.QueuePassword)
	if err != nil {
		log.Fatal().Err(err).Msg("error while creating queue client")
	}
	return &Queues{
		QueueClient: queueClient,
		cfg:         cfg,
	}
}

// PublishWorkflowExecution hands one execution envelope to the workflow
// engine. A single attempt is made; failures are propagated to the caller.
func (q *Queues) PublishWorkflowExecution(ctx context.Context, chain types.Chain, message *client.WorkflowExecutionMessage) error {
	queueName := q.queueNameForChain(chain)

	messageBody, err := json.Marshal(message)
	if err != nil {
		return err
	}

	err = q.QueueClient.Publish(ctx, queueName, messageBody, message.CorrelationId)
	if err != nil {
		metrics.RecordQueuePublish(queueName, metrics.Error)
		return err
	}
	metrics.RecordQueuePublish(queueName, metrics.Success)

	log.Ctx(ctx).Info().
		Str("queueName", queueName).
		Str("requestId", message.RequestId).
		Str("correlationId", message.CorrelationId).
		Msg("Published workflow execution message")
	return nil
}

// IsConnectionHealthy reports the health of the underlying broker connection.
func (q *Queues) IsConnectionHealthy() error {
	return q.QueueClient.Ping()
}

func (q *Queues) Stop() {
	if err := q.QueueClient.Stop(); err != nil {
		log.Error().Err(err).Msg("error while stopping queue client")
	}
}

func (q *Queues) queueNameForChain(chain types.Chain) string {
	if chain == types.ChainPolygon {
		return q.cfg.PolygonQueueName
	}
	return q.cfg.EthereumQueueName
}
