package services

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/IntegraLedger/integra-eas-worker/internal/db"
	"github.com/IntegraLedger/integra-eas-worker/internal/queue/client"
	"github.com/IntegraLedger/integra-eas-worker/internal/types"
)

const workflowSource = "integra-eas-worker"

// publishWorkflowExecution looks up the workflow definition in the registry,
// publishes one execution envelope to the chain queue and returns the newly
// assigned request id. A single publish attempt is made; failures are
// propagated to the caller.
func (s *Services) publishWorkflowExecution(
	ctx context.Context, workflowName, workflowVersion string,
	chain types.Chain, userId string, parameters map[string]interface{},
) (string, *types.Error) {
	workflow, err := s.DbClient.GetWorkflow(ctx, workflowName, workflowVersion)
	if err != nil {
		if db.IsNotFoundError(err) {
			log.Ctx(ctx).Error().Err(err).
				Str("workflowName", workflowName).
				Str("workflowVersion", workflowVersion).
				Msg("Workflow definition not found in registry")
			return "", types.NewError(http.StatusNotFound, types.NotFound, err)
		}
		return "", types.NewInternalServiceError(err)
	}

	requestId := uuid.NewString()
	correlationId := uuid.NewString()

	message := &client.WorkflowExecutionMessage{
		Type:          client.WorkflowExecutionType,
		RequestId:     requestId,
		CorrelationId: correlationId,
		Workflow: client.WorkflowRef{
			Id:         workflow.Id,
			Name:       workflow.Name,
			Version:    workflow.Version,
			Definition: workflow.Workflow,
		},
		Parameters: parameters,
		Metadata: client.MessageMetadata{
			Source:    workflowSource,
			UserId:    userId,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}

	if err := s.Publisher.PublishWorkflowExecution(ctx, chain, message); err != nil {
		log.Ctx(ctx).Error().Err(err).
			Str("workflowName", workflowName).
			Str("chain", chain.ToString()).
			Msg("Failed to publish workflow execution message")
		return "", types.NewError(http.StatusServiceUnavailable, types.DownstreamUnavailable, err)
	}

	return requestId, nil
}
