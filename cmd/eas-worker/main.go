package main

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/IntegraLedger/integra-eas-worker/cmd/eas-worker/cli"
	"github.com/IntegraLedger/integra-eas-worker/internal/api"
	"github.com/IntegraLedger/integra-eas-worker/internal/config"
	"github.com/IntegraLedger/integra-eas-worker/internal/db/model"
	"github.com/IntegraLedger/integra-eas-worker/internal/observability/healthcheck"
	"github.com/IntegraLedger/integra-eas-worker/internal/observability/metrics"
	"github.com/IntegraLedger/integra-eas-worker/internal/queue"
	"github.com/IntegraLedger/integra-eas-worker/internal/services"
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("failed to load .env file")
	}
}

func main() {
	ctx := context.Background()

	// setup cli commands and flags
	if err := cli.Setup(); err != nil {
		log.Fatal().Err(err).Msg("error while setting up cli")
	}

	// load config
	cfgPath := cli.GetConfigPath()
	cfg, err := config.New(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg(fmt.Sprintf("error while loading config file: %s", cfgPath))
	}

	// initialize metrics with the metrics port from config
	metricsPort := cfg.Metrics.GetMetricsPort()
	metrics.Init(metricsPort)

	err = model.Setup(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("error while setting up attestation db model")
	}

	// Connect to the workflow queues before the service layer so the
	// publisher is ready when the first request arrives.
	queues := queue.New(&cfg.Queue)

	services, err := services.New(ctx, cfg, queues)
	if err != nil {
		log.Fatal().Err(err).Msg("error while setting up attestation services layer")
	}
	defer services.Tracker.Stop()

	if err := healthcheck.StartHealthCheckCron(ctx, queues, cfg.Server.HealthCheckInterval); err != nil {
		log.Fatal().Err(err).Msg("error while starting health check cron")
	}

	apiServer, err := api.New(ctx, cfg, services)
	if err != nil {
		log.Fatal().Err(err).Msg("error while setting up attestation api service")
	}
	if err = apiServer.Start(); err != nil {
		log.Fatal().Err(err).Msg("error while starting attestation api service")
	}
}
