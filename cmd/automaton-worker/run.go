package main

import (
	"context"
	"fmt"
	"time"

	"github.com/dukex/automaton/pkg/cmd"
	"github.com/dukex/automaton/pkg/engine"
	"github.com/dukex/automaton/pkg/log"
	"github.com/dukex/automaton/pkg/otelhelper"
	"github.com/google/uuid"
	"github.com/urfave/cli/v3"
)

func NewRunCommand() *cli.Command {
	return &cli.Command{
		Name:    "run",
		Aliases: []string{"r"},
		Usage:   "Consume trigger events and run the enrollment ticker",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "worker-id",
				Aliases: []string{"id"},
				Usage:   "Custom worker ID (auto-generated if not provided)",
				Value:   "",
				Sources: cli.EnvVars("WORKER_ID"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence (file:// or postgres://)",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (kafka, gochannel)",
				Value:   "kafka",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "kafka-brokers",
				Usage:   "Comma separated Kafka brokers",
				Value:   "localhost:9092",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.StringFlag{
				Name:    "lease",
				Usage:   "Enrollment lease backend (memory, redis, postgres)",
				Value:   "memory",
				Sources: cli.EnvVars("LEASE_TYPE"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis URL for the redis lease backend",
				Value:   "redis://localhost:6379/0",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.DurationFlag{
				Name:    "tick-interval",
				Usage:   "How often due enrollments are resumed",
				Value:   time.Minute,
				Sources: cli.EnvVars("TICK_INTERVAL"),
			},
			&cli.IntFlag{
				Name:    "batch-size",
				Usage:   "Maximum enrollments resumed per tick",
				Value:   engine.DefaultBatchSize,
				Sources: cli.EnvVars("BATCH_SIZE"),
			},
			&cli.IntFlag{
				Name:    "max-steps",
				Usage:   "Maximum nodes one enrollment may execute per processing call",
				Value:   engine.DefaultMaxSteps,
				Sources: cli.EnvVars("MAX_STEPS"),
			},
			&cli.StringFlag{
				Name:    "invoice-service-url",
				Usage:   "Base URL of the invoice service",
				Sources: cli.EnvVars("INVOICE_SERVICE_URL"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export traces over OTLP/HTTP (configured by the OTEL_* variables)",
				Sources: cli.EnvVars("OTEL_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			workerID := command.String("worker-id")
			if workerID == "" {
				workerID = "worker-" + uuid.New().String()[:8]
			}

			logger := log.WithModule("automaton-worker").With("worker_id", workerID)

			logger.InfoContext(ctx, "Initializing Automaton Worker")

			var engineOpts []engine.Option

			if command.Bool("tracing") {
				tracer, shutdown, err := otelhelper.NewTracer(ctx, "automaton-worker")
				if err != nil {
					return fmt.Errorf("failed to initialize tracer: %w", err)
				}

				defer func() {
					if err := shutdown(context.WithoutCancel(ctx)); err != nil {
						logger.ErrorContext(ctx, "Failed to shutdown tracer provider", "error", err)
					}
				}()

				engineOpts = append(engineOpts, engine.WithTracer(tracer))
			}

			eventBus, err := cmd.NewEventBus(logger, command.String("event-bus"), command.String("kafka-brokers"), "automaton-worker")
			if err != nil {
				return err
			}

			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			if err != nil {
				return err
			}

			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			locker, closeLocker, err := cmd.NewLocker(ctx, logger, command.String("lease"), command.String("redis-url"), workerID, persistence)
			if err != nil {
				return err
			}

			defer func() {
				if err := closeLocker(); err != nil {
					logger.ErrorContext(ctx, "Failed to close lease backend", "error", err)
				}
			}()

			engineOpts = append(engineOpts,
				engine.WithLocker(locker),
				engine.WithMaxSteps(int(command.Int("max-steps"))),
				engine.WithPublisher(eventBus),
			)

			automationEngine := engine.New(
				logger,
				persistence,
				cmd.NewCollaborators(logger, eventBus, command.String("invoice-service-url")),
				engineOpts...,
			)

			ticker := engine.NewTicker(logger, automationEngine, engine.WithBatchSize(int(command.Int("batch-size"))))

			worker := NewWorkerManager(workerID, logger, automationEngine, ticker, eventBus)

			return worker.Start(ctx, command.Duration("tick-interval"))
		},
	}
}
