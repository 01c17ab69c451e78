package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"

	"github.com/vallabhn1/MallCCTV/pkg/catalog"
	"github.com/vallabhn1/MallCCTV/pkg/cmd"
	"github.com/vallabhn1/MallCCTV/pkg/engine"
	"github.com/vallabhn1/MallCCTV/pkg/log"
	"github.com/vallabhn1/MallCCTV/pkg/models"
	"github.com/vallabhn1/MallCCTV/pkg/otelhelper"
	"github.com/vallabhn1/MallCCTV/pkg/scheduler"
)

func main() {
	command := &cli.Command{
		Name:                  "mallcctv-agent",
		EnableShellCompletion: true,
		Usage:                 "Run the mall analytics workflows against the detection stream",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "agent-id",
				Aliases: []string{"id"},
				Usage:   "Custom agent ID (auto-generated if not provided)",
				Value:   "",
				Sources: cli.EnvVars("AGENT_ID"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for checkpoints, alerts and analytics",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis URL for the counter cache (in-memory when empty)",
				Value:   "",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.StringFlag{
				Name:    "dispatcher",
				Usage:   "Alert dispatch channel (kafka, gochannel, none)",
				Value:   "none",
				Sources: cli.EnvVars("DISPATCHER_TYPE"),
			},
			&cli.StringFlag{
				Name:    "config",
				Usage:   "Path to the thresholds YAML file (defaults apply when empty)",
				Value:   "",
				Sources: cli.EnvVars("THRESHOLDS_CONFIG"),
			},
			&cli.StringSliceFlag{
				Name:    "cameras",
				Usage:   "Camera IDs monitored by the hourly and daily workflows",
				Value:   []string{"CAM_001"},
				Sources: cli.EnvVars("CAMERAS"),
			},
			&cli.StringSliceFlag{
				Name:    "zones",
				Usage:   "Zone names monitored for overcrowding and popularity",
				Value:   []string{"entrance", "food-court", "main-hall"},
				Sources: cli.EnvVars("ZONES"),
			},
			&cli.StringSliceFlag{
				Name:    "queues",
				Usage:   "Queue entities sampled by the queue workflow",
				Value:   []string{"checkout"},
				Sources: cli.EnvVars("QUEUES"),
			},
			&cli.DurationFlag{
				Name:    "sample-interval",
				Usage:   "Queue sampling period",
				Value:   scheduler.DefaultSampleInterval,
				Sources: cli.EnvVars("SAMPLE_INTERVAL"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Enable OpenTelemetry tracing export",
				Value:   false,
				Sources: cli.EnvVars("TRACING_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: run,
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}

func run(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"))

	agentID := command.String("agent-id")
	if agentID == "" {
		agentID = "agent-" + uuid.New().String()[:8]
	}

	logger := log.WithModule("mallcctv-agent").With("agentId", agentID)

	logger.InfoContext(ctx, "Initializing analytics agent")

	if command.Bool("tracing") {
		if _, err := otelhelper.NewTracer(ctx, "mallcctv-agent"); err != nil {
			logger.ErrorContext(ctx, "Failed to initialize tracing", "error", err)

			return err
		}
	}

	store, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
	if err != nil {
		return err
	}

	defer func() {
		if err := store.Close(ctx); err != nil {
			logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
		}
	}()

	counter, err := cmd.NewCounter(ctx, command.String("redis-url"))
	if err != nil {
		return err
	}

	dispatcher, err := cmd.NewDispatcher(command.String("dispatcher"), logger)
	if err != nil {
		return err
	}

	defer func() {
		if err := dispatcher.Close(); err != nil {
			logger.ErrorContext(ctx, "Failed to close dispatcher", "error", err)
		}
	}()

	cat, err := catalog.NewCatalog(catalog.Deps{
		Logger:     logger,
		Detections: cmd.NewDetectionSource(store),
		Analytics:  store,
		Counters:   counter,
		Config:     catalog.LoadConfigOrDefault(command.String("config")),
	})
	if err != nil {
		return err
	}

	executor := engine.NewExecutor(logger, store, store, dispatcher, engine.DefaultRetryPolicy())

	cameras := command.StringSlice("cameras")
	zones := command.StringSlice("zones")

	sched := scheduler.NewScheduler(logger, cat, executor, scheduler.Options{
		Entities: map[models.WorkflowType][]string{
			models.WorkflowPeakHour:     cameras,
			models.WorkflowDemographics: cameras,
			models.WorkflowOvercrowding: zones,
			models.WorkflowPopularity:   zones,
			models.WorkflowQueue:        command.StringSlice("queues"),
		},
		SampleInterval: command.Duration("sample-interval"),
	})

	if err := sched.Start(ctx); err != nil {
		return err
	}

	logger.InfoContext(ctx, "Agent started",
		"cameras", cameras,
		"zones", zones,
		"queues", command.StringSlice("queues"))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	logger.InfoContext(ctx, "Shutting down agent...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	done := make(chan struct{})

	go func() {
		sched.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-shutdownCtx.Done():
		logger.WarnContext(ctx, "Shutdown timed out with runs still in flight")
	}

	return nil
}
