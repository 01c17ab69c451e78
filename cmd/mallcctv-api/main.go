package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/vallabhn1/MallCCTV/pkg/catalog"
	"github.com/vallabhn1/MallCCTV/pkg/cmd"
	"github.com/vallabhn1/MallCCTV/pkg/engine"
	"github.com/vallabhn1/MallCCTV/pkg/log"
	"github.com/vallabhn1/MallCCTV/pkg/scheduler"
)

func main() {
	command := &cli.Command{
		Name:                  "mallcctv-api",
		EnableShellCompletion: true,
		Usage:                 "HTTP API for triggering runs and inspecting checkpoints and alerts",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Usage:   "Port for the API server",
				Value:   9091,
				Sources: cli.EnvVars("PORT"),
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
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))
			logger := log.WithModule("mallcctv-api")

			logger.InfoContext(ctx, "Initializing API server", "port", command.Int("port"))

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
			sched := scheduler.NewScheduler(logger, cat, executor, scheduler.Options{})

			defer sched.Stop()

			api := NewAPI(logger, store, sched)

			return api.Start(command.Int("port"))
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
