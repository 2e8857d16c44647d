// Package main provides the observe2agent API server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/observe2agent/observe2agent/pkg/cmd"
	"github.com/observe2agent/observe2agent/pkg/config"
	"github.com/observe2agent/observe2agent/pkg/log"
	"github.com/observe2agent/observe2agent/pkg/otelhelper"
	"github.com/observe2agent/observe2agent/pkg/pipeline"
	"github.com/observe2agent/observe2agent/pkg/scheduler"
	"github.com/observe2agent/observe2agent/pkg/services"
	cli "github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

const defaultPort = 9091

func main() {
	command := &cli.Command{
		Name:                  "o2a-api",
		Usage:                 "Serve the observe2agent pipeline simulator over HTTP",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Run store URL (directory, file://, postgres://, redis://)",
				Value:   "file://./data",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (gochannel, kafka)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "kafka-brokers",
				Usage:   "Comma separated Kafka brokers",
				Value:   "localhost:9092",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML simulator profile",
				Sources: cli.EnvVars("O2A_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "demo-schedule",
				Usage:   "Cron expression for scheduled demo runs (disabled when empty)",
				Sources: cli.EnvVars("DEMO_SCHEDULE"),
			},
			&cli.StringFlag{
				Name:    "demo-video",
				Usage:   "Video name used by scheduled demo runs",
				Value:   "demo-purchase-order.mp4",
				Sources: cli.EnvVars("DEMO_VIDEO"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export OpenTelemetry traces over OTLP/HTTP",
				Sources: cli.EnvVars("TRACING_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log format (text, json)",
				Value:   "text",
				Sources: cli.EnvVars("LOG_FORMAT"),
			},
		},
		Action: run,
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"), command.String("log-format"))

	logger := log.WithModule("api")

	logger.InfoContext(ctx, "Initializing observe2agent API")

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	profile := config.Default()
	if path := command.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}

		profile = loaded
	}

	tracer := otelhelper.NoopTracer()

	if command.Bool("tracing") {
		t, shutdown, err := otelhelper.NewTracer(ctx, "o2a-api")
		if err != nil {
			return fmt.Errorf("failed to initialize tracer: %w", err)
		}

		defer func() {
			if err := shutdown(context.WithoutCancel(ctx)); err != nil {
				logger.ErrorContext(ctx, "Failed to shutdown tracer provider", "error", err)
			}
		}()

		tracer = t
	}

	persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
	if err != nil {
		return err
	}

	defer func() {
		if err := persistence.Close(context.WithoutCancel(ctx)); err != nil {
			logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
		}
	}()

	eventBus, err := cmd.NewEventBus(command.String("event-bus"), command.String("kafka-brokers"), logger)
	if err != nil {
		return err
	}

	defer func() {
		if err := eventBus.Close(); err != nil {
			logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
		}
	}()

	engine, err := pipeline.NewEngine(profile.PipelineConfig(), append([]pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithTracer(tracer),
	}, profile.EngineOptions()...)...)
	if err != nil {
		return err
	}

	engine.Subscribe(pipeline.NewEventBridge(eventBus, logger).Listen)

	if err := watchRunOutcomes(ctx, eventBus, logger); err != nil {
		return err
	}

	pipelineService := services.NewPipeline(ctx, engine, persistence, logger)
	defer pipelineService.Wait()

	api := NewAPI(logger, pipelineService, services.NewGateway(profile.PipelineConfig(), logger))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.InfoContext(gctx, "Starting API server", "port", command.Int("port"))

		return api.Start(command.Int("port"))
	})

	g.Go(func() error {
		<-gctx.Done()

		return api.Shutdown()
	})

	if expr := command.String("demo-schedule"); expr != "" {
		demo, err := scheduler.New(scheduler.DemoSchedule{
			CronExpr:  expr,
			VideoName: command.String("demo-video"),
			Framework: profile.Simulation.DefaultFramework,
		}, pipelineService, logger)
		if err != nil {
			return err
		}

		g.Go(func() error {
			if err := demo.Start(gctx); err != nil {
				return err
			}

			<-gctx.Done()

			return demo.Stop(context.WithoutCancel(gctx))
		})
	}

	return g.Wait()
}
