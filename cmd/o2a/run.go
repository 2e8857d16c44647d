package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/observe2agent/observe2agent/pkg/config"
	"github.com/observe2agent/observe2agent/pkg/log"
	"github.com/observe2agent/observe2agent/pkg/models"
	"github.com/observe2agent/observe2agent/pkg/pipeline"
	cli "github.com/urfave/cli/v3"
)

var errRunFailed = errors.New("pipeline run failed")

func RunCommand() *cli.Command {
	return &cli.Command{
		Name:    "run",
		Aliases: []string{"r"},
		Usage:   "Run the eight stage pipeline for a video and stream its log",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "video",
				Usage:    "Name of the recorded video",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "framework",
				Usage: "Automation framework (agent-framework, legacy-webdriver, modern-async-driver)",
			},
			&cli.Uint64Flag{
				Name:  "seed",
				Usage: "Seed for the execution stage; random when unset",
			},
			&cli.DurationFlag{
				Name:  "stage-delay",
				Usage: "Override the simulated delay of each stage",
				Value: -1,
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"), "text")

			profile, err := loadProfile(command.String("config"))
			if err != nil {
				return err
			}

			cfg := profile.PipelineConfig()
			if delay := command.Duration("stage-delay"); delay >= 0 {
				cfg.StageDelay = delay
			}

			opts := append([]pipeline.Option{pipeline.WithLogger(log.WithModule("o2a"))}, profile.EngineOptions()...)
			if command.IsSet("seed") {
				opts = append(opts, pipeline.WithSeed(command.Uint64("seed")))
			}

			engine, err := pipeline.NewEngine(cfg, opts...)
			if err != nil {
				return err
			}

			framework := models.Framework(command.String("framework"))
			if framework == "" {
				framework = profile.Simulation.DefaultFramework
			}

			_, err = runPipeline(ctx, command.Root().Writer, engine, command.String("video"), framework)

			return err
		},
	}
}

func loadProfile(path string) (*config.Profile, error) {
	if path == "" {
		return config.Default(), nil
	}

	return config.Load(path)
}

// runPipeline streams the run's log to w as it is appended, then prints a
// summary. A failed run is reported as errRunFailed.
func runPipeline(ctx context.Context, w io.Writer, engine *pipeline.Engine, video string, framework models.Framework) (models.PipelineRun, error) {
	unsubscribe := engine.Subscribe(func(_ context.Context, update pipeline.Update) {
		if update.Kind == pipeline.UpdateLogAppended {
			fmt.Fprintf(w, "%s  %s\n", update.Entry.Timestamp.Format(time.TimeOnly), update.Entry.Message)
		}
	})
	defer unsubscribe()

	run, err := engine.Run(ctx, video, framework)
	if err != nil {
		return run, err
	}

	printSummary(w, run)

	if run.Status == models.RunStatusFailed {
		return run, fmt.Errorf("%w at stage %d (%s): %s", errRunFailed, run.Stage, run.Stage.Name(), run.Error)
	}

	return run, nil
}

func printSummary(w io.Writer, run models.PipelineRun) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Run %s %s\n", run.ID, run.Status)
	fmt.Fprintf(w, "  Video:      %s (%s)\n", run.VideoName, run.VideoID)
	fmt.Fprintf(w, "  Framework:  %s\n", run.Framework)

	if run.Systems != nil {
		fmt.Fprintf(w, "  Systems:    %d detected\n", run.Systems.TotalSystemsFound)
	}

	if run.SOP != nil {
		fmt.Fprintf(w, "  SOP:        %s (%d steps)\n", run.SOP.ID, len(run.SOP.Steps))
	}

	if run.Execution != nil {
		fmt.Fprintf(w, "  Execution:  %d/%d steps passed (%.1f%%)\n",
			run.Execution.PassedSteps, run.Execution.TotalSteps, run.Execution.SuccessRate*100)
	}

	if run.Validation != nil {
		fmt.Fprintf(w, "  Validation: %s\n", run.Validation.OverallStatus)

		for _, recommendation := range run.Validation.Recommendations {
			fmt.Fprintf(w, "    - %s\n", recommendation)
		}
	}
}
