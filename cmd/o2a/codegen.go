package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/observe2agent/observe2agent/pkg/generators"
	"github.com/observe2agent/observe2agent/pkg/models"
	cli "github.com/urfave/cli/v3"
)

func CodegenCommand() *cli.Command {
	return &cli.Command{
		Name:    "codegen",
		Aliases: []string{"g"},
		Usage:   "Generate automation code for a video's SOP and write it to a directory",
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
			&cli.StringFlag{
				Name:  "out",
				Usage: "Output directory",
				Value: "./generated",
			},
		},
		Action: func(_ context.Context, command *cli.Command) error {
			profile, err := loadProfile(command.String("config"))
			if err != nil {
				return err
			}

			framework := models.Framework(command.String("framework"))
			if framework == "" {
				framework = profile.Simulation.DefaultFramework
			}

			code, err := generateCode(command.String("video"), framework)
			if err != nil {
				return err
			}

			written, err := writeCode(command.String("out"), code)
			if err != nil {
				return err
			}

			for _, path := range written {
				fmt.Fprintln(command.Root().Writer, path)
			}

			return nil
		},
	}
}

// generateCode runs the stages code generation depends on, without the
// engine's delays or run slot.
func generateCode(video string, framework models.Framework) (*models.GeneratedCode, error) {
	videoID, err := generators.Upload(video)
	if err != nil {
		return nil, err
	}

	analysis, err := generators.Analyze(videoID)
	if err != nil {
		return nil, err
	}

	sop, err := generators.GenerateSOP(analysis, time.Now())
	if err != nil {
		return nil, err
	}

	return generators.GenerateCode(sop, framework)
}

// writeCode writes every generated file into dir and returns their paths in
// name order. File names are flattened to their base name.
func writeCode(dir string, code *models.GeneratedCode) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	names := make([]string, 0, len(code.Files))
	for name := range code.Files {
		names = append(names, name)
	}

	slices.Sort(names)

	written := make([]string, 0, len(names))

	for _, name := range names {
		path := filepath.Join(dir, filepath.Base(name))
		if err := os.WriteFile(path, []byte(code.Files[name]), 0o644); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", path, err)
		}

		written = append(written, path)
	}

	return written, nil
}
