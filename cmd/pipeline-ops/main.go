package main

import (
	"context"
	"os"

	"github.com/dataops-lab/pipeline-lambdas/cmd/pipeline-ops/commands"
	"github.com/dataops-lab/pipeline-lambdas/internal/di"
	"github.com/urfave/cli/v2"
)

func main() {
	logger := di.ProvideLogger()
	ctx := logger.WithContext(context.Background())

	app := &cli.App{
		Name:  "pipeline-ops",
		Usage: "Operate the webhook and DAG pipeline lambdas",
		Description: `Operator toolkit for the pipeline lambdas.

This tool provides commands for:
  - Draining the webhooks queue into S3 outside of the scheduled lambda
  - Enqueueing webhook payloads for replays and local testing
  - Inspecting the webhook write ledger
  - Rendering DAG files from a local config`,
		Flags: commands.GlobalFlags(),
		Commands: []*cli.Command{
			commands.DrainCommand(&logger),
			commands.EnqueueCommand(&logger),
			commands.LedgerCommand(&logger),
			commands.DagCommand(&logger),
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		logger.Error().Err(err).Msg("Application error")
		os.Exit(1)
	}
}
