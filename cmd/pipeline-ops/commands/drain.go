package commands

import (
	"fmt"

	"github.com/dataops-lab/pipeline-lambdas/internal/di"
	"github.com/dataops-lab/pipeline-lambdas/internal/pipeline"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

// DrainCommand runs one webhook batch the way the scheduled lambda does
func DrainCommand(logger *zerolog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "drain",
		Usage: "Drain the webhooks queue into S3 once",
		Description: `Receive up to the polling limit, write one CSV object per record type and delete
the received messages.

Examples:
  # Drain the dev queue using SSM configuration
  pipeline-ops --env dev drain

  # Drain a LocalStack queue using a local config file
  pipeline-ops --endpoint http://localhost:4566 --config local.yaml drain --json`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "json",
				Aliases: []string{"j"},
				Usage:   "Output the result as JSON",
			},
		},
		Action: func(c *cli.Context) error {
			container, err := newContainer(c, logger,
				di.ProvideQueueReader,
				di.ProvideObjectWriter,
				di.ProvideLedgerDAO,
				di.ProvidePipeline,
			)
			if err != nil {
				return err
			}

			p, err := get[*pipeline.Pipeline](container)
			if err != nil {
				return err
			}

			result, err := p.Run(c.Context)
			if err != nil {
				return err
			}

			if c.Bool("json") {
				return printJSON(c.App.Writer, result)
			}

			fmt.Fprintf(c.App.Writer, "Invocation %s: received %d, deleted %d\n",
				result.InvocationID, result.Received, result.Deleted)
			for _, w := range result.Written {
				fmt.Fprintf(c.App.Writer, "  %-20s %5d rows  s3://%s/%s\n", w.RecordType, w.Rows, w.Bucket, w.Key)
			}
			return nil
		},
	}
}
