package commands

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dataops-lab/pipeline-lambdas/internal/dao/ledgerdao"
	"github.com/dataops-lab/pipeline-lambdas/internal/di"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

// LedgerCommand inspects the webhook write ledger
func LedgerCommand(logger *zerolog.Logger) *cli.Command {
	jsonFlag := &cli.BoolFlag{
		Name:    "json",
		Aliases: []string{"j"},
		Usage:   "Output as JSON",
	}

	return &cli.Command{
		Name:    "ledger",
		Aliases: []string{"l"},
		Usage:   "Inspect objects written by webhook invocations",
		Description: `The ledger holds one entry per CSV object written by an invocation. Entries stay
WRITTEN when the invocation failed before deleting its messages; those messages were
redelivered and written again under new keys.`,
		Subcommands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List the entries of an invocation",
				Description: `Examples:
  pipeline-ops --env prd ledger list --invocation 2HFj3kLmNoPqRsTuVwXy`,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "invocation",
						Aliases:  []string{"i"},
						Usage:    "Invocation ID as logged by process-webhook",
						Required: true,
					},
					jsonFlag,
				},
				Action: func(c *cli.Context) error {
					dao, err := ledgerDAO(c, logger)
					if err != nil {
						return err
					}

					entries, err := dao.Query(c.Context, c.String("invocation"))
					if err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(c.App.Writer, entries)
					}
					return printLedger(c.App.Writer, entries)
				},
			},
			{
				Name:  "get",
				Usage: "Show one entry",
				Description: `Examples:
  pipeline-ops --env prd ledger get --id 2HFj3kLmNoPqRsTuVwXy:Bounce`,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Entry ID in format {invocation}:{record_type}",
						Required: true,
					},
					jsonFlag,
				},
				Action: func(c *cli.Context) error {
					dao, err := ledgerDAO(c, logger)
					if err != nil {
						return err
					}

					id := ledgerdao.ID(c.String("id"))
					entry, err := dao.Find(c.Context, id)
					if err != nil {
						return err
					}
					if entry == nil {
						return fmt.Errorf("ledger entry %s not found", id)
					}
					if c.Bool("json") {
						return printJSON(c.App.Writer, entry)
					}
					return printLedger(c.App.Writer, []ledgerdao.Record{*entry})
				},
			},
		},
	}
}

func ledgerDAO(c *cli.Context, logger *zerolog.Logger) (*ledgerdao.DAO, error) {
	container, err := newContainer(c, logger, di.ProvideLedgerDAO)
	if err != nil {
		return nil, err
	}

	dao, err := get[*ledgerdao.DAO](container)
	if err != nil {
		return nil, err
	}
	if dao == nil {
		return nil, fmt.Errorf("no ledger table configured for env %s", c.String("env"))
	}
	return dao, nil
}

func printLedger(w io.Writer, entries []ledgerdao.Record) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tROWS\tBYTES\tCREATED\tOBJECT")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\ts3://%s/%s\n",
			e.GetID(), e.Status, e.Rows, e.Bytes,
			time.Unix(e.CreatedAt, 0).UTC().Format(time.RFC3339),
			e.Bucket, e.Key)
	}
	return tw.Flush()
}
