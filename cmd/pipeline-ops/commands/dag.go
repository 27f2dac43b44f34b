package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dataops-lab/pipeline-lambdas/internal/dags"
	"github.com/dataops-lab/pipeline-lambdas/internal/di"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

// DagCommand renders DAG files the same way the dags-management lambda does
func DagCommand(logger *zerolog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "dag",
		Usage: "Manage dynamic DAG files",
		Subcommands: []*cli.Command{
			{
				Name:  "render",
				Usage: "Render a DAG from a JSON config and upload it",
				Description: `The config is the JSON form of a DAG table item: it names the DAG and the
template to render.

Examples:
  # Preview the rendered file
  pipeline-ops --env dev dag render --file dag.json --dry-run

  # Render and upload to the DAGs prefix
  pipeline-ops --env dev dag render --file dag.json`,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "DAG config JSON file, - for stdin",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Print the rendered DAG instead of uploading it",
					},
				},
				Action: func(c *cli.Context) error {
					in, err := openInput(c.String("file"))
					if err != nil {
						return err
					}
					defer in.Close()

					config, err := readDagConfig(in)
					if err != nil {
						return err
					}

					container, err := newContainer(c, logger, di.ProvideDagManager)
					if err != nil {
						return err
					}
					manager, err := get[*dags.Manager](container)
					if err != nil {
						return err
					}

					if !c.Bool("dry-run") {
						dag, err := manager.Apply(c.Context, config)
						if err == nil && dag != nil {
							fmt.Fprintf(c.App.Writer, "Uploaded %s\n", dag.Key)
						}
						return err
					}

					dag, err := manager.Render(c.Context, config)
					if err != nil || dag == nil {
						return err
					}
					_, err = c.App.Writer.Write(dag.Body)
					return err
				},
			},
		},
	}
}

// readDagConfig decodes a JSON object keeping numbers verbatim
func readDagConfig(r io.Reader) (map[string]any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var config map[string]any
	if err := dec.Decode(&config); err != nil {
		return nil, fmt.Errorf("failed to parse dag config: %w", err)
	}
	if config == nil {
		return nil, fmt.Errorf("dag config must be a JSON object")
	}
	return config, nil
}
