package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/dataops-lab/pipeline-lambdas/internal/di"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

// GlobalFlags are shared by every command
func GlobalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "env",
			Aliases: []string{"e"},
			Usage:   "Deployment environment (dev, stg, or prd) - selects SSM parameters and tables",
			Value:   "dev",
			EnvVars: []string{"ENV"},
		},
		&cli.StringFlag{
			Name:    "endpoint",
			Usage:   "AWS endpoint override, e.g. http://localhost:4566 for LocalStack",
			EnvVars: []string{"AWS_ENDPOINT_URL"},
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "YAML config file used instead of SSM Parameter Store",
			EnvVars: []string{"PIPELINE_CONFIG"},
		},
	}
}

// newContainer builds a DI container from the global flags
func newContainer(c *cli.Context, logger *zerolog.Logger, providers ...any) (di.Container, error) {
	opts := []di.Option{
		di.WithLogger(*logger),
		di.WithProviders(providers...),
	}
	if endpoint := c.String("endpoint"); endpoint != "" {
		opts = append(opts, di.WithEndpoint(endpoint))
	}
	if path := c.String("config"); path != "" {
		opts = append(opts, di.WithConfigFile(path))
	}

	container, err := di.New(c.String("env"), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create DI container: %w", err)
	}
	return container, nil
}

// get resolves T and turns dig failures into errors
func get[T any](container di.Container) (T, error) {
	var want T
	err := container.Invoke(func(got T) {
		want = got
	})
	return want, err
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return f, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
