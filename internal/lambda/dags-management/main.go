package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/dataops-lab/pipeline-lambdas/internal/dags"
	"github.com/dataops-lab/pipeline-lambdas/internal/di"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

func main() {
	logger := di.ProvideLogger().With().Str("lambda", "dags-management").Logger()

	env := os.Getenv("ENV")
	if env == "" {
		env = "dev"
	}

	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" {
		manager := newManager(logger, env)
		wrappedHandler := func(ctx context.Context, event events.DynamoDBEvent) error {
			ctx = logger.WithContext(ctx)
			return manager.HandleEvent(ctx, event)
		}
		lambda.Start(wrappedHandler)
		return
	}

	app := &cli.App{
		Name:  "dags-management",
		Usage: "Replay a DynamoDB stream event against the DAG manager",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "event",
				Usage:    "path to a DynamoDB stream event JSON file",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "endpoint",
				Usage:   "AWS endpoint override, e.g. http://localhost:4566",
				EnvVars: []string{"AWS_ENDPOINT_URL"},
			},
		},
		Action: func(c *cli.Context) error {
			manager := newManager(logger, env, di.WithEndpoint(c.String("endpoint")))
			ctx := logger.WithContext(c.Context)
			return replay(ctx, manager, c.String("event"))
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Error().Err(err).Msg("Application error")
		os.Exit(1)
	}
}

// EventHandler handles a DynamoDB stream event
type EventHandler interface {
	HandleEvent(ctx context.Context, event events.DynamoDBEvent) error
}

// replay reads a stream event from path and passes it to handler
func replay(ctx context.Context, handler EventHandler, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read event: %w", err)
	}

	var event events.DynamoDBEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return fmt.Errorf("failed to parse event: %w", err)
	}

	zerolog.Ctx(ctx).Info().
		Str("path", path).
		Int("records", len(event.Records)).
		Msg("Replaying stream event")
	return handler.HandleEvent(ctx, event)
}

func newManager(logger zerolog.Logger, env string, opts ...di.Option) *dags.Manager {
	opts = append(opts,
		di.WithLogger(logger),
		di.WithProviders(di.ProvideDagManager),
	)

	container, err := di.New(env, opts...)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create DI container")
		os.Exit(1)
	}

	return di.MustGet[*dags.Manager](container)
}
