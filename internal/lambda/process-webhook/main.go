package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/dataops-lab/pipeline-lambdas/internal/di"
	"github.com/dataops-lab/pipeline-lambdas/internal/pipeline"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

// Runner drains the queue once
type Runner interface {
	Run(ctx context.Context) (pipeline.Result, error)
}

type Handler struct {
	runner Runner
}

func NewHandler(runner Runner) *Handler {
	return &Handler{runner: runner}
}

// HandleInvocation ignores the trigger payload; schedules and manual invokes behave alike
func (h *Handler) HandleInvocation(ctx context.Context, _ json.RawMessage) error {
	logger := zerolog.Ctx(ctx)

	result, err := h.runner.Run(ctx)
	if err != nil {
		logger.Error().
			Err(err).
			Str("invocation_id", result.InvocationID).
			Int("received", result.Received).
			Int("written", len(result.Written)).
			Msg("Webhook processing failed, messages left for redelivery")
		return err
	}
	return nil
}

func main() {
	logger := di.ProvideLogger().With().Str("lambda", "process-webhook").Logger()

	env := os.Getenv("ENV")
	if env == "" {
		env = "dev"
	}

	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" {
		handler := newHandler(logger, env)
		wrappedHandler := func(ctx context.Context, event json.RawMessage) error {
			ctx = logger.WithContext(ctx)
			return handler.HandleInvocation(ctx, event)
		}
		lambda.Start(wrappedHandler)
		return
	}

	app := &cli.App{
		Name:  "process-webhook",
		Usage: "Drain the webhooks queue into S3 once",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "endpoint",
				Usage:   "AWS endpoint override, e.g. http://localhost:4566",
				EnvVars: []string{"AWS_ENDPOINT_URL"},
			},
		},
		Action: func(c *cli.Context) error {
			handler := newHandler(logger, env, di.WithEndpoint(c.String("endpoint")))
			ctx := logger.WithContext(c.Context)
			return handler.HandleInvocation(ctx, nil)
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Error().Err(err).Msg("Application error")
		os.Exit(1)
	}
}

func newHandler(logger zerolog.Logger, env string, opts ...di.Option) *Handler {
	opts = append(opts,
		di.WithLogger(logger),
		di.WithProviders(
			di.ProvideQueueReader,
			di.ProvideObjectWriter,
			di.ProvideLedgerDAO,
			di.ProvidePipeline,
		),
	)

	container, err := di.New(env, opts...)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create DI container")
		os.Exit(1)
	}

	return NewHandler(di.MustGet[*pipeline.Pipeline](container))
}
