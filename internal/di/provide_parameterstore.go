package di

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/dataops-lab/pipeline-lambdas/internal/services"
	"github.com/rs/zerolog"
)

// ProvideSSMClient provides an SSM client for Parameter Store access
// Returns nil if SSM is disabled (for local development)
func ProvideSSMClient(awsConfig aws.Config) *ssm.Client {
	if os.Getenv("DISABLE_SSM") == "true" {
		return nil
	}

	return ssm.NewFromConfig(awsConfig)
}

// ProvideParameterStore provides a ParameterStore implementation.
// A config file wins, then SSM, then environment variables when SSM is disabled.
func ProvideParameterStore(ctx context.Context, ssmClient *ssm.Client, env string, path ConfigPath) services.ParameterStore {
	logger := zerolog.Ctx(ctx)

	if path != "" {
		logger.Info().Str("path", string(path)).Msg("Using config file for configuration")
		return services.NewFileParameterStore(string(path))
	}

	if ssmClient == nil {
		logger.Info().Msg("Using environment variables for configuration (SSM disabled)")
		return services.NewEnvParameterStore(env)
	}

	logger.Info().Msg("Using AWS Systems Manager Parameter Store for configuration")
	return services.NewSSMParameterStore(ssmClient, env)
}

// ProvideAppConfig loads and validates application configuration
func ProvideAppConfig(ctx context.Context, store services.ParameterStore) (*services.Config, error) {
	logger := zerolog.Ctx(ctx)

	config, err := store.GetConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Info().
		Str("queue", config.QueueName).
		Str("bucket", config.BucketName).
		Int32("max_batch_size", config.MaxBatchSize).
		Int32("max_wait_time", config.MaxWaitTime).
		Int("polling_limit", config.PollingLimit).
		Bool("has_ledger", config.LedgerTable != "").
		Msg("Configuration loaded successfully")

	return config, nil
}
