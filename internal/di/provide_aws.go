package di

import (
	"context"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/rs/zerolog"
)

const localRegion = "us-east-1"

// ProvideContext returns a background context carrying the container's logger
func ProvideContext(logger zerolog.Logger) context.Context {
	return logger.WithContext(context.Background())
}

// ProvideAWSConfig loads the default AWS config. With an endpoint override every
// client talks to that endpoint with static test credentials (LocalStack, DynamoDB Local).
func ProvideAWSConfig(ctx context.Context, endpoint Endpoint) (aws.Config, error) {
	if endpoint == "" {
		return config.LoadDefaultConfig(ctx)
	}

	zerolog.Ctx(ctx).Info().Str("endpoint", string(endpoint)).Msg("Using AWS endpoint override")
	return config.LoadDefaultConfig(ctx,
		config.WithBaseEndpoint(string(endpoint)),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider("test", "test", ""),
		),
		config.WithRegion(regionOrDefault(os.Getenv("AWS_REGION"))),
	)
}

func regionOrDefault(region string) string {
	if region != "" {
		return region
	}
	return localRegion
}

func ProvideDynamoDB(config aws.Config) *dynamodb.Client {
	return dynamodb.NewFromConfig(config)
}

func ProvideSQSClient(config aws.Config) *sqs.Client {
	return sqs.NewFromConfig(config)
}

// ProvideS3Client uses path style addressing when the endpoint is overridden
func ProvideS3Client(config aws.Config, endpoint Endpoint) *s3.Client {
	return s3.NewFromConfig(config, func(o *s3.Options) {
		o.UsePathStyle = endpoint != ""
	})
}
