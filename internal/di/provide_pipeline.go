package di

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/dataops-lab/pipeline-lambdas/internal/dags"
	"github.com/dataops-lab/pipeline-lambdas/internal/dao/ledgerdao"
	"github.com/dataops-lab/pipeline-lambdas/internal/errors"
	"github.com/dataops-lab/pipeline-lambdas/internal/objectstore"
	"github.com/dataops-lab/pipeline-lambdas/internal/pipeline"
	"github.com/dataops-lab/pipeline-lambdas/internal/queue"
	"github.com/dataops-lab/pipeline-lambdas/internal/services"
)

// ProvideQueueReader resolves the webhooks queue by name
func ProvideQueueReader(ctx context.Context, client *sqs.Client, config *services.Config) (*queue.Reader, error) {
	if config.QueueName == "" {
		return nil, errors.ErrQueueNameRequired
	}

	cfg := queue.Config{
		MaxBatchSize: config.MaxBatchSize,
		MaxWaitTime:  config.MaxWaitTime,
		PollingLimit: config.PollingLimit,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	url, err := queue.ResolveQueueURL(ctx, client, config.QueueName)
	if err != nil {
		return nil, err
	}
	return queue.New(client, url, cfg), nil
}

func ProvideObjectWriter(client *s3.Client, config *services.Config) (*objectstore.Writer, error) {
	if config.BucketName == "" {
		return nil, errors.ErrBucketNameRequired
	}
	return objectstore.New(client, config.BucketName,
		objectstore.WithPathFormat(config.PathFormat),
	), nil
}

// ProvidePipeline wires the reader and writer; the ledger is attached when configured
func ProvidePipeline(reader *queue.Reader, writer *objectstore.Writer, ledger *ledgerdao.DAO) *pipeline.Pipeline {
	opts := []pipeline.Option{
		pipeline.WithQueueURL(reader.QueueURL()),
	}
	if ledger != nil {
		opts = append(opts, pipeline.WithLedger(ledger))
	}
	return pipeline.New(reader, writer, opts...)
}

func ProvideDagManager(client *s3.Client, config *services.Config) (*dags.Manager, error) {
	return dags.New(client, dags.Config{
		Bucket:          config.DagsBucket,
		Prefix:          config.DagsPath,
		DagNameKey:      config.DagNameKey,
		TemplateFileKey: config.TemplateFileKey,
		Placeholder:     config.ConfigPlaceholder,
	})
}
