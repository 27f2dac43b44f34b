// Package dags renders Airflow DAG files from templates stored in S3.
//
// Each DAG is described by an item in a DynamoDB table. When an item is inserted
// or modified, its template is downloaded, the config placeholder is replaced with
// the item written as a Python dict literal and the result is uploaded as <prefix>/<dag name>.py.
package dags

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dataops-lab/pipeline-lambdas/internal/errors"
	"github.com/rs/zerolog"
)

const (
	DefaultPrefix          = "dags"
	DefaultDagNameKey      = "dag_name"
	DefaultTemplateFileKey = "template_file"
	DefaultPlaceholder     = "{{CONFIG_PARAMS_MAP_PLACEHOLDER}}"
)

// S3API is the subset of the S3 client used by Manager
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Config controls where templates are read and DAGs are written.
// Empty fields fall back to the Default constants.
type Config struct {
	Bucket          string
	Prefix          string
	DagNameKey      string
	TemplateFileKey string
	Placeholder     string
}

// DAG is a rendered DAG file ready for upload
type DAG struct {
	Name     string
	Template string
	Key      string
	Body     []byte
}

// Manager renders and uploads DAG files
type Manager struct {
	client S3API
	cfg    Config
}

// New returns a Manager; the bucket is required
func New(client S3API, cfg Config) (*Manager, error) {
	if client == nil {
		panic("s3 client is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.ErrDagsBucketRequired
	}
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultPrefix
	}
	if cfg.DagNameKey == "" {
		cfg.DagNameKey = DefaultDagNameKey
	}
	if cfg.TemplateFileKey == "" {
		cfg.TemplateFileKey = DefaultTemplateFileKey
	}
	if cfg.Placeholder == "" {
		cfg.Placeholder = DefaultPlaceholder
	}
	return &Manager{client: client, cfg: cfg}, nil
}

// HandleEvent processes stream records in order and stops at the first failure
func (m *Manager) HandleEvent(ctx context.Context, event events.DynamoDBEvent) error {
	for _, record := range event.Records {
		if err := m.HandleRecord(ctx, record); err != nil {
			return err
		}
	}
	return nil
}

// HandleRecord creates or updates the DAG for INSERT and MODIFY records.
// Other events, including REMOVE, leave the uploaded DAG in place.
func (m *Manager) HandleRecord(ctx context.Context, record events.DynamoDBEventRecord) error {
	logger := zerolog.Ctx(ctx)

	switch events.DynamoDBOperationType(record.EventName) {
	case events.DynamoDBOperationTypeInsert, events.DynamoDBOperationTypeModify:
	default:
		logger.Debug().
			Str("event_id", record.EventID).
			Str("event_name", record.EventName).
			Msg("Ignoring stream record")
		return nil
	}

	_, err := m.Apply(ctx, FromImage(record.Change.NewImage))
	return err
}

// Apply renders config and uploads the result. Returns nil when the config has
// no template and was skipped.
func (m *Manager) Apply(ctx context.Context, config map[string]any) (*DAG, error) {
	dag, err := m.Render(ctx, config)
	if err != nil || dag == nil {
		return nil, err
	}
	if err := m.Publish(ctx, dag); err != nil {
		return nil, err
	}
	return dag, nil
}

// Render downloads the config's template and fills in the placeholder. Returns
// nil without error when the config names no template.
func (m *Manager) Render(ctx context.Context, config map[string]any) (*DAG, error) {
	logger := zerolog.Ctx(ctx)

	name, _ := config[m.cfg.DagNameKey].(string)
	if name == "" {
		return nil, fmt.Errorf("%w: key %s", errors.ErrMissingDagName, m.cfg.DagNameKey)
	}
	logger.Info().Str("dag", name).Msg("Processing dag")

	template, _ := config[m.cfg.TemplateFileKey].(string)
	if template == "" {
		logger.Warn().
			Str("dag", name).
			Str("key", m.cfg.TemplateFileKey).
			Msg("Template key missing, skipping dag")
		return nil, nil
	}

	out, err := m.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(m.cfg.Bucket),
		Key:    aws.String(template),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get template s3://%s/%s: %w", m.cfg.Bucket, template, err)
	}
	defer out.Body.Close()

	raw, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", template, err)
	}

	body, err := Fill(raw, m.cfg.Placeholder, config)
	if err != nil {
		return nil, fmt.Errorf("failed to render dag %s: %w", name, err)
	}

	return &DAG{
		Name:     name,
		Template: template,
		Key:      path.Join(m.cfg.Prefix, name+".py"),
		Body:     body,
	}, nil
}

// Publish uploads a rendered DAG, replacing any previous version
func (m *Manager) Publish(ctx context.Context, dag *DAG) error {
	_, err := m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(m.cfg.Bucket),
		Key:           aws.String(dag.Key),
		Body:          bytes.NewReader(dag.Body),
		ContentLength: aws.Int64(int64(len(dag.Body))),
		ContentType:   aws.String("text/x-python"),
	})
	if err != nil {
		return fmt.Errorf("failed to put dag s3://%s/%s: %w", m.cfg.Bucket, dag.Key, err)
	}

	zerolog.Ctx(ctx).Info().
		Str("dag", dag.Name).
		Str("bucket", m.cfg.Bucket).
		Str("key", dag.Key).
		Msg("Dynamic dag uploaded")
	return nil
}
