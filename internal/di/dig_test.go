package di

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	errs "github.com/dataops-lab/pipeline-lambdas/internal/errors"
	"github.com/dataops-lab/pipeline-lambdas/internal/services"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/dig"
)

type Database struct {
	Name string
}

type Repository struct {
	DB *Database
}

func testContext() context.Context {
	logger := zerolog.New(io.Discard)
	return logger.WithContext(context.Background())
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		opts    []Option
		wantErr bool
	}{
		{
			name: "no providers",
		},
		{
			name: "extra providers",
			opts: []Option{WithProviders(ProvideLedgerDAO, ProvidePipeline)},
		},
		{
			name: "duplicate type",
			opts: []Option{WithProviders(
				func() *Database { return &Database{Name: "db1"} },
				func() *Database { return &Database{Name: "db2"} },
			)},
			wantErr: true,
		},
		{
			name:    "duplicate core provider",
			opts:    []Option{WithProviders(ProvideS3Client)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			container, err := New("dev", tt.opts...)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, container)
		})
	}
}

func TestNew_ProvidesValues(t *testing.T) {
	logger := zerolog.New(io.Discard).With().Str("lambda", "test").Logger()
	container, err := New("test-env",
		WithLogger(logger),
		WithEndpoint("http://localhost:4566"),
		WithConfigFile("config.yaml"),
	)
	require.NoError(t, err)

	err = container.Invoke(func(env string, endpoint Endpoint, path ConfigPath, ctx context.Context) {
		assert.Equal(t, "test-env", env)
		assert.Equal(t, Endpoint("http://localhost:4566"), endpoint)
		assert.Equal(t, ConfigPath("config.yaml"), path)
		assert.NotNil(t, zerolog.Ctx(ctx))
	})
	require.NoError(t, err)
}

func TestMustGet(t *testing.T) {
	container, err := New("dev", WithProviders(
		func() *Database { return &Database{Name: "dev-db"} },
		func(db *Database) *Repository { return &Repository{DB: db} },
	))
	require.NoError(t, err)

	repo := MustGet[*Repository](container)
	assert.Equal(t, "dev-db", repo.DB.Name)

	empty, err := New("dev")
	require.NoError(t, err)
	assert.Panics(t, func() { MustGet[*Database](empty) })
}

func TestContainer_Interface(t *testing.T) {
	var _ Container = (*dig.Container)(nil)
}

func TestProvideParameterStore(t *testing.T) {
	ctx := testContext()

	store := ProvideParameterStore(ctx, nil, "dev", "")
	assert.IsType(t, &services.EnvParameterStore{}, store)

	store = ProvideParameterStore(ctx, nil, "dev", "config.yaml")
	assert.IsType(t, &services.FileParameterStore{}, store)

	store = ProvideParameterStore(ctx, ssm.New(ssm.Options{Region: "us-east-1"}), "dev", "")
	assert.IsType(t, &services.SSMParameterStore{}, store)
}

func TestProvideSSMClient_Disabled(t *testing.T) {
	t.Setenv("DISABLE_SSM", "true")
	assert.Nil(t, ProvideSSMClient(aws.Config{Region: "us-east-1"}))
}

func TestProvideAppConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	t.Run("valid", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte("queue_name: q\nbucket_name: b\nmax_batch_size: 10\n"), 0o600))
		config, err := ProvideAppConfig(testContext(), services.NewFileParameterStore(path))
		require.NoError(t, err)
		assert.Equal(t, "q", config.QueueName)
	})

	t.Run("invalid", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte("max_wait_time: 30\n"), 0o600))
		_, err := ProvideAppConfig(testContext(), services.NewFileParameterStore(path))
		assert.True(t, errors.Is(err, errs.ErrInvalidWaitTime))
	})
}

func TestProvideLedgerDAO(t *testing.T) {
	client := dynamodb.New(dynamodb.Options{Region: "us-east-1"})

	assert.Nil(t, ProvideLedgerDAO(&services.Config{}, client))
	assert.NotNil(t, ProvideLedgerDAO(&services.Config{LedgerTable: "dev-pipeline-webhook-ledger"}, client))
}

func TestProvideQueueReader_Validation(t *testing.T) {
	client := sqs.New(sqs.Options{Region: "us-east-1"})

	_, err := ProvideQueueReader(testContext(), client, &services.Config{})
	assert.True(t, errors.Is(err, errs.ErrQueueNameRequired))

	_, err = ProvideQueueReader(testContext(), client, &services.Config{QueueName: "q", MaxBatchSize: 11})
	assert.True(t, errors.Is(err, errs.ErrInvalidBatchSize))
}

func TestProvideObjectWriter(t *testing.T) {
	client := s3.New(s3.Options{Region: "us-east-1"})

	_, err := ProvideObjectWriter(client, &services.Config{})
	assert.True(t, errors.Is(err, errs.ErrBucketNameRequired))

	w, err := ProvideObjectWriter(client, &services.Config{BucketName: "b"})
	require.NoError(t, err)
	assert.Equal(t, "b", w.Bucket())
}

func TestProvideDagManager(t *testing.T) {
	client := s3.New(s3.Options{Region: "us-east-1"})

	_, err := ProvideDagManager(client, &services.Config{})
	assert.True(t, errors.Is(err, errs.ErrDagsBucketRequired))

	m, err := ProvideDagManager(client, &services.Config{DagsBucket: "airflow"})
	require.NoError(t, err)
	assert.NotNil(t, m)
}
