package services

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/dataops-lab/pipeline-lambdas/internal/errors"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDagsPath          = "dags"
	DefaultDagNameKey        = "dag_name"
	DefaultTemplateFileKey   = "template_file"
	DefaultConfigPlaceholder = "{{CONFIG_PARAMS_MAP_PLACEHOLDER}}"
)

// Config holds all application configuration values from Parameter Store
type Config struct {
	// webhook pipeline
	QueueName    string `yaml:"queue_name"`
	BucketName   string `yaml:"bucket_name"`
	MaxBatchSize int32  `yaml:"max_batch_size"`
	MaxWaitTime  int32  `yaml:"max_wait_time"`
	PollingLimit int    `yaml:"polling_limit"`
	PathFormat   string `yaml:"path_format"`
	LedgerTable  string `yaml:"ledger_table"`

	// dag management
	DagsBucket        string `yaml:"dags_bucket"`
	DagsPath          string `yaml:"dags_path"`
	DagNameKey        string `yaml:"dag_name_key"`
	TemplateFileKey   string `yaml:"template_file_key"`
	ConfigPlaceholder string `yaml:"config_placeholder"`
}

// Validate checks numeric settings against SQS limits. Component specific
// requirements (queue name, buckets) are checked where the component is built.
func (c *Config) Validate() error {
	if c.MaxBatchSize < 0 || c.MaxBatchSize > 10 {
		return fmt.Errorf("%w: got %d", errors.ErrInvalidBatchSize, c.MaxBatchSize)
	}
	if c.MaxWaitTime < 0 || c.MaxWaitTime > 20 {
		return fmt.Errorf("%w: got %d", errors.ErrInvalidWaitTime, c.MaxWaitTime)
	}
	if c.PollingLimit < 0 {
		return fmt.Errorf("%w: got %d", errors.ErrInvalidPollingLimit, c.PollingLimit)
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.DagsPath == "" {
		c.DagsPath = DefaultDagsPath
	}
	if c.DagNameKey == "" {
		c.DagNameKey = DefaultDagNameKey
	}
	if c.TemplateFileKey == "" {
		c.TemplateFileKey = DefaultTemplateFileKey
	}
	if c.ConfigPlaceholder == "" {
		c.ConfigPlaceholder = DefaultConfigPlaceholder
	}
}

// ParameterStore defines the interface for accessing configuration parameters
type ParameterStore interface {
	// GetParameter retrieves a single parameter by name
	GetParameter(ctx context.Context, name string) (string, error)

	// GetConfig loads all application configuration
	GetConfig(ctx context.Context) (*Config, error)
}

// SSMAPI is the subset of the SSM client used by SSMParameterStore
type SSMAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
	ssm.GetParametersByPathAPIClient
}

// SSMParameterStore implements ParameterStore using AWS Systems Manager Parameter Store.
// Parameters live under /{env}/pipeline-lambdas/, e.g. /prod/pipeline-lambdas/queue-name.
type SSMParameterStore struct {
	client SSMAPI
	env    string
	mu     sync.RWMutex
	cache  map[string]string
}

// NewSSMParameterStore creates a new SSM-backed parameter store
func NewSSMParameterStore(client SSMAPI, env string) *SSMParameterStore {
	return &SSMParameterStore{
		client: client,
		env:    env,
		cache:  make(map[string]string),
	}
}

func (s *SSMParameterStore) prefix() string {
	return fmt.Sprintf("/%s/pipeline-lambdas", s.env)
}

// GetParameter retrieves a single parameter from SSM Parameter Store
func (s *SSMParameterStore) GetParameter(ctx context.Context, name string) (string, error) {
	s.mu.RLock()
	if value, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return value, nil
	}
	s.mu.RUnlock()

	result, err := s.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("failed to get parameter %s: %w", name, err)
	}
	if result.Parameter == nil || result.Parameter.Value == nil {
		return "", fmt.Errorf("parameter %s not found", name)
	}

	value := *result.Parameter.Value

	s.mu.Lock()
	s.cache[name] = value
	s.mu.Unlock()

	return value, nil
}

// GetConfig loads all application configuration from Parameter Store
func (s *SSMParameterStore) GetConfig(ctx context.Context) (*Config, error) {
	path := s.prefix()

	params := make(map[string]string)
	paginator := ssm.NewGetParametersByPathPaginator(s.client, &ssm.GetParametersByPathInput{
		Path:           aws.String(path),
		Recursive:      aws.Bool(true),
		WithDecryption: aws.Bool(true),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get parameters by path %s: %w", path, err)
		}
		for _, param := range page.Parameters {
			if param.Name != nil && param.Value != nil {
				params[*param.Name] = *param.Value
			}
		}
	}

	s.mu.Lock()
	for k, v := range params {
		s.cache[k] = v
	}
	s.mu.Unlock()

	return buildConfig(func(setting string) string {
		return params[path+"/"+setting]
	})
}

// EnvParameterStore implements ParameterStore using environment variables.
// Used for local development and when DISABLE_SSM=true.
type EnvParameterStore struct {
	env string
}

// NewEnvParameterStore creates a new environment variable-backed parameter store
func NewEnvParameterStore(env string) *EnvParameterStore {
	return &EnvParameterStore{
		env: env,
	}
}

// GetParameter retrieves a parameter from environment variables
func (e *EnvParameterStore) GetParameter(ctx context.Context, name string) (string, error) {
	return os.Getenv(name), nil
}

// GetConfig loads all application configuration from environment variables
func (e *EnvParameterStore) GetConfig(ctx context.Context) (*Config, error) {
	return buildConfig(func(setting string) string {
		return os.Getenv(envNames[setting])
	})
}

// envNames maps each setting to its environment variable
var envNames = map[string]string{
	"queue-name":         "WEBHOOKS_QUEUE_NAME",
	"bucket-name":        "S3_BUCKET_NAME",
	"max-batch-size":     "QUEUE_MAX_BATCH_SIZE",
	"max-wait-time":      "QUEUE_MAX_WAIT_TIME",
	"polling-limit":      "MESSAGES_POLLING_LIMIT",
	"path-format":        "S3_FILE_PATH_FORMAT",
	"ledger-table":       "WEBHOOK_LEDGER_TABLE",
	"dags-bucket":        "DAGS_S3_BUCKET",
	"dags-path":          "DAGS_S3_PATH",
	"dag-name-key":       "DAG_NAME_KEY",
	"template-file-key":  "TEMPLATE_FILE_KEY",
	"config-placeholder": "DAG_CONFIG_PLACEHOLDER",
}

// FileParameterStore implements ParameterStore using a YAML file. Used by pipeline-ops.
//
//	queue_name: webhooks
//	bucket_name: raw-webhooks
//	max_batch_size: 10
type FileParameterStore struct {
	path string
}

// NewFileParameterStore creates a parameter store reading path
func NewFileParameterStore(path string) *FileParameterStore {
	return &FileParameterStore{path: path}
}

// GetParameter returns the top level scalar called name
func (f *FileParameterStore) GetParameter(ctx context.Context, name string) (string, error) {
	values := map[string]any{}
	if err := f.decode(&values); err != nil {
		return "", err
	}
	v, ok := values[name]
	if !ok {
		return "", fmt.Errorf("parameter %s not found in %s", name, f.path)
	}
	return fmt.Sprint(v), nil
}

// GetConfig decodes the file into Config
func (f *FileParameterStore) GetConfig(ctx context.Context) (*Config, error) {
	var config Config
	if err := f.decode(&config); err != nil {
		return nil, err
	}
	config.setDefaults()
	return &config, nil
}

func (f *FileParameterStore) decode(v any) error {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", f.path, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", f.path, err)
	}
	return nil
}

// buildConfig reads every setting through lookup, keyed by the SSM parameter name
func buildConfig(lookup func(setting string) string) (*Config, error) {
	get := func(setting string) string {
		return strings.TrimSpace(lookup(setting))
	}

	maxBatchSize, err := parseInt("max-batch-size", get("max-batch-size"), 32)
	if err != nil {
		return nil, err
	}
	maxWaitTime, err := parseInt("max-wait-time", get("max-wait-time"), 32)
	if err != nil {
		return nil, err
	}
	pollingLimit, err := parseInt("polling-limit", get("polling-limit"), 0)
	if err != nil {
		return nil, err
	}

	config := &Config{
		QueueName:         get("queue-name"),
		BucketName:        get("bucket-name"),
		MaxBatchSize:      int32(maxBatchSize),
		MaxWaitTime:       int32(maxWaitTime),
		PollingLimit:      int(pollingLimit),
		PathFormat:        get("path-format"),
		LedgerTable:       get("ledger-table"),
		DagsBucket:        get("dags-bucket"),
		DagsPath:          get("dags-path"),
		DagNameKey:        get("dag-name-key"),
		TemplateFileKey:   get("template-file-key"),
		ConfigPlaceholder: get("config-placeholder"),
	}
	config.setDefaults()

	return config, nil
}

func parseInt(name, value string, bitSize int) (int64, error) {
	if value == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(value, 10, bitSize)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, value, err)
	}
	return n, nil
}
