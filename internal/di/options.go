package di

import "github.com/rs/zerolog"

// Endpoint overrides the AWS endpoint for every client, e.g. http://localhost:4566
type Endpoint string

// ConfigPath points at a YAML config file that replaces SSM and the environment
type ConfigPath string

// Option is a function that configures the dependency injection container.
type Option func(*options)

// WithEndpoint sends every AWS call to url using static test credentials
func WithEndpoint(url string) Option {
	return func(opts *options) {
		opts.endpoint = Endpoint(url)
	}
}

// WithConfigFile loads configuration from a YAML file
func WithConfigFile(path string) Option {
	return func(opts *options) {
		opts.configPath = ConfigPath(path)
	}
}

// WithLogger replaces the logger built by ProvideLogger
func WithLogger(logger zerolog.Logger) Option {
	return func(opts *options) {
		opts.logger = &logger
	}
}

// WithProviders adds constructor functions to the dependency injection container.
// Each provider should be a constructor function that returns one or more values.
// Providers can declare dependencies as function parameters, which will be
// automatically resolved by the container.
//
// Example:
//
//	WithProviders(
//	    ProvideLedgerDAO,
//	    ProvidePipeline,
//	)
func WithProviders(providers ...any) Option {
	return func(opts *options) {
		opts.providers = append(opts.providers, providers...)
	}
}

type options struct {
	endpoint   Endpoint
	configPath ConfigPath
	logger     *zerolog.Logger
	providers  []any
}
