// Package di provides a lightweight wrapper around uber's dig dependency injection framework.
// It simplifies container setup and provides type-safe dependency retrieval with generics.
package di

import (
	"github.com/rs/zerolog"
	"go.uber.org/dig"
)

// Container defines a dependency injection container based on uber's dig.
type Container interface {
	// Invoke executes a function, injecting its dependencies from the container.
	Invoke(function any, opts ...dig.InvokeOption) error

	// Provide registers a constructor function in the container.
	Provide(constructor any, opts ...dig.ProvideOption) error

	// Scope creates a scoped sub-container with its own set of values.
	Scope(name string, opts ...dig.ScopeOption) *dig.Scope
}

// MustGet returns an instance constructed via dependency injection or panics.
//
// Example:
//
//	p := MustGet[*pipeline.Pipeline](container)
func MustGet[T any](container Container) (want T) {
	callback := func(got T) {
		want = got
	}
	if err := container.Invoke(callback); err != nil {
		panic(err)
	}
	return want
}

// New creates a new dependency injection container for the given environment.
// The environment string is registered as a plain string dependency; the logger,
// endpoint override and config file path are registered from options.
//
// Example:
//
//	container, err := New("prod",
//	    WithProviders(
//	        ProvideQueueReader,
//	        ProvideObjectWriter,
//	        ProvidePipeline,
//	    ),
//	)
func New(env string, opts ...Option) (Container, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger := ProvideLogger()
	if o.logger != nil {
		logger = *o.logger
	}

	container := dig.New()
	values := []any{
		func() string { return env },
		func() zerolog.Logger { return logger },
		func() Endpoint { return o.endpoint },
		func() ConfigPath { return o.configPath },
	}
	for _, value := range values {
		if err := container.Provide(value); err != nil {
			return nil, err
		}
	}

	for _, provider := range core {
		if err := container.Provide(provider); err != nil {
			return nil, err
		}
	}

	for _, provider := range o.providers {
		if err := container.Provide(provider); err != nil {
			return nil, err
		}
	}

	return container, nil
}

var core = []any{
	ProvideAWSConfig,
	ProvideContext,
	ProvideSSMClient,
	ProvideParameterStore,
	ProvideAppConfig,
	ProvideDynamoDB,
	ProvideSQSClient,
	ProvideS3Client,
}
