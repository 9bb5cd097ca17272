package llm

import (
	"context"
	"errors"
)

// ErrEmptyResponse means the backend answered with no result rows.
var ErrEmptyResponse = errors.New("llm returned no response")

// Option allows for optional parameters like the model override.
type Option func(*Options)

type Options struct {
	Model string // Override default model
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// Apply folds opts over the defaults.
func Apply(defaults Options, opts ...Option) Options {
	for _, opt := range opts {
		opt(&defaults)
	}
	return defaults
}

// LLMProvider defines the contract for any completion backend
type LLMProvider interface {
	// Generate sends a single prompt to the model
	Generate(ctx context.Context, prompt string, options ...Option) (string, error)
}
