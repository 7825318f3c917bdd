package domain

import "context"

// Provider is the interface all text-generation backends must implement.
// Complete sends a single prompt and returns the raw completion text.
type Provider interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Name() string
	Healthy(ctx context.Context) error
}
