package provider

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"tradebot/internal/domain"
)

// Failover tries multiple providers in order, falling back to the next one
// when the current fails. The classifier's fail-closed policy still applies
// on top of whatever the whole chain returns.
type Failover struct {
	providers []domain.Provider
	logger    *slog.Logger
}

func NewFailover(providers []domain.Provider, logger *slog.Logger) *Failover {
	if logger == nil {
		logger = slog.Default()
	}
	return &Failover{providers: providers, logger: logger}
}

func (f *Failover) Name() string {
	names := make([]string, len(f.providers))
	for i, p := range f.providers {
		names[i] = p.Name()
	}
	return "failover(" + strings.Join(names, ",") + ")"
}

func (f *Failover) Healthy(ctx context.Context) error {
	for _, p := range f.providers {
		if err := p.Healthy(ctx); err == nil {
			return nil
		}
	}
	return fmt.Errorf("no healthy provider in failover chain")
}

// Complete tries each provider in order and returns the first success.
func (f *Failover) Complete(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for i, p := range f.providers {
		text, err := p.Complete(ctx, prompt)
		if err == nil {
			if i > 0 {
				f.logger.Info("failover: used fallback provider",
					"provider", p.Name(), "attempt", i+1)
			}
			return text, nil
		}
		lastErr = err
		f.logger.Warn("failover: provider failed, trying next",
			"provider", p.Name(), "attempt", i+1, "error", err)
	}
	return "", fmt.Errorf("all providers in failover chain failed: %w", lastErr)
}
