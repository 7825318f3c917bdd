package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"tradebot/internal/domain"
)

// Rewriter restyles qualifying post text while keeping the structured trade
// facts (ticker, strike, expiry, pricing). The model's compliance is not
// validated; a failed or empty completion means "skip this post".
type Rewriter struct {
	provider domain.Provider
	prompt   string
	logger   *slog.Logger
}

func NewRewriter(p domain.Provider, prompt string, logger *slog.Logger) *Rewriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Rewriter{provider: p, prompt: prompt, logger: logger}
}

// Rewrite returns the restyled text and true on success; ok is false when
// the provider call fails or returns an empty completion.
func (r *Rewriter) Rewrite(ctx context.Context, text string) (string, bool) {
	resp, err := r.provider.Complete(ctx, fmt.Sprintf(r.prompt, text))
	if err != nil {
		r.logger.Warn("rewrite failed",
			"provider", r.provider.Name(), "err", err)
		return "", false
	}

	out := strings.TrimSpace(resp)
	if out == "" {
		r.logger.Warn("rewrite returned empty text")
		return "", false
	}
	return out, true
}
