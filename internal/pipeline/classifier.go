package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"tradebot/internal/domain"
)

// Classifier labels post text as trade or not-trade via the text-generation
// provider. Any provider failure or ambiguous answer resolves to not-trade:
// uncertainty never lets a post through.
type Classifier struct {
	provider domain.Provider
	prompt   string
	logger   *slog.Logger
}

func NewClassifier(p domain.Provider, prompt string, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{provider: p, prompt: prompt, logger: logger}
}

func (c *Classifier) Classify(ctx context.Context, text string) domain.Label {
	resp, err := c.provider.Complete(ctx, fmt.Sprintf(c.prompt, text))
	if err != nil {
		c.logger.Warn("classification failed, treating as not-trade",
			"provider", c.provider.Name(), "err", err)
		return domain.LabelNotTrade
	}

	ans := strings.ToLower(strings.TrimSpace(resp))
	if strings.HasPrefix(ans, "trade") {
		return domain.LabelTrade
	}
	return domain.LabelNotTrade
}
