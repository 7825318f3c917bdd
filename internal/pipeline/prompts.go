package pipeline

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Prompts holds the two instruction templates sent to the text-generation
// provider. Each template must contain exactly one %s placeholder for the
// post text.
type Prompts struct {
	Classify string `yaml:"classify"`
	Rewrite  string `yaml:"rewrite"`
}

const defaultClassifyPrompt = `You are a classifier. Determine if this tweet describes an options
trade execution. Respond with exactly:

trade
or
not trade

Tweet:
%s`

const defaultRewritePrompt = `Rewrite this options execution tweet in a clear, consistent format.

Rules:
- Preserve ticker, strike, expiry, and pricing details.
- Remove slang and emojis.
- Make the execution clear.

Original:
%s`

func DefaultPrompts() Prompts {
	return Prompts{
		Classify: defaultClassifyPrompt,
		Rewrite:  defaultRewritePrompt,
	}
}

// LoadPrompts reads template overrides from a YAML file. An empty path or a
// missing file yields the defaults; a file that exists but cannot be parsed
// is an error. Omitted fields fall back per-template.
func LoadPrompts(path string, logger *slog.Logger) (Prompts, error) {
	if logger == nil {
		logger = slog.Default()
	}
	prompts := DefaultPrompts()
	if path == "" {
		return prompts, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		logger.Debug("prompts file does not exist, using defaults", "path", path)
		return prompts, nil
	}
	if err != nil {
		return Prompts{}, fmt.Errorf("read prompts file %s: %w", path, err)
	}

	var overrides Prompts
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return Prompts{}, fmt.Errorf("parse prompts file %s: %w", path, err)
	}

	if overrides.Classify != "" {
		prompts.Classify = overrides.Classify
	}
	if overrides.Rewrite != "" {
		prompts.Rewrite = overrides.Rewrite
	}

	if err := validateTemplate("classify", prompts.Classify); err != nil {
		return Prompts{}, err
	}
	if err := validateTemplate("rewrite", prompts.Rewrite); err != nil {
		return Prompts{}, err
	}

	logger.Info("loaded prompt overrides", "path", path)
	return prompts, nil
}

func validateTemplate(name, tmpl string) error {
	if strings.Count(tmpl, "%s") != 1 {
		return fmt.Errorf("%s prompt must contain exactly one %%s placeholder", name)
	}
	return nil
}
