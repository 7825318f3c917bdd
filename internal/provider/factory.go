package provider

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"tradebot/internal/config"
	"tradebot/internal/domain"
)

// Constructor creates a provider from a config entry.
type Constructor func(pc config.ProviderConfig, logger *slog.Logger) domain.Provider

// Factory creates and caches text-generation providers from config.
type Factory struct {
	cfg          *config.Config
	logger       *slog.Logger
	constructors map[string]Constructor
	cache        map[string]domain.Provider
	mu           sync.RWMutex
}

// NewFactory creates a provider factory with the built-in constructors
// registered.
func NewFactory(cfg *config.Config, logger *slog.Logger) *Factory {
	f := &Factory{
		cfg:          cfg,
		logger:       logger,
		constructors: make(map[string]Constructor),
		cache:        make(map[string]domain.Provider),
	}
	f.registerDefaults()
	return f
}

// RegisterConstructor adds (or replaces) a provider constructor by name.
func (f *Factory) RegisterConstructor(name string, ctor Constructor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.constructors[name] = ctor
}

func (f *Factory) registerDefaults() {
	f.constructors["gemini"] = func(pc config.ProviderConfig, logger *slog.Logger) domain.Provider {
		return NewGemini(GeminiConfig{
			APIKey:  pc.APIKey,
			APIBase: pc.APIBase,
			Model:   pc.DefaultModel,
			Timeout: time.Duration(pc.TimeoutSeconds) * time.Second,
			Logger:  logger,
		})
	}
	f.constructors["openai"] = func(pc config.ProviderConfig, logger *slog.Logger) domain.Provider {
		return NewOpenAI(OpenAIConfig{
			APIKey:  pc.APIKey,
			APIBase: pc.APIBase,
			Model:   pc.DefaultModel,
			Timeout: time.Duration(pc.TimeoutSeconds) * time.Second,
			Logger:  logger,
		})
	}
	f.constructors["ollama"] = func(pc config.ProviderConfig, logger *slog.Logger) domain.Provider {
		return NewOllama(OllamaConfig{
			APIBase: pc.APIBase,
			Model:   pc.DefaultModel,
			Timeout: time.Duration(pc.TimeoutSeconds) * time.Second,
			Logger:  logger,
		})
	}
}

// Get returns the provider with the given name, or the default if name is
// empty. Created providers are cached so the same instance is reused.
func (f *Factory) Get(name string) (domain.Provider, error) {
	if name == "" {
		name = f.cfg.General.DefaultProvider
	}

	f.mu.RLock()
	if p, ok := f.cache[name]; ok {
		f.mu.RUnlock()
		return p, nil
	}
	f.mu.RUnlock()

	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.cache[name]; ok {
		return p, nil
	}

	pc, ok := f.cfg.Providers[name]
	if !ok {
		return nil, fmt.Errorf("provider not configured: %s", name)
	}
	if !pc.Enabled {
		return nil, fmt.Errorf("provider disabled: %s", name)
	}
	ctor, ok := f.constructors[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", name)
	}

	p := ctor(pc, f.logger)
	f.cache[name] = p
	return p, nil
}

// DefaultProvider returns the configured default, wrapped in a failover
// chain when general.failoverChain lists more than the default alone.
func (f *Factory) DefaultProvider() (domain.Provider, error) {
	if len(f.cfg.General.FailoverChain) > 1 {
		return f.Chain(f.cfg.General.FailoverChain)
	}
	return f.Get("")
}

// Chain builds a failover provider from the named providers, in order.
func (f *Factory) Chain(names []string) (domain.Provider, error) {
	providers := make([]domain.Provider, 0, len(names))
	for _, name := range names {
		p, err := f.Get(name)
		if err != nil {
			return nil, fmt.Errorf("failover chain: %w", err)
		}
		providers = append(providers, p)
	}
	if len(providers) == 0 {
		return nil, fmt.Errorf("failover chain is empty")
	}
	if len(providers) == 1 {
		return providers[0], nil
	}
	return NewFailover(providers, f.logger), nil
}

// HealthyProvider returns the first configured provider that passes its
// health check, or nil when none do.
func (f *Factory) HealthyProvider(ctx context.Context) domain.Provider {
	p, err := f.DefaultProvider()
	if err != nil {
		return nil
	}
	if err := p.Healthy(ctx); err != nil {
		f.logger.Warn("provider unhealthy", "provider", p.Name(), "err", err)
		return nil
	}
	return p
}
