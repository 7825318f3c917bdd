package provider

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"tradebot/internal/config"
	"tradebot/internal/domain"
)

type stubProvider struct {
	name string
	resp string
	err  error
}

func (s *stubProvider) Name() string                  { return s.name }
func (s *stubProvider) Healthy(context.Context) error { return s.err }
func (s *stubProvider) Complete(context.Context, string) (string, error) {
	return s.resp, s.err
}

func TestFailover_UsesFirstSuccess(t *testing.T) {
	f := NewFailover([]domain.Provider{
		&stubProvider{name: "a", err: errors.New("down")},
		&stubProvider{name: "b", resp: "trade"},
		&stubProvider{name: "c", resp: "never reached"},
	}, slog.Default())

	out, err := f.Complete(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != "trade" {
		t.Fatalf("unexpected completion: %q", out)
	}
}

func TestFailover_AllFail(t *testing.T) {
	f := NewFailover([]domain.Provider{
		&stubProvider{name: "a", err: errors.New("down")},
		&stubProvider{name: "b", err: errors.New("also down")},
	}, slog.Default())

	if _, err := f.Complete(context.Background(), "prompt"); err == nil {
		t.Fatal("expected error when all providers fail")
	}
}

func TestFactory_GetCachesInstances(t *testing.T) {
	cfg := config.Defaults()
	f := NewFactory(cfg, slog.Default())

	p1, err := f.Get("gemini")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	p2, err := f.Get("gemini")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p1 != p2 {
		t.Fatal("factory should cache provider instances")
	}
}

func TestFactory_UnknownAndDisabled(t *testing.T) {
	cfg := config.Defaults()
	pc := cfg.Providers["openai"]
	pc.Enabled = false
	cfg.Providers["openai"] = pc

	f := NewFactory(cfg, slog.Default())
	if _, err := f.Get("nope"); err == nil {
		t.Fatal("expected error for unconfigured provider")
	}
	if _, err := f.Get("openai"); err == nil {
		t.Fatal("expected error for disabled provider")
	}
}

func TestFactory_ChainBuildsFailover(t *testing.T) {
	cfg := config.Defaults()
	pc := cfg.Providers["openai"]
	pc.Enabled = true
	cfg.Providers["openai"] = pc

	f := NewFactory(cfg, slog.Default())
	p, err := f.Chain([]string{"gemini", "openai"})
	if err != nil {
		t.Fatalf("Chain: %v", err)
	}
	if _, ok := p.(*Failover); !ok {
		t.Fatalf("expected a failover provider, got %T", p)
	}

	single, err := f.Chain([]string{"gemini"})
	if err != nil {
		t.Fatalf("Chain: %v", err)
	}
	if _, ok := single.(*Failover); ok {
		t.Fatal("single-entry chain should not be wrapped")
	}
}

func TestFactory_DefaultProviderHonorsFailoverChain(t *testing.T) {
	cfg := config.Defaults()
	cfg.General.FailoverChain = []string{"gemini", "ollama"}

	f := NewFactory(cfg, slog.Default())
	p, err := f.DefaultProvider()
	if err != nil {
		t.Fatalf("DefaultProvider: %v", err)
	}
	if _, ok := p.(*Failover); !ok {
		t.Fatalf("expected failover provider, got %T", p)
	}
}
