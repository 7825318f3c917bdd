package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Config is the root configuration for tradebot.
type Config struct {
	General   GeneralConfig             `json:"general"`
	Twitter   TwitterConfig             `json:"twitter"`
	Providers map[string]ProviderConfig `json:"providers"`
	Market    MarketConfig              `json:"market"`
	State     StateConfig               `json:"state"`
	Prompts   PromptsConfig             `json:"prompts"`
	Daemon    DaemonConfig              `json:"daemon"`
	Metrics   MetricsConfig             `json:"metrics"`
	Notify    NotifyConfig              `json:"notify"`
}

type GeneralConfig struct {
	LogLevel        string   `json:"logLevel"`
	DefaultProvider string   `json:"defaultProvider"`
	FailoverChain   []string `json:"failoverChain,omitempty"` // provider failover order
}

// TwitterConfig holds credentials and target for the timeline-read and
// publish endpoints.
type TwitterConfig struct {
	APIBase        string `json:"apiBase,omitempty"`
	BearerToken    string `json:"bearerToken"`
	TargetUserID   string `json:"targetUserId"`
	TimeoutSeconds int    `json:"timeoutSeconds,omitempty"`
}

type ProviderConfig struct {
	Enabled        bool   `json:"enabled"`
	APIBase        string `json:"apiBase,omitempty"`
	APIKey         string `json:"apiKey,omitempty"`
	DefaultModel   string `json:"defaultModel,omitempty"`
	TimeoutSeconds int    `json:"timeoutSeconds,omitempty"`
}

// MarketConfig describes the trading-hours window the pipeline honors.
type MarketConfig struct {
	Timezone string `json:"timezone"`
	Open     string `json:"open"`  // "HH:MM", inclusive
	Close    string `json:"close"` // "HH:MM", inclusive
}

// StateConfig selects where the processed-post set is persisted.
type StateConfig struct {
	Backend string `json:"backend"` // "file" | "sqlite"
	Path    string `json:"path,omitempty"`
	DBPath  string `json:"dbPath,omitempty"`
}

// PromptsConfig points at an optional YAML file overriding the built-in
// classify/rewrite prompt templates.
type PromptsConfig struct {
	Path string `json:"path,omitempty"`
}

type DaemonConfig struct {
	IntervalSeconds int `json:"intervalSeconds"`
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Listen  string `json:"listen,omitempty"`
}

type NotifyConfig struct {
	Telegram TelegramNotifyConfig `json:"telegram"`
}

type TelegramNotifyConfig struct {
	Enabled bool   `json:"enabled"`
	Token   string `json:"token,omitempty"`
	ChatID  string `json:"chatId,omitempty"`
}

// DefaultConfigDir returns the default config directory (~/.tradebot).
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tradebot"
	}
	return filepath.Join(home, ".tradebot")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

func Load(path string) (*Config, error) {
	path = ExpandPath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	// Substitute environment variables: ${VAR} and ${VAR:-default}
	data = []byte(ExpandEnvVars(string(data)))

	cfg := Defaults()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	// Secrets coming from Defaults() are ${VAR} placeholders; expand them
	// too when the file omits those sections.
	cfg.Twitter.BearerToken = ExpandEnvVars(cfg.Twitter.BearerToken)
	cfg.Twitter.TargetUserID = ExpandEnvVars(cfg.Twitter.TargetUserID)
	for name, pc := range cfg.Providers {
		pc.APIKey = ExpandEnvVars(pc.APIKey)
		cfg.Providers[name] = pc
	}

	cfg.State.Path = ExpandPath(cfg.State.Path)
	cfg.State.DBPath = ExpandPath(cfg.State.DBPath)
	cfg.Prompts.Path = ExpandPath(cfg.Prompts.Path)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns in config strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// ExpandEnvVars replaces ${VAR} with the environment variable value.
// Supports default values: ${VAR:-default} uses "default" when VAR is unset
// or empty.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultVal := ""
		hasDefault := len(groups) >= 3 && groups[2] != ""
		if hasDefault {
			defaultVal = groups[2]
		}

		val, exists := os.LookupEnv(varName)
		if !exists || val == "" {
			if hasDefault {
				return defaultVal
			}
			return "" // unresolved secrets stay empty and fail credential checks
		}
		return val
	})
}

func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// Validate checks structural values. Credentials are checked separately by
// CheckCredentials so that commands that never call external services
// (config get/set, state list) work without secrets.
func Validate(cfg *Config) error {
	var errs []string

	switch cfg.General.LogLevel {
	case "", "debug", "info", "warn", "error":
		// valid
	default:
		errs = append(errs, "general.logLevel must be one of: debug, info, warn, error")
	}

	if cfg.General.DefaultProvider == "" {
		errs = append(errs, "general.defaultProvider is required")
	} else if _, ok := cfg.Providers[cfg.General.DefaultProvider]; !ok {
		errs = append(errs, fmt.Sprintf("general.defaultProvider references unknown provider: %s", cfg.General.DefaultProvider))
	}
	for _, provName := range cfg.General.FailoverChain {
		if _, ok := cfg.Providers[provName]; !ok {
			errs = append(errs, fmt.Sprintf("general.failoverChain references unknown provider: %s", provName))
		}
	}

	switch cfg.State.Backend {
	case "file":
		if cfg.State.Path == "" {
			errs = append(errs, "state.path is required for the file backend")
		}
	case "sqlite":
		if cfg.State.DBPath == "" {
			errs = append(errs, "state.dbPath is required for the sqlite backend")
		}
	default:
		errs = append(errs, "state.backend must be one of: file, sqlite")
	}

	if _, err := time.LoadLocation(cfg.Market.Timezone); cfg.Market.Timezone != "" && err != nil {
		errs = append(errs, fmt.Sprintf("market.timezone: unknown zone %q", cfg.Market.Timezone))
	}

	if cfg.Daemon.IntervalSeconds < 1 {
		errs = append(errs, "daemon.intervalSeconds must be >= 1")
	}
	if cfg.Twitter.TimeoutSeconds < 0 {
		errs = append(errs, "twitter.timeoutSeconds must be >= 0")
	}

	if cfg.Notify.Telegram.Enabled {
		if cfg.Notify.Telegram.Token == "" || cfg.Notify.Telegram.ChatID == "" {
			errs = append(errs, "notify.telegram requires token and chatId when enabled")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// CheckCredentials verifies the secrets the pipeline needs. Missing values
// are a fatal configuration error; no run is attempted.
func CheckCredentials(cfg *Config) error {
	var errs []string

	if cfg.Twitter.BearerToken == "" {
		errs = append(errs, "twitter.bearerToken is not set (X_BEARER_TOKEN)")
	}
	if cfg.Twitter.TargetUserID == "" {
		errs = append(errs, "twitter.targetUserId is not set (TARGET_USER_ID)")
	}

	name := cfg.General.DefaultProvider
	if pc, ok := cfg.Providers[name]; ok {
		// Local providers (ollama) run without a key.
		if name != "ollama" && pc.Enabled && pc.APIKey == "" {
			errs = append(errs, fmt.Sprintf("providers.%s.apiKey is not set", name))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("missing credentials:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ExpandPath resolves ~/ to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
