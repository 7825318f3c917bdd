package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tradebot/internal/config"
	"tradebot/internal/domain"
	"tradebot/internal/market"
	"tradebot/internal/notify"
	"tradebot/internal/pipeline"
	"tradebot/internal/provider"
	"tradebot/internal/publish"
	"tradebot/internal/state"
	"tradebot/internal/timeline"

	"github.com/spf13/cobra"
)

var (
	version    = "0.1.0"
	logger     *slog.Logger
	configPath string // overridable via --config flag
)

func main() {
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:   "tradebot",
		Short: "tradebot: trade-post rewriter and republisher",
		Long:  "tradebot polls a timeline during market hours, filters and classifies posts, rewrites options-trade executions, and republishes them.",
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.json (default: ~/.tradebot/config.json)")

	root.AddCommand(initCmd())
	root.AddCommand(runCmd())
	root.AddCommand(daemonCmd())
	root.AddCommand(doctorCmd())
	root.AddCommand(configCmd())
	root.AddCommand(stateCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveConfigPath returns the config path from --config flag or default.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize config directory with defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgDir := config.DefaultConfigDir()
			cfgPath := config.DefaultConfigPath()
			if err := os.MkdirAll(cfgDir, 0o755); err != nil {
				return err
			}
			if _, err := os.Stat(cfgPath); err == nil {
				return fmt.Errorf("config already exists at %s", cfgPath)
			}
			if err := config.Save(cfgPath, config.Defaults()); err != nil {
				return err
			}
			logger.Info("initialized", "config", cfgPath)
			logger.Info("set X_BEARER_TOKEN, TARGET_USER_ID and GEMINI_API_KEY in the environment before running")
			return nil
		},
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Execute one pipeline pass",
		Long:  "Runs the pipeline once: gate check, fetch, classify, rewrite, publish, persist. Intended for external schedulers (cron, CI).",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(resolveConfigPath())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := config.CheckCredentials(cfg); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			p, closeFn, err := buildPipeline(cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			report, err := p.Run(ctx)
			if err != nil {
				return err
			}
			if report.GateClosed {
				return nil
			}
			logger.Info("done",
				"fetched", report.Fetched,
				"published", report.Published,
				"publish_failed", report.PublishFailed,
			)
			return nil
		},
	}
}

// loggerFromConfig rebuilds the process logger honoring general.logLevel.
func loggerFromConfig(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.General.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// buildPipeline assembles the pipeline and its collaborators from config.
// The returned closer releases the state backend.
func buildPipeline(cfg *config.Config) (*pipeline.Pipeline, func(), error) {
	logger = loggerFromConfig(cfg)

	gate, err := market.NewGate(market.GateConfig{
		Timezone: cfg.Market.Timezone,
		Open:     cfg.Market.Open,
		Close:    cfg.Market.Close,
		Logger:   logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("market gate: %w", err)
	}

	var store domain.ProcessedStore
	closeFn := func() {}
	switch cfg.State.Backend {
	case "sqlite":
		sqlStore, err := state.NewSQLiteStore(cfg.State.DBPath, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("state store: %w", err)
		}
		store = sqlStore
		closeFn = func() { sqlStore.Close() }
	default:
		store = state.NewFileStore(cfg.State.Path, logger)
	}

	provFactory := provider.NewFactory(cfg, logger)
	prov, err := provFactory.DefaultProvider()
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("provider: %w", err)
	}

	prompts, err := pipeline.LoadPrompts(cfg.Prompts.Path, logger)
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("prompts: %w", err)
	}

	var notifier domain.Notifier
	if cfg.Notify.Telegram.Enabled {
		tg, err := notify.NewTelegram(notify.TelegramConfig{
			Token:  cfg.Notify.Telegram.Token,
			ChatID: cfg.Notify.Telegram.ChatID,
			Logger: logger,
		})
		if err != nil {
			logger.Warn("telegram notifier disabled", "err", err)
		} else {
			notifier = tg
		}
	}

	p := pipeline.New(pipeline.Config{
		Gate:  gate,
		Store: store,
		Source: timeline.NewClient(timeline.ClientConfig{
			APIBase:     cfg.Twitter.APIBase,
			BearerToken: cfg.Twitter.BearerToken,
			UserID:      cfg.Twitter.TargetUserID,
			Timeout:     timeoutSeconds(cfg.Twitter.TimeoutSeconds),
			Logger:      logger,
		}),
		Classifier: pipeline.NewClassifier(prov, prompts.Classify, logger),
		Rewriter:   pipeline.NewRewriter(prov, prompts.Rewrite, logger),
		Publisher: publish.NewClient(publish.ClientConfig{
			APIBase:     cfg.Twitter.APIBase,
			BearerToken: cfg.Twitter.BearerToken,
			Timeout:     timeoutSeconds(cfg.Twitter.TimeoutSeconds),
			Logger:      logger,
		}),
		Notifier: notifier,
		Logger:   logger,
	})
	return p, closeFn, nil
}

func timeoutSeconds(s int) time.Duration {
	return time.Duration(s) * time.Second
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View and modify configuration",
		Long:  "Get, set, and list configuration values. Changes are saved to the config file.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get [path]",
		Short: "Get a config value (e.g. market.timezone)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(resolveConfigPath())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			val, err := config.GetByPath(cfg, args[0])
			if err != nil {
				return err
			}
			data, _ := json.MarshalIndent(val, "", "  ")
			fmt.Println(string(data))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set [path] [value]",
		Short: "Set a config value (e.g. daemon.intervalSeconds 60)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := config.SetByPath(cfg, args[0], args[1]); err != nil {
				return fmt.Errorf("set value: %w", err)
			}
			if err := config.Save(cfgPath, cfg); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			logger.Info("config updated", "path", args[0], "value", args[1], "file", cfgPath)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all config values (secrets masked)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(resolveConfigPath())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			data, _ := json.MarshalIndent(config.Sanitize(cfg), "", "  ")
			fmt.Println(string(data))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show config file path",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(resolveConfigPath())
		},
	})

	return cmd
}
