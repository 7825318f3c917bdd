package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"tradebot/internal/config"
	"tradebot/internal/market"
	"tradebot/internal/provider"
	"tradebot/internal/state"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Run diagnostic checks on your tradebot installation",
		Long: `Verifies that tradebot's configuration, credentials, state backend, and
text-generation provider are correctly set up. Reports pass/fail for each check.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			fmt.Printf("tradebot doctor v%s\n", version)
			fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

			passed := 0
			failed := 0
			warned := 0

			// 1. Config file exists
			if _, err := os.Stat(cfgPath); err != nil {
				printFail("Config file", fmt.Sprintf("not found at %s", cfgPath))
				fmt.Printf("\nRun 'tradebot init' to create a default configuration.\n")
				return nil
			}
			printPass("Config file", cfgPath)
			passed++

			// 2. Config loads and validates
			cfg, err := config.Load(cfgPath)
			if err != nil {
				printFail("Config validation", err.Error())
				failed++
				fmt.Printf("\n%d passed, %d failed\n", passed, failed)
				return fmt.Errorf("%d check(s) failed", failed)
			}
			printPass("Config validation", "valid")
			passed++

			// 3. Credentials present
			if err := config.CheckCredentials(cfg); err != nil {
				printFail("Credentials", err.Error())
				failed++
			} else {
				printPass("Credentials", "all required secrets set")
				passed++
			}

			// 4. Market gate constructs and reports
			gate, err := market.NewGate(market.GateConfig{
				Timezone: cfg.Market.Timezone,
				Open:     cfg.Market.Open,
				Close:    cfg.Market.Close,
			})
			if err != nil {
				printFail("Market window", err.Error())
				failed++
			} else {
				status := "closed"
				if gate.Open(time.Now()) {
					status = "open"
				}
				printPass("Market window", fmt.Sprintf("%s %s-%s (currently %s)",
					cfg.Market.Timezone, cfg.Market.Open, cfg.Market.Close, status))
				passed++
			}

			// 5. State backend readable
			switch cfg.State.Backend {
			case "sqlite":
				if err := checkDatabase(cfg.State.DBPath); err != nil {
					printFail("State (sqlite)", err.Error())
					failed++
				} else {
					printPass("State (sqlite)", cfg.State.DBPath)
					passed++
				}
			default:
				fileStore := state.NewFileStore(cfg.State.Path, logger)
				set, err := fileStore.Load()
				if err != nil {
					printFail("State (file)", err.Error())
					failed++
				} else {
					printPass("State (file)", fmt.Sprintf("%s (%d processed ids)", cfg.State.Path, set.Len()))
					passed++
				}
			}

			// 6. Provider reachable
			provFactory := provider.NewFactory(cfg, logger)
			prov, err := provFactory.DefaultProvider()
			if err != nil {
				printFail("Provider", err.Error())
				failed++
			} else {
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := prov.Healthy(ctx); err != nil {
					printWarn("Provider: "+prov.Name(), err.Error())
					warned++
				} else {
					printPass("Provider: "+prov.Name(), "healthy")
					passed++
				}
			}

			// Summary
			fmt.Printf("\n━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
			fmt.Printf("Results: %d passed, %d warnings, %d failed\n", passed, warned, failed)
			if failed > 0 {
				fmt.Printf("\nPlease fix the failed checks before running tradebot.\n")
				return fmt.Errorf("%d check(s) failed", failed)
			}
			if warned > 0 {
				fmt.Printf("\ntradebot should work but consider fixing the warnings.\n")
			} else {
				fmt.Printf("\nAll checks passed! tradebot is ready to run.\n")
			}
			return nil
		},
	}
}

func checkDatabase(dbPath string) error {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return fmt.Errorf("cannot open: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("cannot ping: %w", err)
	}
	return nil
}

func printPass(check, detail string) {
	fmt.Printf("  [PASS] %-20s %s\n", check, detail)
}

func printFail(check, detail string) {
	fmt.Printf("  [FAIL] %-20s %s\n", check, detail)
}

func printWarn(check, detail string) {
	fmt.Printf("  [WARN] %-20s %s\n", check, detail)
}
