package main

import (
	"fmt"

	"tradebot/internal/config"
	"tradebot/internal/domain"
	"tradebot/internal/state"

	"github.com/spf13/cobra"
)

func stateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect and manage the processed-post state",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "count",
		Short: "Show how many post ids are recorded as processed",
		RunE: func(cmd *cobra.Command, args []string) error {
			set, closeFn, err := openState()
			if err != nil {
				return err
			}
			defer closeFn()
			fmt.Println(set.Len())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all processed post ids",
		RunE: func(cmd *cobra.Command, args []string) error {
			set, closeFn, err := openState()
			if err != nil {
				return err
			}
			defer closeFn()
			for _, id := range set.IDs() {
				fmt.Println(id)
			}
			return nil
		},
	})

	var force bool
	clear := &cobra.Command{
		Use:   "clear",
		Short: "Forget all processed post ids",
		Long: `Clears the processed-post state. The next run will treat every post on
the timeline as new, so previously handled posts may be republished.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				return fmt.Errorf("refusing to clear state without --force")
			}
			store, closeFn, err := openStore()
			if err != nil {
				return err
			}
			defer closeFn()
			if err := store.Save(domain.NewProcessedSet()); err != nil {
				return fmt.Errorf("clear state: %w", err)
			}
			fmt.Println("processed state cleared")
			return nil
		},
	}
	clear.Flags().BoolVar(&force, "force", false, "actually clear the state")
	cmd.AddCommand(clear)

	return cmd
}

// openStore builds the configured state backend.
func openStore() (domain.ProcessedStore, func(), error) {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	log := loggerFromConfig(cfg)

	if cfg.State.Backend == "sqlite" {
		sqlStore, err := state.NewSQLiteStore(cfg.State.DBPath, log)
		if err != nil {
			return nil, nil, fmt.Errorf("state store: %w", err)
		}
		return sqlStore, func() { sqlStore.Close() }, nil
	}
	return state.NewFileStore(cfg.State.Path, log), func() {}, nil
}

func openState() (*domain.ProcessedSet, func(), error) {
	store, closeFn, err := openStore()
	if err != nil {
		return nil, nil, err
	}
	set, err := store.Load()
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("load state: %w", err)
	}
	return set, closeFn, nil
}
