package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"novatask/internal/config"
	"novatask/internal/store"
)

func newMigrateCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations to the local database",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.DBPath == "" {
				return fmt.Errorf("db path is required")
			}
			if dryRun {
				plan, err := store.InspectMigrations(cfg.DBPath)
				if err != nil {
					return fmt.Errorf("inspect migrations: %w", err)
				}
				return writeMigrationPlan(plan, *jsonOutput)
			}

			// Opening the store migrates it, same as on server start.
			st, err := store.Open(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			if err := st.Close(); err != nil {
				return err
			}

			plan, err := store.InspectMigrations(cfg.DBPath)
			if err != nil {
				return err
			}
			if *jsonOutput {
				return writeJSON(plan)
			}
			return writePlain("schema at version %d\n", plan.CurrentVersion)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show pending migrations without applying")
	return cmd
}

func writeMigrationPlan(plan *store.MigrationStatus, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(plan)
	}
	_ = writePlain("current version: %d\n", plan.CurrentVersion)
	_ = writePlain("available version: %d\n", plan.AvailableVersion)
	if len(plan.Pending) == 0 {
		return writePlain("no pending migrations\n")
	}
	for _, m := range plan.Pending {
		_ = writePlain("  pending %d: %s\n", m.Version, m.Description)
	}
	return nil
}
