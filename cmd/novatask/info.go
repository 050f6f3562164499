package main

import (
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"novatask/internal/api"
	"novatask/internal/config"
)

func newInfoCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show database and project info",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.GetInfo(cmd.Context())
				if err != nil {
					return err
				}

				if *jsonOutput {
					return writeJSON(struct {
						DBPath string `json:"db_path"`
						api.InfoResponse
					}{DBPath: cfg.DBPath, InfoResponse: resp})
				}

				_ = writePlain("db_path: %s\n", cfg.DBPath)
				_ = writePlain("id_prefix: %s\n", resp.IDPrefix)
				_ = writePlain("projects: %s\n", strings.Join(resp.Projects, ", "))
				_ = writePlain("schema_version: %d\n", resp.SchemaVersion)
				_ = writePlain("total_tasks: %d\n", resp.TotalTasks)

				statuses := make([]string, 0, len(resp.TaskCounts))
				for status := range resp.TaskCounts {
					statuses = append(statuses, status)
				}
				sort.Strings(statuses)
				for _, status := range statuses {
					_ = writePlain("  %s: %d\n", status, resp.TaskCounts[status])
				}
				return nil
			})
		},
	}
	return cmd
}
