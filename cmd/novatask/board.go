package main

import (
	"net/url"

	"github.com/spf13/cobra"

	"novatask/internal/api"
	"novatask/internal/config"
)

func newBoardCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var (
		tab     string
		project string
		user    string
	)

	cmd := &cobra.Command{
		Use:   "board",
		Short: "Show the dashboard, projects or completed view",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				query := url.Values{}
				setIfNotEmpty(query, "tab", tab)
				setIfNotEmpty(query, "project", project)
				if user != "" {
					ids, err := resolveUserRefs(cmd.Context(), client, []string{user})
					if err != nil {
						return err
					}
					query.Set("user", ids[0])
				}

				resp, err := client.Board(cmd.Context(), query)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(resp)
				}
				return writeBoard(resp)
			})
		},
	}

	cmd.Flags().StringVar(&tab, "tab", "", "view: dashboard, projects or completed")
	cmd.Flags().StringVarP(&project, "project", "P", "", "project filter (projects and completed views)")
	cmd.Flags().StringVarP(&user, "user", "u", "", "only tasks this user executes or verifies")

	return cmd
}

func newStatsCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show task counts per workflow stage",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.Stats(cmd.Context())
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(resp)
				}
				_ = writePlain("total: %d\n", resp.Total)
				_ = writePlain("pending: %d\n", resp.Pending)
				_ = writePlain("reviewing: %d\n", resp.Reviewing)
				_ = writePlain("verified: %d\n", resp.Verified)
				return writePlain("projects: %d\n", resp.Projects)
			})
		},
	}
}
