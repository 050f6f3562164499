package main

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"novatask/internal/api"
	"novatask/internal/config"
	"novatask/internal/models"
)

func newListCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var (
		status      string
		project     string
		responsible string
		limit       int
		offset      int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				query := url.Values{}
				setIfNotEmpty(query, "status", status)
				setIfNotEmpty(query, "project", project)
				if responsible != "" {
					ids, err := resolveUserRefs(cmd.Context(), client, []string{responsible})
					if err != nil {
						return err
					}
					query.Set("responsible", ids[0])
				}
				if limit > 0 {
					query.Set("limit", strconv.Itoa(limit))
				}
				if offset > 0 {
					query.Set("offset", strconv.Itoa(offset))
				}

				resp, err := client.ListTasks(cmd.Context(), query)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(resp)
				}
				return writeTaskList(resp)
			})
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "status filter, comma separated ("+strings.Join(models.TaskStatusStrings(), ", ")+")")
	cmd.Flags().StringVarP(&project, "project", "P", "", "project filter")
	cmd.Flags().StringVar(&responsible, "verifier", "", "verifier name or id")
	cmd.Flags().IntVar(&limit, "limit", 0, "limit results")
	cmd.Flags().IntVar(&offset, "offset", 0, "offset results")

	return cmd
}
