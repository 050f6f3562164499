package main

import (
	"github.com/spf13/cobra"

	"novatask/internal/api"
	"novatask/internal/config"
)

func newShowCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id> [<id>...]",
		Short: "Show task details",
		Args:  requireAtLeastOneID,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				responses := make([]api.TaskResponse, 0, len(args))
				for _, id := range args {
					resp, err := client.GetTask(cmd.Context(), id)
					if err != nil {
						return err
					}
					responses = append(responses, resp)
				}

				if *jsonOutput {
					if len(responses) == 1 {
						return writeJSON(responses[0])
					}
					return writeJSON(responses)
				}
				if len(responses) == 1 {
					return writeTaskDetail(responses[0])
				}
				return writeTaskList(responses)
			})
		},
	}

	return cmd
}
