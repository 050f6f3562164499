package main

import (
	"context"

	"github.com/spf13/cobra"

	"novatask/internal/api"
	"novatask/internal/config"
)

type transitionDef struct {
	use   string
	short string
	call  func(client *api.Client, ctx context.Context, id, actorID string) (api.TaskResponse, error)
}

var (
	transitionComplete = transitionDef{
		use:   "complete",
		short: "Mark tasks completed (executors only)",
		call:  (*api.Client).CompleteTask,
	}
	transitionVerify = transitionDef{
		use:   "verify",
		short: "Verify completed tasks (verifier only)",
		call:  (*api.Client).VerifyTask,
	}
	transitionReject = transitionDef{
		use:   "reject",
		short: "Send completed tasks back to pending (verifier only)",
		call:  (*api.Client).RejectTask,
	}
)

func newTransitionCmd(cfg *config.Config, flags *globalFlags, def transitionDef) *cobra.Command {
	return &cobra.Command{
		Use:   def.use + " <id> [<id>...]",
		Short: def.short,
		Args:  requireAtLeastOneID,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				actorID, err := resolveActor(cmd.Context(), client, flags.as)
				if err != nil {
					return err
				}

				responses := make([]api.TaskResponse, 0, len(args))
				for _, id := range args {
					resp, err := def.call(client, cmd.Context(), id, actorID)
					if err != nil {
						return err
					}
					responses = append(responses, resp)
				}

				if flags.json {
					if len(responses) == 1 {
						return writeJSON(responses[0])
					}
					return writeJSON(responses)
				}
				for _, resp := range responses {
					if err := writePlain("%s %s\n", resp.ID, resp.Status); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}
