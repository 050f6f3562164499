package main

import (
	"strings"

	"github.com/spf13/cobra"

	"novatask/internal/api"
	"novatask/internal/config"
)

func newLoginCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "login <name>",
		Short: "Log in by display name, creating the user on first use",
		Args:  requireAtLeastArgs(1, "name is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.Login(cmd.Context(), strings.Join(args, " "))
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(resp)
				}
				if resp.Created {
					_ = writePlain("created user %s\n", resp.User.Name)
				}
				_ = writePlain("%s\n", resp.User.ID)
				return writePlain("hint: export %s=%q to act as this user\n", actorEnvKey, resp.User.Name)
			})
		},
	}
}

func newUsersCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "users [<id>]",
		Short: "List users, or show one user",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				if len(args) == 1 {
					user, err := client.GetUser(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					if *jsonOutput {
						return writeJSON(user)
					}
					return writeUserList([]api.UserResponse{user})
				}

				users, err := client.ListUsers(cmd.Context())
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(users)
				}
				return writeUserList(users)
			})
		},
	}
}
