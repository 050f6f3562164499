package main

import (
	"github.com/spf13/cobra"

	"novatask/internal/auth"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the API bearer token",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "hash <token>",
		Short: "Print a bcrypt hash for api_token_hash",
		Args:  requireExactlyArgs(1, "token is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := auth.HashToken(args[0])
			if err != nil {
				return err
			}
			return writePlain("%s\n", hash)
		},
	})
	return cmd
}
