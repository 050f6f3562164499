package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"novatask/internal/config"
)

// globalFlags are the persistent flags shared by every sub-command.
type globalFlags struct {
	json     bool
	logLevel string
	as       string
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:           "novatask",
		Short:         "novatask is a small task tracker with a complete, verify and reject workflow",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			warning, err := configureLoggerForCLI(flags.logLevel, cfg.LogLevel)
			if err != nil {
				return err
			}
			if warning != "" {
				fmt.Fprintln(os.Stderr, warning)
			}
			return nil
		},
	}

	cmd.Version = version
	cmd.PersistentFlags().BoolVar(&flags.json, "json", false, "output JSON")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&flags.as, "as", "", "act as this user name (defaults to "+actorEnvKey+")")

	jsonOutput := &flags.json
	cmd.AddCommand(
		newSrvCmd(cfg),
		newLoginCmd(cfg, jsonOutput),
		newUsersCmd(cfg, jsonOutput),
		newCreateCmd(cfg, jsonOutput),
		newShowCmd(cfg, jsonOutput),
		newUpdateCmd(cfg, jsonOutput),
		newListCmd(cfg, jsonOutput),
		newBoardCmd(cfg, jsonOutput),
		newStatsCmd(cfg, jsonOutput),
		newTransitionCmd(cfg, flags, transitionComplete),
		newTransitionCmd(cfg, flags, transitionVerify),
		newTransitionCmd(cfg, flags, transitionReject),
		newImageCmd(cfg, jsonOutput),
		newInfoCmd(cfg, jsonOutput),
		newConfigCmd(cfg),
		newMigrateCmd(cfg, jsonOutput),
		newTokenCmd(),
	)

	return cmd
}
