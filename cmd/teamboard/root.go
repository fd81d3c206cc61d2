package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"teamboard/internal/config"
)

func newRootCmd(cfg *config.Config) *cobra.Command {
	var jsonOutput bool
	var logLevel string

	cmd := &cobra.Command{
		Use:   "teamboard",
		Short: "Teamboard is a team task board with consensus workflow and GitHub sync",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			warning, err := configureLoggerForCLI(logLevel, cfg.LogLevel)
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
	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output JSON")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	cmd.AddCommand(
		newSrvCmd(cfg),
		newInfoCmd(cfg, &jsonOutput),
		newCreateCmd(cfg, &jsonOutput),
		newShowCmd(cfg, &jsonOutput),
		newListCmd(cfg, &jsonOutput),
		newUpdateCmd(cfg, &jsonOutput),
		newRoleCmd(cfg, &jsonOutput),
		newSyncCmd(cfg, &jsonOutput),
		newUsersCmd(cfg, &jsonOutput),
		newMemberCmd(cfg, &jsonOutput),
		newColumnCmd(cfg, &jsonOutput),
	)
	cmd.AddCommand(newWorkflowCmds(cfg, &jsonOutput)...)

	return cmd
}
