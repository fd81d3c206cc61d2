package main

import (
	"errors"

	"github.com/spf13/cobra"

	"teamboard/internal/api"
	"teamboard/internal/config"
)

func newColumnCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "column",
		Short: "Manage board columns",
	}

	cmd.AddCommand(
		newColumnAddCmd(cfg, jsonOutput),
		newColumnListCmd(cfg, jsonOutput),
	)

	return cmd
}

func newColumnAddCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var teamID string
	var isDefault bool
	var position int

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a board column",
		Args:  requireExactlyArgs(1, "column name is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			if teamID == "" {
				return errors.New("--team is required")
			}
			return withClient(cfg, func(client *api.Client) error {
				column, err := client.CreateColumn(cmd.Context(), api.ColumnCreateRequest{
					TeamID:    teamID,
					Name:      args[0],
					IsDefault: isDefault,
					Position:  position,
				})
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(column)
				}
				return writePlain("%s (%s)\n", column.ID, column.Name)
			})
		},
	}

	cmd.Flags().StringVar(&teamID, "team", "", "team id (required)")
	cmd.Flags().BoolVar(&isDefault, "default", false, "make this the default column")
	cmd.Flags().IntVar(&position, "position", 0, "column position")
	return cmd
}

func newColumnListCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var teamID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List board columns",
		RunE: func(cmd *cobra.Command, args []string) error {
			if teamID == "" {
				return errors.New("--team is required")
			}
			return withClient(cfg, func(client *api.Client) error {
				columns, err := client.ListColumns(cmd.Context(), teamID)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(columns)
				}
				for _, column := range columns {
					marker := ""
					if column.IsDefault {
						marker = " (default)"
					}
					if err := writePlain("%s %s%s\n", column.ID, column.Name, marker); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&teamID, "team", "", "team id (required)")
	return cmd
}
