package main

import (
	"errors"

	"github.com/spf13/cobra"

	"teamboard/internal/api"
	"teamboard/internal/config"
)

func newRoleCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "role",
		Short: "Manage task assignees and verifiers",
	}

	cmd.AddCommand(
		newRoleChangeCmd(cfg, jsonOutput, "assign", "assignees", true, "Add an assignee to a task"),
		newRoleChangeCmd(cfg, jsonOutput, "unassign", "assignees", false, "Remove an assignee from a task"),
		newRoleChangeCmd(cfg, jsonOutput, "add-verifier", "verifiers", true, "Add a verifier to a task"),
		newRoleChangeCmd(cfg, jsonOutput, "remove-verifier", "verifiers", false, "Remove a verifier from a task"),
	)

	return cmd
}

func newRoleChangeCmd(cfg *config.Config, jsonOutput *bool, name, role string, add bool, short string) *cobra.Command {
	var memberID string

	cmd := &cobra.Command{
		Use:   name + " <id>",
		Short: short,
		Args:  requireTaskID,
		RunE: func(cmd *cobra.Command, args []string) error {
			if memberID == "" {
				return errors.New("--member is required")
			}
			return withClient(cfg, func(client *api.Client) error {
				req := api.RoleRequest{MemberID: memberID}
				var resp api.TaskResponse
				var err error
				if add {
					resp, err = client.AddRole(cmd.Context(), args[0], role, req)
				} else {
					resp, err = client.RemoveRole(cmd.Context(), args[0], role, req)
				}
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(resp)
				}
				return writeTaskDetail(resp)
			})
		},
	}

	cmd.Flags().StringVar(&memberID, "member", "", "member id (required)")
	return cmd
}
