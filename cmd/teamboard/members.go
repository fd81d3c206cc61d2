package main

import (
	"errors"

	"github.com/spf13/cobra"

	"teamboard/internal/api"
	"teamboard/internal/config"
)

func newMemberCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "member",
		Short: "Manage team members",
	}

	cmd.AddCommand(newMemberAddCmd(cfg, jsonOutput))
	return cmd
}

func newMemberAddCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var teamID string
	var isLeader bool

	cmd := &cobra.Command{
		Use:   "add <display-name>",
		Short: "Register a team member",
		Args:  requireExactlyArgs(1, "display name is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			if teamID == "" {
				return errors.New("--team is required")
			}
			return withClient(cfg, func(client *api.Client) error {
				member, err := client.CreateMember(cmd.Context(), api.MemberCreateRequest{
					TeamID:      teamID,
					DisplayName: args[0],
					IsLeader:    isLeader,
				})
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(member)
				}
				return writePlain("%s (%s)\n", member.ID, member.DisplayName)
			})
		},
	}

	cmd.Flags().StringVar(&teamID, "team", "", "team id (required)")
	cmd.Flags().BoolVar(&isLeader, "leader", false, "mark the member as team leader")
	return cmd
}
