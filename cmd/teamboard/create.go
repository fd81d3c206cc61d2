package main

import (
	"errors"

	"github.com/spf13/cobra"

	"teamboard/internal/api"
	"teamboard/internal/config"
)

type createCmdOptions struct {
	teamID      string
	description string
	priority    string
	columnID    string
	creatorID   string
	dueDate     string
	assignees   []string
	verifiers   []string
}

func newCreateCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	opts := &createCmdOptions{}
	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a new task",
		Args:  requireExactlyArgs(1, "title is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.teamID == "" {
				return errors.New("--team is required")
			}
			return withClient(cfg, func(client *api.Client) error {
				req := api.TaskCreateRequest{
					TeamID:    opts.teamID,
					Title:     args[0],
					CreatorID: opts.creatorID,
					Assignees: opts.assignees,
					Verifiers: opts.verifiers,
				}
				if opts.description != "" {
					req.Description = &opts.description
				}
				if opts.priority != "" {
					req.Priority = &opts.priority
				}
				if opts.columnID != "" {
					req.ColumnID = &opts.columnID
				}
				if opts.dueDate != "" {
					req.DueDate = &opts.dueDate
				}

				resp, err := client.CreateTask(cmd.Context(), req)
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

	cmd.Flags().StringVar(&opts.teamID, "team", "", "team id (required)")
	cmd.Flags().StringVarP(&opts.description, "description", "d", "", "task description")
	cmd.Flags().StringVarP(&opts.priority, "priority", "p", "", "priority (low, medium, high, urgent)")
	cmd.Flags().StringVar(&opts.columnID, "column", "", "column id")
	cmd.Flags().StringVar(&opts.creatorID, "creator", "", "creator member id")
	cmd.Flags().StringVar(&opts.dueDate, "due", "", "due date (YYYY-MM-DD)")
	cmd.Flags().StringSliceVar(&opts.assignees, "assignee", nil, "assignee member id (repeatable)")
	cmd.Flags().StringSliceVar(&opts.verifiers, "verifier", nil, "verifier member id (repeatable)")

	return cmd
}
