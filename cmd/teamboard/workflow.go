package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"teamboard/internal/api"
	"teamboard/internal/config"
)

type workflowCmdSpec struct {
	name        string
	short       string
	needsActor  bool
	needsReason bool
	reasonUsage string
}

// newWorkflowCmds builds one top-level command per workflow command.
func newWorkflowCmds(cfg *config.Config, jsonOutput *bool) []*cobra.Command {
	specs := []workflowCmdSpec{
		{name: "accept", short: "Accept an assignment", needsActor: true},
		{name: "complete", short: "Mark your part of a task complete", needsActor: true},
		{name: "approve", short: "Approve a task under review", needsActor: true},
		{name: "reject", short: "Reject a task under review", needsActor: true, needsReason: true, reasonUsage: "rejection reason (required)"},
		{name: "decline", short: "Decline a task before work starts", needsActor: true, reasonUsage: "decline reason"},
		{name: "restart", short: "Restart a rejected task", needsActor: true},
		{name: "force-complete", short: "Force a task to done (leader or creator only)", needsActor: true},
		{name: "recalculate", short: "Recompute status from current consensus"},
	}

	cmds := make([]*cobra.Command, 0, len(specs))
	for _, spec := range specs {
		cmds = append(cmds, newWorkflowCmd(cfg, jsonOutput, spec))
	}
	return cmds
}

func newWorkflowCmd(cfg *config.Config, jsonOutput *bool, spec workflowCmdSpec) *cobra.Command {
	var actorID, reason string

	cmd := &cobra.Command{
		Use:   spec.name + " <id>",
		Short: spec.short,
		Args:  requireTaskID,
		RunE: func(cmd *cobra.Command, args []string) error {
			if spec.needsActor && actorID == "" {
				return errors.New("--as <member-id> is required")
			}
			if spec.needsReason && reason == "" {
				return fmt.Errorf("%s requires --reason", spec.name)
			}
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.Command(cmd.Context(), args[0], spec.name, api.CommandRequest{
					ActorID: actorID,
					Reason:  reason,
				})
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(resp)
				}
				if resp.StatusChanged {
					_ = writePlain("%s: %s -> %s\n", args[0], resp.From, resp.To)
				} else {
					_ = writePlain("%s: %s (unchanged)\n", args[0], resp.To)
				}
				return nil
			})
		},
	}

	if spec.needsActor {
		cmd.Flags().StringVar(&actorID, "as", "", "acting member id (required)")
	}
	if spec.needsReason || spec.reasonUsage != "" {
		usage := spec.reasonUsage
		if usage == "" {
			usage = "reason"
		}
		cmd.Flags().StringVar(&reason, "reason", "", usage)
	}

	return cmd
}
