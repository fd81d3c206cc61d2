package main

import (
	"github.com/spf13/cobra"

	"teamboard/internal/api"
	"teamboard/internal/config"
)

func newUpdateCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update task content fields",
		Long:  "Update title, description, priority, column, or due date. Workflow status only moves through workflow commands.",
		Args:  requireTaskID,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := api.TaskUpdateRequest{}
			if cmd.Flags().Changed("title") {
				value, _ := cmd.Flags().GetString("title")
				req.Title = &value
			}
			if cmd.Flags().Changed("description") {
				value, _ := cmd.Flags().GetString("description")
				req.Description = &value
			}
			if cmd.Flags().Changed("priority") {
				value, _ := cmd.Flags().GetString("priority")
				req.Priority = &value
			}
			if cmd.Flags().Changed("column") {
				value, _ := cmd.Flags().GetString("column")
				req.ColumnID = &value
			}
			if cmd.Flags().Changed("due") {
				value, _ := cmd.Flags().GetString("due")
				req.DueDate = &value
			}

			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.UpdateTask(cmd.Context(), args[0], req)
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

	cmd.Flags().String("title", "", "new title")
	cmd.Flags().StringP("description", "d", "", "new description")
	cmd.Flags().StringP("priority", "p", "", "new priority (empty clears)")
	cmd.Flags().String("column", "", "new column id")
	cmd.Flags().String("due", "", "new due date (YYYY-MM-DD, empty clears)")

	return cmd
}
