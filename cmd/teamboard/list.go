package main

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"teamboard/internal/api"
	"teamboard/internal/config"
)

func newListCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var teamID, columnID string
	var statuses []string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				query := url.Values{}
				if teamID != "" {
					query.Set("team_id", teamID)
				}
				if columnID != "" {
					query.Set("column_id", columnID)
				}
				if len(statuses) > 0 {
					query.Set("status", strings.Join(statuses, ","))
				}
				if limit > 0 {
					query.Set("limit", strconv.Itoa(limit))
				}

				responses, err := client.ListTasks(cmd.Context(), query)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(responses)
				}
				return writeTaskList(responses)
			})
		},
	}

	cmd.Flags().StringVar(&teamID, "team", "", "filter by team id")
	cmd.Flags().StringVar(&columnID, "column", "", "filter by column id")
	cmd.Flags().StringSliceVarP(&statuses, "status", "s", nil, "filter by status (repeatable)")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum results")

	return cmd
}
