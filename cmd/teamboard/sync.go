package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"teamboard/internal/api"
	"teamboard/internal/config"
	"teamboard/internal/githubsync"
)

func newSyncCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "GitHub issue synchronization",
	}

	cmd.AddCommand(
		newSyncLinkCmd(cfg, jsonOutput),
		newSyncUnlinkCmd(cfg),
		newSyncPushCmd(cfg, jsonOutput),
		newSyncCreateIssueCmd(cfg, jsonOutput),
		newSyncResolveCmd(cfg, jsonOutput),
		newSyncLogCmd(cfg, jsonOutput),
		newSyncImportCmd(cfg, jsonOutput),
		newSyncExportCmd(cfg, jsonOutput),
		newSyncScopeCmd(cfg),
	)

	return cmd
}

func newSyncLinkCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var scope string
	var issueNumber int

	cmd := &cobra.Command{
		Use:   "link <id>",
		Short: "Link a task to an existing GitHub issue",
		Args:  requireTaskID,
		RunE: func(cmd *cobra.Command, args []string) error {
			if scope == "" || issueNumber <= 0 {
				return errors.New("--scope and --issue are required")
			}
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.Link(cmd.Context(), args[0], api.LinkRequest{
					Scope:       scope,
					IssueNumber: issueNumber,
				})
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

	cmd.Flags().StringVar(&scope, "scope", "", "repository scope (owner/repo)")
	cmd.Flags().IntVar(&issueNumber, "issue", 0, "issue number")
	return cmd
}

func newSyncUnlinkCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "unlink <id>",
		Short: "Remove a task's issue link",
		Args:  requireTaskID,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				if err := client.Unlink(cmd.Context(), args[0]); err != nil {
					return err
				}
				return writePlain("%s unlinked\n", args[0])
			})
		},
	}
}

func newSyncPushCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "push <id>",
		Short: "Push a task's state to its linked issue",
		Args:  requireTaskID,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.Sync(cmd.Context(), args[0])
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
}

func newSyncCreateIssueCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var scope string

	cmd := &cobra.Command{
		Use:   "create-issue <id>",
		Short: "Create a GitHub issue from a task and link them",
		Args:  requireTaskID,
		RunE: func(cmd *cobra.Command, args []string) error {
			if scope == "" {
				return errors.New("--scope is required")
			}
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.CreateIssue(cmd.Context(), args[0], api.CreateIssueRequest{Scope: scope})
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

	cmd.Flags().StringVar(&scope, "scope", "", "repository scope (owner/repo)")
	return cmd
}

func newSyncResolveCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var keepLocal, keepExternal bool

	cmd := &cobra.Command{
		Use:   "resolve <id>",
		Short: "Resolve a sync conflict",
		Args:  requireTaskID,
		RunE: func(cmd *cobra.Command, args []string) error {
			if keepLocal == keepExternal {
				return errors.New("exactly one of --keep-local or --keep-external is required")
			}
			resolution := "keep_external"
			if keepLocal {
				resolution = "keep_local"
			}
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.ResolveConflict(cmd.Context(), args[0],
					api.ResolveConflictRequest{Resolution: resolution})
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

	cmd.Flags().BoolVar(&keepLocal, "keep-local", false, "push the local state outward")
	cmd.Flags().BoolVar(&keepExternal, "keep-external", false, "accept the already-applied external state")
	return cmd
}

func newSyncLogCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "log <id>",
		Short: "Show a task's sync log",
		Args:  requireTaskID,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				entries, err := client.SyncLog(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(entries)
				}
				for _, entry := range entries {
					line := fmt.Sprintf("%s %s %s", formatTime(entry.CreatedAt), entry.Direction, entry.Action)
					if entry.Field != "" {
						line += " " + entry.Field
					}
					if entry.OldValue != "" || entry.NewValue != "" {
						line += fmt.Sprintf(" %s->%s", entry.OldValue, entry.NewValue)
					}
					line += fmt.Sprintf(" [%s]", entry.Result)
					if entry.Message != "" {
						line += " " + entry.Message
					}
					if err := writePlain("%s\n", line); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func newSyncImportCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var scope string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import all open issues from a scope as tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			if scope == "" {
				return errors.New("--scope is required")
			}
			return withClient(cfg, func(client *api.Client) error {
				result, err := client.ImportAll(cmd.Context(), api.BulkSyncRequest{Scope: scope})
				if err != nil {
					return err
				}
				return writeBulkResult(result, jsonOutput)
			})
		},
	}

	cmd.Flags().StringVar(&scope, "scope", "", "repository scope (owner/repo)")
	return cmd
}

func newSyncExportCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var scope string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Create issues for all unlinked tasks on a scope's team",
		RunE: func(cmd *cobra.Command, args []string) error {
			if scope == "" {
				return errors.New("--scope is required")
			}
			return withClient(cfg, func(client *api.Client) error {
				result, err := client.ExportAll(cmd.Context(), api.BulkSyncRequest{Scope: scope})
				if err != nil {
					return err
				}
				return writeBulkResult(result, jsonOutput)
			})
		},
	}

	cmd.Flags().StringVar(&scope, "scope", "", "repository scope (owner/repo)")
	return cmd
}

func writeBulkResult(result githubsync.BulkResult, jsonOutput *bool) error {
	if *jsonOutput {
		return writeJSON(result)
	}
	if err := writePlain("succeeded: %d, skipped: %d, failed: %d\n",
		result.Succeeded, result.Skipped, result.Failed); err != nil {
		return err
	}
	for _, message := range result.Errors {
		if err := writePlain("  error: %s\n", message); err != nil {
			return err
		}
	}
	return nil
}

func newSyncScopeCmd(cfg *config.Config) *cobra.Command {
	var teamID, token, webhookSecret string
	var enable, disable bool

	cmd := &cobra.Command{
		Use:   "scope <owner/repo>",
		Short: "Store GitHub credentials and settings for a repository scope",
		Args:  requireExactlyArgs(1, "scope is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			if enable && disable {
				return errors.New("--enable and --disable are mutually exclusive")
			}
			req := api.ScopeCredentialRequest{
				Scope:         args[0],
				TeamID:        teamID,
				Token:         token,
				WebhookSecret: webhookSecret,
			}
			if enable {
				value := true
				req.SyncEnabled = &value
			}
			if disable {
				value := false
				req.SyncEnabled = &value
			}
			return withClient(cfg, func(client *api.Client) error {
				if err := client.PutScopeCredential(cmd.Context(), req); err != nil {
					return err
				}
				return writePlain("scope %s updated\n", args[0])
			})
		},
	}

	cmd.Flags().StringVar(&teamID, "team", "", "team id the scope belongs to")
	cmd.Flags().StringVar(&token, "token", "", "GitHub API token (stored encrypted)")
	cmd.Flags().StringVar(&webhookSecret, "webhook-secret", "", "webhook HMAC secret")
	cmd.Flags().BoolVar(&enable, "enable", false, "enable inbound auto-creation for the scope")
	cmd.Flags().BoolVar(&disable, "disable", false, "disable inbound auto-creation for the scope")
	return cmd
}
