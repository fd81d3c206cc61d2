package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"teamboard/internal/api"
	"teamboard/internal/config"
)

// userMappingFile is the YAML shape for bulk-loading member↔GitHub-login
// mappings:
//
//	mappings:
//	  - member_id: mb-x3f9a2
//	    github_login: octocat
type userMappingFile struct {
	Mappings []struct {
		MemberID    string `yaml:"member_id"`
		GithubLogin string `yaml:"github_login"`
	} `yaml:"mappings"`
}

func newUsersCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage member to GitHub login mappings",
	}

	cmd.AddCommand(
		newUsersMapCmd(cfg),
		newUsersLoadCmd(cfg, jsonOutput),
	)

	return cmd
}

func newUsersMapCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "map <member-id> <github-login>",
		Short: "Map one member to a GitHub login",
		Args:  requireExactlyArgs(2, "member id and github login are required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				err := client.PutUserMapping(cmd.Context(), api.UserMappingRequest{
					MemberID:    args[0],
					GithubLogin: args[1],
				})
				if err != nil {
					return err
				}
				return writePlain("%s -> %s\n", args[0], args[1])
			})
		},
	}
}

func newUsersLoadCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "load <file>",
		Short: "Bulk-load member mappings from a YAML file",
		Args:  requireExactlyArgs(1, "file path is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var file userMappingFile
			if err := yaml.Unmarshal(data, &file); err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}
			if len(file.Mappings) == 0 {
				return errors.New("no mappings found in file")
			}

			return withClient(cfg, func(client *api.Client) error {
				loaded := 0
				for _, m := range file.Mappings {
					err := client.PutUserMapping(cmd.Context(), api.UserMappingRequest{
						MemberID:    m.MemberID,
						GithubLogin: m.GithubLogin,
					})
					if err != nil {
						return fmt.Errorf("map %s: %w", m.MemberID, err)
					}
					loaded++
				}
				if *jsonOutput {
					return writeJSON(map[string]int{"loaded": loaded})
				}
				return writePlain("loaded %d mappings\n", loaded)
			})
		},
	}
}
