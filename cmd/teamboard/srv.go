package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"teamboard/internal/config"
	"teamboard/internal/githubsync"
	"teamboard/internal/notify"
	"teamboard/internal/secrets"
	"teamboard/internal/server"
	"teamboard/internal/store"
	"teamboard/internal/workflow"
)

func newSrvCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "srv",
		Short: "Run the teamboard API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg == nil {
				return fmt.Errorf("config not initialized")
			}
			if cfg.DBPath == "" {
				return fmt.Errorf("db path is required")
			}

			logger := slog.Default().With("component", "server")

			addr, err := server.ListenAddr(cfg.APIURL)
			if err != nil {
				return err
			}

			logger.Info("opening database", "path", cfg.DBPath)
			st, err := store.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer st.Close()

			var box *secrets.Box
			if cfg.SecretKey != "" {
				box, err = secrets.NewBox(cfg.SecretKey)
				if err != nil {
					return fmt.Errorf("invalid secret key: %w", err)
				}
			} else {
				logger.Warn("no secret key configured; GitHub tokens cannot be stored")
			}

			wf := workflow.NewEngine(st)
			dispatcher := &notify.SlogDispatcher{Logger: slog.Default().With("component", "notify")}
			client := githubsync.NewClient(cfg.Github.APIBaseURL)
			syncEngine := githubsync.NewEngine(st, st, st, wf, client, box,
				slog.Default().With("component", "sync"))

			srv := server.New(addr, st, wf, syncEngine, dispatcher, logger)
			return srv.ListenAndServe()
		},
	}
}
