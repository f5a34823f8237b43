package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/loglens/loglens-go/internal/adapters/filewatcher"
	"github.com/loglens/loglens-go/internal/adapters/logfile"
	"github.com/loglens/loglens-go/internal/domain/usecases"
)

func newShipCmd() *cobra.Command {
	var project string
	cmd := &cobra.Command{
		Use:   "ship [dir]",
		Short: "Watch a directory of log files and ship new entries to the service",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			if a.gate.State() != usecases.AuthAuthenticated {
				return errors.New("not logged in; run 'loglens login' first")
			}
			cred, _ := a.tokens.Credential()

			dir := a.cfg.Shipper.WatchDir
			if len(args) > 0 {
				dir = args[0]
			}
			if dir == "" {
				return errors.New("no directory: pass one or set shipper.watch_dir")
			}
			if project == "" {
				project = a.cfg.Shipper.ProjectName
			}

			watcher, err := filewatcher.NewFSNotifyWatcher(a.cfg.Shipper.Extensions)
			if err != nil {
				return err
			}
			defer watcher.Stop()

			reader := logfile.NewReader(project, cred.UserID)
			shipper := usecases.NewShipper(watcher, reader, a.client, a.logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Printf("Shipping logs from %s (project %s). Ctrl-C to stop.\n", dir, project)
			if err := shipper.Run(ctx, dir); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&project, "project", "", "project name stamped on shipped records")
	return cmd
}
