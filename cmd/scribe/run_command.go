package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"scribe/internal/daemon"
	"scribe/internal/logging"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the transcription daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			logger, err := logging.NewForPaths(cfg.Logging.Level, cfg.Logging.Format, cfg.Paths.LogDir, "scribe.log")
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			d, err := daemon.New(signalCtx, cfg, logger)
			if err != nil {
				return err
			}
			defer d.Close()

			if err := d.Start(signalCtx); err != nil {
				return err
			}
			<-signalCtx.Done()
			d.Stop()
			return nil
		},
	}
}
