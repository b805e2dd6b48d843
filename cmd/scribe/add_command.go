package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"scribe/internal/config"
	"scribe/internal/registry"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	var bucketFlag string

	cmd := &cobra.Command{
		Use:   "add KEY [KEY...]",
		Short: "Enqueue uploaded objects for transcription",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *registry.Store) error {
				bucket := strings.TrimSpace(bucketFlag)
				if bucket == "" {
					bucket = cfg.Storage.MediaBucket
				}
				for _, key := range args {
					key = strings.TrimSpace(key)
					if key == "" {
						return fmt.Errorf("object key is required")
					}
					exec, err := store.NewExecution(cmd.Context(), bucket, key)
					if err != nil {
						return fmt.Errorf("enqueue %q: %w", key, err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Enqueued execution %d for s3://%s/%s\n", exec.ID, bucket, key)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&bucketFlag, "bucket", "", "Override the media bucket for the enqueued objects")
	return cmd
}
