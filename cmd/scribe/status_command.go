package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"scribe/internal/config"
	"scribe/internal/registry"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show a workload summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *registry.Store) error {
				health, err := store.Health(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Registry: %s\n", store.Path())
				fmt.Fprintf(out, "Media bucket: %s\n", cfg.Storage.MediaBucket)
				fmt.Fprintf(out, "Output bucket: %s\n\n", cfg.Storage.OutputBucket)
				if health.Total == 0 {
					fmt.Fprintln(out, "Queue is empty")
					return nil
				}
				rows := [][]string{
					{"pending", strconv.Itoa(health.Pending)},
					{"processing", strconv.Itoa(health.Processing)},
					{"completed", strconv.Itoa(health.Completed)},
					{"failed", strconv.Itoa(health.Failed)},
				}
				table := renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight})
				fmt.Fprintln(out, table)
				return nil
			})
		},
	}
}
