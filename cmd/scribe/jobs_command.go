package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"scribe/internal/config"
	"scribe/internal/registry"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "jobs EXECUTION_ID",
		Short: "Show transcription jobs recorded for an execution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *registry.Store) error {
				id, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid execution id %q", args[0])
				}
				jobs, err := store.JobsByExecution(cmd.Context(), id)
				if err != nil {
					return err
				}
				if len(jobs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No jobs recorded")
					return nil
				}
				rows := make([][]string, 0, len(jobs))
				for _, job := range jobs {
					detail := job.OutputKey
					if job.FailureReason != "" {
						detail = job.FailureReason
					}
					rows = append(rows, []string{
						job.ID,
						job.Language,
						chunkColumn(job.ChunkIndex, job.TotalChunks),
						string(job.Status),
						detail,
					})
				}
				table := renderTable(
					[]string{"Job", "Language", "Chunk", "Status", "Output / Reason"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}
}

func chunkColumn(index, total int) string {
	if index == 0 {
		return "-"
	}
	return fmt.Sprintf("%d/%d", index, total)
}
