package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"scribe/internal/config"
	"scribe/internal/registry"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the execution queue",
	}

	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueHealthCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))

	return queueCmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queued executions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *registry.Store) error {
				statuses, err := parseStatuses(listStatuses)
				if err != nil {
					return err
				}
				executions, err := store.ListExecutions(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				if len(executions) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				rows := make([][]string, 0, len(executions))
				for _, exec := range executions {
					rows = append(rows, []string{
						strconv.FormatInt(exec.ID, 10),
						exec.Key,
						formatSize(exec.SizeBytes),
						string(exec.Route),
						string(exec.Status),
						humanize.Time(exec.UpdatedAt),
					})
				}
				table := renderTable(
					[]string{"ID", "Object", "Size", "Route", "Status", "Updated"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&listStatuses, "status", nil, "Filter by status (pending, processing, completed, failed)")
	return cmd
}

func newQueueHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show execution counts per lifecycle state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *registry.Store) error {
				health, err := store.Health(cmd.Context())
				if err != nil {
					return err
				}
				rows := [][]string{
					{"pending", strconv.Itoa(health.Pending)},
					{"processing", strconv.Itoa(health.Processing)},
					{"completed", strconv.Itoa(health.Completed)},
					{"failed", strconv.Itoa(health.Failed)},
					{"total", strconv.Itoa(health.Total)},
				}
				table := renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight})
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove completed and failed executions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *registry.Store) error {
				removed, err := store.ClearTerminal(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d executions\n", removed)
				return nil
			})
		},
	}
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [ID...]",
		Short: "Requeue failed executions (all of them when no IDs are given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *registry.Store) error {
				ids := make([]int64, 0, len(args))
				for _, arg := range args {
					id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
					if err != nil {
						return fmt.Errorf("invalid execution id %q", arg)
					}
					ids = append(ids, id)
				}
				requeued, err := store.RetryFailed(cmd.Context(), ids...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Requeued %d executions\n", requeued)
				return nil
			})
		},
	}
}

func parseStatuses(raw []string) ([]registry.ExecutionStatus, error) {
	statuses := make([]registry.ExecutionStatus, 0, len(raw))
	for _, value := range raw {
		status, ok := registry.ParseExecutionStatus(strings.TrimSpace(value))
		if !ok {
			return nil, fmt.Errorf("unknown status %q", value)
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func formatSize(bytes int64) string {
	if bytes <= 0 {
		return "-"
	}
	return humanize.IBytes(uint64(bytes))
}
