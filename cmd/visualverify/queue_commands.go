package main

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"visualverify/internal/config"
	"visualverify/internal/queue"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the verification queue",
	}

	queueCmd.AddCommand(newQueueStatusCommand(ctx))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))
	queueCmd.AddCommand(newQueueResetCommand(ctx))
	queueCmd.AddCommand(newQueueRemoveCommand(ctx))

	return queueCmd
}

func newQueueStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show queue status summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				health, err := store.Health(cmd.Context())
				if err != nil {
					return err
				}
				if health.Total == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
				} else {
					rows := [][]string{}
					for _, row := range []struct {
						status queue.Status
						count  int
					}{
						{queue.StatusPending, health.Pending},
						{queue.StatusProcessing, health.Processing},
						{queue.StatusCompleted, health.Completed},
						{queue.StatusFailed, health.Failed},
					} {
						if row.count > 0 {
							rows = append(rows, []string{humanize(string(row.status)), strconv.Itoa(row.count)})
						}
					}
					fmt.Fprint(cmd.OutOrStdout(), renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cached images: %d\n", health.CacheRows)
				return nil
			})
		},
	}
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [job-id...]",
		Short: "Return failed jobs to pending (all failed jobs when no ids are given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := parseJobID(arg)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				count, err := store.RetryFailed(cmd.Context(), ids...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Retried %d failed jobs\n", count)
				return nil
			})
		},
	}
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var completed bool
	var failed bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove jobs from the queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				var (
					count int64
					err   error
					label string
				)
				switch {
				case completed && failed:
					return fmt.Errorf("--completed and --failed are mutually exclusive")
				case completed:
					count, err = store.ClearCompleted(cmd.Context())
					label = "completed "
				case failed:
					count, err = store.ClearFailed(cmd.Context())
					label = "failed "
				default:
					count, err = store.Clear(cmd.Context())
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d %sjobs\n", count, label)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&completed, "completed", false, "Only remove completed jobs")
	cmd.Flags().BoolVar(&failed, "failed", false, "Only remove failed jobs")
	return cmd
}

func newQueueResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Return stuck processing jobs to pending (stop the daemon first)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				count, err := store.ResetProcessing(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reset %d processing jobs\n", count)
				return nil
			})
		},
	}
}

func newQueueRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <job-id...>",
		Short: "Remove specific jobs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				var missing []string
				for _, arg := range args {
					id, err := parseJobID(arg)
					if err != nil {
						return err
					}
					removed, err := store.Remove(cmd.Context(), id)
					if err != nil {
						return err
					}
					if !removed {
						missing = append(missing, arg)
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d jobs\n", len(args)-len(missing))
				if len(missing) > 0 {
					slices.Sort(missing)
					fmt.Fprintf(cmd.OutOrStdout(), "Not found: %v\n", missing)
				}
				return nil
			})
		},
	}
}
