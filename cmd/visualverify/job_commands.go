package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"visualverify/internal/api"
	"visualverify/internal/config"
	"visualverify/internal/fetch"
	"visualverify/internal/queue"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var claim string

	cmd := &cobra.Command{
		Use:   "submit <image-url>",
		Short: "Queue an image for background verification",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := fetch.ValidateURL(args[0]); err != nil {
				return err
			}
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				job, err := store.NewJobWithRequestID(cmd.Context(), args[0], claim, uuid.NewString())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued job %d\n", job.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&claim, "claim", "", "Claim made about the image")
	return cmd
}

func newResultCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "result <job-id>",
		Short: "Show the result of a queued verification",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				job, err := store.GetByID(cmd.Context(), id)
				if err != nil {
					return err
				}
				if job == nil {
					return fmt.Errorf("job %d not found", id)
				}
				if asJSON {
					return writeJSON(cmd, api.FromJob(job))
				}
				out := cmd.OutOrStdout()
				return renderJobResult(out, job, shouldColorize(out))
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	return cmd
}

func newJobsCommand(ctx *commandContext) *cobra.Command {
	var statusFilters []string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List verification jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses, err := parseStatuses(statusFilters)
			if err != nil {
				return err
			}
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				jobs, err := store.List(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, api.JobListResponse{Jobs: api.FromJobs(jobs)})
				}
				if len(jobs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No jobs")
					return nil
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Status", "Verdict", "Confidence", "Image", "Created"},
					buildJobRows(jobs),
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVarP(&statusFilters, "status", "s", nil, "Filter by job status (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print jobs as JSON")
	return cmd
}

func buildJobRows(jobs []*queue.Job) [][]string {
	rows := make([][]string, 0, len(jobs))
	for _, job := range jobs {
		confidence := ""
		if job.Verdict != "" {
			confidence = fmt.Sprintf("%.0f%%", job.Confidence*100)
		}
		verdict := job.Verdict
		if job.Cached {
			verdict += " (cached)"
		}
		rows = append(rows, []string{
			strconv.FormatInt(job.ID, 10),
			humanize(string(job.Status)),
			verdict,
			confidence,
			job.ImageURL,
			job.CreatedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	return rows
}

func parseJobID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid job id %q", raw)
	}
	return id, nil
}

func parseStatuses(values []string) ([]queue.Status, error) {
	var statuses []queue.Status
	for _, value := range values {
		status, ok := queue.ParseStatus(value)
		if !ok {
			return nil, fmt.Errorf("unknown status %q (want pending, processing, completed or failed)", value)
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}
