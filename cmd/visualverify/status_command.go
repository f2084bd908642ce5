package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"visualverify/internal/client"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show live status of a running daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			c, err := client.New(cfg.Paths.APIBind, cfg.Paths.APIToken)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			status, err := c.Status(cmd.Context())
			if client.IsUnavailable(err) {
				fmt.Fprintln(out, renderStatusLine("Daemon", statusWarn, "not running", colorize))
				return nil
			}
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, status)
			}

			daemonDetail := fmt.Sprintf("pid %d on %s", status.PID, status.APIBind)
			fmt.Fprintln(out, renderStatusLine("Daemon", statusOK, daemonDetail, colorize))
			workflowKind := statusOK
			workflowDetail := fmt.Sprintf("%d workers", status.Workflow.Workers)
			if !status.Workflow.Running {
				workflowKind = statusError
				workflowDetail = "stopped"
			}
			fmt.Fprintln(out, renderStatusLine("Workflow", workflowKind, workflowDetail, colorize))
			for _, h := range status.Workflow.StageHealth {
				kind := statusOK
				if !h.Ready {
					kind = statusWarn
				}
				fmt.Fprintln(out, renderStatusLine(humanize(h.Name), kind, h.Detail, colorize))
			}
			providers := "none"
			if len(status.Providers) > 0 {
				providers = strings.Join(status.Providers, ", ")
			}
			fmt.Fprintf(out, "Evidence providers: %s\n", providers)
			if status.Workflow.LastError != "" {
				fmt.Fprintf(out, "Last error: %s\n", status.Workflow.LastError)
			}

			if len(status.Workflow.QueueStats) > 0 {
				names := make([]string, 0, len(status.Workflow.QueueStats))
				for name := range status.Workflow.QueueStats {
					names = append(names, name)
				}
				sort.Strings(names)
				rows := make([][]string, 0, len(names))
				for _, name := range names {
					rows = append(rows, []string{humanize(name), strconv.Itoa(status.Workflow.QueueStats[name])})
				}
				fmt.Fprint(out, renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
