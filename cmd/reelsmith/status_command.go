package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"reelsmith/internal/queue"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and queue status",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := ctx.client().status(cmd.Context())
			if err != nil {
				return err
			}

			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			for _, line := range renderSectionHeader("Daemon", colorize) {
				fmt.Fprintln(stdout, line)
			}
			runningKind := statusError
			runningMsg := "stopped"
			if status.Running {
				runningKind = statusOK
				runningMsg = fmt.Sprintf("pid %d", status.PID)
			}
			fmt.Fprintln(stdout, renderStatusLine("Workflow", runningKind, runningMsg, colorize))
			if status.LastError != "" {
				fmt.Fprintln(stdout, renderStatusLine("Last error", statusWarn, status.LastError, colorize))
			}
			fmt.Fprintln(stdout, renderStatusLine("Queue DB", statusInfo, status.QueueDBPath, colorize))
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Stages", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, health := range status.StageHealth {
				kind := statusOK
				message := "ready"
				if !health.Ready {
					kind = statusError
					message = health.Detail
				}
				fmt.Fprintln(stdout, renderStatusLine(health.Name, kind, message, colorize))
			}
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Queue", colorize) {
				fmt.Fprintln(stdout, line)
			}
			rows := buildQueueStatusRows(status.QueueStats)
			if len(rows) == 0 {
				fmt.Fprintln(stdout, "Queue is empty")
				return nil
			}
			fmt.Fprintln(stdout, renderTable(
				[]string{"Status", "Count"},
				rows,
				[]columnAlignment{alignLeft, alignRight},
			))
			return nil
		},
	}
}

// buildQueueStatusRows orders counts by pipeline position, appending any
// unknown statuses alphabetically.
func buildQueueStatusRows(stats map[string]int) [][]string {
	if len(stats) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(stats))
	rows := make([][]string, 0, len(stats))
	for _, status := range queue.AllStatuses() {
		count, ok := stats[string(status)]
		if !ok || count == 0 {
			continue
		}
		seen[string(status)] = struct{}{}
		rows = append(rows, []string{string(status), strconv.Itoa(count)})
	}
	extras := make([]string, 0)
	for status, count := range stats {
		if _, ok := seen[status]; ok || count == 0 {
			continue
		}
		extras = append(extras, status)
	}
	sort.Strings(extras)
	for _, status := range extras {
		rows = append(rows, []string{status, strconv.Itoa(stats[status])})
	}
	return rows
}
