package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"reelsmith/internal/api"
	"reelsmith/internal/queue"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <topic>",
		Short: "Queue a new content topic for production",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			topic := strings.TrimSpace(strings.Join(args, " "))
			item, err := ctx.client().addTopic(cmd.Context(), topic)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Queued item %d: %s\n", item.ID, item.Topic)
			return nil
		},
	}
}

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Queue management",
	}
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueShowCommand(ctx))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))
	queueCmd.AddCommand(newQueueRemoveCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))
	queueCmd.AddCommand(newQueueResetCommand(ctx))
	queueCmd.AddCommand(newQueueHealthCommand(ctx))
	return queueCmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var statuses []string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queue items",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, raw := range statuses {
				if _, ok := queue.ParseStatus(raw); !ok {
					return fmt.Errorf("unknown status %q", raw)
				}
			}
			items, err := ctx.client().listQueue(cmd.Context(), statuses)
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(stdout, "Queue is empty")
				return nil
			}
			rows := make([][]string, 0, len(items))
			for _, item := range items {
				rows = append(rows, []string{
					strconv.FormatInt(item.ID, 10),
					item.Topic,
					titleOrDash(item.Title),
					item.Status,
					fmt.Sprintf("%.0f%%", item.ProgressPercent),
					item.ProgressMessage,
				})
			}
			fmt.Fprintln(stdout, renderTable(
				[]string{"ID", "Topic", "Title", "Status", "Progress", "Message"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&statuses, "status", nil, "Filter by status (repeatable)")
	return cmd
}

func newQueueShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a queue item in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid queue item id %q", args[0])
			}
			item, err := ctx.client().getItem(cmd.Context(), id)
			if err != nil {
				return err
			}
			printItemDetail(cmd, item)
			return nil
		},
	}
}

func printItemDetail(cmd *cobra.Command, item api.QueueItem) {
	stdout := cmd.OutOrStdout()
	fmt.Fprintf(stdout, "ID:        %d\n", item.ID)
	fmt.Fprintf(stdout, "Topic:     %s\n", item.Topic)
	fmt.Fprintf(stdout, "Title:     %s\n", titleOrDash(item.Title))
	fmt.Fprintf(stdout, "Status:    %s\n", item.Status)
	fmt.Fprintf(stdout, "Progress:  %.0f%% %s\n", item.ProgressPercent, item.ProgressMessage)
	if item.AudioFile != "" {
		fmt.Fprintf(stdout, "Audio:     %s\n", item.AudioFile)
	}
	if item.SubtitleFile != "" {
		fmt.Fprintf(stdout, "Captions:  %s\n", item.SubtitleFile)
	}
	if item.VideoFile != "" {
		fmt.Fprintf(stdout, "Video:     %s\n", item.VideoFile)
	}
	if item.FinalURL != "" {
		fmt.Fprintf(stdout, "URL:       %s\n", item.FinalURL)
	}
	if item.ErrorMessage != "" {
		fmt.Fprintf(stdout, "Error:     %s\n", item.ErrorMessage)
	}
	if item.NeedsReview {
		fmt.Fprintf(stdout, "Review:    %s\n", item.ReviewReason)
	}
	fmt.Fprintf(stdout, "Created:   %s\n", item.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(stdout, "Updated:   %s\n", item.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [id...]",
		Short: "Retry failed items (all failed items when no ids are given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			updated, err := ctx.client().retry(cmd.Context(), ids)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Retried %d item(s)\n", updated)
			return nil
		},
	}
}

func newQueueRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a queue item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid queue item id %q", args[0])
			}
			if err := ctx.client().removeItem(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed item %d\n", id)
			return nil
		},
	}
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var completed, failed bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear queue items",
		RunE: func(cmd *cobra.Command, args []string) error {
			if completed && failed {
				return fmt.Errorf("--completed and --failed are mutually exclusive")
			}
			scope := "all"
			if completed {
				scope = "completed"
			}
			if failed {
				scope = "failed"
			}
			removed, err := ctx.client().clear(cmd.Context(), scope)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d item(s)\n", removed)
			return nil
		},
	}
	cmd.Flags().BoolVar(&completed, "completed", false, "Clear only completed items")
	cmd.Flags().BoolVar(&failed, "failed", false, "Clear only failed items")
	return cmd
}

func newQueueResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Roll in-flight items back to the start of their stage",
		RunE: func(cmd *cobra.Command, args []string) error {
			updated, err := ctx.client().reset(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reset %d item(s)\n", updated)
			return nil
		},
	}
}

func newQueueHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show aggregate queue diagnostics",
		RunE: func(cmd *cobra.Command, args []string) error {
			health, err := ctx.client().health(cmd.Context())
			if err != nil {
				return err
			}
			rows := [][]string{
				{"Total", strconv.Itoa(health.Total)},
				{"Pending", strconv.Itoa(health.Pending)},
				{"Processing", strconv.Itoa(health.Processing)},
				{"Failed", strconv.Itoa(health.Failed)},
				{"Review", strconv.Itoa(health.Review)},
				{"Completed", strconv.Itoa(health.Completed)},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Metric", "Count"},
				rows,
				[]columnAlignment{alignLeft, alignRight},
			))
			return nil
		},
	}
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid queue item id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func titleOrDash(title string) string {
	if strings.TrimSpace(title) == "" {
		return "-"
	}
	return title
}
