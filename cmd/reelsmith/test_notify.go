package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification through the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := ctx.client().testNotification(cmd.Context())
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()
			if result.Sent {
				fmt.Fprintln(stdout, "Test notification sent")
				return nil
			}
			if result.Message != "" {
				fmt.Fprintf(stdout, "Notification not sent: %s\n", result.Message)
				return nil
			}
			fmt.Fprintln(stdout, "Notification not sent")
			return nil
		},
	}
}
