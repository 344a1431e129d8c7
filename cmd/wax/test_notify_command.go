package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"wax/internal/ipc"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification through the daemon",
		Long: "Ask the daemon to send a test notification through every configured channel\n" +
			"(desktop and ntfy). Sticky session errors use the same channels.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.TestNotification()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if !resp.Sent {
					fmt.Fprintln(out, resp.Message)
					return nil
				}
				fmt.Fprintf(out, "Test notification sent via %s\n", strings.Join(resp.Channels, ", "))
				return nil
			})
		},
	}
}
