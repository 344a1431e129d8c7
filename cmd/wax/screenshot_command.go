package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"wax/internal/ipc"
)

func newScreenshotCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "screenshot NAME",
		Short: "Take a named screenshot in the current capture window",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				if err := client.Screenshot(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Screenshot %q recorded\n", args[0])
				return nil
			})
		},
	}
}
