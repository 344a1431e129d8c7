package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"wax/internal/ipc"
)

func newSessionCommands(ctx *commandContext) []*cobra.Command {
	var recorderNames []string
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start a recording session",
		Long: "Start a recording session with the given recorders (default: session.default_recorders).\n" +
			"The repository recorder is always added.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				session, err := client.StartSession(recorderNames)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Recording session %s started\n", session.ID)
				fmt.Fprintf(out, "Directory: %s\n", session.Dir)
				fmt.Fprintf(out, "Recorders: %s\n", strings.Join(session.Recorders, ", "))
				return nil
			})
		},
	}
	startCmd.Flags().StringArrayVarP(&recorderNames, "recorder", "r", nil, "Recorder to enable (repeatable: obs, hotkey, editor)")

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the recording session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				session, err := client.StopSession()
				if session != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "Recording session %s stopped (%d phrases)\n", session.ID, session.Phrases)
				}
				return err
			})
		},
	}

	return []*cobra.Command{startCmd, stopCmd}
}
