package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"wax/internal/ipc"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON jsonOutput
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and session status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.dialClient()
			if err != nil {
				if asJSON.enabled {
					return asJSON.write(cmd, ipc.StatusResponse{})
				}
				colorize := shouldColorize(cmd.OutOrStdout())
				fmt.Fprintln(cmd.OutOrStdout(), renderStatusLine("Daemon", statusError, "Not running", colorize))
				return nil
			}
			defer client.Close()

			status, err := client.Status()
			if err != nil {
				return err
			}
			if asJSON.enabled {
				return asJSON.write(cmd, status)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			lines := renderSectionHeader("Daemon", colorize)
			daemonKind, daemonMessage := statusError, "Not running"
			if status.Running {
				daemonKind, daemonMessage = statusOK, "Running (pid "+strconv.Itoa(status.PID)+")"
			}
			lines = append(lines,
				renderStatusLine("Daemon", daemonKind, daemonMessage, colorize),
				renderStatusLine("Session index", statusInfo, status.IndexPath, colorize),
				renderStatusLine("Lock", statusInfo, status.LockPath, colorize),
				renderStatusLine("Log", statusInfo, status.LogPath, colorize),
				"",
			)
			lines = append(lines, renderSectionHeader("Session", colorize)...)
			lines = append(lines, sessionLines(status.Session, colorize)...)
			if len(status.Dependencies) > 0 {
				lines = append(lines, "")
				lines = append(lines, renderSectionHeader("Dependencies", colorize)...)
				lines = append(lines, dependencyLines(status.Dependencies, colorize)...)
			}
			for _, line := range lines {
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
	asJSON.register(cmd, "status")
	return cmd
}
