package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"wax/internal/sessionindex"
)

func newSessionsCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON jsonOutput
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List recorded sessions, newest first",
		Long: "List recorded sessions from the session index, newest first. The index is read\n" +
			"directly, so this works while the daemon is stopped.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			index, err := sessionindex.Open(cfg)
			if err != nil {
				return fmt.Errorf("open session index: %w", err)
			}
			defer index.Close()

			entries, err := index.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if asJSON.enabled {
				return asJSON.write(cmd, entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No sessions recorded")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderSessionTable(entries))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of sessions to list (0 for all)")
	asJSON.register(cmd, "sessions")
	return cmd
}
