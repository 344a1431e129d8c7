package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"wax/internal/eventlog"
	"wax/internal/logs"
	"wax/internal/sessionindex"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var session string
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the daemon log or a session event log",
		Long: "Show the last lines of the daemon log. With --session, show the event log of\n" +
			"that session instead; pass \"latest\" for the most recent one.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := cfg.DaemonLogPath()
			if strings.TrimSpace(session) != "" {
				path, err = sessionLogPath(cmd, ctx, session)
				if err != nil {
					return err
				}
			}

			tail, offset, err := logs.Last(path, lines)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, line := range tail {
				fmt.Fprintln(out, line)
			}
			if !follow {
				return nil
			}
			return logs.Follow(cmd.Context(), path, offset, logs.DefaultPollInterval, func(line string) error {
				_, err := fmt.Fprintln(out, line)
				return err
			})
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing lines as they are written")
	cmd.Flags().StringVar(&session, "session", "", "Session id, or \"latest\", whose event log to show")
	return cmd
}

func sessionLogPath(cmd *cobra.Command, ctx *commandContext, id string) (string, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return "", err
	}
	index, err := sessionindex.Open(cfg)
	if err != nil {
		return "", fmt.Errorf("open session index: %w", err)
	}
	defer index.Close()

	id = strings.TrimSpace(id)
	var entry *sessionindex.Entry
	if strings.EqualFold(id, "latest") {
		entries, err := index.List(cmd.Context(), 1)
		if err != nil {
			return "", err
		}
		if len(entries) > 0 {
			entry = &entries[0]
		}
	} else {
		entry, err = index.Get(cmd.Context(), id)
		if err != nil {
			return "", err
		}
	}
	if entry == nil {
		return "", fmt.Errorf("session %q not found in %s", id, index.Path())
	}
	return filepath.Join(entry.Dir, eventlog.FileName), nil
}
