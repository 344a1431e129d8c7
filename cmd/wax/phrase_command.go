package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"wax/internal/config"
	"wax/internal/ipc"
	"wax/internal/recognizer"
)

func newPhraseCommand(ctx *commandContext) *cobra.Command {
	phraseCmd := &cobra.Command{
		Use:   "phrase",
		Short: "Forward recognizer phrase events to the daemon",
		Long: "Forward recognizer phrase events to the daemon. Each subcommand reads one JSON\n" +
			"event document from stdin (or --file) and prints what the daemon did with it.",
	}

	var preFile string
	preCmd := &cobra.Command{
		Use:   "pre",
		Short: "Forward a pre-phrase event",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readEvent(cmd, preFile)
			if err != nil {
				return err
			}
			event, err := recognizer.DecodePrePhrase(data)
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.PrePhrase(event)
				if err != nil {
					return err
				}
				printPhraseResponse(cmd, resp)
				return nil
			})
		},
	}
	preCmd.Flags().StringVarP(&preFile, "file", "f", "", "Read the event from a file instead of stdin")

	var postFile string
	postCmd := &cobra.Command{
		Use:   "post",
		Short: "Forward a post-phrase event",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readEvent(cmd, postFile)
			if err != nil {
				return err
			}
			event, err := recognizer.DecodePostPhrase(data)
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.PostPhrase(event)
				if err != nil {
					return err
				}
				printPhraseResponse(cmd, resp)
				return nil
			})
		},
	}
	postCmd.Flags().StringVarP(&postFile, "file", "f", "", "Read the event from a file instead of stdin")

	phraseCmd.AddCommand(preCmd, postCmd)
	return phraseCmd
}

func readEvent(cmd *cobra.Command, path string) ([]byte, error) {
	path = strings.TrimSpace(path)
	if path == "" || path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read event from stdin: %w", err)
		}
		return data, nil
	}
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, fmt.Errorf("read event file: %w", err)
	}
	return data, nil
}

func printPhraseResponse(cmd *cobra.Command, resp *ipc.PhraseResponse) {
	out := cmd.OutOrStdout()
	line := resp.Outcome
	if resp.PhraseID != "" {
		line += " " + resp.PhraseID
	}
	fmt.Fprintln(out, line)
	if resp.Warnings > 0 {
		fmt.Fprintf(out, "%d capture warning(s); see notifications\n", resp.Warnings)
	}
}
