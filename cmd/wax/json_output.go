package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

// jsonOutput backs the --json flag shared by status and sessions.
type jsonOutput struct {
	enabled bool
}

func (j *jsonOutput) register(cmd *cobra.Command, subject string) {
	cmd.Flags().BoolVar(&j.enabled, "json", false, "Output "+subject+" as JSON")
}

// write prints v as indented JSON. HTML escaping is off so phrase text and
// session paths stay readable when piped to jq.
func (j *jsonOutput) write(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
