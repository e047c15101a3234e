package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/creative-compliance/internal/observability"
	"github.com/jonathan/creative-compliance/internal/rulebook"
)

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List ad formats and creative profiles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		p := observability.NewPrinter(cmd.OutOrStdout())
		p.PrintFormats(rulebook.Formats())

		keys := make([]string, 0, len(rulebook.Profiles()))
		values := make(map[string]string)
		for _, prof := range rulebook.Profiles() {
			id := string(prof.ID)
			keys = append(keys, id)
			values[id] = fmt.Sprintf("%s, %d tiles allowed, %d tools disabled", prof.Name, len(prof.AllowedTiles), len(prof.DisabledTools))
		}
		p.PrintSummary("PROFILES", keys, values)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(formatsCmd)
}
