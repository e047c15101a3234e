package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/creative-compliance/internal/compliance"
)

var sanitizeCmd = &cobra.Command{
	Use:   "sanitize [text...]",
	Short: "Replace prohibited claims in copy",
	Long:  "Prints the copy with prohibited terms replaced by their compliant alternatives, followed by each hit.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSanitize,
}

func init() {
	rootCmd.AddCommand(sanitizeCmd)
}

func runSanitize(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, " ")
	out := cmd.OutOrStdout()

	hits := compliance.FindProhibited(text)
	fmt.Fprintln(out, compliance.Sanitize(text))
	for _, h := range hits {
		line := fmt.Sprintf("  - %q (%s)", h.Term, h.Category)
		if h.Replacement != "" {
			line += fmt.Sprintf(" -> %q", h.Replacement)
		}
		fmt.Fprintln(out, line)
	}
	return nil
}
