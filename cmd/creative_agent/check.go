package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/creative-compliance/internal/compliance"
	"github.com/jonathan/creative-compliance/internal/observability"
	"github.com/jonathan/creative-compliance/internal/types"
)

var (
	checkDocPath string
	checkProfile string
	checkJSON    bool
	checkStrict  bool
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check a creative against the retail media guidelines",
	Long:  "Runs every compliance rule against a serialized creative and prints the report.",
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVarP(&checkDocPath, "doc", "d", "", "Path to the serialized creative (required)")
	checkCmd.Flags().StringVarP(&checkProfile, "profile", "p", "", "Creative profile: STANDARD, CLUBCARD or LOW_EVERYDAY_PRICE")
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "Print the report as JSON")
	checkCmd.Flags().BoolVar(&checkStrict, "strict", false, "Exit non-zero unless the creative is compliant")

	mustRequire(checkCmd, "doc")
}

func runCheck(cmd *cobra.Command, _ []string) error {
	cfg, _, err := setup(cmd)
	if err != nil {
		return err
	}
	doc, f, err := readDocument(checkDocPath)
	if err != nil {
		return err
	}
	p, err := resolveProfile(checkProfile, cfg.ProfileID())
	if err != nil {
		return err
	}

	report := compliance.Check(doc, p, f)
	if checkJSON {
		if err := writeJSON(cmd.OutOrStdout(), "", report); err != nil {
			return err
		}
	} else {
		observability.NewPrinter(cmd.OutOrStdout()).PrintReport(report)
	}

	if checkStrict && report.Status != types.StatusCompliant {
		return fmt.Errorf("creative is %s: %d errors, %d warnings", report.Status, len(report.Errors), len(report.Warnings))
	}
	return nil
}
