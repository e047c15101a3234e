package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/creative-compliance/internal/editor"
	"github.com/jonathan/creative-compliance/internal/observability"
	"github.com/jonathan/creative-compliance/internal/rulebook"
)

var (
	adaptDocPath string
	adaptTo      string
	adaptOut     string
	adaptProfile string
)

var adaptCmd = &cobra.Command{
	Use:   "adapt",
	Short: "Re-lay out a creative for another ad format",
	RunE:  runAdapt,
}

func init() {
	rootCmd.AddCommand(adaptCmd)

	adaptCmd.Flags().StringVarP(&adaptDocPath, "doc", "d", "", "Path to the serialized creative (required)")
	adaptCmd.Flags().StringVarP(&adaptTo, "to", "t", "", "Target format id (required)")
	adaptCmd.Flags().StringVarP(&adaptOut, "out", "o", "", "Output path for the adapted creative (stdout when empty)")
	adaptCmd.Flags().StringVarP(&adaptProfile, "profile", "p", "", "Creative profile")

	mustRequire(adaptCmd, "doc", "to")
}

func runAdapt(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	doc, f, err := readDocument(adaptDocPath)
	if err != nil {
		return err
	}
	to, ok := rulebook.FormatByID(adaptTo)
	if !ok {
		return fmt.Errorf("unknown format %q", adaptTo)
	}
	p, err := resolveProfile(adaptProfile, cfg.ProfileID())
	if err != nil {
		return err
	}

	ctl, err := editor.Open(doc, f, p, editor.Options{Logger: log})
	if err != nil {
		return err
	}
	if err := ctl.SwitchFormat(to); err != nil {
		return err
	}
	data, err := ctl.Serialize()
	if err != nil {
		return err
	}

	if adaptOut == "" {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	}
	if err := os.WriteFile(adaptOut, data, 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	observability.NewPrinter(cmd.ErrOrStderr()).PrintReport(ctl.Report())
	fmt.Fprintf(cmd.OutOrStdout(), "Adapted %s -> %s: %s\n", f.ID, to.ID, adaptOut)
	return nil
}
