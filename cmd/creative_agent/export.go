package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/creative-compliance/internal/export"
	"github.com/jonathan/creative-compliance/internal/observability"
	"github.com/jonathan/creative-compliance/internal/types"
)

var (
	exportDocPath      string
	exportFormats      string
	exportVariantsPath string
	exportAutoAdapt    bool
	exportCanvasWidth  float64
	exportZoom         float64
	exportJPEGTargetKB int
	exportOut          string
	exportProfile      string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Render a creative to PNG and JPEG in several formats",
	Long: "Renders the creative, optionally once per variant, in every requested format and packs the " +
		"images with per-format specs and a README into a zip archive.",
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportDocPath, "doc", "d", "", "Path to the serialized creative (required)")
	exportCmd.Flags().StringVarP(&exportFormats, "formats", "f", "", "Comma separated format ids; defaults to the creative's own format")
	exportCmd.Flags().StringVar(&exportVariantsPath, "variants", "", "Path to a JSON array of variants to export in turn")
	exportCmd.Flags().BoolVar(&exportAutoAdapt, "auto-adapt", true, "Re-lay out the creative for other formats instead of scaling it")
	exportCmd.Flags().Float64Var(&exportCanvasWidth, "canvas-width", 0, "On-screen canvas width the direct scale derives from")
	exportCmd.Flags().Float64Var(&exportZoom, "zoom", 1, "On-screen zoom the direct scale derives from")
	exportCmd.Flags().IntVar(&exportJPEGTargetKB, "jpeg-target-kb", 0, "JPEG size target in KB (defaults to config)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "creatives.zip", "Output archive path")
	exportCmd.Flags().StringVarP(&exportProfile, "profile", "p", "", "Creative profile")

	mustRequire(exportCmd, "doc")
}

func runExport(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	doc, f, err := readDocument(exportDocPath)
	if err != nil {
		return err
	}
	p, err := resolveProfile(exportProfile, cfg.ProfileID())
	if err != nil {
		return err
	}
	formats := []types.Format{f}
	if exportFormats != "" {
		if formats, err = resolveFormats(exportFormats); err != nil {
			return err
		}
	}
	var variants []types.Variant
	if exportVariantsPath != "" {
		data, err := os.ReadFile(exportVariantsPath)
		if err != nil {
			return fmt.Errorf("failed to read variants file: %w", err)
		}
		if err := json.Unmarshal(data, &variants); err != nil {
			return fmt.Errorf("failed to parse variants file: %w", err)
		}
	}
	target := exportJPEGTargetKB
	if target == 0 {
		target = cfg.JPEGTargetKB
	}

	pipeline := export.NewPipeline(export.Options{Concurrency: cfg.ExportWorkers, Logger: log})
	errOut := cmd.ErrOrStderr()
	res, err := pipeline.Run(cmd.Context(), export.Request{
		Source:       doc,
		SourceFormat: f,
		Profile:      p,
		Variants:     variants,
		Formats:      formats,
		AutoAdapt:    exportAutoAdapt,
		CanvasWidth:  exportCanvasWidth,
		Zoom:         exportZoom,
		JPEGTargetKB: target,
	}, func(ev export.ProgressEvent) {
		fmt.Fprintf(errOut, "\r[%3.0f%%] %d/%d %s", ev.Percent(), ev.Completed, ev.Total, ev.FormatID)
		if ev.Completed == ev.Total {
			fmt.Fprintln(errOut)
		}
	})
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	if err := os.WriteFile(exportOut, res.Archive, 0o644); err != nil {
		return fmt.Errorf("failed to write archive: %w", err)
	}

	keys := []string{"Archive", "Files", "Outputs", "Duration"}
	values := map[string]string{
		"Archive":  exportOut,
		"Files":    strconv.Itoa(len(res.Files)),
		"Outputs":  strconv.Itoa(len(res.Outputs)),
		"Duration": res.Duration.Round(time.Millisecond).String(),
	}
	for _, o := range res.Outputs {
		if o.Report.Status != types.StatusCompliant {
			key := fmt.Sprintf("%s %s", o.FormatID, o.VariantID)
			keys = append(keys, key)
			values[key] = string(o.Report.Status)
		}
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintSummary("EXPORT", keys, values)
	return nil
}
