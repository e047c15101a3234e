package export

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jonathan/creative-compliance/internal/types"
)

// ReadmeName is the manifest at the archive root
const ReadmeName = "README.md"

// SpecsName is the per-format specification file
const SpecsName = "specs.txt"

type entry struct {
	name string
	data []byte
}

// writeArchive packs the outputs in request order: README first, then each
// format directory with its images followed by specs.txt.
func writeArchive(req Request, outputs []Output, generated time.Time) ([]byte, []string, error) {
	byFormat := make(map[string][]Output)
	for _, o := range outputs {
		byFormat[o.FormatID] = append(byFormat[o.FormatID], o)
	}

	entries := []entry{{name: ReadmeName, data: []byte(Readme(req, outputs, generated))}}
	for _, f := range req.Formats {
		outs := byFormat[f.ID]
		for _, o := range outs {
			entries = append(entries, entry{name: o.PNGPath, data: o.png}, entry{name: o.JPEGPath, data: o.jpeg})
		}
		entries = append(entries, entry{name: f.ID + "/" + SpecsName, data: []byte(Specs(f, req, outs))})
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		method := zip.Deflate
		if strings.HasSuffix(e.name, ".png") || strings.HasSuffix(e.name, ".jpg") {
			method = zip.Store
		}
		w, err := zw.CreateHeader(&zip.FileHeader{Name: e.name, Method: method, Modified: generated})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to add %s to archive: %w", e.name, err)
		}
		if _, err := w.Write(e.data); err != nil {
			return nil, nil, fmt.Errorf("failed to write %s to archive: %w", e.name, err)
		}
		files = append(files, e.name)
	}
	if err := zw.Close(); err != nil {
		return nil, nil, fmt.Errorf("failed to finish archive: %w", err)
	}
	return buf.Bytes(), files, nil
}

// Specs describes one format directory
func Specs(f types.Format, req Request, outs []Output) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Format: %s (%s)\n", f.Name, f.ID)
	fmt.Fprintf(&sb, "Dimensions: %d x %d px\n", f.Width, f.Height)
	fmt.Fprintf(&sb, "Aspect ratio: %s\n", f.Ratio)
	fmt.Fprintf(&sb, "Layout: %s\n", f.Config.Layout)
	adapted := "no"
	if len(outs) > 0 && outs[0].Adapted {
		adapted = "yes"
	}
	fmt.Fprintf(&sb, "Adapted: %s\n", adapted)
	if adapted == "no" && len(outs) > 0 {
		fmt.Fprintf(&sb, "Scale: %.3fx of %s\n", outs[0].Multiplier, req.SourceFormat.ID)
	}
	fmt.Fprintf(&sb, "Profile: %s\n", req.Profile.ID)
	sb.WriteString("\nFiles:\n")
	for _, o := range outs {
		fmt.Fprintf(&sb, "  %s  %dx%d  PNG  %s\n", baseName(o.PNGPath), o.Width, o.Height, kb(o.PNGBytes))
		fmt.Fprintf(&sb, "  %s  %dx%d  JPEG q=%.2f  %s\n", baseName(o.JPEGPath), o.Width, o.Height, o.JPEGQuality, kb(o.JPEGBytes))
	}
	return sb.String()
}

// Readme is the archive manifest with the compliance status of every output
func Readme(req Request, outputs []Output, generated time.Time) string {
	var sb strings.Builder
	sb.WriteString("# Creative Export\n\n")
	fmt.Fprintf(&sb, "Generated: %s\n", generated.UTC().Format(time.RFC3339))
	fmt.Fprintf(&sb, "Source format: %s (%d x %d)\n", req.SourceFormat.ID, req.SourceFormat.Width, req.SourceFormat.Height)
	fmt.Fprintf(&sb, "Profile: %s\n", req.Profile.ID)
	variants := len(req.Variants)
	if variants == 0 {
		variants = 1
	}
	fmt.Fprintf(&sb, "Variants: %d, formats: %d, outputs: %d\n\n", variants, len(req.Formats), len(outputs))

	sb.WriteString("## Manifest\n\n")
	sb.WriteString("| Format | Variant | Files | Size | Compliance |\n")
	sb.WriteString("|---|---|---|---|---|\n")
	for _, o := range outputs {
		variant := o.VariantID
		if variant == "" {
			variant = "-"
		}
		fmt.Fprintf(&sb, "| %s | %s | %s, %s | %dx%d | %s |\n",
			o.FormatID, variant, o.PNGPath, o.JPEGPath, o.Width, o.Height, checkedStatus(o))
	}

	sb.WriteString("\n## Compliance\n\n")
	clean := true
	for _, o := range outputs {
		if len(o.Report.Errors) == 0 && len(o.Report.Warnings) == 0 {
			continue
		}
		clean = false
		label := o.FormatID
		if o.VariantID != "" {
			label += " / " + o.VariantID
		}
		fmt.Fprintf(&sb, "### %s: %s\n\n", label, checkedStatus(o))
		for _, v := range o.Report.Errors {
			fmt.Fprintf(&sb, "- error `%s`: %s\n", v.CheckID, v.Problem)
		}
		for _, v := range o.Report.Warnings {
			fmt.Fprintf(&sb, "- warning `%s`: %s\n", v.CheckID, v.Problem)
		}
		sb.WriteString("\n")
	}
	if clean {
		sb.WriteString("All outputs are compliant.\n")
	}
	return sb.String()
}

func checkedStatus(o Output) string {
	if o.CheckedFormat != "" && o.CheckedFormat != o.FormatID {
		return fmt.Sprintf("%s (checked as %s)", o.Report.Status, o.CheckedFormat)
	}
	return string(o.Report.Status)
}

func baseName(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

func kb(n int) string {
	return fmt.Sprintf("%.1f KB", float64(n)/1024)
}
