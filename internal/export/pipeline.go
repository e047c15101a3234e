// Package export renders creatives for every chosen variant and format and
// packages them into a single zip archive.
package export

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/creative-compliance/internal/document"
	"github.com/jonathan/creative-compliance/internal/editor"
	"github.com/jonathan/creative-compliance/internal/observability"
	"github.com/jonathan/creative-compliance/internal/render"
	"github.com/jonathan/creative-compliance/internal/types"
)

// Request describes one export run
type Request struct {
	Source       *document.Document
	SourceFormat types.Format
	Profile      types.Profile
	// Variants to apply in turn; none exports the source as it is
	Variants []types.Variant
	Formats  []types.Format
	// AutoAdapt re-lays out the creative for other formats instead of scaling it
	AutoAdapt bool
	// CanvasWidth and Zoom describe the on-screen canvas the direct scale is derived from
	CanvasWidth  float64
	Zoom         float64
	JPEGTargetKB int
}

// ProgressEvent reports completed outputs
type ProgressEvent struct {
	Completed int
	Total     int
	FormatID  string
	VariantID string
}

// Percent returns the completed share in [0, 100]
func (e ProgressEvent) Percent() float64 {
	if e.Total == 0 {
		return 100
	}
	return float64(e.Completed) * 100 / float64(e.Total)
}

// Output is one rendered variant in one format
type Output struct {
	FormatID    string
	VariantID   string
	PNGPath     string
	JPEGPath    string
	Width       int
	Height      int
	Adapted     bool
	Multiplier  float64
	JPEGQuality float64
	PNGBytes    int
	JPEGBytes   int
	Report      types.ComplianceReport
	// CheckedFormat is the format Report was computed against. Direct-scaled
	// outputs keep the source layout, so their report is the source check.
	CheckedFormat string

	png  []byte
	jpeg []byte
}

// Result is the outcome of a run
type Result struct {
	Archive  []byte
	Files    []string
	Outputs  []Output
	Duration time.Duration
}

// Options configures a Pipeline
type Options struct {
	// Concurrency bounds parallel rasterization; zero uses the CPU count
	Concurrency int
	Logger      *observability.Logger
	Now         func() time.Time
}

// Pipeline renders and packages exports. Decoded images are shared across runs.
type Pipeline struct {
	concurrency int
	cache       *render.ImageCache
	log         *observability.Logger
	now         func() time.Time
}

// NewPipeline creates a pipeline
func NewPipeline(opts Options) *Pipeline {
	n := opts.Concurrency
	if n <= 0 {
		n = runtime.NumCPU()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Pipeline{
		concurrency: n,
		cache:       render.NewImageCache(),
		log:         observability.OrNop(opts.Logger),
		now:         now,
	}
}

type job struct {
	index   int
	format  types.Format
	variant *types.Variant
}

func (r Request) validate() error {
	if r.Source == nil {
		return &RequestError{Field: "source", Message: "no document"}
	}
	if r.SourceFormat.ID == "" {
		return &RequestError{Field: "sourceFormat", Message: "no source format"}
	}
	if len(r.Formats) == 0 {
		return &RequestError{Field: "formats", Message: "choose at least one format"}
	}
	seen := make(map[string]bool)
	for _, f := range r.Formats {
		if seen[f.ID] {
			return &RequestError{Field: "formats", Message: fmt.Sprintf("format %s chosen twice", f.ID)}
		}
		seen[f.ID] = true
	}
	seen = make(map[string]bool)
	for _, v := range r.Variants {
		if v.ID == "" || seen[v.ID] {
			return &RequestError{Field: "variants", Message: "variant ids must be unique and non-empty"}
		}
		seen[v.ID] = true
	}
	return nil
}

// logicalWidth is the document width the on-screen canvas shows
func (r Request) logicalWidth() float64 {
	w, zoom := r.CanvasWidth, r.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	if w <= 0 {
		return float64(r.SourceFormat.Width)
	}
	return w / zoom
}

func (r Request) jobs() []job {
	var jobs []job
	for _, f := range r.Formats {
		if len(r.Variants) == 0 {
			jobs = append(jobs, job{index: len(jobs), format: f})
			continue
		}
		for i := range r.Variants {
			jobs = append(jobs, job{index: len(jobs), format: f, variant: &r.Variants[i]})
		}
	}
	return jobs
}

// Run renders every variant in every format and returns the packaged archive.
// Compliance findings are recorded in the README and never stop the export.
func (p *Pipeline) Run(ctx context.Context, req Request, progress func(ProgressEvent)) (*Result, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	start := p.now()
	jobs := req.jobs()
	outputs := make([]Output, len(jobs))

	var (
		mu        sync.Mutex
		completed int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for _, j := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out, err := p.render(req, j)
			if err != nil {
				return err
			}
			outputs[j.index] = out
			observability.ExportOutputs.WithLabelValues(j.format.ID).Inc()

			mu.Lock()
			completed++
			ev := ProgressEvent{Completed: completed, Total: len(jobs), FormatID: out.FormatID, VariantID: out.VariantID}
			if progress != nil {
				progress(ev)
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	generated := p.now()
	archive, files, err := writeArchive(req, outputs, generated)
	if err != nil {
		return nil, err
	}
	duration := p.now().Sub(start)
	observability.ExportDuration.Observe(duration.Seconds())
	p.log.Info("export finished", "outputs", len(outputs), "formats", len(req.Formats), "bytes", len(archive), "duration", duration)
	return &Result{Archive: archive, Files: files, Outputs: outputs, Duration: duration}, nil
}

// render produces one output. It works on a private controller opened from the
// source, so the source document is never touched.
func (p *Pipeline) render(req Request, j job) (Output, error) {
	out := Output{FormatID: j.format.ID}
	fail := func(stage string, err error) (Output, error) {
		return Output{}, &OutputError{FormatID: j.format.ID, VariantID: out.VariantID, Stage: stage, Cause: err}
	}

	ctrl, err := editor.Open(req.Source, req.SourceFormat, req.Profile, editor.Options{HistoryCap: editor.MinHistoryCap, Logger: p.log})
	if err != nil {
		return fail("open", err)
	}
	if j.variant != nil {
		out.VariantID = j.variant.ID
		if err := ctrl.ApplyVariant(*j.variant); err != nil {
			return fail("variant", err)
		}
	}

	target := req.SourceFormat
	multiplier := 1.0
	if j.format.ID != req.SourceFormat.ID && req.AutoAdapt {
		if err := ctrl.SwitchFormat(j.format); err != nil {
			return fail("adapt", err)
		}
		target = j.format
		out.Adapted = true
	} else {
		multiplier = float64(j.format.Width) / req.logicalWidth()
	}
	out.Multiplier = multiplier
	out.Report = ctrl.Report()
	out.CheckedFormat = target.ID

	doc := ctrl.Document()
	if err := doc.Apply(document.RemoveMatching{Match: func(e *document.Element) bool {
		return e.Kind == document.KindSafeZone
	}}); err != nil {
		return fail("strip-safe-zones", err)
	}
	scene := render.NewScene(p.cache)
	if err := scene.Sync(doc); err != nil {
		return fail("decode", err)
	}
	img, err := scene.Rasterize(target, render.Options{Multiplier: multiplier})
	if err != nil {
		return fail("rasterize", err)
	}
	b := img.Bounds()
	out.Width, out.Height = b.Dx(), b.Dy()

	if out.png, err = render.EncodePNG(img); err != nil {
		return fail("png", err)
	}
	if out.jpeg, out.JPEGQuality, err = render.FitJPEG(img, req.JPEGTargetKB); err != nil {
		return fail("jpeg", err)
	}
	out.PNGBytes, out.JPEGBytes = len(out.png), len(out.jpeg)

	base := j.format.ID
	if len(req.Variants) > 1 {
		base += "-" + out.VariantID
	}
	out.PNGPath = j.format.ID + "/" + base + ".png"
	out.JPEGPath = j.format.ID + "/" + base + ".jpg"
	return out, nil
}
