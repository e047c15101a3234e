package export

import (
	"archive/zip"
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/creative-compliance/internal/document"
	"github.com/jonathan/creative-compliance/internal/editor"
	"github.com/jonathan/creative-compliance/internal/render"
	"github.com/jonathan/creative-compliance/internal/rulebook"
	"github.com/jonathan/creative-compliance/internal/types"
)

func format(t *testing.T, id string) types.Format {
	t.Helper()
	f, ok := rulebook.FormatByID(id)
	require.True(t, ok)
	return f
}

func packshotURL(t *testing.T) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 40, 60))
	for y := 0; y < 60; y++ {
		for x := 0; x < 40; x++ {
			img.Set(x, y, color.NRGBA{R: 200, G: 30, B: 30, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return render.EncodeDataURL(render.MimePNG, buf.Bytes())
}

func sourceDoc(t *testing.T, withPackshot bool) *document.Document {
	t.Helper()
	c, err := editor.New(format(t, "instagram-feed"), rulebook.DefaultProfile(), editor.Options{})
	require.NoError(t, err)
	if withPackshot {
		_, err = c.AddPackshot(packshotURL(t), 40, 60)
		require.NoError(t, err)
	}
	_, err = c.AddText(document.SubkindHeadline, "Summer Taste")
	require.NoError(t, err)
	_, err = c.AddText(document.SubkindSubheadline, "Chilled and ready")
	require.NoError(t, err)
	return c.Document()
}

func variants() []types.Variant {
	return []types.Variant{
		{ID: "v1", Tone: "bold", Headline: "Big Flavour", Subheadline: "Now in store", PriceType: types.PriceNone,
			BackgroundColor: "#E51C23", TextColor: "#FFFFFF",
			Layout: types.VariantLayout{Packshot: types.Point{X: 0.5, Y: 0.55}, Headline: types.Point{X: 0.5, Y: 0.15}, Subheadline: types.Point{X: 0.5, Y: 0.25}}},
		{ID: "v2", Tone: "premium", Headline: "Quietly Special", Subheadline: "Taste the moment", PriceType: types.PriceNone,
			BackgroundColor: "#1A1A1A", TextColor: "#FFFFFF",
			Layout: types.VariantLayout{Packshot: types.Point{X: 0.3, Y: 0.5}, Headline: types.Point{X: 0.6, Y: 0.2}, Subheadline: types.Point{X: 0.6, Y: 0.3}}},
	}
}

func fixedNow() time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func readZip(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	files := make(map[string][]byte)
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		_ = rc.Close()
		files[f.Name] = b
	}
	return files
}

func TestRun_TwoVariantsThreeFormats(t *testing.T) {
	src := sourceDoc(t, true)
	before, err := document.Serialize(src)
	require.NoError(t, err)

	var events []ProgressEvent
	p := NewPipeline(Options{Concurrency: 2, Now: fixedNow})
	res, err := p.Run(context.Background(), Request{
		Source:       src,
		SourceFormat: format(t, "instagram-feed"),
		Profile:      rulebook.DefaultProfile(),
		Variants:     variants(),
		Formats:      []types.Format{format(t, "instagram-feed"), format(t, "instagram-story"), format(t, "facebook-feed")},
		AutoAdapt:    true,
	}, func(ev ProgressEvent) { events = append(events, ev) })
	require.NoError(t, err)

	files := readZip(t, res.Archive)
	var pngs, jpgs, specs, readmes int
	for name := range files {
		switch {
		case strings.HasSuffix(name, ".png"):
			pngs++
		case strings.HasSuffix(name, ".jpg"):
			jpgs++
		case strings.HasSuffix(name, SpecsName):
			specs++
		case name == ReadmeName:
			readmes++
		}
	}
	assert.Equal(t, 6, pngs)
	assert.Equal(t, 6, jpgs)
	assert.Equal(t, 3, specs)
	assert.Equal(t, 1, readmes)
	assert.Len(t, files, 16)

	require.Len(t, events, 6)
	assert.Equal(t, 100.0, events[len(events)-1].Percent())
	for i, ev := range events {
		assert.Equal(t, i+1, ev.Completed)
		assert.Equal(t, 6, ev.Total)
	}

	assert.Equal(t, ReadmeName, res.Files[0])
	assert.Equal(t, "instagram-feed/instagram-feed-v1.png", res.Files[1])
	assert.Contains(t, files, "instagram-story/instagram-story-v2.jpg")

	story, _, err := image.Decode(bytes.NewReader(files["instagram-story/instagram-story-v1.png"]))
	require.NoError(t, err)
	assert.Equal(t, image.Pt(1080, 1920), story.Bounds().Size())

	spec := string(files["instagram-story/specs.txt"])
	assert.Contains(t, spec, "Dimensions: 1080 x 1920 px")
	assert.Contains(t, spec, "Adapted: yes")
	for _, o := range res.Outputs {
		assert.Equal(t, o.FormatID, o.CheckedFormat)
	}
	assert.NotContains(t, string(files[ReadmeName]), "checked as")

	after, err := document.Serialize(src)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRun_DirectScale(t *testing.T) {
	p := NewPipeline(Options{Now: fixedNow})
	res, err := p.Run(context.Background(), Request{
		Source:       sourceDoc(t, true),
		SourceFormat: format(t, "instagram-feed"),
		Profile:      rulebook.DefaultProfile(),
		Formats:      []types.Format{format(t, "facebook-feed")},
		CanvasWidth:  540,
		Zoom:         0.5,
	}, nil)
	require.NoError(t, err)

	require.Len(t, res.Outputs, 1)
	out := res.Outputs[0]
	assert.False(t, out.Adapted)
	assert.InDelta(t, 1200.0/1080.0, out.Multiplier, 1e-9)
	assert.Equal(t, 1200, out.Width)
	assert.Equal(t, 1200, out.Height)
	assert.Equal(t, "facebook-feed/facebook-feed.png", out.PNGPath)
	assert.Equal(t, "instagram-feed", out.CheckedFormat)

	files := readZip(t, res.Archive)
	assert.Contains(t, string(files["facebook-feed/specs.txt"]), "Adapted: no")
	assert.Contains(t, string(files[ReadmeName]), "| facebook-feed | - |")
	assert.Contains(t, string(files[ReadmeName]), "(checked as instagram-feed) |")
}

func TestRun_ComplianceDoesNotBlock(t *testing.T) {
	p := NewPipeline(Options{Now: fixedNow})
	res, err := p.Run(context.Background(), Request{
		Source:       sourceDoc(t, false),
		SourceFormat: format(t, "instagram-feed"),
		Profile:      rulebook.DefaultProfile(),
		Formats:      []types.Format{format(t, "instagram-feed")},
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, types.StatusNonCompliant, res.Outputs[0].Report.Status)
	readme := string(readZip(t, res.Archive)[ReadmeName])
	assert.Contains(t, readme, "non_compliant")
	assert.Contains(t, readme, "missing-lead-packshot")
}

func TestRun_SafeZonesNotExported(t *testing.T) {
	p := NewPipeline(Options{Now: fixedNow})
	res, err := p.Run(context.Background(), Request{
		Source:       sourceDoc(t, true),
		SourceFormat: format(t, "instagram-feed"),
		Profile:      rulebook.DefaultProfile(),
		Formats:      []types.Format{format(t, "instagram-story")},
		AutoAdapt:    true,
	}, nil)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(readZip(t, res.Archive)["instagram-story/instagram-story.png"]))
	require.NoError(t, err)
	r, g, b, _ := img.At(5, 5).RGBA()
	assert.Equal(t, [3]uint32{0xffff, 0xffff, 0xffff}, [3]uint32{r, g, b})
}

func TestRun_JPEGTargetLowersQuality(t *testing.T) {
	p := NewPipeline(Options{Now: fixedNow})
	res, err := p.Run(context.Background(), Request{
		Source:       sourceDoc(t, true),
		SourceFormat: format(t, "instagram-feed"),
		Profile:      rulebook.DefaultProfile(),
		Formats:      []types.Format{format(t, "instagram-feed")},
		JPEGTargetKB: 1,
	}, nil)
	require.NoError(t, err)

	q := res.Outputs[0].JPEGQuality
	assert.Less(t, q, render.DefaultJPEGQuality)
	assert.GreaterOrEqual(t, q, render.MinJPEGQuality)
}

func TestRun_Deterministic(t *testing.T) {
	req := Request{
		Source:       sourceDoc(t, true),
		SourceFormat: format(t, "instagram-feed"),
		Profile:      rulebook.DefaultProfile(),
		Variants:     variants(),
		Formats:      []types.Format{format(t, "instagram-feed"), format(t, "display-mpu")},
		AutoAdapt:    true,
	}
	a, err := NewPipeline(Options{Concurrency: 4, Now: fixedNow}).Run(context.Background(), req, nil)
	require.NoError(t, err)
	b, err := NewPipeline(Options{Concurrency: 1, Now: fixedNow}).Run(context.Background(), req, nil)
	require.NoError(t, err)

	assert.Equal(t, a.Files, b.Files)
	assert.Equal(t, a.Archive, b.Archive)
}

func TestRun_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPipeline(Options{}).Run(ctx, Request{
		Source:       sourceDoc(t, true),
		SourceFormat: format(t, "instagram-feed"),
		Formats:      []types.Format{format(t, "instagram-feed")},
	}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_InvalidRequests(t *testing.T) {
	feed := format(t, "instagram-feed")
	tests := []struct {
		name  string
		req   Request
		field string
	}{
		{"no source", Request{SourceFormat: feed, Formats: []types.Format{feed}}, "source"},
		{"no formats", Request{Source: document.New(feed.ID), SourceFormat: feed}, "formats"},
		{"duplicate format", Request{Source: document.New(feed.ID), SourceFormat: feed, Formats: []types.Format{feed, feed}}, "formats"},
		{"duplicate variant", Request{Source: document.New(feed.ID), SourceFormat: feed, Formats: []types.Format{feed},
			Variants: []types.Variant{{ID: "a", Headline: "x"}, {ID: "a", Headline: "y"}}}, "variants"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPipeline(Options{}).Run(context.Background(), tt.req, nil)
			var reqErr *RequestError
			require.ErrorAs(t, err, &reqErr)
			assert.Equal(t, tt.field, reqErr.Field)
		})
	}
}

func TestRun_VariantErrorNamesOutput(t *testing.T) {
	_, err := NewPipeline(Options{}).Run(context.Background(), Request{
		Source:       sourceDoc(t, true),
		SourceFormat: format(t, "instagram-feed"),
		Profile:      rulebook.DefaultProfile(),
		Variants:     []types.Variant{{ID: "empty"}},
		Formats:      []types.Format{format(t, "instagram-feed")},
	}, nil)

	var outErr *OutputError
	require.ErrorAs(t, err, &outErr)
	assert.Equal(t, "variant", outErr.Stage)
	assert.Equal(t, "empty", outErr.VariantID)
}
