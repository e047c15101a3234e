package layout

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/creative-compliance/internal/document"
	"github.com/jonathan/creative-compliance/internal/rulebook"
	"github.com/jonathan/creative-compliance/internal/types"
)

const pixel = "data:image/png;base64,iVBORw0KGgo="

func format(t *testing.T, id string) types.Format {
	t.Helper()
	f, ok := rulebook.FormatByID(id)
	require.True(t, ok)
	return f
}

type fixture struct {
	doc      *document.Document
	lead     *document.Element
	second   *document.Element
	headline *document.Element
	sub      *document.Element
	tag      *document.Element
	drink    *document.Element
	logo     *document.Element
	tiles    []*document.Element
}

func squareCreative(t *testing.T) fixture {
	t.Helper()
	d := document.New("instagram-feed")
	fx := fixture{doc: d}

	fx.lead = document.NewPackshot(pixel, 400, 400)
	fx.lead.Geometry.X, fx.lead.Geometry.Y = 540, 594
	fx.second = document.NewPackshot(pixel, 300, 300)
	fx.second.Geometry.X, fx.second.Geometry.Y = 800, 594
	fx.headline = document.NewText(document.SubkindHeadline, "Summer Feast", 72)
	fx.headline.Geometry.X, fx.headline.Geometry.Y = 540, 540
	fx.sub = document.NewText(document.SubkindSubheadline, "Fresh every day", 32)
	fx.sub.Geometry.X, fx.sub.Geometry.Y = 540, 432
	fx.tag = document.NewTag("Only at Tesco", 540, 1030, 20, rulebook.ColorBlack)
	fx.drink = document.NewDrinkaware(24)
	fx.drink.Geometry.X, fx.drink.Geometry.Y = 1060, 1060
	fx.logo = document.NewLogo(pixel, 120, 60)
	fx.logo.Geometry.OriginX, fx.logo.Geometry.OriginY = document.OriginLeft, document.OriginTop
	fx.logo.Geometry.X, fx.logo.Geometry.Y = 40, 40

	tiles, err := document.NewValueTileGroup(types.TileWhite, d.FormatID, 842, 918)
	require.NoError(t, err)
	fx.tiles = tiles

	els := []*document.Element{fx.lead, fx.second, fx.headline, fx.sub, fx.logo}
	els = append(els, tiles...)
	els = append(els, fx.drink, fx.tag)
	require.NoError(t, d.Add(els...))
	require.NoError(t, d.Apply(document.SetAlcohol{Alcohol: true}))
	return fx
}

func find(t *testing.T, d *document.Document, id string) *document.Element {
	t.Helper()
	e, ok := d.Find(id)
	require.True(t, ok, id)
	return e
}

func TestAdapt_SquareToStoryHeadline(t *testing.T) {
	fx := squareCreative(t)
	out, err := Adapt(fx.doc, format(t, "instagram-feed"), format(t, "instagram-story"))
	require.NoError(t, err)

	head := find(t, out, fx.headline.ID)
	x, y := head.Center()
	assert.InDelta(t, 540, x, 1e-9)
	assert.InDelta(t, 384, y, 1e-9)
	assert.Equal(t, math.Round(72*0.85*1.0), head.Text.FontSize)

	sub := find(t, out, fx.sub.ID)
	_, y = sub.Center()
	assert.InDelta(t, 1920*0.30, y, 1e-9)
	assert.Equal(t, math.Round(32*0.85), sub.Text.FontSize)
}

func TestAdapt_Packshots(t *testing.T) {
	fx := squareCreative(t)
	out, err := Adapt(fx.doc, format(t, "instagram-feed"), format(t, "instagram-story"))
	require.NoError(t, err)

	avg := (1.0 + 1920.0/1080.0) / 2
	lead := find(t, out, fx.lead.ID)
	assert.True(t, lead.Lead)
	assert.InDelta(t, avg, lead.Geometry.ScaleX, 1e-9)
	x, y := lead.Center()
	assert.InDelta(t, 540, x, 1e-9)
	assert.InDelta(t, 960, y, 1e-9)

	second := find(t, out, fx.second.ID)
	assert.False(t, second.Lead)
	x, y = second.Center()
	assert.InDelta(t, 540, x, 1e-9)
	assert.InDelta(t, 960, y, 1e-9)
}

func TestAdapt_PackshotsCenteredInHorizontalFormats(t *testing.T) {
	tests := []struct {
		to    string
		wantX float64
	}{
		{"pos-landscape", 960},
		{"display-banner", 364},
	}
	for _, tt := range tests {
		t.Run(tt.to, func(t *testing.T) {
			fx := squareCreative(t)
			to := format(t, tt.to)
			out, err := Adapt(fx.doc, format(t, "instagram-feed"), to)
			require.NoError(t, err)

			for _, id := range []string{fx.lead.ID, fx.second.ID} {
				x, y := find(t, out, id).Center()
				assert.InDelta(t, tt.wantX, x, 1e-9)
				assert.InDelta(t, float64(to.Height)*rulebook.LayoutFor(tt.to).PackY, y, 1e-9)
			}
		})
	}
}

func TestAdapt_AnchoredElements(t *testing.T) {
	fx := squareCreative(t)
	story := format(t, "instagram-story")
	out, err := Adapt(fx.doc, format(t, "instagram-feed"), story)
	require.NoError(t, err)

	tag := find(t, out, fx.tag.ID)
	x, y := tag.Center()
	assert.InDelta(t, 540, x, 1e-9)
	assert.InDelta(t, 1920-280, y, 1e-9)

	drink := find(t, out, fx.drink.ID)
	b := drink.Bounds()
	assert.InDelta(t, 1080-rulebook.EdgeInset, b.Right(), 1e-9)
	assert.InDelta(t, 1920-rulebook.SafeZoneBottom-rulebook.EdgeInset, b.Bottom(), 1e-9)
	assert.Equal(t, 1.0, drink.Geometry.ScaleX)

	ax, ay := rulebook.TileAnchor(types.TileWhite, story.ID)
	for _, part := range fx.tiles {
		got := find(t, out, part.ID)
		if got.Tile.Part == document.PartBackground {
			assert.InDelta(t, 1080*ax, got.Geometry.X, 1e-9)
			assert.InDelta(t, 1920*ay, got.Geometry.Y, 1e-9)
		}
		if got.Tile.Part == document.PartPrice {
			assert.Equal(t, part.Text.Content, got.Text.Content)
		}
	}

	logo := find(t, out, fx.logo.ID)
	left, top := logo.TopLeft()
	assert.InDelta(t, 40, left, 1e-9)
	assert.InDelta(t, 40*1920.0/1080.0, top, 1e-9)
}

func TestAdapt_DrinkawareScaleBounded(t *testing.T) {
	fx := squareCreative(t)
	out, err := Adapt(fx.doc, format(t, "instagram-feed"), format(t, "display-mpu"))
	require.NoError(t, err)
	drink := find(t, out, fx.drink.ID)
	assert.InDelta(t, 300.0/1080.0, drink.Geometry.ScaleX, 1e-9)
}

func TestAdapt_SafeZones(t *testing.T) {
	fx := squareCreative(t)
	story, err := Adapt(fx.doc, format(t, "instagram-feed"), format(t, "instagram-story"))
	require.NoError(t, err)
	assert.Equal(t, 2, story.Count(document.KindSafeZone))
	assert.Equal(t, "instagram-story", story.FormatID)
	els := story.Elements()
	assert.Equal(t, document.KindSafeZone, els[0].Kind)
	assert.Equal(t, document.KindSafeZone, els[1].Kind)

	back, err := Adapt(story, format(t, "instagram-story"), format(t, "pos-landscape"))
	require.NoError(t, err)
	assert.Zero(t, back.Count(document.KindSafeZone))
}

func TestAdapt_Deterministic(t *testing.T) {
	fx := squareCreative(t)
	for _, target := range rulebook.Formats() {
		a, err := Adapt(fx.doc, format(t, "instagram-feed"), target)
		require.NoError(t, err)
		b, err := Adapt(fx.doc, format(t, "instagram-feed"), target)
		require.NoError(t, err)

		da, err := document.Serialize(a)
		require.NoError(t, err)
		db, err := document.Serialize(b)
		require.NoError(t, err)
		assert.Equal(t, string(da), string(db), target.ID)
	}
}

func TestAdapt_PreservesRolesAndSource(t *testing.T) {
	fx := squareCreative(t)
	before, err := document.Serialize(fx.doc)
	require.NoError(t, err)

	for _, target := range rulebook.Formats() {
		out, err := AdaptTo(fx.doc, target)
		require.NoError(t, err)
		assert.Equal(t, fx.doc.ID, out.ID)
		assert.True(t, out.Alcohol)
		for _, e := range fx.doc.Elements() {
			got := find(t, out, e.ID)
			assert.Equal(t, e.Roles(), got.Roles(), "%s in %s", e.DisplayName(), target.ID)
		}
	}

	after, err := document.Serialize(fx.doc)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestAdapt_HorizontalTiles(t *testing.T) {
	fx := squareCreative(t)
	banner := format(t, "display-banner")
	out, err := Adapt(fx.doc, format(t, "instagram-feed"), banner)
	require.NoError(t, err)
	for _, part := range fx.tiles {
		got := find(t, out, part.ID)
		if got.Tile.Part == document.PartBackground {
			assert.InDelta(t, 728*0.88, got.Geometry.X, 1e-9)
			tmpl, _ := rulebook.TileTemplateFor(types.TileWhite, banner.ID)
			assert.Equal(t, tmpl.W, got.Geometry.Width)
		}
	}
}

func TestAdapt_InvalidFormat(t *testing.T) {
	fx := squareCreative(t)
	_, err := Adapt(fx.doc, types.Format{ID: "bad"}, format(t, "instagram-story"))
	var adaptErr *AdaptError
	assert.ErrorAs(t, err, &adaptErr)

	fx.doc.FormatID = "unknown"
	_, err = AdaptTo(fx.doc, format(t, "instagram-story"))
	assert.ErrorAs(t, err, &adaptErr)
}

func TestRoleOf_FontSizeFallback(t *testing.T) {
	big := document.NewText(document.SubkindBody, "Big", 60)
	mid := document.NewText(document.SubkindBody, "Mid", 30)
	small := document.NewText(document.SubkindBody, "Small", 16)
	assert.Equal(t, RoleHeadline, RoleOf(big))
	assert.Equal(t, RoleSubheadline, RoleOf(mid))
	assert.Equal(t, RoleOther, RoleOf(small))
}
