package rulebook

import "github.com/jonathan/creative-compliance/internal/types"

// TileTemplate is the geometry and paint of a value tile in one format
type TileTemplate struct {
	W             float64
	H             float64
	FontSize      float64
	Bg            string
	Text          string
	Border        string
	IsCircular    bool
	Radius        float64
	LabelText     string
	LabelFontSize float64
	// DefaultPrice is the placeholder price text of a fresh tile
	DefaultPrice string
	// WasFontSize sizes the adjunct regular-price text of a clubcard tile
	WasFontSize float64
}

// TileOverride replaces non-zero fields of a base template for one format
type TileOverride struct {
	W             float64
	H             float64
	FontSize      float64
	Radius        float64
	LabelFontSize float64
	WasFontSize   float64
}

var baseTiles = map[types.TileKind]TileTemplate{
	types.TileNew: {
		W: 160, H: 70, FontSize: 34, Bg: ColorNewRed, Text: ColorWhite,
		LabelText: "NEW",
	},
	types.TileWhite: {
		W: 240, H: 120, FontSize: 56, Bg: ColorWhite, Text: ColorTescoBlue, Border: ColorTescoBlue,
		DefaultPrice: "£1.50",
	},
	types.TileClubcard: {
		W: 220, H: 220, FontSize: 60, Bg: ColorClubcard, Text: ColorTescoBlue,
		IsCircular: true, Radius: 110, LabelText: "Clubcard Price", LabelFontSize: 22,
		DefaultPrice: "£1.00", WasFontSize: 24,
	},
}

var tileOverrides = map[string]map[types.TileKind]TileOverride{
	"instagram-story": {
		types.TileClubcard: {W: 260, H: 260, Radius: 130, FontSize: 68, LabelFontSize: 24},
	},
	"facebook-story": {
		types.TileClubcard: {W: 260, H: 260, Radius: 130, FontSize: 68, LabelFontSize: 24},
	},
	"facebook-feed": {
		types.TileNew:      {W: 120, H: 52, FontSize: 26},
		types.TileWhite:    {W: 180, H: 90, FontSize: 42},
		types.TileClubcard: {W: 160, H: 160, Radius: 80, FontSize: 44, LabelFontSize: 18, WasFontSize: 20},
	},
	"display-banner": {
		types.TileNew:      {W: 60, H: 28, FontSize: 14},
		types.TileWhite:    {W: 90, H: 50, FontSize: 22},
		types.TileClubcard: {W: 80, H: 80, Radius: 40, FontSize: 22, LabelFontSize: 9, WasFontSize: 10},
	},
	"display-mpu": {
		types.TileNew:      {W: 70, H: 32, FontSize: 16},
		types.TileWhite:    {W: 100, H: 54, FontSize: 24},
		types.TileClubcard: {W: 90, H: 90, Radius: 45, FontSize: 24, LabelFontSize: 10, WasFontSize: 11},
	},
}

// TileTemplateFor returns the template of a tile kind merged with the format's overrides
func TileTemplateFor(kind types.TileKind, formatID string) (TileTemplate, bool) {
	base, ok := baseTiles[kind]
	if !ok {
		return TileTemplate{}, false
	}
	o, ok := tileOverrides[formatID][kind]
	if !ok {
		return base, true
	}
	if o.W > 0 {
		base.W = o.W
	}
	if o.H > 0 {
		base.H = o.H
	}
	if o.FontSize > 0 {
		base.FontSize = o.FontSize
	}
	if o.Radius > 0 {
		base.Radius = o.Radius
	}
	if o.LabelFontSize > 0 {
		base.LabelFontSize = o.LabelFontSize
	}
	if o.WasFontSize > 0 {
		base.WasFontSize = o.WasFontSize
	}
	return base, true
}

// TileAnchor returns the proportional center of a tile kind in a format. Vertical
// layouts use the bottom band at TileY; horizontal layouts use a right-hand column.
func TileAnchor(kind types.TileKind, formatID string) (x, y float64) {
	rule := LayoutFor(formatID)
	if rule.Horizontal {
		switch kind {
		case types.TileNew:
			return 0.88, 0.25
		default:
			return 0.88, rule.TileY
		}
	}
	switch kind {
	case types.TileNew:
		return 0.18, rule.TileY
	case types.TileWhite:
		return 0.78, rule.TileY
	default:
		return 0.78, rule.TileY
	}
}

// EditableTileParts lists which parts of each tile kind accept text edits
var EditableTileParts = map[types.TileKind][]string{
	types.TileNew:      nil,
	types.TileWhite:    {"price"},
	types.TileClubcard: {"price", "was"},
}

// TilePartEditable reports whether a part of a tile kind accepts text edits
func TilePartEditable(kind types.TileKind, part string) bool {
	for _, p := range EditableTileParts[kind] {
		if p == part {
			return true
		}
	}
	return false
}
