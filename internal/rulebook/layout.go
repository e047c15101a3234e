package rulebook

import "github.com/jonathan/creative-compliance/internal/types"

// LayoutRule holds the proportional placement of roles for one format.
// Y values are fractions of the format height, X values fractions of its width.
type LayoutRule struct {
	HeadlineY  float64
	PackY      float64
	TileY      float64
	Scale      float64
	Horizontal bool

	// HeadlineX is 0.5 for every vertical format; packshots always center horizontally
	HeadlineX float64
	// FontFactor scales headline and subheadline sizes for the format's ratio
	FontFactor float64
}

// SubheadlineOffset is added to HeadlineY to place the subheadline
const SubheadlineOffset = 0.1

var layoutRules = map[string]LayoutRule{
	"instagram-feed":  {HeadlineY: 0.30, PackY: 0.55, TileY: 0.85, Scale: 1.0, HeadlineX: 0.5, FontFactor: 1.0},
	"instagram-story": {HeadlineY: 0.20, PackY: 0.50, TileY: 0.72, Scale: 1.0, HeadlineX: 0.5, FontFactor: 0.85},
	"facebook-feed":   {HeadlineY: 0.22, PackY: 0.55, TileY: 0.80, Scale: 0.6, HeadlineX: 0.5, FontFactor: 0.9},
	"facebook-story":  {HeadlineY: 0.20, PackY: 0.50, TileY: 0.72, Scale: 1.0, HeadlineX: 0.5, FontFactor: 0.85},
	"display-banner":  {HeadlineY: 0.40, PackY: 0.50, TileY: 0.50, Scale: 0.35, Horizontal: true, HeadlineX: 0.5, FontFactor: 1.0},
	"display-mpu":     {HeadlineY: 0.18, PackY: 0.52, TileY: 0.82, Scale: 0.5, HeadlineX: 0.5, FontFactor: 1.0},
	"pos-portrait":    {HeadlineY: 0.25, PackY: 0.55, TileY: 0.85, Scale: 1.0, HeadlineX: 0.5, FontFactor: 1.0},
	"pos-landscape":   {HeadlineY: 0.30, PackY: 0.50, TileY: 0.50, Scale: 0.9, Horizontal: true, HeadlineX: 0.5, FontFactor: 1.0},
}

var defaultLayoutRule = LayoutRule{HeadlineY: 0.30, PackY: 0.55, TileY: 0.85, Scale: 1.0, HeadlineX: 0.5, FontFactor: 1.0}

// LayoutFor returns the layout rule of a format, or the square-feed rule for unknown ids
func LayoutFor(formatID string) LayoutRule {
	if r, ok := layoutRules[formatID]; ok {
		return r
	}
	return defaultLayoutRule
}

// Bottom-right inset for the Drinkaware lockup and the tag clearance in story formats
const (
	EdgeInset          = 20.0
	StoryTagFromBottom = 280.0
	TagFromBottom      = 50.0
)

// BottomInset returns the distance content anchored to the bottom edge keeps from it
func BottomInset(f types.Format) float64 {
	if f.IsStory() {
		return SafeZoneBottom + EdgeInset
	}
	return EdgeInset
}
