//nolint:revive // types is a standard Go package name pattern
package types

// PriceType selects the pricing treatment of a variant
type PriceType string

// Price types
const (
	PriceNone     PriceType = "none"
	PriceNew      PriceType = "new"
	PriceWhite    PriceType = "white"
	PriceClubcard PriceType = "clubcard"
	PriceLEP      PriceType = "lep"
)

// TileKind returns the value tile kind that renders this price type, if any
func (p PriceType) TileKind() (TileKind, bool) {
	switch p {
	case PriceNew:
		return TileNew, true
	case PriceWhite, PriceLEP:
		return TileWhite, true
	case PriceClubcard:
		return TileClubcard, true
	default:
		return "", false
	}
}

// Point is a proportional position; both coordinates are in [0,1]
type Point struct {
	X float64 `json:"x" validate:"gte=0,lte=1"`
	Y float64 `json:"y" validate:"gte=0,lte=1"`
}

// VariantLayout places the main roles of a variant in proportional coordinates
type VariantLayout struct {
	Packshot    Point `json:"packshot"`
	Headline    Point `json:"headline"`
	Subheadline Point `json:"subheadline"`
	ValueTile   Point `json:"valueTile"`
	Tag         Point `json:"tag"`
}

// Variant is a single AI-produced creative direction
type Variant struct {
	ID              string        `json:"id" validate:"required"`
	Tone            string        `json:"tone"`
	Headline        string        `json:"headline" validate:"required"`
	Subheadline     string        `json:"subheadline"`
	Tag             string        `json:"tag"`
	PriceType       PriceType     `json:"priceType"`
	BackgroundColor string        `json:"backgroundColor" validate:"omitempty,hexcolor"`
	TextColor       string        `json:"textColor" validate:"omitempty,hexcolor"`
	AccentColor     string        `json:"accentColor" validate:"omitempty,hexcolor"`
	Layout          VariantLayout `json:"layout"`
}
