package rulebook

import (
	"regexp"

	"github.com/jonathan/creative-compliance/internal/types"
)

// MinAccessibleFontSize is the smallest font size allowed for tags and mandatory lockups
const MinAccessibleFontSize = 20.0

// Limits on element cardinality
const (
	MaxPackshots = 3
)

// DrinkawareText is the copy of the Drinkaware lockup
const DrinkawareText = "drinkaware.co.uk"

var (
	// ClubcardTagPattern matches a valid clubcard tag with its end date
	ClubcardTagPattern = regexp.MustCompile(`Clubcard/app required\. Ends \d\d/\d\d`)
	// PricePattern matches currency amounts in copy
	PricePattern = regexp.MustCompile(`(?i)[£$€]\s?\d+(?:[.,]\d{1,2})?|\b\d+(?:\.\d{2})?\s?p\b|\b\d+(?:\.\d{2})?\s?(?:gbp|eur|usd)\b`)
	// HexColorPattern matches #RGB and #RRGGBB colors
	HexColorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
)

// Copy is a headline, subheadline and tag triple
type Copy struct {
	Headline    string
	Subheadline string
	Tag         string
}

var fallbackCopy = map[types.PriceType]Copy{
	types.PriceNone:     {Headline: "Taste The Difference", Subheadline: "Discover something new today", Tag: "Only at Tesco"},
	types.PriceNew:      {Headline: "Brand New", Subheadline: "Now on our shelves", Tag: "Only at Tesco"},
	types.PriceWhite:    {Headline: "Great Value", Subheadline: "Everyday favourites for less", Tag: "Selected stores. While stocks last."},
	types.PriceLEP:      {Headline: "Low Everyday Price", Subheadline: "Great value every day", Tag: "Only at Tesco"},
	types.PriceClubcard: {Headline: "Clubcard Price", Subheadline: "Exclusive savings for members", Tag: "Available in selected stores. Clubcard/app required. Ends 31/12"},
}

// FallbackCopy returns the deterministic, compliant copy for a price type
func FallbackCopy(p types.PriceType) Copy {
	if c, ok := fallbackCopy[p]; ok {
		return c
	}
	return fallbackCopy[types.PriceNone]
}
