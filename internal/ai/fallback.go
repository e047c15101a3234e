package ai

import (
	"fmt"
	"strings"

	"github.com/jonathan/creative-compliance/internal/compliance"
	"github.com/jonathan/creative-compliance/internal/rulebook"
	"github.com/jonathan/creative-compliance/internal/types"
)

type toneStyle struct {
	price      types.PriceType
	background string
	text       string
	accent     string
}

var toneStyles = map[string]toneStyle{
	"bold":     {types.PriceNew, rulebook.ColorNewRed, rulebook.ColorWhite, rulebook.ColorClubcard},
	"friendly": {types.PriceNone, "#FFF4E0", rulebook.ColorBlack, rulebook.ColorTescoBlue},
	"premium":  {types.PriceNone, "#1A1A1A", rulebook.ColorWhite, "#C8A951"},
	"value":    {types.PriceWhite, rulebook.ColorWhite, rulebook.ColorTescoBlue, rulebook.ColorNewRed},
	"seasonal": {types.PriceClubcard, rulebook.ColorTescoBlue, rulebook.ColorWhite, rulebook.ColorClubcard},
}

// DefaultLayout is the variant layout used when the model gives none
var DefaultLayout = types.VariantLayout{
	Packshot:    types.Point{X: 0.5, Y: 0.55},
	Headline:    types.Point{X: 0.5, Y: 0.15},
	Subheadline: types.Point{X: 0.5, Y: 0.25},
	ValueTile:   types.Point{X: 0.2, Y: 0.8},
	Tag:         types.Point{X: 0.5, Y: 0.95},
}

func variantID(i int) string {
	return fmt.Sprintf("variant-%d", i+1)
}

// FallbackVariant returns the deterministic variant for a tone. An empty price
// type selects the tone's own.
func FallbackVariant(i int, tone string, price types.PriceType) types.Variant {
	style, ok := toneStyles[tone]
	if !ok {
		style = toneStyles["friendly"]
	}
	if price == "" {
		price = style.price
	}
	c := rulebook.FallbackCopy(price)
	tag := c.Tag
	if price != types.PriceClubcard {
		tag = ""
	}
	return types.Variant{
		ID:              variantID(i),
		Tone:            tone,
		Headline:        c.Headline,
		Subheadline:     c.Subheadline,
		Tag:             tag,
		PriceType:       price,
		BackgroundColor: style.background,
		TextColor:       style.text,
		AccentColor:     style.accent,
		Layout:          DefaultLayout,
	}
}

// FallbackVariants returns n deterministic variants, one per tone
func FallbackVariants(n int, price types.PriceType) []types.Variant {
	out := make([]types.Variant, 0, n)
	for i := 0; i < n && i < len(Tones); i++ {
		out = append(out, FallbackVariant(i, Tones[i], price))
	}
	return out
}

// FallbackProduct is the analysis used when the product cannot be identified
func FallbackProduct() ProductAnalysis {
	return ProductAnalysis{
		ProductName:         "Product",
		Category:            CategoryFoodDrink,
		PackagingColors:     []string{},
		DominantColor:       rulebook.ColorWhite,
		SuggestedBackground: rulebook.ColorWhite,
		SuggestedAccent:     rulebook.ColorTescoBlue,
		SuggestedTextColor:  rulebook.ColorBlack,
		Confidence:          0,
		Fallback:            true,
	}
}

// FallbackPeople is used when detection fails. It carries Fallback so the
// people gate still asks for confirmation.
func FallbackPeople() PeopleDetection {
	return PeopleDetection{Description: "people detection unavailable", Fallback: true}
}

// FallbackSuggestions returns three compliant headlines
func FallbackSuggestions(tone string) []CopySuggestion {
	out := make([]CopySuggestion, 0, 3)
	for _, p := range []types.PriceType{types.PriceNone, types.PriceNew, types.PriceWhite} {
		c := rulebook.FallbackCopy(p)
		out = append(out, CopySuggestion{Headline: c.Headline, Subheadline: c.Subheadline, Tone: tone})
	}
	return out
}

// FallbackCampaign returns a campaign summary built from the request alone
func FallbackCampaign(req CampaignRequest) Campaign {
	name := compliance.Sanitize(strings.TrimSpace(req.ProductName))
	if name == "" {
		name = "Retail Media"
	}
	c := Campaign{
		Name:       name + " Campaign",
		Objective:  copyOr(req.Objective, "Drive awareness in store"),
		Audience:   copyOr(req.Audience, "Everyday shoppers"),
		KeyMessage: rulebook.FallbackCopy(req.PriceType).Headline,
	}
	return c
}
