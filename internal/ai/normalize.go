package ai

import (
	"math"
	"strings"

	"github.com/jonathan/creative-compliance/internal/compliance"
	"github.com/jonathan/creative-compliance/internal/rulebook"
	"github.com/jonathan/creative-compliance/internal/types"
)

// MaxPackagingColors caps the colors reported for a pack
const MaxPackagingColors = 5

func cleanText(s string) string {
	return compliance.Sanitize(strings.TrimSpace(s))
}

// rewriteCopy applies the compliant rewrites only, so a surviving prohibited
// term fails acceptableCopy instead of being stripped into a fragment
func rewriteCopy(s string) string {
	return compliance.ApplyReplacements(strings.TrimSpace(s))
}

// acceptableCopy reports whether sanitized copy may be placed on a creative
func acceptableCopy(s string) bool {
	return s != "" && compliance.IsClean(s) && !rulebook.PricePattern.MatchString(s)
}

// copyOr rewrites s and falls back when the result is empty or still unusable
func copyOr(s, fallback string) string {
	s = rewriteCopy(s)
	if acceptableCopy(s) {
		return s
	}
	return fallback
}

func colorOr(s, fallback string) string {
	s = strings.TrimSpace(s)
	if rulebook.HexColorPattern.MatchString(s) {
		return strings.ToUpper(s)
	}
	return fallback
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0.5
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

func normalizePriceType(s string, fallback types.PriceType) types.PriceType {
	switch p := types.PriceType(strings.ToLower(strings.TrimSpace(s))); p {
	case types.PriceNone, types.PriceNew, types.PriceWhite, types.PriceClubcard, types.PriceLEP:
		return p
	}
	return fallback
}

func normalizeProduct(p ProductAnalysis) ProductAnalysis {
	fb := FallbackProduct()
	p.ProductName = copyOr(p.ProductName, fb.ProductName)
	p.Brand = cleanText(p.Brand)
	p.Category = NormalizeCategory(string(p.Category))
	if p.Category == CategoryAlcohol {
		p.IsAlcohol = true
	}
	colors := make([]string, 0, MaxPackagingColors)
	for _, c := range p.PackagingColors {
		if c = colorOr(c, ""); c != "" && len(colors) < MaxPackagingColors {
			colors = append(colors, c)
		}
	}
	p.PackagingColors = colors
	p.DominantColor = colorOr(p.DominantColor, fb.DominantColor)
	p.SuggestedBackground = colorOr(p.SuggestedBackground, fb.SuggestedBackground)
	p.SuggestedAccent = colorOr(p.SuggestedAccent, fb.SuggestedAccent)
	p.SuggestedTextColor = colorOr(p.SuggestedTextColor, fb.SuggestedTextColor)
	p.Confidence = clamp01(p.Confidence)
	p.Fallback = false
	return p
}

func normalizePeople(p PeopleDetection) PeopleDetection {
	p.Confidence = clamp01(p.Confidence)
	p.Description = cleanText(p.Description)
	p.Fallback = false
	return p
}

type rawPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type rawLayout struct {
	Packshot    *rawPoint `json:"packshot"`
	Headline    *rawPoint `json:"headline"`
	Subheadline *rawPoint `json:"subheadline"`
	ValueTile   *rawPoint `json:"valueTile"`
	Tag         *rawPoint `json:"tag"`
}

// rawVariant is a variant as the model returns it, before normalization
type rawVariant struct {
	Tone            string    `json:"tone"`
	Headline        string    `json:"headline"`
	Subheadline     string    `json:"subheadline"`
	Tag             string    `json:"tag"`
	PriceType       string    `json:"priceType"`
	BackgroundColor string    `json:"backgroundColor"`
	TextColor       string    `json:"textColor"`
	AccentColor     string    `json:"accentColor"`
	Layout          rawLayout `json:"layout"`
}

func point(p *rawPoint, fallback types.Point) types.Point {
	if p == nil {
		return fallback
	}
	return types.Point{X: clamp01(p.X), Y: clamp01(p.Y)}
}

// normalizeVariant sanitizes copy, clamps coordinates and replaces any unusable
// field with the fallback variant's value for the same tone and price type.
func normalizeVariant(raw rawVariant, i int, tone string, forced types.PriceType) types.Variant {
	base := FallbackVariant(i, tone, forced)
	price := base.PriceType
	if forced == "" {
		price = normalizePriceType(raw.PriceType, base.PriceType)
	}
	fb := rulebook.FallbackCopy(price)

	v := types.Variant{
		ID:              variantID(i),
		Tone:            tone,
		Headline:        copyOr(raw.Headline, fb.Headline),
		Subheadline:     copyOr(raw.Subheadline, fb.Subheadline),
		PriceType:       price,
		BackgroundColor: colorOr(raw.BackgroundColor, base.BackgroundColor),
		TextColor:       colorOr(raw.TextColor, base.TextColor),
		AccentColor:     colorOr(raw.AccentColor, base.AccentColor),
		Layout: types.VariantLayout{
			Packshot:    point(raw.Layout.Packshot, DefaultLayout.Packshot),
			Headline:    point(raw.Layout.Headline, DefaultLayout.Headline),
			Subheadline: point(raw.Layout.Subheadline, DefaultLayout.Subheadline),
			ValueTile:   point(raw.Layout.ValueTile, DefaultLayout.ValueTile),
			Tag:         point(raw.Layout.Tag, DefaultLayout.Tag),
		},
	}

	tag := rewriteCopy(raw.Tag)
	switch {
	case price == types.PriceClubcard:
		if !rulebook.ClubcardTagPattern.MatchString(tag) || !acceptableCopy(tag) {
			tag = fb.Tag
		}
	case tag != "" && !acceptableCopy(tag):
		tag = ""
	}
	v.Tag = tag
	return v
}

// assignTones gives each raw variant a distinct tone, keeping the model's
// choice when it names an unused one.
func assignTones(raws []rawVariant, n int) []string {
	used := make(map[string]bool)
	tones := make([]string, n)
	for i := 0; i < n && i < len(raws); i++ {
		t := strings.ToLower(strings.TrimSpace(raws[i].Tone))
		if _, ok := toneStyles[t]; ok && !used[t] {
			tones[i] = t
			used[t] = true
		}
	}
	next := 0
	for i := range tones {
		if tones[i] != "" {
			continue
		}
		for used[Tones[next]] {
			next++
		}
		tones[i] = Tones[next]
		used[Tones[next]] = true
	}
	return tones
}
