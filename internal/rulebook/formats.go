// Package rulebook holds the immutable rule data the compliance, profile and layout
// components are driven by: format presets, prohibited terms, safe zones,
// profiles, value tile templates and per-format layout rules.
package rulebook

import "github.com/jonathan/creative-compliance/internal/types"

var formats = []types.Format{
	{
		ID: "instagram-feed", Name: "Instagram Feed", Width: 1080, Height: 1080, Ratio: types.RatioSquare,
		Config: types.FormatConfig{HeadlineFontSize: 72, SubFontSize: 36, PackshotScale: 1, ValueTileScale: 1, Layout: types.LayoutVertical},
	},
	{
		ID: "instagram-story", Name: "Instagram Story", Width: 1080, Height: 1920, Ratio: types.RatioStory,
		Config: types.FormatConfig{HeadlineFontSize: 72, SubFontSize: 36, PackshotScale: 1.1, ValueTileScale: 1.1, Layout: types.LayoutVertical},
	},
	{
		ID: "facebook-feed", Name: "Facebook Feed", Width: 1200, Height: 628, Ratio: types.RatioLink,
		Config: types.FormatConfig{HeadlineFontSize: 56, SubFontSize: 28, PackshotScale: 0.7, ValueTileScale: 0.8, Layout: types.LayoutVertical},
	},
	{
		ID: "facebook-story", Name: "Facebook Story", Width: 1080, Height: 1920, Ratio: types.RatioStory,
		Config: types.FormatConfig{HeadlineFontSize: 72, SubFontSize: 36, PackshotScale: 1.1, ValueTileScale: 1.1, Layout: types.LayoutVertical},
	},
	{
		ID: "display-banner", Name: "Display Leaderboard", Width: 728, Height: 90, Ratio: "8.09:1",
		Config: types.FormatConfig{HeadlineFontSize: 24, SubFontSize: 14, PackshotScale: 0.25, ValueTileScale: 0.35, Layout: types.LayoutHorizontal},
	},
	{
		ID: "display-mpu", Name: "Display MPU", Width: 300, Height: 250, Ratio: "6:5",
		Config: types.FormatConfig{HeadlineFontSize: 28, SubFontSize: 16, PackshotScale: 0.4, ValueTileScale: 0.45, Layout: types.LayoutVertical},
	},
	{
		ID: "pos-portrait", Name: "In-store Portrait", Width: 1080, Height: 1350, Ratio: types.RatioPortrait,
		Config: types.FormatConfig{HeadlineFontSize: 72, SubFontSize: 36, PackshotScale: 1, ValueTileScale: 1, Layout: types.LayoutVertical},
	},
	{
		ID: "pos-landscape", Name: "In-store Landscape", Width: 1920, Height: 1080, Ratio: "16:9",
		Config: types.FormatConfig{HeadlineFontSize: 80, SubFontSize: 40, PackshotScale: 0.9, ValueTileScale: 1, Layout: types.LayoutHorizontal},
	},
}

// DefaultFormatID is the format new documents start in
const DefaultFormatID = "instagram-feed"

// Formats returns every format preset in a stable order
func Formats() []types.Format {
	out := make([]types.Format, len(formats))
	copy(out, formats)
	return out
}

// FormatByID looks up a format preset
func FormatByID(id string) (types.Format, bool) {
	for _, f := range formats {
		if f.ID == id {
			return f, true
		}
	}
	return types.Format{}, false
}

// FormatIDs returns the ids of every preset in order
func FormatIDs() []string {
	ids := make([]string, len(formats))
	for i, f := range formats {
		ids[i] = f.ID
	}
	return ids
}
