// Package types provides type definitions for structured data used throughout the creative compliance system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "math"

// LayoutOrientation describes the dominant reading direction of a format
type LayoutOrientation string

const (
	// LayoutVertical stacks headline, packshot and value tile top to bottom
	LayoutVertical LayoutOrientation = "vertical"
	// LayoutHorizontal places the value tile in a right-hand column
	LayoutHorizontal LayoutOrientation = "horizontal"
)

// Ratio strings used by the format presets
const (
	RatioSquare   = "1:1"
	RatioStory    = "9:16"
	RatioLink     = "1.91:1"
	RatioPortrait = "4:5"
)

// FormatConfig holds per-format typography and scaling defaults
type FormatConfig struct {
	HeadlineFontSize float64           `json:"headline_font_size" yaml:"headline_font_size" validate:"gt=0"`
	SubFontSize      float64           `json:"sub_font_size" yaml:"sub_font_size" validate:"gt=0"`
	PackshotScale    float64           `json:"packshot_scale" yaml:"packshot_scale" validate:"gt=0"`
	ValueTileScale   float64           `json:"value_tile_scale" yaml:"value_tile_scale" validate:"gt=0"`
	Layout           LayoutOrientation `json:"layout" yaml:"layout" validate:"oneof=vertical horizontal"`
}

// Format is one of the finite ad canvases a creative can be exported to
type Format struct {
	ID     string       `json:"id" yaml:"id" validate:"required"`
	Name   string       `json:"name" yaml:"name" validate:"required"`
	Width  int          `json:"width" yaml:"width" validate:"gt=0"`
	Height int          `json:"height" yaml:"height" validate:"gt=0"`
	Ratio  string       `json:"ratio" yaml:"ratio" validate:"required"`
	Config FormatConfig `json:"config" yaml:"config"`
}

// IsStory reports whether the format is a 9:16 story canvas with safe zones
func (f Format) IsStory() bool {
	return f.Ratio == RatioStory
}

// IsHorizontal reports whether the format uses the horizontal layout
func (f Format) IsHorizontal() bool {
	return f.Config.Layout == LayoutHorizontal
}

// AspectRatio returns width divided by height
func (f Format) AspectRatio() float64 {
	if f.Height == 0 {
		return 0
	}
	return float64(f.Width) / float64(f.Height)
}

// Rect is an axis-aligned rectangle in format coordinates
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Right returns the right edge of the rectangle
func (r Rect) Right() float64 { return r.X + r.Width }

// Bottom returns the bottom edge of the rectangle
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Intersects reports whether two rectangles overlap with a non-empty area
func (r Rect) Intersects(o Rect) bool {
	return r.X < o.Right() && o.X < r.Right() && r.Y < o.Bottom() && o.Y < r.Bottom()
}

// Union returns the smallest rectangle containing both
func (r Rect) Union(o Rect) Rect {
	x0 := math.Min(r.X, o.X)
	y0 := math.Min(r.Y, o.Y)
	x1 := math.Max(r.Right(), o.Right())
	y1 := math.Max(r.Bottom(), o.Bottom())
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}
