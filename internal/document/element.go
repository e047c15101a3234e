// Package document provides the creative scene model: an ordered list of
// role-typed elements plus document-wide attributes, with cardinality invariants,
// ordered change events and JSON serialization.
package document

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/creative-compliance/internal/types"
)

// Kind discriminates the element variants
type Kind string

// Element kinds
const (
	KindPackshot        Kind = "packshot"
	KindLogo            Kind = "logo"
	KindBackgroundImage Kind = "background_image"
	KindText            Kind = "text"
	KindValueTile       Kind = "value_tile"
	KindDrinkaware      Kind = "drinkaware"
	KindShape           Kind = "shape"
	KindSafeZone        Kind = "safe_zone"
)

// AllKinds lists every element kind
var AllKinds = []Kind{
	KindPackshot, KindLogo, KindBackgroundImage, KindText,
	KindValueTile, KindDrinkaware, KindShape, KindSafeZone,
}

// TextSubkind refines text elements
type TextSubkind string

// Text subkinds
const (
	SubkindHeadline    TextSubkind = "headline"
	SubkindSubheadline TextSubkind = "subheadline"
	SubkindBody        TextSubkind = "body"
	SubkindTag         TextSubkind = "tag"
	SubkindAI          TextSubkind = "ai_generated"
)

// TilePart identifies a member of a value tile group
type TilePart string

// Value tile group parts
const (
	PartBackground TilePart = "background"
	PartPrice      TilePart = "price"
	PartLabel      TilePart = "label"
	PartWas        TilePart = "was"
)

// ShapeKind is the enumerated shape set
type ShapeKind string

// Shape kinds
const (
	ShapeRect        ShapeKind = "rect"
	ShapeRoundedRect ShapeKind = "rounded_rect"
	ShapeCircle      ShapeKind = "circle"
	ShapeEllipse     ShapeKind = "ellipse"
	ShapeTriangle    ShapeKind = "triangle"
	ShapePolygon     ShapeKind = "polygon"
	ShapeStar        ShapeKind = "star"
	ShapePath        ShapeKind = "path"
	ShapeLine        ShapeKind = "line"
)

// Origins
const (
	OriginLeft   = "left"
	OriginCenter = "center"
	OriginRight  = "right"
	OriginTop    = "top"
	OriginBottom = "bottom"
)

// Geometry places an element. X and Y locate the origin point.
type Geometry struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	ScaleX   float64 `json:"scale_x"`
	ScaleY   float64 `json:"scale_y"`
	Rotation float64 `json:"rotation"`
	OriginX  string  `json:"origin_x"`
	OriginY  string  `json:"origin_y"`
}

// Paint holds fill and stroke
type Paint struct {
	Fill        string  `json:"fill,omitempty"`
	Stroke      string  `json:"stroke,omitempty"`
	StrokeWidth float64 `json:"stroke_width,omitempty"`
	Opacity     float64 `json:"opacity"`
}

// Flags holds mutability settings
type Flags struct {
	Selectable   bool `json:"selectable"`
	Editable     bool `json:"editable"`
	LockMoveX    bool `json:"lock_move_x,omitempty"`
	LockMoveY    bool `json:"lock_move_y,omitempty"`
	LockRotation bool `json:"lock_rotation,omitempty"`
	LockScaleX   bool `json:"lock_scale_x,omitempty"`
	LockScaleY   bool `json:"lock_scale_y,omitempty"`
}

// LockedAll returns flags with every axis locked
func LockedAll(selectable, editable bool) Flags {
	return Flags{
		Selectable: selectable, Editable: editable,
		LockMoveX: true, LockMoveY: true, LockRotation: true, LockScaleX: true, LockScaleY: true,
	}
}

// AnyLock reports whether any axis is locked
func (f Flags) AnyLock() bool {
	return f.LockMoveX || f.LockMoveY || f.LockRotation || f.LockScaleX || f.LockScaleY
}

// TextProps is the payload of text-bearing elements
type TextProps struct {
	Content         string      `json:"content"`
	FontSize        float64     `json:"font_size"`
	FontFamily      string      `json:"font_family,omitempty"`
	FontWeight      string      `json:"font_weight,omitempty"`
	TextAlign       string      `json:"text_align,omitempty"`
	Subkind         TextSubkind `json:"subkind,omitempty"`
	BackgroundColor string      `json:"background_color,omitempty"`
}

// ImageProps is the payload of raster elements. Source is a data URL.
type ImageProps struct {
	Source        string `json:"source"`
	NaturalWidth  int    `json:"natural_width"`
	NaturalHeight int    `json:"natural_height"`
}

// TileProps binds an element to a value tile group
type TileProps struct {
	Kind    types.TileKind `json:"kind"`
	GroupID string         `json:"group_id"`
	Part    TilePart       `json:"part"`
}

// Vec is a 2D point
type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ShapeProps is the payload of vector elements
type ShapeProps struct {
	Kind         ShapeKind `json:"kind"`
	Sides        int       `json:"sides,omitempty"`
	CornerRadius float64   `json:"corner_radius,omitempty"`
	InnerRatio   float64   `json:"inner_ratio,omitempty"`
	Points       []Vec     `json:"points,omitempty"`
	PathData     string    `json:"path_data,omitempty"`
}

// Element is a tagged variant: Kind decides which payload is present.
type Element struct {
	ID       string      `json:"id"`
	Kind     Kind        `json:"kind"`
	Name     string      `json:"name,omitempty"`
	Lead     bool        `json:"lead,omitempty"`
	Geometry Geometry    `json:"geometry"`
	Paint    Paint       `json:"paint"`
	Flags    Flags       `json:"flags"`
	Text     *TextProps  `json:"text,omitempty"`
	Image    *ImageProps `json:"image,omitempty"`
	Tile     *TileProps  `json:"tile,omitempty"`
	Shape    *ShapeProps `json:"shape,omitempty"`
}

// Roles is the flattened role view of an element, derived from its kind
type Roles struct {
	IsPackshot     bool           `json:"is_packshot"`
	IsLeadPackshot bool           `json:"is_lead_packshot"`
	IsValueTile    bool           `json:"is_value_tile"`
	ValueTileType  types.TileKind `json:"value_tile_type,omitempty"`
	IsDrinkaware   bool           `json:"is_drinkaware"`
	IsTag          bool           `json:"is_tag"`
	IsLogo         bool           `json:"is_logo"`
	IsSafeZone     bool           `json:"is_safe_zone"`
	CustomName     string         `json:"custom_name,omitempty"`
}

// Roles derives the role tags of the element
func (e *Element) Roles() Roles {
	r := Roles{CustomName: e.Name}
	switch e.Kind {
	case KindPackshot:
		r.IsPackshot = true
		r.IsLeadPackshot = e.Lead
	case KindLogo:
		r.IsLogo = true
	case KindText:
		r.IsTag = e.Text != nil && e.Text.Subkind == SubkindTag
	case KindValueTile:
		r.IsValueTile = true
		if e.Tile != nil {
			r.ValueTileType = e.Tile.Kind
		}
	case KindDrinkaware:
		r.IsDrinkaware = true
	case KindSafeZone:
		r.IsSafeZone = true
	case KindBackgroundImage, KindShape:
	}
	return r
}

// IsTag reports whether the element is a tag
func (e *Element) IsTag() bool {
	return e.Kind == KindText && e.Text != nil && e.Text.Subkind == SubkindTag
}

// IsSubkind reports whether the element is a text element of the given subkind
func (e *Element) IsSubkind(s TextSubkind) bool {
	return e.Kind == KindText && e.Text != nil && e.Text.Subkind == s
}

// TileKind returns the value tile kind of a tile part
func (e *Element) TileKind() (types.TileKind, bool) {
	if e.Kind != KindValueTile || e.Tile == nil {
		return "", false
	}
	return e.Tile.Kind, true
}

// HasText reports whether the element carries text
func (e *Element) HasText() bool {
	return e.Text != nil
}

// EffectiveFontSize is the rendered font size, accounting for vertical scale
func (e *Element) EffectiveFontSize() float64 {
	if e.Text == nil {
		return 0
	}
	return e.Text.FontSize * math.Abs(nonZero(e.Geometry.ScaleY))
}

// DisplayName returns the custom name or a name derived from the kind
func (e *Element) DisplayName() string {
	if e.Name != "" {
		return e.Name
	}
	switch e.Kind {
	case KindPackshot:
		if e.Lead {
			return "Lead Packshot"
		}
		return "Packshot"
	case KindLogo:
		return "Logo"
	case KindBackgroundImage:
		return "Background Image"
	case KindText:
		if e.Text == nil {
			return "Text"
		}
		switch e.Text.Subkind {
		case SubkindHeadline:
			return "Headline"
		case SubkindSubheadline:
			return "Subheadline"
		case SubkindTag:
			return "Tag"
		case SubkindAI:
			return "AI Text"
		default:
			return "Text"
		}
	case KindValueTile:
		if e.Tile == nil {
			return "Value Tile"
		}
		return fmt.Sprintf("%s Tile (%s)", titleTile(e.Tile.Kind), e.Tile.Part)
	case KindDrinkaware:
		return "Drinkaware"
	case KindShape:
		if e.Shape != nil {
			return "Shape (" + string(e.Shape.Kind) + ")"
		}
		return "Shape"
	case KindSafeZone:
		return "Safe Zone"
	default:
		return string(e.Kind)
	}
}

func titleTile(k types.TileKind) string {
	switch k {
	case types.TileNew:
		return "New"
	case types.TileWhite:
		return "White"
	case types.TileClubcard:
		return "Clubcard"
	default:
		return string(k)
	}
}

// Size returns the scaled width and height
func (e *Element) Size() (w, h float64) {
	return e.Geometry.Width * math.Abs(nonZero(e.Geometry.ScaleX)), e.Geometry.Height * math.Abs(nonZero(e.Geometry.ScaleY))
}

// Bounds returns the axis-aligned bounding box in document coordinates,
// including rotation about the origin point.
func (e *Element) Bounds() types.Rect {
	w, h := e.Size()
	left := e.Geometry.X - originOffset(e.Geometry.OriginX, w)
	top := e.Geometry.Y - originOffset(e.Geometry.OriginY, h)
	if e.Geometry.Rotation == 0 {
		return types.Rect{X: left, Y: top, Width: w, Height: h}
	}
	rad := e.Geometry.Rotation * math.Pi / 180
	sin, cos := math.Sin(rad), math.Cos(rad)
	ox, oy := e.Geometry.X, e.Geometry.Y
	corners := [4][2]float64{{left, top}, {left + w, top}, {left, top + h}, {left + w, top + h}}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, c := range corners {
		dx, dy := c[0]-ox, c[1]-oy
		x := ox + dx*cos - dy*sin
		y := oy + dx*sin + dy*cos
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}
	return types.Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Center returns the center of the unrotated box
func (e *Element) Center() (x, y float64) {
	w, h := e.Size()
	left := e.Geometry.X - originOffset(e.Geometry.OriginX, w)
	top := e.Geometry.Y - originOffset(e.Geometry.OriginY, h)
	return left + w/2, top + h/2
}

// SetCenter moves the element so its unrotated box is centered on (x, y)
func (e *Element) SetCenter(x, y float64) {
	w, h := e.Size()
	e.Geometry.X = x - w/2 + originOffset(e.Geometry.OriginX, w)
	e.Geometry.Y = y - h/2 + originOffset(e.Geometry.OriginY, h)
}

// TopLeft returns the top-left corner of the unrotated box
func (e *Element) TopLeft() (x, y float64) {
	w, h := e.Size()
	return e.Geometry.X - originOffset(e.Geometry.OriginX, w), e.Geometry.Y - originOffset(e.Geometry.OriginY, h)
}

// SetTopLeft moves the element so its unrotated box starts at (x, y)
func (e *Element) SetTopLeft(x, y float64) {
	w, h := e.Size()
	e.Geometry.X = x + originOffset(e.Geometry.OriginX, w)
	e.Geometry.Y = y + originOffset(e.Geometry.OriginY, h)
}

// SetFontSize changes the font size of a text-bearing element and remeasures its box
func (e *Element) SetFontSize(size float64) {
	if e.Text == nil {
		return
	}
	e.Text.FontSize = size
	e.remeasure()
}

// Clone deep-copies the element
func (e *Element) Clone() *Element {
	c := *e
	if e.Text != nil {
		t := *e.Text
		c.Text = &t
	}
	if e.Image != nil {
		i := *e.Image
		c.Image = &i
	}
	if e.Tile != nil {
		t := *e.Tile
		c.Tile = &t
	}
	if e.Shape != nil {
		s := *e.Shape
		s.Points = append([]Vec(nil), e.Shape.Points...)
		c.Shape = &s
	}
	return &c
}

// Validate checks that the payloads match the kind
func (e *Element) Validate() error {
	if e.ID == "" {
		return &InvariantError{Rule: "element-id", Message: "element id is required"}
	}
	switch e.Kind {
	case KindPackshot, KindLogo, KindBackgroundImage:
		if e.Image == nil {
			return &InvariantError{Rule: "payload", Message: fmt.Sprintf("%s element %s has no image", e.Kind, e.ID)}
		}
	case KindText, KindDrinkaware:
		if e.Text == nil {
			return &InvariantError{Rule: "payload", Message: fmt.Sprintf("%s element %s has no text", e.Kind, e.ID)}
		}
	case KindValueTile:
		if e.Tile == nil || e.Tile.GroupID == "" {
			return &InvariantError{Rule: "payload", Message: fmt.Sprintf("value tile part %s has no group", e.ID)}
		}
		if e.Text == nil && e.Shape == nil {
			return &InvariantError{Rule: "payload", Message: fmt.Sprintf("value tile part %s has neither text nor shape", e.ID)}
		}
	case KindShape:
		if e.Shape == nil {
			return &InvariantError{Rule: "payload", Message: fmt.Sprintf("shape element %s has no shape", e.ID)}
		}
	case KindSafeZone:
	default:
		return &InvariantError{Rule: "kind", Message: fmt.Sprintf("unknown element kind %q", e.Kind)}
	}
	return nil
}

// MeasureText estimates the box of a single-style text run
func MeasureText(content string, fontSize float64) (w, h float64) {
	lines := strings.Split(content, "\n")
	longest := 0
	for _, line := range lines {
		if n := utf8.RuneCountInString(line); n > longest {
			longest = n
		}
	}
	return float64(longest) * fontSize * 0.55, float64(len(lines)) * fontSize * 1.16
}

// remeasure recomputes the box of text elements after a content or size change
func (e *Element) remeasure() {
	if e.Text == nil {
		return
	}
	w, h := MeasureText(e.Text.Content, e.Text.FontSize)
	if e.Kind == KindDrinkaware {
		w += e.Text.FontSize
		h += e.Text.FontSize * 0.5
	}
	e.Geometry.Width, e.Geometry.Height = w, h
}

func originOffset(origin string, size float64) float64 {
	switch origin {
	case OriginCenter:
		return size / 2
	case OriginRight, OriginBottom:
		return size
	default:
		return 0
	}
}

func nonZero(v float64) float64 {
	if v == 0 {
		return 1
	}
	return v
}
