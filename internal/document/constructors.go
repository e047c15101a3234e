package document

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/creative-compliance/internal/rulebook"
	"github.com/jonathan/creative-compliance/internal/types"
)

// Default typography
const (
	DefaultFontFamily = "Helvetica"
	DefaultTextColor  = rulebook.ColorBlack
)

func newElement(kind Kind) *Element {
	return &Element{
		ID:   uuid.NewString(),
		Kind: kind,
		Geometry: Geometry{
			ScaleX: 1, ScaleY: 1,
			OriginX: OriginCenter, OriginY: OriginCenter,
		},
		Paint: Paint{Opacity: 1},
		Flags: Flags{Selectable: true, Editable: false},
	}
}

// NewPackshot creates a product image element
func NewPackshot(source string, width, height int) *Element {
	e := newElement(KindPackshot)
	e.Image = &ImageProps{Source: source, NaturalWidth: width, NaturalHeight: height}
	e.Geometry.Width, e.Geometry.Height = float64(width), float64(height)
	return e
}

// NewLogo creates a brand logo element
func NewLogo(source string, width, height int) *Element {
	e := newElement(KindLogo)
	e.Image = &ImageProps{Source: source, NaturalWidth: width, NaturalHeight: height}
	e.Geometry.Width, e.Geometry.Height = float64(width), float64(height)
	return e
}

// NewBackgroundImage creates a full-bleed background image sized to the format
func NewBackgroundImage(source string, width, height int, f types.Format) *Element {
	e := newElement(KindBackgroundImage)
	e.Image = &ImageProps{Source: source, NaturalWidth: width, NaturalHeight: height}
	e.Geometry.Width, e.Geometry.Height = float64(width), float64(height)
	e.Geometry.OriginX, e.Geometry.OriginY = OriginLeft, OriginTop
	if width > 0 && height > 0 {
		e.Geometry.ScaleX = float64(f.Width) / float64(width)
		e.Geometry.ScaleY = float64(f.Height) / float64(height)
	}
	return e
}

// NewText creates an editable text element
func NewText(subkind TextSubkind, content string, fontSize float64) *Element {
	e := newElement(KindText)
	e.Flags.Editable = true
	weight := "normal"
	if subkind == SubkindHeadline {
		weight = "bold"
	}
	e.Text = &TextProps{
		Content:    content,
		FontSize:   fontSize,
		FontFamily: DefaultFontFamily,
		FontWeight: weight,
		TextAlign:  "center",
		Subkind:    subkind,
	}
	e.Paint.Fill = DefaultTextColor
	e.remeasure()
	return e
}

// NewTag creates a tag centered at (x, y), locked on every axis
func NewTag(content string, x, y, fontSize float64, color string) *Element {
	e := NewText(SubkindTag, content, fontSize)
	e.Paint.Fill = color
	e.Geometry.X, e.Geometry.Y = x, y
	e.Flags = LockedAll(true, true)
	return e
}

// NewDrinkaware creates the alcohol responsibility lockup: a white box with centered text
func NewDrinkaware(fontSize float64) *Element {
	e := newElement(KindDrinkaware)
	e.Text = &TextProps{
		Content:         rulebook.DrinkawareText,
		FontSize:        fontSize,
		FontFamily:      DefaultFontFamily,
		FontWeight:      "bold",
		TextAlign:       "center",
		BackgroundColor: rulebook.ColorWhite,
	}
	e.Paint.Fill = rulebook.ColorBlack
	e.Geometry.OriginX, e.Geometry.OriginY = OriginRight, OriginBottom
	e.remeasure()
	return e
}

// NewShape creates a vector element of the given kind with a default size
func NewShape(kind ShapeKind, width, height float64, fill string) (*Element, error) {
	e := newElement(KindShape)
	e.Geometry.Width, e.Geometry.Height = width, height
	e.Paint.Fill = fill
	e.Flags.Editable = true
	s := &ShapeProps{Kind: kind}
	switch kind {
	case ShapeRect, ShapeCircle, ShapeEllipse, ShapeTriangle:
	case ShapeRoundedRect:
		s.CornerRadius = minFloat(width, height) * 0.1
	case ShapePolygon:
		s.Sides = 6
	case ShapeStar:
		s.Sides = 5
		s.InnerRatio = 0.5
	case ShapeLine:
		e.Paint.Stroke = fill
		e.Paint.StrokeWidth = 4
		s.Points = []Vec{{X: 0, Y: 0}, {X: width, Y: height}}
	case ShapePath:
		s.PathData = fmt.Sprintf("M 0 0 L %g 0 L %g %g Z", width, width, height)
	default:
		return nil, &InvariantError{Rule: "shape-kind", Message: fmt.Sprintf("unsupported shape %q", kind)}
	}
	if kind == ShapeCircle {
		d := minFloat(width, height)
		e.Geometry.Width, e.Geometry.Height = d, d
	}
	e.Shape = s
	return e, nil
}

// NewSafeZone creates a non-exported, non-selectable safe zone band
func NewSafeZone(zone rulebook.NamedRect) *Element {
	e := newElement(KindSafeZone)
	e.ID = zone.ID
	e.Geometry.OriginX, e.Geometry.OriginY = OriginLeft, OriginTop
	e.Geometry.X, e.Geometry.Y = zone.Rect.X, zone.Rect.Y
	e.Geometry.Width, e.Geometry.Height = zone.Rect.Width, zone.Rect.Height
	e.Paint = Paint{Fill: "#FF0000", Opacity: 0.15}
	e.Flags = LockedAll(false, false)
	e.Name = "Safe Zone"
	return e
}

// SafeZonesFor builds the safe zone elements of a format
func SafeZonesFor(f types.Format) []*Element {
	zones := rulebook.SafeZones(f)
	out := make([]*Element, 0, len(zones))
	for _, z := range zones {
		out = append(out, NewSafeZone(z))
	}
	return out
}

// NewValueTileGroup builds the parts of a value tile of the given kind, centered at (cx, cy)
func NewValueTileGroup(kind types.TileKind, formatID string, cx, cy float64) ([]*Element, error) {
	tmpl, ok := rulebook.TileTemplateFor(kind, formatID)
	if !ok {
		return nil, &InvariantError{Rule: "tile-kind", Message: fmt.Sprintf("unknown value tile kind %q", kind)}
	}
	groupID := uuid.NewString()
	part := func(p TilePart) *Element {
		e := newElement(KindValueTile)
		e.Tile = &TileProps{Kind: kind, GroupID: groupID, Part: p}
		e.Flags = LockedAll(true, rulebook.TilePartEditable(kind, string(p)))
		return e
	}
	text := func(p TilePart, content string, size float64) *Element {
		e := part(p)
		e.Text = &TextProps{Content: content, FontSize: size, FontFamily: DefaultFontFamily, FontWeight: "bold", TextAlign: "center"}
		e.Paint.Fill = tmpl.Text
		return e
	}

	bg := part(PartBackground)
	bg.Flags.Editable = false
	bg.Paint.Fill = tmpl.Bg
	if tmpl.IsCircular {
		bg.Shape = &ShapeProps{Kind: ShapeCircle}
	} else {
		bg.Shape = &ShapeProps{Kind: ShapeRect}
	}
	if tmpl.Border != "" {
		bg.Paint.Stroke = tmpl.Border
		bg.Paint.StrokeWidth = 4
	}

	parts := []*Element{bg}
	switch kind {
	case types.TileNew:
		parts = append(parts, text(PartLabel, tmpl.LabelText, tmpl.FontSize))
	case types.TileWhite:
		parts = append(parts, text(PartPrice, tmpl.DefaultPrice, tmpl.FontSize))
	case types.TileClubcard:
		parts = append(parts,
			text(PartPrice, tmpl.DefaultPrice, tmpl.FontSize),
			text(PartLabel, tmpl.LabelText, tmpl.LabelFontSize),
		)
		was := text(PartWas, "Regular price £1.50", tmpl.WasFontSize)
		was.Paint.Fill = rulebook.ColorBlack
		parts = append(parts, was)
	}
	LayoutTileGroup(parts, tmpl, cx, cy)
	return parts, nil
}

// LayoutTileGroup positions and sizes the parts of a tile group around (cx, cy)
func LayoutTileGroup(parts []*Element, tmpl rulebook.TileTemplate, cx, cy float64) {
	w, h := tmpl.W, tmpl.H
	if tmpl.IsCircular {
		w, h = tmpl.Radius*2, tmpl.Radius*2
	}
	hasLabel := false
	for _, p := range parts {
		if p.Tile != nil && p.Tile.Part == PartLabel && tmpl.IsCircular {
			hasLabel = true
		}
	}
	for _, p := range parts {
		if p.Tile == nil {
			continue
		}
		p.Geometry.ScaleX, p.Geometry.ScaleY, p.Geometry.Rotation = 1, 1, 0
		switch p.Tile.Part {
		case PartBackground:
			p.Geometry.OriginX, p.Geometry.OriginY = OriginCenter, OriginCenter
			p.Geometry.X, p.Geometry.Y = cx, cy
			p.Geometry.Width, p.Geometry.Height = w, h
		case PartPrice:
			p.Text.FontSize = tmpl.FontSize
			p.remeasure()
			p.Geometry.OriginX, p.Geometry.OriginY = OriginCenter, OriginCenter
			p.Geometry.X, p.Geometry.Y = cx, cy
			if hasLabel {
				p.Geometry.Y = cy - h*0.1
			}
		case PartLabel:
			if tmpl.IsCircular {
				p.Text.FontSize = tmpl.LabelFontSize
			} else {
				p.Text.FontSize = tmpl.FontSize
			}
			p.remeasure()
			p.Geometry.OriginX, p.Geometry.OriginY = OriginCenter, OriginCenter
			p.Geometry.X, p.Geometry.Y = cx, cy
			if tmpl.IsCircular {
				p.Geometry.Y = cy + h*0.25
			}
		case PartWas:
			p.Text.FontSize = tmpl.WasFontSize
			p.remeasure()
			p.Geometry.OriginX, p.Geometry.OriginY = OriginRight, OriginCenter
			p.Geometry.X, p.Geometry.Y = cx-w/2-12, cy
		}
	}
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
