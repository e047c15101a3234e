// Package layout re-projects a creative from one ad format to another using
// role-aware placement rules from the rulebook.
package layout

import (
	"fmt"
	"math"

	"github.com/jonathan/creative-compliance/internal/document"
	"github.com/jonathan/creative-compliance/internal/rulebook"
	"github.com/jonathan/creative-compliance/internal/types"
)

// Font size thresholds for classifying untyped text
const (
	HeadlineMinFontSize    = 48.0
	SubheadlineMinFontSize = 24.0
)

// Role is the placement role the adapter assigns to an element
type Role string

// Placement roles
const (
	RolePackshot    Role = "packshot"
	RoleValueTile   Role = "value_tile"
	RoleDrinkaware  Role = "drinkaware"
	RoleTag         Role = "tag"
	RoleHeadline    Role = "headline"
	RoleSubheadline Role = "subheadline"
	RoleBackground  Role = "background"
	RoleSafeZone    Role = "safe_zone"
	RoleOther       Role = "other"
)

// RoleOf classifies an element for placement
func RoleOf(e *document.Element) Role {
	switch e.Kind {
	case document.KindPackshot:
		return RolePackshot
	case document.KindValueTile:
		return RoleValueTile
	case document.KindDrinkaware:
		return RoleDrinkaware
	case document.KindBackgroundImage:
		return RoleBackground
	case document.KindSafeZone:
		return RoleSafeZone
	case document.KindText:
		switch e.Text.Subkind {
		case document.SubkindTag:
			return RoleTag
		case document.SubkindHeadline:
			return RoleHeadline
		case document.SubkindSubheadline:
			return RoleSubheadline
		}
		switch {
		case e.Text.FontSize >= HeadlineMinFontSize:
			return RoleHeadline
		case e.Text.FontSize >= SubheadlineMinFontSize:
			return RoleSubheadline
		}
		return RoleOther
	case document.KindLogo, document.KindShape:
		return RoleOther
	default:
		return RoleOther
	}
}

// projection carries the ratios between the source and target formats
type projection struct {
	from, to types.Format
	rule     rulebook.LayoutRule
	sx, sy   float64
	avg      float64
}

func newProjection(from, to types.Format) projection {
	sx := float64(to.Width) / float64(from.Width)
	sy := float64(to.Height) / float64(from.Height)
	return projection{from: from, to: to, rule: rulebook.LayoutFor(to.ID), sx: sx, sy: sy, avg: (sx + sy) / 2}
}

func (p projection) width() float64  { return float64(p.to.Width) }
func (p projection) height() float64 { return float64(p.to.Height) }

// Adapt returns a new document with every element of doc re-projected from one
// format to another. The source document is not modified. Element ids and role
// tags are preserved and the result is a pure function of its inputs.
func Adapt(doc *document.Document, from, to types.Format) (*document.Document, error) {
	if from.Width <= 0 || from.Height <= 0 || to.Width <= 0 || to.Height <= 0 {
		return nil, &AdaptError{From: from.ID, To: to.ID, Message: "format dimensions must be positive"}
	}
	p := newProjection(from, to)

	var out []*document.Element
	tiles := make(map[string][]*document.Element)
	var tileOrder []string

	for _, e := range doc.Elements() {
		switch RoleOf(e) {
		case RoleSafeZone:
			continue
		case RolePackshot:
			p.placePackshot(e)
		case RoleValueTile:
			if _, seen := tiles[e.Tile.GroupID]; !seen {
				tileOrder = append(tileOrder, e.Tile.GroupID)
			}
			tiles[e.Tile.GroupID] = append(tiles[e.Tile.GroupID], e)
		case RoleDrinkaware:
			p.placeDrinkaware(e)
		case RoleTag:
			p.placeTag(e)
		case RoleHeadline:
			p.placeCopy(e, p.rule.HeadlineY)
		case RoleSubheadline:
			p.placeCopy(e, p.rule.HeadlineY+rulebook.SubheadlineOffset)
		case RoleBackground:
			p.placeBackground(e)
		default:
			p.placeProportional(e)
		}
		out = append(out, e)
	}

	for _, groupID := range tileOrder {
		parts := tiles[groupID]
		kind := parts[0].Tile.Kind
		tmpl, ok := rulebook.TileTemplateFor(kind, to.ID)
		if !ok {
			return nil, &AdaptError{From: from.ID, To: to.ID, Message: fmt.Sprintf("no template for %s tile", kind)}
		}
		ax, ay := rulebook.TileAnchor(kind, to.ID)
		document.LayoutTileGroup(parts, tmpl, p.width()*ax, p.height()*ay)
	}

	out = append(document.SafeZonesFor(to), out...)
	adapted, err := document.FromElements(doc.ID, to.ID, doc.Background, doc.Alcohol, out)
	if err != nil {
		return nil, &AdaptError{From: from.ID, To: to.ID, Message: "projected document is invalid", Cause: err}
	}
	return adapted, nil
}

// AdaptTo adapts a document from its own format to the target
func AdaptTo(doc *document.Document, to types.Format) (*document.Document, error) {
	from, ok := rulebook.FormatByID(doc.FormatID)
	if !ok {
		return nil, &AdaptError{From: doc.FormatID, To: to.ID, Message: "unknown source format"}
	}
	return Adapt(doc, from, to)
}

// placePackshot centers every packshot horizontally at the format's packshot height
func (p projection) placePackshot(e *document.Element) {
	scaleBy(e, p.rule.Scale*p.avg)
	e.SetCenter(p.width()/2, p.height()*p.rule.PackY)
}

func (p projection) placeDrinkaware(e *document.Element) {
	scaleBy(e, math.Min(p.sx, 1))
	e.Geometry.Rotation = 0
	e.Geometry.OriginX, e.Geometry.OriginY = document.OriginRight, document.OriginBottom
	e.Geometry.X = p.width() - rulebook.EdgeInset
	e.Geometry.Y = p.height() - rulebook.BottomInset(p.to)
}

func (p projection) placeTag(e *document.Element) {
	y := p.height() - rulebook.TagFromBottom*p.sy
	if p.to.IsStory() {
		y = p.height() - rulebook.StoryTagFromBottom
	}
	e.SetCenter(p.width()/2, y)
}

func (p projection) placeCopy(e *document.Element, yFraction float64) {
	size := math.Round(e.Text.FontSize * p.rule.FontFactor * p.rule.Scale)
	if size < 1 {
		size = 1
	}
	e.SetFontSize(size)
	e.SetCenter(p.width()*p.rule.HeadlineX, p.height()*yFraction)
}

// placeBackground stretches a background image over the whole target canvas
func (p projection) placeBackground(e *document.Element) {
	e.Geometry.Rotation = 0
	e.Geometry.OriginX, e.Geometry.OriginY = document.OriginLeft, document.OriginTop
	e.Geometry.X, e.Geometry.Y = 0, 0
	if e.Geometry.Width > 0 && e.Geometry.Height > 0 {
		e.Geometry.ScaleX = p.width() / e.Geometry.Width
		e.Geometry.ScaleY = p.height() / e.Geometry.Height
	}
}

func (p projection) placeProportional(e *document.Element) {
	left, top := e.TopLeft()
	scaleBy(e, p.avg)
	e.SetTopLeft(left*p.sx, top*p.sy)
}

// scaleBy multiplies both scale factors; an unset factor counts as 1
func scaleBy(e *document.Element, f float64) {
	if e.Geometry.ScaleX == 0 {
		e.Geometry.ScaleX = 1
	}
	if e.Geometry.ScaleY == 0 {
		e.Geometry.ScaleY = 1
	}
	e.Geometry.ScaleX *= f
	e.Geometry.ScaleY *= f
}
