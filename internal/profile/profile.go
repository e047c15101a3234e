// Package profile enforces creative profiles: document-wide locks on background,
// text color and alignment, the allowed value tiles, and the automatic tag.
package profile

import (
	"strings"

	"github.com/jonathan/creative-compliance/internal/document"
	"github.com/jonathan/creative-compliance/internal/rulebook"
	"github.com/jonathan/creative-compliance/internal/types"
)

// Auto-tag placement
const (
	AutoTagFontSize     = 20.0
	AutoTagBottomOffset = 25.0
)

// Lock attributes
const (
	AttrBackground = "background"
	AttrTextColor  = "text color"
	AttrTextAlign  = "text alignment"
	AttrValueTile  = "value tile"
)

// Changes summarizes what activating a profile did to a document
type Changes struct {
	BackgroundChanged bool             `json:"background_changed"`
	Recolored         []string         `json:"recolored,omitempty"`
	Realigned         []string         `json:"realigned,omitempty"`
	RemovedTiles      []types.TileKind `json:"removed_tiles,omitempty"`
	AutoTagID         string           `json:"auto_tag_id,omitempty"`
}

// Empty reports whether activation left the document untouched
func (c Changes) Empty() bool {
	return !c.BackgroundChanged && len(c.Recolored) == 0 && len(c.Realigned) == 0 &&
		len(c.RemovedTiles) == 0 && c.AutoTagID == ""
}

// Plan computes the batch that brings a document into line with a profile
func Plan(doc *document.Document, p types.Profile, f types.Format) (document.Batch, Changes) {
	var ch Changes
	batch := document.Batch{Label: "activate-profile:" + string(p.ID)}

	if p.Background.Locked && !sameColor(doc.Background, p.Background.Value) {
		batch.Mutations = append(batch.Mutations, document.SetBackground{Color: p.Background.Value})
		ch.BackgroundChanged = true
	}

	hasTag := false
	for _, e := range doc.Elements() {
		if e.IsTag() {
			hasTag = true
		}
		if e.Kind != document.KindText || e.Text == nil {
			continue
		}
		var patch document.Patch
		if p.TextColor.Locked && !sameColor(e.Paint.Fill, p.TextColor.Value) {
			patch.Fill = document.String(p.TextColor.Value)
			ch.Recolored = append(ch.Recolored, e.ID)
		}
		if p.TextAlign.Locked && e.Text.TextAlign != p.TextAlign.Value {
			patch.TextAlign = document.String(p.TextAlign.Value)
			ch.Realigned = append(ch.Realigned, e.ID)
		}
		if patch.Fill != nil || patch.TextAlign != nil {
			batch.Mutations = append(batch.Mutations, document.UpdateElement{ID: e.ID, Patch: patch})
		}
	}

	for _, kind := range types.AllTileKinds {
		if p.AllowsTile(kind) || !doc.HasTile(kind) {
			continue
		}
		k := kind
		batch.Mutations = append(batch.Mutations, document.RemoveMatching{Match: func(e *document.Element) bool {
			return e.Tile != nil && e.Tile.Kind == k
		}})
		ch.RemovedTiles = append(ch.RemovedTiles, kind)
	}

	if p.AutoTag != "" && !hasTag {
		tag := NewAutoTag(p, f)
		batch.Mutations = append(batch.Mutations, document.AddElements{Elements: []*document.Element{tag}})
		ch.AutoTagID = tag.ID
	}
	return batch, ch
}

// Activate applies a profile to a document as one atomic batch
func Activate(doc *document.Document, p types.Profile, f types.Format) (Changes, error) {
	batch, ch := Plan(doc, p, f)
	if len(batch.Mutations) == 0 {
		return ch, nil
	}
	if err := doc.Apply(batch); err != nil {
		return Changes{}, err
	}
	return ch, nil
}

// NewAutoTag builds the profile's automatic tag, centered near the bottom edge and locked
func NewAutoTag(p types.Profile, f types.Format) *document.Element {
	tag := document.NewTag(p.AutoTag, float64(f.Width)/2, float64(f.Height)-AutoTagBottomOffset, AutoTagFontSize, rulebook.AutoTagColor(p))
	if p.TextAlign.Locked {
		tag.Text.TextAlign = p.TextAlign.Value
	}
	tag.Name = "Auto Tag"
	return tag
}

// Conform returns a copy of the mutation with added and patched text adjusted to the
// profile's text locks, so that tools which know nothing of profiles produce conforming edits.
func Conform(p types.Profile, m document.Mutation) document.Mutation {
	switch m := m.(type) {
	case document.AddElements:
		out := document.AddElements{Elements: make([]*document.Element, len(m.Elements))}
		for i, e := range m.Elements {
			if e == nil {
				continue
			}
			c := e.Clone()
			if c.Kind == document.KindText && c.Text != nil {
				if p.TextColor.Locked {
					c.Paint.Fill = p.TextColor.Value
				}
				if p.TextAlign.Locked {
					c.Text.TextAlign = p.TextAlign.Value
				}
			}
			out.Elements[i] = c
		}
		return out
	case document.Batch:
		out := document.Batch{Label: m.Label, Mutations: make([]document.Mutation, len(m.Mutations))}
		for i, sub := range m.Mutations {
			out.Mutations[i] = Conform(p, sub)
		}
		return out
	default:
		return m
	}
}

// ValidateMutation rejects a mutation that would break one of the profile's locks
func ValidateMutation(doc *document.Document, p types.Profile, m document.Mutation) error {
	switch m := m.(type) {
	case document.SetBackground:
		if p.Background.Locked && !sameColor(m.Color, p.Background.Value) {
			return &LockError{Profile: p.ID, Attribute: AttrBackground, Locked: p.Background.Value, Attempted: m.Color}
		}
	case document.UpdateElement:
		e, ok := doc.Find(m.ID)
		if !ok || e.Kind != document.KindText {
			return nil
		}
		if p.TextColor.Locked && m.Patch.Fill != nil && !sameColor(*m.Patch.Fill, p.TextColor.Value) {
			return &LockError{Profile: p.ID, Attribute: AttrTextColor, Locked: p.TextColor.Value, Attempted: *m.Patch.Fill}
		}
		if p.TextAlign.Locked && m.Patch.TextAlign != nil && *m.Patch.TextAlign != p.TextAlign.Value {
			return &LockError{Profile: p.ID, Attribute: AttrTextAlign, Locked: p.TextAlign.Value, Attempted: *m.Patch.TextAlign}
		}
	case document.AddElements:
		for _, e := range m.Elements {
			if err := validateElement(p, e); err != nil {
				return err
			}
		}
	case document.Batch:
		// later sub-mutations see the elements earlier ones added
		work := doc.Clone()
		for _, sub := range m.Mutations {
			if err := ValidateMutation(work, p, sub); err != nil {
				return err
			}
			if err := work.Apply(sub); err != nil {
				return nil //nolint:nilerr // applying the batch reports this error
			}
		}
	}
	return nil
}

func validateElement(p types.Profile, e *document.Element) error {
	if e == nil {
		return nil
	}
	if kind, ok := e.TileKind(); ok && !p.AllowsTile(kind) {
		return &LockError{Profile: p.ID, Attribute: AttrValueTile, Attempted: string(kind)}
	}
	if e.Kind != document.KindText || e.Text == nil {
		return nil
	}
	if p.TextColor.Locked && !sameColor(e.Paint.Fill, p.TextColor.Value) {
		return &LockError{Profile: p.ID, Attribute: AttrTextColor, Locked: p.TextColor.Value, Attempted: e.Paint.Fill}
	}
	if p.TextAlign.Locked && e.Text.TextAlign != p.TextAlign.Value {
		return &LockError{Profile: p.ID, Attribute: AttrTextAlign, Locked: p.TextAlign.Value, Attempted: e.Text.TextAlign}
	}
	return nil
}

// Availability is the state of an editor tool under a profile
type Availability string

// Tool availabilities
const (
	Enabled  Availability = "enabled"
	Disabled Availability = "disabled"
)

// ToolState reports whether a tool is usable under the profile
func ToolState(p types.Profile, toolID string) Availability {
	if p.ToolDisabled(toolID) {
		return Disabled
	}
	return Enabled
}

// ToolStates returns the availability of every known tool
func ToolStates(p types.Profile) map[string]Availability {
	out := make(map[string]Availability, len(rulebook.ToolIDs()))
	for _, id := range rulebook.ToolIDs() {
		out[id] = ToolState(p, id)
	}
	return out
}

func sameColor(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
