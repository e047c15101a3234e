package document

import (
	"fmt"

	"github.com/jonathan/creative-compliance/internal/rulebook"
)

// Mutation is a single document edit. Every change to a document goes through Apply.
type Mutation interface {
	// Name identifies the mutation in logs and history
	Name() string
}

// AddElements inserts elements; safe zones go to the back of the stack, others on top
type AddElements struct {
	Elements []*Element
}

// RemoveElement deletes one element. Removing a tile part removes its whole group.
type RemoveElement struct {
	ID string
}

// RemoveMatching deletes every element the predicate selects
type RemoveMatching struct {
	Match func(*Element) bool
}

// UpdateElement patches the properties of one element
type UpdateElement struct {
	ID    string
	Patch Patch
}

// ReorderElement moves an element to a z-index, never below the safe zones
type ReorderElement struct {
	ID string
	To int
}

// SetLead makes a packshot the lead
type SetLead struct {
	ID string
}

// SetBackground changes the document background color
type SetBackground struct {
	Color string
}

// SetAlcohol flags the creative as an alcohol promotion
type SetAlcohol struct {
	Alcohol bool
}

// SetFormat changes the format id and rebuilds the safe zones for it
type SetFormat struct {
	FormatID string
}

// Batch applies mutations atomically: either all succeed or the document is unchanged
type Batch struct {
	Label     string
	Mutations []Mutation
}

func (AddElements) Name() string    { return "add" }
func (RemoveElement) Name() string  { return "remove" }
func (RemoveMatching) Name() string { return "remove-matching" }
func (UpdateElement) Name() string  { return "update" }
func (ReorderElement) Name() string { return "reorder" }
func (SetLead) Name() string        { return "set-lead" }
func (SetBackground) Name() string  { return "set-background" }
func (SetAlcohol) Name() string     { return "set-alcohol" }
func (SetFormat) Name() string      { return "set-format" }

// Name returns the batch label
func (b Batch) Name() string {
	if b.Label != "" {
		return b.Label
	}
	return "batch"
}

// Patch lists property changes; nil fields are left alone
type Patch struct {
	X           *float64
	Y           *float64
	ScaleX      *float64
	ScaleY      *float64
	Rotation    *float64
	Width       *float64
	Height      *float64
	Fill        *string
	Stroke      *string
	StrokeWidth *float64
	Opacity     *float64
	Content     *string
	FontSize    *float64
	TextAlign   *string
	Name        *string
	Source      *string
}

// Float returns a pointer for patch fields
func Float(v float64) *float64 { return &v }

// String returns a pointer for patch fields
func String(v string) *string { return &v }

func changed(p *float64, current float64) bool {
	return p != nil && *p != current
}

func (p Patch) applyTo(e *Element) error {
	if e.Kind == KindSafeZone {
		return &InvariantError{Rule: "safe-zone-edit", Message: "safe zones cannot be edited"}
	}
	g := &e.Geometry
	locked := func(axis string) error {
		return &InvariantError{Rule: "locked", Message: fmt.Sprintf("%s of %s is locked", axis, e.DisplayName())}
	}
	if changed(p.X, g.X) && e.Flags.LockMoveX {
		return locked("horizontal position")
	}
	if changed(p.Y, g.Y) && e.Flags.LockMoveY {
		return locked("vertical position")
	}
	if changed(p.ScaleX, g.ScaleX) && e.Flags.LockScaleX {
		return locked("horizontal scale")
	}
	if changed(p.ScaleY, g.ScaleY) && e.Flags.LockScaleY {
		return locked("vertical scale")
	}
	if changed(p.Rotation, g.Rotation) && e.Flags.LockRotation {
		return locked("rotation")
	}

	textChange := p.Content != nil || p.FontSize != nil || p.TextAlign != nil
	if textChange && e.Text == nil {
		return &InvariantError{Rule: "payload", Message: fmt.Sprintf("%s has no text", e.DisplayName())}
	}
	if e.Kind == KindValueTile {
		if p.Content != nil && (!e.Flags.Editable || !rulebook.TilePartEditable(e.Tile.Kind, string(e.Tile.Part))) {
			return &InvariantError{Rule: "tile-part", Message: fmt.Sprintf("%s is not editable", e.DisplayName())}
		}
		if p.FontSize != nil || p.Width != nil || p.Height != nil {
			return &InvariantError{Rule: "tile-part", Message: "value tile typography and size are fixed"}
		}
	}
	if e.Kind == KindDrinkaware && p.Content != nil && *p.Content != rulebook.DrinkawareText {
		return &InvariantError{Rule: "drinkaware-text", Message: "drinkaware text is fixed"}
	}
	if p.Source != nil && e.Image == nil {
		return &InvariantError{Rule: "payload", Message: fmt.Sprintf("%s has no image", e.DisplayName())}
	}
	if p.FontSize != nil && *p.FontSize <= 0 {
		return &InvariantError{Rule: "font-size", Message: "font size must be positive"}
	}
	if p.Opacity != nil && (*p.Opacity < 0 || *p.Opacity > 1) {
		return &InvariantError{Rule: "opacity", Message: "opacity must be within [0, 1]"}
	}

	set := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	set(&g.X, p.X)
	set(&g.Y, p.Y)
	set(&g.ScaleX, p.ScaleX)
	set(&g.ScaleY, p.ScaleY)
	set(&g.Rotation, p.Rotation)
	set(&g.Width, p.Width)
	set(&g.Height, p.Height)
	set(&e.Paint.StrokeWidth, p.StrokeWidth)
	set(&e.Paint.Opacity, p.Opacity)
	if p.Fill != nil {
		e.Paint.Fill = *p.Fill
	}
	if p.Stroke != nil {
		e.Paint.Stroke = *p.Stroke
	}
	if p.Name != nil {
		e.Name = *p.Name
	}
	if p.Source != nil {
		e.Image.Source = *p.Source
	}
	if e.Text != nil {
		if p.TextAlign != nil {
			e.Text.TextAlign = *p.TextAlign
		}
		if p.Content != nil || p.FontSize != nil {
			if p.Content != nil {
				e.Text.Content = *p.Content
			}
			if p.FontSize != nil {
				e.Text.FontSize = *p.FontSize
			}
			e.remeasure()
		}
	}
	return nil
}

// Apply performs a mutation and emits its events in order. On error the document is unchanged.
func (d *Document) Apply(m Mutation) error {
	events, err := d.apply(m)
	if err != nil {
		return err
	}
	for _, ev := range events {
		d.Notify(ev)
	}
	return nil
}

func (d *Document) apply(m Mutation) ([]Event, error) {
	switch m := m.(type) {
	case AddElements:
		ev, err := d.add(m.Elements)
		if err != nil {
			return nil, err
		}
		return []Event{ev}, nil
	case RemoveElement:
		return d.remove(m.ID)
	case RemoveMatching:
		if m.Match == nil {
			return nil, nil
		}
		return d.removeMatching(m.Match), nil
	case UpdateElement:
		ev, err := d.update(m.ID, m.Patch)
		if err != nil {
			return nil, err
		}
		return []Event{ev}, nil
	case ReorderElement:
		ev, err := d.reorder(m.ID, m.To)
		if err != nil {
			return nil, err
		}
		return []Event{ev}, nil
	case SetLead:
		return d.setLead(m.ID)
	case SetBackground:
		if !rulebook.HexColorPattern.MatchString(m.Color) {
			return nil, &InvariantError{Rule: "color", Message: fmt.Sprintf("invalid color %q", m.Color)}
		}
		d.Background = m.Color
		return []Event{{Type: EventModified}}, nil
	case SetAlcohol:
		d.Alcohol = m.Alcohol
		return []Event{{Type: EventModified}}, nil
	case SetFormat:
		return d.setFormat(m.FormatID)
	case Batch:
		work := d.Clone()
		var all []Event
		for _, sub := range m.Mutations {
			evs, err := work.apply(sub)
			if err != nil {
				return nil, err
			}
			all = append(all, evs...)
		}
		d.adopt(work)
		return all, nil
	case nil:
		return nil, &InvariantError{Rule: "mutation", Message: "nil mutation"}
	default:
		return nil, &InvariantError{Rule: "mutation", Message: fmt.Sprintf("unsupported mutation %T", m)}
	}
}

// Add inserts elements
func (d *Document) Add(els ...*Element) error {
	return d.Apply(AddElements{Elements: els})
}

// Remove deletes an element by id
func (d *Document) Remove(id string) error {
	return d.Apply(RemoveElement{ID: id})
}

// Update patches an element
func (d *Document) Update(id string, p Patch) error {
	return d.Apply(UpdateElement{ID: id, Patch: p})
}

// Reorder moves an element in the stack
func (d *Document) Reorder(id string, to int) error {
	return d.Apply(ReorderElement{ID: id, To: to})
}
