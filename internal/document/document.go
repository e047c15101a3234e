package document

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/creative-compliance/internal/rulebook"
	"github.com/jonathan/creative-compliance/internal/types"
)

// Document is an ordered sequence of elements (z-order = index) plus document-wide attributes.
// It is not safe for concurrent use; the editor serializes access.
type Document struct {
	ID         string
	FormatID   string
	Background string
	Alcohol    bool

	elements []*Element

	listeners     map[int]Listener
	listenerOrder []int
	nextListener  int
}

// New creates an empty document for a format
func New(formatID string) *Document {
	return &Document{
		ID:         uuid.NewString(),
		FormatID:   formatID,
		Background: rulebook.ColorWhite,
	}
}

// Len returns the number of elements, safe zones included
func (d *Document) Len() int {
	return len(d.elements)
}

// Elements returns copies of every element in z-order
func (d *Document) Elements() []*Element {
	out := make([]*Element, len(d.elements))
	for i, e := range d.elements {
		out[i] = e.Clone()
	}
	return out
}

// Find returns a copy of the element with the given id
func (d *Document) Find(id string) (*Element, bool) {
	if i := d.IndexOf(id); i >= 0 {
		return d.elements[i].Clone(), true
	}
	return nil, false
}

// IndexOf returns the z-index of an element, or -1
func (d *Document) IndexOf(id string) int {
	for i, e := range d.elements {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// Count returns the number of elements of a kind
func (d *Document) Count(kind Kind) int {
	n := 0
	for _, e := range d.elements {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Filter returns copies of the elements matching the predicate, in z-order
func (d *Document) Filter(match func(*Element) bool) []*Element {
	var out []*Element
	for _, e := range d.elements {
		if match(e) {
			out = append(out, e.Clone())
		}
	}
	return out
}

// Lead returns the lead packshot
func (d *Document) Lead() (*Element, bool) {
	for _, e := range d.elements {
		if e.Kind == KindPackshot && e.Lead {
			return e.Clone(), true
		}
	}
	return nil, false
}

// FirstText returns the lowest text element of a subkind
func (d *Document) FirstText(subkind TextSubkind) (*Element, bool) {
	for _, e := range d.elements {
		if e.IsSubkind(subkind) {
			return e.Clone(), true
		}
	}
	return nil, false
}

// TileGroups returns the group ids present for each tile kind, in z-order of first appearance
func (d *Document) TileGroups() map[types.TileKind][]string {
	out := make(map[types.TileKind][]string)
	seen := make(map[string]bool)
	for _, e := range d.elements {
		if e.Kind != KindValueTile || e.Tile == nil || seen[e.Tile.GroupID] {
			continue
		}
		seen[e.Tile.GroupID] = true
		out[e.Tile.Kind] = append(out[e.Tile.Kind], e.Tile.GroupID)
	}
	return out
}

// TileGroup returns copies of the parts of a tile group
func (d *Document) TileGroup(groupID string) []*Element {
	return d.Filter(func(e *Element) bool {
		return e.Tile != nil && e.Tile.GroupID == groupID
	})
}

// HasTile reports whether a tile of the kind exists
func (d *Document) HasTile(kind types.TileKind) bool {
	return len(d.TileGroups()[kind]) > 0
}

// Clone deep-copies the document without its listeners
func (d *Document) Clone() *Document {
	c := &Document{
		ID:         d.ID,
		FormatID:   d.FormatID,
		Background: d.Background,
		Alcohol:    d.Alcohol,
		elements:   make([]*Element, len(d.elements)),
	}
	for i, e := range d.elements {
		c.elements[i] = e.Clone()
	}
	return c
}

// adopt takes over the state of another document, keeping this document's listeners
func (d *Document) adopt(o *Document) {
	d.ID = o.ID
	d.FormatID = o.FormatID
	d.Background = o.Background
	d.Alcohol = o.Alcohol
	d.elements = o.elements
}

// Replace swaps the content of the document for another's, emitting removed then added events
func (d *Document) Replace(o *Document) {
	removed := d.ids(func(*Element) bool { return true })
	d.adopt(o.Clone())
	if len(removed) > 0 {
		d.Notify(Event{Type: EventRemoved, IDs: removed})
	}
	d.Notify(Event{Type: EventModified})
	if added := d.ids(func(*Element) bool { return true }); len(added) > 0 {
		d.Notify(Event{Type: EventAdded, IDs: added})
	}
}

func (d *Document) ids(match func(*Element) bool) []string {
	var out []string
	for _, e := range d.elements {
		if match(e) {
			out = append(out, e.ID)
		}
	}
	return out
}

func (d *Document) format() (types.Format, bool) {
	return rulebook.FormatByID(d.FormatID)
}

// add validates and inserts elements. Safe zones go to the front, everything else to the end.
func (d *Document) add(els []*Element) (Event, error) {
	if len(els) == 0 {
		return Event{}, &InvariantError{Rule: "empty-add", Message: "nothing to add"}
	}
	incoming := make([]*Element, len(els))
	seen := make(map[string]bool, len(d.elements)+len(els))
	for _, e := range d.elements {
		seen[e.ID] = true
	}
	for i, e := range els {
		if e == nil {
			return Event{}, &InvariantError{Rule: "nil-element", Message: "cannot add a nil element"}
		}
		if err := e.Validate(); err != nil {
			return Event{}, err
		}
		if seen[e.ID] {
			return Event{}, &InvariantError{Rule: "duplicate-id", Message: fmt.Sprintf("element id %s already exists", e.ID)}
		}
		seen[e.ID] = true
		if e.Kind == KindSafeZone {
			f, ok := d.format()
			if !ok || !f.IsStory() {
				return Event{}, &InvariantError{Rule: "safe-zone-format", Message: "safe zones exist only in 9:16 formats"}
			}
		}
		if e.Kind == KindValueTile && len(d.TileGroup(e.Tile.GroupID)) > 0 {
			return Event{}, &InvariantError{Rule: "tile-group", Message: fmt.Sprintf("tile group %s already exists", e.Tile.GroupID)}
		}
		incoming[i] = e.Clone()
	}

	combined := append(append([]*Element(nil), d.elements...), incoming...)
	if err := checkCardinality(combined); err != nil {
		return Event{}, err
	}

	hasLead := false
	for _, e := range d.elements {
		if e.Kind == KindPackshot && e.Lead {
			hasLead = true
		}
	}
	ids := make([]string, 0, len(incoming))
	for _, e := range incoming {
		if e.Kind == KindPackshot {
			e.Lead = !hasLead
			hasLead = true
		}
		if e.Kind == KindSafeZone {
			at := d.safeZoneCount()
			d.elements = append(d.elements, nil)
			copy(d.elements[at+1:], d.elements[at:])
			d.elements[at] = e
		} else {
			d.elements = append(d.elements, e)
		}
		ids = append(ids, e.ID)
	}
	return Event{Type: EventAdded, IDs: ids}, nil
}

func (d *Document) safeZoneCount() int {
	n := 0
	for _, e := range d.elements {
		if e.Kind == KindSafeZone {
			n++
		}
	}
	return n
}

// remove deletes an element; tile parts take their whole group with them and
// removing the lead packshot promotes the next packshot.
func (d *Document) remove(id string) ([]Event, error) {
	i := d.IndexOf(id)
	if i < 0 {
		return nil, &NotFoundError{ID: id}
	}
	target := d.elements[i]
	match := func(e *Element) bool { return e.ID == id }
	if target.Kind == KindValueTile && target.Tile != nil {
		group := target.Tile.GroupID
		match = func(e *Element) bool { return e.Tile != nil && e.Tile.GroupID == group }
	}
	return d.removeMatching(match), nil
}

func (d *Document) removeMatching(match func(*Element) bool) []Event {
	var removed []string
	kept := d.elements[:0:0]
	lostLead := false
	for _, e := range d.elements {
		if match(e) {
			removed = append(removed, e.ID)
			if e.Kind == KindPackshot && e.Lead {
				lostLead = true
			}
			continue
		}
		kept = append(kept, e)
	}
	// A surviving member of a partially matched tile group is removed with it.
	groups := make(map[string]bool)
	for _, e := range d.elements {
		if match(e) && e.Tile != nil {
			groups[e.Tile.GroupID] = true
		}
	}
	if len(groups) > 0 {
		filtered := kept[:0:0]
		for _, e := range kept {
			if e.Tile != nil && groups[e.Tile.GroupID] {
				removed = append(removed, e.ID)
				continue
			}
			filtered = append(filtered, e)
		}
		kept = filtered
	}
	if len(removed) == 0 {
		return nil
	}
	d.elements = kept
	events := []Event{{Type: EventRemoved, IDs: removed}}
	if lostLead {
		for _, e := range d.elements {
			if e.Kind == KindPackshot {
				e.Lead = true
				events = append(events, Event{Type: EventModified, IDs: []string{e.ID}})
				break
			}
		}
	}
	return events
}

func (d *Document) update(id string, p Patch) (Event, error) {
	i := d.IndexOf(id)
	if i < 0 {
		return Event{}, &NotFoundError{ID: id}
	}
	e := d.elements[i].Clone()
	if err := p.applyTo(e); err != nil {
		return Event{}, err
	}
	d.elements[i] = e
	return Event{Type: EventModified, IDs: []string{id}}, nil
}

func (d *Document) reorder(id string, to int) (Event, error) {
	i := d.IndexOf(id)
	if i < 0 {
		return Event{}, &NotFoundError{ID: id}
	}
	e := d.elements[i]
	if e.Kind == KindSafeZone {
		return Event{}, &InvariantError{Rule: "safe-zone-order", Message: "safe zones stay at the back of the stack"}
	}
	lowest := d.safeZoneCount()
	if to < lowest {
		to = lowest
	}
	if to > len(d.elements)-1 {
		to = len(d.elements) - 1
	}
	if to == i {
		return Event{Type: EventModified, IDs: []string{id}}, nil
	}
	rest := append(append([]*Element(nil), d.elements[:i]...), d.elements[i+1:]...)
	d.elements = append(rest[:to], append([]*Element{e}, rest[to:]...)...)
	return Event{Type: EventModified, IDs: []string{id}}, nil
}

func (d *Document) setLead(id string) ([]Event, error) {
	i := d.IndexOf(id)
	if i < 0 {
		return nil, &NotFoundError{ID: id}
	}
	if d.elements[i].Kind != KindPackshot {
		return nil, &InvariantError{Rule: "lead-packshot", Message: "only packshots can lead"}
	}
	var changed []string
	for _, e := range d.elements {
		if e.Kind != KindPackshot {
			continue
		}
		want := e.ID == id
		if e.Lead != want {
			e.Lead = want
			changed = append(changed, e.ID)
		}
	}
	return []Event{{Type: EventModified, IDs: changed}}, nil
}

func (d *Document) setFormat(formatID string) ([]Event, error) {
	f, ok := rulebook.FormatByID(formatID)
	if !ok {
		return nil, &InvariantError{Rule: "format", Message: fmt.Sprintf("unknown format %q", formatID)}
	}
	events := d.removeMatching(func(e *Element) bool { return e.Kind == KindSafeZone })
	d.FormatID = f.ID
	events = append(events, Event{Type: EventModified})
	if zones := SafeZonesFor(f); len(zones) > 0 {
		ev, err := d.add(zones)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

// checkCardinality enforces the per-kind limits over a full element list
func checkCardinality(els []*Element) error {
	counts := make(map[Kind]int)
	tileGroups := make(map[types.TileKind]map[string]bool)
	leads := 0
	for _, e := range els {
		counts[e.Kind]++
		if e.Kind == KindPackshot && e.Lead {
			leads++
		}
		if e.Kind == KindValueTile && e.Tile != nil {
			if tileGroups[e.Tile.Kind] == nil {
				tileGroups[e.Tile.Kind] = make(map[string]bool)
			}
			tileGroups[e.Tile.Kind][e.Tile.GroupID] = true
		}
	}
	if counts[KindPackshot] > rulebook.MaxPackshots {
		return &InvariantError{Rule: "max-packshots", Message: fmt.Sprintf("at most %d packshots are allowed", rulebook.MaxPackshots)}
	}
	if leads > 1 {
		return &InvariantError{Rule: "lead-packshot", Message: "only one packshot may lead"}
	}
	for _, k := range []Kind{KindLogo, KindBackgroundImage, KindDrinkaware} {
		if counts[k] > 1 {
			return &InvariantError{Rule: "max-" + string(k), Message: fmt.Sprintf("at most one %s is allowed", k)}
		}
	}
	for _, k := range types.AllTileKinds {
		if len(tileGroups[k]) > 1 {
			return &InvariantError{Rule: "duplicate-tile", Message: fmt.Sprintf("at most one %s value tile is allowed", k)}
		}
	}
	return nil
}
