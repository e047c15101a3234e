package document

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/creative-compliance/internal/rulebook"
	"github.com/jonathan/creative-compliance/internal/schemas"
)

// WireVersion is the current serialization version
const WireVersion = 1

type wireDocument struct {
	Version    int           `json:"version"`
	ID         string        `json:"id"`
	FormatID   string        `json:"format_id"`
	Background string        `json:"background"`
	Alcohol    bool          `json:"alcohol"`
	Elements   []wireElement `json:"elements"`
}

// wireElement carries the role tags next to the element so consumers need not derive them
type wireElement struct {
	Element
	RoleTags Roles `json:"roles"`
}

// Serialize encodes the document, safe zones included, with role tags on every element
func Serialize(d *Document) ([]byte, error) {
	w := wireDocument{
		Version:    WireVersion,
		ID:         d.ID,
		FormatID:   d.FormatID,
		Background: d.Background,
		Alcohol:    d.Alcohol,
		Elements:   make([]wireElement, 0, len(d.elements)),
	}
	for _, e := range d.elements {
		w.Elements = append(w.Elements, wireElement{Element: *e.Clone(), RoleTags: e.Roles()})
	}
	data, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}
	return data, nil
}

// Deserialize decodes a document. Safe zones are dropped unless keepSafeZones is set
// and the format is 9:16; the editor rebuilds them for the active format.
func Deserialize(data []byte, keepSafeZones bool) (*Document, error) {
	if err := schemas.Validate(schemas.Document, data); err != nil {
		return nil, &DecodeError{Message: "document does not match schema", Cause: err}
	}
	var w wireDocument
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, &DecodeError{Message: "malformed document", Cause: err}
	}
	if w.Version > WireVersion {
		return nil, &DecodeError{Message: fmt.Sprintf("unsupported version %d", w.Version)}
	}

	f, known := rulebook.FormatByID(w.FormatID)
	els := make([]*Element, 0, len(w.Elements))
	for i := range w.Elements {
		e := w.Elements[i].Element
		if e.Kind == KindSafeZone && (!keepSafeZones || !known || !f.IsStory()) {
			continue
		}
		els = append(els, &e)
	}
	d, err := FromElements(w.ID, w.FormatID, w.Background, w.Alcohol, els)
	if err != nil {
		return nil, &DecodeError{Message: "document violates invariants", Cause: err}
	}
	return d, nil
}

// FromElements assembles a document from elements in z-order. Safe zones are moved
// to the back, lead flags are normalized to exactly one lead packshot and the
// cardinality limits are enforced.
func FromElements(id, formatID, background string, alcohol bool, els []*Element) (*Document, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if background == "" {
		background = rulebook.ColorWhite
	}
	d := &Document{ID: id, FormatID: formatID, Background: background, Alcohol: alcohol}

	seen := make(map[string]bool, len(els))
	var zones, rest []*Element
	leadID := ""
	for _, e := range els {
		if err := e.Validate(); err != nil {
			return nil, err
		}
		if seen[e.ID] {
			return nil, &InvariantError{Rule: "duplicate-id", Message: fmt.Sprintf("element id %s appears twice", e.ID)}
		}
		seen[e.ID] = true
		c := e.Clone()
		if c.Kind == KindPackshot && c.Lead && leadID == "" {
			leadID = c.ID
		}
		if c.Kind == KindSafeZone {
			zones = append(zones, c)
		} else {
			rest = append(rest, c)
		}
	}
	for _, e := range rest {
		if e.Kind != KindPackshot {
			continue
		}
		if leadID == "" {
			leadID = e.ID
		}
		e.Lead = e.ID == leadID
	}
	d.elements = append(zones, rest...)
	if err := checkCardinality(d.elements); err != nil {
		return nil, err
	}
	return d, nil
}
