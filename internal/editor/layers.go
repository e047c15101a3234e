package editor

import "github.com/jonathan/creative-compliance/internal/document"

// Layer is one row of the layers panel
type Layer struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Kind     document.Kind `json:"kind"`
	Locked   bool          `json:"locked"`
	Lead     bool          `json:"lead,omitempty"`
	Selected bool          `json:"selected,omitempty"`
}

// Layers lists the non-safe-zone elements topmost first
func Layers(doc *document.Document, selected []string) []Layer {
	sel := make(map[string]bool, len(selected))
	for _, id := range selected {
		sel[id] = true
	}
	els := doc.Elements()
	out := make([]Layer, 0, len(els))
	for i := len(els) - 1; i >= 0; i-- {
		e := els[i]
		if e.Kind == document.KindSafeZone {
			continue
		}
		out = append(out, Layer{
			ID:       e.ID,
			Name:     e.DisplayName(),
			Kind:     e.Kind,
			Locked:   e.Flags.AnyLock(),
			Lead:     e.Lead,
			Selected: sel[e.ID],
		})
	}
	return out
}
