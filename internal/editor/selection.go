package editor

import "github.com/jonathan/creative-compliance/internal/document"

// SelectionEventType names a selection change
type SelectionEventType string

// Selection events
const (
	SelectionSelected SelectionEventType = "selected"
	SelectionUpdated  SelectionEventType = "updated"
	SelectionCleared  SelectionEventType = "cleared"
)

// SelectionEvent is delivered to observers when the selection changes
type SelectionEvent struct {
	Type    SelectionEventType `json:"type"`
	Primary string             `json:"primary,omitempty"`
	IDs     []string           `json:"ids,omitempty"`
}

// selection is a primary element plus the full selected set, primary first
type selection struct {
	ids []string
}

func (s *selection) primary() string {
	if len(s.ids) == 0 {
		return ""
	}
	return s.ids[0]
}

func (s *selection) snapshot() []string {
	return append([]string(nil), s.ids...)
}

func (s *selection) set(ids []string) SelectionEvent {
	wasEmpty := len(s.ids) == 0
	s.ids = append([]string(nil), ids...)
	switch {
	case len(s.ids) == 0:
		return SelectionEvent{Type: SelectionCleared}
	case wasEmpty:
		return SelectionEvent{Type: SelectionSelected, Primary: s.primary(), IDs: s.snapshot()}
	default:
		return SelectionEvent{Type: SelectionUpdated, Primary: s.primary(), IDs: s.snapshot()}
	}
}

// prune drops ids that no longer exist in the document
func (s *selection) prune(doc *document.Document) (SelectionEvent, bool) {
	kept := s.ids[:0:0]
	for _, id := range s.ids {
		if doc.IndexOf(id) >= 0 {
			kept = append(kept, id)
		}
	}
	if len(kept) == len(s.ids) {
		return SelectionEvent{}, false
	}
	return s.set(kept), true
}
