package editor

// History capacity bounds
const (
	DefaultHistoryCap = 30
	MinHistoryCap     = 20
)

// Snapshot is one serialized document state in the undo history
type Snapshot struct {
	Label string
	Data  []byte
}

// History is a bounded undo/redo deque of snapshots. The entry at head is the
// current state; entries after head are redo states.
type History struct {
	entries []Snapshot
	head    int
	cap     int
}

// NewHistory creates a history. A non-positive capacity selects the default and
// capacities below the minimum are raised to it.
func NewHistory(capacity int) *History {
	switch {
	case capacity <= 0:
		capacity = DefaultHistoryCap
	case capacity < MinHistoryCap:
		capacity = MinHistoryCap
	}
	return &History{head: -1, cap: capacity}
}

// Push records a new current state and discards any redo states
func (h *History) Push(label string, data []byte) {
	if h.head < len(h.entries)-1 {
		h.entries = h.entries[:h.head+1]
	}
	h.entries = append(h.entries, Snapshot{Label: label, Data: data})
	if len(h.entries) > h.cap {
		h.entries = append([]Snapshot(nil), h.entries[len(h.entries)-h.cap:]...)
	}
	h.head = len(h.entries) - 1
}

// Reset drops every entry and records data as the only state
func (h *History) Reset(label string, data []byte) {
	h.entries = nil
	h.head = -1
	h.Push(label, data)
}

// Undo steps back and returns the state to restore
func (h *History) Undo() (Snapshot, bool) {
	if !h.CanUndo() {
		return Snapshot{}, false
	}
	h.head--
	return h.entries[h.head], true
}

// Redo steps forward and returns the state to restore
func (h *History) Redo() (Snapshot, bool) {
	if !h.CanRedo() {
		return Snapshot{}, false
	}
	h.head++
	return h.entries[h.head], true
}

// Current returns the state at head
func (h *History) Current() (Snapshot, bool) {
	if h.head < 0 {
		return Snapshot{}, false
	}
	return h.entries[h.head], true
}

func (h *History) CanUndo() bool { return h.head > 0 }
func (h *History) CanRedo() bool { return h.head >= 0 && h.head < len(h.entries)-1 }
func (h *History) Len() int      { return len(h.entries) }
func (h *History) Cap() int      { return h.cap }
