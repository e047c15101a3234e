package document

// EventType names a document change
type EventType string

// Event types, delivered in commit order
const (
	EventAdded            EventType = "added"
	EventRemoved          EventType = "removed"
	EventModified         EventType = "modified"
	EventSelectionChanged EventType = "selection_changed"
)

// Event describes a committed change. IDs is empty for document-level changes.
type Event struct {
	Type EventType `json:"type"`
	IDs  []string  `json:"ids,omitempty"`
}

// Listener receives document events synchronously
type Listener func(Event)

// Subscribe registers a listener and returns a function that removes it
func (d *Document) Subscribe(l Listener) func() {
	id := d.nextListener
	d.nextListener++
	if d.listeners == nil {
		d.listeners = make(map[int]Listener)
	}
	d.listeners[id] = l
	d.listenerOrder = append(d.listenerOrder, id)
	return func() {
		delete(d.listeners, id)
		for i, v := range d.listenerOrder {
			if v == id {
				d.listenerOrder = append(d.listenerOrder[:i], d.listenerOrder[i+1:]...)
				break
			}
		}
	}
}

// Notify delivers an event to every listener in subscription order
func (d *Document) Notify(ev Event) {
	for _, id := range d.listenerOrder {
		if l, ok := d.listeners[id]; ok {
			l(ev)
		}
	}
}
