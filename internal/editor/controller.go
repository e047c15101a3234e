// Package editor is the mutation controller: every change to a creative goes through
// one transaction pipeline that enforces profile locks, applies the mutation,
// re-runs compliance and records undo history.
package editor

import (
	"fmt"
	"sync"

	"github.com/jonathan/creative-compliance/internal/compliance"
	"github.com/jonathan/creative-compliance/internal/document"
	"github.com/jonathan/creative-compliance/internal/layout"
	"github.com/jonathan/creative-compliance/internal/observability"
	"github.com/jonathan/creative-compliance/internal/profile"
	"github.com/jonathan/creative-compliance/internal/rulebook"
	"github.com/jonathan/creative-compliance/internal/types"
)

// Hooks receive view refreshes after every committed change. They run while the
// controller is locked and must not call back into it.
type Hooks struct {
	OnReport    func(types.ComplianceReport)
	OnLayers    func([]Layer)
	OnSelection func(SelectionEvent)
}

// Options configures a controller
type Options struct {
	HistoryCap int
	Logger     *observability.Logger
	Hooks      Hooks
}

// Controller owns one document and serializes every change to it
type Controller struct {
	mu sync.Mutex

	doc        *document.Document
	format     types.Format
	profile    types.Profile
	report     types.ComplianceReport
	history    *History
	processing *Processing
	selection  selection
	hooks      Hooks
	log        *observability.Logger
}

// New creates a controller over an empty document in the given format. The profile
// is activated immediately, so a profile with an automatic tag starts with one.
func New(f types.Format, p types.Profile, opts Options) (*Controller, error) {
	doc := document.New(f.ID)
	if zones := document.SafeZonesFor(f); len(zones) > 0 {
		if err := doc.Add(zones...); err != nil {
			return nil, fmt.Errorf("failed to add safe zones: %w", err)
		}
	}
	return open(doc, f, p, opts)
}

// Open creates a controller over an existing document. Safe zones are recomputed
// for f and the profile is activated.
func Open(doc *document.Document, f types.Format, p types.Profile, opts Options) (*Controller, error) {
	work := doc.Clone()
	if err := work.Apply(document.SetFormat{FormatID: f.ID}); err != nil {
		return nil, fmt.Errorf("failed to open document in %s: %w", f.ID, err)
	}
	return open(work, f, p, opts)
}

func open(doc *document.Document, f types.Format, p types.Profile, opts Options) (*Controller, error) {
	c := &Controller{
		doc:        doc,
		format:     f,
		profile:    p,
		history:    NewHistory(opts.HistoryCap),
		processing: NewProcessing(),
		hooks:      opts.Hooks,
		log:        observability.OrNop(opts.Logger),
	}
	doc.Subscribe(c.onDocumentEvent)
	if _, err := profile.Activate(c.doc, p, f); err != nil {
		return nil, fmt.Errorf("failed to activate profile %s: %w", p.ID, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runComplianceLocked()
	data, err := document.Serialize(c.doc)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot document: %w", err)
	}
	c.history.Reset("open", data)
	c.refreshLocked()
	return c, nil
}

// onDocumentEvent runs synchronously inside a document change, with c.mu held
func (c *Controller) onDocumentEvent(ev document.Event) {
	if ev.Type != document.EventRemoved {
		return
	}
	if sev, changed := c.selection.prune(c.doc); changed && c.hooks.OnSelection != nil {
		c.hooks.OnSelection(sev)
	}
}

// Apply runs a mutation through the transaction pipeline: profile conformance and
// lock validation, the document change, compliance, history and view refresh.
// A rejected mutation leaves everything unchanged.
func (c *Controller) Apply(m document.Mutation) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.applyLocked(m)
}

func (c *Controller) applyLocked(m document.Mutation) error {
	if m == nil {
		return &UserInputError{Field: "mutation", Message: "mutation is required"}
	}
	m = profile.Conform(c.profile, m)
	if err := profile.ValidateMutation(c.doc, c.profile, m); err != nil {
		c.log.Debug("mutation rejected by profile", "mutation", m.Name(), "profile", c.profile.ID, "error", err)
		return err
	}
	if err := c.doc.Apply(m); err != nil {
		c.log.Debug("mutation rejected", "mutation", m.Name(), "error", err)
		return err
	}
	c.commitLocked(m.Name())
	return nil
}

// ApplyAsync applies the result of a long operation. When the operation was aborted
// or superseded the mutation is silently dropped.
func (c *Controller) ApplyAsync(tok Token, m document.Mutation) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.processing.Valid(tok) {
		c.log.Debug("dropping result of aborted operation", "mutation", mutationName(m))
		return nil
	}
	return c.applyLocked(m)
}

func (c *Controller) commitLocked(label string) {
	c.runComplianceLocked()
	data, err := document.Serialize(c.doc)
	if err != nil {
		c.log.Error("failed to snapshot document", "label", label, "error", err)
	} else {
		c.history.Push(label, data)
	}
	c.refreshLocked()
}

func (c *Controller) runComplianceLocked() {
	c.report = compliance.Check(c.doc, c.profile, c.format)
	observability.ComplianceChecks.WithLabelValues(string(c.report.Status)).Inc()
}

func (c *Controller) refreshLocked() {
	if c.hooks.OnReport != nil {
		c.hooks.OnReport(c.report)
	}
	if c.hooks.OnLayers != nil {
		c.hooks.OnLayers(Layers(c.doc, c.selection.snapshot()))
	}
}

// Undo restores the previous state. It reports false when there is nothing to undo.
func (c *Controller) Undo() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap, ok := c.history.Undo()
	if !ok {
		return false, nil
	}
	if err := c.restoreLocked(snap.Data); err != nil {
		c.history.Redo()
		return false, err
	}
	return true, nil
}

// Redo re-applies the next state. It reports false when there is nothing to redo.
func (c *Controller) Redo() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap, ok := c.history.Redo()
	if !ok {
		return false, nil
	}
	if err := c.restoreLocked(snap.Data); err != nil {
		c.history.Undo()
		return false, err
	}
	return true, nil
}

// restoreLocked replaces the document with a snapshot, keeping the current format,
// its safe zones and the active profile's locks
func (c *Controller) restoreLocked(data []byte) error {
	snap, err := document.Deserialize(data, false)
	if err != nil {
		return fmt.Errorf("failed to restore snapshot: %w", err)
	}
	els := append(document.SafeZonesFor(c.format), snap.Elements()...)
	restored, err := document.FromElements(snap.ID, c.format.ID, snap.Background, snap.Alcohol, els)
	if err != nil {
		return fmt.Errorf("failed to restore snapshot: %w", err)
	}
	// snapshots taken before a profile switch must still honor the active locks
	if _, err := profile.Activate(restored, c.profile, c.format); err != nil {
		return fmt.Errorf("failed to restore snapshot: %w", err)
	}
	c.doc.Replace(restored)
	c.runComplianceLocked()
	c.refreshLocked()
	return nil
}

// SetFormat changes the canvas format without moving elements. Safe zones are recomputed.
func (c *Controller) SetFormat(f types.Format) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.doc.Apply(document.SetFormat{FormatID: f.ID}); err != nil {
		return err
	}
	c.format = f
	c.commitLocked("set-format")
	return nil
}

// SwitchFormat re-projects every element into the target format
func (c *Controller) SwitchFormat(f types.Format) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	adapted, err := layout.Adapt(c.doc, c.format, f)
	if err != nil {
		return err
	}
	c.doc.Replace(adapted)
	c.format = f
	c.commitLocked("switch-format")
	return nil
}

// SetProfile activates a profile and reports what it changed
func (c *Controller) SetProfile(p types.Profile) (profile.Changes, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch, err := profile.Activate(c.doc, p, c.format)
	if err != nil {
		return profile.Changes{}, err
	}
	c.profile = p
	c.log.Info("profile activated", "profile", p.ID, "changed", !ch.Empty())
	c.commitLocked("set-profile")
	return ch, nil
}

// LoadTemplate replaces every non-safe-zone element with a serialized creative.
// A template saved in another format is adapted to the current one.
func (c *Controller) LoadTemplate(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	tmpl, err := document.Deserialize(data, false)
	if err != nil {
		return err
	}
	if tmpl.FormatID != c.format.ID {
		if from, ok := rulebook.FormatByID(tmpl.FormatID); ok {
			if tmpl, err = layout.Adapt(tmpl, from, c.format); err != nil {
				return err
			}
		}
	}
	els := append(document.SafeZonesFor(c.format), stripSafeZones(tmpl.Elements())...)
	loaded, err := document.FromElements(c.doc.ID, c.format.ID, tmpl.Background, tmpl.Alcohol, els)
	if err != nil {
		return err
	}
	work := loaded.Clone()
	if _, err := profile.Activate(work, c.profile, c.format); err != nil {
		return err
	}
	c.doc.Replace(work)
	c.commitLocked("load-template")
	return nil
}

// ApplyVariant applies a creative direction as one undoable change
func (c *Controller) ApplyVariant(v types.Variant) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	batch, err := VariantBatch(c.doc, v, c.format, c.profile)
	if err != nil {
		return err
	}
	return c.applyLocked(batch)
}

// Select replaces the selection; the first id becomes primary. No ids clears it.
func (c *Controller) Select(ids ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		e, ok := c.doc.Find(id)
		if !ok {
			return &document.NotFoundError{ID: id}
		}
		if !e.Flags.Selectable {
			return &UserInputError{Field: "selection", Message: fmt.Sprintf("element %s is not selectable", id)}
		}
	}
	sev := c.selection.set(dedupe(ids))
	c.doc.Notify(document.Event{Type: document.EventSelectionChanged, IDs: sev.IDs})
	if c.hooks.OnSelection != nil {
		c.hooks.OnSelection(sev)
	}
	if c.hooks.OnLayers != nil {
		c.hooks.OnLayers(Layers(c.doc, c.selection.snapshot()))
	}
	return nil
}

// ClearSelection deselects everything
func (c *Controller) ClearSelection() {
	_ = c.Select()
}

// Selection returns the primary element id and the whole selected set
func (c *Controller) Selection() (string, []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selection.primary(), c.selection.snapshot()
}

// Subscribe registers a document listener
func (c *Controller) Subscribe(l document.Listener) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	unsubscribe := c.doc.Subscribe(l)
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		unsubscribe()
	}
}

// StartProcessing claims the single-flight lock for a long operation
func (c *Controller) StartProcessing(op, status string) (Token, error) {
	tok, ok := c.processing.Start(op, status)
	if !ok {
		c.log.Debug("operation refused, editor busy", "operation", op, "running", c.processing.State().Operation)
		return 0, ErrBusy
	}
	return tok, nil
}

// UpdateProgress reports progress of the running operation
func (c *Controller) UpdateProgress(tok Token, pct float64, status string) bool {
	return c.processing.Update(tok, pct, status)
}

// FinishProcessing releases the lock held by tok
func (c *Controller) FinishProcessing(tok Token) {
	c.processing.Clear(tok)
}

// Abort cancels the running operation; its pending result will be dropped
func (c *Controller) Abort() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	aborted := c.processing.Abort()
	if aborted {
		c.log.Info("operation aborted", "operation", c.processing.State().Operation)
	}
	return aborted
}

// Processing returns the state of the single-flight lock
func (c *Controller) Processing() ProcessingState {
	return c.processing.State()
}

// Document returns a detached copy of the document
func (c *Controller) Document() *document.Document {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.doc.Clone()
}

// Serialize returns the wire form of the document
func (c *Controller) Serialize() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return document.Serialize(c.doc)
}

// Report returns the latest compliance report
func (c *Controller) Report() types.ComplianceReport {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.report
}

// Format returns the current canvas format
func (c *Controller) Format() types.Format {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.format
}

// Profile returns the active profile
func (c *Controller) Profile() types.Profile {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.profile
}

// Tools returns the availability of every tool under the active profile
func (c *Controller) Tools() map[string]profile.Availability {
	c.mu.Lock()
	defer c.mu.Unlock()
	return profile.ToolStates(c.profile)
}

// Layers returns the layers panel, topmost first
func (c *Controller) Layers() []Layer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Layers(c.doc, c.selection.snapshot())
}

func (c *Controller) CanUndo() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.history.CanUndo()
}

func (c *Controller) CanRedo() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.history.CanRedo()
}

func stripSafeZones(els []*document.Element) []*document.Element {
	out := els[:0]
	for _, e := range els {
		if e.Kind != document.KindSafeZone {
			out = append(out, e)
		}
	}
	return out
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func mutationName(m document.Mutation) string {
	if m == nil {
		return ""
	}
	return m.Name()
}
