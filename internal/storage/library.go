package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/creative-compliance/internal/document"
	"github.com/jonathan/creative-compliance/internal/observability"
	"github.com/jonathan/creative-compliance/internal/render"
	"github.com/jonathan/creative-compliance/internal/rulebook"
)

// Persistence keys
const (
	KeyTemplates    = "templates"
	KeyHistory      = "history"
	apiKeySuffix    = "_api_key"
	HistoryCap      = 10
	ThumbnailMaxPx  = 200
	maxServiceChars = 64
)

// Record is a saved creative: a template or a history entry
type Record struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Format        string          `json:"format"`
	FormatName    string          `json:"formatName"`
	Thumbnail     string          `json:"thumbnail,omitempty"`
	SerializedDoc json.RawMessage `json:"serializedDoc"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// Document decodes the saved creative
func (r Record) Document() (*document.Document, error) {
	return document.Deserialize(r.SerializedDoc, false)
}

// Library keeps templates and history in memory and writes every change through to a store.
// Store failures are logged and leave the library degraded; callers keep editing.
type Library struct {
	store BlobStore
	log   *observability.Logger
	now   func() time.Time

	mu       sync.Mutex
	lists    map[string][]Record
	degraded bool
}

// LibraryOption configures a Library
type LibraryOption func(*Library)

// WithLibraryLogger sets the logger
func WithLibraryLogger(l *observability.Logger) LibraryOption {
	return func(lib *Library) { lib.log = observability.OrNop(l) }
}

// WithLibraryClock overrides time.Now
func WithLibraryClock(now func() time.Time) LibraryOption {
	return func(lib *Library) { lib.now = now }
}

// NewLibrary wraps a store
func NewLibrary(store BlobStore, opts ...LibraryOption) *Library {
	lib := &Library{
		store: store,
		log:   observability.Nop(),
		now:   time.Now,
		lists: make(map[string][]Record),
	}
	for _, o := range opts {
		o(lib)
	}
	return lib
}

// Degraded reports whether the last store operation failed
func (l *Library) Degraded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.degraded
}

// NewRecord snapshots a document with a low resolution thumbnail
func (l *Library) NewRecord(name string, doc *document.Document) (Record, error) {
	data, err := document.Serialize(doc)
	if err != nil {
		return Record{}, err
	}
	rec := Record{
		ID:            uuid.NewString(),
		Name:          strings.TrimSpace(name),
		Format:        doc.FormatID,
		SerializedDoc: data,
		CreatedAt:     l.now().UTC(),
	}
	if f, ok := rulebook.FormatByID(doc.FormatID); ok {
		rec.FormatName = f.Name
		thumb, err := render.Thumbnail(doc, f, ThumbnailMaxPx)
		if err != nil {
			l.log.Warn("thumbnail failed", "format", f.ID, "error", err)
		} else {
			rec.Thumbnail = thumb
		}
	}
	if rec.Name == "" {
		rec.Name = fmt.Sprintf("%s %s", rec.FormatName, rec.CreatedAt.Format("2006-01-02 15:04"))
	}
	return rec, nil
}

// SaveTemplate stores a document as a named template
func (l *Library) SaveTemplate(ctx context.Context, name string, doc *document.Document) (Record, error) {
	rec, err := l.NewRecord(name, doc)
	if err != nil {
		return Record{}, err
	}
	return rec, l.update(ctx, KeyTemplates, func(list []Record) []Record {
		return append(list, rec)
	})
}

// Templates lists saved templates, oldest first. Empty when the store is unavailable.
func (l *Library) Templates(ctx context.Context) []Record {
	return l.list(ctx, KeyTemplates)
}

// Template finds a template by id
func (l *Library) Template(ctx context.Context, id string) (Record, error) {
	for _, r := range l.list(ctx, KeyTemplates) {
		if r.ID == id {
			return r, nil
		}
	}
	return Record{}, ErrNotFound
}

// DeleteTemplate removes a template. Removing an unknown id is not an error.
func (l *Library) DeleteTemplate(ctx context.Context, id string) error {
	return l.update(ctx, KeyTemplates, func(list []Record) []Record {
		out := list[:0]
		for _, r := range list {
			if r.ID != id {
				out = append(out, r)
			}
		}
		return out
	})
}

// PushHistory appends a snapshot, dropping the oldest beyond HistoryCap
func (l *Library) PushHistory(ctx context.Context, name string, doc *document.Document) (Record, error) {
	rec, err := l.NewRecord(name, doc)
	if err != nil {
		return Record{}, err
	}
	return rec, l.update(ctx, KeyHistory, func(list []Record) []Record {
		list = append(list, rec)
		if n := len(list) - HistoryCap; n > 0 {
			list = list[n:]
		}
		return list
	})
}

// History lists history snapshots, oldest first
func (l *Library) History(ctx context.Context) []Record {
	return l.list(ctx, KeyHistory)
}

// ClearHistory drops every history snapshot
func (l *Library) ClearHistory(ctx context.Context) error {
	return l.update(ctx, KeyHistory, func([]Record) []Record { return nil })
}

// SetAPIKey stores a service key under <service>_api_key
func (l *Library) SetAPIKey(ctx context.Context, service, key string) error {
	k, err := apiKeyName(service)
	if err != nil {
		return err
	}
	err = l.store.Put(ctx, k, []byte(strings.TrimSpace(key)))
	l.record("put", err)
	return err
}

// APIKey loads a service key. A missing key returns ErrNotFound.
func (l *Library) APIKey(ctx context.Context, service string) (string, error) {
	k, err := apiKeyName(service)
	if err != nil {
		return "", err
	}
	v, err := l.store.Get(ctx, k)
	l.record("get", err)
	if err != nil {
		return "", err
	}
	return string(v), nil
}

// DeleteAPIKey forgets a service key
func (l *Library) DeleteAPIKey(ctx context.Context, service string) error {
	k, err := apiKeyName(service)
	if err != nil {
		return err
	}
	err = l.store.Delete(ctx, k)
	l.record("delete", err)
	return err
}

func apiKeyName(service string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(service))
	if s == "" || len(s) > maxServiceChars || strings.ContainsAny(s, " :/") {
		return "", fmt.Errorf("%w %q", ErrInvalidService, service)
	}
	return s + apiKeySuffix, nil
}

func (l *Library) list(ctx context.Context, key string) []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	list, err := l.loadLocked(ctx, key)
	if err != nil {
		return []Record{}
	}
	return append([]Record{}, list...)
}

// loadLocked returns the cached list, reading the store on first use
func (l *Library) loadLocked(ctx context.Context, key string) ([]Record, error) {
	if list, ok := l.lists[key]; ok {
		return list, nil
	}
	data, err := l.store.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		l.lists[key] = nil
		l.degraded = false
		return nil, nil
	}
	if err != nil {
		l.failLocked("get", key, err)
		return nil, err
	}
	var list []Record
	if err := json.Unmarshal(data, &list); err != nil {
		err = &Error{Op: "get", Key: key, Message: "corrupt record list", Cause: err}
		l.failLocked("get", key, err)
		return nil, err
	}
	l.lists[key] = list
	l.degraded = false
	return list, nil
}

// update applies fn to the list and writes the result through
func (l *Library) update(ctx context.Context, key string, fn func([]Record) []Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	list, err := l.loadLocked(ctx, key)
	if err != nil {
		return err
	}
	next := fn(append([]Record(nil), list...))
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := l.store.Put(ctx, key, data); err != nil {
		l.failLocked("put", key, err)
		return err
	}
	l.lists[key] = next
	l.degraded = false
	return nil
}

func (l *Library) failLocked(op, key string, err error) {
	l.degraded = true
	observability.StorageErrors.WithLabelValues(op).Inc()
	l.log.Warn("store unavailable, continuing without persistence", "op", op, "key", key, "error", err)
}

func (l *Library) record(op string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil && !errors.Is(err, ErrNotFound) {
		l.failLocked(op, "", err)
		return
	}
	l.degraded = false
}
