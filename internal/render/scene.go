// Package render rasterizes creative documents. A Scene keeps one handle per
// element id so the raster state can be reconciled with the document without the
// document knowing anything about drawing.
package render

import (
	"fmt"
	"image"
	"math"
	"sync"

	"github.com/fogleman/gg"

	"github.com/jonathan/creative-compliance/internal/document"
	"github.com/jonathan/creative-compliance/internal/types"
)

// ImageCache shares decoded sources between scenes. It is safe for concurrent use.
type ImageCache struct {
	mu     sync.Mutex
	images map[string]image.Image
}

// NewImageCache creates an empty cache
func NewImageCache() *ImageCache {
	return &ImageCache{images: make(map[string]image.Image)}
}

func (c *ImageCache) get(source string) (image.Image, error) {
	c.mu.Lock()
	img, ok := c.images[source]
	c.mu.Unlock()
	if ok {
		return img, nil
	}
	img, err := DecodeSource(source)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.images[source] = img
	c.mu.Unlock()
	return img, nil
}

// Handle is the raster-side view of one element
type Handle struct {
	ID      string
	Kind    document.Kind
	Decoded bool
}

type handle struct {
	el     *document.Element
	source string
	img    image.Image
}

// Options control a rasterization
type Options struct {
	// Multiplier scales the format dimensions to the output size; zero means 1
	Multiplier float64
	// IncludeSafeZones draws the safe zone overlays, which exports never contain
	IncludeSafeZones bool
}

// Scene maps element ids to raster handles. A scene is not safe for concurrent use.
type Scene struct {
	handles    map[string]*handle
	order      []string
	background string
	images     *ImageCache
	faces      faceCache
}

// NewScene creates a scene. A nil cache gives the scene a private one.
func NewScene(cache *ImageCache) *Scene {
	if cache == nil {
		cache = NewImageCache()
	}
	return &Scene{handles: make(map[string]*handle), images: cache}
}

// Sync reconciles the handles with a document: new elements get handles, changed
// image sources are re-decoded and handles of removed elements are dropped.
func (s *Scene) Sync(doc *document.Document) error {
	els := doc.Elements()
	order := make([]string, 0, len(els))
	live := make(map[string]bool, len(els))
	for _, e := range els {
		h, ok := s.handles[e.ID]
		if !ok {
			h = &handle{}
			s.handles[e.ID] = h
		}
		h.el = e
		if e.Image != nil && e.Image.Source != h.source {
			img, err := s.images.get(e.Image.Source)
			if err != nil {
				return fmt.Errorf("element %s: %w", e.ID, err)
			}
			h.img, h.source = img, e.Image.Source
		}
		live[e.ID] = true
		order = append(order, e.ID)
	}
	for id := range s.handles {
		if !live[id] {
			delete(s.handles, id)
		}
	}
	s.order = order
	s.background = doc.Background
	return nil
}

// Attach keeps the scene in sync with a document through its events and returns
// a function that detaches it. Decode failures are reported to onError.
func (s *Scene) Attach(doc *document.Document, onError func(error)) func() {
	resync := func() {
		if err := s.Sync(doc); err != nil && onError != nil {
			onError(err)
		}
	}
	resync()
	return doc.Subscribe(func(ev document.Event) {
		if ev.Type != document.EventSelectionChanged {
			resync()
		}
	})
}

// Len returns the number of handles
func (s *Scene) Len() int {
	return len(s.handles)
}

// Handle returns the handle of an element
func (s *Scene) Handle(id string) (Handle, bool) {
	h, ok := s.handles[id]
	if !ok {
		return Handle{}, false
	}
	return Handle{ID: id, Kind: h.el.Kind, Decoded: h.img != nil}, true
}

// Rasterize draws the scene on a canvas of the format's size times the multiplier
func (s *Scene) Rasterize(f types.Format, opts Options) (image.Image, error) {
	k := opts.Multiplier
	if k <= 0 {
		k = 1
	}
	w := int(math.Round(float64(f.Width) * k))
	h := int(math.Round(float64(f.Height) * k))
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid output size %dx%d", w, h)
	}
	dc := gg.NewContext(w, h)
	bg := s.background
	if bg == "" {
		bg = "#FFFFFF"
	}
	dc.SetColor(parseColor(bg, 1))
	dc.Clear()

	for _, id := range s.order {
		hd := s.handles[id]
		if hd.el.Kind == document.KindSafeZone && !opts.IncludeSafeZones {
			continue
		}
		if err := s.draw(dc, hd, k); err != nil {
			return nil, fmt.Errorf("element %s: %w", id, err)
		}
	}
	return dc.Image(), nil
}

// Rasterize draws a document in a format without keeping a scene around
func Rasterize(doc *document.Document, f types.Format, opts Options) (image.Image, error) {
	s := NewScene(nil)
	if err := s.Sync(doc); err != nil {
		return nil, err
	}
	return s.Rasterize(f, opts)
}

// Thumbnail renders a low-resolution PNG data URL whose longer side is maxSide pixels
func Thumbnail(doc *document.Document, f types.Format, maxSide int) (string, error) {
	if maxSide <= 0 {
		return "", fmt.Errorf("invalid thumbnail size %d", maxSide)
	}
	k := float64(maxSide) / math.Max(float64(f.Width), float64(f.Height))
	img, err := Rasterize(doc, f, Options{Multiplier: k})
	if err != nil {
		return "", err
	}
	data, err := EncodePNG(img)
	if err != nil {
		return "", err
	}
	return EncodeDataURL(MimePNG, data), nil
}
