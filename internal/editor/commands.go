package editor

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/jonathan/creative-compliance/internal/compliance"
	"github.com/jonathan/creative-compliance/internal/document"
	"github.com/jonathan/creative-compliance/internal/profile"
	"github.com/jonathan/creative-compliance/internal/render"
	"github.com/jonathan/creative-compliance/internal/rulebook"
	"github.com/jonathan/creative-compliance/internal/types"
)

// DrinkawareFontSize is the size of a newly added Drinkaware lockup
const DrinkawareFontSize = 24.0

// PackshotFit is the share of the shorter canvas side a new packshot is scaled to
const PackshotFit = 0.4

var (
	endDatePattern    = regexp.MustCompile(`^(\d\d)/(\d\d)$`)
	tagEndDatePattern = regexp.MustCompile(`Ends (?:\d\d/\d\d|DD/MM)`)
)

// BackgroundRemover strips the background from an encoded image
type BackgroundRemover interface {
	RemoveBackground(ctx context.Context, image []byte) ([]byte, error)
}

// AddPackshot adds a product image at the layout's packshot anchor and returns its id
func (c *Controller) AddPackshot(source string, width, height int) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if width <= 0 || height <= 0 {
		return "", &UserInputError{Field: "packshot", Message: "image dimensions must be positive"}
	}
	e := document.NewPackshot(source, width, height)
	fit := PackshotFit * math.Min(float64(c.format.Width), float64(c.format.Height)) / math.Max(float64(width), float64(height))
	e.Geometry.ScaleX, e.Geometry.ScaleY = fit, fit
	rule := rulebook.LayoutFor(c.format.ID)
	e.SetCenter(float64(c.format.Width)/2, float64(c.format.Height)*rule.PackY)
	if err := c.applyLocked(document.AddElements{Elements: []*document.Element{e}}); err != nil {
		return "", err
	}
	return e.ID, nil
}

// AddText adds copy placed by its role and sized by the format's typography
func (c *Controller) AddText(subkind document.TextSubkind, content string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	size := c.format.Config.SubFontSize
	rule := rulebook.LayoutFor(c.format.ID)
	x, y := float64(c.format.Width)/2, float64(c.format.Height)/2
	switch subkind {
	case document.SubkindHeadline:
		size = c.format.Config.HeadlineFontSize
		x, y = float64(c.format.Width)*rule.HeadlineX, float64(c.format.Height)*rule.HeadlineY
	case document.SubkindSubheadline:
		x, y = float64(c.format.Width)*rule.HeadlineX, float64(c.format.Height)*(rule.HeadlineY+rulebook.SubheadlineOffset)
	case document.SubkindTag:
		return "", &UserInputError{Field: "text", Message: "tags are added by profiles and variants"}
	}
	e := document.NewText(subkind, content, size)
	e.SetCenter(x, y)
	if err := c.applyLocked(document.AddElements{Elements: []*document.Element{e}}); err != nil {
		return "", err
	}
	return e.ID, nil
}

// AddValueTile adds a value tile at its anchor and returns the group id
func (c *Controller) AddValueTile(kind types.TileKind) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.addValueTileLocked(kind)
}

func (c *Controller) addValueTileLocked(kind types.TileKind) (string, error) {
	if profile.ToolState(c.profile, rulebook.TileTool(kind)) == profile.Disabled {
		return "", &profile.LockError{Profile: c.profile.ID, Attribute: profile.AttrValueTile, Attempted: string(kind)}
	}
	if c.doc.HasTile(kind) {
		return "", &UserInputError{Field: "value tile", Message: fmt.Sprintf("a %s tile is already present", kind)}
	}
	ax, ay := rulebook.TileAnchor(kind, c.format.ID)
	parts, err := document.NewValueTileGroup(kind, c.format.ID, float64(c.format.Width)*ax, float64(c.format.Height)*ay)
	if err != nil {
		return "", err
	}
	if err := c.applyLocked(document.AddElements{Elements: parts}); err != nil {
		return "", err
	}
	return parts[0].Tile.GroupID, nil
}

// ToggleValueTile removes the tile of a kind when present and adds it otherwise.
// It reports whether the tile is present afterwards.
func (c *Controller) ToggleValueTile(kind types.TileKind) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.doc.HasTile(kind) {
		if err := c.applyLocked(document.RemoveMatching{Match: func(e *document.Element) bool {
			return e.Tile != nil && e.Tile.Kind == kind
		}}); err != nil {
			return true, err
		}
		return false, nil
	}
	if _, err := c.addValueTileLocked(kind); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Controller) newDrinkawareLocked() *document.Element {
	e := document.NewDrinkaware(DrinkawareFontSize)
	e.Geometry.X = float64(c.format.Width) - rulebook.EdgeInset
	e.Geometry.Y = float64(c.format.Height) - rulebook.BottomInset(c.format)
	return e
}

// AddDrinkaware adds the Drinkaware lockup in the bottom-right corner. It is a no-op
// when the document already has one.
func (c *Controller) AddDrinkaware() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing := c.doc.Filter(func(e *document.Element) bool { return e.Kind == document.KindDrinkaware }); len(existing) > 0 {
		return existing[0].ID, nil
	}
	e := c.newDrinkawareLocked()
	if err := c.applyLocked(document.AddElements{Elements: []*document.Element{e}}); err != nil {
		return "", err
	}
	return e.ID, nil
}

// SetAlcohol marks the creative as advertising alcohol. Turning it on also adds the
// Drinkaware lockup when missing.
func (c *Controller) SetAlcohol(on bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	batch := document.Batch{Label: "set-alcohol", Mutations: []document.Mutation{document.SetAlcohol{Alcohol: on}}}
	if on && c.doc.Count(document.KindDrinkaware) == 0 {
		batch.Mutations = append(batch.Mutations, document.AddElements{Elements: []*document.Element{c.newDrinkawareLocked()}})
	}
	return c.applyLocked(batch)
}

// SetClubcardEndDate writes a DD/MM end date into every tag that carries one
func (c *Controller) SetClubcardEndDate(date string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	m := endDatePattern.FindStringSubmatch(strings.TrimSpace(date))
	if m == nil {
		return &UserInputError{Field: "end date", Message: fmt.Sprintf("%q is not in DD/MM form", date)}
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	if day < 1 || day > 31 || month < 1 || month > 12 {
		return &UserInputError{Field: "end date", Message: fmt.Sprintf("%q is not a valid date", date)}
	}
	batch := document.Batch{Label: "set-end-date"}
	for _, e := range c.doc.Filter(func(e *document.Element) bool { return e.IsTag() }) {
		if !tagEndDatePattern.MatchString(e.Text.Content) {
			continue
		}
		content := tagEndDatePattern.ReplaceAllString(e.Text.Content, "Ends "+m[0])
		batch.Mutations = append(batch.Mutations, document.UpdateElement{ID: e.ID, Patch: document.Patch{Content: document.String(content)}})
	}
	if len(batch.Mutations) == 0 {
		return &UserInputError{Field: "end date", Message: "no tag carries an end date"}
	}
	return c.applyLocked(batch)
}

// SanitizeCopy rewrites every editable text through the prohibited-term sanitizer
// and returns how many elements changed. Copy that sanitizes to nothing is removed.
func (c *Controller) SanitizeCopy() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	batch := document.Batch{Label: "sanitize"}
	for _, e := range c.doc.Filter(func(e *document.Element) bool {
		return e.Text != nil && e.Flags.Editable && e.Kind != document.KindDrinkaware
	}) {
		clean := compliance.Sanitize(e.Text.Content)
		if clean == e.Text.Content {
			continue
		}
		if clean == "" && e.Kind == document.KindText {
			batch.Mutations = append(batch.Mutations, document.RemoveElement{ID: e.ID})
			continue
		}
		batch.Mutations = append(batch.Mutations, document.UpdateElement{ID: e.ID, Patch: document.Patch{Content: document.String(clean)}})
	}
	if len(batch.Mutations) == 0 {
		return 0, nil
	}
	if err := c.applyLocked(batch); err != nil {
		return 0, err
	}
	return len(batch.Mutations), nil
}

// RemoveBackground replaces an image element's source with a cut-out from the
// remover. It holds the single-flight lock for the duration and its result is
// dropped when the operation is aborted meanwhile.
func (c *Controller) RemoveBackground(ctx context.Context, id string, remover BackgroundRemover) error {
	c.mu.Lock()
	e, ok := c.doc.Find(id)
	c.mu.Unlock()
	if !ok {
		return &document.NotFoundError{ID: id}
	}
	if e.Image == nil {
		return &UserInputError{Field: "element", Message: fmt.Sprintf("element %s is not an image", id)}
	}
	_, data, err := render.DecodeDataURL(e.Image.Source)
	if err != nil {
		return err
	}

	tok, err := c.StartProcessing("remove-background", "Removing background")
	if err != nil {
		return err
	}
	defer c.FinishProcessing(tok)

	c.UpdateProgress(tok, 10, "Uploading image")
	cut, err := remover.RemoveBackground(ctx, data)
	if err != nil {
		c.log.Warn("background removal failed", "element", id, "error", err)
		return err
	}
	c.UpdateProgress(tok, 90, "Applying result")
	source := render.EncodeDataURL("image/png", cut)
	return c.ApplyAsync(tok, document.UpdateElement{ID: id, Patch: document.Patch{Source: document.String(source)}})
}
