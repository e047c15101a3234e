package rulebook

import "github.com/jonathan/creative-compliance/internal/types"

// Safe zone band heights for 9:16 formats, in format pixels
const (
	SafeZoneTop    = 200.0
	SafeZoneBottom = 250.0
)

// SafeZone names
const (
	SafeZoneTopID    = "safe-zone-top"
	SafeZoneBottomID = "safe-zone-bottom"
)

// NamedRect pairs a rectangle with a stable identifier
type NamedRect struct {
	ID   string
	Rect types.Rect
}

// SafeZones returns the safe zone rectangles of a format. Only 9:16 formats have any.
func SafeZones(f types.Format) []NamedRect {
	if !f.IsStory() {
		return nil
	}
	w := float64(f.Width)
	h := float64(f.Height)
	return []NamedRect{
		{ID: SafeZoneTopID, Rect: types.Rect{X: 0, Y: 0, Width: w, Height: SafeZoneTop}},
		{ID: SafeZoneBottomID, Rect: types.Rect{X: 0, Y: h - SafeZoneBottom, Width: w, Height: SafeZoneBottom}},
	}
}
