//nolint:revive // types is a standard Go package name pattern
package types

// ProfileID names a creative profile
type ProfileID string

// Creative profiles
const (
	ProfileStandard         ProfileID = "STANDARD"
	ProfileClubcard         ProfileID = "CLUBCARD"
	ProfileLowEverydayPrice ProfileID = "LOW_EVERYDAY_PRICE"
)

// TileKind is the kind of a value tile
type TileKind string

// Value tile kinds
const (
	TileNew      TileKind = "new"
	TileWhite    TileKind = "white"
	TileClubcard TileKind = "clubcard"
)

// AllTileKinds lists every value tile kind in a stable order
var AllTileKinds = []TileKind{TileNew, TileWhite, TileClubcard}

// Lock pins a document attribute to a value while a profile is active
type Lock struct {
	Locked bool   `json:"locked"`
	Value  string `json:"value,omitempty"`
}

// Profile is a named bundle of document-wide constraints
type Profile struct {
	ID            ProfileID  `json:"id"`
	Name          string     `json:"name"`
	Background    Lock       `json:"background"`
	TextColor     Lock       `json:"text_color"`
	TextAlign     Lock       `json:"text_align"`
	AllowedTiles  []TileKind `json:"allowed_tiles"`
	DisabledTools []string   `json:"disabled_tools,omitempty"`
	AutoTag       string     `json:"auto_tag,omitempty"`
	// AutoTagColor is used for the auto-inserted tag when the text color is not locked
	AutoTagColor string `json:"auto_tag_color,omitempty"`
}

// AllowsTile reports whether the profile permits a value tile kind
func (p Profile) AllowsTile(kind TileKind) bool {
	for _, k := range p.AllowedTiles {
		if k == kind {
			return true
		}
	}
	return false
}

// ToolDisabled reports whether a tool id is disabled under the profile
func (p Profile) ToolDisabled(toolID string) bool {
	for _, t := range p.DisabledTools {
		if t == toolID {
			return true
		}
	}
	return false
}
