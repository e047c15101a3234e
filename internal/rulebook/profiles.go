package rulebook

import "github.com/jonathan/creative-compliance/internal/types"

// Tool ids that profiles can disable
const (
	ToolBackgroundColor = "background-color"
	ToolTextColor       = "text-color"
	ToolTextAlign       = "text-align"
	ToolTileNew         = "value-tile-new"
	ToolTileWhite       = "value-tile-white"
	ToolTileClubcard    = "value-tile-clubcard"
	ToolAIBackground    = "ai-background"
	ToolBackgroundImage = "background-image"
)

// ToolIDs lists every tool a profile can disable
func ToolIDs() []string {
	return []string{
		ToolBackgroundColor, ToolTextColor, ToolTextAlign,
		ToolTileNew, ToolTileWhite, ToolTileClubcard,
		ToolAIBackground, ToolBackgroundImage,
	}
}

// Brand colors referenced by profile locks and tile templates
const (
	ColorTescoBlue   = "#00539F"
	ColorWhite       = "#FFFFFF"
	ColorBlack       = "#000000"
	ColorClubcard    = "#FFD100"
	ColorNewRed      = "#E51C23"
	ColorNeutralGray = "#666666"
)

// ClubcardTagSuggestion is the tag text suggested when a clubcard tile lacks its tag
const ClubcardTagSuggestion = "Available in selected stores. Clubcard/app required. Ends DD/MM"

var profiles = []types.Profile{
	{
		ID:           types.ProfileStandard,
		Name:         "Standard",
		AllowedTiles: []types.TileKind{types.TileNew, types.TileWhite, types.TileClubcard},
	},
	{
		ID:            types.ProfileClubcard,
		Name:          "Clubcard",
		AllowedTiles:  []types.TileKind{types.TileNew, types.TileClubcard},
		DisabledTools: []string{ToolTileWhite},
		AutoTag:       ClubcardTagSuggestion,
		AutoTagColor:  ColorTescoBlue,
	},
	{
		ID:            types.ProfileLowEverydayPrice,
		Name:          "Low Everyday Price",
		Background:    types.Lock{Locked: true, Value: ColorTescoBlue},
		TextColor:     types.Lock{Locked: true, Value: ColorWhite},
		TextAlign:     types.Lock{Locked: true, Value: "left"},
		AllowedTiles:  []types.TileKind{types.TileWhite},
		DisabledTools: []string{ToolBackgroundColor, ToolTextColor, ToolTextAlign, ToolTileNew, ToolTileClubcard, ToolAIBackground},
		AutoTag:       "Only at Tesco",
	},
}

// Profiles returns every creative profile in a stable order
func Profiles() []types.Profile {
	out := make([]types.Profile, len(profiles))
	for i, p := range profiles {
		out[i] = cloneProfile(p)
	}
	return out
}

// ProfileByID looks up a creative profile
func ProfileByID(id types.ProfileID) (types.Profile, bool) {
	for _, p := range profiles {
		if p.ID == id {
			return cloneProfile(p), true
		}
	}
	return types.Profile{}, false
}

// DefaultProfile returns the STANDARD profile
func DefaultProfile() types.Profile {
	p, _ := ProfileByID(types.ProfileStandard)
	return p
}

// AutoTagColor resolves the color of a profile's auto-inserted tag: the locked text
// color when there is one, the profile's own default otherwise, then neutral gray.
func AutoTagColor(p types.Profile) string {
	if p.TextColor.Locked && p.TextColor.Value != "" {
		return p.TextColor.Value
	}
	if p.AutoTagColor != "" {
		return p.AutoTagColor
	}
	return ColorNeutralGray
}

// TileTool returns the tool id that adds a value tile of the given kind
func TileTool(kind types.TileKind) string {
	return "value-tile-" + string(kind)
}

func cloneProfile(p types.Profile) types.Profile {
	p.AllowedTiles = append([]types.TileKind(nil), p.AllowedTiles...)
	p.DisabledTools = append([]string(nil), p.DisabledTools...)
	return p
}
