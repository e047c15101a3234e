//nolint:revive // types is a standard Go package name pattern
package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormat_IsStory(t *testing.T) {
	assert.True(t, Format{Ratio: RatioStory}.IsStory())
	assert.False(t, Format{Ratio: RatioSquare}.IsStory())
}

func TestRect_Intersects(t *testing.T) {
	tests := []struct {
		name string
		a, b Rect
		want bool
	}{
		{"overlap", Rect{0, 0, 10, 10}, Rect{5, 5, 10, 10}, true},
		{"touching edges", Rect{0, 0, 10, 10}, Rect{10, 0, 10, 10}, false},
		{"disjoint", Rect{0, 0, 10, 10}, Rect{20, 20, 1, 1}, false},
		{"contained", Rect{0, 0, 100, 100}, Rect{10, 10, 1, 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Intersects(tt.b))
			assert.Equal(t, tt.want, tt.b.Intersects(tt.a))
		})
	}
}

func TestProfile_AllowsTile(t *testing.T) {
	p := Profile{AllowedTiles: []TileKind{TileWhite}, DisabledTools: []string{"text-color"}}
	assert.True(t, p.AllowsTile(TileWhite))
	assert.False(t, p.AllowsTile(TileClubcard))
	assert.True(t, p.ToolDisabled("text-color"))
	assert.False(t, p.ToolDisabled("background-color"))
}

func TestPriceType_TileKind(t *testing.T) {
	k, ok := PriceClubcard.TileKind()
	assert.True(t, ok)
	assert.Equal(t, TileClubcard, k)

	k, ok = PriceLEP.TileKind()
	assert.True(t, ok)
	assert.Equal(t, TileWhite, k)

	_, ok = PriceNone.TileKind()
	assert.False(t, ok)
}

func TestComplianceReport_Find(t *testing.T) {
	r := ComplianceReport{
		Errors:   []Violation{{CheckID: "missing-headline"}},
		Warnings: []Violation{{CheckID: "missing-subheadline"}},
	}
	_, ok := r.Find("missing-subheadline")
	assert.True(t, ok)
	_, ok = r.Find("nope")
	assert.False(t, ok)
	assert.True(t, r.HasErrors())
}
