package document

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/creative-compliance/internal/rulebook"
	"github.com/jonathan/creative-compliance/internal/types"
)

const pixel = "data:image/png;base64,iVBORw0KGgo="

func recordEvents(d *Document) *[]Event {
	var events []Event
	d.Subscribe(func(ev Event) { events = append(events, ev) })
	return &events
}

func TestAdd_FirstPackshotLeads(t *testing.T) {
	d := New("instagram-feed")
	a, b := NewPackshot(pixel, 100, 100), NewPackshot(pixel, 100, 100)
	require.NoError(t, d.Add(a, b))

	lead, ok := d.Lead()
	require.True(t, ok)
	assert.Equal(t, a.ID, lead.ID)
	second, _ := d.Find(b.ID)
	assert.False(t, second.Lead)
}

func TestAdd_RejectsFourthPackshot(t *testing.T) {
	d := New("instagram-feed")
	require.NoError(t, d.Add(NewPackshot(pixel, 1, 1), NewPackshot(pixel, 1, 1), NewPackshot(pixel, 1, 1)))
	events := recordEvents(d)

	err := d.Add(NewPackshot(pixel, 1, 1))
	require.Error(t, err)
	var invErr *InvariantError
	require.ErrorAs(t, err, &invErr)
	assert.Equal(t, "max-packshots", invErr.Rule)
	assert.Equal(t, 3, d.Count(KindPackshot))
	assert.Empty(t, *events)
}

func TestAdd_SingletonKinds(t *testing.T) {
	d := New("instagram-feed")
	require.NoError(t, d.Add(NewLogo(pixel, 10, 10), NewDrinkaware(24)))

	assert.Error(t, d.Add(NewLogo(pixel, 10, 10)))
	assert.Error(t, d.Add(NewDrinkaware(24)))
	assert.Error(t, d.Add(NewBackgroundImage(pixel, 10, 10, types.Format{Width: 100, Height: 100}),
		NewBackgroundImage(pixel, 10, 10, types.Format{Width: 100, Height: 100})))
}

func TestAdd_DuplicateID(t *testing.T) {
	d := New("instagram-feed")
	e := NewText(SubkindHeadline, "Hello", 48)
	require.NoError(t, d.Add(e))
	err := d.Add(e)
	var invErr *InvariantError
	require.ErrorAs(t, err, &invErr)
	assert.Equal(t, "duplicate-id", invErr.Rule)
}

func TestRemove_LeadPromotesNext(t *testing.T) {
	d := New("instagram-feed")
	a, b := NewPackshot(pixel, 1, 1), NewPackshot(pixel, 1, 1)
	require.NoError(t, d.Add(a, b))
	events := recordEvents(d)

	require.NoError(t, d.Remove(a.ID))

	lead, ok := d.Lead()
	require.True(t, ok)
	assert.Equal(t, b.ID, lead.ID)
	require.Len(t, *events, 2)
	assert.Equal(t, Event{Type: EventRemoved, IDs: []string{a.ID}}, (*events)[0])
	assert.Equal(t, Event{Type: EventModified, IDs: []string{b.ID}}, (*events)[1])
}

func TestRemove_NotFound(t *testing.T) {
	d := New("instagram-feed")
	err := d.Remove("ghost")
	var nf *NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestValueTile_GroupLifecycle(t *testing.T) {
	d := New("instagram-feed")
	parts, err := NewValueTileGroup(types.TileClubcard, d.FormatID, 540, 900)
	require.NoError(t, err)
	require.Len(t, parts, 4)
	require.NoError(t, d.Add(parts...))
	assert.True(t, d.HasTile(types.TileClubcard))

	dup, err := NewValueTileGroup(types.TileClubcard, d.FormatID, 540, 900)
	require.NoError(t, err)
	err = d.Add(dup...)
	var invErr *InvariantError
	require.ErrorAs(t, err, &invErr)
	assert.Equal(t, "duplicate-tile", invErr.Rule)

	other, err := NewValueTileGroup(types.TileNew, d.FormatID, 200, 200)
	require.NoError(t, err)
	require.NoError(t, d.Add(other...))

	var price *Element
	for _, p := range parts {
		if p.Tile.Part == PartPrice {
			price = p
		}
	}
	require.NotNil(t, price)
	require.NoError(t, d.Remove(price.ID))
	assert.False(t, d.HasTile(types.TileClubcard))
	assert.True(t, d.HasTile(types.TileNew))
	assert.Equal(t, len(other), d.Count(KindValueTile))
}

func TestValueTile_EditableParts(t *testing.T) {
	d := New("instagram-feed")
	white, err := NewValueTileGroup(types.TileWhite, d.FormatID, 800, 900)
	require.NoError(t, err)
	fresh, err := NewValueTileGroup(types.TileNew, d.FormatID, 200, 200)
	require.NoError(t, err)
	require.NoError(t, d.Add(append(white, fresh...)...))

	for _, p := range white {
		if p.Tile.Part == PartPrice {
			require.NoError(t, d.Update(p.ID, Patch{Content: String("£2.00")}))
			assert.Error(t, d.Update(p.ID, Patch{FontSize: Float(10)}))
			assert.Error(t, d.Update(p.ID, Patch{X: Float(p.Geometry.X + 5)}))
		}
	}
	for _, p := range fresh {
		if p.Tile.Part == PartLabel {
			assert.Error(t, d.Update(p.ID, Patch{Content: String("OLD")}))
		}
	}
}

func TestUpdate_LockedTag(t *testing.T) {
	d := New("instagram-feed")
	tag := NewTag("Only at Tesco", 540, 1055, 20, rulebook.ColorWhite)
	require.NoError(t, d.Add(tag))

	err := d.Update(tag.ID, Patch{X: Float(100)})
	var invErr *InvariantError
	require.ErrorAs(t, err, &invErr)
	assert.Equal(t, "locked", invErr.Rule)

	require.NoError(t, d.Update(tag.ID, Patch{X: Float(540), Content: String("Available at Tesco")}))
	got, _ := d.Find(tag.ID)
	assert.Equal(t, "Available at Tesco", got.Text.Content)
	assert.Greater(t, got.Geometry.Width, tag.Geometry.Width)
}

func TestSetFormat_SafeZones(t *testing.T) {
	d := New("instagram-feed")
	head := NewText(SubkindHeadline, "Hi", 48)
	require.NoError(t, d.Add(head))
	events := recordEvents(d)

	require.NoError(t, d.Apply(SetFormat{FormatID: "instagram-story"}))
	assert.Equal(t, 2, d.Count(KindSafeZone))
	all := d.Elements()
	assert.Equal(t, rulebook.SafeZoneTopID, all[0].ID)
	assert.Equal(t, rulebook.SafeZoneBottomID, all[1].ID)
	assert.Equal(t, EventAdded, (*events)[len(*events)-1].Type)

	require.NoError(t, d.Reorder(head.ID, 0))
	assert.Equal(t, 2, d.IndexOf(head.ID))
	assert.Error(t, d.Reorder(rulebook.SafeZoneTopID, 2))
	assert.Error(t, d.Update(rulebook.SafeZoneTopID, Patch{Opacity: Float(0.5)}))

	require.NoError(t, d.Apply(SetFormat{FormatID: "instagram-feed"}))
	assert.Zero(t, d.Count(KindSafeZone))
}

func TestAdd_SafeZoneOutsideStory(t *testing.T) {
	d := New("instagram-feed")
	f, _ := rulebook.FormatByID("instagram-story")
	err := d.Add(SafeZonesFor(f)...)
	var invErr *InvariantError
	require.ErrorAs(t, err, &invErr)
	assert.Equal(t, "safe-zone-format", invErr.Rule)
}

func TestBatch_Atomic(t *testing.T) {
	d := New("instagram-feed")
	events := recordEvents(d)
	head := NewText(SubkindHeadline, "Hi", 48)

	err := d.Apply(Batch{Mutations: []Mutation{
		AddElements{Elements: []*Element{head}},
		SetBackground{Color: "#00539F"},
		RemoveElement{ID: "ghost"},
	}})
	require.Error(t, err)
	assert.Zero(t, d.Len())
	assert.Equal(t, rulebook.ColorWhite, d.Background)
	assert.Empty(t, *events)

	require.NoError(t, d.Apply(Batch{Mutations: []Mutation{
		AddElements{Elements: []*Element{head}},
		SetBackground{Color: "#00539F"},
	}}))
	assert.Equal(t, 1, d.Len())
	assert.Equal(t, "#00539F", d.Background)
	require.Len(t, *events, 2)
	assert.Equal(t, EventAdded, (*events)[0].Type)
	assert.Equal(t, EventModified, (*events)[1].Type)
}

func TestSetBackground_InvalidColor(t *testing.T) {
	d := New("instagram-feed")
	assert.Error(t, d.Apply(SetBackground{Color: "blue"}))
}

func TestSubscribe_Unsubscribe(t *testing.T) {
	d := New("instagram-feed")
	count := 0
	stop := d.Subscribe(func(Event) { count++ })
	require.NoError(t, d.Add(NewText(SubkindBody, "a", 20)))
	stop()
	require.NoError(t, d.Add(NewText(SubkindBody, "b", 20)))
	assert.Equal(t, 1, count)
}

func TestElements_ReturnsCopies(t *testing.T) {
	d := New("instagram-feed")
	head := NewText(SubkindHeadline, "Hi", 48)
	require.NoError(t, d.Add(head))

	els := d.Elements()
	els[0].Text.Content = "mutated"
	got, _ := d.Find(head.ID)
	assert.Equal(t, "Hi", got.Text.Content)
}

func TestSerialize_RoundTrip(t *testing.T) {
	d := New("instagram-story")
	require.NoError(t, d.Apply(SetFormat{FormatID: "instagram-story"}))
	shot := NewPackshot(pixel, 400, 400)
	tiles, err := NewValueTileGroup(types.TileWhite, d.FormatID, 800, 1400)
	require.NoError(t, err)
	require.NoError(t, d.Add(append([]*Element{shot, NewText(SubkindHeadline, "Fresh", 64)}, tiles...)...))
	require.NoError(t, d.Apply(SetAlcohol{Alcohol: true}))

	data, err := Serialize(d)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	first := raw["elements"].([]any)[0].(map[string]any)
	assert.Equal(t, true, first["roles"].(map[string]any)["is_safe_zone"])

	back, err := Deserialize(data, false)
	require.NoError(t, err)
	assert.Equal(t, d.ID, back.ID)
	assert.True(t, back.Alcohol)
	assert.Zero(t, back.Count(KindSafeZone))
	assert.Equal(t, d.Len()-2, back.Len())
	lead, ok := back.Lead()
	require.True(t, ok)
	assert.Equal(t, shot.ID, lead.ID)

	kept, err := Deserialize(data, true)
	require.NoError(t, err)
	assert.Equal(t, 2, kept.Count(KindSafeZone))
}

func TestDeserialize_Invalid(t *testing.T) {
	_, err := Deserialize([]byte(`{"version":1}`), false)
	var decErr *DecodeError
	require.ErrorAs(t, err, &decErr)

	tooMany := `{"version":1,"format_id":"instagram-feed","background":"#FFFFFF","elements":[
		{"id":"a","kind":"logo","geometry":{"x":0,"y":0,"width":1,"height":1},"image":{"source":"x"}},
		{"id":"b","kind":"logo","geometry":{"x":0,"y":0,"width":1,"height":1},"image":{"source":"x"}}]}`
	_, err = Deserialize([]byte(tooMany), false)
	require.ErrorAs(t, err, &decErr)
	var invErr *InvariantError
	assert.ErrorAs(t, err, &invErr)
}

func TestFromElements_NormalizesLead(t *testing.T) {
	a, b := NewPackshot(pixel, 1, 1), NewPackshot(pixel, 1, 1)
	a.Lead, b.Lead = false, true
	d, err := FromElements("", "instagram-feed", "", false, []*Element{a, b})
	require.NoError(t, err)
	lead, ok := d.Lead()
	require.True(t, ok)
	assert.Equal(t, b.ID, lead.ID)
	assert.Equal(t, rulebook.ColorWhite, d.Background)
	assert.NotEmpty(t, d.ID)
}

func TestElement_BoundsAndRoles(t *testing.T) {
	e := NewPackshot(pixel, 100, 50)
	e.Geometry.X, e.Geometry.Y = 200, 100
	assert.Equal(t, types.Rect{X: 150, Y: 75, Width: 100, Height: 50}, e.Bounds())

	e.Geometry.Rotation = 90
	b := e.Bounds()
	assert.InDelta(t, 50, b.Width, 1e-9)
	assert.InDelta(t, 100, b.Height, 1e-9)

	e.Lead = true
	r := e.Roles()
	assert.True(t, r.IsPackshot)
	assert.True(t, r.IsLeadPackshot)
	assert.Equal(t, "Lead Packshot", e.DisplayName())

	dw := NewDrinkaware(24)
	dw.Geometry.X, dw.Geometry.Y = 1060, 1030
	assert.InDelta(t, 1060, dw.Bounds().Right(), 1e-9)
	assert.InDelta(t, 1030, dw.Bounds().Bottom(), 1e-9)
}

func TestNewShape_Kinds(t *testing.T) {
	for _, k := range []ShapeKind{ShapeRect, ShapeRoundedRect, ShapeCircle, ShapeEllipse, ShapeTriangle, ShapePolygon, ShapeStar, ShapePath, ShapeLine} {
		s, err := NewShape(k, 100, 80, "#FF0000")
		require.NoError(t, err, k)
		require.NoError(t, s.Validate())
	}
	_, err := NewShape("blob", 1, 1, "#000")
	assert.Error(t, err)
}
