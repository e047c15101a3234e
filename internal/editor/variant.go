package editor

import (
	"math"

	"github.com/jonathan/creative-compliance/internal/document"
	"github.com/jonathan/creative-compliance/internal/profile"
	"github.com/jonathan/creative-compliance/internal/rulebook"
	"github.com/jonathan/creative-compliance/internal/types"
)

// VariantBatch builds the mutations that restyle a document after a variant: copy,
// colors, the lead packshot position, the value tile matching the price type and the tag.
// Attributes locked by the profile are left alone.
func VariantBatch(doc *document.Document, v types.Variant, f types.Format, p types.Profile) (document.Batch, error) {
	if v.Headline == "" {
		return document.Batch{}, &UserInputError{Field: "variant", Message: "variant has no headline"}
	}
	w, h := float64(f.Width), float64(f.Height)
	at := func(pt types.Point) (float64, float64) {
		return clamp01(pt.X) * w, clamp01(pt.Y) * h
	}
	batch := document.Batch{Label: "apply-variant:" + v.ID}
	add := func(m document.Mutation) { batch.Mutations = append(batch.Mutations, m) }

	if v.BackgroundColor != "" && !p.Background.Locked {
		add(document.SetBackground{Color: v.BackgroundColor})
	}
	textColor := ""
	if v.TextColor != "" && !p.TextColor.Locked {
		textColor = v.TextColor
	}

	copyMutation := func(subkind document.TextSubkind, content string, size float64, pt types.Point) {
		x, y := at(pt)
		if e, ok := doc.FirstText(subkind); ok {
			e.Text.Content = content
			e.SetFontSize(e.Text.FontSize)
			e.SetCenter(x, y)
			patch := document.Patch{Content: document.String(content), X: document.Float(e.Geometry.X), Y: document.Float(e.Geometry.Y)}
			if textColor != "" {
				patch.Fill = document.String(textColor)
			}
			add(document.UpdateElement{ID: e.ID, Patch: patch})
			return
		}
		e := document.NewText(subkind, content, size)
		if textColor != "" {
			e.Paint.Fill = textColor
		}
		e.SetCenter(x, y)
		add(document.AddElements{Elements: []*document.Element{e}})
	}
	copyMutation(document.SubkindHeadline, v.Headline, f.Config.HeadlineFontSize, v.Layout.Headline)
	if v.Subheadline != "" {
		copyMutation(document.SubkindSubheadline, v.Subheadline, f.Config.SubFontSize, v.Layout.Subheadline)
	}

	if lead, ok := doc.Lead(); ok && !lead.Flags.LockMoveX && !lead.Flags.LockMoveY {
		lead.SetCenter(at(v.Layout.Packshot))
		add(document.UpdateElement{ID: lead.ID, Patch: document.Patch{X: document.Float(lead.Geometry.X), Y: document.Float(lead.Geometry.Y)}})
	}

	tileMutations, err := variantTiles(doc, v, f, p)
	if err != nil {
		return document.Batch{}, err
	}
	batch.Mutations = append(batch.Mutations, tileMutations...)

	if v.Tag != "" {
		add(document.RemoveMatching{Match: func(e *document.Element) bool { return e.IsTag() }})
		x, y := at(v.Layout.Tag)
		if f.IsStory() {
			y = math.Min(y, h-rulebook.StoryTagFromBottom)
		}
		color := rulebook.AutoTagColor(p)
		if textColor != "" {
			color = textColor
		}
		tag := document.NewTag(v.Tag, x, y, profile.AutoTagFontSize, color)
		add(document.AddElements{Elements: []*document.Element{tag}})
	}
	return batch, nil
}

// variantTiles removes tiles the price type does not use and rebuilds the one it
// does at the variant's position, keeping any prices the user already entered
func variantTiles(doc *document.Document, v types.Variant, f types.Format, p types.Profile) ([]document.Mutation, error) {
	var out []document.Mutation
	wanted, hasWanted := v.PriceType.TileKind()
	if hasWanted && !p.AllowsTile(wanted) {
		hasWanted = false
	}
	groups := doc.TileGroups()
	for _, kind := range types.AllTileKinds {
		if len(groups[kind]) == 0 {
			continue
		}
		k := kind
		out = append(out, document.RemoveMatching{Match: func(e *document.Element) bool {
			return e.Tile != nil && e.Tile.Kind == k
		}})
	}
	if !hasWanted {
		return out, nil
	}

	kept := make(map[document.TilePart]string)
	for _, groupID := range groups[wanted] {
		for _, part := range doc.TileGroup(groupID) {
			if part.Flags.Editable && part.Text != nil {
				kept[part.Tile.Part] = part.Text.Content
			}
		}
	}
	cx, cy := clamp01(v.Layout.ValueTile.X)*float64(f.Width), clamp01(v.Layout.ValueTile.Y)*float64(f.Height)
	parts, err := document.NewValueTileGroup(wanted, f.ID, cx, cy)
	if err != nil {
		return nil, err
	}
	for _, part := range parts {
		if content, ok := kept[part.Tile.Part]; ok && part.Text != nil {
			part.Text.Content = content
			part.SetFontSize(part.Text.FontSize)
		}
	}
	return append(out, document.AddElements{Elements: parts}), nil
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
