package compliance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/creative-compliance/internal/document"
	"github.com/jonathan/creative-compliance/internal/rulebook"
	"github.com/jonathan/creative-compliance/internal/types"
)

const pixel = "data:image/png;base64,iVBORw0KGgo="

func mustFormat(t *testing.T, id string) types.Format {
	t.Helper()
	f, ok := rulebook.FormatByID(id)
	require.True(t, ok)
	return f
}

func mustProfile(t *testing.T, id types.ProfileID) types.Profile {
	t.Helper()
	p, ok := rulebook.ProfileByID(id)
	require.True(t, ok)
	return p
}

// baseDocument builds a compliant square creative with a headline of the given text
func baseDocument(t *testing.T, headline string) (*document.Document, *document.Element) {
	t.Helper()
	d := document.New("instagram-feed")
	shot := document.NewPackshot(pixel, 400, 400)
	shot.Geometry.X, shot.Geometry.Y = 540, 600
	head := document.NewText(document.SubkindHeadline, headline, 72)
	head.Geometry.X, head.Geometry.Y = 540, 324
	sub := document.NewText(document.SubkindSubheadline, "Made for sharing", 32)
	sub.Geometry.X, sub.Geometry.Y = 540, 430
	require.NoError(t, d.Add(shot, head, sub))
	return d, head
}

func TestCheck_ProhibitedTermRewrite(t *testing.T) {
	d, head := baseDocument(t, "Sugar Free Treat")
	f := mustFormat(t, "instagram-feed")
	p := mustProfile(t, types.ProfileStandard)

	report := Check(d, p, f)
	assert.Equal(t, types.StatusNonCompliant, report.Status)
	require.Len(t, report.Errors, 1)
	v := report.Errors[0]
	assert.Equal(t, CheckProhibitedTerm, v.CheckID)
	assert.Equal(t, "Sugar Free", v.Term)
	assert.Equal(t, head.ID, v.ElementID)
	assert.Equal(t, "Headline", v.Element)
	assert.Contains(t, v.Suggestion, "Zero Sugar")

	clean := Sanitize(head.Text.Content)
	assert.Equal(t, "Zero Sugar Treat", clean)
	require.NoError(t, d.Update(head.ID, document.Patch{Content: document.String(clean)}))

	report = Check(d, p, f)
	assert.Equal(t, types.StatusCompliant, report.Status)
	assert.Empty(t, report.Errors)
	assert.Empty(t, report.Warnings)
	assert.Contains(t, report.Strengths, "Lead packshot present")
}

func TestCheck_MissingClubcardTag(t *testing.T) {
	d, _ := baseDocument(t, "Summer Savings")
	f := mustFormat(t, "instagram-feed")
	tiles, err := document.NewValueTileGroup(types.TileClubcard, f.ID, 840, 918)
	require.NoError(t, err)
	require.NoError(t, d.Add(tiles...))

	report := Check(d, mustProfile(t, types.ProfileStandard), f)
	var found []types.Violation
	for _, v := range report.Errors {
		if v.CheckID == CheckMissingClubcardTag {
			found = append(found, v)
		}
	}
	require.Len(t, found, 1)
	assert.Equal(t, "Available in selected stores. Clubcard/app required. Ends DD/MM", found[0].Suggestion)

	tag := document.NewTag("Available in selected stores. Clubcard/app required. Ends 31/12", 540, 1030, 20, rulebook.ColorBlack)
	require.NoError(t, d.Add(tag))
	report = Check(d, mustProfile(t, types.ProfileStandard), f)
	_, ok := report.Find(CheckMissingClubcardTag)
	assert.False(t, ok)
}

func TestCheck_AlcoholRequiresDrinkaware(t *testing.T) {
	d, _ := baseDocument(t, "Cheers")
	require.NoError(t, d.Apply(document.SetAlcohol{Alcohol: true}))
	f := mustFormat(t, "instagram-feed")
	p := mustProfile(t, types.ProfileStandard)

	report := Check(d, p, f)
	v, ok := report.Find(CheckMissingDrinkaware)
	require.True(t, ok)
	assert.Equal(t, types.SeverityError, v.Severity)

	dw := document.NewDrinkaware(20)
	dw.Geometry.X, dw.Geometry.Y = 1060, 1060
	require.NoError(t, d.Add(dw))
	report = Check(d, p, f)
	_, ok = report.Find(CheckMissingDrinkaware)
	assert.False(t, ok)
	_, ok = report.Find(CheckDrinkawareTooSmall)
	assert.False(t, ok)
	assert.Equal(t, types.StatusCompliant, report.Status)
}

func TestCheck_DrinkawareTooSmall(t *testing.T) {
	d, _ := baseDocument(t, "Cheers")
	require.NoError(t, d.Apply(document.SetAlcohol{Alcohol: true}))
	require.NoError(t, d.Add(document.NewDrinkaware(14)))

	report := Check(d, mustProfile(t, types.ProfileStandard), mustFormat(t, "instagram-feed"))
	_, ok := report.Find(CheckDrinkawareTooSmall)
	assert.True(t, ok)
	_, ok = report.Find(CheckDrinkawareFontSmall)
	assert.False(t, ok)
}

func TestCheck_RequiredContent(t *testing.T) {
	d := document.New("instagram-feed")
	report := Check(d, mustProfile(t, types.ProfileStandard), mustFormat(t, "instagram-feed"))

	require.Len(t, report.Errors, 2)
	assert.Equal(t, CheckMissingHeadline, report.Errors[0].CheckID)
	assert.Equal(t, CheckMissingLeadPackshot, report.Errors[1].CheckID)
	require.Len(t, report.Warnings, 1)
	assert.Equal(t, CheckMissingSubheadline, report.Warnings[0].CheckID)
}

func TestCheck_PriceOutsideTile(t *testing.T) {
	d, head := baseDocument(t, "Now only £2.50")
	report := Check(d, mustProfile(t, types.ProfileStandard), mustFormat(t, "instagram-feed"))
	v, ok := report.Find(CheckPriceOutsideTile)
	require.True(t, ok)
	assert.Equal(t, head.ID, v.ElementID)
	assert.Contains(t, v.Problem, "£2.50")
}

func TestCheck_SafeZoneIntrusion(t *testing.T) {
	f := mustFormat(t, "instagram-story")
	d := document.New(f.ID)
	require.NoError(t, d.Apply(document.SetFormat{FormatID: f.ID}))
	shot := document.NewPackshot(pixel, 400, 400)
	shot.Geometry.X, shot.Geometry.Y = 540, 960
	head := document.NewText(document.SubkindHeadline, "Fresh", 72)
	head.Geometry.X, head.Geometry.Y = 540, 120
	sub := document.NewText(document.SubkindSubheadline, "Made daily", 32)
	sub.Geometry.X, sub.Geometry.Y = 540, 500
	require.NoError(t, d.Add(shot, head, sub))

	report := Check(d, mustProfile(t, types.ProfileStandard), f)
	assert.Equal(t, types.StatusNeedsReview, report.Status)
	require.Len(t, report.Warnings, 1)
	assert.Equal(t, CheckSafeZoneIntrusion, report.Warnings[0].CheckID)
	assert.Equal(t, head.ID, report.Warnings[0].ElementID)
}

func TestCheck_ProfileConformance(t *testing.T) {
	d, _ := baseDocument(t, "Everyday Value")
	tiles, err := document.NewValueTileGroup(types.TileNew, "instagram-feed", 200, 200)
	require.NoError(t, err)
	require.NoError(t, d.Add(tiles...))

	report := Check(d, mustProfile(t, types.ProfileLowEverydayPrice), mustFormat(t, "instagram-feed"))
	assert.Equal(t, types.StatusNonCompliant, report.Status)

	counts := map[string]int{}
	for _, v := range report.Errors {
		counts[v.CheckID]++
	}
	assert.Equal(t, 1, counts[CheckProfileBackground])
	assert.Equal(t, 2, counts[CheckProfileTextColor])
	assert.Equal(t, 2, counts[CheckProfileTextAlign])
	assert.Equal(t, 1, counts[CheckProfileTileKind])
}

func TestCheck_TagAccessibility(t *testing.T) {
	d, _ := baseDocument(t, "Fresh")
	require.NoError(t, d.Add(document.NewTag("Only at Tesco", 540, 1030, 12, rulebook.ColorBlack)))

	report := Check(d, mustProfile(t, types.ProfileStandard), mustFormat(t, "instagram-feed"))
	v, ok := report.Find(CheckTagTooSmall)
	require.True(t, ok)
	assert.Equal(t, types.SeverityWarning, v.Severity)
	assert.Equal(t, types.StatusNeedsReview, report.Status)
}

func TestCheck_OrderingAndIdempotence(t *testing.T) {
	d, _ := baseDocument(t, "Win a prize")
	body := document.NewText(document.SubkindBody, "Guaranteed organic", 24)
	require.NoError(t, d.Add(body))
	f := mustFormat(t, "instagram-feed")
	p := mustProfile(t, types.ProfileStandard)

	first := Check(d, p, f)
	second := Check(d, p, f)
	assert.Equal(t, first, second)

	for i := 1; i < len(first.Errors); i++ {
		prev, cur := first.Errors[i-1], first.Errors[i]
		assert.True(t, prev.ZIndex < cur.ZIndex || (prev.ZIndex == cur.ZIndex && prev.CheckID <= cur.CheckID))
	}
	assert.Len(t, first.Errors, 4)
}

func TestFindProhibited(t *testing.T) {
	hits := FindProhibited("Fat-free yoghurt, FREE delivery")
	require.Len(t, hits, 2)
	assert.Equal(t, "Fat-free", hits[0].Term)
	assert.Equal(t, "Low Fat", hits[0].Replacement)
	assert.Equal(t, "FREE", hits[1].Term)
	assert.Equal(t, `Remove "FREE"`, hits[1].Suggestion())

	assert.Empty(t, FindProhibited("Freedom fries and a greenhouse"))
	assert.Len(t, FindProhibited("Voted #1 by a survey"), 2)
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Sugar Free Treat", "Zero Sugar Treat"},
		{"free range eggs", "Farm Fresh eggs"},
		{"Guilt-free snacking", "Light snacking"},
		{"Buy one get one FREE!", "Buy one get one!"},
		{"Win a prize today", "a today"},
		{"  lots   of   space  ", "lots of space"},
		{"Line one\n\nfree\nLine two", "Line one\nLine two"},
		{"Freedom to choose", "Freedom to choose"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.in))
		})
	}
}

func TestApplyReplacements_KeepsUnreplacedTerms(t *testing.T) {
	tests := []struct {
		in    string
		want  string
		clean bool
	}{
		{"Sugar Free Treat", "Zero Sugar Treat", true},
		{"Buy one get one FREE!", "Buy one get one!", true},
		{"Win a prize today", "Win a prize today", false},
		{"Quality  guaranteed ", "Quality guaranteed", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ApplyReplacements(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.clean, IsClean(got))
		})
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	inputs := []string{
		"Sugar Free Treat",
		"FREE free-range eggs, guaranteed organic!",
		"Award winning, clinically proven, number one",
		"t&c apply. Terms and conditions. Donate to charity",
		"Eco-friendly carbon   neutral #1 best ever",
		"free free free",
		"",
	}
	for _, in := range inputs {
		once := Sanitize(in)
		assert.Equal(t, once, Sanitize(once), in)
		assert.True(t, IsClean(once), "%q -> %q", in, once)
	}
}
