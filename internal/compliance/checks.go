package compliance

import (
	"fmt"
	"strings"

	"github.com/jonathan/creative-compliance/internal/document"
	"github.com/jonathan/creative-compliance/internal/rulebook"
	"github.com/jonathan/creative-compliance/internal/types"
)

var categoryExplanations = map[string]string{
	rulebook.CategoryPromotional:    "Promotional claims such as free offers or competitions are not permitted in retail media copy.",
	rulebook.CategoryGuarantee:      "Guarantees and money-back promises require legal terms that cannot appear on the creative.",
	rulebook.CategorySustainability: "Environmental claims need substantiation and are not permitted.",
	rulebook.CategoryClaims:         "Superlative and efficacy claims need evidence and are not permitted.",
	rulebook.CategoryLegal:          "Terms and conditions cannot be referenced on the creative.",
	rulebook.CategoryResearch:       "Survey and research claims are not permitted.",
	rulebook.CategoryCharity:        "Charity and donation messaging is not permitted.",
}

func checkRequiredContent(s *scene, f *finding) {
	if _, ok := s.doc.Lead(); ok {
		f.strength("Lead packshot present")
	} else {
		f.add(types.Violation{
			CheckID:     CheckMissingLeadPackshot,
			Severity:    types.SeverityError,
			Category:    CategoryRequired,
			Problem:     "No lead packshot",
			Explanation: "Every creative must feature the product as its lead packshot.",
			Suggestion:  "Add a product image",
			ZIndex:      documentLevel,
		})
	}

	if hasCopy(s.elements, document.SubkindHeadline) {
		f.strength("Headline present")
	} else {
		f.add(types.Violation{
			CheckID:     CheckMissingHeadline,
			Severity:    types.SeverityError,
			Category:    CategoryRequired,
			Problem:     "No headline",
			Explanation: "A headline is required to communicate the offer.",
			Suggestion:  "Add a headline",
			ZIndex:      documentLevel,
		})
	}

	if hasCopy(s.elements, document.SubkindSubheadline) {
		f.strength("Subheadline present")
	} else {
		f.add(types.Violation{
			CheckID:     CheckMissingSubheadline,
			Severity:    types.SeverityWarning,
			Category:    CategoryRequired,
			Problem:     "No subheadline",
			Explanation: "A subheadline helps explain the product benefit.",
			Suggestion:  "Add a subheadline",
			ZIndex:      documentLevel,
		})
	}
}

func hasCopy(els []*document.Element, subkind document.TextSubkind) bool {
	for _, e := range els {
		if e.IsSubkind(subkind) && strings.TrimSpace(e.Text.Content) != "" {
			return true
		}
	}
	return false
}

func checkTerminology(s *scene, f *finding) {
	clean := true
	for z, e := range s.elements {
		if e.Text == nil || e.Kind == document.KindDrinkaware {
			continue
		}
		for _, hit := range FindProhibited(e.Text.Content) {
			clean = false
			v := elementViolation(e, z, CheckProhibitedTerm, types.SeverityError, hit.Category)
			v.Term = hit.Term
			v.Problem = fmt.Sprintf("%s contains prohibited term %q", e.DisplayName(), hit.Term)
			v.Explanation = categoryExplanations[hit.Category]
			v.Suggestion = hit.Suggestion()
			f.add(v)
		}
	}
	if clean {
		f.strength("Copy is free of prohibited terminology")
	}
}

func checkSafeZones(s *scene, f *finding) {
	zones := rulebook.SafeZones(s.format)
	if len(zones) == 0 {
		return
	}
	inside := true
	for z, e := range s.elements {
		if e.Kind == document.KindSafeZone || e.Kind == document.KindBackgroundImage {
			continue
		}
		bounds := e.Bounds()
		for _, zone := range zones {
			if !bounds.Intersects(zone.Rect) {
				continue
			}
			inside = false
			v := elementViolation(e, z, CheckSafeZoneIntrusion, types.SeverityWarning, CategoryPlacement)
			v.Problem = fmt.Sprintf("%s overlaps the %s", e.DisplayName(), strings.ReplaceAll(zone.ID, "-", " "))
			v.Explanation = "Platform UI covers the top and bottom bands of 9:16 placements."
			v.Suggestion = "Move the element into the central area"
			f.add(v)
			break
		}
	}
	if inside {
		f.strength("Content is clear of safe zones")
	}
}

func checkPricing(s *scene, f *finding) {
	for z, e := range s.elements {
		if e.Kind != document.KindText || e.Text == nil {
			continue
		}
		price := rulebook.PricePattern.FindString(e.Text.Content)
		if price == "" {
			continue
		}
		v := elementViolation(e, z, CheckPriceOutsideTile, types.SeverityError, CategoryPricing)
		v.Problem = fmt.Sprintf("%s contains the price %q", e.DisplayName(), price)
		v.Explanation = "Prices may only appear inside value tiles."
		v.Suggestion = "Remove the price from the copy and add a value tile"
		f.add(v)
	}
}

func checkAlcohol(s *scene, f *finding) {
	if !s.doc.Alcohol {
		return
	}
	for z, e := range s.elements {
		if e.Kind != document.KindDrinkaware {
			continue
		}
		if size := e.EffectiveFontSize(); size < rulebook.MinAccessibleFontSize {
			v := elementViolation(e, z, CheckDrinkawareTooSmall, types.SeverityError, CategoryAlcohol)
			v.Problem = fmt.Sprintf("Drinkaware text is %.0fpx", size)
			v.Explanation = fmt.Sprintf("The Drinkaware lockup must be at least %.0fpx.", rulebook.MinAccessibleFontSize)
			v.Suggestion = fmt.Sprintf("Increase the font size to %.0fpx", rulebook.MinAccessibleFontSize)
			f.add(v)
		} else {
			f.strength("Drinkaware lockup present")
		}
		return
	}
	f.add(types.Violation{
		CheckID:     CheckMissingDrinkaware,
		Severity:    types.SeverityError,
		Category:    CategoryAlcohol,
		Problem:     "Alcohol creative without a Drinkaware lockup",
		Explanation: "Alcohol promotions must carry the Drinkaware lockup.",
		Suggestion:  "Add the Drinkaware lockup",
		ZIndex:      documentLevel,
	})
}

func checkTileUniqueness(s *scene, f *finding) {
	groups := s.doc.TileGroups()
	for _, kind := range types.AllTileKinds {
		ids := groups[kind]
		if len(ids) <= 1 {
			continue
		}
		for _, groupID := range ids[1:] {
			z, e := firstPart(s.elements, groupID)
			v := elementViolation(e, z, CheckDuplicateTile, types.SeverityError, CategoryValueTile)
			v.Problem = fmt.Sprintf("More than one %s value tile", kind)
			v.Explanation = "A creative may carry at most one value tile of each kind."
			v.Suggestion = "Remove the extra value tile"
			f.add(v)
		}
	}
}

func firstPart(els []*document.Element, groupID string) (int, *document.Element) {
	for z, e := range els {
		if e.Tile != nil && e.Tile.GroupID == groupID {
			return z, e
		}
	}
	return documentLevel, &document.Element{}
}

func checkClubcardTag(s *scene, f *finding) {
	if !s.doc.HasTile(types.TileClubcard) {
		return
	}
	for _, e := range s.elements {
		if e.IsTag() && rulebook.ClubcardTagPattern.MatchString(e.Text.Content) {
			f.strength("Clubcard tag present")
			return
		}
	}
	f.add(types.Violation{
		CheckID:     CheckMissingClubcardTag,
		Severity:    types.SeverityError,
		Category:    CategoryTag,
		Problem:     "Clubcard price without the Clubcard tag",
		Explanation: "Clubcard offers must state that a Clubcard or the app is required and when the offer ends.",
		Suggestion:  rulebook.ClubcardTagSuggestion,
		ZIndex:      documentLevel,
	})
}

func checkAccessibility(s *scene, f *finding) {
	for z, e := range s.elements {
		var checkID, what string
		switch {
		case e.IsTag():
			checkID, what = CheckTagTooSmall, "Tag"
		case e.Kind == document.KindDrinkaware && !s.doc.Alcohol:
			checkID, what = CheckDrinkawareFontSmall, "Drinkaware text"
		default:
			continue
		}
		size := e.EffectiveFontSize()
		if size >= rulebook.MinAccessibleFontSize {
			continue
		}
		v := elementViolation(e, z, checkID, types.SeverityWarning, CategoryAccessibility)
		v.Problem = fmt.Sprintf("%s is %.0fpx", what, size)
		v.Explanation = fmt.Sprintf("Text below %.0fpx is hard to read.", rulebook.MinAccessibleFontSize)
		v.Suggestion = fmt.Sprintf("Increase the font size to %.0fpx", rulebook.MinAccessibleFontSize)
		f.add(v)
	}
}

func checkProfile(s *scene, f *finding) {
	p := s.profile
	conforms := true
	if p.Background.Locked && !sameColor(s.doc.Background, p.Background.Value) {
		conforms = false
		f.add(types.Violation{
			CheckID:     CheckProfileBackground,
			Severity:    types.SeverityError,
			Category:    CategoryProfile,
			Problem:     fmt.Sprintf("Background is %s", s.doc.Background),
			Explanation: fmt.Sprintf("The %s profile locks the background to %s.", p.Name, p.Background.Value),
			Suggestion:  fmt.Sprintf("Set the background to %s", p.Background.Value),
			ZIndex:      documentLevel,
		})
	}
	for z, e := range s.elements {
		if e.Kind != document.KindText || e.Text == nil {
			continue
		}
		if p.TextColor.Locked && !sameColor(e.Paint.Fill, p.TextColor.Value) {
			conforms = false
			v := elementViolation(e, z, CheckProfileTextColor, types.SeverityError, CategoryProfile)
			v.Problem = fmt.Sprintf("%s is colored %s", e.DisplayName(), e.Paint.Fill)
			v.Explanation = fmt.Sprintf("The %s profile locks text color to %s.", p.Name, p.TextColor.Value)
			v.Suggestion = fmt.Sprintf("Set the text color to %s", p.TextColor.Value)
			f.add(v)
		}
		if p.TextAlign.Locked && e.Text.TextAlign != p.TextAlign.Value {
			conforms = false
			v := elementViolation(e, z, CheckProfileTextAlign, types.SeverityError, CategoryProfile)
			v.Problem = fmt.Sprintf("%s is aligned %s", e.DisplayName(), e.Text.TextAlign)
			v.Explanation = fmt.Sprintf("The %s profile locks text alignment to %s.", p.Name, p.TextAlign.Value)
			v.Suggestion = fmt.Sprintf("Align the text %s", p.TextAlign.Value)
			f.add(v)
		}
	}
	groups := s.doc.TileGroups()
	for _, kind := range types.AllTileKinds {
		if p.AllowsTile(kind) {
			continue
		}
		for _, groupID := range groups[kind] {
			conforms = false
			z, e := firstPart(s.elements, groupID)
			v := elementViolation(e, z, CheckProfileTileKind, types.SeverityError, CategoryProfile)
			v.Problem = fmt.Sprintf("%s value tiles are not allowed", kind)
			v.Explanation = fmt.Sprintf("The %s profile does not permit %s value tiles.", p.Name, kind)
			v.Suggestion = "Remove the value tile"
			f.add(v)
		}
	}
	if conforms && p.Name != "" {
		f.strength(fmt.Sprintf("Matches the %s profile", p.Name))
	}
}

func sameColor(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
