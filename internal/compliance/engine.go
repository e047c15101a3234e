// Package compliance checks creative documents against the retail media rulebook.
// Checks are pure: the same document, profile and format always yield the same report.
package compliance

import (
	"sort"

	"github.com/jonathan/creative-compliance/internal/document"
	"github.com/jonathan/creative-compliance/internal/types"
)

// Check ids
const (
	CheckMissingLeadPackshot = "missing-lead-packshot"
	CheckMissingHeadline     = "missing-headline"
	CheckMissingSubheadline  = "missing-subheadline"
	CheckProhibitedTerm      = "prohibited-term"
	CheckSafeZoneIntrusion   = "safe-zone-intrusion"
	CheckPriceOutsideTile    = "price-outside-tile"
	CheckMissingDrinkaware   = "missing-drinkaware"
	CheckDrinkawareTooSmall  = "drinkaware-too-small"
	CheckDuplicateTile       = "duplicate-tile"
	CheckMissingClubcardTag  = "missing-clubcard-tag"
	CheckTagTooSmall         = "tag-too-small"
	CheckDrinkawareFontSmall = "drinkaware-font-small"
	CheckProfileBackground   = "profile-background"
	CheckProfileTextColor    = "profile-text-color"
	CheckProfileTextAlign    = "profile-text-align"
	CheckProfileTileKind     = "profile-tile-kind"
)

// Violation categories
const (
	CategoryRequired      = "required_content"
	CategoryPlacement     = "placement"
	CategoryPricing       = "pricing"
	CategoryAlcohol       = "alcohol"
	CategoryValueTile     = "value_tile"
	CategoryTag           = "tag"
	CategoryAccessibility = "accessibility"
	CategoryProfile       = "profile"
)

// documentLevel is the z-index of findings that are not tied to one element
const documentLevel = -1

// scene is the read-only view a check works on
type scene struct {
	doc      *document.Document
	elements []*document.Element
	profile  types.Profile
	format   types.Format
}

type finding struct {
	violations []types.Violation
	strengths  []string
}

func (f *finding) add(v types.Violation) {
	f.violations = append(f.violations, v)
}

func (f *finding) strength(s string) {
	f.strengths = append(f.strengths, s)
}

type check func(s *scene, f *finding)

// checks run in a fixed order so strengths are stable
var checks = []check{
	checkRequiredContent,
	checkTerminology,
	checkSafeZones,
	checkPricing,
	checkAlcohol,
	checkTileUniqueness,
	checkClubcardTag,
	checkAccessibility,
	checkProfile,
}

// Check runs every compliance check and returns the report
func Check(doc *document.Document, profile types.Profile, format types.Format) types.ComplianceReport {
	s := &scene{doc: doc, elements: doc.Elements(), profile: profile, format: format}
	f := &finding{}
	for _, c := range checks {
		c(s, f)
	}
	return buildReport(f)
}

func buildReport(f *finding) types.ComplianceReport {
	report := types.ComplianceReport{
		Errors:    []types.Violation{},
		Warnings:  []types.Violation{},
		Strengths: f.strengths,
	}
	if report.Strengths == nil {
		report.Strengths = []string{}
	}
	for _, v := range f.violations {
		if v.Severity == types.SeverityError {
			report.Errors = append(report.Errors, v)
		} else {
			report.Warnings = append(report.Warnings, v)
		}
	}
	sortViolations(report.Errors)
	sortViolations(report.Warnings)

	switch {
	case len(report.Errors) > 0:
		report.Status = types.StatusNonCompliant
	case len(report.Warnings) > 0:
		report.Status = types.StatusNeedsReview
	default:
		report.Status = types.StatusCompliant
	}
	return report
}

func sortViolations(vs []types.Violation) {
	sort.SliceStable(vs, func(i, j int) bool {
		if vs[i].ZIndex != vs[j].ZIndex {
			return vs[i].ZIndex < vs[j].ZIndex
		}
		return vs[i].CheckID < vs[j].CheckID
	})
}

func elementViolation(e *document.Element, z int, checkID string, severity types.Severity, category string) types.Violation {
	return types.Violation{
		CheckID:   checkID,
		Severity:  severity,
		Category:  category,
		ElementID: e.ID,
		Element:   e.DisplayName(),
		ZIndex:    z,
	}
}
