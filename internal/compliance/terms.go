package compliance

import (
	"regexp"
	"sort"
	"strings"

	"github.com/jonathan/creative-compliance/internal/rulebook"
)

// TermHit is one prohibited phrase found in a text
type TermHit struct {
	// Term is the matched text as written
	Term     string
	Category string
	Start    int
	End      int
	// Replacement is the suggested substitute; empty means remove
	Replacement    string
	HasReplacement bool
}

// Suggestion renders the remediation for the hit
func (h TermHit) Suggestion() string {
	if h.HasReplacement && h.Replacement != "" {
		return `Replace "` + h.Term + `" with "` + h.Replacement + `"`
	}
	return `Remove "` + h.Term + `"`
}

// FindProhibited returns every prohibited phrase in text, in reading order.
// Replacement-map phrases are matched first so "sugar free" is reported once
// with its replacement rather than as a bare "free".
func FindProhibited(text string) []TermHit {
	var hits []TermHit
	taken := func(start, end int) bool {
		for _, h := range hits {
			if start < h.End && h.Start < end {
				return true
			}
		}
		return false
	}
	categories := make(map[string]string)
	for _, t := range rulebook.ProhibitedTerms() {
		categories[t.Term] = t.Category
	}

	for _, r := range rulebook.Replacements() {
		for _, loc := range r.Pattern.FindAllStringIndex(text, -1) {
			if taken(loc[0], loc[1]) {
				continue
			}
			category := categories[r.Phrase]
			if category == "" {
				category = rulebook.CategoryPromotional
			}
			hits = append(hits, TermHit{
				Term: text[loc[0]:loc[1]], Category: category,
				Start: loc[0], End: loc[1],
				Replacement: r.With, HasReplacement: true,
			})
		}
	}
	for _, t := range rulebook.ProhibitedTerms() {
		for _, loc := range t.Pattern.FindAllStringIndex(text, -1) {
			if taken(loc[0], loc[1]) {
				continue
			}
			hits = append(hits, TermHit{Term: text[loc[0]:loc[1]], Category: t.Category, Start: loc[0], End: loc[1]})
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Start < hits[j].Start })
	return hits
}

var (
	horizontalSpace  = regexp.MustCompile(`[ \t]+`)
	spaceBeforePunct = regexp.MustCompile(`[ \t]+([!?.,;:])`)
)

// Sanitize rewrites text so it carries no prohibited terminology: the replacement
// map is applied, remaining terms are stripped and whitespace is collapsed.
// Sanitize(Sanitize(t)) == Sanitize(t).
func Sanitize(text string) string {
	out := text
	// Stripping can join fragments into a new match, so run to a fixpoint.
	for i := 0; i < 8; i++ {
		next := sanitizeOnce(out)
		if next == out {
			break
		}
		out = next
	}
	return out
}

// ApplyReplacements rewrites phrases that have a compliant form and collapses
// whitespace. Prohibited terms without a replacement are left in place.
func ApplyReplacements(text string) string {
	return collapseWhitespace(applyReplacements(text))
}

func applyReplacements(text string) string {
	for _, r := range rulebook.Replacements() {
		text = r.Pattern.ReplaceAllLiteralString(text, r.With)
	}
	return text
}

func sanitizeOnce(text string) string {
	text = applyReplacements(text)
	for _, t := range rulebook.ProhibitedTerms() {
		text = t.Pattern.ReplaceAllLiteralString(text, "")
	}
	return collapseWhitespace(text)
}

func collapseWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = horizontalSpace.ReplaceAllString(line, " ")
		line = spaceBeforePunct.ReplaceAllString(line, "$1")
		line = strings.TrimSpace(line)
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// IsClean reports whether text carries no prohibited terminology
func IsClean(text string) bool {
	return len(FindProhibited(text)) == 0
}
