package rulebook

import (
	"regexp"
	"strings"
	"unicode"
)

// Term categories
const (
	CategoryPromotional    = "promotional"
	CategoryGuarantee      = "guarantee"
	CategorySustainability = "sustainability"
	CategoryClaims         = "claims"
	CategoryLegal          = "legal"
	CategoryResearch       = "research"
	CategoryCharity        = "charity"
)

// ProhibitedTerm is a single entry of the prohibited terminology list
type ProhibitedTerm struct {
	Term     string
	Category string
	Pattern  *regexp.Regexp
}

// Replacement rewrites a phrase during sanitization
type Replacement struct {
	Phrase  string
	With    string
	Pattern *regexp.Regexp
}

var prohibitedTerms = []ProhibitedTerm{
	term("free", CategoryPromotional),
	term("win", CategoryPromotional),
	term("winner", CategoryPromotional),
	term("prize", CategoryPromotional),
	term("competition", CategoryPromotional),
	term("giveaway", CategoryPromotional),
	term("raffle", CategoryPromotional),
	term("lottery", CategoryPromotional),
	term("money back", CategoryGuarantee),
	term("guarantee", CategoryGuarantee),
	term("guaranteed", CategoryGuarantee),
	term("sustainable", CategorySustainability),
	term("eco-friendly", CategorySustainability),
	term("green", CategorySustainability),
	term("carbon neutral", CategorySustainability),
	term("organic", CategorySustainability),
	term("recyclable", CategorySustainability),
	term("biodegradable", CategorySustainability),
	term("best ever", CategoryClaims),
	term("#1", CategoryClaims),
	term("number one", CategoryClaims),
	term("award winning", CategoryClaims),
	term("clinically proven", CategoryClaims),
	term("terms and conditions", CategoryLegal),
	term("t&c", CategoryLegal),
	term("survey", CategoryResearch),
	term("research shows", CategoryResearch),
	term("charity", CategoryCharity),
	term("donate", CategoryCharity),
}

// Order matters: compound "free" phrases are rewritten before bare "free" is dropped.
var replacements = []Replacement{
	replacement("sugar free", "Zero Sugar"),
	replacement("fat free", "Low Fat"),
	replacement("guilt free", "Light"),
	replacement("free range", "Farm Fresh"),
	replacement("free", ""),
}

// ProhibitedTerms returns the prohibited terminology list
func ProhibitedTerms() []ProhibitedTerm {
	out := make([]ProhibitedTerm, len(prohibitedTerms))
	copy(out, prohibitedTerms)
	return out
}

// Replacements returns the ordered replacement map applied during sanitization
func Replacements() []Replacement {
	out := make([]Replacement, len(replacements))
	copy(out, replacements)
	return out
}

// ReplacementFor returns the replacement text for a phrase, if one is defined
func ReplacementFor(phrase string) (string, bool) {
	normalized := strings.Join(strings.FieldsFunc(strings.ToLower(phrase), func(r rune) bool {
		return r == '-' || unicode.IsSpace(r)
	}), " ")
	for _, r := range replacements {
		if r.Phrase == normalized {
			return r.With, true
		}
	}
	return "", false
}

func term(t, category string) ProhibitedTerm {
	return ProhibitedTerm{Term: t, Category: category, Pattern: phrasePattern(t)}
}

func replacement(phrase, with string) Replacement {
	return Replacement{Phrase: phrase, With: with, Pattern: phrasePattern(phrase)}
}

// phrasePattern builds a case-insensitive pattern that matches whole words where the
// phrase starts or ends with a word character, and tolerates hyphens or runs of
// whitespace between words.
func phrasePattern(phrase string) *regexp.Regexp {
	words := regexp.MustCompile(`\s+`).Split(phrase, -1)
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	body := quoted[0]
	for _, w := range quoted[1:] {
		body += `[\s-]+` + w
	}
	prefix, suffix := "", ""
	if isWordByte(phrase[0]) {
		prefix = `\b`
	}
	if isWordByte(phrase[len(phrase)-1]) {
		suffix = `\b`
	}
	return regexp.MustCompile(`(?i)` + prefix + body + suffix)
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= '0' && b <= '9') || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
