// Package ai implements the creative assistant operations on top of an llm.Client.
// Every model response is sanitized and validated, and every operation has a
// deterministic compliant fallback.
package ai

import (
	"strings"

	"github.com/jonathan/creative-compliance/internal/types"
)

// Category is a retail product category
type Category string

// Product categories
const (
	CategoryFoodDrink    Category = "Food&Drink"
	CategoryAlcohol      Category = "Alcohol"
	CategoryHealthBeauty Category = "Health&Beauty"
	CategoryHousehold    Category = "Household"
	CategoryBaby         Category = "Baby"
	CategoryPet          Category = "Pet"
	CategoryBakery       Category = "Bakery"
	CategoryFrozen       Category = "Frozen"
	CategoryFresh        Category = "Fresh"
)

// Categories lists every category
var Categories = []Category{
	CategoryFoodDrink, CategoryAlcohol, CategoryHealthBeauty, CategoryHousehold,
	CategoryBaby, CategoryPet, CategoryBakery, CategoryFrozen, CategoryFresh,
}

// NormalizeCategory maps free-form model output onto a Category.
// Spacing, case and "and" for "&" are ignored. Unknown values map to Food&Drink.
func NormalizeCategory(s string) Category {
	key := categoryKey(s)
	for _, c := range Categories {
		if categoryKey(string(c)) == key {
			return c
		}
	}
	return CategoryFoodDrink
}

func categoryKey(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " and ", "&")
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' || r == '_' {
			return -1
		}
		return r
	}, s)
}

// Tones of the generated variants, in order
var Tones = []string{"bold", "friendly", "premium", "value", "seasonal"}

// VariantCount is the number of variants a creative generation returns
const VariantCount = 5

// ProductAnalysis describes a product identified in a packshot
type ProductAnalysis struct {
	ProductName         string   `json:"productName" validate:"required"`
	Brand               string   `json:"brand"`
	Category            Category `json:"category" validate:"required"`
	IsAlcohol           bool     `json:"isAlcohol"`
	PackagingColors     []string `json:"packagingColors" validate:"max=5,dive,hexcolor"`
	DominantColor       string   `json:"dominantColor" validate:"omitempty,hexcolor"`
	SuggestedBackground string   `json:"suggestedBackground" validate:"omitempty,hexcolor"`
	SuggestedAccent     string   `json:"suggestedAccent" validate:"omitempty,hexcolor"`
	SuggestedTextColor  string   `json:"suggestedTextColor" validate:"omitempty,hexcolor"`
	Confidence          float64  `json:"confidence" validate:"gte=0,lte=1"`
	Fallback            bool     `json:"fallback,omitempty"`
}

// PeopleDetection reports whether an image shows people
type PeopleDetection struct {
	ContainsPeople bool    `json:"containsPeople"`
	Confidence     float64 `json:"confidence" validate:"gte=0,lte=1"`
	Description    string  `json:"description"`
	Fallback       bool    `json:"fallback,omitempty"`
}

// Image is a photo passed to a vision operation
type Image struct {
	MIMEType string
	Data     []byte
}

// CreativeRequest asks for a set of creative variants for one product photo
type CreativeRequest struct {
	Image      Image
	UserPrompt string
	Mood       string
}

// CreativeResult is the output of GenerateAutonomousCreative
type CreativeResult struct {
	Product          ProductAnalysis `json:"product"`
	Backgrounds      []string        `json:"backgrounds"`
	Variants         []types.Variant `json:"variants"`
	IsAlcohol        bool            `json:"isAlcohol"`
	GenerationTimeMs int64           `json:"generationTimeMs"`
	Fallback         bool            `json:"fallback,omitempty"`
}

// CopyRequest asks for headline suggestions
type CopyRequest struct {
	ProductName string `json:"productName" validate:"required"`
	Tone        string `json:"tone"`
	Format      string `json:"format"`
}

// CopySuggestion is one headline alternative
type CopySuggestion struct {
	Headline    string `json:"headline" validate:"required"`
	Subheadline string `json:"subheadline"`
	Tone        string `json:"tone"`
}

// CopyResult holds exactly three suggestions
type CopyResult struct {
	Suggestions []CopySuggestion `json:"suggestions"`
	Fallback    bool             `json:"fallback,omitempty"`
}

// CampaignRequest describes a campaign to plan
type CampaignRequest struct {
	ProductName  string          `json:"productName" validate:"required"`
	Category     string          `json:"category"`
	Objective    string          `json:"objective"`
	Audience     string          `json:"audience"`
	Formats      []string        `json:"formats"`
	PriceType    types.PriceType `json:"priceType"`
	VariantCount int             `json:"variantCount"`
}

// Campaign summarizes a planned campaign
type Campaign struct {
	Name       string `json:"name"`
	Objective  string `json:"objective"`
	Audience   string `json:"audience"`
	KeyMessage string `json:"keyMessage"`
}

// CampaignResult is the output of GenerateCompleteCampaign
type CampaignResult struct {
	Campaign Campaign        `json:"campaign"`
	Variants []types.Variant `json:"variants"`
	Fallback bool            `json:"fallback,omitempty"`
}
