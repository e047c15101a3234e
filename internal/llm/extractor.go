// Package llm - extractor.go builds structured-output prompts for the creative operations.
package llm

import (
	"fmt"
	"strings"
)

// ExtractionSchema defines the JSON structure a model response must follow.
type ExtractionSchema struct {
	Name        string        // Schema name (e.g., "ProductAnalysis")
	Description string        // Task preamble placed before the output structure
	Fields      []SchemaField // Expected output fields
}

// SchemaField defines a single field in the extraction output.
type SchemaField struct {
	Name        string // JSON field name
	Type        string // Type hint: "string", "number", "boolean", "[]string", "object"
	Description string // Description for the model
	Required    bool   // Whether this field is required
}

// WithDescription returns a copy of the schema with a different task preamble.
func (s ExtractionSchema) WithDescription(description string) ExtractionSchema {
	s.Description = description
	s.Fields = append([]SchemaField(nil), s.Fields...)
	return s
}

// BuildExtractionPrompt constructs the prompt from schema and optional input text.
// Vision requests pass an empty input; the image follows the prompt.
func BuildExtractionPrompt(schema ExtractionSchema, inputText string) string {
	var sb strings.Builder

	sb.WriteString(schema.Description)
	sb.WriteString("\n\n")

	sb.WriteString("Return ONLY valid JSON matching this exact structure:\n{\n")
	for i, field := range schema.Fields {
		typeHint := field.Type
		if typeHint == "" {
			typeHint = "string"
		}
		requiredHint := ""
		if field.Required {
			requiredHint = " (required)"
		}
		sb.WriteString(fmt.Sprintf("  \"%s\": %s%s", field.Name, typeHint, requiredHint))
		if field.Description != "" {
			sb.WriteString(fmt.Sprintf(" // %s", field.Description))
		}
		if i < len(schema.Fields)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("}\n\n")

	sb.WriteString("IMPORTANT:\n")
	sb.WriteString("- Return ONLY the JSON object, no markdown, no explanation, no code blocks.\n")
	sb.WriteString("- Never use claims, guarantees, competition or charity wording, or sustainability claims in copy.\n")

	if strings.TrimSpace(inputText) != "" {
		sb.WriteString("\nInput:\n\"\"\"\n")
		sb.WriteString(inputText)
		sb.WriteString("\n\"\"\"\n")
	}

	return sb.String()
}

// --- Predefined Schemas ---

// ProductAnalysisSchema describes the result of analyzing a product photo.
func ProductAnalysisSchema() ExtractionSchema {
	return ExtractionSchema{
		Name:        "ProductAnalysis",
		Description: "You are a retail product analyst. Identify the product in the attached packshot.",
		Fields: []SchemaField{
			{Name: "productName", Type: "string", Required: true},
			{Name: "brand", Type: "string"},
			{Name: "category", Type: "string", Description: "one of Food&Drink, Alcohol, Health&Beauty, Household, Baby, Pet, Bakery, Frozen, Fresh", Required: true},
			{Name: "isAlcohol", Type: "boolean", Required: true},
			{Name: "packagingColors", Type: "[]string", Description: "up to 5 hex colors"},
			{Name: "dominantColor", Type: "string", Description: "hex color"},
			{Name: "suggestedBackground", Type: "string", Description: "hex color"},
			{Name: "suggestedAccent", Type: "string", Description: "hex color"},
			{Name: "suggestedTextColor", Type: "string", Description: "hex color"},
			{Name: "confidence", Type: "number", Description: "0 to 1"},
		},
	}
}

// PeopleDetectionSchema describes whether a photo shows people.
func PeopleDetectionSchema() ExtractionSchema {
	return ExtractionSchema{
		Name:        "PeopleDetection",
		Description: "Decide whether the attached image shows any people or recognisable body parts.",
		Fields: []SchemaField{
			{Name: "containsPeople", Type: "boolean", Required: true},
			{Name: "confidence", Type: "number", Description: "0 to 1", Required: true},
			{Name: "description", Type: "string"},
		},
	}
}

// CopySuggestionsSchema describes three alternative headlines.
func CopySuggestionsSchema() ExtractionSchema {
	return ExtractionSchema{
		Name:        "CopySuggestions",
		Description: "Write short retail headlines.",
		Fields: []SchemaField{
			{Name: "suggestions", Type: "[]object", Description: `exactly 3 items, each {"headline","subheadline","tone"}; headlines at most 6 words`, Required: true},
		},
	}
}

// CreativeVariantsSchema describes a set of creative variants for one product.
func CreativeVariantsSchema() ExtractionSchema {
	return ExtractionSchema{
		Name:        "CreativeVariants",
		Description: "Design retail media creative variants for the attached product.",
		Fields: []SchemaField{
			{Name: "backgrounds", Type: "[]string", Description: "hex colors that suit the product"},
			{Name: "variants", Type: "[]object", Description: `each {"tone","headline","subheadline","tag","priceType":"new|white|clubcard","backgroundColor","textColor","accentColor","layout":{"packshot":{"x","y"},"headline":{"x","y"},"subheadline":{"x","y"},"valueTile":{"x","y"},"tag":{"x","y"}}} with coordinates between 0 and 1`, Required: true},
		},
	}
}

// CampaignSchema describes a named campaign and its variants.
func CampaignSchema() ExtractionSchema {
	s := CreativeVariantsSchema()
	s.Name = "Campaign"
	s.Description = "Plan a retail media campaign."
	s.Fields = append([]SchemaField{
		{Name: "campaign", Type: "object", Description: `{"name","objective","audience","keyMessage"}`, Required: true},
	}, s.Fields...)
	return s
}
