// Package schemas provides JSON Schema validation for serialized documents and AI responses.
package schemas

import (
	"embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed json/*.schema.json
var schemaFS embed.FS

// Name identifies an embedded schema
type Name string

// Embedded schemas
const (
	Document        Name = "document"
	Variants        Name = "variants"
	ProductAnalysis Name = "product_analysis"
	PeopleDetection Name = "people_detection"
	CopySuggestions Name = "copy_suggestions"
)

// Names lists the embedded schemas in a stable order
func Names() []Name {
	entries, err := schemaFS.ReadDir("json")
	if err != nil {
		return nil
	}
	out := make([]Name, 0, len(entries))
	for _, e := range entries {
		out = append(out, Name(strings.TrimSuffix(e.Name(), ".schema.json")))
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Source returns the text of an embedded schema
func Source(name Name) (string, error) {
	data, err := schemaFS.ReadFile("json/" + string(name) + ".schema.json")
	if err != nil {
		return "", &SchemaLoadError{Path: string(name), Message: "unknown schema", Cause: err}
	}
	return string(data), nil
}

// ValidationError represents a schema validation error with field paths
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
}

// SchemaLoadError represents errors loading or parsing the schema itself
type SchemaLoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.Path, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:\n")
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// Validate checks JSON content against an embedded schema
func Validate(name Name, jsonContent []byte) error {
	schema, err := Source(name)
	if err != nil {
		return err
	}
	return validate(string(name), gojsonschema.NewStringLoader(schema), gojsonschema.NewBytesLoader(jsonContent))
}

// ValidateFile checks a JSON file against an embedded schema
func ValidateFile(name Name, jsonPath string) error {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("JSON file not found: %s: %w", jsonPath, err)
	}
	return Validate(name, data)
}

// ValidateJSONString validates JSON string content against schema string content
func ValidateJSONString(schemaContent, jsonContent string) error {
	return validate("(string schema)", gojsonschema.NewStringLoader(schemaContent), gojsonschema.NewStringLoader(jsonContent))
}

func validate(path string, schemaLoader, documentLoader gojsonschema.JSONLoader) error {
	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return &SchemaLoadError{
			Path:    path,
			Message: "schema validation failed during load",
			Cause:   err,
		}
	}

	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Errors: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}
	return validationErr
}
