//nolint:revive // types is a standard Go package name pattern
package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViolation_JSONFieldNames(t *testing.T) {
	v := Violation{
		CheckID:    "prohibited-claim",
		Severity:   SeverityError,
		Category:   "copy",
		ElementID:  "el-1",
		Element:    "Headline",
		Problem:    "Headline makes a competition claim",
		Suggestion: "Remove the claim",
		Term:       "prize",
		ZIndex:     3,
	}

	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	require.NoError(t, err)
	assert.Contains(t, string(jsonBytes), `"check_id": "prohibited-claim"`)
	assert.Contains(t, string(jsonBytes), `"severity": "error"`)
	assert.Contains(t, string(jsonBytes), `"element_id": "el-1"`)
	assert.Contains(t, string(jsonBytes), `"term": "prize"`)
	assert.Contains(t, string(jsonBytes), `"z_index": 3`)
}

func TestViolation_OptionalFieldsOmitted(t *testing.T) {
	v := Violation{CheckID: "missing-logo", Severity: SeverityWarning, Problem: "No logo", ZIndex: -1}

	jsonBytes, err := json.Marshal(v)
	require.NoError(t, err)
	for _, field := range []string{"element_id", "element", "explanation", "suggestion", "term"} {
		assert.NotContains(t, string(jsonBytes), `"`+field+`"`)
	}
	assert.Contains(t, string(jsonBytes), `"z_index":-1`)
}

func TestComplianceReport_HasErrors(t *testing.T) {
	assert.False(t, ComplianceReport{Status: StatusNeedsReview, Warnings: []Violation{{CheckID: "x"}}}.HasErrors())
	assert.True(t, ComplianceReport{Status: StatusNonCompliant, Errors: []Violation{{CheckID: "x"}}}.HasErrors())
}
