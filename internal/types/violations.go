//nolint:revive // types is a standard Go package name pattern
package types

// Severity of a compliance finding
type Severity string

// Severities
const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// ComplianceStatus summarizes a compliance report
type ComplianceStatus string

// Compliance statuses
const (
	StatusCompliant    ComplianceStatus = "compliant"
	StatusNeedsReview  ComplianceStatus = "needs_review"
	StatusNonCompliant ComplianceStatus = "non_compliant"
)

// Violation represents a single compliance finding. Violations are returned, never thrown.
type Violation struct {
	CheckID     string   `json:"check_id"`
	Severity    Severity `json:"severity"`
	Category    string   `json:"category"`
	ElementID   string   `json:"element_id,omitempty"`
	Element     string   `json:"element,omitempty"` // Display name of the element
	Problem     string   `json:"problem"`
	Explanation string   `json:"explanation,omitempty"`
	Suggestion  string   `json:"suggestion,omitempty"`
	Term        string   `json:"term,omitempty"` // Prohibited term that triggered the finding

	// ZIndex orders findings; document-level findings use -1
	ZIndex int `json:"z_index"`
}

// ComplianceReport is the result of running the compliance engine over a document
type ComplianceReport struct {
	Status    ComplianceStatus `json:"status"`
	Errors    []Violation      `json:"errors"`
	Warnings  []Violation      `json:"warnings"`
	Strengths []string         `json:"strengths"`
}

// HasErrors reports whether the report carries any error
func (r ComplianceReport) HasErrors() bool {
	return len(r.Errors) > 0
}

// Find returns the first finding (error or warning) with the given check id
func (r ComplianceReport) Find(checkID string) (Violation, bool) {
	for _, v := range r.Errors {
		if v.CheckID == checkID {
			return v, true
		}
	}
	for _, v := range r.Warnings {
		if v.CheckID == checkID {
			return v, true
		}
	}
	return Violation{}, false
}
