package cbc

// Severity ranks a validation finding. Ordering for sorting and aggregation is
// Critical < Error < Warning < Info.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityError    Severity = "error"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Rank returns the sort position of a severity. Unknown severities sort last.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityError:
		return 1
	case SeverityWarning:
		return 2
	case SeverityInfo:
		return 3
	}
	return 4
}

// Category groups findings by the concern that produced them.
type Category string

const (
	CategoryWellformedness Category = "xml-wellformedness"
	CategorySchema         Category = "schema-compliance"
	CategoryBusiness       Category = "business-rules"
	CategoryCountry        Category = "country-rules"
	CategoryDataQuality    Category = "data-quality"
	CategoryPillar2        Category = "pillar2-readiness"
)

// Categories lists all finding categories in their canonical order.
func Categories() []Category {
	return []Category{
		CategoryWellformedness,
		CategorySchema,
		CategoryBusiness,
		CategoryCountry,
		CategoryDataQuality,
		CategoryPillar2,
	}
}

// ValidationResult is a single finding surfaced by the pipeline. RuleID is
// stable across releases so downstream consumers can key on it.
type ValidationResult struct {
	RuleID     string         `json:"ruleId"`
	Category   Category       `json:"category"`
	Severity   Severity       `json:"severity"`
	Message    string         `json:"message"`
	XPath      string         `json:"xpath,omitempty"`
	Suggestion string         `json:"suggestion,omitempty"`
	Reference  string         `json:"reference,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
}
