// Package rules is the validation rule engine: a fixed, ordered registry of
// category-grouped checks over the raw text, the generic tree, and the typed
// model. Rules are data, not a hierarchy: adding or removing one is a change
// to the registry slice.
package rules

import (
	"fmt"

	"github.com/pkwroblewski/CBCR-TP-sub001/internal/cbc"
	"github.com/pkwroblewski/CBCR-TP-sub001/internal/xmlparse"
)

// Input bundles everything a rule may inspect. Rules treat it as read-only.
type Input struct {
	Raw        string
	Namespaces *xmlparse.Namespaces
	Root       *xmlparse.Node
	Message    *cbc.CbcMessage
}

// CheckFunc evaluates one rule and returns zero or more findings. Checks are
// pure functions of the input and must not retain references to it.
type CheckFunc func(in *Input) []cbc.ValidationResult

// Rule is one registry entry. Severity is the default applied to findings
// whose check did not set one.
type Rule struct {
	ID       string
	Category cbc.Category
	Severity cbc.Severity
	Check    CheckFunc
}

// Registry returns the full ordered rule set. Order is part of the engine's
// deterministic-output contract.
func Registry() []Rule {
	var rules []Rule
	rules = append(rules, wellformednessRules()...)
	rules = append(rules, schemaRules()...)
	rules = append(rules, businessRules()...)
	rules = append(rules, countryRules()...)
	rules = append(rules, dataQualityRules()...)
	rules = append(rules, pillar2Rules()...)
	return rules
}

// Engine runs the registry over one document. Stateless and safe for
// concurrent use across independent documents.
type Engine struct {
	rules []Rule
}

func NewEngine() *Engine {
	return &Engine{rules: Registry()}
}

// Evaluate runs every rule in registry order. A rule is never allowed to
// abort the pipeline: an internal panic degrades to a single data-quality
// warning about the rule itself.
func (e *Engine) Evaluate(in *Input) []cbc.ValidationResult {
	var findings []cbc.ValidationResult
	for _, r := range e.rules {
		findings = append(findings, runRule(r, in)...)
	}
	return findings
}

func runRule(r Rule, in *Input) (out []cbc.ValidationResult) {
	defer func() {
		if rec := recover(); rec != nil {
			out = []cbc.ValidationResult{{
				RuleID:   r.ID,
				Category: cbc.CategoryDataQuality,
				Severity: cbc.SeverityWarning,
				Message:  fmt.Sprintf("rule %s failed internally and was skipped: %v", r.ID, rec),
				Details:  map[string]any{"rule": r.ID},
			}}
		}
	}()

	results := r.Check(in)
	out = make([]cbc.ValidationResult, 0, len(results))
	for _, f := range results {
		if f.RuleID == "" {
			f.RuleID = r.ID
		}
		if f.Category == "" {
			f.Category = r.Category
		}
		if f.Severity == "" {
			f.Severity = r.Severity
		}
		out = append(out, f)
	}
	return out
}
