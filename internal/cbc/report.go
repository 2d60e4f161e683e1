package cbc

import (
	"sort"
	"time"
)

// FileInfo records metadata about the uploaded document.
type FileInfo struct {
	Name     string    `json:"name,omitempty"`
	Size     int64     `json:"size,omitempty"`
	Received time.Time `json:"received"`
}

// ParsedReport is the immutable outcome of one validation request. It is
// assembled once and handed to callers for storage or discard; it is never
// mutated in place afterwards.
type ParsedReport struct {
	ID       string             `json:"id"`
	File     FileInfo           `json:"file"`
	Message  *CbcMessage        `json:"message,omitempty"`
	Warnings []ValidationResult `json:"warnings,omitempty"`
	Report   ValidationReport   `json:"report"`
}

// ValidationReport aggregates findings into per-severity and per-category
// counts plus the overall decision.
type ValidationReport struct {
	Findings   []ValidationResult `json:"findings"`
	BySeverity map[Severity]int   `json:"bySeverity"`
	ByCategory map[Category]int   `json:"byCategory"`
	Total      int                `json:"total"`
	Passed     int                `json:"passed"`
	IsValid    bool               `json:"isValid"`
}

// Assemble builds a ValidationReport from accumulated findings. Findings are
// stably sorted by severity rank so output ordering is deterministic for
// byte-identical input. IsValid is defined as critical == 0: ERROR findings
// never flip the flag, only criticals do.
func Assemble(findings []ValidationResult) ValidationReport {
	sorted := make([]ValidationResult, len(findings))
	copy(sorted, findings)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Severity.Rank() < sorted[j].Severity.Rank()
	})

	bySev := make(map[Severity]int)
	byCat := make(map[Category]int)
	for _, f := range sorted {
		bySev[f.Severity]++
		byCat[f.Category]++
	}

	total := len(sorted)
	failing := bySev[SeverityCritical] + bySev[SeverityError]

	return ValidationReport{
		Findings:   sorted,
		BySeverity: bySev,
		ByCategory: byCat,
		Total:      total,
		Passed:     total - failing,
		IsValid:    bySev[SeverityCritical] == 0,
	}
}

// HasCritical reports whether any finding would abort the pipeline.
func HasCritical(findings []ValidationResult) bool {
	for _, f := range findings {
		if f.Severity == SeverityCritical {
			return true
		}
	}
	return false
}
