package rules

import (
	"fmt"

	"github.com/pkwroblewski/CBCR-TP-sub001/internal/cbc"
)

// Transitional CbCR safe-harbour thresholds from the GloBE framework. The
// currency of the filed figures is assumed comparable to EUR for these
// advisory heuristics; findings are informational only.
const (
	deMinimisRevenue = 10_000_000.0
	deMinimisProfit  = 1_000_000.0
	transitionalETR  = 0.15
	routineProfitPct = 0.05
)

const pillar2Reference = "OECD Pillar Two transitional CbCR safe harbour"

func pillar2Rules() []Rule {
	return []Rule{
		{
			ID:       "P2-001",
			Category: cbc.CategoryPillar2,
			Severity: cbc.SeverityInfo,
			Check:    checkDeMinimis,
		},
		{
			ID:       "P2-002",
			Category: cbc.CategoryPillar2,
			Severity: cbc.SeverityInfo,
			Check:    checkSimplifiedETR,
		},
		{
			ID:       "P2-003",
			Category: cbc.CategoryPillar2,
			Severity: cbc.SeverityInfo,
			Check:    checkRoutineProfits,
		},
	}
}

func checkDeMinimis(in *Input) []cbc.ValidationResult {
	var out []cbc.ValidationResult
	for i, r := range reports(in) {
		s := r.Summary
		if s.TotalRevenue.Value < deMinimisRevenue && s.ProfitOrLoss.Value < deMinimisProfit {
			out = append(out, cbc.ValidationResult{
				Message: fmt.Sprintf("jurisdiction %s may qualify for the de-minimis safe harbour (revenue %.0f, profit %.0f)",
					r.ResCountryCode, s.TotalRevenue.Value, s.ProfitOrLoss.Value),
				XPath:     reportPath(i) + ".Summary",
				Reference: pillar2Reference,
			})
		}
	}
	return out
}

func checkSimplifiedETR(in *Input) []cbc.ValidationResult {
	var out []cbc.ValidationResult
	for i, r := range reports(in) {
		s := r.Summary
		if s.ProfitOrLoss.Value <= 0 {
			continue
		}
		etr := s.TaxAccrued.Value / s.ProfitOrLoss.Value
		if etr >= transitionalETR {
			out = append(out, cbc.ValidationResult{
				Message: fmt.Sprintf("jurisdiction %s meets the simplified ETR test (%.1f%% against the %.0f%% transitional rate)",
					r.ResCountryCode, etr*100, transitionalETR*100),
				XPath:     reportPath(i) + ".Summary",
				Reference: pillar2Reference,
				Details:   map[string]any{"etr": etr},
			})
		}
	}
	return out
}

// checkRoutineProfits approximates the substance-based income exclusion with
// the tangible-assets carve-out; payroll data is not in Table 1.
func checkRoutineProfits(in *Input) []cbc.ValidationResult {
	var out []cbc.ValidationResult
	for i, r := range reports(in) {
		s := r.Summary
		if s.Assets.Value <= 0 || s.ProfitOrLoss.Value <= 0 {
			continue
		}
		if s.ProfitOrLoss.Value <= s.Assets.Value*routineProfitPct {
			out = append(out, cbc.ValidationResult{
				Message: fmt.Sprintf("jurisdiction %s profit is within the routine-profits carve-out proxy (%.0f%% of tangible assets)",
					r.ResCountryCode, routineProfitPct*100),
				XPath:     reportPath(i) + ".Summary",
				Reference: pillar2Reference,
			})
		}
	}
	return out
}
