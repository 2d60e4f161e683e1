package rules

import (
	"fmt"
	"math"

	"github.com/pkwroblewski/CBCR-TP-sub001/internal/cbc"
)

const (
	// taxDeltaRatio flags a paid-vs-accrued divergence above half of the
	// larger figure, once both are material.
	taxDeltaRatio   = 0.5
	taxDeltaMinAbs  = 100_000.0
	profitTaxMinAbs = 1_000_000.0
)

func dataQualityRules() []Rule {
	return []Rule{
		{
			ID:       "DQ-201",
			Category: cbc.CategoryDataQuality,
			Severity: cbc.SeverityWarning,
			Check:    checkRevenueVsHeadcount,
		},
		{
			ID:       "DQ-202",
			Category: cbc.CategoryDataQuality,
			Severity: cbc.SeverityWarning,
			Check:    checkTaxPaidAccruedDelta,
		},
		{
			ID:       "DQ-203",
			Category: cbc.CategoryDataQuality,
			Severity: cbc.SeverityWarning,
			Check:    checkNegativeHeadcount,
		},
		{
			ID:       "DQ-204",
			Category: cbc.CategoryDataQuality,
			Severity: cbc.SeverityWarning,
			Check:    checkProfitWithoutTax,
		},
	}
}

func checkRevenueVsHeadcount(in *Input) []cbc.ValidationResult {
	var out []cbc.ValidationResult
	for i, r := range reports(in) {
		if r.Summary.TotalRevenue.Value == 0 && r.Summary.NbEmployees > 0 {
			out = append(out, cbc.ValidationResult{
				Message: fmt.Sprintf("jurisdiction reports zero total revenue with %d employees", r.Summary.NbEmployees),
				XPath:   reportPath(i) + ".Summary",
				Details: map[string]any{"nbEmployees": r.Summary.NbEmployees},
			})
		}
	}
	return out
}

func checkTaxPaidAccruedDelta(in *Input) []cbc.ValidationResult {
	var out []cbc.ValidationResult
	for i, r := range reports(in) {
		paid, accrued := r.Summary.TaxPaid.Value, r.Summary.TaxAccrued.Value
		delta := math.Abs(paid - accrued)
		larger := math.Max(math.Abs(paid), math.Abs(accrued))
		if larger == 0 || delta < taxDeltaMinAbs {
			continue
		}
		if delta/larger > taxDeltaRatio {
			out = append(out, cbc.ValidationResult{
				Message: fmt.Sprintf("tax paid %.2f and tax accrued %.2f diverge by more than %.0f%%",
					paid, accrued, taxDeltaRatio*100),
				XPath:   reportPath(i) + ".Summary",
				Details: map[string]any{"taxPaid": paid, "taxAccrued": accrued},
			})
		}
	}
	return out
}

func checkNegativeHeadcount(in *Input) []cbc.ValidationResult {
	var out []cbc.ValidationResult
	for i, r := range reports(in) {
		if r.Summary.NbEmployees < 0 {
			out = append(out, cbc.ValidationResult{
				Message: fmt.Sprintf("employee count %d is negative", r.Summary.NbEmployees),
				XPath:   reportPath(i) + ".Summary.NbEmployees",
			})
		}
	}
	return out
}

func checkProfitWithoutTax(in *Input) []cbc.ValidationResult {
	var out []cbc.ValidationResult
	for i, r := range reports(in) {
		s := r.Summary
		if s.ProfitOrLoss.Value > profitTaxMinAbs && s.TaxPaid.Value == 0 && s.TaxAccrued.Value == 0 {
			out = append(out, cbc.ValidationResult{
				Message: fmt.Sprintf("profit of %.2f reported with no tax paid or accrued", s.ProfitOrLoss.Value),
				XPath:   reportPath(i) + ".Summary",
				Details: map[string]any{"profitOrLoss": s.ProfitOrLoss.Value},
			})
		}
	}
	return out
}
