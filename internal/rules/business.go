package rules

import (
	"fmt"
	"math"

	"github.com/pkwroblewski/CBCR-TP-sub001/internal/cbc"
)

// revenueTolerance absorbs rounding in filed aggregates before the
// total-vs-components check fires.
const revenueTolerance = 1.0

func businessRules() []Rule {
	return []Rule{
		{
			ID:       "BIZ-001",
			Category: cbc.CategoryBusiness,
			Severity: cbc.SeverityError,
			Check:    checkRevenueTotals,
		},
		{
			ID:       "BIZ-002",
			Category: cbc.CategoryBusiness,
			Severity: cbc.SeverityError,
			Check:    checkDuplicateJurisdictions,
		},
		{
			ID:       "BIZ-003",
			Category: cbc.CategoryBusiness,
			Severity: cbc.SeverityWarning,
			Check:    checkReportsHaveEntities,
		},
		{
			ID:       "BIZ-004",
			Category: cbc.CategoryBusiness,
			Severity: cbc.SeverityWarning,
			Check:    checkReportingPeriodAlignment,
		},
	}
}

// checkRevenueTotals verifies total revenue equals related plus unrelated
// per jurisdiction, within tolerance.
func checkRevenueTotals(in *Input) []cbc.ValidationResult {
	var out []cbc.ValidationResult
	for i, r := range reports(in) {
		sum := r.Summary.UnrelatedRevenue.Value + r.Summary.RelatedRevenue.Value
		total := r.Summary.TotalRevenue.Value
		if total == 0 && sum == 0 {
			continue
		}
		if math.Abs(total-sum) > revenueTolerance {
			out = append(out, cbc.ValidationResult{
				Message: fmt.Sprintf("total revenue %.2f does not equal unrelated %.2f + related %.2f",
					total, r.Summary.UnrelatedRevenue.Value, r.Summary.RelatedRevenue.Value),
				XPath:     reportPath(i) + ".Summary.Revenues",
				Reference: "OECD BEPS Action 13, Table 1 consistency",
				Details: map[string]any{
					"total":     total,
					"unrelated": r.Summary.UnrelatedRevenue.Value,
					"related":   r.Summary.RelatedRevenue.Value,
				},
			})
		}
	}
	return out
}

// checkDuplicateJurisdictions rejects two reports for the same tax
// jurisdiction in one message.
func checkDuplicateJurisdictions(in *Input) []cbc.ValidationResult {
	seen := make(map[string]int)
	var out []cbc.ValidationResult
	for i, r := range reports(in) {
		code := r.ResCountryCode
		if code == "" {
			continue
		}
		if first, dup := seen[code]; dup {
			out = append(out, cbc.ValidationResult{
				Message: fmt.Sprintf("jurisdiction %s is reported twice (first at %s)", code, reportPath(first)),
				XPath:   reportPath(i) + ".ResCountryCode",
				Details: map[string]any{"resCountryCode": code},
			})
			continue
		}
		seen[code] = i
	}
	return out
}

// checkReportsHaveEntities flags jurisdiction aggregates with no constituent
// entity behind them.
func checkReportsHaveEntities(in *Input) []cbc.ValidationResult {
	var out []cbc.ValidationResult
	for i, r := range reports(in) {
		if len(r.ConstEntities) > 0 {
			continue
		}
		if r.Summary.TotalRevenue.Value != 0 || r.Summary.ProfitOrLoss.Value != 0 {
			out = append(out, cbc.ValidationResult{
				Message:    "jurisdiction reports financial aggregates but lists no constituent entities",
				XPath:      reportPath(i) + ".ConstEntities",
				Suggestion: "list every constituent entity resident in the jurisdiction",
			})
		}
	}
	return out
}

// checkReportingPeriodAlignment compares the reporting entity's period with
// the message-level one when both are present.
func checkReportingPeriodAlignment(in *Input) []cbc.ValidationResult {
	if in.Message == nil {
		return nil
	}
	msgPeriod := in.Message.MessageSpec.ReportingPeriod
	entPeriod := in.Message.CbcBody.ReportingEntity.ReportingPeriod
	if msgPeriod == "" || entPeriod == "" || msgPeriod == entPeriod {
		return nil
	}
	return []cbc.ValidationResult{{
		Message: fmt.Sprintf("ReportingEntity period %s differs from message period %s", entPeriod, msgPeriod),
		XPath:   "CbcMessage.CbcBody.ReportingEntity.ReportingPeriod",
	}}
}

func reports(in *Input) []cbc.CbcReport {
	if in.Message == nil {
		return nil
	}
	return in.Message.CbcBody.CbcReports
}

func reportPath(i int) string {
	return fmt.Sprintf("CbcMessage.CbcBody.CbcReports[%d]", i)
}
