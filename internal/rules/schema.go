package rules

import (
	"fmt"
	"regexp"

	"github.com/pkwroblewski/CBCR-TP-sub001/internal/cbc"
)

var isoDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

func schemaRules() []Rule {
	return []Rule{
		{
			ID:       "SCH-020",
			Category: cbc.CategorySchema,
			Severity: cbc.SeverityError,
			Check:    checkCorrectionConsistency,
		},
		{
			ID:       "SCH-021",
			Category: cbc.CategorySchema,
			Severity: cbc.SeverityError,
			Check:    checkMessageTypeIndicConsistency,
		},
		{
			ID:       "SCH-022",
			Category: cbc.CategorySchema,
			Severity: cbc.SeverityError,
			Check:    checkDocRefIDsUniqueWithinMessage,
		},
		{
			ID:       "SCH-023",
			Category: cbc.CategorySchema,
			Severity: cbc.SeverityError,
			Check:    checkReportingPeriodISO,
		},
	}
}

// docSpecRef pairs a DocSpec with its logical path for cross-field checks.
type docSpecRef struct {
	spec  cbc.DocSpec
	xpath string
}

func collectDocSpecs(msg *cbc.CbcMessage) []docSpecRef {
	if msg == nil {
		return nil
	}
	refs := []docSpecRef{
		{msg.CbcBody.ReportingEntity.DocSpec, "CbcMessage.CbcBody.ReportingEntity.DocSpec"},
	}
	for i, r := range msg.CbcBody.CbcReports {
		refs = append(refs, docSpecRef{r.DocSpec, fmt.Sprintf("CbcMessage.CbcBody.CbcReports[%d].DocSpec", i)})
	}
	for i, a := range msg.CbcBody.AdditionalInfo {
		refs = append(refs, docSpecRef{a.DocSpec, fmt.Sprintf("CbcMessage.CbcBody.AdditionalInfo[%d].DocSpec", i)})
	}
	return refs
}

// checkCorrectionConsistency flags a correction reference paired with a
// non-correction docTypeIndic, and the inverse.
func checkCorrectionConsistency(in *Input) []cbc.ValidationResult {
	var out []cbc.ValidationResult
	for _, ref := range collectDocSpecs(in.Message) {
		isCorr := cbc.IsCorrectionDocType(ref.spec.DocTypeIndic)
		switch {
		case ref.spec.CorrDocRefID != "" && !isCorr:
			out = append(out, cbc.ValidationResult{
				Message: fmt.Sprintf("CorrDocRefId is populated but docTypeIndic is %s; corrections require OECD2 or OECD3",
					ref.spec.DocTypeIndic),
				XPath:     ref.xpath,
				Reference: "OECD CbC Status Message User Guide, correction handling",
			})
		case ref.spec.CorrDocRefID == "" && isCorr:
			out = append(out, cbc.ValidationResult{
				Message: fmt.Sprintf("docTypeIndic %s marks a correction but CorrDocRefId is empty",
					ref.spec.DocTypeIndic),
				XPath: ref.xpath,
			})
		}
	}
	return out
}

// checkMessageTypeIndicConsistency ties the message-level correction flag to
// the document-level indicators.
func checkMessageTypeIndicConsistency(in *Input) []cbc.ValidationResult {
	if in.Message == nil {
		return nil
	}
	refs := collectDocSpecs(in.Message)
	anyCorrection := false
	for _, ref := range refs {
		if cbc.IsCorrectionDocType(ref.spec.DocTypeIndic) || ref.spec.CorrDocRefID != "" {
			anyCorrection = true
			break
		}
	}

	switch in.Message.MessageSpec.MessageTypeIndic {
	case cbc.MessageTypeIndicCorrection:
		if !anyCorrection {
			return []cbc.ValidationResult{{
				Message: "MessageTypeIndic CBC402 announces corrections but no document carries a correction indicator",
				XPath:   "CbcMessage.MessageSpec.MessageTypeIndic",
			}}
		}
	case cbc.MessageTypeIndicNewData:
		if anyCorrection {
			return []cbc.ValidationResult{{
				Message: "MessageTypeIndic CBC401 announces new data but correction indicators are present",
				XPath:   "CbcMessage.MessageSpec.MessageTypeIndic",
			}}
		}
	}
	return nil
}

// checkDocRefIDsUniqueWithinMessage rejects DocRefId reuse inside one file.
// Cross-filing uniqueness is the external registry's concern.
func checkDocRefIDsUniqueWithinMessage(in *Input) []cbc.ValidationResult {
	seen := make(map[string]string)
	var out []cbc.ValidationResult
	for _, ref := range collectDocSpecs(in.Message) {
		id := ref.spec.DocRefID
		if id == "" {
			continue
		}
		if first, dup := seen[id]; dup {
			out = append(out, cbc.ValidationResult{
				Message: fmt.Sprintf("DocRefId %q is reused; first declared at %s", id, first),
				XPath:   ref.xpath,
				Details: map[string]any{"docRefId": id},
			})
			continue
		}
		seen[id] = ref.xpath
	}
	return out
}

func checkReportingPeriodISO(in *Input) []cbc.ValidationResult {
	if in.Message == nil {
		return nil
	}
	period := in.Message.MessageSpec.ReportingPeriod
	if period == "" || isoDateRe.MatchString(period) {
		return nil
	}
	return []cbc.ValidationResult{{
		Message: fmt.Sprintf("ReportingPeriod %q is not an ISO date after normalization", period),
		XPath:   "CbcMessage.MessageSpec.ReportingPeriod",
	}}
}
