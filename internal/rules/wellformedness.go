package rules

import (
	"github.com/pkwroblewski/CBCR-TP-sub001/internal/cbc"
)

const rootElementName = "CBC_OECD"

func wellformednessRules() []Rule {
	return []Rule{
		{
			ID:       "XML-010",
			Category: cbc.CategoryWellformedness,
			Severity: cbc.SeverityWarning,
			Check:    checkRootElement,
		},
		{
			ID:       "XML-011",
			Category: cbc.CategoryWellformedness,
			Severity: cbc.SeverityWarning,
			Check:    checkCbcNamespace,
		},
	}
}

func checkRootElement(in *Input) []cbc.ValidationResult {
	if in.Root == nil || in.Root.Local == rootElementName {
		return nil
	}
	return []cbc.ValidationResult{{
		Message:    "root element is <" + in.Root.Name + ">; OECD CbC filings use <CBC_OECD>",
		XPath:      "CbcMessage",
		Suggestion: "rename the root element to CBC_OECD",
	}}
}

func checkCbcNamespace(in *Input) []cbc.ValidationResult {
	if in.Namespaces == nil || in.Namespaces.HasCbc {
		return nil
	}
	return []cbc.ValidationResult{{
		Message:   "no recognized CbC namespace is declared",
		Reference: "OECD CbC XML Schema User Guide",
	}}
}
