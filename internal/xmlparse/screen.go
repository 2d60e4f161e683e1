package xmlparse

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pkwroblewski/CBCR-TP-sub001/internal/cbc"
)

// Rule IDs emitted by the pre-parse screen. SEC findings are always critical
// and always abort; ENC findings are recoverable.
const (
	RuleNoContent        = "XML-001"
	RuleMalformed        = "XML-002"
	RuleDoctype          = "SEC-001"
	RuleEntityDecl       = "SEC-002"
	RuleExternalRef      = "SEC-003"
	RuleBadEncoding      = "ENC-001"
	RuleByteOrderMark    = "ENC-002"
	RuleMissingEncoding  = "ENC-003"
	RuleControlChars     = "ENC-004"
)

var utf8BOM = "\xef\xbb\xbf"

var (
	doctypeRe     = regexp.MustCompile(`(?i)<!DOCTYPE`)
	entityDeclRe  = regexp.MustCompile(`(?i)<!ENTITY`)
	externalRefRe = regexp.MustCompile(`(?i)\b(?:SYSTEM|PUBLIC)\s+["']`)
)

// Screen runs the textual security and encoding checks over raw document
// text, in the documented order, before any XML parser touches it. Entity
// declarations and external references must never reach the tree parser, so
// those checks are deliberately string-level: the attack is rejected whether
// or not it would survive parsing.
func Screen(raw string) []cbc.ValidationResult {
	var findings []cbc.ValidationResult

	if strings.TrimSpace(strings.TrimPrefix(raw, utf8BOM)) == "" {
		return append(findings, critical(RuleNoContent, "document contains no content"))
	}

	findings = append(findings, screenSecurity(raw)...)
	if cbc.HasCritical(findings) {
		return findings
	}

	findings = append(findings, screenEncoding(raw)...)
	return findings
}

func screenSecurity(raw string) []cbc.ValidationResult {
	var findings []cbc.ValidationResult
	if doctypeRe.MatchString(raw) {
		findings = append(findings, criticalWithSuggestion(RuleDoctype,
			"document type declarations are prohibited: DOCTYPE enables entity-expansion attacks",
			"remove the DOCTYPE declaration and any internal DTD subset"))
	}
	if entityDeclRe.MatchString(raw) {
		findings = append(findings, criticalWithSuggestion(RuleEntityDecl,
			"entity declarations are prohibited: <!ENTITY enables XXE and billion-laughs attacks",
			"remove all <!ENTITY declarations"))
	}
	if externalRefRe.MatchString(raw) {
		findings = append(findings, criticalWithSuggestion(RuleExternalRef,
			"external SYSTEM/PUBLIC references are prohibited",
			"remove SYSTEM and PUBLIC identifiers; external resources are never fetched"))
	}
	return findings
}

func screenEncoding(raw string) []cbc.ValidationResult {
	var findings []cbc.ValidationResult

	if strings.HasPrefix(raw, utf8BOM) {
		findings = append(findings, cbc.ValidationResult{
			RuleID:   RuleByteOrderMark,
			Category: cbc.CategoryWellformedness,
			Severity: cbc.SeverityWarning,
			Message:  "document starts with a UTF-8 byte-order mark; filings should be BOM-free",
		})
	}

	switch enc := Analyze(raw).DeclaredEncoding; {
	case enc == "":
		findings = append(findings, cbc.ValidationResult{
			RuleID:   RuleMissingEncoding,
			Category: cbc.CategoryWellformedness,
			Severity: cbc.SeverityWarning,
			Message:  "XML declaration does not state an encoding; UTF-8 is assumed",
		})
	case !strings.EqualFold(enc, "UTF-8"):
		findings = append(findings, cbc.ValidationResult{
			RuleID:   RuleBadEncoding,
			Category: cbc.CategoryWellformedness,
			Severity: cbc.SeverityError,
			Message:  fmt.Sprintf("declared encoding %q is not UTF-8", enc),
			Details:  map[string]any{"declaredEncoding": enc},
		})
	}

	if line, col, ok := findControlChar(raw); ok {
		findings = append(findings, cbc.ValidationResult{
			RuleID:   RuleControlChars,
			Category: cbc.CategoryWellformedness,
			Severity: cbc.SeverityError,
			Message:  fmt.Sprintf("prohibited control character at line %d, column %d", line, col),
			Details:  map[string]any{"line": line, "column": col},
		})
	}

	return findings
}

// findControlChar locates the first prohibited control character (ASCII 0-8,
// 11, 12, 14-31). Tab, LF, and CR are legal XML whitespace.
func findControlChar(raw string) (line, col int, found bool) {
	line, col = 1, 1
	for i := 0; i < len(raw); i++ {
		b := raw[i]
		if b < 0x20 && b != '\t' && b != '\n' && b != '\r' {
			return line, col, true
		}
		if b == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return 0, 0, false
}

func critical(ruleID, msg string) cbc.ValidationResult {
	return cbc.ValidationResult{
		RuleID:   ruleID,
		Category: cbc.CategoryWellformedness,
		Severity: cbc.SeverityCritical,
		Message:  msg,
	}
}

func criticalWithSuggestion(ruleID, msg, suggestion string) cbc.ValidationResult {
	f := critical(ruleID, msg)
	f.Suggestion = suggestion
	return f
}
