// Package render turns an assembled validation report into client-facing
// output, either machine-readable JSON or a human-readable text summary.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/pkwroblewski/CBCR-TP-sub001/internal/cbc"
)

// Renderer serializes a parsed report for delivery.
type Renderer interface {
	Render(report *cbc.ParsedReport) ([]byte, error)
	ContentType() string
}

// ForFormat returns the renderer for a format query value. Empty and "json"
// mean JSON; "text" means the plain-text summary.
func ForFormat(format string) (Renderer, error) {
	switch format {
	case "", "json":
		return JSONRenderer{}, nil
	case "text":
		return TextRenderer{}, nil
	default:
		return nil, fmt.Errorf("unsupported render format %q", format)
	}
}

type JSONRenderer struct{}

func (JSONRenderer) ContentType() string { return "application/json" }

func (JSONRenderer) Render(report *cbc.ParsedReport) ([]byte, error) {
	return json.MarshalIndent(report, "", "  ")
}

type TextRenderer struct{}

func (TextRenderer) ContentType() string { return "text/plain; charset=utf-8" }

func (TextRenderer) Render(report *cbc.ParsedReport) ([]byte, error) {
	var buf bytes.Buffer

	verdict := "VALID"
	if !report.Report.IsValid {
		verdict = "INVALID"
	}
	fmt.Fprintf(&buf, "Validation report %s\n", report.ID)
	if report.File.Name != "" {
		fmt.Fprintf(&buf, "File:    %s\n", report.File.Name)
	}
	if report.Message != nil && report.Message.MessageSpec.MessageRefID != "" {
		fmt.Fprintf(&buf, "Message: %s\n", report.Message.MessageSpec.MessageRefID)
	}
	fmt.Fprintf(&buf, "Result:  %s (%d findings, %d passed)\n", verdict, report.Report.Total, report.Report.Passed)

	for _, sev := range []cbc.Severity{cbc.SeverityCritical, cbc.SeverityError, cbc.SeverityWarning, cbc.SeverityInfo} {
		if n := report.Report.BySeverity[sev]; n > 0 {
			fmt.Fprintf(&buf, "  %-8s %d\n", sev, n)
		}
	}

	if len(report.Report.Findings) > 0 {
		buf.WriteString("\nFindings:\n")
		for _, f := range report.Report.Findings {
			fmt.Fprintf(&buf, "  [%s] %s: %s", f.Severity, f.RuleID, f.Message)
			if f.XPath != "" {
				fmt.Fprintf(&buf, " (at %s)", f.XPath)
			}
			buf.WriteByte('\n')
			if f.Suggestion != "" {
				fmt.Fprintf(&buf, "           suggestion: %s\n", f.Suggestion)
			}
		}
	}

	return buf.Bytes(), nil
}
