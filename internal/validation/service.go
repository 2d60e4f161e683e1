// Package validation orchestrates the full pipeline: security screen,
// generic parse, transform, rule evaluation, and report assembly. The run is
// synchronous and CPU-bound; it holds no state beyond the current document,
// so one Service instance may validate independent documents concurrently.
package validation

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pkwroblewski/CBCR-TP-sub001/internal/audit"
	"github.com/pkwroblewski/CBCR-TP-sub001/internal/cbc"
	"github.com/pkwroblewski/CBCR-TP-sub001/internal/platform/metrics"
	"github.com/pkwroblewski/CBCR-TP-sub001/internal/rules"
	"github.com/pkwroblewski/CBCR-TP-sub001/internal/transform"
	"github.com/pkwroblewski/CBCR-TP-sub001/internal/xmlparse"
)

// State tracks pipeline progress. FAILED is reachable from SCREENED, PARSED,
// and TRANSFORMED on a critical condition; once TRANSFORMED succeeds the run
// always reaches ASSEMBLED regardless of finding counts.
type State string

const (
	StateRaw         State = "RAW"
	StateScreened    State = "SCREENED"
	StateParsed      State = "PARSED"
	StateTransformed State = "TRANSFORMED"
	StateValidated   State = "VALIDATED"
	StateAssembled   State = "ASSEMBLED"
	StateFailed      State = "FAILED"
)

// Result is the caller-facing outcome. On success Report is set; on failure
// Findings carries everything collected before the abort. A bare error never
// escapes the pipeline.
type Result struct {
	Success  bool                   `json:"success"`
	State    State                  `json:"state"`
	Report   *cbc.ParsedReport      `json:"report,omitempty"`
	Findings []cbc.ValidationResult `json:"findings,omitempty"`
}

// QuickResult is the wellformedness/security screen verdict for fast
// upload-time feedback. Not a substitute for full validation.
type QuickResult struct {
	IsValid          bool                   `json:"isValid"`
	CriticalFindings []cbc.ValidationResult `json:"criticalFindings,omitempty"`
	WarningCount     int                    `json:"warningCount"`
}

// Auditor receives lifecycle events; the concrete publisher lives in the
// audit package.
type Auditor interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service wires the pipeline stages with logging, metrics, and audit.
type Service struct {
	engine  *rules.Engine
	logger  *slog.Logger
	metrics *metrics.Metrics
	auditor Auditor
	now     func() time.Time
	newID   func() string
}

// Option configures the Service.
type Option func(*Service)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditor(a Auditor) Option {
	return func(s *Service) { s.auditor = a }
}

// WithClock injects the clock for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides report ID generation.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) { s.newID = gen }
}

func New(logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		engine: rules.NewEngine(),
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ParseAndTransform runs the full pipeline over one raw document.
func (s *Service) ParseAndTransform(ctx context.Context, raw, fileName string, fileSize int64) Result {
	start := s.now()
	state := StateRaw

	s.emit(ctx, audit.Event{Action: audit.ActionValidationStarted, FileName: fileName})

	// Security and encoding screen. SEC findings abort before any parser
	// sees the input.
	findings := xmlparse.Screen(raw)
	state = StateScreened
	if cbc.HasCritical(findings) {
		return s.fail(ctx, state, fileName, findings, start)
	}

	ns := xmlparse.Analyze(raw)
	root, err := xmlparse.Build(raw, ns)
	if err != nil {
		findings = append(findings, xmlparse.MalformedFinding(err))
		return s.fail(ctx, StateParsed, fileName, findings, start)
	}
	state = StateParsed

	msg, transformFindings := transform.NewWithClock(s.now).Transform(root)
	if msg == nil {
		findings = append(findings, transformFindings...)
		return s.fail(ctx, StateTransformed, fileName, findings, start)
	}
	state = StateTransformed
	findings = append(findings, transformFindings...)

	// Non-fatal warnings from the screen and the transform; ERROR and INFO
	// findings appear in the assembled report only.
	var warnings []cbc.ValidationResult
	for _, f := range findings {
		if f.Severity == cbc.SeverityWarning {
			warnings = append(warnings, f)
		}
	}

	findings = append(findings, s.engine.Evaluate(&rules.Input{
		Raw:        raw,
		Namespaces: ns,
		Root:       root,
		Message:    msg,
	})...)
	state = StateValidated

	report := cbc.Assemble(findings)
	state = StateAssembled

	parsed := &cbc.ParsedReport{
		ID: s.newID(),
		File: cbc.FileInfo{
			Name:     fileName,
			Size:     fileSize,
			Received: start,
		},
		Message:  msg,
		Warnings: warnings,
		Report:   report,
	}

	outcome := "valid"
	if !report.IsValid {
		outcome = "invalid"
	}
	s.metrics.ObserveValidation(outcome, s.now().Sub(start))
	for sev, n := range report.BySeverity {
		for range n {
			s.metrics.CountFinding(string(sev))
		}
	}

	s.logger.InfoContext(ctx, "validation completed",
		"report_id", parsed.ID,
		"file", fileName,
		"state", state,
		"is_valid", report.IsValid,
		"findings", report.Total,
		"duration_ms", s.now().Sub(start).Milliseconds(),
	)
	s.emit(ctx, audit.Event{
		Action:       audit.ActionValidationCompleted,
		ReportID:     parsed.ID,
		FileName:     fileName,
		MessageRefID: msg.MessageSpec.MessageRefID,
		IsValid:      report.IsValid,
		Criticals:    report.BySeverity[cbc.SeverityCritical],
		Errors:       report.BySeverity[cbc.SeverityError],
		Warnings:     report.BySeverity[cbc.SeverityWarning],
	})

	return Result{Success: true, State: state, Report: parsed}
}

// QuickValidate runs the security and wellformedness screen: the pre-parse
// checks plus a throwaway tree build. No typed model is produced and no
// rules run.
func (s *Service) QuickValidate(raw string) QuickResult {
	_, findings := xmlparse.Parse(raw)

	var criticals []cbc.ValidationResult
	warnings := 0
	for _, f := range findings {
		switch f.Severity {
		case cbc.SeverityCritical:
			criticals = append(criticals, f)
		case cbc.SeverityWarning:
			warnings++
		}
	}
	return QuickResult{
		IsValid:          len(criticals) == 0,
		CriticalFindings: criticals,
		WarningCount:     warnings,
	}
}

func (s *Service) fail(ctx context.Context, state State, fileName string, findings []cbc.ValidationResult, start time.Time) Result {
	s.metrics.ObserveValidation("failed", s.now().Sub(start))
	s.logger.WarnContext(ctx, "validation aborted",
		"file", fileName,
		"stage", state,
		"findings", len(findings),
	)

	criticals := 0
	detail := ""
	for _, f := range findings {
		if f.Severity == cbc.SeverityCritical {
			criticals++
			if detail == "" {
				detail = f.Message
			}
		}
	}
	s.emit(ctx, audit.Event{
		Action:    audit.ActionValidationFailed,
		FileName:  fileName,
		Criticals: criticals,
		Detail:    detail,
	})

	return Result{Success: false, State: StateFailed, Findings: findings}
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}
