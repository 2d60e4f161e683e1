// Package audit captures structured events around the validation lifecycle.
// Events are append-only and transport-agnostic so stores and sinks can fan
// out.
package audit

import "time"

// Action names the lifecycle moment an event records.
type Action string

const (
	ActionValidationStarted   Action = "validation_started"
	ActionValidationCompleted Action = "validation_completed"
	ActionValidationFailed    Action = "validation_failed"
	ActionReportStored        Action = "report_stored"
	ActionReportDeleted       Action = "report_deleted"
)

// Event is one audit record. ClientID is the caller identity the rate
// limiter keys on; ReportID links to the stored ParsedReport when one
// exists.
type Event struct {
	Timestamp    time.Time `json:"timestamp"`
	Action       Action    `json:"action"`
	ClientID     string    `json:"clientId,omitempty"`
	ReportID     string    `json:"reportId,omitempty"`
	FileName     string    `json:"fileName,omitempty"`
	MessageRefID string    `json:"messageRefId,omitempty"`
	IsValid      bool      `json:"isValid"`
	Criticals    int       `json:"criticals"`
	Errors       int       `json:"errors"`
	Warnings     int       `json:"warnings"`
	Detail       string    `json:"detail,omitempty"`
}
