package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pkwroblewski/CBCR-TP-sub001/internal/audit"
	"github.com/pkwroblewski/CBCR-TP-sub001/internal/preview"
	"github.com/pkwroblewski/CBCR-TP-sub001/internal/refregistry"
	"github.com/pkwroblewski/CBCR-TP-sub001/internal/render"
	"github.com/pkwroblewski/CBCR-TP-sub001/internal/reportstore"
	"github.com/pkwroblewski/CBCR-TP-sub001/internal/validation"
	"github.com/pkwroblewski/CBCR-TP-sub001/pkg/apperrors"
)

// ValidationService runs the pipeline; the concrete implementation lives in
// internal/validation.
type ValidationService interface {
	ParseAndTransform(ctx context.Context, raw, fileName string, fileSize int64) validation.Result
	QuickValidate(raw string) validation.QuickResult
}

type Auditor interface {
	Emit(ctx context.Context, event audit.Event) error
}

// HealthFunc probes one backing dependency; a non-nil error marks the
// component unavailable.
type HealthFunc func(ctx context.Context) error

type Handler struct {
	service     ValidationService
	store       reportstore.Store
	registry    refregistry.Registry
	auditor     Auditor
	logger      *slog.Logger
	maxBodySize int64
	health      map[string]HealthFunc
}

type Option func(*Handler)

func WithRegistry(reg refregistry.Registry) Option {
	return func(h *Handler) { h.registry = reg }
}

func WithAuditor(a Auditor) Option {
	return func(h *Handler) { h.auditor = a }
}

func WithMaxBodySize(n int64) Option {
	return func(h *Handler) { h.maxBodySize = n }
}

// WithHealthCheck registers a named dependency probe reported by /healthz.
func WithHealthCheck(name string, check HealthFunc) Option {
	return func(h *Handler) {
		if h.health == nil {
			h.health = make(map[string]HealthFunc)
		}
		h.health[name] = check
	}
}

func NewHandler(service ValidationService, store reportstore.Store, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		service:     service,
		store:       store,
		logger:      logger,
		maxBodySize: 32 << 20,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandleValidate handles POST /v1/reports/validate. The body is the raw XML
// document; ?store=true persists the assembled report.
func (h *Handler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	raw, ok := h.readDocument(w, r)
	if !ok {
		return
	}

	fileName := r.Header.Get("X-File-Name")
	result := h.service.ParseAndTransform(ctx, raw, fileName, int64(len(raw)))
	if !result.Success {
		writeJSON(w, http.StatusUnprocessableEntity, result)
		return
	}

	if r.URL.Query().Get("store") == "true" {
		if err := h.storeReport(ctx, result); err != nil {
			writeError(w, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, result)
}

// HandleQuickValidate handles POST /v1/reports/quick-validate with only the
// security and wellformedness screen, for fast upload-time feedback.
func (h *Handler) HandleQuickValidate(w http.ResponseWriter, r *http.Request) {
	raw, ok := h.readDocument(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.service.QuickValidate(raw))
}

// HandlePreview handles POST /v1/reports/preview, returning lightweight
// metadata extracted without a full parse.
func (h *Handler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	raw, ok := h.readDocument(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Info   preview.BasicInfo     `json:"info"`
		Counts preview.ElementCounts `json:"counts"`
	}{
		Info:   preview.ExtractBasicInfo(raw),
		Counts: preview.CountElements(raw),
	})
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	reports, err := h.store.List(r.Context(), 100)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": reports, "count": len(reports)})
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	report, err := h.store.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// HandleRender handles GET /v1/reports/{id}/render?format=text|json.
func (h *Handler) HandleRender(w http.ResponseWriter, r *http.Request) {
	report, err := h.store.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	renderer, err := render.ForFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, apperrors.Wrap(err, apperrors.CodeValidation, "unsupported format"))
		return
	}
	out, err := renderer.Render(report)
	if err != nil {
		writeError(w, apperrors.Wrap(err, apperrors.CodeInternal, "render failed"))
		return
	}

	w.Header().Set("Content-Type", renderer.ContentType())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	if err := h.store.Delete(ctx, id); err != nil {
		writeError(w, err)
		return
	}
	h.emit(ctx, audit.Event{Action: audit.ActionReportDeleted, ReportID: id})
	w.WriteHeader(http.StatusNoContent)
}

// HandleHealth probes each registered dependency. Any failing component
// turns the overall status to 503 but every component is still reported.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status := http.StatusOK
	components := make(map[string]string, len(h.health))
	for name, check := range h.health {
		if err := check(ctx); err != nil {
			h.logger.WarnContext(ctx, "health check failed", "component", name, "error", err)
			components[name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		components[name] = "ok"
	}

	body := map[string]any{"status": "ok"}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	if len(components) > 0 {
		body["components"] = components
	}
	writeJSON(w, status, body)
}

func (h *Handler) readDocument(w http.ResponseWriter, r *http.Request) (string, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, h.maxBodySize+1))
	if err != nil {
		writeError(w, apperrors.Wrap(err, apperrors.CodeValidation, "failed to read request body"))
		return "", false
	}
	if int64(len(body)) > h.maxBodySize {
		writeError(w, apperrors.Newf(apperrors.CodeTooLarge, "document exceeds %d bytes", h.maxBodySize))
		return "", false
	}
	return string(body), true
}

func (h *Handler) storeReport(ctx context.Context, result validation.Result) error {
	report := result.Report

	// The registry screens duplicates cheaply; the store's unique constraint
	// is the final arbiter.
	if h.registry != nil && report.Message != nil {
		refID := report.Message.MessageSpec.MessageRefID
		if refID != "" {
			fresh, err := h.registry.Register(ctx, refID)
			if err != nil {
				h.logger.WarnContext(ctx, "ref registry check failed", "error", err)
			} else if !fresh {
				return reportstore.ErrDuplicate
			}
		}
	}

	if err := h.store.Save(ctx, report); err != nil {
		return err
	}
	h.emit(ctx, audit.Event{
		Action:   audit.ActionReportStored,
		ReportID: report.ID,
		FileName: report.File.Name,
		IsValid:  report.Report.IsValid,
	})
	return nil
}

func (h *Handler) emit(ctx context.Context, event audit.Event) {
	if h.auditor == nil {
		return
	}
	if err := h.auditor.Emit(ctx, event); err != nil {
		h.logger.ErrorContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError centralizes error translation so every handler returns the same
// JSON envelope.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperrors.Error
	message := "internal error"
	if errors.As(err, &appErr) {
		message = appErr.Message
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apperrors.ToHTTPStatus(err))
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   string(apperrors.CodeOf(err)),
		"message": message,
	})
}
