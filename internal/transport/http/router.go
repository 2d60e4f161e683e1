// Package httpapi is the thin HTTP layer. It delegates to the validation
// service and stores without embedding business logic so transport concerns
// remain isolated.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pkwroblewski/CBCR-TP-sub001/internal/ratelimit"
)

// NewRouter wires all public endpoints. The rate limiter guards only the
// validation endpoints; reads and health stay unthrottled.
func NewRouter(h *Handler, limiter *ratelimit.Middleware) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.HandleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1/reports", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if limiter != nil {
				r.Use(limiter.Handler)
			}
			r.Post("/validate", h.HandleValidate)
			r.Post("/quick-validate", h.HandleQuickValidate)
			r.Post("/preview", h.HandlePreview)
		})

		r.Get("/", h.HandleList)
		r.Get("/{id}", h.HandleGet)
		r.Get("/{id}/render", h.HandleRender)
		r.Delete("/{id}", h.HandleDelete)
	})

	return r
}
