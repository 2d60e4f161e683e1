package httpapi

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pkwroblewski/CBCR-TP-sub001/internal/refregistry"
	"github.com/pkwroblewski/CBCR-TP-sub001/internal/reportstore"
	"github.com/pkwroblewski/CBCR-TP-sub001/internal/validation"
	"github.com/pkwroblewski/CBCR-TP-sub001/pkg/testutil"
)

const validDoc = `<?xml version="1.0" encoding="UTF-8"?>
<cbc:CBC_OECD xmlns:cbc="urn:oecd:ties:cbc:v2" xmlns:stf="urn:oecd:ties:cbcstf:v5">
  <cbc:MessageSpec>
    <cbc:TransmittingCountry>DE</cbc:TransmittingCountry>
    <cbc:ReceivingCountry>FR</cbc:ReceivingCountry>
    <cbc:MessageType>CBC</cbc:MessageType>
    <cbc:MessageRefId>DE2024-HTTP-001</cbc:MessageRefId>
    <cbc:MessageTypeIndic>CBC401</cbc:MessageTypeIndic>
    <cbc:ReportingPeriod>2024-12-31</cbc:ReportingPeriod>
    <cbc:Timestamp>2025-01-15T10:30:00Z</cbc:Timestamp>
  </cbc:MessageSpec>
  <cbc:CbcBody>
    <cbc:ReportingEntity>
      <cbc:Entity>
        <cbc:ResCountryCode>DE</cbc:ResCountryCode>
        <cbc:Name>Acme Holding AG</cbc:Name>
      </cbc:Entity>
      <cbc:ReportingRole>CBC701</cbc:ReportingRole>
      <cbc:DocSpec>
        <stf:DocTypeIndic>OECD1</stf:DocTypeIndic>
        <stf:DocRefId>DE2024-RE-001</stf:DocRefId>
      </cbc:DocSpec>
    </cbc:ReportingEntity>
    <cbc:CbcReports>
      <cbc:DocSpec>
        <stf:DocTypeIndic>OECD1</stf:DocTypeIndic>
        <stf:DocRefId>DE2024-REP-001</stf:DocRefId>
      </cbc:DocSpec>
      <cbc:ResCountryCode>DE</cbc:ResCountryCode>
      <cbc:Summary>
        <cbc:Revenues>
          <cbc:Total currCode="EUR">6000000</cbc:Total>
        </cbc:Revenues>
        <cbc:NbEmployees>120</cbc:NbEmployees>
      </cbc:Summary>
      <cbc:ConstEntities>
        <cbc:ConstEntity>
          <cbc:ResCountryCode>DE</cbc:ResCountryCode>
          <cbc:Name>Acme Holding AG</cbc:Name>
        </cbc:ConstEntity>
      </cbc:ConstEntities>
    </cbc:CbcReports>
  </cbc:CbcBody>
</cbc:CBC_OECD>`

func newTestHandler(t *testing.T, opts ...Option) (*Handler, *reportstore.InMemoryStore) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := validation.New(logger,
		validation.WithClock(func() time.Time { return time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC) }),
	)
	store := reportstore.NewInMemoryStore()
	return NewHandler(svc, store, logger, opts...), store
}

func newRouter(t *testing.T, opts ...Option) (http.Handler, *reportstore.InMemoryStore) {
	t.Helper()
	h, store := newTestHandler(t, opts...)
	return NewRouter(h, nil), store
}

func xmlRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/xml")
	return req
}

func TestHandleValidate(t *testing.T) {
	t.Run("valid document returns assembled report", func(t *testing.T) {
		router, _ := newRouter(t)

		rr := testutil.DoRequest(router, xmlRequest(http.MethodPost, "/v1/reports/validate", validDoc))
		testutil.AssertStatusOK(t, rr)
		testutil.AssertJSONContains(t, rr, "success", true)
		testutil.AssertJSONHasKey(t, rr, "report")
	})

	t.Run("doctype is rejected with 422", func(t *testing.T) {
		router, _ := newRouter(t)

		doc := `<?xml version="1.0"?><!DOCTYPE r SYSTEM "x"><r/>`
		rr := testutil.DoRequest(router, xmlRequest(http.MethodPost, "/v1/reports/validate", doc))
		testutil.AssertStatus(t, rr, http.StatusUnprocessableEntity)
		testutil.AssertJSONContains(t, rr, "success", false)
	})

	t.Run("store=true persists the report", func(t *testing.T) {
		router, store := newRouter(t)

		rr := testutil.DoRequest(router, xmlRequest(http.MethodPost, "/v1/reports/validate?store=true", validDoc))
		testutil.AssertStatusOK(t, rr)

		reports, err := store.List(context.Background(), 0)
		require.NoError(t, err)
		require.Len(t, reports, 1)
	})

	t.Run("duplicate MessageRefId is rejected via registry", func(t *testing.T) {
		router, _ := newRouter(t, WithRegistry(refregistry.NewInMemoryRegistry(time.Hour)))

		rr := testutil.DoRequest(router, xmlRequest(http.MethodPost, "/v1/reports/validate?store=true", validDoc))
		testutil.AssertStatusOK(t, rr)

		rr = testutil.DoRequest(router, xmlRequest(http.MethodPost, "/v1/reports/validate?store=true", validDoc))
		testutil.AssertStatusAndError(t, rr, http.StatusConflict, "conflict")
	})

	t.Run("oversized body is rejected", func(t *testing.T) {
		router, _ := newRouter(t, WithMaxBodySize(16))

		rr := testutil.DoRequest(router, xmlRequest(http.MethodPost, "/v1/reports/validate", validDoc))
		testutil.AssertStatus(t, rr, http.StatusRequestEntityTooLarge)
	})
}

func TestHandleQuickValidate(t *testing.T) {
	router, _ := newRouter(t)

	rr := testutil.DoRequest(router, xmlRequest(http.MethodPost, "/v1/reports/quick-validate", validDoc))
	testutil.AssertStatusOK(t, rr)
	testutil.AssertJSONContains(t, rr, "isValid", true)

	rr = testutil.DoRequest(router, xmlRequest(http.MethodPost, "/v1/reports/quick-validate", "   "))
	testutil.AssertStatusOK(t, rr)
	testutil.AssertJSONContains(t, rr, "isValid", false)
}

func TestHandlePreview(t *testing.T) {
	router, _ := newRouter(t)

	rr := testutil.DoRequest(router, xmlRequest(http.MethodPost, "/v1/reports/preview", validDoc))
	testutil.AssertStatusOK(t, rr)
	body := testutil.UnmarshalResponse[map[string]any](t, rr)
	require.Contains(t, *body, "info")
	require.Contains(t, *body, "counts")
}

func TestReportLifecycle(t *testing.T) {
	router, store := newRouter(t)

	rr := testutil.DoRequest(router, xmlRequest(http.MethodPost, "/v1/reports/validate?store=true", validDoc))
	testutil.AssertStatusOK(t, rr)

	reports, err := store.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	id := reports[0].ID

	rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/v1/reports/"+id))
	testutil.AssertStatusOK(t, rr)
	testutil.AssertJSONContains(t, rr, "id", id)

	rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/v1/reports/"+id+"/render?format=text"))
	testutil.AssertStatusOK(t, rr)
	require.Contains(t, rr.Body.String(), "Validation report")

	rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/v1/reports/"))
	testutil.AssertStatusOK(t, rr)
	testutil.AssertJSONContains(t, rr, "count", float64(1))

	rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodDelete, "/v1/reports/"+id))
	testutil.AssertStatus(t, rr, http.StatusNoContent)

	rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/v1/reports/"+id))
	testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
}

func TestHandleHealth(t *testing.T) {
	t.Run("no checks registered", func(t *testing.T) {
		router, _ := newRouter(t)
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/healthz"))
		testutil.AssertStatusOK(t, rr)
		testutil.AssertJSONContains(t, rr, "status", "ok")
	})

	type healthBody struct {
		Status     string            `json:"status"`
		Components map[string]string `json:"components"`
	}

	t.Run("all dependencies healthy", func(t *testing.T) {
		healthy := func(context.Context) error { return nil }
		router, _ := newRouter(t,
			WithHealthCheck("postgres", healthy),
			WithHealthCheck("redis", healthy),
		)
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/healthz"))
		testutil.AssertStatusOK(t, rr)

		body := testutil.UnmarshalResponse[healthBody](t, rr)
		require.Equal(t, "ok", body.Status)
		require.Equal(t, map[string]string{"postgres": "ok", "redis": "ok"}, body.Components)
	})

	t.Run("failing dependency degrades status", func(t *testing.T) {
		router, _ := newRouter(t,
			WithHealthCheck("postgres", func(context.Context) error { return nil }),
			WithHealthCheck("redis", func(context.Context) error { return errors.New("connection refused") }),
		)
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/healthz"))
		testutil.AssertStatus(t, rr, http.StatusServiceUnavailable)

		body := testutil.UnmarshalResponse[healthBody](t, rr)
		require.Equal(t, "degraded", body.Status)
		require.Equal(t, "unavailable", body.Components["redis"])
		require.Equal(t, "ok", body.Components["postgres"])
	})
}
