package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/hamadazam9636-png/ECOMMERCE-APP/pkg/logger"
)

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func decodeLog(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &out))
	return out
}

// ---------------------------------------------------------------------------
// Identity
// ---------------------------------------------------------------------------

func validator(token string) (*Claims, error) {
	if token == "good" {
		return &Claims{UserID: "user-from-token"}, nil
	}
	return nil, errors.New("bad token")
}

func TestIdentity(t *testing.T) {
	tests := []struct {
		name       string
		cfg        IdentityConfig
		headers    map[string]string
		wantStatus int
		wantUser   string
	}{
		{"bearer token", IdentityConfig{Validate: validator}, map[string]string{"Authorization": "Bearer good"}, http.StatusOK, "user-from-token"},
		{"token wins over header", IdentityConfig{Validate: validator, TrustUserHeader: true}, map[string]string{"Authorization": "Bearer good", UserIDHeader: "spoofed"}, http.StatusOK, "user-from-token"},
		{"invalid token rejected even with header", IdentityConfig{Validate: validator, TrustUserHeader: true}, map[string]string{"Authorization": "Bearer nope", UserIDHeader: "u-1"}, http.StatusUnauthorized, ""},
		{"malformed header", IdentityConfig{Validate: validator}, map[string]string{"Authorization": "Basic abc"}, http.StatusUnauthorized, ""},
		{"gateway header", IdentityConfig{TrustUserHeader: true}, map[string]string{UserIDHeader: "u-1"}, http.StatusOK, "u-1"},
		{"header not trusted", IdentityConfig{Validate: validator}, map[string]string{UserIDHeader: "u-1"}, http.StatusUnauthorized, ""},
		{"no identity", IdentityConfig{TrustUserHeader: true}, nil, http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUser string
			h := Identity(tt.cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUser = UserIDFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantUser, gotUser)
			if tt.wantStatus == http.StatusUnauthorized {
				assert.Contains(t, rec.Body.String(), `"UNAUTHORIZED"`)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Logging and recovery
// ---------------------------------------------------------------------------

func TestRequestLogging_GeneratesAndEchoesCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	h := RequestLogging(logger.NewWithWriter("storefront", "info", &buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, logger.CorrelationIDFromContext(r.Context()))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("abc"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", nil))

	correlationID := rec.Header().Get(CorrelationIDHeader)
	require.NotEmpty(t, correlationID)

	entry := decodeLog(t, &buf)
	assert.Equal(t, "http request", entry["msg"])
	assert.Equal(t, float64(http.StatusCreated), entry["status"])
	assert.Equal(t, float64(3), entry["bytes"])
	assert.Equal(t, correlationID, entry["correlation_id"])
}

func TestRequestLogging_ServerErrorLogsAtErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	h := RequestLogging(logger.NewWithWriter("storefront", "info", &buf))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(CorrelationIDHeader, "corr-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	entry := decodeLog(t, &buf)
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "corr-42", rec.Header().Get(CorrelationIDHeader))
}

func TestRecovery_ReturnsInternalError(t *testing.T) {
	var buf bytes.Buffer
	h := Recovery(logger.NewWithWriter("storefront", "info", &buf))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
	assert.Contains(t, buf.String(), "panic recovered")
}

func TestRequestLogger_EnrichesContextLogger(t *testing.T) {
	var buf bytes.Buffer
	base := logger.NewWithWriter("storefront", "info", &buf)

	h := RequestLogger(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.FromContext(r.Context()).Info("handler log")
	}))

	ctx := logger.WithCorrelationID(context.Background(), "corr-1")
	ctx = WithUserID(ctx, "user-7")
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx))

	entry := decodeLog(t, &buf)
	assert.Equal(t, "handler log", entry["msg"])
	assert.Equal(t, "corr-1", entry["correlation_id"])
	assert.Equal(t, "user-7", entry["user_id"])
}

// ---------------------------------------------------------------------------
// Metrics and tracing
// ---------------------------------------------------------------------------

func TestPrometheusMetrics_LabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(PrometheusMetrics("mw-test"))
	r.Get("/items/{lineId}", okHandler)

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("mw-test", "GET", "/items/{lineId}", "200"))
	for _, id := range []string{"a", "b", "c"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/"+id, nil))
	}

	assert.Equal(t, before+3, testutil.ToFloat64(httpRequestsTotal.WithLabelValues("mw-test", "GET", "/items/{lineId}", "200")))
	assert.Equal(t, float64(0), testutil.ToFloat64(httpRequestsInFlight.WithLabelValues("mw-test")))
}

func TestTracing_NamesSpanAfterRouteAndMarksServerErrors(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	r := chi.NewRouter()
	r.Use(Tracing("storefront"))
	r.Get("/cart/{lineId}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	req := httptest.NewRequest(http.MethodGet, "/cart/abc", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /cart/{lineId}", spans[0].Name)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", spans[0].SpanContext.TraceID().String())
	assert.Equal(t, "Error", spans[0].Status.Code.String())
	assert.NotEmpty(t, rec.Header().Get("traceparent"))
}
