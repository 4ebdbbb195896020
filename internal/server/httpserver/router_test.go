package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/rob-jonesdevlab/ods-signage/internal/server/httpserver/handler"
	"github.com/rob-jonesdevlab/ods-signage/internal/telemetry/metric"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRouter(checks map[string]handler.ReadyCheck) (http.Handler, *metric.Registry) {
	reg := metric.NewRegistry()
	h := handler.New(handler.Config{
		Logger:          quietLogger(),
		Checks:          checks,
		DriftLimit:      5 * time.Minute,
		RegistrationTTL: 24 * time.Hour,
	})
	return NewRouter(&RouterConfig{Handler: h, Metrics: reg, Logger: quietLogger()}), reg
}

func do(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder, data any) handler.Response {
	t.Helper()
	var env handler.Response
	if data != nil {
		env.Data = data
		env.Details = data
	}
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return env
}

func TestRouter_Healthz(t *testing.T) {
	r, _ := newTestRouter(nil)

	rec := do(t, r, http.MethodGet, "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}

	var health handler.HealthResponse
	env := decodeEnvelope(t, rec, &health)
	if env.Code != "OK" || health.Status != "healthy" {
		t.Errorf("envelope = %+v, health = %+v", env, health)
	}
	if env.RequestID != rec.Header().Get("X-Request-ID") {
		t.Errorf("envelope request id %q != header %q", env.RequestID, rec.Header().Get("X-Request-ID"))
	}
}

func TestRouter_Readyz(t *testing.T) {
	tests := []struct {
		name       string
		checks     map[string]handler.ReadyCheck
		wantStatus int
		wantState  string
	}{
		{"no checks", nil, http.StatusOK, "ready"},
		{"all pass", map[string]handler.ReadyCheck{
			"replay_store": func(context.Context) error { return nil },
			"listener":     func(context.Context) error { return nil },
		}, http.StatusOK, "ready"},
		{"store down", map[string]handler.ReadyCheck{
			"replay_store": func(context.Context) error { return errors.New("dial tcp 10.0.0.5:6379: connection refused") },
			"listener":     func(context.Context) error { return nil },
		}, http.StatusServiceUnavailable, "not_ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestRouter(tt.checks)
			rec := do(t, r, http.MethodGet, "/readyz")
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var health handler.HealthResponse
			decodeEnvelope(t, rec, &health)
			if health.Status != tt.wantState {
				t.Errorf("status field = %q, want %q", health.Status, tt.wantState)
			}
			if len(health.Checks) != len(tt.checks) {
				t.Errorf("checks = %v", health.Checks)
			}
		})
	}
}

func TestRouter_ReadyzTimeout(t *testing.T) {
	h := handler.New(handler.Config{
		Logger:       quietLogger(),
		CheckTimeout: 20 * time.Millisecond,
		Checks: map[string]handler.ReadyCheck{
			"slow": func(ctx context.Context) error {
				<-ctx.Done()
				return ctx.Err()
			},
		},
	})
	r := NewRouter(&RouterConfig{Handler: h, Logger: quietLogger()})

	rec := do(t, r, http.MethodGet, "/readyz")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestRouter_Version(t *testing.T) {
	r, _ := newTestRouter(nil)

	rec := do(t, r, http.MethodGet, "/version")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var v handler.VersionResponse
	decodeEnvelope(t, rec, &v)
	if v.Version == "" {
		t.Error("version is empty")
	}
	if v.DriftLimitMs != 300000 {
		t.Errorf("drift_limit_ms = %d, want 300000", v.DriftLimitMs)
	}
	if v.RegistrationTTLMs != 86400000 {
		t.Errorf("registration_ttl_ms = %d, want 86400000", v.RegistrationTTLMs)
	}
}

func TestRouter_Metrics(t *testing.T) {
	r, reg := newTestRouter(nil)

	do(t, r, http.MethodGet, "/healthz")
	rec := do(t, r, http.MethodGet, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "ndep_enrollment_outcomes_total") {
		t.Error("metrics body missing enrollment outcomes")
	}

	got := testutil.ToFloat64(reg.RequestsTotal.WithLabelValues(http.MethodGet, "/healthz", "200"))
	if got != 1 {
		t.Errorf("healthz request count = %v, want 1", got)
	}
}

func TestRouter_NotFoundAndMethod(t *testing.T) {
	r, _ := newTestRouter(nil)

	if rec := do(t, r, http.MethodGet, "/enroll"); rec.Code != http.StatusNotFound {
		t.Errorf("GET /enroll = %d, want 404", rec.Code)
	}
	if rec := do(t, r, http.MethodPost, "/healthz"); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST /healthz = %d, want 405", rec.Code)
	}
}

func TestRequestID_Propagates(t *testing.T) {
	var seen string
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestIDFromContext(r.Context())
	}), RequestID())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "01HF3Q7Z8K4N6M2P0R5S9T1V3W")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if seen != "01HF3Q7Z8K4N6M2P0R5S9T1V3W" {
		t.Errorf("context request id = %q", seen)
	}
	if rec.Header().Get("X-Request-ID") != seen {
		t.Errorf("header request id = %q", rec.Header().Get("X-Request-ID"))
	}
}

func TestRequestID_GeneratesULID(t *testing.T) {
	h := Chain(http.NotFoundHandler(), RequestID())

	rec1 := httptest.NewRecorder()
	h.ServeHTTP(rec1, httptest.NewRequest(http.MethodGet, "/", nil))
	rec2 := httptest.NewRecorder()
	h.ServeHTTP(rec2, httptest.NewRequest(http.MethodGet, "/", nil))

	id1, id2 := rec1.Header().Get("X-Request-ID"), rec2.Header().Get("X-Request-ID")
	if len(id1) != 26 || len(id2) != 26 {
		t.Fatalf("ids = %q, %q; want 26-char ULIDs", id1, id2)
	}
	if id1 >= id2 {
		t.Errorf("ids not monotonic: %s >= %s", id1, id2)
	}
}

func TestRecover(t *testing.T) {
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}), Recover(quietLogger()), RequestID())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if rec.Header().Get("X-Error-Code") != "ZTE-SYS-5000" {
		t.Errorf("X-Error-Code = %q", rec.Header().Get("X-Error-Code"))
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name   string
		remote string
		header map[string]string
		want   string
	}{
		{"remote addr", "192.168.1.40:51234", nil, "192.168.1.40"},
		{"ipv6", "[::1]:8080", nil, "::1"},
		{"forwarded for", "127.0.0.1:1", map[string]string{"X-Forwarded-For": "10.0.0.9, 127.0.0.1"}, "10.0.0.9"},
		{"real ip", "127.0.0.1:1", map[string]string{"X-Real-IP": "10.0.0.7"}, "10.0.0.7"},
		{"no port", "10.0.0.3", nil, "10.0.0.3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.header {
				r.Header.Set(k, v)
			}
			if got := getClientIP(r); got != tt.want {
				t.Errorf("getClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
