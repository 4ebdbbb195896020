package connection

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewOpsClient(t *testing.T) {
	tests := []struct {
		name   string
		server string
		want   string
	}{
		{"with http prefix", "http://localhost:9998", "http://localhost:9998"},
		{"with https prefix", "https://ops.example.com", "https://ops.example.com"},
		{"without prefix", "localhost:9998", "http://localhost:9998"},
		{"trailing slash", "http://localhost:9998/", "http://localhost:9998"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewOpsClient(tt.server, 0).BaseURL(); got != tt.want {
				t.Errorf("BaseURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOpsClient_Version(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/version" {
			t.Errorf("path = %q, want /version", r.URL.Path)
		}
		if !strings.HasPrefix(r.Header.Get("User-Agent"), "ndep-device/") {
			t.Errorf("User-Agent = %q", r.Header.Get("User-Agent"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"code":"OK","message":"Success","request_id":"r1","timestamp":1,
			"data":{"version":"v1.2.0","commit":"abc","build_time":"t","go_version":"go1.24",
			"drift_limit_ms":300000,"registration_ttl_ms":86400000}}`))
	}))
	defer server.Close()

	info, err := NewOpsClient(server.URL, time.Second).Version(context.Background())
	if err != nil {
		t.Fatalf("Version() error = %v", err)
	}
	if info.Version != "v1.2.0" {
		t.Errorf("Version = %q, want v1.2.0", info.Version)
	}
	if info.DriftLimitMs != 300000 || info.RegistrationTTLMs != 86400000 {
		t.Errorf("windows = %d/%d", info.DriftLimitMs, info.RegistrationTTLMs)
	}
	if info.DriftLimit() != 5*time.Minute {
		t.Errorf("DriftLimit() = %v, want 5m", info.DriftLimit())
	}
	if info.ServerTime.UnixMilli() != 1 {
		t.Errorf("ServerTime = %v, want envelope timestamp", info.ServerTime)
	}
}

func TestOpsClient_Ready(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantErr    bool
		wantStatus string
	}{
		{
			name:       "ready",
			status:     http.StatusOK,
			body:       `{"code":"OK","message":"Success","data":{"status":"ready","checks":{"store":"ok"}}}`,
			wantStatus: "ready",
		},
		{
			name:       "not ready",
			status:     http.StatusServiceUnavailable,
			body:       `{"code":"ZTE-SYS-5030","message":"not ready","details":{"status":"not_ready","checks":{"store":"dial tcp: refused"}}}`,
			wantErr:    true,
			wantStatus: "not_ready",
		},
		{
			name:    "non json error",
			status:  http.StatusBadGateway,
			body:    `bad gateway`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			r, err := NewOpsClient(server.URL, time.Second).Ready(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("Ready() error = %v, wantErr %v", err, tt.wantErr)
			}
			if r.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", r.Status, tt.wantStatus)
			}
		})
	}
}

func TestOpsClient_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	if _, err := NewOpsClient(url, time.Second).Version(context.Background()); err == nil {
		t.Error("Version() against closed server should fail")
	}
}
