package connection

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rob-jonesdevlab/ods-signage/internal/infra/buildinfo"
)

// OpsClient queries the enrollment server's ops HTTP endpoints.
type OpsClient struct {
	baseURL string
	client  *http.Client
}

// NewOpsClient creates a client for server, which may omit the scheme.
func NewOpsClient(server string, timeout time.Duration) *OpsClient {
	baseURL := strings.TrimRight(server, "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}
	if timeout <= 0 {
		timeout = DefaultSendTimeout
	}

	return &OpsClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the base URL of the client.
func (c *OpsClient) BaseURL() string {
	return c.baseURL
}

// ServerInfo is the data block of GET /version.
type ServerInfo struct {
	buildinfo.Info
	DriftLimitMs      int64 `json:"drift_limit_ms"`
	RegistrationTTLMs int64 `json:"registration_ttl_ms"`

	// ServerTime is the envelope timestamp of the response.
	ServerTime time.Time `json:"-"`
}

// DriftLimit returns the server's freshness window.
func (i *ServerInfo) DriftLimit() time.Duration {
	return time.Duration(i.DriftLimitMs) * time.Millisecond
}

// Readiness is the data block of GET /readyz.
type Readiness struct {
	Status string            `json:"status"`
	Time   string            `json:"time"`
	Checks map[string]string `json:"checks,omitempty"`
}

// envelope mirrors the server's response wrapper.
type envelope struct {
	Code      string          `json:"code"`
	Message   string          `json:"message"`
	RequestID string          `json:"request_id"`
	Timestamp int64           `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
	Details   json.RawMessage `json:"details,omitempty"`
}

// Version fetches GET /version.
func (c *OpsClient) Version(ctx context.Context) (*ServerInfo, error) {
	var info ServerInfo
	env, err := c.get(ctx, "/version", &info)
	if err != nil {
		return nil, err
	}
	if env.Timestamp > 0 {
		info.ServerTime = time.UnixMilli(env.Timestamp)
	}
	return &info, nil
}

// Ready fetches GET /readyz. A not-ready server returns its check results
// together with a non-nil error.
func (c *OpsClient) Ready(ctx context.Context) (*Readiness, error) {
	var r Readiness
	_, err := c.get(ctx, "/readyz", &r)
	return &r, err
}

func (c *OpsClient) get(ctx context.Context, path string, target any) (*envelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "ndep-device/"+buildinfo.Version)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	return parseResponse(resp, target)
}

// parseResponse decodes the envelope. Error responses carry their payload
// in details; it is still decoded into target.
func parseResponse(resp *http.Response, target any) (*envelope, error) {
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("request failed with status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("parse response: %w", err)
	}

	if resp.StatusCode >= 400 {
		if target != nil && len(env.Details) > 0 {
			_ = json.Unmarshal(env.Details, target)
		}
		if env.Message != "" {
			return &env, fmt.Errorf("[%s] %s", env.Code, env.Message)
		}
		return &env, fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	if target != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, target); err != nil {
			return &env, fmt.Errorf("parse response: %w", err)
		}
	}
	return &env, nil
}
