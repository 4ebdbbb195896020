package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid JSON log line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"default config", DefaultConfig(), false},
		{"text", Config{Level: "debug", Format: "text"}, false},
		{"console alias", Config{Level: "warning", Format: "console"}, false},
		{"empty level means info", Config{Format: "json"}, false},
		{"unknown level", Config{Level: "verbose", Format: "json"}, true},
		{"unknown format", Config{Level: "info", Format: "xml"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && l == nil {
				t.Fatal("New() returned nil logger")
			}
		})
	}
}

func TestNew_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Format: "text", Output: &buf})
	if err != nil {
		t.Fatal(err)
	}

	l.Info("token sent", "destination", "192.168.1.255:9999")

	out := buf.String()
	if !strings.Contains(out, "msg=\"token sent\"") || !strings.Contains(out, "destination=192.168.1.255:9999") {
		t.Errorf("unexpected text output: %s", out)
	}
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "warn", Format: "json", Output: &buf})
	if err != nil {
		t.Fatal(err)
	}
	defer SetLevel("info")

	l.Info("filtered")
	if buf.Len() != 0 {
		t.Fatalf("info logged at warn level: %s", buf.String())
	}

	if err := SetLevel("debug"); err != nil {
		t.Fatalf("SetLevel(debug) error = %v", err)
	}
	if Level() != "debug" {
		t.Errorf("Level() = %q, want debug", Level())
	}
	l.Debug("now visible")
	if !strings.Contains(buf.String(), "now visible") {
		t.Error("debug record missing after SetLevel(debug)")
	}

	if err := SetLevel("loud"); err == nil {
		t.Error("SetLevel(loud) should fail")
	}
	if Level() != "debug" {
		t.Errorf("Level() = %q after rejected change, want debug", Level())
	}
}

func TestSetLevel_SharedAcrossLoggers(t *testing.T) {
	var a, b bytes.Buffer
	la, _ := New(Config{Level: "info", Format: "json", Output: &a})
	lb, _ := New(Config{Level: "info", Format: "json", Output: &b})
	defer SetLevel("info")

	SetLevel("error")
	la.Warn("dropped")
	lb.Warn("dropped")
	if a.Len()+b.Len() != 0 {
		t.Error("warn records written after SetLevel(error)")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name  string
		valid bool
		want  string
	}{
		{"debug", true, "DEBUG"},
		{"INFO", true, "INFO"},
		{"warn", true, "WARN"},
		{"warning", true, "WARN"},
		{"Error", true, "ERROR"},
		{"", false, ""},
		{"trace", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lvl, err := ParseLevel(tt.name)
			if (err == nil) != tt.valid {
				t.Fatalf("ParseLevel(%q) error = %v", tt.name, err)
			}
			if ValidLevel(tt.name) != tt.valid {
				t.Errorf("ValidLevel(%q) = %v, want %v", tt.name, !tt.valid, tt.valid)
			}
			if tt.valid && lvl.String() != tt.want {
				t.Errorf("ParseLevel(%q) = %s, want %s", tt.name, lvl, tt.want)
			}
		})
	}
}

func TestLogger_WithKeepsContextAttrs(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatal(err)
	}

	ctx := WithRequestID(context.Background(), "01HZX")
	l.With("component", "listener").WithGroup("enrollment").InfoContext(ctx, "accepted", "outcome", "accepted")

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	if lines[0]["component"] != "listener" {
		t.Errorf("component = %v", lines[0]["component"])
	}
	group, ok := lines[0]["enrollment"].(map[string]any)
	if !ok {
		t.Fatalf("enrollment group missing: %v", lines[0])
	}
	if group["request_id"] != "01HZX" || group["outcome"] != "accepted" {
		t.Errorf("group = %v", group)
	}
}
