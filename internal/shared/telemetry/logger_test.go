package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
)

func TestErrorWritesJSONLine(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(os.Stdout) })

	Error("analysis.failed", map[string]any{
		"kind":  "analysis_failed",
		"error": errors.New("upstream 503"),
	})

	line := strings.TrimSpace(buf.String())
	var payload map[string]any
	if err := json.Unmarshal([]byte(line), &payload); err != nil {
		t.Fatalf("decode log line %q: %v", line, err)
	}
	if payload["level"] != "error" {
		t.Fatalf("level = %v, want error", payload["level"])
	}
	if payload["msg"] != "analysis.failed" {
		t.Fatalf("msg = %v", payload["msg"])
	}
	if payload["error"] != "upstream 503" {
		t.Fatalf("error field = %v, want flattened error string", payload["error"])
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("missing ts field in %v", payload)
	}
}

func TestInfoAndWarnLevels(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(os.Stdout) })

	Info("one", nil)
	Warn("two", map[string]any{"n": 2})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}
	for i, want := range []string{"info", "warn"} {
		var payload map[string]any
		if err := json.Unmarshal([]byte(lines[i]), &payload); err != nil {
			t.Fatalf("decode line %d: %v", i, err)
		}
		if payload["level"] != want {
			t.Fatalf("line %d level = %v, want %s", i, payload["level"], want)
		}
	}
}

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	if got := RequestID(ctx); got != "req-1" {
		t.Fatalf("RequestID = %q, want req-1", got)
	}
	if got := RequestID(context.Background()); got != "" {
		t.Fatalf("expected empty request id, got %q", got)
	}
	if WithRequestID(context.Background(), "") != context.Background() {
		t.Fatalf("empty id should leave ctx untouched")
	}
}
