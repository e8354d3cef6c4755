package respond

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"

	"lexiq-backend/internal/shared/telemetry"
)

func TestErrorEnvelopeAndLog(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	telemetry.SetOutput(&buf)
	t.Cleanup(func() { telemetry.SetOutput(os.Stdout) })

	router := gin.New()
	router.POST("/x", func(c *gin.Context) {
		c.Request = c.Request.WithContext(telemetry.WithRequestID(c.Request.Context(), "req-9"))
		SetAnalysisID(c, "an-1")
		Error(c, http.StatusUnprocessableEntity, "no_clauses_identified", "No clauses.", FieldIssue{Field: "file", Issue: "unreadable"})
	})
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/x", nil))

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.Code)
	}
	if got := resp.Header().Get("Cache-Control"); got != "no-store" {
		t.Fatalf("expected no-store, got %q", got)
	}
	var body Envelope
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != "no_clauses_identified" || body.Error.Message != "No clauses." || len(body.Error.Fields) != 1 {
		t.Fatalf("unexpected body %+v", body)
	}

	var line map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("decode log: %v", err)
	}
	if line["level"] != "warn" || line["request_id"] != "req-9" || line["analysis_id"] != "an-1" {
		t.Fatalf("unexpected log line %v", line)
	}
}

func TestErrorOmitsEmptyDetails(t *testing.T) {
	gin.SetMode(gin.TestMode)
	telemetry.SetOutput(&bytes.Buffer{})
	t.Cleanup(func() { telemetry.SetOutput(os.Stdout) })

	router := gin.New()
	router.GET("/x", func(c *gin.Context) { Error(c, http.StatusBadGateway, "analysis_failed", "Failed.") })
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/x", nil))

	want := `{"error":{"code":"analysis_failed","message":"Failed."}}`
	if resp.Body.String() != want {
		t.Fatalf("body = %s, want %s", resp.Body.String(), want)
	}
}

func TestOKWritesJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/x", func(c *gin.Context) { OK(c, gin.H{"ok": true}) })
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/x", nil))
	if resp.Code != http.StatusOK || resp.Body.String() != `{"ok":true}` {
		t.Fatalf("unexpected response %d %s", resp.Code, resp.Body.String())
	}
	if resp.Header().Get("Cache-Control") != "no-store" {
		t.Fatalf("expected no-store")
	}
}
