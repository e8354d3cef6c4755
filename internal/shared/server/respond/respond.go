// Package respond writes API responses. Every body is marked no-store: results
// quote contract text.
package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lexiq-backend/internal/shared/telemetry"
)

const analysisIDKey = "analysisId"

// Problem is the body of an error response.
type Problem struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Fields  []FieldIssue `json:"details,omitempty"`
}

// FieldIssue points at one invalid request field.
type FieldIssue struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

// Envelope wraps Problem as {"error": {...}}.
type Envelope struct {
	Error Problem `json:"error"`
}

// SetAnalysisID tags the request with the analysis it produced so access and
// error logs can be joined with pipeline logs.
func SetAnalysisID(c *gin.Context, id string) {
	c.Set(analysisIDKey, id)
}

// AnalysisID returns the id stored by SetAnalysisID, or "".
func AnalysisID(c *gin.Context) string {
	return c.GetString(analysisIDKey)
}

// OK writes payload as 200 JSON.
func OK(c *gin.Context, payload any) {
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, payload)
}

// Error logs the failure and aborts with the error envelope. message is shown to
// end users and must not carry internal detail.
func Error(c *gin.Context, status int, code, message string, fields ...FieldIssue) {
	logFields := map[string]any{
		"status":     status,
		"code":       code,
		"message":    message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": telemetry.RequestID(c.Request.Context()),
	}
	if id := AnalysisID(c); id != "" {
		logFields["analysis_id"] = id
	}
	if status >= http.StatusInternalServerError {
		telemetry.Error("http.error", logFields)
	} else {
		telemetry.Warn("http.error", logFields)
	}

	c.Header("Cache-Control", "no-store")
	c.AbortWithStatusJSON(status, Envelope{Error: Problem{Code: code, Message: message, Fields: fields}})
}
