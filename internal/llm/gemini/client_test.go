package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/sashabaranov/go-openai/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lexiq-backend/internal/llm"
)

func riskRequest() llm.Request {
	return llm.Request{
		Name:        "assess_risk",
		Instruction: "assess",
		Document:    &llm.Document{MimeType: "application/pdf", Data: "JVBERi0="},
		Safety: []llm.SafetySetting{
			{Category: "HARM_CATEGORY_DANGEROUS_CONTENT", Threshold: "BLOCK_ONLY_HIGH"},
		},
		Schema: jsonschema.Definition{
			Type:     jsonschema.Object,
			Required: []string{"riskAssessment"},
			Properties: map[string]jsonschema.Definition{
				"riskAssessment": {
					Type: jsonschema.Array,
					Items: &jsonschema.Definition{
						Type:     jsonschema.Object,
						Required: []string{"severity"},
						Properties: map[string]jsonschema.Definition{
							"severity": {Type: jsonschema.String, Enum: []string{"low", "medium", "high"}},
						},
						AdditionalProperties: false,
					},
				},
			},
		},
	}
}

func newServer(t *testing.T, status int, body string) (*httptest.Server, func() map[string]any) {
	t.Helper()
	var mu sync.Mutex
	var last map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		if !strings.HasSuffix(r.URL.Path, "/models/gemini-2.0-flash:generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		mu.Lock()
		last = payload
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, func() map[string]any {
		mu.Lock()
		defer mu.Unlock()
		return last
	}
}

func newTestClient(t *testing.T, endpoint string) *Client {
	t.Helper()
	client, err := NewClient(context.Background(), Options{APIKey: "test-key", Model: "models/gemini-2.0-flash", Endpoint: endpoint})
	require.NoError(t, err)
	return client
}

func TestGenerateSendsInlineDocumentSchemaAndSafety(t *testing.T) {
	srv, lastBody := newServer(t, http.StatusOK, `{
		"candidates":[{"finishReason":"STOP","content":{"role":"model","parts":[{"text":"{\"riskAssessment\":[]}"}]}}],
		"usageMetadata":{"promptTokenCount":12,"candidatesTokenCount":4,"totalTokenCount":16}
	}`)
	client := newTestClient(t, srv.URL)

	raw, err := client.Generate(context.Background(), riskRequest())
	require.NoError(t, err)
	assert.JSONEq(t, `{"riskAssessment":[]}`, string(raw))

	body := lastBody()
	contents := body["contents"].([]any)
	parts := contents[0].(map[string]any)["parts"].([]any)
	require.Len(t, parts, 2)
	assert.Equal(t, "assess", parts[0].(map[string]any)["text"])
	inline := parts[1].(map[string]any)["inlineData"].(map[string]any)
	assert.Equal(t, "application/pdf", inline["mimeType"])
	assert.Equal(t, "JVBERi0=", inline["data"])

	cfg := body["generationConfig"].(map[string]any)
	assert.Equal(t, "application/json", cfg["responseMimeType"])
	schema := cfg["responseSchema"].(map[string]any)
	assert.Equal(t, "OBJECT", schema["type"])

	safety := body["safetySettings"].([]any)
	require.Len(t, safety, 1)
	assert.Equal(t, "BLOCK_ONLY_HIGH", safety[0].(map[string]any)["threshold"])
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "prompt blocked", status: http.StatusOK, body: `{"promptFeedback":{"blockReason":"SAFETY"}}`, wantErr: llm.ErrBlocked},
		{name: "candidate blocked", status: http.StatusOK, body: `{"candidates":[{"finishReason":"SAFETY"}]}`, wantErr: llm.ErrBlocked},
		{name: "no candidates", status: http.StatusOK, body: `{"candidates":[]}`, wantErr: llm.ErrEmptyResponse},
		{name: "empty text", status: http.StatusOK, body: `{"candidates":[{"finishReason":"STOP","content":{"parts":[{"text":" "}]}}]}`, wantErr: llm.ErrEmptyResponse},
		{name: "api error", status: http.StatusInternalServerError, body: `{"error":{"code":500,"message":"backend error","status":"INTERNAL"}}`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newServer(t, tt.status, tt.body)
			client := newTestClient(t, srv.URL)
			_, err := client.Generate(context.Background(), riskRequest())
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			}
		})
	}
}

func TestConvertSchema(t *testing.T) {
	out := ConvertSchema(riskRequest().Schema)
	assert.Equal(t, "OBJECT", out.Type)
	assert.Equal(t, []string{"riskAssessment"}, out.Required)

	arr := out.Properties["riskAssessment"]
	assert.Equal(t, "ARRAY", arr.Type)
	require.NotNil(t, arr.Items)
	sev := arr.Items.Properties["severity"]
	assert.Equal(t, "STRING", sev.Type)
	assert.Equal(t, "enum", sev.Format)
	assert.Equal(t, []string{"low", "medium", "high"}, sev.Enum)
}

func TestNewClientRequiresCredentialsAndModel(t *testing.T) {
	_, err := NewClient(context.Background(), Options{Model: "gemini-2.0-flash"})
	assert.Error(t, err)
	_, err = NewClient(context.Background(), Options{APIKey: "k"})
	assert.Error(t, err)
	_, err = NewClient(context.Background(), Options{AccessToken: "tok", Model: "gemini-2.0-flash"})
	assert.NoError(t, err)
}
