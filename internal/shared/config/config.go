package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderNone   = "none"
)

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	CORSAllowOrigin []string

	LLMProvider       string
	LLMModel          string
	LLMTimeout        time.Duration
	GeminiAPIKey      string
	GeminiAccessToken string
	GeminiEndpoint    string
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	// PromptsDir, when set, replaces the embedded prompt definitions.
	PromptsDir string

	MaxUploadBytes int64
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	provider := normalizeProvider(getEnv("LLM_PROVIDER", ProviderGemini))
	return Config{
		Port:              getEnv("PORT", "8080"),
		Env:               normalizeEnv(getEnv("ENV", "dev")),
		CORSAllowOrigin:   splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000")),
		LLMProvider:       provider,
		LLMModel:          getEnv("LLM_MODEL", DefaultModel(provider)),
		LLMTimeout:        time.Duration(getEnvInt("LLM_TIMEOUT_SECONDS", 120)) * time.Second,
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", os.Getenv("GOOGLE_API_KEY")),
		GeminiAccessToken: getEnv("GEMINI_ACCESS_TOKEN", ""),
		GeminiEndpoint:    getEnv("GEMINI_ENDPOINT", ""),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", ""),
		PromptsDir:        getEnv("PROMPTS_DIR", ""),
		MaxUploadBytes:    int64(getEnvInt("MAX_UPLOAD_BYTES", 10<<20)),
	}
}

// DefaultModel returns the model used when LLM_MODEL is unset.
func DefaultModel(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return "gpt-4o-mini"
	case ProviderGemini:
		return "gemini-2.0-flash"
	default:
		return ""
	}
}

// Validate reports configuration that cannot work. A provider without
// credentials is not an error here; the server falls back to a client that
// fails every call.
func (c Config) Validate() error {
	var errs []error
	switch c.LLMProvider {
	case ProviderGemini, ProviderOpenAI, ProviderNone:
	default:
		errs = append(errs, fmt.Errorf("LLM_PROVIDER %q is not one of gemini, openai, none", c.LLMProvider))
	}
	if c.LLMProvider != ProviderNone && strings.TrimSpace(c.LLMModel) == "" {
		errs = append(errs, errors.New("LLM_MODEL is required"))
	}
	if c.LLMTimeout <= 0 {
		errs = append(errs, errors.New("LLM_TIMEOUT_SECONDS must be positive"))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_BYTES must be positive"))
	}
	return errors.Join(errs...)
}

// HasCredentials reports whether the selected provider has what it needs to
// authenticate.
func (c Config) HasCredentials() bool {
	switch c.LLMProvider {
	case ProviderGemini:
		return c.GeminiAPIKey != "" || c.GeminiAccessToken != ""
	case ProviderOpenAI:
		return c.OpenAIAPIKey != ""
	default:
		return false
	}
}

func getEnv(key, def string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return def
}

// getEnvInt returns def when the variable is unset; an unparsable value yields
// -1 so Validate reports it.
func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return v
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeProvider(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
