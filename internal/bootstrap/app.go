package bootstrap

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"lexiq-backend/internal/contracts"
	"lexiq-backend/internal/llm"
	"lexiq-backend/internal/llm/gemini"
	"lexiq-backend/internal/llm/openai"
	"lexiq-backend/internal/services/health"
	"lexiq-backend/internal/shared/config"
	"lexiq-backend/internal/shared/server"
	"lexiq-backend/internal/shared/telemetry"
)

// App holds shared dependencies.
type App struct {
	Config          config.Config
	Router          *gin.Engine
	Prompts         llm.Prompts
	LLM             llm.Client
	Analyses        *contracts.Service
	AnalysisHandler *contracts.Handler
	Health          *health.Service
}

// Build validates configuration and wires the analysis service and router.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	prompts, err := LoadPrompts(cfg)
	if err != nil {
		return nil, err
	}
	client, err := BuildLLMClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	svc, err := contracts.NewService(client, prompts, contracts.WithMaxDocumentBytes(cfg.MaxUploadBytes))
	if err != nil {
		return nil, fmt.Errorf("analysis service: %w", err)
	}

	app := &App{
		Config:          cfg,
		Prompts:         prompts,
		LLM:             client,
		Analyses:        svc,
		AnalysisHandler: contracts.NewHandler(svc),
		Health:          health.NewService(cfg.LLMProvider, cfg.LLMModel, cfg.HasCredentials()),
	}
	app.Router = server.NewRouter(server.RouterDeps{
		Config:          cfg,
		AnalysisHandler: app.AnalysisHandler,
		Health:          app.Health,
	})
	return app, nil
}

// LoadPrompts returns the embedded prompt definitions, or those in
// cfg.PromptsDir when set.
func LoadPrompts(cfg config.Config) (llm.Prompts, error) {
	if dir := strings.TrimSpace(cfg.PromptsDir); dir != "" {
		prompts, err := llm.LoadPrompts(os.DirFS(dir), ".")
		if err != nil {
			return nil, fmt.Errorf("load prompts from %s: %w", dir, err)
		}
		return prompts, nil
	}
	prompts, err := llm.DefaultPrompts()
	if err != nil {
		return nil, fmt.Errorf("load embedded prompts: %w", err)
	}
	return prompts, nil
}

// BuildLLMClient returns the configured provider client. Missing credentials
// fall back to llm.PlaceholderClient so the server can still start.
func BuildLLMClient(ctx context.Context, cfg config.Config) (llm.Client, error) {
	if cfg.LLMProvider == config.ProviderNone {
		return llm.PlaceholderClient{}, nil
	}
	if !cfg.HasCredentials() {
		telemetry.Warn("llm.not_configured", map[string]any{
			"provider": cfg.LLMProvider,
			"model":    cfg.LLMModel,
		})
		return llm.PlaceholderClient{}, nil
	}

	switch cfg.LLMProvider {
	case config.ProviderGemini:
		return gemini.NewClient(ctx, gemini.Options{
			APIKey:      cfg.GeminiAPIKey,
			AccessToken: cfg.GeminiAccessToken,
			Model:       cfg.LLMModel,
			Endpoint:    cfg.GeminiEndpoint,
			Timeout:     cfg.LLMTimeout,
		})
	case config.ProviderOpenAI:
		return openai.NewClient(openai.Options{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.LLMModel,
			BaseURL: cfg.OpenAIBaseURL,
			Timeout: cfg.LLMTimeout,
		})
	default:
		return nil, fmt.Errorf("unsupported LLM_PROVIDER %q", cfg.LLMProvider)
	}
}
