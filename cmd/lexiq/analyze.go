package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"lexiq-backend/internal/bootstrap"
	"lexiq-backend/internal/contracts"
	"lexiq-backend/internal/datauri"
	"lexiq-backend/internal/report"
	"lexiq-backend/internal/shared/config"
)

type analyzeOptions struct {
	json     bool
	out      string
	provider string
	model    string
	plain    bool
}

func newAnalyzeCmd() *cobra.Command {
	var opts analyzeOptions
	cmd := &cobra.Command{
		Use:   "analyze <contract.pdf>",
		Short: "Review a single PDF contract",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args[0], opts)
		},
	}
	cmd.Flags().BoolVar(&opts.json, "json", false, "print the analysis as JSON")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "also write the JSON analysis to this path")
	cmd.Flags().StringVar(&opts.provider, "provider", "", "model provider (gemini or openai), defaults to LLM_PROVIDER")
	cmd.Flags().StringVar(&opts.model, "model", "", "model name, defaults to LLM_MODEL")
	cmd.Flags().BoolVar(&opts.plain, "plain", false, "disable colours")
	return cmd
}

func runAnalyze(cmd *cobra.Command, path string, opts analyzeOptions) error {
	cfg := config.Load()
	if p := strings.ToLower(strings.TrimSpace(opts.provider)); p != "" && p != cfg.LLMProvider {
		cfg.LLMProvider = p
		cfg.LLMModel = config.DefaultModel(p)
	}
	if m := strings.TrimSpace(opts.model); m != "" {
		cfg.LLMModel = m
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if !cfg.HasCredentials() {
		return fmt.Errorf("no credentials configured for provider %q", cfg.LLMProvider)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read contract: %w", err)
	}
	mimeType, _, _ := strings.Cut(http.DetectContentType(data), ";")

	prompts, err := bootstrap.LoadPrompts(cfg)
	if err != nil {
		return err
	}
	client, err := bootstrap.BuildLLMClient(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	svc, err := contracts.NewService(client, prompts, contracts.WithMaxDocumentBytes(cfg.MaxUploadBytes))
	if err != nil {
		return err
	}

	analysis, err := svc.Analyze(cmd.Context(), contracts.AnalysisRequest{
		DocumentData: datauri.FromBytes(mimeType, data).String(),
		FileName:     filepath.Base(path),
	})
	if outcome := contracts.NewOutcome(analysis, err); !outcome.Succeeded() {
		return errors.New(outcome.Error.Message)
	}

	if opts.out != "" {
		if err := writeJSON(opts.out, analysis); err != nil {
			return err
		}
	}
	if opts.json {
		return report.RenderJSON(cmd.OutOrStdout(), analysis)
	}
	styles := report.DefaultStyles()
	if opts.plain {
		styles = report.PlainStyles()
	}
	return report.Render(cmd.OutOrStdout(), analysis, styles)
}

func writeJSON(path string, analysis contracts.Analysis) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return report.RenderJSON(f, analysis)
}
