package contracts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"lexiq-backend/internal/datauri"
	"lexiq-backend/internal/llm"
	"lexiq-backend/internal/pdfcheck"
	"lexiq-backend/internal/shared/metrics"
	"lexiq-backend/internal/shared/telemetry"
	"lexiq-backend/internal/shared/util"
)

const (
	// DefaultMaxDocumentBytes bounds the decoded PDF size.
	DefaultMaxDocumentBytes int64 = 10 << 20
	defaultFileName               = "contract.pdf"
)

// Service runs the two-stage analysis pipeline. It holds only immutable
// dependencies, so one Service can serve concurrent requests.
type Service struct {
	identifier       *ClauseIdentifier
	assessor         *RiskAssessor
	maxDocumentBytes int64
	now              func() time.Time
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithMaxDocumentBytes overrides DefaultMaxDocumentBytes.
func WithMaxDocumentBytes(n int64) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.maxDocumentBytes = n
		}
	}
}

// NewService builds both stages from the prompt definitions.
func NewService(client llm.Client, prompts llm.Prompts, opts ...ServiceOption) (*Service, error) {
	if client == nil {
		return nil, errors.New("llm client is required")
	}
	identifier, err := NewClauseIdentifier(client, prompts)
	if err != nil {
		return nil, err
	}
	assessor, err := NewRiskAssessor(client, prompts)
	if err != nil {
		return nil, err
	}
	s := &Service{
		identifier:       identifier,
		assessor:         assessor,
		maxDocumentBytes: DefaultMaxDocumentBytes,
		now:              func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// MaxDocumentBytes reports the configured document size limit.
func (s *Service) MaxDocumentBytes() int64 {
	return s.maxDocumentBytes
}

// Analyze identifies clauses, then assesses their risk. Every failure is an
// *AnalysisError whose Message is safe to show; no stage is retried.
func (s *Service) Analyze(ctx context.Context, req AnalysisRequest) (Analysis, error) {
	start := time.Now()
	analysisID := uuid.NewString()
	fields := map[string]any{
		"analysis_id": analysisID,
		"request_id":  telemetry.RequestID(ctx),
	}
	metrics.IncAnalysisStarted()

	analysis, err := s.run(ctx, analysisID, req, fields)
	durationMs := time.Since(start).Milliseconds()
	metrics.ObserveAnalysisDurationMs(float64(durationMs))
	fields["duration_ms"] = durationMs

	if err != nil {
		var aerr *AnalysisError
		if !errors.As(err, &aerr) {
			aerr = &AnalysisError{Kind: KindAnalysisFailed, Message: MessageAnalysisFailed, Err: err}
		}
		metrics.IncAnalysisFailed(string(aerr.Kind))
		fields["kind"] = string(aerr.Kind)
		fields["error"] = aerr.Err
		if aerr.Kind.ClientFault() {
			telemetry.Warn("analysis.failed", fields)
		} else {
			telemetry.Error("analysis.failed", fields)
		}
		return Analysis{}, aerr
	}

	metrics.IncAnalysisCompleted()
	fields["clause_count"] = len(analysis.Clauses)
	fields["risk_count"] = len(analysis.Risks)
	fields["language"] = analysis.Language
	telemetry.Info("analysis.completed", fields)
	return analysis, nil
}

func (s *Service) run(ctx context.Context, analysisID string, req AnalysisRequest, fields map[string]any) (Analysis, error) {
	doc, err := s.decodeDocument(req.DocumentData)
	if err != nil {
		return Analysis{}, err
	}
	fields["document_sha256"] = util.Fingerprint(doc.Data)
	fields["document_bytes"] = doc.Size()

	stageStart := time.Now()
	info, err := pdfcheck.Inspect(ctx, doc.Data)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Analysis{}, &AnalysisError{Kind: KindAnalysisFailed, Message: MessageAnalysisFailed, Err: ctxErr}
		}
		// Readability is the model's call; only the page count is lost.
		info = pdfcheck.Info{}
	}
	logStage(fields, "inspect_pdf", stageStart, err, map[string]any{"pages": info.Pages})

	fileName := defaultFileName
	if clean, err := util.SanitizeFileName(req.FileName); err == nil {
		fileName = clean
	}
	fields["file_name"] = fileName

	stageStart = time.Now()
	identified, err := s.identifier.Identify(ctx, doc)
	logStage(fields, "identify_clauses", stageStart, err, map[string]any{"clause_count": len(identified.Clauses)})
	if err != nil {
		return Analysis{}, &AnalysisError{Kind: KindClauseIdentification, Message: MessageClauseIdentification, Err: err}
	}
	if len(identified.Clauses) == 0 {
		return Analysis{}, &AnalysisError{Kind: KindNoClauses, Message: MessageNoClauses, Err: ErrNoClausesIdentified}
	}

	stageStart = time.Now()
	assessed, err := s.assessor.Assess(ctx, JoinClauses(identified.Clauses), identified.Language)
	logStage(fields, "assess_risk", stageStart, err, map[string]any{"risk_count": len(assessed.Risks)})
	if err != nil {
		return Analysis{}, &AnalysisError{Kind: KindAnalysisFailed, Message: MessageAnalysisFailed, Err: err}
	}

	language := identified.Language
	if language == "" {
		language = DefaultLanguage
	}
	return Analysis{
		ID:          analysisID,
		FileName:    fileName,
		Language:    language,
		Pages:       info.Pages,
		Clauses:     identified.Clauses,
		Risks:       assessed.Risks,
		CompletedAt: s.now(),
	}, nil
}

func (s *Service) decodeDocument(raw string) (datauri.DataURI, error) {
	doc, err := datauri.Parse(raw)
	if err != nil {
		return datauri.DataURI{}, validationError("documentData must be a base64 data URI with a MIME type.", err)
	}
	if doc.MimeType != pdfcheck.MimePDF {
		return datauri.DataURI{}, validationError("Only PDF documents are supported.", fmt.Errorf("mime type %q", doc.MimeType))
	}
	if doc.Size() > s.maxDocumentBytes {
		return datauri.DataURI{}, &AnalysisError{
			Kind:    KindTooLarge,
			Message: "The document exceeds the " + formatSize(s.maxDocumentBytes) + " limit.",
			Err:     fmt.Errorf("%w: %d bytes", ErrTooLarge, doc.Size()),
		}
	}
	if !pdfcheck.HasMagic(doc.Data) {
		return datauri.DataURI{}, validationError("The uploaded file is not a PDF document.", pdfcheck.ErrNotPDF)
	}
	return doc, nil
}

func formatSize(n int64) string {
	switch {
	case n >= 1<<20 && n%(1<<20) == 0:
		return fmt.Sprintf("%d MB", n>>20)
	case n >= 1<<10 && n%(1<<10) == 0:
		return fmt.Sprintf("%d KB", n>>10)
	default:
		return fmt.Sprintf("%d bytes", n)
	}
}

func logStage(base map[string]any, stage string, start time.Time, err error, extra map[string]any) {
	fields := map[string]any{
		"analysis_id": base["analysis_id"],
		"request_id":  base["request_id"],
		"stage":       stage,
		"duration_ms": time.Since(start).Milliseconds(),
	}
	if err != nil {
		fields["status"] = "failed"
		fields["error"] = err
		telemetry.Warn("analysis.stage", fields)
		return
	}
	for k, v := range extra {
		fields[k] = v
	}
	fields["status"] = "ok"
	telemetry.Info("analysis.stage", fields)
}
