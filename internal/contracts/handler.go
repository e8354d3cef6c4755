package contracts

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"lexiq-backend/internal/datauri"
	"lexiq-backend/internal/pdfcheck"
	"lexiq-backend/internal/shared/server/respond"
)

// Extra body allowance for the JSON envelope and multipart framing.
const bodyOverheadBytes = 64 << 10

// Handler wires HTTP handlers to the analysis service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches analysis routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/analyses", h.analyzeJSON)
	rg.POST("/analyses/upload", h.analyzeUpload)
}

func (h *Handler) analyzeJSON(c *gin.Context) {
	// base64 inflates the payload by 4/3.
	limit := h.Svc.MaxDocumentBytes()*4/3 + bodyOverheadBytes
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	var req AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if isTooLarge(err) {
			respondTooLarge(c, h.Svc.MaxDocumentBytes())
			return
		}
		respond.Error(c, http.StatusBadRequest, string(KindValidation), "Request body must be JSON with a documentData field.")
		return
	}
	if req.DocumentData == "" {
		respond.Error(c, http.StatusBadRequest, string(KindValidation), "documentData is required.", respond.FieldIssue{Field: "documentData", Issue: "required"})
		return
	}
	h.run(c, req)
}

func (h *Handler) analyzeUpload(c *gin.Context) {
	limit := h.Svc.MaxDocumentBytes() + bodyOverheadBytes
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	header, err := c.FormFile("file")
	if err != nil {
		if isTooLarge(err) {
			respondTooLarge(c, h.Svc.MaxDocumentBytes())
			return
		}
		respond.Error(c, http.StatusBadRequest, string(KindValidation), "A PDF file is required in the file field.", respond.FieldIssue{Field: "file", Issue: "required"})
		return
	}
	if header.Size > h.Svc.MaxDocumentBytes() {
		respondTooLarge(c, h.Svc.MaxDocumentBytes())
		return
	}

	f, err := header.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, string(KindValidation), "The uploaded file could not be read.")
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, h.Svc.MaxDocumentBytes()+1))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, string(KindValidation), "The uploaded file could not be read.")
		return
	}

	// The client's Content-Type is not trusted; the bytes decide.
	mimeType, _, _ := strings.Cut(http.DetectContentType(data), ";")
	if pdfcheck.HasMagic(data) {
		mimeType = pdfcheck.MimePDF
	}
	h.run(c, AnalysisRequest{
		DocumentData: datauri.FromBytes(mimeType, data).String(),
		FileName:     header.Filename,
	})
}

func (h *Handler) run(c *gin.Context, req AnalysisRequest) {
	analysis, err := h.Svc.Analyze(c.Request.Context(), req)
	if err != nil {
		var aerr *AnalysisError
		if !errors.As(err, &aerr) {
			aerr = &AnalysisError{Kind: KindAnalysisFailed, Message: MessageAnalysisFailed, Err: err}
		}
		respond.Error(c, statusForKind(aerr.Kind), string(aerr.Kind), aerr.Message)
		return
	}
	respond.SetAnalysisID(c, analysis.ID)
	respond.OK(c, analysis)
}

func statusForKind(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindTooLarge:
		return http.StatusRequestEntityTooLarge
	case KindNoClauses:
		return http.StatusUnprocessableEntity
	case KindClauseIdentification, KindAnalysisFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

func respondTooLarge(c *gin.Context, limit int64) {
	respond.Error(c, http.StatusRequestEntityTooLarge, string(KindTooLarge), "The document exceeds the "+formatSize(limit)+" limit.")
}
