package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Aashish23092/ocr-document-filing/dto"
	"github.com/Aashish23092/ocr-document-filing/extractor"
	"github.com/Aashish23092/ocr-document-filing/service"
)

// DocumentIDHeader carries the per-request document ID back to the caller.
const DocumentIDHeader = "X-Document-ID"

// DocumentProcessor is the classification and extraction pipeline.
type DocumentProcessor interface {
	Classify(text string) dto.ClassificationResult
	ClassifyDocument(ctx context.Context, path string) (dto.ClassificationResult, error)
	ExtractDocument(ctx context.Context, category, path, email string) (*extractor.Record, error)
	ExtractText(ctx context.Context, category, text, email string) (*extractor.Record, error)
}

type DocumentHandler struct {
	documents   DocumentProcessor
	maxFileSize int64
	uploadDir   string
	logger      *slog.Logger
}

func NewDocumentHandler(documents DocumentProcessor, maxFileSize int64, uploadDir string, logger *slog.Logger) *DocumentHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentHandler{
		documents:   documents,
		maxFileSize: maxFileSize,
		uploadDir:   uploadDir,
		logger:      logger,
	}
}

// Register mounts the document routes on group.
func (h *DocumentHandler) Register(group *gin.RouterGroup) {
	documents := group.Group("/documents")
	{
		documents.POST("/classify", h.ClassifyDocument)
		documents.POST("/classify-text", h.ClassifyText)
		documents.POST("/:category/extract", h.ExtractDocument)
		documents.POST("/:category/extract-text", h.ExtractText)
	}
}

// ClassifyDocument handles POST /documents/classify
func (h *DocumentHandler) ClassifyDocument(c *gin.Context) {
	ctx := h.begin(c)

	path, cleanup, err := h.receiveUpload(ctx, c)
	if err != nil {
		h.sendError(c, "CLASSIFICATION_FAILED", err)
		return
	}
	defer cleanup()

	result, err := h.documents.ClassifyDocument(ctx, path)
	if err != nil {
		h.sendError(c, "CLASSIFICATION_FAILED", err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ClassifyText handles POST /documents/classify-text
func (h *DocumentHandler) ClassifyText(c *gin.Context) {
	h.begin(c)

	var req dto.TextClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendError(c, "CLASSIFICATION_FAILED", errors.Join(dto.ErrInvalidUpload, err))
		return
	}

	c.JSON(http.StatusOK, h.documents.Classify(req.Text))
}

// ExtractDocument handles POST /documents/:category/extract
func (h *DocumentHandler) ExtractDocument(c *gin.Context) {
	ctx := h.begin(c)
	category := c.Param("category")

	path, cleanup, err := h.receiveUpload(ctx, c)
	if err != nil {
		h.sendExtractionError(c, err)
		return
	}
	defer cleanup()

	rec, err := h.documents.ExtractDocument(ctx, category, path, c.PostForm("email"))
	if err != nil {
		h.sendExtractionError(c, err)
		return
	}

	c.JSON(http.StatusOK, rec)
}

// ExtractText handles POST /documents/:category/extract-text
func (h *DocumentHandler) ExtractText(c *gin.Context) {
	ctx := h.begin(c)

	var req dto.TextExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendExtractionError(c, errors.Join(dto.ErrInvalidUpload, err))
		return
	}

	rec, err := h.documents.ExtractText(ctx, c.Param("category"), req.Text, req.Email)
	if err != nil {
		h.sendExtractionError(c, err)
		return
	}

	c.JSON(http.StatusOK, rec)
}

// begin assigns the document ID for the request.
func (h *DocumentHandler) begin(c *gin.Context) context.Context {
	id := uuid.NewString()
	c.Header(DocumentIDHeader, id)
	h.logger.Info("document request received",
		"document_id", id,
		"path", c.FullPath(),
		"category", c.Param("category"),
	)
	return service.WithDocumentID(c.Request.Context(), id)
}

// receiveUpload validates the multipart "file" field and stores it on disk
// for the OCR and labeling clients.
func (h *DocumentHandler) receiveUpload(ctx context.Context, c *gin.Context) (string, func(), error) {
	file, err := c.FormFile("file")
	if err != nil {
		return "", nil, errors.Join(dto.ErrInvalidUpload, err)
	}

	req := &dto.DocumentUploadRequest{File: file, Email: c.PostForm("email")}
	if err := req.Validate(h.maxFileSize); err != nil {
		return "", nil, err
	}

	name := service.DocumentID(ctx)
	if name == "" {
		name = uuid.NewString()
	}
	path := filepath.Join(h.dir(), name+strings.ToLower(filepath.Ext(file.Filename)))
	if err := c.SaveUploadedFile(file, path); err != nil {
		return "", nil, err
	}

	return path, func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			h.logger.Warn("failed to remove upload", "path", path, "error", err)
		}
	}, nil
}

func (h *DocumentHandler) dir() string {
	if h.uploadDir != "" {
		return h.uploadDir
	}
	return os.TempDir()
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, dto.ErrInvalidUpload):
		return http.StatusBadRequest
	case errors.Is(err, dto.ErrUnknownCategory):
		return http.StatusNotFound
	case errors.Is(err, dto.ErrCategoryMismatch):
		return http.StatusUnprocessableEntity
	case errors.Is(err, dto.ErrUpstreamUnavailable), errors.Is(err, dto.ErrMalformedResponse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// sendError sends a structured error response
func (h *DocumentHandler) sendError(c *gin.Context, code string, err error) {
	status := statusFor(err)
	h.logger.Error("request failed",
		"document_id", c.Writer.Header().Get(DocumentIDHeader),
		"status", status,
		"error", err,
	)

	c.JSON(status, dto.ErrorResponse{
		Error:   code,
		Message: err.Error(),
		Code:    status,
	})
}

// sendExtractionError sends the error-only extraction record.
func (h *DocumentHandler) sendExtractionError(c *gin.Context, err error) {
	status := statusFor(err)
	h.logger.Error("extraction failed",
		"document_id", c.Writer.Header().Get(DocumentIDHeader),
		"status", status,
		"error", err,
	)

	c.JSON(status, dto.ExtractionErrorResponse{Error: err.Error()})
}
