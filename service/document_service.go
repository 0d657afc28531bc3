package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Aashish23092/ocr-document-filing/classifier"
	"github.com/Aashish23092/ocr-document-filing/dto"
	"github.com/Aashish23092/ocr-document-filing/extractor"
	"github.com/Aashish23092/ocr-document-filing/metrics"
	"github.com/Aashish23092/ocr-document-filing/utils"
)

// TextRecognizer produces normalized document text.
type TextRecognizer interface {
	RecognizeText(ctx context.Context, path string) (string, error)
}

// DocumentLabeler produces a prediction list for a document.
type DocumentLabeler interface {
	LabelDocument(ctx context.Context, path, modelID string) (dto.PredictionList, error)
}

// PredictionSource contributes supplementary predictions for a document.
// It never fails; a document it cannot read yields nil.
type PredictionSource interface {
	Predictions(path string) dto.PredictionList
}

type DocumentServiceConfig struct {
	// ModelIDs maps a category to its labeling model.
	ModelIDs map[string]string

	// EnforceClassification rejects documents whose classification does
	// not match the requested category.
	EnforceClassification bool
}

// DocumentService assembles classification and extraction results.
type DocumentService struct {
	classifier *classifier.Classifier
	extractor  *extractor.Extractor
	ocr        TextRecognizer
	labeler    DocumentLabeler
	supplement map[string]PredictionSource
	cfg        DocumentServiceConfig
	metrics    *metrics.PipelineMetrics
	logger     *slog.Logger
}

func NewDocumentService(
	cls *classifier.Classifier,
	ext *extractor.Extractor,
	ocr TextRecognizer,
	labeler DocumentLabeler,
	cfg DocumentServiceConfig,
	m *metrics.PipelineMetrics,
	logger *slog.Logger,
) *DocumentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentService{
		classifier: cls,
		extractor:  ext,
		ocr:        ocr,
		labeler:    labeler,
		supplement: make(map[string]PredictionSource),
		cfg:        cfg,
		metrics:    m,
		logger:     logger,
	}
}

// WithSupplement registers a prediction source consulted after labeling for
// category. Its predictions are appended, so labeled values win.
func (s *DocumentService) WithSupplement(category string, src PredictionSource) *DocumentService {
	s.supplement[strings.ToLower(category)] = src
	return s
}

// Classify assigns a category label and the most prominent date to text.
func (s *DocumentService) Classify(text string) dto.ClassificationResult {
	start := time.Now()
	text = utils.NormalizeText(text)

	result := dto.ClassificationResult{
		Classification: s.classifier.Classify(text),
		Date:           utils.ExtractDate(text),
	}

	if s.metrics != nil {
		s.metrics.ObserveClassification(result.Classification)
		s.metrics.ObserveStage("classify", time.Since(start))
	}
	return result
}

// ClassifyDocument recognizes the document at path and classifies its text.
func (s *DocumentService) ClassifyDocument(ctx context.Context, path string) (dto.ClassificationResult, error) {
	text, err := s.recognize(ctx, path)
	if err != nil {
		return dto.ClassificationResult{}, err
	}

	result := s.Classify(text)
	s.logger.InfoContext(ctx, "document classified",
		"document_id", DocumentID(ctx),
		"classification", result.Classification,
		"date", result.Date,
	)
	return result, nil
}

// ExtractFields builds the category record from a prediction list or text.
func (s *DocumentService) ExtractFields(ctx context.Context, category string, in extractor.Input, email string) (*extractor.Record, error) {
	start := time.Now()
	rec, err := s.extractor.Extract(category, in, email)
	if s.metrics != nil {
		s.metrics.ObserveStage("extract", time.Since(start))
		s.metrics.ObserveExtraction(strings.ToLower(category), err)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "field extraction failed",
			"document_id", DocumentID(ctx),
			"category", category,
			"error", err,
		)
		return nil, err
	}

	if defaulted := rec.Defaulted(); len(defaulted) > 0 {
		s.logger.InfoContext(ctx, "numeric fields defaulted to 0",
			"document_id", DocumentID(ctx),
			"category", rec.Category,
			"fields", defaulted,
		)
		if s.metrics != nil {
			s.metrics.ObserveDefaulted(rec.Category, defaulted)
		}
	}
	return rec, nil
}

// ExtractText runs unstructured extraction over already recognized text.
func (s *DocumentService) ExtractText(ctx context.Context, category, text, email string) (*extractor.Record, error) {
	return s.ExtractFields(ctx, category, extractor.FromText(text), email)
}

// ExtractDocument runs the full structured path for the document at path:
// optional classification gate, labeling, supplementary predictions and
// field extraction.
func (s *DocumentService) ExtractDocument(ctx context.Context, category, path, email string) (*extractor.Record, error) {
	schema, err := s.extractor.Schema(category)
	if err != nil {
		if s.metrics != nil {
			s.metrics.ObserveExtraction("unknown", err)
		}
		return nil, err
	}

	if s.cfg.EnforceClassification {
		if err := s.checkCategory(ctx, schema, path); err != nil {
			if s.metrics != nil {
				s.metrics.ObserveExtraction(schema.Category, err)
			}
			return nil, err
		}
	}

	predictions, err := s.label(ctx, schema.Category, path)
	if err != nil {
		if s.metrics != nil {
			s.metrics.ObserveExtraction(schema.Category, err)
		}
		return nil, err
	}

	if src, ok := s.supplement[schema.Category]; ok {
		if extra := src.Predictions(path); len(extra) > 0 {
			s.logger.InfoContext(ctx, "supplementary predictions added",
				"document_id", DocumentID(ctx),
				"category", schema.Category,
				"count", len(extra),
			)
			predictions = append(predictions, extra...)
		}
	}

	return s.ExtractFields(ctx, schema.Category, extractor.FromPredictions(predictions), email)
}

func (s *DocumentService) checkCategory(ctx context.Context, schema *extractor.Schema, path string) error {
	text, err := s.recognize(ctx, path)
	if err != nil {
		return dto.NewExtractionError(dto.ErrUpstreamUnavailable, schema.Category, "text recognition failed", err)
	}

	label := s.classifier.Classify(text)
	if s.metrics != nil {
		s.metrics.ObserveClassification(label)
	}
	if !schema.Accepts(label) {
		s.logger.WarnContext(ctx, "document rejected by classification",
			"document_id", DocumentID(ctx),
			"category", schema.Category,
			"classification", label,
		)
		return dto.NewExtractionError(dto.ErrCategoryMismatch, schema.Category,
			fmt.Sprintf("document classified as %q, expected a %s document", label, strings.ToUpper(schema.Category)), nil)
	}
	return nil
}

func (s *DocumentService) label(ctx context.Context, category, path string) (dto.PredictionList, error) {
	start := time.Now()
	predictions, err := s.labeler.LabelDocument(ctx, path, s.cfg.ModelIDs[category])
	if s.metrics != nil {
		s.metrics.ObserveStage("labeling", time.Since(start))
	}
	if err != nil {
		kind := dto.ErrUpstreamUnavailable
		if errors.Is(err, dto.ErrMalformedResponse) {
			kind = dto.ErrMalformedResponse
		}
		s.logger.ErrorContext(ctx, "labeling failed",
			"document_id", DocumentID(ctx),
			"category", category,
			"error", err,
		)
		return nil, dto.NewExtractionError(kind, category, "labeling service call failed", err)
	}

	s.logger.DebugContext(ctx, "document labeled",
		"document_id", DocumentID(ctx),
		"category", category,
		"predictions", len(predictions),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return predictions, nil
}

func (s *DocumentService) recognize(ctx context.Context, path string) (string, error) {
	start := time.Now()
	text, err := s.ocr.RecognizeText(ctx, path)
	if s.metrics != nil {
		s.metrics.ObserveStage("ocr", time.Since(start))
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "text recognition failed",
			"document_id", DocumentID(ctx),
			"error", err,
		)
		return "", err
	}
	return text, nil
}

type documentIDKey struct{}

// WithDocumentID attaches a per-request document ID used in log lines.
func WithDocumentID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, documentIDKey{}, id)
}

// DocumentID returns the document ID attached to ctx, if any.
func DocumentID(ctx context.Context) string {
	id, _ := ctx.Value(documentIDKey{}).(string)
	return id
}
