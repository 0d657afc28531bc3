package service

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Aashish23092/ocr-document-filing/dto"
	"github.com/Aashish23092/ocr-document-filing/utils"
)

// minTextLayer is the shortest embedded text layer trusted before a PDF is
// treated as scanned and sent through image OCR.
const minTextLayer = 20

// ImageRecognizer is the OCR engine behind OCRService.
type ImageRecognizer interface {
	ExtractTextAndQuality(filePath string) (string, float64, error)
	ExtractTextFromImage(img image.Image) (string, float64, error)
}

// OCRService turns a document on disk into normalized text.
type OCRService struct {
	recognizer   ImageRecognizer
	pdfProcessor PDFProcessor
	timeout      time.Duration
	logger       *slog.Logger
}

func NewOCRService(recognizer ImageRecognizer, pdfProcessor PDFProcessor, timeout time.Duration, logger *slog.Logger) *OCRService {
	if logger == nil {
		logger = slog.Default()
	}
	return &OCRService{
		recognizer:   recognizer,
		pdfProcessor: pdfProcessor,
		timeout:      timeout,
		logger:       logger,
	}
}

// RecognizeText reads the document at path and returns its text, pages
// separated by "--- Page N ---" markers. A blank result is valid.
func (s *OCRService) RecognizeText(ctx context.Context, path string) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)

	go func() {
		text, err := s.recognize(path)
		done <- result{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%w: text recognition for %s: %v", dto.ErrUpstreamUnavailable, path, ctx.Err())
	case r := <-done:
		if r.err != nil {
			return "", r.err
		}
		return utils.NormalizeText(r.text), nil
	}
}

func (s *OCRService) recognize(path string) (string, error) {
	if !dto.IsPDF(path) {
		text, conf, err := s.recognizer.ExtractTextAndQuality(path)
		if err != nil {
			return "", fmt.Errorf("image OCR failed: %w", err)
		}
		s.logger.Debug("image recognized", "path", path, "confidence", conf)
		return joinPages([]string{text}), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	pages, err := s.pdfProcessor.ExtractPages(data, "")
	if err != nil {
		s.logger.Warn("pdf text layer extraction failed", "path", path, "error", err)
	}

	text := joinPages(pages)
	if len(strings.TrimSpace(strings.Join(pages, ""))) >= minTextLayer {
		return text, nil
	}

	s.logger.Info("pdf has minimal embedded text, running image OCR", "path", path)

	images, imgErr := s.pdfProcessor.ExtractImages(data, "")
	if imgErr != nil {
		if err != nil {
			return "", fmt.Errorf("failed to read pdf %s: %w", path, imgErr)
		}
		s.logger.Warn("pdf image extraction failed", "path", path, "error", imgErr)
		return text, nil
	}

	scanned := make([]string, 0, len(images))
	for i, img := range images {
		pageText, conf, ocrErr := s.recognizer.ExtractTextFromImage(img)
		if ocrErr != nil {
			s.logger.Warn("page OCR failed", "path", path, "page", i+1, "error", ocrErr)
			scanned = append(scanned, "")
			continue
		}
		s.logger.Debug("page recognized", "path", path, "page", i+1, "confidence", conf)
		scanned = append(scanned, pageText)
	}

	if len(scanned) == 0 {
		return text, nil
	}
	return joinPages(scanned), nil
}

func joinPages(pages []string) string {
	var sb strings.Builder
	for i, page := range pages {
		fmt.Fprintf(&sb, "\n\n--- Page %d ---\n", i+1)
		sb.WriteString(page)
	}
	return sb.String()
}
