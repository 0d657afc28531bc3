package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aashish23092/ocr-document-filing/classifier"
	"github.com/Aashish23092/ocr-document-filing/dto"
	"github.com/Aashish23092/ocr-document-filing/extractor"
	"github.com/Aashish23092/ocr-document-filing/metrics"
)

type fakeRecognizer struct {
	text  string
	err   error
	calls int
}

func (f *fakeRecognizer) RecognizeText(_ context.Context, _ string) (string, error) {
	f.calls++
	return f.text, f.err
}

type fakeLabeler struct {
	predictions dto.PredictionList
	err         error
	modelIDs    []string
}

func (f *fakeLabeler) LabelDocument(_ context.Context, _ string, modelID string) (dto.PredictionList, error) {
	f.modelIDs = append(f.modelIDs, modelID)
	return f.predictions, f.err
}

type fakeSource dto.PredictionList

func (f fakeSource) Predictions(string) dto.PredictionList {
	return dto.PredictionList(f)
}

func newTestService(t *testing.T, ocr TextRecognizer, labeler DocumentLabeler, enforce bool) *DocumentService {
	t.Helper()
	cls, err := classifier.New(classifier.DefaultConfig())
	require.NoError(t, err)

	return NewDocumentService(
		cls,
		extractor.Default(),
		ocr,
		labeler,
		DocumentServiceConfig{
			ModelIDs:              map[string]string{"gst": "gst-model", "itr": "itr-model", "epf": "epf-model"},
			EnforceClassification: enforce,
		},
		metrics.NewPipelineMetrics("test"),
		slog.New(slog.DiscardHandler),
	)
}

func TestClassify(t *testing.T) {
	svc := newTestService(t, &fakeRecognizer{}, &fakeLabeler{}, false)

	tests := []struct {
		name  string
		text  string
		label string
		date  string
	}{
		{"form 16", "FORM NO. 16\nCertificate dated 12/05/2023", "ITR Filing", "12/05/2023"},
		{"gst supply", "place of supply: karnataka\ninvoice date 2023-04-01", "GST Filing", "2023-04-01"},
		{"provident fund", "Employees Provident Fund challan for March 5, 2024", "PF Filing", "march 5, 2024"},
		{"empty", "", dto.UnknownDocumentType, dto.NoDateFound},
		{"no keyword", "hello world", dto.UnknownDocumentType, dto.NoDateFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := svc.Classify(tt.text)
			assert.Equal(t, tt.label, got.Classification)
			assert.Equal(t, tt.date, got.Date)
		})
	}
}

func TestClassify_DateLowercasedWithText(t *testing.T) {
	svc := newTestService(t, &fakeRecognizer{}, &fakeLabeler{}, false)

	got := svc.Classify("Supply on MARCH 5, 2024")
	assert.Equal(t, "GST Filing", got.Classification)
	assert.Equal(t, "march 5, 2024", got.Date)
}

func TestClassifyDocument(t *testing.T) {
	ocr := &fakeRecognizer{text: "supply of goods 01/02/2024"}
	svc := newTestService(t, ocr, &fakeLabeler{}, false)

	got, err := svc.ClassifyDocument(WithDocumentID(context.Background(), "doc-1"), "invoice.png")
	require.NoError(t, err)
	assert.Equal(t, dto.ClassificationResult{Classification: "GST Filing", Date: "01/02/2024"}, got)
}

func TestClassifyDocument_RecognitionError(t *testing.T) {
	ocr := &fakeRecognizer{err: fmt.Errorf("%w: timed out", dto.ErrUpstreamUnavailable)}
	svc := newTestService(t, ocr, &fakeLabeler{}, false)

	_, err := svc.ClassifyDocument(context.Background(), "invoice.png")
	assert.ErrorIs(t, err, dto.ErrUpstreamUnavailable)
}

func TestExtractDocument_GST(t *testing.T) {
	labeler := &fakeLabeler{predictions: dto.PredictionList{
		{Label: "gstin", Text: "29ABCDE1234F1Z5"},
		{Label: "cgst_amount", Text: "1,234.50"},
		{Label: "email", Text: "doc@x.com"},
	}}
	svc := newTestService(t, &fakeRecognizer{text: "tax invoice\nplace of supply"}, labeler, true)

	rec, err := svc.ExtractDocument(context.Background(), "GST", "invoice.pdf", "caller@x.com")
	require.NoError(t, err)

	assert.Equal(t, []string{"gst-model"}, labeler.modelIDs)
	assert.Equal(t, "29ABCDE1234F1Z5", rec.String("gstin"))
	assert.Equal(t, 1234.5, rec.Number("cgst"))
	assert.Equal(t, 0.0, rec.Number("sgst"))
	assert.Equal(t, "NULL", rec.String("ctin"))
	assert.Equal(t, "caller@x.com", rec.String("email"))
	assert.ElementsMatch(t, []string{"sgst", "totalAmount"}, rec.Defaulted())
}

func TestExtractDocument_ClassificationGate(t *testing.T) {
	ocr := &fakeRecognizer{text: "employees provident fund organisation"}
	labeler := &fakeLabeler{}
	svc := newTestService(t, ocr, labeler, true)

	_, err := svc.ExtractDocument(context.Background(), "gst", "challan.pdf", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, dto.ErrCategoryMismatch)
	assert.Empty(t, labeler.modelIDs, "labeling must not run for a rejected document")

	var extErr *dto.ExtractionError
	require.True(t, errors.As(err, &extErr))
	assert.Equal(t, "gst", extErr.Category)
	assert.Contains(t, extErr.Error(), "PF Filing")
}

func TestExtractDocument_UnknownClassificationIsRejected(t *testing.T) {
	svc := newTestService(t, &fakeRecognizer{text: ""}, &fakeLabeler{}, true)

	_, err := svc.ExtractDocument(context.Background(), "itr", "blank.pdf", "")
	assert.ErrorIs(t, err, dto.ErrCategoryMismatch)
}

func TestExtractDocument_GateDisabled(t *testing.T) {
	ocr := &fakeRecognizer{text: "employees provident fund organisation"}
	labeler := &fakeLabeler{predictions: dto.PredictionList{{Label: "pan_no", Text: "ABCDE1234F"}}}
	svc := newTestService(t, ocr, labeler, false)

	rec, err := svc.ExtractDocument(context.Background(), "itr", "form16.pdf", "")
	require.NoError(t, err)
	assert.Equal(t, 0, ocr.calls)
	assert.Equal(t, "ABCDE1234F", rec.String("panNo"))
	assert.Equal(t, "", rec.String("period.from"))
}

func TestExtractDocument_EPFAlias(t *testing.T) {
	labeler := &fakeLabeler{predictions: dto.PredictionList{{Label: "member", Text: "42"}}}
	svc := newTestService(t, &fakeRecognizer{text: "provident fund"}, labeler, true)

	rec, err := svc.ExtractDocument(context.Background(), "pf", "ecr.pdf", "")
	require.NoError(t, err)
	assert.Equal(t, "epf", rec.Category)
	assert.Equal(t, []string{"epf-model"}, labeler.modelIDs)
	assert.Equal(t, 42.0, rec.Number("member"))
}

func TestExtractDocument_LabelingFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"upstream", fmt.Errorf("%w: status 503", dto.ErrUpstreamUnavailable), dto.ErrUpstreamUnavailable},
		{"malformed", fmt.Errorf("%w: no result", dto.ErrMalformedResponse), dto.ErrMalformedResponse},
		{"transport", errors.New("connection reset"), dto.ErrUpstreamUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, &fakeRecognizer{}, &fakeLabeler{err: tt.err}, false)

			rec, err := svc.ExtractDocument(context.Background(), "gst", "invoice.pdf", "")
			assert.Nil(t, rec)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestExtractDocument_UnknownCategory(t *testing.T) {
	labeler := &fakeLabeler{}
	svc := newTestService(t, &fakeRecognizer{}, labeler, true)

	_, err := svc.ExtractDocument(context.Background(), "vat", "invoice.pdf", "")
	assert.ErrorIs(t, err, dto.ErrUnknownCategory)
	assert.Empty(t, labeler.modelIDs)
}

func TestExtractDocument_SupplementFillsGaps(t *testing.T) {
	labeler := &fakeLabeler{predictions: dto.PredictionList{{Label: "gstin", Text: "LABELED"}}}
	svc := newTestService(t, &fakeRecognizer{}, labeler, false).
		WithSupplement("gst", fakeSource{
			{Label: "gstin", Text: "FROMQR"},
			{Label: "ctin", Text: "27BUYER0000A1Z5"},
			{Label: "total_amount", Text: "1180"},
		})

	rec, err := svc.ExtractDocument(context.Background(), "gst", "invoice.pdf", "")
	require.NoError(t, err)
	assert.Equal(t, "LABELED", rec.String("gstin"))
	assert.Equal(t, "27BUYER0000A1Z5", rec.String("ctin"))
	assert.Equal(t, 1180.0, rec.Number("totalAmount"))
}

func TestExtractDocument_SupplementOnlyForItsCategory(t *testing.T) {
	labeler := &fakeLabeler{predictions: dto.PredictionList{}}
	svc := newTestService(t, &fakeRecognizer{}, labeler, false).
		WithSupplement("gst", fakeSource{{Label: "email", Text: "qr@x.com"}})

	rec, err := svc.ExtractDocument(context.Background(), "epf", "ecr.pdf", "")
	require.NoError(t, err)
	assert.Equal(t, "", rec.String("email"))
}

func TestExtractText(t *testing.T) {
	svc := newTestService(t, &fakeRecognizer{}, &fakeLabeler{}, true)

	text := "TRRN No: 9876543210\nEstablishment Name: Acme Textiles\nMembers: 12\nEmail: hr@acme.in"
	rec, err := svc.ExtractText(context.Background(), "epf", text, "")
	require.NoError(t, err)

	assert.Equal(t, "9876543210", rec.String("trrnNo"))
	assert.Equal(t, "acme textiles", rec.String("establishmentName"))
	assert.Equal(t, 12.0, rec.Number("member"))
	assert.Equal(t, "hr@acme.in", rec.String("email"))
}

func TestExtractText_UnknownCategory(t *testing.T) {
	svc := newTestService(t, &fakeRecognizer{}, &fakeLabeler{}, false)

	_, err := svc.ExtractText(context.Background(), "vat", "anything", "")
	assert.ErrorIs(t, err, dto.ErrUnknownCategory)
}

func TestDocumentID(t *testing.T) {
	assert.Equal(t, "", DocumentID(context.Background()))
	assert.Equal(t, "abc", DocumentID(WithDocumentID(context.Background(), "abc")))
}
