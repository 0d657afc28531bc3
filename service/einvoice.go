package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"

	"github.com/Aashish23092/ocr-document-filing/dto"
)

var errNoQRCode = errors.New("no e-invoice QR code found")

// eInvoicePayload is the "data" claim of the signed QR code printed on
// GST e-invoices.
type eInvoicePayload struct {
	SellerGstin string  `json:"SellerGstin"`
	BuyerGstin  string  `json:"BuyerGstin"`
	DocNo       string  `json:"DocNo"`
	DocTyp      string  `json:"DocTyp"`
	DocDt       string  `json:"DocDt"`
	TotInvVal   float64 `json:"TotInvVal"`
	ItemCnt     int     `json:"ItemCnt"`
	MainHsnCode string  `json:"MainHsnCode"`
	Irn         string  `json:"Irn"`
	IrnDt       string  `json:"IrnDt"`
}

// EInvoiceReader recovers GST fields from the e-invoice QR code when the
// document carries one.
type EInvoiceReader struct {
	pdfProcessor PDFProcessor
	logger       *slog.Logger
}

func NewEInvoiceReader(pdfProcessor PDFProcessor, logger *slog.Logger) *EInvoiceReader {
	if logger == nil {
		logger = slog.Default()
	}
	return &EInvoiceReader{pdfProcessor: pdfProcessor, logger: logger}
}

// Predictions returns the QR-derived predictions for the document at path,
// or nil when no readable e-invoice QR code is present.
func (r *EInvoiceReader) Predictions(path string) dto.PredictionList {
	images, err := r.images(path)
	if err != nil {
		r.logger.Debug("e-invoice images unavailable", "path", path, "error", err)
		return nil
	}

	for _, img := range images {
		token, err := decodeQR(img)
		if err != nil {
			continue
		}
		predictions, err := ParseEInvoiceToken(token)
		if err != nil {
			r.logger.Debug("qr code is not an e-invoice", "path", path, "error", err)
			continue
		}
		r.logger.Info("e-invoice QR code decoded", "path", path, "fields", len(predictions))
		return predictions
	}
	return nil
}

func (r *EInvoiceReader) images(path string) ([]image.Image, error) {
	if dto.IsPDF(path) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return r.pdfProcessor.ExtractImages(data, "")
	}

	img, err := decodeImageFile(path)
	if err != nil {
		return nil, err
	}
	return []image.Image{img}, nil
}

func decodeQR(img image.Image) (string, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("failed to create binary bitmap: %w", err)
	}

	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}
	result, err := qrcode.NewQRCodeReader().Decode(bmp, hints)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errNoQRCode, err)
	}
	return result.GetText(), nil
}

// ParseEInvoiceToken reads the signed e-invoice JWT and maps its payload
// onto GST labels. The signature is not verified; the token is only a
// field source.
func ParseEInvoiceToken(token string) (dto.PredictionList, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(strings.TrimSpace(token), claims); err != nil {
		return nil, fmt.Errorf("failed to parse e-invoice token: %w", err)
	}

	raw, ok := claims["data"].(string)
	if !ok {
		return nil, fmt.Errorf("e-invoice token has no data claim")
	}

	var payload eInvoicePayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse e-invoice payload: %w", err)
	}

	var predictions dto.PredictionList
	add := func(label, text string) {
		if text = strings.TrimSpace(text); text != "" {
			predictions = append(predictions, dto.Prediction{Label: label, Text: text})
		}
	}
	add("gstin", payload.SellerGstin)
	add("ctin", payload.BuyerGstin)
	add("invoice_date", payload.DocDt)
	if payload.TotInvVal > 0 {
		add("total_amount", strconv.FormatFloat(payload.TotInvVal, 'f', -1, 64))
	}

	if len(predictions) == 0 {
		return nil, fmt.Errorf("e-invoice payload carries no GST fields")
	}
	return predictions, nil
}
