package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Aashish23092/ocr-document-filing/dto"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/sony/gobreaker/v2"
)

const labelFileSchema = `{
  "type": "object",
  "required": ["result"],
  "properties": {
    "result": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["prediction"],
        "properties": {
          "prediction": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["label"],
              "properties": {
                "label":    {"type": "string"},
                "ocr_text": {"type": "string"},
                "score":    {"type": "number"}
              }
            }
          }
        }
      }
    }
  }
}`

// LabelingConfig configures the structured-labeling service.
type LabelingConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration

	BreakerMinRequests  uint32
	BreakerFailureRatio float64
	BreakerOpenTimeout  time.Duration
}

// LabelingClient uploads documents to a category-specific labeling model
// and returns its predictions. Calls are not retried; a circuit breaker
// stops hammering the service while it is failing.
type LabelingClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	schema     *jsonschema.Schema
	breaker    *gobreaker.CircuitBreaker[dto.PredictionList]
}

func NewLabelingClient(cfg LabelingConfig) (*LabelingClient, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("labelfile.json", strings.NewReader(labelFileSchema)); err != nil {
		return nil, fmt.Errorf("failed to load response schema: %w", err)
	}
	schema, err := compiler.Compile("labelfile.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile response schema: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	minRequests := cfg.BreakerMinRequests
	if minRequests == 0 {
		minRequests = 5
	}
	failureRatio := cfg.BreakerFailureRatio
	if failureRatio <= 0 || failureRatio > 1 {
		failureRatio = 0.5
	}
	openTimeout := cfg.BreakerOpenTimeout
	if openTimeout <= 0 {
		openTimeout = 30 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker[dto.PredictionList](gobreaker.Settings{
		Name:        "labeling",
		MaxRequests: 1,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < minRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= failureRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, dto.ErrUpstreamUnavailable)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit_breaker_state_change", "operation", name, "from", from.String(), "to", to.String())
		},
	})

	return &LabelingClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		schema:     schema,
		breaker:    breaker,
	}, nil
}

// LabelDocument uploads the file at path to the labeling model modelID.
// Transport failures and non-200 statuses wrap dto.ErrUpstreamUnavailable;
// payloads without a prediction list wrap dto.ErrMalformedResponse.
func (lc *LabelingClient) LabelDocument(ctx context.Context, path, modelID string) (dto.PredictionList, error) {
	if modelID == "" {
		return nil, fmt.Errorf("%w: no labeling model configured", dto.ErrUpstreamUnavailable)
	}

	predictions, err := lc.breaker.Execute(func() (dto.PredictionList, error) {
		return lc.labelFile(ctx, path, modelID)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", dto.ErrUpstreamUnavailable, err)
	}
	return predictions, err
}

func (lc *LabelingClient) labelFile(ctx context.Context, path, modelID string) (dto.PredictionList, error) {
	body, contentType, err := multipartFile(path)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/%s/LabelFile/", lc.baseURL, modelID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build labeling request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.SetBasicAuth(lc.apiKey, "")

	resp, err := lc.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to call labeling API: %v", dto.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read labeling response: %v", dto.ErrUpstreamUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: labeling API returned status %d", dto.ErrUpstreamUnavailable, resp.StatusCode)
	}

	return lc.decode(payload)
}

func (lc *LabelingClient) decode(payload []byte) (dto.PredictionList, error) {
	var raw any
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", dto.ErrMalformedResponse, err)
	}
	if err := lc.schema.Validate(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", dto.ErrMalformedResponse, err)
	}

	var result dto.LabelFileResponse
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", dto.ErrMalformedResponse, err)
	}
	return result.Predictions()
}

func multipartFile(path string) (io.Reader, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	buf := new(bytes.Buffer)
	w := multipart.NewWriter(buf)
	part, err := w.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("failed to copy file: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finalize form: %w", err)
	}

	return buf, w.FormDataContentType(), nil
}
