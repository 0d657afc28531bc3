package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/Aashish23092/ocr-document-filing/classifier"
)

type Config struct {
	Server     ServerConfig
	OCR        OCRConfig
	Labeling   LabelingConfig
	Classifier ClassifierConfig
	Log        LogConfig
}

type ServerConfig struct {
	Port        string `env:"SERVER_PORT" envDefault:"8080"`
	MaxFileSize int64  `env:"MAX_FILE_SIZE" envDefault:"10485760"` // 10 MB
	UploadDir   string `env:"UPLOAD_DIR"`
}

type OCRConfig struct {
	TesseractDataPath string        `env:"TESSDATA_PREFIX" envDefault:"/usr/share/tesseract-ocr/4.00/tessdata"`
	Language          string        `env:"OCR_LANGUAGE" envDefault:"eng"`
	Timeout           time.Duration `env:"OCR_TIMEOUT" envDefault:"2m"`
}

type LabelingConfig struct {
	BaseURL             string        `env:"LABELING_BASE_URL" envDefault:"https://app.nanonets.com/api/v2/OCR/Model"`
	APIKey              string        `env:"LABELING_API_KEY"`
	Timeout             time.Duration `env:"LABELING_TIMEOUT" envDefault:"60s"`
	GSTModelID          string        `env:"GST_MODEL_ID"`
	ITRModelID          string        `env:"ITR_MODEL_ID"`
	EPFModelID          string        `env:"EPF_MODEL_ID"`
	BreakerMinRequests  uint32        `env:"LABELING_BREAKER_MIN_REQUESTS" envDefault:"5"`
	BreakerFailureRatio float64       `env:"LABELING_BREAKER_FAILURE_RATIO" envDefault:"0.5"`
	BreakerOpenTimeout  time.Duration `env:"LABELING_BREAKER_OPEN_TIMEOUT" envDefault:"30s"`
}

// ModelIDs maps each category to its labeling model.
func (c LabelingConfig) ModelIDs() map[string]string {
	return map[string]string{
		"gst": c.GSTModelID,
		"itr": c.ITRModelID,
		"epf": c.EPFModelID,
	}
}

type ClassifierConfig struct {
	KeywordFile string `env:"KEYWORD_FILE"`
	Enforce     bool   `env:"ENFORCE_CLASSIFICATION" envDefault:"true"`
	EInvoiceQR  bool   `env:"EINVOICE_QR" envDefault:"true"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Server.MaxFileSize <= 0 {
		return nil, fmt.Errorf("MAX_FILE_SIZE must be positive, got %d", cfg.Server.MaxFileSize)
	}
	if cfg.Labeling.BreakerFailureRatio <= 0 || cfg.Labeling.BreakerFailureRatio > 1 {
		return nil, fmt.Errorf("LABELING_BREAKER_FAILURE_RATIO must be in (0, 1], got %v", cfg.Labeling.BreakerFailureRatio)
	}
	return cfg, nil
}

// LoadKeywordConfig reads the classifier keyword buckets. An empty path
// yields the built-in buckets. List order in the file is registration
// order, which decides ties.
func LoadKeywordConfig(path string) (classifier.Config, error) {
	if path == "" {
		return classifier.DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return classifier.Config{}, fmt.Errorf("read keyword file: %w", err)
	}

	var cfg classifier.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return classifier.Config{}, fmt.Errorf("parse keyword file: %w", err)
	}
	if len(cfg.Rules) == 0 {
		return classifier.Config{}, errors.New("keyword file defines no keywords")
	}
	return cfg, nil
}
