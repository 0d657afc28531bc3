package main

import (
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/Aashish23092/ocr-document-filing/classifier"
	"github.com/Aashish23092/ocr-document-filing/client"
	"github.com/Aashish23092/ocr-document-filing/config"
	"github.com/Aashish23092/ocr-document-filing/extractor"
	"github.com/Aashish23092/ocr-document-filing/handler"
	"github.com/Aashish23092/ocr-document-filing/logging"
	"github.com/Aashish23092/ocr-document-filing/metrics"
	"github.com/Aashish23092/ocr-document-filing/service"
)

const serviceName = "ocr-document-filing"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.New(serviceName, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	keywords, err := config.LoadKeywordConfig(cfg.Classifier.KeywordFile)
	if err != nil {
		logger.Error("failed to load keyword buckets", "error", err)
		os.Exit(1)
	}
	cls, err := classifier.New(keywords)
	if err != nil {
		logger.Error("invalid keyword buckets", "error", err)
		os.Exit(1)
	}

	tesseractClient := client.NewTesseractClient(cfg.OCR.TesseractDataPath, cfg.OCR.Language)
	defer tesseractClient.Close()

	labelingClient, err := client.NewLabelingClient(client.LabelingConfig{
		BaseURL:             cfg.Labeling.BaseURL,
		APIKey:              cfg.Labeling.APIKey,
		Timeout:             cfg.Labeling.Timeout,
		BreakerMinRequests:  cfg.Labeling.BreakerMinRequests,
		BreakerFailureRatio: cfg.Labeling.BreakerFailureRatio,
		BreakerOpenTimeout:  cfg.Labeling.BreakerOpenTimeout,
	})
	if err != nil {
		logger.Error("failed to create labeling client", "error", err)
		os.Exit(1)
	}

	pdfProcessor := service.NewPDFProcessor()
	ocrService := service.NewOCRService(tesseractClient, pdfProcessor, cfg.OCR.Timeout, logger)
	pipelineMetrics := metrics.NewPipelineMetrics(serviceName)

	documentService := service.NewDocumentService(
		cls,
		extractor.Default(),
		ocrService,
		labelingClient,
		service.DocumentServiceConfig{
			ModelIDs:              cfg.Labeling.ModelIDs(),
			EnforceClassification: cfg.Classifier.Enforce,
		},
		pipelineMetrics,
		logger,
	)
	if cfg.Classifier.EInvoiceQR {
		documentService.WithSupplement(extractor.GST.Category, service.NewEInvoiceReader(pdfProcessor, logger))
	}

	documentHandler := handler.NewDocumentHandler(documentService, cfg.Server.MaxFileSize, cfg.Server.UploadDir, logger)

	router := gin.New()
	router.Use(gin.Recovery())

	router.MaxMultipartMemory = 32 << 20

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": serviceName,
		})
	})
	router.GET("/metrics", gin.WrapH(pipelineMetrics.Handler()))

	documentHandler.Register(router.Group("/api/v1"))

	logger.Info("starting document filing service",
		"port", cfg.Server.Port,
		"categories", extractor.Default().Categories(),
		"enforce_classification", cfg.Classifier.Enforce,
	)
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
