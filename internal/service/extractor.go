package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"finhealth/pkg/config"
	"finhealth/pkg/metrics"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ExtractedDocument is the text (and, for tabular formats, the rows) pulled
// out of an uploaded statement.
type ExtractedDocument struct {
	Filename string
	Format   string
	Method   string
	Text     string
	Rows     [][]string
	Pages    int
}

var imageFormats = map[string]bool{"png": true, "jpg": true, "jpeg": true, "bmp": true, "tiff": true}

// Extractor turns uploaded files into analysable text.
type Extractor struct {
	pdf           *pdfExtractor
	ocr           OCREngine
	ocrEnabled    bool
	maxTextLength int
	logger        *zap.Logger
}

// NewExtractor wires the production PDF stack. ocr may be nil, in which case
// images are rejected and scanned PDFs fail.
func NewExtractor(ocr OCREngine, cfg *config.OCRConfig, maxTextLength int, logger *zap.Logger) *Extractor {
	enabled := cfg.Enabled && ocr != nil
	return &Extractor{
		pdf: &pdfExtractor{
			countPages: pdfcpuPageCount,
			readText:   readPDFTextLayer,
			renderer:   FitzRenderer{DPI: cfg.RasterDPI},
			ocr:        ocr,
			ocrEnabled: enabled,
			logger:     logger,
		},
		ocr:           ocr,
		ocrEnabled:    enabled,
		maxTextLength: maxTextLength,
		logger:        logger,
	}
}

// SupportedFormats lists the extensions Extract accepts in the current mode.
func (e *Extractor) SupportedFormats() []string {
	formats := []string{"txt", "csv", "xls", "xlsx", "pdf"}
	if e.ocrEnabled {
		formats = append(formats, "png", "jpg", "jpeg", "bmp", "tiff")
	}
	return formats
}

func (e *Extractor) Extract(ctx context.Context, filename string, data []byte) (*ExtractedDocument, error) {
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if format == "tif" {
		format = "tiff"
	}

	ctx, span := otel.Tracer("finhealth/service").Start(ctx, "extractor.Extract")
	defer span.End()
	span.SetAttributes(attribute.String("file.format", format), attribute.Int("file.size", len(data)))

	start := time.Now()
	doc := &ExtractedDocument{Filename: filename, Format: format}

	switch {
	case format == "txt":
		doc.Method = "passthrough"
		doc.Text = string(data)
	case format == "csv":
		doc.Method = "passthrough"
		doc.Text = string(data)
		doc.Rows = readCSV(sanitizeUTF8(doc.Text))
	case format == "xlsx" || format == "xls":
		rows, err := e.readSpreadsheet(format, data)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		doc.Method = "spreadsheet"
		doc.Rows = rows
		doc.Text = flattenRows(rows)
	case format == "pdf":
		res, err := e.pdf.extract(ctx, data)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		doc.Method = res.method
		doc.Text = res.text
		doc.Pages = res.pages
	case imageFormats[format]:
		if !e.ocrEnabled {
			return nil, fmt.Errorf("%w: %s (OCR disabled)", ErrUnsupportedFormat, format)
		}
		text, err := e.recognizeImage(ctx, format, data)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		doc.Method = "image-ocr"
		doc.Text = strings.TrimSpace(text)
		doc.Pages = 1
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	doc.Text = truncateRunes(sanitizeUTF8(doc.Text), e.maxTextLength)
	metrics.ExtractionDuration.WithLabelValues(format).Observe(time.Since(start).Seconds())

	e.logger.Info("Text extracted",
		zap.String("file", filename),
		zap.String("format", format),
		zap.String("method", doc.Method),
		zap.Int("pages", doc.Pages),
		zap.Int("rows", len(doc.Rows)),
		zap.Int("text_length", len(doc.Text)),
	)
	return doc, nil
}

func (e *Extractor) readSpreadsheet(format string, data []byte) ([][]string, error) {
	if format == "xls" {
		return readXLS(data)
	}
	return readXLSX(data)
}

// recognizeImage runs a single OCR pass over an image file.
func (e *Extractor) recognizeImage(ctx context.Context, format string, data []byte) (string, error) {
	img, err := normalizeImage(format, data)
	if err != nil {
		return "", err
	}

	worker, err := e.ocr.NewWorker(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to start OCR worker: %w", err)
	}
	defer func() {
		if cerr := worker.Close(); cerr != nil {
			e.logger.Warn("Failed to close OCR worker", zap.Error(cerr))
		}
	}()

	text, err := worker.Recognize(ctx, img)
	if err != nil {
		return "", fmt.Errorf("ocr %s: %w", format, err)
	}
	metrics.OCRPagesTotal.Inc()
	return text, nil
}
