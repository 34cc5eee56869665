package service

import (
	"context"
	"fmt"
	"strings"

	"finhealth/pkg/config"

	"github.com/otiai10/gosseract/v2"
	"go.uber.org/zap"
)

// OCREngine hands out recognition workers. A worker is owned by one caller,
// used for one document and must be closed on every exit path.
type OCREngine interface {
	NewWorker(ctx context.Context) (OCRWorker, error)
}

type OCRWorker interface {
	Recognize(ctx context.Context, image []byte) (string, error)
	Close() error
}

// TesseractEngine runs OCR through libtesseract.
type TesseractEngine struct {
	cfg    *config.OCRConfig
	logger *zap.Logger
}

func NewTesseractEngine(cfg *config.OCRConfig, logger *zap.Logger) *TesseractEngine {
	return &TesseractEngine{
		cfg:    cfg,
		logger: logger,
	}
}

func (e *TesseractEngine) NewWorker(ctx context.Context) (OCRWorker, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	client := gosseract.NewClient()
	if e.cfg.TessdataPrefix != "" {
		client.SetTessdataPrefix(e.cfg.TessdataPrefix)
	}
	langs := strings.Split(e.cfg.Language, "+")
	if err := client.SetLanguage(langs...); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to set OCR language %q: %w", e.cfg.Language, err)
	}

	e.logger.Debug("OCR worker created", zap.String("language", e.cfg.Language))
	return &tesseractWorker{client: client, logger: e.logger}, nil
}

type tesseractWorker struct {
	client *gosseract.Client
	logger *zap.Logger
}

func (w *tesseractWorker) Recognize(ctx context.Context, image []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := w.client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("failed to load image: %w", err)
	}
	text, err := w.client.Text()
	if err != nil {
		return "", fmt.Errorf("failed to recognise text: %w", err)
	}
	return text, nil
}

func (w *tesseractWorker) Close() error {
	return w.client.Close()
}
