package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"finhealth/pkg/metrics"

	"github.com/gen2brain/go-fitz"
	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"go.uber.org/zap"
)

// PDFRenderer rasterises PDF pages for OCR.
type PDFRenderer interface {
	Open(data []byte) (RenderedPDF, error)
}

type RenderedPDF interface {
	NumPage() int
	PagePNG(page int) ([]byte, error)
	Close() error
}

type pdfExtractor struct {
	countPages func(data []byte) (int, error)
	readText   func(data []byte) (string, error)
	renderer   PDFRenderer
	ocr        OCREngine
	ocrEnabled bool
	logger     *zap.Logger
}

// pdfResult is the text of a PDF plus how it was obtained.
type pdfResult struct {
	text   string
	pages  int
	method string
}

func (p *pdfExtractor) extract(ctx context.Context, data []byte) (*pdfResult, error) {
	// corrupt, truncated and password-protected files stop here
	pages, err := p.countPages(data)
	if err != nil {
		return nil, &ParseError{Format: "pdf", Err: fmt.Errorf("validate: %w", err)}
	}

	text, err := p.readText(data)
	if err != nil {
		return nil, &ParseError{Format: "pdf", Err: err}
	}
	if strings.TrimSpace(text) != "" {
		return &pdfResult{text: text, pages: pages, method: "pdf-text"}, nil
	}

	if !p.ocrEnabled || p.ocr == nil || p.renderer == nil {
		return nil, ErrOCRDisabled
	}

	p.logger.Info("PDF has no text layer, falling back to OCR", zap.Int("pages", pages))
	text, rendered, err := p.recognize(ctx, data)
	if err != nil {
		return nil, err
	}
	return &pdfResult{text: text, pages: rendered, method: "pdf-ocr"}, nil
}

// recognize rasterises every page and runs it through a single OCR worker.
func (p *pdfExtractor) recognize(ctx context.Context, data []byte) (string, int, error) {
	doc, err := p.renderer.Open(data)
	if err != nil {
		return "", 0, &ParseError{Format: "pdf", Err: err}
	}
	defer doc.Close()

	worker, err := p.ocr.NewWorker(ctx)
	if err != nil {
		return "", 0, fmt.Errorf("failed to start OCR worker: %w", err)
	}
	defer func() {
		if cerr := worker.Close(); cerr != nil {
			p.logger.Warn("Failed to close OCR worker", zap.Error(cerr))
		}
	}()

	var sb strings.Builder
	n := doc.NumPage()
	for i := 0; i < n; i++ {
		img, err := doc.PagePNG(i)
		if err != nil {
			return "", 0, &ParseError{Format: "pdf", Err: fmt.Errorf("render page %d: %w", i+1, err)}
		}
		pageText, err := worker.Recognize(ctx, img)
		if err != nil {
			return "", 0, fmt.Errorf("ocr page %d: %w", i+1, err)
		}
		metrics.OCRPagesTotal.Inc()
		sb.WriteString(pageText)
		sb.WriteString("\n")
	}
	return sb.String(), n, nil
}

// pdfcpuPageCount validates the document structure and counts its pages.
func pdfcpuPageCount(data []byte) (int, error) {
	return api.PageCount(bytes.NewReader(data), nil)
}

// readPDFTextLayer concatenates the plain text of every page in order.
func readPDFTextLayer(data []byte) (text string, err error) {
	defer func() {
		// the reader panics on some malformed streams
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		sb.WriteString(strings.TrimSpace(pageText))
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

// FitzRenderer renders pages with MuPDF.
type FitzRenderer struct {
	DPI float64
}

func (f FitzRenderer) Open(data []byte) (RenderedPDF, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, err
	}
	dpi := f.DPI
	if dpi <= 0 {
		dpi = 144
	}
	return &fitzDocument{doc: doc, dpi: dpi}, nil
}

type fitzDocument struct {
	doc *fitz.Document
	dpi float64
}

func (d *fitzDocument) NumPage() int { return d.doc.NumPage() }

func (d *fitzDocument) PagePNG(page int) ([]byte, error) {
	return d.doc.ImagePNG(page, d.dpi)
}

func (d *fitzDocument) Close() error { return d.doc.Close() }
