// Package extract implements the TextExtractor collaborator spec.md §1
// treats as external: turning an uploaded file's bytes into raw text plus
// parser metadata. PDF text comes from the eino-ext PDF parser; pdfcpu runs
// first as a crop pass that strips running headers/footers (the same
// margin-crop idiom the pack's RAG loader uses before handing pages to an
// embedder), which measurably helps section classification on résumés
// exported with a running header on every page.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	einoParser "github.com/cloudwego/eino/components/document/parser"
	pdfcpuAPI "github.com/pdfcpu/pdfcpu/pkg/api"
	pdfcpuModel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	pdfcpuTypes "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"resumatch/internal/domain"
)

// marginPoints is how much to crop off the top and bottom of every page
// before text extraction, in PDF points (1pt = 1/72in). 36pt (~0.5in) clears
// a typical running header/footer line without eating into body content.
const marginPoints = 36.0

// Result is what a TextExtractor produces: raw text plus parser metadata.
// The ingestion orchestrator copies its parser_used, page_count and
// extraction_time_ms entries onto the Document; other entries are not stored.
type Result struct {
	Text     string
	Metadata map[string]any
}

// TextExtractor turns uploaded bytes into text. filename drives format
// dispatch.
type TextExtractor interface {
	Extract(ctx context.Context, filename string, data []byte) (Result, error)
}

// DefaultExtractor dispatches by file extension: PDF via pdfcpu-crop +
// eino-ext text extraction, plain text for everything else spec.md treats
// as already-text.
type DefaultExtractor struct {
	pdfParser *pdf.PDFParser
}

// New builds a DefaultExtractor. ctx is only used to construct the eino PDF
// parser, not retained.
func New(ctx context.Context) (*DefaultExtractor, error) {
	p, err := pdf.NewPDFParser(ctx, &pdf.Config{ToPages: false})
	if err != nil {
		return nil, fmt.Errorf("extract: creating eino pdf parser: %w", err)
	}
	return &DefaultExtractor{pdfParser: p}, nil
}

// Extract dispatches on filename suffix.
func (e *DefaultExtractor) Extract(ctx context.Context, filename string, data []byte) (Result, error) {
	switch {
	case strings.HasSuffix(strings.ToLower(filename), ".pdf"):
		return e.extractPDF(ctx, filename, data)
	default:
		return Result{
			Text:     string(data),
			Metadata: map[string]any{"parser_used": "plaintext"},
		}, nil
	}
}

func (e *DefaultExtractor) extractPDF(ctx context.Context, filename string, data []byte) (Result, error) {
	start := time.Now()

	cropped, wasCropped := cropHeaderFooter(data)

	callCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	docs, err := e.pdfParser.Parse(callCtx, bytes.NewReader(cropped), einoParser.WithURI(filename))
	if err != nil {
		return Result{}, domain.NewValidationError("extract.Extract", fmt.Sprintf("could not parse PDF %q: %v", filename, err))
	}
	if len(docs) == 0 {
		return Result{}, domain.NewValidationError("extract.Extract", fmt.Sprintf("PDF %q produced no text", filename))
	}

	var text strings.Builder
	for i, d := range docs {
		text.WriteString(d.Content)
		if i < len(docs)-1 {
			text.WriteString("\n\n")
		}
	}

	return Result{
		Text: text.String(),
		Metadata: map[string]any{
			"parser_used":        "eino-pdf",
			"page_count":         len(docs),
			"cropped":            wasCropped,
			"extraction_time_ms": time.Since(start).Milliseconds(),
		},
	}, nil
}

// cropHeaderFooter runs pdfcpu's crop over a temp file and returns the
// cropped bytes. pdfcpu's CropFile operates on paths, not readers, so this
// writes and reads a scratch file; failure is non-fatal — the original
// bytes are extracted uncropped rather than failing the whole upload over a
// cosmetic preprocessing step.
func cropHeaderFooter(data []byte) ([]byte, bool) {
	dir, err := os.MkdirTemp("", "resumatch-pdf-*")
	if err != nil {
		return data, false
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "in.pdf")
	out := filepath.Join(dir, "out.pdf")
	if err := os.WriteFile(in, data, 0o600); err != nil {
		return data, false
	}

	box, err := pdfcpuModel.ParseBox(
		fmt.Sprintf("%.1f 0 %.1f 0", marginPoints, marginPoints),
		pdfcpuTypes.POINTS,
	)
	if err != nil {
		return data, false
	}

	conf := pdfcpuAPI.LoadConfiguration()
	if err := pdfcpuAPI.CropFile(in, out, []string{"1-"}, box, conf); err != nil {
		return data, false
	}

	croppedBytes, err := os.ReadFile(out)
	if err != nil {
		return data, false
	}
	return croppedBytes, true
}
