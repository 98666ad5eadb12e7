// Package extract pulls plain text out of staged documents so the record
// database can run AI analysis on it. Extractors are tried in order and every
// failure is non-fatal.
package extract

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v7"
	"github.com/Laisky/zap"
	"github.com/ledongthuc/pdf"
)

// Extractor turns file bytes into plain text. Extract returns "" without
// error when the format is readable but carries no text.
type Extractor interface {
	Name() string
	// Match reports whether this extractor understands the file.
	Match(name, mimeType string) bool
	Extract(ctx context.Context, content []byte) (string, error)
}

// Chain tries candidates in order until one yields non-empty text.
type Chain struct {
	candidates []Extractor
}

// NewChain builds the default chain: PDF text layer first, then plain text.
func NewChain(candidates ...Extractor) *Chain {
	if len(candidates) == 0 {
		candidates = []Extractor{PDFText{}, PlainText{}}
	}

	return &Chain{candidates: candidates}
}

// Extract returns the first non-empty result. A candidate failure is logged
// and the next candidate is tried; ("", nil) means no candidate matched or
// none found text.
func (c *Chain) Extract(ctx context.Context, name, mimeType string, content []byte) (string, error) {
	logger := gmw.GetLogger(ctx)

	var lastErr error
	for _, cand := range c.candidates {
		if !cand.Match(name, mimeType) {
			continue
		}

		text, err := cand.Extract(ctx, content)
		if err != nil {
			logger.Warn("text extraction candidate failed",
				zap.String("extractor", cand.Name()),
				zap.String("file", name),
				zap.Error(err))
			lastErr = err
			continue
		}

		if text = strings.TrimSpace(text); text != "" {
			logger.Debug("extracted text",
				zap.String("extractor", cand.Name()),
				zap.Int("chars", len(text)))
			return text, nil
		}
	}

	return "", lastErr
}

// PDFText reads the text layer of a PDF. Image-only PDFs yield "".
type PDFText struct{}

func (PDFText) Name() string { return "pdf-text-layer" }

func (PDFText) Match(name, mimeType string) bool {
	return mimeType == "application/pdf" ||
		strings.EqualFold(filepath.Ext(name), ".pdf")
}

func (PDFText) Extract(_ context.Context, content []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", errors.Wrap(err, "open pdf")
	}

	var sb strings.Builder
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// a broken page does not spoil the rest
			continue
		}

		if strings.TrimSpace(text) != "" {
			sb.WriteString(text)
			sb.WriteString("\n")
		}
	}

	return sb.String(), nil
}

// PlainText passes text-bearing files through unchanged.
type PlainText struct{}

func (PlainText) Name() string { return "plain-text" }

func (PlainText) Match(name, mimeType string) bool {
	if strings.HasPrefix(mimeType, "text/") {
		return true
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".md", ".csv", ".json":
		return true
	}

	return false
}

func (PlainText) Extract(_ context.Context, content []byte) (string, error) {
	if !utf8.Valid(content) {
		return "", errors.New("not valid utf-8 text")
	}

	return string(content), nil
}
