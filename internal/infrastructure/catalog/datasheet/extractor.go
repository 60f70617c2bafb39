package datasheet

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/beedev/recommender/internal/core/ports"
)

// maxTextBytes caps how much datasheet text feeds one product embedding.
// Datasheets front-load the relevant specification tables.
const maxTextBytes = 64 * 1024

// Extractor pulls plain text out of PDF product datasheets to enrich product
// descriptions before embedding.
type Extractor struct{}

var _ ports.DatasheetExtractor = (*Extractor)(nil)

func NewExtractor() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Extract(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	file, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer file.Close()

	textReader, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text %s: %w", path, err)
	}
	raw, err := io.ReadAll(io.LimitReader(textReader, maxTextBytes))
	if err != nil {
		return "", fmt.Errorf("read pdf text %s: %w", path, err)
	}
	return normalizeWhitespace(string(raw)), nil
}

func normalizeWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
