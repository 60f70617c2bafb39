package datasheet

import (
	"context"
	"testing"
)

func TestNormalizeWhitespace(t *testing.T) {
	got := normalizeWhitespace("  Aristo\n500ix\t CE \r\n 500A  ")
	if got != "Aristo 500ix CE 500A" {
		t.Fatalf("normalizeWhitespace() = %q", got)
	}
}

func TestExtractHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewExtractor().Extract(ctx, "ignored.pdf"); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestExtractMissingFile(t *testing.T) {
	if _, err := NewExtractor().Extract(context.Background(), "/nonexistent/sheet.pdf"); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
