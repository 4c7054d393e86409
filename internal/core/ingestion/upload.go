package ingestion

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"code.sajari.com/docconv"
)

// UploadExtractor converts uploaded files (PDF, Office documents, plain
// text) to normalized text locally via docconv. Uploads never go through
// the remote parser; the file is already in our object store.
type UploadExtractor struct {
	maxContent int
	useOCR     bool
}

func NewUploadExtractor(maxContent int, useOCR bool) *UploadExtractor {
	return &UploadExtractor{maxContent: maxContent, useOCR: useOCR}
}

func (e *UploadExtractor) Extract(ctx context.Context, r io.Reader, contentType string) (*Extraction, error) {
	start := time.Now()

	res, err := docconv.Convert(r, contentType, e.useOCR)
	if err != nil {
		return nil, fmt.Errorf("convert %s: %w", contentType, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content := strings.TrimSpace(res.Body)
	if content == "" {
		return nil, ErrNoContent
	}

	content, truncated := CapContent(content, e.maxContent)

	meta := contentStats(content)
	meta.Title = res.Meta["Title"]
	meta.ProcessingMethod = "direct-fetch"
	meta.DurationMS = time.Since(start).Milliseconds()
	meta.Truncated = truncated

	return &Extraction{Content: content, Metadata: meta}, nil
}
