package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// userAgent identifies the fetcher to remote sites; robots.txt sections
// addressed to it are honored by the validator.
const userAgent = "Mozilla/5.0 (compatible; WelcomeChatBot/1.0; +https://welcome.chat)"

// WebsiteExtractor is the direct-fetch backend: it downloads a page and
// converts the HTML to Markdown locally. One attempt, no retries.
type WebsiteExtractor struct {
	client     *http.Client
	maxContent int
}

// NewWebsiteExtractor builds the extractor with the configured fetch
// timeout and content cap.
func NewWebsiteExtractor(timeout time.Duration, maxContent int) *WebsiteExtractor {
	return &WebsiteExtractor{
		client:     &http.Client{Timeout: timeout},
		maxContent: maxContent,
	}
}

var reTitle = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)

// Extract fetches the URL and returns normalized Markdown. The caller's
// context cancels the in-flight request; that case is reported as
// ErrFetchCanceled so the job can record a cancellation rather than a
// generic extraction error.
func (e *WebsiteExtractor) Extract(ctx context.Context, url string) (*Extraction, error) {
	started := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
			return nil, fmt.Errorf("%w: %s", ErrFetchCanceled, url)
		}
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: status %d %s", url, resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
			return nil, fmt.Errorf("%w: %s", ErrFetchCanceled, url)
		}
		return nil, fmt.Errorf("read %s: %w", url, err)
	}

	html := string(body)
	markdown := HTMLToMarkdown(html)
	if markdown == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoContent, url)
	}

	capped, truncated := CapContent(markdown, e.maxContent)

	meta := contentStats(capped)
	meta.Title = pageTitle(html)
	meta.ProcessingMethod = "direct-fetch"
	meta.DurationMS = time.Since(started).Milliseconds()
	meta.Truncated = truncated

	return &Extraction{Content: capped, Metadata: meta}, nil
}

func pageTitle(html string) string {
	if m := reTitle.FindStringSubmatch(html); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}
