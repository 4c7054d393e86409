package ingestion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/welcomechat/ingest/internal/models"
)

// ParserClient talks to a LlamaParse-compatible parsing service. One
// call is one attempt; RemoteParseExtractor owns the retry policy.
type ParserClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewParserClient(baseURL, apiKey string, timeout time.Duration) *ParserClient {
	return &ParserClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

type parseRequest struct {
	URL        string `json:"url"`
	ResultType string `json:"result_type"`
	FileType   string `json:"file_type,omitempty"`
}

// parseResponse is decoded strictly; a body that fails the strict decode
// is kept as a raw variant instead of being shape-probed at runtime.
type parseResponse struct {
	Success  bool   `json:"success"`
	Content  string `json:"content"`
	Error    string `json:"error,omitempty"`
	Metadata struct {
		Title          string `json:"title"`
		WordCount      int    `json:"word_count"`
		CharacterCount int    `json:"character_count"`
	} `json:"metadata"`
}

// Parse submits the document URL for remote extraction and returns the
// parsed content with remote-reported metadata.
func (c *ParserClient) Parse(ctx context.Context, url string, kind models.SourceKind) (*Extraction, error) {
	payload, err := json.Marshal(parseRequest{
		URL:        url,
		ResultType: "markdown",
		FileType:   string(kind),
	})
	if err != nil {
		return nil, fmt.Errorf("encode parse request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/parsing/parse", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build parse request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("parser request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read parser response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("parser returned status %d: %s", resp.StatusCode, truncateForError(body))
	}

	var parsed parseResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		// Some deployments return the extracted text directly.
		return &Extraction{
			Content:  string(body),
			Metadata: contentStats(string(body)),
		}, nil
	}

	if !parsed.Success {
		if parsed.Error != "" {
			return nil, fmt.Errorf("parser error: %s", parsed.Error)
		}
		return nil, fmt.Errorf("parser error: unparseable document")
	}
	if parsed.Content == "" {
		return nil, ErrNoContent
	}

	meta := contentStats(parsed.Content)
	meta.Title = parsed.Metadata.Title
	if parsed.Metadata.WordCount > 0 {
		meta.WordCount = parsed.Metadata.WordCount
	}
	if parsed.Metadata.CharacterCount > 0 {
		meta.CharacterCount = parsed.Metadata.CharacterCount
	}

	return &Extraction{Content: parsed.Content, Metadata: meta}, nil
}

func truncateForError(body []byte) string {
	const max = 200
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}

// RemoteParseExtractor wraps a RemoteParser in the bounded retry loop:
// up to maxRetries attempts with a fixed delay in between. Each failed
// attempt is reported through onRetry before the next one starts; when
// every attempt is exhausted the last error is returned verbatim.
type RemoteParseExtractor struct {
	parser     RemoteParser
	maxRetries int
	retryDelay time.Duration
	sleep      func(time.Duration) // test seam
}

func NewRemoteParseExtractor(parser RemoteParser, maxRetries int, retryDelay time.Duration) *RemoteParseExtractor {
	return &RemoteParseExtractor{
		parser:     parser,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		sleep:      time.Sleep,
	}
}

// Extract runs the retry loop. onRetry may be nil; when set it receives
// the 1-based number of the attempt that just failed, letting the job
// tracker persist the retry count between attempts. Once started the
// loop runs to success or exhaustion; mid-retry cancellation is not
// offered.
func (e *RemoteParseExtractor) Extract(ctx context.Context, url string, kind models.SourceKind, onRetry func(failedAttempt int)) (*Extraction, error) {
	started := time.Now()

	var lastErr error
	for attempt := 1; attempt <= e.maxRetries; attempt++ {
		ext, err := e.parser.Parse(ctx, url, kind)
		if err == nil {
			ext.Metadata.ProcessingMethod = "remote-parse"
			ext.Metadata.DurationMS = time.Since(started).Milliseconds()
			ext.Metadata.RetriesUsed = attempt - 1
			return ext, nil
		}

		lastErr = err
		if onRetry != nil {
			onRetry(attempt)
		}
		if attempt < e.maxRetries {
			e.sleep(e.retryDelay)
		}
	}

	return nil, lastErr
}
