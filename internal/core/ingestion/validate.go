package ingestion

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/welcomechat/ingest/internal/models"
)

// Validator performs the pre-ingestion access checks. It is a pure
// checker: it mutates no job or content state. Hard failures (malformed
// URL, wrong host pattern for the declared kind, complete
// unreachability) reject the source before a job is created; everything
// else is a warning the caller may proceed past.
type Validator struct {
	client *http.Client
}

func NewValidator(timeout time.Duration) *Validator {
	return &Validator{client: &http.Client{Timeout: timeout}}
}

// supportedContentTypes are accepted without a warning for website
// sources. Anything else warns but does not block.
var supportedContentTypes = []string{
	"text/html", "application/json", "text/plain", "application/pdf",
}

var driveIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`drive\.google\.com/file/d/([-\w]+)`),
	regexp.MustCompile(`drive\.google\.com/drive/folders/([-\w]+)`),
	regexp.MustCompile(`docs\.google\.com/\w+/d/([-\w]{25,})`),
	regexp.MustCompile(`sheets\.google\.com/\w+/d/([-\w]{25,})`),
	regexp.MustCompile(`[?&]id=([-\w]+)`),
}

// kindSuffixes maps declared document kinds to the URL suffix each is
// expected to carry. A mismatch is a hard rejection naming the pattern.
var kindSuffixes = map[models.SourceKind][]string{
	models.SourcePDF:   {".pdf"},
	models.SourceExcel: {".xlsx", ".xls"},
}

// Validate checks reachability, content type and sharing restrictions
// for the given source before ingestion is attempted.
func (v *Validator) Validate(ctx context.Context, rawURL string, kind models.SourceKind) (*ValidationResult, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid URL format: %q", rawURL)
	}

	if kind.IsGoogle() {
		return v.validateDrive(ctx, rawURL)
	}

	if suffixes, ok := kindSuffixes[kind]; ok {
		if !hasAnySuffix(u.Path, suffixes) {
			return nil, fmt.Errorf("URL does not match expected pattern for %s (want suffix %s): %s",
				kind, strings.Join(suffixes, " or "), rawURL)
		}
	}

	return v.validateWebsite(ctx, u)
}

func hasAnySuffix(path string, suffixes []string) bool {
	lower := strings.ToLower(path)
	for _, s := range suffixes {
		if strings.HasSuffix(lower, s) {
			return true
		}
	}
	return false
}

func (v *Validator) validateWebsite(ctx context.Context, u *url.URL) (*ValidationResult, error) {
	res := &ValidationResult{
		URL:           u.String(),
		Secure:        u.Scheme == "https",
		RobotsAllowed: true,
		DriveViewable: DriveUnknown,
	}

	res.RobotsAllowed = v.robotsAllows(ctx, u)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("URL is not reachable: %w", err)
	}
	defer resp.Body.Close()

	res.Reachable = true
	res.StatusCode = resp.StatusCode
	res.ContentType = resp.Header.Get("Content-Type")
	res.Accessible = resp.StatusCode >= 200 && resp.StatusCode <= 299

	if !res.Secure {
		res.Warnings = append(res.Warnings, "This website does not use HTTPS. It may not be secure.")
	}
	if !res.RobotsAllowed {
		res.Warnings = append(res.Warnings, "This website blocks web scraping. Content may not be accessible to the AI.")
	}
	if !supportedContentType(res.ContentType) {
		res.Warnings = append(res.Warnings, fmt.Sprintf("Unsupported content type: %s", res.ContentType))
	}
	if !res.Accessible {
		res.Warnings = append(res.Warnings,
			"This URL is not accessible. Please check if the link is correct and publicly available.")
	}

	// Page-level hints refine the remediation text but never reject.
	if strings.Contains(res.ContentType, "text/html") {
		v.inspectPage(ctx, resp, res)
	}

	return res, nil
}

// inspectPage parses the fetched document for a meta robots directive.
// Parse failures are ignored; this only ever adds warnings.
func (v *Validator) inspectPage(_ context.Context, resp *http.Response, res *ValidationResult) {
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return
	}
	doc.Find(`meta[name="robots"]`).Each(func(_ int, s *goquery.Selection) {
		content, _ := s.Attr("content")
		if strings.Contains(strings.ToLower(content), "noindex") {
			res.Warnings = append(res.Warnings,
				"This page asks not to be indexed (meta robots noindex). Its owner may not want it scraped.")
		}
	})
}

// robotsAllows fetches the origin's robots.txt and checks the sections
// addressed to everyone or to this bot. A missing or unreadable
// robots.txt counts as allowed.
func (v *Validator) robotsAllows(ctx context.Context, u *url.URL) bool {
	robotsURL := fmt.Sprintf("%s://%s/robots.txt", u.Scheme, u.Host)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return true
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := v.client.Do(req)
	if err != nil {
		return true
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return true
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return true
	}
	body := strings.ToLower(string(raw))

	sections := strings.Split(body, "user-agent:")
	for _, section := range sections[1:] {
		lines := strings.Split(section, "\n")
		agent := strings.TrimSpace(lines[0])
		if agent != "*" && !strings.Contains(agent, "welcomechatbot") {
			continue
		}

		var disallowAll, allowAll bool
		for _, line := range lines[1:] {
			line = strings.TrimSpace(line)
			if rest, ok := strings.CutPrefix(line, "disallow:"); ok && strings.TrimSpace(rest) == "/" {
				disallowAll = true
			} else if rest, ok := strings.CutPrefix(line, "allow:"); ok && strings.TrimSpace(rest) == "/" {
				allowAll = true
			}
		}
		if disallowAll && !allowAll {
			return false
		}
	}
	return true
}

func (v *Validator) validateDrive(ctx context.Context, rawURL string) (*ValidationResult, error) {
	fileID := ExtractDriveID(rawURL)
	if fileID == "" {
		return nil, fmt.Errorf("invalid Google Drive URL format: %s", rawURL)
	}

	res := &ValidationResult{
		URL:           rawURL,
		Secure:        true,
		RobotsAllowed: true,
		DriveViewable: DriveUnknown,
	}

	// Probe a handful of endpoints; any 2xx means "anyone with the
	// link" is on.
	endpoints := []string{
		fmt.Sprintf("https://drive.google.com/uc?id=%s", fileID),
		fmt.Sprintf("https://drive.google.com/file/d/%s/view", fileID),
		fmt.Sprintf("https://drive.google.com/drive/folders/%s", fileID),
	}

	for _, endpoint := range endpoints {
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, endpoint, nil)
		if err != nil {
			continue
		}
		resp, err := v.client.Do(req)
		if err != nil {
			continue
		}
		resp.Body.Close()
		res.Reachable = true
		res.StatusCode = resp.StatusCode
		if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
			res.Accessible = true
			res.DriveViewable = DrivePublic
			return res, nil
		}
		res.DriveViewable = DriveRestricted
	}

	if !res.Reachable {
		return nil, fmt.Errorf("Google Drive is not reachable for file %s", fileID)
	}

	res.Warnings = append(res.Warnings,
		`This Google Drive link appears to be private. Please make sure to set the sharing settings to "Anyone with the link"`)
	return res, nil
}

// ExtractDriveID pulls the file or folder identifier out of a
// Drive/Docs/Sheets URL. Empty means the URL matches no known pattern.
func ExtractDriveID(rawURL string) string {
	for _, re := range driveIDPatterns {
		if m := re.FindStringSubmatch(rawURL); m != nil {
			return m[1]
		}
	}
	return ""
}

func supportedContentType(ct string) bool {
	lower := strings.ToLower(ct)
	for _, t := range supportedContentTypes {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}
