package ingestion

import (
	"regexp"
	"strings"

	"github.com/welcomechat/ingest/internal/models"
)

// TruncationMarker is appended whenever content exceeds the configured
// cap. It is part of the output contract: truncation is always explicit,
// never silent.
const TruncationMarker = "\n\n... Content truncated due to size limits ...\n"

// The transform chain below is order-sensitive. Script/style/comment
// removal must run before any tag conversion so their bodies cannot
// produce false matches, tag stripping must run after every structural
// conversion, and entity decoding runs last so decoded "<"/">" are not
// mistaken for tags.
var (
	reBody     = regexp.MustCompile(`(?is)<body[^>]*>(.*?)</body>`)
	reScript   = regexp.MustCompile(`(?is)<script\b.*?</script>`)
	reStyle    = regexp.MustCompile(`(?is)<style\b.*?</style>`)
	reComment  = regexp.MustCompile(`(?s)<!--.*?-->`)
	reHeadings = [6]*regexp.Regexp{
		regexp.MustCompile(`(?is)<h1[^>]*>(.*?)</h1>`),
		regexp.MustCompile(`(?is)<h2[^>]*>(.*?)</h2>`),
		regexp.MustCompile(`(?is)<h3[^>]*>(.*?)</h3>`),
		regexp.MustCompile(`(?is)<h4[^>]*>(.*?)</h4>`),
		regexp.MustCompile(`(?is)<h5[^>]*>(.*?)</h5>`),
		regexp.MustCompile(`(?is)<h6[^>]*>(.*?)</h6>`),
	}
	reParagraph = regexp.MustCompile(`(?is)<p[^>]*>(.*?)</p>`)
	reBreak     = regexp.MustCompile(`(?i)<br\s*/?>`)
	reBold      = regexp.MustCompile(`(?is)<(?:strong|b)\b[^>]*>(.*?)</(?:strong|b)>`)
	reItalic    = regexp.MustCompile(`(?is)<(?:em|i)\b[^>]*>(.*?)</(?:em|i)>`)
	reAnchor    = regexp.MustCompile(`(?is)<a[^>]*href="([^"]*)"[^>]*>(.*?)</a>`)
	reListItem  = regexp.MustCompile(`(?is)<li[^>]*>(.*?)</li>`)
	reTag       = regexp.MustCompile(`<[^>]*>`)
	reNewlines  = regexp.MustCompile(`\n\s*\n\s*\n`)

	entityReplacer = strings.NewReplacer(
		"&nbsp;", " ",
		"&lt;", "<",
		"&gt;", ">",
		"&amp;", "&",
		"&quot;", `"`,
		"&#39;", "'",
	)

	headingPrefixes = [6]string{"# ", "## ", "### ", "#### ", "##### ", "###### "}
)

// HTMLToMarkdown converts raw HTML to normalized Markdown text. Running
// it on its own output is a no-op apart from whitespace: the result
// contains no tags and no encoded entities from the supported set.
func HTMLToMarkdown(html string) string {
	content := html
	if m := reBody.FindStringSubmatch(html); m != nil {
		content = m[1]
	}

	content = reScript.ReplaceAllString(content, "")
	content = reStyle.ReplaceAllString(content, "")
	content = reComment.ReplaceAllString(content, "")

	for i, re := range reHeadings {
		content = re.ReplaceAllString(content, headingPrefixes[i]+"$1\n\n")
	}

	content = reParagraph.ReplaceAllString(content, "$1\n\n")
	content = reBreak.ReplaceAllString(content, "\n")
	content = reBold.ReplaceAllString(content, "**$1**")
	content = reItalic.ReplaceAllString(content, "*$1*")
	content = reAnchor.ReplaceAllString(content, "[$2]($1)")
	content = reListItem.ReplaceAllString(content, "* $1\n")
	content = reTag.ReplaceAllString(content, "")

	for reNewlines.MatchString(content) {
		content = reNewlines.ReplaceAllString(content, "\n\n")
	}

	content = entityReplacer.Replace(content)

	return strings.TrimSpace(content)
}

// CapContent enforces the maximum content length. Content beyond the cap
// is cut and the truncation marker appended; content under the cap is
// returned unchanged.
func CapContent(content string, maxLen int) (string, bool) {
	if maxLen <= 0 || len(content) <= maxLen {
		return content, false
	}
	return content[:maxLen] + TruncationMarker, true
}

// contentStats computes locally derived word and character counts.
// Backends overwrite these with remote-reported values when available.
func contentStats(content string) models.ContentMetadata {
	return models.ContentMetadata{
		WordCount:      len(strings.Fields(content)),
		CharacterCount: len(content),
	}
}
