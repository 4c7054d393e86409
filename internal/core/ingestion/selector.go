package ingestion

import (
	"strings"

	"github.com/welcomechat/ingest/internal/models"
)

// documentExtensions are URL suffixes that force the remote-parse
// backend even when the caller declared the source a plain website.
var documentExtensions = []string{
	".pdf", ".doc", ".docx", ".ppt", ".pptx", ".xls", ".xlsx",
}

// googleHosts identify Drive/Docs/Sheets-hosted URLs.
var googleHosts = []string{
	"drive.google.com", "docs.google.com", "sheets.google.com",
}

// SelectMethod maps (source kind, url) to a processing backend. It is a
// pure, total function; the order of the exclusion checks matters: a
// website URL is eligible for direct-fetch only after both the document
// extension check and the Google host check have passed.
func SelectMethod(kind models.SourceKind, url string) models.ProcessingMethod {
	if kind != models.SourceWebsiteURL {
		return models.MethodRemoteParse
	}

	lower := strings.ToLower(url)
	trimmed := lower
	if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
		trimmed = trimmed[:i]
	}
	for _, ext := range documentExtensions {
		if strings.HasSuffix(trimmed, ext) {
			return models.MethodRemoteParse
		}
	}

	for _, host := range googleHosts {
		if strings.Contains(lower, host) {
			return models.MethodRemoteParse
		}
	}

	return models.MethodDirectFetch
}
