package services

import (
	"testing"

	"github.com/welcomechat/ingest/internal/models"
)

func TestKindFromFilename(t *testing.T) {
	tests := []struct {
		filename string
		want     models.SourceKind
	}{
		{"report.pdf", models.SourcePDF},
		{"Report.PDF", models.SourcePDF},
		{"figures.xlsx", models.SourceExcel},
		{"legacy.xls", models.SourceExcel},
		{"notes.docx", models.SourceDocument},
		{"readme.txt", models.SourceDocument},
		{"archive.zip", models.SourceOther},
		{"no_extension", models.SourceOther},
	}

	for _, tt := range tests {
		if got := kindFromFilename(tt.filename); got != tt.want {
			t.Errorf("kindFromFilename(%q) = %s, want %s", tt.filename, got, tt.want)
		}
	}
}
