package remote

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConversionFor(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		wantOK   bool
		wantConv Conversion
	}{
		{
			name:     "docx",
			file:     "a.docx",
			wantOK:   true,
			wantConv: Conversion{SourceType: MediaTypeDocx, TargetType: MediaTypeDocument},
		},
		{
			name:     "xlsx",
			file:     "b.xlsx",
			wantOK:   true,
			wantConv: Conversion{SourceType: MediaTypeXlsx, TargetType: MediaTypeSpreadsheet},
		},
		{
			name:     "uppercase extension",
			file:     "REPORT.DOCX",
			wantOK:   true,
			wantConv: Conversion{SourceType: MediaTypeDocx, TargetType: MediaTypeDocument},
		},
		{
			name:   "plain text",
			file:   "c.txt",
			wantOK: false,
		},
		{
			name:   "legacy word document",
			file:   "old.doc",
			wantOK: false,
		},
		{
			name:   "no extension",
			file:   "Makefile",
			wantOK: false,
		},
		{
			name:   "extension only in directory part",
			file:   "dir.docx/notes",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ConversionFor(tt.file)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantConv, got)
			assert.Equal(t, tt.wantOK, Convertible(tt.file))
		})
	}
}
