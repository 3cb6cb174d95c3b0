package remote

import (
	"path/filepath"
	"strings"
)

// Conversion pairs the declared media type of uploaded bytes with the
// service-native type they are converted into.
type Conversion struct {
	SourceType string
	TargetType string
}

// Office document media types.
const (
	MediaTypeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MediaTypeXlsx = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Google Drive native media types.
const (
	MediaTypeFolder      = "application/vnd.google-apps.folder"
	MediaTypeDocument    = "application/vnd.google-apps.document"
	MediaTypeSpreadsheet = "application/vnd.google-apps.spreadsheet"
)

// conversions is keyed by lowercase extension.
var conversions = map[string]Conversion{
	".docx": {SourceType: MediaTypeDocx, TargetType: MediaTypeDocument},
	".xlsx": {SourceType: MediaTypeXlsx, TargetType: MediaTypeSpreadsheet},
}

// ConversionFor returns the conversion for name's extension. The second
// result is false when the extension is not convertible.
func ConversionFor(name string) (Conversion, bool) {
	c, ok := conversions[strings.ToLower(filepath.Ext(name))]

	return c, ok
}

// Convertible reports whether name has a convertible office extension.
func Convertible(name string) bool {
	_, ok := ConversionFor(name)

	return ok
}
