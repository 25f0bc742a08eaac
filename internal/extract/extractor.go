// Package extract provides plain-text extraction from uploaded document bytes.
package extract

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Supported MIME types for uploaded documents.
const (
	MIMEPDF   = "application/pdf"
	MIMEDocx  = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMEXlsx  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MIMEPlain = "text/plain"
)

// ErrUnsupportedFormat is returned for MIME types the extractor does not handle.
// It is user-recoverable: re-upload in a supported format.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Extractor extracts plain text from document bytes by MIME type.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns the text content of a document. mimeType may carry
// parameters (e.g. "text/plain; charset=utf-8"); only the media type is used.
// Unknown types yield ErrUnsupportedFormat; corrupt payloads yield a wrapped
// extraction error.
func (e *Extractor) Extract(content []byte, mimeType string) (string, error) {
	mt := mimeType
	if i := strings.Index(mt, ";"); i >= 0 {
		mt = mt[:i]
	}
	mt = strings.ToLower(strings.TrimSpace(mt))

	switch {
	case mt == MIMEPDF:
		return extractPDF(content)
	case mt == MIMEDocx:
		return extractDOCX(content)
	case mt == MIMEXlsx:
		return extractExcel(content)
	case strings.HasPrefix(mt, "text/"):
		return extractPlain(content)
	case mt == "":
		return "", fmt.Errorf("%w: missing content type", ErrUnsupportedFormat)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, mt)
	}
}

// MIMEForPath maps a file extension to a supported MIME type, for local
// ingestion paths (CLI, drop folders) where no Content-Type header exists.
// Unmapped extensions return "" (rejected by Extract).
func MIMEForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return MIMEPDF
	case ".docx":
		return MIMEDocx
	case ".xlsx":
		return MIMEXlsx
	case ".txt", ".md", ".rst":
		return MIMEPlain
	default:
		return ""
	}
}
