// Package extract turns uploaded documents into plain text, one extractor
// per supported MIME type.
package extract

import (
	"errors"
	"fmt"
)

const (
	MimePlainText = "text/plain"
	MimePDF       = "application/pdf"
	MimeDOCX      = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// ErrUnsupported is returned for any MIME type outside the fixed set.
var ErrUnsupported = errors.New("unsupported media type")

// Supported reports whether content of the given MIME type can be extracted.
func Supported(mimeType string) bool {
	switch mimeType {
	case MimePlainText, MimePDF, MimeDOCX:
		return true
	}
	return false
}

// Text extracts the plain-text content of a document.
func Text(content []byte, mimeType string) (string, error) {
	switch mimeType {
	case MimePlainText:
		return plainText(content)
	case MimePDF:
		return pdfText(content)
	case MimeDOCX:
		return docxText(content)
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupported, mimeType)
}
