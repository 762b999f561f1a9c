// Package extract provides text and metadata extraction from document formats.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Result is the extraction output: plain text plus document-level metadata
// (flat or one level nested).
type Result struct {
	Text     string
	Metadata map[string]interface{}
}

// Extractor extracts text and metadata from document files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// SupportedExtensions lists the file extensions with a dedicated extractor.
func SupportedExtensions() []string {
	return []string{".pdf", ".docx", ".doc", ".odt", ".rtf", ".epub", ".xlsx", ".txt", ".md", ".csv", ".rst"}
}

// Extract reads the file at path and returns its text and metadata.
func (e *Extractor) Extract(path string) (*Result, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return e.ExtractBytes(content, strings.ToLower(filepath.Ext(path)))
}

// ExtractBytes extracts text and metadata from content based on ext (with
// leading dot). Plain-text extensions and unknown extensions are treated as
// UTF-8 text. Extraction that yields no usable text is an error, never a
// silent empty result.
func (e *Extractor) ExtractBytes(content []byte, ext string) (*Result, error) {
	var res *Result
	var err error
	switch ext {
	case ".pdf":
		res, err = extractPDF(content)
	case ".docx":
		res, err = extractDOCX(content)
	case ".doc":
		res, err = extractDoc(content)
	case ".odt", ".rtf":
		res, err = extractWithCat(content, ext)
	case ".epub":
		res, err = extractEPUB(content)
	case ".xlsx":
		res, err = extractExcel(content)
	default:
		res, err = extractPlain(content)
	}
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(res.Text) == "" {
		return nil, fmt.Errorf("no usable text extracted from %s document", strings.TrimPrefix(ext, "."))
	}
	return res, nil
}
