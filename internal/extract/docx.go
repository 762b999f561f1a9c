package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// docxDocumentXMLPath is the path to the main document body inside a .docx zip.
const docxDocumentXMLPath = "word/document.xml"

// docxCorePropsPath is the path to the core properties part.
const docxCorePropsPath = "docProps/core.xml"

// wtTag matches <w:t>text</w:t> with any attributes, so content is found
// regardless of paragraph and run attributes.
var wtTag = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)

// corePropRes maps core property metadata keys to their precompiled element
// patterns.
var corePropRes = map[string]*regexp.Regexp{
	"title":    regexp.MustCompile(`<dc:title[^>]*>([^<]*)</dc:title>`),
	"author":   regexp.MustCompile(`<dc:creator[^>]*>([^<]*)</dc:creator>`),
	"created":  regexp.MustCompile(`<dcterms:created[^>]*>([^<]*)</dcterms:created>`),
	"modified": regexp.MustCompile(`<dcterms:modified[^>]*>([^<]*)</dcterms:modified>`),
}

// extractDOCX extracts text from word/document.xml and core properties from
// docProps/core.xml. DOCX is a ZIP of OOXML parts; all <w:t> text nodes are
// collected and joined with spaces.
func extractDOCX(content []byte) (*Result, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("extract DOCX: not a zip: %w", err)
	}

	docXML, err := readZipFile(zr, docxDocumentXMLPath)
	if err != nil {
		return nil, fmt.Errorf("extract DOCX: %w", err)
	}
	parts := wtTag.FindAllStringSubmatch(string(docXML), -1)
	var b strings.Builder
	for i, p := range parts {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strings.TrimSpace(p[1]))
	}

	meta := map[string]interface{}{}
	if coreXML, err := readZipFile(zr, docxCorePropsPath); err == nil {
		props := map[string]interface{}{}
		for key, re := range corePropRes {
			if m := re.FindStringSubmatch(string(coreXML)); len(m) > 1 && m[1] != "" {
				props[key] = m[1]
			}
		}
		if len(props) > 0 {
			meta["core_properties"] = props
		}
	}

	return &Result{Text: strings.TrimSpace(b.String()), Metadata: meta}, nil
}

// readZipFile returns the contents of the named file inside the zip.
func readZipFile(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("%s not found", name)
}
