package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"
)

// containerPath locates the OPF package document inside an EPUB.
const containerPath = "META-INF/container.xml"

var (
	opfPathRe = regexp.MustCompile(`full-path="([^"]+)"`)
	tagRe     = regexp.MustCompile(`<[^>]*>`)
	// Dublin Core metadata elements in the OPF, possibly with attributes.
	dcTitleRe    = regexp.MustCompile(`<dc:title[^>]*>([^<]+)</dc:title>`)
	dcCreatorRe  = regexp.MustCompile(`<dc:creator[^>]*>([^<]+)</dc:creator>`)
	dcLanguageRe = regexp.MustCompile(`<dc:language[^>]*>([^<]+)</dc:language>`)
)

// extractEPUB extracts text from an EPUB's XHTML content documents in archive
// order and metadata from the OPF package document. EPUB is a ZIP container.
func extractEPUB(content []byte) (*Result, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("extract EPUB: not a zip: %w", err)
	}

	meta := map[string]interface{}{}
	if container, err := readZipFile(zr, containerPath); err == nil {
		if m := opfPathRe.FindSubmatch(container); len(m) > 1 {
			if opf, err := readZipFile(zr, string(m[1])); err == nil {
				for key, re := range map[string]*regexp.Regexp{
					"title":    dcTitleRe,
					"author":   dcCreatorRe,
					"language": dcLanguageRe,
				} {
					if m := re.FindSubmatch(opf); len(m) > 1 {
						meta[key] = html.UnescapeString(strings.TrimSpace(string(m[1])))
					}
				}
			}
		}
	}

	var b strings.Builder
	for _, f := range zr.File {
		name := strings.ToLower(f.Name)
		if strings.HasPrefix(name, "meta-inf/") {
			continue
		}
		if !strings.HasSuffix(name, ".xhtml") && !strings.HasSuffix(name, ".html") && !strings.HasSuffix(name, ".htm") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("extract EPUB: open %s: %w", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return nil, fmt.Errorf("extract EPUB: read %s: %w", f.Name, err)
		}
		text := stripMarkup(string(data))
		if text != "" {
			if b.Len() > 0 {
				b.WriteString("\n\n")
			}
			b.WriteString(text)
		}
	}

	return &Result{Text: b.String(), Metadata: meta}, nil
}

// stripMarkup removes tags from an XHTML document and unescapes entities.
func stripMarkup(doc string) string {
	text := tagRe.ReplaceAllString(doc, " ")
	text = html.UnescapeString(text)
	return strings.Join(strings.Fields(text), " ")
}
