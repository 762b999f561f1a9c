package extract

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestExtractBytes_plainText(t *testing.T) {
	e := NewExtractor()
	res, err := e.ExtractBytes([]byte("hello world"), ".txt")
	if err != nil {
		t.Fatal(err)
	}
	if res.Text != "hello world" {
		t.Errorf("got %q", res.Text)
	}
}

func TestExtractBytes_unknownExtensionTreatedAsText(t *testing.T) {
	e := NewExtractor()
	res, err := e.ExtractBytes([]byte("log line"), ".log")
	if err != nil {
		t.Fatal(err)
	}
	if res.Text != "log line" {
		t.Errorf("got %q", res.Text)
	}
}

func TestExtractBytes_invalidUTF8Replaced(t *testing.T) {
	e := NewExtractor()
	res, err := e.ExtractBytes([]byte{'o', 'k', 0xff, 0xfe, '!'}, ".txt")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(res.Text, "ok") || !strings.Contains(res.Text, "!") {
		t.Errorf("got %q", res.Text)
	}
}

func TestExtractBytes_emptyTextIsError(t *testing.T) {
	e := NewExtractor()
	if _, err := e.ExtractBytes([]byte("   \n\t "), ".txt"); err == nil {
		t.Error("whitespace-only document should fail")
	}
	if _, err := e.ExtractBytes(nil, ".md"); err == nil {
		t.Error("empty document should fail")
	}
}

func buildDOCX(t *testing.T, documentXML, coreXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte(documentXML)); err != nil {
		t.Fatal(err)
	}
	if coreXML != "" {
		w, err := zw.Create("docProps/core.xml")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(coreXML)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestExtractBytes_docx(t *testing.T) {
	doc := `<?xml version="1.0"?><w:document><w:body>` +
		`<w:p><w:r><w:t>Hello</w:t></w:r><w:r><w:t xml:space="preserve">World</w:t></w:r></w:p>` +
		`</w:body></w:document>`
	core := `<?xml version="1.0"?><cp:coreProperties>` +
		`<dc:title>Test Doc</dc:title><dc:creator>Author Name</dc:creator>` +
		`<dcterms:created xsi:type="dcterms:W3CDTF">2024-01-02T03:04:05Z</dcterms:created>` +
		`</cp:coreProperties>`
	e := NewExtractor()
	res, err := e.ExtractBytes(buildDOCX(t, doc, core), ".docx")
	if err != nil {
		t.Fatal(err)
	}
	if res.Text != "Hello World" {
		t.Errorf("text: got %q", res.Text)
	}
	props, ok := res.Metadata["core_properties"].(map[string]interface{})
	if !ok {
		t.Fatalf("core_properties missing: %v", res.Metadata)
	}
	if props["title"] != "Test Doc" || props["author"] != "Author Name" {
		t.Errorf("props: %v", props)
	}
	if props["created"] != "2024-01-02T03:04:05Z" {
		t.Errorf("created: %v", props["created"])
	}
}

func TestExtractBytes_docxWithoutCoreProps(t *testing.T) {
	doc := `<w:document><w:body><w:p><w:r><w:t>Body only</w:t></w:r></w:p></w:body></w:document>`
	e := NewExtractor()
	res, err := e.ExtractBytes(buildDOCX(t, doc, ""), ".docx")
	if err != nil {
		t.Fatal(err)
	}
	if res.Text != "Body only" {
		t.Errorf("got %q", res.Text)
	}
	if _, ok := res.Metadata["core_properties"]; ok {
		t.Error("no core properties expected")
	}
}

func TestExtractBytes_docxNotAZip(t *testing.T) {
	e := NewExtractor()
	if _, err := e.ExtractBytes([]byte("plain bytes"), ".docx"); err == nil {
		t.Error("non-zip content should fail")
	}
}

func TestExtractBytes_xlsx(t *testing.T) {
	f := excelize.NewFile()
	if err := f.SetCellValue("Sheet1", "A1", "alpha"); err != nil {
		t.Fatal(err)
	}
	if err := f.SetCellValue("Sheet1", "B1", "beta"); err != nil {
		t.Fatal(err)
	}
	if err := f.SetCellValue("Sheet1", "A2", "gamma"); err != nil {
		t.Fatal(err)
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}

	e := NewExtractor()
	res, err := e.ExtractBytes(buf.Bytes(), ".xlsx")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(res.Text, "alpha\tbeta") || !strings.Contains(res.Text, "gamma") {
		t.Errorf("text: got %q", res.Text)
	}
	if res.Metadata["sheet_count"] != 1 {
		t.Errorf("sheet_count: got %v", res.Metadata["sheet_count"])
	}
}

func buildEPUB(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	files := map[string]string{
		"META-INF/container.xml": `<container><rootfiles><rootfile full-path="content.opf"/></rootfiles></container>`,
		"content.opf": `<package><metadata>` +
			`<dc:title>An Ebook</dc:title><dc:creator opf:role="aut">Writer</dc:creator><dc:language>en</dc:language>` +
			`</metadata></package>`,
		"chapter1.xhtml": `<html><body><h1>Chapter One</h1><p>It was a dark &amp; stormy night.</p></body></html>`,
	}
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestExtractBytes_epub(t *testing.T) {
	e := NewExtractor()
	res, err := e.ExtractBytes(buildEPUB(t), ".epub")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(res.Text, "Chapter One") || !strings.Contains(res.Text, "dark & stormy") {
		t.Errorf("text: got %q", res.Text)
	}
	if res.Metadata["title"] != "An Ebook" || res.Metadata["author"] != "Writer" || res.Metadata["language"] != "en" {
		t.Errorf("metadata: %v", res.Metadata)
	}
}

func TestExtract_readsFromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.md")
	if err := os.WriteFile(path, []byte("# Heading\n\nbody"), 0600); err != nil {
		t.Fatal(err)
	}
	e := NewExtractor()
	res, err := e.Extract(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(res.Text, "Heading") {
		t.Errorf("got %q", res.Text)
	}
	if _, err := e.Extract(filepath.Join(dir, "missing.txt")); err == nil {
		t.Error("missing file should fail")
	}
}

func TestSupportedExtensions(t *testing.T) {
	exts := SupportedExtensions()
	if len(exts) == 0 {
		t.Fatal("no supported extensions")
	}
	for _, ext := range exts {
		if !strings.HasPrefix(ext, ".") {
			t.Errorf("extension without dot: %q", ext)
		}
	}
}
