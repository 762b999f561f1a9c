package extract

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

func extractPDF(content []byte) (*Result, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}
	var buf bytes.Buffer
	numPages := r.NumPage()
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract page %d: %w", i, err)
		}
		buf.WriteString(text)
		if i < numPages {
			buf.WriteByte('\n')
		}
	}

	meta := map[string]interface{}{"page_count": numPages}
	info := r.Trailer().Key("Info")
	if !info.IsNull() {
		for key, field := range map[string]string{
			"title":   "Title",
			"author":  "Author",
			"subject": "Subject",
			"creator": "Creator",
		} {
			if v := info.Key(field); v.Kind() == pdf.String {
				meta[key] = v.Text()
			}
		}
	}
	return &Result{Text: buf.String(), Metadata: meta}, nil
}
