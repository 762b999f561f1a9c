package extract

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// extractDoc converts a legacy Word 97-2004 document to text with LibreOffice.
// The binary .doc format has no workable pure-Go reader, so the document is
// written to a temp directory and converted with soffice in headless mode.
func extractDoc(content []byte) (*Result, error) {
	dir, err := os.MkdirTemp("", "bunko-doc-")
	if err != nil {
		return nil, fmt.Errorf("extract DOC: temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	input := filepath.Join(dir, "input.doc")
	if err := os.WriteFile(input, content, 0600); err != nil {
		return nil, fmt.Errorf("extract DOC: write temp file: %w", err)
	}

	cmd := exec.Command("soffice", "--headless", "--convert-to", "txt:Text", input, "--outdir", dir)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("extract DOC: soffice conversion failed: %w: %s", err, strings.TrimSpace(string(out)))
	}

	converted, err := os.ReadFile(filepath.Join(dir, "input.txt"))
	if err != nil {
		return nil, fmt.Errorf("extract DOC: converted text not found: %w", err)
	}

	return &Result{
		Text: strings.TrimSpace(string(converted)),
		Metadata: map[string]interface{}{
			"format":            "doc",
			"conversion_method": "libreoffice",
			"original_size":     len(content),
		},
	}, nil
}
