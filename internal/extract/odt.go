package extract

import (
	"fmt"
	"strings"

	"github.com/lu4p/cat"
)

// extractWithCat extracts ODT and RTF text via lu4p/cat, which detects the
// format from the content itself.
func extractWithCat(content []byte, ext string) (*Result, error) {
	text, err := cat.FromBytes(content)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", strings.TrimPrefix(ext, "."), err)
	}
	return &Result{
		Text:     strings.TrimSpace(text),
		Metadata: map[string]interface{}{"format": strings.TrimPrefix(ext, ".")},
	}, nil
}
