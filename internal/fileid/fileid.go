// Package fileid derives deterministic document IDs from file paths for
// watch-driven ingestion.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
)

const prefix = "file:"

// digestLen is the number of hash bytes kept in the ID. 16 bytes (128 bits)
// keeps collisions out of reach while leaving the ID short enough to read in
// logs and chunk IDs.
const digestLen = 16

// FileDocID returns a stable document ID for the given absolute path.
// Same path always yields the same ID, so re-ingesting a watched file replaces
// its chunks instead of accumulating duplicates. The ID is hex plus a fixed
// prefix, so it never collides with the chunk ID infix.
func FileDocID(absolutePath string) string {
	hash := sha256.Sum256([]byte(filepath.Clean(absolutePath)))
	return prefix + hex.EncodeToString(hash[:digestLen])
}
