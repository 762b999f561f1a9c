// Package metadata composes flat, index-storable chunk metadata and stable
// chunk identifiers.
package metadata

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// ErrInvalidDocumentID is returned for caller-supplied document IDs that the
// chunk ID scheme cannot represent unambiguously.
var ErrInvalidDocumentID = errors.New("invalid document id")

// chunkIDInfix joins a document ID and a chunk index into a chunk ID.
const chunkIDInfix = "_chunk_"

// Derived chunk-scoped metadata keys added by Compose.
const (
	KeyDocumentID   = "document_id"
	KeyChunkIndex   = "chunk_index"
	KeyChunkTotal   = "chunk_total"
	KeyChunkIsFirst = "chunk_is_first"
	KeyChunkIsLast  = "chunk_is_last"
	KeyChunkLength  = "chunk_length"
)

// ChunkScopedPrefix marks metadata keys that describe a chunk rather than its
// parent document.
const ChunkScopedPrefix = "chunk_"

// NewDocumentID returns a fresh random document identifier.
func NewDocumentID() string {
	return uuid.New().String()
}

// ValidateDocumentID rejects caller-supplied document IDs that would make chunk
// IDs ambiguous. Chunk IDs embed the literal "_chunk_" token, so a document ID
// containing it cannot be recovered from its chunk IDs.
func ValidateDocumentID(id string) error {
	if strings.Contains(id, chunkIDInfix) {
		return fmt.Errorf("%w: %q must not contain %q", ErrInvalidDocumentID, id, chunkIDInfix)
	}
	return nil
}

// ChunkID returns the stable chunk identifier {documentID}_chunk_{index}.
// It is reconstructible from (documentID, index) alone, so a later delete or
// reinsert can target an individual chunk precisely.
func ChunkID(documentID string, index int) string {
	return fmt.Sprintf("%s%s%d", documentID, chunkIDInfix, index)
}

// ParseChunkID splits a chunk ID back into document ID and chunk index.
// The split happens at the last "_chunk_" occurrence.
func ParseChunkID(chunkID string) (documentID string, index int, err error) {
	at := strings.LastIndex(chunkID, chunkIDInfix)
	if at < 0 {
		return "", 0, fmt.Errorf("not a chunk id: %q", chunkID)
	}
	index, err = strconv.Atoi(chunkID[at+len(chunkIDInfix):])
	if err != nil {
		return "", 0, fmt.Errorf("chunk id %q has non-numeric index: %w", chunkID, err)
	}
	return chunkID[:at], index, nil
}

// Compose merges document metadata and base metadata (base wins on collision),
// flattens the result one nesting level, and adds the derived chunk keys and
// the document linkage key. Returns the flat metadata and the chunk ID.
func Compose(docMeta, baseMeta map[string]interface{}, documentID string, chunkIndex, chunkTotal int, chunkText string) (map[string]interface{}, string) {
	flat := make(map[string]interface{})
	flattenInto(flat, docMeta)
	flattenInto(flat, baseMeta)

	flat[KeyDocumentID] = documentID
	flat[KeyChunkIndex] = chunkIndex
	flat[KeyChunkTotal] = chunkTotal
	flat[KeyChunkIsFirst] = chunkIndex == 0
	flat[KeyChunkIsLast] = chunkIndex == chunkTotal-1
	flat[KeyChunkLength] = utf8.RuneCountInString(chunkText)

	return flat, ChunkID(documentID, chunkIndex)
}

// flattenInto copies m into dst, flattening nested maps one level with
// underscore-joined keys. Only scalar leaves are kept; deeper nesting is
// dropped. Nil values become the empty-string sentinel so the index never
// stores nulls.
func flattenInto(dst map[string]interface{}, m map[string]interface{}) {
	for key, value := range m {
		switch v := value.(type) {
		case map[string]interface{}:
			for childKey, childValue := range v {
				if scalar, ok := asScalar(childValue); ok {
					dst[key+"_"+childKey] = scalar
				}
			}
		default:
			if scalar, ok := asScalar(value); ok {
				dst[key] = scalar
			}
		}
	}
}

// asScalar returns value if it is a type the vector index can store
// (string, bool, integer, or float), coercing nil to "". Anything else is
// dropped with ok=false.
func asScalar(value interface{}) (interface{}, bool) {
	switch value.(type) {
	case nil:
		return "", true
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return value, true
	default:
		return nil, false
	}
}
