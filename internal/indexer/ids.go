package indexer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// IDScheme selects how record identifiers are derived from chunks.
type IDScheme string

const (
	// IDSchemeIndex keys chunks by their position on the page. Unique per chunk.
	IDSchemeIndex IDScheme = "index"

	// IDSchemePrefix keys chunks by their first 30 characters.
	// Chunks on one page sharing a prefix overwrite each other.
	IDSchemePrefix IDScheme = "prefix"

	// IDSchemeHash keys chunks by a content hash.
	// Identical chunk text on one page is stored once.
	IDSchemeHash IDScheme = "hash"
)

const (
	prefixLength = 30
	hashLength   = 16
)

// ParseIDScheme validates a scheme name. The empty string selects IDSchemeIndex.
func ParseIDScheme(s string) (IDScheme, error) {
	switch IDScheme(s) {
	case "", IDSchemeIndex:
		return IDSchemeIndex, nil
	case IDSchemePrefix, IDSchemeHash:
		return IDScheme(s), nil
	default:
		return "", fmt.Errorf("unknown chunk id scheme %q", s)
	}
}

// ChunkID builds the record identifier for a chunk:
// {file}_page_{page}_chunk_{key}, where key depends on the scheme.
func ChunkID(scheme IDScheme, file string, page, index int, text string) string {
	var key string
	switch scheme {
	case IDSchemePrefix:
		key = preview(text, prefixLength)
	case IDSchemeHash:
		sum := sha256.Sum256([]byte(text))
		key = hex.EncodeToString(sum[:])[:hashLength]
	default:
		key = fmt.Sprint(index)
	}
	return fmt.Sprintf("%s_page_%d_chunk_%s", file, page, key)
}

// preview returns at most n leading characters of text.
func preview(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}
