package indexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkID(t *testing.T) {
	text := "The quick brown fox jumps over the lazy dog"

	assert.Equal(t, "report.pdf_page_2_chunk_7", ChunkID(IDSchemeIndex, "report.pdf", 2, 7, text))
	assert.Equal(t, "report.pdf_page_2_chunk_The quick brown fox jumps over", ChunkID(IDSchemePrefix, "report.pdf", 2, 7, text))

	hashed := ChunkID(IDSchemeHash, "report.pdf", 2, 7, text)
	assert.Len(t, hashed, len("report.pdf_page_2_chunk_")+hashLength)
	assert.Equal(t, hashed, ChunkID(IDSchemeHash, "report.pdf", 2, 99, text), "hash ignores position")
	assert.NotEqual(t, hashed, ChunkID(IDSchemeHash, "report.pdf", 2, 7, text+"!"))
}

func TestChunkID_PrefixShortText(t *testing.T) {
	assert.Equal(t, "a.pdf_page_0_chunk_short", ChunkID(IDSchemePrefix, "a.pdf", 0, 0, "short"))
}

func TestChunkID_PrefixCountsCharacters(t *testing.T) {
	text := "日本語のテキストはマルチバイト文字で構成されていますが三十文字で切り取られます"
	id := ChunkID(IDSchemePrefix, "a.pdf", 0, 0, text)
	assert.Equal(t, "a.pdf_page_0_chunk_"+string([]rune(text)[:30]), id)
}

func TestParseIDScheme(t *testing.T) {
	tests := []struct {
		input string
		want  IDScheme
	}{
		{"", IDSchemeIndex},
		{"index", IDSchemeIndex},
		{"prefix", IDSchemePrefix},
		{"hash", IDSchemeHash},
	}
	for _, tc := range tests {
		got, err := ParseIDScheme(tc.input)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}

	_, err := ParseIDScheme("uuid")
	assert.Error(t, err)
}
