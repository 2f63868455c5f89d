package png

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTEXT(t *testing.T) {
	payload := append([]byte("Title"), 0)
	payload = append(payload, "A PNG image"...)
	entry, err := parseTEXT(newPayloadReader("tEXt", payload))
	require.NoError(t, err)
	assert.Equal(t, "Title", entry.Keyword)
	assert.Equal(t, "A PNG image", entry.Text)
	assert.Equal(t, TextPlain, entry.Kind)
}

func TestParseTEXTLatin1(t *testing.T) {
	// 0xE9 is e-acute in Latin-1 and an invalid byte in UTF-8.
	payload := append([]byte("Author"), 0, 0xE9)
	entry, err := parseTEXT(newPayloadReader("tEXt", payload))
	require.NoError(t, err)
	assert.Equal(t, "é", entry.Text)
}

func TestParseTEXTKeywordRules(t *testing.T) {
	cases := [][]byte{
		append([]byte{0}, 'x'),                      // empty keyword
		append([]byte(" pad"), 0, 'x'),              // leading space
		append([]byte("pad "), 0, 'x'),              // trailing space
		append([]byte{'k', 0x07}, 0, 'x'), // control byte
		[]byte("no separator at all"),
	}
	for i, payload := range cases {
		_, err := parseTEXT(newPayloadReader("tEXt", payload))
		require.Error(t, err, "case %d", i)
	}

	long := make([]byte, 80)
	for i := range long {
		long[i] = 'k'
	}
	payload := append(long, 0, 'x')
	_, err := parseTEXT(newPayloadReader("tEXt", payload))
	var terr *TextDecodeError
	require.ErrorAs(t, err, &terr)
}

func TestParseZTXT(t *testing.T) {
	enc := NewEncoder(DefaultCompression)
	compressed, err := enc.deflate([]byte("squeezed"))
	require.NoError(t, err)

	payload := append([]byte("Comment"), 0, 0)
	payload = append(payload, compressed...)
	entry, err := parseZTXT(newPayloadReader("zTXt", payload))
	require.NoError(t, err)
	assert.Equal(t, "Comment", entry.Keyword)
	assert.Equal(t, "squeezed", entry.Text)
	assert.Equal(t, TextCompressed, entry.Kind)
}

func TestParseZTXTBadMethod(t *testing.T) {
	payload := append([]byte("Comment"), 0, 1, 0xFF)
	_, err := parseZTXT(newPayloadReader("zTXt", payload))
	require.Error(t, err)
}

func TestParseITXT(t *testing.T) {
	payload := append([]byte("Title"), 0, 0, 0)
	payload = append(payload, "de"...)
	payload = append(payload, 0)
	payload = append(payload, "Titel"...)
	payload = append(payload, 0)
	payload = append(payload, "Überschrift"...)
	entry, err := parseITXT(newPayloadReader("iTXt", payload))
	require.NoError(t, err)
	assert.Equal(t, "Title", entry.Keyword)
	assert.Equal(t, "de", entry.LanguageTag)
	assert.Equal(t, "Titel", entry.TranslatedKeyword)
	assert.Equal(t, "Überschrift", entry.Text)
	assert.False(t, entry.Compressed)
}

func TestParseITXTCompressed(t *testing.T) {
	enc := NewEncoder(DefaultCompression)
	compressed, err := enc.deflate([]byte("stored deflated"))
	require.NoError(t, err)

	payload := append([]byte("Note"), 0, 1, 0, 0, 0)
	payload = append(payload, compressed...)
	entry, err := parseITXT(newPayloadReader("iTXt", payload))
	require.NoError(t, err)
	assert.Equal(t, "stored deflated", entry.Text)
	assert.True(t, entry.Compressed)
}

func TestParseITXTInvalidUTF8(t *testing.T) {
	payload := append([]byte("Note"), 0, 0, 0, 0, 0, 0xE9)
	_, err := parseITXT(newPayloadReader("iTXt", payload))
	var terr *TextDecodeError
	require.ErrorAs(t, err, &terr)
}

func TestTextPayloadRoundTrip(t *testing.T) {
	enc := NewEncoder(DefaultCompression)
	entries := []TextEntry{
		{Keyword: "Title", Text: "café", Kind: TextPlain},
		{Keyword: "Comment", Text: "long body", Kind: TextCompressed, Compressed: true},
		{Keyword: "Note", Text: "Überschrift", Kind: TextInternational, Compressed: true, LanguageTag: "de", TranslatedKeyword: "Notiz"},
	}
	for _, entry := range entries {
		name, payload, err := enc.textPayload(entry)
		require.NoError(t, err)

		var got TextEntry
		switch name {
		case TEXTChunk:
			got, err = parseTEXT(newPayloadReader("tEXt", payload))
		case ZTXTChunk:
			got, err = parseZTXT(newPayloadReader("zTXt", payload))
		case ITXTChunk:
			got, err = parseITXT(newPayloadReader("iTXt", payload))
		}
		require.NoError(t, err)
		assert.Equal(t, entry.Keyword, got.Keyword)
		assert.Equal(t, entry.Text, got.Text)
	}
}

func TestTextPayloadNotLatin1(t *testing.T) {
	enc := NewEncoder(DefaultCompression)
	_, _, err := enc.textPayload(TextEntry{Keyword: "Title", Text: "日本語", Kind: TextPlain})
	var terr *TextDecodeError
	require.ErrorAs(t, err, &terr)
}
