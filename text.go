package png

import (
	"bytes"
	"compress/zlib"
	"io"
	"unicode/utf8"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"
)

// TextKind distinguishes the three textual chunk forms.
type TextKind int

const (
	// TextPlain is an uncompressed Latin-1 tEXt entry.
	TextPlain TextKind = iota
	// TextCompressed is a deflate-compressed Latin-1 zTXt entry.
	TextCompressed
	// TextInternational is an optionally compressed UTF-8 iTXt entry.
	TextInternational
)

func (k TextKind) String() string {
	switch k {
	case TextPlain:
		return "text"
	case TextCompressed:
		return "compressed text"
	case TextInternational:
		return "international text"
	}
	return "unknown text kind"
}

// TextEntry is a single entry from the image's key/value text store.
// LanguageTag and TranslatedKeyword are only meaningful for international
// entries.
type TextEntry struct {
	Keyword string
	Text    string
	Kind    TextKind

	Compressed        bool
	LanguageTag       string
	TranslatedKeyword string
}

// latin1 converts Latin-1 bytes to a UTF-8 string. Every byte sequence is
// valid Latin-1, so the conversion itself cannot fail; keyword rules are
// checked separately.
func latin1(raw []byte) (string, error) {
	s, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return "", errors.WithStack(&TextDecodeError{Chunk: "tEXt", Reason: err.Error()})
	}
	return string(s), nil
}

// toLatin1 converts a UTF-8 string back to Latin-1 bytes for the wire,
// failing for runes outside the charset.
func toLatin1(chunk, s string) ([]byte, error) {
	raw, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, errors.WithStack(&TextDecodeError{Chunk: chunk, Reason: "text not representable in Latin-1"})
	}
	return raw, nil
}

// checkKeyword enforces the keyword rules shared by all three text
// chunks: 1 to 79 bytes of printable Latin-1, no leading or trailing
// spaces.
func checkKeyword(chunk string, kw []byte) error {
	if len(kw) == 0 || len(kw) > 79 {
		return errors.WithStack(&TextDecodeError{Chunk: chunk, Reason: "keyword must be 1-79 bytes"})
	}
	if kw[0] == ' ' || kw[len(kw)-1] == ' ' {
		return errors.WithStack(&TextDecodeError{Chunk: chunk, Reason: "keyword has leading or trailing space"})
	}
	for _, c := range kw {
		if (c < 32 || c > 126) && c < 161 {
			return errors.WithStack(&TextDecodeError{Chunk: chunk, Reason: "keyword contains non-printable byte"})
		}
	}
	return nil
}

// parseTEXT reads a tEXt payload: a keyword, a null separator, and
// uncompressed Latin-1 text.
func parseTEXT(p *payloadReader) (TextEntry, error) {
	kw, err := p.terminated()
	if err != nil {
		return TextEntry{}, err
	}
	if err := checkKeyword("tEXt", kw); err != nil {
		return TextEntry{}, err
	}
	keyword, err := latin1(kw)
	if err != nil {
		return TextEntry{}, err
	}
	text, err := latin1(p.rest())
	if err != nil {
		return TextEntry{}, err
	}
	return TextEntry{Keyword: keyword, Text: text, Kind: TextPlain}, nil
}

// parseZTXT reads a zTXt payload: a keyword, a null separator, a
// compression method byte, and deflate-compressed Latin-1 text.
func parseZTXT(p *payloadReader) (TextEntry, error) {
	kw, err := p.terminated()
	if err != nil {
		return TextEntry{}, err
	}
	if err := checkKeyword("zTXt", kw); err != nil {
		return TextEntry{}, err
	}
	method, err := p.byte()
	if err != nil {
		return TextEntry{}, err
	}
	if _, err := ParseCompressionType(method); err != nil {
		return TextEntry{}, err
	}
	raw, err := inflate(p.rest())
	if err != nil {
		return TextEntry{}, errors.WithStack(&TextDecodeError{Chunk: "zTXt", Reason: err.Error()})
	}
	keyword, err := latin1(kw)
	if err != nil {
		return TextEntry{}, err
	}
	text, err := latin1(raw)
	if err != nil {
		return TextEntry{}, err
	}
	return TextEntry{Keyword: keyword, Text: text, Kind: TextCompressed, Compressed: true}, nil
}

// parseITXT reads an iTXt payload: keyword, compression flag, compression
// method, language tag, translated keyword, then UTF-8 text, compressed
// when the flag says so.
func parseITXT(p *payloadReader) (TextEntry, error) {
	kw, err := p.terminated()
	if err != nil {
		return TextEntry{}, err
	}
	if err := checkKeyword("iTXt", kw); err != nil {
		return TextEntry{}, err
	}
	flag, err := p.byte()
	if err != nil {
		return TextEntry{}, err
	}
	method, err := p.byte()
	if err != nil {
		return TextEntry{}, err
	}
	compressed := flag != 0
	if compressed {
		if _, err := ParseCompressionType(method); err != nil {
			return TextEntry{}, err
		}
	}
	lang, err := p.terminated()
	if err != nil {
		return TextEntry{}, err
	}
	translated, err := p.terminated()
	if err != nil {
		return TextEntry{}, err
	}
	raw := p.rest()
	if compressed {
		if raw, err = inflate(raw); err != nil {
			return TextEntry{}, errors.WithStack(&TextDecodeError{Chunk: "iTXt", Reason: err.Error()})
		}
	}
	for _, field := range [][]byte{translated, raw} {
		if !utf8.Valid(field) {
			return TextEntry{}, errors.WithStack(&TextDecodeError{Chunk: "iTXt", Reason: "payload is not valid UTF-8"})
		}
	}
	return TextEntry{
		Keyword:           string(kw),
		Text:              string(raw),
		Kind:              TextInternational,
		Compressed:        compressed,
		LanguageTag:       string(lang),
		TranslatedKeyword: string(translated),
	}, nil
}

// inflate decompresses a zlib stream held fully in memory.
func inflate(compressed []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return out, nil
}
