package png

import (
	"fmt"

	"github.com/pkg/errors"
)

// Errors that identify a malformed or truncated container. Callers match
// these with errors.Is.
var (
	// ErrInvalidHeader is returned when the first 8 bytes of the stream
	// are not the PNG signature.
	ErrInvalidHeader = errors.New("png: invalid signature")

	// ErrInvalidIEND is returned when the terminating chunk has a
	// non-zero length or a bad CRC.
	ErrInvalidIEND = errors.New("png: invalid IEND chunk")

	// ErrZeroLengthIDAT is returned by Decode when the image carries no
	// compressed pixel data.
	ErrZeroLengthIDAT = errors.New("png: no pixel data provided")

	// ErrPaletteNotFound is returned by Palette when the image has no
	// PLTE chunk.
	ErrPaletteNotFound = errors.New("png: no PLTE chunk was found")

	// ErrICCProfileNotFound is returned by ICCProfile when the image has
	// no iCCP chunk.
	ErrICCProfileNotFound = errors.New("png: an ICC profile was not found")
)

// InvalidIHDRLengthError reports an IHDR chunk whose length is not 13.
type InvalidIHDRLengthError uint32

func (e InvalidIHDRLengthError) Error() string {
	return fmt.Sprintf("png: bad IHDR length: expected 13, but found %d", uint32(e))
}

// MetadataError reports a header field outside its allowed set: bit
// depth, compression, unit, color type, interlacing, width, height, or an
// incompatible bit depth and color type combination.
type MetadataError struct {
	Field string
	Value int64
}

func (e *MetadataError) Error() string {
	return fmt.Sprintf("png: unrecognized %s %d", e.Field, e.Value)
}

// ChunkError reports a structural problem with a recognized chunk, or an
// unrecognized chunk that the decoder is not allowed to skip.
type ChunkError struct {
	Chunk  string
	Reason string
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("png: %s chunk: %s", e.Chunk, e.Reason)
}

func chunkErrorf(chunk, format string, args ...interface{}) error {
	return errors.WithStack(&ChunkError{Chunk: chunk, Reason: fmt.Sprintf(format, args...)})
}

// UnrecognizedCriticalChunkError reports a chunk whose type code is
// unknown but whose criticality bit requires the decoder to understand it.
type UnrecognizedCriticalChunkError struct {
	ChunkType string
}

func (e *UnrecognizedCriticalChunkError) Error() string {
	return fmt.Sprintf("png: found unrecognized critical chunk %q", e.ChunkType)
}

// CRCError reports a chunk whose trailing CRC does not match the CRC of
// its type code and payload.
type CRCError struct {
	ChunkType string
	Got, Want uint32
}

func (e *CRCError) Error() string {
	return fmt.Sprintf("png: %s chunk: invalid checksum: got %08x, want %08x", e.ChunkType, e.Got, e.Want)
}

// FilterError reports an unknown filter method or per-row filter type
// byte.
type FilterError struct {
	Value byte
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("png: filter: expected value in 0..=4, but found %d", e.Value)
}

// TextDecodeError reports a textual payload that is not valid for its
// declared encoding.
type TextDecodeError struct {
	Chunk  string
	Reason string
}

func (e *TextDecodeError) Error() string {
	return fmt.Sprintf("png: %s chunk: %s", e.Chunk, e.Reason)
}

// UnsupportedError reports a valid but unimplemented PNG feature, such as
// Adam7 interlaced pixel data.
type UnsupportedError string

func (e UnsupportedError) Error() string {
	return "png: unsupported feature: " + string(e)
}
