package png

import (
	"time"

	"github.com/pkg/errors"
)

// png format https://www.w3.org/TR/PNG-Chunks.html

// ChunkName is the four-byte type code of a chunk.
type ChunkName string

const (
	IHDRChunk ChunkName = "IHDR"
	PLTEChunk ChunkName = "PLTE"
	IDATChunk ChunkName = "IDAT"
	IENDChunk ChunkName = "IEND"

	BKGDChunk ChunkName = "bKGD"
	CHRMChunk ChunkName = "cHRM"
	GAMAChunk ChunkName = "gAMA"
	HISTChunk ChunkName = "hIST"
	ICCPChunk ChunkName = "iCCP"
	ITXTChunk ChunkName = "iTXt"
	PHYSChunk ChunkName = "pHYs"
	SBITChunk ChunkName = "sBIT"
	SRGBChunk ChunkName = "sRGB"
	TEXTChunk ChunkName = "tEXt"
	TIMEChunk ChunkName = "tIME"
	TRNSChunk ChunkName = "tRNS"
	ZTXTChunk ChunkName = "zTXt"
)

func isUpper(c byte) bool { return 'A' <= c && c <= 'Z' }

// Critical reports whether the first byte of the type code is uppercase.
// A decoder must recognize every critical chunk it meets.
func (n ChunkName) Critical() bool { return len(n) == 4 && isUpper(n[0]) }

// Public reports whether the second byte of the type code is uppercase.
func (n ChunkName) Public() bool { return len(n) == 4 && isUpper(n[1]) }

// SafeToCopy reports whether the fourth byte of the type code is
// uppercase.
func (n ChunkName) SafeToCopy() bool { return len(n) == 4 && isUpper(n[3]) }

// IHDR must appear first. It contains:
//
//	Width:              4 bytes
//	Height:             4 bytes
//	Bit depth:          1 byte
//	Color type:         1 byte
//	Compression method: 1 byte
//	Filter method:      1 byte
//	Interlace method:   1 byte
//
// Width and height give the image dimensions in pixels. Zero is an
// invalid value; the maximum for each is (2^31)-1. Not all bit depths are
// allowed for all color types:
//
//	Color type          Allowed bit depths
//	0 grayscale         1,2,4,8,16
//	2 truecolor         8,16
//	3 indexed           1,2,4,8
//	4 grayscale+alpha   8,16
//	6 truecolor+alpha   8,16
type IHDR struct {
	Width           uint32
	Height          uint32
	BitDepth        BitDepth
	ColorType       ColorType
	Compression     CompressionType
	FilterMethod    FilterMethod
	InterlaceMethod InterlaceMethod
}

// NewIHDR validates the field combination and builds the header record.
func NewIHDR(width, height uint32, depth BitDepth, colorType ColorType) (IHDR, error) {
	h := IHDR{
		Width:     width,
		Height:    height,
		BitDepth:  depth,
		ColorType: colorType,
	}
	return h, h.validate()
}

func (h *IHDR) validate() error {
	if h.Width == 0 || h.Width >= 1<<31 {
		return errors.WithStack(&MetadataError{Field: "width", Value: int64(h.Width)})
	}
	if h.Height == 0 || h.Height >= 1<<31 {
		return errors.WithStack(&MetadataError{Field: "height", Value: int64(h.Height)})
	}
	if !h.ColorType.allowsDepth(h.BitDepth) {
		return errors.WithStack(&MetadataError{
			Field: "bit depth for color type " + h.ColorType.String(),
			Value: int64(h.BitDepth),
		})
	}
	return nil
}

func (h *IHDR) parse(p *payloadReader) error {
	if p.remaining() != 13 {
		return errors.WithStack(InvalidIHDRLengthError(p.remaining()))
	}
	var err error
	if h.Width, err = p.uint32(); err != nil {
		return err
	}
	if h.Height, err = p.uint32(); err != nil {
		return err
	}
	raw := p.rest()
	if h.BitDepth, err = ParseBitDepth(raw[0]); err != nil {
		return err
	}
	if h.ColorType, err = ParseColorType(raw[1]); err != nil {
		return err
	}
	if h.Compression, err = ParseCompressionType(raw[2]); err != nil {
		return err
	}
	if h.FilterMethod, err = ParseFilterMethod(raw[3]); err != nil {
		return err
	}
	if h.InterlaceMethod, err = ParseInterlaceMethod(raw[4]); err != nil {
		return err
	}
	return h.validate()
}

// BPP is the number of bytes per complete pixel, rounding up to 1.
func (h *IHDR) BPP() int {
	n := int(h.BitDepth) / 8 * h.ColorType.Channels()
	if n < 1 {
		n = 1
	}
	return n
}

// rowBytes is the byte length of one filtered scanline, excluding the
// leading filter-type byte.
func (h *IHDR) rowBytes() int {
	return (int(h.BitDepth)*h.ColorType.Channels()*int(h.Width) + 7) / 8
}

// PaletteEntry is a single RGB triple from the PLTE chunk.
type PaletteEntry struct {
	Red   uint8
	Green uint8
	Blue  uint8
}

// PLTE contains from 1 to 256 palette entries. The first entry is
// referenced by pixel value 0, the second by pixel value 1, and so on.
// Required for indexed images; optional for truecolor; forbidden for
// grayscale.
type PLTE struct {
	Entries []PaletteEntry
}

// At looks an entry up by palette index. The index is widened to uint16
// purely for ergonomic indexing; on the wire its width equals the image
// bit depth.
func (p *PLTE) At(index uint16) (PaletteEntry, error) {
	if int(index) >= len(p.Entries) {
		return PaletteEntry{}, chunkErrorf("PLTE", "palette index %d out of range (%d entries)", index, len(p.Entries))
	}
	return p.Entries[index], nil
}

func (p *PLTE) parse(pr *payloadReader) error {
	n := pr.remaining()
	if n == 0 || n%3 != 0 || n > 768 {
		return chunkErrorf("PLTE", "length %d is not a non-zero multiple of 3 of at most 768 bytes", n)
	}
	raw := pr.rest()
	p.Entries = make([]PaletteEntry, 0, n/3)
	for i := 0; i < n; i += 3 {
		p.Entries = append(p.Entries, PaletteEntry{Red: raw[i], Green: raw[i+1], Blue: raw[i+2]})
	}
	return nil
}

// Transparency carries the tRNS payload. The interpretation depends on
// the color type the header declared, so the record is a sum tagged by
// Kind:
//
//	Grayscale: a single 16-bit gray value treated as fully transparent
//	RGB:       a 16-bit triple treated as fully transparent
//	Indexed:   one 8-bit alpha per palette entry, positional; entries
//	           beyond the list default to fully opaque
//
// tRNS is prohibited for color types 4 and 6, since a full alpha channel
// is already present in those cases.
type Transparency struct {
	Kind ColorType

	Gray             uint16
	Red, Green, Blue uint16
	PaletteAlphas    []uint8
}

// AlphaFor returns the alpha for a palette index, defaulting to fully
// opaque past the end of the list.
func (t *Transparency) AlphaFor(index uint16) uint8 {
	if int(index) < len(t.PaletteAlphas) {
		return t.PaletteAlphas[index]
	}
	return 0xFF
}

func (t *Transparency) parse(p *payloadReader, colorType ColorType, paletteLen int) error {
	t.Kind = colorType
	switch colorType {
	case Grayscale:
		if p.remaining() != 2 {
			return chunkErrorf("tRNS", "expected 2 bytes for grayscale, found %d", p.remaining())
		}
		g, err := p.uint16()
		if err != nil {
			return err
		}
		t.Gray = g
	case RGB:
		if p.remaining() != 6 {
			return chunkErrorf("tRNS", "expected 6 bytes for rgb, found %d", p.remaining())
		}
		var err error
		if t.Red, err = p.uint16(); err != nil {
			return err
		}
		if t.Green, err = p.uint16(); err != nil {
			return err
		}
		if t.Blue, err = p.uint16(); err != nil {
			return err
		}
	case Indexed:
		if p.remaining() > paletteLen {
			return chunkErrorf("tRNS", "more alpha values (%d) than palette entries (%d)", p.remaining(), paletteLen)
		}
		t.PaletteAlphas = append([]uint8(nil), p.rest()...)
	default:
		return chunkErrorf("tRNS", "forbidden for color type %s", colorType)
	}
	return p.done()
}

// Background carries the bKGD payload: a default background color in the
// image's native color space, tagged by Kind like Transparency. For
// indexed images the stored form is a palette index; RGB is materialized
// from the palette at parse time.
type Background struct {
	Kind ColorType

	Gray             uint16
	Red, Green, Blue uint16
	PaletteIndex     uint8
}

// RGB returns the background as a 16-bit triple regardless of stored
// form.
func (b *Background) RGB() [3]uint16 {
	switch b.Kind {
	case Grayscale, GrayscaleAlpha:
		return [3]uint16{b.Gray, b.Gray, b.Gray}
	default:
		return [3]uint16{b.Red, b.Green, b.Blue}
	}
}

func (b *Background) parse(p *payloadReader, colorType ColorType, plte *PLTE) error {
	b.Kind = colorType
	switch colorType {
	case Grayscale, GrayscaleAlpha:
		g, err := p.uint16()
		if err != nil {
			return err
		}
		b.Gray = g
	case RGB, RGBA:
		var err error
		if b.Red, err = p.uint16(); err != nil {
			return err
		}
		if b.Green, err = p.uint16(); err != nil {
			return err
		}
		if b.Blue, err = p.uint16(); err != nil {
			return err
		}
	case Indexed:
		if plte == nil {
			return chunkErrorf("bKGD", "palette index with no PLTE chunk")
		}
		idx, err := p.byte()
		if err != nil {
			return err
		}
		entry, err := plte.At(uint16(idx))
		if err != nil {
			return err
		}
		b.PaletteIndex = idx
		b.Red = uint16(entry.Red)
		b.Green = uint16(entry.Green)
		b.Blue = uint16(entry.Blue)
	}
	return p.done()
}

// SignificantBits carries the sBIT payload: the number of bits that were
// significant in the source data, per channel, tagged by Kind.
type SignificantBits struct {
	Kind ColorType

	Gray             uint8
	Red, Green, Blue uint8
	Alpha            uint8
}

func (s *SignificantBits) parse(p *payloadReader, colorType ColorType) error {
	s.Kind = colorType
	var err error
	read := func() uint8 {
		var v uint8
		if err == nil {
			v, err = p.byte()
		}
		return v
	}
	switch colorType {
	case Grayscale:
		s.Gray = read()
	case RGB, Indexed:
		s.Red, s.Green, s.Blue = read(), read(), read()
	case GrayscaleAlpha:
		s.Gray, s.Alpha = read(), read()
	case RGBA:
		s.Red, s.Green, s.Blue, s.Alpha = read(), read(), read(), read()
	}
	if err != nil {
		return err
	}
	return p.done()
}

// Gamma is the gAMA payload: the image gamma times 100000.
type Gamma struct {
	Gamma uint32
}

func (g *Gamma) parse(p *payloadReader) error {
	if p.remaining() != 4 {
		return chunkErrorf("gAMA", "length was not equal to 4")
	}
	v, err := p.uint32()
	if err != nil {
		return err
	}
	g.Gamma = v
	return nil
}

// Chromaticity is the cHRM payload: the 1931 CIE x,y chromaticities of
// the primaries and the referenced white point, each value times 100000.
type Chromaticity struct {
	WhiteX, WhiteY uint32
	RedX, RedY     uint32
	GreenX, GreenY uint32
	BlueX, BlueY   uint32
}

func (c *Chromaticity) parse(p *payloadReader) error {
	if p.remaining() != 32 {
		return chunkErrorf("cHRM", "expected 32 bytes, found %d", p.remaining())
	}
	fields := []*uint32{&c.WhiteX, &c.WhiteY, &c.RedX, &c.RedY, &c.GreenX, &c.GreenY, &c.BlueX, &c.BlueY}
	for _, f := range fields {
		v, err := p.uint32()
		if err != nil {
			return err
		}
		*f = v
	}
	return nil
}

// ICCP is the iCCP payload: a profile name, a compression method byte,
// and the deflate-compressed ICC profile. The profile stays compressed
// until Png.ICCProfile is asked for it.
type ICCP struct {
	ProfileName       string
	Compression       CompressionType
	CompressedProfile []byte
}

func (c *ICCP) parse(p *payloadReader) error {
	name, err := p.terminated()
	if err != nil {
		return err
	}
	method, err := p.byte()
	if err != nil {
		return err
	}
	if c.Compression, err = ParseCompressionType(method); err != nil {
		return err
	}
	c.ProfileName = string(name)
	c.CompressedProfile = append([]byte(nil), p.rest()...)
	return nil
}

// Phys is the pHYs payload: the intended pixel size or aspect ratio.
type Phys struct {
	PixelsPerUnitX uint32
	PixelsPerUnitY uint32
	Unit           Unit
}

func (ph *Phys) parse(p *payloadReader) error {
	if p.remaining() != 9 {
		return chunkErrorf("pHYs", "expected 9 bytes, found %d", p.remaining())
	}
	var err error
	if ph.PixelsPerUnitX, err = p.uint32(); err != nil {
		return err
	}
	if ph.PixelsPerUnitY, err = p.uint32(); err != nil {
		return err
	}
	unit, err := p.byte()
	if err != nil {
		return err
	}
	ph.Unit, err = ParseUnit(unit)
	return err
}

// LastModified is the tIME payload. Universal Time is specified rather
// than local time.
type LastModified struct {
	Year   uint16
	Month  uint8
	Day    uint8
	Hour   uint8
	Minute uint8
	Second uint8
}

func (t *LastModified) parse(p *payloadReader) error {
	if p.remaining() != 7 {
		return chunkErrorf("tIME", "expected 7 bytes, found %d", p.remaining())
	}
	y, err := p.uint16()
	if err != nil {
		return err
	}
	raw := p.rest()
	t.Year = y
	t.Month, t.Day, t.Hour, t.Minute, t.Second = raw[0], raw[1], raw[2], raw[3], raw[4]
	return nil
}

// Time converts the record to a time.Time in UTC.
func (t *LastModified) Time() time.Time {
	return time.Date(int(t.Year), time.Month(t.Month), int(t.Day),
		int(t.Hour), int(t.Minute), int(t.Second), 0, time.UTC)
}

// parseHIST reads the palette histogram: one 16-bit frequency per PLTE
// entry.
func parseHIST(p *payloadReader, paletteLen int) ([]uint16, error) {
	if p.remaining() != paletteLen*2 {
		return nil, chunkErrorf("hIST", "expected one entry per palette entry (%d), found %d bytes", paletteLen, p.remaining())
	}
	hist := make([]uint16, 0, paletteLen)
	for p.remaining() > 0 {
		v, err := p.uint16()
		if err != nil {
			return nil, err
		}
		hist = append(hist, v)
	}
	return hist, nil
}

// UnrecognizedChunk preserves a chunk whose type code the decoder does
// not know. The property bits are derived from the case of the type code
// bytes.
type UnrecognizedChunk struct {
	ChunkType  ChunkName
	Data       []byte
	Critical   bool
	Public     bool
	SafeToCopy bool
}

// AncillaryChunks aggregates the optional records that are not necessary
// to render the image. Each is populated at most once, except the textual
// records, which form a sequence.
type AncillaryChunks struct {
	Phys            *Phys
	Gamma           *Gamma
	Chroma          *Chromaticity
	ICCProfile      *ICCP
	SignificantBits *SignificantBits
	SRGB            *RenderingIntent
	Background      *Background
	Transparency    *Transparency
	Histogram       []uint16
	LastModified    *LastModified
	Text            []TextEntry
}
