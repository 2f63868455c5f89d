package png

import (
	"io"
	"math"
	"os"
	"sync"

	"github.com/pkg/errors"
)

// Png is the parsed image object. It owns the header record, the
// optional palette, the concatenated compressed image data, the
// unrecognized chunks that were preserved, and the ancillary records.
// The header is immutable after parse; the decoded buffer is produced
// lazily by Decode and cached.
type Png struct {
	Header       IHDR
	Ancillary    AncillaryChunks
	Unrecognized []UnrecognizedChunk

	plte *PLTE
	idat []byte

	// mu guards the decode cache. Concurrent Decode calls serialize on
	// it and observe the same buffer.
	mu      sync.Mutex
	decoded *Bitmap
}

// Open parses a PNG file from disk.
func Open(path string) (*Png, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer f.Close()
	return ParsePng(f)
}

// Dimensions returns the image width and height in pixels.
func (p *Png) Dimensions() (uint32, uint32) {
	return p.Header.Width, p.Header.Height
}

func (p *Png) Width() uint32 { return p.Header.Width }

func (p *Png) Height() uint32 { return p.Header.Height }

// BPP is the number of bytes per complete pixel, rounding up to 1.
func (p *Png) BPP() int { return p.Header.BPP() }

// Palette returns the palette, or ErrPaletteNotFound when the image has
// no PLTE chunk.
func (p *Png) Palette() (*PLTE, error) {
	if p.plte == nil {
		return nil, errors.WithStack(ErrPaletteNotFound)
	}
	return p.plte, nil
}

func (p *Png) paletteLen() int {
	if p.plte == nil {
		return 0
	}
	return len(p.plte.Entries)
}

// ICCProfile decompresses and returns the raw ICC profile bytes, or
// ErrICCProfileNotFound when the image has no iCCP chunk.
func (p *Png) ICCProfile() ([]byte, error) {
	iccp := p.Ancillary.ICCProfile
	if iccp == nil {
		return nil, errors.WithStack(ErrICCProfileNotFound)
	}
	profile, err := inflate(iccp.CompressedProfile)
	if err != nil {
		return nil, errors.Wrap(err, "iCCP profile")
	}
	return profile, nil
}

// DPI is a physical resolution in pixels per inch.
type DPI struct {
	X uint32
	Y uint32
}

const metersToInch = 0.0254

// DPI converts the pHYs record to pixels per inch. It is absent when the
// chunk is missing or its unit is unknown.
func (p *Png) DPI() (DPI, bool) {
	phys := p.Ancillary.Phys
	if phys == nil || phys.Unit != UnitMeters {
		return DPI{}, false
	}
	return DPI{
		X: uint32(math.Round(float64(phys.PixelsPerUnitX) * metersToInch)),
		Y: uint32(math.Round(float64(phys.PixelsPerUnitY) * metersToInch)),
	}, true
}

// AspectRatio is the ratio of the horizontal to the vertical pHYs pixel
// density (PixelsPerUnitX / PixelsPerUnitY), meaningful even when the
// unit is unknown.
func (p *Png) AspectRatio() (float64, bool) {
	phys := p.Ancillary.Phys
	if phys == nil || phys.PixelsPerUnitY == 0 {
		return 0, false
	}
	return float64(phys.PixelsPerUnitX) / float64(phys.PixelsPerUnitY), true
}

// Decode decompresses, defilters, and unpacks the image data into a
// Bitmap. The result is cached on the image; concurrent callers
// serialize on an internal lock and observe the same buffer.
func (p *Png) Decode() (*Bitmap, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.decoded != nil {
		return p.decoded, nil
	}

	bm, err := p.decode()
	if err != nil {
		return nil, err
	}
	p.decoded = bm
	return bm, nil
}

func (p *Png) decode() (*Bitmap, error) {
	if len(p.idat) == 0 {
		return nil, errors.WithStack(ErrZeroLengthIDAT)
	}
	if p.Header.InterlaceMethod == Adam7 {
		return nil, errors.WithStack(UnsupportedError("Adam7 interlaced pixel data"))
	}

	raw, err := inflate(p.idat)
	if err != nil {
		return nil, errors.Wrap(err, "image data")
	}

	h := &p.Header
	width, height := int(h.Width), int(h.Height)
	bpp := h.BPP()
	rowBytes := h.rowBytes()
	if want := height * (1 + rowBytes); len(raw) != want {
		return nil, errors.Wrapf(io.ErrUnexpectedEOF, "image data: expected %d bytes, found %d", want, len(raw))
	}

	bm := &Bitmap{
		Width:  width,
		Height: height,
		BPP:    bpp,
		Pix:    make([]byte, width*height*bpp),
	}

	subByte := h.BitDepth < BitDepth8
	prev := make([]byte, rowBytes)
	for y := 0; y < height; y++ {
		off := y * (1 + rowBytes)
		ft, err := ParseFilterType(raw[off])
		if err != nil {
			return nil, err
		}
		cur := raw[off+1 : off+1+rowBytes]
		if err := defilterRow(ft, cur, prev, bpp); err != nil {
			return nil, err
		}
		if subByte {
			unpackRow(bm.Row(y), cur, h.BitDepth, width)
		} else {
			copy(bm.Row(y), cur)
		}
		prev = cur
	}
	return bm, nil
}

// Builder constructs an image programmatically from a pixel buffer plus
// metadata. The buffer is in Bitmap layout: one byte per sample (raw
// value for sub-byte depths), big-endian pairs for 16-bit channels.
type Builder struct {
	width     uint32
	height    uint32
	colorType ColorType
	bitDepth  BitDepth
	plte      *PLTE
	buffer    []byte
}

func NewBuilder(width, height uint32) *Builder {
	return &Builder{
		width:     width,
		height:    height,
		colorType: RGBA,
		bitDepth:  BitDepth8,
	}
}

func (b *Builder) ColorType(c ColorType) *Builder {
	b.colorType = c
	return b
}

func (b *Builder) BitDepth(d BitDepth) *Builder {
	b.bitDepth = d
	return b
}

func (b *Builder) Palette(p *PLTE) *Builder {
	b.plte = p
	return b
}

func (b *Builder) Buffer(buf []byte) *Builder {
	b.buffer = buf
	return b
}

// Finish validates the metadata and returns an image whose decoded
// buffer is pre-seeded, ready for Save.
func (b *Builder) Finish() (*Png, error) {
	header, err := NewIHDR(b.width, b.height, b.bitDepth, b.colorType)
	if err != nil {
		return nil, err
	}
	if b.colorType == Indexed && b.plte == nil {
		return nil, errors.WithStack(ErrPaletteNotFound)
	}
	bpp := header.BPP()
	if want := int(b.width) * int(b.height) * bpp; len(b.buffer) != want {
		return nil, errors.Errorf("png: buffer length %d, want %d for %dx%d at %d bytes per pixel",
			len(b.buffer), want, b.width, b.height, bpp)
	}
	return &Png{
		Header: header,
		plte:   b.plte,
		decoded: &Bitmap{
			Width:  int(b.width),
			Height: int(b.height),
			BPP:    bpp,
			Pix:    b.buffer,
		},
	}, nil
}
