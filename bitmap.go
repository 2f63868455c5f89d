package png

import "github.com/pkg/errors"

// Bitmap is the decoded image: a contiguous buffer of
// height*width*bytes-per-pixel bytes. Within each pixel the channels
// appear in the order the color type declares them, big-endian for
// 16-bit channels. Samples narrower than a byte are unpacked to one byte
// each, holding the raw sample value.
type Bitmap struct {
	Width  int
	Height int
	BPP    int
	Pix    []byte
}

// RowStride is the byte length of one bitmap row.
func (b *Bitmap) RowStride() int { return b.Width * b.BPP }

// Row returns the y-th row of the buffer.
func (b *Bitmap) Row(y int) []byte {
	s := b.RowStride()
	return b.Pix[y*s : (y+1)*s]
}

// At returns the raw bytes of the pixel at (x, y).
func (b *Bitmap) At(x, y int) []byte {
	off := y*b.RowStride() + x*b.BPP
	return b.Pix[off : off+b.BPP]
}

// unpackRow expands a defiltered scanline of sub-byte samples into one
// byte per sample. Rows are packed MSB-first; padding bits in the last
// byte are ignored. Only grayscale and indexed images carry bit depths
// below 8, so one sample is one pixel.
func unpackRow(dst, src []byte, depth BitDepth, width int) {
	bits := uint(depth)
	mask := byte(1<<bits - 1)
	perByte := 8 / int(bits)
	for x := 0; x < width; x++ {
		b := src[x/perByte]
		shift := 8 - bits*(uint(x%perByte)+1)
		dst[x] = (b >> shift) & mask
	}
}

// Pixel is a semantic pixel reconstructed on demand from the flat
// buffer. Channel values are in the image's native sample depth (after
// palette indirection, 8 bits); Alpha is full-scale for that depth when
// the pixel is opaque.
type Pixel struct {
	R, G, B, A uint16
}

// maxSample is the full-scale value for a sample depth.
func maxSample(depth BitDepth) uint16 {
	return uint16(1<<uint(depth) - 1)
}

// ReconstructPixel interprets the bitmap bytes at (x, y) according to the
// image's color type, bit depth, palette, and transparency.
func (p *Png) ReconstructPixel(bm *Bitmap, x, y int) (Pixel, error) {
	if x < 0 || x >= bm.Width || y < 0 || y >= bm.Height {
		return Pixel{}, errors.Errorf("png: pixel (%d, %d) out of bounds %dx%d", x, y, bm.Width, bm.Height)
	}
	h := &p.Header
	raw := bm.At(x, y)
	trns := p.Ancillary.Transparency
	opaque := maxSample(h.BitDepth)

	sample := func(i int) uint16 {
		if h.BitDepth == BitDepth16 {
			return be.Uint16(raw[2*i:])
		}
		return uint16(raw[i])
	}

	switch h.ColorType {
	case Grayscale:
		g := sample(0)
		px := Pixel{R: g, G: g, B: g, A: opaque}
		if trns != nil && trns.Gray == g {
			px.A = 0
		}
		return px, nil

	case GrayscaleAlpha:
		return Pixel{R: sample(0), G: sample(0), B: sample(0), A: sample(1)}, nil

	case RGB:
		px := Pixel{R: sample(0), G: sample(1), B: sample(2), A: opaque}
		if trns != nil && trns.Red == px.R && trns.Green == px.G && trns.Blue == px.B {
			px.A = 0
		}
		return px, nil

	case RGBA:
		return Pixel{R: sample(0), G: sample(1), B: sample(2), A: sample(3)}, nil

	case Indexed:
		if p.plte == nil {
			return Pixel{}, errors.WithStack(ErrPaletteNotFound)
		}
		idx := sample(0)
		entry, err := p.plte.At(idx)
		if err != nil {
			return Pixel{}, err
		}
		px := Pixel{
			R: uint16(entry.Red),
			G: uint16(entry.Green),
			B: uint16(entry.Blue),
			A: 0xFF,
		}
		if trns != nil {
			px.A = uint16(trns.AlphaFor(idx))
		}
		return px, nil
	}
	return Pixel{}, errors.WithStack(&MetadataError{Field: "color type", Value: int64(h.ColorType)})
}
