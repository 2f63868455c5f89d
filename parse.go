package png

import (
	"io"

	"github.com/pkg/errors"
)

var pngHeaderBytes = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
var pngHeader = string(pngHeaderBytes)

// ParsePng reads a PNG stream: the 8-byte signature, then chunks until
// IEND. Chunk CRCs are verified as the stream is read; a mismatch on a
// critical chunk is fatal, while an ancillary chunk with a bad CRC is
// skipped. Ordering rules are enforced: IHDR first, IEND last, IDAT
// contiguous, PLTE/tRNS/bKGD before the first IDAT, bKGD after PLTE when
// both are present.
func ParsePng(r io.Reader) (*Png, error) {
	br := newByteReader(r)

	sig := make([]byte, 8)
	if err := br.readFull(sig); err != nil {
		return nil, errors.Wrap(ErrInvalidHeader, err.Error())
	}
	if string(sig) != pngHeader {
		return nil, errors.WithStack(ErrInvalidHeader)
	}

	d := &dispatcher{r: br, crc: newCRCVerifier(), png: &Png{}}
	for !d.seenIEND {
		if err := d.next(); err != nil {
			return nil, err
		}
	}
	return d.png, nil
}

// dispatcher is the header-check loop: it frames chunks, feeds the CRC,
// and routes payloads to the typed parsers.
type dispatcher struct {
	r   *byteReader
	crc *crcVerifier
	png *Png

	seenIHDR   bool
	seenIDAT   bool
	idatClosed bool
	seenIEND   bool
}

func (d *dispatcher) next() error {
	length, err := d.r.readUint32()
	if err != nil {
		return err
	}
	if length > 0x7FFFFFFF {
		return chunkErrorf("?", "bad chunk length: %d", length)
	}

	code := make([]byte, 4)
	if err := d.r.readFull(code); err != nil {
		return err
	}
	name := ChunkName(code)

	d.crc.reset()
	d.crc.write(code)

	payload, err := d.r.readN(int(length))
	if err != nil {
		return err
	}
	d.crc.write(payload)

	stored, err := d.r.readUint32()
	if err != nil {
		return err
	}
	if got := d.crc.sum(); got != stored {
		if name == IENDChunk {
			return errors.Wrapf(ErrInvalidIEND, "checksum %08x, want %08x", got, stored)
		}
		if name.Critical() {
			return errors.WithStack(&CRCError{ChunkType: string(name), Got: got, Want: stored})
		}
		// Ancillary chunks are skippable; a corrupt one records nothing.
		return nil
	}

	if !d.seenIHDR && name != IHDRChunk {
		return chunkErrorf(string(name), "expected IHDR as first chunk")
	}
	if d.seenIDAT && name != IDATChunk {
		d.idatClosed = true
	}

	return d.dispatch(name, payload)
}

func (d *dispatcher) dispatch(name ChunkName, payload []byte) error {
	p := newPayloadReader(string(name), payload)
	png := d.png

	// Single-occurrence ancillary records must not repeat, and the ones
	// tied to pixel interpretation must precede the image data.
	once := func(present bool) error {
		if present {
			return chunkErrorf(string(name), "chunk appears more than once")
		}
		return nil
	}
	beforeIDAT := func() error {
		if d.seenIDAT {
			return chunkErrorf(string(name), "must precede the first IDAT chunk")
		}
		return nil
	}

	switch name {
	case IHDRChunk:
		if d.seenIHDR {
			return chunkErrorf("IHDR", "chunk appears more than once")
		}
		if err := png.Header.parse(p); err != nil {
			return err
		}
		d.seenIHDR = true
		return nil

	case PLTEChunk:
		if err := once(png.plte != nil); err != nil {
			return err
		}
		if err := beforeIDAT(); err != nil {
			return err
		}
		if !png.Header.ColorType.hasPalette() {
			return chunkErrorf("PLTE", "unexpected chunk for color type %s", png.Header.ColorType)
		}
		if png.Ancillary.Background != nil {
			return chunkErrorf("PLTE", "must precede bKGD")
		}
		plte := &PLTE{}
		if err := plte.parse(p); err != nil {
			return err
		}
		png.plte = plte
		return nil

	case IDATChunk:
		if d.idatClosed {
			return chunkErrorf("IDAT", "chunks must be consecutive")
		}
		png.idat = append(png.idat, payload...)
		d.seenIDAT = true
		return nil

	case IENDChunk:
		if len(payload) != 0 {
			return errors.Wrapf(ErrInvalidIEND, "length %d", len(payload))
		}
		d.seenIEND = true
		return nil

	case TRNSChunk:
		if err := once(png.Ancillary.Transparency != nil); err != nil {
			return err
		}
		if err := beforeIDAT(); err != nil {
			return err
		}
		trns := &Transparency{}
		if err := trns.parse(p, png.Header.ColorType, png.paletteLen()); err != nil {
			return err
		}
		png.Ancillary.Transparency = trns
		return nil

	case BKGDChunk:
		if err := once(png.Ancillary.Background != nil); err != nil {
			return err
		}
		if err := beforeIDAT(); err != nil {
			return err
		}
		if png.Header.ColorType == Indexed && png.plte == nil {
			return chunkErrorf("bKGD", "must follow PLTE")
		}
		bkgd := &Background{}
		if err := bkgd.parse(p, png.Header.ColorType, png.plte); err != nil {
			return err
		}
		png.Ancillary.Background = bkgd
		return nil

	case SBITChunk:
		if err := once(png.Ancillary.SignificantBits != nil); err != nil {
			return err
		}
		sbit := &SignificantBits{}
		if err := sbit.parse(p, png.Header.ColorType); err != nil {
			return err
		}
		png.Ancillary.SignificantBits = sbit
		return nil

	case GAMAChunk:
		if err := once(png.Ancillary.Gamma != nil); err != nil {
			return err
		}
		gama := &Gamma{}
		if err := gama.parse(p); err != nil {
			return err
		}
		png.Ancillary.Gamma = gama
		return nil

	case CHRMChunk:
		if err := once(png.Ancillary.Chroma != nil); err != nil {
			return err
		}
		chrm := &Chromaticity{}
		if err := chrm.parse(p); err != nil {
			return err
		}
		png.Ancillary.Chroma = chrm
		return nil

	case ICCPChunk:
		if err := once(png.Ancillary.ICCProfile != nil); err != nil {
			return err
		}
		iccp := &ICCP{}
		if err := iccp.parse(p); err != nil {
			return err
		}
		png.Ancillary.ICCProfile = iccp
		return nil

	case SRGBChunk:
		if err := once(png.Ancillary.SRGB != nil); err != nil {
			return err
		}
		v, err := p.byte()
		if err != nil {
			return err
		}
		intent, err := ParseRenderingIntent(v)
		if err != nil {
			return err
		}
		if err := p.done(); err != nil {
			return err
		}
		png.Ancillary.SRGB = &intent
		return nil

	case PHYSChunk:
		if err := once(png.Ancillary.Phys != nil); err != nil {
			return err
		}
		phys := &Phys{}
		if err := phys.parse(p); err != nil {
			return err
		}
		png.Ancillary.Phys = phys
		return nil

	case HISTChunk:
		if err := once(png.Ancillary.Histogram != nil); err != nil {
			return err
		}
		if png.plte == nil {
			return chunkErrorf("hIST", "must follow PLTE")
		}
		hist, err := parseHIST(p, png.paletteLen())
		if err != nil {
			return err
		}
		png.Ancillary.Histogram = hist
		return nil

	case TIMEChunk:
		if err := once(png.Ancillary.LastModified != nil); err != nil {
			return err
		}
		t := &LastModified{}
		if err := t.parse(p); err != nil {
			return err
		}
		png.Ancillary.LastModified = t
		return nil

	case TEXTChunk:
		entry, err := parseTEXT(p)
		if err != nil {
			return err
		}
		png.Ancillary.Text = append(png.Ancillary.Text, entry)
		return nil

	case ZTXTChunk:
		entry, err := parseZTXT(p)
		if err != nil {
			return err
		}
		png.Ancillary.Text = append(png.Ancillary.Text, entry)
		return nil

	case ITXTChunk:
		entry, err := parseITXT(p)
		if err != nil {
			return err
		}
		png.Ancillary.Text = append(png.Ancillary.Text, entry)
		return nil
	}

	if name.Critical() {
		return errors.WithStack(&UnrecognizedCriticalChunkError{ChunkType: string(name)})
	}
	png.Unrecognized = append(png.Unrecognized, UnrecognizedChunk{
		ChunkType:  name,
		Data:       payload,
		Critical:   name.Critical(),
		Public:     name.Public(),
		SafeToCopy: name.SafeToCopy(),
	})
	return nil
}
