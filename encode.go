package png

import (
	"bufio"
	"bytes"
	"compress/zlib"
	"io"
	"os"

	"github.com/pkg/errors"
)

// CompressionLevel tells the encoder how to trade compression speed for
// image size.
type CompressionLevel int

const (
	DefaultCompression CompressionLevel = 0
	NoCompression      CompressionLevel = -1
	BestSpeed          CompressionLevel = -2
	BestCompression    CompressionLevel = -3
)

func (l CompressionLevel) zlib() int {
	switch l {
	case NoCompression:
		return zlib.NoCompression
	case BestSpeed:
		return zlib.BestSpeed
	case BestCompression:
		return zlib.BestCompression
	default:
		return zlib.DefaultCompression
	}
}

// Encoder emits PNG byte streams.
type Encoder struct {
	Level CompressionLevel
}

func NewEncoder(level CompressionLevel) *Encoder {
	return &Encoder{Level: level}
}

// Save encodes the image to a file with the default compression level.
func (p *Png) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.WithStack(err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	if err := p.Write(w); err != nil {
		return err
	}
	return errors.WithStack(w.Flush())
}

// Write encodes the image to w with the default compression level.
func (p *Png) Write(w io.Writer) error {
	return NewEncoder(DefaultCompression).Encode(w, p)
}

// Encode writes the signature and the framed chunk sequence: the header,
// the color-space and palette records the image carries, the filtered
// and deflated image data, and the end chunk. Every invariant violation
// is reported before any bytes are written.
func (e *Encoder) Encode(w io.Writer, p *Png) error {
	chunks, err := e.buildChunks(p)
	if err != nil {
		return err
	}

	if _, err := w.Write(pngHeaderBytes); err != nil {
		return errors.WithStack(err)
	}
	for _, c := range chunks {
		if err := writeChunk(w, c.name, c.payload); err != nil {
			return err
		}
	}
	return nil
}

type framedChunk struct {
	name    ChunkName
	payload []byte
}

// buildChunks serializes every chunk payload up front so that validation
// failures surface before the first byte hits the sink.
func (e *Encoder) buildChunks(p *Png) ([]framedChunk, error) {
	if err := p.Header.validate(); err != nil {
		return nil, err
	}
	if p.Header.ColorType == Indexed && p.plte == nil {
		return nil, errors.WithStack(ErrPaletteNotFound)
	}

	bm, err := p.Decode()
	if err != nil {
		return nil, err
	}

	var chunks []framedChunk
	add := func(name ChunkName, payload []byte) {
		chunks = append(chunks, framedChunk{name: name, payload: payload})
	}

	add(IHDRChunk, ihdrPayload(&p.Header))

	anc := &p.Ancillary
	if anc.Chroma != nil {
		add(CHRMChunk, chrmPayload(anc.Chroma))
	}
	if anc.Gamma != nil {
		add(GAMAChunk, be32(anc.Gamma.Gamma))
	}
	if anc.ICCProfile != nil {
		add(ICCPChunk, iccpPayload(anc.ICCProfile))
	}
	if anc.SignificantBits != nil {
		add(SBITChunk, sbitPayload(anc.SignificantBits))
	}
	if anc.SRGB != nil {
		add(SRGBChunk, []byte{byte(*anc.SRGB)})
	}
	if p.plte != nil {
		add(PLTEChunk, pltePayload(p.plte))
	}
	if anc.Transparency != nil {
		add(TRNSChunk, trnsPayload(anc.Transparency))
	}
	if anc.Histogram != nil {
		add(HISTChunk, histPayload(anc.Histogram))
	}
	if anc.Background != nil {
		add(BKGDChunk, bkgdPayload(anc.Background))
	}
	if anc.Phys != nil {
		add(PHYSChunk, physPayload(anc.Phys))
	}
	for _, u := range p.Unrecognized {
		if u.Critical {
			return nil, errors.WithStack(&UnrecognizedCriticalChunkError{ChunkType: string(u.ChunkType)})
		}
		if !u.SafeToCopy {
			continue
		}
		add(u.ChunkType, u.Data)
	}

	idat, err := e.idatPayload(&p.Header, bm)
	if err != nil {
		return nil, err
	}
	add(IDATChunk, idat)

	for _, t := range anc.Text {
		name, payload, err := e.textPayload(t)
		if err != nil {
			return nil, err
		}
		add(name, payload)
	}
	if anc.LastModified != nil {
		add(TIMEChunk, timePayload(anc.LastModified))
	}

	add(IENDChunk, nil)
	return chunks, nil
}

// writeChunk frames a single chunk: 4-byte big-endian payload length,
// type code, payload, then the CRC over type code and payload.
func writeChunk(w io.Writer, name ChunkName, payload []byte) error {
	var head [8]byte
	be.PutUint32(head[:4], uint32(len(payload)))
	copy(head[4:], name)
	if _, err := w.Write(head[:]); err != nil {
		return errors.WithStack(err)
	}
	if _, err := w.Write(payload); err != nil {
		return errors.WithStack(err)
	}
	var tail [4]byte
	be.PutUint32(tail[:], chunkCRC(string(name), payload))
	_, err := w.Write(tail[:])
	return errors.WithStack(err)
}

// idatPayload runs the filter engine across all rows, packing sub-byte
// samples back onto the wire layout first, then deflates the filtered
// stream.
func (e *Encoder) idatPayload(h *IHDR, bm *Bitmap) ([]byte, error) {
	rowBytes := h.rowBytes()
	bpp := h.BPP()
	subByte := h.BitDepth < BitDepth8

	var filtered bytes.Buffer
	filtered.Grow(bm.Height * (1 + rowBytes))

	var scratch [nFilter][]byte
	for i := range scratch {
		scratch[i] = make([]byte, rowBytes)
	}
	prev := make([]byte, rowBytes)
	cur := make([]byte, rowBytes)

	for y := 0; y < bm.Height; y++ {
		if subByte {
			packRow(cur, bm.Row(y), h.BitDepth, bm.Width)
		} else {
			copy(cur, bm.Row(y))
		}
		ft, residual := chooseFilter(&scratch, cur, prev, bpp)
		filtered.WriteByte(byte(ft))
		filtered.Write(residual)
		prev, cur = cur, prev
	}

	return e.deflate(filtered.Bytes())
}

// packRow is the inverse of unpackRow: it packs one-byte samples back
// MSB-first, leaving padding bits zero.
func packRow(dst, src []byte, depth BitDepth, width int) {
	for i := range dst {
		dst[i] = 0
	}
	bits := uint(depth)
	mask := byte(1<<bits - 1)
	perByte := 8 / int(bits)
	for x := 0; x < width; x++ {
		shift := 8 - bits*(uint(x%perByte)+1)
		dst[x/perByte] |= (src[x] & mask) << shift
	}
}

func (e *Encoder) deflate(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, e.Level.zlib())
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if _, err := zw.Write(data); err != nil {
		return nil, errors.WithStack(err)
	}
	if err := zw.Close(); err != nil {
		return nil, errors.WithStack(err)
	}
	return buf.Bytes(), nil
}

func be32(v uint32) []byte {
	var b [4]byte
	be.PutUint32(b[:], v)
	return b[:]
}

func be16(v uint16) []byte {
	var b [2]byte
	be.PutUint16(b[:], v)
	return b[:]
}

func ihdrPayload(h *IHDR) []byte {
	p := make([]byte, 0, 13)
	p = append(p, be32(h.Width)...)
	p = append(p, be32(h.Height)...)
	return append(p, byte(h.BitDepth), byte(h.ColorType), byte(h.Compression),
		byte(h.FilterMethod), byte(h.InterlaceMethod))
}

func pltePayload(plte *PLTE) []byte {
	p := make([]byte, 0, 3*len(plte.Entries))
	for _, e := range plte.Entries {
		p = append(p, e.Red, e.Green, e.Blue)
	}
	return p
}

func chrmPayload(c *Chromaticity) []byte {
	p := make([]byte, 0, 32)
	for _, v := range []uint32{c.WhiteX, c.WhiteY, c.RedX, c.RedY, c.GreenX, c.GreenY, c.BlueX, c.BlueY} {
		p = append(p, be32(v)...)
	}
	return p
}

func iccpPayload(c *ICCP) []byte {
	p := make([]byte, 0, len(c.ProfileName)+2+len(c.CompressedProfile))
	p = append(p, c.ProfileName...)
	p = append(p, 0, byte(c.Compression))
	return append(p, c.CompressedProfile...)
}

func sbitPayload(s *SignificantBits) []byte {
	switch s.Kind {
	case Grayscale:
		return []byte{s.Gray}
	case RGB, Indexed:
		return []byte{s.Red, s.Green, s.Blue}
	case GrayscaleAlpha:
		return []byte{s.Gray, s.Alpha}
	default:
		return []byte{s.Red, s.Green, s.Blue, s.Alpha}
	}
}

func trnsPayload(t *Transparency) []byte {
	switch t.Kind {
	case Grayscale:
		return be16(t.Gray)
	case RGB:
		p := make([]byte, 0, 6)
		p = append(p, be16(t.Red)...)
		p = append(p, be16(t.Green)...)
		return append(p, be16(t.Blue)...)
	default:
		return append([]byte(nil), t.PaletteAlphas...)
	}
}

func bkgdPayload(b *Background) []byte {
	switch b.Kind {
	case Grayscale, GrayscaleAlpha:
		return be16(b.Gray)
	case Indexed:
		return []byte{b.PaletteIndex}
	default:
		p := make([]byte, 0, 6)
		p = append(p, be16(b.Red)...)
		p = append(p, be16(b.Green)...)
		return append(p, be16(b.Blue)...)
	}
}

func histPayload(hist []uint16) []byte {
	p := make([]byte, 0, 2*len(hist))
	for _, v := range hist {
		p = append(p, be16(v)...)
	}
	return p
}

func physPayload(ph *Phys) []byte {
	p := make([]byte, 0, 9)
	p = append(p, be32(ph.PixelsPerUnitX)...)
	p = append(p, be32(ph.PixelsPerUnitY)...)
	return append(p, byte(ph.Unit))
}

func timePayload(t *LastModified) []byte {
	p := make([]byte, 0, 7)
	p = append(p, be16(t.Year)...)
	return append(p, t.Month, t.Day, t.Hour, t.Minute, t.Second)
}

func (e *Encoder) textPayload(t TextEntry) (ChunkName, []byte, error) {
	switch t.Kind {
	case TextPlain:
		kw, err := toLatin1("tEXt", t.Keyword)
		if err != nil {
			return "", nil, err
		}
		text, err := toLatin1("tEXt", t.Text)
		if err != nil {
			return "", nil, err
		}
		p := append(kw, 0)
		return TEXTChunk, append(p, text...), nil

	case TextCompressed:
		kw, err := toLatin1("zTXt", t.Keyword)
		if err != nil {
			return "", nil, err
		}
		text, err := toLatin1("zTXt", t.Text)
		if err != nil {
			return "", nil, err
		}
		compressed, err := e.deflate(text)
		if err != nil {
			return "", nil, err
		}
		p := append(kw, 0, byte(Deflate))
		return ZTXTChunk, append(p, compressed...), nil

	case TextInternational:
		text := []byte(t.Text)
		flag := byte(0)
		if t.Compressed {
			flag = 1
			var err error
			if text, err = e.deflate(text); err != nil {
				return "", nil, err
			}
		}
		p := append([]byte(t.Keyword), 0, flag, byte(Deflate))
		p = append(p, t.LanguageTag...)
		p = append(p, 0)
		p = append(p, t.TranslatedKeyword...)
		p = append(p, 0)
		return ITXTChunk, append(p, text...), nil
	}
	return "", nil, errors.Errorf("png: unknown text kind %d", t.Kind)
}
