package png

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// All multi-byte integers in the container are big-endian.
var be binary.ByteOrder = binary.BigEndian

// byteReader provides the typed reads the chunk stream is built from.
// All reads block against the underlying source; a stream that ends early
// surfaces io.ErrUnexpectedEOF.
type byteReader struct {
	r *bufio.Reader
}

func newByteReader(r io.Reader) *byteReader {
	if br, ok := r.(*bufio.Reader); ok {
		return &byteReader{r: br}
	}
	return &byteReader{r: bufio.NewReaderSize(r, 32*1024)}
}

// readFull reads exactly len(p) bytes, failing if the stream ends early.
func (r *byteReader) readFull(p []byte) error {
	if _, err := io.ReadFull(r.r, p); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return errors.WithStack(err)
	}
	return nil
}

// readN allocates and reads exactly n bytes.
func (r *byteReader) readN(n int) ([]byte, error) {
	p := make([]byte, n)
	if err := r.readFull(p); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *byteReader) readByte() (byte, error) {
	c, err := r.r.ReadByte()
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return 0, errors.WithStack(err)
	}
	return c, nil
}

func (r *byteReader) readUint32() (uint32, error) {
	var buf [4]byte
	if err := r.readFull(buf[:]); err != nil {
		return 0, err
	}
	return be.Uint32(buf[:]), nil
}

// payloadReader walks a single chunk payload. Every chunk parser consumes
// exactly the chunk's length through one of these; leftover or overrun
// bytes are a parse error.
type payloadReader struct {
	data []byte
	off  int
	name string
}

func newPayloadReader(name string, data []byte) *payloadReader {
	return &payloadReader{data: data, name: name}
}

func (p *payloadReader) remaining() int { return len(p.data) - p.off }

func (p *payloadReader) bytes(n int) ([]byte, error) {
	if p.remaining() < n {
		return nil, chunkErrorf(p.name, "payload too short: need %d bytes, have %d", n, p.remaining())
	}
	b := p.data[p.off : p.off+n]
	p.off += n
	return b, nil
}

func (p *payloadReader) byte() (byte, error) {
	b, err := p.bytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (p *payloadReader) uint16() (uint16, error) {
	b, err := p.bytes(2)
	if err != nil {
		return 0, err
	}
	return be.Uint16(b), nil
}

func (p *payloadReader) uint32() (uint32, error) {
	b, err := p.bytes(4)
	if err != nil {
		return 0, err
	}
	return be.Uint32(b), nil
}

// terminated reads up to and including a zero terminator and returns the
// bytes before it. The terminator counts toward the consumed length.
func (p *payloadReader) terminated() ([]byte, error) {
	for i := p.off; i < len(p.data); i++ {
		if p.data[i] == 0 {
			b := p.data[p.off:i]
			p.off = i + 1
			return b, nil
		}
	}
	return nil, chunkErrorf(p.name, "missing null separator")
}

// rest consumes whatever the fixed-size fields left behind.
func (p *payloadReader) rest() []byte {
	b := p.data[p.off:]
	p.off = len(p.data)
	return b
}

// done verifies the parser consumed exactly the chunk length.
func (p *payloadReader) done() error {
	if p.off != len(p.data) {
		return chunkErrorf(p.name, "trailing bytes: %d of %d consumed", p.off, len(p.data))
	}
	return nil
}
