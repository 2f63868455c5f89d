package png

import "github.com/snksoft/crc"

// The chunk CRC is the standard reflected Ethernet polynomial applied
// over the type code concatenated with the payload, initial value
// 0xFFFFFFFF, final XOR 0xFFFFFFFF. crc.CRC32 carries exactly those
// parameters.

// crcVerifier accumulates a chunk's type code and payload and checks the
// result against the trailing 4 bytes.
type crcVerifier struct {
	h *crc.Hash
}

func newCRCVerifier() *crcVerifier {
	return &crcVerifier{h: crc.NewHash(crc.CRC32)}
}

func (v *crcVerifier) reset() {
	v.h.Reset()
}

func (v *crcVerifier) write(p []byte) {
	v.h.Update(p)
}

func (v *crcVerifier) sum() uint32 {
	return uint32(v.h.CRC())
}

// chunkCRC is the one-shot form used when framing chunks on encode.
func chunkCRC(typeCode string, payload []byte) uint32 {
	h := crc.NewHash(crc.CRC32)
	h.Update([]byte(typeCode))
	h.Update(payload)
	return uint32(h.CRC())
}
