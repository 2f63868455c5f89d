package png

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkCRCKnownValues(t *testing.T) {
	// The IEND chunk always hashes to ae 42 60 82.
	assert.Equal(t, uint32(0xAE426082), chunkCRC("IEND", nil))

	// Incremental and one-shot forms agree.
	v := newCRCVerifier()
	v.write([]byte("IDAT"))
	v.write([]byte{1, 2, 3, 4})
	assert.Equal(t, chunkCRC("IDAT", []byte{1, 2, 3, 4}), v.sum())

	v.reset()
	v.write([]byte("IEND"))
	assert.Equal(t, uint32(0xAE426082), v.sum())
}
