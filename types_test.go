package png

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBitDepth(t *testing.T) {
	for _, v := range []uint8{1, 2, 4, 8, 16} {
		d, err := ParseBitDepth(v)
		require.NoError(t, err)
		assert.Equal(t, BitDepth(v), d)
	}
	for _, v := range []uint8{0, 3, 5, 7, 9, 32, 255} {
		_, err := ParseBitDepth(v)
		var merr *MetadataError
		require.ErrorAs(t, err, &merr, "bit depth %d", v)
		assert.Equal(t, int64(v), merr.Value)
	}
}

func TestParseColorType(t *testing.T) {
	for _, v := range []uint8{0, 2, 3, 4, 6} {
		c, err := ParseColorType(v)
		require.NoError(t, err)
		assert.Equal(t, ColorType(v), c)
	}
	for _, v := range []uint8{1, 5, 7, 255} {
		_, err := ParseColorType(v)
		var merr *MetadataError
		require.ErrorAs(t, err, &merr, "color type %d", v)
	}
}

func TestChannels(t *testing.T) {
	assert.Equal(t, 1, Grayscale.Channels())
	assert.Equal(t, 2, GrayscaleAlpha.Channels())
	assert.Equal(t, 1, Indexed.Channels())
	assert.Equal(t, 3, RGB.Channels())
	assert.Equal(t, 4, RGBA.Channels())
}

func TestDepthCompatibility(t *testing.T) {
	allowed := map[ColorType][]BitDepth{
		Grayscale:      {1, 2, 4, 8, 16},
		RGB:            {8, 16},
		Indexed:        {1, 2, 4, 8},
		GrayscaleAlpha: {8, 16},
		RGBA:           {8, 16},
	}
	depths := []BitDepth{1, 2, 4, 8, 16}
	for ct, ok := range allowed {
		for _, d := range depths {
			want := false
			for _, v := range ok {
				if v == d {
					want = true
				}
			}
			_, err := NewIHDR(1, 1, d, ct)
			if want {
				assert.NoError(t, err, "%s depth %d", ct, d)
			} else {
				assert.Error(t, err, "%s depth %d", ct, d)
			}
		}
	}
}

func TestIHDRDimensionBounds(t *testing.T) {
	_, err := NewIHDR(0, 1, BitDepth8, RGBA)
	require.Error(t, err)
	_, err = NewIHDR(1, 0, BitDepth8, RGBA)
	require.Error(t, err)
	_, err = NewIHDR(1<<31, 1, BitDepth8, RGBA)
	require.Error(t, err)
	_, err = NewIHDR(1, 1<<31, BitDepth8, RGBA)
	require.Error(t, err)

	_, err = NewIHDR(1<<31-1, 1, BitDepth8, RGBA)
	require.NoError(t, err)
}

func TestBPP(t *testing.T) {
	tests := []struct {
		ct    ColorType
		depth BitDepth
		want  int
	}{
		{Grayscale, 1, 1},
		{Grayscale, 8, 1},
		{Grayscale, 16, 2},
		{GrayscaleAlpha, 8, 2},
		{GrayscaleAlpha, 16, 4},
		{Indexed, 2, 1},
		{Indexed, 8, 1},
		{RGB, 8, 3},
		{RGB, 16, 6},
		{RGBA, 8, 4},
		{RGBA, 16, 8},
	}
	for _, tt := range tests {
		h, err := NewIHDR(1, 1, tt.depth, tt.ct)
		require.NoError(t, err)
		assert.Equal(t, tt.want, h.BPP(), "%s depth %d", tt.ct, tt.depth)
	}
}

func TestRowBytes(t *testing.T) {
	h, err := NewIHDR(5, 1, BitDepth1, Grayscale)
	require.NoError(t, err)
	assert.Equal(t, 1, h.rowBytes())

	h, err = NewIHDR(9, 1, BitDepth1, Grayscale)
	require.NoError(t, err)
	assert.Equal(t, 2, h.rowBytes())

	h, err = NewIHDR(4, 1, BitDepth2, Indexed)
	require.NoError(t, err)
	assert.Equal(t, 1, h.rowBytes())

	h, err = NewIHDR(2, 2, BitDepth16, RGBA)
	require.NoError(t, err)
	assert.Equal(t, 16, h.rowBytes())
}

func TestParseUnitAndIntent(t *testing.T) {
	u, err := ParseUnit(1)
	require.NoError(t, err)
	assert.Equal(t, UnitMeters, u)
	_, err = ParseUnit(2)
	require.Error(t, err)

	for v := uint8(0); v <= 3; v++ {
		intent, err := ParseRenderingIntent(v)
		require.NoError(t, err)
		assert.Equal(t, RenderingIntent(v), intent)
	}
	_, err = ParseRenderingIntent(4)
	var cerr *ChunkError
	require.ErrorAs(t, err, &cerr)
}

func TestChunkNameBits(t *testing.T) {
	assert.True(t, IHDRChunk.Critical())
	assert.False(t, ChunkName("tEXt").Critical())
	assert.True(t, ChunkName("tEXt").Public())
	assert.False(t, ChunkName("prVt").Public())
	assert.True(t, ChunkName("teXT").SafeToCopy())
	assert.False(t, ChunkName("tEXt").SafeToCopy())
}
