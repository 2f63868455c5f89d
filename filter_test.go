package png

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaethPredictor(t *testing.T) {
	tests := []struct {
		a, b, c uint8
		want    uint8
	}{
		{37, 84, 1, 84},
		{118, 128, 125, 118},
		{37, 84, 61, 61},
		{0, 0, 0, 0},
		{255, 255, 255, 255},
		// Ties break left, then up.
		{10, 10, 10, 10},
		{5, 5, 0, 5},
	}
	for _, tt := range tests {
		got := paethPredictor(tt.a, tt.b, tt.c)
		assert.Equal(t, tt.want, got, "paeth(%d, %d, %d)", tt.a, tt.b, tt.c)
	}
}

func TestPaethPredictorReturnsAnArgument(t *testing.T) {
	vals := []uint8{0, 1, 37, 61, 84, 118, 125, 128, 200, 255}
	for _, a := range vals {
		for _, b := range vals {
			for _, c := range vals {
				got := paethPredictor(a, b, c)
				if got != a && got != b && got != c {
					t.Fatalf("paeth(%d, %d, %d) = %d, not one of its arguments", a, b, c, got)
				}
			}
		}
	}
}

func TestParseFilterType(t *testing.T) {
	for v := byte(0); v < 5; v++ {
		ft, err := ParseFilterType(v)
		require.NoError(t, err)
		assert.Equal(t, FilterType(v), ft)
	}

	_, err := ParseFilterType(5)
	require.Error(t, err)
	var ferr *FilterError
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, byte(5), ferr.Value)
}

func TestFilterRoundTrip(t *testing.T) {
	row := []byte{0x00, 0x12, 0xFE, 0x7F, 0x80, 0x01, 0xFF, 0x43, 0x43, 0x10, 0xAB, 0xCD}
	prev := []byte{0x05, 0xFF, 0x00, 0x80, 0x7F, 0x43, 0x12, 0x00, 0xEE, 0x01, 0x02, 0x03}

	for _, bpp := range []int{1, 2, 3, 4, 6, 8} {
		for f := FilterNone; f < nFilter; f++ {
			out := make([]byte, len(row))
			filterRow(f, out, row, prev, bpp)

			require.NoError(t, defilterRow(f, out, prev, bpp))
			assert.Equal(t, row, out, "filter %d bpp %d", f, bpp)
		}
	}
}

func TestFilterRoundTripFirstRow(t *testing.T) {
	row := []byte{0xFF, 0x00, 0x00, 0xFF, 0x00, 0xFF, 0x00, 0xFF}
	zero := make([]byte, len(row))

	for f := FilterNone; f < nFilter; f++ {
		out := make([]byte, len(row))
		filterRow(f, out, row, zero, 4)

		require.NoError(t, defilterRow(f, out, zero, 4))
		assert.Equal(t, row, out, "filter %d", f)
	}
}

func TestDefilterRowUnknownFilter(t *testing.T) {
	err := defilterRow(FilterType(9), make([]byte, 4), make([]byte, 4), 1)
	var ferr *FilterError
	require.ErrorAs(t, err, &ferr)
}

func TestChooseFilter(t *testing.T) {
	var scratch [nFilter][]byte
	for i := range scratch {
		scratch[i] = make([]byte, 6)
	}

	// With an all-zero previous row, Sub and Paeth both leave only the
	// leading pixel (3 x 56 = 168), None and Up score 336 and Average 468;
	// Sub beats Paeth through the tie order.
	cur := []byte{200, 200, 200, 200, 200, 200}
	prev := make([]byte, 6)
	ft, residual := chooseFilter(&scratch, cur, prev, 3)
	assert.Equal(t, FilterSub, ft)
	assert.Equal(t, []byte{200, 200, 200, 0, 0, 0}, residual)

	// With an identical previous row, Up zeroes the whole residual and
	// beats Sub's leading pixel.
	prev = []byte{200, 200, 200, 200, 200, 200}
	ft, residual = chooseFilter(&scratch, cur, prev, 3)
	assert.Equal(t, FilterUp, ft)
	assert.Equal(t, make([]byte, 6), residual)
}

func TestChooseFilterTieBreaksLow(t *testing.T) {
	var scratch [nFilter][]byte
	for i := range scratch {
		scratch[i] = make([]byte, 2)
	}

	// All-zero rows tie every filter at score 0; the lowest index wins.
	ft, _ := chooseFilter(&scratch, make([]byte, 2), make([]byte, 2), 1)
	assert.Equal(t, FilterNone, ft)
}
