package png

import "github.com/pkg/errors"

// FilterType names the per-scanline predictor applied before
// compression. Each filtered row is prefixed by one of these as a single
// byte.
type FilterType uint8

const (
	FilterNone    FilterType = 0
	FilterSub     FilterType = 1
	FilterUp      FilterType = 2
	FilterAverage FilterType = 3
	FilterPaeth   FilterType = 4

	nFilter = 5
)

// ParseFilterType maps the row's leading byte onto a FilterType.
func ParseFilterType(v byte) (FilterType, error) {
	if v >= nFilter {
		return 0, errors.WithStack(&FilterError{Value: v})
	}
	return FilterType(v), nil
}

// paethPredictor selects among the left, up, and upper-left neighbors by
// minimum distance to left+up-upperleft. The tie order (left, then up,
// then upper-left) is significant and must be preserved. The result is
// always one of the three arguments.
func paethPredictor(a, b, c uint8) uint8 {
	p := int(a) + int(b) - int(c)
	pa := p - int(a)
	if pa < 0 {
		pa = -pa
	}
	pb := p - int(b)
	if pb < 0 {
		pb = -pb
	}
	pc := p - int(c)
	if pc < 0 {
		pc = -pc
	}
	if pa <= pb && pa <= pc {
		return a
	}
	if pb <= pc {
		return b
	}
	return c
}

// defilterRow reverses filter f over one scanline in place. cur holds the
// filtered bytes and is left holding the reconstructed bytes; prev is the
// reconstructed previous row, all zeros for the first row. Addition is
// modulo 256.
func defilterRow(f FilterType, cur, prev []byte, bpp int) error {
	switch f {
	case FilterNone:
		// No-op.
	case FilterSub:
		for i := bpp; i < len(cur); i++ {
			cur[i] += cur[i-bpp]
		}
	case FilterUp:
		for i, p := range prev {
			cur[i] += p
		}
	case FilterAverage:
		// The first pixel has no left neighbor, so its average is
		// up/2.
		for i := 0; i < bpp && i < len(cur); i++ {
			cur[i] += prev[i] / 2
		}
		for i := bpp; i < len(cur); i++ {
			cur[i] += uint8((int(cur[i-bpp]) + int(prev[i])) / 2)
		}
	case FilterPaeth:
		// paeth(0, up, 0) = up for the first pixel.
		for i := 0; i < bpp && i < len(cur); i++ {
			cur[i] += prev[i]
		}
		for i := bpp; i < len(cur); i++ {
			cur[i] += paethPredictor(cur[i-bpp], prev[i], prev[i-bpp])
		}
	default:
		return errors.WithStack(&FilterError{Value: byte(f)})
	}
	return nil
}

// filterRow applies filter f forward, writing the residual bytes to out.
// cur and prev are unfiltered scanlines; prev is all zeros for the first
// row. Subtraction is modulo 256.
func filterRow(f FilterType, out, cur, prev []byte, bpp int) {
	switch f {
	case FilterNone:
		copy(out, cur)
	case FilterSub:
		copy(out[:bpp], cur[:bpp])
		for i := bpp; i < len(cur); i++ {
			out[i] = cur[i] - cur[i-bpp]
		}
	case FilterUp:
		for i := range cur {
			out[i] = cur[i] - prev[i]
		}
	case FilterAverage:
		for i := 0; i < bpp && i < len(cur); i++ {
			out[i] = cur[i] - prev[i]/2
		}
		for i := bpp; i < len(cur); i++ {
			out[i] = cur[i] - uint8((int(cur[i-bpp])+int(prev[i]))/2)
		}
	case FilterPaeth:
		for i := 0; i < bpp && i < len(cur); i++ {
			out[i] = cur[i] - prev[i]
		}
		for i := bpp; i < len(cur); i++ {
			out[i] = cur[i] - paethPredictor(cur[i-bpp], prev[i], prev[i-bpp])
		}
	}
}

// chooseFilter applies all five filters to the row and keeps the one with
// the minimum sum of absolute signed residuals. Ties break toward the
// lower filter index. The returned slice aliases scratch[winner].
func chooseFilter(scratch *[nFilter][]byte, cur, prev []byte, bpp int) (FilterType, []byte) {
	best := FilterNone
	bestScore := -1
	for f := FilterNone; f < nFilter; f++ {
		out := scratch[f]
		filterRow(f, out, cur, prev, bpp)
		score := 0
		for _, v := range out {
			d := int(int8(v))
			if d < 0 {
				d = -d
			}
			score += d
		}
		if bestScore < 0 || score < bestScore {
			best, bestScore = f, score
		}
	}
	return best, scratch[best]
}
