package png

import "github.com/pkg/errors"

// BitDepth is the number of bits per sample or per palette index (not per
// pixel). Valid values are 1, 2, 4, 8, and 16, although not all values
// are allowed for all color types.
type BitDepth uint8

const (
	BitDepth1  BitDepth = 1
	BitDepth2  BitDepth = 2
	BitDepth4  BitDepth = 4
	BitDepth8  BitDepth = 8
	BitDepth16 BitDepth = 16
)

// ParseBitDepth maps the raw IHDR byte onto a BitDepth.
func ParseBitDepth(v uint8) (BitDepth, error) {
	switch v {
	case 1, 2, 4, 8, 16:
		return BitDepth(v), nil
	default:
		return 0, errors.WithStack(&MetadataError{Field: "bit depth", Value: int64(v)})
	}
}

// ColorType describes the interpretation of the image data. Color type
// codes are sums of the following values: 1 (palette used), 2 (color
// used), and 4 (alpha channel used).
type ColorType uint8

const (
	Grayscale      ColorType = 0
	RGB            ColorType = 2
	Indexed        ColorType = 3
	GrayscaleAlpha ColorType = 4
	RGBA           ColorType = 6
)

// ParseColorType maps the raw IHDR byte onto a ColorType.
func ParseColorType(v uint8) (ColorType, error) {
	switch v {
	case 0, 2, 3, 4, 6:
		return ColorType(v), nil
	default:
		return 0, errors.WithStack(&MetadataError{Field: "color type", Value: int64(v)})
	}
}

// Channels is the number of samples per pixel: grayscale has one channel,
// RGB has three, and so on. Palette indices count as a single channel.
func (c ColorType) Channels() int {
	switch c {
	case Grayscale, Indexed:
		return 1
	case GrayscaleAlpha:
		return 2
	case RGB:
		return 3
	case RGBA:
		return 4
	}
	return 0
}

func (c ColorType) String() string {
	switch c {
	case Grayscale:
		return "grayscale"
	case RGB:
		return "rgb"
	case Indexed:
		return "indexed"
	case GrayscaleAlpha:
		return "grayscale+alpha"
	case RGBA:
		return "rgba"
	}
	return "unknown"
}

// hasPalette reports whether a PLTE chunk is permitted for the color
// type. It is required for Indexed and optional for RGB and RGBA.
func (c ColorType) hasPalette() bool {
	return c == Indexed || c == RGB || c == RGBA
}

// validDepths is the allowed bit depth set per color type.
var validDepths = map[ColorType][]BitDepth{
	Grayscale:      {1, 2, 4, 8, 16},
	RGB:            {8, 16},
	Indexed:        {1, 2, 4, 8},
	GrayscaleAlpha: {8, 16},
	RGBA:           {8, 16},
}

func (c ColorType) allowsDepth(d BitDepth) bool {
	for _, v := range validDepths[c] {
		if v == d {
			return true
		}
	}
	return false
}

// CompressionType is the compression method used on IDAT chunks. Only
// deflate compression with a 32K sliding window is defined.
type CompressionType uint8

const Deflate CompressionType = 0

func ParseCompressionType(v uint8) (CompressionType, error) {
	if v != 0 {
		return 0, errors.WithStack(&MetadataError{Field: "compression type", Value: int64(v)})
	}
	return Deflate, nil
}

// FilterMethod is the preprocessing method applied to the image data
// before compression. Only adaptive filtering with the five basic filter
// types is defined.
type FilterMethod uint8

const Adaptive FilterMethod = 0

func ParseFilterMethod(v uint8) (FilterMethod, error) {
	if v != 0 {
		return 0, errors.WithStack(&FilterError{Value: v})
	}
	return Adaptive, nil
}

// InterlaceMethod is the transmission order of the image data: 0 (no
// interlace) or 1 (Adam7 interlace).
type InterlaceMethod uint8

const (
	NoInterlace InterlaceMethod = 0
	Adam7       InterlaceMethod = 1
)

func ParseInterlaceMethod(v uint8) (InterlaceMethod, error) {
	switch v {
	case 0, 1:
		return InterlaceMethod(v), nil
	default:
		return 0, errors.WithStack(&MetadataError{Field: "interlacing type", Value: int64(v)})
	}
}

// Unit is the pHYs unit specifier.
type Unit uint8

const (
	UnitUnknown Unit = 0
	UnitMeters  Unit = 1
)

func ParseUnit(v uint8) (Unit, error) {
	switch v {
	case 0, 1:
		return Unit(v), nil
	default:
		return 0, errors.WithStack(&MetadataError{Field: "unit", Value: int64(v)})
	}
}

// RenderingIntent is the ICC rendering intent carried by the sRGB chunk.
type RenderingIntent uint8

const (
	// Perceptual intent is for images preferring good adaptation to the
	// output device gamut at the expense of colorimetric accuracy, like
	// photographs.
	Perceptual RenderingIntent = 0
	// RelativeColorimetric intent is for images requiring color
	// appearance matching relative to the output device white point,
	// like logos.
	RelativeColorimetric RenderingIntent = 1
	// Saturation intent is for images preferring preservation of
	// saturation at the expense of hue and lightness, like charts.
	Saturation RenderingIntent = 2
	// AbsoluteColorimetric intent is for proofs destined for a different
	// output device.
	AbsoluteColorimetric RenderingIntent = 3
)

func ParseRenderingIntent(v uint8) (RenderingIntent, error) {
	if v > 3 {
		return 0, chunkErrorf("sRGB", "found %d, but expected value in 0..=3", v)
	}
	return RenderingIntent(v), nil
}
