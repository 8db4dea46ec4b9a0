package codec

import (
	"fmt"
	"math"

	"github.com/arloliu/voltex/endian"
	"github.com/arloliu/voltex/errs"
	"github.com/arloliu/voltex/format"
	"github.com/x448/float16"
)

// Image is one 2D RGBA image with float32 channels, row major.
type Image struct {
	Width  int
	Height int
	Pix    []float32
}

// NewImage allocates a width x height image.
func NewImage(width, height int) Image {
	return Image{Width: width, Height: height, Pix: make([]float32, width*height*4)}
}

// At returns the RGBA value of pixel (x, y).
func (img Image) At(x, y int) [4]float32 {
	i := (y*img.Width + x) * 4
	return [4]float32{img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3]}
}

var native = endian.GetNativeEngine()

// fillImage expands one slice of interleaved source cells into img.
// Channels the source does not have are 0, except alpha which is 1.
func fillImage(img Image, src []byte, channels int, elem format.ElementType) error {
	read, err := reader(elem)
	if err != nil {
		return err
	}
	size := elem.Size()
	n := img.Width * img.Height
	if len(src) < n*channels*size {
		return fmt.Errorf("%w: slice holds %d bytes, need %d", errs.ErrBufferTooSmall, len(src), n*channels*size)
	}

	for p := range n {
		px := img.Pix[p*4 : p*4+4]
		px[0], px[1], px[2], px[3] = 0, 0, 0, 1
		off := p * channels * size
		for c := range channels {
			px[c] = read(src[off+c*size:])
		}
	}

	return nil
}

// drainImage writes the first channels of img into dst as elem cells.
func drainImage(dst []byte, img Image, channels int, elem format.ElementType) error {
	size := elem.Size()
	n := img.Width * img.Height
	if len(dst) < n*channels*size {
		return fmt.Errorf("%w: output holds %d bytes, need %d", errs.ErrBufferTooSmall, len(dst), n*channels*size)
	}
	if len(img.Pix) < n*4 {
		return fmt.Errorf("%w: decoded image holds %d values, want %d", errs.ErrSliceDecode, len(img.Pix), n*4)
	}

	switch elem {
	case format.ElementF32:
		for p := range n {
			for c := range channels {
				native.PutUint32(dst[(p*channels+c)*4:], math.Float32bits(img.Pix[p*4+c]))
			}
		}
	case format.ElementF16:
		for p := range n {
			for c := range channels {
				native.PutUint16(dst[(p*channels+c)*2:], float16.Fromfloat32(img.Pix[p*4+c]).Bits())
			}
		}
	default:
		return fmt.Errorf("%w: decode output must be float, got %s", errs.ErrUnsupportedFormat, elem)
	}

	return nil
}

func reader(elem format.ElementType) (func([]byte) float32, error) {
	switch elem {
	case format.ElementU8:
		return func(b []byte) float32 { return float32(b[0]) / math.MaxUint8 }, nil
	case format.ElementU16:
		return func(b []byte) float32 { return float32(native.Uint16(b)) / math.MaxUint16 }, nil
	case format.ElementF16:
		return func(b []byte) float32 { return float16.Frombits(native.Uint16(b)).Float32() }, nil
	case format.ElementF32:
		return func(b []byte) float32 { return math.Float32frombits(native.Uint32(b)) }, nil
	default:
		return nil, fmt.Errorf("%w: cannot encode %s sources", errs.ErrUnsupportedFormat, elem)
	}
}
