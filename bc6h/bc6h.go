// Package bc6h is a reference BC6H slice codec for the codec adapter.
//
// It encodes every block in mode 11, the single-region mode with 10-bit
// endpoints and 4-bit indices, which keeps the encoder small while staying
// readable by any BC6H decoder. The decoder only understands mode 11 blocks.
package bc6h

import (
	"fmt"

	"github.com/arloliu/voltex/codec"
	"github.com/arloliu/voltex/errs"
	"github.com/arloliu/voltex/format"
)

// Codec implements codec.SliceCodec for format.BC6HUFloat and format.BC6HSFloat.
type Codec struct{}

var _ codec.SliceCodec = (*Codec)(nil)

// New returns a BC6H codec. It holds no state and is safe for concurrent use.
func New() *Codec {
	return &Codec{}
}

func signedFormat(pf format.PixelFormat) (bool, error) {
	switch pf {
	case format.BC6HUFloat:
		return false, nil
	case format.BC6HSFloat:
		return true, nil
	default:
		return false, fmt.Errorf("%w: bc6h cannot handle %s", errs.ErrUnsupportedFormat, pf)
	}
}

// Encode compresses the RGB channels of img. Edge blocks of images whose
// sides are not multiples of 4 repeat the last row and column.
func (c *Codec) Encode(s codec.Settings, img codec.Image) ([]byte, error) {
	signed, err := signedFormat(s.Format)
	if err != nil {
		return nil, err
	}
	if len(img.Pix) < img.Width*img.Height*4 {
		return nil, fmt.Errorf("%w: image %dx%d holds %d values", errs.ErrSizeMismatch, img.Width, img.Height, len(img.Pix))
	}

	bw, bh := (img.Width+3)/4, (img.Height+3)/4
	out := make([]byte, bw*bh*BlockBytes)
	if bw == 0 || bh == 0 {
		return out[:0], nil
	}

	var texels Texels
	for by := range bh {
		for bx := range bw {
			for i := range texels {
				x := min(bx*4+i%4, img.Width-1)
				y := min(by*4+i/4, img.Height-1)
				p := (y*img.Width + x) * 4
				texels[i] = [3]float32{img.Pix[p], img.Pix[p+1], img.Pix[p+2]}
			}
			block := EncodeBlock(&texels, signed, s.Quality, s.Weights)
			copy(out[(by*bw+bx)*BlockBytes:], block[:])
		}
	}

	return out, nil
}

// Decode expands src into a width x height RGBA image with alpha 1.
func (c *Codec) Decode(pf format.PixelFormat, width, height int, src []byte) (codec.Image, error) {
	signed, err := signedFormat(pf)
	if err != nil {
		return codec.Image{}, err
	}

	bw, bh := (width+3)/4, (height+3)/4
	if want := bw * bh * BlockBytes; len(src) != want {
		return codec.Image{}, fmt.Errorf("%w: %d bytes for %dx%d, want %d", errs.ErrSizeMismatch, len(src), width, height, want)
	}

	img := codec.NewImage(width, height)
	for by := range bh {
		for bx := range bw {
			off := (by*bw + bx) * BlockBytes
			texels, err := DecodeBlock(src[off:off+BlockBytes], signed)
			if err != nil {
				return codec.Image{}, fmt.Errorf("block (%d,%d): %w", bx, by, err)
			}
			for i, t := range texels {
				x, y := bx*4+i%4, by*4+i/4
				if x >= width || y >= height {
					continue
				}
				p := (y*width + x) * 4
				img.Pix[p], img.Pix[p+1], img.Pix[p+2], img.Pix[p+3] = t[0], t[1], t[2], 1
			}
		}
	}

	return img, nil
}
