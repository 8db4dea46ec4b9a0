package loader

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"os"
	"path/filepath"
	"slices"

	_ "golang.org/x/image/bmp"  // register decoder
	_ "golang.org/x/image/tiff" // register decoder

	"github.com/arloliu/voltex/endian"
	"github.com/arloliu/voltex/errs"
	"github.com/arloliu/voltex/format"
	"github.com/arloliu/voltex/internal/logging"
)

// ImageStack reads a list of 2D images as the z slices of one volume.
//
// PNG, JPEG, TIFF and BMP files are supported. Gray images load as one
// channel, everything else as RGBA. Images whose color model carries 16
// bits per channel load as U16, the rest as U8. Every image of a stack
// must have the same size and sample kind as the first one.
type ImageStack struct {
	Paths []string
	// DropAlpha loads color images as RGB.
	DropAlpha bool
}

var _ Loader = (*ImageStack)(nil)

// Glob returns an ImageStack over the files matching pattern, in lexical order.
func Glob(pattern string) (*ImageStack, error) {
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no files match %q", errs.ErrInvalidDims, pattern)
	}
	slices.Sort(paths)

	return &ImageStack{Paths: paths}, nil
}

type sampleKind struct {
	gray bool
	wide bool
}

func kindOf(m color.Model) sampleKind {
	switch m {
	case color.GrayModel:
		return sampleKind{gray: true}
	case color.Gray16Model:
		return sampleKind{gray: true, wide: true}
	case color.RGBA64Model, color.NRGBA64Model:
		return sampleKind{wide: true}
	default:
		return sampleKind{}
	}
}

// Load implements Loader.
func (s *ImageStack) Load() (Result, error) {
	if len(s.Paths) == 0 {
		return Result{}, fmt.Errorf("%w: empty image stack", errs.ErrInvalidDims)
	}

	var (
		res    Result
		kind   sampleKind
		bounds image.Rectangle
	)
	native := endian.GetNativeEngine()

	for z, path := range s.Paths {
		img, name, err := decode(path)
		if err != nil {
			return Result{}, err
		}

		k := kindOf(img.ColorModel())
		b := img.Bounds()
		if z == 0 {
			kind, bounds = k, b
			res.Channels = 4
			if kind.gray {
				res.Channels = 1
			} else if s.DropAlpha {
				res.Channels = 3
			}
			res.Element = format.ElementU8
			if kind.wide {
				res.Element = format.ElementU16
			}
			res.Shape = []int{b.Dx(), b.Dy(), len(s.Paths)}
			res.Data = make([]byte, 0, b.Dx()*b.Dy()*len(s.Paths)*res.Channels*res.Element.Size())
		} else if k != kind || b.Size() != bounds.Size() {
			return Result{}, fmt.Errorf("%w: %s is %s %dx%d, stack started with %dx%d",
				errs.ErrSizeMismatch, path, name, b.Dx(), b.Dy(), bounds.Dx(), bounds.Dy())
		}

		logging.L().Debug("decoded image slice", "path", path, "format", name, "z", z)
		res.Data = appendPixels(res.Data, img, res.Channels, kind.wide, native)
	}

	return res, nil
}

func decode(path string) (image.Image, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	img, name, err := image.Decode(f)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s: %w", errs.ErrUnsupportedFormat, path, err)
	}

	return img, name, nil
}

func appendPixels(dst []byte, img image.Image, channels int, wide bool, engine endian.EndianEngine) []byte {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.At(x, y)
			if channels == 1 {
				g := color.Gray16Model.Convert(c).(color.Gray16).Y
				if wide {
					dst = engine.AppendUint16(dst, g)
				} else {
					dst = append(dst, uint8(g>>8))
				}

				continue
			}

			p := color.NRGBA64Model.Convert(c).(color.NRGBA64)
			px := [4]uint16{p.R, p.G, p.B, p.A}
			for _, v := range px[:channels] {
				if wide {
					dst = engine.AppendUint16(dst, v)
				} else {
					dst = append(dst, uint8(v>>8))
				}
			}
		}
	}

	return dst
}
