package peaks

import (
	"fmt"

	"github.com/arloliu/voltex/errs"
	"github.com/arloliu/voltex/grid"
)

// Normalize maps v into the unit interval using p.
//
// When Min != Max the result is (v-Min)/(Max-Min). A flat zero pair returns
// v unchanged, and a flat non-zero pair returns v/Max.
func Normalize(v float32, p Peak) float32 {
	if p.Min != p.Max {
		return (v - p.Min) / (p.Max - p.Min)
	}
	if p.Max == 0 {
		return v
	}

	return v / p.Max
}

// Denormalize is the exact inverse of Normalize for the same pair.
func Denormalize(v float32, p Peak) float32 {
	if p.Min != p.Max {
		return v*(p.Max-p.Min) + p.Min
	}
	if p.Max == 0 {
		return v
	}

	return v * p.Max
}

// NormalizeAt normalizes v with the pair for channel component of slice.
func NormalizeAt(v float32, table Table, slice, component int) (float32, error) {
	p, err := table.Lookup(slice, component)
	if err != nil {
		return 0, err
	}

	return Normalize(v, p), nil
}

// DenormalizeAt denormalizes v with the pair for channel component of slice.
func DenormalizeAt(v float32, table Table, slice, component int) (float32, error) {
	p, err := table.Lookup(slice, component)
	if err != nil {
		return 0, err
	}

	return Denormalize(v, p), nil
}

// NormalizeBuffer normalizes buf in place with table, which must have been
// built from a grid of the same shape.
func NormalizeBuffer(buf *grid.Buffer[float32], table Table) error {
	return apply(buf, table, Normalize)
}

// DenormalizeBuffer reverses NormalizeBuffer in place.
func DenormalizeBuffer(buf *grid.Buffer[float32], table Table) error {
	return apply(buf, table, Denormalize)
}

func apply(buf *grid.Buffer[float32], table Table, fn func(float32, Peak) float32) error {
	if buf.IsBlockCompressed() {
		return fmt.Errorf("%w: cannot normalize compressed data", errs.ErrUnsupportedFormat)
	}
	if err := buf.Validate(); err != nil {
		return err
	}
	ch := buf.Channels
	if table.Channels != ch || table.Slices != buf.Dims.Slices() {
		return fmt.Errorf("%w: table covers %d slices x %d channels, buffer has %d x %d",
			errs.ErrPeakIndexOutOfRange, table.Slices, table.Channels, buf.Dims.Slices(), ch)
	}

	pairs := make([]Peak, ch)
	plane := buf.Dims.PlaneCount()
	for i := range table.Slices {
		for c := range ch {
			p, err := table.Lookup(i, c)
			if err != nil {
				return err
			}
			pairs[c] = p
		}

		z, t := buf.Dims.SliceCoords(i)
		data := buf.Slice(z, t)
		for p := range plane {
			base := p * ch
			for c := range ch {
				data[base+c] = fn(data[base+c], pairs[c])
			}
		}
	}

	return nil
}
