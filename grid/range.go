package grid

import (
	"fmt"

	"github.com/arloliu/voltex/errs"
)

// Span is a half-open [Begin, End) interval along one axis. The zero Span
// selects the whole axis.
type Span struct {
	Begin int
	End   int
}

// Len returns the number of positions covered by s.
func (s Span) Len() int {
	return s.End - s.Begin
}

// Range is a caller-supplied sub-range request over all four axes.
type Range struct {
	X Span
	Y Span
	Z Span
	T Span
}

// Full returns the range covering all of d.
func Full(d Dims) Range {
	return Range{
		X: Span{0, d.X},
		Y: Span{0, d.Y},
		Z: Span{0, d.Z},
		T: Span{0, d.T},
	}
}

// Clamp resolves r against the effective extents of d (each axis at least
// 1). Zero spans select the whole axis and ends past the extent are clamped.
// A span that is empty after clamping is an error.
func (r Range) Clamp(d Dims) (Range, error) {
	eff := d.Effective()
	ext := eff.Array()
	spans := [4]Span{r.X, r.Y, r.Z, r.T}

	for i, s := range spans {
		if s == (Span{}) {
			spans[i] = Span{0, ext[i]}
			continue
		}
		if s.Begin < 0 {
			s.Begin = 0
		}
		if s.End > ext[i] {
			s.End = ext[i]
		}
		if s.Begin >= s.End {
			return Range{}, fmt.Errorf("%w: axis %d selects [%d,%d) of %d",
				errs.ErrInvalidRange, i, spans[i].Begin, spans[i].End, ext[i])
		}
		spans[i] = s
	}

	return Range{X: spans[0], Y: spans[1], Z: spans[2], T: spans[3]}, nil
}

// Dims returns the extents of the selected sub-grid.
func (r Range) Dims() Dims {
	return Dims{X: r.X.Len(), Y: r.Y.Len(), Z: r.Z.Len(), T: r.T.Len()}
}

// IsFull reports whether r covers all of d.
func (r Range) IsFull(d Dims) bool {
	return r == Full(d)
}

// Extract copies the sub-grid selected by r out of v and returns its
// metadata and payload. r must already be clamped.
//
// Block-compressed views can only be cut along z and t; x and y must cover
// the whole plane.
func Extract(v View, r Range) (Meta, []byte, error) {
	meta := v.Metadata()
	src := v.Bytes()
	layout := meta.ByteLayout()
	if len(src) < layout.ByteSize() {
		return Meta{}, nil, fmt.Errorf("%w: view holds %d bytes, layout needs %d",
			errs.ErrSizeMismatch, len(src), layout.ByteSize())
	}

	if r.IsFull(meta.Dims) {
		out := make([]byte, layout.ByteSize())
		copy(out, src)

		return meta, out, nil
	}

	sub := meta
	sub.Dims = r.Dims()
	subLayout := sub.ByteLayout()
	out := make([]byte, 0, subLayout.ByteSize())

	if meta.IsBlockCompressed() {
		if r.X != (Span{0, meta.Dims.X}) || r.Y != (Span{0, meta.Dims.Y}) {
			return Meta{}, nil, fmt.Errorf("%w: compressed grids can only be cut along z and t", errs.ErrUnalignedRange)
		}
		for t := r.T.Begin; t < r.T.End; t++ {
			for z := r.Z.Begin; z < r.Z.End; z++ {
				begin := layout.SliceOffset(z, t)
				out = append(out, src[begin:begin+layout.SliceByteSize()]...)
			}
		}

		return sub, out, nil
	}

	texel := layout.TexelBytes()
	rowBytes := layout.RowBytes()
	runBytes := r.X.Len() * texel
	for t := r.T.Begin; t < r.T.End; t++ {
		for z := r.Z.Begin; z < r.Z.End; z++ {
			sliceOff := layout.SliceOffset(z, t)
			for y := r.Y.Begin; y < r.Y.End; y++ {
				begin := sliceOff + y*rowBytes + r.X.Begin*texel
				out = append(out, src[begin:begin+runBytes]...)
			}
		}
	}

	return sub, out, nil
}
