package grid

import (
	"fmt"

	"github.com/arloliu/voltex/errs"
	"github.com/arloliu/voltex/format"
)

// Layout is the byte accounting for a grid: extents, channels and element
// size, plus the block footprint and block size for compressed payloads.
type Layout struct {
	Dims       Dims
	Channels   int
	ElemSize   int
	Block      Extent
	BlockBytes int
}

// IsBlockCompressed reports whether sizes follow the codec's block rate.
func (l Layout) IsBlockCompressed() bool {
	return !l.Block.IsZero() && l.BlockBytes > 0
}

// ByteSize returns the payload size in bytes.
//
// For uncompressed grids it is x*y*z*t*channels*elemSize. For block
// compressed grids it is the number of blocks covering x, y and z, times t,
// times the block size.
func (l Layout) ByteSize() int {
	if l.IsBlockCompressed() {
		bx, by, bz := l.Block.Blocks(l.Dims)
		return bx * by * bz * l.Dims.T * l.BlockBytes
	}

	return l.Dims.Count() * l.Channels * l.ElemSize
}

// TexelBytes returns the size of one uncompressed grid cell.
func (l Layout) TexelBytes() int {
	return l.Channels * l.ElemSize
}

// RowBytes returns the size of one x row of an uncompressed grid.
func (l Layout) RowBytes() int {
	return l.Dims.X * l.TexelBytes()
}

// SliceByteSize returns the size of one (z, t) slice.
//
// Block-compressed layouts must have a block depth of 1 for slices to be
// addressable; deeper blocks report the size of one block layer.
func (l Layout) SliceByteSize() int {
	if l.IsBlockCompressed() {
		bx, by, _ := l.Block.Blocks(l.Dims)
		return bx * by * l.BlockBytes
	}

	return l.Dims.PlaneCount() * l.TexelBytes()
}

// SliceOffset returns the byte offset of slice (z, t).
func (l Layout) SliceOffset(z, t int) int {
	return l.Dims.SliceIndex(z, t) * l.SliceByteSize()
}

// SliceRange returns the [begin, end) byte range of slice index i.
func (l Layout) SliceRange(i int) (begin, end int) {
	size := l.SliceByteSize()
	return i * size, (i + 1) * size
}

// Meta is everything about a grid buffer except its data.
type Meta struct {
	Dims     Dims
	Channels int
	Element  format.ElementType
	Layout   format.PixelLayout
	Format   format.PixelFormat
	Block    Extent
}

// MetaFor builds Meta for an uncompressed grid from a channel count, bit
// depth and float flag. The Format field is format.Undefined when the
// combination is not supported; callers must check it before relying on it.
func MetaFor(dims Dims, channels, bitDepth int, isFloat bool) Meta {
	pf := format.FormatFor(channels, bitDepth, isFloat)

	elem := format.ElementUnknown
	if pf != format.Undefined {
		elem = pf.Element()
	}

	return Meta{
		Dims:     dims,
		Channels: channels,
		Element:  elem,
		Layout:   format.LayoutFor(channels),
		Format:   pf,
	}
}

// MetaForElement builds Meta for an uncompressed grid of the given element type.
func MetaForElement(dims Dims, channels int, elem format.ElementType) Meta {
	return Meta{
		Dims:     dims,
		Channels: channels,
		Element:  elem,
		Layout:   format.LayoutFor(channels),
		Format:   format.FormatForElement(channels, elem),
	}
}

// CompressedMeta builds Meta for a block-compressed payload of pf that
// encodes a grid with the given dims and source channel count.
func CompressedMeta(dims Dims, channels int, pf format.PixelFormat) Meta {
	bx, by, bz := pf.BlockExtent()

	return Meta{
		Dims:     dims,
		Channels: channels,
		Element:  format.ElementU8,
		Layout:   format.LayoutFor(channels),
		Format:   pf,
		Block:    Extent{X: bx, Y: by, Z: bz},
	}
}

// IsBlockCompressed reports whether the metadata describes a block-compressed payload.
func (m Meta) IsBlockCompressed() bool {
	return !m.Block.IsZero()
}

// ByteLayout returns the byte accounting for m.
func (m Meta) ByteLayout() Layout {
	return Layout{
		Dims:       m.Dims,
		Channels:   m.Channels,
		ElemSize:   m.Element.Size(),
		Block:      m.Block,
		BlockBytes: m.Format.BlockBytes(),
	}
}

// Validate checks that m describes a storable grid.
func (m Meta) Validate() error {
	if !m.Dims.Valid() {
		return fmt.Errorf("%w: %s", errs.ErrInvalidDims, m.Dims)
	}
	if m.Channels < 1 || m.Channels > 4 {
		return fmt.Errorf("%w: %d", errs.ErrInvalidChannels, m.Channels)
	}
	if m.Element.Size() == 0 {
		return fmt.Errorf("%w: element %s", errs.ErrUnsupportedFormat, m.Element)
	}
	if m.IsBlockCompressed() {
		if !m.Format.IsBlockCompressed() {
			return fmt.Errorf("%w: block extent set for %s", errs.ErrUnsupportedFormat, m.Format)
		}
		if m.Block.Z > 1 {
			return fmt.Errorf("%w: block depth %d", errs.ErrUnsupportedFormat, m.Block.Z)
		}
	}

	return nil
}
