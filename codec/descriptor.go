package codec

import (
	"fmt"

	"github.com/arloliu/voltex/errs"
	"github.com/arloliu/voltex/format"
	"github.com/arloliu/voltex/grid"
)

// Descriptor is a flattened, non-owning view of a grid buffer as the slice
// codec sees it: bytes, extents, channel count and format codes.
//
// Data borrows from a longer-lived grid buffer or a caller-supplied scratch
// buffer. A Descriptor must not be kept after the call it was built for, and
// must never outlive the storage it points into.
type Descriptor struct {
	Data     []byte
	Dims     grid.Dims
	Channels int
	Element  format.ElementType
	Format   format.PixelFormat
}

// ToDescriptor copies the shape and format of v into a Descriptor whose Data
// aliases v's storage. It does not allocate.
func ToDescriptor(v grid.View) Descriptor {
	m := v.Metadata()

	return Descriptor{
		Data:     v.Bytes(),
		Dims:     m.Dims,
		Channels: m.Channels,
		Element:  m.Element,
		Format:   m.Format,
	}
}

// IsBlockCompressed reports whether the descriptor holds codec blocks.
func (d Descriptor) IsBlockCompressed() bool {
	return d.Format.IsBlockCompressed()
}

// Meta rebuilds the grid metadata the descriptor was taken from.
func (d Descriptor) Meta() grid.Meta {
	if d.IsBlockCompressed() {
		return grid.CompressedMeta(d.Dims, d.Channels, d.Format)
	}

	return grid.MetaForElement(d.Dims, d.Channels, d.Element)
}

// Slices returns the number of (z, t) slices the descriptor spans.
func (d Descriptor) Slices() int {
	return d.Dims.Slices()
}

// SliceBytes returns the size of one slice in bytes.
func (d Descriptor) SliceBytes() int {
	return d.Meta().ByteLayout().SliceByteSize()
}

// Slice returns the sub-view of slice i. The result aliases d.Data.
func (d Descriptor) Slice(i int) (Descriptor, error) {
	if i < 0 || i >= d.Slices() {
		return Descriptor{}, fmt.Errorf("%w: slice %d of %d", errs.ErrInvalidRange, i, d.Slices())
	}
	begin, end := d.Meta().ByteLayout().SliceRange(i)
	if end > len(d.Data) {
		return Descriptor{}, fmt.Errorf("%w: slice %d ends at byte %d of %d", errs.ErrBufferTooSmall, i, end, len(d.Data))
	}

	s := d
	s.Data = d.Data[begin:end:end]
	s.Dims = grid.D(d.Dims.X, d.Dims.Y, 1, 1)

	return s, nil
}

// CompressedDescriptor describes data as the pf-encoded form of src. Data
// is not copied.
func CompressedDescriptor(src Descriptor, pf format.PixelFormat, data []byte) Descriptor {
	return Descriptor{
		Data:     data,
		Dims:     src.Dims,
		Channels: src.Channels,
		Element:  format.ElementU8,
		Format:   pf,
	}
}
