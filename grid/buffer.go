package grid

import (
	"fmt"
	"unsafe"

	"github.com/arloliu/voltex/errs"
	"github.com/arloliu/voltex/format"
)

// Element is the set of Go types a Buffer can hold. Half floats are stored
// as uint16 with Meta.Element set to format.ElementF16.
type Element interface {
	uint8 | uint16 | uint32 | float32
}

// View is the read side of a grid: its metadata and a byte view of its
// storage. The byte slice aliases the grid and must not outlive it.
type View interface {
	Metadata() Meta
	Bytes() []byte
}

// Target is a grid that can be (re)populated from raw payload bytes.
type Target interface {
	Assign(meta Meta, payload []byte) error
}

// Buffer is a typed grid buffer. Data holds x*y*z*t*channels elements for
// uncompressed grids, or the opaque block payload for compressed ones.
//
// A Buffer is exclusively owned by whichever pipeline stage holds it; codec
// and container calls borrow it for the duration of the call only.
type Buffer[T Element] struct {
	Data []T
	Meta
}

var (
	_ View   = (*Buffer[float32])(nil)
	_ Target = (*Buffer[uint8])(nil)
)

// ElementOf returns the default element tag for T. uint16 maps to
// format.ElementU16; use NewWithElement for half floats.
func ElementOf[T Element]() format.ElementType {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return format.ElementU8
	case uint16:
		return format.ElementU16
	case uint32:
		return format.ElementU32
	case float32:
		return format.ElementF32
	default:
		return format.ElementUnknown
	}
}

// New allocates a zeroed buffer for dims and channels.
func New[T Element](dims Dims, channels int) (*Buffer[T], error) {
	return NewWithElement[T](dims, channels, ElementOf[T]())
}

// NewWithElement allocates a zeroed buffer tagged with elem, which must have
// the same size as T.
func NewWithElement[T Element](dims Dims, channels int, elem format.ElementType) (*Buffer[T], error) {
	meta := MetaForElement(dims, channels, elem)
	if err := checkMeta[T](meta); err != nil {
		return nil, err
	}

	return &Buffer[T]{
		Data: make([]T, dims.Count()*channels),
		Meta: meta,
	}, nil
}

// FromData wraps existing data without copying. len(data) must equal
// dims.Count()*channels.
func FromData[T Element](data []T, dims Dims, channels int) (*Buffer[T], error) {
	meta := MetaForElement(dims, channels, ElementOf[T]())
	if err := checkMeta[T](meta); err != nil {
		return nil, err
	}
	if len(data) != dims.Count()*channels {
		return nil, fmt.Errorf("%w: %d elements for %s x %d channels",
			errs.ErrSizeMismatch, len(data), dims, channels)
	}

	return &Buffer[T]{Data: data, Meta: meta}, nil
}

func checkMeta[T Element](meta Meta) error {
	if err := meta.Validate(); err != nil {
		return err
	}
	var zero T
	if int(unsafe.Sizeof(zero)) != meta.Element.Size() {
		return fmt.Errorf("%w: %s in %T buffer", errs.ErrElementMismatch, meta.Element, zero)
	}

	return nil
}

// Metadata returns a copy of the buffer's metadata.
func (b *Buffer[T]) Metadata() Meta {
	return b.Meta
}

// ByteLayout returns the byte accounting for the buffer.
func (b *Buffer[T]) ByteLayout() Layout {
	return b.Meta.ByteLayout()
}

// ByteSize returns the payload size implied by the metadata.
func (b *Buffer[T]) ByteSize() int {
	return b.Meta.ByteLayout().ByteSize()
}

// Len returns the number of elements held.
func (b *Buffer[T]) Len() int {
	return len(b.Data)
}

// Bytes returns a byte view of Data. It aliases the buffer storage.
func (b *Buffer[T]) Bytes() []byte {
	if len(b.Data) == 0 {
		return nil
	}
	var zero T

	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(b.Data))), len(b.Data)*int(unsafe.Sizeof(zero)))
}

// Slice returns the elements of slice (z, t) of an uncompressed buffer. The
// result aliases Data.
func (b *Buffer[T]) Slice(z, t int) []T {
	n := b.Dims.PlaneCount() * b.Channels
	off := b.Dims.SliceIndex(z, t) * n

	return b.Data[off : off+n]
}

// At returns channel c of cell (x, y, z, t) of an uncompressed buffer.
func (b *Buffer[T]) At(x, y, z, t, c int) T {
	return b.Data[b.index(x, y, z, t, c)]
}

// Set stores v in channel c of cell (x, y, z, t) of an uncompressed buffer.
func (b *Buffer[T]) Set(x, y, z, t, c int, v T) {
	b.Data[b.index(x, y, z, t, c)] = v
}

func (b *Buffer[T]) index(x, y, z, t, c int) int {
	d := b.Dims
	return (((t*d.Z+z)*d.Y+y)*d.X+x)*b.Channels + c
}

// Validate checks the metadata and that Data holds exactly ByteSize bytes.
func (b *Buffer[T]) Validate() error {
	if err := checkMeta[T](b.Meta); err != nil {
		return err
	}
	var zero T
	if got, want := len(b.Data)*int(unsafe.Sizeof(zero)), b.ByteSize(); got != want {
		return fmt.Errorf("%w: have %d bytes, layout needs %d", errs.ErrSizeMismatch, got, want)
	}

	return nil
}

// Assign replaces the buffer contents with a copy of payload described by
// meta. The element size of meta must match T.
func (b *Buffer[T]) Assign(meta Meta, payload []byte) error {
	if err := checkMeta[T](meta); err != nil {
		return err
	}
	want := meta.ByteLayout().ByteSize()
	if len(payload) != want {
		return fmt.Errorf("%w: payload %d bytes, layout needs %d", errs.ErrSizeMismatch, len(payload), want)
	}

	var zero T
	data := make([]T, want/int(unsafe.Sizeof(zero)))
	b.Data = data
	b.Meta = meta
	copy(b.Bytes(), payload)

	return nil
}

// Clear empties the buffer and releases its storage. The metadata is kept so
// the buffer can be repopulated with the same shape.
func (b *Buffer[T]) Clear() {
	b.Data = nil
}

// Clone returns a deep copy of the buffer.
func (b *Buffer[T]) Clone() *Buffer[T] {
	data := make([]T, len(b.Data))
	copy(data, b.Data)

	return &Buffer[T]{Data: data, Meta: b.Meta}
}

// Reinterpret returns a Buffer[U] that copies b's bytes. It is used to move
// payloads between equally sized element types, for example uint16 storage
// of half floats.
func Reinterpret[U, T Element](b *Buffer[T]) (*Buffer[U], error) {
	out := &Buffer[U]{}
	if err := out.Assign(b.Meta, b.Bytes()); err != nil {
		return nil, err
	}

	return out, nil
}
