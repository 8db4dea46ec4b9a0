package codec

import (
	"github.com/arloliu/voltex/grid"
)

// CompressBuffer encodes src into a newly allocated block-compressed buffer.
// The result keeps src's dims and channel count with s.Format as its format.
func CompressBuffer(a *Adapter, s Settings, src grid.View) (*grid.Buffer[uint8], error) {
	in := ToDescriptor(src)
	size, err := a.EncodedSize(s, in)
	if err != nil {
		return nil, err
	}

	out := &grid.Buffer[uint8]{
		Data: make([]uint8, size),
		Meta: grid.CompressedMeta(in.Dims, in.Channels, s.Format),
	}
	if err := a.Compress(s, in, Descriptor{Data: out.Data}); err != nil {
		return nil, err
	}

	return out, nil
}

// DecompressBuffer decodes a block-compressed view into a float32 buffer
// with the source channel count.
func DecompressBuffer(a *Adapter, src grid.View) (*grid.Buffer[float32], error) {
	in := ToDescriptor(src)
	out, err := grid.New[float32](in.Dims, in.Channels)
	if err != nil {
		return nil, err
	}
	if err := a.Decompress(in, ToDescriptor(out)); err != nil {
		return nil, err
	}

	return out, nil
}
