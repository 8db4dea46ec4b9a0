package grid

import (
	"math"
	"testing"

	"github.com/arloliu/voltex/errs"
	"github.com/arloliu/voltex/format"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	buf, err := New[float32](D(4, 3, 2, 2), 2)
	require.NoError(t, err)
	require.Len(t, buf.Data, 4*3*2*2*2)
	require.Equal(t, format.RG32Float, buf.Format)
	require.Equal(t, format.ElementF32, buf.Element)
	require.Equal(t, buf.ByteSize(), len(buf.Bytes()))
	require.NoError(t, buf.Validate())
}

func TestNewWithElement(t *testing.T) {
	t.Run("Half floats in uint16 storage", func(t *testing.T) {
		buf, err := NewWithElement[uint16](D(2, 2, 1, 1), 4, format.ElementF16)
		require.NoError(t, err)
		require.Equal(t, format.RGBA16Float, buf.Format)
	})

	t.Run("Element size mismatch", func(t *testing.T) {
		_, err := NewWithElement[uint8](D(2, 2, 1, 1), 1, format.ElementF32)
		require.ErrorIs(t, err, errs.ErrElementMismatch)
	})
}

func TestFromData(t *testing.T) {
	data := make([]uint8, 2*2*1*1*3)
	buf, err := FromData(data, D(2, 2, 1, 1), 3)
	require.NoError(t, err)
	require.Equal(t, format.RGB8Unorm, buf.Format)

	_, err = FromData(data[:5], D(2, 2, 1, 1), 3)
	require.ErrorIs(t, err, errs.ErrSizeMismatch)
}

func TestBuffer_Bytes(t *testing.T) {
	buf, err := FromData([]float32{1.5, -2}, D(2, 1, 1, 1), 1)
	require.NoError(t, err)

	b := buf.Bytes()
	require.Len(t, b, 8)
	require.Equal(t, math.Float32bits(1.5), uint32(b[0])|uint32(b[1])<<8|uint32(b[2])<<16|uint32(b[3])<<24)

	// The view aliases the storage.
	buf.Data[0] = 0
	require.Equal(t, byte(0), b[0])
}

func TestBuffer_SliceAndAt(t *testing.T) {
	buf, err := New[uint16](D(2, 2, 3, 2), 2)
	require.NoError(t, err)
	for i := range buf.Data {
		buf.Data[i] = uint16(i)
	}

	s := buf.Slice(1, 1)
	require.Len(t, s, 2*2*2)
	// slice index 4 starts at element 4*8.
	require.Equal(t, uint16(32), s[0])
	require.Equal(t, uint16(32), buf.At(0, 0, 1, 1, 0))
	require.Equal(t, uint16(32+3), buf.At(1, 0, 1, 1, 1))

	buf.Set(1, 1, 2, 1, 1, 999)
	require.Equal(t, uint16(999), buf.Slice(2, 1)[7])
}

func TestBuffer_Assign(t *testing.T) {
	src, err := FromData([]float32{1, 2, 3, 4}, D(2, 2, 1, 1), 1)
	require.NoError(t, err)

	t.Run("Copies payload", func(t *testing.T) {
		var dst Buffer[float32]
		require.NoError(t, dst.Assign(src.Meta, src.Bytes()))
		require.Equal(t, src.Data, dst.Data)
		require.Equal(t, src.Meta, dst.Meta)

		src.Data[0] = 42
		require.InDelta(t, 1, dst.Data[0], 0)
		src.Data[0] = 1
	})

	t.Run("Rejects wrong element size", func(t *testing.T) {
		var dst Buffer[uint8]
		require.ErrorIs(t, dst.Assign(src.Meta, src.Bytes()), errs.ErrElementMismatch)
	})

	t.Run("Rejects short payload", func(t *testing.T) {
		var dst Buffer[float32]
		require.ErrorIs(t, dst.Assign(src.Meta, src.Bytes()[:8]), errs.ErrSizeMismatch)
	})

	t.Run("Compressed payload", func(t *testing.T) {
		meta := CompressedMeta(D(8, 8, 1, 1), 1, format.BC6HUFloat)
		var dst Buffer[uint8]
		require.NoError(t, dst.Assign(meta, make([]byte, 4*16)))
		require.Equal(t, 64, dst.ByteSize())
		require.NoError(t, dst.Validate())
	})
}

func TestBuffer_Clear(t *testing.T) {
	buf, err := New[float32](D(4, 4, 1, 1), 1)
	require.NoError(t, err)

	buf.Clear()
	require.Nil(t, buf.Data)
	require.Equal(t, 0, cap(buf.Data))
	require.Nil(t, buf.Bytes())
	require.Equal(t, D(4, 4, 1, 1), buf.Dims)
	require.ErrorIs(t, buf.Validate(), errs.ErrSizeMismatch)
}

func TestBuffer_Clone(t *testing.T) {
	buf, err := FromData([]uint8{1, 2, 3, 4}, D(4, 1, 1, 1), 1)
	require.NoError(t, err)

	c := buf.Clone()
	c.Data[0] = 9
	require.Equal(t, uint8(1), buf.Data[0])
	require.Equal(t, buf.Meta, c.Meta)
}

func TestReinterpret(t *testing.T) {
	buf, err := NewWithElement[uint16](D(2, 1, 1, 1), 1, format.ElementF16)
	require.NoError(t, err)
	buf.Data[0] = 0x3C00

	same, err := Reinterpret[uint16](buf)
	require.NoError(t, err)
	require.Equal(t, buf.Data, same.Data)

	_, err = Reinterpret[float32](buf)
	require.ErrorIs(t, err, errs.ErrElementMismatch)
}
