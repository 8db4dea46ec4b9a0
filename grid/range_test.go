package grid

import (
	"testing"

	"github.com/arloliu/voltex/errs"
	"github.com/arloliu/voltex/format"
	"github.com/stretchr/testify/require"
)

func TestRange_Clamp(t *testing.T) {
	d := D(8, 8, 3, 2)

	t.Run("Zero range selects everything", func(t *testing.T) {
		r, err := Range{}.Clamp(d)
		require.NoError(t, err)
		require.Equal(t, Full(d), r)
		require.True(t, r.IsFull(d))
	})

	t.Run("Ends are clamped", func(t *testing.T) {
		r, err := Range{Z: Span{1, 10}, T: Span{-3, 1}}.Clamp(d)
		require.NoError(t, err)
		require.Equal(t, Span{1, 3}, r.Z)
		require.Equal(t, Span{0, 1}, r.T)
		require.Equal(t, D(8, 8, 2, 1), r.Dims())
	})

	t.Run("Zero extents count as one", func(t *testing.T) {
		r, err := Range{}.Clamp(D(4, 4, 0, 0))
		require.NoError(t, err)
		require.Equal(t, D(4, 4, 1, 1), r.Dims())
	})

	t.Run("Empty span", func(t *testing.T) {
		_, err := Range{X: Span{9, 12}}.Clamp(d)
		require.ErrorIs(t, err, errs.ErrInvalidRange)
	})
}

func TestExtract(t *testing.T) {
	buf, err := New[uint16](D(4, 3, 2, 2), 2)
	require.NoError(t, err)
	for i := range buf.Data {
		buf.Data[i] = uint16(i)
	}

	t.Run("Full copy", func(t *testing.T) {
		r, err := Range{}.Clamp(buf.Dims)
		require.NoError(t, err)
		meta, payload, err := Extract(buf, r)
		require.NoError(t, err)
		require.Equal(t, buf.Meta, meta)
		require.Equal(t, buf.Bytes(), payload)
	})

	t.Run("Sub grid", func(t *testing.T) {
		r, err := Range{X: Span{1, 3}, Y: Span{1, 2}, Z: Span{1, 2}, T: Span{1, 2}}.Clamp(buf.Dims)
		require.NoError(t, err)

		meta, payload, err := Extract(buf, r)
		require.NoError(t, err)
		require.Equal(t, D(2, 1, 1, 1), meta.Dims)

		var sub Buffer[uint16]
		require.NoError(t, sub.Assign(meta, payload))
		want := []uint16{
			buf.At(1, 1, 1, 1, 0), buf.At(1, 1, 1, 1, 1),
			buf.At(2, 1, 1, 1, 0), buf.At(2, 1, 1, 1, 1),
		}
		require.Equal(t, want, sub.Data)
	})

	t.Run("Compressed cut along time", func(t *testing.T) {
		meta := CompressedMeta(D(8, 4, 2, 3), 3, format.BC6HUFloat)
		var comp Buffer[uint8]
		payload := make([]byte, meta.ByteLayout().ByteSize())
		for i := range payload {
			payload[i] = byte(i / 32)
		}
		require.NoError(t, comp.Assign(meta, payload))

		r, err := Range{T: Span{2, 3}}.Clamp(meta.Dims)
		require.NoError(t, err)
		sub, out, err := Extract(&comp, r)
		require.NoError(t, err)
		require.Equal(t, D(8, 4, 2, 1), sub.Dims)
		require.Len(t, out, 2*32)
		require.Equal(t, byte(4), out[0])
		require.Equal(t, byte(5), out[32])
	})

	t.Run("Compressed cut along x", func(t *testing.T) {
		meta := CompressedMeta(D(8, 4, 1, 1), 3, format.BC6HUFloat)
		var comp Buffer[uint8]
		require.NoError(t, comp.Assign(meta, make([]byte, meta.ByteLayout().ByteSize())))

		r, err := Range{X: Span{0, 4}}.Clamp(meta.Dims)
		require.NoError(t, err)
		_, _, err = Extract(&comp, r)
		require.ErrorIs(t, err, errs.ErrUnalignedRange)
	})
}
