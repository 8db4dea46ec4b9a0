package grid

import (
	"testing"

	"github.com/arloliu/voltex/errs"
	"github.com/arloliu/voltex/format"
	"github.com/stretchr/testify/require"
)

func TestInterleave(t *testing.T) {
	const n = 1001
	planes := [][]float32{make([]float32, n), make([]float32, n), make([]float32, n)}
	for i := range n {
		planes[0][i] = float32(i)
		planes[1][i] = float32(-i)
		planes[2][i] = float32(i * 2)
	}

	for _, workers := range []int{0, 1, 3, 7, 2000} {
		dst := make([]float32, n*3)
		require.NoError(t, Interleave(dst, planes, workers))
		for i := range n {
			require.InDelta(t, float32(i), dst[i*3], 0)
			require.InDelta(t, float32(-i), dst[i*3+1], 0)
			require.InDelta(t, float32(i*2), dst[i*3+2], 0)
		}

		back := [][]float32{make([]float32, n), make([]float32, n), make([]float32, n)}
		require.NoError(t, Deinterleave(back, dst, workers))
		require.Equal(t, planes, back)
	}
}

func TestInterleave_Errors(t *testing.T) {
	t.Run("No planes", func(t *testing.T) {
		require.ErrorIs(t, Interleave[uint8](nil, nil, 1), errs.ErrInvalidChannels)
	})

	t.Run("Ragged planes", func(t *testing.T) {
		err := Interleave(make([]uint8, 6), [][]uint8{{1, 2, 3}, {1, 2}}, 1)
		require.ErrorIs(t, err, errs.ErrSizeMismatch)
	})

	t.Run("Short destination", func(t *testing.T) {
		err := Interleave(make([]uint8, 5), [][]uint8{{1, 2, 3}, {1, 2, 3}}, 1)
		require.ErrorIs(t, err, errs.ErrBufferTooSmall)
	})

	t.Run("Deinterleave uneven source", func(t *testing.T) {
		err := Deinterleave([][]uint8{make([]uint8, 2), make([]uint8, 2)}, make([]uint8, 5), 1)
		require.ErrorIs(t, err, errs.ErrSizeMismatch)
	})
}

func TestFromPlanesAndPlanes(t *testing.T) {
	r := []uint8{1, 2, 3, 4}
	g := []uint8{5, 6, 7, 8}
	buf, err := FromPlanes([][]uint8{r, g}, D(2, 2, 1, 1), 2)
	require.NoError(t, err)
	require.Equal(t, []uint8{1, 5, 2, 6, 3, 7, 4, 8}, buf.Data)

	planes, err := buf.Planes(0)
	require.NoError(t, err)
	require.Equal(t, [][]uint8{r, g}, planes)
}

func TestPlanarBytes(t *testing.T) {
	t.Run("uint8 layout", func(t *testing.T) {
		meta := MetaForElement(D(2, 2, 1, 1), 2, format.ElementU8)
		interleaved := []byte{1, 5, 2, 6, 3, 7, 4, 8}

		planar, err := PlanarBytes(meta, interleaved, 2)
		require.NoError(t, err)
		require.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, planar)

		back, err := InterleavedBytes(meta, planar, 0)
		require.NoError(t, err)
		require.Equal(t, interleaved, back)
	})

	t.Run("wide elements", func(t *testing.T) {
		for _, elem := range []format.ElementType{format.ElementU16, format.ElementF16, format.ElementF32} {
			buf, err := New[float32](D(5, 3, 2, 2), 3)
			require.NoError(t, err)
			for i := range buf.Data {
				buf.Data[i] = float32(i) * 1.5
			}
			meta := MetaForElement(D(5, 3, 2, 2), 3, elem)
			data := buf.Bytes()[:meta.ByteLayout().ByteSize()]

			planar, err := PlanarBytes(meta, data, 4)
			require.NoError(t, err, elem.String())
			require.Len(t, planar, len(data))
			require.NotEqual(t, data, planar)

			back, err := InterleavedBytes(meta, planar, 3)
			require.NoError(t, err)
			require.Equal(t, data, back)
		}
	})

	t.Run("errors", func(t *testing.T) {
		meta := MetaForElement(D(2, 2, 1, 1), 2, format.ElementU8)
		_, err := PlanarBytes(meta, make([]byte, 7), 1)
		require.ErrorIs(t, err, errs.ErrSizeMismatch)
		_, err = InterleavedBytes(meta, make([]byte, 9), 1)
		require.ErrorIs(t, err, errs.ErrSizeMismatch)

		compressed := CompressedMeta(D(4, 4, 1, 1), 3, format.BC6HUFloat)
		_, err = PlanarBytes(compressed, make([]byte, 16), 1)
		require.ErrorIs(t, err, errs.ErrUnsupportedFormat)
		_, err = InterleavedBytes(compressed, make([]byte, 16), 1)
		require.ErrorIs(t, err, errs.ErrUnsupportedFormat)

		_, err = PlanarBytes(Meta{Dims: D(1, 1, 1, 1), Channels: 1}, []byte{0}, 1)
		require.ErrorIs(t, err, errs.ErrUnsupportedFormat)
	})
}
