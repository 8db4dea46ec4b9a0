package peaks

import (
	"testing"

	"github.com/arloliu/voltex/endian"
	"github.com/arloliu/voltex/errs"
	"github.com/arloliu/voltex/grid"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	t.Run("Range", func(t *testing.T) {
		require.InDelta(t, 0.25, Normalize(3, Peak{Min: 2, Max: 6}), 1e-7)
		require.InDelta(t, 0, Normalize(2, Peak{Min: 2, Max: 6}), 1e-7)
		require.InDelta(t, 1, Normalize(6, Peak{Min: 2, Max: 6}), 1e-7)
	})

	t.Run("Flat zero passes through", func(t *testing.T) {
		for _, v := range []float32{0, 1.5, -7} {
			require.Equal(t, v, Normalize(v, Peak{}))
			require.Equal(t, v, Denormalize(v, Peak{}))
		}
	})

	t.Run("Flat non-zero scales", func(t *testing.T) {
		require.InDelta(t, 2.0/5.0, Normalize(2, Peak{Min: 5, Max: 5}), 1e-7)
		require.InDelta(t, 1, Normalize(5, Peak{Min: 5, Max: 5}), 1e-7)
		require.InDelta(t, 10, Denormalize(2, Peak{Min: 5, Max: 5}), 1e-6)
	})
}

func TestNormalize_RoundTrip(t *testing.T) {
	peaksList := []Peak{
		{Min: 0, Max: 1},
		{Min: -3, Max: 4},
		{Min: 1e-3, Max: 2e-3},
		{Min: -1e4, Max: 1e5},
		{Min: 5, Max: 5},
		{Min: -2, Max: -2},
		{},
	}
	values := []float32{-1e4, -3, -0.5, 0, 1e-3, 0.5, 1, 4, 12345.678}

	for _, p := range peaksList {
		for _, v := range values {
			got := Denormalize(Normalize(v, p), p)
			tol := 1e-5 * max(1, abs(v), abs(p.Max), abs(p.Min))
			require.InDelta(t, v, got, float64(tol), "v=%v peak=%+v", v, p)
		}
	}
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}

	return v
}

func TestNormalizeAt(t *testing.T) {
	table := Table{Mode: PerComponent, Channels: 2, Slices: 1, Values: []float32{0, 10, 5, 5}}

	v, err := NormalizeAt(5, table, 0, 0)
	require.NoError(t, err)
	require.InDelta(t, 0.5, v, 1e-7)

	v, err = NormalizeAt(5, table, 0, 1)
	require.NoError(t, err)
	require.InDelta(t, 1, v, 1e-7)

	v, err = DenormalizeAt(0.5, table, 0, 0)
	require.NoError(t, err)
	require.InDelta(t, 5, v, 1e-6)

	_, err = NormalizeAt(1, table, 1, 0)
	require.ErrorIs(t, err, errs.ErrPeakIndexOutOfRange)
	_, err = DenormalizeAt(1, table, 0, 3)
	require.ErrorIs(t, err, errs.ErrPeakIndexOutOfRange)
}

func TestNormalizeBuffer(t *testing.T) {
	for _, mode := range []Mode{PerSlice, PerComponent, Volume} {
		t.Run(mode.String(), func(t *testing.T) {
			buf := rampBuffer(t, grid.D(5, 4, 3, 2), 3)
			orig := buf.Clone()

			table, err := Extract(buf, mode)
			require.NoError(t, err)
			require.NoError(t, NormalizeBuffer(buf, table))
			for _, v := range buf.Data {
				require.GreaterOrEqual(t, v, float32(0))
				require.LessOrEqual(t, v, float32(1))
			}

			require.NoError(t, DenormalizeBuffer(buf, table))
			require.InDeltaSlice(t, orig.Data, buf.Data, 1e-3)
		})
	}

	t.Run("Flat slice stays finite", func(t *testing.T) {
		buf, err := grid.FromData([]float32{0, 0, 0, 0, 4, 4, 4, 4}, grid.D(2, 2, 2, 1), 1)
		require.NoError(t, err)
		table, err := FindPeaks(buf)
		require.NoError(t, err)

		require.NoError(t, NormalizeBuffer(buf, table))
		require.Equal(t, []float32{0, 0, 0, 0, 1, 1, 1, 1}, buf.Data)
	})

	t.Run("Shape mismatch", func(t *testing.T) {
		buf := rampBuffer(t, grid.D(2, 2, 2, 1), 1)
		table := Table{Mode: PerSlice, Channels: 1, Slices: 3, Values: make([]float32, 6)}
		require.ErrorIs(t, NormalizeBuffer(buf, table), errs.ErrPeakIndexOutOfRange)
	})
}

func TestTable_Bytes(t *testing.T) {
	engine := endian.GetLittleEndianEngine()
	buf := rampBuffer(t, grid.D(3, 3, 2, 2), 2)

	for _, mode := range []Mode{PerSlice, PerComponent, Volume} {
		table, err := Extract(buf, mode)
		require.NoError(t, err)

		got, err := ParseTable(table.Bytes(engine), engine)
		require.NoError(t, err)
		require.Equal(t, table.Mode, got.Mode)
		require.Equal(t, table.Channels, got.Channels)
		require.Equal(t, table.Slices, got.Slices)
		require.Equal(t, table.Values, got.Values)
	}

	t.Run("Truncated", func(t *testing.T) {
		table, err := FindPeaks(buf)
		require.NoError(t, err)
		data := table.Bytes(engine)
		_, err = ParseTable(data[:len(data)-4], engine)
		require.ErrorIs(t, err, errs.ErrInvalidKeyValue)
		_, err = ParseTable(data[:5], engine)
		require.ErrorIs(t, err, errs.ErrInvalidKeyValue)
	})
}
