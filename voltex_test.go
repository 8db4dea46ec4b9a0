package voltex

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/voltex/bc6h"
	"github.com/arloliu/voltex/codec"
	"github.com/arloliu/voltex/container"
	"github.com/arloliu/voltex/errs"
	"github.com/arloliu/voltex/format"
	"github.com/arloliu/voltex/grid"
	"github.com/arloliu/voltex/peaks"
)

// blockField fills every 4x4 block of every slice with one value so that
// BC6H reproduces it closely.
func blockField(t *testing.T, dims grid.Dims) *grid.Buffer[float32] {
	t.Helper()

	buf, err := grid.New[float32](dims, 1)
	require.NoError(t, err)
	for ti := range dims.T {
		for z := range dims.Z {
			for y := range dims.Y {
				for x := range dims.X {
					block := (y/4)*((dims.X+3)/4) + x/4
					buf.Set(x, y, z, ti, 0, float32(10+3*block+z+2*ti))
				}
			}
		}
	}

	return buf
}

func TestProcess_Uncompressed(t *testing.T) {
	src := blockField(t, grid.D(8, 8, 3, 2))
	orig := src.Clone()
	path := filepath.Join(t.TempDir(), "field.ktx2")

	res, err := Process(src, path, WithNormalization(peaks.PerComponent))
	require.NoError(t, err)
	require.Equal(t, []string{path}, res.Paths)
	require.NotNil(t, res.Peaks)
	require.Equal(t, 2*6, res.Peaks.Len())
	require.Equal(t, format.R32Float, res.Meta.Format)
	require.Equal(t, orig.Data, src.Data)

	info, err := container.ReadInfo(path)
	require.NoError(t, err)
	require.Equal(t, *res.Peaks, *info.Peaks)

	stored := &grid.Buffer[float32]{}
	require.NoError(t, container.Load(path, stored))
	for _, v := range stored.Data {
		require.GreaterOrEqual(t, v, float32(0))
		require.LessOrEqual(t, v, float32(1))
	}

	restored, err := Restore(path)
	require.NoError(t, err)
	require.Equal(t, orig.Dims, restored.Dims)
	for i, want := range orig.Data {
		require.InDelta(t, want, restored.Data[i], 1e-4)
	}
}

func TestProcess_BC6H(t *testing.T) {
	for _, mode := range []peaks.Mode{peaks.PerSlice, peaks.PerComponent, peaks.Volume} {
		t.Run(mode.String(), func(t *testing.T) {
			src := blockField(t, grid.D(8, 8, 2, 2))
			path := filepath.Join(t.TempDir(), "field.ktx2")

			res, err := Process(src, path, WithNormalization(mode), WithBC6H(false), WithQuality(0.5),
				WithSaveOptions(container.WithCompression(format.CompressionZstd)))
			require.NoError(t, err)
			require.Equal(t, format.BC6HUFloat, res.Meta.Format)
			require.Equal(t, 16*bc6h.BlockBytes, res.Meta.ByteLayout().ByteSize())

			restored, err := Restore(path)
			require.NoError(t, err)
			require.Equal(t, src.Dims, restored.Dims)
			require.Equal(t, 1, restored.Channels)

			for i, want := range src.Data {
				z, ti := src.Dims.SliceCoords(i / src.Dims.PlaneCount())
				p, err := res.Peaks.Lookup(src.Dims.SliceIndex(z, ti), 0)
				require.NoError(t, err)
				require.InDelta(t, want, restored.Data[i], 0.05*float64(p.Max-p.Min)+1e-3)
			}
		})
	}
}

func TestProcess_SplitRestore(t *testing.T) {
	for _, mode := range []peaks.Mode{peaks.PerSlice, peaks.PerComponent, peaks.Volume} {
		t.Run(mode.String(), func(t *testing.T) {
			src := blockField(t, grid.D(8, 4, 2, 3))
			path := filepath.Join(t.TempDir(), "series.ktx2")

			res, err := Process(src, path,
				WithNormalization(mode),
				WithSaveOptions(container.WithMonolithic(false), container.WithArray(true)))
			require.NoError(t, err)
			require.Len(t, res.Paths, 3)

			restored, err := Restore(path)
			require.NoError(t, err)
			require.Equal(t, src.Dims, restored.Dims)
			for i, want := range src.Data {
				require.InDelta(t, want, restored.Data[i], 1e-4)
			}

			for ti, p := range res.Paths {
				step, err := Restore(p)
				require.NoError(t, err)
				require.Equal(t, grid.D(8, 4, 2, 1), step.Dims)

				n := src.Dims.PlaneCount() * src.Dims.Z
				want := src.Data[ti*n : (ti+1)*n]
				for i := range want {
					require.InDelta(t, want[i], step.Data[i], 1e-4)
				}
			}
		})
	}
}

func TestProcess_RangeRestore(t *testing.T) {
	for _, mode := range []peaks.Mode{peaks.PerSlice, peaks.PerComponent, peaks.Volume} {
		t.Run(mode.String(), func(t *testing.T) {
			src := blockField(t, grid.D(8, 4, 2, 3))
			path := filepath.Join(t.TempDir(), "cut.ktx2")

			cut := grid.Range{Z: grid.Span{Begin: 1, End: 2}, T: grid.Span{Begin: 1, End: 2}}
			_, err := Process(src, path,
				WithNormalization(mode),
				WithSaveOptions(container.WithRange(cut)))
			require.NoError(t, err)

			restored, err := Restore(path)
			require.NoError(t, err)
			require.Equal(t, grid.D(8, 4, 1, 1), restored.Dims)

			want := src.Slice(1, 1)
			for i := range want {
				require.InDelta(t, want[i], restored.Data[i], 1e-4)
			}
		})
	}
}

func TestProcess_Options(t *testing.T) {
	src := blockField(t, grid.D(4, 4, 1, 1))
	dir := t.TempDir()

	_, err := Process(src, filepath.Join(dir, "a.ktx2"), WithQuality(1.5))
	require.Error(t, err)

	_, err = Process(src, filepath.Join(dir, "b.ktx2"), WithNormalization(peaks.Mode(9)))
	require.Error(t, err)

	res, err := Process(src, filepath.Join(dir, "c.ktx2"), WithBC6H(true), WithChannelWeights([4]float32{1, 0, 0, 0}))
	require.NoError(t, err)
	require.Equal(t, format.BC6HSFloat, res.Meta.Format)
	require.Nil(t, res.Peaks)
}

func TestProcess_SharedAdapterIsSingleFlight(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	adapter, err := codec.NewAdapter(bc6h.New(), codec.WithSetup(func() error {
		close(entered)
		<-release
		return nil
	}))
	require.NoError(t, err)

	src := blockField(t, grid.D(4, 4, 1, 1))
	dir := t.TempDir()

	var (
		wg       sync.WaitGroup
		firstErr error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = Process(src, filepath.Join(dir, "first.ktx2"), WithBC6H(false), WithAdapter(adapter))
	}()

	<-entered
	_, err = Process(src, filepath.Join(dir, "second.ktx2"), WithBC6H(false), WithAdapter(adapter))
	require.ErrorIs(t, err, errs.ErrCodecBusy)

	close(release)
	wg.Wait()
	require.NoError(t, firstErr)
}

func TestRestore_Unsupported(t *testing.T) {
	buf, err := grid.New[uint8](grid.D(4, 4, 1, 1), 1)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "bytes.ktx2")
	_, err = container.Save(buf, path)
	require.NoError(t, err)

	_, err = Restore(path)
	require.ErrorIs(t, err, errs.ErrUnsupportedFormat)

	_, err = Restore(filepath.Join(t.TempDir(), "missing.ktx2"))
	require.Error(t, err)
}

func TestSetLogger(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	var out bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&out, nil)))

	src := blockField(t, grid.D(4, 4, 1, 1))
	_, err := Process(src, filepath.Join(t.TempDir(), "logged.ktx2"))
	require.NoError(t, err)
	require.Contains(t, out.String(), "processed grid")
	require.Contains(t, out.String(), "saved container")

	SetLogger(nil)
	require.NotNil(t, Logger())
}
