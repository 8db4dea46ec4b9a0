// Package voltex turns multi-dimensional scalar and vector field data into
// compressed volumetric textures.
//
// A grid of up to four axes (x, y, z, t) is optionally normalized into the
// unit interval, optionally compressed slice by slice with BC6H, and written
// to a KTX2-style container that keeps the true 4-axis shape next to the
// 3-axis container header.
//
// # Core Features
//
//   - Typed grid buffers with 1-4 interleaved channels (grid package)
//   - Per-slice, per-component or whole-volume peak normalization (peaks package)
//   - Single-flight BC6H codec adapter working one (z, t) slice at a time (codec, bc6h)
//   - Monolithic, split-by-time and array-layer container layouts (container package)
//   - Optional Zstd, S2 or LZ4 supercompression and xxHash64 payload checksums
//
// # Basic Usage
//
//	buf, _ := grid.New[float32](grid.D(64, 64, 16, 4), 1)
//	// fill buf.Data ...
//
//	res, _ := voltex.Process(buf, "field.ktx2",
//	    voltex.WithNormalization(peaks.PerComponent),
//	    voltex.WithBC6H(false),
//	)
//
//	restored, _ := voltex.Restore(res.Paths[0])
//
// # Package Structure
//
// This package wires the stages together for the common case. For finer
// control, call the grid, peaks, codec and container packages directly.
package voltex

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/arloliu/voltex/bc6h"
	"github.com/arloliu/voltex/codec"
	"github.com/arloliu/voltex/container"
	"github.com/arloliu/voltex/errs"
	"github.com/arloliu/voltex/format"
	"github.com/arloliu/voltex/grid"
	"github.com/arloliu/voltex/internal/logging"
	"github.com/arloliu/voltex/internal/options"
	"github.com/arloliu/voltex/peaks"
)

// SetLogger installs the logger used by every voltex package. A nil logger
// restores the silent default.
func SetLogger(l *slog.Logger) {
	logging.Set(l)
}

// Logger returns the logger used by every voltex package.
func Logger() *slog.Logger {
	return logging.L()
}

// Config holds the pipeline settings.
type Config struct {
	// Normalize selects the peak table mode. Zero skips normalization.
	Normalize peaks.Mode
	// Compress encodes every slice with BC6H before saving.
	Compress bool
	// Signed selects BC6H_SFLOAT instead of BC6H_UFLOAT.
	Signed bool
	// Quality is the codec quality in [0, 1]; zero uses the adapter default.
	Quality float32
	// Weights scales the per-channel codec error.
	Weights *[4]float32
	// Adapter is the codec adapter to use. A BC6H adapter is created on
	// demand when nil.
	Adapter *codec.Adapter
	// Save is passed to container.Save.
	Save []container.SaveOption
}

// Option configures Process and Restore.
type Option = options.Option[*Config]

// WithNormalization normalizes the grid with a peak table of mode before
// compression. The table is stored in the container.
func WithNormalization(mode peaks.Mode) Option {
	return options.New(func(c *Config) error {
		switch mode {
		case 0, peaks.PerSlice, peaks.PerComponent, peaks.Volume:
			c.Normalize = mode
			return nil
		default:
			return fmt.Errorf("unknown normalization mode %d", mode)
		}
	})
}

// WithBC6H enables BC6H compression, signed or unsigned.
func WithBC6H(signed bool) Option {
	return options.NoError(func(c *Config) {
		c.Compress = true
		c.Signed = signed
	})
}

// WithQuality sets the codec quality.
func WithQuality(q float32) Option {
	return options.New(func(c *Config) error {
		if q < 0 || q > 1 {
			return fmt.Errorf("quality %v outside [0, 1]", q)
		}
		c.Quality = q

		return nil
	})
}

// WithChannelWeights sets the per-channel codec error weights.
func WithChannelWeights(w [4]float32) Option {
	return options.NoError(func(c *Config) {
		c.Weights = &w
	})
}

// WithAdapter uses a caller-owned codec adapter. Concurrent calls sharing
// one adapter are rejected by its single-flight guard.
func WithAdapter(a *codec.Adapter) Option {
	return options.NoError(func(c *Config) {
		c.Adapter = a
	})
}

// WithSaveOptions passes opts to container.Save.
func WithSaveOptions(opts ...container.SaveOption) Option {
	return options.NoError(func(c *Config) {
		c.Save = append(c.Save, opts...)
	})
}

// Result describes what Process wrote.
type Result struct {
	Paths []string
	// Peaks is the normalization table, nil when normalization was skipped.
	Peaks *peaks.Table
	// Meta describes the saved payload.
	Meta grid.Meta
}

func newConfig(opts []Option) (*Config, error) {
	cfg := &Config{}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}
	if cfg.Adapter == nil {
		a, err := codec.NewAdapter(bc6h.New())
		if err != nil {
			return nil, err
		}
		cfg.Adapter = a
	}

	return cfg, nil
}

// Process normalizes, compresses and saves buf to path according to opts.
// buf is not modified.
//
// Parameters:
//   - buf: Source grid
//   - path: Container path, or the base path of a split save
//   - opts: Pipeline options
//
// Returns:
//   - Result: Written paths, the peak table and the saved metadata
//   - error: The first stage failure; nothing is written when an earlier stage fails
func Process(buf *grid.Buffer[float32], path string, opts ...Option) (Result, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return Result{}, err
	}

	var res Result
	work := buf
	if cfg.Normalize != 0 {
		table, err := peaks.Extract(buf, cfg.Normalize)
		if err != nil {
			return Result{}, fmt.Errorf("find peaks: %w", err)
		}
		work = buf.Clone()
		if err := peaks.NormalizeBuffer(work, table); err != nil {
			return Result{}, fmt.Errorf("normalize: %w", err)
		}
		res.Peaks = &table
	}

	var view grid.View = work
	if cfg.Compress {
		s := codec.Settings{Format: format.BC6HUFloat, Quality: cfg.Quality, Weights: cfg.Weights}
		if cfg.Signed {
			s.Format = format.BC6HSFloat
		}
		compressed, err := codec.CompressBuffer(cfg.Adapter, s, work)
		if err != nil {
			return Result{}, fmt.Errorf("compress: %w", err)
		}
		view = compressed
	}

	saveOpts := make([]container.SaveOption, 0, len(cfg.Save)+1)
	if res.Peaks != nil {
		saveOpts = append(saveOpts, container.WithPeaks(*res.Peaks))
	}
	saveOpts = append(saveOpts, cfg.Save...)

	res.Paths, err = container.Save(view, path, saveOpts...)
	if err != nil {
		return Result{}, err
	}
	res.Meta = view.Metadata()

	logging.L().Info("processed grid",
		"path", path,
		"dims", buf.Dims.String(),
		"normalized", res.Peaks != nil,
		"format", res.Meta.Format.String(),
		"files", len(res.Paths),
	)

	return res, nil
}

// Restore loads the container at path and reverses Process: block payloads
// are decoded to float32 and a stored peak table is applied with
// peaks.DenormalizeBuffer. When path does not exist but the first file of
// a split save of path does, the whole series is loaded.
//
// Only float32 and BC6H payloads can be restored.
func Restore(path string, opts ...Option) (*grid.Buffer[float32], error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	first := path
	series := false
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if _, serr := os.Stat(container.SplitPath(path, 0)); serr == nil {
			first = container.SplitPath(path, 0)
			series = true
		}
	}

	info, err := container.ReadInfo(first)
	if err != nil {
		return nil, err
	}

	load := func(dst grid.Target) error {
		if series {
			return container.LoadSeries(path, 0, dst)
		}

		return container.Load(path, dst)
	}

	var out *grid.Buffer[float32]
	switch f := info.Header.Format; {
	case f.IsBlockCompressed():
		compressed := &grid.Buffer[uint8]{}
		if err := load(compressed); err != nil {
			return nil, err
		}
		out, err = codec.DecompressBuffer(cfg.Adapter, compressed)
		if err != nil {
			return nil, fmt.Errorf("decompress: %w", err)
		}
	case f.Element() == format.ElementF32:
		out = &grid.Buffer[float32]{}
		if err := load(out); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: cannot restore %s payloads", errs.ErrUnsupportedFormat, f)
	}

	table := info.Peaks
	if series && table != nil {
		if table, err = seriesPeaks(path, info.SeriesCount); err != nil {
			return nil, err
		}
	}
	if table != nil {
		if err := peaks.DenormalizeBuffer(out, *table); err != nil {
			return nil, fmt.Errorf("denormalize: %w", err)
		}
	}

	return out, nil
}

// seriesPeaks joins the peak tables stored in the count files of a split
// series into the table of the whole grid.
func seriesPeaks(base string, count int) (*peaks.Table, error) {
	tables := make([]peaks.Table, 0, count)
	for i := range count {
		info, err := container.ReadInfo(container.SplitPath(base, i))
		if err != nil {
			return nil, err
		}
		if info.Peaks == nil {
			return nil, fmt.Errorf("%w: %s has no peak table", errs.ErrInvalidKeyValue, info.Path)
		}
		tables = append(tables, *info.Peaks)
	}

	table, err := peaks.Concat(tables...)
	if err != nil {
		return nil, err
	}

	return &table, nil
}
