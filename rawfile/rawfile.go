// Package rawfile reads and writes the raw split-file interchange format: a
// data file holding the interleaved grid payload and a sibling "_dims" file
// holding the (x, y, z, t) record.
//
// The dims record is four host-order uint32 values. Producers may prefix it
// with endian.OrderTag so that readers on a host of the other byte order can
// decode it. The channel count is not stored; it is inferred from the data
// file length.
package rawfile

import (
	"fmt"
	"os"

	"github.com/arloliu/voltex/endian"
	"github.com/arloliu/voltex/errs"
	"github.com/arloliu/voltex/format"
	"github.com/arloliu/voltex/grid"
	"github.com/arloliu/voltex/internal/fileutil"
	"github.com/arloliu/voltex/internal/logging"
	"github.com/arloliu/voltex/internal/options"
	"github.com/arloliu/voltex/internal/series"
)

// DimsSuffix is appended to a data file path to name its dims record.
const DimsSuffix = "_dims"

const (
	dimsRecordSize   = 16
	taggedRecordSize = 4 + dimsRecordSize
)

// Config holds the settings applied by Save.
type Config struct {
	// Monolithic writes one data file. When false and t > 1, one file pair
	// is written per time step.
	Monolithic bool
	// OrderTag prefixes the dims record with endian.OrderTag.
	OrderTag bool
	// Planar writes each data file as channel planes instead of
	// interleaved cells.
	Planar bool
}

// Option configures Save.
type Option = options.Option[*Config]

// WithMonolithic selects between one file pair and one pair per time step.
func WithMonolithic(monolithic bool) Option {
	return options.NoError(func(c *Config) {
		c.Monolithic = monolithic
	})
}

// WithOrderTag writes the byte-order tag in front of the dims record.
func WithOrderTag(enabled bool) Option {
	return options.NoError(func(c *Config) {
		c.OrderTag = enabled
	})
}

// WithPlanar writes the data files channel by channel.
func WithPlanar(enabled bool) Option {
	return options.NoError(func(c *Config) {
		c.Planar = enabled
	})
}

// DimsPath returns the path of the dims record belonging to path.
func DimsPath(path string) string {
	return path + DimsSuffix
}

// SplitPath returns the data path of time step index of a split save.
func SplitPath(base string, index int) string {
	return series.Path(base, index)
}

// Save writes the uncompressed grid v to path and its dims record to
// DimsPath(path), and returns the data file paths written.
//
// Zero extents are written as 1. In split mode every time step gets its
// own file pair whose record holds t = 1. When any write fails, files
// written earlier by the same call are removed.
func Save(v grid.View, path string, opts ...Option) ([]string, error) {
	cfg := &Config{Monolithic: true}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	meta := v.Metadata()
	if err := meta.Validate(); err != nil {
		return nil, err
	}
	if meta.IsBlockCompressed() {
		return nil, fmt.Errorf("%w: raw files hold uncompressed grids, got %s",
			errs.ErrUnsupportedFormat, meta.Format)
	}

	dims := meta.Dims.Effective()
	eff := meta
	eff.Dims = dims
	size := eff.ByteLayout().ByteSize()
	data := v.Bytes()
	if len(data) < size {
		return nil, fmt.Errorf("%w: grid %s holds %d bytes, layout needs %d",
			errs.ErrSizeMismatch, meta.Dims, len(data), size)
	}
	data = data[:size]

	type filePair struct {
		path string
		dims grid.Dims
		data []byte
	}

	var pairs []filePair
	if cfg.Monolithic || dims.T == 1 {
		pairs = []filePair{{path: path, dims: dims, data: data}}
	} else {
		step := dims
		step.T = 1
		n := size / dims.T
		for t := range dims.T {
			pairs = append(pairs, filePair{path: SplitPath(path, t), dims: step, data: data[t*n : (t+1)*n]})
		}
	}

	written := make([]string, 0, 2*len(pairs))
	paths := make([]string, 0, len(pairs))
	for _, p := range pairs {
		if cfg.Planar {
			stepMeta := eff
			stepMeta.Dims = p.dims
			planar, err := grid.PlanarBytes(stepMeta, p.data, 0)
			if err != nil {
				fileutil.RemoveFiles(written)
				return nil, err
			}
			p.data = planar
		}

		if err := fileutil.WriteAtomic(p.path, 0o644, p.data); err != nil {
			fileutil.RemoveFiles(written)
			return nil, fmt.Errorf("save %s: %w", p.path, err)
		}
		written = append(written, p.path)

		if err := fileutil.WriteAtomic(DimsPath(p.path), 0o644, encodeDims(p.dims, cfg.OrderTag)); err != nil {
			fileutil.RemoveFiles(written)
			return nil, fmt.Errorf("save %s: %w", DimsPath(p.path), err)
		}
		written = append(written, DimsPath(p.path))
		paths = append(paths, p.path)
	}

	logging.L().Info("saved raw grid", "path", path, "files", len(paths), "dims", dims.String(), "element", meta.Element.String())

	return paths, nil
}

func encodeDims(d grid.Dims, tagged bool) []byte {
	engine := endian.GetNativeEngine()

	b := make([]byte, 0, taggedRecordSize)
	if tagged {
		b = engine.AppendUint32(b, endian.OrderTag)
	}
	for _, v := range d.Array() {
		b = engine.AppendUint32(b, uint32(v)) //nolint: gosec
	}

	return b
}

// ReadDims reads the dims record of the data file at path.
func ReadDims(path string) (grid.Dims, error) {
	b, err := os.ReadFile(DimsPath(path))
	if err != nil {
		return grid.Dims{}, fmt.Errorf("%w: %w", errs.ErrMissingDimensions, err)
	}

	return ParseDims(b)
}

// ParseDims decodes a dims record, with or without the byte-order tag.
func ParseDims(b []byte) (grid.Dims, error) {
	engine := endian.GetNativeEngine()
	switch len(b) {
	case dimsRecordSize:
	case taggedRecordSize:
		var ok bool
		engine, ok = endian.EngineForTag(b[:4])
		if !ok {
			return grid.Dims{}, fmt.Errorf("%w: unknown byte-order tag % x", errs.ErrMissingDimensions, b[:4])
		}
		b = b[4:]
	default:
		return grid.Dims{}, fmt.Errorf("%w: dims record of %d bytes", errs.ErrMissingDimensions, len(b))
	}

	return grid.D(
		int(engine.Uint32(b[0:4])),
		int(engine.Uint32(b[4:8])),
		int(engine.Uint32(b[8:12])),
		int(engine.Uint32(b[12:16])),
	), nil
}

// Load reads the interleaved data file at path and its dims record into
// dst. The channel count is the data length divided by x*y*z*t*elem.Size();
// a remainder, or a count outside 1-4, is an error.
func Load(path string, dst grid.Target, elem format.ElementType) error {
	return load(path, dst, elem, false)
}

// LoadPlanar is Load for data files written with WithPlanar.
func LoadPlanar(path string, dst grid.Target, elem format.ElementType) error {
	return load(path, dst, elem, true)
}

func load(path string, dst grid.Target, elem format.ElementType, planar bool) error {
	meta, data, err := Read(path, elem, planar)
	if err != nil {
		return err
	}
	if err := dst.Assign(meta, data); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}

	logging.L().Info("loaded raw grid", "path", path, "dims", meta.Dims.String(), "channels", meta.Channels)

	return nil
}

// Read returns the metadata and interleaved payload of the data file at
// path. planar selects the channel-plane layout written by WithPlanar.
func Read(path string, elem format.ElementType, planar bool) (grid.Meta, []byte, error) {
	dims, err := ReadDims(path)
	if err != nil {
		return grid.Meta{}, nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return grid.Meta{}, nil, err
	}

	channels, err := InferChannels(len(data), dims, elem)
	if err != nil {
		return grid.Meta{}, nil, fmt.Errorf("%s: %w", path, err)
	}

	meta := grid.MetaForElement(dims, channels, elem)
	if planar {
		if data, err = grid.InterleavedBytes(meta, data, 0); err != nil {
			return grid.Meta{}, nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	return meta, data, nil
}

// InferChannels derives the channel count of a raw payload of n bytes.
func InferChannels(n int, dims grid.Dims, elem format.ElementType) (int, error) {
	if elem.Size() == 0 {
		return 0, fmt.Errorf("%w: element %s", errs.ErrUnsupportedFormat, elem)
	}
	cell := dims.Count() * elem.Size()
	if cell <= 0 {
		return 0, fmt.Errorf("%w: %s", errs.ErrInvalidDims, dims)
	}
	if n%cell != 0 {
		return 0, fmt.Errorf("%w: %d bytes do not divide into %s cells of %s",
			errs.ErrInvalidChannels, n, dims, elem)
	}

	channels := n / cell
	if channels < 1 || channels > 4 {
		return 0, fmt.Errorf("%w: %d bytes give %d channels", errs.ErrInvalidChannels, n, channels)
	}

	return channels, nil
}
