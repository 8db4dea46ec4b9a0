package container

import (
	"fmt"

	"github.com/arloliu/voltex/compress"
	"github.com/arloliu/voltex/errs"
	"github.com/arloliu/voltex/grid"
	"github.com/arloliu/voltex/internal/fileutil"
	"github.com/arloliu/voltex/internal/hash"
	"github.com/arloliu/voltex/internal/logging"
	"github.com/arloliu/voltex/internal/options"
	"github.com/arloliu/voltex/internal/pool"
	"github.com/arloliu/voltex/internal/series"
	"github.com/arloliu/voltex/peaks"
)

// rawView adapts a metadata and payload pair to grid.View.
type rawView struct {
	meta grid.Meta
	data []byte
}

func (v rawView) Metadata() grid.Meta { return v.meta }
func (v rawView) Bytes() []byte       { return v.data }

// part is the content of one output file.
type part struct {
	path    string
	meta    grid.Meta
	payload []byte
	index   int
	count   int // zero unless the grid is split along t
	peaks   *peaks.Table
}

// SplitPath returns the path of time step index of a split save of base.
func SplitPath(base string, index int) string {
	return series.Path(base, index)
}

// Save writes v to path as one or more container files and returns the
// paths written.
//
// Zero extents are treated as 1 and the grid is cut to the configured
// range. With monolithic output, or when the grid has a single time step,
// one file is written whose depth (or layer count) is z*t. Otherwise one
// file per time step is written at SplitPath(path, t). Every file records
// the true (x, y, z, t) shape under the Dimensions key, and a peak table
// set with WithPeaks is cut down to the slices each file holds.
//
// Every payload is checked against MaxPayloadSize before anything is
// written. Files are written to a temporary name and renamed into place;
// when a later file of a split save fails, the files already written are
// removed again.
//
// Parameters:
//   - v: Grid to save, raw or block-compressed
//   - path: Output path; the base name for split saves
//   - opts: Save options
//
// Returns:
//   - []string: Paths of the files written, in time order
//   - error: Shape, size or I/O error; no file is left behind on failure
func Save(v grid.View, path string, opts ...SaveOption) ([]string, error) {
	cfg := defaultSaveConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	meta, payload, kept, err := resolve(v, cfg.Range)
	if err != nil {
		return nil, err
	}
	table, err := selectPeaks(cfg.Peaks, v.Metadata().Dims.Effective().Slices(), kept)
	if err != nil {
		return nil, err
	}

	parts, err := split(meta, payload, path, cfg.Monolithic, table)
	if err != nil {
		return nil, err
	}
	for _, p := range parts {
		if err := checkPayloadSize(p.path, uint64(len(p.payload))); err != nil {
			return nil, err
		}
	}

	written := make([]string, 0, len(parts))
	for _, p := range parts {
		if err := writePart(p, cfg); err != nil {
			fileutil.RemoveFiles(written)
			return nil, fmt.Errorf("save %s: %w", p.path, err)
		}
		written = append(written, p.path)
	}

	logging.L().Info("saved container",
		"path", path,
		"files", len(written),
		"dims", meta.Dims.String(),
		"format", meta.Format.String(),
		"array", cfg.Array,
		"compression", cfg.Compression.String(),
	)

	return written, nil
}

// resolve applies the effective extents and the requested range to v. It
// also returns the slice indices of v that the result keeps, in order.
func resolve(v grid.View, r grid.Range) (grid.Meta, []byte, []int, error) {
	meta := v.Metadata()
	if err := meta.Validate(); err != nil {
		return grid.Meta{}, nil, nil, err
	}
	if !meta.Format.IsValid() {
		return grid.Meta{}, nil, nil, fmt.Errorf("%w: no container format for %d x %s",
			errs.ErrUnsupportedFormat, meta.Channels, meta.Element)
	}

	eff := meta
	eff.Dims = meta.Dims.Effective()
	size := eff.ByteLayout().ByteSize()
	data := v.Bytes()
	if len(data) < size {
		return grid.Meta{}, nil, nil, fmt.Errorf("%w: grid %s holds %d bytes, layout needs %d",
			errs.ErrSizeMismatch, meta.Dims, len(data), size)
	}

	clamped, err := r.Clamp(eff.Dims)
	if err != nil {
		return grid.Meta{}, nil, nil, err
	}
	kept := keptSlices(eff.Dims, clamped)
	if clamped.IsFull(eff.Dims) {
		return eff, data[:size], kept, nil
	}

	sub, payload, err := grid.Extract(rawView{meta: eff, data: data}, clamped)
	if err != nil {
		return grid.Meta{}, nil, nil, err
	}

	return sub, payload, kept, nil
}

// keptSlices lists the slice indices of d selected by the clamped range r.
func keptSlices(d grid.Dims, r grid.Range) []int {
	kept := make([]int, 0, r.Z.Len()*r.T.Len())
	for t := r.T.Begin; t < r.T.End; t++ {
		for z := r.Z.Begin; z < r.Z.End; z++ {
			kept = append(kept, d.SliceIndex(z, t))
		}
	}

	return kept
}

// selectPeaks cuts table down to the kept slices of a grid with total
// slices, so the stored table lines up with the stored payload.
func selectPeaks(table *peaks.Table, total int, kept []int) (*peaks.Table, error) {
	if table == nil {
		return nil, nil
	}
	if table.Slices != total {
		return nil, fmt.Errorf("%w: peak table covers %d slices, grid has %d",
			errs.ErrPeakIndexOutOfRange, table.Slices, total)
	}

	sub, err := table.Select(kept)
	if err != nil {
		return nil, err
	}

	return &sub, nil
}

func split(meta grid.Meta, payload []byte, path string, monolithic bool, table *peaks.Table) ([]part, error) {
	steps := meta.Dims.T
	if monolithic || steps == 1 {
		return []part{{path: path, meta: meta, payload: payload, peaks: table}}, nil
	}

	stepMeta := meta
	stepMeta.Dims.T = 1
	size := stepMeta.ByteLayout().ByteSize()
	depth := meta.Dims.Z

	parts := make([]part, steps)
	for t := range steps {
		parts[t] = part{
			path:    SplitPath(path, t),
			meta:    stepMeta,
			payload: payload[t*size : (t+1)*size],
			index:   t,
			count:   steps,
		}
		if table == nil {
			continue
		}

		step := make([]int, depth)
		for z := range step {
			step[z] = meta.Dims.SliceIndex(z, t)
		}
		sub, err := table.Select(step)
		if err != nil {
			return nil, err
		}
		parts[t].peaks = &sub
	}

	return parts, nil
}

func checkPayloadSize(path string, n uint64) error {
	if n > MaxPayloadSize {
		return fmt.Errorf("%w: %s needs %d bytes, limit is %d; split along t or save a sub-range",
			errs.ErrPayloadTooLarge, path, n, uint64(MaxPayloadSize))
	}
	if n >= payloadWarnSize {
		logging.L().Warn("container payload is close to the size ceiling",
			"path", path,
			"bytes", n,
			"limit", uint64(MaxPayloadSize),
		)
	}

	return nil
}

func newHeader(meta grid.Meta, array bool) Header {
	h := Header{
		Format: meta.Format,
		Width:  uint32(meta.Dims.X), //nolint: gosec
		Height: uint32(meta.Dims.Y), //nolint: gosec
		Faces:  1,
		Levels: 1,
	}

	if meta.Format.IsBlockCompressed() {
		h.TypeSize = 1
	} else {
		h.TypeSize = uint32(meta.Element.Size()) //nolint: gosec
	}

	slices := uint32(meta.Dims.Slices()) //nolint: gosec
	switch {
	case array:
		h.Layers = slices
	case slices > 1:
		h.Depth = slices
	}

	return h
}

func keyValues(p part, cfg *SaveConfig) KeyValues {
	var kv KeyValues
	kv.Set(KeyWriter, append([]byte(cfg.Writer), 0))
	kv.Set(KeyDimensions, encodeDims(p.meta.Dims))
	kv.Set(KeyChannels, encodeUint32s(p.meta.Channels))
	if p.count > 0 {
		kv.Set(KeySeriesIndex, encodeUint32s(p.index, p.count))
	}
	if cfg.Checksum {
		kv.Set(KeyChecksum, engine.AppendUint64(nil, hash.Sum(p.payload)))
	}
	if p.peaks != nil {
		kv.Set(KeyPeakTable, p.peaks.Bytes(engine))
	}

	return kv
}

func writePart(p part, cfg *SaveConfig) error {
	stored, stats, err := compress.CompressWithStats(cfg.Compression, p.payload)
	if err != nil {
		return err
	}

	kv := keyValues(p, cfg)
	kvSize := kv.Size()
	payloadOffset := alignUp(PrefixSize+kvSize, payloadAlignment)

	h := newHeader(p.meta, cfg.Array)
	h.Scheme = cfg.Compression.Scheme()
	h.KVDOffset = PrefixSize
	h.KVDLength = uint32(kvSize) //nolint: gosec
	h.Level = LevelIndex{
		Offset:             uint64(payloadOffset),
		Length:             uint64(len(stored)),
		UncompressedLength: uint64(len(p.payload)),
	}

	bb := pool.GetHeaderBuffer()
	defer pool.PutHeaderBuffer(bb)

	_, _ = bb.Write(h.Bytes())
	bb.B = kv.AppendTo(bb.B)
	clear(bb.ExtendOrGrow(payloadOffset - bb.Len()))

	logging.L().Debug("writing container file",
		"path", p.path,
		"dims", p.meta.Dims.String(),
		"depth", h.Depth,
		"layers", h.Layers,
		"payload", len(p.payload),
		"stored", len(stored),
		"ratio", stats.CompressionRatio(),
	)

	return fileutil.WriteAtomic(p.path, 0o644, bb.Bytes(), stored)
}

func alignUp(n, align int) int {
	return (n + align - 1) / align * align
}
