package container

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/arloliu/voltex/compress"
	"github.com/arloliu/voltex/errs"
	"github.com/arloliu/voltex/grid"
	"github.com/arloliu/voltex/internal/hash"
	"github.com/arloliu/voltex/internal/logging"
	"github.com/arloliu/voltex/internal/pool"
)

// payloadFunc receives a decoded payload. The payload is only valid for the
// duration of the call.
type payloadFunc func(info Info, meta grid.Meta, payload []byte) error

// Load reads the container at path into dst.
//
// The shape comes from the Dimensions record, or from the header when the
// record is missing. Array payloads are copied layer by layer in stored
// order; volume payloads are copied as one block. A stored checksum is
// verified before dst is touched.
func Load(path string, dst grid.Target) error {
	return loadPayload(path, func(info Info, meta grid.Meta, payload []byte) error {
		if err := dst.Assign(meta, payload); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}

		logging.L().Info("loaded container",
			"path", path,
			"dims", meta.Dims.String(),
			"channels", meta.Channels,
			"format", meta.Format.String(),
			"array", info.Array(),
		)

		return nil
	})
}

// LoadSeries reassembles the files of a split save of base into dst as
// one grid whose t extent is the number of files.
//
// count is the number of time steps to read; zero takes it from the
// SeriesIndex record of the first file. Every file must have the same
// per-step shape and format.
func LoadSeries(base string, count int, dst grid.Target) error {
	if count < 0 {
		return fmt.Errorf("%w: series of %d files", errs.ErrInvalidDims, count)
	}
	if count == 0 {
		info, err := ReadInfo(SplitPath(base, 0))
		if err != nil {
			return err
		}
		if info.SeriesCount == 0 {
			return fmt.Errorf("%w: %s has no %s record", errs.ErrInvalidKeyValue, info.Path, KeySeriesIndex)
		}
		count = info.SeriesCount
	}

	bb := pool.GetPayloadBuffer()
	defer pool.PutPayloadBuffer(bb)

	var step grid.Meta
	for t := range count {
		path := SplitPath(base, t)
		err := loadPayload(path, func(info Info, meta grid.Meta, payload []byte) error {
			if meta.Dims.T != 1 {
				return fmt.Errorf("%w: %s holds %d time steps", errs.ErrInvalidDims, path, meta.Dims.T)
			}
			if info.SeriesCount > 0 && info.SeriesIndex != t {
				return fmt.Errorf("%w: %s is time step %d, want %d", errs.ErrInvalidKeyValue, path, info.SeriesIndex, t)
			}
			if t == 0 {
				step = meta
			} else if meta != step {
				return fmt.Errorf("%w: %s holds %s x %d %s, series has %s x %d %s",
					errs.ErrSizeMismatch, path, meta.Dims, meta.Channels, meta.Format,
					step.Dims, step.Channels, step.Format)
			}
			_, _ = bb.Write(payload)

			return nil
		})
		if err != nil {
			return err
		}
	}

	meta := step
	meta.Dims.T = count
	if err := dst.Assign(meta, bb.Bytes()); err != nil {
		return fmt.Errorf("load series %s: %w", base, err)
	}

	logging.L().Info("loaded container series", "base", base, "files", count, "dims", meta.Dims.String())

	return nil
}

func loadPayload(path string, fn payloadFunc) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := readInfo(f, path)
	if err != nil {
		return err
	}

	meta := info.Meta()
	if err := meta.Validate(); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	layout := meta.ByteLayout()
	size := layout.ByteSize()

	level := info.Header.Level
	if level.UncompressedLength != uint64(size) { //nolint: gosec
		return fmt.Errorf("%w: %s level holds %d bytes, %s needs %d",
			errs.ErrSizeMismatch, path, level.UncompressedLength, meta.Dims, size)
	}
	if level.Length > MaxPayloadSize {
		return fmt.Errorf("%w: %s level of %d bytes", errs.ErrInvalidHeader, path, level.Length)
	}

	stored := make([]byte, level.Length)
	if _, err := io.ReadFull(io.NewSectionReader(f, int64(level.Offset), int64(level.Length)), stored); err != nil { //nolint: gosec
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("%w: %s payload", errs.ErrTruncated, path)
		}

		return err
	}

	payload, err := compress.DecompressSize(info.Compression, stored, size)
	if err != nil {
		return fmt.Errorf("%s: decompress %s payload: %w", path, info.Compression, err)
	}

	if !info.Array() {
		if err := verify(info, hash.Sum(payload)); err != nil {
			return err
		}

		return fn(info, meta, payload)
	}

	bb := pool.GetPayloadBuffer()
	defer pool.PutPayloadBuffer(bb)

	digest := hash.NewDigest()
	for i := range int(info.Header.Layers) {
		begin, end := layout.SliceRange(i)
		layer := payload[begin:end]
		digest.Write(layer)
		_, _ = bb.Write(layer)
	}
	if err := verify(info, digest.Sum64()); err != nil {
		return err
	}

	return fn(info, meta, bb.Bytes())
}

func verify(info Info, sum uint64) error {
	if info.HasChecksum && sum != info.Checksum {
		return fmt.Errorf("%w: %s stores %016x, payload hashes to %016x",
			errs.ErrChecksumMismatch, info.Path, info.Checksum, sum)
	}

	return nil
}
