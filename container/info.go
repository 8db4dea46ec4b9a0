package container

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/arloliu/voltex/errs"
	"github.com/arloliu/voltex/format"
	"github.com/arloliu/voltex/grid"
	"github.com/arloliu/voltex/internal/logging"
	"github.com/arloliu/voltex/peaks"
)

// maxKeyValueSize bounds the key/value section accepted on read.
const maxKeyValueSize = 1 << 24

// Info is everything a container file says about its payload.
type Info struct {
	Path   string
	Header Header
	// Dims is the true grid shape. It comes from the Dimensions record when
	// present and from the header otherwise.
	Dims     grid.Dims
	Channels int
	// HasDimensions reports whether Dims came from the Dimensions record.
	HasDimensions bool
	Compression   format.CompressionType
	// SeriesIndex and SeriesCount locate a split file within its series.
	// SeriesCount is zero for monolithic files.
	SeriesIndex int
	SeriesCount int
	Checksum    uint64
	HasChecksum bool
	// Peaks is the stored normalization table, if any.
	Peaks     *peaks.Table
	Writer    string
	KeyValues KeyValues
}

// Array reports whether the payload is stored as array layers.
func (i Info) Array() bool {
	return i.Header.IsArray()
}

// Meta returns the grid metadata of the payload.
func (i Info) Meta() grid.Meta {
	if i.Header.Format.IsBlockCompressed() {
		return grid.CompressedMeta(i.Dims, i.Channels, i.Header.Format)
	}

	return grid.MetaForElement(i.Dims, i.Channels, i.Header.Format.Element())
}

// ReadInfo reads the header and key/value data of the container at path
// without reading its payload.
func ReadInfo(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, err
	}
	defer f.Close()

	return readInfo(f, path)
}

func readInfo(r io.ReaderAt, path string) (Info, error) {
	prefix := make([]byte, PrefixSize)
	n, err := r.ReadAt(prefix, 0)
	if n >= IdentifierSize && !bytes.Equal(prefix[:IdentifierSize], Identifier[:]) {
		return Info{}, fmt.Errorf("%w: %s", errs.ErrInvalidMagicNumber, path)
	}
	if n < PrefixSize {
		if err == nil || errors.Is(err, io.EOF) {
			return Info{}, fmt.Errorf("%w: %s has a %d byte header", errs.ErrTruncated, path, n)
		}

		return Info{}, err
	}

	h, err := ParseHeader(prefix)
	if err != nil {
		return Info{}, fmt.Errorf("%s: %w", path, err)
	}

	var kvd []byte
	if h.KVDLength > 0 {
		if h.KVDLength > maxKeyValueSize {
			return Info{}, fmt.Errorf("%w: %d bytes of key/value data", errs.ErrInvalidHeader, h.KVDLength)
		}
		kvd = make([]byte, h.KVDLength)
		if _, err := r.ReadAt(kvd, int64(h.KVDOffset)); err != nil {
			if errors.Is(err, io.EOF) {
				return Info{}, fmt.Errorf("%w: %s key/value data", errs.ErrTruncated, path)
			}

			return Info{}, err
		}
	}

	return parseInfo(h, kvd, path)
}

func parseInfo(h Header, kvd []byte, path string) (Info, error) {
	kv, err := ParseKeyValues(kvd)
	if err != nil {
		return Info{}, err
	}

	info := Info{Path: path, Header: h, KeyValues: kv}
	info.Compression, _ = h.Compression()

	info.Channels = h.Format.Channels()
	if b, ok := kv.Get(KeyChannels); ok {
		vs, err := decodeUint32s(b, 1, KeyChannels)
		if err != nil {
			return Info{}, err
		}
		switch {
		case h.Format.IsBlockCompressed():
			info.Channels = vs[0]
		case vs[0] != info.Channels:
			return Info{}, fmt.Errorf("%w: %s records %d channels for %s",
				errs.ErrInvalidChannels, path, vs[0], h.Format)
		}
	}

	headerDims := grid.D(int(h.Width), int(max(h.Height, 1)), h.Slices(), 1)
	if b, ok := kv.Get(KeyDimensions); ok {
		d, err := decodeDims(b)
		if err != nil {
			return Info{}, err
		}
		if d.X != headerDims.X || d.Y != headerDims.Y || d.Slices() != headerDims.Z {
			return Info{}, fmt.Errorf("%w: Dimensions %s do not match header %s",
				errs.ErrInvalidHeader, d, headerDims)
		}
		info.Dims = d
		info.HasDimensions = true
	} else {
		info.Dims = headerDims
		logging.L().Warn("container has no Dimensions record, using header shape",
			"path", path,
			"dims", headerDims.String(),
		)
	}

	if b, ok := kv.Get(KeySeriesIndex); ok {
		vs, err := decodeUint32s(b, 2, KeySeriesIndex)
		if err != nil {
			return Info{}, err
		}
		info.SeriesIndex, info.SeriesCount = vs[0], vs[1]
	}

	if b, ok := kv.Get(KeyChecksum); ok {
		if len(b) != 8 {
			return Info{}, fmt.Errorf("%w: %s holds %d bytes", errs.ErrInvalidKeyValue, KeyChecksum, len(b))
		}
		info.Checksum = engine.Uint64(b)
		info.HasChecksum = true
	}

	if b, ok := kv.Get(KeyPeakTable); ok {
		table, err := peaks.ParseTable(b, engine)
		if err != nil {
			return Info{}, err
		}
		info.Peaks = &table
	}

	if b, ok := kv.Get(KeyWriter); ok {
		info.Writer = string(bytes.TrimRight(b, "\x00"))
	}

	return info, nil
}
