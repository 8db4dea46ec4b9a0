package container

import (
	"bytes"
	"fmt"

	"github.com/arloliu/voltex/endian"
	"github.com/arloliu/voltex/errs"
	"github.com/arloliu/voltex/format"
)

var engine = endian.GetLittleEndianEngine()

// LevelIndex locates the single mip level's payload.
type LevelIndex struct {
	// Offset is the byte offset of the payload from the start of the file.
	Offset uint64
	// Length is the stored, possibly supercompressed, payload length.
	Length uint64
	// UncompressedLength is the payload length after supercompression is undone.
	UncompressedLength uint64
}

// Header is the fixed-size prefix of a container file: identifier, header,
// section index and level index.
//
// The container has three spatial axes plus an array-layer axis. A grid's
// time axis is either folded into Depth (or Layers) or split across files;
// the true shape is kept in the Dimensions key.
type Header struct {
	Format   format.PixelFormat // byte offset 12-15
	TypeSize uint32             // byte offset 16-19
	Width    uint32             // byte offset 20-23
	Height   uint32             // byte offset 24-27
	// Depth is 0 for 2D and array containers.
	Depth uint32 // byte offset 28-31
	// Layers is 0 unless the container is an array.
	Layers uint32 // byte offset 32-35
	Faces  uint32 // byte offset 36-39
	Levels uint32 // byte offset 40-43
	Scheme uint32 // byte offset 44-47

	DFDOffset uint32 // byte offset 48-51
	DFDLength uint32 // byte offset 52-55
	KVDOffset uint32 // byte offset 56-59
	KVDLength uint32 // byte offset 60-63
	SGDOffset uint64 // byte offset 64-71
	SGDLength uint64 // byte offset 72-79

	Level LevelIndex // byte offset 80-103
}

// IsArray reports whether the payload is stored as array layers.
func (h *Header) IsArray() bool {
	return h.Layers > 0
}

// Slices returns the number of 2D images in the payload.
func (h *Header) Slices() int {
	if h.IsArray() {
		return int(h.Layers)
	}

	return int(max(h.Depth, 1))
}

// Compression returns the payload supercompression type.
func (h *Header) Compression() (format.CompressionType, error) {
	return format.CompressionFromScheme(h.Scheme)
}

// Parse parses the header from a byte slice.
//
// Parameters:
//   - data: Byte slice containing the file prefix (must be exactly PrefixSize bytes)
//
// Returns:
//   - error: ErrInvalidHeaderSize, ErrInvalidMagicNumber or ErrInvalidHeader
func (h *Header) Parse(data []byte) error {
	if len(data) != PrefixSize {
		return errs.ErrInvalidHeaderSize
	}
	if !bytes.Equal(data[:IdentifierSize], Identifier[:]) {
		return errs.ErrInvalidMagicNumber
	}

	h.Format = format.PixelFormat(engine.Uint32(data[12:16]))
	h.TypeSize = engine.Uint32(data[16:20])
	h.Width = engine.Uint32(data[20:24])
	h.Height = engine.Uint32(data[24:28])
	h.Depth = engine.Uint32(data[28:32])
	h.Layers = engine.Uint32(data[32:36])
	h.Faces = engine.Uint32(data[36:40])
	h.Levels = engine.Uint32(data[40:44])
	h.Scheme = engine.Uint32(data[44:48])
	h.DFDOffset = engine.Uint32(data[48:52])
	h.DFDLength = engine.Uint32(data[52:56])
	h.KVDOffset = engine.Uint32(data[56:60])
	h.KVDLength = engine.Uint32(data[60:64])
	h.SGDOffset = engine.Uint64(data[64:72])
	h.SGDLength = engine.Uint64(data[72:80])
	h.Level.Offset = engine.Uint64(data[80:88])
	h.Level.Length = engine.Uint64(data[88:96])
	h.Level.UncompressedLength = engine.Uint64(data[96:104])

	return h.Validate()
}

// Validate checks the fields this package relies on.
func (h *Header) Validate() error {
	switch {
	case !h.Format.IsValid():
		return fmt.Errorf("%w: pixel format %d", errs.ErrUnsupportedFormat, uint32(h.Format))
	case h.Width == 0:
		return fmt.Errorf("%w: zero width", errs.ErrInvalidHeader)
	case h.Faces != 1:
		return fmt.Errorf("%w: %d faces", errs.ErrInvalidHeader, h.Faces)
	case h.Levels != 1:
		return fmt.Errorf("%w: %d mip levels", errs.ErrInvalidHeader, h.Levels)
	case h.IsArray() && h.Depth > 0:
		return fmt.Errorf("%w: array of 3D images", errs.ErrInvalidHeader)
	case h.SGDLength != 0:
		return fmt.Errorf("%w: supercompression global data", errs.ErrInvalidHeader)
	}
	if _, err := h.Compression(); err != nil {
		return fmt.Errorf("%w: %w", errs.ErrInvalidHeader, err)
	}

	return nil
}

// Bytes serializes the header into a PrefixSize byte slice.
func (h *Header) Bytes() []byte {
	b := make([]byte, PrefixSize)
	copy(b, Identifier[:])

	engine.PutUint32(b[12:16], uint32(h.Format))
	engine.PutUint32(b[16:20], h.TypeSize)
	engine.PutUint32(b[20:24], h.Width)
	engine.PutUint32(b[24:28], h.Height)
	engine.PutUint32(b[28:32], h.Depth)
	engine.PutUint32(b[32:36], h.Layers)
	engine.PutUint32(b[36:40], h.Faces)
	engine.PutUint32(b[40:44], h.Levels)
	engine.PutUint32(b[44:48], h.Scheme)
	engine.PutUint32(b[48:52], h.DFDOffset)
	engine.PutUint32(b[52:56], h.DFDLength)
	engine.PutUint32(b[56:60], h.KVDOffset)
	engine.PutUint32(b[60:64], h.KVDLength)
	engine.PutUint64(b[64:72], h.SGDOffset)
	engine.PutUint64(b[72:80], h.SGDLength)
	engine.PutUint64(b[80:88], h.Level.Offset)
	engine.PutUint64(b[88:96], h.Level.Length)
	engine.PutUint64(b[96:104], h.Level.UncompressedLength)

	return b
}

// ParseHeader parses a Header from the start of a byte slice.
//
// Parameters:
//   - data: Byte slice starting with the file prefix (at least PrefixSize bytes)
//
// Returns:
//   - Header: Parsed header struct
//   - error: ErrInvalidHeaderSize or validation errors
func ParseHeader(data []byte) (Header, error) {
	if len(data) < PrefixSize {
		return Header{}, errs.ErrInvalidHeaderSize
	}

	h := Header{}
	if err := h.Parse(data[:PrefixSize]); err != nil {
		return Header{}, err
	}

	return h, nil
}
