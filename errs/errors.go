// Package errs defines the sentinel errors shared by all voltex packages.
//
// Callers should compare with errors.Is, since most call sites wrap these
// values with additional context.
package errs

import "errors"

// Shape and format errors.
var (
	ErrInvalidDims        = errors.New("invalid grid dimensions")
	ErrInvalidChannels    = errors.New("invalid channel count")
	ErrUnsupportedFormat  = errors.New("unsupported pixel format")
	ErrElementMismatch    = errors.New("element size does not match buffer type")
	ErrInvalidRange       = errors.New("invalid sub-range request")
	ErrMissingDimensions  = errors.New("dimension metadata missing or malformed")
	ErrInvalidHeader      = errors.New("invalid container header")
	ErrInvalidHeaderSize  = errors.New("invalid container header size")
	ErrInvalidMagicNumber = errors.New("invalid container identifier")
	ErrInvalidKeyValue    = errors.New("invalid key/value data")
	ErrUnalignedRange     = errors.New("sub-range is not aligned to the block footprint")
)

// Capacity errors.
var (
	ErrBufferTooSmall      = errors.New("output buffer smaller than required size")
	ErrSizeMismatch        = errors.New("buffer length does not match layout")
	ErrPeakIndexOutOfRange = errors.New("peak table index out of range")
	ErrPayloadTooLarge     = errors.New("payload exceeds the container size ceiling")
)

// Codec errors.
var (
	ErrCodecBusy       = errors.New("codec adapter busy")
	ErrNoCodec         = errors.New("codec adapter has no slice codec")
	ErrSliceEncode     = errors.New("slice encode failed")
	ErrSliceDecode     = errors.New("slice decode failed")
	ErrUnsupportedMode = errors.New("unsupported block mode")
	ErrNotCompressed   = errors.New("buffer is not block compressed")
)

// I/O errors.
var (
	ErrChecksumMismatch = errors.New("payload checksum mismatch")
	ErrTruncated        = errors.New("truncated data")
)
