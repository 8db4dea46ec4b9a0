package compress

import (
	"fmt"
	"time"

	"github.com/arloliu/voltex/format"
)

// Compressor compresses one container payload.
//
// Memory management:
//   - Returned slice is owned by the caller
//   - Input slice is not modified
//   - Internal buffers may be reused for efficiency
type Compressor interface {
	// Compress compresses the input data and returns the compressed result.
	Compress(data []byte) ([]byte, error)
}

// Decompressor reverses a Compressor.
//
// Example:
//
//	decompressor := NewZstdCompressor()
//	payload, err := decompressor.Decompress(compressedPayload)
//	if err != nil {
//	    return fmt.Errorf("decompression failed: %w", err)
//	}
//
// Thread Safety: Decompressor implementations must be safe for concurrent use.
type Decompressor interface {
	// Decompress decompresses the input data and returns the original result.
	//
	// Error conditions:
	//   - Returns error if input data is corrupted or invalid
	//   - Returns error if data was compressed with an incompatible algorithm
	Decompress(data []byte) ([]byte, error)
}

// SizedDecompressor is implemented by decompressors that can use a known
// output size to allocate once.
type SizedDecompressor interface {
	// DecompressSize decompresses data whose original length is size. It
	// fails if the decoded length differs.
	DecompressSize(data []byte, size int) ([]byte, error)
}

// Codec combines both compression and decompression capabilities.
type Codec interface {
	Compressor
	Decompressor
}

// CompressionStats describes one compression call.
type CompressionStats struct {
	// Algorithm identifies the compression algorithm used
	Algorithm format.CompressionType

	// OriginalSize is the size of input data before compression
	OriginalSize int64

	// CompressedSize is the size of data after compression
	CompressedSize int64

	// CompressionTimeNs is the time taken to compress the data
	CompressionTimeNs int64
}

// CompressionRatio returns the compression ratio (compressed size / original size).
//
// Values less than 1.0 indicate successful compression.
//
// Returns:
//   - float64: Compression ratio (0.0 if original size is zero)
func (s CompressionStats) CompressionRatio() float64 {
	if s.OriginalSize == 0 {
		return 0.0
	}

	return float64(s.CompressedSize) / float64(s.OriginalSize)
}

// SpaceSavings returns the space savings as a percentage (0-100%).
func (s CompressionStats) SpaceSavings() float64 {
	return (1.0 - s.CompressionRatio()) * 100.0
}

// CompressWithStats compresses data with the built-in codec for t and reports
// sizes and timing.
//
// Parameters:
//   - t: Compression type
//   - data: Payload to compress
//
// Returns:
//   - []byte: Compressed payload
//   - CompressionStats: Sizes and elapsed time
//   - error: Unsupported type or compression failure
func CompressWithStats(t format.CompressionType, data []byte) ([]byte, CompressionStats, error) {
	codec, err := GetCodec(t)
	if err != nil {
		return nil, CompressionStats{}, err
	}

	start := time.Now()
	out, err := codec.Compress(data)
	if err != nil {
		return nil, CompressionStats{}, fmt.Errorf("%s compression failed: %w", t, err)
	}

	return out, CompressionStats{
		Algorithm:         t,
		OriginalSize:      int64(len(data)),
		CompressedSize:    int64(len(out)),
		CompressionTimeNs: time.Since(start).Nanoseconds(),
	}, nil
}

// DecompressSize decompresses data with the built-in codec for t, using the
// known original size where the codec supports it.
func DecompressSize(t format.CompressionType, data []byte, size int) ([]byte, error) {
	codec, err := GetCodec(t)
	if err != nil {
		return nil, err
	}

	var out []byte
	if sized, ok := codec.(SizedDecompressor); ok {
		out, err = sized.DecompressSize(data, size)
	} else {
		out, err = codec.Decompress(data)
	}
	if err != nil {
		return nil, err
	}
	if len(out) != size {
		return nil, fmt.Errorf("%s payload decompressed to %d bytes, want %d", t, len(out), size)
	}

	return out, nil
}

var builtinCodecs = map[format.CompressionType]Codec{
	format.CompressionNone: NewNoOpCompressor(),
	format.CompressionZstd: NewZstdCompressor(),
	format.CompressionS2:   NewS2Compressor(),
	format.CompressionLZ4:  NewLZ4Compressor(),
}

// GetCodec retrieves a built-in Codec for the specified compression type.
func GetCodec(compressionType format.CompressionType) (Codec, error) {
	if codec, ok := builtinCodecs[compressionType]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("unsupported compression type: %s", compressionType)
}
