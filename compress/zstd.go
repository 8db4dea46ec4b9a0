package compress

// ZstdCompressor provides Zstandard compression for container payloads.
//
// It gives the best ratio of the built-in codecs and is the only one with a
// registered KTX2 supercompression scheme, which makes Zstd files readable
// by other KTX2 tools.
//
// Performance characteristics:
//   - Compression: ~5-20 ns/byte
//   - Decompression: ~2-5 ns/byte
//   - Memory usage: Moderate (pooled encoders and decoders)
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a new Zstd compressor with default settings.
//
// Example:
//
//	compressor := NewZstdCompressor()
//	compressed, err := compressor.Compress(payload)
//	if err != nil {
//		return err
//	}
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}
