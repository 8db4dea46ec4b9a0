package compress

// NoOpCompressor stores payloads without compression.
//
// It is the codec behind format.CompressionNone and the natural choice for
// BC6H payloads, which general-purpose compressors barely shrink.
type NoOpCompressor struct{}

var (
	_ Codec             = (*NoOpCompressor)(nil)
	_ SizedDecompressor = (*NoOpCompressor)(nil)
)

// NewNoOpCompressor creates a new no-operation compressor.
func NewNoOpCompressor() NoOpCompressor {
	return NoOpCompressor{}
}

// Compress returns the input slice as is, without copying.
//
// Note: The returned slice shares the same underlying memory as the input.
func (c NoOpCompressor) Compress(data []byte) ([]byte, error) {
	return data, nil
}

// Decompress returns the input slice as is, without copying.
func (c NoOpCompressor) Decompress(data []byte) ([]byte, error) {
	return data, nil
}

// DecompressSize returns data unchanged; the caller checks its length.
func (c NoOpCompressor) DecompressSize(data []byte, _ int) ([]byte, error) {
	return data, nil
}
