// Package compress provides the supercompression codecs applied to container
// pixel payloads.
//
// Supercompression runs after the pixel data is final: raw cells or BC6H
// blocks are handed to a general-purpose codec as one byte slice, and the
// container records which scheme it used so Load can reverse it.
//
// Supported algorithms:
//   - None: payload is stored as is
//   - Zstd: best ratio, moderate speed (KTX2 scheme 2)
//   - S2: balanced speed and ratio
//   - LZ4: fastest decompression
//
// # Architecture
//
//	type Compressor interface {
//	    Compress(data []byte) ([]byte, error)
//	}
//
//	type Decompressor interface {
//	    Decompress(data []byte) ([]byte, error)
//	}
//
//	type Codec interface {
//	    Compressor
//	    Decompressor
//	}
//
// Codecs that can use a known output size also implement SizedDecompressor.
// The container always knows the uncompressed payload length, so it prefers
// that path.
//
// # Choosing a Scheme
//
// | Payload                 | Recommended | Reason                          |
// |-------------------------|-------------|---------------------------------|
// | Normalized float grids  | Zstd        | Exponent bytes compress well    |
// | 8/16-bit unorm grids    | Zstd or S2  | Long runs in background regions |
// | BC6H blocks             | None or LZ4 | Already entropy dense           |
// | Interactive reload      | LZ4         | Fastest decompression           |
//
// # Build Tags
//
// The Zstd codec uses the pure Go github.com/klauspost/compress/zstd by
// default. Building with cgo and the gozstd tag switches to
// github.com/valyala/gozstd.
//
// # Thread Safety
//
// All codec implementations are safe for concurrent use. Encoder and decoder
// state is pooled internally.
package compress
