// Package hash computes the payload checksums stored alongside container data.
package hash

import "github.com/cespare/xxhash/v2"

// Sum computes the xxHash64 of data.
func Sum(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// Digest accumulates a checksum over payload chunks written in sequence,
// such as the layers of an array container.
type Digest struct {
	d *xxhash.Digest
}

// NewDigest returns an empty Digest.
func NewDigest() Digest {
	return Digest{d: xxhash.New()}
}

// Write adds p to the running checksum.
func (d Digest) Write(p []byte) {
	_, _ = d.d.Write(p)
}

// Sum64 returns the checksum of everything written so far.
func (d Digest) Sum64() uint64 {
	return d.d.Sum64()
}
