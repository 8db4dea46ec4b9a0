package bc6h

import "github.com/arloliu/voltex/endian"

var le = endian.GetLittleEndianEngine()

// bits is one 128-bit block, bit 0 being the least significant bit of the
// first byte.
type bits struct {
	lo uint64
	hi uint64
}

func loadBits(b []byte) bits {
	return bits{lo: le.Uint64(b[0:8]), hi: le.Uint64(b[8:16])}
}

func (b *bits) store(dst []byte) {
	le.PutUint64(dst[0:8], b.lo)
	le.PutUint64(dst[8:16], b.hi)
}

func (b *bits) put(pos, n int, v uint64) {
	for i := range n {
		if v>>i&1 == 0 {
			continue
		}
		p := pos + i
		if p < 64 {
			b.lo |= 1 << p
		} else {
			b.hi |= 1 << (p - 64)
		}
	}
}

func (b *bits) get(pos, n int) uint64 {
	var v uint64
	for i := range n {
		p := pos + i
		var bit uint64
		if p < 64 {
			bit = b.lo >> p & 1
		} else {
			bit = b.hi >> (p - 64) & 1
		}
		v |= bit << i
	}

	return v
}
