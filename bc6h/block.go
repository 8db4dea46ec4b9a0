package bc6h

import (
	"fmt"
	"math"

	"github.com/arloliu/voltex/errs"
	"github.com/x448/float16"
)

// BlockBytes is the size of one encoded 4x4 block.
const BlockBytes = 16

const (
	modeBits     = 5
	mode11       = 0x03
	endpointBits = 10
	indexStart   = modeBits + 6*endpointBits

	// maxFinished is the largest finite half float magnitude.
	maxFinished = 0x7BFF
)

var weights = [16]int32{0, 4, 9, 13, 17, 21, 26, 30, 34, 38, 43, 47, 51, 55, 60, 64}

// Texels are the 16 RGB values of one block in row-major order.
type Texels [16][3]float32

func unquantize(c int32, signed bool) int32 {
	if !signed {
		switch {
		case c == 0:
			return 0
		case c == 1<<endpointBits-1:
			return 0xFFFF
		default:
			return ((c << 16) + 0x8000) >> endpointBits
		}
	}

	neg := c < 0
	if neg {
		c = -c
	}
	var u int32
	switch {
	case c == 0:
		u = 0
	case c >= 1<<(endpointBits-1)-1:
		u = 0x7FFF
	default:
		u = ((c << 15) + 0x4000) >> (endpointBits - 1)
	}
	if neg {
		return -u
	}

	return u
}

// finish scales an interpolated value to half float bits (sign-magnitude).
func finish(u int32, signed bool) int32 {
	if !signed {
		return (u * 31) >> 6
	}
	if u < 0 {
		return -(((-u) * 31) >> 5)
	}

	return (u * 31) >> 5
}

func interpolate(a, b, w int32) int32 {
	return ((64-w)*a + w*b + 32) >> 6
}

func toFinished(v float32, signed bool) int32 {
	if math.IsNaN(float64(v)) {
		return 0
	}
	h := float16.Fromfloat32(v).Bits()
	mag := min(int32(h&0x7FFF), maxFinished)
	if h&0x8000 != 0 {
		if !signed {
			return 0
		}
		return -mag
	}

	return mag
}

func fromFinished(f int32) float32 {
	if f < 0 {
		return float16.Frombits(uint16(-f) | 0x8000).Float32() //nolint: gosec
	}

	return float16.Frombits(uint16(f)).Float32() //nolint: gosec
}

type endpoints [2][3]int32

func palette(q endpoints, signed bool) [16][3]int32 {
	var p [16][3]int32
	for c := range 3 {
		u0, u1 := unquantize(q[0][c], signed), unquantize(q[1][c], signed)
		for j, w := range weights {
			p[j][c] = finish(interpolate(u0, u1, w), signed)
		}
	}

	return p
}

func quantize(f float64, signed bool) int32 {
	lo, hi, step := int32(0), int32(1<<endpointBits-1), 31.0
	if signed {
		lo, hi, step = -(1<<(endpointBits-1) - 1), 1<<(endpointBits-1)-1, 62.0
	}
	f = min(max(f, -maxFinished), maxFinished)
	if !signed {
		f = max(f, 0)
	}
	q := min(max(int32(math.Round(f/step)), lo), hi)

	best, bestErr := q, math.Abs(float64(finish(unquantize(q, signed), signed))-f)
	for _, c := range [2]int32{q - 1, q + 1} {
		if c < lo || c > hi {
			continue
		}
		if e := math.Abs(float64(finish(unquantize(c, signed), signed)) - f); e < bestErr {
			best, bestErr = c, e
		}
	}

	return best
}

func quantizeEndpoints(e [2][3]float64, signed bool) endpoints {
	var q endpoints
	for i := range 2 {
		for c := range 3 {
			q[i][c] = quantize(e[i][c], signed)
		}
	}

	return q
}

func assign(px *[16][3]int32, q endpoints, signed bool, w [3]float64) ([16]uint8, float64) {
	p := palette(q, signed)

	var idx [16]uint8
	var total float64
	for i := range px {
		best, bestErr := 0, math.Inf(1)
		for j := range p {
			var e float64
			for c := range 3 {
				d := float64(p[j][c] - px[i][c])
				e += w[c] * d * d
			}
			if e < bestErr {
				best, bestErr = j, e
			}
		}
		idx[i] = uint8(best) //nolint: gosec
		total += bestErr
	}

	return idx, total
}

func principal(px *[16][3]int32) [2][3]float64 {
	var mean [3]float64
	for i := range px {
		for c := range 3 {
			mean[c] += float64(px[i][c])
		}
	}
	for c := range mean {
		mean[c] /= 16
	}

	var cov [3][3]float64
	for i := range px {
		var d [3]float64
		for c := range 3 {
			d[c] = float64(px[i][c]) - mean[c]
		}
		for a := range 3 {
			for b := range 3 {
				cov[a][b] += d[a] * d[b]
			}
		}
	}

	k := 0
	for c := 1; c < 3; c++ {
		if cov[c][c] > cov[k][k] {
			k = c
		}
	}
	if cov[k][k] == 0 {
		return [2][3]float64{mean, mean}
	}

	axis := cov[k]
	for range 8 {
		var n [3]float64
		for a := range 3 {
			for b := range 3 {
				n[a] += cov[a][b] * axis[b]
			}
		}
		l := math.Sqrt(n[0]*n[0] + n[1]*n[1] + n[2]*n[2])
		if l == 0 {
			break
		}
		for a := range 3 {
			axis[a] = n[a] / l
		}
	}

	tmin, tmax := math.Inf(1), math.Inf(-1)
	for i := range px {
		var t float64
		for c := range 3 {
			t += (float64(px[i][c]) - mean[c]) * axis[c]
		}
		tmin = min(tmin, t)
		tmax = max(tmax, t)
	}

	var e [2][3]float64
	for c := range 3 {
		e[0][c] = mean[c] + tmin*axis[c]
		e[1][c] = mean[c] + tmax*axis[c]
	}

	return e
}

func bounds(px *[16][3]int32) [2][3]float64 {
	var e [2][3]float64
	for c := range 3 {
		lo, hi := px[0][c], px[0][c]
		for i := 1; i < 16; i++ {
			lo = min(lo, px[i][c])
			hi = max(hi, px[i][c])
		}
		e[0][c], e[1][c] = float64(lo), float64(hi)
	}

	return e
}

// refit solves the least-squares endpoints for fixed indices, per channel.
func refit(px *[16][3]int32, idx *[16]uint8) ([2][3]float64, bool) {
	var a, b, c float64
	var x0, x1 [3]float64
	for i := range px {
		t := float64(weights[idx[i]]) / 64
		s := 1 - t
		a += s * s
		b += s * t
		c += t * t
		for ch := range 3 {
			v := float64(px[i][ch])
			x0[ch] += s * v
			x1[ch] += t * v
		}
	}

	det := a*c - b*b
	if math.Abs(det) < 1e-9 {
		return [2][3]float64{}, false
	}

	var e [2][3]float64
	for ch := range 3 {
		e[0][ch] = (c*x0[ch] - b*x1[ch]) / det
		e[1][ch] = (a*x1[ch] - b*x0[ch]) / det
	}

	return e, true
}

// EncodeBlock encodes one 4x4 block in mode 11: a single region with
// 10-bit endpoints and 4-bit indices.
//
// quality >= 0.25 also tries the bounding-box endpoints, quality >= 0.5
// refits the endpoints by least squares and quality >= 0.8 refits twice.
// channelWeights scales the per-channel error; nil weighs R, G and B equally.
func EncodeBlock(texels *Texels, signed bool, quality float32, channelWeights *[4]float32) [BlockBytes]byte {
	w := [3]float64{1, 1, 1}
	if cw := channelWeights; cw != nil && cw[0]+cw[1]+cw[2] > 0 {
		for c := range 3 {
			w[c] = float64(max(cw[c], 0))
		}
	}

	var px [16][3]int32
	for i := range texels {
		for c := range 3 {
			px[i][c] = toFinished(texels[i][c], signed)
		}
	}

	q := quantizeEndpoints(principal(&px), signed)
	idx, best := assign(&px, q, signed, w)

	if quality >= 0.25 {
		cq := quantizeEndpoints(bounds(&px), signed)
		if cidx, cerr := assign(&px, cq, signed, w); cerr < best {
			q, idx, best = cq, cidx, cerr
		}
	}

	passes := 0
	switch {
	case quality >= 0.8:
		passes = 2
	case quality >= 0.5:
		passes = 1
	}
	for range passes {
		e, ok := refit(&px, &idx)
		if !ok {
			break
		}
		cq := quantizeEndpoints(e, signed)
		cidx, cerr := assign(&px, cq, signed, w)
		if cerr >= best {
			break
		}
		q, idx, best = cq, cidx, cerr
	}

	// The anchor index is stored without its top bit.
	if idx[0] >= 8 {
		q[0], q[1] = q[1], q[0]
		for i := range idx {
			idx[i] = 15 - idx[i]
		}
	}

	return pack(q, &idx)
}

func pack(q endpoints, idx *[16]uint8) [BlockBytes]byte {
	var b bits
	b.put(0, modeBits, mode11)
	pos := modeBits
	for i := range 2 {
		for c := range 3 {
			b.put(pos, endpointBits, uint64(q[i][c])&(1<<endpointBits-1)) //nolint: gosec
			pos += endpointBits
		}
	}
	b.put(indexStart, 3, uint64(idx[0]))
	for i := 1; i < 16; i++ {
		b.put(indexStart+3+(i-1)*4, 4, uint64(idx[i]))
	}

	var out [BlockBytes]byte
	b.store(out[:])

	return out
}

// DecodeBlock decodes one mode 11 block. Blocks in any other mode fail with
// errs.ErrUnsupportedMode.
func DecodeBlock(src []byte, signed bool) (Texels, error) {
	if len(src) < BlockBytes {
		return Texels{}, fmt.Errorf("%w: block of %d bytes", errs.ErrTruncated, len(src))
	}

	b := loadBits(src)
	if m := b.get(0, 2); m < 2 {
		return Texels{}, fmt.Errorf("%w: 2-bit mode %d", errs.ErrUnsupportedMode, m)
	}
	if m := b.get(0, modeBits); m != mode11 {
		return Texels{}, fmt.Errorf("%w: mode bits %#02x", errs.ErrUnsupportedMode, m)
	}

	var q endpoints
	pos := modeBits
	for i := range 2 {
		for c := range 3 {
			v := int32(b.get(pos, endpointBits)) //nolint: gosec
			if signed && v&(1<<(endpointBits-1)) != 0 {
				v -= 1 << endpointBits
			}
			q[i][c] = v
			pos += endpointBits
		}
	}

	p := palette(q, signed)
	var out Texels
	for i := range out {
		var j uint64
		if i == 0 {
			j = b.get(indexStart, 3)
		} else {
			j = b.get(indexStart+3+(i-1)*4, 4)
		}
		for c := range 3 {
			out[i][c] = fromFinished(p[j][c])
		}
	}

	return out, nil
}
