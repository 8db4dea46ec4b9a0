package bc6h

import (
	"math"
	"testing"

	"github.com/arloliu/voltex/errs"
	"github.com/stretchr/testify/require"
)

func TestBits(t *testing.T) {
	var b bits
	b.put(60, 10, 0x2A5)
	b.put(0, 5, mode11)
	b.put(125, 3, 0x5)

	require.Equal(t, uint64(0x2A5), b.get(60, 10))
	require.Equal(t, uint64(mode11), b.get(0, 5))
	require.Equal(t, uint64(0x5), b.get(125, 3))

	var buf [BlockBytes]byte
	b.store(buf[:])
	require.Equal(t, b, loadBits(buf[:]))
	require.Equal(t, byte(0x03), buf[0]&0x1F)
}

func TestUnquantize(t *testing.T) {
	require.Equal(t, int32(0), unquantize(0, false))
	require.Equal(t, int32(0xFFFF), unquantize(1023, false))
	require.Equal(t, int32(0x7BFF), finish(unquantize(1023, false), false))

	require.Equal(t, int32(0x7FFF), unquantize(511, true))
	require.Equal(t, int32(-0x7FFF), unquantize(-511, true))
	require.Equal(t, int32(0x7BFF), finish(unquantize(511, true), true))
	require.Equal(t, int32(-0x7BFF), finish(unquantize(-511, true), true))
}

func TestQuantize(t *testing.T) {
	for _, signed := range []bool{false, true} {
		step := 31.0
		if signed {
			step = 62.0
		}
		for f := 0.0; f <= maxFinished; f += 97 {
			q := quantize(f, signed)
			got := float64(finish(unquantize(q, signed), signed))
			require.LessOrEqual(t, math.Abs(got-f), step, "f=%v signed=%v", f, signed)
		}
	}

	require.Equal(t, int32(0), quantize(-500, false))
	require.Equal(t, int32(1023), quantize(1e9, false))
	require.Equal(t, int32(-511), quantize(-1e9, true))
}

func TestDecodeBlock_Layout(t *testing.T) {
	var b bits
	b.put(0, modeBits, mode11)
	// rw gw bw = 1023, rx gx bx = 0
	for c := range 3 {
		b.put(modeBits+c*endpointBits, endpointBits, 1023)
	}
	// texel 1 takes the second endpoint
	b.put(indexStart+3, 4, 15)

	var raw [BlockBytes]byte
	b.store(raw[:])

	texels, err := DecodeBlock(raw[:], false)
	require.NoError(t, err)
	require.Equal(t, [3]float32{65504, 65504, 65504}, texels[0])
	require.Equal(t, [3]float32{0, 0, 0}, texels[1])
	require.Equal(t, [3]float32{65504, 65504, 65504}, texels[15])
}

func TestDecodeBlock_UnsupportedMode(t *testing.T) {
	for _, first := range []byte{0x00, 0x01, 0x02, 0x07, 0x0B, 0x1F} {
		var raw [BlockBytes]byte
		raw[0] = first
		_, err := DecodeBlock(raw[:], false)
		require.ErrorIs(t, err, errs.ErrUnsupportedMode, "mode byte %#x", first)
	}

	_, err := DecodeBlock(make([]byte, 8), false)
	require.ErrorIs(t, err, errs.ErrTruncated)
}

func TestEncodeBlock(t *testing.T) {
	t.Run("Zero block", func(t *testing.T) {
		var texels Texels
		raw := EncodeBlock(&texels, false, 1, nil)
		want := [BlockBytes]byte{0x03}
		require.Equal(t, want, raw)
	})

	t.Run("Anchor index fits in three bits", func(t *testing.T) {
		var texels Texels
		texels[0] = [3]float32{8, 8, 8}
		for i := 1; i < 16; i++ {
			v := float32(i) / 16
			texels[i] = [3]float32{v, v, v}
		}
		raw := EncodeBlock(&texels, false, 0, nil)
		b := loadBits(raw[:])
		require.Equal(t, uint64(mode11), b.get(0, modeBits))

		got, err := DecodeBlock(raw[:], false)
		require.NoError(t, err)
		require.InDelta(t, 8, got[0][0], 8*0.04)
	})

	t.Run("Constant block", func(t *testing.T) {
		for _, v := range []float32{0.001, 0.5, 1, 3.75, 1000} {
			var texels Texels
			for i := range texels {
				texels[i] = [3]float32{v, v / 2, v * 2}
			}
			for _, signed := range []bool{false, true} {
				raw := EncodeBlock(&texels, signed, 0.5, nil)
				got, err := DecodeBlock(raw[:], signed)
				require.NoError(t, err)
				for i := range got {
					for c := range 3 {
						want := texels[i][c]
						require.InDelta(t, want, got[i][c], float64(want)*0.04, "v=%v signed=%v", v, signed)
					}
				}
			}
		}
	})

	t.Run("Negative values clamp to zero when unsigned", func(t *testing.T) {
		var texels Texels
		for i := range texels {
			texels[i] = [3]float32{-1, float32(math.NaN()), float32(math.Inf(1))}
		}
		raw := EncodeBlock(&texels, false, 1, nil)
		got, err := DecodeBlock(raw[:], false)
		require.NoError(t, err)
		require.Equal(t, float32(0), got[3][0])
		require.Equal(t, float32(0), got[3][1])
		require.Equal(t, float32(65504), got[3][2])
	})
}
