package pool

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestByteBuffer_Grow(t *testing.T) {
	t.Run("no growth when capacity suffices", func(t *testing.T) {
		bb := NewByteBuffer(64)
		bb.Grow(32)
		require.Equal(t, 64, bb.Cap())
	})

	t.Run("small buffer grows by default size", func(t *testing.T) {
		bb := NewByteBuffer(8)
		_, _ = bb.Write([]byte("abcdefgh"))
		bb.Grow(1)
		require.Equal(t, 8+HeaderBufferDefaultSize, bb.Cap())
		require.Equal(t, []byte("abcdefgh"), bb.Bytes())
	})

	t.Run("large request wins", func(t *testing.T) {
		bb := NewByteBuffer(0)
		bb.Grow(HeaderBufferDefaultSize * 3)
		require.GreaterOrEqual(t, bb.Cap(), HeaderBufferDefaultSize*3)
	})
}

func TestByteBuffer_ExtendOrGrow(t *testing.T) {
	bb := NewByteBuffer(4)
	_, _ = bb.Write([]byte{1, 2})

	region := bb.ExtendOrGrow(6)
	require.Len(t, region, 6)
	require.Equal(t, 8, bb.Len())

	copy(region, []byte{3, 4, 5, 6, 7, 8})
	require.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, bb.Bytes())
}

func TestByteBuffer_WriteTo(t *testing.T) {
	bb := NewByteBuffer(16)
	_, _ = bb.Write([]byte("payload"))

	var out bytes.Buffer
	n, err := bb.WriteTo(&out)
	require.NoError(t, err)
	require.Equal(t, int64(7), n)
	require.Equal(t, "payload", out.String())
}

func TestByteBufferPool(t *testing.T) {
	t.Run("returned buffers are reset", func(t *testing.T) {
		p := NewByteBufferPool(32, 1024)
		bb := p.Get()
		_, _ = bb.Write([]byte("data"))
		p.Put(bb)

		again := p.Get()
		require.Equal(t, 0, again.Len())
	})

	t.Run("oversized buffers are dropped", func(t *testing.T) {
		p := NewByteBufferPool(32, 64)
		bb := p.Get()
		bb.Grow(1024)
		require.NotPanics(t, func() { p.Put(bb) })
	})

	t.Run("nil put is ignored", func(t *testing.T) {
		p := NewByteBufferPool(32, 64)
		require.NotPanics(t, func() { p.Put(nil) })
	})

	t.Run("default pools", func(t *testing.T) {
		h := GetHeaderBuffer()
		require.GreaterOrEqual(t, h.Cap(), 0)
		PutHeaderBuffer(h)

		pb := GetPayloadBuffer()
		require.NotNil(t, pb)
		PutPayloadBuffer(pb)
	})
}
