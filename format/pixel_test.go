package format

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatFor(t *testing.T) {
	tests := []struct {
		name     string
		channels int
		depth    int
		isFloat  bool
		want     PixelFormat
	}{
		{"r8", 1, 8, false, R8Unorm},
		{"rgba8", 4, 8, false, RGBA8Unorm},
		{"rg16", 2, 16, false, RG16Unorm},
		{"rgb16f", 3, 16, true, RGB16Float},
		{"r32u", 1, 32, false, R32Uint},
		{"rgba32f", 4, 32, true, RGBA32Float},
		{"8-bit float", 1, 8, true, Undefined},
		{"zero channels", 0, 32, true, Undefined},
		{"five channels", 5, 32, true, Undefined},
		{"odd depth", 1, 12, false, Undefined},
		{"64-bit", 1, 64, true, Undefined},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, FormatFor(tt.channels, tt.depth, tt.isFloat))
		})
	}
}

func TestFormatForElement(t *testing.T) {
	require.Equal(t, RG16Float, FormatForElement(2, ElementF16))
	require.Equal(t, R32Float, FormatForElement(1, ElementF32))
	require.Equal(t, Undefined, FormatForElement(1, ElementUnknown))
}

func TestPixelFormatProperties(t *testing.T) {
	t.Run("uncompressed", func(t *testing.T) {
		require.True(t, RGB32Float.IsValid())
		require.Equal(t, 3, RGB32Float.Channels())
		require.Equal(t, ElementF32, RGB32Float.Element())
		require.Equal(t, LayoutRGB, RGB32Float.Layout())
		require.Equal(t, 12, RGB32Float.TexelBytes())
		require.False(t, RGB32Float.IsBlockCompressed())
		require.Zero(t, RGB32Float.BlockBytes())

		x, y, z := RGB32Float.BlockExtent()
		require.Zero(t, x+y+z)
	})

	t.Run("bc6h", func(t *testing.T) {
		for _, f := range []PixelFormat{BC6HUFloat, BC6HSFloat} {
			require.True(t, f.IsBlockCompressed())
			require.Equal(t, 16, f.BlockBytes())
			require.Zero(t, f.TexelBytes())

			x, y, z := f.BlockExtent()
			require.Equal(t, [3]int{4, 4, 1}, [3]int{x, y, z})
		}
		require.True(t, BC6HSFloat.IsSigned())
		require.False(t, BC6HUFloat.IsSigned())
	})

	t.Run("strings", func(t *testing.T) {
		require.Equal(t, "R16G16_SFLOAT", RG16Float.String())
		require.Equal(t, "BC6H_UFLOAT_BLOCK", BC6HUFloat.String())
		require.Equal(t, "UNDEFINED", Undefined.String())
		require.Equal(t, "UNKNOWN(12345)", PixelFormat(12345).String())
		require.False(t, PixelFormat(12345).IsValid())
	})
}

func TestElementType(t *testing.T) {
	for _, e := range []ElementType{ElementU8, ElementU16, ElementU32, ElementF16, ElementF32} {
		t.Run(e.String(), func(t *testing.T) {
			parsed, err := ParseElementType(e.String())
			require.NoError(t, err)
			require.Equal(t, e, parsed)
			require.Equal(t, e.Size()*8, e.BitDepth())
		})
	}

	_, err := ParseElementType("f64")
	require.Error(t, err)
	require.Zero(t, ElementUnknown.Size())
	require.True(t, ElementF16.IsFloat())
	require.False(t, ElementU32.IsFloat())
}

func TestCompressionScheme(t *testing.T) {
	for _, c := range []CompressionType{CompressionNone, CompressionZstd, CompressionS2, CompressionLZ4} {
		t.Run(c.String(), func(t *testing.T) {
			got, err := CompressionFromScheme(c.Scheme())
			require.NoError(t, err)
			require.Equal(t, c, got)
		})
	}

	_, err := CompressionFromScheme(1)
	require.Error(t, err)
	require.Equal(t, LayoutUnknown, LayoutFor(0))
	require.Equal(t, 4, LayoutRGBA.Channels())
}
