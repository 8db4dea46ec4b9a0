// Package format defines the type tags shared by grid buffers, the codec
// adapter and the container: element types, channel layouts, pixel formats
// and payload supercompression types.
package format

import (
	"fmt"
	"strings"
)

type (
	// ElementType tags the scalar type of one channel of one grid cell.
	ElementType uint8
	// PixelLayout tags the logical channel layout of a grid cell.
	PixelLayout uint8
	// CompressionType selects the lossless supercompression applied to a container payload.
	CompressionType uint8
)

const (
	ElementUnknown ElementType = 0x0
	ElementU8      ElementType = 0x1 // ElementU8 is an unsigned normalized byte.
	ElementU16     ElementType = 0x2 // ElementU16 is an unsigned normalized 16-bit integer.
	ElementU32     ElementType = 0x3 // ElementU32 is an unsigned 32-bit integer.
	ElementF16     ElementType = 0x4 // ElementF16 is an IEEE 754 binary16 float.
	ElementF32     ElementType = 0x5 // ElementF32 is an IEEE 754 binary32 float.

	LayoutUnknown PixelLayout = 0x0
	LayoutR       PixelLayout = 0x1
	LayoutRG      PixelLayout = 0x2
	LayoutRGB     PixelLayout = 0x3
	LayoutRGBA    PixelLayout = 0x4

	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
)

// Size returns the size of one element in bytes, or 0 for ElementUnknown.
func (e ElementType) Size() int {
	switch e {
	case ElementU8:
		return 1
	case ElementU16, ElementF16:
		return 2
	case ElementU32, ElementF32:
		return 4
	default:
		return 0
	}
}

// BitDepth returns the element size in bits.
func (e ElementType) BitDepth() int {
	return e.Size() * 8
}

// IsFloat reports whether the element is a floating point type.
func (e ElementType) IsFloat() bool {
	return e == ElementF16 || e == ElementF32
}

func (e ElementType) String() string {
	switch e {
	case ElementU8:
		return "U8"
	case ElementU16:
		return "U16"
	case ElementU32:
		return "U32"
	case ElementF16:
		return "F16"
	case ElementF32:
		return "F32"
	default:
		return "Unknown"
	}
}

// ParseElementType parses the short names produced by ElementType.String,
// case-insensitively.
func ParseElementType(s string) (ElementType, error) {
	switch strings.ToLower(s) {
	case "u8":
		return ElementU8, nil
	case "u16":
		return ElementU16, nil
	case "u32":
		return ElementU32, nil
	case "f16":
		return ElementF16, nil
	case "f32":
		return ElementF32, nil
	default:
		return ElementUnknown, fmt.Errorf("unknown element type %q", s)
	}
}

// Channels returns the number of interleaved channels for the layout.
func (l PixelLayout) Channels() int {
	if l < LayoutR || l > LayoutRGBA {
		return 0
	}

	return int(l)
}

func (l PixelLayout) String() string {
	switch l {
	case LayoutR:
		return "R"
	case LayoutRG:
		return "RG"
	case LayoutRGB:
		return "RGB"
	case LayoutRGBA:
		return "RGBA"
	default:
		return "Unknown"
	}
}

// LayoutFor returns the layout holding the given number of channels, or
// LayoutUnknown for counts outside 1-4.
func LayoutFor(channels int) PixelLayout {
	if channels < 1 || channels > 4 {
		return LayoutUnknown
	}

	return PixelLayout(channels)
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}

// KTX2 supercompression scheme identifiers. Values at or above 0x10000 are
// in the vendor range.
const (
	SchemeNone uint32 = 0
	SchemeZstd uint32 = 2
	SchemeS2   uint32 = 0x10001
	SchemeLZ4  uint32 = 0x10002
)

// Scheme returns the container supercompression scheme identifier.
func (c CompressionType) Scheme() uint32 {
	switch c {
	case CompressionZstd:
		return SchemeZstd
	case CompressionS2:
		return SchemeS2
	case CompressionLZ4:
		return SchemeLZ4
	default:
		return SchemeNone
	}
}

// CompressionFromScheme maps a container supercompression scheme back to a
// CompressionType.
func CompressionFromScheme(scheme uint32) (CompressionType, error) {
	switch scheme {
	case SchemeNone:
		return CompressionNone, nil
	case SchemeZstd:
		return CompressionZstd, nil
	case SchemeS2:
		return CompressionS2, nil
	case SchemeLZ4:
		return CompressionLZ4, nil
	default:
		return 0, fmt.Errorf("unsupported supercompression scheme %#x", scheme)
	}
}
