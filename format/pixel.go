package format

import "fmt"

// PixelFormat identifies the storage format of a grid buffer or container
// payload. Values are Vulkan VkFormat codes, the identifiers a KTX2 header
// stores in its vkFormat field.
type PixelFormat uint32

// Undefined is the sentinel "no format" value returned for unsupported
// channel/bit-depth combinations.
const Undefined PixelFormat = 0

const (
	R8Unorm     PixelFormat = 9
	RG8Unorm    PixelFormat = 16
	RGB8Unorm   PixelFormat = 23
	RGBA8Unorm  PixelFormat = 37
	R16Unorm    PixelFormat = 70
	R16Float    PixelFormat = 76
	RG16Unorm   PixelFormat = 77
	RG16Float   PixelFormat = 83
	RGB16Unorm  PixelFormat = 84
	RGB16Float  PixelFormat = 90
	RGBA16Unorm PixelFormat = 91
	RGBA16Float PixelFormat = 97
	R32Uint     PixelFormat = 98
	R32Float    PixelFormat = 100
	RG32Uint    PixelFormat = 101
	RG32Float   PixelFormat = 103
	RGB32Uint   PixelFormat = 104
	RGB32Float  PixelFormat = 106
	RGBA32Uint  PixelFormat = 107
	RGBA32Float PixelFormat = 109
	BC6HUFloat  PixelFormat = 143 // BC6HUFloat is unsigned half-float BC6H, 4x4x1 blocks of 16 bytes.
	BC6HSFloat  PixelFormat = 144 // BC6HSFloat is signed half-float BC6H, 4x4x1 blocks of 16 bytes.
)

const bc6hBlockSize = 16

// formatTable is indexed by [channels-1][bitDepthIndex][isFloat].
// bitDepthIndex is 0 for 8 bits, 1 for 16 bits and 2 for 32 bits.
var formatTable = [4][3][2]PixelFormat{
	{{R8Unorm, Undefined}, {R16Unorm, R16Float}, {R32Uint, R32Float}},
	{{RG8Unorm, Undefined}, {RG16Unorm, RG16Float}, {RG32Uint, RG32Float}},
	{{RGB8Unorm, Undefined}, {RGB16Unorm, RGB16Float}, {RGB32Uint, RGB32Float}},
	{{RGBA8Unorm, Undefined}, {RGBA16Unorm, RGBA16Float}, {RGBA32Uint, RGBA32Float}},
}

type pixelInfo struct {
	name     string
	channels int
	element  ElementType
}

var pixelInfos = map[PixelFormat]pixelInfo{
	R8Unorm:     {"R8_UNORM", 1, ElementU8},
	RG8Unorm:    {"R8G8_UNORM", 2, ElementU8},
	RGB8Unorm:   {"R8G8B8_UNORM", 3, ElementU8},
	RGBA8Unorm:  {"R8G8B8A8_UNORM", 4, ElementU8},
	R16Unorm:    {"R16_UNORM", 1, ElementU16},
	RG16Unorm:   {"R16G16_UNORM", 2, ElementU16},
	RGB16Unorm:  {"R16G16B16_UNORM", 3, ElementU16},
	RGBA16Unorm: {"R16G16B16A16_UNORM", 4, ElementU16},
	R16Float:    {"R16_SFLOAT", 1, ElementF16},
	RG16Float:   {"R16G16_SFLOAT", 2, ElementF16},
	RGB16Float:  {"R16G16B16_SFLOAT", 3, ElementF16},
	RGBA16Float: {"R16G16B16A16_SFLOAT", 4, ElementF16},
	R32Uint:     {"R32_UINT", 1, ElementU32},
	RG32Uint:    {"R32G32_UINT", 2, ElementU32},
	RGB32Uint:   {"R32G32B32_UINT", 3, ElementU32},
	RGBA32Uint:  {"R32G32B32A32_UINT", 4, ElementU32},
	R32Float:    {"R32_SFLOAT", 1, ElementF32},
	RG32Float:   {"R32G32_SFLOAT", 2, ElementF32},
	RGB32Float:  {"R32G32B32_SFLOAT", 3, ElementF32},
	RGBA32Float: {"R32G32B32A32_SFLOAT", 4, ElementF32},
	BC6HUFloat:  {"BC6H_UFLOAT_BLOCK", 3, ElementU8},
	BC6HSFloat:  {"BC6H_SFLOAT_BLOCK", 3, ElementU8},
}

// FormatFor returns the uncompressed pixel format for a channel count, bit
// depth and float flag.
//
// It never fails loudly: any combination outside 1-4 channels x {8,16,32}
// bits x {int,float}, and 8-bit float in particular, yields Undefined.
// Callers must check the result before use.
func FormatFor(channels, bitDepth int, isFloat bool) PixelFormat {
	if channels < 1 || channels > 4 {
		return Undefined
	}

	var depthIdx int
	switch bitDepth {
	case 8:
		depthIdx = 0
	case 16:
		depthIdx = 1
	case 32:
		depthIdx = 2
	default:
		return Undefined
	}

	floatIdx := 0
	if isFloat {
		floatIdx = 1
	}

	return formatTable[channels-1][depthIdx][floatIdx]
}

// FormatForElement is FormatFor keyed by element type.
func FormatForElement(channels int, elem ElementType) PixelFormat {
	if elem == ElementUnknown {
		return Undefined
	}

	return FormatFor(channels, elem.BitDepth(), elem.IsFloat())
}

// IsValid reports whether the format is known to this package.
func (f PixelFormat) IsValid() bool {
	_, ok := pixelInfos[f]
	return ok
}

// Channels returns the number of channels a texel of this format carries.
func (f PixelFormat) Channels() int {
	return pixelInfos[f].channels
}

// Element returns the element type of the format. Block-compressed formats
// report ElementU8 because their payload is opaque bytes.
func (f PixelFormat) Element() ElementType {
	return pixelInfos[f].element
}

// Layout returns the channel layout of the format.
func (f PixelFormat) Layout() PixelLayout {
	return LayoutFor(f.Channels())
}

// IsBlockCompressed reports whether the format stores fixed-size blocks.
func (f PixelFormat) IsBlockCompressed() bool {
	return f == BC6HUFloat || f == BC6HSFloat
}

// IsSigned reports whether a block-compressed format encodes signed values.
func (f PixelFormat) IsSigned() bool {
	return f == BC6HSFloat
}

// BlockExtent returns the block footprint in texels, or zeros for
// uncompressed formats.
func (f PixelFormat) BlockExtent() (x, y, z int) {
	if f.IsBlockCompressed() {
		return 4, 4, 1
	}

	return 0, 0, 0
}

// BlockBytes returns the encoded size of one block, or 0 for uncompressed formats.
func (f PixelFormat) BlockBytes() int {
	if f.IsBlockCompressed() {
		return bc6hBlockSize
	}

	return 0
}

// TexelBytes returns the size of one texel of an uncompressed format, or 0
// for block-compressed and unknown formats.
func (f PixelFormat) TexelBytes() int {
	if f.IsBlockCompressed() {
		return 0
	}
	info := pixelInfos[f]

	return info.channels * info.element.Size()
}

func (f PixelFormat) String() string {
	if info, ok := pixelInfos[f]; ok {
		return info.name
	}
	if f == Undefined {
		return "UNDEFINED"
	}

	return fmt.Sprintf("UNKNOWN(%d)", uint32(f))
}
