// Package endian provides the byte order engines used when voltex writes
// binary records.
//
// Container files are always little-endian. The raw split-file format stores
// its "_dims" record in host byte order, so readers on a different host need
// the byte-order tag that record is checked against.
//
// # Basic Usage
//
//	engine := endian.GetLittleEndianEngine()
//	buf = engine.AppendUint32(buf, width)
//
// # Thread Safety
//
// All functions in this package are safe for concurrent use. The returned
// EndianEngine instances are immutable and stateless.
package endian

import (
	"encoding/binary"
	"unsafe"
)

// EndianEngine combines ByteOrder and AppendByteOrder from encoding/binary
// so one value can both patch fixed offsets and append records.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// OrderTag is the 32-bit value written in host order by producers of
// host-ordered records. Reading it back as 0x04030201 means the record
// matches the reader's order; 0x01020304 means it must be byte-swapped.
const OrderTag uint32 = 0x04030201

// CheckEndianness uses a fixed integer value to determine the host's byte order.
func CheckEndianness() binary.ByteOrder {
	var i uint16 = 0x0100

	// The first byte in memory is the MSB on big-endian hosts.
	b := (*[2]byte)(unsafe.Pointer(&i))
	if b[0] == 0x01 {
		return binary.BigEndian
	}

	return binary.LittleEndian
}

// IsNativeLittleEndian reports whether the host is little-endian.
func IsNativeLittleEndian() bool {
	return CheckEndianness() == binary.LittleEndian
}

// CompareNativeEndian reports whether engine matches the host byte order.
func CompareNativeEndian(engine EndianEngine) bool {
	return engine == CheckEndianness()
}

// GetLittleEndianEngine returns the little-endian engine.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// GetBigEndianEngine returns the big-endian engine.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}

// GetNativeEngine returns the engine matching the host byte order.
func GetNativeEngine() EndianEngine {
	if IsNativeLittleEndian() {
		return binary.LittleEndian
	}

	return binary.BigEndian
}

// EngineForTag returns the engine that decodes a record whose leading four
// bytes hold OrderTag. ok is false when tag is neither byte order.
func EngineForTag(tag []byte) (engine EndianEngine, ok bool) {
	if len(tag) < 4 {
		return nil, false
	}

	switch {
	case binary.LittleEndian.Uint32(tag) == OrderTag:
		return binary.LittleEndian, true
	case binary.BigEndian.Uint32(tag) == OrderTag:
		return binary.BigEndian, true
	default:
		return nil, false
	}
}
