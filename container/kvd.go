package container

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/arloliu/voltex/errs"
	"github.com/arloliu/voltex/grid"
)

// KeyValue is one entry of the key/value data section.
type KeyValue struct {
	Key   string
	Value []byte
}

// KeyValues is the key/value data section, kept sorted by key.
type KeyValues []KeyValue

// Get returns the value stored under key.
func (kv KeyValues) Get(key string) ([]byte, bool) {
	i, ok := slices.BinarySearchFunc(kv, key, func(e KeyValue, k string) int {
		return strings.Compare(e.Key, k)
	})
	if !ok {
		return nil, false
	}

	return kv[i].Value, true
}

// Set stores value under key, replacing any existing entry.
func (kv *KeyValues) Set(key string, value []byte) {
	i, ok := slices.BinarySearchFunc(*kv, key, func(e KeyValue, k string) int {
		return strings.Compare(e.Key, k)
	})
	if ok {
		(*kv)[i].Value = value
		return
	}
	*kv = slices.Insert(*kv, i, KeyValue{Key: key, Value: value})
}

// Size returns the encoded size of the section.
func (kv KeyValues) Size() int {
	n := 0
	for _, e := range kv {
		n += 4 + pad4(len(e.Key)+1+len(e.Value))
	}

	return n
}

// AppendTo appends the encoded section to b. Each entry is a u32 length,
// the NUL-terminated key, the value and zero padding to 4 bytes.
func (kv KeyValues) AppendTo(b []byte) []byte {
	for _, e := range kv {
		n := len(e.Key) + 1 + len(e.Value)
		b = engine.AppendUint32(b, uint32(n)) //nolint: gosec
		b = append(b, e.Key...)
		b = append(b, 0)
		b = append(b, e.Value...)
		for range pad4(n) - n {
			b = append(b, 0)
		}
	}

	return b
}

// ParseKeyValues decodes a key/value data section.
func ParseKeyValues(data []byte) (KeyValues, error) {
	var kv KeyValues
	for len(data) > 0 {
		if len(data) < 4 {
			return nil, fmt.Errorf("%w: %d trailing bytes", errs.ErrInvalidKeyValue, len(data))
		}
		n := int(engine.Uint32(data[:4]))
		data = data[4:]
		if n > len(data) {
			return nil, fmt.Errorf("%w: entry of %d bytes, %d left", errs.ErrInvalidKeyValue, n, len(data))
		}

		entry := data[:n]
		nul := bytes.IndexByte(entry, 0)
		if nul <= 0 {
			return nil, fmt.Errorf("%w: entry without key", errs.ErrInvalidKeyValue)
		}
		kv.Set(string(entry[:nul]), bytes.Clone(entry[nul+1:]))

		data = data[min(pad4(n), len(data)):]
	}

	return kv, nil
}

func pad4(n int) int {
	return (n + 3) &^ 3
}

func encodeDims(d grid.Dims) []byte {
	b := make([]byte, 0, 16)
	for _, v := range d.Array() {
		b = engine.AppendUint32(b, uint32(v)) //nolint: gosec
	}

	return b
}

func decodeDims(b []byte) (grid.Dims, error) {
	if len(b) != 16 {
		return grid.Dims{}, fmt.Errorf("%w: %s record of %d bytes", errs.ErrMissingDimensions, KeyDimensions, len(b))
	}

	return grid.D(
		int(engine.Uint32(b[0:4])),
		int(engine.Uint32(b[4:8])),
		int(engine.Uint32(b[8:12])),
		int(engine.Uint32(b[12:16])),
	), nil
}

func encodeUint32s(vs ...int) []byte {
	b := make([]byte, 0, 4*len(vs))
	for _, v := range vs {
		b = engine.AppendUint32(b, uint32(v)) //nolint: gosec
	}

	return b
}

func decodeUint32s(b []byte, n int, key string) ([]int, error) {
	if len(b) != 4*n {
		return nil, fmt.Errorf("%w: %s holds %d bytes, want %d", errs.ErrInvalidKeyValue, key, len(b), 4*n)
	}
	out := make([]int, n)
	for i := range out {
		out[i] = int(engine.Uint32(b[4*i:]))
	}

	return out, nil
}
