// Package pool recycles the scratch buffers used while staging container
// payloads and codec slice images.
package pool

import "sync"

var float32SlicePool = sync.Pool{
	New: func() any { return &[]float32{} },
}

// GetFloat32Slice retrieves a float32 slice of exactly size elements.
//
// The contents are unspecified. The caller must call the returned cleanup
// function, typically with defer, to hand the slice back to the pool.
//
// Example:
//
//	pix, cleanup := pool.GetFloat32Slice(width * height * 4)
//	defer cleanup()
func GetFloat32Slice(size int) ([]float32, func()) {
	ptr, _ := float32SlicePool.Get().(*[]float32)
	slice := (*ptr)[:0]

	if cap(slice) < size {
		slice = make([]float32, size)
	} else {
		slice = slice[:size]
	}
	*ptr = slice

	return slice, func() { float32SlicePool.Put(ptr) }
}
