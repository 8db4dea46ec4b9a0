// Package grid models the typed, up-to-4-dimensional grid buffers that flow
// through the voltex pipeline.
//
// A grid has extents (x, y, z, t) and stores channels interleaved per cell,
// with x varying fastest, then y, z and finally t. One (z, t) cross-section
// is a slice; slices are stored in order t outer, z inner, so slice index
// i = t*Z + z addresses both the raw data and the peak tables built from it.
package grid

import (
	"fmt"

	"github.com/arloliu/voltex/errs"
)

// Dims are the four logical extents of a grid.
type Dims struct {
	X int
	Y int
	Z int
	T int
}

// D returns Dims for the given extents.
func D(x, y, z, t int) Dims {
	return Dims{X: x, Y: y, Z: z, T: t}
}

// DimsFromShape builds Dims from a loader shape vector of up to four
// entries. Missing entries default to 1.
func DimsFromShape(shape []int) (Dims, error) {
	if len(shape) > 4 {
		return Dims{}, fmt.Errorf("%w: shape has %d axes", errs.ErrInvalidDims, len(shape))
	}

	v := [4]int{1, 1, 1, 1}
	for i, s := range shape {
		if s < 0 {
			return Dims{}, fmt.Errorf("%w: negative extent %d on axis %d", errs.ErrInvalidDims, s, i)
		}
		v[i] = s
	}

	return Dims{X: v[0], Y: v[1], Z: v[2], T: v[3]}, nil
}

// Effective returns the dims with every axis raised to at least 1.
func (d Dims) Effective() Dims {
	return Dims{X: max(d.X, 1), Y: max(d.Y, 1), Z: max(d.Z, 1), T: max(d.T, 1)}
}

// Valid reports whether no extent is negative.
func (d Dims) Valid() bool {
	return d.X >= 0 && d.Y >= 0 && d.Z >= 0 && d.T >= 0
}

// Count returns the number of grid cells.
func (d Dims) Count() int {
	return d.X * d.Y * d.Z * d.T
}

// PlaneCount returns the number of cells in one (z, t) slice.
func (d Dims) PlaneCount() int {
	return d.X * d.Y
}

// Slices returns the number of (z, t) slices.
func (d Dims) Slices() int {
	return d.Z * d.T
}

// SliceIndex returns the index of slice (z, t).
func (d Dims) SliceIndex(z, t int) int {
	return t*d.Z + z
}

// SliceCoords is the inverse of SliceIndex.
func (d Dims) SliceCoords(i int) (z, t int) {
	if d.Z == 0 {
		return 0, 0
	}

	return i % d.Z, i / d.Z
}

// Array returns the extents as a fixed array in x, y, z, t order.
func (d Dims) Array() [4]int {
	return [4]int{d.X, d.Y, d.Z, d.T}
}

func (d Dims) String() string {
	return fmt.Sprintf("%dx%dx%dx%d", d.X, d.Y, d.Z, d.T)
}

// Extent is a block footprint in texels. The zero value means "not block compressed".
type Extent struct {
	X int
	Y int
	Z int
}

// IsZero reports whether e is the uncompressed footprint.
func (e Extent) IsZero() bool {
	return e.X == 0 && e.Y == 0 && e.Z == 0
}

// Blocks returns the number of blocks needed to cover d along each spatial
// axis. The t axis is never blocked.
func (e Extent) Blocks(d Dims) (bx, by, bz int) {
	if e.IsZero() {
		return d.X, d.Y, d.Z
	}

	return ceilDiv(d.X, e.X), ceilDiv(d.Y, e.Y), ceilDiv(d.Z, max(e.Z, 1))
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return 0
	}

	return (a + b - 1) / b
}
