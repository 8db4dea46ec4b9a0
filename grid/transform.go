package grid

import (
	"fmt"
	"runtime"

	"github.com/arloliu/voltex/errs"
	"golang.org/x/sync/errgroup"
)

// chunkFunc processes cells [begin, end).
type chunkFunc func(begin, end int) error

// fanOut splits n cells into workers equal chunks, runs fn on each chunk in
// its own goroutine and waits for all of them. The result is all-or-nothing:
// any chunk error is returned and the output must be treated as undefined.
func fanOut(n, workers int, fn chunkFunc) error {
	if n == 0 {
		return nil
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	workers = min(workers, n)

	chunk := (n + workers - 1) / workers
	var g errgroup.Group
	for begin := 0; begin < n; begin += chunk {
		end := min(begin+chunk, n)
		g.Go(func() error {
			return fn(begin, end)
		})
	}

	return g.Wait()
}

// Interleave writes the channel planes into dst as interleaved cells:
// dst[i*len(planes)+c] = planes[c][i]. All planes must have the same length
// and dst must hold len(planes)*len(planes[0]) elements. workers <= 0 uses
// GOMAXPROCS goroutines.
func Interleave[T Element](dst []T, planes [][]T, workers int) error {
	channels := len(planes)
	if channels == 0 {
		return fmt.Errorf("%w: no planes", errs.ErrInvalidChannels)
	}
	n := len(planes[0])
	for c, p := range planes {
		if len(p) != n {
			return fmt.Errorf("%w: plane %d has %d cells, want %d", errs.ErrSizeMismatch, c, len(p), n)
		}
	}
	if len(dst) != n*channels {
		return fmt.Errorf("%w: destination holds %d elements, want %d", errs.ErrBufferTooSmall, len(dst), n*channels)
	}

	return fanOut(n, workers, func(begin, end int) error {
		for i := begin; i < end; i++ {
			base := i * channels
			for c := range channels {
				dst[base+c] = planes[c][i]
			}
		}

		return nil
	})
}

// Deinterleave is the inverse of Interleave: planes[c][i] = src[i*len(planes)+c].
func Deinterleave[T Element](planes [][]T, src []T, workers int) error {
	channels := len(planes)
	if channels == 0 {
		return fmt.Errorf("%w: no planes", errs.ErrInvalidChannels)
	}
	if len(src)%channels != 0 {
		return fmt.Errorf("%w: %d elements do not split into %d channels", errs.ErrSizeMismatch, len(src), channels)
	}
	n := len(src) / channels
	for c, p := range planes {
		if len(p) != n {
			return fmt.Errorf("%w: plane %d has %d cells, want %d", errs.ErrBufferTooSmall, c, len(p), n)
		}
	}

	return fanOut(n, workers, func(begin, end int) error {
		for i := begin; i < end; i++ {
			base := i * channels
			for c := range channels {
				planes[c][i] = src[base+c]
			}
		}

		return nil
	})
}

// FromPlanes builds an interleaved buffer from separate channel planes, as
// produced by planar dataset readers.
func FromPlanes[T Element](planes [][]T, dims Dims, workers int) (*Buffer[T], error) {
	buf, err := New[T](dims, len(planes))
	if err != nil {
		return nil, err
	}
	if err := Interleave(buf.Data, planes, workers); err != nil {
		return nil, err
	}

	return buf, nil
}

// Planes splits an uncompressed buffer into one slice per channel.
func (b *Buffer[T]) Planes(workers int) ([][]T, error) {
	n := b.Dims.Count()
	planes := make([][]T, b.Channels)
	for c := range planes {
		planes[c] = make([]T, n)
	}
	if err := Deinterleave(planes, b.Data, workers); err != nil {
		return nil, err
	}

	return planes, nil
}

// PlanarBytes converts the interleaved uncompressed payload described by
// meta into channel planes stored back to back, the layout written by
// planar dataset producers.
func PlanarBytes(meta Meta, data []byte, workers int) ([]byte, error) {
	if meta.IsBlockCompressed() {
		return nil, fmt.Errorf("%w: %s has no channel planes", errs.ErrUnsupportedFormat, meta.Format)
	}

	switch meta.Element.Size() {
	case 1:
		return planarBytes[uint8](meta, data, workers)
	case 2:
		return planarBytes[uint16](meta, data, workers)
	case 4:
		return planarBytes[uint32](meta, data, workers)
	default:
		return nil, fmt.Errorf("%w: element %s", errs.ErrUnsupportedFormat, meta.Element)
	}
}

// InterleavedBytes is the inverse of PlanarBytes.
func InterleavedBytes(meta Meta, data []byte, workers int) ([]byte, error) {
	if meta.IsBlockCompressed() {
		return nil, fmt.Errorf("%w: %s has no channel planes", errs.ErrUnsupportedFormat, meta.Format)
	}

	switch meta.Element.Size() {
	case 1:
		return interleavedBytes[uint8](meta, data, workers)
	case 2:
		return interleavedBytes[uint16](meta, data, workers)
	case 4:
		return interleavedBytes[uint32](meta, data, workers)
	default:
		return nil, fmt.Errorf("%w: element %s", errs.ErrUnsupportedFormat, meta.Element)
	}
}

func planarBytes[T Element](meta Meta, data []byte, workers int) ([]byte, error) {
	buf := &Buffer[T]{}
	if err := buf.Assign(meta, data); err != nil {
		return nil, err
	}
	planes, err := buf.Planes(workers)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(data))
	for _, p := range planes {
		out = append(out, (&Buffer[T]{Data: p}).Bytes()...)
	}

	return out, nil
}

func interleavedBytes[T Element](meta Meta, data []byte, workers int) ([]byte, error) {
	// The planes are the z slices of a single-channel stack.
	stack := &Buffer[T]{}
	stackMeta := MetaForElement(D(meta.Dims.Count(), 1, meta.Channels, 1), 1, meta.Element)
	if err := stack.Assign(stackMeta, data); err != nil {
		return nil, err
	}

	planes := make([][]T, meta.Channels)
	for c := range planes {
		planes[c] = stack.Slice(c, 0)
	}
	buf, err := FromPlanes(planes, meta.Dims, workers)
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
