// Package loader defines the contract between dataset readers and the
// voltex pipeline, and ships readers for image stacks and raw files.
//
// A Loader returns the element payload, its channel count and a shape of up
// to four extents (x, y, z, t). Missing trailing extents default to 1.
package loader

import (
	"fmt"

	"github.com/arloliu/voltex/errs"
	"github.com/arloliu/voltex/format"
	"github.com/arloliu/voltex/grid"
)

// Result is the output of a Loader. Data holds interleaved elements in host
// byte order.
type Result struct {
	Data     []byte
	Element  format.ElementType
	Channels int
	Shape    []int
}

// Loader reads one dataset.
type Loader interface {
	Load() (Result, error)
}

// Dims returns the grid extents described by Shape.
func (r Result) Dims() (grid.Dims, error) {
	return grid.DimsFromShape(r.Shape)
}

// Meta returns the grid metadata of the result.
func (r Result) Meta() (grid.Meta, error) {
	dims, err := r.Dims()
	if err != nil {
		return grid.Meta{}, err
	}
	meta := grid.MetaForElement(dims, r.Channels, r.Element)
	if meta.Format == format.Undefined {
		return grid.Meta{}, fmt.Errorf("%w: %d x %s", errs.ErrUnsupportedFormat, r.Channels, r.Element)
	}

	return meta, nil
}

// ToBuffer copies r into a new grid buffer. T must match the element size.
func ToBuffer[T grid.Element](r Result) (*grid.Buffer[T], error) {
	meta, err := r.Meta()
	if err != nil {
		return nil, err
	}

	buf := &grid.Buffer[T]{}
	if err := buf.Assign(meta, r.Data); err != nil {
		return nil, err
	}

	return buf, nil
}
