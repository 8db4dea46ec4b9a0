package loader

import (
	"github.com/arloliu/voltex/format"
	"github.com/arloliu/voltex/rawfile"
)

// Raw reads a raw data file and its "_dims" record. Planar files, written
// one channel plane after another, are interleaved on load.
type Raw struct {
	Path    string
	Element format.ElementType
	Planar  bool
}

var _ Loader = Raw{}

// Load implements Loader.
func (r Raw) Load() (Result, error) {
	meta, data, err := rawfile.Read(r.Path, r.Element, r.Planar)
	if err != nil {
		return Result{}, err
	}

	a := meta.Dims.Array()

	return Result{
		Data:     data,
		Element:  r.Element,
		Channels: meta.Channels,
		Shape:    a[:],
	}, nil
}
