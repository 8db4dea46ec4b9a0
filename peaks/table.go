package peaks

import (
	"fmt"
	"math"
	"slices"

	"github.com/arloliu/voltex/endian"
	"github.com/arloliu/voltex/errs"
)

const tableHeaderSize = 12

// Bytes serializes the table as mode, channels, slices (u32 each) followed by
// the float values, using engine byte order.
func (t Table) Bytes(engine endian.EndianEngine) []byte {
	buf := make([]byte, 0, tableHeaderSize+4*len(t.Values))
	buf = engine.AppendUint32(buf, uint32(t.Mode))
	buf = engine.AppendUint32(buf, uint32(t.Channels)) //nolint: gosec
	buf = engine.AppendUint32(buf, uint32(t.Slices))   //nolint: gosec
	for _, v := range t.Values {
		buf = engine.AppendUint32(buf, math.Float32bits(v))
	}

	return buf
}

// ParseTable is the inverse of Table.Bytes.
func ParseTable(data []byte, engine endian.EndianEngine) (Table, error) {
	if len(data) < tableHeaderSize || (len(data)-tableHeaderSize)%4 != 0 {
		return Table{}, fmt.Errorf("%w: peak table of %d bytes", errs.ErrInvalidKeyValue, len(data))
	}

	t := Table{
		Mode:     Mode(engine.Uint32(data[0:4])),
		Channels: int(engine.Uint32(data[4:8])),
		Slices:   int(engine.Uint32(data[8:12])),
	}
	n := (len(data) - tableHeaderSize) / 4
	t.Values = make([]float32, n)
	for i := range n {
		off := tableHeaderSize + 4*i
		t.Values[i] = math.Float32frombits(engine.Uint32(data[off : off+4]))
	}

	want := 2 * t.Slices
	switch t.Mode {
	case PerSlice:
	case PerComponent:
		want = 2 * t.Slices * t.Channels
	case Volume:
		want = 2 * t.Channels
	default:
		return Table{}, fmt.Errorf("%w: peak table mode %d", errs.ErrInvalidKeyValue, t.Mode)
	}
	if n != want {
		return Table{}, fmt.Errorf("%w: %s table holds %d values, want %d", errs.ErrInvalidKeyValue, t.Mode, n, want)
	}

	return t, nil
}

// perSlice returns the number of floats a table stores per slice, or 0 for
// tables whose pairs are shared by all slices.
func (t Table) perSlice() (int, error) {
	switch t.Mode {
	case PerSlice:
		return 2, nil
	case PerComponent:
		return 2 * t.Channels, nil
	case Volume:
		return 0, nil
	default:
		return 0, fmt.Errorf("%w: table mode %d", errs.ErrPeakIndexOutOfRange, t.Mode)
	}
}

// Select returns the sub-table covering the slice indices, in order.
// Volume tables keep their per-channel pairs and only take the new slice
// count.
func (t Table) Select(indices []int) (Table, error) {
	stride, err := t.perSlice()
	if err != nil {
		return Table{}, err
	}
	if stride > 0 && len(t.Values) != stride*t.Slices {
		return Table{}, fmt.Errorf("%w: %s table holds %d values for %d slices",
			errs.ErrPeakIndexOutOfRange, t.Mode, len(t.Values), t.Slices)
	}

	sub := Table{Mode: t.Mode, Channels: t.Channels, Slices: len(indices)}
	if stride == 0 {
		sub.Values = append([]float32(nil), t.Values...)
	} else {
		sub.Values = make([]float32, 0, stride*len(indices))
	}
	for _, s := range indices {
		if s < 0 || s >= t.Slices {
			return Table{}, fmt.Errorf("%w: slice %d of %d", errs.ErrPeakIndexOutOfRange, s, t.Slices)
		}
		if stride > 0 {
			sub.Values = append(sub.Values, t.Values[s*stride:(s+1)*stride]...)
		}
	}

	return sub, nil
}

// Concat joins tables that cover consecutive slice runs of one grid, such as
// the tables stored in the files of a split series. Volume tables must hold
// the same pairs.
func Concat(tables ...Table) (Table, error) {
	if len(tables) == 0 {
		return Table{}, fmt.Errorf("%w: no tables to join", errs.ErrPeakIndexOutOfRange)
	}

	first := tables[0]
	out := Table{Mode: first.Mode, Channels: first.Channels}
	if _, err := first.perSlice(); err != nil {
		return Table{}, err
	}
	if first.Mode == Volume {
		out.Values = append([]float32(nil), first.Values...)
	}

	for i, t := range tables {
		if t.Mode != first.Mode || t.Channels != first.Channels {
			return Table{}, fmt.Errorf("%w: table %d is %s x %d channels, want %s x %d",
				errs.ErrPeakIndexOutOfRange, i, t.Mode, t.Channels, first.Mode, first.Channels)
		}
		if t.Mode == Volume {
			if !slices.Equal(t.Values, first.Values) {
				return Table{}, fmt.Errorf("%w: volume table %d differs from the first", errs.ErrPeakIndexOutOfRange, i)
			}
		} else {
			out.Values = append(out.Values, t.Values...)
		}
		out.Slices += t.Slices
	}

	return out, nil
}
