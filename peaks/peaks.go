// Package peaks extracts min/max statistics from grid buffers and maps
// values to and from the unit interval with them.
//
// A Table is external state: it is produced from a source buffer and must be
// kept next to the normalized buffer for the normalization to be reversible.
package peaks

import (
	"fmt"
	"math"

	"github.com/arloliu/voltex/errs"
	"github.com/arloliu/voltex/format"
	"github.com/arloliu/voltex/grid"
	"github.com/x448/float16"
)

// Mode selects where a Table's (min, max) pairs come from.
type Mode uint8

const (
	// PerSlice keeps one pair per (z, t) slice, pooled over all channels.
	PerSlice Mode = iota + 1
	// PerComponent keeps one pair per channel per slice.
	PerComponent
	// Volume keeps one pair per channel for the whole grid.
	Volume
)

func (m Mode) String() string {
	switch m {
	case PerSlice:
		return "slice"
	case PerComponent:
		return "component"
	case Volume:
		return "volume"
	default:
		return "Unknown"
	}
}

// ParseMode parses the names returned by Mode.String.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "slice":
		return PerSlice, nil
	case "component":
		return PerComponent, nil
	case "volume":
		return Volume, nil
	default:
		return 0, fmt.Errorf("unknown normalization mode %q", s)
	}
}

// Peak is one (min, max) pair.
type Peak struct {
	Min float32
	Max float32
}

// Table is an ordered sequence of (min, max) pairs stored flat in Values.
//
// Entry order follows the traversal order of the source grid: t outer, then
// z, then channel. For PerSlice tables entry i belongs to slice i, for
// PerComponent tables entry i*Channels+c belongs to channel c of slice i,
// and Volume tables hold one entry per channel.
type Table struct {
	Mode     Mode
	Channels int
	Slices   int
	Values   []float32
}

// Len returns the number of floats in the table, two per entry.
func (t Table) Len() int {
	return len(t.Values)
}

// Entries returns the number of (min, max) pairs.
func (t Table) Entries() int {
	return len(t.Values) / 2
}

// Entry returns pair i without bounds checking beyond the slice access.
func (t Table) Entry(i int) Peak {
	return Peak{Min: t.Values[2*i], Max: t.Values[2*i+1]}
}

// Lookup returns the pair that applies to channel component of slice.
//
// It fails fast with errs.ErrPeakIndexOutOfRange instead of reading past the
// table.
func (t Table) Lookup(slice, component int) (Peak, error) {
	if slice < 0 || slice >= t.Slices || component < 0 || component >= t.Channels {
		return Peak{}, fmt.Errorf("%w: slice %d component %d in %s table of %d slices x %d channels",
			errs.ErrPeakIndexOutOfRange, slice, component, t.Mode, t.Slices, t.Channels)
	}

	var i int
	switch t.Mode {
	case PerSlice:
		i = slice
	case PerComponent:
		i = slice*t.Channels + component
	case Volume:
		i = component
	default:
		return Peak{}, fmt.Errorf("%w: table mode %d", errs.ErrPeakIndexOutOfRange, t.Mode)
	}
	if 2*i+1 >= len(t.Values) {
		return Peak{}, fmt.Errorf("%w: entry %d of %d", errs.ErrPeakIndexOutOfRange, i, t.Entries())
	}

	return t.Entry(i), nil
}

// FindPeaks scans buf and produces one (min, max) pair per (z, t) slice with
// all channels pooled together.
func FindPeaks[T grid.Element](buf *grid.Buffer[T]) (Table, error) {
	return scan(buf, PerSlice)
}

// FindPeaksPerComponent scans buf and keeps one (min, max) pair per channel
// per slice. The table holds t*z*channels*2 floats.
func FindPeaksPerComponent[T grid.Element](buf *grid.Buffer[T]) (Table, error) {
	return scan(buf, PerComponent)
}

// Extract builds a table of the requested mode from buf.
func Extract[T grid.Element](buf *grid.Buffer[T], mode Mode) (Table, error) {
	switch mode {
	case PerSlice, PerComponent:
		return scan(buf, mode)
	case Volume:
		perComponent, err := scan(buf, PerComponent)
		if err != nil {
			return Table{}, err
		}

		return VolumePeaks(perComponent)
	default:
		return Table{}, fmt.Errorf("unknown normalization mode %d", mode)
	}
}

// VolumePeaks folds a PerComponent table into one (min, max) pair per
// channel across every slice.
//
// Every entry of the source table takes part in the fold, whatever the
// channel count.
func VolumePeaks(perComponent Table) (Table, error) {
	if perComponent.Mode != PerComponent {
		return Table{}, fmt.Errorf("volume peaks need a %s table, got %s", PerComponent, perComponent.Mode)
	}
	ch := perComponent.Channels
	if ch < 1 || perComponent.Entries() != perComponent.Slices*ch {
		return Table{}, fmt.Errorf("%w: %d entries for %d slices x %d channels",
			errs.ErrPeakIndexOutOfRange, perComponent.Entries(), perComponent.Slices, ch)
	}

	out := Table{
		Mode:     Volume,
		Channels: ch,
		Slices:   perComponent.Slices,
		Values:   make([]float32, 2*ch),
	}
	if perComponent.Slices == 0 {
		return out, nil
	}

	for c := range ch {
		p := perComponent.Entry(c)
		for s := 1; s < perComponent.Slices; s++ {
			q := perComponent.Entry(s*ch + c)
			p.Min = min(p.Min, q.Min)
			p.Max = max(p.Max, q.Max)
		}
		out.Values[2*c] = p.Min
		out.Values[2*c+1] = p.Max
	}

	return out, nil
}

func scan[T grid.Element](buf *grid.Buffer[T], mode Mode) (Table, error) {
	if buf.IsBlockCompressed() {
		return Table{}, fmt.Errorf("%w: peaks need uncompressed data", errs.ErrUnsupportedFormat)
	}
	if err := buf.Validate(); err != nil {
		return Table{}, err
	}

	value := valueOf[T](buf.Element)
	ch := buf.Channels
	slices := buf.Dims.Slices()
	plane := buf.Dims.PlaneCount()

	groups := 1
	if mode == PerComponent {
		groups = ch
	}
	table := Table{
		Mode:     mode,
		Channels: ch,
		Slices:   slices,
		Values:   make([]float32, 0, 2*slices*groups),
	}

	lo := make([]float32, groups)
	hi := make([]float32, groups)
	for t := range buf.Dims.T {
		for z := range buf.Dims.Z {
			for g := range groups {
				lo[g] = float32(math.Inf(1))
				hi[g] = float32(math.Inf(-1))
			}

			data := buf.Slice(z, t)
			for p := range plane {
				cell := data[p*ch : p*ch+ch]
				for c, raw := range cell {
					v := value(raw)
					g := 0
					if groups > 1 {
						g = c
					}
					if v < lo[g] {
						lo[g] = v
					}
					if v > hi[g] {
						hi[g] = v
					}
				}
			}

			for g := range groups {
				// Empty or all-NaN slices are flat zero.
				if lo[g] > hi[g] {
					lo[g], hi[g] = 0, 0
				}
				table.Values = append(table.Values, lo[g], hi[g])
			}
		}
	}

	return table, nil
}

func valueOf[T grid.Element](elem format.ElementType) func(T) float32 {
	if elem == format.ElementF16 {
		return func(v T) float32 {
			return float16.Frombits(uint16(v)).Float32()
		}
	}

	return func(v T) float32 {
		return float32(v)
	}
}
