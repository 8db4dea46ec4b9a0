package container

import (
	"fmt"

	"github.com/arloliu/voltex/format"
	"github.com/arloliu/voltex/grid"
	"github.com/arloliu/voltex/internal/options"
	"github.com/arloliu/voltex/peaks"
)

// SaveConfig holds the settings applied by Save.
type SaveConfig struct {
	// Array writes 2D array layers instead of a 3D volume.
	Array bool
	// Monolithic folds the time axis into one file. When false and t > 1,
	// one file is written per time step.
	Monolithic bool
	// Range restricts the saved sub-grid. The zero Range saves everything.
	Range grid.Range
	// Compression is the lossless supercompression applied to each payload.
	Compression format.CompressionType
	// Checksum stores an xxHash64 of each uncompressed payload.
	Checksum bool
	// Writer is stored under the KTXwriter key.
	Writer string
	// Peaks, when set, is stored with the payload so it can be denormalized
	// after loading.
	Peaks *peaks.Table
}

// SaveOption configures Save.
type SaveOption = options.Option[*SaveConfig]

func defaultSaveConfig() *SaveConfig {
	return &SaveConfig{
		Monolithic:  true,
		Compression: format.CompressionNone,
		Checksum:    true,
		Writer:      writerName,
	}
}

// WithArray selects array layout: every (z, t) slice becomes one layer.
func WithArray(array bool) SaveOption {
	return options.NoError(func(c *SaveConfig) {
		c.Array = array
	})
}

// WithMonolithic selects between one file and one file per time step.
func WithMonolithic(monolithic bool) SaveOption {
	return options.NoError(func(c *SaveConfig) {
		c.Monolithic = monolithic
	})
}

// WithRange saves only the sub-grid selected by r. Spans are clamped
// against the grid extents when Save runs.
func WithRange(r grid.Range) SaveOption {
	return options.NoError(func(c *SaveConfig) {
		c.Range = r
	})
}

// WithCompression sets the payload supercompression.
func WithCompression(t format.CompressionType) SaveOption {
	return options.New(func(c *SaveConfig) error {
		switch t {
		case format.CompressionNone, format.CompressionZstd, format.CompressionS2, format.CompressionLZ4:
			c.Compression = t
			return nil
		default:
			return fmt.Errorf("invalid container compression: %s", t)
		}
	})
}

// WithChecksum enables or disables the payload checksum.
func WithChecksum(enabled bool) SaveOption {
	return options.NoError(func(c *SaveConfig) {
		c.Checksum = enabled
	})
}

// WithWriter overrides the KTXwriter value.
func WithWriter(name string) SaveOption {
	return options.New(func(c *SaveConfig) error {
		if name == "" {
			return fmt.Errorf("writer name must not be empty")
		}
		c.Writer = name

		return nil
	})
}

// WithPeaks stores table alongside the payload. The table must cover every
// slice of the saved grid; each file keeps the entries of its own slices.
func WithPeaks(table peaks.Table) SaveOption {
	return options.NoError(func(c *SaveConfig) {
		c.Peaks = &table
	})
}
