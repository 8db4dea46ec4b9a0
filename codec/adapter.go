// Package codec bridges grid buffers to a block-compression codec that only
// understands single 2D images.
//
// The Adapter walks every (z, t) slice of its input and hands them to a
// SliceCodec one at a time, since the codec has no notion of depth or time.
// Callers size their output storage up front with EncodedSize, DecodedSize
// or SliceDecodedSize; the adapter never grows caller buffers.
//
// An Adapter runs one operation at a time. A Compress or Decompress call
// that arrives while another is in progress fails immediately with
// errs.ErrCodecBusy; it is never queued.
package codec

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/arloliu/voltex/errs"
	"github.com/arloliu/voltex/format"
	"github.com/arloliu/voltex/grid"
	"github.com/arloliu/voltex/internal/logging"
	"github.com/arloliu/voltex/internal/options"
	"github.com/arloliu/voltex/internal/pool"
)

// DefaultQuality is used when Settings.Quality is zero.
const DefaultQuality float32 = 0.5

// Settings selects the target format and encoder effort for one call.
type Settings struct {
	// Format is the block-compressed target format.
	Format format.PixelFormat
	// Quality in [0, 1]; 0 means the adapter default.
	Quality float32
	// Weights optionally weights the per-channel error, RGBA order.
	Weights *[4]float32
}

// SliceCodec is the external block-compression capability. It encodes and
// decodes exactly one 2D image per call.
type SliceCodec interface {
	// Encode compresses img into the blocks of s.Format.
	Encode(s Settings, img Image) ([]byte, error)
	// Decode expands the blocks in src into a width x height image.
	Decode(pf format.PixelFormat, width, height int, src []byte) (Image, error)
}

// Initializer is implemented by codecs that need one-time setup before the
// first call.
type Initializer interface {
	Init() error
}

// Adapter dispatches grid-sized work to a SliceCodec slice by slice.
type Adapter struct {
	codec   SliceCodec
	quality float32
	setup   func() error

	busy    atomic.Bool
	once    sync.Once
	initErr error
}

// AdapterOption configures an Adapter.
type AdapterOption = options.Option[*Adapter]

// WithQuality sets the quality used when Settings.Quality is zero.
func WithQuality(q float32) AdapterOption {
	return options.New(func(a *Adapter) error {
		if q < 0 || q > 1 {
			return fmt.Errorf("quality %v out of range [0, 1]", q)
		}
		a.quality = q

		return nil
	})
}

// WithSetup registers fn to run once, before the first compress or
// decompress call on the adapter.
func WithSetup(fn func() error) AdapterOption {
	return options.NoError(func(a *Adapter) {
		a.setup = fn
	})
}

// NewAdapter creates an adapter around c.
func NewAdapter(c SliceCodec, opts ...AdapterOption) (*Adapter, error) {
	if c == nil {
		return nil, errs.ErrNoCodec
	}

	a := &Adapter{codec: c, quality: DefaultQuality}
	if err := options.Apply(a, opts...); err != nil {
		return nil, err
	}

	return a, nil
}

// Busy reports whether an operation is in progress.
func (a *Adapter) Busy() bool {
	return a.busy.Load()
}

func (a *Adapter) acquire() error {
	if !a.busy.CompareAndSwap(false, true) {
		return errs.ErrCodecBusy
	}

	return nil
}

func (a *Adapter) release() {
	a.busy.Store(false)
}

func (a *Adapter) init() error {
	a.once.Do(func() {
		if in, ok := a.codec.(Initializer); ok {
			if err := in.Init(); err != nil {
				a.initErr = fmt.Errorf("codec init: %w", err)
				return
			}
		}
		if a.setup != nil {
			if err := a.setup(); err != nil {
				a.initErr = fmt.Errorf("codec setup: %w", err)
			}
		}
	})

	return a.initErr
}

// EncodedSize returns the number of bytes Compress writes for in.
func (a *Adapter) EncodedSize(s Settings, in Descriptor) (int, error) {
	if !s.Format.IsBlockCompressed() {
		return 0, fmt.Errorf("%w: %s is not a block format", errs.ErrUnsupportedFormat, s.Format)
	}
	if !in.Dims.Valid() {
		return 0, fmt.Errorf("%w: %s", errs.ErrInvalidDims, in.Dims)
	}

	return grid.CompressedMeta(in.Dims, in.Channels, s.Format).ByteLayout().ByteSize(), nil
}

// DecodedSize returns the number of bytes Decompress writes for in when
// decoding to float32 cells with in.Channels channels.
func (a *Adapter) DecodedSize(in Descriptor) int {
	return in.Dims.Count() * in.Channels * format.ElementF32.Size()
}

// SliceDecodedSize is DecodedSize for a single slice.
func (a *Adapter) SliceDecodedSize(in Descriptor) int {
	return in.Dims.PlaneCount() * in.Channels * format.ElementF32.Size()
}

// Compress encodes every (z, t) slice of in into out.Data.
//
// out.Data must hold at least EncodedSize bytes; shorter buffers are
// rejected before anything is written. The first slice that fails to encode
// aborts the call, and the contents of out.Data are then undefined.
func (a *Adapter) Compress(s Settings, in, out Descriptor) error {
	if err := a.acquire(); err != nil {
		return err
	}
	defer a.release()

	if err := a.init(); err != nil {
		return err
	}
	if in.IsBlockCompressed() {
		return fmt.Errorf("%w: input is already %s", errs.ErrUnsupportedFormat, in.Format)
	}
	if in.Channels < 1 || in.Channels > 4 {
		return fmt.Errorf("%w: %d", errs.ErrInvalidChannels, in.Channels)
	}
	need, err := a.EncodedSize(s, in)
	if err != nil {
		return err
	}
	if len(out.Data) < need {
		return fmt.Errorf("%w: have %d bytes, need %d", errs.ErrBufferTooSmall, len(out.Data), need)
	}
	if len(in.Data) < in.Meta().ByteLayout().ByteSize() {
		return fmt.Errorf("%w: input holds %d bytes", errs.ErrSizeMismatch, len(in.Data))
	}
	if s.Quality == 0 {
		s.Quality = a.quality
	}

	w, h := in.Dims.X, in.Dims.Y
	pix, cleanup := pool.GetFloat32Slice(w * h * 4)
	defer cleanup()
	img := Image{Width: w, Height: h, Pix: pix}

	blockLayout := grid.CompressedMeta(in.Dims, in.Channels, s.Format).ByteLayout()
	sliceOut := blockLayout.SliceByteSize()
	log := logging.L()

	for i := range in.Slices() {
		z, t := in.Dims.SliceCoords(i)
		src, err := in.Slice(i)
		if err != nil {
			return err
		}
		if err := fillImage(img, src.Data, in.Channels, in.Element); err != nil {
			return err
		}

		blocks, err := a.codec.Encode(s, img)
		if err != nil {
			return fmt.Errorf("%w: slice z=%d t=%d: %w", errs.ErrSliceEncode, z, t, err)
		}
		if len(blocks) != sliceOut {
			return fmt.Errorf("%w: slice z=%d t=%d produced %d bytes, want %d",
				errs.ErrSliceEncode, z, t, len(blocks), sliceOut)
		}

		begin, _ := blockLayout.SliceRange(i)
		copy(out.Data[begin:], blocks)
		log.Debug("codec: encoded slice", "z", z, "t", t, "format", s.Format.String(), "bytes", len(blocks))
	}

	return nil
}

// Decompress decodes every slice of in into out.Data.
//
// out.Channels and out.Element select the output cells; zero values mean
// in.Channels and float32. out.Data must be large enough for the whole grid.
func (a *Adapter) Decompress(in, out Descriptor) error {
	if err := a.acquire(); err != nil {
		return err
	}
	defer a.release()

	ch, elem, err := a.prepareDecode(in, out)
	if err != nil {
		return err
	}
	sliceBytes := in.Dims.PlaneCount() * ch * elem.Size()
	if need := sliceBytes * in.Slices(); len(out.Data) < need {
		return fmt.Errorf("%w: have %d bytes, need %d", errs.ErrBufferTooSmall, len(out.Data), need)
	}

	for i := range in.Slices() {
		if err := a.decodeSlice(in, i, out.Data[i*sliceBytes:(i+1)*sliceBytes], ch, elem); err != nil {
			return err
		}
	}

	return nil
}

// DecompressSlice decodes slice i of in into out.Data, which only needs to
// hold one slice. It lets callers stream a volume without materializing it.
func (a *Adapter) DecompressSlice(in, out Descriptor, i int) error {
	if err := a.acquire(); err != nil {
		return err
	}
	defer a.release()

	ch, elem, err := a.prepareDecode(in, out)
	if err != nil {
		return err
	}
	if i < 0 || i >= in.Slices() {
		return fmt.Errorf("%w: slice %d of %d", errs.ErrInvalidRange, i, in.Slices())
	}
	sliceBytes := in.Dims.PlaneCount() * ch * elem.Size()
	if len(out.Data) < sliceBytes {
		return fmt.Errorf("%w: have %d bytes, need %d", errs.ErrBufferTooSmall, len(out.Data), sliceBytes)
	}

	return a.decodeSlice(in, i, out.Data[:sliceBytes], ch, elem)
}

func (a *Adapter) prepareDecode(in, out Descriptor) (int, format.ElementType, error) {
	if err := a.init(); err != nil {
		return 0, 0, err
	}
	if !in.IsBlockCompressed() {
		return 0, 0, fmt.Errorf("%w: input format %s", errs.ErrNotCompressed, in.Format)
	}
	if len(in.Data) < in.Meta().ByteLayout().ByteSize() {
		return 0, 0, fmt.Errorf("%w: input holds %d bytes", errs.ErrSizeMismatch, len(in.Data))
	}

	ch := out.Channels
	if ch == 0 {
		ch = in.Channels
	}
	if ch < 1 || ch > 4 {
		return 0, 0, fmt.Errorf("%w: %d", errs.ErrInvalidChannels, ch)
	}
	elem := out.Element
	if elem == format.ElementUnknown {
		elem = format.ElementF32
	}
	if elem != format.ElementF32 && elem != format.ElementF16 {
		return 0, 0, fmt.Errorf("%w: decode output must be float, got %s", errs.ErrUnsupportedFormat, elem)
	}

	return ch, elem, nil
}

func (a *Adapter) decodeSlice(in Descriptor, i int, dst []byte, ch int, elem format.ElementType) error {
	z, t := in.Dims.SliceCoords(i)
	src, err := in.Slice(i)
	if err != nil {
		return err
	}

	img, err := a.codec.Decode(in.Format, in.Dims.X, in.Dims.Y, src.Data)
	if err != nil {
		return fmt.Errorf("%w: slice z=%d t=%d: %w", errs.ErrSliceDecode, z, t, err)
	}
	if err := drainImage(dst, img, ch, elem); err != nil {
		return err
	}
	logging.L().Debug("codec: decoded slice", "z", z, "t", t, "format", in.Format.String())

	return nil
}
