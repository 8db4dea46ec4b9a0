package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"

	"github.com/x448/float16"

	"github.com/arloliu/voltex"
	"github.com/arloliu/voltex/container"
	"github.com/arloliu/voltex/endian"
	"github.com/arloliu/voltex/format"
	"github.com/arloliu/voltex/grid"
	"github.com/arloliu/voltex/loader"
	"github.com/arloliu/voltex/peaks"
	"github.com/arloliu/voltex/rawfile"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "info":
		err = infoCmd(os.Args[2:])
	case "pack":
		err = packCmd(os.Args[2:])
	case "unpack":
		err = unpackCmd(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "voltex:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage:")
	fmt.Fprintln(os.Stderr, "  voltex info <file.ktx2>...")
	fmt.Fprintln(os.Stderr, "  voltex pack (-in <file.raw> -elem u8|u16|u32|f16|f32 [-planar] | -images <glob>) -out <file.ktx2> [-normalize slice|component|volume] [-bc6h] [-signed] [-quality q] [-array] [-split] [-compress none|zstd|s2|lz4] [-v]")
	fmt.Fprintln(os.Stderr, "  voltex unpack -in <file.ktx2> -out <file.raw> [-split] [-planar] [-v]")
}

func setVerbose(v bool) {
	if v {
		voltex.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}
}

func infoCmd(args []string) error {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	_ = fs.Parse(args)
	if fs.NArg() == 0 {
		return fmt.Errorf("missing container path")
	}

	for _, path := range fs.Args() {
		info, err := container.ReadInfo(path)
		if err != nil {
			return err
		}

		h := info.Header
		layout := "volume"
		if info.Array() {
			layout = "array"
		}
		fmt.Printf("%s\n", path)
		fmt.Printf("  format:      %s (%d)\n", h.Format, uint32(h.Format))
		fmt.Printf("  header:      %dx%d depth=%d layers=%d (%s)\n", h.Width, h.Height, h.Depth, h.Layers, layout)
		fmt.Printf("  dims:        %s (from %s)\n", info.Dims, dimsSource(info))
		fmt.Printf("  channels:    %d\n", info.Channels)
		fmt.Printf("  compression: %s, %d -> %d bytes\n", info.Compression, h.Level.UncompressedLength, h.Level.Length)
		if info.SeriesCount > 0 {
			fmt.Printf("  series:      %d of %d\n", info.SeriesIndex+1, info.SeriesCount)
		}
		if info.HasChecksum {
			fmt.Printf("  checksum:    %016x\n", info.Checksum)
		}
		if info.Peaks != nil {
			fmt.Printf("  peaks:       %s, %d pairs\n", info.Peaks.Mode, info.Peaks.Entries())
		}
		if info.Writer != "" {
			fmt.Printf("  writer:      %s\n", info.Writer)
		}
	}

	return nil
}

func dimsSource(info container.Info) string {
	if info.HasDimensions {
		return container.KeyDimensions
	}

	return "header"
}

func packCmd(args []string) error {
	fs := flag.NewFlagSet("pack", flag.ExitOnError)
	var (
		inPath    string
		elemName  string
		images    string
		outPath   string
		normalize string
		bc6h      bool
		signed    bool
		quality   float64
		array     bool
		split     bool
		planar    bool
		compress  string
		verbose   bool
	)
	fs.StringVar(&inPath, "in", "", "input raw file (with its _dims sibling)")
	fs.StringVar(&elemName, "elem", "f32", "raw element type: u8|u16|u32|f16|f32")
	fs.BoolVar(&planar, "planar", false, "raw input stores one plane per channel")
	fs.StringVar(&images, "images", "", "glob of 2D images loaded as z slices")
	fs.StringVar(&outPath, "out", "", "output container path")
	fs.StringVar(&normalize, "normalize", "", "peak normalization: slice|component|volume")
	fs.BoolVar(&bc6h, "bc6h", false, "compress slices with BC6H")
	fs.BoolVar(&signed, "signed", false, "use signed BC6H")
	fs.Float64Var(&quality, "quality", 0, "BC6H quality in [0, 1] (0 = default)")
	fs.BoolVar(&array, "array", false, "store slices as array layers")
	fs.BoolVar(&split, "split", false, "write one file per time step")
	fs.StringVar(&compress, "compress", "none", "payload supercompression: none|zstd|s2|lz4")
	fs.BoolVar(&verbose, "v", false, "log pipeline steps to stderr")
	_ = fs.Parse(args)
	setVerbose(verbose)

	if outPath == "" {
		return fmt.Errorf("missing -out")
	}
	ct, err := parseCompression(compress)
	if err != nil {
		return err
	}

	var l loader.Loader
	switch {
	case images != "":
		stack, err := loader.Glob(images)
		if err != nil {
			return err
		}
		l = stack
	case inPath != "":
		elem, err := format.ParseElementType(elemName)
		if err != nil {
			return err
		}
		l = loader.Raw{Path: inPath, Element: elem, Planar: planar}
	default:
		return fmt.Errorf("missing -in or -images")
	}

	res, err := l.Load()
	if err != nil {
		return err
	}

	saveOpts := []container.SaveOption{
		container.WithArray(array),
		container.WithMonolithic(!split),
		container.WithCompression(ct),
	}

	if normalize == "" && !bc6h {
		meta, err := res.Meta()
		if err != nil {
			return err
		}
		paths, err := container.Save(rawView{meta: meta, data: res.Data}, outPath, saveOpts...)
		if err != nil {
			return err
		}
		printPaths(paths)

		return nil
	}

	buf, err := toFloat32(res)
	if err != nil {
		return err
	}

	opts := []voltex.Option{voltex.WithSaveOptions(saveOpts...)}
	if normalize != "" {
		mode, err := peaks.ParseMode(normalize)
		if err != nil {
			return err
		}
		opts = append(opts, voltex.WithNormalization(mode))
	}
	if bc6h {
		opts = append(opts, voltex.WithBC6H(signed), voltex.WithQuality(float32(quality)))
	}

	out, err := voltex.Process(buf, outPath, opts...)
	if err != nil {
		return err
	}
	printPaths(out.Paths)

	return nil
}

func unpackCmd(args []string) error {
	fs := flag.NewFlagSet("unpack", flag.ExitOnError)
	var (
		inPath  string
		outPath string
		split   bool
		planar  bool
		verbose bool
	)
	fs.StringVar(&inPath, "in", "", "input container path (or base path of a split series)")
	fs.StringVar(&outPath, "out", "", "output raw file path")
	fs.BoolVar(&split, "split", false, "write one raw file per time step")
	fs.BoolVar(&planar, "planar", false, "write one plane per channel")
	fs.BoolVar(&verbose, "v", false, "log pipeline steps to stderr")
	_ = fs.Parse(args)
	setVerbose(verbose)

	if inPath == "" || outPath == "" {
		return fmt.Errorf("missing -in or -out")
	}

	buf, err := voltex.Restore(inPath)
	if err != nil {
		return err
	}
	paths, err := rawfile.Save(buf, outPath, rawfile.WithMonolithic(!split), rawfile.WithPlanar(planar))
	if err != nil {
		return err
	}
	printPaths(paths)

	return nil
}

func printPaths(paths []string) {
	for _, p := range paths {
		fmt.Println(p)
	}
}

func parseCompression(s string) (format.CompressionType, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return format.CompressionNone, nil
	case "zstd":
		return format.CompressionZstd, nil
	case "s2":
		return format.CompressionS2, nil
	case "lz4":
		return format.CompressionLZ4, nil
	default:
		return 0, fmt.Errorf("unknown compression %q", s)
	}
}

type rawView struct {
	meta grid.Meta
	data []byte
}

func (v rawView) Metadata() grid.Meta { return v.meta }
func (v rawView) Bytes() []byte       { return v.data }

// toFloat32 widens a loader result to float32 without rescaling; the peak
// normalizer takes care of the value range.
func toFloat32(res loader.Result) (*grid.Buffer[float32], error) {
	dims, err := res.Dims()
	if err != nil {
		return nil, err
	}
	buf, err := grid.New[float32](dims, res.Channels)
	if err != nil {
		return nil, err
	}

	native := endian.GetNativeEngine()
	size := res.Element.Size()
	if len(res.Data) != len(buf.Data)*size {
		return nil, fmt.Errorf("loader returned %d bytes for %s x %d %s", len(res.Data), dims, res.Channels, res.Element)
	}

	for i := range buf.Data {
		b := res.Data[i*size:]
		switch res.Element {
		case format.ElementU8:
			buf.Data[i] = float32(b[0])
		case format.ElementU16:
			buf.Data[i] = float32(native.Uint16(b))
		case format.ElementU32:
			buf.Data[i] = float32(native.Uint32(b))
		case format.ElementF16:
			buf.Data[i] = float16.Frombits(native.Uint16(b)).Float32()
		case format.ElementF32:
			buf.Data[i] = math.Float32frombits(native.Uint32(b))
		default:
			return nil, fmt.Errorf("unsupported element %s", res.Element)
		}
	}

	return buf, nil
}
