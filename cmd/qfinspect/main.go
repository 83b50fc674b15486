// Command qfinspect loads a PNM, PNG, JPEG, or WebP raster, builds a quad
// forest over it, runs one of the four segmenters (or a binarizer), and
// writes back a rendered PNM/PNG/JPEG plus a text summary of the resulting
// segments and boundaries.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/quadforest/quadforest/internal/annotation"
	"github.com/quadforest/quadforest/internal/encode"
	"github.com/quadforest/quadforest/internal/forest"
	"github.com/quadforest/quadforest/internal/integral"
	"github.com/quadforest/quadforest/internal/pixel"
	"github.com/quadforest/quadforest/internal/pnm"
	"github.com/quadforest/quadforest/internal/segment"
)

func main() {
	var (
		method        string
		treeMax       int
		treeMin       int
		tau           float64
		alpha         float64
		tauTree       float64
		tauSeg        float64
		rounds        int
		bias          float64
		lowFactor     float64
		alphaTree     float64
		alphaSeg      float64
		hysteresis    bool
		pruning       bool
		direction     string
		useRegions    bool
		useColors     bool
		outFormat     string
		jpegQuality   int
		inFormat      string
		showVersion   bool
		binRadius     int
		binK          float64
		binR          float64
		binMultiplier float64
	)

	flag.StringVar(&method, "method", "deviation", "Segmenter: deviation, overlap, edges, boundaries; or binarize-sauvola, binarize-feng")
	flag.IntVar(&treeMax, "tree-max-size", 32, "Root tree side length (power of two)")
	flag.IntVar(&treeMin, "tree-min-size", 4, "Subdivision floor (power of two)")
	flag.Float64Var(&tau, "tau", 12, "Deviation/overlap divide threshold")
	flag.Float64Var(&alpha, "alpha", 1.5, "Merge tolerance multiplier")
	flag.Float64Var(&tauTree, "tau-tree", 0.5, "Overlap: tree-level merge threshold")
	flag.Float64Var(&tauSeg, "tau-seg", 0.5, "Overlap: segment-level merge threshold")
	flag.IntVar(&rounds, "rounds", 4, "Propagation rounds for edges/boundaries")
	flag.Float64Var(&bias, "bias", 40, "Edge declaration bias (high threshold for boundaries)")
	flag.Float64Var(&lowFactor, "low-factor", 0.5, "Boundaries: low/high hysteresis ratio")
	flag.Float64Var(&alphaTree, "alpha-tree", 1.0, "Boundaries: tree merge tolerance")
	flag.Float64Var(&alphaSeg, "alpha-seg", 1.0, "Boundaries: segment merge tolerance")
	flag.BoolVar(&hysteresis, "hysteresis", true, "Boundaries: use two-threshold hysteresis")
	flag.BoolVar(&pruning, "pruning", true, "Boundaries: prune isolated boundary leaves")
	flag.StringVar(&direction, "dir", "m", "Edges: propagation direction: h, v, m")
	flag.BoolVar(&useRegions, "use-regions", true, "Render each leaf with its segment's mean")
	flag.BoolVar(&useColors, "use-colors", true, "Render each leaf with its segment's assigned color")
	flag.StringVar(&outFormat, "out-format", "P6", "Output format: P5, P6 (PNM variants), png, or jpeg")
	flag.IntVar(&jpegQuality, "jpeg-quality", 85, "JPEG output quality, 1-100")
	flag.IntVar(&binRadius, "bin-radius", 8, "Binarize: neighborhood radius r (Sauvola) or r1 (Feng)")
	flag.Float64Var(&binK, "bin-k", 0.34, "Sauvola: k parameter")
	flag.Float64Var(&binR, "bin-R", 0, "Sauvola: R parameter; <= 0 derives it from the whole image's deviation")
	flag.Float64Var(&binMultiplier, "bin-multiplier", 2.0, "Feng: r2 = multiplier * bin-radius")
	flag.StringVar(&inFormat, "in-format", "", "Input format: pnm (default, inferred from extension), png, jpeg, webp")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: qfinspect [flags] <input.pnm> <output.pnm>\n\n")
		fmt.Fprintf(os.Stderr, "Segment a PNM raster with the quad forest and write the rendered result.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if showVersion {
		fmt.Println("qfinspect (quadforest)")
		os.Exit(0)
	}
	if flag.NArg() < 2 {
		flag.Usage()
		os.Exit(1)
	}
	inPath, outPath := flag.Arg(0), flag.Arg(1)

	format := inFormat
	if format == "" {
		format = formatFromExtension(inPath)
	}
	src, err := readSource(inPath, format)
	if err != nil {
		log.Fatalf("reading %s: %v", inPath, err)
	}

	if method == "binarize-sauvola" || method == "binarize-feng" {
		if err := binarize(src, method, binRadius, binK, binR, binMultiplier, outPath, outFormat, jpegQuality); err != nil {
			log.Fatalf("%s: %v", method, err)
		}
		return
	}

	cfg := forest.Config{TreeMaxSize: treeMax, TreeMinSize: treeMin}
	f, err := forest.Create(src, cfg)
	if err != nil {
		log.Fatalf("building forest: %v", err)
	}

	switch method {
	case "deviation":
		err = segment.WithDeviation(f, tau, alpha)
	case "overlap":
		err = segment.WithOverlap(f, alpha, tauTree, tauSeg)
	case "edges":
		err = segment.Edges(f, rounds, bias, parseDirection(direction))
	case "boundaries":
		err = segment.WithBoundaries(f, rounds, bias, lowFactor, alphaTree, alphaSeg, hysteresis, pruning)
	default:
		log.Fatalf("unknown method %q (want deviation, overlap, edges, or boundaries)", method)
	}
	if err != nil {
		log.Fatalf("%s: %v", method, err)
	}

	segs := f.GetSegments()
	bounds := f.GetBoundaries()
	log.Printf("segments=%d boundaries=%d", len(segs), len(bounds))

	target, err := pixel.Create[uint8](pixel.U8, pixel.FormatRGB, src.Width(), src.Height(), 3, 0)
	if err != nil {
		log.Fatalf("allocating output: %v", err)
	}
	if err := f.DrawImage(target, useRegions, useColors); err != nil {
		log.Fatalf("rendering: %v", err)
	}

	if err := writeImage(outPath, target, outFormat, jpegQuality); err != nil {
		log.Fatalf("writing %s: %v", outPath, err)
	}

	for _, s := range segs {
		fmt.Printf("segment %d: bbox=(%d,%d)-(%d,%d) mean=%.2f color=%v\n",
			s.ID, s.X1, s.Y1, s.X2, s.Y2, s.Stat.Mean, s.Color)
	}
	for _, b := range bounds {
		fmt.Printf("boundary: length=%d category=%s curvature=%.3f\n",
			b.Length, b.Category(), b.CurvatureMean())
	}
}

func parseDirection(s string) annotation.Direction {
	switch s {
	case "h":
		return annotation.DirHorizontal
	case "v":
		return annotation.DirVertical
	default:
		return annotation.DirN4
	}
}

func formatFromExtension(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "png"
	case ".jpg", ".jpeg":
		return "jpeg"
	case ".webp":
		return "webp"
	default:
		return "pnm"
	}
}

func readSource(path, format string) (*pixel.Image[uint8], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if format == "pnm" {
		return pnm.Read(bufio.NewReader(f))
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	img, err := encode.DecodeImage(data, format)
	if err != nil {
		return nil, err
	}
	return encode.ToPixelImage(img)
}

// binarize runs Sauvola or Feng adaptive thresholding over src and writes
// the resulting bitmap (one channel, 0 or 255) as the requested format.
func binarize(src *pixel.Image[uint8], method string, r int, k, R, multiplier float64, outPath, outFormat string, jpegQuality int) error {
	if src.Step() != 1 {
		return fmt.Errorf("binarize requires a single-channel source (step=%d)", src.Step())
	}
	ii, err := integral.Create(src.Width(), src.Height())
	if err != nil {
		return err
	}
	if err := ii.Update(src); err != nil {
		return err
	}
	var out *pixel.Image[uint8]
	if method == "binarize-sauvola" {
		out, err = integral.Sauvola(ii, src, r, k, R)
	} else {
		out, err = integral.Feng(ii, src, r, multiplier)
	}
	if err != nil {
		return err
	}
	log.Printf("binarized %dx%d with %s", out.Width(), out.Height(), method)
	return writeImage(outPath, out, outFormat, jpegQuality)
}

// writeImage writes img to path as a PNM (variant "P5"/"P6"), or dispatches
// to an encode.Encoder for "png"/"jpeg".
func writeImage(path string, img *pixel.Image[uint8], outFormat string, jpegQuality int) error {
	switch outFormat {
	case "P5", "P6":
		variant := pnm.P6
		if outFormat == "P5" {
			variant = pnm.P5
		}
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		bw := bufio.NewWriter(f)
		if err := pnm.Write(bw, img, variant); err != nil {
			return err
		}
		return bw.Flush()
	case "png", "jpeg":
		enc, err := encode.NewEncoder(outFormat, jpegQuality)
		if err != nil {
			return err
		}
		std, err := encode.FromPixelImage(img)
		if err != nil {
			return err
		}
		data, err := enc.Encode(std)
		if err != nil {
			return err
		}
		return os.WriteFile(path, data, 0o644)
	default:
		return fmt.Errorf("unknown out-format %q (want P5, P6, png, or jpeg)", outFormat)
	}
}
