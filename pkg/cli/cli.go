// Package cli implements the strand command line: load an image (or an
// existing blueprint), generate or load a peg layout, run the pathing
// algorithm and render the result.
package cli

import (
	"encoding/json"
	"flag"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/Fepozopo/strand/pkg/blueprint"
	"github.com/Fepozopo/strand/pkg/imgproc"
	"github.com/Fepozopo/strand/pkg/pather"
	"github.com/Fepozopo/strand/pkg/peg"
)

// Version is the build version, overridden at release time via
// -ldflags "-X github.com/Fepozopo/strand/pkg/cli.Version=...".
var Version = "dev"

type options struct {
	iterations    int
	pegShape      string
	pegNumber     int
	pegMargin     float64
	pegJitter     int64
	skipWithin    int
	yarnWidth     float64
	opacity       float64
	yarnColor     string
	beamWidth     int
	startRadius   uint
	stopThreshold float64
	stopCount     uint
	savePegs      string
	loadPegs      string
	resize        int
	normalize     bool
	scale         float64
	transparent   bool
	preview       bool
	verbose       bool
	quiet         bool
	version       bool
	update        bool

	input  string
	output string
}

// Run executes the strand CLI with the given arguments (excluding the
// program name) and returns the process exit code.
func Run(args []string) int {
	// Optional .env file; absence is fine.
	_ = godotenv.Load()

	opts, err := parseArgs(args)
	if err == flag.ErrHelp {
		return 0
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "strand: %v\n", err)
		return 2
	}

	if opts.version {
		fmt.Printf("strand %s\n", Version)
		return 0
	}
	if opts.update {
		if err := CheckForUpdates(); err != nil {
			fmt.Fprintf(os.Stderr, "strand: %v\n", err)
			return 1
		}
		return 0
	}

	setupLogging(opts)

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "strand: %v\n", err)
		return 1
	}
	return 0
}

func parseArgs(args []string) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("strand", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: strand [flags] <input> [output]\n\n")
		fmt.Fprintf(fs.Output(), "Generate a string art blueprint from an image, or render an existing\nblueprint json file. The output format follows the file extension:\nsvg, json, png, jpg or gif. Defaults to <input>.svg.\n\nFlags:\n")
		fs.PrintDefaults()
	}

	fs.IntVar(&opts.iterations, "iterations", 4000, "number of line segments to add")
	fs.StringVar(&opts.pegShape, "peg-shape", "circle", "peg distribution shape: circle, square, rectangle or line")
	fs.IntVar(&opts.pegNumber, "peg-number", 288, "number of pegs")
	fs.Float64Var(&opts.pegMargin, "peg-margin", 0.05, "margin between pegs and image edge [0, 1]")
	fs.Int64Var(&opts.pegJitter, "peg-jitter", 0, "random peg position jitter, in pixels")
	fs.IntVar(&opts.skipWithin, "skip-within", -1, "don't connect pegs within pixel distance (default: peg span / 8)")
	fs.Float64Var(&opts.yarnWidth, "yarn-width", 1, "yarn width, in pixels")
	fs.Float64Var(&opts.opacity, "opacity", 0.3, "yarn opacity [0, 1]")
	fs.StringVar(&opts.yarnColor, "color", "000000", "yarn color, hex rgb")
	fs.IntVar(&opts.beamWidth, "beam-width", 1, "beam search width; 1 runs the greedy algorithm")
	fs.UintVar(&opts.startRadius, "start-radius", 5, "radius around pegs used to pick the starting peg")
	fs.Float64Var(&opts.stopThreshold, "early-stop-threshold", math.NaN(), "stop once the minimum loss exceeds this for early-stop-count iterations")
	fs.UintVar(&opts.stopCount, "early-stop-count", 100, "consecutive iterations above the threshold before stopping")
	fs.StringVar(&opts.savePegs, "save-pegs", "", "write the generated pegs to a json file and exit")
	fs.StringVar(&opts.loadPegs, "load-pegs", "", "read pegs from a json file instead of generating them")
	fs.IntVar(&opts.resize, "resize", 0, "resize the working image so its longest side is at most this many pixels")
	fs.BoolVar(&opts.normalize, "normalize", envBool("STRAND_NORMALIZE"), "stretch the image contrast before pathing")
	fs.Float64Var(&opts.scale, "scale", 1, "render scale")
	fs.BoolVar(&opts.transparent, "transparent", false, "render without a background")
	fs.BoolVar(&opts.preview, "preview", envBool("STRAND_PREVIEW"), "preview the render in the terminal")
	fs.BoolVar(&opts.verbose, "verbose", envBool("STRAND_DEBUG"), "debug logging")
	fs.BoolVar(&opts.quiet, "quiet", false, "no logging or progress output")
	fs.BoolVar(&opts.version, "version", false, "print the version and exit")
	fs.BoolVar(&opts.update, "update", false, "check for a newer release and self-update")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if opts.version || opts.update {
		return opts, nil
	}

	rest := fs.Args()
	if len(rest) < 1 {
		fs.Usage()
		return nil, fmt.Errorf("missing input file")
	}
	if len(rest) > 2 {
		return nil, fmt.Errorf("too many arguments: %v", rest[2:])
	}
	opts.input = rest[0]
	if len(rest) == 2 {
		opts.output = rest[1]
	} else {
		opts.output = strings.TrimSuffix(opts.input, filepath.Ext(opts.input)) + ".svg"
	}

	if opts.pegMargin < 0 || opts.pegMargin > 1 {
		return nil, fmt.Errorf("peg-margin %g outside [0, 1]", opts.pegMargin)
	}
	if opts.opacity < 0 || opts.opacity > 1 {
		return nil, fmt.Errorf("opacity %g outside [0, 1]", opts.opacity)
	}
	return opts, nil
}

func envBool(key string) bool {
	v := os.Getenv(key)
	return v == "1" || strings.EqualFold(v, "true")
}

func setupLogging(opts *options) {
	if opts.quiet {
		return
	}
	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	pather.SetLogger(logger)
}

func run(opts *options) error {
	yarn, err := buildYarn(opts)
	if err != nil {
		return err
	}

	// A blueprint input skips pathing and just renders.
	if strings.EqualFold(filepath.Ext(opts.input), ".json") {
		bp, err := blueprint.FromFile(opts.input)
		if err != nil {
			return err
		}
		bp.RenderScale = opts.scale
		if opts.transparent {
			bp.Background = nil
		}
		return renderAndPreview(bp, yarn, opts)
	}

	img, err := imgproc.Load(opts.input)
	if err != nil {
		return err
	}
	img = imgproc.FlattenTransparency(img)
	if opts.resize > 0 {
		img = resizeToFit(img, opts.resize)
	}
	gray := imgproc.ToGray(img)
	if opts.normalize {
		gray = imgproc.Normalize(gray)
	}

	width := gray.Bounds().Dx()
	height := gray.Bounds().Dy()
	minDim := width
	if height < minDim {
		minDim = height
	}
	span := uint32(math.Round(float64(minDim) * (1 - opts.pegMargin)))

	pegs, err := buildPegs(opts, uint32(width), uint32(height), span)
	if err != nil {
		return err
	}
	if opts.savePegs != "" {
		return writePegs(opts.savePegs, pegs)
	}

	skipWithin := uint32(opts.skipWithin)
	if opts.skipWithin < 0 {
		skipWithin = span / 8
	}
	pather.Logger().Info("skip peg within", "pixels", skipWithin)

	cfg := pather.PatherConfig{
		Iterations:     opts.iterations,
		Yarn:           yarn,
		EarlyStop:      pather.EarlyStopConfig{MaxCount: uint32(opts.stopCount)},
		StartPegRadius: uint32(opts.startRadius),
		SkipPegWithin:  skipWithin,
		BeamWidth:      opts.beamWidth,
		ProgressBar:    !opts.quiet,
	}
	if !math.IsNaN(opts.stopThreshold) {
		threshold := opts.stopThreshold
		cfg.EarlyStop.LossThreshold = &threshold
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	p := pather.New(gray, pegs, cfg)
	if !opts.quiet {
		p.Progress = progressPrinter("Computing blueprint")
	}
	bp, err := p.Compute()
	if err != nil {
		return err
	}

	bp.RenderScale = opts.scale
	if opts.transparent {
		bp.Background = nil
	}
	return renderAndPreview(bp, yarn, opts)
}

func renderAndPreview(bp *blueprint.Blueprint, yarn peg.Yarn, opts *options) error {
	if err := bp.Render(opts.output, yarn); err != nil {
		return err
	}
	pather.Logger().Info("wrote output", "path", opts.output, "segments", bp.Segments())

	if opts.preview {
		if err := PreviewImage(bp.RenderImage(yarn)); err != nil {
			// preview is best effort; the output file already exists
			pather.Logger().Debug("terminal preview unavailable", "err", err)
		}
	}
	return nil
}

func buildYarn(opts *options) (peg.Yarn, error) {
	c, err := parseHexColor(opts.yarnColor)
	if err != nil {
		return peg.Yarn{}, err
	}
	return peg.Yarn{
		Width:   float32(opts.yarnWidth),
		Opacity: opts.opacity,
		Color:   c,
	}, nil
}

// buildPegs loads or generates the peg layout. span is the peg region
// extent after applying the margin.
func buildPegs(opts *options, width, height, span uint32) ([]peg.Peg, error) {
	if opts.loadPegs != "" {
		return readPegs(opts.loadPegs)
	}

	centerX := width / 2
	centerY := height / 2
	var xs, ys []uint32
	switch opts.pegShape {
	case "circle":
		xs, ys = peg.CircleCoords(span/2, centerX, centerY, opts.pegNumber)
	case "square":
		xs, ys = peg.SquareCoords(centerX-span/2, centerY-span/2, span, opts.pegNumber)
	case "rectangle":
		marginW := uint32(math.Round(float64(width) * opts.pegMargin / 2))
		marginH := uint32(math.Round(float64(height) * opts.pegMargin / 2))
		xs, ys = peg.RectangleCoords(marginW, marginH, width-2*marginW, height-2*marginH, opts.pegNumber)
	case "line":
		xs, ys = peg.LineCoords(centerX-span/2, centerY, centerX+span/2, centerY, opts.pegNumber)
	default:
		return nil, fmt.Errorf("unrecognized peg shape %q", opts.pegShape)
	}

	pegs := peg.GeneratePegs(xs, ys)
	if opts.pegJitter > 0 {
		rng := rand.New(rand.NewSource(int64(len(pegs))))
		pegs = peg.AddJitter(pegs, rng, opts.pegJitter)
	}
	return pegs, nil
}

func readPegs(path string) ([]peg.Peg, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pegs %s: %w", path, err)
	}
	var pegs []peg.Peg
	if err := json.Unmarshal(b, &pegs); err != nil {
		return nil, fmt.Errorf("failed to decode pegs %s: %w", path, err)
	}
	return pegs, nil
}

func writePegs(path string, pegs []peg.Peg) error {
	b, err := json.Marshal(pegs)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("failed to write pegs %s: %w", path, err)
	}
	pather.Logger().Info("wrote pegs", "path", path, "count", len(pegs))
	return nil
}

// resizeToFit shrinks img so its longest side is at most maxDim pixels,
// preserving the aspect ratio. Images already within the limit are returned
// unchanged.
func resizeToFit(img *image.NRGBA, maxDim int) *image.NRGBA {
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	longest := w
	if h > longest {
		longest = h
	}
	if longest <= maxDim {
		return img
	}
	scale := float64(maxDim) / float64(longest)
	return imgproc.ResizeLanczos(img, int(math.Round(float64(w)*scale)), int(math.Round(float64(h)*scale)))
}

// progressPrinter rewrites a single status line on stderr.
func progressPrinter(msg string) func(done, total int) {
	return func(done, total int) {
		fmt.Fprintf(os.Stderr, "\r%s: %d/%d", msg, done, total)
		if done == total {
			fmt.Fprintln(os.Stderr)
		}
	}
}

func parseHexColor(s string) (color.NRGBA, error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return color.NRGBA{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
		A: 255,
	}, nil
}
