// Package pather computes string art paths: ordered peg sequences whose
// connecting lines, drawn with a translucent yarn, approximate a grayscale
// image. It offers a greedy and a beam search constructor over a
// precomputed line cache.
package pather

import (
	"fmt"
	"image"

	"github.com/Fepozopo/strand/pkg/blueprint"
	"github.com/Fepozopo/strand/pkg/imgproc"
	"github.com/Fepozopo/strand/pkg/peg"
)

// pairKey identifies an unordered peg pair by its canonicalized id pair.
type pairKey struct {
	low, high int
}

// hashKey canonicalizes a peg pair so lookups are symmetric in argument
// order.
func hashKey(a, b peg.Peg) pairKey {
	if a.ID < b.ID {
		return pairKey{a.ID, b.ID}
	}
	return pairKey{b.ID, a.ID}
}

// Pather runs the line pathing algorithm over an image and a peg layout.
type Pather struct {
	// Image is the grayscale input. Read-only once the Pather is built.
	Image *image.Gray
	// Pegs to compute the path over. IDs must be unique.
	Pegs []peg.Peg
	// Config for the pathing algorithm.
	Config PatherConfig
	// Progress, when non-nil and Config.ProgressBar is set, is called after
	// every completed iteration. It must not block; it runs on the compute
	// goroutine.
	Progress func(done, total int)

	lineCache map[pairKey]peg.Line
}

// New creates a Pather. Run PopulateLineCache (or Compute, which populates
// lazily) before the compute methods.
func New(img *image.Gray, pegs []peg.Peg, config PatherConfig) *Pather {
	return &Pather{
		Image:     img,
		Pegs:      pegs,
		Config:    config,
		lineCache: make(map[pairKey]peg.Line),
	}
}

// FromImageFile creates a Pather from an image file: the image is decoded,
// fully transparent pixels are flattened to white and the result is
// projected to grayscale.
func FromImageFile(path string, pegs []peg.Peg, config PatherConfig) (*Pather, error) {
	img, err := imgproc.Load(path)
	if err != nil {
		return nil, err
	}
	gray := imgproc.ToGray(imgproc.FlattenTransparency(img))
	return New(gray, pegs, config), nil
}

// CachedLine returns the precomputed line between two pegs. Lookup is
// symmetric in argument order; pairs excluded by SkipPegWithin are absent.
func (p *Pather) CachedLine(a, b peg.Peg) (peg.Line, bool) {
	line, ok := p.lineCache[hashKey(a, b)]
	return line, ok
}

// LineCacheSize returns the number of cached peg pairs.
func (p *Pather) LineCacheSize() int {
	return len(p.lineCache)
}

// PopulateLineCache rasterizes the line between every unordered peg pair at
// least SkipPegWithin pixels apart and stores it keyed on the pair's ids.
// Re-invocation rebuilds the cache from scratch.
//
// The cache holds O(N^2) entries, each proportional to the image diagonal
// times the squared stroke width; shrinking the working image or the peg
// count is the lever when memory is tight.
func (p *Pather) PopulateLineCache() error {
	Logger().Info("populating line cache", "pegs", len(p.Pegs))

	type pair struct{ a, b int }
	var pairs []pair
	for i := 0; i < len(p.Pegs); i++ {
		for j := i + 1; j < len(p.Pegs); j++ {
			if p.Pegs[i].DistTo(p.Pegs[j]) >= p.Config.SkipPegWithin {
				pairs = append(pairs, pair{i, j})
			}
		}
	}

	type entry struct {
		key  pairKey
		line peg.Line
	}
	width := int(p.Config.Yarn.Width)
	bounds := p.Image.Bounds()

	// Rasterization is independent per pair; the map insert stays serial.
	chunks := mapChunks(len(pairs), func(start, end int) []entry {
		out := make([]entry, 0, end-start)
		for _, pr := range pairs[start:end] {
			a, b := p.Pegs[pr.a], p.Pegs[pr.b]
			out = append(out, entry{
				key:  hashKey(a, b),
				line: a.LineToBounded(b, width, bounds),
			})
		}
		return out
	})

	p.lineCache = make(map[pairKey]peg.Line, len(pairs))
	for _, chunk := range chunks {
		for _, e := range chunk {
			p.lineCache[e.key] = e.line
		}
	}
	Logger().Debug("line cache populated", "entries", len(p.lineCache))
	return nil
}

// startPeg returns the index of the peg centered on the darkest image
// region: the one with the lowest mean intensity within radius. Pixels
// outside the image read as 0. First occurrence wins ties.
func (p *Pather) startPeg(radius uint32) int {
	bounds := p.Image.Bounds()
	best := 0
	bestMean := uint32(0)
	for i, pg := range p.Pegs {
		xs, ys := pg.Around(radius)
		var sum uint32
		for j := range xs {
			if image.Pt(xs[j], ys[j]).In(bounds) {
				sum += uint32(p.Image.Pix[p.Image.PixOffset(xs[j], ys[j])])
			}
		}
		mean := sum / uint32(len(xs))
		if i == 0 || mean < bestMean {
			best = i
			bestMean = mean
		}
	}
	Logger().Debug("start peg selected", "index", best, "id", p.Pegs[best].ID, "mean", bestMean)
	return best
}

// earlyStop implements the consecutive-threshold counter: once loss has
// exceeded the configured threshold MaxCount times in a row, pathing stops.
func (p *Pather) earlyStop(count *uint32, loss float64) bool {
	threshold := p.Config.EarlyStop.LossThreshold
	if threshold == nil {
		return false
	}
	if loss > *threshold {
		*count++
		Logger().Debug("early stop count", "count", *count, "max", p.Config.EarlyStop.MaxCount)
		return *count >= p.Config.EarlyStop.MaxCount
	}
	*count = 0
	return false
}

// scored is a chunk-local best candidate. index is -1 when the chunk had no
// eligible peg.
type scored struct {
	loss  float64
	index int
	line  peg.Line
}

// scoreCandidates scores every eligible next peg against the working image
// and returns the one with minimum loss. Exact ties (and NaN losses, which
// compare as equal) resolve to the lowest peg index, so the result is
// deterministic regardless of chunking.
func (p *Pather) scoreCandidates(last, prev peg.Peg, work *image.Gray) (scored, bool) {
	chunks := mapChunks(len(p.Pegs), func(start, end int) scored {
		best := scored{index: -1}
		for i := start; i < end; i++ {
			cand := p.Pegs[i]
			if cand.ID == last.ID || cand.ID == prev.ID {
				continue
			}
			line, ok := p.lineCache[hashKey(last, cand)]
			if !ok {
				continue
			}
			loss := line.Loss(work)
			if best.index == -1 || loss < best.loss {
				best = scored{loss: loss, index: i, line: line}
			}
		}
		return best
	})

	merged := scored{index: -1}
	for _, c := range chunks {
		if c.index == -1 {
			continue
		}
		// Chunks arrive in ascending index order; strict less keeps the
		// earliest index on equal or NaN losses.
		if merged.index == -1 || c.loss < merged.loss {
			merged = c
		}
	}
	return merged, merged.index != -1
}

// ComputeGreedy runs the greedy pathing algorithm: each iteration extends
// the path with the cached line of minimum loss against the working image,
// then applies that line to the working image.
func (p *Pather) ComputeGreedy() (*blueprint.Blueprint, error) {
	if err := p.Config.Validate(); err != nil {
		return nil, err
	}
	if len(p.lineCache) == 0 {
		return nil, ErrEmptyLineCache
	}

	lineColor := 255 * p.Config.Yarn.Opacity

	start := p.startPeg(p.Config.StartPegRadius)
	order := make([]peg.Peg, 0, p.Config.Iterations+1)
	order = append(order, p.Pegs[start])
	work := imgproc.CloneGray(p.Image)
	last := p.Pegs[start]
	prev := last
	var stopCount uint32

	for i := 0; i < p.Config.Iterations; i++ {
		best, ok := p.scoreCandidates(last, prev, work)
		if !ok {
			return nil, fmt.Errorf("%w at iteration %d", ErrNoCandidate, i)
		}
		if p.earlyStop(&stopCount, best.loss) {
			Logger().Info("early stopping", "iteration", i)
			break
		}

		chosen := p.Pegs[best.index]
		Logger().Debug("line chosen", "from", last.ID, "to", chosen.ID, "loss", best.loss)
		order = append(order, chosen)
		prev = last
		last = chosen

		best.line.Draw(work, p.Config.Yarn.Opacity, lineColor)
		p.reportProgress(i+1, p.Config.Iterations)
	}

	bounds := p.Image.Bounds()
	return blueprint.New(order, uint32(bounds.Dx()), uint32(bounds.Dy()), &[3]uint8{255, 255, 255}, 1), nil
}

// Compute runs the pathing algorithm, populating the line cache first if it
// is empty. BeamWidth selects the constructor: 1 is greedy, anything larger
// is beam search.
func (p *Pather) Compute() (*blueprint.Blueprint, error) {
	if err := p.Config.Validate(); err != nil {
		return nil, err
	}
	if len(p.lineCache) == 0 {
		Logger().Warn("line cache is empty, populating it")
		if err := p.PopulateLineCache(); err != nil {
			return nil, err
		}
	}
	if p.Config.BeamWidth > 1 {
		Logger().Info("using beam search algorithm", "beam_width", p.Config.BeamWidth)
		return p.ComputeBeam()
	}
	Logger().Info("using greedy algorithm")
	return p.ComputeGreedy()
}

func (p *Pather) reportProgress(done, total int) {
	if p.Config.ProgressBar && p.Progress != nil {
		p.Progress(done, total)
	}
}
