package pather

import (
	"fmt"
	"image"
	"sort"

	"github.com/Fepozopo/strand/pkg/blueprint"
	"github.com/Fepozopo/strand/pkg/imgproc"
	"github.com/Fepozopo/strand/pkg/peg"
)

// beamState is one candidate partial solution in beam search. It owns its
// working image exclusively; expansion clones it.
type beamState struct {
	pegOrder []int
	loss     float64
	image    *image.Gray
}

// beamCandidate is a scored extension of an existing beam state. state and
// pegIdx double as the deterministic tie-break for equal (or NaN) losses.
type beamCandidate struct {
	loss   float64
	state  int
	pegIdx int
	line   peg.Line
}

// candidateLess orders candidates by ascending loss; exact ties and NaN
// losses (which compare as equal) fall back to origin state index, then
// candidate peg index.
func candidateLess(a, b beamCandidate) bool {
	if a.loss < b.loss {
		return true
	}
	if a.loss > b.loss {
		return false
	}
	if a.state != b.state {
		return a.state < b.state
	}
	return a.pegIdx < b.pegIdx
}

// ComputeBeam runs the beam search pathing algorithm: BeamWidth candidate
// paths are kept alive, each with its own working image; every iteration
// scores all extensions of all states, keeps the BeamWidth best by marginal
// line loss and materializes them. The cumulative loss only decides the
// final best state.
//
// Extensions are always scored against their origin state's image; scoring
// against a shared image would let extensions interact and collapse the
// search. Each retained extension clones its origin image, which dominates
// the memory cost at K images of W*H bytes.
func (p *Pather) ComputeBeam() (*blueprint.Blueprint, error) {
	if err := p.Config.Validate(); err != nil {
		return nil, err
	}
	if len(p.lineCache) == 0 {
		return nil, ErrEmptyLineCache
	}

	lineColor := 255 * p.Config.Yarn.Opacity
	start := p.startPeg(p.Config.StartPegRadius)

	beam := []*beamState{{
		pegOrder: []int{start},
		loss:     0,
		image:    imgproc.CloneGray(p.Image),
	}}

	var stopCount uint32
	for i := 0; i < p.Config.Iterations; i++ {
		candidates := p.scoreBeam(beam)
		if len(candidates) == 0 {
			return nil, fmt.Errorf("%w at iteration %d", ErrNoCandidate, i)
		}

		k := p.Config.BeamWidth
		if k > len(candidates) {
			k = len(candidates)
		}
		// Partial selection: move the k smallest to the front, then order
		// just those so the new beam is deterministic.
		selectSmallest(candidates, k)
		sort.Slice(candidates[:k], func(a, b int) bool {
			return candidateLess(candidates[a], candidates[b])
		})

		if p.earlyStop(&stopCount, candidates[0].loss) {
			Logger().Info("early stopping", "iteration", i)
			break
		}

		next := make([]*beamState, 0, k)
		for _, cand := range candidates[:k] {
			origin := beam[cand.state]
			img := imgproc.CloneGray(origin.image)
			cand.line.Draw(img, p.Config.Yarn.Opacity, lineColor)

			pegOrder := make([]int, 0, len(origin.pegOrder)+1)
			pegOrder = append(pegOrder, origin.pegOrder...)
			pegOrder = append(pegOrder, cand.pegIdx)

			next = append(next, &beamState{
				pegOrder: pegOrder,
				loss:     origin.loss + cand.loss,
				image:    img,
			})
		}
		beam = next
		p.reportProgress(i+1, p.Config.Iterations)
	}

	best := beam[0]
	for _, s := range beam[1:] {
		if s.loss < best.loss {
			best = s
		}
	}

	order := make([]peg.Peg, 0, len(best.pegOrder))
	for _, idx := range best.pegOrder {
		order = append(order, p.Pegs[idx])
	}
	bounds := p.Image.Bounds()
	return blueprint.New(order, uint32(bounds.Dx()), uint32(bounds.Dy()), &[3]uint8{255, 255, 255}, 1), nil
}

// scoreBeam scores every (state, candidate peg) extension in parallel. Each
// state's image is read-only during scoring. The result preserves ascending
// (state, peg) order, so downstream tie-breaks are reproducible.
func (p *Pather) scoreBeam(beam []*beamState) []beamCandidate {
	total := len(beam) * len(p.Pegs)
	chunks := mapChunks(total, func(start, end int) []beamCandidate {
		var out []beamCandidate
		for idx := start; idx < end; idx++ {
			si := idx / len(p.Pegs)
			pi := idx % len(p.Pegs)
			state := beam[si]

			last := p.Pegs[state.pegOrder[len(state.pegOrder)-1]]
			prev := last
			if len(state.pegOrder) >= 2 {
				prev = p.Pegs[state.pegOrder[len(state.pegOrder)-2]]
			}

			cand := p.Pegs[pi]
			if cand.ID == last.ID || cand.ID == prev.ID {
				continue
			}
			line, ok := p.lineCache[hashKey(last, cand)]
			if !ok {
				continue
			}
			out = append(out, beamCandidate{
				loss:   line.Loss(state.image),
				state:  si,
				pegIdx: pi,
				line:   line,
			})
		}
		return out
	})

	var candidates []beamCandidate
	for _, chunk := range chunks {
		candidates = append(candidates, chunk...)
	}
	return candidates
}

// selectSmallest partially sorts cands so the k smallest elements by
// candidateLess occupy cands[:k], in unspecified order. Classic quickselect
// with a median-of-three pivot; expected linear time, no allocation.
func selectSmallest(cands []beamCandidate, k int) {
	lo, hi := 0, len(cands)-1
	for lo < hi {
		p := partition(cands, lo, hi)
		switch {
		case p == k-1:
			return
		case p < k-1:
			lo = p + 1
		default:
			hi = p - 1
		}
	}
}

func partition(cands []beamCandidate, lo, hi int) int {
	mid := lo + (hi-lo)/2
	// median-of-three pivot to dodge quadratic behavior on sorted input
	if candidateLess(cands[mid], cands[lo]) {
		cands[mid], cands[lo] = cands[lo], cands[mid]
	}
	if candidateLess(cands[hi], cands[lo]) {
		cands[hi], cands[lo] = cands[lo], cands[hi]
	}
	if candidateLess(cands[hi], cands[mid]) {
		cands[hi], cands[mid] = cands[mid], cands[hi]
	}
	pivot := cands[mid]
	cands[mid], cands[hi] = cands[hi], cands[mid]

	store := lo
	for i := lo; i < hi; i++ {
		if candidateLess(cands[i], pivot) {
			cands[i], cands[store] = cands[store], cands[i]
			store++
		}
	}
	cands[store], cands[hi] = cands[hi], cands[store]
	return store
}
