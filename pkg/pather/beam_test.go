package pather

import (
	"math"
	"sort"
	"testing"

	"github.com/Fepozopo/strand/pkg/peg"
)

func TestBeamWidthOneMatchesGreedy(t *testing.T) {
	cfg := testConfig()
	cfg.Iterations = 6

	greedy := New(gradientGray(32, 32), circlePegs(12, 16, 16, 8), cfg)
	if err := greedy.PopulateLineCache(); err != nil {
		t.Fatalf("populate failed: %v", err)
	}
	gbp, err := greedy.ComputeGreedy()
	if err != nil {
		t.Fatalf("greedy failed: %v", err)
	}

	beam := New(gradientGray(32, 32), circlePegs(12, 16, 16, 8), cfg)
	if err := beam.PopulateLineCache(); err != nil {
		t.Fatalf("populate failed: %v", err)
	}
	bbp, err := beam.ComputeBeam()
	if err != nil {
		t.Fatalf("beam failed: %v", err)
	}

	if len(gbp.PegOrder) != len(bbp.PegOrder) {
		t.Fatalf("order lengths differ: greedy %d, beam %d", len(gbp.PegOrder), len(bbp.PegOrder))
	}
	for i := range gbp.PegOrder {
		if gbp.PegOrder[i].ID != bbp.PegOrder[i].ID {
			t.Fatalf("orders diverge at %d: greedy %v, beam %v", i, gbp.PegOrder, bbp.PegOrder)
		}
	}
}

func TestBeamWiderSearch(t *testing.T) {
	cfg := testConfig()
	cfg.Iterations = 5
	cfg.BeamWidth = 3

	p := New(gradientGray(32, 32), circlePegs(12, 16, 16, 8), cfg)
	bp, err := p.Compute()
	if err != nil {
		t.Fatalf("beam compute failed: %v", err)
	}
	if len(bp.PegOrder) != cfg.Iterations+1 {
		t.Fatalf("order length = %d, want %d", len(bp.PegOrder), cfg.Iterations+1)
	}
	for i := 1; i < len(bp.PegOrder); i++ {
		if bp.PegOrder[i].ID == bp.PegOrder[i-1].ID {
			t.Fatalf("self loop in beam output: %v", bp.PegOrder)
		}
		if i >= 2 && bp.PegOrder[i].ID == bp.PegOrder[i-2].ID {
			t.Fatalf("immediate back-step in beam output: %v", bp.PegOrder)
		}
	}
}

func TestBeamDeterministic(t *testing.T) {
	run := func() []peg.Peg {
		cfg := testConfig()
		cfg.Iterations = 5
		cfg.BeamWidth = 4
		p := New(gradientGray(32, 32), circlePegs(12, 16, 16, 8), cfg)
		bp, err := p.Compute()
		if err != nil {
			t.Fatalf("beam compute failed: %v", err)
		}
		return bp.PegOrder
	}
	first := run()
	for i := 0; i < 3; i++ {
		again := run()
		for j := range first {
			if again[j].ID != first[j].ID {
				t.Fatalf("beam runs diverge at %d: %v vs %v", j, again, first)
			}
		}
	}
}

func TestBeamCumulativeLossMonotone(t *testing.T) {
	cfg := testConfig()
	cfg.Iterations = 4
	cfg.BeamWidth = 3
	p := New(gradientGray(32, 32), circlePegs(12, 16, 16, 8), cfg)
	if err := p.PopulateLineCache(); err != nil {
		t.Fatalf("populate failed: %v", err)
	}

	beam := []*beamState{{
		pegOrder: []int{p.startPeg(cfg.StartPegRadius)},
		loss:     0,
		image:    p.Image,
	}}
	prevLoss := 0.0
	for i := 0; i < cfg.Iterations; i++ {
		candidates := p.scoreBeam(beam)
		if len(candidates) == 0 {
			t.Fatalf("no candidates at iteration %d", i)
		}
		for _, c := range candidates {
			if c.loss < 0 {
				t.Fatalf("negative marginal loss %g", c.loss)
			}
		}
		selectSmallest(candidates, 1)
		best := beam[candidates[0].state]
		if best.loss+candidates[0].loss < prevLoss {
			t.Fatalf("cumulative loss decreased at %d", i)
		}
		prevLoss = best.loss + candidates[0].loss

		next := append([]int(nil), best.pegOrder...)
		beam = []*beamState{{
			pegOrder: append(next, candidates[0].pegIdx),
			loss:     prevLoss,
			image:    best.image,
		}}
	}
}

func TestSelectSmallest(t *testing.T) {
	losses := []float64{0.9, 0.2, 0.7, 0.1, 0.8, 0.3, 0.6, 0.4, 0.5, 0.0}
	cands := make([]beamCandidate, len(losses))
	for i, l := range losses {
		cands[i] = beamCandidate{loss: l, state: 0, pegIdx: i}
	}

	const k = 3
	selectSmallest(cands, k)

	got := []float64{cands[0].loss, cands[1].loss, cands[2].loss}
	sort.Float64s(got)
	want := []float64{0.0, 0.1, 0.2}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("selected losses %v, want %v", got, want)
		}
	}
	// the rest must all be larger
	for _, c := range cands[k:] {
		if c.loss < 0.3 {
			t.Fatalf("small loss %g left outside the selection", c.loss)
		}
	}
}

func TestCandidateLessNaNSafe(t *testing.T) {
	nan := beamCandidate{loss: math.NaN(), state: 0, pegIdx: 1}
	val := beamCandidate{loss: 0.5, state: 0, pegIdx: 2}

	// NaN compares as equal on loss, so the index tie-break decides
	if !candidateLess(nan, val) {
		t.Fatalf("expected index tie-break to order peg 1 before peg 2")
	}
	if candidateLess(val, nan) {
		t.Fatalf("expected index tie-break to order peg 2 after peg 1")
	}

	same := beamCandidate{loss: 0.5, state: 1, pegIdx: 0}
	if !candidateLess(val, same) {
		t.Fatalf("equal losses must order by state index")
	}
}
