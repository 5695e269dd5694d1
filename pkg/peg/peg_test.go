package peg

import (
	"image"
	"math/rand"
	"sort"
	"testing"
)

func sortedCopy(s []uint32) []uint32 {
	out := append([]uint32(nil), s...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func TestLineTo(t *testing.T) {
	a := New(0, 0, 0)
	b := New(1, 1, 1)
	line := a.LineTo(b, 1)
	if got := sortedCopy(line.X); got[0] != 0 || got[1] != 1 {
		t.Fatalf("diagonal x coords = %v, want [0 1]", got)
	}
	if got := sortedCopy(line.Y); got[0] != 0 || got[1] != 1 {
		t.Fatalf("diagonal y coords = %v, want [0 1]", got)
	}
	if line.Dist != 1 {
		t.Fatalf("diagonal dist = %d, want 1", line.Dist)
	}

	// direction must not matter
	rev := b.LineTo(a, 1)
	if rev.Len() != line.Len() || rev.Dist != line.Dist {
		t.Fatalf("reversed line differs: len %d vs %d, dist %d vs %d", rev.Len(), line.Len(), rev.Dist, line.Dist)
	}

	// horizontal line
	a = New(0, 1, 0)
	b = New(3, 1, 1)
	line = a.LineTo(b, 1)
	wantX := []uint32{0, 1, 2, 3}
	gotX := sortedCopy(line.X)
	for i := range wantX {
		if gotX[i] != wantX[i] {
			t.Fatalf("horizontal x coords = %v, want %v", gotX, wantX)
		}
	}
	for _, y := range line.Y {
		if y != 1 {
			t.Fatalf("horizontal y coord = %d, want 1", y)
		}
	}
	if line.Dist != 3 {
		t.Fatalf("horizontal dist = %d, want 3", line.Dist)
	}

	// vertical line
	a = New(0, 0, 0)
	b = New(0, 1, 1)
	line = a.LineTo(b, 1)
	if line.Len() != 2 {
		t.Fatalf("vertical line has %d pixels, want 2", line.Len())
	}
	if line.Dist != 1 {
		t.Fatalf("vertical dist = %d, want 1", line.Dist)
	}
}

func TestLineToWidth(t *testing.T) {
	a := New(5, 5, 0)
	b := New(5, 5, 1)

	for _, width := range []int{0, 1} {
		line := a.LineTo(b, width)
		if line.Len() != 1 || line.X[0] != 5 || line.Y[0] != 5 {
			t.Fatalf("width %d: degenerate line = (%v, %v), want single pixel (5, 5)", width, line.X, line.Y)
		}
	}

	// widths 2 and 3 both cover one pixel in every direction
	for _, width := range []int{2, 3} {
		line := a.LineTo(b, width)
		xs := sortedCopy(line.X)
		ys := sortedCopy(line.Y)
		if xs[0] != 4 || xs[len(xs)-1] != 6 || ys[0] != 4 || ys[len(ys)-1] != 6 {
			t.Fatalf("width %d: extent x [%d, %d] y [%d, %d], want [4, 6]", width, xs[0], xs[len(xs)-1], ys[0], ys[len(ys)-1])
		}
		if line.Dist != 0 {
			t.Fatalf("width %d: dist = %d, want 0", width, line.Dist)
		}
	}

	// width 4 covers two pixels in every direction
	line := a.LineTo(b, 4)
	xs := sortedCopy(line.X)
	if xs[0] != 3 || xs[len(xs)-1] != 7 {
		t.Fatalf("width 4: extent x [%d, %d], want [3, 7]", xs[0], xs[len(xs)-1])
	}
}

func TestLineToCoordLensAgree(t *testing.T) {
	for _, width := range []int{0, 1, 2, 5} {
		line := New(0, 0, 0).LineTo(New(13, 7, 1), width)
		if len(line.X) != len(line.Y) {
			t.Fatalf("width %d: |x| = %d, |y| = %d", width, len(line.X), len(line.Y))
		}
	}
}

func TestLineToBounded(t *testing.T) {
	bounds := image.Rect(0, 0, 8, 8)
	line := New(0, 0, 0).LineToBounded(New(7, 7, 1), 5, bounds)
	for i := range line.X {
		if line.X[i] > 7 || line.Y[i] > 7 {
			t.Fatalf("pixel (%d, %d) outside bounds %v", line.X[i], line.Y[i], bounds)
		}
	}
}

func TestDistTo(t *testing.T) {
	tests := []struct {
		a, b Peg
		want uint32
	}{
		{New(0, 0, 0), New(3, 4, 1), 5},
		{New(3, 4, 0), New(0, 0, 1), 5},
		{New(0, 0, 0), New(1, 1, 1), 1},
		{New(10, 10, 0), New(10, 10, 1), 0},
	}
	for _, tt := range tests {
		if got := tt.a.DistTo(tt.b); got != tt.want {
			t.Fatalf("DistTo(%v, %v) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestAround(t *testing.T) {
	p := New(10, 10, 0)
	xs, ys := p.Around(1)
	wantX := []int{9, 10, 10, 10, 11}
	wantY := []int{10, 9, 10, 11, 10}
	if len(xs) != len(wantX) {
		t.Fatalf("around returned %d pixels, want %d", len(xs), len(wantX))
	}
	for i := range wantX {
		if xs[i] != wantX[i] || ys[i] != wantY[i] {
			t.Fatalf("around pixel %d = (%d, %d), want (%d, %d)", i, xs[i], ys[i], wantX[i], wantY[i])
		}
	}
}

func TestWithJitter(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	p := New(10, 10, 7)
	const jitter = 2
	for i := 0; i < 50; i++ {
		j := p.WithJitter(rng, jitter)
		if j.ID != p.ID {
			t.Fatalf("jitter changed id: %d != %d", j.ID, p.ID)
		}
		if j.X > p.X+jitter || j.X < p.X-jitter {
			t.Fatalf("jitter moved x out of range: %d", j.X)
		}
		if j.Y > p.Y+jitter || j.Y < p.Y-jitter {
			t.Fatalf("jitter moved y out of range: %d", j.Y)
		}
	}
}
