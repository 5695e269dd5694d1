package peg

import (
	"math"
	"math/rand"
)

// Peg layout helpers. These are geometric conveniences for callers that do
// not bring their own peg coordinates; the pathing algorithm itself only
// sees the resulting []Peg.

// CircleCoords returns the coordinates of n evenly spaced points on a circle
// of the given radius around (centerX, centerY).
func CircleCoords(radius uint32, centerX, centerY uint32, n int) (xs, ys []uint32) {
	angle := 2 * math.Pi / float64(n)
	xs = make([]uint32, 0, n)
	ys = make([]uint32, 0, n)
	r := float64(radius)
	for i := 0; i < n; i++ {
		a := float64(i) * angle
		xs = append(xs, uint32(math.Round(r*math.Cos(a)+float64(centerX))))
		ys = append(ys, uint32(math.Round(r*math.Sin(a)+float64(centerY))))
	}
	return xs, ys
}

// LineCoords returns n evenly spaced points along the segment from start to
// end. The end point itself is not included.
func LineCoords(startX, startY, endX, endY uint32, n int) (xs, ys []uint32) {
	dx := (float64(endX) - float64(startX)) / float64(n)
	dy := (float64(endY) - float64(startY)) / float64(n)
	xs = make([]uint32, 0, n)
	ys = make([]uint32, 0, n)
	for i := 0; i < n; i++ {
		t := float64(i)
		xs = append(xs, uint32(math.Round(float64(startX)+t*dx)))
		ys = append(ys, uint32(math.Round(float64(startY)+t*dy)))
	}
	return xs, ys
}

// SquareCoords returns n evenly spaced points along the perimeter of a
// square with the given top left corner and side length. n is rounded down
// to a multiple of 4.
func SquareCoords(topLeftX, topLeftY, length uint32, n int) (xs, ys []uint32) {
	perSide := n / 4
	topX, topY := LineCoords(topLeftX, topLeftY, topLeftX+length, topLeftY, perSide)
	rightX, rightY := LineCoords(topLeftX+length, topLeftY, topLeftX+length, topLeftY+length, perSide)
	bottomX, bottomY := LineCoords(topLeftX+length, topLeftY+length, topLeftX, topLeftY+length, perSide)
	leftX, leftY := LineCoords(topLeftX, topLeftY+length, topLeftX, topLeftY, perSide)

	xs = concat(topX, rightX, bottomX, leftX)
	ys = concat(topY, rightY, bottomY, leftY)
	return xs, ys
}

// RectangleCoords returns up to n points along the perimeter of a rectangle
// with the given top left corner, distributing them proportionally to the
// side lengths. The per-side counts are rounded down, so fewer than n points
// are returned when n does not split evenly.
func RectangleCoords(topLeftX, topLeftY, width, height uint32, n int) (xs, ys []uint32) {
	perimeter := 2*width + 2*height
	widthPoints := int(uint32(n) * width / perimeter)
	heightPoints := int(uint32(n) * height / perimeter)

	topX, topY := LineCoords(topLeftX, topLeftY, topLeftX+width, topLeftY, widthPoints)
	rightX, rightY := LineCoords(topLeftX+width, topLeftY, topLeftX+width, topLeftY+height, heightPoints)
	bottomX, bottomY := LineCoords(topLeftX+width, topLeftY+height, topLeftX, topLeftY+height, widthPoints)
	leftX, leftY := LineCoords(topLeftX, topLeftY+height, topLeftX, topLeftY, heightPoints)

	xs = concat(topX, rightX, bottomX, leftX)
	ys = concat(topY, rightY, bottomY, leftY)
	return xs, ys
}

// PixelsAround returns the coordinates of all pixels within radius of
// (centerX, centerY), Euclidean and inclusive. Coordinates may be negative.
func PixelsAround(centerX, centerY, radius int) (xs, ys []int) {
	for x := -radius; x <= radius; x++ {
		for y := -radius; y <= radius; y++ {
			if x*x+y*y <= radius*radius {
				xs = append(xs, centerX+x)
				ys = append(ys, centerY+y)
			}
		}
	}
	return xs, ys
}

// GeneratePegs turns coordinate lists into pegs with sequential ids starting
// at 0.
func GeneratePegs(xs, ys []uint32) []Peg {
	pegs := make([]Peg, 0, len(xs))
	for i := range xs {
		pegs = append(pegs, New(xs[i], ys[i], i))
	}
	return pegs
}

// AddJitter offsets every peg by up to jitter pixels on both axes, keeping
// ids intact. The caller provides the random source so runs can be seeded.
func AddJitter(pegs []Peg, rng *rand.Rand, jitter int64) []Peg {
	out := make([]Peg, 0, len(pegs))
	for _, p := range pegs {
		out = append(out, p.WithJitter(rng, jitter))
	}
	return out
}

func concat(parts ...[]uint32) []uint32 {
	var n int
	for _, p := range parts {
		n += len(p)
	}
	out := make([]uint32, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
