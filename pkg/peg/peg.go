package peg

import (
	"image"
	"image/color"
	"math"
	"math/rand"
)

// Peg is a 2D anchor point around which the yarn is wrapped. (0, 0) is the
// top left corner of the image. Identity is the ID; two pegs with the same
// ID within one run is a programming error.
type Peg struct {
	X  uint32 `json:"x"`
	Y  uint32 `json:"y"`
	ID int    `json:"id"`
}

// New creates a new Peg. IDs are caller-supplied; GeneratePegs assigns
// sequential ids when generating a peg layout from scratch.
func New(x, y uint32, id int) Peg {
	return Peg{X: x, Y: y, ID: id}
}

// DistTo returns the Euclidean distance between two pegs in pixels, rounded
// to the nearest integer. Independent of stroke width.
func (p Peg) DistTo(other Peg) uint32 {
	dx := absDiff(p.X, other.X)
	dy := absDiff(p.Y, other.Y)
	return uint32(math.Round(math.Hypot(float64(dx), float64(dy))))
}

// LineTo rasterizes the segment from p to other as a stroke of the given
// width using Bresenham's line algorithm. The effective width is always odd:
// width 0 and 1 both produce a 1 pixel stroke, 2 and 3 produce 3 pixels,
// 4 and 5 produce 5, and so on. Coordinates are clamped at zero.
func (p Peg) LineTo(other Peg, width int) Line {
	return p.lineTo(other, width, nil)
}

// LineToBounded is LineTo with every emitted pixel clamped into bounds.
// The pathing core uses it so that cached lines can index the working image
// without bounds checks.
func (p Peg) LineToBounded(other Peg, width int, bounds image.Rectangle) Line {
	return p.lineTo(other, width, &bounds)
}

func (p Peg) lineTo(other Peg, width int, bounds *image.Rectangle) Line {
	type pixel struct{ x, y int32 }
	pixels := make(map[pixel]struct{})
	halfWidth := int32(width / 2)

	dx := int32(absDiff(other.X, p.X))
	dy := -int32(absDiff(other.Y, p.Y))
	var sx, sy int32 = 1, 1
	if p.X > other.X {
		sx = -1
	}
	if p.Y > other.Y {
		sy = -1
	}
	err := dx + dy

	x := int32(p.X)
	y := int32(p.Y)
	endX := int32(other.X)
	endY := int32(other.Y)

	for {
		// The stroke is the union of squares centered on the centerline;
		// the map dedupes the overlap between consecutive steps.
		for ox := -halfWidth; ox <= halfWidth; ox++ {
			for oy := -halfWidth; oy <= halfWidth; oy++ {
				px := max32(x+ox, 0)
				py := max32(y+oy, 0)
				if bounds != nil {
					px = clamp32(px, int32(bounds.Min.X), int32(bounds.Max.X-1))
					py = clamp32(py, int32(bounds.Min.Y), int32(bounds.Max.Y-1))
				}
				pixels[pixel{px, py}] = struct{}{}
			}
		}

		if x == endX && y == endY {
			break
		}

		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x = max32(x+sx, 0)
		}
		if e2 <= dx {
			err += dx
			y = max32(y+sy, 0)
		}
	}

	xs := make([]uint32, 0, len(pixels))
	ys := make([]uint32, 0, len(pixels))
	for px := range pixels {
		xs = append(xs, uint32(px.x))
		ys = append(ys, uint32(px.y))
	}
	return NewLine(xs, ys, p.DistTo(other))
}

// Around returns the coordinates of all pixels within radius of the peg,
// Euclidean and inclusive. Coordinates may be negative for pegs near the
// origin; callers reading image data substitute for out-of-bounds pixels.
func (p Peg) Around(radius uint32) (xs, ys []int) {
	return PixelsAround(int(p.X), int(p.Y), int(radius))
}

// WithJitter returns a copy of the peg with up to jitter pixels of uniform
// random offset on both axes. The id is preserved.
func (p Peg) WithJitter(rng *rand.Rand, jitter int64) Peg {
	return Peg{
		X:  uint32(max64(int64(p.X)+rng.Int63n(2*jitter)-jitter, 0)),
		Y:  uint32(max64(int64(p.Y)+rng.Int63n(2*jitter)-jitter, 0)),
		ID: p.ID,
	}
}

// Yarn is the translucent stroke drawn between pegs. Width and Opacity
// influence the pathing algorithm; Color is only used when rendering.
type Yarn struct {
	// Width of the yarn, in pixels.
	Width float32
	// Opacity in [0, 1]. Higher values lighten the working image faster and
	// discourage line overlap.
	Opacity float64
	// Color of the yarn when rendered.
	Color color.NRGBA
}

// DefaultYarn returns a 1 pixel wide black yarn with 0.2 opacity.
func DefaultYarn() Yarn {
	return Yarn{
		Width:   1,
		Opacity: 0.2,
		Color:   color.NRGBA{A: 255},
	}
}

func absDiff(a, b uint32) uint32 {
	if a > b {
		return a - b
	}
	return b - a
}

func max32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func clamp32(v, lo, hi int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
