package peg

import (
	"image"
	"math"
)

// Line holds the rasterized pixel coordinates of a yarn stroke between two
// pegs. X and Y always have the same length and contain no duplicate
// coordinate pairs; the order of the pixels is unspecified.
type Line struct {
	X []uint32
	Y []uint32
	// Dist is the rounded Euclidean distance between the two source pegs,
	// independent of the stroke width.
	Dist uint32
}

// NewLine creates a Line. Panics if the coordinate slices differ in length.
func NewLine(x, y []uint32, dist uint32) Line {
	if len(x) != len(y) {
		panic("peg: line coordinate slices must have the same length")
	}
	return Line{X: x, Y: y, Dist: dist}
}

// Len returns the number of pixels covered by the line.
func (l Line) Len() int {
	return len(l.X)
}

// Loss computes the mean normalized brightness of the line's pixels over a
// single channel image. The result is in [0, 1]; lower means darker, which
// is a better match when drawing dark yarn on a bright canvas.
func (l Line) Loss(img *image.Gray) float64 {
	var sum float64
	for i := range l.X {
		sum += float64(img.Pix[img.PixOffset(int(l.X[i]), int(l.Y[i]))])
	}
	return sum / (255 * float64(l.Len()))
}

// Draw lightens the line's pixels on img by alpha compositing:
// p <- clamp(round((1-opacity)*p + color), 0, 255). The update is pointwise,
// so the order in which pixels are visited does not matter.
func (l Line) Draw(img *image.Gray, opacity, color float64) {
	keep := 1 - opacity
	for i := range l.X {
		off := img.PixOffset(int(l.X[i]), int(l.Y[i]))
		v := math.Round(keep*float64(img.Pix[off]) + color)
		if v < 0 {
			v = 0
		} else if v > 255 {
			v = 255
		}
		img.Pix[off] = uint8(v)
	}
}
