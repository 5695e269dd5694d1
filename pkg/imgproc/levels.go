package imgproc

import (
	"image"
	"math"
)

// Normalize stretches the single channel to the full [0, 255] range. A flat
// image (min == max) is returned unchanged. Stretching the contrast before
// pathing gives the loss function more dynamic range to discriminate
// candidate lines.
func Normalize(src *image.Gray) *image.Gray {
	var lo, hi uint8 = 255, 0
	for _, p := range src.Pix {
		if p < lo {
			lo = p
		}
		if p > hi {
			hi = p
		}
	}
	out := image.NewGray(src.Rect)
	if lo >= hi {
		copy(out.Pix, src.Pix)
		return out
	}
	for i, p := range src.Pix {
		out.Pix[i] = uint8(math.Round(float64(p-lo) * 255 / float64(hi-lo)))
	}
	return out
}
