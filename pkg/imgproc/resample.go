package imgproc

import (
	"image"
	"math"
)

const lanczosWindow = 3.0

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	x = math.Pi * x
	return math.Sin(x) / x
}

func lanczosKernel(x, a float64) float64 {
	x = math.Abs(x)
	if x < 1e-12 {
		return 1
	}
	if x >= a {
		return 0
	}
	return sinc(x) * sinc(x/a)
}

func pixelClamped(src *image.NRGBA, x, y int) []uint8 {
	b := src.Bounds()
	if x < b.Min.X {
		x = b.Min.X
	} else if x >= b.Max.X {
		x = b.Max.X - 1
	}
	if y < b.Min.Y {
		y = b.Min.Y
	} else if y >= b.Max.Y {
		y = b.Max.Y - 1
	}
	i := src.PixOffset(x, y)
	return src.Pix[i : i+4]
}

// ResizeLanczos resamples src to dstW x dstH using a Lanczos filter (a=3).
// The CLI uses it to bound the working resolution before pathing; smaller
// working images mean shorter cached lines and a smaller line cache.
func ResizeLanczos(src *image.NRGBA, dstW, dstH int) *image.NRGBA {
	srcB := src.Bounds()
	srcW := srcB.Dx()
	srcH := srcB.Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, dstW, dstH))
	if dstW <= 0 || dstH <= 0 {
		return dst
	}

	xScale := float64(srcW) / float64(dstW)
	yScale := float64(srcH) / float64(dstH)
	a := lanczosWindow

	for y := 0; y < dstH; y++ {
		sy := (float64(y)+0.5)*yScale - 0.5
		yMin := int(math.Floor(sy - a + 1))
		yMax := int(math.Ceil(sy + a - 1))
		for x := 0; x < dstW; x++ {
			sx := (float64(x)+0.5)*xScale - 0.5
			xMin := int(math.Floor(sx - a + 1))
			xMax := int(math.Ceil(sx + a - 1))

			var sum [4]float64
			weightSum := 0.0
			for yi := yMin; yi <= yMax; yi++ {
				wy := lanczosKernel(float64(yi)-sy, a)
				for xi := xMin; xi <= xMax; xi++ {
					w := lanczosKernel(float64(xi)-sx, a) * wy
					c := pixelClamped(src, xi, yi)
					sum[0] += float64(c[0]) * w
					sum[1] += float64(c[1]) * w
					sum[2] += float64(c[2]) * w
					sum[3] += float64(c[3]) * w
					weightSum += w
				}
			}
			if weightSum == 0 {
				weightSum = 1
			}
			i := dst.PixOffset(x, y)
			for ch := 0; ch < 4; ch++ {
				v := math.Round(sum[ch] / weightSum)
				if v < 0 {
					v = 0
				} else if v > 255 {
					v = 255
				}
				dst.Pix[i+ch] = uint8(v)
			}
		}
	}
	return dst
}
