package imgproc

import (
	"image"
)

// AutoOrient applies an EXIF orientation (1..8) to src and returns the
// upright image. Orientation 1 and out-of-range values return src unchanged.
func AutoOrient(src *image.NRGBA, orientation int) *image.NRGBA {
	switch orientation {
	case 2:
		return remap(src, false, func(w, h, x, y int) (int, int) { return w - 1 - x, y })
	case 3:
		return remap(src, false, func(w, h, x, y int) (int, int) { return w - 1 - x, h - 1 - y })
	case 4:
		return remap(src, false, func(w, h, x, y int) (int, int) { return x, h - 1 - y })
	case 5:
		// transpose
		return remap(src, true, func(w, h, x, y int) (int, int) { return y, x })
	case 6:
		// rotate 90 CW
		return remap(src, true, func(w, h, x, y int) (int, int) { return h - 1 - y, x })
	case 7:
		// transverse
		return remap(src, true, func(w, h, x, y int) (int, int) { return h - 1 - y, w - 1 - x })
	case 8:
		// rotate 90 CCW
		return remap(src, true, func(w, h, x, y int) (int, int) { return y, w - 1 - x })
	default:
		return src
	}
}

// remap copies every source pixel to the destination coordinate returned by
// move(w, h, x, y). swap selects a destination with transposed dimensions.
func remap(src *image.NRGBA, swap bool, move func(w, h, x, y int) (int, int)) *image.NRGBA {
	b := src.Bounds()
	w := b.Dx()
	h := b.Dy()
	var out *image.NRGBA
	if swap {
		out = image.NewNRGBA(image.Rect(0, 0, h, w))
	} else {
		out = image.NewNRGBA(image.Rect(0, 0, w, h))
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx, dy := move(w, h, x, y)
			srcIdx := src.PixOffset(b.Min.X+x, b.Min.Y+y)
			dstIdx := out.PixOffset(dx, dy)
			copy(out.Pix[dstIdx:dstIdx+4], src.Pix[srcIdx:srcIdx+4])
		}
	}
	return out
}
