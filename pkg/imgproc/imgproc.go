// Package imgproc prepares input images for the pathing algorithm: decoding,
// EXIF orientation, transparency flattening, grayscale conversion and the
// few preprocessing operations the CLI exposes.
package imgproc

import (
	"image"
	"math"
)

// ToNRGBA converts any image.Image to *image.NRGBA. The input is never
// modified; a copy is returned even when src already is an NRGBA.
func ToNRGBA(src image.Image) *image.NRGBA {
	if n, ok := src.(*image.NRGBA); ok {
		out := image.NewNRGBA(n.Rect)
		copy(out.Pix, n.Pix)
		return out
	}
	b := src.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	idx := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := src.At(x, y).RGBA()
			// 16-bit [0, 65535] to 8-bit
			out.Pix[idx+0] = uint8(r >> 8)
			out.Pix[idx+1] = uint8(g >> 8)
			out.Pix[idx+2] = uint8(bl >> 8)
			out.Pix[idx+3] = uint8(a >> 8)
			idx += 4
		}
	}
	return out
}

// CloneGray returns a copy of the provided single channel image.
func CloneGray(src *image.Gray) *image.Gray {
	out := image.NewGray(src.Rect)
	copy(out.Pix, src.Pix)
	return out
}

// FlattenTransparency replaces fully transparent pixels with opaque white so
// that transparent regions read as background rather than black once the
// image is converted to grayscale.
func FlattenTransparency(src *image.NRGBA) *image.NRGBA {
	out := image.NewNRGBA(src.Rect)
	copy(out.Pix, src.Pix)
	for i := 0; i < len(out.Pix); i += 4 {
		if out.Pix[i+3] == 0 {
			out.Pix[i+0] = 255
			out.Pix[i+1] = 255
			out.Pix[i+2] = 255
			out.Pix[i+3] = 255
		}
	}
	return out
}

// ToGray projects src onto a single channel using Rec. 709 luminance.
func ToGray(src *image.NRGBA) *image.Gray {
	b := src.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	gi := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			i := src.PixOffset(x, y)
			r := float64(src.Pix[i+0])
			g := float64(src.Pix[i+1])
			bl := float64(src.Pix[i+2])
			out.Pix[gi] = uint8(math.Round(0.2126*r + 0.7152*g + 0.0722*bl))
			gi++
		}
	}
	return out
}
