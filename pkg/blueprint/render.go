package blueprint

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/vector"

	"github.com/Fepozopo/strand/pkg/peg"
)

// RenderSVG renders the Blueprint as an SVG document string, one path
// element per peg pair.
func (bp *Blueprint) RenderSVG(yarn peg.Yarn) string {
	renderW := uint32(math.Round(float64(bp.Width) * bp.RenderScale))
	renderH := uint32(math.Round(float64(bp.Height) * bp.RenderScale))

	var sb strings.Builder
	fmt.Fprintf(&sb, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" width="%d" height="%d">`,
		renderW, renderH, renderW, renderH)
	sb.WriteByte('\n')
	if bp.Background != nil {
		bg := *bp.Background
		fmt.Fprintf(&sb, `<rect x="0" y="0" width="100%%" height="100%%" fill="rgb(%d, %d, %d)"/>`,
			bg[0], bg[1], bg[2])
		sb.WriteByte('\n')
	}
	c := yarn.Color
	bp.Pairs(func(a, b peg.Peg) {
		fmt.Fprintf(&sb,
			`<path fill="none" stroke="rgb(%d, %d, %d)" stroke-width="%g" opacity="%g" stroke-linecap="round" d="M%d,%d L%d,%d"/>`,
			c.R, c.G, c.B, yarn.Width, yarn.Opacity,
			uint32(float64(a.X)*bp.RenderScale), uint32(float64(a.Y)*bp.RenderScale),
			uint32(float64(b.X)*bp.RenderScale), uint32(float64(b.Y)*bp.RenderScale))
		sb.WriteByte('\n')
	})
	sb.WriteString("</svg>\n")
	return sb.String()
}

// RenderImage renders the Blueprint to an NRGBA image with antialiased
// strokes. Each segment is rasterized as a stroked quad and composited over
// the background with the yarn's opacity.
func (bp *Blueprint) RenderImage(yarn peg.Yarn) *image.NRGBA {
	renderW := int(math.Round(float64(bp.Width) * bp.RenderScale))
	renderH := int(math.Round(float64(bp.Height) * bp.RenderScale))
	if renderW < 1 {
		renderW = 1
	}
	if renderH < 1 {
		renderH = 1
	}

	dst := image.NewNRGBA(image.Rect(0, 0, renderW, renderH))
	if bp.Background != nil {
		bg := *bp.Background
		fill := color.NRGBA{R: bg[0], G: bg[1], B: bg[2], A: 255}
		draw.Draw(dst, dst.Bounds(), image.NewUniform(fill), image.Point{}, draw.Src)
	}

	stroke := color.NRGBA{
		R: yarn.Color.R,
		G: yarn.Color.G,
		B: yarn.Color.B,
		A: uint8(math.Round(yarn.Opacity * 255)),
	}
	src := image.NewUniform(stroke)
	halfWidth := float64(yarn.Width) * bp.RenderScale / 2
	if halfWidth <= 0 {
		halfWidth = 0.5
	}

	r := vector.NewRasterizer(renderW, renderH)
	bp.Pairs(func(a, b peg.Peg) {
		ax := float64(a.X) * bp.RenderScale
		ay := float64(a.Y) * bp.RenderScale
		bx := float64(b.X) * bp.RenderScale
		by := float64(b.Y) * bp.RenderScale

		dx := bx - ax
		dy := by - ay
		length := math.Hypot(dx, dy)
		if length == 0 {
			return
		}
		// unit normal scaled to half the stroke width
		nx := -dy / length * halfWidth
		ny := dx / length * halfWidth

		r.Reset(renderW, renderH)
		r.DrawOp = draw.Over
		r.MoveTo(float32(ax+nx), float32(ay+ny))
		r.LineTo(float32(bx+nx), float32(by+ny))
		r.LineTo(float32(bx-nx), float32(by-ny))
		r.LineTo(float32(ax-nx), float32(ay-ny))
		r.ClosePath()
		r.Draw(dst, dst.Bounds(), src, image.Point{})
	})
	return dst
}

// Render writes the Blueprint to path, dispatching on the file extension:
// .svg writes an SVG document, .json the blueprint record, .jpg/.jpeg/.gif
// the raster render in that encoding (alpha flattened to white) and
// anything else a PNG.
func (bp *Blueprint) Render(path string, yarn peg.Yarn) error {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".svg":
		if err := os.WriteFile(path, []byte(bp.RenderSVG(yarn)), 0o644); err != nil {
			return fmt.Errorf("failed to write svg %s: %w", path, err)
		}
		return nil
	case ".json":
		return bp.ToFile(path)
	}

	img := bp.RenderImage(yarn)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	switch ext {
	case ".jpg", ".jpeg":
		return jpeg.Encode(f, flattenToWhite(img), &jpeg.Options{Quality: 95})
	case ".gif":
		return gif.Encode(f, flattenToWhite(img), nil)
	default:
		return png.Encode(f, img)
	}
}

// flattenToWhite composites img over white for encoders without an alpha
// channel.
func flattenToWhite(img *image.NRGBA) *image.NRGBA {
	out := image.NewNRGBA(img.Rect)
	draw.Draw(out, out.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(out, out.Bounds(), img, img.Rect.Min, draw.Over)
	return out
}
