package imgproc

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func solidNRGBA(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestToGrayLuminance(t *testing.T) {
	tests := []struct {
		c    color.NRGBA
		want uint8
	}{
		{color.NRGBA{R: 255, G: 255, B: 255, A: 255}, 255},
		{color.NRGBA{A: 255}, 0},
		{color.NRGBA{R: 255, A: 255}, 54},  // 0.2126 * 255
		{color.NRGBA{G: 255, A: 255}, 182}, // 0.7152 * 255
		{color.NRGBA{B: 255, A: 255}, 18},  // 0.0722 * 255
	}
	for _, tt := range tests {
		gray := ToGray(solidNRGBA(2, 2, tt.c))
		if gray.Pix[0] != tt.want {
			t.Fatalf("ToGray(%v) = %d, want %d", tt.c, gray.Pix[0], tt.want)
		}
	}
}

func TestFlattenTransparency(t *testing.T) {
	img := solidNRGBA(2, 1, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 0})

	out := FlattenTransparency(img)
	if got := out.NRGBAAt(0, 0); got != (color.NRGBA{R: 10, G: 20, B: 30, A: 255}) {
		t.Fatalf("opaque pixel changed: %v", got)
	}
	if got := out.NRGBAAt(1, 0); got != (color.NRGBA{R: 255, G: 255, B: 255, A: 255}) {
		t.Fatalf("transparent pixel not flattened to white: %v", got)
	}
	// input untouched
	if img.NRGBAAt(1, 0).A != 0 {
		t.Fatalf("input image was modified")
	}
}

func TestCloneGray(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 3, 3))
	src.Pix[4] = 99
	dst := CloneGray(src)
	dst.Pix[4] = 1
	if src.Pix[4] != 99 {
		t.Fatalf("clone shares storage with source")
	}
}

func TestNormalizeStretch(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 3, 1))
	src.Pix[0] = 50
	src.Pix[1] = 75
	src.Pix[2] = 100

	out := Normalize(src)
	if out.Pix[0] != 0 || out.Pix[2] != 255 {
		t.Fatalf("normalize did not stretch to full range: %v", out.Pix)
	}
	if out.Pix[1] != 128 {
		t.Fatalf("midpoint = %d, want 128", out.Pix[1])
	}

	// flat image is returned unchanged
	flat := image.NewGray(image.Rect(0, 0, 2, 1))
	flat.Pix[0] = 77
	flat.Pix[1] = 77
	out = Normalize(flat)
	if out.Pix[0] != 77 || out.Pix[1] != 77 {
		t.Fatalf("flat image changed: %v", out.Pix)
	}
}

func TestAutoOrient(t *testing.T) {
	// 2x1 image: A B
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	a := color.NRGBA{R: 1, A: 255}
	b := color.NRGBA{R: 2, A: 255}
	img.SetNRGBA(0, 0, a)
	img.SetNRGBA(1, 0, b)

	// orientation 1: unchanged
	if out := AutoOrient(img, 1); out.NRGBAAt(0, 0) != a {
		t.Fatalf("orientation 1 changed the image")
	}

	// orientation 2: mirrored horizontally: B A
	out := AutoOrient(img, 2)
	if out.NRGBAAt(0, 0) != b || out.NRGBAAt(1, 0) != a {
		t.Fatalf("orientation 2 wrong: %v %v", out.NRGBAAt(0, 0), out.NRGBAAt(1, 0))
	}

	// orientation 6 (90 CW): dimensions transpose, A on top
	out = AutoOrient(img, 6)
	if out.Bounds().Dx() != 1 || out.Bounds().Dy() != 2 {
		t.Fatalf("orientation 6 dimensions = %v, want 1x2", out.Bounds())
	}
	if out.NRGBAAt(0, 0) != a || out.NRGBAAt(0, 1) != b {
		t.Fatalf("orientation 6 wrong: %v %v", out.NRGBAAt(0, 0), out.NRGBAAt(0, 1))
	}

	// orientation 3 (180): B A
	out = AutoOrient(img, 3)
	if out.NRGBAAt(0, 0) != b || out.NRGBAAt(1, 0) != a {
		t.Fatalf("orientation 3 wrong: %v %v", out.NRGBAAt(0, 0), out.NRGBAAt(1, 0))
	}
}

func TestResizeLanczos(t *testing.T) {
	src := solidNRGBA(8, 8, color.NRGBA{R: 120, G: 130, B: 140, A: 255})
	out := ResizeLanczos(src, 4, 4)
	if out.Bounds().Dx() != 4 || out.Bounds().Dy() != 4 {
		t.Fatalf("resize dimensions = %v, want 4x4", out.Bounds())
	}
	// a uniform image stays uniform
	want := color.NRGBA{R: 120, G: 130, B: 140, A: 255}
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if got := out.NRGBAAt(x, y); got != want {
				t.Fatalf("pixel (%d, %d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestLoadPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "img.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	src := solidNRGBA(6, 4, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
	if err := png.Encode(f, src); err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	f.Close()

	img, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if img.Bounds().Dx() != 6 || img.Bounds().Dy() != 4 {
		t.Fatalf("loaded dimensions = %v, want 6x4", img.Bounds())
	}
	if got := img.NRGBAAt(3, 2); got != (color.NRGBA{R: 200, G: 100, B: 50, A: 255}) {
		t.Fatalf("loaded pixel = %v", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.png")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestJPEGOrientationTag(t *testing.T) {
	// minimal JPEG prefix: SOI + APP1 Exif segment with a single-entry IFD
	// carrying orientation 6 (big endian TIFF)
	data := []byte{
		0xFF, 0xD8, 0xFF, // SOI + fill
		0xFF, 0xE1, 0x00, 0x22, // APP1, length 34
		'E', 'x', 'i', 'f', 0x00, 0x00,
		'M', 'M', 0x00, 0x2A, // TIFF header
		0x00, 0x00, 0x00, 0x08, // IFD offset
		0x00, 0x01, // one entry
		0x01, 0x12, 0x00, 0x03, 0x00, 0x00, 0x00, 0x01, 0x00, 0x06, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, // next IFD
	}
	o, err := jpegOrientation(data)
	if err != nil {
		t.Fatalf("orientation scan failed: %v", err)
	}
	if o != 6 {
		t.Fatalf("orientation = %d, want 6", o)
	}
}

func TestJPEGOrientationAbsent(t *testing.T) {
	if _, err := jpegOrientation([]byte{0xFF, 0xD8, 0xFF, 0xDA, 0x00, 0x02, 0x00}); err == nil {
		t.Fatalf("expected error when no exif segment exists")
	}
}
