package cli

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"math"
	"os"
	"os/exec"
	"strings"
)

// Terminal preview helper for the kitty and iTerm2 inline-image protocols,
// with sixel and chafa fallbacks.
//
// Backend selection order: inline-capable terminals first (most modern
// emulators implement the iTerm2 OSC 1337 sequence), then kitty's graphics
// protocol, then an external sixel renderer, then chafa block graphics.
// STRAND_PREVIEW_BACKEND forces a specific backend.

func previewDebugf(format string, args ...any) {
	if envBool("STRAND_PREVIEW_DEBUG") {
		fmt.Fprintf(os.Stderr, "strand-preview: "+format+"\n", args...)
	}
}

func isKitty() bool {
	if os.Getenv("KITTY_WINDOW_ID") != "" {
		return true
	}
	term := strings.ToLower(os.Getenv("TERM"))
	// ghostty and konsole expose kitty-compatible graphics support
	return strings.Contains(term, "kitty") || strings.Contains(term, "ghostty") ||
		os.Getenv("KONSOLE_VERSION") != ""
}

func isInlineImageCapable() bool {
	switch os.Getenv("TERM_PROGRAM") {
	case "iTerm.app", "WezTerm", "Warp", "Hyper", "vscode", "Tabby":
		return true
	}
	term := strings.ToLower(os.Getenv("TERM"))
	if strings.Contains(term, "wezterm") || strings.Contains(term, "warp") {
		return true
	}
	return os.Getenv("ITERM_SESSION_ID") != ""
}

func isSixelCapable() bool {
	if envBool("STRAND_SIXEL") {
		return true
	}
	term := strings.ToLower(os.Getenv("TERM"))
	if strings.Contains(term, "foot") {
		return true
	}
	// newer Windows Terminal versions support sixel
	return os.Getenv("WT_SESSION") != ""
}

func hasChafa() bool {
	_, err := exec.LookPath("chafa")
	return err == nil
}

// PreviewSupported reports whether the running terminal likely supports an
// inline preview, counting chafa availability as a valid fallback.
func PreviewSupported() bool {
	return isKitty() || isInlineImageCapable() || isSixelCapable() || hasChafa()
}

// previewSize is the target placement in terminal character cells.
type previewSize struct {
	cols, rows int
}

// computePreviewSize fits the image into a conservative character cell
// budget while preserving the aspect ratio. Never scales up.
func computePreviewSize(img image.Image) previewSize {
	const charW, charH = 8, 16
	const maxCols, maxRows = 80, 40

	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	scale := math.Min(1, math.Min(
		float64(maxCols*charW)/float64(w),
		float64(maxRows*charH)/float64(h),
	))

	cols := int(math.Round(float64(w) * scale / charW))
	rows := int(math.Round(float64(h) * scale / charH))
	if cols < 6 {
		cols = 6
	}
	if rows < 3 {
		rows = 3
	}
	return previewSize{cols: cols, rows: rows}
}

// PreviewImage encodes img as PNG and renders it inline in the terminal.
// Returns an error when no supported protocol or fallback is available.
func PreviewImage(img image.Image) error {
	if img == nil {
		return fmt.Errorf("nil image")
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("png encode failed: %w", err)
	}
	return previewBytes(buf.Bytes(), computePreviewSize(img))
}

func previewBytes(blob []byte, size previewSize) error {
	if backend := strings.ToLower(os.Getenv("STRAND_PREVIEW_BACKEND")); backend != "" {
		previewDebugf("backend override: %s", backend)
		switch backend {
		case "kitty":
			return sendKittyImage(blob, size)
		case "inline", "iterm", "wezterm":
			return sendInlineImage(blob)
		case "sixel":
			return sendSixelImage(blob)
		case "chafa":
			return sendChafaImage(blob, size)
		default:
			return fmt.Errorf("unknown preview backend %q", backend)
		}
	}

	if isInlineImageCapable() {
		previewDebugf("attempting inline protocol")
		if err := sendInlineImage(blob); err == nil {
			return nil
		}
	}
	if isKitty() {
		previewDebugf("attempting kitty protocol")
		if err := sendKittyImage(blob, size); err == nil {
			return nil
		}
	}
	if isSixelCapable() {
		previewDebugf("attempting sixel renderer")
		if err := sendSixelImage(blob); err == nil {
			return nil
		}
	}
	if hasChafa() {
		previewDebugf("falling back to chafa")
		if err := sendChafaImage(blob, size); err == nil {
			return nil
		}
	}
	return fmt.Errorf("no preview protocol matched")
}

// sendKittyImage transmits PNG bytes with the kitty graphics protocol,
// chunking the base64 payload into <=4096 byte chunks per the spec. The
// first chunk carries the placement parameters; q=2 suppresses terminal
// responses.
func sendKittyImage(data []byte, size previewSize) error {
	enc := base64.StdEncoding.EncodeToString(data)
	const chunkSize = 4096

	first := true
	for len(enc) > 0 {
		n := chunkSize
		if n > len(enc) {
			n = len(enc)
		}
		chunk := enc[:n]
		enc = enc[n:]

		more := 0
		if len(enc) > 0 {
			more = 1
		}
		var ctrl string
		if first {
			ctrl = fmt.Sprintf("a=T,f=100,c=%d,r=%d,q=2,m=%d", size.cols, size.rows, more)
			first = false
		} else {
			ctrl = fmt.Sprintf("m=%d", more)
		}
		if _, err := fmt.Fprintf(os.Stdout, "\x1b_G%s;%s\x1b\\", ctrl, chunk); err != nil {
			return err
		}
	}
	fmt.Println()
	return nil
}

// sendInlineImage transmits PNG bytes with the iTerm2 OSC 1337 inline file
// sequence.
func sendInlineImage(data []byte) error {
	enc := base64.StdEncoding.EncodeToString(data)
	seq := "\x1b]1337;File=name=preview.png;inline=1;size=" + fmt.Sprint(len(data)) + ":" + enc + "\a"
	if _, err := os.Stdout.WriteString(seq); err != nil {
		return err
	}
	fmt.Println()
	return nil
}

// sendSixelImage pipes PNG bytes through img2sixel.
func sendSixelImage(data []byte) error {
	cmd := exec.Command("img2sixel", "-")
	cmd.Stdin = bytes.NewReader(data)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("img2sixel failed: %w", err)
	}
	fmt.Println()
	return nil
}

// sendChafaImage renders PNG bytes as block graphics via chafa.
func sendChafaImage(data []byte, size previewSize) error {
	if _, err := exec.LookPath("chafa"); err != nil {
		return fmt.Errorf("chafa not found in PATH: %w", err)
	}
	cmd := exec.Command("chafa", "--fill=block", "--symbols=block",
		"-s", fmt.Sprintf("%dx%d", size.cols, size.rows), "-")
	cmd.Stdin = bytes.NewReader(data)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("chafa failed: %w", err)
	}
	return nil
}
