// Package blueprint holds the result of the pathing algorithm: the ordered
// peg sequence, the canvas dimensions and the render settings. It knows how
// to round-trip itself through JSON and how to render to SVG or raster.
package blueprint

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Fepozopo/strand/pkg/peg"
)

// Blueprint is an ordered sequence of pegs forming a string art path. The
// JSON field names are stable; external renderers consume them.
type Blueprint struct {
	// PegOrder is the order with which to connect the pegs.
	PegOrder []peg.Peg `json:"peg_order"`
	// Width and Height of the canvas, same dimensions as the source image.
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
	// Background color. Nil means no background: transparent for SVG and
	// alpha-capable raster formats.
	Background *[3]uint8 `json:"background"`
	// RenderScale up/down scales the render output.
	RenderScale float64 `json:"render_scale"`
}

// New creates a Blueprint.
func New(pegOrder []peg.Peg, width, height uint32, background *[3]uint8, renderScale float64) *Blueprint {
	return &Blueprint{
		PegOrder:    pegOrder,
		Width:       width,
		Height:      height,
		Background:  background,
		RenderScale: renderScale,
	}
}

// FromFile reads a Blueprint from a JSON file.
func FromFile(path string) (*Blueprint, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read blueprint %s: %w", path, err)
	}
	var out Blueprint
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("failed to decode blueprint %s: %w", path, err)
	}
	return &out, nil
}

// ToFile writes the Blueprint to a JSON file.
func (bp *Blueprint) ToFile(path string) error {
	b, err := json.Marshal(bp)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("failed to write blueprint %s: %w", path, err)
	}
	return nil
}

// Segments returns the number of line segments in the path.
func (bp *Blueprint) Segments() int {
	if len(bp.PegOrder) == 0 {
		return 0
	}
	return len(bp.PegOrder) - 1
}

// Pairs calls fn for every consecutive peg pair along the path.
func (bp *Blueprint) Pairs(fn func(a, b peg.Peg)) {
	for i := 0; i+1 < len(bp.PegOrder); i++ {
		fn(bp.PegOrder[i], bp.PegOrder[i+1])
	}
}
