// Package session holds the per-image crop box collections edited by the operator.
package session

import (
	"image/color"
	"math"
)

const (
	// MinBoxWidth and MinBoxHeight are the smallest usable crop dimensions,
	// enforced on every mutation.
	MinBoxWidth  = 50
	MinBoxHeight = 20

	// RotationStep is the per-keypress rotation adjustment in degrees.
	RotationStep = 0.15
)

// Palette is the fixed set of display colors assigned to boxes. A box's
// ColorIndex is derived from its ID so colors are stable across re-renders.
var Palette = []color.RGBA{
	{R: 0xe6, G: 0x19, B: 0x4b, A: 0xff},
	{R: 0x3c, G: 0xb4, B: 0x4b, A: 0xff},
	{R: 0x43, G: 0x63, B: 0xd8, A: 0xff},
	{R: 0xf5, G: 0x82, B: 0x31, A: 0xff},
	{R: 0x91, G: 0x1e, B: 0xb4, A: 0xff},
	{R: 0x46, G: 0xf0, B: 0xf0, A: 0xff},
	{R: 0xf0, G: 0x32, B: 0xe6, A: 0xff},
	{R: 0x80, G: 0x80, B: 0x00, A: 0xff},
}

// CropBox is an operator-defined rectangle denoting one extractable region.
// Coordinates are in original-bitmap pixel units.
type CropBox struct {
	ID           int     `json:"id"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Width        float64 `json:"width"`
	Height       float64 `json:"height"`
	Rotation     float64 `json:"rotation"`
	FlipVertical bool    `json:"flipVertical"`
	Label        string  `json:"label"`
	ColorIndex   int     `json:"colorIndex"`
}

// Color returns the display color for the box.
func (b *CropBox) Color() color.RGBA {
	return Palette[b.ColorIndex%len(Palette)]
}

// clamp enforces minimum size and image bounds on the box. Size clamps are
// applied first so the subsequent position clamp sees the final dimensions.
func (b *CropBox) clamp(imgW, imgH int) {
	w, h := float64(imgW), float64(imgH)

	b.Width = math.Max(b.Width, MinBoxWidth)
	b.Height = math.Max(b.Height, MinBoxHeight)
	b.Width = math.Min(b.Width, w)
	b.Height = math.Min(b.Height, h)

	b.X = math.Min(math.Max(b.X, 0), w-b.Width)
	b.Y = math.Min(math.Max(b.Y, 0), h-b.Height)
}

// colorIndexForID maps a box ID onto the palette.
func colorIndexForID(id int) int {
	return (id - 1) % len(Palette)
}
