// Package view maps between screen and image coordinate spaces for the
// focused session. Unfocused sessions render unzoomed and unpanned.
package view

import (
	"math"

	"moulding-cropper/pkg/geometry"
)

const (
	// MinZoom and MaxZoom bound the zoom range; ZoomStep is the increment.
	MinZoom  = 0.5
	MaxZoom  = 3.0
	ZoomStep = 0.25
)

// Transform is a pure scale+pan mapping between screen and image space.
type Transform struct {
	Scale float64
	PanX  float64
	PanY  float64
}

// ToImage converts a screen-space point to image space.
func (t Transform) ToImage(p geometry.Point2D) geometry.Point2D {
	return geometry.Point2D{
		X: (p.X - t.PanX) / t.Scale,
		Y: (p.Y - t.PanY) / t.Scale,
	}
}

// ToScreen converts an image-space point to screen space.
func (t Transform) ToScreen(p geometry.Point2D) geometry.Point2D {
	return geometry.Point2D{
		X: p.X*t.Scale + t.PanX,
		Y: p.Y*t.Scale + t.PanY,
	}
}

// RectToScreen converts an image-space rectangle to screen space.
func (t Transform) RectToScreen(r geometry.Rect) geometry.Rect {
	tl := t.ToScreen(r.TopLeft())
	return geometry.Rect{X: tl.X, Y: tl.Y, Width: r.Width * t.Scale, Height: r.Height * t.Scale}
}

// FitScale returns the scale used for unfocused sessions: the image is shrunk
// to fit the render area but never enlarged.
func FitScale(imgW, imgH, maxW, maxH int) float64 {
	if imgW <= 0 || imgH <= 0 {
		return 1
	}
	s := math.Min(float64(maxW)/float64(imgW), float64(maxH)/float64(imgH))
	return math.Min(s, 1)
}

// State holds the zoom and pan for the focused session. It is a rendering and
// interaction concern only and is never persisted with extraction.
type State struct {
	Zoom float64
	PanX float64
	PanY float64
}

// NewState returns the reset view state (1x zoom, no pan).
func NewState() State {
	return State{Zoom: 1.0}
}

// Reset restores 1x zoom and zero pan. Called whenever focus changes.
func (s *State) Reset() {
	*s = NewState()
}

// ZoomIn raises zoom by one step, clamped to MaxZoom.
func (s *State) ZoomIn() {
	s.Zoom = math.Min(s.Zoom+ZoomStep, MaxZoom)
}

// ZoomOut lowers zoom by one step, clamped to MinZoom.
func (s *State) ZoomOut() {
	s.Zoom = math.Max(s.Zoom-ZoomStep, MinZoom)
}

// Pan sets the pan offset in screen pixels.
func (s *State) Pan(dx, dy float64) {
	s.PanX = dx
	s.PanY = dy
}

// Transform returns the screen/image mapping for the current state.
func (s State) Transform() Transform {
	return Transform{Scale: s.Zoom, PanX: s.PanX, PanY: s.PanY}
}
