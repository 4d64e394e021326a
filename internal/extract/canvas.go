// Package extract computes rotation-aware crops from an original bitmap and
// persists them under collision-safe names.
package extract

import (
	"fmt"
	"math"

	"moulding-cropper/pkg/geometry"
)

// Box is one finalized crop request in original-image coordinates. Rotation
// is the authoring angle in degrees: a positive angle tilts the drawn content
// clockwise, and extraction must undo exactly that.
type Box struct {
	X            int     `json:"x"`
	Y            int     `json:"y"`
	Width        int     `json:"width"`
	Height       int     `json:"height"`
	Rotation     float64 `json:"rotation"`
	ItemNumber   string  `json:"itemNumber"`
	FlipVertical bool    `json:"flipVertical"`
}

// Placement locates a box inside the rotated canvas: the bounding rectangle
// of the source bitmap rotated by -Rotation about its center.
type Placement struct {
	// RX, RY, Width, Height is the extraction rectangle in canvas coordinates.
	RX, RY        int
	Width, Height int

	// CanvasW, CanvasH are the rotated-canvas extents.
	CanvasW, CanvasH int

	// Transform maps original-image points into canvas coordinates.
	Transform geometry.AffineTransform
}

// placeBox computes where a box lands inside the rotated canvas.
//
// The authoring convention is clockwise-positive, so the extraction angle is
// theta = -rotation: rotating the bitmap by theta brings the box content back
// to axis alignment.
func placeBox(imgW, imgH int, box Box) (Placement, error) {
	if box.Width <= 0 || box.Height <= 0 {
		return Placement{}, fmt.Errorf("degenerate box %dx%d", box.Width, box.Height)
	}

	theta := -box.Rotation * math.Pi / 180
	pivot := geometry.Point2D{X: float64(imgW) / 2, Y: float64(imgH) / 2}
	rot := geometry.RotationAbout(theta, pivot)

	// The canvas is the bounding box of the rotated bitmap corners.
	src := geometry.NewRect(0, 0, float64(imgW), float64(imgH))
	corners := src.Corners()
	rotated := make([]geometry.Point2D, len(corners))
	for i, c := range corners {
		rotated[i] = rot.Apply(c)
	}
	bounds := geometry.BoundingBox(rotated)

	canvasW := int(math.Round(bounds.Width))
	canvasH := int(math.Round(bounds.Height))
	if canvasW <= 0 || canvasH <= 0 {
		return Placement{}, fmt.Errorf("degenerate canvas %dx%d", canvasW, canvasH)
	}

	// The box keeps its own dimensions; only its center moves.
	boxRect := geometry.NewRect(float64(box.X), float64(box.Y), float64(box.Width), float64(box.Height))
	ctr := rot.Apply(boxRect.Center())

	w := box.Width
	h := box.Height
	if w > canvasW {
		w = canvasW
	}
	if h > canvasH {
		h = canvasH
	}

	rx := int(math.Round(ctr.X - bounds.X - float64(box.Width)/2))
	ry := int(math.Round(ctr.Y - bounds.Y - float64(box.Height)/2))
	rx = clampInt(rx, 0, canvasW-w)
	ry = clampInt(ry, 0, canvasH-h)

	return Placement{
		RX: rx, RY: ry,
		Width: w, Height: h,
		CanvasW: canvasW, CanvasH: canvasH,
		Transform: geometry.Translation(-bounds.X, -bounds.Y).Compose(rot),
	}, nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
