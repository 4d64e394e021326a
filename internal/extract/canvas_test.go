package extract

import (
	"testing"

	"moulding-cropper/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaceBoxZeroRotationIsIdentity(t *testing.T) {
	p, err := placeBox(1000, 800, Box{X: 120, Y: 60, Width: 300, Height: 100})
	require.NoError(t, err)

	assert.Equal(t, 1000, p.CanvasW)
	assert.Equal(t, 800, p.CanvasH)
	assert.Equal(t, 120, p.RX)
	assert.Equal(t, 60, p.RY)
	assert.Equal(t, 300, p.Width)
	assert.Equal(t, 100, p.Height)
}

func TestPlaceBoxQuarterTurn(t *testing.T) {
	// 100x100 image, box centered at (75, 50). Undoing a +90 degree tilt
	// rotates counterclockwise about (50, 50), carrying the center to (50, 25).
	p, err := placeBox(100, 100, Box{X: 50, Y: 40, Width: 50, Height: 20, Rotation: 90})
	require.NoError(t, err)

	assert.Equal(t, 100, p.CanvasW)
	assert.Equal(t, 100, p.CanvasH)
	assert.Equal(t, 25, p.RX) // 50 - 50/2
	assert.Equal(t, 15, p.RY) // 25 - 20/2
}

func TestPlaceBoxKeepsBoxDimensions(t *testing.T) {
	for _, deg := range []float64{-45, -10, -0.15, 0.15, 7.5, 30, 45} {
		p, err := placeBox(2000, 1500, Box{X: 400, Y: 300, Width: 500, Height: 120, Rotation: deg})
		require.NoError(t, err)
		assert.Equal(t, 500, p.Width, "rotation %v", deg)
		assert.Equal(t, 120, p.Height, "rotation %v", deg)
	}
}

func TestPlaceBoxCanvasGrowsWithRotation(t *testing.T) {
	p, err := placeBox(1000, 800, Box{X: 100, Y: 100, Width: 200, Height: 80, Rotation: 30})
	require.NoError(t, err)

	// cos(30)*1000 + sin(30)*800 = 1266, cos(30)*800 + sin(30)*1000 = 1193.
	assert.Equal(t, 1266, p.CanvasW)
	assert.Equal(t, 1193, p.CanvasH)
}

func TestPlaceBoxTransformMapsCornersIntoCanvas(t *testing.T) {
	// Every rotated image corner must land inside the canvas, since the
	// canvas is defined as their bounding rectangle.
	for _, deg := range []float64{-45, -20, 0, 15, 45} {
		p, err := placeBox(1000, 800, Box{X: 100, Y: 100, Width: 200, Height: 80, Rotation: deg})
		require.NoError(t, err)

		src := geometry.NewRect(0, 0, 1000, 800)
		for _, c := range src.Corners() {
			mapped := p.Transform.Apply(c)
			assert.GreaterOrEqual(t, mapped.X, -0.5)
			assert.GreaterOrEqual(t, mapped.Y, -0.5)
			assert.LessOrEqual(t, mapped.X, float64(p.CanvasW)+0.5)
			assert.LessOrEqual(t, mapped.Y, float64(p.CanvasH)+0.5)
		}
	}
}

func TestPlaceBoxCentersBoxUnderTransform(t *testing.T) {
	// The extraction rectangle must sit on the transformed box center for any
	// angle, up to integer rounding and edge clamping.
	for _, deg := range []float64{-45, -12.3, 0, 0.15, 8, 45} {
		box := Box{X: 700, Y: 500, Width: 400, Height: 150, Rotation: deg}
		p, err := placeBox(2000, 1600, box)
		require.NoError(t, err)

		ctr := p.Transform.Apply(geometry.NewPoint2D(
			float64(box.X)+float64(box.Width)/2,
			float64(box.Y)+float64(box.Height)/2,
		))
		assert.InDelta(t, ctr.X, float64(p.RX)+float64(p.Width)/2, 1.0, "rotation %v", deg)
		assert.InDelta(t, ctr.Y, float64(p.RY)+float64(p.Height)/2, 1.0, "rotation %v", deg)
	}
}

func TestPlaceBoxClampsToCanvas(t *testing.T) {
	// A box hugging the top-left corner stays inside the canvas after the
	// tilt is undone, whatever rounding does at the boundary.
	p, err := placeBox(1000, 800, Box{X: 0, Y: 0, Width: 300, Height: 100, Rotation: 20})
	require.NoError(t, err)

	assert.GreaterOrEqual(t, p.RX, 0)
	assert.GreaterOrEqual(t, p.RY, 0)
	assert.LessOrEqual(t, p.RX+p.Width, p.CanvasW)
	assert.LessOrEqual(t, p.RY+p.Height, p.CanvasH)
}

func TestPlaceBoxRejectsDegenerate(t *testing.T) {
	_, err := placeBox(1000, 800, Box{X: 0, Y: 0, Width: 0, Height: 100})
	assert.Error(t, err)
	_, err = placeBox(1000, 800, Box{X: 0, Y: 0, Width: 100, Height: -5})
	assert.Error(t, err)
}

func TestPlaceBoxTinyRotationStep(t *testing.T) {
	// One bracket step barely moves anything: the canvas stays within a few
	// pixels of the source and the rectangle within a pixel of the original.
	p, err := placeBox(1000, 800, Box{X: 120, Y: 60, Width: 300, Height: 100, Rotation: 0.15})
	require.NoError(t, err)

	assert.InDelta(t, 1000, p.CanvasW, 4)
	assert.InDelta(t, 800, p.CanvasH, 4)
	assert.InDelta(t, 120, p.RX, 3)
	assert.InDelta(t, 60, p.RY, 3)
	assert.Equal(t, 300, p.Width)
}
