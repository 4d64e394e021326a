package extract

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"moulding-cropper/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

var black = color.RGBA{A: 255}

func whiteMat(rows, cols int) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(
		gocv.NewScalar(255, 255, 255, 0), rows, cols, gocv.MatTypeCV8UC3)
}

func readCrop(t *testing.T, e *Engine, c Crop) gocv.Mat {
	t.Helper()
	m := gocv.IMRead(filepath.Join(e.OutputDir(), c.Filename), gocv.IMReadColor)
	require.False(t, m.Empty(), "crop %s not readable", c.Filename)
	return m
}

func TestExtractAllSkipsFailingBoxAndKeepsOrder(t *testing.T) {
	img := whiteMat(100, 100)
	defer img.Close()

	e := NewEngine(t.TempDir(), nil, logger.Nop())
	boxes := []Box{
		{X: 10, Y: 20, Width: 50, Height: 30, ItemNumber: "1001"},
		{X: 10, Y: 20, Width: 0, Height: 30, ItemNumber: "9999"},
		{X: 40, Y: 50, Width: 50, Height: 20, ItemNumber: "1002"},
	}

	crops := e.ExtractAll(img, boxes, "")
	require.Len(t, crops, 2)

	// IDs are the 1-based input ordinals, so the skipped box leaves a gap.
	assert.Equal(t, 1, crops[0].ID)
	assert.Equal(t, "1001", crops[0].Label)
	assert.Equal(t, 3, crops[1].ID)
	assert.Equal(t, "1002", crops[1].Label)

	// The failed box leaves nothing behind in the output directory.
	entries, err := os.ReadDir(e.OutputDir())
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.FileExists(t, filepath.Join(e.OutputDir(), crops[0].Filename))
	assert.FileExists(t, filepath.Join(e.OutputDir(), crops[1].Filename))
}

func TestExtractAllEmptyImage(t *testing.T) {
	img := gocv.NewMat()
	defer img.Close()

	e := NewEngine(t.TempDir(), nil, logger.Nop())
	crops := e.ExtractAll(img, []Box{{X: 0, Y: 0, Width: 50, Height: 20, ItemNumber: "1001"}}, "")
	assert.Empty(t, crops)

	entries, err := os.ReadDir(e.OutputDir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExtractZeroRotationCopiesPixels(t *testing.T) {
	img := whiteMat(100, 100)
	defer img.Close()
	gocv.Rectangle(&img, image.Rect(10, 20, 60, 50), black, -1)

	e := NewEngine(t.TempDir(), nil, logger.Nop())
	crops := e.ExtractAll(img, []Box{{X: 10, Y: 20, Width: 50, Height: 30, ItemNumber: "1001"}}, "")
	require.Len(t, crops, 1)

	out := readCrop(t, e, crops[0])
	defer out.Close()

	assert.Equal(t, 30, out.Rows())
	assert.Equal(t, 50, out.Cols())
	center := out.GetVecbAt(15, 25)
	assert.Less(t, int(center[0]), 10)
}

func TestExtractFlipVertical(t *testing.T) {
	img := whiteMat(100, 100)
	defer img.Close()
	// Darken only the top half of the box region.
	gocv.Rectangle(&img, image.Rect(10, 20, 60, 35), black, -1)

	e := NewEngine(t.TempDir(), nil, logger.Nop())
	crops := e.ExtractAll(img,
		[]Box{{X: 10, Y: 20, Width: 50, Height: 30, ItemNumber: "2002", FlipVertical: true}}, "")
	require.Len(t, crops, 1)

	out := readCrop(t, e, crops[0])
	defer out.Close()

	// After the flip the dark half sits at the bottom.
	top := out.GetVecbAt(3, 25)
	bottom := out.GetVecbAt(26, 25)
	assert.Greater(t, int(top[0]), 200)
	assert.Less(t, int(bottom[0]), 50)
}

func TestExtractSmallRotationKeepsInteriorPixels(t *testing.T) {
	// A box strictly inside a solid dark region: undoing the tilt must keep
	// every crop pixel dark and preserve the box dimensions.
	img := whiteMat(200, 200)
	defer img.Close()
	gocv.Rectangle(&img, image.Rect(40, 40, 160, 160), black, -1)

	e := NewEngine(t.TempDir(), nil, logger.Nop())
	crops := e.ExtractAll(img,
		[]Box{{X: 75, Y: 85, Width: 50, Height: 30, Rotation: 5, ItemNumber: "3003"}}, "")
	require.Len(t, crops, 1)

	out := readCrop(t, e, crops[0])
	defer out.Close()

	assert.Equal(t, 30, out.Rows())
	assert.Equal(t, 50, out.Cols())
	for _, p := range []image.Point{{X: 5, Y: 5}, {X: 25, Y: 15}, {X: 45, Y: 25}} {
		v := out.GetVecbAt(p.Y, p.X)
		assert.Less(t, int(v[0]), 30, "pixel %v", p)
	}
}
