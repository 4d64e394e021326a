package extract

import (
	"fmt"
	"image"
	"image/color"
	"path/filepath"

	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

// Crop describes one successfully extracted box.
type Crop struct {
	// ID is the 1-based ordinal of the box in the request.
	ID int

	// Filename is the output file name inside the namer's directory.
	Filename string

	// Label is the item number the crop was named from.
	Label string
}

// Engine persists rotation-aware crops of an original bitmap.
type Engine struct {
	namer *Namer
	log   *zap.SugaredLogger
}

// NewEngine creates an extraction engine writing into outputDir.
func NewEngine(outputDir string, vendorPrefixes map[string]string, log *zap.SugaredLogger) *Engine {
	return &Engine{
		namer: NewNamer(outputDir, vendorPrefixes),
		log:   log,
	}
}

// OutputDir returns the directory crops are written to.
func (e *Engine) OutputDir() string {
	return e.namer.Dir()
}

// ExtractAll extracts every box from the bitmap. A failing box is logged and
// skipped; the rest of the batch still runs. The result preserves input order
// restricted to the successful boxes.
func (e *Engine) ExtractAll(img gocv.Mat, boxes []Box, vendor string) []Crop {
	crops := make([]Crop, 0, len(boxes))
	for i, box := range boxes {
		crop, err := e.extractOne(img, box, vendor)
		if err != nil {
			e.log.Warnw("box extraction failed, skipping",
				"index", i, "label", box.ItemNumber, "error", err)
			continue
		}
		crop.ID = i + 1
		crops = append(crops, crop)
	}
	return crops
}

// extractOne runs the per-box algorithm: place the box inside the rotated
// canvas, warp the original onto that canvas, cut out the rectangle, apply
// the vertical flip, and persist under a collision-safe name.
func (e *Engine) extractOne(img gocv.Mat, box Box, vendor string) (Crop, error) {
	if img.Empty() {
		return Crop{}, fmt.Errorf("empty source image")
	}

	placement, err := placeBox(img.Cols(), img.Rows(), box)
	if err != nil {
		return Crop{}, err
	}

	canvas := warpToCanvas(img, placement)
	defer canvas.Close()

	roi := canvas.Region(image.Rect(
		placement.RX, placement.RY,
		placement.RX+placement.Width, placement.RY+placement.Height))
	out := roi.Clone()
	roi.Close()
	defer out.Close()

	if box.FlipVertical {
		flipped := gocv.NewMat()
		gocv.Flip(out, &flipped, 0)
		out.Close()
		out = flipped
	}

	filename, err := e.namer.Reserve(box.ItemNumber, vendor)
	if err != nil {
		return Crop{}, fmt.Errorf("failed to reserve output name: %w", err)
	}

	path := filepath.Join(e.namer.Dir(), filename)
	if ok := gocv.IMWrite(path, out); !ok {
		e.namer.Abandon(filename)
		return Crop{}, fmt.Errorf("failed to write %s", path)
	}

	return Crop{Filename: filename, Label: box.ItemNumber}, nil
}

// warpToCanvas rotates the original bitmap onto the rotated canvas, padding
// the uncovered corners with white to match catalog paper.
func warpToCanvas(img gocv.Mat, p Placement) gocv.Mat {
	m := p.Transform.ToMatrix()

	transformMat := gocv.NewMatWithSize(2, 3, gocv.MatTypeCV64F)
	defer transformMat.Close()
	for row := 0; row < 2; row++ {
		for col := 0; col < 3; col++ {
			transformMat.SetDoubleAt(row, col, m[row][col])
		}
	}

	dst := gocv.NewMat()
	gocv.WarpAffineWithParams(img, &dst, transformMat,
		image.Point{X: p.CanvasW, Y: p.CanvasH},
		gocv.InterpolationLinear, gocv.BorderConstant,
		color.RGBA{R: 255, G: 255, B: 255, A: 255})
	return dst
}
