package detect

import (
	"image"

	"gocv.io/x/gocv"
)

// prepare converts an image to contrast-enhanced grayscale. This is the mild
// preprocessing used for whole-catalog recognition, where the scan is already
// clean print on white.
func prepare(img gocv.Mat) gocv.Mat {
	gray := gocv.NewMat()
	gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)

	clahe := gocv.NewCLAHEWithParams(2.0, image.Point{X: 8, Y: 8})
	defer clahe.Close()

	enhanced := gocv.NewMat()
	clahe.Apply(gray, &enhanced)
	gray.Close()

	result := gocv.NewMat()
	gocv.CvtColor(enhanced, &result, gocv.ColorGrayToBGR)
	enhanced.Close()
	return result
}

// prepareStrong applies aggressive contrast, binarization, and sharpening.
// Screenshots carry anti-aliased UI text that needs this before recognition.
func prepareStrong(img gocv.Mat) gocv.Mat {
	gray := gocv.NewMat()
	gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)

	clahe := gocv.NewCLAHEWithParams(3.0, image.Point{X: 8, Y: 8})
	defer clahe.Close()

	enhanced := gocv.NewMat()
	clahe.Apply(gray, &enhanced)
	gray.Close()

	binary := gocv.NewMat()
	gocv.Threshold(enhanced, &binary, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)
	enhanced.Close()

	// Recognition expects dark text on light background; invert if the image
	// is mostly dark.
	whiteCount := gocv.CountNonZero(binary)
	if float64(whiteCount) < 0.5*float64(binary.Rows()*binary.Cols()) {
		gocv.BitwiseNot(binary, &binary)
	}

	kernel := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV32F)
	defer kernel.Close()
	sharpen := []float32{0, -1, 0, -1, 5, -1, 0, -1, 0}
	for i, v := range sharpen {
		kernel.SetFloatAt(i/3, i%3, v)
	}

	sharp := gocv.NewMat()
	gocv.Filter2D(binary, &sharp, -1, kernel, image.Point{X: -1, Y: -1}, 0, gocv.BorderDefault)
	binary.Close()

	result := gocv.NewMat()
	gocv.CvtColor(sharp, &result, gocv.ColorGrayToBGR)
	sharp.Close()
	return result
}
