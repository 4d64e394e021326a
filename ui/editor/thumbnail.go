package editor

import (
	"image"

	"moulding-cropper/internal/view"

	xdraw "golang.org/x/image/draw"
)

// Thumbnail downscales a bitmap to fit the given area using the unfocused
// session scale rule: shrink to fit, never enlarge.
func Thumbnail(src image.Image, maxW, maxH int) image.Image {
	bounds := src.Bounds()
	scale := view.FitScale(bounds.Dx(), bounds.Dy(), maxW, maxH)
	if scale >= 1 {
		return src
	}

	w := int(float64(bounds.Dx()) * scale)
	h := int(float64(bounds.Dy()) * scale)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}
