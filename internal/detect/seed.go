package detect

import (
	"math"

	"moulding-cropper/internal/session"
	"moulding-cropper/pkg/geometry"
)

// Catalog seeding layout: one fixed-size box per candidate, stacked down the
// page with a fixed margin.
const (
	catalogSeedWidth  = 600
	catalogSeedHeight = 220
	catalogSeedMargin = 40
)

// Screenshot seeding layout: two fixed boxes at symmetric column positions.
const (
	screenshotSeedInset  = 0.06 // horizontal inset as a fraction of width
	screenshotSeedWidth  = 0.38 // box width as a fraction of width
	screenshotSeedTop    = 0.25 // top edge as a fraction of height
	screenshotSeedHeight = 0.50 // box height as a fraction of height
)

// SeedCatalog fills a fresh session with one box per candidate, in candidate
// order. With no candidates a single unlabeled placeholder box is created.
func SeedCatalog(s *session.Session, cands []Candidate) {
	if len(cands) == 0 {
		s.Add(geometry.NewRect(catalogSeedMargin, catalogSeedMargin,
			catalogSeedWidth, catalogSeedHeight), "")
		return
	}

	y := float64(catalogSeedMargin)
	for _, c := range cands {
		s.Add(geometry.NewRect(catalogSeedMargin, y, catalogSeedWidth, catalogSeedHeight), c.Text)
		y += catalogSeedHeight + catalogSeedMargin
	}
}

// SeedScreenshot always creates exactly two boxes at symmetric column
// positions, then labels each with the corresponding detected number when one
// exists. Undetected boxes keep the empty placeholder label.
func SeedScreenshot(s *session.Session, cands []Candidate) {
	w, h := float64(s.Width), float64(s.Height)

	boxW := math.Round(screenshotSeedWidth * w)
	boxH := math.Round(screenshotSeedHeight * h)
	inset := math.Round(screenshotSeedInset * w)
	top := math.Round(screenshotSeedTop * h)

	left := geometry.NewRect(inset, top, boxW, boxH)
	right := geometry.NewRect(w-inset-boxW, top, boxW, boxH)

	for i, r := range []geometry.Rect{left, right} {
		label := ""
		if i < len(cands) {
			label = cands[i].Text
		}
		s.Add(r, label)
	}
}
