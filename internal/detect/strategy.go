package detect

import (
	"context"
	"errors"
	"image"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/stat"
)

// Strategy names one heuristic configuration for turning recognizer words
// into seed candidates.
type Strategy string

const (
	// StrategyPrimary scans the whole image and keeps number-like words near
	// the left or right margin, where catalog item numbers are printed.
	StrategyPrimary Strategy = "primary"

	// StrategySecondary restricts recognition to the lower-left region where
	// screenshot item numbers appear, with aggressive preprocessing.
	StrategySecondary Strategy = "secondary"
)

// Mode describes the kind of input bitmap.
type Mode string

const (
	ModeCatalog    Mode = "catalog"
	ModeScreenshot Mode = "screenshot"
)

// Primary strategy thresholds.
const (
	primaryMinConf    = 60.0
	primaryEdgeBand   = 0.12 // candidate center must sit in the outer 12% of width
	primaryMinHeight  = 0.010
	primaryMaxHeight  = 0.06
	primaryMinAspect  = 0.9
	primaryMaxAspect  = 6.0
	rowMergeRatio     = 0.015
	rowMergeMinPixels = 15
	minDigits         = 3
	maxDigits         = 6
)

// Secondary strategy thresholds.
const (
	secondaryMinConf       = 55.0
	secondaryRegionWidth   = 0.35 // fraction of image width
	secondaryRegionHeight  = 0.30 // fraction of image height, anchored at the bottom
	secondaryMinHeightFrac = 0.018
	secondaryMinHeightPx   = 20
	secondaryMaxHeightFrac = 0.12
	secondaryMinAspect     = 0.6
	secondaryMaxAspect     = 10.0
	secondaryKeep          = 3
)

// Candidate is a filtered recognizer word in full-bitmap pixel coordinates.
// Candidates are ephemeral: they seed crop boxes and are not retained.
type Candidate struct {
	Text string  `json:"text"`
	X    int     `json:"x"`
	Y    int     `json:"y"`
	W    int     `json:"w"`
	H    int     `json:"h"`
	Conf float64 `json:"conf"`
}

func (c Candidate) centerX() float64 { return float64(c.X) + float64(c.W)/2 }
func (c Candidate) centerY() float64 { return float64(c.Y) + float64(c.H)/2 }

// Result is the outcome of one detection run.
type Result struct {
	Candidates  []Candidate
	Strategy    Strategy
	ImageWidth  int
	ImageHeight int

	// Confidence statistics over the surviving candidates.
	MeanConf   float64
	StdDevConf float64
}

// Engine runs detection strategies against pooled recognizer instances.
type Engine struct {
	pool *Pool
	log  *zap.SugaredLogger
}

// NewEngine creates a detection engine.
func NewEngine(pool *Pool, log *zap.SugaredLogger) *Engine {
	return &Engine{pool: pool, log: log}
}

// Detect locates item-number candidates. Recognition faults are absorbed into
// an empty candidate list; only context cancellation is returned as an error.
func (e *Engine) Detect(ctx context.Context, img gocv.Mat, mode Mode) (*Result, error) {
	w, h := img.Cols(), img.Rows()
	res := &Result{Strategy: StrategyPrimary, ImageWidth: w, ImageHeight: h}

	err := e.pool.With(ctx, func(r Recognizer) error {
		var err error
		switch mode {
		case ModeScreenshot:
			res.Candidates, res.Strategy, err = e.runScreenshot(r, img, w, h)
		default:
			res.Candidates, err = e.runCatalog(r, img, w, h)
		}
		return err
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		// DetectionFailure: degrade to an empty candidate list.
		e.log.Warnw("detection failed, returning no candidates", "mode", mode, "error", err)
		res.Candidates = nil
	}

	res.MeanConf, res.StdDevConf = confidenceStats(res.Candidates)
	e.log.Debugw("detection complete",
		"mode", mode, "strategy", res.Strategy, "candidates", len(res.Candidates),
		"meanConf", res.MeanConf, "stddevConf", res.StdDevConf)
	return res, nil
}

// runCatalog applies the primary strategy over the whole image.
func (e *Engine) runCatalog(r Recognizer, img gocv.Mat, w, h int) ([]Candidate, error) {
	pre := prepare(img)
	defer pre.Close()

	words, err := r.Words(pre)
	if err != nil {
		return nil, err
	}
	return filterPrimary(words, w, h), nil
}

// runScreenshot tries the secondary strategy first, falling back to the
// primary strategy over the same preprocessed image when it finds nothing.
func (e *Engine) runScreenshot(r Recognizer, img gocv.Mat, w, h int) ([]Candidate, Strategy, error) {
	pre := prepareStrong(img)
	defer pre.Close()

	regionTop := h - int(math.Round(secondaryRegionHeight*float64(h)))
	regionRight := int(math.Round(secondaryRegionWidth * float64(w)))

	region := pre.Region(image.Rect(0, regionTop, regionRight, h))
	words, err := r.Words(region)
	region.Close()
	if err != nil {
		return nil, StrategySecondary, err
	}

	// Translate region-relative boxes back to full-image coordinates.
	for i := range words {
		words[i].Bounds.Y += regionTop
	}

	return screenshotCandidates(words, func() ([]Word, error) { return r.Words(pre) }, w, h)
}

// screenshotCandidates applies the secondary filter to the region's words and
// falls back to the primary filter over the whole image when nothing survives.
func screenshotCandidates(region []Word, whole func() ([]Word, error), w, h int) ([]Candidate, Strategy, error) {
	if cands := filterSecondary(region, w, h); len(cands) > 0 {
		return cands, StrategySecondary, nil
	}

	words, err := whole()
	if err != nil {
		return nil, StrategyPrimary, err
	}
	return filterPrimary(words, w, h), StrategyPrimary, nil
}

// digitCandidate keeps only digit characters from a word and accepts it when
// the remainder is a plausible item number.
func digitCandidate(word Word) (Candidate, bool) {
	var sb strings.Builder
	for _, r := range word.Text {
		if r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}
	text := sb.String()
	if len(text) < minDigits || len(text) > maxDigits {
		return Candidate{}, false
	}
	return Candidate{
		Text: text,
		X:    word.Bounds.X,
		Y:    word.Bounds.Y,
		W:    word.Bounds.Width,
		H:    word.Bounds.Height,
		Conf: word.Confidence,
	}, true
}

// filterPrimary applies the whole-image strategy: numeric words near the left
// or right margin at plausible print sizes, one per text row.
func filterPrimary(words []Word, imgW, imgH int) []Candidate {
	w, h := float64(imgW), float64(imgH)

	var kept []Candidate
	for _, word := range words {
		c, ok := digitCandidate(word)
		if !ok || c.Conf < primaryMinConf || c.H <= 0 {
			continue
		}

		cx := c.centerX()
		if cx > primaryEdgeBand*w && cx < (1-primaryEdgeBand)*w {
			continue
		}

		ch := float64(c.H)
		if ch < primaryMinHeight*h || ch > primaryMaxHeight*h {
			continue
		}

		aspect := float64(c.W) / ch
		if aspect < primaryMinAspect || aspect > primaryMaxAspect {
			continue
		}
		kept = append(kept, c)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Y != kept[j].Y {
			return kept[i].Y < kept[j].Y
		}
		return kept[i].X < kept[j].X
	})

	return dedupRows(kept, imgH)
}

// dedupRows collapses candidates whose vertical centers fall within the row
// threshold, keeping the higher-confidence one. Input must be sorted by (y, x).
func dedupRows(cands []Candidate, imgH int) []Candidate {
	threshold := math.Max(math.Round(rowMergeRatio*float64(imgH)), rowMergeMinPixels)

	var out []Candidate
	for _, c := range cands {
		if len(out) > 0 {
			prev := &out[len(out)-1]
			if math.Abs(c.centerY()-prev.centerY()) < threshold {
				if c.Conf > prev.Conf {
					*prev = c
				}
				continue
			}
		}
		out = append(out, c)
	}
	return out
}

// filterSecondary applies the region-restricted strategy. The caller has
// already limited recognition to the lower-left region, so there is no
// horizontal-edge restriction here.
func filterSecondary(words []Word, imgW, imgH int) []Candidate {
	h := float64(imgH)
	minHeight := math.Max(secondaryMinHeightPx, secondaryMinHeightFrac*h)

	var kept []Candidate
	for _, word := range words {
		c, ok := digitCandidate(word)
		if !ok || c.Conf < secondaryMinConf || c.H <= 0 {
			continue
		}

		ch := float64(c.H)
		if ch < minHeight || ch > secondaryMaxHeightFrac*h {
			continue
		}

		aspect := float64(c.W) / ch
		if aspect < secondaryMinAspect || aspect > secondaryMaxAspect {
			continue
		}
		kept = append(kept, c)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].centerY() != kept[j].centerY() {
			return kept[i].centerY() > kept[j].centerY()
		}
		if kept[i].X != kept[j].X {
			return kept[i].X < kept[j].X
		}
		if kept[i].H != kept[j].H {
			return kept[i].H > kept[j].H
		}
		return kept[i].Conf > kept[j].Conf
	})

	if len(kept) > secondaryKeep {
		kept = kept[:secondaryKeep]
	}
	return kept
}

// confidenceStats summarizes candidate confidences.
func confidenceStats(cands []Candidate) (mean, stddev float64) {
	if len(cands) == 0 {
		return 0, 0
	}
	confs := make([]float64, len(cands))
	for i, c := range cands {
		confs[i] = c.Conf
	}
	mean = stat.Mean(confs, nil)
	if len(confs) > 1 {
		stddev = stat.StdDev(confs, nil)
	}
	return mean, stddev
}
