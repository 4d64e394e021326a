// Package detect locates item-number candidates in uploaded bitmaps using
// recognizer word output and geometric filtering.
package detect

import (
	"fmt"
	"strings"

	"moulding-cropper/pkg/geometry"

	"github.com/otiai10/gosseract/v2"
	"gocv.io/x/gocv"
)

// digitChars is the recognizer whitelist. Item numbers are purely numeric.
const digitChars = "0123456789"

// Word is a single recognized word with its bounding box in the coordinates
// of the image handed to the recognizer.
type Word struct {
	Text       string
	Bounds     geometry.RectInt
	Confidence float64
}

// Recognizer produces word-level recognition results for an image. The
// recognition model itself is a black box; only its output shape matters here.
type Recognizer interface {
	Words(img gocv.Mat) ([]Word, error)
	Close() error
}

// Tesseract is the production Recognizer backed by gosseract.
type Tesseract struct {
	client *gosseract.Client
}

// NewTesseract creates a tesseract-backed recognizer. Instances are expensive
// to construct; share them through a Pool.
func NewTesseract() (*Tesseract, error) {
	client := gosseract.NewClient()

	if err := client.SetLanguage("eng"); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set OCR language: %w", err)
	}

	// Dictionary correction mangles item numbers, so disable it.
	_ = client.SetVariable("load_system_dawg", "false")
	_ = client.SetVariable("load_freq_dawg", "false")

	return &Tesseract{client: client}, nil
}

// Words recognizes all words in the image.
func (t *Tesseract) Words(img gocv.Mat) ([]Word, error) {
	if img.Empty() {
		return nil, fmt.Errorf("empty image")
	}

	buf, err := gocv.IMEncode(gocv.PNGFileExt, img)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	defer buf.Close()

	if err := t.client.SetPageSegMode(gosseract.PSM_SPARSE_TEXT); err != nil {
		return nil, fmt.Errorf("failed to set PSM: %w", err)
	}
	if err := t.client.SetWhitelist(digitChars); err != nil {
		return nil, fmt.Errorf("failed to set whitelist: %w", err)
	}
	if err := t.client.SetImageFromBytes(buf.GetBytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := t.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("failed to get boxes: %w", err)
	}

	var words []Word
	for _, box := range boxes {
		text := strings.TrimSpace(box.Word)
		if text == "" {
			continue
		}
		words = append(words, Word{
			Text: text,
			Bounds: geometry.RectInt{
				X:      box.Box.Min.X,
				Y:      box.Box.Min.Y,
				Width:  box.Box.Dx(),
				Height: box.Box.Dy(),
			},
			Confidence: box.Confidence,
		})
	}
	return words, nil
}

// Close releases recognizer resources.
func (t *Tesseract) Close() error {
	if t.client != nil {
		return t.client.Close()
	}
	return nil
}
