// Package project provides crop layout persistence. A layout file sits next
// to the bitmap it annotates so an editing session can resume across runs.
package project

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"time"

	"moulding-cropper/internal/session"
	"moulding-cropper/pkg/geometry"
)

// Ext is the layout file extension.
const Ext = ".mcproj"

// Box is one persisted crop box. Coordinates are original-image pixels.
type Box struct {
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Width        float64 `json:"width"`
	Height       float64 `json:"height"`
	Rotation     float64 `json:"rotation,omitempty"`
	FlipVertical bool    `json:"flip_vertical,omitempty"`
	Label        string  `json:"label,omitempty"`
}

// File represents a crop layout file (.mcproj).
type File struct {
	Version  int       `json:"version"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`

	// ImagePath is relative to the layout file.
	ImagePath string `json:"image,omitempty"`

	Mode   string `json:"mode,omitempty"`
	Vendor string `json:"vendor,omitempty"`
	Boxes  []Box  `json:"boxes"`
}

// New creates an empty layout file.
func New() *File {
	now := time.Now()
	return &File{Version: 1, Created: now, Modified: now}
}

// PathFor returns the sidecar layout path for a bitmap.
func PathFor(imagePath string) string {
	return imagePath[:len(imagePath)-len(filepath.Ext(imagePath))] + Ext
}

// Load loads a layout from a .mcproj file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// Save saves the layout to a file.
func (p *File) Save(path string) error {
	p.Modified = time.Now()

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// SetImage sets the bitmap path (relative to the layout file).
func (p *File) SetImage(projectPath, imagePath string) {
	rel, err := filepath.Rel(filepath.Dir(projectPath), imagePath)
	if err != nil {
		p.ImagePath = imagePath
	} else {
		p.ImagePath = rel
	}
	p.Modified = time.Now()
}

// GetImagePath returns the absolute path to the bitmap.
func (p *File) GetImagePath(projectPath string) string {
	if p.ImagePath == "" {
		return ""
	}
	if filepath.IsAbs(p.ImagePath) {
		return p.ImagePath
	}
	return filepath.Join(filepath.Dir(projectPath), p.ImagePath)
}

// Capture snapshots a session's boxes into the layout.
func (p *File) Capture(s *session.Session) {
	boxes := s.Boxes()
	p.Boxes = make([]Box, len(boxes))
	for i, b := range boxes {
		p.Boxes[i] = Box{
			X: b.X, Y: b.Y, Width: b.Width, Height: b.Height,
			Rotation:     b.Rotation,
			FlipVertical: b.FlipVertical,
			Label:        b.Label,
		}
	}
	p.Modified = time.Now()
}

// Apply seeds a fresh session with the layout's boxes. Rotation is restored
// through the step interface, which is exact because authoring only ever
// produces whole steps.
func (p *File) Apply(s *session.Session) {
	for _, b := range p.Boxes {
		id := s.Add(geometry.NewRect(b.X, b.Y, b.Width, b.Height), b.Label)
		if b.Rotation != 0 {
			steps := int(math.Round(b.Rotation / session.RotationStep))
			_ = s.Rotate(id, steps)
		}
		if b.FlipVertical {
			_ = s.SetFlip(id, true)
		}
	}
}
