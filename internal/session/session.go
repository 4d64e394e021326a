package session

import (
	"errors"
	"math"

	"moulding-cropper/pkg/geometry"
)

var (
	// ErrNoSuchBox is returned when a mutation names an unknown box ID.
	ErrNoSuchBox = errors.New("no such box")

	// ErrLastBox is returned when removing the session's only box.
	ErrLastBox = errors.New("session must retain at least one box")
)

// Session owns the ordered crop boxes for one uploaded bitmap. Sessions are
// single-owner: the active interaction surface mutates them synchronously, so
// no internal locking is needed.
type Session struct {
	Width  int
	Height int

	boxes []*CropBox

	// OnChange, if set, is invoked after every successful mutation.
	OnChange func()
}

// New creates a session for a bitmap of the given dimensions.
func New(width, height int) *Session {
	return &Session{Width: width, Height: height}
}

// Len returns the number of boxes.
func (s *Session) Len() int {
	return len(s.boxes)
}

// Boxes returns a snapshot of the boxes in insertion order.
func (s *Session) Boxes() []CropBox {
	out := make([]CropBox, len(s.boxes))
	for i, b := range s.boxes {
		out[i] = *b
	}
	return out
}

// Get returns a copy of the box with the given ID.
func (s *Session) Get(id int) (CropBox, bool) {
	if b := s.find(id); b != nil {
		return *b, true
	}
	return CropBox{}, false
}

// Add creates a new box from the given rectangle, clamped to the image, and
// returns its ID. IDs are never reused while their box exists.
func (s *Session) Add(r geometry.Rect, label string) int {
	id := 1
	for _, b := range s.boxes {
		if b.ID >= id {
			id = b.ID + 1
		}
	}

	box := &CropBox{
		ID:         id,
		X:          r.X,
		Y:          r.Y,
		Width:      r.Width,
		Height:     r.Height,
		Label:      label,
		ColorIndex: colorIndexForID(id),
	}
	box.clamp(s.Width, s.Height)
	s.boxes = append(s.boxes, box)
	s.changed()
	return id
}

// Move repositions a box. The origin is rounded to the nearest integer pixel
// and clamped to the image bounds.
func (s *Session) Move(id int, x, y float64) error {
	b := s.find(id)
	if b == nil {
		return ErrNoSuchBox
	}
	b.X = math.Round(x)
	b.Y = math.Round(y)
	b.clamp(s.Width, s.Height)
	s.changed()
	return nil
}

// Resize replaces a box's rectangle, re-applying minimum size and bounds.
func (s *Session) Resize(id int, r geometry.Rect) error {
	b := s.find(id)
	if b == nil {
		return ErrNoSuchBox
	}
	b.X, b.Y, b.Width, b.Height = r.X, r.Y, r.Width, r.Height
	b.clamp(s.Width, s.Height)
	s.changed()
	return nil
}

// Rotate adjusts a box's rotation by steps of RotationStep degrees.
func (s *Session) Rotate(id int, steps int) error {
	b := s.find(id)
	if b == nil {
		return ErrNoSuchBox
	}
	b.Rotation += float64(steps) * RotationStep
	s.changed()
	return nil
}

// SetFlip sets a box's vertical flip flag.
func (s *Session) SetFlip(id int, flip bool) error {
	b := s.find(id)
	if b == nil {
		return ErrNoSuchBox
	}
	b.FlipVertical = flip
	s.changed()
	return nil
}

// SetLabel sets a box's item label.
func (s *Session) SetLabel(id int, label string) error {
	b := s.find(id)
	if b == nil {
		return ErrNoSuchBox
	}
	b.Label = label
	s.changed()
	return nil
}

// Remove deletes a box. The session's last box cannot be removed.
func (s *Session) Remove(id int) error {
	if len(s.boxes) <= 1 {
		return ErrLastBox
	}
	for i, b := range s.boxes {
		if b.ID == id {
			s.boxes = append(s.boxes[:i], s.boxes[i+1:]...)
			s.changed()
			return nil
		}
	}
	return ErrNoSuchBox
}

func (s *Session) find(id int) *CropBox {
	for _, b := range s.boxes {
		if b.ID == id {
			return b
		}
	}
	return nil
}

func (s *Session) changed() {
	if s.OnChange != nil {
		s.OnChange()
	}
}
