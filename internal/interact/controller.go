// Package interact turns pointer and keyboard events into box store mutations.
// All hit zones are evaluated in image space after mapping the pointer through
// the focused view transform, so screen and image behavior cannot drift apart.
package interact

import (
	"math"

	"moulding-cropper/internal/session"
	"moulding-cropper/internal/view"
	"moulding-cropper/pkg/geometry"
)

const (
	// cornerReach is the pointer-to-corner distance claimed by corner handles.
	cornerReach = 15
	// edgeReach is the band width claimed along each edge, checked only when
	// no corner handle matched.
	edgeReach = 8

	// nudgeStep and nudgeStepFast are the arrow-key move distances in pixels.
	nudgeStep     = 1
	nudgeStepFast = 10
)

// Handle identifies a resize handle on a box.
type Handle string

const (
	HandleNone Handle = ""
	HandleN    Handle = "n"
	HandleS    Handle = "s"
	HandleE    Handle = "e"
	HandleW    Handle = "w"
	HandleNE   Handle = "ne"
	HandleNW   Handle = "nw"
	HandleSE   Handle = "se"
	HandleSW   Handle = "sw"
)

// Cursor is the affordance shown for a pointer position.
type Cursor int

const (
	CursorDefault Cursor = iota
	CursorMove
	CursorResize
	CursorGrab
)

// Key is a UI-framework-independent key identifier.
type Key int

const (
	KeyLeft Key = iota
	KeyRight
	KeyUp
	KeyDown
	KeyBracketLeft
	KeyBracketRight
	KeyDelete
)

type mode int

const (
	modeIdle mode = iota
	modeDrag
	modeResize
	modePan
)

// Controller routes pointer and keyboard events for one focused session.
type Controller struct {
	sess *session.Session
	view *view.State

	mode     mode
	selected int
	handle   Handle

	grabOffset geometry.Point2D
	panAnchor  geometry.Point2D
	startBox   session.CropBox
}

// New creates a controller for the given session and view state.
func New(sess *session.Session, vs *view.State) *Controller {
	return &Controller{sess: sess, view: vs}
}

// Selected returns the currently selected box ID, or 0.
func (c *Controller) Selected() int {
	return c.selected
}

// Select sets the selected box directly (used by list UIs).
func (c *Controller) Select(id int) {
	c.selected = id
}

// PointerDown begins a drag, resize, or pan depending on what lies under the
// pointer. Boxes are tested in insertion order; the first match wins.
func (c *Controller) PointerDown(screen geometry.Point2D, shift bool) {
	t := c.view.Transform()
	img := t.ToImage(screen)

	for _, b := range c.sess.Boxes() {
		if h := hitHandle(b, img); h != HandleNone {
			c.mode = modeResize
			c.selected = b.ID
			c.handle = h
			c.startBox = b
			return
		}
		if bodyContains(b, img) {
			c.mode = modeDrag
			c.selected = b.ID
			c.grabOffset = geometry.Point2D{X: img.X - b.X, Y: img.Y - b.Y}
			return
		}
	}

	c.selected = 0
	if shift || c.view.Zoom > 1 {
		c.mode = modePan
		c.panAnchor = geometry.Point2D{X: screen.X - c.view.PanX, Y: screen.Y - c.view.PanY}
		return
	}
	c.mode = modeIdle
}

// PointerMove continues the active drag, resize, or pan.
func (c *Controller) PointerMove(screen geometry.Point2D) {
	switch c.mode {
	case modeDrag:
		img := c.view.Transform().ToImage(screen)
		_ = c.sess.Move(c.selected, img.X-c.grabOffset.X, img.Y-c.grabOffset.Y)
	case modeResize:
		img := c.view.Transform().ToImage(screen)
		_ = c.sess.Resize(c.selected, resizeRect(c.startBox, c.handle, img))
	case modePan:
		c.view.Pan(screen.X-c.panAnchor.X, screen.Y-c.panAnchor.Y)
	}
}

// PointerUp ends the active gesture. Selection is retained.
func (c *Controller) PointerUp() {
	c.mode = modeIdle
	c.handle = HandleNone
}

// KeyDown applies keyboard edits to the selected box. Returns the error from
// the underlying mutation, if any (removal of the last box is refused).
func (c *Controller) KeyDown(key Key, fast bool) error {
	if c.selected == 0 {
		return nil
	}
	b, ok := c.sess.Get(c.selected)
	if !ok {
		c.selected = 0
		return nil
	}

	step := float64(nudgeStep)
	if fast {
		step = nudgeStepFast
	}

	switch key {
	case KeyLeft:
		return c.sess.Move(c.selected, b.X-step, b.Y)
	case KeyRight:
		return c.sess.Move(c.selected, b.X+step, b.Y)
	case KeyUp:
		return c.sess.Move(c.selected, b.X, b.Y-step)
	case KeyDown:
		return c.sess.Move(c.selected, b.X, b.Y+step)
	case KeyBracketLeft:
		return c.sess.Rotate(c.selected, -1)
	case KeyBracketRight:
		return c.sess.Rotate(c.selected, +1)
	case KeyDelete:
		if err := c.sess.Remove(c.selected); err != nil {
			return err
		}
		c.selected = 0
	}
	return nil
}

// CursorAt returns the affordance for a screen-space pointer position. It is
// a pure function of the pointer, box set, zoom, and shift state, shared by
// rendering and tests.
func CursorAt(boxes []session.CropBox, t view.Transform, screen geometry.Point2D, zoom float64, shift bool) Cursor {
	img := t.ToImage(screen)
	for _, b := range boxes {
		if hitHandle(b, img) != HandleNone {
			return CursorResize
		}
		if bodyContains(b, img) {
			return CursorMove
		}
	}
	if zoom > 1 || shift {
		return CursorGrab
	}
	return CursorDefault
}

// HandleAt returns the resize handle under a screen-space pointer position,
// or HandleNone. It follows the same insertion-order rule as PointerDown: a
// box body claims the pointer before any later box's handles.
func HandleAt(boxes []session.CropBox, t view.Transform, screen geometry.Point2D) Handle {
	img := t.ToImage(screen)
	for _, b := range boxes {
		if h := hitHandle(b, img); h != HandleNone {
			return h
		}
		if bodyContains(b, img) {
			return HandleNone
		}
	}
	return HandleNone
}

// hitHandle returns the resize handle under the point, corners before edges.
func hitHandle(b session.CropBox, p geometry.Point2D) Handle {
	left, top := b.X, b.Y
	right, bottom := b.X+b.Width, b.Y+b.Height

	near := func(a, c float64) bool { return math.Abs(a-c) <= cornerReach }

	switch {
	case near(p.X, left) && near(p.Y, top):
		return HandleNW
	case near(p.X, right) && near(p.Y, top):
		return HandleNE
	case near(p.X, right) && near(p.Y, bottom):
		return HandleSE
	case near(p.X, left) && near(p.Y, bottom):
		return HandleSW
	}

	withinX := p.X >= left && p.X <= right
	withinY := p.Y >= top && p.Y <= bottom

	switch {
	case withinX && math.Abs(p.Y-top) <= edgeReach:
		return HandleN
	case withinX && math.Abs(p.Y-bottom) <= edgeReach:
		return HandleS
	case withinY && math.Abs(p.X-left) <= edgeReach:
		return HandleW
	case withinY && math.Abs(p.X-right) <= edgeReach:
		return HandleE
	}
	return HandleNone
}

func bodyContains(b session.CropBox, p geometry.Point2D) bool {
	return p.X >= b.X && p.X <= b.X+b.Width &&
		p.Y >= b.Y && p.Y <= b.Y+b.Height
}

// resizeRect computes the rectangle for a resize gesture. Handles on the top
// or left side shift the origin so the opposite edge stays anchored at its
// pre-drag position. Minimum-size clamps happen before repositioning.
func resizeRect(start session.CropBox, h Handle, p geometry.Point2D) geometry.Rect {
	x, y := start.X, start.Y
	w, ht := start.Width, start.Height
	right, bottom := start.X+start.Width, start.Y+start.Height

	if h == HandleE || h == HandleNE || h == HandleSE {
		w = math.Max(p.X-x, session.MinBoxWidth)
	}
	if h == HandleW || h == HandleNW || h == HandleSW {
		w = math.Max(right-p.X, session.MinBoxWidth)
		x = right - w
	}
	if h == HandleS || h == HandleSE || h == HandleSW {
		ht = math.Max(p.Y-y, session.MinBoxHeight)
	}
	if h == HandleN || h == HandleNE || h == HandleNW {
		ht = math.Max(bottom-p.Y, session.MinBoxHeight)
		y = bottom - ht
	}

	return geometry.Rect{X: x, Y: y, Width: w, Height: ht}
}
