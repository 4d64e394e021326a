// Package editor provides the interactive crop box editor widget.
package editor

import (
	"image"
	"image/color"

	"moulding-cropper/internal/interact"
	"moulding-cropper/internal/render"
	"moulding-cropper/internal/session"
	"moulding-cropper/internal/view"
	"moulding-cropper/pkg/geometry"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
)

// Editor displays the focused session's bitmap with its crop boxes and routes
// pointer/keyboard events into the interaction controller.
type Editor struct {
	widget.BaseWidget

	sess   *session.Session
	bitmap image.Image

	viewState view.State
	ctrl      *interact.Controller

	raster *fynecanvas.Raster

	// Pointer/modifier tracking for cursor affordance and panning.
	pointer   geometry.Point2D
	shiftDown bool

	// OnStatus, if set, receives short status messages (e.g. refused deletes).
	OnStatus func(string)
}

// New creates an editor for a session and its decoded bitmap.
func New(sess *session.Session, bitmap image.Image) *Editor {
	e := &Editor{
		sess:      sess,
		bitmap:    bitmap,
		viewState: view.NewState(),
	}
	e.ctrl = interact.New(sess, &e.viewState)
	sess.OnChange = func() { e.Refresh() }

	e.raster = fynecanvas.NewRaster(e.draw)
	e.raster.ScaleMode = fynecanvas.ImageScalePixels

	e.ExtendBaseWidget(e)
	return e
}

// Controller exposes the interaction controller for toolbar actions.
func (e *Editor) Controller() *interact.Controller {
	return e.ctrl
}

// AddBox creates a new box near the view origin and selects it.
func (e *Editor) AddBox() {
	t := e.viewState.Transform()
	origin := t.ToImage(geometry.Point2D{X: 40, Y: 40})
	id := e.sess.Add(geometry.NewRect(origin.X, origin.Y, 200, 80), "")
	e.ctrl.Select(id)
}

// ResetView restores 1x zoom and zero pan, as on focus change.
func (e *Editor) ResetView() {
	e.viewState.Reset()
	e.Refresh()
}

// Refresh redraws the editor.
func (e *Editor) Refresh() {
	e.raster.Refresh()
	e.BaseWidget.Refresh()
}

// CreateRenderer implements fyne.Widget.
func (e *Editor) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(e.raster)
}

// MouseDown begins a drag, resize, or pan gesture.
func (e *Editor) MouseDown(ev *desktop.MouseEvent) {
	shift := ev.Modifier&fyne.KeyModifierShift != 0
	e.ctrl.PointerDown(pointOf(ev.Position), shift)
	e.Refresh()
}

// MouseUp ends the active gesture.
func (e *Editor) MouseUp(_ *desktop.MouseEvent) {
	e.ctrl.PointerUp()
}

// Dragged continues the active gesture.
func (e *Editor) Dragged(ev *fyne.DragEvent) {
	e.ctrl.PointerMove(pointOf(ev.Position))
	e.Refresh()
}

// DragEnd ends the active gesture.
func (e *Editor) DragEnd() {
	e.ctrl.PointerUp()
}

// Scrolled zooms in or out one step.
func (e *Editor) Scrolled(ev *fyne.ScrollEvent) {
	if ev.Scrolled.DY > 0 {
		e.viewState.ZoomIn()
	} else if ev.Scrolled.DY < 0 {
		e.viewState.ZoomOut()
	}
	e.Refresh()
}

// MouseIn implements desktop.Hoverable.
func (e *Editor) MouseIn(ev *desktop.MouseEvent) {
	e.pointer = pointOf(ev.Position)
}

// MouseMoved tracks the pointer for the cursor affordance.
func (e *Editor) MouseMoved(ev *desktop.MouseEvent) {
	e.pointer = pointOf(ev.Position)
	e.shiftDown = ev.Modifier&fyne.KeyModifierShift != 0
}

// MouseOut implements desktop.Hoverable.
func (e *Editor) MouseOut() {}

// Cursor implements desktop.Cursorable from the pure affordance rule. Resize
// cursors follow the handle axis; fyne has no diagonal resize cursor, so
// corners show the crosshair.
func (e *Editor) Cursor() desktop.Cursor {
	t := e.viewState.Transform()
	boxes := e.sess.Boxes()
	switch interact.CursorAt(boxes, t, e.pointer, e.viewState.Zoom, e.shiftDown) {
	case interact.CursorResize:
		switch interact.HandleAt(boxes, t, e.pointer) {
		case interact.HandleN, interact.HandleS:
			return desktop.VResizeCursor
		case interact.HandleE, interact.HandleW:
			return desktop.HResizeCursor
		default:
			return desktop.CrosshairCursor
		}
	case interact.CursorMove, interact.CursorGrab:
		return desktop.PointerCursor
	default:
		return desktop.DefaultCursor
	}
}

// FocusGained implements fyne.Focusable.
func (e *Editor) FocusGained() {}

// FocusLost implements fyne.Focusable.
func (e *Editor) FocusLost() {}

// TypedRune implements fyne.Focusable.
func (e *Editor) TypedRune(_ rune) {}

// TypedKey applies keyboard nudges to the selected box.
func (e *Editor) TypedKey(ev *fyne.KeyEvent) {
	var key interact.Key
	switch ev.Name {
	case fyne.KeyLeft:
		key = interact.KeyLeft
	case fyne.KeyRight:
		key = interact.KeyRight
	case fyne.KeyUp:
		key = interact.KeyUp
	case fyne.KeyDown:
		key = interact.KeyDown
	case fyne.KeyLeftBracket:
		key = interact.KeyBracketLeft
	case fyne.KeyRightBracket:
		key = interact.KeyBracketRight
	case fyne.KeyDelete, fyne.KeyBackspace:
		key = interact.KeyDelete
	default:
		return
	}

	if err := e.ctrl.KeyDown(key, e.shiftDown); err != nil {
		e.status(err.Error())
		return
	}
	e.Refresh()
}

// KeyDown implements desktop.Keyable to track the shift modifier.
func (e *Editor) KeyDown(ev *fyne.KeyEvent) {
	if ev.Name == desktop.KeyShiftLeft || ev.Name == desktop.KeyShiftRight {
		e.shiftDown = true
	}
}

// KeyUp implements desktop.Keyable.
func (e *Editor) KeyUp(ev *fyne.KeyEvent) {
	if ev.Name == desktop.KeyShiftLeft || ev.Name == desktop.KeyShiftRight {
		e.shiftDown = false
	}
}

func (e *Editor) status(msg string) {
	if e.OnStatus != nil {
		e.OnStatus(msg)
	}
}

// draw renders the transformed bitmap and the box overlay.
func (e *Editor) draw(w, h int) image.Image {
	out := image.NewRGBA(image.Rect(0, 0, w, h))

	// Dark background behind the bitmap.
	bg := color.RGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xff}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out.SetRGBA(x, y, bg)
		}
	}

	if e.bitmap != nil {
		e.drawBitmap(out, w, h)
	}

	t := e.viewState.Transform()
	for _, cmd := range render.Render(e.sess.Boxes(), t, e.ctrl.Selected()) {
		switch cmd.Kind {
		case render.KindOutline:
			width := 1
			if cmd.Selected {
				width = 2
			}
			drawRectOutline(out, cmd.Rect, cmd.Color, width)
		case render.KindHandle:
			fillRect(out, cmd.Rect, cmd.Color)
		case render.KindLabel:
			// Label tab above the box; text itself lives in the side panel.
			fillRect(out, geometry.NewRect(cmd.Rect.X, cmd.Rect.Y+12, 40, 4), cmd.Color)
		}
	}

	return out
}

// drawBitmap maps each output pixel back through the view transform.
func (e *Editor) drawBitmap(out *image.RGBA, w, h int) {
	t := e.viewState.Transform()
	bounds := e.bitmap.Bounds()

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			src := t.ToImage(geometry.Point2D{X: float64(x), Y: float64(y)})
			sx, sy := int(src.X), int(src.Y)
			if sx < bounds.Min.X || sx >= bounds.Max.X || sy < bounds.Min.Y || sy >= bounds.Max.Y {
				continue
			}
			out.Set(x, y, e.bitmap.At(sx, sy))
		}
	}
}

func drawRectOutline(img *image.RGBA, r geometry.Rect, c color.RGBA, width int) {
	x0, y0 := int(r.X), int(r.Y)
	x1, y1 := int(r.X+r.Width), int(r.Y+r.Height)
	for i := 0; i < width; i++ {
		drawHLine(img, x0, x1, y0+i, c)
		drawHLine(img, x0, x1, y1-i, c)
		drawVLine(img, x0+i, y0, y1, c)
		drawVLine(img, x1-i, y0, y1, c)
	}
}

func fillRect(img *image.RGBA, r geometry.Rect, c color.RGBA) {
	x0, y0 := int(r.X), int(r.Y)
	x1, y1 := int(r.X+r.Width), int(r.Y+r.Height)
	for y := y0; y < y1; y++ {
		drawHLine(img, x0, x1, y, c)
	}
}

func drawHLine(img *image.RGBA, x0, x1, y int, c color.RGBA) {
	b := img.Bounds()
	if y < b.Min.Y || y >= b.Max.Y {
		return
	}
	for x := x0; x <= x1; x++ {
		if x >= b.Min.X && x < b.Max.X {
			img.SetRGBA(x, y, c)
		}
	}
}

func drawVLine(img *image.RGBA, x, y0, y1 int, c color.RGBA) {
	b := img.Bounds()
	if x < b.Min.X || x >= b.Max.X {
		return
	}
	for y := y0; y <= y1; y++ {
		if y >= b.Min.Y && y < b.Max.Y {
			img.SetRGBA(x, y, c)
		}
	}
}

func pointOf(p fyne.Position) geometry.Point2D {
	return geometry.Point2D{X: float64(p.X), Y: float64(p.Y)}
}
