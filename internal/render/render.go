// Package render turns a session and view state into screen-space draw
// commands. It is side-effect-free so the geometric behavior can be tested
// apart from any widget toolkit.
package render

import (
	"image/color"

	"moulding-cropper/internal/session"
	"moulding-cropper/internal/view"
	"moulding-cropper/pkg/geometry"
)

// handleDrawSize is the drawn size of a resize handle square in screen pixels.
const handleDrawSize = 8

// Kind discriminates draw commands.
type Kind int

const (
	KindOutline Kind = iota
	KindHandle
	KindLabel
)

// Command is one drawing instruction in screen coordinates.
type Command struct {
	Kind     Kind
	Rect     geometry.Rect
	Color    color.RGBA
	Text     string
	Selected bool
}

// Render produces the draw commands for a session under the given transform.
// Boxes are emitted in insertion order; the selected box additionally gets
// its eight resize handles.
func Render(boxes []session.CropBox, t view.Transform, selectedID int) []Command {
	var cmds []Command
	for i := range boxes {
		b := &boxes[i]
		selected := b.ID == selectedID
		rect := t.RectToScreen(geometry.NewRect(b.X, b.Y, b.Width, b.Height))

		cmds = append(cmds, Command{
			Kind:     KindOutline,
			Rect:     rect,
			Color:    b.Color(),
			Selected: selected,
		})

		if b.Label != "" {
			cmds = append(cmds, Command{
				Kind:  KindLabel,
				Rect:  geometry.NewRect(rect.X, rect.Y-16, rect.Width, 16),
				Color: b.Color(),
				Text:  b.Label,
			})
		}

		if selected {
			cmds = append(cmds, handleCommands(rect, b.Color())...)
		}
	}
	return cmds
}

// handleCommands emits the four corner and four edge handles for a box.
func handleCommands(rect geometry.Rect, c color.RGBA) []Command {
	cx := rect.X + rect.Width/2
	cy := rect.Y + rect.Height/2
	points := []geometry.Point2D{
		{X: rect.X, Y: rect.Y},
		{X: cx, Y: rect.Y},
		{X: rect.X + rect.Width, Y: rect.Y},
		{X: rect.X + rect.Width, Y: cy},
		{X: rect.X + rect.Width, Y: rect.Y + rect.Height},
		{X: cx, Y: rect.Y + rect.Height},
		{X: rect.X, Y: rect.Y + rect.Height},
		{X: rect.X, Y: cy},
	}

	cmds := make([]Command, 0, len(points))
	for _, p := range points {
		cmds = append(cmds, Command{
			Kind: KindHandle,
			Rect: geometry.NewRect(
				p.X-handleDrawSize/2, p.Y-handleDrawSize/2,
				handleDrawSize, handleDrawSize),
			Color:    c,
			Selected: true,
		})
	}
	return cmds
}
