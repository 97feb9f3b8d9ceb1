package sycamore

import (
	"time"

	"deedles.dev/sycamore/layout"
	"deedles.dev/ximage/geom"
)

// SeatopMode identifies what the seat is currently doing with pointer
// input.
type SeatopMode int

const (
	// SeatopDefault passes pointer input through to whatever is under
	// the cursor.
	SeatopDefault SeatopMode = iota

	// SeatopPointerMove moves a view with the pointer until a button
	// is released.
	SeatopPointerMove

	// SeatopPointerResize resizes a view with the pointer until a
	// button is released.
	SeatopPointerResize
)

func (mode SeatopMode) String() string {
	switch mode {
	case SeatopDefault:
		return "default"
	case SeatopPointerMove:
		return "pointer move"
	case SeatopPointerResize:
		return "pointer resize"
	default:
		return "unknown"
	}
}

// seatop interprets pointer input for one mode. Exactly one is active
// at a time.
type seatop interface {
	mode() SeatopMode
	grab() (ViewRef, layout.Edges)
	pointerMotion(seat *Seat, t time.Time)
	pointerButton(seat *Seat, ev ButtonEvent)
	end(seat *Seat)
}

type seatopDefault struct{}

func (op seatopDefault) mode() SeatopMode { return SeatopDefault }

func (op seatopDefault) grab() (ViewRef, layout.Edges) { return ViewRef{}, layout.EdgeNone }

func (op seatopDefault) pointerMotion(seat *Seat, t time.Time) {
	seat.cursor.rebaseAt(t)
}

func (op seatopDefault) pointerButton(seat *Seat, ev ButtonEvent) {
	if ev.State == ButtonPressed {
		c := seat.cursor
		view, _, _, _, ok := seat.server.ViewAt(c.x, c.y)
		if ok {
			seat.server.FocusView(view)
		}
	}

	seat.proto.PointerNotifyButton(ev.Time, ev.Button, ev.State)
}

func (op seatopDefault) end(seat *Seat) {}

type seatopMove struct {
	ref    ViewRef
	offset geom.Point[float64]
}

// BeginMove starts moving view with the pointer. It does nothing and
// returns false if the view isn't mapped or if the seat is already in
// the middle of something else.
func (seat *Seat) BeginMove(view *View) bool {
	if !seat.canGrab(view) {
		return false
	}

	c := seat.cursor
	seat.op = &seatopMove{
		ref:    view.ref,
		offset: geom.Pt(c.x-float64(view.box.Min.X), c.y-float64(view.box.Min.Y)),
	}
	c.SetImage(seat.server.config.Cursor.MoveImage)

	seat.log.Debug("begin move", "title", view.Title())
	return true
}

func (op *seatopMove) mode() SeatopMode { return SeatopPointerMove }

func (op *seatopMove) grab() (ViewRef, layout.Edges) { return op.ref, layout.EdgeNone }

func (op *seatopMove) pointerMotion(seat *Seat, t time.Time) {
	view := seat.server.Resolve(op.ref)
	if view == nil {
		seat.endGrab()
		return
	}

	c := seat.cursor
	view.Move(int(c.x-op.offset.X), int(c.y-op.offset.Y))
}

func (op *seatopMove) pointerButton(seat *Seat, ev ButtonEvent) {
	if ev.State == ButtonReleased {
		seat.endGrab()
	}
}

func (op *seatopMove) end(seat *Seat) {}

type seatopResize struct {
	ref   ViewRef
	edges layout.Edges
	start geom.Point[float64]
	box   geom.Rect[int]
}

// BeginResize starts resizing view by the given edges with the
// pointer. It does nothing and returns false if the view isn't
// mapped, if no edges are given, or if the seat is already in the
// middle of something else.
func (seat *Seat) BeginResize(view *View, edges layout.Edges) bool {
	edges &= layout.EdgeAll
	if (edges == layout.EdgeNone) || !seat.canGrab(view) {
		return false
	}

	c := seat.cursor
	seat.op = &seatopResize{
		ref:   view.ref,
		edges: edges,
		start: geom.Pt(c.x, c.y),
		box:   view.box,
	}
	view.impl.setResizing(view, true)
	c.SetImage(resizeImage(edges))

	seat.log.Debug("begin resize", "title", view.Title(), "edges", edges)
	return true
}

func (op *seatopResize) mode() SeatopMode { return SeatopPointerResize }

func (op *seatopResize) grab() (ViewRef, layout.Edges) { return op.ref, op.edges }

func (op *seatopResize) pointerMotion(seat *Seat, t time.Time) {
	view := seat.server.Resolve(op.ref)
	if view == nil {
		seat.endGrab()
		return
	}

	c := seat.cursor
	delta := geom.Pt(int(c.x-op.start.X), int(c.y-op.start.Y))
	box := layout.ResizeEdges(op.box, delta, op.edges, view.minSize())

	// Moving the top or left edge moves the window. The new position
	// is applied now, before the client has acked the new size, so
	// that the opposite edge stays where it is.
	if box.Min != view.box.Min {
		view.Move(box.Min.X, box.Min.Y)
	}
	if box.Size() != view.box.Size() {
		view.Resize(box.Dx(), box.Dy())
	}
}

func (op *seatopResize) pointerButton(seat *Seat, ev ButtonEvent) {
	if ev.State == ButtonReleased {
		seat.endGrab()
	}
}

func (op *seatopResize) end(seat *Seat) {
	view := seat.server.Resolve(op.ref)
	if view != nil {
		view.impl.setResizing(view, false)
	}
}

func (seat *Seat) canGrab(view *View) bool {
	if (view == nil) || !view.mapped {
		return false
	}
	if seat.op.mode() != SeatopDefault {
		seat.log.Debug("grab rejected", "mode", seat.op.mode(), "title", view.Title())
		return false
	}
	return true
}

// endGrab returns to the default mode, restores the default cursor
// image, and recomputes pointer focus.
func (seat *Seat) endGrab() {
	if seat.op.mode() == SeatopDefault {
		return
	}
	seat.cancelGrab()
	seat.cursor.Rebase()
}

// cancelGrab is endGrab without recomputing pointer focus, for when
// the scene is about to change anyway.
func (seat *Seat) cancelGrab() {
	if seat.op.mode() == SeatopDefault {
		return
	}

	op := seat.op
	seat.op = seatopDefault{}
	op.end(seat)

	seat.log.Debug("end grab", "mode", op.mode())
	seat.cursor.resetImage()
}

func resizeImage(edges layout.Edges) string {
	switch edges {
	case layout.EdgeTop:
		return "top_side"
	case layout.EdgeBottom:
		return "bottom_side"
	case layout.EdgeLeft:
		return "left_side"
	case layout.EdgeRight:
		return "right_side"
	case layout.EdgeTop | layout.EdgeLeft:
		return "top_left_corner"
	case layout.EdgeTop | layout.EdgeRight:
		return "top_right_corner"
	case layout.EdgeBottom | layout.EdgeLeft:
		return "bottom_left_corner"
	case layout.EdgeBottom | layout.EdgeRight:
		return "bottom_right_corner"
	default:
		return "fleur"
	}
}
