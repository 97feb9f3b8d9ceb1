package sycamore

import (
	"math"
	"time"

	"deedles.dev/sycamore/internal/util"
	"deedles.dev/ximage/geom"
)

// Cursor is the seat's pointer. It tracks where the pointer is, what
// it looks like, and which surface it is over.
type Cursor struct {
	seat     *Seat
	img      CursorImage
	gestures GestureProtocol

	x, y    float64
	enabled bool

	image        string
	imageDefault bool
	focused      Surface

	devices []InputDevice
}

func newCursor(seat *Seat, img CursorImage, gestures GestureProtocol) *Cursor {
	if img == nil {
		img = nopCursorImage{}
	}
	if gestures == nil {
		gestures = nopGestures{}
	}

	return &Cursor{
		seat:     seat,
		img:      img,
		gestures: gestures,
	}
}

// Position returns the cursor's position in layout coordinates.
func (c *Cursor) Position() geom.Point[float64] {
	return geom.Pt(c.x, c.y)
}

func (c *Cursor) Enabled() bool {
	return c.enabled
}

// Image returns the name of the xcursor image being shown. It is
// empty if a client surface is being shown instead or if the cursor
// is hidden.
func (c *Cursor) Image() string {
	return c.image
}

// Focused returns the surface that has pointer focus.
func (c *Cursor) Focused() Surface {
	return c.focused
}

// Enable shows or hides the cursor. Showing it immediately finds the
// surface under it. Hiding it clears pointer focus.
func (c *Cursor) Enable(on bool) {
	if on == c.enabled {
		return
	}

	if on {
		c.wake()
		c.Rebase()
		return
	}

	c.enabled = false
	c.focused = nil
	c.image = ""
	c.imageDefault = false
	c.seat.proto.PointerClearFocus()
	c.img.Hide()
}

// wake enables the cursor without recomputing focus.
func (c *Cursor) wake() {
	if c.enabled {
		return
	}
	c.enabled = true
	c.img.SetPosition(c.x, c.y)
	c.resetImage()
}

// Rebase gives pointer focus to whatever surface is under the cursor.
// It does nothing while the cursor is disabled or while a view is
// being moved or resized, as the grabbed view keeps focus until the
// grab ends.
func (c *Cursor) Rebase() {
	c.rebaseAt(c.seat.server.now())
}

func (c *Cursor) rebaseAt(t time.Time) {
	if !c.enabled || (c.seat.op.mode() != SeatopDefault) {
		return
	}

	surface, _, sx, sy := c.seat.server.surfaceAt(c.x, c.y)
	if surface == nil {
		if c.focused != nil {
			c.focused = nil
			c.seat.proto.PointerClearFocus()
		}
		if !c.imageDefault {
			c.resetImage()
		}
		return
	}

	// The surface now decides what the cursor looks like.
	c.imageDefault = false

	if surface != c.focused {
		c.focused = surface
		c.seat.proto.PointerNotifyEnter(surface, sx, sy)
	}
	c.seat.proto.PointerNotifyMotion(t, sx, sy)
}

// SetImage shows the named xcursor image.
func (c *Cursor) SetImage(name string) {
	c.image = name
	c.imageDefault = false
	if c.enabled {
		c.img.SetImage(name)
	}
}

func (c *Cursor) resetImage() {
	c.SetImage(c.seat.server.config.Cursor.DefaultImage)
	c.imageDefault = true
}

// SetImageSurface shows a client surface as the cursor. A nil surface
// hides the cursor.
func (c *Cursor) SetImageSurface(s Surface, hotspotX, hotspotY int) {
	c.image = ""
	c.imageDefault = false
	if !c.enabled {
		return
	}

	if s == nil {
		c.img.Hide()
		return
	}
	c.img.SetSurface(s, hotspotX, hotspotY)
}

// WarpToOutput moves the cursor to the center of out.
func (c *Cursor) WarpToOutput(out *Output) {
	center := out.box.Center()
	c.moveTo(float64(center.X), float64(center.Y))
	c.Rebase()
}

func (c *Cursor) moveTo(x, y float64) {
	c.x, c.y = x, y
	c.img.SetPosition(x, y)
}

// clamp returns the point inside the output layout closest to (x, y).
// It returns the point unchanged if there are no outputs.
func (c *Cursor) clamp(x, y float64) (float64, float64) {
	const edge = 1.0 / 65536

	outputs := c.seat.server.outputs
	if len(outputs) == 0 {
		return x, y
	}

	bx, by := x, y
	best := math.Inf(1)
	for _, out := range outputs {
		if contains(out.box, x, y) {
			return x, y
		}

		cx := min(max(x, float64(out.box.Min.X)), float64(out.box.Max.X)-edge)
		cy := min(max(y, float64(out.box.Min.Y)), float64(out.box.Max.Y)-edge)
		d := math.Hypot(cx-x, cy-y)
		if d < best {
			bx, by, best = cx, cy, d
		}
	}
	return bx, by
}

func (c *Cursor) motion(x, y float64, t time.Time) {
	c.moveTo(c.clamp(x, y))
	c.wake()
	c.seat.op.pointerMotion(c.seat, t)
}

// HandleMotion moves the cursor by a relative amount.
func (c *Cursor) HandleMotion(dev InputDevice, dx, dy float64, t time.Time) {
	c.motion(c.x+dx, c.y+dy, t)
}

// HandleMotionAbsolute moves the cursor to a point given in the range
// [0, 1] over the whole output layout, as reported by tablets and
// nested backends.
func (c *Cursor) HandleMotionAbsolute(dev InputDevice, x, y float64, t time.Time) {
	lb := c.seat.server.LayoutBox()
	if lb.Empty() {
		return
	}

	c.motion(
		float64(lb.Min.X)+x*float64(lb.Dx()),
		float64(lb.Min.Y)+y*float64(lb.Dy()),
		t,
	)
}

func (c *Cursor) HandleButton(ev ButtonEvent) {
	c.wake()
	c.seat.op.pointerButton(c.seat, ev)
}

func (c *Cursor) HandleAxis(ev AxisEvent) {
	c.wake()
	if c.seat.op.mode() != SeatopDefault {
		return
	}
	c.seat.proto.PointerNotifyAxis(ev)
}

// HandleFrame ends a group of pointer events. Like axis events,
// frames aren't forwarded during a grab.
func (c *Cursor) HandleFrame() {
	if c.seat.op.mode() != SeatopDefault {
		return
	}
	c.seat.proto.PointerNotifyFrame()
}

func (c *Cursor) HandleSwipeBegin(t time.Time, fingers uint32) {
	c.Enable(true)
	c.gestures.SendSwipeBegin(t, fingers)
}

func (c *Cursor) HandleSwipeUpdate(t time.Time, dx, dy float64) {
	c.gestures.SendSwipeUpdate(t, dx, dy)
}

func (c *Cursor) HandleSwipeEnd(t time.Time, cancelled bool) {
	c.gestures.SendSwipeEnd(t, cancelled)
}

func (c *Cursor) HandlePinchBegin(t time.Time, fingers uint32) {
	c.Enable(true)
	c.gestures.SendPinchBegin(t, fingers)
}

func (c *Cursor) HandlePinchUpdate(t time.Time, dx, dy, scale, rotation float64) {
	c.gestures.SendPinchUpdate(t, dx, dy, scale, rotation)
}

func (c *Cursor) HandlePinchEnd(t time.Time, cancelled bool) {
	c.gestures.SendPinchEnd(t, cancelled)
}

func (c *Cursor) HandleHoldBegin(t time.Time, fingers uint32) {
	c.Enable(true)
	c.gestures.SendHoldBegin(t, fingers)
}

func (c *Cursor) HandleHoldEnd(t time.Time, cancelled bool) {
	c.gestures.SendHoldEnd(t, cancelled)
}

func (c *Cursor) attach(dev InputDevice) {
	c.devices = append(c.devices, dev)
}

func (c *Cursor) detach(dev InputDevice) {
	c.devices = util.Remove(c.devices, dev)
}

type nopCursorImage struct{}

func (nopCursorImage) SetImage(string)              {}
func (nopCursorImage) SetSurface(Surface, int, int) {}
func (nopCursorImage) Hide()                        {}
func (nopCursorImage) SetPosition(float64, float64) {}

type nopGestures struct{}

func (nopGestures) SendSwipeBegin(time.Time, uint32)                              {}
func (nopGestures) SendSwipeUpdate(time.Time, float64, float64)                   {}
func (nopGestures) SendSwipeEnd(time.Time, bool)                                  {}
func (nopGestures) SendPinchBegin(time.Time, uint32)                              {}
func (nopGestures) SendPinchUpdate(time.Time, float64, float64, float64, float64) {}
func (nopGestures) SendPinchEnd(time.Time, bool)                                  {}
func (nopGestures) SendHoldBegin(time.Time, uint32)                               {}
func (nopGestures) SendHoldEnd(time.Time, bool)                                   {}
