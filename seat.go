package sycamore

import (
	"fmt"

	"deedles.dev/sycamore/layout"
	"github.com/charmbracelet/log"
	"golang.org/x/exp/slices"
)

// Seat is the single seat of the session. It owns the cursor, the
// current seat operation, keyboard focus, and the attached input
// devices.
type Seat struct {
	server *Server
	proto  SeatProtocol
	log    *log.Logger

	cursor *Cursor
	op     seatop

	focused      ViewRef
	focusedLayer *Layer

	devices  []*device
	keyboard KeyboardDevice
	caps     Capabilities
}

func newSeat(server *Server, proto SeatProtocol, img CursorImage, gestures GestureProtocol) *Seat {
	seat := Seat{
		server: server,
		proto:  proto,
		log:    server.log.With("component", "seat"),
		op:     seatopDefault{},
	}
	seat.cursor = newCursor(&seat, img, gestures)
	return &seat
}

func (seat *Seat) Cursor() *Cursor {
	return seat.cursor
}

// Mode returns the current seat operation.
func (seat *Seat) Mode() SeatopMode {
	return seat.op.mode()
}

// FocusedView returns the view with keyboard focus, or nil if no view
// has it.
func (seat *Seat) FocusedView() *View {
	return seat.server.Resolve(seat.focused)
}

// FocusedLayer returns the layer that has taken exclusive keyboard
// focus, if any.
func (seat *Seat) FocusedLayer() *Layer {
	return seat.focusedLayer
}

// GrabbedView returns the view being moved or resized and the edges
// being resized. It returns nil outside of a grab.
func (seat *Seat) GrabbedView() (*View, layout.Edges) {
	ref, edges := seat.op.grab()
	return seat.server.Resolve(ref), edges
}

// Capabilities returns the capabilities last advertised to clients.
func (seat *Seat) Capabilities() Capabilities {
	return seat.caps
}

// Keyboard returns the keyboard that most recently sent input.
func (seat *Seat) Keyboard() KeyboardDevice {
	return seat.keyboard
}

// HandleNewDevice attaches an input device to the seat. The device is
// detached automatically when it is destroyed.
func (seat *Seat) HandleNewDevice(dev InputDevice) error {
	if seat.deviceIndex(dev) >= 0 {
		return ErrDuplicate
	}

	d, err := seat.newDevice(dev)
	if err != nil {
		seat.log.Error("add device", "name", dev.Name(), "type", dev.Type(), "err", err)
		return fmt.Errorf("add %v %q: %w", dev.Type(), dev.Name(), err)
	}
	d.listeners.Add(dev.OnDestroy(func() { seat.HandleDeviceDestroy(dev) }))
	seat.devices = append(seat.devices, d)

	seat.log.Debug("new device", "name", dev.Name(), "type", dev.Type())
	seat.updateCapabilities()
	return nil
}

// HandleDeviceDestroy detaches an input device from the seat.
func (seat *Seat) HandleDeviceDestroy(dev InputDevice) {
	i := seat.deviceIndex(dev)
	if i < 0 {
		return
	}
	d := seat.devices[i]
	seat.devices = slices.Delete(seat.devices, i, i+1)
	d.destroy(seat)

	if (d.keyboard != nil) && (seat.keyboard == d.keyboard) {
		seat.setKeyboard(seat.nextKeyboard())
	}

	seat.log.Debug("device removed", "name", dev.Name(), "type", dev.Type())
	seat.updateCapabilities()
}

func (seat *Seat) deviceIndex(dev InputDevice) int {
	return slices.IndexFunc(seat.devices, func(d *device) bool { return d.dev == dev })
}

func (seat *Seat) nextKeyboard() KeyboardDevice {
	for _, d := range seat.devices {
		if d.keyboard != nil {
			return d.keyboard
		}
	}
	return nil
}

func (seat *Seat) updateCapabilities() {
	var caps Capabilities
	for _, d := range seat.devices {
		caps |= d.dev.Type().capabilities()
	}

	seat.caps = caps
	seat.proto.SetCapabilities(caps)

	if caps&CapabilityPointer == 0 {
		seat.cursor.Enable(false)
	}
}

// HandleRequestSetCursor sets the cursor image to a client's surface.
// Only the client with pointer focus may do so, and only while the
// cursor is shown and no view is being moved or resized.
func (seat *Seat) HandleRequestSetCursor(client Client, surface Surface, hotspotX, hotspotY int) {
	if !seat.cursor.enabled || (seat.op.mode() != SeatopDefault) {
		return
	}
	if (client == nil) || (seat.proto.PointerFocusedClient() != client) {
		return
	}

	seat.cursor.SetImageSurface(surface, hotspotX, hotspotY)
}

func (seat *Seat) HandleRequestSetSelection(source DataSource, serial uint32) {
	seat.proto.SetSelection(source, serial)
}

func (seat *Seat) HandleRequestSetPrimarySelection(source DataSource, serial uint32) {
	seat.proto.SetPrimarySelection(source, serial)
}

// HandleRequestStartDrag starts a drag-and-drop operation if the
// serial matches a pointer or touch grab on origin. Otherwise the
// drag's data source is destroyed.
func (seat *Seat) HandleRequestStartDrag(drag Drag, origin Surface, serial uint32) {
	if seat.proto.ValidatePointerGrabSerial(origin, serial) {
		seat.proto.StartPointerDrag(drag, serial)
		return
	}

	point, ok := seat.proto.ValidateTouchGrabSerial(origin, serial)
	if ok {
		seat.proto.StartTouchDrag(drag, serial, point)
		return
	}

	seat.log.Debug("rejected drag", "serial", serial)
	if source := drag.Source(); source != nil {
		source.Destroy()
	}
}

func (seat *Seat) focusView(view *View) {
	seat.focused = view.ref
	if seat.focusedLayer != nil {
		return
	}
	seat.proto.KeyboardNotifyEnter(view.Surface())
}

func (seat *Seat) focusLayer(layer *Layer) {
	if seat.focusedLayer == layer {
		return
	}
	seat.focusedLayer = layer
	seat.proto.KeyboardNotifyEnter(layer.surface.Surface())
}

// layerUnmapped moves keyboard focus away from layer if it had taken
// it. Another mapped layer that wants exclusive focus gets it first,
// then the focused view.
func (seat *Seat) layerUnmapped(layer *Layer) {
	if seat.focusedLayer != layer {
		return
	}
	seat.focusedLayer = nil

	if next := seat.server.exclusiveLayer(); next != nil {
		seat.focusLayer(next)
		return
	}

	view := seat.FocusedView()
	if view == nil {
		seat.proto.KeyboardClearFocus()
		return
	}
	seat.proto.KeyboardNotifyEnter(view.Surface())
}

// viewUnmapped drops every reference that the seat holds to view. If
// view was grabbed, the grab ends without touching its geometry. If
// it had keyboard focus, nothing gets focus in its place.
func (seat *Seat) viewUnmapped(view *View) {
	ref, _ := seat.op.grab()
	if ref == view.ref {
		seat.cancelGrab()
	}

	if seat.focused == view.ref {
		seat.focused = ViewRef{}
		if seat.focusedLayer == nil {
			seat.proto.KeyboardClearFocus()
		}
	}
}

func (seat *Seat) destroy() {
	seat.cancelGrab()
	for _, d := range seat.devices {
		d.destroy(seat)
	}
	seat.devices = nil
	seat.keyboard = nil
	seat.focused = ViewRef{}
	seat.focusedLayer = nil
}
