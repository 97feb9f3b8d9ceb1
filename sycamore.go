// Package sycamore is the window management and input routing core of
// a Wayland compositor.
//
// The core decides which surface receives pointer and keyboard input,
// carries out interactive moves and resizes, tracks window
// maximize/fullscreen state, and arranges layer-shell surfaces. It
// does not render, speak the Wayland wire protocol, or own any
// buffers. Those jobs belong to the collaborators described by the
// interfaces in this file, which a backend implements and hands to
// NewServer.
//
// Everything runs on one goroutine. Every exported method is expected
// to be called from the compositor's event loop and runs to
// completion before the next event is processed.
package sycamore

import (
	"errors"
	"time"

	"deedles.dev/sycamore/internal/listener"
	"deedles.dev/sycamore/layout"
	"deedles.dev/ximage/geom"
)

var (
	ErrNoScene    = errors.New("no scene")
	ErrNoSeat     = errors.New("no seat protocol")
	ErrNoOutput   = errors.New("no output available")
	ErrNoKeyboard = errors.New("device is not a keyboard")
	ErrDuplicate  = errors.New("already added")

	ErrUnknownParent = errors.New("unknown popup parent")
)

// Surface is a client surface. The core only compares surfaces and
// passes them back to collaborators.
type Surface interface {
	// Size returns the size of the surface's current buffer.
	Size() geom.Point[int]
}

// Client is the client that owns a surface.
type Client interface {
	PID() int
}

// SceneLayer is a fixed z-band of the scene. Higher bands are drawn
// above lower ones.
type SceneLayer int

const (
	SceneLayerBackground SceneLayer = iota
	SceneLayerBottom
	SceneLayerViews
	SceneLayerTop
	SceneLayerOverlay

	sceneLayerCount
)

// Scene is the scene graph that positions and stacks everything on
// screen.
type Scene interface {
	// Tree returns the root node of the given band.
	Tree(SceneLayer) SceneNode

	// CreateSurfaceTree creates a node under parent that displays
	// surface and all of its subsurfaces and popups.
	CreateSurfaceTree(parent SceneNode, surface Surface) (SceneNode, error)

	// NodeAt returns the topmost enabled node at the given layout
	// coordinates and the coordinates relative to that node. It
	// returns a nil node if there is nothing there.
	NodeAt(lx, ly float64) (node SceneNode, sx, sy float64)
}

// SceneNode is a single positionable, stackable element of a Scene.
type SceneNode interface {
	// Parent returns the node's parent, or nil for a band's root.
	Parent() SceneNode

	// Surface returns the surface displayed by the node, or nil if the
	// node is not a surface node.
	Surface() Surface

	// Position returns the node's position relative to its parent.
	Position() geom.Point[int]
	SetPosition(x, y int)
	SetEnabled(bool)
	RaiseToTop()
	Reparent(SceneNode)

	// Data and SetData store an identity tag on the node. The core tags
	// the root node of every view and layer with the *View or *Layer.
	Data() any
	SetData(any)

	Destroy()
}

// OutputDevice is a physical or virtual display.
type OutputDevice interface {
	Name() string
	PreferredSize() geom.Point[int]
	SetScale(float64)
	OnDestroy(func()) *listener.Listener
}

// ToplevelRequest is the state that an xdg toplevel has asked for.
type ToplevelRequest struct {
	Maximized        bool
	Fullscreen       bool
	FullscreenOutput OutputDevice
}

// XDGToplevel is an xdg-shell toplevel surface.
type XDGToplevel interface {
	Surface() Surface
	Client() Client
	Title() string

	// Geometry returns the window geometry relative to the surface.
	Geometry() geom.Rect[int]
	MinSize() geom.Point[int]
	Requested() ToplevelRequest

	SetActivated(bool)
	SetSize(w, h int)
	SetFullscreen(bool)
	SetMaximized(bool)
	SetResizing(bool)
	ScheduleConfigure()
	SendClose()

	OnMap(func()) *listener.Listener
	OnUnmap(func()) *listener.Listener
	OnDestroy(func()) *listener.Listener
	OnCommit(func()) *listener.Listener
	OnRequestMove(func()) *listener.Listener
	OnRequestResize(func(layout.Edges)) *listener.Listener
	OnRequestFullscreen(func()) *listener.Listener
	OnRequestMaximize(func()) *listener.Listener
	OnRequestMinimize(func()) *listener.Listener
}

// XDGPopup is an xdg-shell popup, such as a menu or a tooltip. Its
// parent is the surface of a toplevel, a layer surface, or another
// popup.
type XDGPopup interface {
	Surface() Surface
	Parent() Surface

	// Position returns the popup's position relative to its parent's
	// surface.
	Position() geom.Point[int]

	OnDestroy(func()) *listener.Listener
	OnCommit(func()) *listener.Listener
}

// XwaylandSurface is a legacy X11 window.
type XwaylandSurface interface {
	Surface() Surface
	Title() string

	// Geometry returns the position and size of the window as the X
	// server knows it.
	Geometry() geom.Rect[int]
	Fullscreen() bool
	Maximized() bool

	Activate(bool)
	Configure(x, y, w, h int)
	SetFullscreen(bool)
	SetMaximized(bool)
	SetMinimized(bool)
	Close()

	OnMap(func()) *listener.Listener
	OnUnmap(func()) *listener.Listener
	OnDestroy(func()) *listener.Listener
	OnCommit(func()) *listener.Listener
	OnRequestMove(func()) *listener.Listener
	OnRequestResize(func(layout.Edges)) *listener.Listener
	OnRequestFullscreen(func()) *listener.Listener
	OnRequestMaximize(func()) *listener.Listener
	OnRequestMinimize(func(bool)) *listener.Listener
}

// LayerBand is the layer-shell layer that a layer surface asks to be
// placed in.
type LayerBand int

const (
	LayerBackground LayerBand = iota
	LayerBottom
	LayerTop
	LayerOverlay

	layerBandCount
)

func (band LayerBand) String() string {
	switch band {
	case LayerBackground:
		return "background"
	case LayerBottom:
		return "bottom"
	case LayerTop:
		return "top"
	case LayerOverlay:
		return "overlay"
	default:
		return "unknown"
	}
}

func (band LayerBand) sceneLayer() SceneLayer {
	switch band {
	case LayerBackground:
		return SceneLayerBackground
	case LayerBottom:
		return SceneLayerBottom
	case LayerTop:
		return SceneLayerTop
	default:
		return SceneLayerOverlay
	}
}

func (band LayerBand) valid() bool {
	return (band >= LayerBackground) && (band < layerBandCount)
}

type KeyboardInteractivity int

const (
	KeyboardInteractivityNone KeyboardInteractivity = iota
	KeyboardInteractivityExclusive
	KeyboardInteractivityOnDemand
)

// LayerState is the committed state of a layer surface.
type LayerState struct {
	Band                LayerBand
	Anchor              layout.Edges
	ExclusiveZone       int
	Margin              layout.Margin
	DesiredSize         geom.Point[int]
	KeyboardInteractive KeyboardInteractivity
}

// LayerSurface is a layer-shell surface.
type LayerSurface interface {
	Surface() Surface
	Namespace() string

	// Output returns the output that the client asked for, or nil if
	// the compositor should choose.
	Output() OutputDevice
	Current() LayerState

	Configure(w, h int)
	Close()

	OnMap(func()) *listener.Listener
	OnUnmap(func()) *listener.Listener
	OnDestroy(func()) *listener.Listener
	OnCommit(func()) *listener.Listener
}

// Capabilities is the set of input capabilities advertised by the
// seat.
type Capabilities uint32

const (
	CapabilityPointer  Capabilities = 1 << 0
	CapabilityKeyboard Capabilities = 1 << 1
	CapabilityTouch    Capabilities = 1 << 2
)

type ButtonState int

const (
	ButtonReleased ButtonState = iota
	ButtonPressed
)

type KeyState int

const (
	KeyReleased KeyState = iota
	KeyPressed
)

type AxisSource int

const (
	AxisSourceWheel AxisSource = iota
	AxisSourceFinger
	AxisSourceContinuous
	AxisSourceWheelTilt
)

type AxisOrientation int

const (
	AxisVertical AxisOrientation = iota
	AxisHorizontal
)

type ButtonEvent struct {
	Device InputDevice
	Time   time.Time
	Button uint32
	State  ButtonState
}

type AxisEvent struct {
	Device        InputDevice
	Time          time.Time
	Source        AxisSource
	Orientation   AxisOrientation
	Delta         float64
	DeltaDiscrete int32
}

type KeyEvent struct {
	Time    time.Time
	Keycode uint32
	State   KeyState
}

// DataSource is a clipboard or drag-and-drop data offer.
type DataSource interface {
	Destroy()
}

// Drag is a drag-and-drop operation requested by a client.
type Drag interface {
	Source() DataSource
}

// TouchPoint identifies an active touch.
type TouchPoint interface {
	ID() int32
}

// SeatProtocol is the protocol side of the seat. It delivers input to
// clients and keeps track of which client surfaces have pointer and
// keyboard focus.
type SeatProtocol interface {
	SetCapabilities(Capabilities)
	SetKeyboard(KeyboardDevice)

	KeyboardNotifyEnter(Surface)
	KeyboardClearFocus()
	KeyboardNotifyKey(KeyEvent)
	KeyboardNotifyModifiers(KeyboardDevice)

	PointerNotifyEnter(s Surface, sx, sy float64)
	PointerNotifyMotion(t time.Time, sx, sy float64)
	PointerNotifyButton(t time.Time, button uint32, state ButtonState) uint32
	PointerNotifyAxis(AxisEvent)
	PointerNotifyFrame()
	PointerClearFocus()
	PointerFocusedSurface() Surface
	PointerFocusedClient() Client

	SetSelection(source DataSource, serial uint32)
	SetPrimarySelection(source DataSource, serial uint32)
	ValidatePointerGrabSerial(origin Surface, serial uint32) bool
	ValidateTouchGrabSerial(origin Surface, serial uint32) (TouchPoint, bool)
	StartPointerDrag(drag Drag, serial uint32)
	StartTouchDrag(drag Drag, serial uint32, point TouchPoint)
}

// CursorImage displays the cursor, usually by way of an xcursor
// theme.
type CursorImage interface {
	// SetImage shows the named xcursor image.
	SetImage(name string)

	// SetSurface shows a client-provided surface as the cursor.
	SetSurface(s Surface, hotspotX, hotspotY int)
	Hide()

	// SetPosition moves the displayed cursor.
	SetPosition(x, y float64)
}

// GestureProtocol forwards touchpad gestures to clients.
type GestureProtocol interface {
	SendSwipeBegin(t time.Time, fingers uint32)
	SendSwipeUpdate(t time.Time, dx, dy float64)
	SendSwipeEnd(t time.Time, cancelled bool)
	SendPinchBegin(t time.Time, fingers uint32)
	SendPinchUpdate(t time.Time, dx, dy, scale, rotation float64)
	SendPinchEnd(t time.Time, cancelled bool)
	SendHoldBegin(t time.Time, fingers uint32)
	SendHoldEnd(t time.Time, cancelled bool)
}
