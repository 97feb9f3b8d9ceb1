package sycamore_test

import (
	"errors"
	"io"
	"testing"
	"time"

	"deedles.dev/sycamore"
	"deedles.dev/sycamore/config"
	"deedles.dev/sycamore/internal/listener"
	"deedles.dev/sycamore/layout"
	"deedles.dev/sycamore/scene"
	"deedles.dev/ximage/geom"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type event = listener.Signal[struct{}]

func on(sig *event, f func()) *listener.Listener {
	return sig.Add(func(struct{}) { f() })
}

type fakeSurface struct {
	name string
	w, h int
}

func (s *fakeSurface) Size() geom.Point[int] {
	return geom.Pt(s.w, s.h)
}

type fakeClient struct {
	pid int
}

func (c *fakeClient) PID() int {
	return c.pid
}

type fakeOutput struct {
	name    string
	size    geom.Point[int]
	scale   float64
	destroy event
}

func newFakeOutput(name string, w, h int) *fakeOutput {
	return &fakeOutput{name: name, size: geom.Pt(w, h)}
}

func (o *fakeOutput) Name() string                          { return o.name }
func (o *fakeOutput) PreferredSize() geom.Point[int]        { return o.size }
func (o *fakeOutput) SetScale(scale float64)                { o.scale = scale }
func (o *fakeOutput) OnDestroy(f func()) *listener.Listener { return on(&o.destroy, f) }

type fakeToplevel struct {
	surface   *fakeSurface
	client    *fakeClient
	title     string
	geometry  geom.Rect[int]
	min       geom.Point[int]
	requested sycamore.ToplevelRequest

	activated  bool
	size       geom.Point[int]
	fullscreen bool
	maximized  bool
	resizing   bool
	configures int
	closed     bool

	mapped, unmapped, destroyed, committed event
	move, fullscreenReq, maximizeReq, minimize event
	resize                                    listener.Signal[layout.Edges]
}

func newFakeToplevel(title string, w, h int) *fakeToplevel {
	return &fakeToplevel{
		surface:  &fakeSurface{name: title, w: w, h: h},
		client:   &fakeClient{pid: 100},
		title:    title,
		geometry: layout.Box(0, 0, w, h),
	}
}

func (t *fakeToplevel) Surface() sycamore.Surface           { return t.surface }
func (t *fakeToplevel) Client() sycamore.Client             { return t.client }
func (t *fakeToplevel) Title() string                       { return t.title }
func (t *fakeToplevel) Geometry() geom.Rect[int]            { return t.geometry }
func (t *fakeToplevel) MinSize() geom.Point[int]            { return t.min }
func (t *fakeToplevel) Requested() sycamore.ToplevelRequest { return t.requested }
func (t *fakeToplevel) SetActivated(a bool)                 { t.activated = a }
func (t *fakeToplevel) SetSize(w, h int)                    { t.size = geom.Pt(w, h) }
func (t *fakeToplevel) SetFullscreen(f bool)                { t.fullscreen = f }
func (t *fakeToplevel) SetMaximized(m bool)                 { t.maximized = m }
func (t *fakeToplevel) SetResizing(r bool)                  { t.resizing = r }
func (t *fakeToplevel) ScheduleConfigure()                  { t.configures++ }
func (t *fakeToplevel) SendClose()                          { t.closed = true }

func (t *fakeToplevel) OnMap(f func()) *listener.Listener     { return on(&t.mapped, f) }
func (t *fakeToplevel) OnUnmap(f func()) *listener.Listener   { return on(&t.unmapped, f) }
func (t *fakeToplevel) OnDestroy(f func()) *listener.Listener { return on(&t.destroyed, f) }
func (t *fakeToplevel) OnCommit(f func()) *listener.Listener  { return on(&t.committed, f) }
func (t *fakeToplevel) OnRequestMove(f func()) *listener.Listener {
	return on(&t.move, f)
}
func (t *fakeToplevel) OnRequestResize(f func(layout.Edges)) *listener.Listener {
	return t.resize.Add(f)
}
func (t *fakeToplevel) OnRequestFullscreen(f func()) *listener.Listener {
	return on(&t.fullscreenReq, f)
}
func (t *fakeToplevel) OnRequestMaximize(f func()) *listener.Listener {
	return on(&t.maximizeReq, f)
}
func (t *fakeToplevel) OnRequestMinimize(f func()) *listener.Listener {
	return on(&t.minimize, f)
}

// commit acts like the client acking a new size.
func (t *fakeToplevel) commit(w, h int) {
	t.geometry = layout.Box(0, 0, w, h)
	t.surface.w, t.surface.h = w, h
	t.committed.Emit(struct{}{})
}

type fakePopup struct {
	surface *fakeSurface
	parent  sycamore.Surface
	pos     geom.Point[int]

	destroyed, committed event
}

func newFakePopup(parent sycamore.Surface, x, y, w, h int) *fakePopup {
	return &fakePopup{
		surface: &fakeSurface{name: "popup", w: w, h: h},
		parent:  parent,
		pos:     geom.Pt(x, y),
	}
}

func (p *fakePopup) Surface() sycamore.Surface             { return p.surface }
func (p *fakePopup) Parent() sycamore.Surface              { return p.parent }
func (p *fakePopup) Position() geom.Point[int]             { return p.pos }
func (p *fakePopup) OnDestroy(f func()) *listener.Listener { return on(&p.destroyed, f) }
func (p *fakePopup) OnCommit(f func()) *listener.Listener  { return on(&p.committed, f) }

type fakeXwayland struct {
	surface    *fakeSurface
	title      string
	geometry   geom.Rect[int]
	fullscreen bool
	maximized  bool

	activated bool
	configure geom.Rect[int]
	minimized []bool
	closed    bool

	mapped, unmapped, destroyed, committed event
	move, fullscreenReq, maximizeReq       event
	resize                                 listener.Signal[layout.Edges]
	minimize                               listener.Signal[bool]
}

func newFakeXwayland(title string, w, h int) *fakeXwayland {
	return &fakeXwayland{
		surface:  &fakeSurface{name: title, w: w, h: h},
		title:    title,
		geometry: layout.Box(0, 0, w, h),
	}
}

func (x *fakeXwayland) Surface() sycamore.Surface { return x.surface }
func (x *fakeXwayland) Title() string             { return x.title }
func (x *fakeXwayland) Geometry() geom.Rect[int]  { return x.geometry }
func (x *fakeXwayland) Fullscreen() bool          { return x.fullscreen }
func (x *fakeXwayland) Maximized() bool           { return x.maximized }
func (x *fakeXwayland) Activate(a bool)           { x.activated = a }
func (x *fakeXwayland) Configure(px, py, w, h int) {
	x.configure = layout.Box(px, py, w, h)
}
func (x *fakeXwayland) SetFullscreen(f bool) { x.fullscreen = f }
func (x *fakeXwayland) SetMaximized(m bool)  { x.maximized = m }
func (x *fakeXwayland) SetMinimized(m bool)  { x.minimized = append(x.minimized, m) }
func (x *fakeXwayland) Close()               { x.closed = true }

func (x *fakeXwayland) OnMap(f func()) *listener.Listener     { return on(&x.mapped, f) }
func (x *fakeXwayland) OnUnmap(f func()) *listener.Listener   { return on(&x.unmapped, f) }
func (x *fakeXwayland) OnDestroy(f func()) *listener.Listener { return on(&x.destroyed, f) }
func (x *fakeXwayland) OnCommit(f func()) *listener.Listener  { return on(&x.committed, f) }
func (x *fakeXwayland) OnRequestMove(f func()) *listener.Listener {
	return on(&x.move, f)
}
func (x *fakeXwayland) OnRequestResize(f func(layout.Edges)) *listener.Listener {
	return x.resize.Add(f)
}
func (x *fakeXwayland) OnRequestFullscreen(f func()) *listener.Listener {
	return on(&x.fullscreenReq, f)
}
func (x *fakeXwayland) OnRequestMaximize(f func()) *listener.Listener {
	return on(&x.maximizeReq, f)
}
func (x *fakeXwayland) OnRequestMinimize(f func(bool)) *listener.Listener {
	return x.minimize.Add(f)
}

type fakeLayer struct {
	surface   *fakeSurface
	namespace string
	output    sycamore.OutputDevice
	state     sycamore.LayerState

	configured []geom.Point[int]
	closed     bool

	mapped, unmapped, destroyed, committed event
}

func newFakeLayer(namespace string, state sycamore.LayerState) *fakeLayer {
	return &fakeLayer{
		surface:   &fakeSurface{name: namespace},
		namespace: namespace,
		state:     state,
	}
}

func (l *fakeLayer) Surface() sycamore.Surface     { return l.surface }
func (l *fakeLayer) Namespace() string             { return l.namespace }
func (l *fakeLayer) Output() sycamore.OutputDevice { return l.output }
func (l *fakeLayer) Current() sycamore.LayerState  { return l.state }
func (l *fakeLayer) Close()                        { l.closed = true }

func (l *fakeLayer) Configure(w, h int) {
	l.configured = append(l.configured, geom.Pt(w, h))
	l.surface.w, l.surface.h = w, h
}

func (l *fakeLayer) OnMap(f func()) *listener.Listener     { return on(&l.mapped, f) }
func (l *fakeLayer) OnUnmap(f func()) *listener.Listener   { return on(&l.unmapped, f) }
func (l *fakeLayer) OnDestroy(f func()) *listener.Listener { return on(&l.destroyed, f) }
func (l *fakeLayer) OnCommit(f func()) *listener.Listener  { return on(&l.committed, f) }

type fakeSeat struct {
	caps     sycamore.Capabilities
	keyboard sycamore.KeyboardDevice

	kbFocus   sycamore.Surface
	kbEnters  []sycamore.Surface
	kbClears  int
	keys      []sycamore.KeyEvent
	modifiers int

	ptrFocus   sycamore.Surface
	ptrClient  sycamore.Client
	ptrEnters  []sycamore.Surface
	ptrMotions []geom.Point[float64]
	ptrClears  int
	buttons    []sycamore.ButtonState
	axes       []sycamore.AxisEvent
	frames     int

	selection        sycamore.DataSource
	primarySelection sycamore.DataSource

	validPointer bool
	touchPoint   sycamore.TouchPoint
	pointerDrags []sycamore.Drag
	touchDrags   []sycamore.Drag
}

func (s *fakeSeat) SetCapabilities(caps sycamore.Capabilities) { s.caps = caps }
func (s *fakeSeat) SetKeyboard(kb sycamore.KeyboardDevice)     { s.keyboard = kb }

func (s *fakeSeat) KeyboardNotifyEnter(surface sycamore.Surface) {
	s.kbFocus = surface
	s.kbEnters = append(s.kbEnters, surface)
}

func (s *fakeSeat) KeyboardClearFocus() {
	s.kbFocus = nil
	s.kbClears++
}

func (s *fakeSeat) KeyboardNotifyKey(ev sycamore.KeyEvent)           { s.keys = append(s.keys, ev) }
func (s *fakeSeat) KeyboardNotifyModifiers(sycamore.KeyboardDevice) { s.modifiers++ }

func (s *fakeSeat) PointerNotifyEnter(surface sycamore.Surface, sx, sy float64) {
	s.ptrFocus = surface
	s.ptrEnters = append(s.ptrEnters, surface)
}

func (s *fakeSeat) PointerNotifyMotion(t time.Time, sx, sy float64) {
	s.ptrMotions = append(s.ptrMotions, geom.Pt(sx, sy))
}

func (s *fakeSeat) PointerNotifyButton(t time.Time, button uint32, state sycamore.ButtonState) uint32 {
	s.buttons = append(s.buttons, state)
	return uint32(len(s.buttons))
}

func (s *fakeSeat) PointerNotifyAxis(ev sycamore.AxisEvent) { s.axes = append(s.axes, ev) }
func (s *fakeSeat) PointerNotifyFrame()                     { s.frames++ }

func (s *fakeSeat) PointerClearFocus() {
	s.ptrFocus = nil
	s.ptrClears++
}

func (s *fakeSeat) PointerFocusedSurface() sycamore.Surface { return s.ptrFocus }
func (s *fakeSeat) PointerFocusedClient() sycamore.Client   { return s.ptrClient }

func (s *fakeSeat) SetSelection(source sycamore.DataSource, serial uint32) {
	s.selection = source
}

func (s *fakeSeat) SetPrimarySelection(source sycamore.DataSource, serial uint32) {
	s.primarySelection = source
}

func (s *fakeSeat) ValidatePointerGrabSerial(origin sycamore.Surface, serial uint32) bool {
	return s.validPointer
}

func (s *fakeSeat) ValidateTouchGrabSerial(origin sycamore.Surface, serial uint32) (sycamore.TouchPoint, bool) {
	return s.touchPoint, s.touchPoint != nil
}

func (s *fakeSeat) StartPointerDrag(drag sycamore.Drag, serial uint32) {
	s.pointerDrags = append(s.pointerDrags, drag)
}

func (s *fakeSeat) StartTouchDrag(drag sycamore.Drag, serial uint32, point sycamore.TouchPoint) {
	s.touchDrags = append(s.touchDrags, drag)
}

type fakeCursorImage struct {
	image   string
	images  int
	surface sycamore.Surface
	hidden  bool
	pos     geom.Point[float64]
}

func (c *fakeCursorImage) SetImage(name string) {
	c.image = name
	c.images++
	c.surface = nil
	c.hidden = false
}

func (c *fakeCursorImage) SetSurface(s sycamore.Surface, hotspotX, hotspotY int) {
	c.image = ""
	c.surface = s
	c.hidden = false
}

func (c *fakeCursorImage) Hide() {
	c.hidden = true
}

func (c *fakeCursorImage) SetPosition(x, y float64) {
	c.pos = geom.Pt(x, y)
}

type fakeGestures struct {
	calls []string
}

func (g *fakeGestures) SendSwipeBegin(time.Time, uint32) { g.calls = append(g.calls, "swipe begin") }
func (g *fakeGestures) SendSwipeUpdate(time.Time, float64, float64) {
	g.calls = append(g.calls, "swipe update")
}
func (g *fakeGestures) SendSwipeEnd(time.Time, bool)     { g.calls = append(g.calls, "swipe end") }
func (g *fakeGestures) SendPinchBegin(time.Time, uint32) { g.calls = append(g.calls, "pinch begin") }
func (g *fakeGestures) SendPinchUpdate(time.Time, float64, float64, float64, float64) {
	g.calls = append(g.calls, "pinch update")
}
func (g *fakeGestures) SendPinchEnd(time.Time, bool)    { g.calls = append(g.calls, "pinch end") }
func (g *fakeGestures) SendHoldBegin(time.Time, uint32) { g.calls = append(g.calls, "hold begin") }
func (g *fakeGestures) SendHoldEnd(time.Time, bool)     { g.calls = append(g.calls, "hold end") }

type fakeDevice struct {
	name    string
	typ     sycamore.DeviceType
	destroy event
}

func newFakeDevice(name string, typ sycamore.DeviceType) *fakeDevice {
	return &fakeDevice{name: name, typ: typ}
}

func (d *fakeDevice) Name() string                          { return d.name }
func (d *fakeDevice) Type() sycamore.DeviceType             { return d.typ }
func (d *fakeDevice) OnDestroy(f func()) *listener.Listener { return on(&d.destroy, f) }

var errBadKeymap = errors.New("bad keymap")

type fakeKeyboard struct {
	fakeDevice

	keymap      sycamore.KeymapNames
	keymapErr   error
	rate, delay int

	key       listener.Signal[sycamore.KeyEvent]
	modifiers event
}

func newFakeKeyboard(name string) *fakeKeyboard {
	return &fakeKeyboard{fakeDevice: fakeDevice{name: name, typ: sycamore.DeviceKeyboard}}
}

func (k *fakeKeyboard) SetKeymap(names sycamore.KeymapNames) error {
	if k.keymapErr != nil {
		return k.keymapErr
	}
	k.keymap = names
	return nil
}

func (k *fakeKeyboard) SetRepeatInfo(rate, delay int) {
	k.rate, k.delay = rate, delay
}

func (k *fakeKeyboard) OnKey(f func(sycamore.KeyEvent)) *listener.Listener {
	return k.key.Add(f)
}

func (k *fakeKeyboard) OnModifiers(f func()) *listener.Listener {
	return on(&k.modifiers, f)
}

type fakeLibinput struct {
	fakeDevice

	methods sycamore.ScrollMethod
	fingers int
	tap     bool
	natural *bool
	accel   *float64
}

func (l *fakeLibinput) ScrollMethods() sycamore.ScrollMethod { return l.methods }
func (l *fakeLibinput) TapFingerCount() int                  { return l.fingers }
func (l *fakeLibinput) TapEnabled() bool                     { return l.tap }
func (l *fakeLibinput) SetTapEnabled(tap bool)               { l.tap = tap }
func (l *fakeLibinput) HasNaturalScroll() bool               { return l.natural != nil }
func (l *fakeLibinput) NaturalScroll() bool                  { return *l.natural }
func (l *fakeLibinput) SetNaturalScroll(n bool)              { *l.natural = n }
func (l *fakeLibinput) AccelAvailable() bool                 { return l.accel != nil }
func (l *fakeLibinput) AccelSpeed() float64                  { return *l.accel }
func (l *fakeLibinput) SetAccelSpeed(s float64)              { *l.accel = s }

type fakeDataSource struct {
	destroyed bool
}

func (s *fakeDataSource) Destroy() {
	s.destroyed = true
}

type fakeDrag struct {
	source *fakeDataSource
}

func (d *fakeDrag) Source() sycamore.DataSource {
	return d.source
}

type fakeTouchPoint struct{}

func (fakeTouchPoint) ID() int32 {
	return 1
}

type testEnv struct {
	server   *sycamore.Server
	scene    *scene.Scene
	seat     *fakeSeat
	img      *fakeCursorImage
	gestures *fakeGestures
	output   *sycamore.Output
	mouse    *fakeDevice
}

// newTestEnv creates a server with a single 1000x800 output at the
// origin. The cursor starts at the center of the output and is
// disabled until something moves it.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	c := config.Default
	env := testEnv{
		scene:    scene.New(),
		seat:     &fakeSeat{},
		img:      &fakeCursorImage{},
		gestures: &fakeGestures{},
		mouse:    newFakeDevice("mouse", sycamore.DevicePointer),
	}

	server, err := sycamore.NewServer(sycamore.Options{
		Config:   &c,
		Logger:   log.New(io.Discard),
		Scene:    env.scene,
		Seat:     env.seat,
		Cursor:   env.img,
		Gestures: env.gestures,
		Now:      func() time.Time { return epoch },
	})
	require.NoError(t, err)
	env.server = server

	out, err := server.NewOutput(newFakeOutput("DP-1", 1000, 800))
	require.NoError(t, err)
	env.output = out

	return &env
}

// mapToplevel creates and maps an xdg toplevel of the given size.
func (env *testEnv) mapToplevel(t *testing.T, title string, w, h int) (*sycamore.View, *fakeToplevel) {
	t.Helper()

	tl := newFakeToplevel(title, w, h)
	view, err := env.server.NewXDGToplevel(tl)
	require.NoError(t, err)
	tl.mapped.Emit(struct{}{})
	require.True(t, view.Mapped())
	return view, tl
}

// moveCursor moves the cursor by a relative amount.
func (env *testEnv) moveCursor(dx, dy float64) {
	env.server.Cursor().HandleMotion(env.mouse, dx, dy, epoch)
}

// warpCursor moves the cursor to an absolute layout position with
// relative motion.
func (env *testEnv) warpCursor(x, y float64) {
	p := env.server.Cursor().Position()
	env.moveCursor(x-p.X, y-p.Y)
}

func (env *testEnv) press() {
	env.server.Cursor().HandleButton(sycamore.ButtonEvent{
		Device: env.mouse,
		Time:   epoch,
		Button: 0x110,
		State:  sycamore.ButtonPressed,
	})
}

func (env *testEnv) release() {
	env.server.Cursor().HandleButton(sycamore.ButtonEvent{
		Device: env.mouse,
		Time:   epoch,
		Button: 0x110,
		State:  sycamore.ButtonReleased,
	})
}
