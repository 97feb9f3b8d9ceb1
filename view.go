package sycamore

import (
	"fmt"

	"deedles.dev/sycamore/internal/listener"
	"deedles.dev/sycamore/internal/util"
	"deedles.dev/sycamore/layout"
	"deedles.dev/ximage/geom"
	"golang.org/x/exp/slices"
)

// ViewKind is the shell protocol that a view's surface belongs to.
type ViewKind int

const (
	ViewKindXDG ViewKind = iota
	ViewKindXwayland
)

func (kind ViewKind) String() string {
	switch kind {
	case ViewKindXDG:
		return "xdg"
	case ViewKindXwayland:
		return "xwayland"
	default:
		return "unknown"
	}
}

// viewImpl is the set of operations that differ between shell
// protocols. Each kind has exactly one, chosen when the view is
// created.
type viewImpl struct {
	connect       func(*View)
	destroy       func(*View)
	surface       func(*View) Surface
	pid           func(*View) int
	title         func(*View) string
	geometry      func(*View) geom.Rect[int]
	minSize       func(*View) geom.Point[int]
	setActivated  func(*View, bool)
	setPosition   func(*View, int, int)
	setSize       func(*View, int, int)
	setFullscreen func(*View, bool)
	setMaximized  func(*View, bool)
	setResizing   func(*View, bool)
	close         func(*View)
}

// View is a toplevel window.
type View struct {
	kind     ViewKind
	impl     *viewImpl
	xdg      XDGToplevel
	xwayland XwaylandSurface

	server *Server
	node   SceneNode
	ref    ViewRef

	box       geom.Rect[int]
	placed    bool
	committed geom.Point[int]

	mapped     bool
	destroyed  bool
	maximized  bool
	fullscreen bool
	activated  bool

	maximizeRestore   geom.Rect[int]
	fullscreenRestore geom.Rect[int]

	// maximizedOn and fullscreenOn are the outputs that the view was
	// maximized and made fullscreen on. They are nil if the view isn't
	// in that state or if it covers an area that no output owns.
	maximizedOn  *Output
	fullscreenOn *Output

	// listeners live as long as the view. requests are only connected
	// while the view is mapped.
	listeners listener.Group
	requests  listener.Group
}

func (server *Server) newView(kind ViewKind, impl *viewImpl, surface Surface) (*View, error) {
	node, err := server.scene.CreateSurfaceTree(server.scene.Tree(SceneLayerViews), surface)
	if err != nil {
		return nil, fmt.Errorf("create scene tree: %w", err)
	}

	view := View{
		kind:   kind,
		impl:   impl,
		server: server,
		node:   node,
	}
	node.SetData(&view)
	node.SetEnabled(false)

	return &view, nil
}

func (view *View) Kind() ViewKind {
	return view.kind
}

func (view *View) Surface() Surface {
	return view.impl.surface(view)
}

// PID returns the process ID of the client that owns the view, or -1
// if it isn't known.
func (view *View) PID() int {
	return view.impl.pid(view)
}

func (view *View) Title() string {
	return view.impl.title(view)
}

// Geometry returns the position and size of the view in layout
// coordinates. The size is the last size that the compositor asked
// for or that the client committed, whichever happened later.
func (view *View) Geometry() geom.Rect[int] {
	return view.box
}

func (view *View) Mapped() bool {
	return view.mapped
}

func (view *View) Maximized() bool {
	return view.maximized
}

func (view *View) Fullscreen() bool {
	return view.fullscreen
}

// Activated reports whether the view was last told that it is the
// active window.
func (view *View) Activated() bool {
	return view.activated
}

// Ref returns a weak reference to the view. It is the zero ViewRef if
// the view is not mapped.
func (view *View) Ref() ViewRef {
	return view.ref
}

// Close asks the client to close the view.
func (view *View) Close() {
	view.impl.close(view)
}

func (view *View) onRequestMove() {
	view.server.seat.BeginMove(view)
}

func (view *View) onRequestResize(edges layout.Edges) {
	view.server.seat.BeginResize(view, edges)
}

func (view *View) setActivated(activated bool) {
	view.activated = activated
	view.impl.setActivated(view, activated)
}

// Move sets the view's position without changing its size.
func (view *View) Move(x, y int) {
	view.box = view.box.Add(geom.Pt(x, y).Sub(view.box.Min))
	view.placed = true
	view.node.SetPosition(x, y)
	view.impl.setPosition(view, x, y)
}

// Resize asks the client to change its size. The new size is assumed
// until the client commits something else.
func (view *View) Resize(w, h int) {
	view.box = view.box.Resize(geom.Pt(w, h))
	view.impl.setSize(view, w, h)
}

func (view *View) setGeometry(box geom.Rect[int]) {
	view.Move(box.Min.X, box.Min.Y)
	view.Resize(box.Dx(), box.Dy())
}

func (view *View) minSize() geom.Point[int] {
	floor := view.server.minSize()
	client := view.impl.minSize(view)
	return geom.Pt(max(floor.X, client.X), max(floor.Y, client.Y))
}

func (view *View) onCommit() {
	if view.updateSize() && view.mapped {
		view.server.seat.cursor.Rebase()
	}
}

// updateSize takes the view's size from the client's committed
// geometry. It reports whether the committed size changed.
func (view *View) updateSize() bool {
	g := view.impl.geometry(view)
	if g.Empty() {
		return false
	}

	changed := g.Size() != view.committed
	view.committed = g.Size()
	view.box = view.box.Resize(g.Size())
	return changed
}

// Map makes the view visible and focuses it. If requested, it starts
// maximized and/or fullscreen on the given output.
func (view *View) Map(out *Output, maximized, fullscreen bool) {
	server := view.server
	if view.mapped || view.destroyed {
		return
	}

	view.mapped = true
	view.ref = server.refs.insert(view)
	server.mapped = slices.Insert(server.mapped, 0, view)
	view.node.SetEnabled(true)

	if view.box.Empty() {
		view.updateSize()
	}
	if !view.placed {
		view.center(out)
	}

	view.impl.connect(view)

	// Maximize first so that fullscreen saves the maximized geometry
	// as the one to restore.
	if maximized {
		view.SetMaximized(nil, true)
	}
	if fullscreen {
		view.SetFullscreen(out, true)
	}

	server.log.Debug("view mapped", "kind", view.kind, "title", view.Title(), "geometry", view.box)
	server.FocusView(view)
}

func (view *View) center(out *Output) {
	server := view.server
	if out == nil {
		c := server.seat.cursor
		out = server.OutputAt(c.x, c.y)
	}

	area := server.LayoutBox()
	if out != nil {
		area = out.usable
	}
	if area.Empty() {
		view.Move(0, 0)
		return
	}

	box := layout.Center(area, view.box.Size())
	view.Move(box.Min.X, box.Min.Y)
}

// Unmap hides the view. Anything holding a ViewRef to it sees it go
// stale, an interactive grab on it ends, and it loses keyboard focus
// without another view being focused in its place.
func (view *View) Unmap() {
	server := view.server
	if !view.mapped {
		return
	}
	view.mapped = false

	server.seat.viewUnmapped(view)
	server.refs.remove(view.ref)
	view.ref = ViewRef{}

	view.requests.Destroy()

	server.mapped = util.Remove(server.mapped, view)
	view.node.SetEnabled(false)

	server.log.Debug("view unmapped", "kind", view.kind, "title", view.Title())
	server.seat.cursor.Rebase()
}

func (view *View) destroy() {
	server := view.server
	if view.destroyed {
		return
	}

	view.Unmap()
	view.destroyed = true

	view.listeners.Destroy()
	view.impl.destroy(view)
	view.node.Destroy()

	server.views = util.Remove(server.views, view)
}

// mainOutput returns the output that contains the center of the view,
// or nil if none does.
func (view *View) mainOutput() *Output {
	c := view.box.Center()
	return view.server.OutputAt(float64(c.X), float64(c.Y))
}

// SetFullscreen makes the view fullscreen on out or restores it. If
// out is nil, the view's main output is used, and if the view isn't on
// any output then the whole layout is covered.
func (view *View) SetFullscreen(out *Output, fullscreen bool) {
	if fullscreen == view.fullscreen {
		return
	}

	if !fullscreen {
		view.fullscreen = false
		view.fullscreenOn = nil
		view.impl.setFullscreen(view, false)
		view.setGeometry(view.fullscreenRestore)
		view.server.seat.cursor.Rebase()
		return
	}

	if out == nil {
		out = view.mainOutput()
	}
	box := view.server.LayoutBox()
	if out != nil {
		box = out.box
	}

	view.fullscreenRestore = view.box
	view.fullscreen = true
	view.fullscreenOn = out
	view.impl.setFullscreen(view, true)
	if box.Empty() {
		view.server.log.Debug("no area to fullscreen into", "title", view.Title())
		return
	}
	view.setGeometry(box)
	view.server.seat.cursor.Rebase()
}

// SetMaximized maximizes the view into usable or restores it. If
// usable is nil, the usable area of the view's main output is used,
// falling back to the whole layout.
//
// While the view is fullscreen, maximizing does not change what is on
// screen. Instead, the maximized geometry becomes the geometry that
// leaving fullscreen restores, and unmaximizing puts the original
// windowed geometry back underneath.
func (view *View) SetMaximized(usable *geom.Rect[int], maximized bool) {
	if maximized == view.maximized {
		return
	}

	if !maximized {
		view.maximized = false
		view.maximizedOn = nil
		view.impl.setMaximized(view, false)
		if view.fullscreen {
			view.fullscreenRestore = view.maximizeRestore
			return
		}
		view.setGeometry(view.maximizeRestore)
		view.server.seat.cursor.Rebase()
		return
	}

	var box geom.Rect[int]
	switch {
	case usable != nil:
		box = *usable
	default:
		box = view.server.LayoutBox()
		if out := view.mainOutput(); out != nil {
			box = out.usable
			view.maximizedOn = out
		}
	}

	view.maximized = true
	view.impl.setMaximized(view, true)
	if view.fullscreen {
		view.maximizeRestore = view.fullscreenRestore
		view.fullscreenRestore = box
		return
	}

	view.maximizeRestore = view.box
	if box.Empty() {
		view.server.log.Debug("no area to maximize into", "title", view.Title())
		return
	}
	view.setGeometry(box)
	view.server.seat.cursor.Rebase()
}

// FocusView gives view keyboard focus, activates it, and raises it to
// the top of the stack. Views that are nil or not mapped are ignored.
func (server *Server) FocusView(view *View) {
	if (view == nil) || !view.mapped {
		return
	}

	seat := server.seat
	prev := seat.FocusedView()
	if prev == view {
		return
	}
	if prev != nil {
		prev.setActivated(false)
	}

	view.node.RaiseToTop()
	server.mapped = util.MoveToFront(server.mapped, view)

	view.setActivated(true)
	seat.focusView(view)

	seat.cursor.Rebase()
}

// refitOutput fits the views that are maximized or fullscreen on out
// to its current usable area and box.
func (server *Server) refitOutput(out *Output) {
	for _, view := range server.mapped {
		if (view.fullscreenOn == out) && (view.box != out.box) {
			view.setGeometry(out.box)
		}

		if view.maximizedOn != out {
			continue
		}
		if view.fullscreen {
			view.fullscreenRestore = out.usable
			continue
		}
		if view.box != out.usable {
			view.setGeometry(out.usable)
		}
	}
}

// rehome moves the views that were on out, which is being removed, to
// to.
func (server *Server) rehome(out, to *Output) {
	for _, view := range server.mapped {
		managed := (view.fullscreenOn == out) || (view.maximizedOn == out)
		if view.fullscreenOn == out {
			view.fullscreenOn = to
		}
		if view.maximizedOn == out {
			view.maximizedOn = to
		}
		if !managed && !view.fullscreen && (view.mainOutput() == out) && (to != nil) {
			view.center(to)
		}
	}
	if to != nil {
		server.refitOutput(to)
	}
}
