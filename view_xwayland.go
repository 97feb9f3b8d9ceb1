package sycamore

import (
	"fmt"

	"deedles.dev/sycamore/layout"
	"deedles.dev/ximage/geom"
)

var xwaylandViewImpl = viewImpl{
	connect: func(view *View) {
		s := view.xwayland
		view.requests.Add(s.OnRequestMove(func() { view.onRequestMove() }))
		view.requests.Add(s.OnRequestResize(func(edges layout.Edges) { view.onRequestResize(edges) }))
		view.requests.Add(s.OnRequestFullscreen(func() {
			view.SetFullscreen(nil, s.Fullscreen())
		}))
		view.requests.Add(s.OnRequestMaximize(func() {
			view.SetMaximized(nil, s.Maximized())
		}))
		view.requests.Add(s.OnRequestMinimize(func(bool) {
			s.SetMinimized(false)
		}))
	},
	destroy: func(view *View) {},
	surface: func(view *View) Surface {
		return view.xwayland.Surface()
	},
	pid: func(view *View) int {
		// X clients don't report one.
		return -1
	},
	title: func(view *View) string {
		return view.xwayland.Title()
	},
	geometry: func(view *View) geom.Rect[int] {
		return view.xwayland.Geometry()
	},
	minSize: func(view *View) geom.Point[int] {
		return geom.Point[int]{}
	},
	setActivated: func(view *View, activated bool) {
		view.xwayland.Activate(activated)
	},
	setPosition: func(view *View, x, y int) {
		view.xwayland.Configure(x, y, view.box.Dx(), view.box.Dy())
	},
	setSize: func(view *View, w, h int) {
		view.xwayland.Configure(view.box.Min.X, view.box.Min.Y, w, h)
	},
	setFullscreen: func(view *View, fullscreen bool) {
		view.xwayland.SetFullscreen(fullscreen)
	},
	setMaximized: func(view *View, maximized bool) {
		view.xwayland.SetMaximized(maximized)
	},
	setResizing: func(view *View, resizing bool) {},
	close: func(view *View) {
		view.xwayland.Close()
	},
}

// NewXwaylandSurface creates a view for a new X11 window.
func (server *Server) NewXwaylandSurface(surface XwaylandSurface) (*View, error) {
	view, err := server.newView(ViewKindXwayland, &xwaylandViewImpl, surface.Surface())
	if err != nil {
		server.log.Error("create xwayland view", "err", err)
		return nil, fmt.Errorf("xwayland surface: %w", err)
	}
	view.xwayland = surface

	view.listeners.Add(surface.OnMap(func() {
		view.Map(nil, surface.Maximized(), surface.Fullscreen())
	}))
	view.listeners.Add(surface.OnUnmap(view.Unmap))
	view.listeners.Add(surface.OnDestroy(view.destroy))
	view.listeners.Add(surface.OnCommit(view.onCommit))

	server.views = append(server.views, view)
	return view, nil
}
