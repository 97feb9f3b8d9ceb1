package sycamore

import (
	"fmt"

	"deedles.dev/sycamore/layout"
	"deedles.dev/ximage/geom"
)

var xdgViewImpl = viewImpl{
	connect: func(view *View) {
		s := view.xdg
		view.requests.Add(s.OnRequestMove(func() { view.onRequestMove() }))
		view.requests.Add(s.OnRequestResize(func(edges layout.Edges) { view.onRequestResize(edges) }))
		view.requests.Add(s.OnRequestFullscreen(func() { xdgRequestFullscreen(view) }))
		view.requests.Add(s.OnRequestMaximize(func() { xdgRequestMaximize(view) }))
		view.requests.Add(s.OnRequestMinimize(func() {
			// Minimizing isn't supported, but the client still expects
			// a configure in response.
			s.ScheduleConfigure()
		}))
	},
	destroy: func(view *View) {},
	surface: func(view *View) Surface {
		return view.xdg.Surface()
	},
	pid: func(view *View) int {
		client := view.xdg.Client()
		if client == nil {
			return -1
		}
		return client.PID()
	},
	title: func(view *View) string {
		return view.xdg.Title()
	},
	geometry: func(view *View) geom.Rect[int] {
		return view.xdg.Geometry()
	},
	minSize: func(view *View) geom.Point[int] {
		return view.xdg.MinSize()
	},
	setActivated: func(view *View, activated bool) {
		view.xdg.SetActivated(activated)
	},
	setPosition: func(view *View, x, y int) {},
	setSize: func(view *View, w, h int) {
		view.xdg.SetSize(w, h)
	},
	setFullscreen: func(view *View, fullscreen bool) {
		view.xdg.SetFullscreen(fullscreen)
	},
	setMaximized: func(view *View, maximized bool) {
		view.xdg.SetMaximized(maximized)
	},
	setResizing: func(view *View, resizing bool) {
		view.xdg.SetResizing(resizing)
	},
	close: func(view *View) {
		view.xdg.SendClose()
	},
}

// NewXDGToplevel creates a view for a new xdg-shell toplevel. The view
// maps itself when the toplevel does.
func (server *Server) NewXDGToplevel(toplevel XDGToplevel) (*View, error) {
	view, err := server.newView(ViewKindXDG, &xdgViewImpl, toplevel.Surface())
	if err != nil {
		server.log.Error("create xdg view", "err", err)
		return nil, fmt.Errorf("xdg toplevel: %w", err)
	}
	view.xdg = toplevel

	view.listeners.Add(toplevel.OnMap(func() {
		req := toplevel.Requested()
		view.Map(server.outputFor(req.FullscreenOutput), req.Maximized, req.Fullscreen)
	}))
	view.listeners.Add(toplevel.OnUnmap(view.Unmap))
	view.listeners.Add(toplevel.OnDestroy(view.destroy))
	view.listeners.Add(toplevel.OnCommit(view.onCommit))

	server.views = append(server.views, view)
	return view, nil
}

func xdgRequestFullscreen(view *View) {
	req := view.xdg.Requested()
	if req.Fullscreen == view.fullscreen {
		view.xdg.ScheduleConfigure()
		return
	}
	view.SetFullscreen(view.server.outputFor(req.FullscreenOutput), req.Fullscreen)
}

func xdgRequestMaximize(view *View) {
	req := view.xdg.Requested()
	if req.Maximized == view.maximized {
		view.xdg.ScheduleConfigure()
		return
	}
	view.SetMaximized(nil, req.Maximized)
}
