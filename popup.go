package sycamore

import (
	"fmt"

	"deedles.dev/sycamore/internal/listener"
	"deedles.dev/sycamore/internal/util"
)

type popup struct {
	surface   Surface
	node      SceneNode
	listeners listener.Group
}

// NewXDGPopup adds a popup to the scene under its parent's tree, so
// that it stacks and hit-tests with the view or layer that owns it.
// ErrUnknownParent is returned if the parent isn't a known toplevel,
// layer, or popup.
func (server *Server) NewXDGPopup(xp XDGPopup) error {
	parent := server.popupParent(xp.Parent())
	if parent == nil {
		server.log.Warn("popup has unknown parent")
		return ErrUnknownParent
	}

	node, err := server.scene.CreateSurfaceTree(parent, xp.Surface())
	if err != nil {
		server.log.Error("create popup scene tree", "err", err)
		return fmt.Errorf("create scene tree: %w", err)
	}
	pos := xp.Position()
	node.SetPosition(pos.X, pos.Y)

	p := popup{
		surface: xp.Surface(),
		node:    node,
	}
	p.listeners.Add(xp.OnCommit(func() {
		pos := xp.Position()
		node.SetPosition(pos.X, pos.Y)
	}))
	p.listeners.Add(xp.OnDestroy(func() { server.destroyPopup(&p) }))
	server.popups = append(server.popups, &p)

	server.seat.cursor.Rebase()
	return nil
}

// popupParent returns the scene node that a popup of parent should be
// created under, or nil if parent doesn't belong to anything.
func (server *Server) popupParent(parent Surface) SceneNode {
	if parent == nil {
		return nil
	}

	if view, ok := util.FindFunc(server.views, func(view *View) bool { return view.Surface() == parent }); ok {
		return view.node
	}
	if layer, ok := util.FindFunc(server.layers, func(layer *Layer) bool { return layer.surface.Surface() == parent }); ok {
		return layer.node
	}
	if p, ok := util.FindFunc(server.popups, func(p *popup) bool { return p.surface == parent }); ok {
		return p.node
	}
	return nil
}

func (server *Server) destroyPopup(p *popup) {
	p.listeners.Destroy()
	p.node.Destroy()
	server.popups = util.Remove(server.popups, p)

	server.seat.cursor.Rebase()
}
